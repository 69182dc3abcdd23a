package ports

// ReportGenerator renders the change log for a phase directory.
type ReportGenerator interface {
	// Generate returns the rendered Markdown.
	Generate() (string, error)
	// WriteTo atomically replaces the file at path with a fresh report.
	WriteTo(path string) error
}
