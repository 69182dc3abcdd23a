package ports

// FileStatus is the version-control state of a file as shown in reports.
type FileStatus string

const (
	StatusNew       FileStatus = "new"
	StatusModified  FileStatus = "modified"
	StatusStaged    FileStatus = "staged"
	StatusCommitted FileStatus = "committed"
	StatusDeleted   FileStatus = "deleted"
)

// StatusProvider supplies version-control status for report rendering.
// Implementations degrade to StatusCommitted for everything when no
// repository is present; they never fail a report.
type StatusProvider interface {
	// Statuses maps repository-relative paths to their status.
	Statuses() map[string]FileStatus
}
