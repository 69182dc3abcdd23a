package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"chronodocs/internal/adapters/filesystem"
	"chronodocs/internal/ports"
)

// fileInfo is one rendered row of the change log.
type fileInfo struct {
	Name    string
	Status  ports.FileStatus
	Created time.Time
	Updated time.Time
}

// Options configures a Generator.
type Options struct {
	// Directory is the phase directory the log describes.
	Directory string
	// RepoRoot anchors repository-relative paths for status lookups.
	RepoRoot string
	// Ignores are filename patterns excluded from the log.
	Ignores []string

	CreationIndex ports.CreationIndex
	UpdateIndex   ports.UpdateIndex
	Statuses      ports.StatusProvider

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// Generator renders a Markdown change log for a phase directory from
// the two indices plus version-control status.
type Generator struct {
	dir      string
	repoRoot string
	ignores  []string
	creation ports.CreationIndex
	updates  ports.UpdateIndex
	statuses ports.StatusProvider
	now      func() time.Time
}

// NewGenerator creates a change log generator.
func NewGenerator(opts Options) *Generator {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Generator{
		dir:      opts.Directory,
		repoRoot: opts.RepoRoot,
		ignores:  opts.Ignores,
		creation: opts.CreationIndex,
		updates:  opts.UpdateIndex,
		statuses: opts.Statuses,
		now:      now,
	}
}

// Generate builds the Markdown report.
func (g *Generator) Generate() (string, error) {
	if info, err := os.Stat(g.dir); err != nil || !info.IsDir() {
		return "# Phase Change Log\n\nPhase directory not found.\n", nil
	}
	// Corrupt indices degrade to filesystem timestamps.
	_ = g.creation.Load()
	_ = g.updates.Load()

	infos, err := g.collect()
	if err != nil {
		return "", err
	}
	return g.render(infos), nil
}

// WriteTo generates the report and atomically replaces the file at path.
func (g *Generator) WriteTo(path string) error {
	md, err := g.Generate()
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(md), 0644); err != nil {
		return fmt.Errorf("writing change log: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing change log: %w", err)
	}
	return nil
}

// collect gathers one fileInfo per live, non-ignored file.
func (g *Generator) collect() ([]fileInfo, error) {
	entries, err := filesystem.NewScanner(g.dir, g.ignores).List()
	if err != nil {
		return nil, err
	}

	created := g.creation.All()
	statuses := map[string]ports.FileStatus{}
	if g.statuses != nil {
		statuses = g.statuses.Statuses()
	}

	infos := make([]fileInfo, 0, len(entries))
	for _, entry := range entries {
		info := fileInfo{Name: entry.Name, Status: ports.StatusCommitted}

		rel := entry.Path
		if g.repoRoot != "" {
			if r, err := filepath.Rel(g.repoRoot, entry.Path); err == nil {
				rel = r
			}
		}
		if s, ok := statuses[rel]; ok {
			info.Status = s
		}

		if rec, ok := created[entry.Stat.Identity]; ok {
			info.Created = rec.Created
		} else {
			info.Created = entry.Stat.ModTime
		}
		if rec, ok := g.updates.Record(entry.Stat.Identity); ok && !rec.LastUpdate.IsZero() {
			info.Updated = rec.LastUpdate
		} else {
			info.Updated = entry.Stat.ModTime
		}
		infos = append(infos, info)
	}
	return infos, nil
}

var statusLabels = map[ports.FileStatus]string{
	ports.StatusNew:       "\U0001F7E2 new",
	ports.StatusModified:  "\U0001F7E1 modified",
	ports.StatusStaged:    "\U0001F535 staged",
	ports.StatusCommitted: "⚪ committed",
	ports.StatusDeleted:   "\U0001F534 deleted",
}

// render groups files by the day of their last content update, newest
// day first, and emits one table per day.
func (g *Generator) render(infos []fileInfo) string {
	groups := make(map[string][]fileInfo)
	for _, info := range infos {
		day := info.Updated.Format("2006-01-02")
		groups[day] = append(groups[day], info)
	}
	days := make([]string, 0, len(groups))
	for day := range groups {
		days = append(days, day)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))

	var b strings.Builder
	b.WriteString("# Phase Change Log\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n", g.now().UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "**Phase:** %s\n", filepath.Base(g.dir))
	fmt.Fprintf(&b, "**Total files:** %d\n\n", len(infos))

	for _, day := range days {
		fmt.Fprintf(&b, "## %s\n\n", day)
		b.WriteString("| File | Status | Created | Updated |\n")
		b.WriteString("| ---- | ------ | --------: | --------: |\n")

		files := groups[day]
		sort.Slice(files, func(i, j int) bool {
			if !files[i].Updated.Equal(files[j].Updated) {
				return files[i].Updated.After(files[j].Updated)
			}
			return files[i].Name < files[j].Name
		})
		for _, info := range files {
			label, ok := statusLabels[info.Status]
			if !ok {
				label = string(info.Status)
			}
			fmt.Fprintf(&b, "| [`%s`](./%s) | %s | %s | %s |\n",
				info.Name, info.Name, label,
				info.Created.Format("2006-01-02 15:04:05"),
				info.Updated.Format("2006-01-02 15:04:05"))
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n\n")
	b.WriteString("### Definitions\n")
	b.WriteString("- **\U0001F7E2 new**: Not yet staged/committed\n")
	b.WriteString("- **\U0001F7E1 modified**: Unstaged changes\n")
	b.WriteString("- **\U0001F535 staged**: Staged for commit\n")
	b.WriteString("- **⚪ committed**: In git history with no local changes\n")

	return b.String()
}
