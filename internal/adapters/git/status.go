package git

import (
	"os/exec"
	"strings"

	"chronodocs/internal/ports"
)

// Provider implements ports.StatusProvider by shelling out to git.
// When git is missing or the directory is not a repository, every file
// reads as committed and reports proceed without version-control detail.
type Provider struct {
	repoRoot string
}

// NewProvider creates a status provider rooted at repoRoot.
func NewProvider(repoRoot string) *Provider {
	return &Provider{repoRoot: repoRoot}
}

// Statuses returns the porcelain status of every changed or untracked
// file, keyed by repository-relative path. Files absent from the map
// are committed and clean.
func (p *Provider) Statuses() map[string]ports.FileStatus {
	out := p.run("status", "--porcelain", "-z", "--untracked-files=all")
	statuses := make(map[string]ports.FileStatus)
	if out == "" {
		return statuses
	}

	for _, line := range strings.Split(strings.Trim(out, "\x00"), "\x00") {
		if len(line) < 4 {
			continue
		}
		indexCode, worktreeCode := line[0], line[1]
		path := line[3:]
		// Renames report "old -> new"; the current name is what matters.
		if idx := strings.Index(path, " -> "); idx >= 0 {
			path = path[idx+len(" -> "):]
		}

		status := ports.StatusCommitted
		switch {
		case worktreeCode == '?':
			status = ports.StatusNew
		case worktreeCode == 'M':
			status = ports.StatusModified
		case indexCode == 'A' || indexCode == 'M' || indexCode == 'R':
			status = ports.StatusStaged
		case indexCode == 'D':
			status = ports.StatusDeleted
		}
		statuses[path] = status
	}
	return statuses
}

// run executes a git subcommand and returns its stdout, or "" on any
// failure. Reports must render whether or not git cooperates.
func (p *Provider) run(args ...string) string {
	cmd := exec.Command("git", args...)
	cmd.Dir = p.repoRoot
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return string(out)
}
