package domain

import (
	"fmt"
	"strings"
	"time"
)

// CollisionPolicy governs what happens when a computed target name is
// already taken by a file outside the current plan.
type CollisionPolicy string

const (
	// CollisionSuffix parks the planned file on a conflict-suffixed name
	// and logs a warning. This is the default.
	CollisionSuffix CollisionPolicy = "suffix"
	// CollisionFail records an error for the planned file and leaves it
	// under its current name.
	CollisionFail CollisionPolicy = "fail"
	// CollisionOverwrite replaces the squatting file. Destructive; never
	// chosen implicitly.
	CollisionOverwrite CollisionPolicy = "overwrite"
)

// ParseCollisionPolicy validates a configured policy string.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch CollisionPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case CollisionSuffix, CollisionPolicy(""):
		return CollisionSuffix, nil
	case CollisionFail:
		return CollisionFail, nil
	case CollisionOverwrite:
		return CollisionOverwrite, nil
	default:
		return "", fmt.Errorf("unknown collision policy: %q", s)
	}
}

// RenameStep is one planned move from a current name to a target name.
type RenameStep struct {
	Identity Identity
	From     string
	To       string
}

// Plan is the computed set of renames for one reconciliation pass.
// Target names are pairwise distinct; identities already carrying their
// canonical name appear in Unchanged.
type Plan struct {
	Steps     []RenameStep
	Unchanged []Identity
}

// Empty reports whether the plan requires no filesystem changes.
func (p Plan) Empty() bool { return len(p.Steps) == 0 }

// Rename is one applied rename, by filename.
type Rename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// FileError records a per-file failure that excluded the file from the
// rest of the run without aborting it.
type FileError struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// IndexDeltas summarizes how a run changed the two indices.
type IndexDeltas struct {
	Added          int `json:"added"`
	Pruned         int `json:"pruned"`
	ContentChanged int `json:"content_changed"`
}

// Result is the immutable outcome of one reconciliation run.
type Result struct {
	Directory string        `json:"directory"`
	Started   time.Time     `json:"started"`
	Duration  time.Duration `json:"duration"`
	DryRun    bool          `json:"dry_run"`
	Renamed   []Rename      `json:"renamed"`
	Skipped   []string      `json:"skipped"`
	Errors    []FileError   `json:"errors"`
	Deltas    IndexDeltas   `json:"deltas"`
}
