// Package reconcile computes and applies the minimal set of renames
// that makes a directory's ordinal prefixes match the canonical
// creation order held in the indices.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"chronodocs/internal/adapters/filesystem"
	"chronodocs/internal/domain"
	"chronodocs/internal/ports"
)

// TempPrefix marks phase-A intermediate names. The watcher ignores the
// pattern; the scanner does not, so leftovers from a crash are
// re-planned like any other mis-named file.
const TempPrefix = "chrono-tmp-"

// Options configures an Engine. CreationIndex and UpdateIndex are
// exclusively owned by the engine for the lifetime of a run.
type Options struct {
	Directory     string
	CreationIndex ports.CreationIndex
	UpdateIndex   ports.UpdateIndex
	ScanIgnores   []string
	Policy        domain.CollisionPolicy
	HashSizeLimit int64
	Logger        *slog.Logger

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// Engine is the reconciler for one directory.
type Engine struct {
	dir      string
	creation ports.CreationIndex
	updates  ports.UpdateIndex
	scanner  *filesystem.Scanner
	policy   domain.CollisionPolicy
	hashMax  int64
	log      *slog.Logger
	now      func() time.Time
}

var _ ports.Reconciler = (*Engine)(nil)

// New creates an engine from options, filling in defaults.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Policy == "" {
		opts.Policy = domain.CollisionSuffix
	}
	return &Engine{
		dir:      opts.Directory,
		creation: opts.CreationIndex,
		updates:  opts.UpdateIndex,
		scanner:  filesystem.NewScanner(opts.Directory, opts.ScanIgnores),
		policy:   opts.Policy,
		hashMax:  opts.HashSizeLimit,
		log:      opts.Logger,
		now:      opts.Now,
	}
}

// Directory returns the directory this engine reconciles.
func (e *Engine) Directory() string { return e.dir }

// Reconcile runs one full pass: scan, index, order, plan, execute,
// persist. With dryRun the plan is computed and reported but not
// executed; the indices are persisted either way, since creation-time
// stickiness and content hashes reflect reality regardless.
func (e *Engine) Reconcile(ctx context.Context, dryRun bool) (*domain.Result, error) {
	started := e.now()
	result := &domain.Result{
		Directory: e.dir,
		Started:   started,
		DryRun:    dryRun,
	}

	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return nil, fmt.Errorf("ensuring directory %s: %w", e.dir, err)
	}

	e.loadIndex(e.creation.Load)
	e.loadIndex(e.updates.Load)

	entries, err := e.scanner.List()
	if err != nil {
		return nil, err
	}

	tracked := e.indexEntries(ctx, entries, result)
	e.pruneDead(tracked, result)

	ordered := e.canonicalOrder(tracked)
	plan := e.buildPlan(ordered, tracked)

	if dryRun {
		for _, step := range plan.Steps {
			result.Renamed = append(result.Renamed, domain.Rename{From: step.From, To: step.To})
		}
	} else if !plan.Empty() {
		// Shutdown must never leave a plan half applied: once execution
		// starts it runs to completion, so the only cancellation point
		// is here.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.execute(plan, result)
	}

	if err := e.creation.Persist(); err != nil {
		return nil, fmt.Errorf("persisting creation index: %w", err)
	}
	if err := e.updates.Persist(); err != nil {
		return nil, fmt.Errorf("persisting update index: %w", err)
	}

	result.Duration = e.now().Sub(started)
	return result, nil
}

// loadIndex loads an index, logging corruption as a degradation rather
// than failing: the engine rebuilds from the live directory.
func (e *Engine) loadIndex(load func() error) {
	if err := load(); err != nil {
		e.log.Warn("index unreadable, rebuilding from directory", "dir", e.dir, "error", err)
	}
}

type hashOutcome struct {
	hash    string
	skipped bool
	err     error
}

// indexEntries gives every live file a sticky creation record and a
// fresh content hash, and returns the identities that remain in play.
// Files that cannot be hashed are recorded in errors and excluded from
// the rest of the run; oversized files are flagged skipped but keep
// their place in the ordering.
func (e *Engine) indexEntries(ctx context.Context, entries []filesystem.Entry, result *domain.Result) map[domain.Identity]filesystem.Entry {
	outcomes := make([]hashOutcome, len(entries))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, entry := range entries {
		g.Go(func() error {
			h, err := filesystem.HashFile(entry.Path, e.hashMax)
			switch {
			case errors.Is(err, filesystem.ErrTooLarge):
				outcomes[i] = hashOutcome{skipped: true}
			case err != nil:
				outcomes[i] = hashOutcome{err: err}
			default:
				outcomes[i] = hashOutcome{hash: h}
			}
			return nil
		})
	}
	g.Wait()

	now := e.now()
	tracked := make(map[domain.Identity]filesystem.Entry, len(entries))
	for i, entry := range entries {
		id := entry.Stat.Identity
		if _, added := e.creation.RecordIfAbsent(id, entry.Name, entry.Stat.Portable, now); added {
			result.Deltas.Added++
		}
		// A temp name means a previous run crashed between rename
		// phases. The index still holds the file's real name, which is
		// the stem the re-plan must target, so it is left alone here.
		if !isTempName(entry.Name) {
			e.creation.SetFilename(id, entry.Name)
		}

		switch out := outcomes[i]; {
		case out.err != nil:
			result.Errors = append(result.Errors, domain.FileError{Path: entry.Name, Reason: out.err.Error()})
			e.log.Warn("file unreadable, excluded from this run", "file", entry.Name, "error", out.err)
		case out.skipped:
			result.Skipped = append(result.Skipped, entry.Name)
			e.updates.RecordPath(id, entry.Name)
			tracked[id] = entry
		default:
			if e.updates.Refresh(id, entry.Name, out.hash, now) {
				result.Deltas.ContentChanged++
			}
			tracked[id] = entry
		}
	}
	return tracked
}

// pruneDead drops index records for identities that left the directory.
func (e *Engine) pruneDead(tracked map[domain.Identity]filesystem.Entry, result *domain.Result) {
	live := make(map[domain.Identity]struct{}, len(tracked))
	for id := range tracked {
		live[id] = struct{}{}
	}
	// Files excluded by a read error this run are still on disk; their
	// records must survive.
	for _, fe := range result.Errors {
		if stat, found, err := filesystem.Resolve(filepath.Join(e.dir, fe.Path)); err == nil && found {
			live[stat.Identity] = struct{}{}
		}
	}
	result.Deltas.Pruned = e.creation.Prune(live)
	e.updates.Prune(live)
}

// canonicalOrder sorts the tracked identities by (recorded creation
// time, tie-break sequence).
func (e *Engine) canonicalOrder(tracked map[domain.Identity]filesystem.Entry) []domain.CreationRecord {
	all := e.creation.All()
	records := make([]domain.CreationRecord, 0, len(tracked))
	for id := range tracked {
		if rec, ok := all[id]; ok {
			records = append(records, rec)
		}
	}
	domain.SortCanonical(records)
	return records
}

// buildPlan diffs current names against target names. Files already
// carrying their canonical name are untouched, which is what makes a
// repeat run a no-op. The target stem comes from the index's filename,
// not the on-disk name, so files stranded on temp names by a crash are
// planned back to their real stems.
func (e *Engine) buildPlan(ordered []domain.CreationRecord, tracked map[domain.Identity]filesystem.Entry) domain.Plan {
	var plan domain.Plan
	for pos, rec := range ordered {
		current := tracked[rec.Identity].Name
		target := domain.OrdinalName(pos, rec.Filename)
		if target == current {
			plan.Unchanged = append(plan.Unchanged, rec.Identity)
			continue
		}
		plan.Steps = append(plan.Steps, domain.RenameStep{
			Identity: rec.Identity,
			From:     current,
			To:       target,
		})
	}
	return plan
}

func isTempName(name string) bool {
	return strings.HasPrefix(name, TempPrefix)
}

// execute applies the plan in two phases. Every changing file first
// moves to a unique temporary name outside the target namespace, then
// each temporary moves to its final target, so shifting ordinals can
// trade names without any rename overwriting a file that still needs
// to be read.
func (e *Engine) execute(plan domain.Plan, result *domain.Result) {
	type staged struct {
		step domain.RenameStep
		tmp  string
	}

	var stagedSteps []staged
	for _, step := range plan.Steps {
		tmp := TempPrefix + uuid.NewString()
		if err := os.Rename(filepath.Join(e.dir, step.From), filepath.Join(e.dir, tmp)); err != nil {
			if os.IsNotExist(err) {
				e.log.Warn("file vanished before rename, skipping", "file", step.From)
			} else {
				e.log.Error("staging rename failed", "file", step.From, "error", err)
			}
			result.Errors = append(result.Errors, domain.FileError{Path: step.From, Reason: err.Error()})
			continue
		}
		stagedSteps = append(stagedSteps, staged{step: step, tmp: tmp})
	}

	for _, s := range stagedSteps {
		target, err := e.claimTarget(s.step)
		if err != nil {
			// Collision under the fail policy: put the file back where
			// it was rather than leaving it on a temp name.
			if restoreErr := os.Rename(filepath.Join(e.dir, s.tmp), filepath.Join(e.dir, s.step.From)); restoreErr != nil {
				e.log.Error("could not restore after collision", "file", s.step.From, "error", restoreErr)
			}
			result.Errors = append(result.Errors, domain.FileError{Path: s.step.From, Reason: err.Error()})
			continue
		}
		if err := os.Rename(filepath.Join(e.dir, s.tmp), filepath.Join(e.dir, target)); err != nil {
			result.Errors = append(result.Errors, domain.FileError{Path: s.step.From, Reason: err.Error()})
			continue
		}

		e.log.Info("renamed", "from", s.step.From, "to", target)
		result.Renamed = append(result.Renamed, domain.Rename{From: s.step.From, To: target})
		e.creation.SetFilename(s.step.Identity, target)
		e.updates.RecordPath(s.step.Identity, target)
	}
}

// claimTarget resolves the final name for a staged step. After phase A
// every planned file sits on a temp name, so anything found at the
// target is an out-of-plan squatter handled per the collision policy.
func (e *Engine) claimTarget(step domain.RenameStep) (string, error) {
	if _, err := os.Lstat(filepath.Join(e.dir, step.To)); os.IsNotExist(err) {
		return step.To, nil
	}

	switch e.policy {
	case domain.CollisionOverwrite:
		e.log.Warn("target occupied, overwriting per policy", "target", step.To)
		return step.To, nil
	case domain.CollisionFail:
		return "", fmt.Errorf("target %s already exists", step.To)
	default:
		for n := 1; ; n++ {
			candidate := fmt.Sprintf("%s.conflict-%d", step.To, n)
			if _, err := os.Lstat(filepath.Join(e.dir, candidate)); os.IsNotExist(err) {
				e.log.Warn("target occupied, using conflict suffix", "target", step.To, "renamed_to", candidate)
				return candidate, nil
			}
		}
	}
}
