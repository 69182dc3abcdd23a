package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"chronodocs/internal/adapters/filesystem"
	"chronodocs/internal/domain"
	"chronodocs/internal/ports"
)

// ErrLoopDetected is returned when reconciliations keep retriggering
// faster than the cooldown allows, which means the engine's own writes
// are feeding back into the watcher. Auto-triggering stops; explicit
// reconciliation stays available.
var ErrLoopDetected = errors.New("reconciliation loop detected, auto-triggering stopped")

// State is the coordinator's position in its dispatch cycle.
type State int

const (
	// Idle means no run is pending or executing.
	Idle State = iota
	// Pending means the debounce timer is armed.
	Pending
	// Running means a reconciliation is executing.
	Running
	// RunningWithFollowup means events arrived during the current run,
	// so the debounce timer re-arms when it completes.
	RunningWithFollowup
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Running:
		return "running"
	case RunningWithFollowup:
		return "running+followup"
	default:
		return "unknown"
	}
}

// Options configures a Coordinator.
type Options struct {
	Directory  string
	Reconciler ports.Reconciler
	// History receives a record per completed run. Optional.
	History ports.RunHistory

	// SelfIgnores are filename patterns whose events never trigger a
	// run: the index files, the generated report, and the engine's
	// in-flight temp names. With Recursive set, every path component
	// is matched, so a directory pattern silences its whole subtree.
	SelfIgnores []string

	// Recursive watches the directory's whole subtree, picking up
	// directories created while watching. The root watcher uses this;
	// the phase watcher stays flat.
	Recursive bool

	// Debounce is the quiet period after the last event before a run
	// starts.
	Debounce time.Duration
	// Cooldown is the minimum gap between the end of one run and the
	// start of the next, enforced even when debounce has elapsed.
	Cooldown time.Duration
	// MaxCooldownViolations bounds how many consecutive run-triggered
	// dispatch cycles may hit the cooldown before the coordinator
	// declares a loop. Only batches whose events arrived during a run
	// count: those are the signature of output feeding back, while
	// ordinary sustained editing arms its batches from idle.
	MaxCooldownViolations int

	Logger *slog.Logger
	Now    func() time.Time
}

// Coordinator debounces filesystem events for one directory and
// guarantees at most one reconciliation in flight. Each watched
// directory gets exactly one Coordinator.
type Coordinator struct {
	dir        string
	reconciler ports.Reconciler
	history    ports.RunHistory
	ignores    []string
	recursive  bool
	debounce   time.Duration
	cooldown   time.Duration
	maxViol    int
	log        *slog.Logger
	now        func() time.Time

	events  chan string
	runDone chan *domain.Result

	state State
	// batchFromRun marks a pending batch whose first event arrived
	// while a reconciliation was executing.
	batchFromRun bool
	violations   int
	deferred     bool
	lastRunEnd   time.Time
}

// New creates a coordinator. Run or Watch must be called to start it.
func New(opts Options) *Coordinator {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	maxViol := opts.MaxCooldownViolations
	if maxViol <= 0 {
		maxViol = 3
	}
	return &Coordinator{
		dir:        opts.Directory,
		reconciler: opts.Reconciler,
		history:    opts.History,
		ignores:    opts.SelfIgnores,
		recursive:  opts.Recursive,
		debounce:   opts.Debounce,
		cooldown:   opts.Cooldown,
		maxViol:    maxViol,
		log:        log,
		now:        now,
		events:     make(chan string, 64),
		runDone:    make(chan *domain.Result, 1),
	}
}

// Notify feeds one filesystem event, identified by its path relative
// to the watched directory (a bare filename when watching flat), into
// the dispatch loop. Safe to call from any goroutine; events arriving
// faster than the loop drains them are dropped, which is harmless
// because any one event is enough to arm the timer.
func (c *Coordinator) Notify(name string) {
	select {
	case c.events <- name:
	default:
	}
}

// Watch subscribes to filesystem notifications for the directory and
// runs the dispatch loop until ctx is cancelled or a loop is detected.
// An initial reconciliation runs before watching so the directory
// starts consistent.
func (c *Coordinator) Watch(ctx context.Context) error {
	res, err := c.reconciler.Reconcile(ctx, false)
	if err != nil {
		return fmt.Errorf("initial reconciliation: %w", err)
	}
	c.finishRun(res, "startup")

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()
	if c.recursive {
		if err := c.addTree(fsw, c.dir); err != nil {
			return fmt.Errorf("watching %s: %w", c.dir, err)
		}
	} else if err := fsw.Add(c.dir); err != nil {
		return fmt.Errorf("watching %s: %w", c.dir, err)
	}

	forwardCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.forward(forwardCtx, fsw)

	c.log.Info("watching", "dir", c.dir, "debounce", c.debounce, "cooldown", c.cooldown)
	return c.Run(ctx)
}

// addTree registers a directory and everything under it, skipping
// subtrees whose name matches an ignore pattern.
func (c *Coordinator) addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root {
			rel, relErr := filepath.Rel(c.dir, path)
			if relErr != nil || c.ignored(rel) {
				return filepath.SkipDir
			}
		}
		return fsw.Add(path)
	})
}

// forward relays fsnotify events into the dispatch loop. In recursive
// mode it also picks up directories created while watching, and
// directory events themselves never trigger a run.
func (c *Coordinator) forward(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			if !c.recursive {
				c.Notify(filepath.Base(ev.Name))
				continue
			}
			rel, err := filepath.Rel(c.dir, ev.Name)
			if err != nil {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Lstat(ev.Name); err == nil && info.IsDir() {
					if !c.ignored(rel) {
						if err := c.addTree(fsw, ev.Name); err != nil {
							c.log.Warn("could not watch new directory", "dir", ev.Name, "error", err)
						}
					}
					continue
				}
			}
			c.Notify(rel)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			c.log.Warn("watcher error", "error", err)
		}
	}
}

// ignored reports whether any component of a relative path matches an
// ignore pattern, so a silenced directory covers its whole subtree.
func (c *Coordinator) ignored(rel string) bool {
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if filesystem.Matches(c.ignores, part) {
			return true
		}
	}
	return false
}

// Run executes the dispatch loop on events fed through Notify. It
// returns when ctx is cancelled, or ErrLoopDetected when runs keep
// retriggering inside the cooldown window.
func (c *Coordinator) Run(ctx context.Context) error {
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}

	arm := func(d time.Duration) {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(d)
	}

	for {
		select {
		case <-ctx.Done():
			c.drainRun()
			return ctx.Err()

		case name := <-c.events:
			if c.ignored(name) {
				continue
			}
			switch c.state {
			case Idle:
				c.state = Pending
				c.batchFromRun = false
				arm(c.debounce)
			case Pending:
				arm(c.debounce)
			case Running:
				c.state = RunningWithFollowup
			}

		case <-timer.C:
			if c.state != Pending {
				continue
			}
			if remaining := c.cooldown - c.now().Sub(c.lastRunEnd); remaining > 0 && !c.lastRunEnd.IsZero() {
				// A deferral only counts toward loop detection when the
				// batch was born during a run: that is output feeding
				// back. Editing that merely outpaces the cooldown arms
				// its batches from idle and resets the count.
				if !c.deferred {
					if c.batchFromRun {
						c.violations++
						if c.violations > c.maxViol {
							c.log.Error("cooldown violated repeatedly", "violations", c.violations)
							return ErrLoopDetected
						}
					} else {
						c.violations = 0
					}
				}
				c.deferred = true
				c.log.Debug("cooldown active, deferring run", "remaining", remaining)
				arm(remaining)
				continue
			}
			if !c.deferred {
				c.violations = 0
			}
			c.deferred = false
			c.state = Running
			go c.execute(ctx)

		case res := <-c.runDone:
			c.finishRun(res, "watch")
			if c.state == RunningWithFollowup {
				c.state = Pending
				c.batchFromRun = true
				arm(c.debounce)
			} else {
				c.state = Idle
			}
		}
	}
}

// execute performs one reconciliation off the loop goroutine.
func (c *Coordinator) execute(ctx context.Context) {
	res, err := c.reconciler.Reconcile(ctx, false)
	if err != nil {
		c.log.Error("reconciliation failed", "dir", c.dir, "error", err)
		res = nil
	}
	c.runDone <- res
}

// finishRun stamps the cooldown clock and records the run.
func (c *Coordinator) finishRun(res *domain.Result, trigger string) {
	c.lastRunEnd = c.now()
	if res == nil {
		return
	}
	c.log.Info("reconciled",
		"dir", c.dir,
		"renamed", len(res.Renamed),
		"errors", len(res.Errors),
		"duration", res.Duration)
	if c.history != nil {
		if err := c.history.Append(res, trigger); err != nil {
			c.log.Warn("could not record run history", "error", err)
		}
	}
}

// drainRun waits out an in-flight reconciliation so shutdown never
// interrupts rename execution.
func (c *Coordinator) drainRun() {
	if c.state != Running && c.state != RunningWithFollowup {
		return
	}
	res := <-c.runDone
	c.finishRun(res, "watch")
	c.state = Idle
}
