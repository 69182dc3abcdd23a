package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"chronodocs/internal/adapters/indexfile"
	"chronodocs/internal/domain"
)

var scanIgnores = []string{
	".creation_index.json", ".update_index.json", "change_log.md",
	"*.tmp", "*.lock", "~*", ".*.swp",
}

// testClock hands out a controllable wall clock so creation timestamps
// are deterministic.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestEngine(t *testing.T, dir string, clock *testClock) *Engine {
	t.Helper()
	return New(Options{
		Directory:     dir,
		CreationIndex: indexfile.NewCreationIndex(filepath.Join(dir, ".creation_index.json")),
		UpdateIndex:   indexfile.NewUpdateIndex(filepath.Join(dir, ".update_index.json")),
		ScanIgnores:   scanIgnores,
		Now:           clock.Now,
	})
}

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func listNames(t *testing.T, dir string) []string {
	t.Helper()
	dirents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, d := range dirents {
		if d.IsDir() || d.Name() == ".creation_index.json" || d.Name() == ".update_index.json" {
			continue
		}
		names = append(names, d.Name())
	}
	sort.Strings(names)
	return names
}

func reconcileOK(t *testing.T, e *Engine) *domain.Result {
	t.Helper()
	res, err := e.Reconcile(context.Background(), false)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	return res
}

func TestReconcile_AssignsOrdinalsByCreationOrder(t *testing.T) {
	dir := t.TempDir()
	clock := &testClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}

	// b.md exists first; a.md appears a run later, so it is younger in
	// the index no matter what the filesystem says.
	write(t, dir, "b.md", "first")
	reconcileOK(t, newTestEngine(t, dir, clock))

	clock.Advance(time.Minute)
	write(t, dir, "a.md", "second")
	res := reconcileOK(t, newTestEngine(t, dir, clock))

	got := listNames(t, dir)
	want := []string{"00-b.md", "01-a.md"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("directory = %v, want %v", got, want)
	}
	if len(res.Renamed) != 1 {
		t.Errorf("expected one rename in second run, got %v", res.Renamed)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	dir := t.TempDir()
	clock := &testClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	write(t, dir, "b.md", "b")
	write(t, dir, "a.md", "a")

	reconcileOK(t, newTestEngine(t, dir, clock))
	second := reconcileOK(t, newTestEngine(t, dir, clock))

	if len(second.Renamed) != 0 {
		t.Errorf("second run must plan nothing, renamed %v", second.Renamed)
	}
}

func TestReconcile_TieBreakIsStableAcrossRuns(t *testing.T) {
	// Five files observed in one pass share a creation timestamp, as a
	// bulk copy would. The assignment must be identical on every run.
	dir := t.TempDir()
	clock := &testClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	for _, name := range []string{"e.md", "c.md", "a.md", "d.md", "b.md"} {
		write(t, dir, name, name)
	}

	reconcileOK(t, newTestEngine(t, dir, clock))
	first := listNames(t, dir)

	for i := 0; i < 3; i++ {
		reconcileOK(t, newTestEngine(t, dir, clock))
		if got := listNames(t, dir); !equal(got, first) {
			t.Fatalf("run %d changed the assignment: %v vs %v", i, got, first)
		}
	}
}

func TestReconcile_ClosesGaps(t *testing.T) {
	dir := t.TempDir()
	clock := &testClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}

	write(t, dir, "a.md", "a")
	reconcileOK(t, newTestEngine(t, dir, clock))
	clock.Advance(time.Minute)
	write(t, dir, "b.md", "b")
	reconcileOK(t, newTestEngine(t, dir, clock))
	clock.Advance(time.Minute)
	write(t, dir, "c.md", "c")
	reconcileOK(t, newTestEngine(t, dir, clock))

	if got := listNames(t, dir); !equal(got, []string{"00-a.md", "01-b.md", "02-c.md"}) {
		t.Fatalf("setup produced %v", got)
	}

	if err := os.Remove(filepath.Join(dir, "01-b.md")); err != nil {
		t.Fatal(err)
	}
	res := reconcileOK(t, newTestEngine(t, dir, clock))

	if got := listNames(t, dir); !equal(got, []string{"00-a.md", "01-c.md"}) {
		t.Errorf("gap not closed: %v", got)
	}
	if res.Deltas.Pruned != 1 {
		t.Errorf("expected one pruned record, got %d", res.Deltas.Pruned)
	}
}

func TestReconcile_DeleteFirstShiftsAll(t *testing.T) {
	// The end-to-end example: b.md then a.md with one timestamp, then
	// the first ordinal is deleted.
	dir := t.TempDir()
	clock := &testClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	write(t, dir, "b.md", "b")
	reconcileOK(t, newTestEngine(t, dir, clock))
	write(t, dir, "a.md", "a")
	reconcileOK(t, newTestEngine(t, dir, clock))

	if got := listNames(t, dir); !equal(got, []string{"00-b.md", "01-a.md"}) {
		t.Fatalf("setup produced %v", got)
	}

	if err := os.Remove(filepath.Join(dir, "00-b.md")); err != nil {
		t.Fatal(err)
	}
	reconcileOK(t, newTestEngine(t, dir, clock))

	if got := listNames(t, dir); !equal(got, []string{"00-a.md"}) {
		t.Errorf("expected 00-a.md only, got %v", got)
	}
}

func TestReconcile_RotationNeverLosesContent(t *testing.T) {
	// Force a name rotation: the file holding 00 is deleted, so 01 and
	// 02 both shift into names that were recently occupied.
	dir := t.TempDir()
	clock := &testClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	for _, name := range []string{"a.md", "b.md", "c.md"} {
		write(t, dir, name, "content of "+name)
		reconcileOK(t, newTestEngine(t, dir, clock))
		clock.Advance(time.Minute)
	}

	if err := os.Remove(filepath.Join(dir, "00-a.md")); err != nil {
		t.Fatal(err)
	}
	reconcileOK(t, newTestEngine(t, dir, clock))

	bContent, err := os.ReadFile(filepath.Join(dir, "00-b.md"))
	if err != nil {
		t.Fatalf("00-b.md missing: %v", err)
	}
	if string(bContent) != "content of b.md" {
		t.Errorf("content lost in rotation: %q", bContent)
	}
	cContent, err := os.ReadFile(filepath.Join(dir, "01-c.md"))
	if err != nil {
		t.Fatalf("01-c.md missing: %v", err)
	}
	if string(cContent) != "content of c.md" {
		t.Errorf("content lost in rotation: %q", cContent)
	}
}

func TestReconcile_DryRunPlansWithoutRenaming(t *testing.T) {
	dir := t.TempDir()
	clock := &testClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	write(t, dir, "a.md", "a")

	res, err := newTestEngine(t, dir, clock).Reconcile(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if !res.DryRun {
		t.Error("result not flagged dry run")
	}
	if len(res.Renamed) != 1 || res.Renamed[0].To != "00-a.md" {
		t.Errorf("plan not reported: %v", res.Renamed)
	}
	if got := listNames(t, dir); !equal(got, []string{"a.md"}) {
		t.Errorf("dry run touched the filesystem: %v", got)
	}

	// Indices are persisted even on dry run: stickiness reflects reality.
	if _, err := os.Stat(filepath.Join(dir, ".creation_index.json")); err != nil {
		t.Errorf("creation index not persisted on dry run: %v", err)
	}
}

func TestReconcile_CrashBetweenPhasesConverges(t *testing.T) {
	// Simulate a crash after phase A: planned files sit on temp names,
	// the indices still hold the pre-run state. Running again must land
	// on the same final state an uninterrupted run would have produced.
	dir := t.TempDir()
	clock := &testClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	write(t, dir, "b.md", "b")
	reconcileOK(t, newTestEngine(t, dir, clock))
	clock.Advance(time.Minute)
	write(t, dir, "a.md", "a")
	reconcileOK(t, newTestEngine(t, dir, clock))

	// Strand both files on phase-A temp names by hand.
	if err := os.Rename(filepath.Join(dir, "00-b.md"), filepath.Join(dir, TempPrefix+"aaaa")); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(filepath.Join(dir, "01-a.md"), filepath.Join(dir, TempPrefix+"bbbb")); err != nil {
		t.Fatal(err)
	}

	reconcileOK(t, newTestEngine(t, dir, clock))

	if got := listNames(t, dir); !equal(got, []string{"00-b.md", "01-a.md"}) {
		t.Errorf("crash recovery did not converge: %v", got)
	}
}

func TestReconcile_CollisionSuffix(t *testing.T) {
	dir := t.TempDir()
	clock := &testClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	write(t, dir, "b.md", "b")
	reconcileOK(t, newTestEngine(t, dir, clock))

	// Plant a squatter. It is ignored by the scan (so out of plan) but
	// occupies the next computed target name.
	clock.Advance(time.Minute)
	write(t, dir, "a.md", "a")
	engine := New(Options{
		Directory:     dir,
		CreationIndex: indexfile.NewCreationIndex(filepath.Join(dir, ".creation_index.json")),
		UpdateIndex:   indexfile.NewUpdateIndex(filepath.Join(dir, ".update_index.json")),
		ScanIgnores:   append([]string{"01-a.md"}, scanIgnores...),
		Now:           clock.Now,
	})
	write(t, dir, "01-a.md", "squatter")
	res := reconcileOK(t, engine)

	squatter, err := os.ReadFile(filepath.Join(dir, "01-a.md"))
	if err != nil || string(squatter) != "squatter" {
		t.Fatalf("squatter overwritten: %q err=%v", squatter, err)
	}
	planned, err := os.ReadFile(filepath.Join(dir, "01-a.md.conflict-1"))
	if err != nil || string(planned) != "a" {
		t.Fatalf("planned file not parked on conflict name: %q err=%v", planned, err)
	}
	if len(res.Errors) != 0 {
		t.Errorf("suffix policy must not record errors: %v", res.Errors)
	}
}

func TestReconcile_CollisionFailRestoresOriginal(t *testing.T) {
	dir := t.TempDir()
	clock := &testClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	write(t, dir, "a.md", "a")
	write(t, dir, "00-a.md", "squatter")

	engine := New(Options{
		Directory:     dir,
		CreationIndex: indexfile.NewCreationIndex(filepath.Join(dir, ".creation_index.json")),
		UpdateIndex:   indexfile.NewUpdateIndex(filepath.Join(dir, ".update_index.json")),
		ScanIgnores:   append([]string{"00-a.md"}, scanIgnores...),
		Policy:        domain.CollisionFail,
		Now:           clock.Now,
	})
	res := reconcileOK(t, engine)

	if len(res.Errors) != 1 {
		t.Fatalf("expected one collision error, got %v", res.Errors)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.md")); err != nil {
		t.Error("planned file must be restored to its original name on failure")
	}
	squatter, _ := os.ReadFile(filepath.Join(dir, "00-a.md"))
	if string(squatter) != "squatter" {
		t.Errorf("squatter modified: %q", squatter)
	}
}

func TestReconcile_IrregularEntriesAreNotTracked(t *testing.T) {
	// Symlinks are not tracked files; a dangling one must not surface
	// as a per-file error or block the rest of the batch.
	dir := t.TempDir()
	clock := &testClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	write(t, dir, "a.md", "a")
	if err := os.Symlink(filepath.Join(dir, "missing"), filepath.Join(dir, "ghost.md")); err != nil {
		t.Fatal(err)
	}

	res := reconcileOK(t, newTestEngine(t, dir, clock))

	if len(res.Errors) != 0 {
		t.Errorf("vanished file must not surface as an error: %v", res.Errors)
	}
	found := false
	for _, name := range listNames(t, dir) {
		if name == "00-a.md" {
			found = true
		}
	}
	if !found {
		t.Errorf("surviving file did not get its ordinal: %v", listNames(t, dir))
	}
}

func TestReconcile_SizeLimitSkips(t *testing.T) {
	dir := t.TempDir()
	clock := &testClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	write(t, dir, "big.md", "0123456789")
	write(t, dir, "small.md", "ok")

	engine := New(Options{
		Directory:     dir,
		CreationIndex: indexfile.NewCreationIndex(filepath.Join(dir, ".creation_index.json")),
		UpdateIndex:   indexfile.NewUpdateIndex(filepath.Join(dir, ".update_index.json")),
		ScanIgnores:   scanIgnores,
		HashSizeLimit: 5,
		Now:           clock.Now,
	})
	res := reconcileOK(t, engine)

	if len(res.Skipped) != 1 || res.Skipped[0] != "big.md" {
		t.Errorf("oversized file not flagged skipped: %v", res.Skipped)
	}
	// Skipped files still get ordinals.
	got := listNames(t, dir)
	if len(got) != 2 {
		t.Fatalf("unexpected names: %v", got)
	}
	for _, name := range got {
		if !domain.HasOrdinalPrefix(name) {
			t.Errorf("skipped file left unordered: %v", got)
		}
	}
}

func TestReconcile_OversizedNewFileGetsUpdateRecord(t *testing.T) {
	// A brand-new file over the hash limit is never hashed, but its
	// identity still needs an update record so its current path is
	// persisted alongside the creation record.
	dir := t.TempDir()
	clock := &testClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	write(t, dir, "big.md", "0123456789")

	updates := indexfile.NewUpdateIndex(filepath.Join(dir, ".update_index.json"))
	engine := New(Options{
		Directory:     dir,
		CreationIndex: indexfile.NewCreationIndex(filepath.Join(dir, ".creation_index.json")),
		UpdateIndex:   updates,
		ScanIgnores:   scanIgnores,
		HashSizeLimit: 5,
		Now:           clock.Now,
	})
	res := reconcileOK(t, engine)

	if len(res.Skipped) != 1 {
		t.Fatalf("expected one skipped file, got %v", res.Skipped)
	}
	all := updates.All()
	if len(all) != 1 {
		t.Fatalf("expected one update record, got %d", len(all))
	}
	for _, rec := range all {
		if rec.Path != "00-big.md" {
			t.Errorf("recorded path = %q, want 00-big.md", rec.Path)
		}
		if rec.Hash != "" {
			t.Errorf("skipped file must not carry a hash, got %q", rec.Hash)
		}
		if !rec.LastUpdate.IsZero() {
			t.Errorf("last update stamped without hashing: %v", rec.LastUpdate)
		}
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
