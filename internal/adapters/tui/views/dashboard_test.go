package views

import (
	"context"
	"strings"
	"testing"
	"time"

	"chronodocs/internal/domain"
	"chronodocs/internal/ports"
)

type fakeReconciler struct {
	dir    string
	result *domain.Result
}

func (f *fakeReconciler) Reconcile(ctx context.Context, dryRun bool) (*domain.Result, error) {
	res := *f.result
	res.DryRun = dryRun
	return &res, nil
}

func (f *fakeReconciler) Directory() string { return f.dir }

type fakeCreation struct {
	records map[domain.Identity]domain.CreationRecord
}

func (f *fakeCreation) Load() error { return nil }

func (f *fakeCreation) All() map[domain.Identity]domain.CreationRecord { return f.records }

func (f *fakeCreation) RecordIfAbsent(id domain.Identity, filename string, portable bool, observedAt time.Time) (domain.CreationRecord, bool) {
	return domain.CreationRecord{}, false
}

func (f *fakeCreation) SetFilename(id domain.Identity, filename string) {}

func (f *fakeCreation) Prune(live map[domain.Identity]struct{}) int { return 0 }

func (f *fakeCreation) Persist() error { return nil }

func TestDashboard_RefreshMarksPendingRenames(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	creation := &fakeCreation{records: map[domain.Identity]domain.CreationRecord{
		"dev:1-ino:1": {Identity: "dev:1-ino:1", Filename: "00-b.md", Created: base, Seq: 1},
		"dev:1-ino:2": {Identity: "dev:1-ino:2", Filename: "a.md", Created: base.Add(time.Minute), Seq: 2},
	}}
	m := NewDashboardModel(&fakeReconciler{dir: "/tmp/phase"}, creation, nil)

	msg := m.refresh()()
	refreshed, ok := msg.(RefreshDoneMsg)
	if !ok {
		t.Fatalf("refresh returned %T", msg)
	}
	if refreshed.Err != nil {
		t.Fatal(refreshed.Err)
	}
	if len(refreshed.Files) != 2 {
		t.Fatalf("files = %+v", refreshed.Files)
	}
	if refreshed.Files[0].Name != "b.md" || refreshed.Files[0].Pending {
		t.Errorf("settled file misreported: %+v", refreshed.Files[0])
	}
	if refreshed.Files[1].Name != "a.md" || !refreshed.Files[1].Pending {
		t.Errorf("unprefixed file must be pending: %+v", refreshed.Files[1])
	}
}

func TestDashboard_ReconcileDoneSetsMessage(t *testing.T) {
	m := NewDashboardModel(&fakeReconciler{dir: "/tmp/phase"}, &fakeCreation{}, nil)

	result := &domain.Result{
		Directory: "/tmp/phase",
		Duration:  42 * time.Millisecond,
		Renamed:   []domain.Rename{{From: "a.md", To: "00-a.md"}},
	}
	m.busy = true
	m, _ = m.Update(ReconcileDoneMsg{Result: result})

	if m.busy {
		t.Error("busy flag not cleared")
	}
	if !strings.Contains(m.message, "renamed 1 file(s)") {
		t.Errorf("message = %q", m.message)
	}

	view := m.View()
	if !strings.Contains(view, "ChronoDocs") || !strings.Contains(view, "/tmp/phase") {
		t.Errorf("view missing header:\n%s", view)
	}
}

var _ ports.CreationIndex = (*fakeCreation)(nil)
