package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"chronodocs/internal/domain"
)

func TestHistory_AppendAndRecent(t *testing.T) {
	h, err := OpenHistory(filepath.Join(t.TempDir(), ".chronodocs", "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		result := &domain.Result{
			Directory: "/tmp/phase",
			Started:   base.Add(time.Duration(i) * time.Minute),
			Duration:  250 * time.Millisecond,
			Renamed:   make([]domain.Rename, i),
		}
		if err := h.Append(result, "watch"); err != nil {
			t.Fatal(err)
		}
	}

	records, err := h.Recent(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("Recent(2) returned %d records", len(records))
	}
	if records[0].Renamed != 2 || records[1].Renamed != 1 {
		t.Errorf("not newest first: %+v", records)
	}
	if records[0].Trigger != "watch" {
		t.Errorf("trigger = %q", records[0].Trigger)
	}
	if records[0].Started != "2025-06-01T10:02:00Z" {
		t.Errorf("started = %q", records[0].Started)
	}
}

func TestHistory_SurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	h, err := OpenHistory(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	result := &domain.Result{
		Directory: "/tmp/phase",
		Started:   time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		DryRun:    true,
	}
	if err := h.Append(result, "manual"); err != nil {
		t.Fatal(err)
	}
	if err := h.Close(); err != nil {
		t.Fatal(err)
	}

	h2, err := OpenHistory(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer h2.Close()
	records, err := h2.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || !records[0].DryRun {
		t.Errorf("persisted run lost or mangled: %+v", records)
	}
}
