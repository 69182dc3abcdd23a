package commands

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"chronodocs/internal/application"
	"chronodocs/internal/domain"
	"chronodocs/internal/ports"
)

type stubReconciler struct {
	dir    string
	result *domain.Result
	err    error
	calls  int
}

func (s *stubReconciler) Reconcile(ctx context.Context, dryRun bool) (*domain.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	res := *s.result
	res.DryRun = dryRun
	return &res, nil
}

func (s *stubReconciler) Directory() string { return s.dir }

type stubHistory struct {
	appended []string
	runs     []ports.RunRecord
	err      error
}

func (s *stubHistory) Append(result *domain.Result, trigger string) error {
	if s.err != nil {
		return s.err
	}
	s.appended = append(s.appended, trigger)
	return nil
}

func (s *stubHistory) Recent(limit int) ([]ports.RunRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.runs) {
		return s.runs[:limit], nil
	}
	return s.runs, nil
}

func (s *stubHistory) Close() error { return nil }

type stubGenerator struct {
	markdown string
	written  string
	err      error
}

func (s *stubGenerator) Generate() (string, error) { return s.markdown, s.err }

func (s *stubGenerator) WriteTo(path string) error {
	if s.err != nil {
		return s.err
	}
	s.written = path
	return nil
}

func TestReconcileCommand_Validate(t *testing.T) {
	cmd := NewReconcileCommand(nil, nil, false)
	err := cmd.Validate()
	if err == nil || !strings.Contains(err.Error(), "reconciler is required") {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestReconcileCommand_Execute(t *testing.T) {
	rec := &stubReconciler{
		dir: "/tmp/phase",
		result: &domain.Result{
			Directory: "/tmp/phase",
			Started:   time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
			Renamed:   []domain.Rename{{From: "a.md", To: "00-a.md"}},
		},
	}
	history := &stubHistory{}

	res, err := NewReconcileCommand(rec, history, false).Execute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Message, "Renamed 1 file(s)") {
		t.Errorf("message = %q", res.Message)
	}
	if len(history.appended) != 1 || history.appended[0] != "manual" {
		t.Errorf("history not recorded: %v", history.appended)
	}
}

func TestReconcileCommand_DryRunSkipsHistory(t *testing.T) {
	rec := &stubReconciler{
		dir:    "/tmp/phase",
		result: &domain.Result{Directory: "/tmp/phase"},
	}
	history := &stubHistory{}

	res, err := NewReconcileCommand(rec, history, true).Execute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(history.appended) != 0 {
		t.Error("dry run must not be recorded in history")
	}
	if !strings.Contains(res.Message, "already consistent") {
		t.Errorf("message = %q", res.Message)
	}
}

func TestReconcileCommand_EngineFailure(t *testing.T) {
	rec := &stubReconciler{dir: "/tmp/phase", err: errors.New("disk gone")}

	_, err := NewReconcileCommand(rec, nil, false).Execute(context.Background())
	var rerr *application.ReconcileError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected ReconcileError, got %v", err)
	}
	if rerr.Dir != "/tmp/phase" || !strings.Contains(rerr.Reason, "disk gone") {
		t.Errorf("error missing context: %+v", rerr)
	}
}

func TestReportCommand_RenderOnly(t *testing.T) {
	gen := &stubGenerator{markdown: "# Phase Change Log\n"}

	res, err := NewReportCommand(gen, "").Execute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Markdown != "# Phase Change Log\n" {
		t.Errorf("markdown = %q", res.Markdown)
	}
	if gen.written != "" {
		t.Error("render-only command wrote a file")
	}
}

func TestReportCommand_WritesOutput(t *testing.T) {
	gen := &stubGenerator{markdown: "# Phase Change Log\n"}

	res, err := NewReportCommand(gen, "/tmp/phase/change_log.md").Execute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if gen.written != "/tmp/phase/change_log.md" {
		t.Errorf("written to %q", gen.written)
	}
	if !strings.Contains(res.Message, "change_log.md") {
		t.Errorf("message = %q", res.Message)
	}
}

func TestHistoryCommand_Validate(t *testing.T) {
	tests := []struct {
		name    string
		history ports.RunHistory
		limit   int
		errMsg  string
	}{
		{name: "missing store", history: nil, limit: 10, errMsg: "history store is required"},
		{name: "zero limit", history: &stubHistory{}, limit: 0, errMsg: "limit must be positive"},
		{name: "valid", history: &stubHistory{}, limit: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewHistoryCommand(tt.history, tt.limit).Validate()
			if tt.errMsg == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing %q, got %v", tt.errMsg, err)
			}
		})
	}
}

func TestHistoryCommand_Execute(t *testing.T) {
	history := &stubHistory{runs: []ports.RunRecord{
		{ID: 2, Dir: "/tmp/phase", Trigger: "watch"},
		{ID: 1, Dir: "/tmp/phase", Trigger: "manual"},
	}}

	res, err := NewHistoryCommand(history, 10).Execute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Runs) != 2 || res.Runs[0].ID != 2 {
		t.Errorf("runs = %+v", res.Runs)
	}

	if _, err := NewHistoryCommand(&stubHistory{}, 10).Execute(context.Background()); !errors.Is(err, application.ErrNoHistory) {
		t.Errorf("empty store must surface ErrNoHistory, got %v", err)
	}
}
