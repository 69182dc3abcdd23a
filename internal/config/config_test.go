package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.PhaseDirTemplate != ".devcontext/progress/{phase}" {
		t.Errorf("unexpected template: %s", cfg.PhaseDirTemplate)
	}
	if cfg.PhaseDebounce() != 2*time.Second {
		t.Errorf("unexpected phase debounce: %v", cfg.PhaseDebounce())
	}
	if cfg.PhaseCooldown() != 8*time.Second {
		t.Errorf("unexpected phase cooldown: %v", cfg.PhaseCooldown())
	}
}

func TestLoad_ParsesFile(t *testing.T) {
	dir := t.TempDir()
	content := `
phase_dir_template: docs/{phase}
ignore_patterns:
  - "*.bak"
collision_policy: fail
hash_size_limit: 1048576
debounce:
  phase: 500
  min_interval_phase: 1000
report:
  group_by: created_day
`
	if err := os.WriteFile(filepath.Join(dir, DefaultFileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := cfg.PhaseDir("/repo", "alpha"); got != filepath.Join("/repo", "docs", "alpha") {
		t.Errorf("unexpected phase dir: %s", got)
	}
	if cfg.PhaseDebounce() != 500*time.Millisecond {
		t.Errorf("unexpected debounce: %v", cfg.PhaseDebounce())
	}
	if string(cfg.Policy()) != "fail" {
		t.Errorf("unexpected policy: %s", cfg.Policy())
	}
	if cfg.HashSizeLimit != 1048576 {
		t.Errorf("unexpected hash limit: %d", cfg.HashSizeLimit)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, DefaultFileName), []byte("debounce: [not: a map"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_InvalidPolicy(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, DefaultFileName), []byte("collision_policy: explode"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for unknown collision policy")
	}
}

func TestSelfIgnoreIncludesEngineOutputs(t *testing.T) {
	cfg := Default()
	cfg.IgnorePatterns = []string{"*.bak"}

	want := map[string]bool{
		CreationIndexFile: false,
		UpdateIndexFile:   false,
		ChangeLogFile:     false,
		"chrono-tmp-*":    false,
		"*.bak":           false,
	}
	for _, p := range cfg.SelfIgnorePatterns() {
		if _, ok := want[p]; ok {
			want[p] = true
		}
	}
	for p, seen := range want {
		if !seen {
			t.Errorf("self-ignore set missing %q", p)
		}
	}
}

func TestScanIgnoreExcludesTempPattern(t *testing.T) {
	// Leftover phase-A temp files must be scanned so a crashed run is
	// repaired by simply running again.
	for _, p := range Default().ScanIgnorePatterns() {
		if p == "chrono-tmp-*" {
			t.Fatal("scan ignore set must not hide crash-recovery temp names")
		}
	}
}
