package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"chronodocs/internal/domain"
)

// DefaultFileName is the config file looked up at the repo root.
const DefaultFileName = ".chronodocs.yml"

// Index and report artifacts the watcher must never react to.
const (
	CreationIndexFile = ".creation_index.json"
	UpdateIndexFile   = ".update_index.json"
	ChangeLogFile     = "change_log.md"
	HistoryDir        = ".chronodocs"
)

// DebounceConfig holds the watch timing knobs, all in milliseconds.
type DebounceConfig struct {
	Phase            int `yaml:"phase"`
	Root             int `yaml:"root"`
	MinIntervalPhase int `yaml:"min_interval_phase"`
	MinIntervalRoot  int `yaml:"min_interval_root"`
}

// ReportConfig controls change-log rendering.
type ReportConfig struct {
	Extensions []string `yaml:"extensions"`
	GroupBy    string   `yaml:"group_by"`
	SortBy     string   `yaml:"sort_by"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Config is the parsed .chronodocs.yml.
type Config struct {
	PhaseDirTemplate string         `yaml:"phase_dir_template"`
	WatchPaths       []string       `yaml:"watch_paths"`
	IgnorePatterns   []string       `yaml:"ignore_patterns"`
	CollisionPolicy  string         `yaml:"collision_policy"`
	HashSizeLimit    int64          `yaml:"hash_size_limit"`
	Debounce         DebounceConfig `yaml:"debounce"`
	Report           ReportConfig   `yaml:"report"`
	Logging          LoggingConfig  `yaml:"logging"`
}

// Default returns the zero-config defaults. A missing config file is not
// an error; the defaults are complete enough to run with.
func Default() *Config {
	return &Config{
		PhaseDirTemplate: ".devcontext/progress/{phase}",
		Debounce: DebounceConfig{
			Phase:            2000,
			Root:             3000,
			MinIntervalPhase: 8000,
			MinIntervalRoot:  8000,
		},
		Report: ReportConfig{
			Extensions: []string{".md", ".py", ".txt"},
			GroupBy:    "updated_day",
			SortBy:     "updated_desc",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads the config file under repoRoot, honoring the
// CHRONODOCS_CONFIG override. A missing file yields the defaults.
func Load(repoRoot string) (*Config, error) {
	path := filepath.Join(repoRoot, DefaultFileName)
	if env := os.Getenv("CHRONODOCS_CONFIG"); env != "" {
		path = env
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	if _, err := domain.ParseCollisionPolicy(cfg.CollisionPolicy); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// PhaseDir expands the phase directory template for a phase name.
func (c *Config) PhaseDir(repoRoot, phase string) string {
	rel := strings.ReplaceAll(c.PhaseDirTemplate, "{phase}", phase)
	return filepath.Join(repoRoot, rel)
}

// Policy returns the parsed collision policy. Load already validated it.
func (c *Config) Policy() domain.CollisionPolicy {
	p, _ := domain.ParseCollisionPolicy(c.CollisionPolicy)
	return p
}

// PhaseDebounce returns the phase debounce window as a duration.
func (c *Config) PhaseDebounce() time.Duration {
	return time.Duration(c.Debounce.Phase) * time.Millisecond
}

// RootDebounce returns the root debounce window as a duration.
func (c *Config) RootDebounce() time.Duration {
	return time.Duration(c.Debounce.Root) * time.Millisecond
}

// PhaseCooldown returns the minimum interval between phase reconciles.
func (c *Config) PhaseCooldown() time.Duration {
	return time.Duration(c.Debounce.MinIntervalPhase) * time.Millisecond
}

// RootCooldown returns the minimum interval between root report runs.
func (c *Config) RootCooldown() time.Duration {
	return time.Duration(c.Debounce.MinIntervalRoot) * time.Millisecond
}

// SelfIgnorePatterns returns every pattern the watcher must treat as
// non-triggering: the configured ignores plus the engine's own outputs.
func (c *Config) SelfIgnorePatterns() []string {
	patterns := []string{
		CreationIndexFile,
		UpdateIndexFile,
		ChangeLogFile,
		HistoryDir,
		"chrono-tmp-*",
		"*.tmp",
		"*.lock",
		"~*",
		".*.swp",
	}
	return append(patterns, c.IgnorePatterns...)
}

// RootIgnorePatterns returns the patterns the repo-root watcher never
// reacts to: everything the phase watcher ignores plus directories
// that churn on their own. The watcher matches these against every
// path component, so ".git" silences the whole subtree.
func (c *Config) RootIgnorePatterns() []string {
	return append([]string{".git", "node_modules"}, c.SelfIgnorePatterns()...)
}

// ScanIgnorePatterns returns the patterns the engine excludes when
// enumerating a directory. Crash-recovery temp names are deliberately
// absent: leftover phase-A intermediates must be re-planned as ordinary
// mis-named files.
func (c *Config) ScanIgnorePatterns() []string {
	patterns := []string{
		CreationIndexFile,
		UpdateIndexFile,
		ChangeLogFile,
		"*.tmp",
		"*.lock",
		"~*",
		".*.swp",
	}
	return append(patterns, c.IgnorePatterns...)
}
