package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
)

// Entry is one live file found by a directory scan.
type Entry struct {
	Name string
	Path string
	Stat FileStat
}

// Scanner enumerates a single directory, non-recursively, excluding
// names that match its ignore patterns.
type Scanner struct {
	dir     string
	ignores []string
}

// NewScanner creates a scanner for dir with the given ignore patterns.
func NewScanner(dir string, ignores []string) *Scanner {
	return &Scanner{dir: dir, ignores: ignores}
}

// Ignored reports whether a bare filename matches an ignore pattern.
func (s *Scanner) Ignored(name string) bool {
	return Matches(s.ignores, name)
}

// List returns every live, non-ignored regular file in the directory.
// Subdirectories are never descended into; symlinks and other
// irregular entries are not tracked. Files that vanish between the
// listing and the stat are simply omitted.
func (s *Scanner) List() ([]Entry, error) {
	dirents, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", s.dir, err)
	}

	var entries []Entry
	for _, d := range dirents {
		if !d.Type().IsRegular() || s.Ignored(d.Name()) {
			continue
		}
		path := filepath.Join(s.dir, d.Name())
		stat, found, err := Resolve(path)
		if err != nil || !found {
			continue
		}
		entries = append(entries, Entry{Name: d.Name(), Path: path, Stat: stat})
	}
	return entries, nil
}

// Matches reports whether name matches any of the glob patterns.
// Patterns apply to bare filenames, matching the original tool's
// fnmatch semantics.
func Matches(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
		if p == name {
			return true
		}
	}
	return false
}
