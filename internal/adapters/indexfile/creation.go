// Package indexfile persists the two reconciliation indices as complete
// JSON documents, replaced atomically so a reader never observes a
// half-written file.
package indexfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"chronodocs/internal/domain"
	"chronodocs/internal/ports"
)

// ErrCorruptIndex marks a structurally unreadable index file. Load
// returns it alongside an empty index; the engine logs the degradation
// and rebuilds from the live directory.
var ErrCorruptIndex = errors.New("corrupt index")

// CreationIndex implements ports.CreationIndex on a JSON file.
type CreationIndex struct {
	path    string
	entries map[domain.Identity]domain.CreationRecord
	nextSeq uint64
}

var _ ports.CreationIndex = (*CreationIndex)(nil)

// NewCreationIndex creates an index backed by the given file path.
func NewCreationIndex(path string) *CreationIndex {
	return &CreationIndex{
		path:    path,
		entries: make(map[domain.Identity]domain.CreationRecord),
		nextSeq: 1,
	}
}

// Load reads the index file. Missing or empty files yield an empty
// index and no error; corrupt content yields an empty index and an
// ErrCorruptIndex the caller may log.
func (c *CreationIndex) Load() error {
	c.entries = make(map[domain.Identity]domain.CreationRecord)
	c.nextSeq = 1

	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: %s: %v", ErrCorruptIndex, c.path, err)
	}
	if len(data) == 0 {
		return nil
	}

	var entries map[domain.Identity]domain.CreationRecord
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptIndex, c.path, err)
	}

	c.entries = entries
	for _, rec := range entries {
		if rec.Seq >= c.nextSeq {
			c.nextSeq = rec.Seq + 1
		}
	}
	return nil
}

// All returns a copy of every record.
func (c *CreationIndex) All() map[domain.Identity]domain.CreationRecord {
	out := make(map[domain.Identity]domain.CreationRecord, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// RecordIfAbsent makes creation time sticky: an identity that already
// has a record keeps it untouched.
func (c *CreationIndex) RecordIfAbsent(id domain.Identity, filename string, portable bool, observedAt time.Time) (domain.CreationRecord, bool) {
	if rec, ok := c.entries[id]; ok {
		return rec, false
	}
	rec := domain.CreationRecord{
		Identity: id,
		Filename: filename,
		Created:  observedAt,
		Seq:      c.nextSeq,
		Portable: portable,
	}
	c.nextSeq++
	c.entries[id] = rec
	return rec, true
}

// SetFilename updates only the currently-known filename.
func (c *CreationIndex) SetFilename(id domain.Identity, filename string) {
	if rec, ok := c.entries[id]; ok && rec.Filename != filename {
		rec.Filename = filename
		c.entries[id] = rec
	}
}

// Prune drops records for identities no longer present. Retired
// identities are never recycled: nextSeq is not rewound.
func (c *CreationIndex) Prune(live map[domain.Identity]struct{}) int {
	pruned := 0
	for id := range c.entries {
		if _, ok := live[id]; !ok {
			delete(c.entries, id)
			pruned++
		}
	}
	return pruned
}

// Persist atomically replaces the index file.
func (c *CreationIndex) Persist() error {
	return writeJSONAtomic(c.path, c.entries)
}

// writeJSONAtomic writes v to a temporary file in the target's own
// directory and renames it over the final path.
func writeJSONAtomic(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing index: %w", err)
	}
	return nil
}
