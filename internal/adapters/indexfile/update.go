package indexfile

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"chronodocs/internal/domain"
	"chronodocs/internal/ports"
)

// UpdateIndex implements ports.UpdateIndex on a JSON file.
type UpdateIndex struct {
	path    string
	entries map[domain.Identity]domain.UpdateRecord
}

var _ ports.UpdateIndex = (*UpdateIndex)(nil)

// NewUpdateIndex creates an index backed by the given file path.
func NewUpdateIndex(path string) *UpdateIndex {
	return &UpdateIndex{
		path:    path,
		entries: make(map[domain.Identity]domain.UpdateRecord),
	}
}

// Load reads the index file with the same missing/corrupt semantics as
// the creation index.
func (u *UpdateIndex) Load() error {
	u.entries = make(map[domain.Identity]domain.UpdateRecord)

	data, err := os.ReadFile(u.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: %s: %v", ErrCorruptIndex, u.path, err)
	}
	if len(data) == 0 {
		return nil
	}

	var entries map[domain.Identity]domain.UpdateRecord
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptIndex, u.path, err)
	}
	u.entries = entries
	return nil
}

// All returns a copy of every record.
func (u *UpdateIndex) All() map[domain.Identity]domain.UpdateRecord {
	out := make(map[domain.Identity]domain.UpdateRecord, len(u.entries))
	for k, v := range u.entries {
		out[k] = v
	}
	return out
}

// Refresh records the current path unconditionally, but touches the
// hash and last-update timestamp only when the content actually
// changed. It reports whether it did.
func (u *UpdateIndex) Refresh(id domain.Identity, path, hash string, now time.Time) bool {
	rec, ok := u.entries[id]
	if !ok {
		u.entries[id] = domain.UpdateRecord{
			Identity:    id,
			Path:        path,
			Hash:        hash,
			LastUpdate:  now,
			PathHistory: []string{path},
		}
		return true
	}

	changed := rec.Hash != hash
	if changed {
		rec.Hash = hash
		rec.LastUpdate = now
	}
	rec.RecordPath(path)
	u.entries[id] = rec
	return changed
}

// RecordPath tracks the current path without touching content fields.
// An identity seen before it could ever be hashed (over the size limit,
// say) gets a bare record here: no hash, zero last-update, so every
// tracked file has its path on record from the first run.
func (u *UpdateIndex) RecordPath(id domain.Identity, path string) {
	rec, ok := u.entries[id]
	if !ok {
		u.entries[id] = domain.UpdateRecord{
			Identity:    id,
			Path:        path,
			PathHistory: []string{path},
		}
		return
	}
	rec.RecordPath(path)
	u.entries[id] = rec
}

// Record returns the stored record for an identity.
func (u *UpdateIndex) Record(id domain.Identity) (domain.UpdateRecord, bool) {
	rec, ok := u.entries[id]
	return rec, ok
}

// Prune drops records for dead identities.
func (u *UpdateIndex) Prune(live map[domain.Identity]struct{}) int {
	pruned := 0
	for id := range u.entries {
		if _, ok := live[id]; !ok {
			delete(u.entries, id)
			pruned++
		}
	}
	return pruned
}

// Persist atomically replaces the index file.
func (u *UpdateIndex) Persist() error {
	return writeJSONAtomic(u.path, u.entries)
}
