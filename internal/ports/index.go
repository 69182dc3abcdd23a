package ports

import (
	"time"

	"chronodocs/internal/domain"
)

// CreationIndex is the persistent store for creation records. The
// reconciliation engine is its only writer.
type CreationIndex interface {
	// Load reads the index from disk into memory. A missing or empty
	// file yields an empty index; corrupt content yields an empty index
	// plus a diagnostic error the caller may log — it never fails the run.
	Load() error

	// All returns a copy of every record currently held.
	All() map[domain.Identity]domain.CreationRecord

	// RecordIfAbsent assigns a creation time and a fresh tie-break
	// sequence only when the identity has no record yet, and reports
	// whether a record was added. Re-observing a file never changes when
	// it was created.
	RecordIfAbsent(id domain.Identity, filename string, portable bool, observedAt time.Time) (domain.CreationRecord, bool)

	// SetFilename updates the currently-known filename for an identity.
	SetFilename(id domain.Identity, filename string)

	// Prune drops records whose identity is no longer live and returns
	// how many were removed.
	Prune(live map[domain.Identity]struct{}) int

	// Persist atomically replaces the index file with the current state.
	Persist() error
}

// UpdateIndex is the persistent store for content-change records.
type UpdateIndex interface {
	// Load has the same missing/corrupt semantics as CreationIndex.Load.
	Load() error

	// All returns a copy of every record currently held.
	All() map[domain.Identity]domain.UpdateRecord

	// Refresh compares hash against the stored value. A different hash
	// updates the record and stamps now as the last content update,
	// returning true. An identical hash leaves the timestamp alone and
	// returns false. The path is recorded either way.
	Refresh(id domain.Identity, path, hash string, now time.Time) bool

	// RecordPath records the current path without touching content
	// fields, creating a bare record (no hash, zero last-update) when
	// the identity has none yet.
	RecordPath(id domain.Identity, path string)

	// Record returns the stored record for an identity.
	Record(id domain.Identity) (domain.UpdateRecord, bool)

	// Prune drops records for dead identities and returns how many.
	Prune(live map[domain.Identity]struct{}) int

	// Persist atomically replaces the index file with the current state.
	Persist() error
}
