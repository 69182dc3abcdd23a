package domain

import (
	"slices"
	"time"
)

// CreationRecord fixes the observed creation moment of an identity.
// Created and Seq are assigned the first time the identity is seen and
// never change afterwards; only Filename tracks the current name.
type CreationRecord struct {
	Identity Identity  `json:"identity"`
	Filename string    `json:"filename"`
	Created  time.Time `json:"recorded_ctime"`
	Seq      uint64    `json:"seq"`
	Portable bool      `json:"portable"`
}

// UpdateRecord tracks the last known content state of an identity.
// Hash and LastUpdate move together: a rename updates Path (and history)
// but leaves them untouched.
type UpdateRecord struct {
	Identity    Identity  `json:"identity"`
	Path        string    `json:"path"`
	Hash        string    `json:"hash"`
	LastUpdate  time.Time `json:"last_content_update"`
	PathHistory []string  `json:"path_history,omitempty"`
}

// RecordPath records a rename into the update record without touching the
// content fields.
func (r *UpdateRecord) RecordPath(path string) {
	if r.Path == path {
		return
	}
	r.Path = path
	if !slices.Contains(r.PathHistory, path) {
		r.PathHistory = append(r.PathHistory, path)
	}
}

// SortCanonical orders creation records into the canonical order:
// recorded creation time ascending, ties broken by the first-observation
// sequence number so bulk copies with identical timestamps still order
// deterministically.
func SortCanonical(records []CreationRecord) {
	slices.SortFunc(records, func(a, b CreationRecord) int {
		if c := a.Created.Compare(b.Created); c != 0 {
			return c
		}
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		default:
			return 0
		}
	})
}
