// Package snapshot builds immutable per-commit entity snapshots by running
// the Rust entity extractor over every source file of a tree state.
package snapshot

import (
	"sort"

	"github.com/Sumatoshi-tech/oxidiff/pkg/rustast"
)

// SourceFile is one (path, contents) pair supplied by the source-control
// collaborator for a given tree state.
type SourceFile struct {
	Path    string
	Content []byte
}

// ParseError records a file that failed to parse. The file contributes no
// entities but the run continues.
type ParseError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Snapshot is the complete extracted entity set for one commit state.
// A Snapshot is built once, is immutable afterwards, and may be read
// concurrently without synchronization.
type Snapshot struct {
	// Commit identifies the tree state this snapshot was built from.
	Commit string

	// Entities maps every entity key to its single record. When the
	// source declares the same key twice, the later occurrence in
	// deterministic file order wins.
	Entities map[rustast.EntityKey]*rustast.EntityRecord

	// Files records which keys originated from each file path, in
	// extraction order.
	Files map[string][]rustast.EntityKey

	// ParseErrors aggregates per-file parse failures, in file order.
	ParseErrors []ParseError
}

// Keys returns all entity keys of the given kind in deterministic order.
func (s *Snapshot) Keys(kind rustast.EntityKind) []rustast.EntityKey {
	keys := make([]rustast.EntityKey, 0, len(s.Entities))

	for key := range s.Entities {
		if key.Kind == kind {
			keys = append(keys, key)
		}
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	return keys
}

// Record returns the record for a key, or nil.
func (s *Snapshot) Record(key rustast.EntityKey) *rustast.EntityRecord {
	return s.Entities[key]
}

// Len returns the number of entities in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.Entities)
}
