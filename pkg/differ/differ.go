// Package differ matches entities across two snapshots and classifies every
// match as added, removed, or modified. Unchanged entities emit nothing.
package differ

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/Sumatoshi-tech/oxidiff/pkg/rustast"
	"github.com/Sumatoshi-tech/oxidiff/pkg/snapshot"
)

// Sentinel errors for diff preconditions.
var (
	// ErrSnapshotUnavailable means a required tree state is missing.
	// The whole run aborts; diffing an incomplete snapshot against a
	// complete one would fabricate spurious added/removed entries.
	ErrSnapshotUnavailable = errors.New("snapshot unavailable")

	// ErrInternalInconsistency flags an extractor contract violation,
	// such as a granular diff over a bodyless entity.
	ErrInternalInconsistency = errors.New("internal inconsistency")
)

// ChangeKind classifies one entity change.
type ChangeKind int

// Change kind constants.
const (
	ChangeAdded ChangeKind = iota
	ChangeRemoved
	ChangeModified
)

func (ck ChangeKind) String() string {
	switch ck {
	case ChangeAdded:
		return "added"
	case ChangeRemoved:
		return "removed"
	case ChangeModified:
		return "modified"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the change kind as its string form.
func (ck ChangeKind) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(ck.String())), nil
}

// UnmarshalJSON decodes the string form produced by MarshalJSON.
func (ck *ChangeKind) UnmarshalJSON(data []byte) error {
	text, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("change kind: %w", err)
	}

	switch text {
	case "added":
		*ck = ChangeAdded
	case "removed":
		*ck = ChangeRemoved
	case "modified":
		*ck = ChangeModified
	default:
		return fmt.Errorf("change kind: unknown value %q", text)
	}

	return nil
}

// ChangeRecord describes one classified entity change. Added and removed
// records carry exactly one signature side and never a granular diff.
type ChangeRecord struct {
	Key      rustast.EntityKey `json:"key"`
	Kind     ChangeKind        `json:"kind"`
	TypeKind rustast.TypeKind  `json:"typeKind,omitempty"`

	OldSignature string `json:"oldSignature,omitempty"`
	NewSignature string `json:"newSignature,omitempty"`

	// BodyOnly marks a modification whose signatures are equal: only
	// the body fingerprint differs.
	BodyOnly bool `json:"bodyOnly,omitempty"`

	// Granular is populated for modified functions and methods only.
	Granular *GranularDiff `json:"granular,omitempty"`

	OldSpan *rustast.Span `json:"oldSpan,omitempty"`
	NewSpan *rustast.Span `json:"newSpan,omitempty"`
}

// kindOrder fixes the grouping order of the output: functions, types,
// traits, methods.
var kindOrder = []rustast.EntityKind{
	rustast.KindFunction,
	rustast.KindType,
	rustast.KindTrait,
	rustast.KindMethod,
}

// Diff classifies every entity of the target snapshot against the base
// snapshot. Output is grouped by entity kind, then ordered by key, so
// repeated runs over identical input produce identical output. The four
// kinds are classified concurrently; each reads only its own key subset
// of the two immutable snapshots.
func Diff(base, target *snapshot.Snapshot) ([]ChangeRecord, error) {
	if base == nil || target == nil {
		return nil, fmt.Errorf("%w: both base and target snapshots are required", ErrSnapshotUnavailable)
	}

	perKind := make([][]ChangeRecord, len(kindOrder))
	errs := make([]error, len(kindOrder))

	var wg sync.WaitGroup

	for i, kind := range kindOrder {
		wg.Add(1)

		go func(slot int, kind rustast.EntityKind) {
			defer wg.Done()

			perKind[slot], errs[slot] = diffKind(base, target, kind)
		}(i, kind)
	}

	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	var out []ChangeRecord
	for _, records := range perKind {
		out = append(out, records...)
	}

	return out, nil
}

// diffKind classifies one entity kind. Keys present only in base are
// removed, keys present only in target are added, keys present in both
// are compared by signature first and body fingerprint second.
func diffKind(base, target *snapshot.Snapshot, kind rustast.EntityKind) ([]ChangeRecord, error) {
	baseKeys := base.Keys(kind)
	targetKeys := target.Keys(kind)

	inBase := make(map[rustast.EntityKey]struct{}, len(baseKeys))
	for _, key := range baseKeys {
		inBase[key] = struct{}{}
	}

	inTarget := make(map[rustast.EntityKey]struct{}, len(targetKeys))
	for _, key := range targetKeys {
		inTarget[key] = struct{}{}
	}

	var out []ChangeRecord

	for _, key := range baseKeys {
		if _, ok := inTarget[key]; !ok {
			out = append(out, removedRecord(base.Record(key)))
		}
	}

	for _, key := range targetKeys {
		if _, ok := inBase[key]; !ok {
			out = append(out, addedRecord(target.Record(key)))
		}
	}

	for _, key := range baseKeys {
		if _, ok := inTarget[key]; !ok {
			continue
		}

		record, err := compareRecords(base.Record(key), target.Record(key))
		if err != nil {
			return nil, err
		}

		if record != nil {
			out = append(out, *record)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })

	return out, nil
}

func addedRecord(rec *rustast.EntityRecord) ChangeRecord {
	span := rec.Span

	return ChangeRecord{
		Key:          rec.Key,
		Kind:         ChangeAdded,
		TypeKind:     rec.TypeKind,
		NewSignature: rec.Signature,
		NewSpan:      &span,
	}
}

func removedRecord(rec *rustast.EntityRecord) ChangeRecord {
	span := rec.Span

	return ChangeRecord{
		Key:          rec.Key,
		Kind:         ChangeRemoved,
		TypeKind:     rec.TypeKind,
		OldSignature: rec.Signature,
		OldSpan:      &span,
	}
}

// compareRecords classifies a key present on both sides. A signature
// change alone is sufficient for modified, even when the body changed
// too; both facts surface in the one record. Equal signature and equal
// fingerprint is unchanged and emits nothing.
func compareRecords(old, updated *rustast.EntityRecord) (*ChangeRecord, error) {
	signatureChanged := old.Signature != updated.Signature
	bodyChanged := old.HasBody() && old.Fingerprint != updated.Fingerprint

	if !signatureChanged && !bodyChanged {
		return nil, nil
	}

	record := &ChangeRecord{
		Key:          updated.Key,
		Kind:         ChangeModified,
		TypeKind:     updated.TypeKind,
		OldSignature: old.Signature,
		NewSignature: updated.Signature,
		BodyOnly:     !signatureChanged,
	}

	oldSpan, newSpan := old.Span, updated.Span
	record.OldSpan = &oldSpan
	record.NewSpan = &newSpan

	if old.HasBody() {
		granular, err := BodyDiff(old, updated)
		if err != nil {
			return nil, err
		}

		record.Granular = granular
	}

	return record, nil
}
