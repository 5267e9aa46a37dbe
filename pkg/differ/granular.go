package differ

import (
	"fmt"
	"sort"

	"github.com/Sumatoshi-tech/oxidiff/pkg/rustast"
)

// GranularDiff is the second-level structural diff over a modified
// function or method body: the net change in call and literal usage.
type GranularDiff struct {
	AddedCalls      []rustast.CallSite     `json:"addedCalls,omitempty"`
	RemovedCalls    []rustast.CallSite     `json:"removedCalls,omitempty"`
	AddedLiterals   []rustast.LiteralValue `json:"addedLiterals,omitempty"`
	RemovedLiterals []rustast.LiteralValue `json:"removedLiterals,omitempty"`
}

// Empty reports whether the diff carries no changes.
func (g *GranularDiff) Empty() bool {
	return len(g.AddedCalls) == 0 && len(g.RemovedCalls) == 0 &&
		len(g.AddedLiterals) == 0 && len(g.RemovedLiterals) == 0
}

// BodyDiff diffs the call and literal sequences of two versions of one
// function as frequency multisets, not ordered sequences and not plain
// sets. A call whose count is unchanged is reported as neither added nor
// removed even if it moved; a call invoked one extra time yields exactly
// one added entry. Requesting a body diff for a bodyless entity is an
// extractor contract violation.
func BodyDiff(old, updated *rustast.EntityRecord) (*GranularDiff, error) {
	if !old.HasBody() || !updated.HasBody() {
		return nil, fmt.Errorf("%w: granular diff requested for %s entity %s",
			ErrInternalInconsistency, old.Key.Kind, old.Key)
	}

	diff := &GranularDiff{}

	diff.AddedCalls, diff.RemovedCalls = diffMultiset(
		old.Calls, updated.Calls,
		rustast.CallSite.Identity,
	)

	diff.AddedLiterals, diff.RemovedLiterals = diffMultiset(
		old.Literals, updated.Literals,
		rustast.LiteralValue.Identity,
	)

	return diff, nil
}

// diffMultiset computes a frequency-map diff over any identity-carrying
// element type. For each distinct identity with base count b and target
// count t, it emits max(0, t-b) added and max(0, b-t) removed entries,
// never both. Output is ordered by identity ascending, with the count
// difference expanded into repeated unit entries for deterministic
// reporting.
func diffMultiset[T any](base, target []T, identity func(T) string) (added, removed []T) {
	type bucket struct {
		value T
		base  int
		tgt   int
	}

	counts := make(map[string]*bucket, len(base)+len(target))

	for _, item := range base {
		id := identity(item)
		if entry, ok := counts[id]; ok {
			entry.base++
		} else {
			counts[id] = &bucket{value: item, base: 1}
		}
	}

	for _, item := range target {
		id := identity(item)
		if entry, ok := counts[id]; ok {
			entry.tgt++
		} else {
			counts[id] = &bucket{value: item, tgt: 1}
		}
	}

	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	for _, id := range ids {
		entry := counts[id]

		for range max(0, entry.tgt-entry.base) {
			added = append(added, entry.value)
		}

		for range max(0, entry.base-entry.tgt) {
			removed = append(removed, entry.value)
		}
	}

	return added, removed
}
