// Package report regroups classified change records into the views
// consumed by the serialization layer. It performs no comparison logic.
package report

import (
	"github.com/Sumatoshi-tech/oxidiff/pkg/differ"
	"github.com/Sumatoshi-tech/oxidiff/pkg/rustast"
	"github.com/Sumatoshi-tech/oxidiff/pkg/snapshot"
)

// GranularEntry pairs a modified function or method with its body diff.
type GranularEntry struct {
	Key  rustast.EntityKey    `json:"key"`
	Diff *differ.GranularDiff `json:"diff"`
}

// Report is the complete set of output views for one analysis run. Every
// view preserves the deterministic ordering established by the differ.
type Report struct {
	BaseCommit   string `json:"baseCommit"`
	TargetCommit string `json:"targetCommit"`

	// All holds every change record across all entity kinds.
	All []differ.ChangeRecord `json:"all"`

	// Per-kind views over the same records.
	Functions []differ.ChangeRecord `json:"functions"`
	Types     []differ.ChangeRecord `json:"types"`
	Traits    []differ.ChangeRecord `json:"traits"`
	Methods   []differ.ChangeRecord `json:"methods"`

	// Granular holds the body diffs of modified functions and methods.
	Granular []GranularEntry `json:"granular"`

	// Warnings aggregates non-fatal per-file failures from both sides.
	Warnings []snapshot.ParseError `json:"warnings,omitempty"`
}

// Assemble partitions an ordered change list into the report views and
// attaches parse warnings from both snapshots.
func Assemble(base, target *snapshot.Snapshot, changes []differ.ChangeRecord) *Report {
	rep := &Report{
		BaseCommit:   base.Commit,
		TargetCommit: target.Commit,
		All:          changes,
	}

	for i := range changes {
		record := &changes[i]

		switch record.Key.Kind {
		case rustast.KindFunction:
			rep.Functions = append(rep.Functions, *record)
		case rustast.KindType:
			rep.Types = append(rep.Types, *record)
		case rustast.KindTrait:
			rep.Traits = append(rep.Traits, *record)
		case rustast.KindMethod:
			rep.Methods = append(rep.Methods, *record)
		}

		if record.Kind == differ.ChangeModified && record.Granular != nil && !record.Granular.Empty() {
			rep.Granular = append(rep.Granular, GranularEntry{
				Key:  record.Key,
				Diff: record.Granular,
			})
		}
	}

	rep.Warnings = append(rep.Warnings, base.ParseErrors...)
	rep.Warnings = append(rep.Warnings, target.ParseErrors...)

	return rep
}
