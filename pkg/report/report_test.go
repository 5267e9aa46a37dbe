package report

import (
	"testing"

	"github.com/Sumatoshi-tech/oxidiff/pkg/differ"
	"github.com/Sumatoshi-tech/oxidiff/pkg/rustast"
	"github.com/Sumatoshi-tech/oxidiff/pkg/snapshot"
)

func key(kind rustast.EntityKind, name string) rustast.EntityKey {
	return rustast.EntityKey{Module: "m", Kind: kind, Name: name}
}

func TestAssemble_PartitionsByKind(t *testing.T) {
	t.Parallel()

	changes := []differ.ChangeRecord{
		{Key: key(rustast.KindFunction, "f"), Kind: differ.ChangeAdded},
		{Key: key(rustast.KindType, "T"), Kind: differ.ChangeRemoved},
		{Key: key(rustast.KindTrait, "Tr"), Kind: differ.ChangeModified},
		{Key: key(rustast.KindMethod, "m"), Kind: differ.ChangeAdded},
	}

	base := &snapshot.Snapshot{Commit: "base"}
	target := &snapshot.Snapshot{Commit: "target"}

	rep := Assemble(base, target, changes)

	if rep.BaseCommit != "base" || rep.TargetCommit != "target" {
		t.Errorf("commits = %q/%q", rep.BaseCommit, rep.TargetCommit)
	}

	if len(rep.All) != 4 {
		t.Errorf("all = %d records, want 4", len(rep.All))
	}

	if len(rep.Functions) != 1 || len(rep.Types) != 1 || len(rep.Traits) != 1 || len(rep.Methods) != 1 {
		t.Errorf("partition sizes = %d/%d/%d/%d, want 1 each",
			len(rep.Functions), len(rep.Types), len(rep.Traits), len(rep.Methods))
	}
}

func TestAssemble_GranularOnlyForNonEmptyDiffs(t *testing.T) {
	t.Parallel()

	withDiff := differ.ChangeRecord{
		Key:  key(rustast.KindFunction, "changed"),
		Kind: differ.ChangeModified,
		Granular: &differ.GranularDiff{
			AddedCalls: []rustast.CallSite{{Callee: "g", Args: 1}},
		},
	}

	// Signature-only modification: granular diff exists but is empty.
	emptyDiff := differ.ChangeRecord{
		Key:      key(rustast.KindFunction, "resigned"),
		Kind:     differ.ChangeModified,
		Granular: &differ.GranularDiff{},
	}

	added := differ.ChangeRecord{
		Key:  key(rustast.KindFunction, "fresh"),
		Kind: differ.ChangeAdded,
	}

	rep := Assemble(&snapshot.Snapshot{}, &snapshot.Snapshot{},
		[]differ.ChangeRecord{withDiff, emptyDiff, added})

	if len(rep.Granular) != 1 {
		t.Fatalf("granular entries = %d, want 1", len(rep.Granular))
	}

	if rep.Granular[0].Key.Name != "changed" {
		t.Errorf("granular entry for %q, want changed", rep.Granular[0].Key.Name)
	}
}

func TestAssemble_WarningsFromBothSides(t *testing.T) {
	t.Parallel()

	base := &snapshot.Snapshot{
		ParseErrors: []snapshot.ParseError{{Path: "a.rs", Message: "bad"}},
	}
	target := &snapshot.Snapshot{
		ParseErrors: []snapshot.ParseError{{Path: "b.rs", Message: "worse"}},
	}

	rep := Assemble(base, target, nil)

	if len(rep.Warnings) != 2 {
		t.Fatalf("warnings = %v, want both sides", rep.Warnings)
	}

	if rep.Warnings[0].Path != "a.rs" || rep.Warnings[1].Path != "b.rs" {
		t.Errorf("warning order = %v, want base first", rep.Warnings)
	}
}
