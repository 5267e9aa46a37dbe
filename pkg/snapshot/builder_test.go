package snapshot

import (
	"context"
	"reflect"
	"testing"

	"github.com/Sumatoshi-tech/oxidiff/pkg/rustast"
)

func TestBuild_CollectsEntitiesAcrossFiles(t *testing.T) {
	t.Parallel()

	files := []SourceFile{
		{Path: "src/app/a.rs", Content: []byte("fn alpha() {}\n")},
		{Path: "src/app/b.rs", Content: []byte("fn beta() {}\nstruct B;\n")},
	}

	builder := NewBuilder(rustast.NewParser(), 2)
	snap := builder.Build(context.Background(), "abc123", files)

	if snap.Commit != "abc123" {
		t.Errorf("commit = %q, want abc123", snap.Commit)
	}

	if snap.Len() != 3 {
		t.Fatalf("got %d entities, want 3", snap.Len())
	}

	if len(snap.Files["src/app/a.rs"]) != 1 || len(snap.Files["src/app/b.rs"]) != 2 {
		t.Errorf("file index malformed: %v", snap.Files)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	t.Parallel()

	files := make([]SourceFile, 0, 20)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		files = append(files, SourceFile{
			Path:    "src/app/" + name + ".rs",
			Content: []byte("fn func_" + name + "() { helper() }\n"),
		})
	}

	reference := NewBuilder(rustast.NewParser(), 1).Build(context.Background(), "c1", files)

	for workers := 2; workers <= 8; workers *= 2 {
		snap := NewBuilder(rustast.NewParser(), workers).Build(context.Background(), "c1", files)

		if !reflect.DeepEqual(reference.Files, snap.Files) {
			t.Fatalf("file index varies with %d workers", workers)
		}

		if len(reference.Entities) != len(snap.Entities) {
			t.Fatalf("entity count varies with %d workers", workers)
		}

		for key, rec := range reference.Entities {
			got := snap.Entities[key]
			if got == nil || got.Fingerprint != rec.Fingerprint || got.Signature != rec.Signature {
				t.Fatalf("entity %s varies with %d workers", key, workers)
			}
		}
	}
}

func TestBuild_DuplicateKeyLaterFileWins(t *testing.T) {
	t.Parallel()

	// Same module and name declared in two files: sorted path order
	// makes the z.rs version the surviving record.
	files := []SourceFile{
		{Path: "src/app/z.rs", Content: []byte("fn dup() -> u32 { 2 }\n")},
		{Path: "src/app/a.rs", Content: []byte("fn dup() -> u32 { 1 }\n")},
	}

	builder := NewBuilder(rustast.NewParser(), 1)
	snap := builder.Build(context.Background(), "c1", files)

	key := rustast.EntityKey{Module: "app", Kind: rustast.KindFunction, Name: "dup"}

	rec := snap.Record(key)
	if rec == nil {
		t.Fatal("duplicate key missing from snapshot")
	}

	if rec.Span.File != "src/app/z.rs" {
		t.Errorf("surviving record from %s, want src/app/z.rs", rec.Span.File)
	}
}

func TestBuild_ParseFailureSkipsFileOnly(t *testing.T) {
	t.Parallel()

	files := []SourceFile{
		{Path: "src/app/good.rs", Content: []byte("fn fine() {}\n")},
		{Path: "src/app/bad.rs", Content: []byte("fn broken( {{{")},
	}

	builder := NewBuilder(rustast.NewParser(), 1)
	snap := builder.Build(context.Background(), "c1", files)

	if snap.Len() != 1 {
		t.Errorf("got %d entities, want the good file's only", snap.Len())
	}

	if len(snap.ParseErrors) != 1 || snap.ParseErrors[0].Path != "src/app/bad.rs" {
		t.Errorf("parse errors = %v, want one for bad.rs", snap.ParseErrors)
	}
}

func TestKeys_SortedWithinKind(t *testing.T) {
	t.Parallel()

	files := []SourceFile{
		{Path: "src/zed/late.rs", Content: []byte("fn zz() {}\nfn aa() {}\n")},
		{Path: "src/app/early.rs", Content: []byte("fn mm() {}\n")},
	}

	builder := NewBuilder(rustast.NewParser(), 1)
	snap := builder.Build(context.Background(), "c1", files)

	keys := snap.Keys(rustast.KindFunction)
	for i := 1; i < len(keys); i++ {
		if keys[i].Less(keys[i-1]) {
			t.Fatalf("keys out of order: %v", keys)
		}
	}
}
