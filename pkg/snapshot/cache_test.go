package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Sumatoshi-tech/oxidiff/pkg/rustast"
)

func TestCache_RoundTrip(t *testing.T) {
	t.Parallel()

	files := []SourceFile{
		{Path: "src/app/lib.rs", Content: []byte(`
fn compute(x: u32) -> u32 { helper(x) + 1_000 }

struct Config { limit: u32 }

trait Store {
    fn get(&self) -> u32;
}
`)},
		{Path: "src/app/broken.rs", Content: []byte("fn nope( {{{")},
	}

	builder := NewBuilder(rustast.NewParser(), 1)
	built := builder.Build(context.Background(), "deadbeef", files)

	cache := NewCache(t.TempDir())

	err := cache.Save("tree1", built)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := cache.Load("tree1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Commit != built.Commit {
		t.Errorf("commit = %q, want %q", loaded.Commit, built.Commit)
	}

	if loaded.Len() != built.Len() {
		t.Fatalf("entity count = %d, want %d", loaded.Len(), built.Len())
	}

	for key, rec := range built.Entities {
		got := loaded.Record(key)
		if got == nil {
			t.Fatalf("entity %s missing after round trip", key)
		}

		if got.Signature != rec.Signature || got.Fingerprint != rec.Fingerprint {
			t.Errorf("entity %s content changed after round trip", key)
		}

		if len(got.Calls) != len(rec.Calls) || len(got.Literals) != len(rec.Literals) {
			t.Errorf("entity %s body data changed after round trip", key)
		}
	}

	if len(loaded.ParseErrors) != len(built.ParseErrors) {
		t.Errorf("parse errors = %v, want %v", loaded.ParseErrors, built.ParseErrors)
	}
}

func TestCache_MissForUnknownHash(t *testing.T) {
	t.Parallel()

	cache := NewCache(t.TempDir())

	_, err := cache.Load("nope")
	if !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("err = %v, want ErrCacheMiss", err)
	}
}

func TestCache_VersionMismatchIsMiss(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cache := NewCache(dir)

	builder := NewBuilder(rustast.NewParser(), 1)
	built := builder.Build(context.Background(), "c1", []SourceFile{
		{Path: "src/app/lib.rs", Content: []byte("fn f() {}\n")},
	})

	err := cache.Save("tree1", built)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	// Hand-corrupt the entry; decode failure must not escape as a
	// fatal error class the caller cannot fall back from.
	path := filepath.Join(dir, "tree1.json.lz4")

	err = os.WriteFile(path, []byte("not lz4"), 0o600)
	if err != nil {
		t.Fatalf("corrupt entry: %v", err)
	}

	_, err = cache.Load("tree1")
	if err == nil {
		t.Fatal("corrupted entry should not load")
	}
}
