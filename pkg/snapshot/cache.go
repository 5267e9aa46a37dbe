package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"

	"github.com/Sumatoshi-tech/oxidiff/pkg/rustast"
)

// cacheVersion is bumped whenever the cached snapshot format changes.
const cacheVersion = 1

// cacheFilePerm is the permission for cache files and directories.
const cacheFilePerm = 0o755

// ErrCacheMiss is returned when no cached snapshot exists for a tree hash.
var ErrCacheMiss = errors.New("snapshot cache miss")

// Cache stores built snapshots on disk, keyed by the tree hash they were
// built from, JSON encoded and LZ4 compressed. A cache is an optimization
// only: any miss or decode failure falls back to a fresh build.
type Cache struct {
	dir string
}

// DefaultCacheDir returns the default snapshot cache directory.
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	return filepath.Join(home, ".oxidiff", "snapshots")
}

// NewCache creates a cache rooted at dir.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

// cacheEnvelope is the serialized form of a Snapshot. The entity map is
// flattened to a record list because struct map keys do not round-trip
// through JSON.
type cacheEnvelope struct {
	Version     int                            `json:"version"`
	Commit      string                         `json:"commit"`
	Records     []*rustast.EntityRecord        `json:"records"`
	Files       map[string][]rustast.EntityKey `json:"files"`
	ParseErrors []ParseError                   `json:"parseErrors,omitempty"`
}

func (c *Cache) path(treeHash string) string {
	return filepath.Join(c.dir, treeHash+".json.lz4")
}

// Load returns the cached snapshot for a tree hash, or ErrCacheMiss.
func (c *Cache) Load(treeHash string) (*Snapshot, error) {
	file, err := os.Open(c.path(treeHash))
	if err != nil {
		return nil, ErrCacheMiss
	}
	defer file.Close()

	var envelope cacheEnvelope

	decodeErr := json.NewDecoder(lz4.NewReader(file)).Decode(&envelope)
	if decodeErr != nil {
		return nil, fmt.Errorf("decode cached snapshot: %w", decodeErr)
	}

	if envelope.Version != cacheVersion {
		return nil, ErrCacheMiss
	}

	snap := &Snapshot{
		Commit:      envelope.Commit,
		Entities:    make(map[rustast.EntityKey]*rustast.EntityRecord, len(envelope.Records)),
		Files:       envelope.Files,
		ParseErrors: envelope.ParseErrors,
	}

	for _, rec := range envelope.Records {
		snap.Entities[rec.Key] = rec
	}

	return snap, nil
}

// Save writes a snapshot under the given tree hash. The write goes through
// a temp file and rename so a crashed run never leaves a torn cache entry.
func (c *Cache) Save(treeHash string, snap *Snapshot) error {
	mkdirErr := os.MkdirAll(c.dir, cacheFilePerm)
	if mkdirErr != nil {
		return fmt.Errorf("create cache dir: %w", mkdirErr)
	}

	envelope := cacheEnvelope{
		Version:     cacheVersion,
		Commit:      snap.Commit,
		Records:     make([]*rustast.EntityRecord, 0, len(snap.Entities)),
		Files:       snap.Files,
		ParseErrors: snap.ParseErrors,
	}

	for _, kind := range []rustast.EntityKind{
		rustast.KindFunction, rustast.KindType, rustast.KindTrait, rustast.KindMethod,
	} {
		for _, key := range snap.Keys(kind) {
			envelope.Records = append(envelope.Records, snap.Entities[key])
		}
	}

	tmp, err := os.CreateTemp(c.dir, "snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}

	writer := lz4.NewWriter(tmp)

	encodeErr := json.NewEncoder(writer).Encode(&envelope)
	if encodeErr == nil {
		encodeErr = writer.Close()
	}

	closeErr := tmp.Close()

	if encodeErr != nil || closeErr != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("write cached snapshot: %w", errors.Join(encodeErr, closeErr))
	}

	renameErr := os.Rename(tmp.Name(), c.path(treeHash))
	if renameErr != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("finalize cached snapshot: %w", renameErr)
	}

	return nil
}
