package snapshot

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"github.com/Sumatoshi-tech/oxidiff/pkg/rustast"
)

// Builder runs the extractor over the files of a tree state and assembles
// a Snapshot. Extraction is embarrassingly parallel across files: each
// worker reads only its own immutable inputs and writes only its own
// result slot, so the merge is an ownership-transferring join.
type Builder struct {
	parser  *rustast.Parser
	workers int
}

// NewBuilder creates a Builder. workers <= 0 selects one worker per CPU.
func NewBuilder(parser *rustast.Parser, workers int) *Builder {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Builder{parser: parser, workers: workers}
}

// fileResult is the per-file extraction outcome. Exactly one of entities
// and failure is set.
type fileResult struct {
	entities *rustast.FileEntities
	failure  *ParseError
}

// Build extracts all files visible at the given commit and merges them
// into one immutable Snapshot. Re-running on byte-identical input yields
// a byte-identical Snapshot: files are processed in sorted path order and
// merged sequentially, so the later of two duplicate keys always wins in
// the same way.
func (b *Builder) Build(ctx context.Context, commit string, files []SourceFile) *Snapshot {
	ordered := make([]SourceFile, len(files))
	copy(ordered, files)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Path < ordered[j].Path })

	results := make([]fileResult, len(ordered))

	if len(ordered) > 0 {
		numWorkers := max(1, min(b.workers, len(ordered)))
		b.runWorkers(ctx, ordered, results, numWorkers)
	}

	snap := &Snapshot{
		Commit:   commit,
		Entities: make(map[rustast.EntityKey]*rustast.EntityRecord),
		Files:    make(map[string][]rustast.EntityKey, len(ordered)),
	}

	for i := range results {
		res := &results[i]

		if res.failure != nil {
			snap.ParseErrors = append(snap.ParseErrors, *res.failure)

			continue
		}

		if res.entities == nil {
			continue
		}

		keys := make([]rustast.EntityKey, 0, len(res.entities.Records))
		for _, rec := range res.entities.Records {
			snap.Entities[rec.Key] = rec
			keys = append(keys, rec.Key)
		}

		snap.Files[res.entities.Path] = keys
	}

	return snap
}

// runWorkers splits the file list into contiguous chunks, one per worker.
// Each worker writes only into its own slice of the results array.
func (b *Builder) runWorkers(ctx context.Context, files []SourceFile, results []fileResult, numWorkers int) {
	chunkSize := (len(files) + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup

	for i := range numWorkers {
		start := i * chunkSize
		end := min(start+chunkSize, len(files))

		if start >= end {
			continue
		}

		wg.Add(1)

		go func(chunk []SourceFile, out []fileResult) {
			defer wg.Done()

			b.processChunk(ctx, chunk, out)
		}(files[start:end], results[start:end])
	}

	wg.Wait()
}

func (b *Builder) processChunk(ctx context.Context, chunk []SourceFile, out []fileResult) {
	for i := range chunk {
		file := &chunk[i]

		entities, err := b.parser.ExtractFile(ctx, file.Path, file.Content)
		if err != nil {
			out[i] = fileResult{failure: &ParseError{Path: file.Path, Message: err.Error()}}

			continue
		}

		out[i] = fileResult{entities: entities}
	}
}
