// Package analysis coordinates a full diff run: it resolves the two tree
// states from a git repository, builds an entity snapshot for each side,
// diffs them, and assembles the final report.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/src-d/enry/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/oxidiff/pkg/differ"
	"github.com/Sumatoshi-tech/oxidiff/pkg/gitlib"
	"github.com/Sumatoshi-tech/oxidiff/pkg/report"
	"github.com/Sumatoshi-tech/oxidiff/pkg/rustast"
	"github.com/Sumatoshi-tech/oxidiff/pkg/snapshot"
)

// ErrNoTarget is returned when no repository location was supplied.
var ErrNoTarget = errors.New("no repository url or local path given")

// rustLanguage is the enry language name for Rust sources.
const rustLanguage = "Rust"

// rustExtension is the file extension fast path for Rust sources.
const rustExtension = ".rs"

// Options configures a single analysis run.
type Options struct {
	// RepoURL is the remote repository to clone when RepoPath does not
	// already contain a repository.
	RepoURL string

	// RepoPath is the local repository path.
	RepoPath string

	// BaseBranch names the revision providing the base tree state.
	BaseBranch string

	// TargetCommit names the revision providing the target tree state.
	TargetCommit string

	// Workers caps snapshot build parallelism. Zero means NumCPU.
	Workers int

	// FullTree parses every Rust file of both trees instead of only the
	// changed paths.
	FullTree bool

	// CacheDir enables full-tree snapshot caching when non-empty.
	CacheDir string

	Logger *slog.Logger
	Tracer trace.Tracer
}

// Runner executes analysis runs.
type Runner struct {
	opts   Options
	logger *slog.Logger
	tracer trace.Tracer
	cache  *snapshot.Cache
}

// NewRunner validates options and returns a ready Runner.
func NewRunner(opts Options) (*Runner, error) {
	if opts.RepoURL == "" && opts.RepoPath == "" {
		return nil, ErrNoTarget
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tracer := opts.Tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer("analysis")
	}

	var cache *snapshot.Cache
	if opts.CacheDir != "" && opts.FullTree {
		cache = snapshot.NewCache(opts.CacheDir)
	}

	return &Runner{opts: opts, logger: logger, tracer: tracer, cache: cache}, nil
}

// Run executes the full pipeline and returns the assembled report.
func (r *Runner) Run(ctx context.Context) (*report.Report, error) {
	ctx, span := r.tracer.Start(ctx, "analysis.run")
	defer span.End()

	repo, err := r.openRepo()
	if err != nil {
		return nil, err
	}
	defer repo.Free()

	baseTree, err := repo.ResolveTree(r.opts.BaseBranch)
	if err != nil {
		return nil, fmt.Errorf("resolve base %q: %w", r.opts.BaseBranch, err)
	}
	defer baseTree.Free()

	targetTree, err := repo.ResolveTree(r.opts.TargetCommit)
	if err != nil {
		return nil, fmt.Errorf("resolve target %q: %w", r.opts.TargetCommit, err)
	}
	defer targetTree.Free()

	span.SetAttributes(
		attribute.String("base.commit", baseTree.CommitID()),
		attribute.String("target.commit", targetTree.CommitID()),
	)

	filter, err := r.pathFilter(ctx, repo, baseTree, targetTree)
	if err != nil {
		return nil, err
	}

	base, err := r.buildSnapshot(ctx, baseTree, filter)
	if err != nil {
		return nil, fmt.Errorf("base snapshot: %w", err)
	}

	target, err := r.buildSnapshot(ctx, targetTree, filter)
	if err != nil {
		return nil, fmt.Errorf("target snapshot: %w", err)
	}

	r.logger.InfoContext(ctx, "snapshots built",
		slog.Int("base_entities", base.Len()),
		slog.Int("target_entities", target.Len()))

	changes, err := r.diff(ctx, base, target)
	if err != nil {
		return nil, err
	}

	return report.Assemble(base, target, changes), nil
}

func (r *Runner) openRepo() (*gitlib.Repository, error) {
	if r.opts.RepoURL != "" {
		return gitlib.OpenOrClone(r.opts.RepoURL, r.opts.RepoPath)
	}

	return gitlib.OpenRepository(r.opts.RepoPath)
}

// pathFilter returns the file filter applied to both tree walks. In the
// default mode only paths touched between the two trees are parsed; a path
// missing on one side simply contributes nothing there. Full-tree mode
// accepts every path.
func (r *Runner) pathFilter(
	ctx context.Context,
	repo *gitlib.Repository,
	baseTree, targetTree *gitlib.Tree,
) (func(string) bool, error) {
	if r.opts.FullTree {
		return func(string) bool { return true }, nil
	}

	_, span := r.tracer.Start(ctx, "analysis.changed_paths")
	defer span.End()

	changed, err := repo.ChangedPaths(baseTree, targetTree)
	if err != nil {
		return nil, fmt.Errorf("changed paths: %w", err)
	}

	r.logger.DebugContext(ctx, "restricting to changed paths",
		slog.Int("count", changed.Len()))

	allowed := make(map[string]struct{}, changed.Len())
	for _, path := range changed.All() {
		allowed[path] = struct{}{}
	}

	return func(path string) bool {
		_, ok := allowed[path]

		return ok
	}, nil
}

// buildSnapshot loads the Rust files of one tree and extracts its entities,
// consulting the cache in full-tree mode.
func (r *Runner) buildSnapshot(
	ctx context.Context,
	tree *gitlib.Tree,
	filter func(string) bool,
) (*snapshot.Snapshot, error) {
	ctx, span := r.tracer.Start(ctx, "analysis.snapshot",
		trace.WithAttributes(attribute.String("commit", tree.CommitID())))
	defer span.End()

	if r.cache != nil {
		cached, cacheErr := r.cache.Load(tree.Hash())
		if cacheErr == nil {
			r.logger.DebugContext(ctx, "snapshot cache hit",
				slog.String("tree", tree.Hash()))

			return cached, nil
		}

		if !errors.Is(cacheErr, snapshot.ErrCacheMiss) {
			r.logger.WarnContext(ctx, "snapshot cache read failed",
				slog.String("tree", tree.Hash()),
				slog.String("error", cacheErr.Error()))
		}
	}

	files, err := tree.Files(func(path string) bool {
		return strings.HasSuffix(path, rustExtension) && filter(path)
	})
	if err != nil {
		return nil, fmt.Errorf("walk tree %s: %w", tree.Hash(), err)
	}

	sources := make([]snapshot.SourceFile, 0, len(files))

	for _, file := range files {
		if enry.GetLanguage(filepath.Base(file.Path), file.Content) != rustLanguage {
			continue
		}

		sources = append(sources, snapshot.SourceFile{Path: file.Path, Content: file.Content})
	}

	builder := snapshot.NewBuilder(rustast.NewParser(), r.opts.Workers)
	snap := builder.Build(ctx, tree.CommitID(), sources)

	span.SetAttributes(
		attribute.Int("files", len(sources)),
		attribute.Int("entities", snap.Len()),
	)

	if r.cache != nil {
		if saveErr := r.cache.Save(tree.Hash(), snap); saveErr != nil {
			r.logger.WarnContext(ctx, "snapshot cache write failed",
				slog.String("tree", tree.Hash()),
				slog.String("error", saveErr.Error()))
		}
	}

	return snap, nil
}

func (r *Runner) diff(
	ctx context.Context,
	base, target *snapshot.Snapshot,
) ([]differ.ChangeRecord, error) {
	_, span := r.tracer.Start(ctx, "analysis.diff")
	defer span.End()

	changes, err := differ.Diff(base, target)
	if err != nil {
		return nil, fmt.Errorf("diff snapshots: %w", err)
	}

	span.SetAttributes(attribute.Int("changes", len(changes)))

	return changes, nil
}
