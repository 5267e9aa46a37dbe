// Package commands implements the oxidiff CLI subcommands.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/oxidiff/internal/config"
	"github.com/Sumatoshi-tech/oxidiff/pkg/analysis"
	"github.com/Sumatoshi-tech/oxidiff/pkg/observability"
	"github.com/Sumatoshi-tech/oxidiff/pkg/report"
	"github.com/Sumatoshi-tech/oxidiff/pkg/snapshot"
	"github.com/Sumatoshi-tech/oxidiff/pkg/version"
)

// serviceName identifies this binary in logs and traces.
const serviceName = "oxidiff"

// Output file names, one per report view.
const (
	FileAllChanges      = "all_code_changes.json"
	FileFunctionChanges = "function_changes.json"
	FileTypeChanges     = "type_changes.json"
	FileTraitChanges    = "interface_changes.json"
	FileMethodChanges   = "method_changes.json"
	FileGranularChanges = "function_changes_granular.json"
)

// outputDirPerm is the permission mode for created output directories.
const outputDirPerm = 0o755

// AnalyzeCommand holds the flags for the analyze command.
type AnalyzeCommand struct {
	repoURL    string
	repoPath   string
	baseBranch string
	target     string
	outputDir  string
	workers    int
	configPath string
	fullTree   bool
	cacheDir   string
	noColor    bool
	jsonOnly   bool
}

// NewAnalyzeCommand creates and configures the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	cmd := &AnalyzeCommand{}

	cobraCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Diff two states of a Rust repository at the declaration level",
		Long: `Analyze parses the Rust sources of two tree states, matches functions,
types, traits, and methods by identity, and writes the classified changes
as JSON reports.`,
		RunE: cmd.Run,
	}

	cobraCmd.Flags().StringVar(&cmd.repoURL, "repo", "", "Remote repository URL to clone")
	cobraCmd.Flags().StringVarP(&cmd.repoPath, "path", "p", ".", "Local repository path")
	cobraCmd.Flags().StringVarP(&cmd.baseBranch, "base", "b", "main", "Base revision")
	cobraCmd.Flags().StringVarP(&cmd.target, "target", "t", "HEAD", "Target revision")
	cobraCmd.Flags().StringVarP(&cmd.outputDir, "output", "o", "", "Output directory for JSON reports")
	cobraCmd.Flags().IntVarP(&cmd.workers, "workers", "w", 0, "Parse workers (0 = all CPUs)")
	cobraCmd.Flags().StringVarP(&cmd.configPath, "config", "c", "", "Config file path")
	cobraCmd.Flags().BoolVar(&cmd.fullTree, "full-tree", false, "Parse every Rust file instead of only changed paths")
	cobraCmd.Flags().StringVar(&cmd.cacheDir, "cache-dir", "", "Snapshot cache directory (full-tree mode)")
	cobraCmd.Flags().BoolVar(&cmd.noColor, "no-color", false, "Disable colored output")
	cobraCmd.Flags().BoolVar(&cmd.jsonOnly, "json-only", false, "Skip the terminal summary")

	return cobraCmd
}

// Run executes the analyze command.
func (c *AnalyzeCommand) Run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(c.configPath)
	if err != nil {
		return err
	}

	c.applyConfig(cmd, cfg)

	logger := observability.NewLogger(serviceName, cfg.Log.Level, cfg.Log.Format)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	providers, err := observability.Init(ctx, observability.Config{
		Endpoint:       cfg.Tracing.Endpoint,
		ServiceName:    serviceName,
		ServiceVersion: version.Version,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if shutdownErr := providers.Shutdown(ctx); shutdownErr != nil {
			logger.Warn("tracing shutdown failed", "error", shutdownErr)
		}
	}()

	runner, err := analysis.NewRunner(analysis.Options{
		RepoURL:      c.repoURL,
		RepoPath:     c.repoPath,
		BaseBranch:   c.baseBranch,
		TargetCommit: c.target,
		Workers:      c.workers,
		FullTree:     c.fullTree,
		CacheDir:     c.cacheDir,
		Logger:       logger,
		Tracer:       providers.Tracer,
	})
	if err != nil {
		return err
	}

	rep, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	err = c.writeReports(rep, cfg.Output.Pretty)
	if err != nil {
		return err
	}

	if !c.jsonOnly {
		renderSummary(cmd.OutOrStdout(), rep, c.noColor)

		verbose, _ := cmd.Flags().GetBool("verbose")
		if verbose {
			renderSignatureDiffs(cmd.OutOrStdout(), rep.All)
		}
	}

	return nil
}

// applyConfig backfills unset flags from the loaded config.
func (c *AnalyzeCommand) applyConfig(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if !flags.Changed("workers") {
		c.workers = cfg.Analysis.Workers
	}

	if !flags.Changed("full-tree") {
		c.fullTree = cfg.Analysis.FullTree
	}

	if !flags.Changed("output") {
		c.outputDir = cfg.Output.Dir
	}

	if !flags.Changed("cache-dir") && cfg.Cache.Enabled {
		c.cacheDir = cfg.Cache.Dir
		if c.cacheDir == "" {
			c.cacheDir = snapshot.DefaultCacheDir()
		}
	}
}

// changesFile is the envelope written to the per-kind report files.
type changesFile struct {
	BaseCommit   string                `json:"baseCommit"`
	TargetCommit string                `json:"targetCommit"`
	Changes      any                   `json:"changes"`
	Warnings     []snapshot.ParseError `json:"warnings,omitempty"`
}

// writeReports serializes the six report views into the output directory.
func (c *AnalyzeCommand) writeReports(rep *report.Report, pretty bool) error {
	dir := c.outputDir
	if dir == "" {
		dir = "."
	}

	err := os.MkdirAll(dir, outputDirPerm)
	if err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	files := []struct {
		name    string
		changes any
	}{
		{FileAllChanges, rep.All},
		{FileFunctionChanges, rep.Functions},
		{FileTypeChanges, rep.Types},
		{FileTraitChanges, rep.Traits},
		{FileMethodChanges, rep.Methods},
		{FileGranularChanges, rep.Granular},
	}

	for _, file := range files {
		envelope := changesFile{
			BaseCommit:   rep.BaseCommit,
			TargetCommit: rep.TargetCommit,
			Changes:      file.changes,
		}

		// Parse warnings travel with the full view only.
		if file.name == FileAllChanges {
			envelope.Warnings = rep.Warnings
		}

		writeErr := writeJSON(filepath.Join(dir, file.name), envelope, pretty)
		if writeErr != nil {
			return writeErr
		}
	}

	return nil
}

func writeJSON(path string, payload any, pretty bool) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	encoder := json.NewEncoder(out)
	if pretty {
		encoder.SetIndent("", "  ")
	}

	err = encoder.Encode(payload)
	if err != nil {
		out.Close()

		return fmt.Errorf("encode %s: %w", path, err)
	}

	err = out.Close()
	if err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	return nil
}
