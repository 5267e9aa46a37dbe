// Package main provides the entry point for the oxidiff CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/oxidiff/cmd/oxidiff/commands"
	"github.com/Sumatoshi-tech/oxidiff/pkg/version"
)

var (
	verbose bool
	quiet   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "oxidiff",
		Short: "Oxidiff - semantic diff for Rust codebases",
		Long: `Oxidiff compares two states of a Rust repository at the declaration
level: functions, types, traits, and methods are matched by identity and
classified as added, removed, or modified, with call-site and literal level
detail for modified function bodies.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "oxidiff %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
