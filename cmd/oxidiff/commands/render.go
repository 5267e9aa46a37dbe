package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/oxidiff/pkg/differ"
	"github.com/Sumatoshi-tech/oxidiff/pkg/report"
)

// maxSignatureDiffs caps the number of signature diffs shown per kind.
const maxSignatureDiffs = 10

// kindRows fixes the row order of the summary table.
var kindRows = []struct {
	label   string
	records func(*report.Report) []differ.ChangeRecord
}{
	{"Functions", func(r *report.Report) []differ.ChangeRecord { return r.Functions }},
	{"Types", func(r *report.Report) []differ.ChangeRecord { return r.Types }},
	{"Traits", func(r *report.Report) []differ.ChangeRecord { return r.Traits }},
	{"Methods", func(r *report.Report) []differ.ChangeRecord { return r.Methods }},
}

// renderSummary prints a per-kind change count table followed by granular
// and warning counts.
func renderSummary(out io.Writer, rep *report.Report, noColor bool) {
	if noColor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	}

	fmt.Fprintf(out, "%s .. %s\n\n", shortCommit(rep.BaseCommit), shortCommit(rep.TargetCommit))

	tbl := table.NewWriter()
	tbl.SetOutputMirror(out)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Kind", "Added", "Removed", "Modified"})

	var totalAdded, totalRemoved, totalModified int

	for _, row := range kindRows {
		added, removed, modified := countChanges(row.records(rep))
		totalAdded += added
		totalRemoved += removed
		totalModified += modified

		tbl.AppendRow(table.Row{
			row.label,
			humanize.Comma(int64(added)),
			humanize.Comma(int64(removed)),
			humanize.Comma(int64(modified)),
		})
	}

	tbl.AppendFooter(table.Row{
		"Total",
		humanize.Comma(int64(totalAdded)),
		humanize.Comma(int64(totalRemoved)),
		humanize.Comma(int64(totalModified)),
	})
	tbl.Render()

	if len(rep.Granular) > 0 {
		fmt.Fprintf(out, "\nbodies with call or literal changes: %s\n",
			humanize.Comma(int64(len(rep.Granular))))
	}

	if len(rep.Warnings) > 0 {
		color.New(color.FgYellow).Fprintf(out, "\n%d files failed to parse and were skipped:\n", len(rep.Warnings))

		for _, warning := range rep.Warnings {
			color.New(color.FgYellow).Fprintf(out, "  - %s: %s\n", warning.Path, warning.Message)
		}
	}
}

// renderSignatureDiffs prints colored old/new signature diffs for modified
// entities. Used by verbose output.
func renderSignatureDiffs(out io.Writer, records []differ.ChangeRecord) {
	dmp := diffmatchpatch.New()
	shown := 0

	for i := range records {
		record := &records[i]
		if record.Kind != differ.ChangeModified || record.BodyOnly {
			continue
		}

		if shown >= maxSignatureDiffs {
			fmt.Fprintln(out, "  ...")

			return
		}

		diffs := dmp.DiffMain(record.OldSignature, record.NewSignature, false)
		dmp.DiffCleanupSemantic(diffs)

		fmt.Fprintf(out, "  %s\n    %s\n", record.Key.String(), renderDiffs(diffs))

		shown++
	}
}

func renderDiffs(diffs []diffmatchpatch.Diff) string {
	var sb strings.Builder

	for _, diff := range diffs {
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			sb.WriteString(color.New(color.FgGreen).Sprint(diff.Text))
		case diffmatchpatch.DiffDelete:
			sb.WriteString(color.New(color.FgRed, color.CrossedOut).Sprint(diff.Text))
		case diffmatchpatch.DiffEqual:
			sb.WriteString(diff.Text)
		}
	}

	return sb.String()
}

func countChanges(records []differ.ChangeRecord) (added, removed, modified int) {
	for i := range records {
		switch records[i].Kind {
		case differ.ChangeAdded:
			added++
		case differ.ChangeRemoved:
			removed++
		case differ.ChangeModified:
			modified++
		}
	}

	return added, removed, modified
}

const shortCommitLen = 8

func shortCommit(commit string) string {
	if len(commit) > shortCommitLen {
		return commit[:shortCommitLen]
	}

	return commit
}
