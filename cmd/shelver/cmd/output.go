package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"shelver/internal/adapters/tui/styles"
	"shelver/internal/application/commands"
	"shelver/internal/domain"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(styles.Secondary).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(styles.Warning)
	errStyle  = lipgloss.NewStyle().Foreground(styles.Error).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(styles.Muted)
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// newProgress returns a progress callback drawing on w, or nil when w is
// not a terminal
func newProgress(w io.Writer, label string) commands.ProgressFunc {
	if !isTerminal(w) {
		return nil
	}
	var bar *progressbar.ProgressBar
	return func(done, total int, path string) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionSetDescription(label),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
				progressbar.OptionThrottle(50*time.Millisecond),
			)
		}
		_ = bar.Set(done)
		if done == total {
			_ = bar.Finish()
		}
	}
}

func rel(root, path string) string {
	if r, err := filepath.Rel(root, path); err == nil {
		return r
	}
	return path
}

func printPlan(w io.Writer, plan *domain.Plan) {
	if len(plan.Entries) == 0 && len(plan.Errors) == 0 {
		fmt.Fprintln(w, dimStyle.Render("Nothing to organize."))
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"File", "Size", "Category", "Destination"})
	for _, e := range plan.Entries {
		var dest string
		switch {
		case e.Blocked:
			dest = errStyle.Render("blocked: " + e.Reason)
		case !e.Movable():
			dest = dimStyle.Render("stays")
		default:
			dest = rel(plan.Root, e.Destination)
		}
		t.AppendRow(table.Row{e.Name, humanize.Bytes(uint64(e.Size)), e.Category, dest})
	}
	t.AppendFooter(table.Row{"", "", "will move", len(plan.Movable())})
	t.Render()

	printFileErrors(w, plan.Errors)

	if plan.Risk.RequiresConfirmation {
		fmt.Fprintln(w, warnStyle.Render("Confirmation required:"))
		for _, f := range plan.Risk.Factors {
			fmt.Fprintln(w, warnStyle.Render("  • "+f))
		}
	}
}

func printOrganizeResult(w io.Writer, root string, r *domain.OrganizeResult) {
	if len(r.Records) > 0 {
		t := newTable(w)
		t.AppendHeader(table.Row{"File", "Category", "Moved to"})
		for _, rec := range r.Records {
			t.AppendRow(table.Row{rel(root, rec.Source), rec.Category, rel(root, rec.Destination)})
		}
		t.Render()
	}
	printFileErrors(w, r.Errors)

	summary := fmt.Sprintf("Moved %d, skipped %d, failed %d (run %s)", r.Moved, r.Skipped, len(r.Errors), r.RunID)
	if r.OK() {
		fmt.Fprintln(w, okStyle.Render(summary))
	} else {
		fmt.Fprintln(w, errStyle.Render(summary))
	}
}

func printRollbackResult(w io.Writer, root string, r *domain.RollbackResult) {
	if len(r.Records) > 0 {
		t := newTable(w)
		t.AppendHeader(table.Row{"Restored", "From"})
		for _, rec := range r.Records {
			t.AppendRow(table.Row{rel(root, rec.Destination), rel(root, rec.Source)})
		}
		t.Render()
	}
	printFileErrors(w, r.Failed)

	summary := fmt.Sprintf("Restored %d, failed %d", r.Restored, len(r.Failed))
	if r.OK() {
		fmt.Fprintln(w, okStyle.Render(summary))
	} else {
		fmt.Fprintln(w, errStyle.Render(summary))
	}
}

func printFileErrors(w io.Writer, errs []domain.FileError) {
	for _, fe := range errs {
		fmt.Fprintln(w, errStyle.Render("✗ ")+fe.Error())
	}
}

func printRuns(w io.Writer, runs []domain.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No runs recorded."))
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Run", "Started", "Moved", "Reverted"})
	for _, r := range runs {
		t.AppendRow(table.Row{r.RunID, humanize.Time(r.Started), r.Moved, r.Reverted})
	}
	t.Render()
}

func printRecords(w io.Writer, root string, records []domain.MoveRecord) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Time", "Outcome", "Source", "Destination", "Size"})
	for _, rec := range records {
		t.AppendRow(table.Row{
			rec.Timestamp.Local().Format(time.DateTime),
			rec.Outcome,
			rel(root, rec.Source),
			rel(root, rec.Destination),
			humanize.Bytes(uint64(rec.Size)),
		})
	}
	t.Render()
}

func printStats(w io.Writer, r *commands.StatsResult) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Destination", "Categories", "Files"})
	for _, d := range r.Destinations {
		t.AppendRow(table.Row{rel(r.Root, d.Destination), strings.Join(d.Categories, ", "), d.Files})
	}
	t.AppendFooter(table.Row{"loose in root", "", r.Loose})
	t.Render()
}

func printVerify(w io.Writer, r *commands.VerifyResult) {
	if r.Clean() {
		fmt.Fprintln(w, okStyle.Render(fmt.Sprintf("Clean: %d files checked.", r.Checked)))
		return
	}
	for _, e := range r.Remaining {
		fmt.Fprintf(w, "%s %s → %s\n", warnStyle.Render("unorganized"), e.Name, rel(r.Root, e.Destination))
	}
	for _, e := range r.Blocked {
		fmt.Fprintf(w, "%s %s (%s)\n", errStyle.Render("blocked"), e.Name, e.Reason)
	}
}

func printClassification(w io.Writer, r *commands.ClassifyResult) {
	c := r.Classification
	switch {
	case c.Blocked:
		fmt.Fprintf(w, "%s  %s  %s\n", r.Filename, errStyle.Render("blocked"), c.Reason)
	case c.IsDefault():
		fmt.Fprintf(w, "%s  %s  %s %s\n", r.Filename, c.Category, c.Destination, dimStyle.Render("(default)"))
	default:
		fmt.Fprintf(w, "%s  %s  %s %s\n", r.Filename, c.Category, c.Destination, dimStyle.Render(fmt.Sprintf("(rule %d)", c.RuleIndex+1)))
	}
}
