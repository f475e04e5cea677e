// Package report renders run results and progress for the terminal.
package report

import (
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/starford/relink/internal/ledger"
	"github.com/starford/relink/internal/models"
	"github.com/starford/relink/internal/relink"
)

// Summary writes the three-counter table shown after a successful run.
func Summary(w io.Writer, s relink.Stats) error {
	if _, err := fmt.Fprintln(w, "\nSummary:"); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Metric\tValue")
	fmt.Fprintln(tw, "------\t-----")
	fmt.Fprintf(tw, "Total files in the folder\t%d\n", s.FileCount)
	fmt.Fprintf(tw, "Files with links changed\t%d\n", s.FilesChanged)
	fmt.Fprintf(tw, "Total number of link changes\t%d\n", s.LinksChanged)
	return tw.Flush()
}

// History writes one line per recorded run.
func History(w io.Writer, runs []ledger.RunRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tMODE\tFILES\tRENAMED\tCHANGED\tLINKS\tUNRESOLVED\tSTATUS")
	for _, r := range runs {
		mode := "apply"
		if r.DryRun {
			mode = "dry-run"
		}
		status := "ok"
		switch {
		case r.Error != "":
			status = "failed: " + r.Error
		case r.FinishedAt == nil:
			status = "incomplete"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), mode,
			r.FileCount, r.Renamed, r.FilesChanged, r.LinksChanged, r.Unresolved, status)
	}
	return tw.Flush()
}

// RunDetail writes the renames and unresolved targets of a single run.
func RunDetail(w io.Writer, renames []models.Rename, unresolved []string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Renamed (%d):\n", len(renames))
	for _, r := range renames {
		fmt.Fprintf(tw, "  %s\t-> %s\n", r.From, r.To)
	}
	fmt.Fprintf(tw, "Unresolved (%d):\n", len(unresolved))
	for _, k := range unresolved {
		fmt.Fprintf(tw, "  %s\n", k)
	}
	return tw.Flush()
}

// Backlinks writes the sources that link to destination, one per line.
func Backlinks(w io.Writer, destination string, sources []string) error {
	if _, err := fmt.Fprintf(w, "Linked from %s (%d):\n", destination, len(sources)); err != nil {
		return err
	}
	for _, s := range sources {
		if _, err := fmt.Fprintf(w, "  %s\n", s); err != nil {
			return err
		}
	}
	return nil
}

// LogProgress reports each pipeline step to logger at debug level.
type LogProgress struct {
	logger *slog.Logger
	steps  atomic.Int64
}

// NewLogProgress creates a progress reporter backed by logger.
func NewLogProgress(logger *slog.Logger) *LogProgress {
	return &LogProgress{logger: logger}
}

// Step implements relink.Progress.
func (p *LogProgress) Step(phase relink.Phase, path string) {
	n := p.steps.Add(1)
	p.logger.Debug(string(phase), slog.Int64("step", n), slog.String("path", path))
}

// Steps returns the number of notifications received.
func (p *LogProgress) Steps() int64 {
	return p.steps.Load()
}
