// Package progress prints a purely cosmetic progress indicator for a run
// in progress — spec §4.3 is explicit that this is not part of the
// orchestrator's contract, only an operator convenience.
package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

// Reporter prints step/population progress to w, adapting its format to
// whether w is an interactive terminal.
type Reporter struct {
	w          io.Writer
	interactive bool
	started    time.Time
	totalSteps int
}

// New returns a Reporter for totalSteps total steps, writing to w.
// Interactivity is auto-detected when w is *os.File; any other writer is
// treated as non-interactive (plain periodic lines, no carriage returns).
func New(w io.Writer, totalSteps int) *Reporter {
	interactive := false
	if f, ok := w.(*os.File); ok {
		interactive = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Reporter{w: w, interactive: interactive, started: time.Now(), totalSteps: totalSteps}
}

// Report prints progress for the given step and living population count.
// Every call on an interactive terminal overwrites the previous line; on
// a non-interactive writer each call prints a new line.
func (r *Reporter) Report(step int, livingCells int) {
	pct := 0.0
	if r.totalSteps > 0 {
		pct = 100 * float64(step) / float64(r.totalSteps)
	}
	elapsed := time.Since(r.started)
	eta := estimateETA(elapsed, step, r.totalSteps)

	line := fmt.Sprintf("step %d/%d (%.1f%%) — %s living cells — elapsed %s — eta %s",
		step, r.totalSteps, pct, humanize.Comma(int64(livingCells)),
		elapsed.Round(time.Second), eta)

	if r.interactive {
		fmt.Fprintf(r.w, "\r\033[K%s", line)
	} else {
		fmt.Fprintln(r.w, line)
	}
}

// Done finalizes the progress line, moving past the carriage-return in
// place on an interactive terminal.
func (r *Reporter) Done() {
	if r.interactive {
		fmt.Fprintln(r.w)
	}
}

func estimateETA(elapsed time.Duration, step, totalSteps int) string {
	if step <= 0 || totalSteps <= 0 || step >= totalSteps {
		return "—"
	}
	perStep := elapsed / time.Duration(step)
	remaining := perStep * time.Duration(totalSteps-step)
	return remaining.Round(time.Second).String()
}
