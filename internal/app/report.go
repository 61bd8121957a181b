package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

const (
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiBold  = "\x1b[1m"
	ansiReset = "\x1b[0m"
)

// Report writes human-readable suite results.
type Report struct {
	w     io.Writer
	color bool
}

// NewReport creates a report on w. In ColorAuto mode colour is used only
// when w is a terminal.
func NewReport(w io.Writer, mode string) *Report {
	color := false
	switch mode {
	case ColorAlways:
		color = true
	case ColorAuto:
		if f, ok := w.(*os.File); ok {
			color = term.IsTerminal(int(f.Fd()))
		}
	}
	return &Report{w: w, color: color}
}

func (r *Report) paint(style, s string) string {
	if !r.color {
		return s
	}
	return style + s + ansiReset
}

// Write prints one result: a status line, then for each failure the
// preceding instructions and the differing fields.
func (r *Report) Write(res *Result) error {
	status := r.paint(ansiGreen, "PASS")
	if !res.Passed() {
		status = r.paint(ansiRed, "FAIL")
	}
	if _, err := fmt.Fprintf(r.w, "%s %s: %d instructions in %v\n", status, res.Suite.Name, res.Steps, res.Duration.Round(time.Millisecond)); err != nil {
		return err
	}
	if res.Err != nil {
		if _, err := fmt.Fprintf(r.w, "  error: %v\n", res.Err); err != nil {
			return err
		}
	}

	for _, f := range res.Failures {
		if err := r.writeFailure(f); err != nil {
			return err
		}
	}
	return nil
}

func (r *Report) writeFailure(f Failure) error {
	m := f.Mismatch
	if _, err := fmt.Fprintf(r.w, "  %s at log line %d ($%04X)\n", r.paint(ansiBold, "mismatch"), m.Expected.Line, m.Expected.PC); err != nil {
		return err
	}
	for _, e := range f.Context {
		if _, err := fmt.Fprintf(r.w, "    %s\n", e); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(r.w, "  expected %s\n  actual   %s\n", m.Expected, m.Actual); err != nil {
		return err
	}
	for _, d := range m.Fields {
		if _, err := fmt.Fprintf(r.w, "    %-11s expected %s, got %s\n",
			d.Field, r.paint(ansiGreen, d.Expected), r.paint(ansiRed, d.Actual)); err != nil {
			return err
		}
	}
	return nil
}

// Summary prints totals and returns how many suites failed.
func (r *Report) Summary(results []*Result) (int, error) {
	failed := 0
	steps := 0
	for _, res := range results {
		if res == nil {
			failed++
			continue
		}
		steps += res.Steps
		if !res.Passed() {
			failed++
		}
	}
	line := fmt.Sprintf("%d/%d suites passed, %d instructions", len(results)-failed, len(results), steps)
	if failed > 0 {
		line = r.paint(ansiRed, line)
	} else {
		line = r.paint(ansiGreen, line)
	}
	_, err := fmt.Fprintln(r.w, line)
	return failed, err
}
