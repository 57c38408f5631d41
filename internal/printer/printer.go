// Package printer writes human-facing CLI output. Diagnostics go to stderr,
// results to stdout. Set NO_COLOR to disable colors.
package printer

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

// Printer holds the output streams. The zero value is not usable; use New or Default.
type Printer struct {
	Out io.Writer
	Err io.Writer
}

func New(out, errOut io.Writer) *Printer {
	return &Printer{Out: out, Err: errOut}
}

// Default prints to the process stdout and stderr.
var Default = New(os.Stdout, os.Stderr)

// Success prints a success message in green with a checkmark prefix
func (p *Printer) Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		msg = "✓ " + msg
	}
	green.Fprintln(p.Out, msg)
}

// Info prints an informational message in the default color
func (p *Printer) Info(format string, a ...any) {
	fmt.Fprintf(p.Out, format+"\n", a...)
}

// Warning prints to stderr in yellow.
func (p *Printer) Warning(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "⚠") {
		msg = "⚠ " + msg
	}
	yellow.Fprintln(p.Err, msg)
}

// Step prints a step message with emphasis (used in multi-step operations)
func (p *Printer) Step(format string, a ...any) {
	cyan.Fprintf(p.Out, "→ %s\n", fmt.Sprintf(format, a...))
}

// Failure prints err as a single diagnostic line on stderr and returns an error
// carrying the same text for Cobra.
func (p *Printer) Failure(err error) error {
	line := strings.ReplaceAll(err.Error(), "\n", " ")
	red.Fprintf(p.Err, "✗ %s\n", line)
	return fmt.Errorf("%s", line)
}

// Usage prints a short hint on stderr, used when there is nothing to do.
func (p *Printer) Usage(hint string) {
	faint.Fprintln(p.Err, hint)
}

// BatchSummary prints the outcome of one batch.
func (p *Printer) BatchSummary(runID string, converged, empty int, elapsed time.Duration, logPath string) {
	total := converged + empty
	p.Success("%d document(s) processed in %s", total, elapsed.Round(time.Millisecond))
	fmt.Fprintf(p.Out, "  %-14s %d\n", "ocr_converged", converged)
	fmt.Fprintf(p.Out, "  %-14s %d\n", "empty", empty)
	faint.Fprintf(p.Out, "  run %s → %s\n", runID, logPath)
}

// Table prints rows as aligned columns under a header.
func (p *Printer) Table(header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len([]rune(h))
	}
	for _, r := range rows {
		for i := range header {
			if i < len(r) && len([]rune(r[i])) > widths[i] {
				widths[i] = len([]rune(r[i]))
			}
		}
	}
	write := func(cells []string, c *color.Color) {
		var b strings.Builder
		for i := range header {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(cell)
			if i < len(header)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-len([]rune(cell))))
			}
		}
		if c != nil {
			c.Fprintln(p.Out, b.String())
			return
		}
		fmt.Fprintln(p.Out, b.String())
	}
	write(header, cyan)
	for _, r := range rows {
		write(r, nil)
	}
}
