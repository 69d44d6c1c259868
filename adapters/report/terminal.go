// Package report renders the aggregated method comparison: a color-scaled
// terminal table, an Excel workbook, pull-distribution plots and an HTML
// index for browsing a run directory.
package report

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"decaylab/domain/result"
)

// TerminalRenderer writes the z-score comparison table to a terminal,
// color-scaling each column from the strongest method to the weakest and
// emphasizing the best cell.
type TerminalRenderer struct {
	out io.Writer
}

// NewTerminalRenderer writes to the given sink (usually os.Stdout).
func NewTerminalRenderer(out io.Writer) *TerminalRenderer {
	return &TerminalRenderer{out: out}
}

// Render implements ports.ReportRendererPort.
func (r *TerminalRenderer) Render(ctx context.Context, summary result.Summary) error {
	methodWidth := len("Method")
	for _, m := range summary.Methods {
		if len(m) > methodWidth {
			methodWidth = len(m)
		}
	}
	const cellWidth = 12

	header := lipgloss.NewStyle().Bold(true)
	fmt.Fprintf(r.out, "%s", header.Render(pad("Method", methodWidth)))
	for _, p := range summary.Params {
		fmt.Fprintf(r.out, "  %s", header.Render(pad("z("+string(p)+")", cellWidth)))
	}
	fmt.Fprintln(r.out)

	type column struct {
		min, max float64
		best     result.Method
	}
	cols := make(map[result.Parameter]column)
	for _, p := range summary.Params {
		min, max, _ := summary.ColumnRange(p)
		best, _ := summary.BestPerParam(p)
		cols[p] = column{min: min, max: max, best: best}
	}

	for _, m := range summary.Methods {
		fmt.Fprintf(r.out, "%s", pad(string(m), methodWidth))
		for _, p := range summary.Params {
			z := summary.ZScore[m][p]
			col := cols[p]

			text := pad(formatZ(z), cellWidth)
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(ScaleColor(math.Abs(z), col.min, col.max)))
			if m == col.best {
				style = style.Bold(true)
			}
			fmt.Fprintf(r.out, "  %s", style.Render(text))
		}
		fmt.Fprintln(r.out)
	}

	fmt.Fprintf(r.out, "\n%d iterations; z = mean |deviation| / sigma(signed deviation); smaller is better\n",
		summary.Iterations)
	return nil
}

func formatZ(z float64) string {
	if math.IsNaN(z) {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", z)
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
