package report

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomarkdown/markdown"

	"decaylab/domain/result"
	"decaylab/internal/errors"
)

// HTMLRenderer writes a markdown run summary and its rendered HTML index
// into the run directory, next to the plots, so cmd/report can serve the
// whole tree.
type HTMLRenderer struct {
	dir string
}

// NewHTMLRenderer writes summary.md and index.html under dir.
func NewHTMLRenderer(dir string) *HTMLRenderer {
	return &HTMLRenderer{dir: dir}
}

// Render implements ports.ReportRendererPort.
func (r *HTMLRenderer) Render(ctx context.Context, summary result.Summary) error {
	md := r.buildMarkdown(summary)

	mdPath := filepath.Join(r.dir, "summary.md")
	if err := os.WriteFile(mdPath, []byte(md), 0o644); err != nil {
		return errors.IOError(fmt.Sprintf("writing %s", mdPath), err)
	}

	html := markdown.ToHTML([]byte(md), nil, nil)
	htmlPath := filepath.Join(r.dir, "index.html")
	if err := os.WriteFile(htmlPath, html, 0o644); err != nil {
		return errors.IOError(fmt.Sprintf("writing %s", htmlPath), err)
	}
	return nil
}

func (r *HTMLRenderer) buildMarkdown(summary result.Summary) string {
	var b strings.Builder
	b.WriteString("# Weighting-method comparison\n\n")
	fmt.Fprintf(&b, "%d iterations. z = mean absolute deviation / sigma of signed deviation; smaller is better.\n\n", summary.Iterations)

	b.WriteString("| Method |")
	for _, p := range summary.Params {
		fmt.Fprintf(&b, " z(%s) |", p)
	}
	b.WriteString("\n|---|")
	for range summary.Params {
		b.WriteString("---|")
	}
	b.WriteString("\n")

	for _, m := range summary.Methods {
		fmt.Fprintf(&b, "| %s |", m)
		for _, p := range summary.Params {
			z := summary.ZScore[m][p]
			best, _ := summary.BestPerParam(p)
			cell := formatZ(z)
			if m == best && !math.IsNaN(z) {
				cell = "**" + cell + "**"
			}
			fmt.Fprintf(&b, " %s |", cell)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n## Invalid iterations per method\n\n")
	for _, m := range summary.Methods {
		if n := summary.InvalidIterations[m]; n > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", m, n)
		}
	}

	b.WriteString("\n## Plots\n\n")
	for _, m := range summary.Methods {
		if m == result.MethodTruth {
			continue
		}
		for _, p := range summary.Params {
			name := fmt.Sprintf("pull_%s_%s.png", fileToken(string(m)), fileToken(string(p)))
			fmt.Fprintf(&b, "![%s %s pull](%s)\n", m, p, name)
		}
	}
	return b.String()
}
