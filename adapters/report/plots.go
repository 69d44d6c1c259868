package report

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"decaylab/domain/result"
	"decaylab/internal/errors"
	"decaylab/internal/qfactor"
)

// PlotRenderer writes diagnostic plots into a run directory: pull
// distributions per (method, parameter) and fitted-vs-theoretical weight
// comparisons.
type PlotRenderer struct {
	dir string
}

// NewPlotRenderer writes PNG files under dir.
func NewPlotRenderer(dir string) *PlotRenderer {
	return &PlotRenderer{dir: dir}
}

// PullHistogram plots the pull distribution for one method and parameter.
// A calibrated fit gives a unit Gaussian centered on zero.
func (r *PlotRenderer) PullHistogram(method result.Method, param result.Parameter, pulls []float64) error {
	if len(pulls) == 0 {
		return nil
	}

	h := hbook.NewH1D(25, -5, 5)
	for _, p := range pulls {
		h.Fill(p, 1)
	}

	p := hplot.New()
	p.Title.Text = fmt.Sprintf("%s: %s pull", method, param)
	p.X.Label.Text = "(fitted - true) / error"
	p.Y.Label.Text = "iterations"

	hh := hplot.NewH1D(h)
	hh.LineStyle.Color = color.RGBA{B: 180, A: 255}
	p.Add(hh, hplot.NewGrid())

	name := fmt.Sprintf("pull_%s_%s.png", fileToken(string(method)), fileToken(string(param)))
	path := filepath.Join(r.dir, name)
	if err := p.Save(14*vg.Centimeter, 10*vg.Centimeter, path); err != nil {
		return errors.IOError(fmt.Sprintf("saving pull plot %s", path), err)
	}
	return nil
}

// WeightComparison plots fitted Q-factors against the theoretical
// computation over the discriminating variable, aligned by event.
func (r *PlotRenderer) WeightComparison(name string, cmp qfactor.Comparison) error {
	p := hplot.New()
	p.Title.Text = name + ": fitted vs theoretical weights"
	p.X.Label.Text = "mass"
	p.Y.Label.Text = "signal weight"

	fitted := make(plotter.XYs, 0, len(cmp.Masses))
	theory := make(plotter.XYs, 0, len(cmp.Masses))
	for i, m := range cmp.Masses {
		if !isFinite(cmp.Fitted[i]) || !isFinite(cmp.Theoretical[i]) {
			continue
		}
		fitted = append(fitted, plotter.XY{X: m, Y: cmp.Fitted[i]})
		theory = append(theory, plotter.XY{X: m, Y: cmp.Theoretical[i]})
	}

	fs, err := plotter.NewScatter(fitted)
	if err != nil {
		return errors.Wrap(err, "building fitted scatter")
	}
	fs.GlyphStyle.Radius = vg.Points(1.2)
	fs.GlyphStyle.Color = color.RGBA{B: 200, A: 255}

	ts, err := plotter.NewScatter(theory)
	if err != nil {
		return errors.Wrap(err, "building theoretical scatter")
	}
	ts.GlyphStyle.Radius = vg.Points(1.2)
	ts.GlyphStyle.Color = color.RGBA{R: 200, A: 255}

	p.Add(fs, ts, hplot.NewGrid())
	p.Legend.Add("fitted", fs)
	p.Legend.Add("theoretical", ts)

	path := filepath.Join(r.dir, fmt.Sprintf("weights_%s.png", fileToken(name)))
	if err := p.Save(14*vg.Centimeter, 10*vg.Centimeter, path); err != nil {
		return errors.IOError(fmt.Sprintf("saving weight comparison %s", path), err)
	}
	return nil
}

func fileToken(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer(" ", "_", "(", "", ")", "", "&", "and", "-", "_").Replace(s)
	return s
}

func isFinite(v float64) bool {
	return v == v && v > -1e308 && v < 1e308
}
