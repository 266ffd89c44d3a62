// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

// Package figures renders SVAR results as PNG images with gonum/plot.
package figures

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"Monetary_SVAR_Project/internal/svar"
)

// Cell size of one panel in a figure grid.
var (
	CellWidth  = 3.2 * vg.Inch
	CellHeight = 2.4 * vg.Inch
)

var (
	bandColor   = color.NRGBA{R: 70, G: 130, B: 180, A: 70}
	pointColor  = color.NRGBA{R: 20, G: 60, B: 140, A: 255}
	medianColor = color.NRGBA{R: 200, G: 40, B: 40, A: 255}
	zeroColor   = color.NRGBA{A: 120}
)

var errNoResults = errors.New("figures: nothing to plot")

// IRFGrid draws a K x K grid: row i is the response of variable i, column j
// the structural shock j. Each panel shows the bootstrap band, the median and
// the point estimate.
func IRFGrid(w io.Writer, boot []*svar.IRFBootstrapResult, varNames []string) error {
	if len(boot) == 0 {
		return errNoResults
	}
	K := len(varNames)
	grid := make([][]*plot.Plot, K)
	for i := range grid {
		grid[i] = make([]*plot.Plot, len(boot))
	}

	for j, res := range boot {
		H, cols := res.Point.Dims()
		if cols != K {
			return fmt.Errorf("figures: irf for shock %d has %d variables, want %d", res.ShockIndex, cols, K)
		}
		for i := 0; i < K; i++ {
			p := plot.New()
			p.Title.Text = fmt.Sprintf("%s to %s shock", varNames[i], varNames[res.ShockIndex])
			p.X.Label.Text = "horizon"

			band, err := bandPolygon(res.Lower, res.Upper, i, H)
			if err != nil {
				return err
			}
			point, err := plotter.NewLine(column(res.Point, i))
			if err != nil {
				return fmt.Errorf("figures: irf point: %w", err)
			}
			point.Color = pointColor
			point.Width = vg.Points(1.5)

			median, err := plotter.NewLine(column(res.Median, i))
			if err != nil {
				return fmt.Errorf("figures: irf median: %w", err)
			}
			median.Color = medianColor
			median.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

			p.Add(band, zeroLine(0, float64(H-1)), median, point)
			if i == 0 && j == 0 {
				p.Legend.Add("point", point)
				p.Legend.Add("median", median)
				p.Legend.Add(fmt.Sprintf("%.0f%% band", 100*(1-res.Alpha)), band)
				p.Legend.Top = true
			}
			grid[i][j] = p
		}
	}
	return render(w, grid)
}

// FEVDChart draws one panel per variable with the point shares of each shock
// stacked, so every horizon sums to one.
func FEVDChart(w io.Writer, fevd []*svar.FEVDBootstrapResult, varNames []string) error {
	if len(fevd) == 0 {
		return errNoResults
	}
	grid := make([][]*plot.Plot, len(fevd))
	for v, res := range fevd {
		H, K := res.Point.Dims()
		p := plot.New()
		p.Title.Text = "FEVD of " + varNames[res.Variable]
		p.X.Label.Text = "horizon"
		p.Y.Min, p.Y.Max = 0, 1

		lower := make([]float64, H)
		for j := 0; j < K; j++ {
			upper := make([]float64, H)
			for h := 0; h < H; h++ {
				upper[h] = lower[h] + res.Point.At(h, j)
			}
			area, err := areaBetween(lower, upper)
			if err != nil {
				return err
			}
			area.Color = plotutil.Color(j)
			area.LineStyle.Width = 0
			p.Add(area)
			p.Legend.Add(varNames[j], area)
			lower = upper
		}
		p.Legend.Top = true
		grid[v] = []*plot.Plot{p}
	}
	return render(w, grid)
}

// HistDecompChart draws one panel per variable: the observed series, the
// no-shock baseline and each shock's contribution.
func HistDecompChart(w io.Writer, hd *svar.HistDecomp, times []float64) error {
	if hd == nil || hd.Observed == nil {
		return errNoResults
	}
	n, K := hd.Observed.Dims()
	if len(times) < hd.Start+n {
		return fmt.Errorf("figures: %d time stamps for %d decomposed rows starting at %d", len(times), n, hd.Start)
	}
	x := times[hd.Start : hd.Start+n]

	grid := make([][]*plot.Plot, K)
	for i := 0; i < K; i++ {
		p := plot.New()
		p.Title.Text = "Historical decomposition of " + hd.VarNames[i]

		for j, contrib := range hd.Contribution {
			l, err := plotter.NewLine(series(x, contrib, i))
			if err != nil {
				return fmt.Errorf("figures: hd contribution: %w", err)
			}
			l.Color = plotutil.Color(j)
			p.Add(l)
			p.Legend.Add(hd.VarNames[j]+" shock", l)
		}

		base, err := plotter.NewLine(series(x, hd.Baseline, i))
		if err != nil {
			return fmt.Errorf("figures: hd baseline: %w", err)
		}
		base.Color = zeroColor
		base.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}

		obs, err := plotter.NewLine(series(x, hd.Observed, i))
		if err != nil {
			return fmt.Errorf("figures: hd observed: %w", err)
		}
		obs.Width = vg.Points(1.5)

		p.Add(base, obs)
		p.Legend.Add("baseline", base)
		p.Legend.Add("observed", obs)
		p.Legend.Top = true
		grid[i] = []*plot.Plot{p}
	}
	return render(w, grid)
}

// render lays the plots out on one canvas and encodes it as PNG.
func render(w io.Writer, grid [][]*plot.Plot) error {
	rows, cols := len(grid), 0
	for _, r := range grid {
		if len(r) > cols {
			cols = len(r)
		}
	}
	img := vgimg.New(vg.Length(cols)*CellWidth, vg.Length(rows)*CellHeight)
	dc := draw.New(img)

	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(2),
		PadBottom: vg.Points(2),
		PadLeft:   vg.Points(2),
		PadRight:  vg.Points(2),
	}
	canvases := plot.Align(grid, tiles, dc)
	for i := range grid {
		for j, p := range grid[i] {
			if p != nil {
				p.Draw(canvases[i][j])
			}
		}
	}

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("figures: encode png: %w", err)
	}
	return nil
}

func column(m *mat.Dense, j int) plotter.XYs {
	r, _ := m.Dims()
	xys := make(plotter.XYs, r)
	for h := 0; h < r; h++ {
		xys[h].X = float64(h)
		xys[h].Y = m.At(h, j)
	}
	return xys
}

func series(x []float64, m *mat.Dense, j int) plotter.XYs {
	xys := make(plotter.XYs, len(x))
	for t := range x {
		xys[t].X = x[t]
		xys[t].Y = m.At(t, j)
	}
	return xys
}

func bandPolygon(lower, upper *mat.Dense, j, H int) (*plotter.Polygon, error) {
	lo := make([]float64, H)
	hi := make([]float64, H)
	for h := 0; h < H; h++ {
		lo[h] = lower.At(h, j)
		hi[h] = upper.At(h, j)
	}
	band, err := areaBetween(lo, hi)
	if err != nil {
		return nil, err
	}
	band.Color = bandColor
	band.LineStyle.Width = 0
	return band, nil
}

// areaBetween closes the region between two curves sampled at 0..n-1.
func areaBetween(lower, upper []float64) (*plotter.Polygon, error) {
	n := len(lower)
	ring := make(plotter.XYs, 0, 2*n)
	for h := 0; h < n; h++ {
		ring = append(ring, plotter.XY{X: float64(h), Y: upper[h]})
	}
	for h := n - 1; h >= 0; h-- {
		ring = append(ring, plotter.XY{X: float64(h), Y: lower[h]})
	}
	poly, err := plotter.NewPolygon(ring)
	if err != nil {
		return nil, fmt.Errorf("figures: band: %w", err)
	}
	return poly, nil
}

func zeroLine(from, to float64) *plotter.Line {
	l, _ := plotter.NewLine(plotter.XYs{{X: from}, {X: to}})
	l.Color = zeroColor
	l.Width = vg.Points(0.5)
	return l
}
