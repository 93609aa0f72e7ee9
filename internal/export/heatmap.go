package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/rdasim/internal/grid"
)

// HeatmapSize is the edge length of rendered heatmaps.
const HeatmapSize = 6 * vg.Inch

// matrixGrid exposes rows[r][c] as a plotter.GridXYZ with cell size d.
type matrixGrid struct {
	rows [][]float64
	d    float64
}

func (g matrixGrid) Dims() (c, r int)   { return len(g.rows[0]), len(g.rows) }
func (g matrixGrid) Z(c, r int) float64 { return g.rows[r][c] }
func (g matrixGrid) X(c int) float64    { return float64(c) * g.d }
func (g matrixGrid) Y(r int) float64    { return float64(r) * g.d }

func heatmapPlot(rows [][]float64, d float64, title string) (*plot.Plot, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("export: empty heatmap")
	}
	p := plot.New()
	p.Title.Text = title
	p.HideAxes()

	pal := moreland.Kindlmann().Palette(255)
	hm := plotter.NewHeatMap(matrixGrid{rows: rows, d: d}, pal)
	if hm.Max <= hm.Min {
		hm.Max = hm.Min + 1
	}
	p.Add(hm)
	return p, nil
}

// FieldPlot renders a field in physical coordinates.
func FieldPlot(f *grid.Field, title string) (*plot.Plot, error) {
	return heatmapPlot(f.Rows(), f.Grid().Spacing, title)
}

// MatrixPlot renders an arbitrary matrix such as a shifted log spectrum.
func MatrixPlot(rows [][]float64, title string) (*plot.Plot, error) {
	return heatmapPlot(rows, 1, title)
}

// SavePlot writes p to path; the extension picks the format.
func SavePlot(p *plot.Plot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	return p.Save(HeatmapSize, HeatmapSize, path)
}

// WritePNG encodes p as PNG to w.
func WritePNG(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(HeatmapSize, HeatmapSize, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
