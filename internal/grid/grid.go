package grid

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rdasim/internal/dynamo"
)

// Grid is a W×H periodic domain. Cell (i, j) sits at position (i*Spacing, j*Spacing).
type Grid struct {
	W, H    int
	Spacing float64
}

func New(w, h int, spacing float64) Grid {
	return Grid{W: w, H: h, Spacing: spacing}
}

func (g Grid) Cells() int { return g.W * g.H }

// Extent returns the physical size of the domain.
func (g Grid) Extent() (float64, float64) {
	return float64(g.W) * g.Spacing, float64(g.H) * g.Spacing
}

// Position maps an index pair to its continuous coordinate.
func (g Grid) Position(i, j int) (float64, float64) {
	return float64(i) * g.Spacing, float64(j) * g.Spacing
}

func (g Grid) Validate() error {
	if g.W <= 0 || g.H <= 0 {
		return dynamo.ConfigError("grid dimensions must be positive, got %dx%d", g.W, g.H)
	}
	if !(g.Spacing > 0) || math.IsInf(g.Spacing, 0) {
		return dynamo.ConfigError("grid spacing must be positive, got %g", g.Spacing)
	}
	return nil
}

// Wrap folds an index into [0, n).
func Wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// Field is a dense scalar field over a Grid, stored row-major with one row per j.
type Field struct {
	grid Grid
	data *mat.Dense
}

func NewField(g Grid) *Field {
	return &Field{grid: g, data: mat.NewDense(g.H, g.W, nil)}
}

// Fill returns a new field with every cell set to v.
func Fill(g Grid, v float64) *Field {
	f := NewField(g)
	f.Fill(v)
	return f
}

// FromRows builds a field from rows[j][i]; every row must have the same length.
func FromRows(spacing float64, rows [][]float64) (*Field, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, dynamo.ErrDimensionMismatch
	}
	g := New(len(rows[0]), len(rows), spacing)
	f := NewField(g)
	for j, row := range rows {
		if len(row) != g.W {
			return nil, dynamo.ErrDimensionMismatch
		}
		copy(f.Row(j), row)
	}
	return f, nil
}

func (f *Field) Grid() Grid { return f.grid }

func (f *Field) At(i, j int) float64 { return f.data.At(j, i) }

func (f *Field) Set(i, j int, v float64) { f.data.Set(j, i, v) }

// AtWrapped reads cell (i, j) with periodic wrap on both axes.
func (f *Field) AtWrapped(i, j int) float64 {
	return f.data.At(Wrap(j, f.grid.H), Wrap(i, f.grid.W))
}

// Row returns the backing slice of row j. Writes go straight to the field.
func (f *Field) Row(j int) []float64 { return f.data.RawRowView(j) }

// Values returns the backing row-major slice.
func (f *Field) Values() []float64 { return f.data.RawMatrix().Data }

func (f *Field) Fill(v float64) {
	vals := f.Values()
	for k := range vals {
		vals[k] = v
	}
}

func (f *Field) Clone() *Field {
	return &Field{grid: f.grid, data: mat.DenseCopyOf(f.data)}
}

// CopyFrom overwrites f with src. Both fields must share dimensions.
func (f *Field) CopyFrom(src *Field) error {
	if !f.SameShape(src) {
		return dynamo.ErrDimensionMismatch
	}
	f.data.Copy(src.data)
	return nil
}

func (f *Field) SameShape(o *Field) bool {
	return f.grid.W == o.grid.W && f.grid.H == o.grid.H
}

// Rows returns a deep copy as rows[j][i].
func (f *Field) Rows() [][]float64 {
	out := make([][]float64, f.grid.H)
	for j := range out {
		out[j] = append([]float64(nil), f.Row(j)...)
	}
	return out
}

func (f *Field) Sum() float64 { return floats.Sum(f.Values()) }

func (f *Field) Mean() float64 { return f.Sum() / float64(f.grid.Cells()) }

func (f *Field) Min() float64 { return floats.Min(f.Values()) }

func (f *Field) Max() float64 { return floats.Max(f.Values()) }

// IsFinite reports whether every value is neither NaN nor Inf.
func (f *Field) IsFinite() bool {
	for _, v := range f.Values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
