package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/rdasim/internal/grid"
)

// Shades orders glyphs from empty to dense.
const Shades = " .:-=+*#%@"

// Downsample averages f over blocks so the result is cols×rows.
// It never upsamples beyond the field resolution.
func Downsample(f *grid.Field, cols, rows int) [][]float64 {
	g := f.Grid()
	if cols > g.W {
		cols = g.W
	}
	if rows > g.H {
		rows = g.H
	}
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	out := make([][]float64, rows)
	for r := 0; r < rows; r++ {
		out[r] = make([]float64, cols)
		j0, j1 := r*g.H/rows, (r+1)*g.H/rows
		for c := 0; c < cols; c++ {
			i0, i1 := c*g.W/cols, (c+1)*g.W/cols
			sum := 0.0
			for j := j0; j < j1; j++ {
				row := f.Row(j)
				for i := i0; i < i1; i++ {
					sum += row[i]
				}
			}
			out[r][c] = sum / float64((j1-j0)*(i1-i0))
		}
	}
	return out
}

// shadeIndex maps v in [lo, hi] onto [0, n).
func shadeIndex(v, lo, hi float64, n int) int {
	if hi <= lo {
		return 0
	}
	idx := int((v - lo) / (hi - lo) * float64(n-1))
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}

// RenderPlain draws cells with Shades scaled between the block minimum and maximum.
func RenderPlain(cells [][]float64) string {
	lo, hi := bounds(cells)
	var sb strings.Builder
	for r, row := range cells {
		for _, v := range row {
			sb.WriteByte(Shades[shadeIndex(v, lo, hi, len(Shades))])
		}
		if r < len(cells)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// RenderColor draws cells as full blocks colored by the theme ramp.
func RenderColor(cells [][]float64, theme Theme) string {
	if len(theme.Ramp) < 2 {
		return RenderPlain(cells)
	}
	lo, hi := bounds(cells)
	styles := make([]lipgloss.Style, len(theme.Ramp))
	for k, c := range theme.Ramp {
		styles[k] = lipgloss.NewStyle().Foreground(c)
	}

	var sb strings.Builder
	for r, row := range cells {
		for _, v := range row {
			sb.WriteString(styles[shadeIndex(v, lo, hi, len(styles))].Render("█"))
		}
		if r < len(cells)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func bounds(cells [][]float64) (float64, float64) {
	if len(cells) == 0 || len(cells[0]) == 0 {
		return 0, 0
	}
	lo, hi := cells[0][0], cells[0][0]
	for _, row := range cells {
		for _, v := range row {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return lo, hi
}
