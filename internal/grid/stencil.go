package grid

import (
	"math"

	"github.com/san-kum/rdasim/internal/dynamo"
)

// Laplacian writes the periodic 5-point Laplacian of src into dst.
// dst must not alias src.
func Laplacian(dst, src *Field) error {
	if !dst.SameShape(src) {
		return dynamo.ErrDimensionMismatch
	}
	g := src.grid
	inv := 1.0 / (g.Spacing * g.Spacing)
	w, h := g.W, g.H

	dynamo.ParallelRows(h, func(start, end int) {
		for j := start; j < end; j++ {
			row := src.Row(j)
			up := src.Row(Wrap(j-1, h))
			down := src.Row(Wrap(j+1, h))
			out := dst.Row(j)
			for i := 0; i < w; i++ {
				left, right := i-1, i+1
				if left < 0 {
					left = w - 1
				}
				if right == w {
					right = 0
				}
				out[i] = (up[i] + down[i] + row[left] + row[right] - 4*row[i]) * inv
			}
		}
	})
	return nil
}

// Sample evaluates f at the continuous position (x, y) by bilinear
// interpolation between the four enclosing cells, wrapping periodically.
func Sample(f *Field, x, y float64) float64 {
	g := f.grid
	u := x / g.Spacing
	v := y / g.Spacing

	// Reduce first so huge coordinates keep their fractional precision.
	u = math.Mod(u, float64(g.W))
	if u < 0 {
		u += float64(g.W)
	}
	v = math.Mod(v, float64(g.H))
	if v < 0 {
		v += float64(g.H)
	}

	fu, fv := math.Floor(u), math.Floor(v)
	tx, ty := u-fu, v-fv
	i0 := Wrap(int(fu), g.W)
	j0 := Wrap(int(fv), g.H)
	i1 := Wrap(i0+1, g.W)
	j1 := Wrap(j0+1, g.H)

	r0, r1 := f.Row(j0), f.Row(j1)
	top := r0[i0]*(1-tx) + r0[i1]*tx
	bot := r1[i0]*(1-tx) + r1[i1]*tx
	return top*(1-ty) + bot*ty
}
