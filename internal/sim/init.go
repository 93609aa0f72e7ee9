package sim

import (
	"math/rand"

	"github.com/san-kum/rdasim/internal/grid"
)

// InitialFields builds the starting (G, R) pair: a uniform baseline, a
// square patch around the domain center, then uniform noise in
// [-Noise, Noise] on every cell of G followed by every cell of R.
func InitialFields(g grid.Grid, ip InitParams) (*grid.Field, *grid.Field) {
	gf := grid.Fill(g, ip.BaseG)
	rf := grid.Fill(g, ip.BaseR)

	if ip.PatchRadius > 0 {
		cx, cy := g.W/2, g.H/2
		for j := cy - ip.PatchRadius; j < cy+ip.PatchRadius; j++ {
			for i := cx - ip.PatchRadius; i < cx+ip.PatchRadius; i++ {
				wi, wj := grid.Wrap(i, g.W), grid.Wrap(j, g.H)
				gf.Set(wi, wj, ip.PatchG)
				rf.Set(wi, wj, ip.PatchR)
			}
		}
	}

	if ip.Noise > 0 {
		rng := rand.New(rand.NewSource(ip.Seed))
		for _, f := range []*grid.Field{gf, rf} {
			vals := f.Values()
			for k := range vals {
				vals[k] += ip.Noise * (2*rng.Float64() - 1)
			}
		}
	}
	return gf, rf
}
