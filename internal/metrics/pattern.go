package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/rdasim/internal/analysis"
	"github.com/san-kum/rdasim/internal/sim"
)

// Contrast is the standard deviation of G in the latest snapshot.
// It stays near the noise amplitude until a pattern forms.
type Contrast struct {
	name  string
	value float64
}

func NewContrast() *Contrast {
	return &Contrast{name: "contrast"}
}

func (c *Contrast) Name() string { return c.name }

func (c *Contrast) Observe(s sim.Snapshot) {
	c.value = stat.StdDev(s.G.Values(), nil)
}

func (c *Contrast) Value() float64 { return c.value }

func (c *Contrast) Reset() { c.value = 0 }

// Wavelength is the length scale 2π/k of the dominant radial bin of G
// in the latest snapshot, or 0 when the field has no structure.
type Wavelength struct {
	name     string
	binWidth float64
	value    float64
}

func NewWavelength(binWidth float64) *Wavelength {
	return &Wavelength{name: "wavelength", binWidth: binWidth}
}

func (w *Wavelength) Name() string { return w.name }

func (w *Wavelength) Observe(s sim.Snapshot) {
	if s.G.Min() == s.G.Max() {
		w.value = 0
		return
	}
	_, prof, err := analysis.Analyze(s.G, w.binWidth)
	if err != nil {
		w.value = 0
		return
	}
	peak := prof.DominantBin()
	if peak <= 0 {
		w.value = 0
		return
	}
	w.value = 2 * math.Pi / prof.Wavenumber(peak)
}

func (w *Wavelength) Value() float64 { return w.value }

func (w *Wavelength) Reset() { w.value = 0 }

// Bounded is the fraction of snapshots whose fields stay within
// [lo-tol, hi+tol]. Concentrations of the reaction stay in [0, 1].
type Bounded struct {
	name       string
	lo, hi     float64
	tol        float64
	violations int
	samples    int
}

func NewBounded(lo, hi, tol float64) *Bounded {
	return &Bounded{name: "bounded", lo: lo, hi: hi, tol: tol}
}

func (b *Bounded) Name() string { return b.name }

func (b *Bounded) Observe(s sim.Snapshot) {
	b.samples++
	lo, hi := b.lo-b.tol, b.hi+b.tol
	if s.G.Min() < lo || s.G.Max() > hi || s.R.Min() < lo || s.R.Max() > hi {
		b.violations++
	}
}

func (b *Bounded) Value() float64 {
	if b.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(b.violations)/float64(b.samples)
}

func (b *Bounded) Reset() {
	b.violations = 0
	b.samples = 0
}
