package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/rdasim/internal/dynamo"
	"github.com/san-kum/rdasim/internal/grid"
)

// DefaultBinWidth is one fundamental wavenumber.
const DefaultBinWidth = 1.0

// logFloor keeps the log-magnitude finite at empty frequencies.
const logFloor = 1e-9

// Spectrum holds |F| of a field's 2D DFT in FFT order: Power[j][i] is the
// magnitude at x-frequency index i and y-frequency index j, zero frequency at [0][0].
type Spectrum struct {
	W, H    int
	Spacing float64
	Power   [][]float64
}

// PowerSpectrum transforms f. It is a pure function of the field values.
func PowerSpectrum(f *grid.Field) *Spectrum {
	g := f.Grid()
	coeffs := fft.FFT2Real(f.Rows())

	power := make([][]float64, g.H)
	for j := range power {
		power[j] = make([]float64, g.W)
		for i := range power[j] {
			power[j][i] = cmplx.Abs(coeffs[j][i])
		}
	}
	return &Spectrum{W: g.W, H: g.H, Spacing: g.Spacing, Power: power}
}

// At returns the magnitude at signed frequency indices (kx, ky).
func (s *Spectrum) At(kx, ky int) float64 {
	return s.Power[grid.Wrap(ky, s.H)][grid.Wrap(kx, s.W)]
}

// Frequency converts an FFT index into its signed frequency index.
func Frequency(idx, n int) int {
	if idx > n/2 {
		return idx - n
	}
	return idx
}

// Shifted returns a copy with zero frequency moved to (W/2, H/2).
func (s *Spectrum) Shifted() [][]float64 {
	out := make([][]float64, s.H)
	for j := range out {
		out[j] = make([]float64, s.W)
	}
	for j, row := range s.Power {
		dst := out[(j+s.H/2)%s.H]
		for i, v := range row {
			dst[(i+s.W/2)%s.W] = v
		}
	}
	return out
}

// LogMagnitude returns log(|F| + 1e-9) in shifted order, for display.
func (s *Spectrum) LogMagnitude() [][]float64 {
	shifted := s.Shifted()
	for _, row := range shifted {
		for i, v := range row {
			row[i] = math.Log(v + logFloor)
		}
	}
	return shifted
}

// RadialProfile is the mean magnitude per |k| bin. |k| is measured in units
// of the fundamental wavenumber 2π/(max(W,H)·spacing); bin b collects
// |k| in [(b-0.5)·BinWidth, (b+0.5)·BinWidth).
type RadialProfile struct {
	BinWidth float64
	// Fundamental is 2π/(max(W,H)·spacing) in inverse length units.
	Fundamental float64
	Power       []float64
	Count       []int
}

// Radial bins the spectrum by wavenumber magnitude.
func (s *Spectrum) Radial(binWidth float64) (*RadialProfile, error) {
	if !(binWidth > 0) || math.IsInf(binWidth, 0) {
		return nil, dynamo.ConfigError("bin width must be positive, got %g", binWidth)
	}
	m := float64(s.W)
	if s.H > s.W {
		m = float64(s.H)
	}
	sx, sy := m/float64(s.W), m/float64(s.H)

	kmag := func(i, j int) float64 {
		kx := float64(Frequency(i, s.W)) * sx
		ky := float64(Frequency(j, s.H)) * sy
		return math.Hypot(kx, ky)
	}

	bin := func(k float64) int { return int(math.Floor(k/binWidth + 0.5)) }

	maxBin := 0
	for j := 0; j < s.H; j++ {
		for i := 0; i < s.W; i++ {
			if b := bin(kmag(i, j)); b > maxBin {
				maxBin = b
			}
		}
	}

	p := &RadialProfile{
		BinWidth:    binWidth,
		Fundamental: 2 * math.Pi / (m * s.Spacing),
		Power:       make([]float64, maxBin+1),
		Count:       make([]int, maxBin+1),
	}
	for j := 0; j < s.H; j++ {
		for i := 0; i < s.W; i++ {
			b := bin(kmag(i, j))
			p.Power[b] += s.Power[j][i]
			p.Count[b]++
		}
	}
	for b, c := range p.Count {
		if c > 0 {
			p.Power[b] /= float64(c)
		}
	}
	return p, nil
}

// Center returns the bin center in fundamental units.
func (p *RadialProfile) Center(b int) float64 { return float64(b) * p.BinWidth }

// Wavenumber returns the bin center in inverse length units.
func (p *RadialProfile) Wavenumber(b int) float64 { return p.Center(b) * p.Fundamental }

// DominantBin returns the non-empty bin above zero with the largest mean
// power, or 0 when there is none.
func (p *RadialProfile) DominantBin() int {
	best := 0
	for b := 1; b < len(p.Power); b++ {
		if p.Count[b] == 0 {
			continue
		}
		if best == 0 || p.Power[b] > p.Power[best] {
			best = b
		}
	}
	return best
}

// RelativePower is the mean magnitude of bin b over the DC magnitude.
// A decayed field leaves a dominant bin whose relative power is only
// round-off, so this separates structure from residue. It is 0 when
// the DC term vanishes.
func (p *RadialProfile) RelativePower(b int) float64 {
	if b < 0 || b >= len(p.Power) || p.Power[0] == 0 {
		return 0
	}
	return p.Power[b] / p.Power[0]
}

// Analyze computes the spectrum of f and its radial profile.
func Analyze(f *grid.Field, binWidth float64) (*Spectrum, *RadialProfile, error) {
	s := PowerSpectrum(f)
	p, err := s.Radial(binWidth)
	if err != nil {
		return nil, nil, err
	}
	return s, p, nil
}
