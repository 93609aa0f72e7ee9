package analysis

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/rdasim/internal/dynamo"
	"github.com/san-kum/rdasim/internal/grid"
)

func waveField(w, h int, mx, my int) *grid.Field {
	f := grid.NewField(grid.New(w, h, 1.0))
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			phase := 2 * math.Pi * (float64(mx*i)/float64(w) + float64(my*j)/float64(h))
			f.Set(i, j, math.Cos(phase))
		}
	}
	return f
}

func TestSpectrumSymmetry(t *testing.T) {
	sizes := [][2]int{{16, 16}, {12, 20}, {15, 9}}
	for _, sz := range sizes {
		w, h := sz[0], sz[1]
		rng := rand.New(rand.NewSource(int64(w * h)))
		f := grid.NewField(grid.New(w, h, 1.0))
		for k := range f.Values() {
			f.Values()[k] = rng.Float64()
		}

		s := PowerSpectrum(f)
		for j := 0; j < h; j++ {
			for i := 0; i < w; i++ {
				a, b := s.At(i, j), s.At(-i, -j)
				if math.Abs(a-b) > 1e-9*(1+a) {
					t.Fatalf("%dx%d: power[%d,%d]=%g but mirrored=%g", w, h, i, j, a, b)
				}
			}
		}
	}
}

func TestSpectrumDCEqualsSum(t *testing.T) {
	f := grid.Fill(grid.New(8, 8, 1.0), 0.5)
	s := PowerSpectrum(f)
	if math.Abs(s.At(0, 0)-32) > 1e-9 {
		t.Errorf("expected DC magnitude 32, got %g", s.At(0, 0))
	}
	for j := 0; j < 8; j++ {
		for i := 0; i < 8; i++ {
			if (i != 0 || j != 0) && s.Power[j][i] > 1e-9 {
				t.Fatalf("uniform field has power at (%d,%d)", i, j)
			}
		}
	}
}

func TestPowerSpectrumIsDeterministic(t *testing.T) {
	f := waveField(24, 24, 3, 1)
	a, b := PowerSpectrum(f), PowerSpectrum(f)
	for j := range a.Power {
		for i := range a.Power[j] {
			if a.Power[j][i] != b.Power[j][i] {
				t.Fatal("spectrum differs between identical calls")
			}
		}
	}
}

func TestRadialPeakAtWaveNumber(t *testing.T) {
	tests := []struct {
		name   string
		w, h   int
		mx, my int
		want   int
	}{
		{"x mode", 32, 32, 4, 0, 4},
		{"y mode", 32, 32, 0, 6, 6},
		{"diagonal", 64, 64, 3, 4, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, prof, err := Analyze(waveField(tt.w, tt.h, tt.mx, tt.my), DefaultBinWidth)
			if err != nil {
				t.Fatal(err)
			}
			if got := prof.DominantBin(); got != tt.want {
				t.Errorf("dominant bin %d, expected %d", got, tt.want)
			}
		})
	}
}

func TestRadialBinCounts(t *testing.T) {
	s := PowerSpectrum(grid.NewField(grid.New(16, 16, 1.0)))
	prof, err := s.Radial(1.0)
	if err != nil {
		t.Fatal(err)
	}
	total := 0
	for _, c := range prof.Count {
		total += c
	}
	if total != 256 {
		t.Errorf("expected 256 points binned, got %d", total)
	}
	if prof.Count[0] != 1 {
		t.Errorf("bin 0 should hold only zero frequency, got %d", prof.Count[0])
	}
	if math.Abs(prof.Wavenumber(1)-2*math.Pi/16) > 1e-15 {
		t.Errorf("unexpected fundamental %g", prof.Wavenumber(1))
	}
}

func TestRadialRejectsBadWidth(t *testing.T) {
	s := PowerSpectrum(grid.NewField(grid.New(4, 4, 1.0)))
	for _, w := range []float64{0, -1, math.NaN()} {
		if _, err := s.Radial(w); !errors.Is(err, dynamo.ErrInvalidConfig) {
			t.Errorf("width %g: expected ErrInvalidConfig, got %v", w, err)
		}
	}
}

func TestShiftedCentersZeroFrequency(t *testing.T) {
	f := grid.Fill(grid.New(6, 4, 1.0), 1.0)
	s := PowerSpectrum(f)
	sh := s.Shifted()
	if math.Abs(sh[2][3]-24) > 1e-9 {
		t.Errorf("expected DC at center, got %g", sh[2][3])
	}
	logm := s.LogMagnitude()
	if math.IsInf(logm[0][0], 0) || math.IsNaN(logm[0][0]) {
		t.Error("log magnitude not finite at empty frequency")
	}
}

func TestFrequency(t *testing.T) {
	if Frequency(3, 8) != 3 || Frequency(5, 8) != -3 || Frequency(4, 8) != 4 {
		t.Error("unexpected signed frequency mapping")
	}
}

func TestRelativePowerSeparatesStructureFromResidue(t *testing.T) {
	field := func(amp float64) *grid.Field {
		f := waveField(32, 32, 4, 0)
		for k, v := range f.Values() {
			f.Values()[k] = 1 + amp*v
		}
		return f
	}

	_, prof, err := Analyze(field(0.5), DefaultBinWidth)
	if err != nil {
		t.Fatal(err)
	}
	// Two peaks of 0.5·N/2 spread over the bin, against a DC of N.
	want := 0.5 / float64(prof.Count[4])
	if got := prof.RelativePower(4); math.Abs(got-want) > 1e-9 {
		t.Errorf("expected relative power %g, got %g", want, got)
	}

	_, faint, err := Analyze(field(1e-9), DefaultBinWidth)
	if err != nil {
		t.Fatal(err)
	}
	if faint.DominantBin() != 4 {
		t.Errorf("expected dominant bin 4, got %d", faint.DominantBin())
	}
	if got := faint.RelativePower(4); got > 1e-9 {
		t.Errorf("residue should have negligible relative power, got %g", got)
	}

	if prof.RelativePower(-1) != 0 || prof.RelativePower(len(prof.Power)) != 0 {
		t.Error("out-of-range bins should report 0")
	}
	_, zero, _ := Analyze(grid.NewField(grid.New(8, 8, 1.0)), DefaultBinWidth)
	if zero.RelativePower(1) != 0 {
		t.Error("zero DC should report 0")
	}
}
