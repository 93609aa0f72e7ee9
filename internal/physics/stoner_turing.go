package physics

import (
	"math"

	"github.com/san-kum/rdasim/internal/dynamo"
)

// StonerTuring is the Gray–Scott form of the gas/radiation kinetics:
//
//	dG/dt = D_G ∇²G - η G R² + Φ (1 - G)
//	dR/dt = D_R ∇²R + η G R² - (Φ + κ) R
type StonerTuring struct {
	DG, DR     float64
	Eta        float64
	Phi, Kappa float64
}

// NewStonerTuring returns the labyrinth regime of the reference model.
func NewStonerTuring() *StonerTuring {
	return &StonerTuring{DG: 0.16, DR: 0.08, Eta: 1.0, Phi: 0.040, Kappa: 0.060}
}

// Rates returns dG/dt and dR/dt at one cell from its current values and Laplacians.
func (s *StonerTuring) Rates(g, r, lapG, lapR float64) (float64, float64) {
	gr2 := s.Eta * g * r * r
	dg := s.DG*lapG - gr2 + s.Phi*(1-g)
	dr := s.DR*lapR + gr2 - (s.Phi+s.Kappa)*r
	return dg, dr
}

// MaxDiffusion is the larger of the two diffusion coefficients.
func (s *StonerTuring) MaxDiffusion() float64 {
	return math.Max(s.DG, s.DR)
}

func (s *StonerTuring) Validate() error {
	coeffs := []struct {
		name string
		v    float64
	}{
		{"D_G", s.DG}, {"D_R", s.DR}, {"eta", s.Eta}, {"phi", s.Phi}, {"kappa", s.Kappa},
	}
	for _, c := range coeffs {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) || c.v < 0 {
			return dynamo.ConfigError("%s must be finite and non-negative, got %g", c.name, c.v)
		}
	}
	return nil
}

func (s *StonerTuring) GetParams() map[string]float64 {
	return map[string]float64{"dg": s.DG, "dr": s.DR, "eta": s.Eta, "phi": s.Phi, "kappa": s.Kappa}
}

// SetParam sets one coefficient by its GetParams key.
func (s *StonerTuring) SetParam(name string, v float64) error {
	switch name {
	case "dg":
		s.DG = v
	case "dr":
		s.DR = v
	case "eta":
		s.Eta = v
	case "phi":
		s.Phi = v
	case "kappa":
		s.Kappa = v
	default:
		return dynamo.ConfigError("unknown parameter %q", name)
	}
	return nil
}
