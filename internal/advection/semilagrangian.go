package advection

import (
	"github.com/san-kum/rdasim/internal/dynamo"
	"github.com/san-kum/rdasim/internal/grid"
)

// Backtrack schemes for locating the departure point.
const (
	BacktrackEuler    = "euler"
	BacktrackMidpoint = "midpoint"
)

// SemiLagrangian transports a field along a VelocityField by tracing each
// cell center back to its departure point and sampling the field there.
type SemiLagrangian struct {
	vel    VelocityField
	scheme string
}

func New(vel VelocityField, scheme string) (*SemiLagrangian, error) {
	if vel == nil {
		vel = Still
	}
	if scheme == "" {
		scheme = BacktrackEuler
	}
	if scheme != BacktrackEuler && scheme != BacktrackMidpoint {
		return nil, dynamo.ConfigError("unknown backtrack scheme %q", scheme)
	}
	return &SemiLagrangian{vel: vel, scheme: scheme}, nil
}

// Departure returns the point a parcel at (x, y) came from dt ago.
func (s *SemiLagrangian) Departure(x, y, dt float64) (float64, float64) {
	vx, vy := s.vel.Velocity(x, y)
	if s.scheme == BacktrackMidpoint {
		vx, vy = s.vel.Velocity(x-0.5*dt*vx, y-0.5*dt*vy)
	}
	return x - dt*vx, y - dt*vy
}

// Advect writes the transported copy of src into dst. dst must not alias src.
func (s *SemiLagrangian) Advect(dst, src *grid.Field, dt float64) error {
	if !dst.SameShape(src) {
		return dynamo.ErrDimensionMismatch
	}
	g := src.Grid()
	dynamo.ParallelRows(g.H, func(start, end int) {
		for j := start; j < end; j++ {
			out := dst.Row(j)
			for i := 0; i < g.W; i++ {
				x, y := g.Position(i, j)
				xd, yd := s.Departure(x, y, dt)
				out[i] = grid.Sample(src, xd, yd)
			}
		}
	})
	return nil
}
