package advection

import (
	"math"

	"github.com/san-kum/rdasim/internal/dynamo"
)

// Profile names accepted by NewRotation.
const (
	ProfileUniform   = "uniform"
	ProfileInverse   = "inverse"
	ProfileKeplerian = "keplerian"
)

// VelocityField maps a position to a velocity. Implementations hold no
// mutable state and may be called concurrently.
type VelocityField interface {
	Velocity(x, y float64) (vx, vy float64)
}

// VelocityFunc adapts a plain function to VelocityField.
type VelocityFunc func(x, y float64) (float64, float64)

func (f VelocityFunc) Velocity(x, y float64) (float64, float64) { return f(x, y) }

// Still is the zero velocity field.
var Still = VelocityFunc(func(float64, float64) (float64, float64) { return 0, 0 })

// Rotation is a differential rotation about (CX, CY). A point at offset
// (dx, dy) from the center moves with omega(r)·(-dy, dx) plus an optional
// radial component Radial·(dx, dy).
type Rotation struct {
	Profile string
	Omega   float64
	// Core floors r in the inverse and keplerian profiles; inside it the
	// keplerian profile turns into solid-body rotation.
	Core   float64
	Radial float64
	CX, CY float64
}

func NewRotation(profile string, omega, core float64, cx, cy float64) *Rotation {
	return &Rotation{Profile: profile, Omega: omega, Core: core, CX: cx, CY: cy}
}

func (r *Rotation) Validate() error {
	switch r.Profile {
	case ProfileUniform, ProfileInverse, ProfileKeplerian:
	default:
		return dynamo.ConfigError("unknown rotation profile %q", r.Profile)
	}
	if math.IsNaN(r.Omega) || math.IsInf(r.Omega, 0) {
		return dynamo.ConfigError("rotation omega must be finite, got %g", r.Omega)
	}
	if math.IsNaN(r.Radial) || math.IsInf(r.Radial, 0) {
		return dynamo.ConfigError("radial rate must be finite, got %g", r.Radial)
	}
	if r.Profile != ProfileUniform && !(r.Core > 0) {
		return dynamo.ConfigError("core radius must be positive for %s profile, got %g", r.Profile, r.Core)
	}
	return nil
}

// AngularVelocity returns omega(rad). It is defined for every rad >= 0.
func (r *Rotation) AngularVelocity(rad float64) float64 {
	switch r.Profile {
	case ProfileInverse:
		return r.Omega / math.Max(rad, r.Core)
	case ProfileKeplerian:
		if rad <= r.Core {
			return r.Omega
		}
		return r.Omega * math.Pow(r.Core/rad, 1.5)
	default:
		return r.Omega
	}
}

func (r *Rotation) Velocity(x, y float64) (float64, float64) {
	dx, dy := x-r.CX, y-r.CY
	if dx == 0 && dy == 0 {
		return 0, 0
	}
	w := r.AngularVelocity(math.Hypot(dx, dy))
	return -w*dy + r.Radial*dx, w*dx + r.Radial*dy
}
