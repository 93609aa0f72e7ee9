package advection

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/rdasim/internal/dynamo"
	"github.com/san-kum/rdasim/internal/grid"
)

func noiseField(g grid.Grid, seed int64) *grid.Field {
	rng := rand.New(rand.NewSource(seed))
	f := grid.NewField(g)
	vals := f.Values()
	for k := range vals {
		vals[k] = rng.NormFloat64()
	}
	return f
}

func TestZeroVelocityIsNoop(t *testing.T) {
	for _, scheme := range []string{BacktrackEuler, BacktrackMidpoint} {
		for _, dt := range []float64{0.01, 1, 250} {
			g := grid.New(13, 9, 0.3)
			src := noiseField(g, 7)
			dst := grid.NewField(g)

			adv, err := New(Still, scheme)
			if err != nil {
				t.Fatal(err)
			}
			if err := adv.Advect(dst, src, dt); err != nil {
				t.Fatal(err)
			}
			for k, v := range dst.Values() {
				if math.Abs(v-src.Values()[k]) > 1e-12 {
					t.Fatalf("%s dt=%g: cell %d changed from %g to %g", scheme, dt, k, src.Values()[k], v)
				}
			}
		}
	}
}

func TestZeroOmegaRotationIsNoop(t *testing.T) {
	g := grid.New(16, 16, 1.0)
	rot := NewRotation(ProfileUniform, 0, 1, 8, 8)
	adv, _ := New(rot, BacktrackEuler)
	src := noiseField(g, 3)
	dst := grid.NewField(g)
	if err := adv.Advect(dst, src, 1); err != nil {
		t.Fatal(err)
	}
	for k, v := range dst.Values() {
		if math.Abs(v-src.Values()[k]) > 1e-12 {
			t.Fatalf("cell %d changed", k)
		}
	}
}

func TestConstantVelocityShiftsByWholeCells(t *testing.T) {
	g := grid.New(8, 6, 0.5)
	src := noiseField(g, 11)
	dst := grid.NewField(g)

	// One cell per step to the right and two cells per step down.
	vel := VelocityFunc(func(float64, float64) (float64, float64) { return 0.5, 1.0 })
	adv, _ := New(vel, BacktrackMidpoint)
	if err := adv.Advect(dst, src, 1); err != nil {
		t.Fatal(err)
	}

	for j := 0; j < g.H; j++ {
		for i := 0; i < g.W; i++ {
			want := src.AtWrapped(i-1, j-2)
			if math.Abs(dst.At(i, j)-want) > 1e-12 {
				t.Fatalf("(%d,%d): got %g, expected %g", i, j, dst.At(i, j), want)
			}
		}
	}
}

func TestFullDomainTranslationIsIdentity(t *testing.T) {
	g := grid.New(10, 10, 1.0)
	src := noiseField(g, 5)
	dst := grid.NewField(g)
	vel := VelocityFunc(func(float64, float64) (float64, float64) { return 10, -20 })
	adv, _ := New(vel, BacktrackEuler)
	if err := adv.Advect(dst, src, 1); err != nil {
		t.Fatal(err)
	}
	for k, v := range dst.Values() {
		if math.Abs(v-src.Values()[k]) > 1e-9 {
			t.Fatalf("cell %d changed", k)
		}
	}
}

func TestRotationIsZeroAtCenter(t *testing.T) {
	for _, p := range []string{ProfileUniform, ProfileInverse, ProfileKeplerian} {
		rot := NewRotation(p, 0.3, 1.0, 4, 5)
		rot.Radial = 0.1
		vx, vy := rot.Velocity(4, 5)
		if vx != 0 || vy != 0 {
			t.Errorf("%s: expected zero velocity at center, got (%g, %g)", p, vx, vy)
		}
		if w := rot.AngularVelocity(0); math.IsNaN(w) || math.IsInf(w, 0) {
			t.Errorf("%s: omega(0) not finite", p)
		}
	}
}

func TestRotationIsTangential(t *testing.T) {
	rot := NewRotation(ProfileUniform, 0.01, 0, 32, 32)
	vx, vy := rot.Velocity(42, 32)
	if math.Abs(vx) > 1e-15 || math.Abs(vy-0.1) > 1e-15 {
		t.Errorf("expected (0, 0.1), got (%g, %g)", vx, vy)
	}
	if dot := vx*10 + vy*0; math.Abs(dot) > 1e-15 {
		t.Errorf("velocity not perpendicular to radius")
	}
}

func TestProfiles(t *testing.T) {
	inv := NewRotation(ProfileInverse, 0.05, 1, 0, 0)
	if got := inv.AngularVelocity(10); math.Abs(got-0.005) > 1e-15 {
		t.Errorf("inverse omega(10) = %g", got)
	}
	if got := inv.AngularVelocity(0.5); got != 0.05 {
		t.Errorf("inverse omega inside core = %g", got)
	}

	kep := NewRotation(ProfileKeplerian, 0.2, 4, 0, 0)
	if got := kep.AngularVelocity(16); math.Abs(got-0.2/8) > 1e-15 {
		t.Errorf("keplerian omega(16) = %g", got)
	}
	if got := kep.AngularVelocity(4); got != 0.2 {
		t.Errorf("keplerian should be continuous at the core, got %g", got)
	}
}

func TestRotationValidate(t *testing.T) {
	tests := []struct {
		name string
		rot  Rotation
	}{
		{"unknown profile", Rotation{Profile: "spiral"}},
		{"nan omega", Rotation{Profile: ProfileUniform, Omega: math.NaN()}},
		{"zero core", Rotation{Profile: ProfileInverse, Omega: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.rot.Validate(); !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestUnknownScheme(t *testing.T) {
	if _, err := New(Still, "upwind"); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRotationPreservesConstantField(t *testing.T) {
	g := grid.New(40, 40, 1.0)
	src := grid.Fill(g, 0.7)
	dst := grid.NewField(g)
	adv, _ := New(NewRotation(ProfileInverse, 0.5, 1, 20, 20), BacktrackMidpoint)
	if err := adv.Advect(dst, src, 3); err != nil {
		t.Fatal(err)
	}
	for _, v := range dst.Values() {
		if math.Abs(v-0.7) > 1e-12 {
			t.Fatalf("constant field changed to %g", v)
		}
	}
}
