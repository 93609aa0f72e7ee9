package integrators

import (
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/rdasim/internal/grid"
	"github.com/san-kum/rdasim/internal/physics"
)

func randomField(g grid.Grid, seed int64) *grid.Field {
	rng := rand.New(rand.NewSource(seed))
	f := grid.NewField(g)
	vals := f.Values()
	for k := range vals {
		vals[k] = rng.Float64()
	}
	return f
}

func TestEulerDiffusionConservesMean(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		spacing float64
		dg, dr  float64
		dt      float64
	}{
		{"unit grid", 16, 16, 1.0, 0.2, 0.05, 1.0},
		{"rectangular", 48, 20, 1.0, 0.01, 0.24, 1.0},
		{"fine spacing", 33, 40, 0.1, 0.001, 0.002, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := grid.New(tt.w, tt.h, tt.spacing)
			model := &physics.StonerTuring{DG: tt.dg, DR: tt.dr}
			e := NewEuler(model, g)

			gf, rf := randomField(g, 1), randomField(g, 2)
			mg, mr := gf.Mean(), rf.Mean()
			gOut, rOut := grid.NewField(g), grid.NewField(g)

			for step := 0; step < 50; step++ {
				if err := e.Step(gf, rf, gOut, rOut, tt.dt); err != nil {
					t.Fatal(err)
				}
				gf, gOut = gOut, gf
				rf, rOut = rOut, rf
			}

			if math.Abs(gf.Mean()-mg) > 1e-12 {
				t.Errorf("G mean drifted: %.15f -> %.15f", mg, gf.Mean())
			}
			if math.Abs(rf.Mean()-mr) > 1e-12 {
				t.Errorf("R mean drifted: %.15f -> %.15f", mr, rf.Mean())
			}
		})
	}
}

func TestEulerUsesPreStepValues(t *testing.T) {
	g := grid.New(5, 5, 1.0)
	model := &physics.StonerTuring{DG: 0.1, DR: 0.2, Eta: 1, Phi: 0.04, Kappa: 0.06}
	e := NewEuler(model, g)

	gf, rf := randomField(g, 3), randomField(g, 4)
	gOut, rOut := grid.NewField(g), grid.NewField(g)
	if err := e.Step(gf, rf, gOut, rOut, 0.5); err != nil {
		t.Fatal(err)
	}

	for j := 0; j < 5; j++ {
		for i := 0; i < 5; i++ {
			lg := gf.AtWrapped(i+1, j) + gf.AtWrapped(i-1, j) + gf.AtWrapped(i, j+1) + gf.AtWrapped(i, j-1) - 4*gf.At(i, j)
			lr := rf.AtWrapped(i+1, j) + rf.AtWrapped(i-1, j) + rf.AtWrapped(i, j+1) + rf.AtWrapped(i, j-1) - 4*rf.At(i, j)
			dg, dr := model.Rates(gf.At(i, j), rf.At(i, j), lg, lr)
			if math.Abs(gOut.At(i, j)-(gf.At(i, j)+0.5*dg)) > 1e-12 {
				t.Fatalf("G mismatch at (%d,%d)", i, j)
			}
			if math.Abs(rOut.At(i, j)-(rf.At(i, j)+0.5*dr)) > 1e-12 {
				t.Fatalf("R mismatch at (%d,%d)", i, j)
			}
		}
	}
}

func TestEulerShapeMismatch(t *testing.T) {
	g := grid.New(4, 4, 1.0)
	e := NewEuler(physics.NewStonerTuring(), g)
	other := grid.NewField(grid.New(5, 4, 1.0))
	if err := e.Step(grid.NewField(g), grid.NewField(g), other, grid.NewField(g), 1); err == nil {
		t.Fatal("expected dimension error")
	}
}
