package sim_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rdasim/internal/advection"
	"github.com/san-kum/rdasim/internal/analysis"
	"github.com/san-kum/rdasim/internal/dynamo"
	"github.com/san-kum/rdasim/internal/grid"
	"github.com/san-kum/rdasim/internal/physics"
	"github.com/san-kum/rdasim/internal/sim"
)

func scenarioParams() sim.Params {
	g := grid.New(64, 64, 1.0)
	return sim.Params{
		Grid:          g,
		Model:         physics.StonerTuring{DG: 0.00002, DR: 0.00006, Eta: 1.0, Phi: 0.040, Kappa: 0.060},
		Rotation:      advection.NewRotation(advection.ProfileUniform, 0.01, 0, 32, 32),
		Init:          sim.InitParams{BaseG: 1, BaseR: 0, PatchRadius: 8, PatchG: 0.5, PatchR: 0.25},
		Dt:            1.0,
		Steps:         500,
		SnapshotEvery: 100,
	}
}

func smallParams() sim.Params {
	g := grid.New(16, 16, 1.0)
	return sim.Params{
		Grid:          g,
		Model:         physics.StonerTuring{DG: 0.16, DR: 0.08, Eta: 1, Phi: 0.04, Kappa: 0.06},
		Rotation:      advection.NewRotation(advection.ProfileInverse, 0.05, 1, 8, 8),
		Init:          sim.InitParams{BaseG: 1, PatchRadius: 3, PatchG: 0.5, PatchR: 0.25, Noise: 0.05, Seed: 7},
		Dt:            1.0,
		Steps:         20,
		SnapshotEvery: 5,
	}
}

func allFinite(f *grid.Field) bool {
	for _, v := range f.Values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

var _ = Describe("Driver", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("construction", func() {
		It("rejects dt above the diffusion stability bound", func() {
			p := smallParams()
			p.Dt = 0.25*p.Grid.Spacing*p.Grid.Spacing/p.Model.MaxDiffusion() + 0.01

			d, err := sim.New(p)
			Expect(d).To(BeNil())
			Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue())
			Expect(errors.Is(err, dynamo.ErrUnstable)).To(BeTrue())
		})

		It("rejects dt exactly on the bound", func() {
			p := smallParams()
			p.Dt = p.MaxStableDt()
			_, err := sim.New(p)
			Expect(errors.Is(err, dynamo.ErrUnstable)).To(BeTrue())
		})

		DescribeTable("invalid parameter sets",
			func(mutate func(*sim.Params)) {
				p := smallParams()
				mutate(&p)
				_, err := sim.New(p)
				Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue())
			},
			Entry("zero width", func(p *sim.Params) { p.Grid.W = 0 }),
			Entry("negative height", func(p *sim.Params) { p.Grid.H = -4 }),
			Entry("negative D_G", func(p *sim.Params) { p.Model.DG = -0.1 }),
			Entry("negative kappa", func(p *sim.Params) { p.Model.Kappa = -1 }),
			Entry("zero dt", func(p *sim.Params) { p.Dt = 0 }),
			Entry("zero steps", func(p *sim.Params) { p.Steps = 0 }),
			Entry("zero snapshot interval", func(p *sim.Params) { p.SnapshotEvery = 0 }),
			Entry("negative noise", func(p *sim.Params) { p.Init.Noise = -0.1 }),
			Entry("unknown rotation profile", func(p *sim.Params) { p.Rotation.Profile = "bar" }),
			Entry("unknown backtrack", func(p *sim.Params) { p.Backtrack = "upwind" }),
		)

		It("does not share the rotation with the caller", func() {
			p := smallParams()
			d, err := sim.New(p)
			Expect(err).NotTo(HaveOccurred())
			p.Rotation.Omega = 1e9
			Expect(d.Params().Rotation.Omega).To(Equal(0.05))
		})
	})

	Describe("initial condition", func() {
		It("is reproducible for a fixed seed", func() {
			p := smallParams()
			g1, r1 := sim.InitialFields(p.Grid, p.Init)
			g2, r2 := sim.InitialFields(p.Grid, p.Init)
			Expect(g1.Values()).To(Equal(g2.Values()))
			Expect(r1.Values()).To(Equal(r2.Values()))
		})

		It("keeps noise inside the configured amplitude", func() {
			p := smallParams()
			p.Init.PatchRadius = 0
			g, r := sim.InitialFields(p.Grid, p.Init)
			for _, v := range g.Values() {
				Expect(math.Abs(v - 1)).To(BeNumerically("<=", 0.05))
			}
			for _, v := range r.Values() {
				Expect(math.Abs(v)).To(BeNumerically("<=", 0.05))
			}
		})

		It("places the perturbation at the domain center", func() {
			p := smallParams()
			p.Init.Noise = 0
			g, r := sim.InitialFields(p.Grid, p.Init)
			Expect(g.At(8, 8)).To(Equal(0.5))
			Expect(r.At(5, 5)).To(Equal(0.25))
			Expect(g.At(0, 0)).To(Equal(1.0))
			Expect(r.At(11, 11)).To(Equal(0.0))
		})
	})

	Describe("Run", func() {
		It("emits a snapshot every interval", func() {
			d, err := sim.New(smallParams())
			Expect(err).NotTo(HaveOccurred())

			var steps []int
			res, err := d.Run(ctx, func(s sim.Snapshot) error {
				steps = append(steps, s.Step)
				return nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(steps).To(Equal([]int{5, 10, 15, 20}))
			Expect(res.StepsTaken).To(Equal(20))
			Expect(res.Snapshots).To(Equal(4))
			Expect(d.Done()).To(BeTrue())
		})

		It("hands out snapshots that later steps do not touch", func() {
			d, err := sim.New(smallParams())
			Expect(err).NotTo(HaveOccurred())

			snaps, err := d.Collect(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(snaps).To(HaveLen(4))
			first := snaps[0].G.Values()
			Expect(first).NotTo(Equal(snaps[3].G.Values()))

			copyBefore := append([]float64(nil), first...)
			live := d.Snapshot()
			live.G.Fill(42)
			Expect(snaps[0].G.Values()).To(Equal(copyBefore))
		})

		It("reports divergence with the failing step", func() {
			p := smallParams()
			p.Model.Eta = 1e6
			p.Init.PatchG, p.Init.PatchR = 50, 50
			d, err := sim.New(p)
			Expect(err).NotTo(HaveOccurred())

			_, err = d.Run(ctx, nil)
			Expect(errors.Is(err, dynamo.ErrDiverged)).To(BeTrue())

			var serr *dynamo.SimulationError
			Expect(errors.As(err, &serr)).To(BeTrue())
			Expect(serr.Step).To(Equal(d.Step() + 1))
			snap := d.Snapshot()
			Expect(allFinite(snap.G)).To(BeTrue())
			Expect(allFinite(snap.R)).To(BeTrue())
		})

		It("propagates callback failures after committing the step", func() {
			d, err := sim.New(smallParams())
			Expect(err).NotTo(HaveOccurred())

			boom := errors.New("disk full")
			_, err = d.Run(ctx, func(s sim.Snapshot) error {
				if s.Step == 10 {
					return boom
				}
				return nil
			})
			Expect(errors.Is(err, dynamo.ErrCallback)).To(BeTrue())
			Expect(errors.Is(err, boom)).To(BeTrue())
			Expect(d.Step()).To(Equal(10))
		})

		It("resumes bit-for-bit from a persisted snapshot", func() {
			ref, err := sim.New(smallParams())
			Expect(err).NotTo(HaveOccurred())
			want, err := ref.Collect(ctx)
			Expect(err).NotTo(HaveOccurred())

			first, err := sim.New(smallParams())
			Expect(err).NotTo(HaveOccurred())
			var saved sim.Snapshot
			_, err = first.Run(ctx, func(s sim.Snapshot) error {
				saved = s
				return errors.New("viewer crashed")
			})
			Expect(err).To(HaveOccurred())

			resumed, err := sim.New(smallParams())
			Expect(err).NotTo(HaveOccurred())
			Expect(resumed.Restore(saved)).To(Succeed())
			got, err := resumed.Collect(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(3))
			Expect(got[2].G.Values()).To(Equal(want[3].G.Values()))
			Expect(got[2].R.Values()).To(Equal(want[3].R.Values()))
		})

		It("stops at a step boundary when the context is canceled", func() {
			d, err := sim.New(smallParams())
			Expect(err).NotTo(HaveOccurred())

			cctx, cancel := context.WithCancel(ctx)
			_, err = d.Run(cctx, func(s sim.Snapshot) error {
				cancel()
				return nil
			})
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(d.Step()).To(Equal(5))
		})

		It("leaves a uniform steady state untouched", func() {
			p := smallParams()
			p.Init = sim.InitParams{BaseG: 1, BaseR: 0}
			d, err := sim.New(p)
			Expect(err).NotTo(HaveOccurred())
			snaps, err := d.Collect(ctx)
			Expect(err).NotTo(HaveOccurred())
			for _, v := range snaps[len(snaps)-1].G.Values() {
				Expect(v).To(BeNumerically("~", 1.0, 1e-12))
			}
		})
	})

	Describe("end-to-end scenario", func() {
		// Peak-to-DC ratio separating a pattern from round-off residue.
		const structureFloor = 1e-4

		It("runs the literal rotating 64x64 scenario to five finite snapshots", func() {
			d, err := sim.New(scenarioParams())
			Expect(err).NotTo(HaveOccurred())

			snaps, err := d.Collect(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(snaps).To(HaveLen(5))
			for _, s := range snaps {
				Expect(allFinite(s.G)).To(BeTrue())
				Expect(allFinite(s.R)).To(BeTrue())
			}

			final := snaps[4]
			_, prof, err := analysis.Analyze(final.G, analysis.DefaultBinWidth)
			Expect(err).NotTo(HaveOccurred())
			peak := prof.DominantBin()
			Expect(peak).To(BeNumerically(">", 0))
			for b := 1; b < len(prof.Power); b++ {
				if b != peak && prof.Count[b] > 0 {
					Expect(prof.Power[peak]).To(BeNumerically(">", prof.Power[b]))
				}
			}

			// The seed patch sits on the saddle-node of the kinetics and the
			// diffusion is too weak to couple cells, so the field decays to
			// G=1, R=0 and the peak above is residue only.
			Expect(final.G.Min()).To(BeNumerically("~", 1.0, 1e-6))
			Expect(final.R.Max()).To(BeNumerically("<", 1e-6))
			Expect(prof.RelativePower(peak)).To(BeNumerically("<", structureFloor))
		})

		It("forms a pattern with O(1) diffusion on a slowly rotating 64x64 grid", func() {
			p := scenarioParams()
			p.Model.DG, p.Model.DR = 0.16, 0.08
			p.Rotation.Omega = 0.002
			d, err := sim.New(p)
			Expect(err).NotTo(HaveOccurred())

			snaps, err := d.Collect(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(snaps).To(HaveLen(5))
			final := snaps[4]
			Expect(allFinite(final.G)).To(BeTrue())
			Expect(allFinite(final.R)).To(BeTrue())
			Expect(final.G.Max() - final.G.Min()).To(BeNumerically(">", 0.1))

			_, prof, err := analysis.Analyze(final.G, analysis.DefaultBinWidth)
			Expect(err).NotTo(HaveOccurred())
			peak := prof.DominantBin()
			Expect(peak).To(BeNumerically(">", 0))
			Expect(prof.RelativePower(peak)).To(BeNumerically(">", structureFloor))
		})
	})
})

var _ = Describe("Ensemble", func() {
	It("runs one member per seed", func() {
		p := smallParams()
		p.Steps = 10
		finals, err := sim.NewEnsemble(p, 3, 100).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(finals).To(HaveLen(3))
		for _, f := range finals {
			Expect(f.Step).To(Equal(10))
		}
		Expect(finals[0].R.Values()).NotTo(Equal(finals[1].R.Values()))
	})

	It("fails when a member configuration is invalid", func() {
		p := smallParams()
		p.Dt = 10
		_, err := sim.NewEnsemble(p, 2, 0).Run(context.Background())
		Expect(errors.Is(err, dynamo.ErrUnstable)).To(BeTrue())
	})

	DescribeTable("rejects a member count below one",
		func(n int) {
			finals, err := sim.NewEnsemble(smallParams(), n, 0).Run(context.Background())
			Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue())
			Expect(finals).To(BeNil())
		},
		Entry("zero", 0),
		Entry("negative", -1),
	)
})
