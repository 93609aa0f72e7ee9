package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/rdasim/internal/advection"
	"github.com/san-kum/rdasim/internal/analysis"
	"github.com/san-kum/rdasim/internal/dynamo"
	"github.com/san-kum/rdasim/internal/grid"
	"github.com/san-kum/rdasim/internal/physics"
	"github.com/san-kum/rdasim/internal/sim"
)

const (
	DefaultSize          = 200
	DefaultSpacing       = 1.0
	DefaultDt            = 1.0
	DefaultSteps         = 2048
	DefaultSnapshotEvery = 8
	DefaultOmega         = 0.05
	DefaultCore          = 1.0
	DefaultPatchRadius   = 10
	DefaultNoise         = 0.05
)

type Config struct {
	Grid      GridConfig      `yaml:"grid"`
	Diffusion DiffusionConfig `yaml:"diffusion"`
	Reaction  ReactionConfig  `yaml:"reaction"`
	Rotation  RotationConfig  `yaml:"rotation"`
	Init      InitConfig      `yaml:"init"`
	Run       RunConfig       `yaml:"run"`
}

type GridConfig struct {
	Width   int     `yaml:"width"`
	Height  int     `yaml:"height"`
	Spacing float64 `yaml:"spacing"`
}

type DiffusionConfig struct {
	G float64 `yaml:"g"`
	R float64 `yaml:"r"`
}

type ReactionConfig struct {
	Eta   float64 `yaml:"eta"`
	Phi   float64 `yaml:"phi"`
	Kappa float64 `yaml:"kappa"`
}

type RotationConfig struct {
	Enabled bool    `yaml:"enabled"`
	Profile string  `yaml:"profile"`
	Omega   float64 `yaml:"omega"`
	Core    float64 `yaml:"core"`
	Radial  float64 `yaml:"radial"`
	// Center is (x, y) in length units; empty means the domain center.
	Center    []float64 `yaml:"center,omitempty"`
	Backtrack string    `yaml:"backtrack"`
}

type InitConfig struct {
	BaseG       float64 `yaml:"base_g"`
	BaseR       float64 `yaml:"base_r"`
	PatchRadius int     `yaml:"patch_radius"`
	PatchG      float64 `yaml:"patch_g"`
	PatchR      float64 `yaml:"patch_r"`
	Noise       float64 `yaml:"noise"`
	Seed        int64   `yaml:"seed"`
}

type RunConfig struct {
	Dt            float64 `yaml:"dt"`
	Steps         int     `yaml:"steps"`
	SnapshotEvery int     `yaml:"snapshot_every"`
	BinWidth      float64 `yaml:"bin_width"`
}

// DefaultConfig is the labyrinth regime of the reference script.
func DefaultConfig() *Config {
	model := physics.NewStonerTuring()
	ic := sim.DefaultInit()
	return &Config{
		Grid:      GridConfig{Width: DefaultSize, Height: DefaultSize, Spacing: DefaultSpacing},
		Diffusion: DiffusionConfig{G: model.DG, R: model.DR},
		Reaction:  ReactionConfig{Eta: model.Eta, Phi: model.Phi, Kappa: model.Kappa},
		Rotation: RotationConfig{
			Enabled:   true,
			Profile:   advection.ProfileInverse,
			Omega:     DefaultOmega,
			Core:      DefaultCore,
			Backtrack: advection.BacktrackEuler,
		},
		Init: InitConfig{
			BaseG:       ic.BaseG,
			BaseR:       ic.BaseR,
			PatchRadius: DefaultPatchRadius,
			PatchG:      ic.PatchG,
			PatchR:      ic.PatchR,
			Noise:       DefaultNoise,
		},
		Run: RunConfig{
			Dt:            DefaultDt,
			Steps:         DefaultSteps,
			SnapshotEvery: DefaultSnapshotEvery,
			BinWidth:      analysis.DefaultBinWidth,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML over DefaultConfig, so omitted keys keep their defaults.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func Save(path string, cfg *Config) error {
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	if c.Rotation.Center != nil {
		cp.Rotation.Center = append([]float64(nil), c.Rotation.Center...)
	}
	return &cp
}

// Params converts the file layout into validated simulation parameters.
func (c *Config) Params() (sim.Params, error) {
	g := grid.New(c.Grid.Width, c.Grid.Height, c.Grid.Spacing)
	p := sim.Params{
		Grid: g,
		Model: physics.StonerTuring{
			DG:    c.Diffusion.G,
			DR:    c.Diffusion.R,
			Eta:   c.Reaction.Eta,
			Phi:   c.Reaction.Phi,
			Kappa: c.Reaction.Kappa,
		},
		Backtrack: c.Rotation.Backtrack,
		Init: sim.InitParams{
			BaseG:       c.Init.BaseG,
			BaseR:       c.Init.BaseR,
			PatchRadius: c.Init.PatchRadius,
			PatchG:      c.Init.PatchG,
			PatchR:      c.Init.PatchR,
			Noise:       c.Init.Noise,
			Seed:        c.Init.Seed,
		},
		Dt:            c.Run.Dt,
		Steps:         c.Run.Steps,
		SnapshotEvery: c.Run.SnapshotEvery,
	}

	if c.Rotation.Enabled {
		cx, cy := c.center()
		rot := advection.NewRotation(c.Rotation.Profile, c.Rotation.Omega, c.Rotation.Core, cx, cy)
		rot.Radial = c.Rotation.Radial
		p.Rotation = rot
	}

	if err := p.Validate(); err != nil {
		return sim.Params{}, err
	}
	return p, nil
}

// SetParam overrides one reaction or diffusion coefficient by its model key.
func (c *Config) SetParam(name string, v float64) error {
	switch name {
	case "dg":
		c.Diffusion.G = v
	case "dr":
		c.Diffusion.R = v
	case "eta":
		c.Reaction.Eta = v
	case "phi":
		c.Reaction.Phi = v
	case "kappa":
		c.Reaction.Kappa = v
	default:
		return dynamo.ConfigError("unknown parameter %q", name)
	}
	return nil
}

func (c *Config) center() (float64, float64) {
	if len(c.Rotation.Center) == 2 {
		return c.Rotation.Center[0], c.Rotation.Center[1]
	}
	// Same cell the initial patch is centered on.
	return float64(c.Grid.Width/2) * c.Grid.Spacing, float64(c.Grid.Height/2) * c.Grid.Spacing
}
