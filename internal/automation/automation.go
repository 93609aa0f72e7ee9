package automation

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/rdasim/internal/analysis"
	"github.com/san-kum/rdasim/internal/config"
	"github.com/san-kum/rdasim/internal/metrics"
	"github.com/san-kum/rdasim/internal/sim"
	"github.com/san-kum/rdasim/internal/storage"
)

// Scenario defines a scripted sequence of runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run. It starts from Preset, or from the file at
// Config when set, and applies the non-zero overrides on top.
type ScenarioStep struct {
	Preset        string             `yaml:"preset"`
	Config        string             `yaml:"config"`
	Steps         int                `yaml:"steps"`
	Dt            float64            `yaml:"dt"`
	SnapshotEvery int                `yaml:"snapshot_every"`
	Seed          int64              `yaml:"seed"`
	Params        map[string]float64 `yaml:"params"`
	SaveAs        string             `yaml:"save_as"`
}

// StepResult summarizes one finished step.
type StepResult struct {
	Name    string
	RunID   string
	Result  *sim.Result
	Final   sim.Snapshot
	Metrics map[string]float64
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}

	return &scenario, nil
}

func (s ScenarioStep) name() string {
	switch {
	case s.SaveAs != "":
		return s.SaveAs
	case s.Preset != "":
		return s.Preset
	default:
		return "labyrinth"
	}
}

// Resolve builds the configuration of the step.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	var cfg *config.Config
	if s.Config != "" {
		loaded, err := config.Load(s.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		preset := s.Preset
		if preset == "" {
			preset = "labyrinth"
		}
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", preset)
		}
	}

	if s.Steps > 0 {
		cfg.Run.Steps = s.Steps
	}
	if s.Dt > 0 {
		cfg.Run.Dt = s.Dt
	}
	if s.SnapshotEvery > 0 {
		cfg.Run.SnapshotEvery = s.SnapshotEvery
	}
	if s.Seed != 0 {
		cfg.Init.Seed = s.Seed
	}
	for k, v := range s.Params {
		if err := cfg.SetParam(k, v); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// RunScenario executes all steps in order. Steps with SaveAs are stored
// in st when it is non-nil. Progress lines go to log when it is non-nil.
func RunScenario(ctx context.Context, scenario *Scenario, st *storage.Store, log io.Writer) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		if log != nil {
			fmt.Fprintf(log, "running step %d/%d: %s\n", i+1, len(scenario.Steps), step.name())
		}

		res, err := runStep(ctx, step, st)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, step.name(), err)
		}
		results = append(results, *res)
	}

	return results, nil
}

func runStep(ctx context.Context, step ScenarioStep, st *storage.Store) (*StepResult, error) {
	cfg, err := step.Resolve()
	if err != nil {
		return nil, err
	}
	p, err := cfg.Params()
	if err != nil {
		return nil, err
	}
	d, err := sim.New(p)
	if err != nil {
		return nil, err
	}

	out := &StepResult{Name: step.name()}
	save := step.SaveAs != "" && st != nil

	var meta storage.RunMetadata
	if save {
		if err := st.Init(); err != nil {
			return nil, err
		}
		meta = storage.NewMetadata(step.SaveAs, p)
		if out.RunID, err = st.Create(meta); err != nil {
			return nil, err
		}
		meta.ID = out.RunID
	}

	obs := metrics.NewObserver(func(s sim.Snapshot) error {
		if !save {
			return nil
		}
		meta.Snapshots = append(meta.Snapshots, s.Step)
		return st.SaveSnapshot(out.RunID, s)
	}, metrics.Defaults(cfg.Run.BinWidth)...)

	out.Result, err = d.Run(ctx, obs.Observe)
	if err != nil {
		return nil, err
	}
	out.Final = d.Snapshot()
	out.Metrics = obs.Values()

	if save {
		_, prof, err := analysis.Analyze(out.Final.G, cfg.Run.BinWidth)
		if err != nil {
			return nil, err
		}
		if err := st.SaveProfile(out.RunID, prof); err != nil {
			return nil, err
		}
		meta.StepsTaken = out.Result.StepsTaken
		meta.DominantBin = prof.DominantBin()
		meta.Metrics = out.Metrics
		if err := st.WriteMetadata(meta); err != nil {
			return nil, err
		}
	}
	return out, nil
}
