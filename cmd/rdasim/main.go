package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/rdasim/internal/analysis"
	"github.com/san-kum/rdasim/internal/automation"
	"github.com/san-kum/rdasim/internal/config"
	"github.com/san-kum/rdasim/internal/dynamo"
	"github.com/san-kum/rdasim/internal/export"
	"github.com/san-kum/rdasim/internal/metrics"
	"github.com/san-kum/rdasim/internal/optim"
	"github.com/san-kum/rdasim/internal/sim"
	"github.com/san-kum/rdasim/internal/storage"
	"github.com/san-kum/rdasim/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	size       int
	dt         float64
	steps      int
	every      int
	seed       int64
	omega      float64
	profile    string
	backtrack  string
	noRotation bool
	binWidth   float64
	// ensemble
	numRuns int
	// sweep
	sweepParams []string
	metricName  string
	maximize    bool
	// export
	format  string
	step    int
	outPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "rdasim",
		Short:        "rotating reaction-diffusion-advection lab",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".rdasim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run simulation and store snapshots",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "radial power spectrum of a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&step, "step", -1, "snapshot step (default: last)")
	analyzeCmd.Flags().Float64Var(&binWidth, "bin-width", analysis.DefaultBinWidth, "radial bin width")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run simulation with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run consecutive seeds concurrently and compare peaks",
		Args:  cobra.NoArgs,
		RunE:  runEnsemble,
	}
	addSimFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&numRuns, "runs", 4, "number of members")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search over reaction coefficients",
		Long:  "grid search over reaction coefficients, e.g. --param phi=0.02:0.06:5 --param kappa=0.06",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "name=lo:hi:n or name=value (repeatable)")
	sweepCmd.Flags().StringVar(&metricName, "metric", "contrast", "score metric (contrast, wavelength, bounded)")
	sweepCmd.Flags().BoolVar(&maximize, "maximize", false, "prefer the largest score")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run a scripted sequence of simulations",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tGRID\tSTEPS\tROTATION")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				rot := "none"
				if cfg.Rotation.Enabled {
					rot = fmt.Sprintf("%s omega=%g", cfg.Rotation.Profile, cfg.Rotation.Omega)
				}
				fmt.Fprintf(w, "%s\t%dx%d\t%d\t%s\n", name, cfg.Grid.Width, cfg.Grid.Height, cfg.Run.Steps, rot)
			}
			return w.Flush()
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a snapshot as json, png or svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&format, "format", "json", "json, png or svg")
	exportCmd.Flags().IntVar(&step, "step", -1, "snapshot step (default: last)")
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (json defaults to stdout)")
	exportCmd.Flags().Float64Var(&binWidth, "bin-width", analysis.DefaultBinWidth, "radial bin width")

	configCmd := &cobra.Command{
		Use:   "config [preset]",
		Short: "print a preset as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "labyrinth"
			if len(args) > 0 {
				name = args[0]
			}
			cfg := config.GetPreset(name)
			if cfg == nil {
				return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, analyzeCmd, liveCmd, ensembleCmd, sweepCmd, batchCmd, presetsCmd, exportCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(c *cobra.Command) {
	c.Flags().StringVar(&preset, "preset", "labyrinth", "preset configuration")
	c.Flags().StringVar(&configFile, "config", "", "config file path (yaml, overrides preset)")
	c.Flags().IntVar(&size, "size", config.DefaultSize, "grid width and height")
	c.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	c.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	c.Flags().IntVar(&every, "every", config.DefaultSnapshotEvery, "snapshot interval")
	c.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "noise seed")
	c.Flags().Float64Var(&omega, "omega", config.DefaultOmega, "rotation rate")
	c.Flags().StringVar(&profile, "profile", "", "rotation profile (uniform, inverse, keplerian)")
	c.Flags().StringVar(&backtrack, "backtrack", "", "departure point scheme (euler, midpoint)")
	c.Flags().BoolVar(&noRotation, "no-rotation", false, "disable advection")
	c.Flags().Float64Var(&binWidth, "bin-width", analysis.DefaultBinWidth, "radial bin width")
}

// resolveConfig layers preset, config file and explicitly set flags.
func resolveConfig(cmd *cobra.Command) (*config.Config, string, error) {
	name := preset
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	}

	flags := cmd.Flags()
	if flags.Changed("size") {
		cfg.Grid.Width, cfg.Grid.Height = size, size
	}
	if flags.Changed("dt") {
		cfg.Run.Dt = dt
	}
	if flags.Changed("steps") {
		cfg.Run.Steps = steps
	}
	if flags.Changed("every") {
		cfg.Run.SnapshotEvery = every
	}
	if flags.Changed("seed") || cfg.Init.Seed == 0 {
		cfg.Init.Seed = seed
	}
	if flags.Changed("omega") {
		cfg.Rotation.Omega = omega
	}
	if flags.Changed("profile") {
		cfg.Rotation.Profile = profile
	}
	if flags.Changed("backtrack") {
		cfg.Rotation.Backtrack = backtrack
	}
	if noRotation {
		cfg.Rotation.Enabled = false
	}
	if flags.Changed("bin-width") || cfg.Run.BinWidth == 0 {
		cfg.Run.BinWidth = binWidth
	}
	return cfg, name, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	p, err := cfg.Params()
	if err != nil {
		return err
	}
	d, err := sim.New(p)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	meta := storage.NewMetadata(name, p)
	runID, err := st.Create(meta)
	if err != nil {
		return err
	}
	meta.ID = runID

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s on %dx%d for %d steps (dt=%g, max stable dt=%g)...\n",
		name, p.Grid.W, p.Grid.H, p.Steps, p.Dt, p.MaxStableDt())
	start := time.Now()

	var last sim.Snapshot
	obs := metrics.NewObserver(func(s sim.Snapshot) error {
		last = s
		meta.Snapshots = append(meta.Snapshots, s.Step)
		return st.SaveSnapshot(runID, s)
	}, metrics.Defaults(cfg.Run.BinWidth)...)
	result, runErr := d.Run(ctx, obs.Observe)
	elapsed := time.Since(start)
	meta.Metrics = obs.Values()

	if result != nil {
		meta.StepsTaken = result.StepsTaken
	}
	if runErr != nil {
		meta.Error = runErr.Error()
	}

	if last.G != nil {
		_, prof, err := analysis.Analyze(last.G, cfg.Run.BinWidth)
		if err != nil {
			return err
		}
		meta.DominantBin = prof.DominantBin()
		if err := st.SaveProfile(runID, prof); err != nil {
			return err
		}
		if err := saveHeatmaps(filepath.Join(dataDir, runID), last); err != nil {
			return err
		}
	}
	if err := st.WriteMetadata(meta); err != nil {
		return err
	}

	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("elapsed: %v\n", elapsed)
	if result != nil {
		fmt.Printf("steps: %d\n", result.StepsTaken)
		fmt.Printf("snapshots: %d\n", result.Snapshots)
		fmt.Printf("mean G: %.6f\n", result.MeanG)
		fmt.Printf("mean R: %.6f\n", result.MeanR)
	}
	if last.G != nil {
		fmt.Printf("dominant bin: %d\n", meta.DominantBin)
		fmt.Println("\nmetrics:")
		for _, name := range sortedKeys(meta.Metrics) {
			fmt.Printf("  %s: %.6f\n", name, meta.Metrics[name])
		}
	}

	switch {
	case runErr == nil:
		return nil
	case errors.Is(runErr, context.Canceled):
		fmt.Println("interrupted; stored snapshots up to the last committed step")
		return nil
	case errors.Is(runErr, dynamo.ErrDiverged):
		return fmt.Errorf("simulation diverged: %w", runErr)
	default:
		return runErr
	}
}

func saveHeatmaps(dir string, s sim.Snapshot) error {
	gp, err := export.FieldPlot(s.G, fmt.Sprintf("G at step %d", s.Step))
	if err != nil {
		return err
	}
	if err := export.SavePlot(gp, filepath.Join(dir, "g.png")); err != nil {
		return err
	}
	rp, err := export.FieldPlot(s.R, fmt.Sprintf("R at step %d", s.Step))
	if err != nil {
		return err
	}
	return export.SavePlot(rp, filepath.Join(dir, "r.png"))
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tGRID\tSTEPS\tROTATION\tPEAK\tSTATUS")

	for _, run := range runs {
		status := "ok"
		if run.Error != "" {
			status = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%dx%d\t%d/%d\t%s\t%d\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Width, run.Height,
			run.StepsTaken, run.Steps,
			run.Rotation,
			run.DominantBin,
			status,
		)
	}

	return w.Flush()
}

// loadSnapshot picks the requested step, or the last stored one when step < 0.
func loadSnapshot(st *storage.Store, runID string, step int) (sim.Snapshot, error) {
	if step < 0 {
		stored, err := st.SnapshotSteps(runID)
		if err != nil {
			return sim.Snapshot{}, err
		}
		if len(stored) == 0 {
			return sim.Snapshot{}, fmt.Errorf("run %s has no snapshots", runID)
		}
		step = stored[len(stored)-1]
	}
	return st.LoadSnapshot(runID, step)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	snap, err := loadSnapshot(st, runID, step)
	if err != nil {
		return err
	}

	_, prof, err := analysis.Analyze(snap.G, binWidth)
	if err != nil {
		return err
	}

	fmt.Printf("spectral analysis: %s\n", meta.ID)
	fmt.Printf("step: %d (t=%.2f)\n\n", snap.Step, snap.Time)

	data := make([]float64, 0, len(prof.Power))
	for b := 1; b < len(prof.Power); b++ {
		data = append(data, math.Log10(prof.Power[b]+1e-12))
	}
	if len(data) > 1 {
		graph := asciigraph.Plot(data,
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption("log10 radial power of G"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	peak := prof.DominantBin()
	if peak <= 0 || snap.G.Min() == snap.G.Max() {
		fmt.Println("no dominant wavenumber (field is uniform)")
		return nil
	}
	k := prof.Wavenumber(peak)
	fmt.Printf("dominant bin: %d\n", peak)
	fmt.Printf("wavenumber: %.4f rad/length\n", k)
	fmt.Printf("wavelength: %.3f\n", 2*math.Pi/k)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	p, err := cfg.Params()
	if err != nil {
		return err
	}
	d, err := sim.New(p)
	if err != nil {
		return err
	}
	return viz.RunLive(d, name, cfg.Run.BinWidth)
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	p, err := cfg.Params()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %d members of %s from seed %d...\n", numRuns, name, p.Init.Seed)
	start := time.Now()
	finals, err := sim.NewEnsemble(p, numRuns, p.Init.Seed).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("elapsed: %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tMEAN G\tMEAN R\tPEAK\tWAVELENGTH")
	for i, s := range finals {
		_, prof, err := analysis.Analyze(s.G, cfg.Run.BinWidth)
		if err != nil {
			return err
		}
		peak := prof.DominantBin()
		wavelength := "-"
		if peak > 0 {
			wavelength = fmt.Sprintf("%.3f", 2*math.Pi/prof.Wavenumber(peak))
		}
		fmt.Fprintf(w, "%d\t%.6f\t%.6f\t%d\t%s\n", p.Init.Seed+int64(i), s.G.Mean(), s.R.Mean(), peak, wavelength)
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	if len(sweepParams) == 0 {
		return fmt.Errorf("at least one --param is required")
	}
	cfg, name, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	base, err := cfg.Params()
	if err != nil {
		return err
	}

	var names []string
	var ranges [][]float64
	for _, arg := range sweepParams {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("bad --param %q: expected name=range", arg)
		}
		vals, err := optim.ParseRange(value)
		if err != nil {
			return err
		}
		names = append(names, key)
		ranges = append(ranges, vals)
	}

	if _, err := metrics.ByName(metricName, cfg.Run.BinWidth); err != nil {
		return err
	}
	newMetric := func() metrics.Metric {
		m, _ := metrics.ByName(metricName, cfg.Run.BinWidth)
		return m
	}

	gs := optim.NewGridSearch(names, ranges)
	if maximize {
		gs.Maximize()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("sweeping %v on %s...\n", names, name)
	best, all, err := gs.Search(ctx, base, newMetric)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(metricName))
	for _, p := range all {
		cells := make([]string, len(names))
		for i, n := range names {
			cells[i] = strconv.FormatFloat(p.Params[n], 'g', 6, 64)
		}
		score := fmt.Sprintf("%.6f", p.Score)
		if p.Err != nil {
			score = "rejected: " + p.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\n", strings.Join(cells, "\t"), score)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nbest %s=%.6f at", metricName, best.Score)
	for _, n := range names {
		fmt.Printf(" %s=%g", n, best.Params[n])
	}
	fmt.Println()
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if sc.Description != "" {
		fmt.Println(sc.Description)
	}
	results, runErr := automation.RunScenario(ctx, sc, storage.New(dataDir), os.Stdout)

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRUN ID\tSTEPS\tMEAN G\tCONTRAST\tWAVELENGTH")
	for _, r := range results {
		id := r.RunID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.6f\t%.6f\t%.3f\n",
			r.Name, id, r.Result.StepsTaken, r.Result.MeanG, r.Metrics["contrast"], r.Metrics["wavelength"])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	snap, err := loadSnapshot(st, runID, step)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		if outPath == "" {
			return storage.EncodeJSON(os.Stdout, snap, binWidth)
		}
		return storage.ExportJSON(outPath, snap, binWidth)
	case "png":
		if outPath == "" {
			outPath = fmt.Sprintf("%s_g_%06d.png", runID, snap.Step)
		}
		p, err := export.FieldPlot(snap.G, fmt.Sprintf("G at step %d", snap.Step))
		if err != nil {
			return err
		}
		return export.SavePlot(p, outPath)
	case "svg":
		_, prof, err := analysis.Analyze(snap.G, binWidth)
		if err != nil {
			return err
		}
		svg := export.ProfileToSVG(prof, 800, 400, "#fc8961")
		if outPath == "" {
			_, err = fmt.Print(svg)
			return err
		}
		return os.WriteFile(outPath, []byte(svg), 0644)
	default:
		return fmt.Errorf("unknown format: %s (json, png, svg)", format)
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
