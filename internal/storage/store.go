package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/rdasim/internal/analysis"
	"github.com/san-kum/rdasim/internal/grid"
	"github.com/san-kum/rdasim/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID            string             `json:"id"`
	Preset        string             `json:"preset"`
	Timestamp     time.Time          `json:"timestamp"`
	Seed          int64              `json:"seed"`
	Width         int                `json:"width"`
	Height        int                `json:"height"`
	Spacing       float64            `json:"spacing"`
	Dt            float64            `json:"dt"`
	Steps         int                `json:"steps"`
	SnapshotEvery int                `json:"snapshot_every"`
	Rotation      string             `json:"rotation"`
	Params        map[string]float64 `json:"params"`
	StepsTaken    int                `json:"steps_taken"`
	Snapshots     []int              `json:"snapshots"`
	DominantBin   int                `json:"dominant_bin"`
	Metrics       map[string]float64 `json:"metrics,omitempty"`
	Error         string             `json:"error,omitempty"`
}

// NewMetadata fills the static part of a run record from its parameters.
func NewMetadata(preset string, p sim.Params) RunMetadata {
	rot := "none"
	if p.Rotation != nil {
		rot = p.Rotation.Profile
	}
	return RunMetadata{
		Preset:        preset,
		Timestamp:     time.Now(),
		Seed:          p.Init.Seed,
		Width:         p.Grid.W,
		Height:        p.Grid.H,
		Spacing:       p.Grid.Spacing,
		Dt:            p.Dt,
		Steps:         p.Steps,
		SnapshotEvery: p.SnapshotEvery,
		Rotation:      rot,
		Params:        p.Model.GetParams(),
	}
}

// Create allocates a run directory and writes its metadata.
func (s *Store) Create(meta RunMetadata) (string, error) {
	name := meta.Preset
	if name == "" {
		name = "run"
	}
	meta.ID = fmt.Sprintf("%s_%d", name, time.Now().UnixNano())
	if err := os.MkdirAll(s.runDir(meta.ID), 0755); err != nil {
		return "", err
	}
	if err := s.WriteMetadata(meta); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func (s *Store) WriteMetadata(meta RunMetadata) (err error) {
	f, err := os.Create(filepath.Join(s.runDir(meta.ID), "metadata.json"))
	if err != nil {
		return err
	}
	defer closeFile(f, &err)

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// closeFile closes a written file and reports its error unless an
// earlier one is already set.
func closeFile(c io.Closer, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}

func (s *Store) runDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

func snapshotFile(field string, step int) string {
	return fmt.Sprintf("%s_%06d.csv", field, step)
}

// SaveSnapshot writes both fields of s as CSV matrices, one row per grid row.
func (s *Store) SaveSnapshot(runID string, snap sim.Snapshot) error {
	for name, f := range map[string]*grid.Field{"g": snap.G, "r": snap.R} {
		if err := writeField(filepath.Join(s.runDir(runID), snapshotFile(name, snap.Step)), f); err != nil {
			return err
		}
	}
	return nil
}

func writeField(path string, f *grid.Field) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeFile(file, &err)

	w := csv.NewWriter(file)
	g := f.Grid()
	record := make([]string, g.W)
	for j := 0; j < g.H; j++ {
		for i, v := range f.Row(j) {
			record[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func readField(path string, spacing float64) (*grid.Field, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	rows := make([][]float64, len(records))
	for j, rec := range records {
		rows[j] = make([]float64, len(rec))
		for i, cell := range rec {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d col %d: %w", filepath.Base(path), j, i, err)
			}
			rows[j][i] = v
		}
	}
	return grid.FromRows(spacing, rows)
}

// LoadSnapshot reads the snapshot taken after step of a stored run.
func (s *Store) LoadSnapshot(runID string, step int) (sim.Snapshot, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return sim.Snapshot{}, err
	}
	dir := s.runDir(runID)
	g, err := readField(filepath.Join(dir, snapshotFile("g", step)), meta.Spacing)
	if err != nil {
		return sim.Snapshot{}, err
	}
	r, err := readField(filepath.Join(dir, snapshotFile("r", step)), meta.Spacing)
	if err != nil {
		return sim.Snapshot{}, err
	}
	return sim.Snapshot{Step: step, Time: float64(step) * meta.Dt, G: g, R: r}, nil
}

// SnapshotSteps lists stored snapshot steps in increasing order.
func (s *Store) SnapshotSteps(runID string) ([]int, error) {
	matches, err := filepath.Glob(filepath.Join(s.runDir(runID), "g_*.csv"))
	if err != nil {
		return nil, err
	}
	steps := make([]int, 0, len(matches))
	for _, m := range matches {
		base := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), "g_"), ".csv")
		step, err := strconv.Atoi(base)
		if err != nil {
			continue
		}
		steps = append(steps, step)
	}
	sort.Ints(steps)
	return steps, nil
}

// SaveProfile writes a radial profile as bin,k,power,count rows.
func (s *Store) SaveProfile(runID string, p *analysis.RadialProfile) (err error) {
	file, err := os.Create(filepath.Join(s.runDir(runID), "profile.csv"))
	if err != nil {
		return err
	}
	defer closeFile(file, &err)

	w := csv.NewWriter(file)
	if err := w.Write([]string{"bin", "k", "power", "count"}); err != nil {
		return err
	}
	for b := range p.Power {
		row := []string{
			strconv.Itoa(b),
			strconv.FormatFloat(p.Wavenumber(b), 'f', 6, 64),
			strconv.FormatFloat(p.Power[b], 'g', -1, 64),
			strconv.Itoa(p.Count[b]),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.runDir(runID), "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}
