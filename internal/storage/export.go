package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/rdasim/internal/analysis"
	"github.com/san-kum/rdasim/internal/sim"
)

type ExportData struct {
	Step     int         `json:"step"`
	Time     float64     `json:"time"`
	Width    int         `json:"width"`
	Height   int         `json:"height"`
	Spacing  float64     `json:"spacing"`
	G        [][]float64 `json:"g"`
	R        [][]float64 `json:"r"`
	Spectrum [][]float64 `json:"spectrum"`
	Profile  []float64   `json:"profile"`
	BinWidth float64     `json:"bin_width"`
}

func exportData(snap sim.Snapshot, binWidth float64) (*ExportData, error) {
	ps, prof, err := analysis.Analyze(snap.G, binWidth)
	if err != nil {
		return nil, err
	}
	g := snap.G.Grid()
	return &ExportData{
		Step:     snap.Step,
		Time:     snap.Time,
		Width:    g.W,
		Height:   g.H,
		Spacing:  g.Spacing,
		G:        snap.G.Rows(),
		R:        snap.R.Rows(),
		Spectrum: ps.Shifted(),
		Profile:  prof.Power,
		BinWidth: binWidth,
	}, nil
}

// ExportJSON writes a snapshot with the spectrum of G to path.
func ExportJSON(path string, snap sim.Snapshot, binWidth float64) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeFile(file, &err)
	return EncodeJSON(file, snap, binWidth)
}

func EncodeJSON(w io.Writer, snap sim.Snapshot, binWidth float64) error {
	data, err := exportData(snap, binWidth)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
