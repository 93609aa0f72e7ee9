package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/rdasim/internal/analysis"
	"github.com/san-kum/rdasim/internal/grid"
	"github.com/san-kum/rdasim/internal/sim"
)

const (
	fieldCols      = 64
	fieldRows      = 32
	maxStepsPerTic = 64
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(48)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
)

type TickMsg time.Time

// Model steps a Driver between frames and renders the selected field
// next to its radial power profile.
type Model struct {
	driver   *sim.Driver
	name     string
	binWidth float64

	running      bool
	showR        bool
	color        bool
	stepsPerTick int

	snap    sim.Snapshot
	profile []float64
	peak    int
	err     error
}

func NewModel(d *sim.Driver, name string, binWidth float64) Model {
	m := Model{
		driver:       d,
		name:         name,
		binWidth:     binWidth,
		running:      true,
		color:        true,
		stepsPerTick: 4,
	}
	m.refresh()
	return m
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "tab":
			m.showR = !m.showR
			m.refresh()
		case "c":
			m.color = !m.color
		case "t":
			NextTheme()
		case "+", "=":
			if m.stepsPerTick < maxStepsPerTic {
				m.stepsPerTick *= 2
			}
		case "-", "_":
			if m.stepsPerTick > 1 {
				m.stepsPerTick /= 2
			}
		}
	case TickMsg:
		if m.running && m.err == nil && !m.driver.Done() {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) advance() {
	for k := 0; k < m.stepsPerTick && !m.driver.Done(); k++ {
		if err := m.driver.Advance(); err != nil {
			m.err = err
			m.running = false
			break
		}
	}
	m.refresh()
}

// refresh copies the committed state and recomputes its spectrum.
func (m *Model) refresh() {
	m.snap = m.driver.Snapshot()
	_, prof, err := analysis.Analyze(m.field(), m.binWidth)
	if err != nil {
		m.err = err
		return
	}
	m.peak = prof.DominantBin()
	profile := make([]float64, 0, len(prof.Power))
	for b := 1; b < len(prof.Power); b++ {
		profile = append(profile, math.Log10(prof.Power[b]+1e-12))
	}
	m.profile = profile
}

func (m Model) field() *grid.Field {
	if m.showR {
		return m.snap.R
	}
	return m.snap.G
}

func (m Model) View() string {
	cells := Downsample(m.field(), fieldCols, fieldRows)
	var art string
	if m.color {
		art = RenderColor(cells, CurrentTheme)
	} else {
		art = RenderPlain(cells)
	}
	canvasView := canvasStyle.Render(art)

	header := lipgloss.NewStyle().Foreground(CurrentTheme.Accent).Bold(true).MarginBottom(1)
	status := "RUNNING"
	switch {
	case m.err != nil:
		status = "DIVERGED"
	case m.driver.Done():
		status = "DONE"
	case !m.running:
		status = "PAUSED"
	}

	fieldName := "G (gas)"
	if m.showR {
		fieldName = "R (radiation)"
	}

	var s strings.Builder
	s.WriteString(header.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(status + "\n\n")
	if len(m.profile) > 1 {
		chart := asciigraph.Plot(m.profile, asciigraph.Height(6), asciigraph.Width(36), asciigraph.Caption("log10 |F| vs k"))
		s.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Accent).Padding(1, 0).Render(chart) + "\n\n")
	}
	p := m.driver.Params()
	f := m.field()
	rows := [][2]string{
		{"Field", fieldName},
		{"Step", fmt.Sprintf("%d / %d", m.snap.Step, p.Steps)},
		{"Time", fmt.Sprintf("%.1f", m.snap.Time)},
		{"Mean", fmt.Sprintf("%.5f", f.Mean())},
		{"Range", fmt.Sprintf("[%.4f, %.4f]", f.Min(), f.Max())},
		{"Peak bin", fmt.Sprintf("%d", m.peak)},
		{"Speed", fmt.Sprintf("%d steps/frame", m.stepsPerTick)},
	}
	for _, r := range rows {
		s.WriteString(labelStyle.Render(r[0]) + valueStyle.Render(r[1]) + "\n")
	}
	if m.err != nil {
		s.WriteString("\n" + lipgloss.NewStyle().Foreground(CurrentTheme.Error).Render(m.err.Error()) + "\n")
	}
	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause TAB:Field Q:Quit\nT:Theme  C:Color  +/-:Speed"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}

// RunLive opens the live view until the user quits.
func RunLive(d *sim.Driver, name string, binWidth float64) error {
	_, err := tea.NewProgram(NewModel(d, name, binWidth), tea.WithAltScreen()).Run()
	return err
}
