// Package tui renders a live meter for a running simulation: the count of
// particles currently on any grid, the simulation clock, and the step
// counter. Progress reporting is a side concern; dropping frames here never
// affects the numerical run.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/fieldtrack/internal/tracker"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ccff"))

	barOnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ff88"))

	barOffStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#444466"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ccff"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666688")).
			Italic(true)
)

// Stats is one progress sample.
type Stats struct {
	Time   float64
	Step   int
	OnGrid int
	Total  int
}

// Meter observes tracker steps and streams samples to the live view. Sends
// never block: when the view lags, samples are dropped.
type Meter struct {
	ch    chan Stats
	total int
}

func NewMeter(totalParticles int) *Meter {
	return &Meter{ch: make(chan Stats, 1), total: totalParticles}
}

func (m *Meter) OnStep(f tracker.Frame) {
	s := Stats{Time: f.Time, Step: f.Step, OnGrid: f.OnGridCount(), Total: m.total}
	select {
	case m.ch <- s:
	default:
	}
}

// Close signals the view that the run finished.
func (m *Meter) Close() { close(m.ch) }

// Run drives the live view while runFn executes in the background, and
// returns runFn's error once both have finished.
func Run(m *Meter, runFn func() error) error {
	errc := make(chan error, 1)
	go func() {
		errc <- runFn()
		m.Close()
	}()

	p := tea.NewProgram(model{meter: m})
	if _, err := p.Run(); err != nil {
		return err
	}
	return <-errc
}

type statsMsg Stats

type doneMsg struct{}

type model struct {
	meter *Meter
	stats Stats
	done  bool
}

func (m model) Init() tea.Cmd {
	return waitForStats(m.meter.ch)
}

func waitForStats(ch chan Stats) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return doneMsg{}
		}
		return statsMsg(s)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statsMsg:
		m.stats = Stats(msg)
		return m, waitForStats(m.meter.ch)
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	}
	return m, nil
}

const barWidth = 40

func (m model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("fieldtrack"))
	sb.WriteString("\n\n")

	filled := 0
	if m.stats.Total > 0 {
		filled = m.stats.OnGrid * barWidth / m.stats.Total
	}
	bar := barOnStyle.Render(strings.Repeat("█", filled)) +
		barOffStyle.Render(strings.Repeat("░", barWidth-filled))

	sb.WriteString(fmt.Sprintf("%s %s %s\n",
		labelStyle.Render("on grid"),
		bar,
		valueStyle.Render(fmt.Sprintf("%d/%d", m.stats.OnGrid, m.stats.Total))))

	sb.WriteString(fmt.Sprintf("%s %s    %s %s\n",
		labelStyle.Render("t ="),
		valueStyle.Render(fmt.Sprintf("%.4g s", m.stats.Time)),
		labelStyle.Render("steps ="),
		valueStyle.Render(fmt.Sprintf("%d", m.stats.Step))))

	if m.done {
		sb.WriteString(hintStyle.Render("\nrun complete\n"))
	} else {
		sb.WriteString(hintStyle.Render("\npress q to detach\n"))
	}
	return sb.String()
}
