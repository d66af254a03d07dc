// ABOUTME: Bubbletea model for the mixer and meter TUI
// ABOUTME: Polls engine status each tick and maps keys to master bus controls
package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Resonate-Protocol/casino-audio/pkg/engine"
	"github.com/Resonate-Protocol/casino-audio/pkg/meter"
	"github.com/Resonate-Protocol/casino-audio/pkg/mixer"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	// volumeStep is the master change per arrow key
	volumeStep = 0.05
	// refresh is the status poll interval
	refresh = 100 * time.Millisecond

	meterFloor = -60.0
	barWidth   = 24
)

// Controls is the part of the engine the TUI changes
type Controls interface {
	SetBusVolume(bus mixer.BusID, gain float32)
	GetBusVolume(bus mixer.BusID) float32
	SetMuted(muted bool)
	Muted() bool
}

// Status is one snapshot of daemon state
type Status struct {
	Name    string
	Addr    string
	Meters  engine.Meters
	Stats   engine.Stats
	Buses   [mixer.NumBuses]float32
	Muted   bool
	Clients []string
}

// StatusFunc produces the current status
type StatusFunc func() Status

// Model represents the TUI state
type Model struct {
	status    Status
	poll      StatusFunc
	controls  Controls
	quitChan  chan struct{}
	startTime time.Time
	quitting  bool

	width  int
	height int
}

type tickMsg time.Time

// StatusMsg replaces the displayed status
type StatusMsg Status

// NewModel creates a model. poll and controls may be nil in tests.
func NewModel(poll StatusFunc, controls Controls, quitChan chan struct{}) Model {
	m := Model{
		poll:      poll,
		controls:  controls,
		quitChan:  quitChan,
		startTime: time.Now(),
	}
	for i := range m.status.Buses {
		m.status.Buses[i] = 1
	}
	m.status.Meters = engine.Meters{
		Momentary:  meter.MinDB,
		ShortTerm:  meter.MinDB,
		Integrated: meter.MinDB,
		TruePeakDB: meter.MinDB,
	}
	if poll != nil {
		m.status = poll()
	}
	return m
}

// Init starts the refresh tick
func (m Model) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		if m.poll != nil {
			m.status = m.poll()
		}
		return m, tickEvery()
	case StatusMsg:
		m.status = Status(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		select {
		case m.quitChan <- struct{}{}:
		default:
		}
		return m, tea.Quit
	case "up":
		m.setMaster(m.status.Buses[mixer.Master] + volumeStep)
	case "down":
		m.setMaster(m.status.Buses[mixer.Master] - volumeStep)
	case "m":
		m.status.Muted = !m.status.Muted
		if m.controls != nil {
			m.controls.SetMuted(m.status.Muted)
		}
	}
	return m, nil
}

func (m *Model) setMaster(v float32) {
	// round to the step grid so repeated presses land on 0 and 1 exactly
	v = float32(math.Round(float64(v)/volumeStep) * volumeStep)
	v = max(0, min(1, v))
	m.status.Buses[mixer.Master] = v
	if m.controls != nil {
		m.controls.SetBusVolume(mixer.Master, v)
	}
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).MarginBottom(1)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	warnStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Shutting down audio engine...\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Casino Audio"))
	b.WriteString("\n\n")

	m.renderInfo(&b)
	b.WriteString("\n")
	m.renderBuses(&b)
	b.WriteString("\n")
	m.renderMeters(&b)
	b.WriteString("\n")
	b.WriteString(faintStyle.Render("↑/↓:Master  m:Mute  q:Quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderInfo(b *strings.Builder) {
	field(b, "Engine:  ", m.status.Name)
	field(b, "Bridge:  ", m.status.Addr)
	field(b, "Uptime:  ", time.Since(m.startTime).Round(time.Second).String())
	field(b, "Voices:  ", fmt.Sprintf("%d pooled, %d spatial, %d steals",
		m.status.Stats.ActiveVoices, m.status.Stats.SpatialSources, m.status.Stats.Steals))

	scenes := "none"
	if len(m.status.Clients) > 0 {
		scenes = strings.Join(m.status.Clients, ", ")
	}
	field(b, "Scenes:  ", scenes)
}

func (m Model) renderBuses(b *strings.Builder) {
	b.WriteString(headerStyle.Render("Buses"))
	if m.status.Muted {
		b.WriteString(" ")
		b.WriteString(warnStyle.Render("MUTED"))
	}
	b.WriteString("\n")
	for i, gain := range m.status.Buses {
		name := mixer.BusID(i).String()
		fmt.Fprintf(b, "  %-8s [%s] %3.0f%%\n", name, renderBar(float64(gain), barWidth), gain*100)
	}
}

func (m Model) renderMeters(b *strings.Builder) {
	mt := m.status.Meters
	b.WriteString(headerStyle.Render("Master"))
	b.WriteString("\n")
	meterRow(b, "M LUFS", mt.Momentary)
	meterRow(b, "S LUFS", mt.ShortTerm)
	meterRow(b, "I LUFS", mt.Integrated)
	meterRow(b, "TP dBTP", mt.TruePeakDB)
	fmt.Fprintf(b, "  %-8s %+.2f\n", "Corr", mt.Correlation)
	fmt.Fprintf(b, "  %-8s %.1f dB\n", "GR", mt.GainReductionDB)

	clips := fmt.Sprintf("%d", m.status.Stats.Clips)
	if m.status.Stats.Clips > 0 {
		clips = warnStyle.Render(clips)
	}
	fmt.Fprintf(b, "  %-8s %s\n", "Clips", clips)
}

func field(b *strings.Builder, label, value string) {
	b.WriteString(headerStyle.Render(label))
	b.WriteString(valueStyle.Render(value))
	b.WriteString("\n")
}

func meterRow(b *strings.Builder, label string, db float64) {
	frac := (db - meterFloor) / -meterFloor
	fmt.Fprintf(b, "  %-8s [%s] %s\n", label, renderBar(frac, barWidth), formatDB(db))
}

// formatDB prints a level, or -inf when the meter has no data
func formatDB(db float64) string {
	if db <= meter.MinDB {
		return "  -inf"
	}
	return fmt.Sprintf("%6.1f", db)
}

// renderBar draws frac of width cells, clamped to [0, 1]
func renderBar(frac float64, width int) string {
	frac = max(0, min(1, frac))
	filled := int(math.Round(frac * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
