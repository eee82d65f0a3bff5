// ABOUTME: Bubbletea model for the player TUI
// ABOUTME: Shows filter state and forwards key presses to the controller
package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Sendspin/filterplay/pkg/biquad"
	"github.com/Sendspin/filterplay/pkg/tap"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	// octaveStep is the corner frequency ratio per arrow key press
	octaveStep = 1.0 / 6.0

	gainStep = 0.05
)

// probe frequencies for the attenuation readout
var probes = []float64{1000, 10000}

// Model represents the TUI state
type Model struct {
	// Asset
	assetURL string
	title    string
	artist   string

	// Stream
	codec      string
	sampleRate int
	channels   int

	// Filter
	params     tap.Params
	filterType biquad.Type

	// Remote
	controlAddr string

	// Stats
	stats Stats

	quitting bool
	ctrl     *FilterControl

	// Dimensions
	width  int
	height int
}

// Stats are the render path counters shown at the bottom
type Stats struct {
	Buffers            uint64
	Underruns          uint64
	CoefficientUpdates uint64
	Resets             uint64
	Position           time.Duration
	Queued             int
}

// StatusMsg updates TUI state. Zero fields are left unchanged.
type StatusMsg struct {
	Params      *tap.Params
	AssetURL    string
	Title       string
	Artist      string
	Codec       string
	SampleRate  int
	Channels    int
	ControlAddr string
	Stats       *Stats
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Stopping playback...\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205")).
		MarginBottom(1)

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86"))

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("250"))

	onStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("42"))

	offStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("244"))

	var b strings.Builder

	b.WriteString(titleStyle.Render("filterplay"))
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("Playing: "))
	b.WriteString(valueStyle.Render(m.nowPlaying()))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Format:  "))
	if m.sampleRate > 0 {
		b.WriteString(valueStyle.Render(fmt.Sprintf("%s %dHz %s", m.codec, m.sampleRate, channelName(m.channels))))
	} else {
		b.WriteString(valueStyle.Render("-"))
	}
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("Filter:  "))
	if m.params.Enabled {
		b.WriteString(onStyle.Render("ON"))
	} else {
		b.WriteString(offStyle.Render("off"))
	}
	b.WriteString(valueStyle.Render(fmt.Sprintf("  %s %s", m.filterType, formatHz(m.params.CornerFrequency))))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Gain:    "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("[%s] %.2fx (%s)",
		renderBar(m.params.Gain, tap.MaxGain, 16), m.params.Gain, formatDB(gainDB(m.params.Gain)))))
	b.WriteString("\n")

	for _, line := range m.attenuation() {
		b.WriteString(headerStyle.Render("         "))
		b.WriteString(valueStyle.Render(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.controlAddr != "" {
		b.WriteString(headerStyle.Render("Control: "))
		b.WriteString(valueStyle.Render(m.controlAddr))
		b.WriteString("\n")
	}

	b.WriteString(headerStyle.Render("Stats:   "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("pos %s  buffers %d  queued %d  underruns %d  coeff %d  resets %d",
		m.stats.Position.Round(time.Second), m.stats.Buffers, m.stats.Queued,
		m.stats.Underruns, m.stats.CoefficientUpdates, m.stats.Resets)))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().Faint(true).Render("f:Filter  ←/→:Corner  ↑/↓:Gain  0:Unity  q:Quit"))

	return b.String()
}

func (m Model) nowPlaying() string {
	switch {
	case m.title != "" && m.artist != "":
		return truncate(m.artist+" - "+m.title, 60)
	case m.title != "":
		return truncate(m.title, 60)
	case m.assetURL != "":
		return truncate(m.assetURL, 60)
	default:
		return "Test tone"
	}
}

// attenuation describes the filter's level change at the probe frequencies
func (m Model) attenuation() []string {
	if !m.params.Enabled || m.sampleRate <= 0 {
		return []string{"response: flat (filter bypassed)"}
	}

	rate := float64(m.sampleRate)
	c := biquad.Design(rate, m.params.CornerFrequency, m.filterType)

	var lines []string
	for _, f := range probes {
		if f >= rate/2 {
			continue
		}
		lines = append(lines, fmt.Sprintf("@ %-8s %s", formatHz(f), formatDB(c.MagnitudeDB(f, rate))))
	}
	return lines
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	next := m.params

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		if m.ctrl != nil {
			select {
			case m.ctrl.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case "f":
		next.Enabled = !next.Enabled
	case "right", "l":
		next.CornerFrequency = m.clampCorner(next.CornerFrequency * math.Pow(2, octaveStep))
	case "left", "h":
		next.CornerFrequency = m.clampCorner(next.CornerFrequency / math.Pow(2, octaveStep))
	case "up", "k":
		next.Gain = stepGain(next.Gain, gainStep)
	case "down", "j":
		next.Gain = stepGain(next.Gain, -gainStep)
	case "0":
		next.Gain = tap.UnityGain
	default:
		return m, nil
	}

	if next != m.params {
		m.params = next
		m.emit()
	}
	return m, nil
}

func (m Model) emit() {
	if m.ctrl == nil {
		return
	}
	select {
	case m.ctrl.Changes <- FilterChangeMsg{Params: m.params}:
	default:
	}
}

func (m Model) clampCorner(hz float64) float64 {
	if m.sampleRate <= 0 {
		return math.Max(hz, tap.MinCornerFrequency)
	}
	return biquad.ClampFrequency(hz, float64(m.sampleRate))
}

func stepGain(g, step float64) float64 {
	g = math.Round((g+step)*100) / 100
	return math.Min(math.Max(g, 0), tap.MaxGain)
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Params != nil {
		m.params = *msg.Params
	}
	if msg.AssetURL != "" {
		m.assetURL = msg.AssetURL
	}
	if msg.Title != "" {
		m.title = msg.Title
		m.artist = msg.Artist
	}
	if msg.SampleRate != 0 {
		m.codec = msg.Codec
		m.sampleRate = msg.SampleRate
		m.channels = msg.Channels
	}
	if msg.ControlAddr != "" {
		m.controlAddr = msg.ControlAddr
	}
	if msg.Stats != nil {
		m.stats = *msg.Stats
	}
}

// Utility functions
func renderBar(value, limit float64, width int) string {
	filled := int(math.Round(value / limit * float64(width)))
	filled = min(max(filled, 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func gainDB(g float64) float64 {
	return 20 * math.Log10(g)
}

func formatDB(db float64) string {
	if math.IsInf(db, -1) || db < -120 {
		return "-inf dB"
	}
	return fmt.Sprintf("%+.1f dB", db)
}

func formatHz(hz float64) string {
	if hz >= 1000 {
		return fmt.Sprintf("%.2fkHz", hz/1000)
	}
	return fmt.Sprintf("%.0fHz", hz)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	switch channels {
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	default:
		return fmt.Sprintf("%dch", channels)
	}
}
