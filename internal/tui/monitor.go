// SPDX-License-Identifier: MIT
package tui

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/harmonica"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"spectrum/internal/analysis"
)

var (
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#25A065"))
	peakStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F25D94"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFDF5")).Width(4)
)

var monitorKeys = struct {
	quit, visualization, transform, peaks key.Binding
}{
	quit:          key.NewBinding(key.WithKeys("q", "ctrl+c")),
	visualization: key.NewBinding(key.WithKeys("v")),
	transform:     key.NewBinding(key.WithKeys("t")),
	peaks:         key.NewBinding(key.WithKeys("p")),
}

const (
	visualizationCount = int(analysis.VisualizationOscilloscope) + 1
	transformCount     = int(analysis.TransformAnalogStyle) + 1
	peakModeCount      = int(analysis.PeakFadingAIMP) + 1

	defaultWidth  = 80
	defaultHeight = 24
)

type frameMsg analysis.Frame

type streamClosedMsg struct{}

// MonitorModel renders the frames of a running engine.
type MonitorModel struct {
	frames      <-chan analysis.Frame
	reconfigure func(analysis.Config)
	cfg         analysis.Config

	frame  analysis.Frame
	seen   bool

	// Balance and phase markers glide towards each frame's value.
	spring harmonica.Spring
	marker [2]float64
	vel    [2]float64

	closed bool
	width  int
	height int
}

// NewMonitorModel reads frames until the channel closes. reconfigure, if
// non-nil, receives the configuration after every key-driven change.
func NewMonitorModel(frames <-chan analysis.Frame, cfg analysis.Config, reconfigure func(analysis.Config)) MonitorModel {
	return MonitorModel{
		frames:      frames,
		reconfigure: reconfigure,
		cfg:         cfg,
		spring:      harmonica.NewSpring(harmonica.FPS(60), 8.0, 0.8),
		marker:      [2]float64{0.5, 0.5},
		width:       defaultWidth,
		height:      defaultHeight,
	}
}

// Config returns the configuration as changed by the user.
func (m MonitorModel) Config() analysis.Config { return m.cfg }

// Closed reports whether the frame stream has ended.
func (m MonitorModel) Closed() bool { return m.closed }

func (m MonitorModel) Init() tea.Cmd {
	return waitForFrame(m.frames)
}

func waitForFrame(frames <-chan analysis.Frame) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-frames
		if !ok {
			return streamClosedMsg{}
		}
		return frameMsg(f)
	}
}

func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case frameMsg:
		m.frame = analysis.Frame(msg)
		m.seen = true
		for i, target := range [2]float64{m.frame.Balance, m.frame.Phase} {
			m.marker[i], m.vel[i] = m.spring.Update(m.marker[i], m.vel[i], target)
		}
		return m, waitForFrame(m.frames)

	case streamClosedMsg:
		m.closed = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, monitorKeys.quit):
			return m, tea.Quit
		case key.Matches(msg, monitorKeys.visualization):
			m.cfg.Visualization = analysis.Visualization((int(m.cfg.Visualization) + 1) % visualizationCount)
			m.apply()
		case key.Matches(msg, monitorKeys.transform):
			m.cfg.Transform = analysis.Transform((int(m.cfg.Transform) + 1) % transformCount)
			m.apply()
		case key.Matches(msg, monitorKeys.peaks):
			m.cfg.PeakMode = analysis.PeakMode((int(m.cfg.PeakMode) + 1) % peakModeCount)
			m.apply()
		}
	}
	return m, nil
}

func (m *MonitorModel) apply() {
	if m.reconfigure != nil {
		m.reconfigure(m.cfg)
	}
}

func (m MonitorModel) View() string {
	title := titleStyle.Render(fmt.Sprintf("%s · %s · peaks %s", m.cfg.Visualization, m.cfg.Transform, m.cfg.PeakMode))
	help := infoStyle.Render("v: Visualization • t: Transform • p: Peaks • q: Quit")

	var body string
	switch {
	case !m.seen:
		body = dimStyle.Render("Waiting for audio...")
	case len(m.frame.Bands) > 0:
		body = renderSpectrum(m.frame.Bands, m.width, m.bodyHeight())
	case len(m.frame.Gauges) > 0:
		body = renderGauges(m.frame, m.marker, m.width)
	case len(m.frame.Scope) > 0:
		body = renderScope(m.frame.Scope, m.width, m.bodyHeight())
	default:
		body = dimStyle.Render("No data")
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m MonitorModel) bodyHeight() int {
	return max(4, m.height-6)
}

// renderSpectrum draws one column per band, resampled to the terminal width.
// The held peak is drawn as a marker above the bar.
func renderSpectrum(bands []analysis.FrequencyBand, width, height int) string {
	cols := min(len(bands), max(1, width))
	rows := make([][]byte, height)
	for r := range rows {
		rows[r] = []byte(strings.Repeat(" ", cols))
	}

	for c := range cols {
		lo := c * len(bands) / cols
		hi := max(lo+1, (c+1)*len(bands)/cols)
		cur, peak := 0.0, 0.0
		for _, b := range bands[lo:hi] {
			cur = max(cur, b.CurValue)
			if b.Opacity > 0 {
				peak = max(peak, b.MaxValue)
			}
		}
		level := scaleRows(cur, height)
		for r := range level {
			rows[height-1-r][c] = '#'
		}
		if p := scaleRows(peak, height); p > 0 && p > level {
			rows[height-p][c] = '-'
		}
	}

	lines := make([]string, height)
	for r, row := range rows {
		lines[r] = renderCells(row)
	}
	return strings.Join(lines, "\n")
}

// renderCells styles runs of identical cells together.
func renderCells(row []byte) string {
	var sb strings.Builder
	for start := 0; start < len(row); {
		end := start
		for end < len(row) && row[end] == row[start] {
			end++
		}
		n := end - start
		switch row[start] {
		case '#':
			sb.WriteString(barStyle.Render(strings.Repeat("█", n)))
		case '-':
			sb.WriteString(peakStyle.Render(strings.Repeat("▔", n)))
		default:
			sb.WriteString(strings.Repeat(" ", n))
		}
		start = end
	}
	return sb.String()
}

// renderGauges draws a horizontal meter per channel plus the balance and
// phase markers.
func renderGauges(frame analysis.Frame, marker [2]float64, width int) string {
	barWidth := max(8, width-24)
	var sb strings.Builder
	for _, g := range frame.Gauges {
		filled := scaleRows(g.PeakRender, barWidth)
		held := scaleRows(g.MaxPeakRender, barWidth)
		bar := []rune(strings.Repeat("█", filled) + strings.Repeat(" ", barWidth-filled))
		if held > filled && g.Opacity > 0 {
			bar[held-1] = '▏'
		}
		fmt.Fprintf(&sb, "%s %s %s\n",
			labelStyle.Render(g.Name),
			barStyle.Render(string(bar)),
			dimStyle.Render(fmt.Sprintf("%6.1f dB", g.Peak)))
	}
	fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render("BAL"), renderCentered(marker[0], barWidth))
	fmt.Fprintf(&sb, "%s %s", labelStyle.Render("PHS"), renderCentered(marker[1], barWidth))
	return sb.String()
}

// renderCentered marks a value in [0, 1] on a track with its midpoint at 0.5.
func renderCentered(v float64, width int) string {
	track := []rune(strings.Repeat("─", width))
	track[width/2] = '┼'
	pos := min(width-1, scaleRows(v, width-1))
	track[pos] = '●'
	return string(track)
}

// renderScope plots the most recent samples, one column per bucket.
func renderScope(samples []float64, width, height int) string {
	cols := min(len(samples), max(1, width))
	rows := make([][]rune, height)
	for r := range rows {
		rows[r] = []rune(strings.Repeat(" ", cols))
	}
	for c := range cols {
		s := samples[c*len(samples)/cols]
		r := scaleRows((1-clamp(s, -1, 1))/2, height-1)
		rows[r][c] = '•'
	}
	lines := make([]string, height)
	for r, row := range rows {
		lines[r] = barStyle.Render(string(row))
	}
	return strings.Join(lines, "\n")
}

// scaleRows maps v in [0, 1] to a cell count in [0, n].
func scaleRows(v float64, n int) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round(clamp(v, 0, 1) * float64(n)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// StartMonitorUI runs the monitor until the user quits, the stream ends or
// ctx is cancelled.
func StartMonitorUI(ctx context.Context, frames <-chan analysis.Frame, cfg analysis.Config, reconfigure func(analysis.Config)) error {
	p := tea.NewProgram(NewMonitorModel(frames, cfg, reconfigure), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}
