// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
)

// rmsCorrection lifts a sine's RMS to its peak level (+3.01 dB).
var rmsCorrection = 20 * math.Log10(math.Sqrt2)

// GaugeValue is the level state of one metered channel. Peak and RMS are in
// dBFS; the Render fields are the same levels mapped to [0, 1].
type GaugeValue struct {
	Name string `json:"name"`

	Peak          float64 `json:"peak"`
	PeakRender    float64 `json:"peak_render"`
	MaxPeakRender float64 `json:"max_peak_render"`

	RMS       float64 `json:"rms"`
	RMSRender float64 `json:"rms_render"`
	RMSTotal  float64 `json:"-"`

	HoldTime   float64 `json:"-"`
	DecaySpeed float64 `json:"-"`
	Opacity    float64 `json:"opacity"`
}

// Speaker positions in interleaved WAVE channel order.
var speakerNames = []string{
	"FL", "FR", "FC", "LFE", "BL", "BR", "FLC", "FRC", "BC",
	"SL", "SR", "TC", "TFL", "TFC", "TFR", "TBL", "TBC", "TBR",
}

func channelName(ch, channelCount int) string {
	if channelCount == 1 {
		return "M"
	}
	if ch < len(speakerNames) {
		return speakerNames[ch]
	}
	return fmt.Sprintf("CH%d", ch+1)
}

// activeChannels returns the channels of a channelCount-wide stream that
// mask selects.
func activeChannels(channelCount int, mask uint32) uint32 {
	if channelCount < 32 {
		mask &= 1<<uint(channelCount) - 1
	}
	return mask
}

// LevelMeter tracks per-channel peak and windowed RMS levels plus stereo
// balance and mid/side phase estimates.
type LevelMeter struct {
	sampleRate float64
	channels   int
	mask       uint32

	gauges   []GaugeValue
	channel  []int // interleaved index of each gauge
	peakLin  []float64
	frames   int // frames in the current RMS window
	window   int // frames per RMS window
	stereo   bool
	l, r     float64 // Σ squares over the window
	mid, sid float64

	balance float64 // smoothed, 0.5 is centred
	phase   float64 // smoothed, 0.5 is mono-neutral
}

// NewLevelMeter creates one gauge per channel selected by mask.
func NewLevelMeter(sampleRate, channelCount int, mask uint32, cfg Config) *LevelMeter {
	mask = activeChannels(channelCount, mask)
	m := &LevelMeter{
		sampleRate: float64(sampleRate),
		channels:   channelCount,
		mask:       mask,
		balance:    0.5,
		phase:      0.5,
	}
	for ch := range min(channelCount, 32) {
		if mask&(1<<uint(ch)) == 0 {
			continue
		}
		m.gauges = append(m.gauges, GaugeValue{
			Name:    channelName(ch, channelCount),
			Peak:    math.Inf(-1),
			RMS:     math.Inf(-1),
			Opacity: 1,
		})
		m.channel = append(m.channel, ch)
	}
	m.peakLin = make([]float64, len(m.gauges))
	m.stereo = channelCount >= 2 && mask&3 == 3
	m.setWindow(cfg)
	return m
}

func (m *LevelMeter) setWindow(cfg Config) {
	m.window = max(1, int(math.Round(cfg.RMSWindow*m.sampleRate)))
}

func (m *LevelMeter) Mask() uint32         { return m.mask }
func (m *LevelMeter) Gauges() []GaugeValue { return m.gauges }
func (m *LevelMeter) Balance() float64     { return m.balance }
func (m *LevelMeter) Phase() float64       { return m.phase }
func (m *LevelMeter) WindowFrames() int    { return m.window }

// Process meters one chunk of interleaved samples. Peaks cover only this
// chunk; RMS is published each time a full window has accumulated.
func (m *LevelMeter) Process(samples []float64, cfg Config) {
	m.setWindow(cfg)
	clear(m.peakLin)

	for frame := 0; frame+m.channels <= len(samples); frame += m.channels {
		f := samples[frame : frame+m.channels]
		for i, ch := range m.channel {
			v := finite(f[ch])
			if a := math.Abs(v); a > m.peakLin[i] {
				m.peakLin[i] = a
			}
			m.gauges[i].RMSTotal += v * v
		}
		if m.stereo {
			l, r := finite(f[0]), finite(f[1])
			mid, side := (l+r)/2, (l-r)/2
			m.l += l * l
			m.r += r * r
			m.mid += mid * mid
			m.sid += side * side
		}

		m.frames++
		if m.frames >= m.window {
			m.closeWindow(cfg)
		}
	}

	for i := range m.gauges {
		g := &m.gauges[i]
		g.Peak = 20 * math.Log10(m.peakLin[i])
		g.PeakRender = decibelRender(g.Peak, cfg)
	}
}

func (m *LevelMeter) closeWindow(cfg Config) {
	n := float64(m.frames)
	for i := range m.gauges {
		g := &m.gauges[i]
		g.RMS = 20 * math.Log10(math.Sqrt(g.RMSTotal/n))
		if cfg.RMSPlus3 {
			g.RMS += rmsCorrection
		}
		g.RMSRender = decibelRender(g.RMS, cfg)
		g.RMSTotal = 0
	}

	if m.stereo {
		l, r := math.Sqrt(m.l/n), math.Sqrt(m.r/n)
		mid, side := math.Sqrt(m.mid/n), math.Sqrt(m.sid/n)
		m.balance = smoothToward(m.balance, 0.5+ratio(r-l, math.Max(l, r))/2, cfg.SmoothingFactor)
		m.phase = smoothToward(m.phase, 0.5+ratio(mid-side, math.Max(mid, side))/2, cfg.SmoothingFactor)
		m.l, m.r, m.mid, m.sid = 0, 0, 0, 0
	}
	m.frames = 0
}

func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

func smoothToward(cur, target, factor float64) float64 {
	return clamp(cur*factor+target*(1-factor), 0, 1)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
