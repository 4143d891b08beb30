// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"time"

	applog "spectrum/internal/log"
)

// floorDB replaces -Inf levels in frames so they survive JSON encoding.
const floorDB = -120.0

// Frame is a snapshot of everything a renderer or transport needs for one
// tick.
type Frame struct {
	Seq           uint32          `json:"seq"`
	Timestamp     int64           `json:"ts"`
	Visualization Visualization   `json:"visualization"`
	SampleRate    int             `json:"sample_rate"`
	Bands         []FrequencyBand `json:"bands,omitempty"`
	Gauges        []GaugeValue    `json:"gauges,omitempty"`
	Balance       float64         `json:"balance"`
	Phase         float64         `json:"phase"`
	Scope         []float64       `json:"scope,omitempty"`
}

// Engine ties the band layout, the analyzer, weighting, normalization, peak
// animation and level metering together for one audio format. It holds no
// locks; the host serializes Process, Tick and reconfiguration.
type Engine struct {
	cfg        Config
	key        layoutKey
	sampleRate int
	channels   int

	bands    []FrequencyBand
	weights  []float64
	analyzer *Analyzer
	meter    *LevelMeter
	scope    *sampleBuffer
}

// NewEngine clamps cfg and builds the pipeline for the given format.
func NewEngine(cfg Config, sampleRate, channelCount int) (*Engine, error) {
	e := &Engine{cfg: cfg.Clamp(), sampleRate: sampleRate, channels: channelCount}
	if err := e.rebuild(); err != nil {
		return nil, err
	}
	return e, nil
}

// rebuild discards the analyzer, bands and meter and constructs fresh ones.
// Recursive analyzer state is never carried across.
func (e *Engine) rebuild() error {
	analyzer, err := NewAnalyzer(e.cfg, e.sampleRate, e.channels, AllChannels, e.cfg.WindowFunction())
	if err != nil {
		return fmt.Errorf("building analyzer: %w", err)
	}
	e.key = e.cfg.layoutKey()
	e.bands = GenerateFrequencyBands(e.cfg)
	e.weights = BandWeights(e.bands, e.cfg)
	e.analyzer = analyzer
	e.analyzer.Initialize(e.bands)
	e.meter = nil
	e.scope = newSampleBuffer(e.cfg.FFTSize)

	applog.Debugf("Analysis: Engine ready (%s, %d bands, FFT %d, %d Hz, %d ch)",
		e.cfg.Transform, len(e.bands), e.cfg.FFTSize, e.sampleRate, e.channels)
	return nil
}

func (e *Engine) Config() Config  { return e.cfg }
func (e *Engine) SampleRate() int { return e.sampleRate }
func (e *Engine) Channels() int   { return e.channels }

// Bands returns the engine-owned band slice. It is replaced wholesale on
// layout or format changes.
func (e *Engine) Bands() []FrequencyBand { return e.bands }

// Meter returns the level meter, or nil before the first metered chunk.
func (e *Engine) Meter() *LevelMeter { return e.meter }

// Gauges returns the level meter gauges, if any.
func (e *Engine) Gauges() []GaugeValue {
	if e.meter == nil {
		return nil
	}
	return e.meter.Gauges()
}

// Scope returns a copy of the most recent channel-averaged samples, oldest
// first.
func (e *Engine) Scope() []float64 {
	out := make([]float64, e.scope.Cap())
	e.scope.CopyTo(out)
	return out
}

// SetFormat switches to a new sample rate and channel count. Any change
// rebuilds the whole pipeline.
func (e *Engine) SetFormat(sampleRate, channelCount int) error {
	if sampleRate == e.sampleRate && channelCount == e.channels {
		return nil
	}
	prevRate, prevChannels := e.sampleRate, e.channels
	e.sampleRate, e.channels = sampleRate, channelCount
	if err := e.rebuild(); err != nil {
		e.sampleRate, e.channels = prevRate, prevChannels
		return err
	}
	return nil
}

// Reconfigure installs a new configuration snapshot. Changes to the band
// layout or analyzer shape rebuild the pipeline; everything else applies in
// place and keeps the animation state.
func (e *Engine) Reconfigure(cfg Config) error {
	cfg = cfg.Clamp()
	if cfg.layoutKey() != e.key {
		prev := e.cfg
		e.cfg = cfg
		if err := e.rebuild(); err != nil {
			e.cfg = prev
			return err
		}
		return nil
	}
	e.cfg = cfg
	e.weights = BandWeights(e.bands, cfg)
	e.analyzer.Reconfigure(cfg)
	return nil
}

// Reset clears buffered audio and analyzer state without touching the
// layout.
func (e *Engine) Reset() {
	e.analyzer.Reset()
	e.scope.Reset()
	e.meter = nil
}

// Process feeds one chunk of interleaved samples through the active
// visualization path. It returns false when the chunk holds no complete
// frame.
func (e *Engine) Process(samples []float64, channelMask uint32) bool {
	if len(samples) < e.channels {
		return false
	}
	e.scope.Add(samples, e.channels, channelMask&e.cfg.SelectedChannels)

	switch e.cfg.Visualization {
	case VisualizationPeakMeter, VisualizationLevelMeter:
		mask := activeChannels(e.channels, channelMask&e.cfg.SelectedChannels)
		if e.meter == nil || e.meter.Mask() != mask {
			e.meter = NewLevelMeter(e.sampleRate, e.channels, mask, e.cfg)
		}
		e.meter.Process(samples, e.cfg)
		return true
	case VisualizationOscilloscope:
		return true
	}

	if !e.analyzer.AnalyzeSamples(samples, channelMask, e.bands) {
		return false
	}
	applyWeights(e.bands, e.weights)
	Normalize(e.bands, e.cfg)
	return true
}

// Tick advances the peak indicators by one render tick.
func (e *Engine) Tick(isStopped bool) {
	switch e.cfg.Visualization {
	case VisualizationPeakMeter, VisualizationLevelMeter:
		if e.meter != nil {
			UpdateGaugePeaks(e.meter.gauges, e.cfg, isStopped)
		}
	case VisualizationSpectrum:
		UpdatePeakValues(e.bands, e.cfg, isStopped)
	}
}

// Snapshot copies the current state into a Frame.
func (e *Engine) Snapshot(seq uint32) Frame {
	f := Frame{
		Seq:           seq,
		Timestamp:     time.Now().UnixNano(),
		Visualization: e.cfg.Visualization,
		SampleRate:    e.sampleRate,
		Balance:       0.5,
		Phase:         0.5,
	}
	switch e.cfg.Visualization {
	case VisualizationSpectrum:
		f.Bands = append([]FrequencyBand(nil), e.bands...)
	case VisualizationOscilloscope:
		f.Scope = e.Scope()
	default:
		if e.meter != nil {
			f.Gauges = append([]GaugeValue(nil), e.meter.gauges...)
			for i := range f.Gauges {
				f.Gauges[i].Peak = floorLevel(f.Gauges[i].Peak)
				f.Gauges[i].RMS = floorLevel(f.Gauges[i].RMS)
			}
			f.Balance = e.meter.balance
			f.Phase = e.meter.phase
		}
	}
	return f
}

func floorLevel(db float64) float64 {
	if math.IsNaN(db) || db < floorDB {
		return floorDB
	}
	return db
}
