// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"math"

	"spectrum/internal/window"
)

var (
	ErrInvalidSampleRate = errors.New("analysis: sample rate must be positive")
	ErrInvalidChannels   = errors.New("analysis: channel count must be positive")
)

// Analyzer is the spectral estimator selected by Config.Transform. Exactly
// one variant is populated; dispatch is a switch on kind so the per-sample
// loops stay free of interface calls.
type Analyzer struct {
	kind        Transform
	cfg         Config
	sampleRate  float64
	channels    int
	channelMask uint32

	fft    *fftAnalyzer
	cqt    *cqtAnalyzer
	swift  *swiftAnalyzer
	analog *analogAnalyzer
}

// NewAnalyzer builds the analyzer for cfg. channelMask limits the channels
// the analyzer may ever merge; win is the time-domain window and defaults to
// cfg.WindowFunction() when nil. The configuration is clamped first.
func NewAnalyzer(cfg Config, sampleRate, channelCount int, channelMask uint32, win *window.Function) (*Analyzer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidSampleRate, sampleRate)
	}
	if channelCount <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidChannels, channelCount)
	}
	cfg = cfg.Clamp()
	if win == nil {
		win = cfg.WindowFunction()
	}

	sr := float64(sampleRate)
	a := &Analyzer{
		kind:        cfg.Transform,
		cfg:         cfg,
		sampleRate:  sr,
		channels:    channelCount,
		channelMask: channelMask,
	}
	switch cfg.Transform {
	case TransformCQT:
		a.cqt = newCQTAnalyzer(cfg, sr, channelCount, win)
	case TransformSWIFT:
		a.swift = newSWIFTAnalyzer(cfg, sr, channelCount)
	case TransformAnalogStyle:
		a.analog = newAnalogAnalyzer(cfg, sr, channelCount)
	default:
		a.kind = TransformFFT
		a.fft = newFFTAnalyzer(cfg, sr, channelCount, win)
	}
	return a, nil
}

func (a *Analyzer) Kind() Transform     { return a.kind }
func (a *Analyzer) SampleRate() float64 { return a.sampleRate }
func (a *Analyzer) Channels() int       { return a.channels }

// Initialize builds the per-band tables for bands. The recursive analyzers
// start from zeroed state.
func (a *Analyzer) Initialize(bands []FrequencyBand) {
	switch a.kind {
	case TransformSWIFT:
		a.swift.initialize(bands)
	case TransformAnalogStyle:
		a.analog.initialize(bands)
	}
}

// Reconfigure swaps in settings that do not change the analyzer's shape
// (mapping, summation, CQT span parameters). Structural changes need a new
// Analyzer.
func (a *Analyzer) Reconfigure(cfg Config) {
	cfg = cfg.Clamp()
	if cfg.layoutKey() != a.cfg.layoutKey() {
		return
	}
	a.cfg = cfg
	switch a.kind {
	case TransformFFT:
		a.fft.cfg = cfg
	case TransformCQT:
		a.cqt.cfg = cfg
	case TransformSWIFT:
		a.swift.cfg = cfg
	case TransformAnalogStyle:
		a.analog.cfg = cfg
	}
}

// AnalyzeSamples merges the interleaved samples into the analyzer and writes
// a raw magnitude into every band's NewValue. It returns false, leaving the
// bands untouched, when there is not a single complete frame to process.
func (a *Analyzer) AnalyzeSamples(samples []float64, channelMask uint32, bands []FrequencyBand) bool {
	if len(samples) < a.channels || len(bands) == 0 {
		return false
	}
	mask := channelMask & a.channelMask & a.cfg.SelectedChannels

	switch a.kind {
	case TransformCQT:
		a.cqt.analyze(samples, mask, bands)
	case TransformSWIFT:
		a.swift.analyze(samples, mask, bands)
	case TransformAnalogStyle:
		a.analog.analyze(samples, mask, bands)
	default:
		a.fft.analyze(samples, mask, bands)
	}

	// Bands at or above Nyquist only ever see aliases.
	nyquist := a.sampleRate / 2
	for i := range bands {
		b := &bands[i]
		if v := b.NewValue; math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || b.Center >= nyquist {
			b.NewValue = 0
		}
	}
	return true
}

// Reset clears buffered samples and recursive state.
func (a *Analyzer) Reset() {
	switch a.kind {
	case TransformCQT:
		a.cqt.reset()
	case TransformSWIFT:
		a.swift.reset()
	case TransformAnalogStyle:
		a.analog.reset()
	default:
		a.fft.reset()
	}
}
