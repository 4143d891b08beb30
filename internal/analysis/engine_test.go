// SPDX-License-Identifier: MIT
package analysis

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"spectrum/pkg/utils"
)

func newTestEngine(t *testing.T, cfg Config, channels int) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, testSampleRate, channels)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func stereoTone(frames int) []float64 {
	tone := utils.GenerateSineWave(frames, testSampleRate, testTone, 0.8)
	return utils.Interleave(tone, tone)
}

func TestNewEngineRejectsBadFormat(t *testing.T) {
	if _, err := NewEngine(DefaultConfig(), 0, 2); !errors.Is(err, ErrInvalidSampleRate) {
		t.Errorf("error = %v, want ErrInvalidSampleRate", err)
	}
	if _, err := NewEngine(DefaultConfig(), testSampleRate, -1); !errors.Is(err, ErrInvalidChannels) {
		t.Errorf("error = %v, want ErrInvalidChannels", err)
	}
}

func TestEngineClampsConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Distribution = DistributionLinear
	cfg.NumBands = 10000
	cfg.SmoothingFactor = 3

	e := newTestEngine(t, cfg, 2)
	if len(e.Bands()) != MaxBands {
		t.Errorf("band count = %d, want %d", len(e.Bands()), MaxBands)
	}
	if e.Config().SmoothingFactor != 1 {
		t.Errorf("smoothing factor = %g, want 1", e.Config().SmoothingFactor)
	}
}

func TestEngineSpectrumPath(t *testing.T) {
	for _, tr := range allTransforms {
		t.Run(tr.String(), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Transform = tr
			e := newTestEngine(t, cfg, 2)

			if e.Process(nil, AllChannels) {
				t.Error("Process(nil) = true, want false")
			}
			if !e.Process(stereoTone(testFFTSize), AllChannels) {
				t.Fatal("Process() = false")
			}
			e.Tick(false)

			var lit int
			for i, b := range e.Bands() {
				if b.CurValue < 0 || b.CurValue > 1 {
					t.Fatalf("band %d CurValue = %g outside [0, 1]", i, b.CurValue)
				}
				if b.MaxValue < 0 || b.MaxValue > 1 {
					t.Fatalf("band %d MaxValue = %g outside [0, 1]", i, b.MaxValue)
				}
				if b.CurValue > 0 {
					lit++
				}
			}
			if lit == 0 {
				t.Error("tone left every band dark")
			}
		})
	}
}

func TestEngineReconfigure(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), 2)
	e.Process(stereoTone(testFFTSize), AllChannels)
	before := &e.Bands()[0]
	analyzer := e.analyzer

	// Normalization settings apply in place.
	cfg := e.Config()
	cfg.Smoothing = SmoothingPeak
	cfg.Weighting = WeightingA
	if err := e.Reconfigure(cfg); err != nil {
		t.Fatalf("Reconfigure() error = %v", err)
	}
	if &e.Bands()[0] != before || e.analyzer != analyzer {
		t.Error("non-structural change rebuilt the pipeline")
	}
	if e.weights[57] != BandWeight(e.Bands()[57].Center, cfg) {
		t.Error("weights not refreshed")
	}

	// Layout changes replace bands and analyzer wholesale.
	cfg.Transform = TransformSWIFT
	if err := e.Reconfigure(cfg); err != nil {
		t.Fatalf("Reconfigure() error = %v", err)
	}
	if e.analyzer == analyzer || e.analyzer.Kind() != TransformSWIFT {
		t.Error("transform change did not rebuild the analyzer")
	}
	for i, b := range e.Bands() {
		if b.CurValue != 0 || b.MaxValue != 0 {
			t.Fatalf("band %d carried state across a rebuild", i)
		}
	}
}

func TestEngineSetFormat(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), 2)
	analyzer := e.analyzer

	if err := e.SetFormat(testSampleRate, 2); err != nil || e.analyzer != analyzer {
		t.Errorf("same format rebuilt the analyzer (err %v)", err)
	}
	if err := e.SetFormat(48000, 1); err != nil {
		t.Fatalf("SetFormat() error = %v", err)
	}
	if e.analyzer == analyzer || e.SampleRate() != 48000 || e.Channels() != 1 {
		t.Error("format change did not rebuild the pipeline")
	}
	if err := e.SetFormat(0, 1); err == nil {
		t.Error("SetFormat(0) should fail")
	}
	if e.SampleRate() != 48000 {
		t.Errorf("failed SetFormat changed the sample rate to %d", e.SampleRate())
	}
}

func TestEngineLevelMeterPath(t *testing.T) {
	cfg := levelConfig()
	e := newTestEngine(t, cfg, 2)
	if e.Meter() != nil || e.Gauges() != nil {
		t.Fatal("meter created before any audio")
	}

	e.Process(stereoTone(4410), AllChannels)
	e.Tick(false)
	if len(e.Gauges()) != 2 {
		t.Fatalf("gauges = %d, want 2", len(e.Gauges()))
	}
	meter := e.Meter()

	e.Process(stereoTone(441), 0b01)
	if e.Meter() == meter || len(e.Gauges()) != 1 {
		t.Error("channel mask change did not recreate the meter")
	}

	g := e.Gauges()[0]
	if g.PeakRender <= 0 || g.PeakRender > 1 {
		t.Errorf("PeakRender = %g", g.PeakRender)
	}
}

func TestEngineOscilloscope(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Visualization = VisualizationOscilloscope
	cfg.FFTSize = 256
	e := newTestEngine(t, cfg, 2)

	e.Process(utils.Interleave([]float64{0.5, 0.25}, []float64{0.5, 0.75}), AllChannels)
	scope := e.Scope()
	if len(scope) != 256 {
		t.Fatalf("scope length = %d, want 256", len(scope))
	}
	if scope[254] != 0.5 || scope[255] != 0.5 || scope[0] != 0 {
		t.Errorf("scope tail = %v, head = %g", scope[254:], scope[0])
	}
}

func TestSnapshotEncodesJSON(t *testing.T) {
	for _, vis := range []Visualization{VisualizationSpectrum, VisualizationLevelMeter, VisualizationOscilloscope} {
		t.Run(vis.String(), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Visualization = vis
			e := newTestEngine(t, cfg, 2)
			// Silence leaves meter levels at -Inf.
			e.Process(make([]float64, 2048), AllChannels)
			e.Tick(false)

			frame := e.Snapshot(7)
			data, err := json.Marshal(frame)
			if err != nil {
				t.Fatalf("json.Marshal() error = %v", err)
			}

			var decoded map[string]any
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("json.Unmarshal() error = %v", err)
			}
			if decoded["seq"].(float64) != 7 || decoded["visualization"] != vis.String() {
				t.Errorf("decoded frame header = %v / %v", decoded["seq"], decoded["visualization"])
			}
			for _, g := range frame.Gauges {
				if math.IsInf(g.Peak, 0) || g.Peak < floorDB {
					t.Errorf("gauge %s peak %g not floored", g.Name, g.Peak)
				}
			}
		})
	}
}

func TestEngineProcessNoAllocs(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), 2)
	chunk := stereoTone(2205)
	e.Process(chunk, AllChannels)

	allocs := testing.AllocsPerRun(10, func() {
		e.Process(chunk, AllChannels)
		e.Tick(false)
	})
	if allocs > 0 {
		t.Errorf("Process+Tick allocated %.1f times per run, want 0", allocs)
	}
}

func BenchmarkEngineProcess(b *testing.B) {
	e, err := NewEngine(DefaultConfig(), testSampleRate, 2)
	if err != nil {
		b.Fatal(err)
	}
	chunk := utils.Interleave(
		utils.GenerateComplexWave(2205, testSampleRate),
		utils.GenerateComplexWave(2205, testSampleRate),
	)
	b.ReportAllocs()
	for b.Loop() {
		e.Process(chunk, AllChannels)
		e.Tick(false)
	}
}
