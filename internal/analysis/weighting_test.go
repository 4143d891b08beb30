// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"
)

func toDB(v float64) float64 { return 20 * math.Log10(v) }

func TestAcousticWeightUnityAt1kHz(t *testing.T) {
	for w := WeightingNone; w <= WeightingM; w++ {
		t.Run(w.String(), func(t *testing.T) {
			if got := AcousticWeight(1000, w); math.Abs(got-1) > 1e-12 {
				t.Errorf("AcousticWeight(1000) = %g, want 1", got)
			}
		})
	}
}

func TestAcousticWeightReference(t *testing.T) {
	tests := []struct {
		name   string
		w      Weighting
		f      float64
		wantDB float64
		tol    float64
	}{
		{"A 100 Hz", WeightingA, 100, -19.1, 0.1},
		{"A 10 kHz", WeightingA, 10000, -2.5, 0.1},
		{"C 100 Hz", WeightingC, 100, -0.3, 0.1},
		{"C 31.5 Hz", WeightingC, 31.5, -3.0, 0.1},
		{"B 100 Hz", WeightingB, 100, -5.6, 0.2},
		{"M 6.3 kHz", WeightingM, 6300, 12.2, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := toDB(AcousticWeight(tt.f, tt.w)); math.Abs(got-tt.wantDB) > tt.tol {
				t.Errorf("weight = %.2f dB, want %.2f dB", got, tt.wantDB)
			}
		})
	}
}

func TestAcousticWeightDegenerateFrequency(t *testing.T) {
	for w := WeightingA; w <= WeightingM; w++ {
		for _, f := range []float64{0, -10, math.NaN(), math.Inf(1)} {
			if got := AcousticWeight(f, w); got != 0 {
				t.Errorf("%s at %g = %g, want 0", w, f, got)
			}
		}
	}
	if got := AcousticWeight(-1, WeightingNone); got != 1 {
		t.Errorf("no weighting = %g, want 1", got)
	}
}

func TestFrequencyTilt(t *testing.T) {
	if got := FrequencyTilt(1000, 6, 1000); got != 1 {
		t.Errorf("tilt at pivot = %g, want 1", got)
	}
	if got := toDB(FrequencyTilt(4000, 3, 1000)); math.Abs(got-6) > 1e-9 {
		t.Errorf("two octaves at 3 dB/oct = %g dB, want 6", got)
	}
	if got := toDB(FrequencyTilt(500, 3, 1000)); math.Abs(got+3) > 1e-9 {
		t.Errorf("one octave below = %g dB, want -3", got)
	}
}

func TestEqualize(t *testing.T) {
	if got := Equalize(5000, 0, 1024, 0); got != 1 {
		t.Errorf("zero amount = %g, want 1", got)
	}
	// (f+offset)/depth = 9 gives one decade above unity.
	if got := toDB(Equalize(9216, 6, 1024, 0)); math.Abs(got-6) > 1e-9 {
		t.Errorf("one decade = %g dB, want 6", got)
	}
	if got := Equalize(-5000, 6, 1024, 0); got != 1 {
		t.Errorf("negative shifted frequency = %g, want 1", got)
	}
}

func TestApplyWeighting(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weighting = WeightingA
	cfg.Slope = 3

	bands := []FrequencyBand{{Center: 1000, NewValue: 2}, {Center: 100, NewValue: 2}}
	ApplyWeighting(bands, cfg)

	if math.Abs(bands[0].NewValue-2) > 1e-12 {
		t.Errorf("1 kHz band = %g, want 2", bands[0].NewValue)
	}
	want := 2 * BandWeight(100, cfg)
	if math.Abs(bands[1].NewValue-want) > 1e-12 || bands[1].NewValue >= 2 {
		t.Errorf("100 Hz band = %g, want %g", bands[1].NewValue, want)
	}

	weights := BandWeights(bands, cfg)
	if len(weights) != 2 || weights[0] != BandWeight(1000, cfg) {
		t.Errorf("BandWeights() = %v", weights)
	}
}
