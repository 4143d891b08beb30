// SPDX-License-Identifier: MIT
package window

import (
	"math"
	"testing"

	dspwindow "github.com/mjibson/go-dsp/window"
	gwindow "gonum.org/v1/gonum/dsp/window"
)

const testLength = 257

func allKinds() []Kind {
	kinds := make([]Kind, 0, kindCount)
	for k := Boxcar; k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

func ones(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = 1
	}
	return s
}

func TestFillMatchesGonum(t *testing.T) {
	tests := []struct {
		kind Kind
		ref  func([]float64) []float64
	}{
		{Hann, gwindow.Hann},
		{Hamming, gwindow.Hamming},
		{Blackman, gwindow.Blackman},
		{Nuttall, gwindow.Nuttall},
		{FlatTop, gwindow.FlatTop},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			got := make([]float64, testLength)
			New(tt.kind, DefaultParameter(tt.kind), 0, false).Fill(got)
			want := tt.ref(ones(testLength))
			for i := range got {
				if math.Abs(got[i]-want[i]) > 1e-9 {
					t.Fatalf("coefficient %d: got %.12f, want %.12f", i, got[i], want[i])
				}
			}
		})
	}
}

func TestFillMatchesGoDSP(t *testing.T) {
	tests := []struct {
		kind Kind
		ref  func(int) []float64
	}{
		{Hann, dspwindow.Hann},
		{Hamming, dspwindow.Hamming},
		{Blackman, dspwindow.Blackman},
		{Bartlett, dspwindow.Bartlett},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			got := make([]float64, testLength)
			New(tt.kind, 0, 0, false).Fill(got)
			want := tt.ref(testLength)
			for i := range got {
				if math.Abs(got[i]-want[i]) > 1e-9 {
					t.Fatalf("coefficient %d: got %.12f, want %.12f", i, got[i], want[i])
				}
			}
		})
	}
}

func TestTruncation(t *testing.T) {
	for _, k := range allKinds() {
		for _, skew := range []float64{-0.5, 0, 0.5} {
			w := New(k, DefaultParameter(k), skew, true)
			for _, x := range []float64{-5, -1.5, -1.0001, 1.0001, 1.5, 5} {
				if v := w.At(x); v != 0 {
					t.Errorf("%s skew %.1f: At(%g) = %g, want 0", k, skew, x, v)
				}
			}
		}
	}
}

func TestContinuousAtCentre(t *testing.T) {
	const eps = 1e-7
	for _, k := range allKinds() {
		w := New(k, DefaultParameter(k), 0, true)
		left, centre, right := w.At(-eps), w.At(0), w.At(eps)
		if math.Abs(left-centre) > 1e-5 || math.Abs(right-centre) > 1e-5 {
			t.Errorf("%s: discontinuous at 0 (%g, %g, %g)", k, left, centre, right)
		}
		if math.IsNaN(centre) || centre <= 0 {
			t.Errorf("%s: centre value %g", k, centre)
		}
	}
}

func TestCentreIsUnity(t *testing.T) {
	for _, k := range allKinds() {
		v := New(k, DefaultParameter(k), 0, false).At(0)
		if math.Abs(v-1) > 1e-6 {
			t.Errorf("%s: At(0) = %.9f, want 1", k, v)
		}
	}
}

func TestSkewMovesPeak(t *testing.T) {
	peak := func(w *Function) float64 {
		coeffs := make([]float64, 1001)
		w.Fill(coeffs)
		best := 0
		for i, c := range coeffs {
			if c > coeffs[best] {
				best = i
			}
		}
		return 2*float64(best)/1000 - 1
	}

	if p := peak(New(Hann, 0, 0, false)); math.Abs(p) > 1e-9 {
		t.Errorf("unskewed Hann peak at %g, want 0", p)
	}
	if p := peak(New(Hann, 0, 0.5, false)); p <= 0 {
		t.Errorf("positive skew should move the peak right, got %g", p)
	}
	if p := peak(New(Hann, 0, -0.5, false)); p >= 0 {
		t.Errorf("negative skew should move the peak left, got %g", p)
	}

	// The edges are fixed points of the warp.
	w := New(Bartlett, 0, 0.7, false)
	if v := w.At(1); math.Abs(v) > 1e-12 {
		t.Errorf("skewed Bartlett At(1) = %g, want 0", v)
	}
	if v := w.At(-1); math.Abs(v) > 1e-12 {
		t.Errorf("skewed Bartlett At(-1) = %g, want 0", v)
	}
}

func TestFillSum(t *testing.T) {
	coeffs := make([]float64, 8)
	sum := New(Boxcar, 0, 0, false).Fill(coeffs)
	if sum != 8 {
		t.Errorf("Boxcar sum = %g, want 8", sum)
	}

	single := make([]float64, 1)
	if s := New(Hann, 0, 0, false).Fill(single); s != 1 || single[0] != 1 {
		t.Errorf("single-point Hann = %g (sum %g), want 1", single[0], s)
	}

	if s := New(Hann, 0, 0, false).Fill(nil); s != 0 {
		t.Errorf("empty Fill sum = %g, want 0", s)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		name    string
		want    Kind
		wantErr bool
	}{
		{"Hann", Hann, false},
		{"hanning", Hann, false},
		{"Flat-Top", FlatTop, false},
		{"power_of_sine", PowerOfSine, false},
		{"poisson", Poison, false},
		{"KAISER", Kaiser, false},
		{"bogus", Hann, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKind(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}

	for _, k := range allKinds() {
		var back Kind
		text, _ := k.MarshalText()
		if err := back.UnmarshalText(text); err != nil || back != k {
			t.Errorf("%s did not survive text encoding: %v", k, err)
		}
	}
}

func TestAtZeroAllocs(t *testing.T) {
	w := New(Kaiser, 3, 0.2, true)
	coeffs := make([]float64, 1024)
	allocs := testing.AllocsPerRun(100, func() {
		w.Fill(coeffs)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Fill, got %.1f", allocs)
	}
}

func BenchmarkFill(b *testing.B) {
	for _, k := range []Kind{Hann, Kaiser, CascadedSine} {
		b.Run(k.String(), func(b *testing.B) {
			w := New(k, DefaultParameter(k), 0, false)
			coeffs := make([]float64, 4096)
			b.ReportAllocs()
			for b.Loop() {
				w.Fill(coeffs)
			}
		})
	}
}
