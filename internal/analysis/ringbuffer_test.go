// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"
)

func TestSampleBufferOrder(t *testing.T) {
	r := newSampleBuffer(4)
	r.Add([]float64{1, 2}, 1, AllChannels)

	got := make([]float64, 4)
	r.CopyTo(got)
	want := []float64{0, 0, 1, 2}
	for i := range want {
		if got[i] != want[i] || r.At(i) != want[i] {
			t.Fatalf("partial ring = %v (At(%d) = %g), want %v", got, i, r.At(i), want)
		}
	}

	r.Add([]float64{3, 4, 5}, 1, AllChannels)
	r.CopyTo(got)
	want = []float64{2, 3, 4, 5}
	for i := range want {
		if got[i] != want[i] || r.At(i) != want[i] {
			t.Fatalf("wrapped ring = %v (At(%d) = %g), want %v", got, i, r.At(i), want)
		}
	}
	if r.Len() != 4 {
		t.Errorf("Len() = %d, want 4", r.Len())
	}

	r.Reset()
	if r.Len() != 0 || r.At(3) != 0 {
		t.Errorf("Reset() left Len = %d, At(3) = %g", r.Len(), r.At(3))
	}
}

func TestAverageFrame(t *testing.T) {
	tests := []struct {
		name  string
		frame []float64
		mask  uint32
		want  float64
	}{
		{"All", []float64{1, 0.5}, AllChannels, 0.75},
		{"Left", []float64{1, 0.5}, 0b01, 1},
		{"Right", []float64{1, 0.5}, 0b10, 0.5},
		{"None", []float64{1, 0.5}, 0, 0},
		{"Outside stream", []float64{1, 0.5}, 0b100, 0},
		{"NaN is silence", []float64{math.NaN(), 1}, AllChannels, 0.5},
		{"Inf is silence", []float64{math.Inf(1), -1}, AllChannels, -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := averageFrame(tt.frame, tt.mask); got != tt.want {
				t.Errorf("averageFrame() = %g, want %g", got, tt.want)
			}
		})
	}
}

func TestSampleBufferIgnoresPartialFrames(t *testing.T) {
	r := newSampleBuffer(8)
	r.Add([]float64{1, 1, 2}, 2, AllChannels)
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1 complete frame", r.Len())
	}
}

func TestSampleBufferAddNoAllocs(t *testing.T) {
	r := newSampleBuffer(4096)
	chunk := make([]float64, 2048)
	allocs := testing.AllocsPerRun(100, func() {
		r.Add(chunk, 2, AllChannels)
	})
	if allocs > 0 {
		t.Errorf("Add allocated: got %.1f allocs, want 0", allocs)
	}
}
