// SPDX-License-Identifier: MIT

// Package utils holds signal generators and doubles shared by package tests.
package utils

import (
	"math"
	"sync"
)

// MockTransport records what is sent to it instead of transmitting.
type MockTransport struct {
	mu     sync.Mutex
	Last   any
	Count  int
	Closed bool
}

// Send stores the value for later inspection.
func (m *MockTransport) Send(v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Last = v
	m.Count++
	return nil
}

func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Sent returns the number of values received so far.
func (m *MockTransport) Sent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Count
}

// GenerateComplexWave returns frames of a 440 Hz tone with its second and
// third harmonics, peaking just below full scale.
func GenerateComplexWave(size int, sampleRate float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
		buffer[i] = signal * 0.9
	}
	return buffer
}

// GenerateSineWave returns size samples of a sine at the given frequency
// and amplitude.
func GenerateSineWave(size int, sampleRate, frequency, amplitude float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = math.Sin(2*math.Pi*frequency*t) * amplitude
	}
	return buffer
}

// Interleave merges equally long mono channels into one interleaved buffer.
func Interleave(channels ...[]float64) []float64 {
	if len(channels) == 0 {
		return nil
	}
	frames := len(channels[0])
	for _, c := range channels[1:] {
		frames = min(frames, len(c))
	}
	out := make([]float64, frames*len(channels))
	for i := range frames {
		for ch, c := range channels {
			out[i*len(channels)+ch] = c[i]
		}
	}
	return out
}

// FindPeakBin returns the index of the largest value in [startBin, endBin].
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}
