// SPDX-License-Identifier: MIT
package analysis

import "math"

// sampleBuffer is a fixed-capacity ring of channel-averaged samples. Once
// full, each new sample overwrites the oldest.
type sampleBuffer struct {
	data []float64
	head int // next write position
	full bool
}

func newSampleBuffer(capacity int) *sampleBuffer {
	return &sampleBuffer{data: make([]float64, max(capacity, 1))}
}

func (r *sampleBuffer) Len() int {
	if r.full {
		return len(r.data)
	}
	return r.head
}

func (r *sampleBuffer) Cap() int { return len(r.data) }

func (r *sampleBuffer) push(v float64) {
	r.data[r.head] = v
	r.head++
	if r.head == len(r.data) {
		r.head = 0
		r.full = true
	}
}

// Add merges interleaved frames into the ring, averaging the channels
// selected by mask.
func (r *sampleBuffer) Add(samples []float64, channels int, mask uint32) {
	for frame := 0; frame+channels <= len(samples); frame += channels {
		r.push(averageFrame(samples[frame:frame+channels], mask))
	}
}

// At returns the sample i positions after the oldest one. Unfilled slots of
// a partially filled ring read as silence.
func (r *sampleBuffer) At(i int) float64 {
	if !r.full {
		// Left-pad so the newest samples sit at the end.
		pad := len(r.data) - r.head
		if i < pad {
			return 0
		}
		return r.data[i-pad]
	}
	j := r.head + i
	if j >= len(r.data) {
		j -= len(r.data)
	}
	return r.data[j]
}

// CopyTo writes the ring oldest-first into dst, which must hold Cap values.
func (r *sampleBuffer) CopyTo(dst []float64) {
	if !r.full {
		pad := len(r.data) - r.head
		clear(dst[:pad])
		copy(dst[pad:], r.data[:r.head])
		return
	}
	n := copy(dst, r.data[r.head:])
	copy(dst[n:], r.data[:r.head])
}

func (r *sampleBuffer) Reset() {
	clear(r.data)
	r.head = 0
	r.full = false
}

// averageFrame averages the channels of one interleaved frame selected by
// mask. Bit k selects channel k. Non-finite samples count as silence.
func averageFrame(frame []float64, mask uint32) float64 {
	var sum float64
	var n int
	for ch, s := range frame {
		if ch >= 32 || mask&(1<<uint(ch)) == 0 {
			continue
		}
		if !math.IsNaN(s) && !math.IsInf(s, 0) {
			sum += s
		}
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
