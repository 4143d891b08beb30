// SPDX-License-Identifier: MIT
package analysis

import (
	"math"

	"spectrum/internal/window"
	"spectrum/pkg/bitint"
)

// cqtAnalyzer runs one windowed Goertzel recursion per band over a span of
// the ring buffer sized from the band width. Nothing carries over between
// calls apart from the ring contents.
type cqtAnalyzer struct {
	cfg        Config
	sampleRate float64
	channels   int
	ring       *sampleBuffer
	win        *window.Function
}

func newCQTAnalyzer(cfg Config, sampleRate float64, channels int, win *window.Function) *cqtAnalyzer {
	return &cqtAnalyzer{
		cfg:        cfg,
		sampleRate: sampleRate,
		channels:   channels,
		ring:       newSampleBuffer(cfg.FFTSize),
		win:        win,
	}
}

func (a *cqtAnalyzer) analyze(samples []float64, mask uint32, bands []FrequencyBand) {
	a.ring.Add(samples, a.channels, mask)
	for i := range bands {
		bands[i].NewValue = a.goertzel(&bands[i])
	}
}

func (a *cqtAnalyzer) goertzel(b *FrequencyBand) float64 {
	sr := a.sampleRate
	size := float64(a.ring.Cap())

	bw := math.Abs(b.Hi-b.Lo) + sr/size*a.cfg.CQTBandwidthOffset
	if !(bw > 0) {
		return 0
	}
	span := math.Min(1/bw, size/sr) * sr

	period := 1
	if a.cfg.CQTDownSample > 0 {
		period = max(1, int(a.cfg.CQTDownSample*sr/(b.Center+bw/2)))
	}
	if a.cfg.CQTPowerOfTwo {
		period = bitint.NearestPowerOfTwo(period)
	}

	start := (size - span) * (0.5 + a.cfg.CQTAlignment/2)
	coeff := 2 * math.Cos(2*math.Pi*b.Center/sr*float64(period))
	step := float64(period)

	var s1, s2, norm float64
	for pos := 0.0; pos < span; pos += step {
		idx := int(start + pos)
		if idx >= a.ring.Cap() {
			break
		}
		w := a.win.At(mapRange(pos, 0, span, -1, 1))
		s0 := a.ring.At(idx)*w + coeff*s1 - s2
		s2, s1 = s1, s0
		norm += w
	}
	if norm <= 0 {
		return 0
	}
	return math.Sqrt(math.Max(0, s1*s1+s2*s2-coeff*s1*s2)) / norm
}

func (a *cqtAnalyzer) reset() {
	a.ring.Reset()
}
