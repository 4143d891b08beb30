// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"math/cmplx"
	"slices"

	"gonum.org/v1/gonum/floats"

	"spectrum/internal/fft"
	"spectrum/internal/window"
)

// Pre-allocated buffers for one FFT frame.
type fftWorkspace struct {
	coeffs    []float64    // Window coefficients, pre-scaled by N/(Σw·√2).
	spectrum  []complex128 // Transform buffer, scaled by 2/N after the FFT.
	magnitude []float64    // |spectrum[k]| for every bin.
	scratch   []float64    // Median sort space.
}

// fftAnalyzer windows the most recent FFTSize samples, transforms them and
// folds the coefficients into bands with the configured mapping.
type fftAnalyzer struct {
	cfg        Config
	sampleRate float64
	channels   int
	size       int

	ring   *sampleBuffer
	engine *fft.FFT
	kernel *window.Function
	ws     fftWorkspace
}

func newFFTAnalyzer(cfg Config, sampleRate float64, channels int, win *window.Function) *fftAnalyzer {
	n := cfg.FFTSize
	a := &fftAnalyzer{
		cfg:        cfg,
		sampleRate: sampleRate,
		channels:   channels,
		size:       n,
		ring:       newSampleBuffer(n),
		engine:     fft.New(),
		kernel:     cfg.Kernel(),
		ws: fftWorkspace{
			coeffs:    make([]float64, n),
			spectrum:  make([]complex128, n),
			magnitude: make([]float64, n),
			scratch:   make([]float64, n/2+1),
		},
	}

	sum := win.Fill(a.ws.coeffs)
	if sum != 0 && !math.IsNaN(sum) {
		floats.Scale(float64(n)/(sum*math.Sqrt2), a.ws.coeffs)
	}
	return a
}

// binOf converts a frequency in Hz to a fractional bin position.
func (a *fftAnalyzer) binOf(f float64) float64 {
	return f * float64(a.size) / a.sampleRate
}

func (a *fftAnalyzer) analyze(samples []float64, mask uint32, bands []FrequencyBand) {
	a.ring.Add(samples, a.channels, mask)

	if !a.transform() {
		for i := range bands {
			bands[i].NewValue = 0
		}
		return
	}

	nyquist := a.sampleRate / 2
	for i := range bands {
		b := &bands[i]
		if b.Center >= nyquist {
			b.NewValue = 0
			continue
		}
		switch a.cfg.Mapping {
		case MappingTriangularFilterBank:
			b.NewValue = a.triangleBand(b)
		case MappingBrownPuckette:
			b.NewValue = a.brownPuckette(b)
		default:
			b.NewValue = a.standardBand(b)
		}
	}
}

// transform fills the workspace spectrum. It reports false when the FFT
// rejected the frame; callers then substitute silence.
func (a *fftAnalyzer) transform() bool {
	buf := a.ws.spectrum
	for i := range buf {
		buf[i] = complex(a.ring.At(i)*a.ws.coeffs[i], 0)
	}
	if err := a.engine.Transform(buf, false); err != nil {
		clear(buf)
		clear(a.ws.magnitude)
		return false
	}

	scale := complex(2/float64(a.size), 0)
	for k := range buf {
		buf[k] *= scale
		a.ws.magnitude[k] = cmplx.Abs(buf[k])
	}
	return true
}

// wrap folds any bin index onto [0, N).
func (a *fftAnalyzer) wrap(k int) int {
	k %= a.size
	if k < 0 {
		k += a.size
	}
	return k
}

func (a *fftAnalyzer) standardBand(b *FrequencyBand) float64 {
	lo := a.binOf(math.Min(b.Lo, b.Hi))
	hi := a.binOf(math.Max(b.Lo, b.Hi))

	var loIdx, hiIdx int
	if a.cfg.SmoothLowerFrequencies {
		loIdx = int(math.Round(lo)) + 1
		hiIdx = int(math.Round(hi)) - 1
	} else {
		loIdx = int(math.Ceil(lo))
		hiIdx = int(math.Floor(hi))
	}
	last := a.size / 2
	loIdx = clampInt(loIdx, 0, last)
	hiIdx = clampInt(hiIdx, 0, last)

	if hiIdx < loIdx {
		return a.lanczos(a.binOf(b.Center))
	}

	v := summarize(a.ws.magnitude[loIdx:hiIdx+1], a.cfg.Summation, a.ws.scratch)
	if a.cfg.SmoothGainTransition {
		switch a.cfg.Summation {
		case SumSum:
			v /= math.Hypot(1, hi-lo)
		case SumRMSSum:
			v /= math.Hypot(1, math.Sqrt(hi-lo))
		}
	}
	return v
}

// summarize aggregates bin magnitudes. scratch must hold len(values).
func summarize(values []float64, method SummationMethod, scratch []float64) float64 {
	n := float64(len(values))
	switch method {
	case SumMinimum:
		return floats.Min(values)
	case SumSum:
		return floats.Sum(values)
	case SumRMS:
		return math.Sqrt(floats.Dot(values, values) / n)
	case SumRMSSum:
		return math.Sqrt(floats.Dot(values, values))
	case SumAverage:
		return floats.Sum(values) / n
	case SumMedian:
		s := scratch[:len(values)]
		copy(s, values)
		slices.Sort(s)
		mid := len(s) / 2
		if len(s)%2 == 0 {
			return (s[mid-1] + s[mid]) / 2
		}
		return s[mid]
	default:
		return floats.Max(values)
	}
}

// lanczos interpolates the complex spectrum at a fractional bin position.
// The alternating sign realigns the phase of neighbouring bins of a frame
// whose window is centred on the block.
func (a *fftAnalyzer) lanczos(pos float64) float64 {
	k := float64(a.cfg.LanczosKernelSize)
	base := int(math.Floor(pos))
	var sum complex128
	for i := base - a.cfg.LanczosKernelSize + 1; i <= base+a.cfg.LanczosKernelSize; i++ {
		d := pos - float64(i)
		w := sinc(d) * sinc(d/k)
		if i&1 != 0 {
			w = -w
		}
		sum += a.ws.spectrum[a.wrap(i)] * complex(w, 0)
	}
	return cmplx.Abs(sum)
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// triangleBand sums |X|² under a triangle rising from Lo to Center and
// falling to Hi.
func (a *fftAnalyzer) triangleBand(b *FrequencyBand) float64 {
	lo := a.binOf(math.Min(b.Lo, b.Hi))
	hi := a.binOf(math.Max(b.Lo, b.Hi))
	ctr := a.binOf(b.Center)

	var sum float64
	var used int
	for k := int(math.Ceil(lo)); k <= int(math.Floor(hi)); k++ {
		x := float64(k)
		var w float64
		switch {
		case x < ctr:
			w = (x - lo) / (ctr - lo)
		case x > ctr:
			w = (hi - x) / (hi - ctr)
		default:
			w = 1
		}
		m := a.ws.magnitude[a.wrap(k)]
		sum += m * m * clamp(w, 0, 1)
		used++
	}
	if used == 0 {
		m := a.ws.magnitude[a.wrap(int(math.Round(ctr)))]
		sum = m * m
	}
	return math.Sqrt(sum)
}

// brownPuckette applies the kernel shape across the band span with
// alternating bin signs.
func (a *fftAnalyzer) brownPuckette(b *FrequencyBand) float64 {
	ctr := a.binOf(b.Center)
	half := math.Max(a.binOf(math.Abs(b.Hi-b.Lo)), 1)

	var re, im, norm float64
	for k := int(math.Ceil(ctr - half)); k <= int(math.Floor(ctr+half)); k++ {
		w := a.kernel.At((float64(k) - ctr) / half)
		norm += w
		if k&1 != 0 {
			w = -w
		}
		c := a.ws.spectrum[a.wrap(k)]
		re += real(c) * w
		im += imag(c) * w
	}
	if norm <= 0 {
		return 0
	}
	return math.Hypot(re, im) / norm
}

func (a *fftAnalyzer) reset() {
	a.ring.Reset()
}
