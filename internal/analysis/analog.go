// SPDX-License-Identifier: MIT
package analysis

import "math"

const (
	maxFilterQ = 1000.0
	minFilterQ = 0.01
)

// biquad holds band-pass coefficients shared by every stage of a band.
type biquad struct {
	a0, a1, a2 float64
	b1, b2     float64
}

// biquadState is the transposed direct form II memory of one stage.
type biquadState struct {
	z1, z2 float64
	out    float64
}

// analogAnalyzer is a bank of cascaded band-pass biquads, one cascade per
// band, reporting the chunk maximum of the rectified output.
type analogAnalyzer struct {
	cfg        Config
	sampleRate float64
	channels   int
	order      int

	geometry []FrequencyBand
	coeffs   []biquad
	state    []biquadState // len(bands)*order stages
	peak     []float64
}

func newAnalogAnalyzer(cfg Config, sampleRate float64, channels int) *analogAnalyzer {
	return &analogAnalyzer{
		cfg:        cfg,
		sampleRate: sampleRate,
		channels:   channels,
		order:      max(1, cfg.FilterBankOrder),
	}
}

func (a *analogAnalyzer) initialize(bands []FrequencyBand) {
	a.geometry = append(a.geometry[:0], bands...)
	a.coeffs = make([]biquad, len(bands))
	a.state = make([]biquadState, len(bands)*a.order)
	a.peak = make([]float64, len(bands))
	a.computeCoeffs()
}

func (a *analogAnalyzer) computeCoeffs() {
	for i, b := range a.geometry {
		a.coeffs[i] = a.bandPass(b)
	}
}

// bandPass derives constant peak gain band-pass coefficients for b.
func (a *analogAnalyzer) bandPass(b FrequencyBand) biquad {
	sr := a.sampleRate
	limit := 0.499 * sr
	ctr := math.Min(b.Center, limit)
	lo := math.Min(math.Min(b.Lo, b.Hi), limit)
	hi := math.Min(math.Max(b.Lo, b.Hi), limit)

	k := math.Tan(math.Pi * ctr / sr)
	var q float64
	if a.cfg.PreWarpQ {
		q = k / (math.Tan(math.Pi*hi/sr) - math.Tan(math.Pi*lo/sr))
	} else {
		q = ctr / (hi - lo)
	}
	q /= a.cfg.AnalogBandwidth
	if a.cfg.CompensateOrder && a.order > 1 {
		q *= math.Sqrt(math.Pow(2, 1/float64(a.order)) - 1)
	}
	if math.IsNaN(q) || math.IsInf(q, 0) || q > maxFilterQ {
		q = maxFilterQ
	}
	q = math.Max(q, minFilterQ)

	norm := 1 / (1 + k/q + k*k)
	a0 := k / q * norm
	return biquad{
		a0: a0,
		a1: 0,
		a2: -a0,
		b1: 2 * (k*k - 1) * norm,
		b2: (1 - k/q + k*k) * norm,
	}
}

func (a *analogAnalyzer) analyze(samples []float64, mask uint32, bands []FrequencyBand) {
	if len(bands) != len(a.coeffs) {
		a.initialize(bands)
	}
	clear(a.peak)

	for frame := 0; frame+a.channels <= len(samples); frame += a.channels {
		x := averageFrame(samples[frame:frame+a.channels], mask)
		for i, c := range a.coeffs {
			v := x
			stages := a.state[i*a.order : (i+1)*a.order]
			for j := range stages {
				s := &stages[j]
				s.out = c.a0*v + s.z1
				s.z1 = c.a1*v + s.z2 - c.b1*s.out
				s.z2 = c.a2*v - c.b2*s.out
				v = s.out
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				clear(stages)
				continue
			}
			if m := math.Abs(v); m > a.peak[i] {
				a.peak[i] = m
			}
		}
	}

	for i := range bands {
		bands[i].NewValue = a.peak[i]
	}
}

func (a *analogAnalyzer) reset() {
	clear(a.state)
	clear(a.peak)
	a.computeCoeffs()
}
