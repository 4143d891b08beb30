// SPDX-License-Identifier: MIT
package analysis

import "math"

// swiftCoeffs is the per-band rotation and decay of a SWIFT stage.
type swiftCoeffs struct {
	cos, sin float64
	decay    float64
}

// swiftAnalyzer is a sliding windowed infinite Fourier transform: each band
// owns a cascade of rotating, exponentially decaying phasors that persists
// across chunks until reset.
type swiftAnalyzer struct {
	cfg        Config
	sampleRate float64
	channels   int
	order      int

	geometry []FrequencyBand // band edges the coefficients were built from
	coeffs   []swiftCoeffs
	state    []complex128 // len(bands)*order stage values
	peak     []float64    // chunk max of |p|²
}

func newSWIFTAnalyzer(cfg Config, sampleRate float64, channels int) *swiftAnalyzer {
	return &swiftAnalyzer{
		cfg:        cfg,
		sampleRate: sampleRate,
		channels:   channels,
		order:      max(1, cfg.FilterBankOrder),
	}
}

// initialize rebuilds coefficients and zeroed state for bands.
func (a *swiftAnalyzer) initialize(bands []FrequencyBand) {
	a.geometry = append(a.geometry[:0], bands...)
	a.coeffs = make([]swiftCoeffs, len(bands))
	a.state = make([]complex128, len(bands)*a.order)
	a.peak = make([]float64, len(bands))
	a.computeCoeffs()
}

func (a *swiftAnalyzer) computeCoeffs() {
	sr := a.sampleRate
	for i, b := range a.geometry {
		theta := 2 * math.Pi * b.Center / sr
		factor := 4*a.cfg.SWIFTBandwidth/sr - 1/(a.cfg.TimeResolution*sr/2000)
		decay := math.Exp(-math.Abs(b.Hi-b.Lo) * factor)
		// A non-positive factor would give an undamped or growing pole.
		if math.IsNaN(decay) || decay >= 1 {
			decay = 1 - 1e-9
		}
		a.coeffs[i] = swiftCoeffs{
			cos:   math.Cos(theta),
			sin:   math.Sin(theta),
			decay: decay,
		}
	}
}

func (a *swiftAnalyzer) analyze(samples []float64, mask uint32, bands []FrequencyBand) {
	if len(bands) != len(a.coeffs) {
		a.initialize(bands)
	}
	clear(a.peak)

	for frame := 0; frame+a.channels <= len(samples); frame += a.channels {
		x := averageFrame(samples[frame:frame+a.channels], mask)
		for i, c := range a.coeffs {
			rot := complex(c.cos*c.decay, c.sin*c.decay)
			gain := complex(1-c.decay, 0)
			in := complex(x, 0)
			stages := a.state[i*a.order : (i+1)*a.order]
			for j := range stages {
				stages[j] = stages[j]*rot + in*gain
				in = stages[j]
			}
			if p := real(in)*real(in) + imag(in)*imag(in); p > a.peak[i] {
				a.peak[i] = p
			}
		}
	}

	for i := range bands {
		bands[i].NewValue = math.Sqrt(a.peak[i])
	}
}

// reset zeroes every stage and recomputes the coefficients from the stored
// band geometry.
func (a *swiftAnalyzer) reset() {
	clear(a.state)
	clear(a.peak)
	a.computeCoeffs()
}
