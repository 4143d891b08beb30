// SPDX-License-Identifier: MIT
package analysis

import "math"

// FrequencyTilt returns the linear gain of a slope in dB per octave pivoting
// at offset Hz.
func FrequencyTilt(f, slope, offset float64) float64 {
	if f <= 0 || offset <= 0 {
		return 1
	}
	return math.Pow(10, math.Log2(f/offset)*slope/20)
}

// Equalize returns the linear gain of the equalize curve: amount dB per
// decade of (f+offset)/depth above unity.
func Equalize(f, amount, depth, offset float64) float64 {
	if depth <= 0 {
		return 1
	}
	x := 1 + math.Max(0, f+offset)/depth
	return math.Pow(10, amount*math.Log10(x)/20)
}

func weightA(f float64) float64 {
	f2 := f * f
	return 12194 * 12194 * f2 * f2 /
		((f2 + 20.6*20.6) * math.Sqrt((f2+107.7*107.7)*(f2+737.9*737.9)) * (f2 + 12194*12194))
}

func weightB(f float64) float64 {
	f2 := f * f
	return 12194 * 12194 * f2 * f /
		((f2 + 20.6*20.6) * math.Sqrt(f2+158.5*158.5) * (f2 + 12194*12194))
}

func weightC(f float64) float64 {
	f2 := f * f
	return 12194 * 12194 * f2 / ((f2 + 20.6*20.6) * (f2 + 12194*12194))
}

func weightD(f float64) float64 {
	f2 := f * f
	h := ((1037918.48-f2)*(1037918.48-f2) + 1080768.16*f2) /
		((9837328-f2)*(9837328-f2) + 11723776*f2)
	return f / 6.8966888496476e-5 * math.Sqrt(h/((f2+79919.29)*(f2+1345600)))
}

// weightM is the ITU-R 468 noise weighting curve.
func weightM(f float64) float64 {
	f2 := f * f
	f3 := f2 * f
	f4 := f2 * f2
	h1 := -4.737338981378384e-24*f4*f2 + 2.043828333606125e-15*f4 - 1.363894795463638e-7*f2 + 1
	h2 := 1.306612257412824e-19*f4*f - 2.118150887518656e-11*f3 + 5.559488023498642e-4*f
	return 1.246332637532143e-4 * f / math.Hypot(h1, h2)
}

var (
	normA = 1 / weightA(1000)
	normB = 1 / weightB(1000)
	normC = 1 / weightC(1000)
	normD = 1 / weightD(1000)
	normM = 1 / weightM(1000)
)

// AcousticWeight returns the linear gain of a standard weighting curve,
// normalized to unity at 1 kHz.
func AcousticWeight(f float64, w Weighting) float64 {
	if w == WeightingNone {
		return 1
	}
	if !(f > 0) || math.IsInf(f, 0) {
		return 0
	}
	switch w {
	case WeightingA:
		return weightA(f) * normA
	case WeightingB:
		return weightB(f) * normB
	case WeightingC:
		return weightC(f) * normC
	case WeightingD:
		return weightD(f) * normD
	case WeightingM:
		return weightM(f) * normM
	default:
		return 1
	}
}

// BandWeight is the combined gain applied to a band centred at f.
func BandWeight(f float64, cfg Config) float64 {
	w := FrequencyTilt(f, cfg.Slope, cfg.SlopeOffset) *
		Equalize(f, cfg.EqualizeAmount, cfg.EqualizeDepth, cfg.EqualizeOffset) *
		AcousticWeight(f, cfg.Weighting)
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return 0
	}
	return w
}

// BandWeights computes BandWeight for every band centre.
func BandWeights(bands []FrequencyBand, cfg Config) []float64 {
	weights := make([]float64, len(bands))
	for i, b := range bands {
		weights[i] = BandWeight(b.Center, cfg)
	}
	return weights
}

// ApplyWeighting multiplies each band's NewValue by its weight.
func ApplyWeighting(bands []FrequencyBand, cfg Config) {
	for i := range bands {
		bands[i].NewValue *= BandWeight(bands[i].Center, cfg)
	}
}

// applyWeights is ApplyWeighting with precomputed weights.
func applyWeights(bands []FrequencyBand, weights []float64) {
	for i := range bands {
		bands[i].NewValue *= weights[i]
	}
}
