// SPDX-License-Identifier: MIT
package analysis

import "math"

// ScaleAmplitude maps a raw band magnitude to [0, 1]. Non-finite and
// negative inputs map to 0.
func ScaleAmplitude(v float64, cfg Config) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	var r float64
	switch cfg.AmplitudeScale {
	case AmplitudeLinear:
		if cfg.UseAbsolute {
			r = v
		} else {
			r = mapRange(v, math.Pow(10, cfg.AmplitudeLo/20), math.Pow(10, cfg.AmplitudeHi/20), 0, 1)
		}
		r = clamp(r, 0, 1)
		if cfg.Gamma > 0 {
			r = math.Pow(r, 1/cfg.Gamma)
		}
	default:
		r = decibelRender(20*math.Log10(v), cfg)
	}
	return clamp(r, 0, 1)
}

// decibelRender maps a level in dB between AmplitudeLo and AmplitudeHi onto
// [0, 1].
func decibelRender(db float64, cfg Config) float64 {
	if math.IsInf(db, -1) {
		return 0
	}
	return clamp(mapRange(db, cfg.AmplitudeLo, cfg.AmplitudeHi, 0, 1), 0, 1)
}

// Smooth blends the previous display value with a newly scaled one.
func Smooth(cur, scaled float64, method SmoothingMethod, factor float64) float64 {
	if math.IsNaN(cur) || math.IsInf(cur, 0) {
		cur = 0
	}
	if math.IsNaN(scaled) || math.IsInf(scaled, 0) {
		scaled = 0
	}
	var v float64
	switch method {
	case SmoothingAverage:
		v = cur*factor + scaled*(1-factor)
	case SmoothingPeak:
		v = math.Max(cur*factor, scaled)
	default:
		v = scaled
	}
	return clamp(v, 0, 1)
}

// Normalize converts every NewValue to a smoothed CurValue in [0, 1].
func Normalize(bands []FrequencyBand, cfg Config) {
	for i := range bands {
		b := &bands[i]
		b.CurValue = Smooth(b.CurValue, ScaleAmplitude(b.NewValue, cfg), cfg.Smoothing, cfg.SmoothingFactor)
	}
}
