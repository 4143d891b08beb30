// SPDX-License-Identifier: MIT
package analysis

// Decay speeds are expressed in 1/256ths of the display range per tick.
const decayUnit = 1.0 / 256

// aimpThreshold is the level below which AIMP-style decay runs twice as fast.
const aimpThreshold = 0.5

// peak is a view of the indicator state of one band or gauge.
type peak struct {
	max     *float64
	hold    *float64
	speed   *float64
	opacity *float64
}

// update advances the indicator by one tick given the current value.
func (p peak) update(cur float64, cfg Config) {
	if cfg.PeakMode == PeakNone {
		*p.max = cur
		*p.hold = 0
		*p.speed = 0
		*p.opacity = 1
		return
	}

	aimp := cfg.PeakMode == PeakAIMP || cfg.PeakMode == PeakFadingAIMP
	if cur >= *p.max {
		if aimp {
			*p.hold = clamp(*p.hold+(cur-*p.max)*cfg.HoldTime, 0, cfg.HoldTime)
		} else {
			*p.hold = cfg.HoldTime
		}
		*p.max = cur
		*p.speed = 0
		*p.opacity = 1
		return
	}

	if *p.hold > 0 {
		*p.hold--
		return
	}

	acc := cfg.Acceleration * decayUnit
	switch cfg.PeakMode {
	case PeakClassic:
		*p.speed = acc
		*p.max -= *p.speed
	case PeakGravity:
		*p.speed += acc
		*p.max -= *p.speed
	case PeakAIMP:
		*p.speed = aimpSpeed(*p.max, acc)
		*p.max -= *p.speed
	case PeakFadeOut:
		*p.speed += acc
		*p.opacity -= *p.speed
		if *p.opacity <= 0 {
			*p.max = cur
		}
	case PeakFadingAIMP:
		*p.speed = aimpSpeed(*p.max, acc)
		*p.max -= *p.speed
		*p.opacity -= *p.speed
	}

	*p.max = clamp(*p.max, 0, 1)
	*p.opacity = clamp(*p.opacity, 0, 1)
}

func aimpSpeed(level, acc float64) float64 {
	if level < aimpThreshold {
		return 2 * acc
	}
	return acc
}

// UpdatePeakValues advances the peak indicators of every band by one tick.
// When playback is stopped the current values first fall toward zero through
// the configured smoothing.
func UpdatePeakValues(bands []FrequencyBand, cfg Config, isStopped bool) {
	for i := range bands {
		b := &bands[i]
		if isStopped {
			b.CurValue = Smooth(b.CurValue, 0, cfg.Smoothing, cfg.SmoothingFactor)
		}
		peak{&b.MaxValue, &b.HoldTime, &b.DecaySpeed, &b.Opacity}.update(b.CurValue, cfg)
	}
}

// UpdateGaugePeaks is UpdatePeakValues for level meter gauges, driven by the
// rendered peak level.
func UpdateGaugePeaks(gauges []GaugeValue, cfg Config, isStopped bool) {
	for i := range gauges {
		g := &gauges[i]
		if isStopped {
			g.PeakRender = Smooth(g.PeakRender, 0, cfg.Smoothing, cfg.SmoothingFactor)
			g.RMSRender = Smooth(g.RMSRender, 0, cfg.Smoothing, cfg.SmoothingFactor)
		}
		peak{&g.MaxPeakRender, &g.HoldTime, &g.DecaySpeed, &g.Opacity}.update(g.PeakRender, cfg)
	}
}
