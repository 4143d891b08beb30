// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
)

// FrequencyBand is one analysis band: its edges in Hz and the amplitude
// state the pipeline evolves for it. NewValue is the raw analyzer output for
// the latest chunk; CurValue is the normalized, smoothed value in [0, 1].
// MaxValue, HoldTime, DecaySpeed and Opacity belong to the peak indicator.
type FrequencyBand struct {
	Lo     float64 `json:"lo"`
	Center float64 `json:"center"`
	Hi     float64 `json:"hi"`

	NewValue float64 `json:"-"`
	CurValue float64 `json:"value"`

	MaxValue   float64 `json:"peak"`
	HoldTime   float64 `json:"-"`
	DecaySpeed float64 `json:"-"`
	Opacity    float64 `json:"opacity"`

	Label             string `json:"label,omitempty"`
	HasDarkBackground bool   `json:"dark,omitempty"`
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// accidental reports whether a semitone class is a sharp.
func accidental(semitone int) bool {
	switch semitone {
	case 1, 3, 6, 8, 10:
		return true
	}
	return false
}

// GenerateFrequencyBands lays out bands for cfg in ascending centre order.
// Edges that come out non-finite or non-positive collapse onto the centre.
func GenerateFrequencyBands(cfg Config) []FrequencyBand {
	var bands []FrequencyBand
	switch cfg.Distribution {
	case DistributionOctaves:
		bands = octaveBands(cfg)
	case DistributionAveePlayer:
		bands = aveePlayerBands(cfg)
	default:
		bands = linearBands(cfg)
	}

	for i := range bands {
		b := &bands[i]
		if !validFrequency(b.Lo) {
			b.Lo = b.Center
		}
		if !validFrequency(b.Hi) {
			b.Hi = b.Center
		}
		b.Opacity = 1
	}
	return bands
}

func validFrequency(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}

// linearBands spaces bands evenly in the configured scale domain.
func linearBands(cfg Config) []FrequencyBand {
	n := cfg.NumBands
	fn, skew := cfg.ScalingFunction, cfg.SkewFactor
	lo := ScaleF(cfg.LoFrequency, fn, skew)
	hi := ScaleF(cfg.HiFrequency, fn, skew)
	last := float64(n - 1)

	at := func(i float64) float64 {
		return DeScaleF(mapRange(i, 0, last, lo, hi), fn, skew)
	}

	bands := make([]FrequencyBand, n)
	for i := range bands {
		x := float64(i)
		bands[i] = FrequencyBand{
			Lo:     at(x - cfg.Bandwidth),
			Center: at(x),
			Hi:     at(x + cfg.Bandwidth),
		}
	}
	return bands
}

// octaveBands places bands on musical notes relative to the tuning pitch.
// Positions are counted in quarter tones from C0.
func octaveBands(cfg Config) []FrequencyBand {
	pitchNote := math.Round((math.Log2(cfg.Pitch) - 4) * 12)
	c0 := cfg.Pitch * math.Pow(2, -pitchNote/12)

	group := 24 / float64(cfg.BandsPerOctave)
	loNote := int(math.Round(float64(cfg.MinNote) * 2 / group))
	hiNote := int(math.Round(float64(cfg.MaxNote) * 2 / group))
	transpose := 2 * float64(cfg.Transpose)

	freq := func(i float64) float64 {
		return c0 * math.Pow(2, (i*group+transpose)/24)
	}

	bands := make([]FrequencyBand, 0, hiNote-loNote+1)
	for i := loNote; i <= hiNote; i++ {
		x := float64(i)
		b := FrequencyBand{
			Lo:     freq(x - cfg.Bandwidth),
			Center: freq(x),
			Hi:     freq(x + cfg.Bandwidth),
		}

		quarter := x*group + transpose
		if q := math.Round(quarter); math.Abs(quarter-q) < 1e-9 && int(q)%2 == 0 {
			semitone := int(q) / 2
			class := ((semitone % 12) + 12) % 12
			octave := int(math.Floor(float64(semitone) / 12))
			b.Label = fmt.Sprintf("%s%d", noteNames[class], octave)
			b.HasDarkBackground = accidental(class)
		}
		bands = append(bands, b)
	}
	return bands
}

// aveePlayerBands blends geometric and linear spacing by the skew factor.
func aveePlayerBands(cfg Config) []FrequencyBand {
	n := cfg.NumBands
	lo, hi := cfg.LoFrequency, cfg.HiFrequency
	skew := cfg.SkewFactor
	last := float64(n - 1)

	at := func(i float64) float64 {
		t := 0.0
		if last > 0 {
			t = i / last
		}
		return lo*math.Pow(hi/lo, t)*(1-skew) + (lo+(hi-lo)*t)*skew
	}

	bands := make([]FrequencyBand, n)
	for i := range bands {
		x := float64(i)
		bands[i] = FrequencyBand{
			Lo:     at(x - cfg.Bandwidth),
			Center: at(x),
			Hi:     at(x + cfg.Bandwidth),
		}
	}
	return bands
}
