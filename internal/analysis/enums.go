// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"strings"
)

// Transform selects the spectral estimator.
type Transform int

const (
	TransformFFT Transform = iota
	TransformCQT
	TransformSWIFT
	TransformAnalogStyle
)

var transformNames = []string{"fft", "cqt", "swift", "analog"}

// Mapping selects how FFT coefficients are folded into bands.
type Mapping int

const (
	MappingStandard Mapping = iota
	MappingTriangularFilterBank
	MappingBrownPuckette
)

var mappingNames = []string{"standard", "tfb", "brown-puckette"}

// SummationMethod aggregates the bins of a band in the standard mapping.
type SummationMethod int

const (
	SumMinimum SummationMethod = iota
	SumMaximum
	SumSum
	SumRMS
	SumRMSSum
	SumAverage
	SumMedian
)

var summationNames = []string{"minimum", "maximum", "sum", "rms", "rms-sum", "average", "median"}

// Distribution selects the band layout generator.
type Distribution int

const (
	DistributionLinear Distribution = iota
	DistributionOctaves
	DistributionAveePlayer
)

var distributionNames = []string{"linear", "octaves", "aveeplayer"}

// ScalingFunction is the perceptual frequency scale a linear layout is
// evenly spaced in.
type ScalingFunction int

const (
	ScaleLinear ScalingFunction = iota
	ScaleLogarithmic
	ScaleShiftedLogarithmic
	ScaleMel
	ScaleBark
	ScaleAdjustableBark
	ScaleERB
	ScaleCams
	ScaleHyperbolicSine
	ScaleNthRoot
	ScaleNegativeExponential
	ScalePeriod
)

var scalingNames = []string{
	"linear", "logarithmic", "shifted-logarithmic", "mel", "bark", "adjustable-bark",
	"erb", "cams", "hyperbolic-sine", "nth-root", "negative-exponential", "period",
}

// Weighting selects an acoustic weighting curve.
type Weighting int

const (
	WeightingNone Weighting = iota
	WeightingA
	WeightingB
	WeightingC
	WeightingD
	WeightingM
)

var weightingNames = []string{"none", "a", "b", "c", "d", "m"}

// AmplitudeScale selects how raw band values are mapped to [0, 1].
type AmplitudeScale int

const (
	AmplitudeDecibel AmplitudeScale = iota
	AmplitudeLinear
)

var amplitudeNames = []string{"decibel", "linear"}

// SmoothingMethod selects the temporal smoothing policy.
type SmoothingMethod int

const (
	SmoothingNone SmoothingMethod = iota
	SmoothingAverage
	SmoothingPeak
)

var smoothingNames = []string{"none", "average", "peak"}

// PeakMode selects the peak indicator animation.
type PeakMode int

const (
	PeakNone PeakMode = iota
	PeakClassic
	PeakGravity
	PeakAIMP
	PeakFadeOut
	PeakFadingAIMP
)

var peakModeNames = []string{"none", "classic", "gravity", "aimp", "fade-out", "fading-aimp"}

// Visualization selects which processing path a chunk takes.
type Visualization int

const (
	VisualizationSpectrum Visualization = iota
	VisualizationPeakMeter
	VisualizationLevelMeter
	VisualizationOscilloscope
)

var visualizationNames = []string{"spectrum", "peak-meter", "level-meter", "oscilloscope"}

func enumString(names []string, v int, kind string) string {
	if v < 0 || v >= len(names) {
		return fmt.Sprintf("%s(%d)", kind, v)
	}
	return names[v]
}

func normalizeName(s string) string {
	return strings.ToLower(strings.NewReplacer("_", "-", " ", "-").Replace(strings.TrimSpace(s)))
}

func parseEnum(names []string, text, kind string) (int, error) {
	n := normalizeName(text)
	for i, s := range names {
		if s == n || strings.ReplaceAll(s, "-", "") == strings.ReplaceAll(n, "-", "") {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s: '%s'", kind, text)
}

func (t Transform) String() string       { return enumString(transformNames, int(t), "Transform") }
func (m Mapping) String() string         { return enumString(mappingNames, int(m), "Mapping") }
func (s SummationMethod) String() string { return enumString(summationNames, int(s), "SummationMethod") }
func (d Distribution) String() string    { return enumString(distributionNames, int(d), "Distribution") }
func (s ScalingFunction) String() string { return enumString(scalingNames, int(s), "ScalingFunction") }
func (w Weighting) String() string       { return enumString(weightingNames, int(w), "Weighting") }
func (a AmplitudeScale) String() string  { return enumString(amplitudeNames, int(a), "AmplitudeScale") }
func (s SmoothingMethod) String() string { return enumString(smoothingNames, int(s), "SmoothingMethod") }
func (p PeakMode) String() string        { return enumString(peakModeNames, int(p), "PeakMode") }
func (v Visualization) String() string   { return enumString(visualizationNames, int(v), "Visualization") }

func (t Transform) MarshalText() ([]byte, error)       { return []byte(t.String()), nil }
func (m Mapping) MarshalText() ([]byte, error)         { return []byte(m.String()), nil }
func (s SummationMethod) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (d Distribution) MarshalText() ([]byte, error)    { return []byte(d.String()), nil }
func (s ScalingFunction) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (w Weighting) MarshalText() ([]byte, error)       { return []byte(w.String()), nil }
func (a AmplitudeScale) MarshalText() ([]byte, error)  { return []byte(a.String()), nil }
func (s SmoothingMethod) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (p PeakMode) MarshalText() ([]byte, error)        { return []byte(p.String()), nil }
func (v Visualization) MarshalText() ([]byte, error)   { return []byte(v.String()), nil }

func unmarshalEnum(dst *int, names []string, text []byte, kind string) error {
	v, err := parseEnum(names, string(text), kind)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func (t *Transform) UnmarshalText(b []byte) error {
	return unmarshalEnum((*int)(t), transformNames, b, "transform")
}

func (m *Mapping) UnmarshalText(b []byte) error {
	return unmarshalEnum((*int)(m), mappingNames, b, "mapping method")
}

func (s *SummationMethod) UnmarshalText(b []byte) error {
	return unmarshalEnum((*int)(s), summationNames, b, "summation method")
}

func (d *Distribution) UnmarshalText(b []byte) error {
	return unmarshalEnum((*int)(d), distributionNames, b, "distribution")
}

func (s *ScalingFunction) UnmarshalText(b []byte) error {
	return unmarshalEnum((*int)(s), scalingNames, b, "scaling function")
}

func (w *Weighting) UnmarshalText(b []byte) error {
	return unmarshalEnum((*int)(w), weightingNames, b, "weighting")
}

func (a *AmplitudeScale) UnmarshalText(b []byte) error {
	return unmarshalEnum((*int)(a), amplitudeNames, b, "amplitude scale")
}

func (s *SmoothingMethod) UnmarshalText(b []byte) error {
	return unmarshalEnum((*int)(s), smoothingNames, b, "smoothing method")
}

func (p *PeakMode) UnmarshalText(b []byte) error {
	return unmarshalEnum((*int)(p), peakModeNames, b, "peak mode")
}

func (v *Visualization) UnmarshalText(b []byte) error {
	return unmarshalEnum((*int)(v), visualizationNames, b, "visualization")
}
