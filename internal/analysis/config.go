// SPDX-License-Identifier: MIT
package analysis

import (
	"math"

	"spectrum/internal/window"
)

// AllChannels selects every interleaved channel.
const AllChannels uint32 = math.MaxUint32

// Configuration bounds. Values outside them are clamped by Config.Clamp
// before a snapshot reaches the engine.
const (
	MinBands     = 2
	MaxBands     = 512
	MinFrequency = 1.0
	MaxFrequency = 96000.0
	MinFFTSize   = 2
	MaxFFTSize   = 1 << 20
	MaxNote      = 143
)

// Config is an immutable snapshot of the analysis settings. It is passed by
// value; the engine never mutates the caller's copy.
type Config struct {
	Visualization Visualization `yaml:"visualization"`

	// Transform selection.
	Transform Transform `yaml:"transform"`
	FFTSize   int       `yaml:"fft_size"`

	// FFT mapping.
	Mapping                Mapping         `yaml:"mapping"`
	Summation              SummationMethod `yaml:"summation"`
	SmoothLowerFrequencies bool            `yaml:"smooth_lower_frequencies"`
	SmoothGainTransition   bool            `yaml:"smooth_gain_transition"`
	LanczosKernelSize      int             `yaml:"lanczos_kernel_size"`

	// Window applied to the time-domain block.
	Window          window.Kind `yaml:"window"`
	WindowParameter float64     `yaml:"window_parameter"`
	WindowSkew      float64     `yaml:"window_skew"`
	Truncate        bool        `yaml:"truncate"`

	// Brown-Puckette kernel shape.
	KernelShape          window.Kind `yaml:"kernel_shape"`
	KernelShapeParameter float64     `yaml:"kernel_shape_parameter"`
	KernelAsymmetry      float64     `yaml:"kernel_asymmetry"`

	// Constant-Q.
	CQTBandwidthOffset float64 `yaml:"cqt_bandwidth_offset"`
	CQTAlignment       float64 `yaml:"cqt_alignment"`
	CQTDownSample      float64 `yaml:"cqt_downsample"`
	CQTPowerOfTwo      bool    `yaml:"cqt_power_of_two_period"`

	// SWIFT and analog-style filter banks.
	FilterBankOrder int     `yaml:"filter_bank_order"`
	TimeResolution  float64 `yaml:"time_resolution"`
	SWIFTBandwidth  float64 `yaml:"swift_bandwidth"`
	PreWarpQ        bool    `yaml:"prewarp_q"`
	CompensateOrder bool    `yaml:"compensate_order"`
	AnalogBandwidth float64 `yaml:"analog_bandwidth"`

	// Band layout.
	Distribution    Distribution    `yaml:"distribution"`
	NumBands        int             `yaml:"bands"`
	LoFrequency     float64         `yaml:"lo_frequency"`
	HiFrequency     float64         `yaml:"hi_frequency"`
	MinNote         int             `yaml:"min_note"`
	MaxNote         int             `yaml:"max_note"`
	BandsPerOctave  int             `yaml:"bands_per_octave"`
	Pitch           float64         `yaml:"pitch"`
	Transpose       int             `yaml:"transpose"`
	ScalingFunction ScalingFunction `yaml:"scaling_function"`
	SkewFactor      float64         `yaml:"skew_factor"`
	Bandwidth       float64         `yaml:"bandwidth"`

	// Weighting.
	Slope          float64   `yaml:"slope"`
	SlopeOffset    float64   `yaml:"slope_offset"`
	EqualizeAmount float64   `yaml:"equalize_amount"`
	EqualizeOffset float64   `yaml:"equalize_offset"`
	EqualizeDepth  float64   `yaml:"equalize_depth"`
	Weighting      Weighting `yaml:"weighting"`

	// Normalization and smoothing.
	AmplitudeScale  AmplitudeScale  `yaml:"amplitude_scale"`
	AmplitudeLo     float64         `yaml:"amplitude_lo"`
	AmplitudeHi     float64         `yaml:"amplitude_hi"`
	Gamma           float64         `yaml:"gamma"`
	UseAbsolute     bool            `yaml:"use_absolute"`
	Smoothing       SmoothingMethod `yaml:"smoothing"`
	SmoothingFactor float64         `yaml:"smoothing_factor"`

	// Peak indicators, in ticks.
	PeakMode     PeakMode `yaml:"peak_mode"`
	HoldTime     float64  `yaml:"hold_time"`
	Acceleration float64  `yaml:"acceleration"`

	// Level metering.
	RMSWindow float64 `yaml:"rms_window"`
	RMSPlus3  bool    `yaml:"rms_plus_3db"`

	// SelectedChannels is intersected with the mask supplied per chunk.
	// Bit k selects interleaved channel k.
	SelectedChannels uint32 `yaml:"selected_channels"`
}

// DefaultConfig returns the settings the engine starts with.
func DefaultConfig() Config {
	return Config{
		Visualization: VisualizationSpectrum,

		Transform: TransformFFT,
		FFTSize:   4096,

		Mapping:                MappingStandard,
		Summation:              SumMaximum,
		SmoothLowerFrequencies: true,
		SmoothGainTransition:   true,
		LanczosKernelSize:      32,

		Window:          window.Hann,
		WindowParameter: 1,
		Truncate:        true,

		KernelShape:          window.Nuttall,
		KernelShapeParameter: 1,

		CQTBandwidthOffset: 1,
		CQTAlignment:       1,

		FilterBankOrder: 1,
		TimeResolution:  600,
		SWIFTBandwidth:  1,
		PreWarpQ:        true,
		CompensateOrder: true,
		AnalogBandwidth: 1,

		Distribution:    DistributionOctaves,
		NumBands:        320,
		LoFrequency:     20,
		HiFrequency:     20000,
		MinNote:         0,
		MaxNote:         MaxNote,
		BandsPerOctave:  12,
		Pitch:           440,
		ScalingFunction: ScaleLogarithmic,
		Bandwidth:       0.5,

		SlopeOffset:   1000,
		EqualizeDepth: 1024,

		AmplitudeScale:  AmplitudeDecibel,
		AmplitudeLo:     -90,
		AmplitudeHi:     0,
		Gamma:           1,
		UseAbsolute:     true,
		Smoothing:       SmoothingAverage,
		SmoothingFactor: 0.5,

		PeakMode:     PeakClassic,
		HoldTime:     30,
		Acceleration: 0.5,

		RMSWindow: 0.3,

		SelectedChannels: AllChannels,
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// Clamp returns a copy of c with every numeric field forced into its
// documented range.
func (c Config) Clamp() Config {
	c.FFTSize = clampInt(c.FFTSize, MinFFTSize, MaxFFTSize)
	c.LanczosKernelSize = clampInt(c.LanczosKernelSize, 1, 64)

	c.WindowParameter = clamp(c.WindowParameter, 0, 10)
	c.WindowSkew = clamp(c.WindowSkew, -1, 1)
	c.KernelShapeParameter = clamp(c.KernelShapeParameter, 0, 10)
	c.KernelAsymmetry = clamp(c.KernelAsymmetry, -1, 1)

	c.CQTBandwidthOffset = clamp(c.CQTBandwidthOffset, 0, 1)
	c.CQTAlignment = clamp(c.CQTAlignment, -1, 1)
	c.CQTDownSample = clamp(c.CQTDownSample, 0, 0.5)

	c.FilterBankOrder = clampInt(c.FilterBankOrder, 1, 8)
	c.TimeResolution = clamp(c.TimeResolution, 1, 10000)
	c.SWIFTBandwidth = clamp(c.SWIFTBandwidth, 0, 8)
	c.AnalogBandwidth = clamp(c.AnalogBandwidth, 0.01, 8)

	c.NumBands = clampInt(c.NumBands, MinBands, MaxBands)
	c.LoFrequency = clamp(c.LoFrequency, MinFrequency, MaxFrequency)
	c.HiFrequency = clamp(c.HiFrequency, MinFrequency, MaxFrequency)
	if c.LoFrequency > c.HiFrequency {
		c.LoFrequency, c.HiFrequency = c.HiFrequency, c.LoFrequency
	}
	if c.LoFrequency == c.HiFrequency {
		c.HiFrequency = math.Min(MaxFrequency, c.LoFrequency+1)
		c.LoFrequency = c.HiFrequency - 1
	}
	c.MinNote = clampInt(c.MinNote, 0, MaxNote)
	c.MaxNote = clampInt(c.MaxNote, 0, MaxNote)
	if c.MinNote > c.MaxNote {
		c.MinNote, c.MaxNote = c.MaxNote, c.MinNote
	}
	c.BandsPerOctave = clampInt(c.BandsPerOctave, 1, 48)
	c.Pitch = clamp(c.Pitch, MinFrequency, MaxFrequency)
	c.Transpose = clampInt(c.Transpose, -24, 24)
	c.SkewFactor = clamp(c.SkewFactor, 0, 1)
	c.Bandwidth = clamp(c.Bandwidth, 0, 64)

	c.Slope = clamp(c.Slope, -12, 12)
	c.SlopeOffset = clamp(c.SlopeOffset, MinFrequency, MaxFrequency)
	c.EqualizeAmount = clamp(c.EqualizeAmount, -12, 12)
	c.EqualizeOffset = clamp(c.EqualizeOffset, -MaxFrequency, MaxFrequency)
	c.EqualizeDepth = clamp(c.EqualizeDepth, MinFrequency, MaxFrequency)

	c.AmplitudeLo = clamp(c.AmplitudeLo, -120, 0)
	c.AmplitudeHi = clamp(c.AmplitudeHi, -120, 0)
	if c.AmplitudeLo > c.AmplitudeHi {
		c.AmplitudeLo, c.AmplitudeHi = c.AmplitudeHi, c.AmplitudeLo
	}
	if c.AmplitudeLo == c.AmplitudeHi {
		c.AmplitudeLo = c.AmplitudeHi - 1
	}
	c.Gamma = clamp(c.Gamma, 0.5, 10)
	c.SmoothingFactor = clamp(c.SmoothingFactor, 0, 1)

	c.HoldTime = clamp(c.HoldTime, 0, 120)
	c.Acceleration = clamp(c.Acceleration, 0, 2)

	c.RMSWindow = clamp(c.RMSWindow, 0.01, 10)
	return c
}

// layoutKey holds the fields that force analyzers and bands to be rebuilt
// when they change.
type layoutKey struct {
	transform       Transform
	fftSize         int
	window          window.Kind
	windowParameter float64
	windowSkew      float64
	truncate        bool
	kernelShape     window.Kind
	kernelParameter float64
	kernelAsymmetry float64
	filterBankOrder int
	timeResolution  float64
	swiftBandwidth  float64
	preWarpQ        bool
	compensateOrder bool
	analogBandwidth float64
	distribution    Distribution
	numBands        int
	loFrequency     float64
	hiFrequency     float64
	minNote         int
	maxNote         int
	bandsPerOctave  int
	pitch           float64
	transpose       int
	scaling         ScalingFunction
	skew            float64
	bandwidth       float64
	visualization   Visualization
}

func (c Config) layoutKey() layoutKey {
	return layoutKey{
		transform:       c.Transform,
		fftSize:         c.FFTSize,
		window:          c.Window,
		windowParameter: c.WindowParameter,
		windowSkew:      c.WindowSkew,
		truncate:        c.Truncate,
		kernelShape:     c.KernelShape,
		kernelParameter: c.KernelShapeParameter,
		kernelAsymmetry: c.KernelAsymmetry,
		filterBankOrder: c.FilterBankOrder,
		timeResolution:  c.TimeResolution,
		swiftBandwidth:  c.SWIFTBandwidth,
		preWarpQ:        c.PreWarpQ,
		compensateOrder: c.CompensateOrder,
		analogBandwidth: c.AnalogBandwidth,
		distribution:    c.Distribution,
		numBands:        c.NumBands,
		loFrequency:     c.LoFrequency,
		hiFrequency:     c.HiFrequency,
		minNote:         c.MinNote,
		maxNote:         c.MaxNote,
		bandsPerOctave:  c.BandsPerOctave,
		pitch:           c.Pitch,
		transpose:       c.Transpose,
		scaling:         c.ScalingFunction,
		skew:            c.SkewFactor,
		bandwidth:       c.Bandwidth,
		visualization:   c.Visualization,
	}
}

// WindowFunction returns the configured time-domain window.
func (c Config) WindowFunction() *window.Function {
	return window.New(c.Window, c.WindowParameter, c.WindowSkew, c.Truncate)
}

// Kernel returns the Brown-Puckette kernel shape.
func (c Config) Kernel() *window.Function {
	return window.New(c.KernelShape, c.KernelShapeParameter, c.KernelAsymmetry, true)
}
