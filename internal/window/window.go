// SPDX-License-Identifier: MIT

// Package window implements the shaping functions applied to sample blocks
// before a transform. A window is evaluated at a normalized position
// x in [-1, 1], where 0 is the centre of the block. Every shape shares the
// same skew pre-warp and optional truncation.
package window

import (
	"fmt"
	"math"
	"strings"
)

// Kind selects a window shape.
type Kind int

const (
	Boxcar Kind = iota
	Hann
	Hamming
	Blackman
	Nuttall
	FlatTop
	Bartlett
	Parzen
	Welch
	PowerOfSine
	PowerOfCircle
	Gauss
	Tukey
	Kaiser
	Poison
	HyperbolicSecant
	QuadraticSpline
	OggVorbis
	CascadedSine
	Galss

	kindCount
)

var kindNames = [kindCount]string{
	"boxcar", "hann", "hamming", "blackman", "nuttall", "flattop", "bartlett",
	"parzen", "welch", "powerofsine", "powerofcircle", "gauss", "tukey", "kaiser",
	"poison", "hyperbolicsecant", "quadraticspline", "oggvorbis", "cascadedsine", "galss",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind converts a case-insensitive name to a Kind. Unknown names return
// Hann and an error.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(name))
	switch n {
	case "rectangular", "none":
		return Boxcar, nil
	case "hanning":
		return Hann, nil
	case "triangular":
		return Bartlett, nil
	case "poisson":
		return Poison, nil
	}
	for k, s := range kindNames {
		if s == n {
			return Kind(k), nil
		}
	}
	return Hann, fmt.Errorf("unknown window function name: '%s'", name)
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(text []byte) error {
	v, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// DefaultParameter returns the shape parameter a kind uses when the caller
// has no preference. Kinds without a parameter return 0.
func DefaultParameter(k Kind) float64 {
	switch k {
	case PowerOfSine, PowerOfCircle:
		return 2
	case Gauss:
		return 3
	case Tukey:
		return 0.5
	case Kaiser:
		return 3
	case Poison, HyperbolicSecant:
		return 2
	case CascadedSine:
		return 1
	case Galss:
		return 2
	default:
		return 0
	}
}

// Function is a configured window. It is immutable and safe to share.
type Function struct {
	kind      Kind
	parameter float64
	skew      float64
	truncate  bool

	// Kaiser normalizer 1/I0(pi*alpha), computed once.
	kaiserNorm float64
}

// New returns a window of the given kind. parameter is the shape parameter
// (order, sigma or alpha depending on kind), skew in [-1, 1] compresses the
// domain toward one edge and truncate zeroes the window outside [-1, 1].
func New(kind Kind, parameter, skew float64, truncate bool) *Function {
	f := &Function{
		kind:      kind,
		parameter: parameter,
		skew:      math.Max(-1, math.Min(1, skew)),
		truncate:  truncate,
	}
	if kind == Kaiser {
		f.kaiserNorm = 1 / besselI0(math.Pi*parameter)
	}
	return f
}

func (f *Function) Kind() Kind         { return f.kind }
func (f *Function) Parameter() float64 { return f.parameter }
func (f *Function) Skew() float64      { return f.skew }

// At evaluates the window at x.
func (f *Function) At(x float64) float64 {
	if f.truncate && math.Abs(x) > 1 {
		return 0
	}
	x = f.warp(x)
	if f.truncate && math.Abs(x) > 1 {
		return 0
	}
	return f.shape(x)
}

// Fill samples the window across dst at evenly spaced positions from -1 to 1
// and returns the sum of the coefficients. A single-element dst gets the
// centre value.
func (f *Function) Fill(dst []float64) float64 {
	n := len(dst)
	if n == 0 {
		return 0
	}
	if n == 1 {
		dst[0] = f.At(0)
		return dst[0]
	}
	var sum float64
	last := float64(n - 1)
	for i := range dst {
		dst[i] = f.At(2*float64(i)/last - 1)
		sum += dst[i]
	}
	return sum
}

// warp applies the skew pre-warp. Positive skew pulls the peak toward +1,
// negative toward -1. Both ends stay fixed.
func (f *Function) warp(x float64) float64 {
	s := f.skew
	switch {
	case s > 0:
		k := 10 * s * s
		u := x/2 - 0.5
		u = u / (1 - u*k) * (1 + k)
		return 2*u + 1
	case s < 0:
		k := 10 * s * s
		u := x/2 + 0.5
		u = u / (1 + u*k) * (1 + k)
		return 2*u - 1
	default:
		return x
	}
}

func (f *Function) shape(x float64) float64 {
	p := f.parameter
	switch f.kind {
	case Boxcar:
		return 1
	case Hann:
		return 0.5 + 0.5*math.Cos(math.Pi*x)
	case Hamming:
		return 0.54 + 0.46*math.Cos(math.Pi*x)
	case Blackman:
		return 0.42 + 0.5*math.Cos(math.Pi*x) + 0.08*math.Cos(2*math.Pi*x)
	case Nuttall:
		return 0.355768 + 0.487396*math.Cos(math.Pi*x) + 0.144232*math.Cos(2*math.Pi*x) + 0.012604*math.Cos(3*math.Pi*x)
	case FlatTop:
		return 0.21557895 + 0.41663158*math.Cos(math.Pi*x) + 0.277263158*math.Cos(2*math.Pi*x) +
			0.083578947*math.Cos(3*math.Pi*x) + 0.006947368*math.Cos(4*math.Pi*x)
	case Bartlett:
		return 1 - math.Abs(x)
	case Parzen:
		a := math.Abs(x)
		switch {
		case a <= 0.5:
			return 1 - 6*a*a + 6*a*a*a
		case a <= 1:
			return 2 * math.Pow(1-a, 3)
		}
		return 0
	case Welch:
		return 1 - x*x
	case PowerOfSine:
		return math.Pow(math.Abs(math.Cos(math.Pi*x/2)), p)
	case PowerOfCircle:
		return math.Pow(math.Max(0, 1-x*x), p/2)
	case Gauss:
		return math.Exp(-0.5 * (p * x) * (p * x))
	case Tukey:
		return tukey(x, p)
	case Kaiser:
		return besselI0(math.Pi*p*math.Sqrt(math.Max(0, 1-x*x))) * f.kaiserNorm
	case Poison:
		return math.Exp(-p * math.Abs(x))
	case HyperbolicSecant:
		return 1 / math.Cosh(p*x)
	case QuadraticSpline:
		t := 1.5 * math.Abs(x)
		switch {
		case t <= 0.5:
			return (0.75 - t*t) / 0.75
		case t <= 1.5:
			return 0.5 * (t - 1.5) * (t - 1.5) / 0.75
		}
		return 0
	case OggVorbis:
		c := math.Cos(math.Pi * x / 2)
		return math.Sin(math.Pi / 2 * c * c)
	case CascadedSine:
		v := math.Cos(math.Pi * x / 2)
		for range int(math.Max(1, math.Round(p))) {
			v = math.Sin(math.Pi / 2 * v)
		}
		return v
	case Galss:
		return math.Exp(-0.5*(p*x)*(p*x)) * (0.5 + 0.5*math.Cos(math.Pi*x))
	default:
		return 1
	}
}

// tukey is flat over the centre and tapers with a half cosine over the
// outer alpha fraction of the domain.
func tukey(x, alpha float64) float64 {
	a := math.Abs(x)
	if alpha <= 0 {
		if a <= 1 {
			return 1
		}
		return 0
	}
	alpha = math.Min(alpha, 1)
	edge := 1 - alpha
	if a <= edge {
		return 1
	}
	return 0.5 + 0.5*math.Cos(math.Pi*(a-edge)/alpha)
}

// besselI0 is the zeroth-order modified Bessel function of the first kind,
// summed until the terms stop contributing.
func besselI0(x float64) float64 {
	sum, term := 1.0, 1.0
	h := x / 2
	for k := 1; k < 500; k++ {
		term *= (h / float64(k)) * (h / float64(k))
		sum += term
		if term < sum*1e-17 {
			break
		}
	}
	return sum
}
