// SPDX-License-Identifier: MIT
package analysis

import "math"

// mapRange linearly maps v from [srcLo, srcHi] to [dstLo, dstHi]. A
// degenerate source range maps to dstLo.
func mapRange(v, srcLo, srcHi, dstLo, dstHi float64) float64 {
	if srcHi == srcLo {
		return dstLo
	}
	return dstLo + (dstHi-dstLo)*(v-srcLo)/(srcHi-srcLo)
}

// shift returns the knee frequency of the skewable scales, 10^(4*skew) Hz.
func shift(skew float64) float64 {
	return math.Pow(10, 4*skew)
}

// ScaleF maps a frequency in Hz onto the given perceptual scale. skew
// adjusts the scales that have a free parameter and is ignored by the rest.
func ScaleF(f float64, fn ScalingFunction, skew float64) float64 {
	switch fn {
	case ScaleLogarithmic:
		return math.Log2(f)
	case ScaleShiftedLogarithmic:
		return math.Log10(shift(skew) + f)
	case ScaleMel:
		return 2595 / math.Ln10 * math.Log1p(f/700)
	case ScaleBark:
		return 26.81*f/(1960+f) - 0.53
	case ScaleAdjustableBark:
		return 26.81 * f / (shift(skew) + f)
	case ScaleERB:
		return 9.265 * math.Log1p(f/(24.7*9.265))
	case ScaleCams:
		return 21.4 * math.Log10(1+0.00437*f)
	case ScaleHyperbolicSine:
		return math.Asinh(f / shift(skew))
	case ScaleNthRoot:
		return math.Pow(f, 1/(11-10*skew))
	case ScaleNegativeExponential:
		return -math.Exp(-f / math.Pow(10, 3+skew))
	case ScalePeriod:
		return 1 / f
	default:
		return f
	}
}

// DeScaleF is the inverse of ScaleF.
func DeScaleF(x float64, fn ScalingFunction, skew float64) float64 {
	switch fn {
	case ScaleLogarithmic:
		return math.Exp2(x)
	case ScaleShiftedLogarithmic:
		return math.Pow(10, x) - shift(skew)
	case ScaleMel:
		return 700 * math.Expm1(x*math.Ln10/2595)
	case ScaleBark:
		y := x + 0.53
		return 1960 * y / (26.81 - y)
	case ScaleAdjustableBark:
		return shift(skew) * x / (26.81 - x)
	case ScaleERB:
		return 24.7 * 9.265 * math.Expm1(x/9.265)
	case ScaleCams:
		return (math.Pow(10, x/21.4) - 1) / 0.00437
	case ScaleHyperbolicSine:
		return math.Sinh(x) * shift(skew)
	case ScaleNthRoot:
		return math.Pow(x, 11-10*skew)
	case ScaleNegativeExponential:
		return -math.Log(-x) * math.Pow(10, 3+skew)
	case ScalePeriod:
		return 1 / x
	default:
		return x
	}
}
