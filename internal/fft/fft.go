// SPDX-License-Identifier: MIT

// Package fft implements an in-place complex FFT for any length. Power-of-two
// lengths run an iterative radix-2 Cooley-Tukey transform; other lengths are
// re-expressed as a convolution with a chirp (Bluestein) and padded to the
// next power of two. Neither direction normalizes: a forward transform
// followed by an inverse one scales the input by its length.
package fft

import (
	"errors"
	"math"
	"math/bits"
	"math/cmplx"

	"spectrum/pkg/bitint"
)

var (
	// ErrNotPowerOfTwo is returned when a non power-of-two buffer reaches the
	// radix-2 kernel. Transform never routes one there.
	ErrNotPowerOfTwo = errors.New("fft: buffer length is not a power of two")

	// ErrSizeTooLarge is returned when the Bluestein padding for a buffer
	// cannot be represented.
	ErrSizeTooLarge = errors.New("fft: buffer too large for Bluestein padding")

	// ErrLengthMismatch is returned by Convolve for inputs of unequal length.
	ErrLengthMismatch = errors.New("fft: convolution inputs differ in length")
)

// maxBluesteinLength bounds n so that 2n+1 rounded up to a power of two
// stays within int.
const maxBluesteinLength = math.MaxInt/4 - 1

// FFT holds the trigonometric tables for repeated transforms. Tables are
// rebuilt when a transform needs a different size, so one FFT should serve
// buffers of a single length. An FFT is not safe for concurrent use.
type FFT struct {
	// exp(-2*pi*i*k/n) for k < n/2 of the radix-2 size n.
	twiddle  []complex128
	twiddleN int

	// Bluestein tables for length chirpN padded to len(kernel).
	chirp  []complex128
	kernel []complex128
	work   []complex128
	chirpN int
}

// New returns an FFT with empty tables. Tables are built on first use.
func New() *FFT {
	return &FFT{}
}

// Transform computes the DFT of buf in place, or the unnormalized inverse
// DFT when inverse is set. An empty buffer is a no-op.
func (f *FFT) Transform(buf []complex128, inverse bool) error {
	switch n := len(buf); {
	case n <= 1:
		return nil
	case bitint.IsPowerOfTwo(n):
		return f.radix2(buf, inverse)
	default:
		return f.bluestein(buf, inverse)
	}
}

// Transform runs a single transform with throwaway tables.
func Transform(buf []complex128, inverse bool) error {
	return New().Transform(buf, inverse)
}

// Convolve returns the circular convolution of x and y, scaled back to the
// input magnitude.
func (f *FFT) Convolve(x, y []complex128) ([]complex128, error) {
	n := len(x)
	if n != len(y) {
		return nil, ErrLengthMismatch
	}
	if n == 0 {
		return nil, nil
	}

	a := make([]complex128, n)
	b := make([]complex128, n)
	copy(a, x)
	copy(b, y)

	if err := f.Transform(a, false); err != nil {
		return nil, err
	}
	if err := f.Transform(b, false); err != nil {
		return nil, err
	}
	for i := range a {
		a[i] *= b[i]
	}
	if err := f.Transform(a, true); err != nil {
		return nil, err
	}

	scale := complex(1/float64(n), 0)
	for i := range a {
		a[i] *= scale
	}
	return a, nil
}

// Convolve is the package-level form of (*FFT).Convolve.
func Convolve(x, y []complex128) ([]complex128, error) {
	return New().Convolve(x, y)
}

func (f *FFT) ensureTwiddles(n int) {
	if f.twiddleN == n {
		return
	}
	f.twiddle = make([]complex128, n/2)
	for k := range f.twiddle {
		f.twiddle[k] = cmplx.Rect(1, -2*math.Pi*float64(k)/float64(n))
	}
	f.twiddleN = n
}

func (f *FFT) radix2(buf []complex128, inverse bool) error {
	n := len(buf)
	if !bitint.IsPowerOfTwo(n) {
		return ErrNotPowerOfTwo
	}
	if n == 1 {
		return nil
	}
	f.ensureTwiddles(n)

	shift := bits.UintSize - bitint.Log2(n)
	for i := range n {
		j := int(bits.Reverse(uint(i)) >> shift)
		if j > i {
			buf[i], buf[j] = buf[j], buf[i]
		}
	}

	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		step := n / size
		for start := 0; start < n; start += size {
			for j, k := start, 0; j < start+half; j, k = j+1, k+step {
				w := f.twiddle[k]
				if inverse {
					w = cmplx.Conj(w)
				}
				t := buf[j+half] * w
				buf[j+half] = buf[j] - t
				buf[j] += t
			}
		}
	}
	return nil
}

// bluesteinSize returns the padded convolution length for n.
func bluesteinSize(n int) (int, error) {
	if n > maxBluesteinLength {
		return 0, ErrSizeTooLarge
	}
	return bitint.NextPowerOfTwo(2*n + 1), nil
}

func (f *FFT) ensureChirp(n int) error {
	if f.chirpN == n {
		return nil
	}
	m, err := bluesteinSize(n)
	if err != nil {
		return err
	}

	// k*k is reduced modulo 2n before scaling so the phase keeps its
	// precision for large k.
	f.chirp = make([]complex128, n)
	mod := uint64(2 * n)
	for k := range n {
		kk := (uint64(k) * uint64(k)) % mod
		f.chirp[k] = cmplx.Rect(1, -math.Pi*float64(kk)/float64(n))
	}

	f.kernel = make([]complex128, m)
	f.kernel[0] = cmplx.Conj(f.chirp[0])
	for k := 1; k < n; k++ {
		c := cmplx.Conj(f.chirp[k])
		f.kernel[k] = c
		f.kernel[m-k] = c
	}
	f.work = make([]complex128, m)

	// The kernel spectrum is cached; its radix-2 size is the one the
	// work buffer uses, so the twiddles stay valid across calls.
	if err := f.radix2(f.kernel, false); err != nil {
		return err
	}
	f.chirpN = n
	return nil
}

func (f *FFT) bluestein(buf []complex128, inverse bool) error {
	n := len(buf)
	if err := f.ensureChirp(n); err != nil {
		return err
	}
	m := len(f.work)

	// The inverse is conj(forward(conj(x))).
	for k := range n {
		x := buf[k]
		if inverse {
			x = cmplx.Conj(x)
		}
		f.work[k] = x * f.chirp[k]
	}
	clear(f.work[n:])

	if err := f.radix2(f.work, false); err != nil {
		return err
	}
	for i := range f.work {
		f.work[i] *= f.kernel[i]
	}
	if err := f.radix2(f.work, true); err != nil {
		return err
	}

	scale := complex(1/float64(m), 0)
	for k := range n {
		x := f.work[k] * f.chirp[k] * scale
		if inverse {
			x = cmplx.Conj(x)
		}
		buf[k] = x
	}
	return nil
}
