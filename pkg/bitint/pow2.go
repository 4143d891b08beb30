// SPDX-License-Identifier: MIT
/*
Package bitint provides the power-of-two helpers used when sizing FFT
buffers, Bluestein padding and the Goertzel sampling periods.

Design Principles:
- Zero Allocations: all operations work on the stack
- O(1): every function is a handful of bit operations
- Real-Time Safe: no locks, syscalls or blocking operations

Usage:

	// Pad a Bluestein convolution to a radix-2 length.
	m := bitint.NextPowerOfTwo(2*n + 1)

	// Route an FFT to the radix-2 path.
	if bitint.IsPowerOfTwo(n) { ... }

	// Snap a sampling period to the closest power of two.
	period = bitint.NearestPowerOfTwo(period)

----------------------------------------------------------------------

NextPowerOfTwo subtracts one before measuring the bit length so that an
exact power of two maps to itself:

	size = 8:  bits.Len(7) = 3, 1 << 3 = 8
	size = 9:  bits.Len(8) = 4, 1 << 4 = 16

Without the subtraction, 8 would be doubled to 16.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size.
//
//	Input  Output
//	4      4
//	5      8
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// NextPowerOfTwo32 is NextPowerOfTwo for int32.
func NextPowerOfTwo32(size int32) int32 {
	if size <= 1 {
		return 1
	}
	return int32(1 << bits.Len32(uint32(size-1)))
}

// NextPowerOfTwo64 is NextPowerOfTwo for int64.
func NextPowerOfTwo64(size int64) int64 {
	if size <= 1 {
		return 1
	}
	return int64(1 << bits.Len64(uint64(size-1)))
}

// PrevPowerOfTwo returns the largest power of 2 <= size, or 1 for size < 1.
func PrevPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	return 1 << (bits.Len(uint(size)) - 1)
}

// NearestPowerOfTwo returns the power of two closest to size. Ties round up,
// so 3 becomes 4 and 6 becomes 8.
func NearestPowerOfTwo(size int) int {
	lo := PrevPowerOfTwo(size)
	hi := NextPowerOfTwo(size)
	if size-lo < hi-size {
		return lo
	}
	return hi
}

// IsPowerOfTwo reports whether n is a power of 2. Powers of two have
// exactly one bit set, so n & (n-1) clears it to zero.
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// IsPowerOfTwo32 is IsPowerOfTwo for int32.
func IsPowerOfTwo32(n int32) bool {
	return n > 0 && (n&(n-1)) == 0
}

// IsPowerOfTwo64 is IsPowerOfTwo for int64.
func IsPowerOfTwo64(n int64) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Log2 returns floor(log2(n)) for n > 0 and 0 otherwise. For a power of two
// it is the number of radix-2 butterfly stages.
func Log2(n int) int {
	if n <= 0 {
		return 0
	}
	return bits.Len(uint(n)) - 1
}
