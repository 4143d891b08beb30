// SPDX-License-Identifier: MIT
package analysis

// SampleProcessor consumes interleaved float samples. Implementations are
// called once per delivered chunk and must not block.
type SampleProcessor interface {
	// Process analyzes one chunk. channelMask selects the interleaved
	// channels that carry signal (bit k is channel k).
	Process(samples []float64, channelMask uint32) bool
}

// FrameProvider produces render snapshots for transports and displays.
type FrameProvider interface {
	Snapshot(seq uint32) Frame
}

// Animator advances time-based display state once per render tick.
type Animator interface {
	Tick(isStopped bool)
}

// Compile-time checks for interface implementations.
var _ SampleProcessor = (*Engine)(nil)
var _ FrameProvider = (*Engine)(nil)
var _ Animator = (*Engine)(nil)
