// Package quality watches live frame performance and adjusts the target
// detail tier to hold a frame-rate goal. It samples at a fixed cadence,
// keeps a bounded sliding window, classifies the dominant bottleneck, and
// applies hysteresis so one slow frame never flips the tier.
package quality

import "time"

// TimingSource tags whether a GPU time was read from a timer or derived
// from frame time. Diagnostics must never present an estimate as fact.
type TimingSource uint8

const (
	Estimated TimingSource = iota
	Measured
)

func (s TimingSource) String() string {
	if s == Measured {
		return "measured"
	}
	return "estimated"
}

// estimatedGPUFraction of frame time stands in for GPU time when no timer
// query is available.
const estimatedGPUFraction = 0.7

// Frame is one frame's raw timing, fed in by the render loop. GPUTime is
// honored only with GPUMeasured set; otherwise the sampler estimates.
type Frame struct {
	FrameTime   time.Duration
	CPUTime     time.Duration
	GPUTime     time.Duration
	GPUMeasured bool
	DrawCalls   int
	Triangles   int
	MemoryBytes int64
}

// Sample is one aggregated observation over a sampling interval. Samples
// live in the controller's sliding window and are discarded on eviction.
type Sample struct {
	Time      time.Time
	FPS       float64
	FrameTime time.Duration
	CPUTime   time.Duration
	GPUTime   time.Duration
	GPUSource TimingSource

	MemoryBytes int64
	DrawCalls   int
	Triangles   int
}
