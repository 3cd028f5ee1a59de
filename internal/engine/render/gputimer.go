package render

import (
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// timerRing is how many frames a timer query may lag before its result is
// read. Reading a query the same frame it was issued would stall the GPU.
const timerRing = 4

// gpuTimer measures GPU frame time with GL_TIME_ELAPSED queries. Results
// arrive a few frames late; Poll returns the most recent one. When query
// creation fails the timer reports unavailable and the quality controller
// falls back to estimating GPU time.
type gpuTimer struct {
	queries   [timerRing]uint32
	pending   [timerRing]bool
	slot      int
	active    bool
	available bool
	last      time.Duration
	hasResult bool
}

// newGPUTimer creates the query ring. Availability is probed by issuing a
// GenQueries call and checking for GL errors.
func newGPUTimer() *gpuTimer {
	t := &gpuTimer{}

	// Clear any earlier error so the probe below is meaningful
	for gl.GetError() != gl.NO_ERROR {
	}

	gl.GenQueries(timerRing, &t.queries[0])
	if gl.GetError() != gl.NO_ERROR || t.queries[0] == 0 {
		return t
	}
	t.available = true
	return t
}

// Available reports whether GPU timing is measured rather than estimated.
func (t *gpuTimer) Available() bool {
	return t.available
}

// Begin starts timing a frame. It reads back the oldest finished query
// first so the ring never blocks.
func (t *gpuTimer) Begin() {
	if !t.available || t.active {
		return
	}

	slot := t.slot % timerRing
	if t.pending[slot] {
		var ready int32
		gl.GetQueryObjectiv(t.queries[slot], gl.QUERY_RESULT_AVAILABLE, &ready)
		if ready == gl.FALSE {
			// Still in flight after a full ring; skip timing this frame.
			return
		}
		var ns uint64
		gl.GetQueryObjectui64v(t.queries[slot], gl.QUERY_RESULT, &ns)
		t.last = time.Duration(ns)
		t.hasResult = true
		t.pending[slot] = false
	}

	gl.BeginQuery(gl.TIME_ELAPSED, t.queries[slot])
	t.active = true
}

// End stops timing the current frame.
func (t *gpuTimer) End() {
	if !t.available || !t.active {
		return
	}
	gl.EndQuery(gl.TIME_ELAPSED)
	t.pending[t.slot%timerRing] = true
	t.slot++
	t.active = false
}

// Poll returns the latest measured GPU time. ok is false until the first
// query completes or when timing is unavailable.
func (t *gpuTimer) Poll() (time.Duration, bool) {
	return t.last, t.hasResult && t.available
}

func (t *gpuTimer) destroy() {
	if t.queries[0] != 0 {
		gl.DeleteQueries(timerRing, &t.queries[0])
	}
}
