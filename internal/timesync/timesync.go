// Package timesync implements the frames-ahead estimator from §4.I: a
// median-based damping filter over a ring of frame-advantage samples
// exchanged via QualityReport/QualityReply.
package timesync

import "sort"

// defaultWindow is the sample ring size used unless a session overrides
// it; large enough to damp single-sample jitter. Samples arrive once per
// quality report, so a sustained change moves the median only after about
// half the window has been refilled.
const defaultWindow = 64

// Estimator tracks local and remote frame-advantage samples and reports
// how many frames, if any, the local peer should throttle by.
type Estimator struct {
	local  []int32
	remote []int32
	cap    int
	next   int
}

// New returns an estimator with the given ring capacity (0 uses the
// default of 64).
func New(capacity int) *Estimator {
	if capacity <= 0 {
		capacity = defaultWindow
	}
	return &Estimator{
		local:  make([]int32, 0, capacity),
		remote: make([]int32, 0, capacity),
		cap:    capacity,
	}
}

// RecordLocal adds a local frame-advantage sample (local_current_frame -
// remote_current_frame, as observed locally).
func (e *Estimator) RecordLocal(advantage int32) {
	e.local = pushRing(e.local, e.cap, advantage)
}

// RecordRemote adds a frame-advantage sample reported by the remote peer
// (the remote's own view of its advantage over us).
func (e *Estimator) RecordRemote(advantage int32) {
	e.remote = pushRing(e.remote, e.cap, advantage)
}

func pushRing(ring []int32, cap int, v int32) []int32 {
	if len(ring) < cap {
		return append(ring, v)
	}
	// Ring is full: drop the oldest sample, keep insertion order among
	// the remainder, append the new one at the end.
	copy(ring, ring[1:])
	ring[len(ring)-1] = v
	return ring
}

// FramesAhead returns max(0, min(median(local), -median(remote))): how
// many frames the local peer is running ahead and should throttle by.
// With no samples of one side yet, that side contributes no constraint.
func (e *Estimator) FramesAhead() int {
	haveLocal := len(e.local) > 0
	haveRemote := len(e.remote) > 0
	if !haveLocal && !haveRemote {
		return 0
	}

	raw := int32(0)
	switch {
	case haveLocal && haveRemote:
		localMed := median(e.local)
		remoteMed := median(e.remote)
		raw = min32(localMed, -remoteMed)
	case haveLocal:
		raw = median(e.local)
	default:
		raw = -median(e.remote)
	}

	if raw < 0 {
		return 0
	}
	return int(raw)
}

func median(samples []int32) int32 {
	sorted := append([]int32(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	// Even count: average the two middle samples, rounding toward zero.
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}
