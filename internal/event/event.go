// Package event implements the bounded FIFO event queue and the request
// vector returned from a session's advance_frame (§4.K). Both avoid
// per-tick heap churn by reusing a small backing slice across calls
// instead of allocating a fresh container every tick.
package event

import "github.com/andersfylling/duelback/internal/frameinfo"

// Kind tags an Event's concrete payload.
type Kind uint8

const (
	KindNetworkInterrupted Kind = iota
	KindNetworkResumed
	KindDisconnected
	KindSynchronized
	KindDesyncDetected
	KindSyncTestMismatch
)

func (k Kind) String() string {
	switch k {
	case KindNetworkInterrupted:
		return "NetworkInterrupted"
	case KindNetworkResumed:
		return "NetworkResumed"
	case KindDisconnected:
		return "Disconnected"
	case KindSynchronized:
		return "Synchronized"
	case KindDesyncDetected:
		return "DesyncDetected"
	case KindSyncTestMismatch:
		return "SyncTestMismatch"
	default:
		return "Unknown"
	}
}

// Event is a host-facing notification drained from a Session.
type Event struct {
	Kind   Kind
	Handle frameinfo.PlayerHandle // meaningful for per-peer events

	// DesyncDetected / SyncTestMismatch payload.
	Frame  frameinfo.Frame
	Local  [16]byte
	Remote [16]byte
}

// defaultQueueCapacity comfortably covers a handful of events per tick
// (one per peer transitioning state, plus a desync report) without the
// queue ever needing to grow in the common case.
const defaultQueueCapacity = 16

// Queue is a bounded FIFO of Events, drained once per tick by the host.
// It reuses its backing array across Drain calls.
type Queue struct {
	buf []Event
}

// NewQueue returns an empty event queue.
func NewQueue() *Queue {
	return &Queue{buf: make([]Event, 0, defaultQueueCapacity)}
}

// Push appends an event to the back of the queue.
func (q *Queue) Push(e Event) {
	q.buf = append(q.buf, e)
}

// PushAll appends every event in es to the back of the queue.
func (q *Queue) PushAll(es []Event) {
	q.buf = append(q.buf, es...)
}

// Len reports the number of events currently queued.
func (q *Queue) Len() int { return len(q.buf) }

// Drain returns every queued event in arrival order and empties the
// queue, retaining its backing array for reuse.
func (q *Queue) Drain() []Event {
	out := make([]Event, len(q.buf))
	copy(out, q.buf)
	q.buf = q.buf[:0]
	return out
}
