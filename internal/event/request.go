package event

import "github.com/andersfylling/duelback/internal/frameinfo"

// RequestKind is the closed 3-variant set of requests a sync layer emits
// from advance_frame for the host to carry out.
type RequestKind uint8

const (
	RequestSaveGameState RequestKind = iota
	RequestLoadGameState
	RequestAdvanceFrame
)

func (k RequestKind) String() string {
	switch k {
	case RequestSaveGameState:
		return "SaveGameState"
	case RequestLoadGameState:
		return "LoadGameState"
	case RequestAdvanceFrame:
		return "AdvanceFrame"
	default:
		return "Unknown"
	}
}

// PlayerInputRef is one player's input for an AdvanceFrame request, along
// with whether it was confirmed or predicted — the host may want to know
// this for diagnostics, though it must simulate identically either way.
type PlayerInputRef[I any] struct {
	Handle frameinfo.PlayerHandle
	Input  I
	Status frameinfo.InputStatus
}

// Request is the exhaustively matchable request type returned from
// advance_frame. Exactly one field is meaningful, selected by Kind.
type Request[I any] struct {
	Kind RequestKind

	// SaveGameState / LoadGameState.
	Frame frameinfo.Frame

	// AdvanceFrame.
	Inputs []PlayerInputRef[I]
}

// defaultRequestCapacity is the fallback size when NewRequests is given
// no usable capacity. It holds a forward step and short rollbacks; a
// rollback across the default max_prediction_window of 8 (a load, a
// save+advance pair per resimulated frame, then the forward pair) emits
// 19 requests, so the slice grows for such a tick.
const defaultRequestCapacity = 10

// Requests is a small FIFO of Request values filled during one
// advance_frame call, reused across calls to avoid per-tick allocation.
type Requests[I any] struct {
	buf []Request[I]
}

// NewRequests returns an empty request list sized for cap requests
// (typically max_prediction_window+2, per the spec's sizing note).
func NewRequests[I any](capacity int) *Requests[I] {
	if capacity < 1 {
		capacity = defaultRequestCapacity
	}
	return &Requests[I]{buf: make([]Request[I], 0, capacity)}
}

// Reset empties the list, retaining its backing array.
func (r *Requests[I]) Reset() { r.buf = r.buf[:0] }

// Append adds a request to the end of the list.
func (r *Requests[I]) Append(req Request[I]) { r.buf = append(r.buf, req) }

// Slice returns the requests accumulated since the last Reset, in order.
func (r *Requests[I]) Slice() []Request[I] { return r.buf }
