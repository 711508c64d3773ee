package synclayer

import (
	"github.com/andersfylling/duelback/internal/event"
	"github.com/andersfylling/duelback/internal/frameinfo"
	"github.com/andersfylling/duelback/internal/savedstates"
)

// Request is the exhaustively matchable request type emitted from
// AdvanceFrame (§4.J/4.K), specialized to the host's state type S and
// input type I. Exactly one of Cell/Inputs is meaningful, selected by
// Kind.
type Request[S any, I any] struct {
	Kind  event.RequestKind
	Frame frameinfo.Frame

	// SaveGameState / LoadGameState: the cell the host must fill (Save)
	// or read (Load) for Frame.
	Cell *savedstates.GameStateCell[S]

	// AdvanceFrame: the per-player input for Frame.
	Inputs []event.PlayerInputRef[I]
}

// requestList is a reused, growable request buffer, avoiding a fresh
// allocation on every AdvanceFrame call in the common (non-rollback) case.
type requestList[S any, I any] struct {
	buf []Request[S, I]
}

func newRequestList[S any, I any](capacity int) *requestList[S, I] {
	if capacity < 1 {
		capacity = 10
	}
	return &requestList[S, I]{buf: make([]Request[S, I], 0, capacity)}
}

func (r *requestList[S, I]) reset() { r.buf = r.buf[:0] }

func (r *requestList[S, I]) append(req Request[S, I]) { r.buf = append(r.buf, req) }

func (r *requestList[S, I]) slice() []Request[S, I] { return r.buf }
