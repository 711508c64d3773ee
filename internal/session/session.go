// Package session implements the three session variants from §4.J:
// P2PSession, SpectatorSession, and SyncTestSession, all built through a
// shared SessionBuilder and exposing the common Session surface.
package session

import (
	"github.com/andersfylling/duelback/internal/event"
	"github.com/andersfylling/duelback/internal/frameinfo"
	"github.com/andersfylling/duelback/internal/synclayer"
)

// State is a snapshot of a session's progress, returned by CurrentState.
type State struct {
	CurrentFrame frameinfo.Frame
	FramesAhead  int
}

// Session is the common surface every session variant implements.
type Session[S any, I comparable] interface {
	// AdvanceFrame drives the simulation forward by one frame and returns
	// the requests the host must carry out, in strict order.
	AdvanceFrame() ([]synclayer.Request[S, I], error)

	// LocalPlayerHandle returns this session's local player, if it has one.
	LocalPlayerHandle() (frameinfo.PlayerHandle, bool)

	// AddLocalInput feeds the local player's input for the current frame.
	AddLocalInput(handle frameinfo.PlayerHandle, input I) error

	// Events drains events queued since the last call.
	Events() []event.Event

	// CurrentState reports the session's current progress.
	CurrentState() State

	// PollRemoteClients drains the socket and feeds peers; a no-op for
	// SyncTestSession, which has none.
	PollRemoteClients()
}
