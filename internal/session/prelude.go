package session

import (
	"github.com/andersfylling/duelback/internal/event"
	"github.com/andersfylling/duelback/internal/frameinfo"
	"github.com/andersfylling/duelback/internal/synclayer"
)

// These aliases let a host import only internal/session for the common
// path instead of reaching into frameinfo/event/synclayer for the handful
// of types it touches on every tick.
type (
	Frame        = frameinfo.Frame
	PlayerHandle = frameinfo.PlayerHandle
	PlayerType   = frameinfo.PlayerType
	Event        = event.Event
	Request[S any, I any] = synclayer.Request[S, I]
)

const NullFrame = frameinfo.NullFrame
