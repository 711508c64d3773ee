package session

import (
	"time"

	"github.com/andersfylling/duelback/internal/synclayer"
)

// Config enumerates every option from §6, with the spec's named
// defaults applied by DefaultConfig.
type Config struct {
	NumPlayers           int
	MaxPredictionWindow  int // default 8; 0 = lockstep
	InputDelay           int // default 2
	FPS                  int // informational, used for time-sync scaling
	SaveMode             synclayer.SaveMode
	SparseInterval       int // used when SaveMode == SaveSparse
	DesyncDetection      bool
	DesyncInterval       int // frames; meaningful only if DesyncDetection
	DisconnectTimeout    time.Duration
	DisconnectNotifyStart time.Duration
	QueueLength          int // default 128, must be >= 2

	MaxFramesBehind int // spectator catch-up threshold
	CatchupSpeed    int // spectator frames processed per tick while catching up

	CheckDistance int // synctest rollback depth forced every frame
}

// DefaultConfig returns the conservative defaults named in §6's
// configuration table.
func DefaultConfig(numPlayers int) Config {
	return Config{
		NumPlayers:            numPlayers,
		MaxPredictionWindow:   8,
		InputDelay:            2,
		FPS:                   60,
		SaveMode:              synclayer.SaveEveryFrame,
		DesyncDetection:       false,
		DisconnectTimeout:     5 * time.Second,
		DisconnectNotifyStart: 750 * time.Millisecond,
		QueueLength:           128,
		MaxFramesBehind:       5,
		CatchupSpeed:          2,
		CheckDistance:         7,
	}
}
