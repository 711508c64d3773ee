// Package peer implements the per-remote protocol state machine from
// §4.H: handshake, compressed input exchange with implicit retransmission,
// heartbeat-driven disconnect detection, time-sync quality reports, and
// checksum-based desync detection.
package peer

import (
	"math/rand"
	"time"

	"github.com/andersfylling/duelback/internal/event"
	"github.com/andersfylling/duelback/internal/frameinfo"
	"github.com/andersfylling/duelback/internal/inputcodec"
	"github.com/andersfylling/duelback/internal/inputqueue"
	"github.com/andersfylling/duelback/internal/synclayer"
	"github.com/andersfylling/duelback/internal/timesync"
	"github.com/andersfylling/duelback/internal/wire"
)

// State is this peer's position in the Syncing -> Running -> Disconnected
// state machine.
type State uint8

const (
	StateSyncing State = iota
	StateRunning
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateSyncing:
		return "Syncing"
	case StateRunning:
		return "Running"
	case StateDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// SyncHealth is the peer's current desync-detection verdict.
type SyncHealth uint8

const (
	SyncHealthPending SyncHealth = iota
	SyncHealthInSync
	SyncHealthDesyncDetected
)

func (h SyncHealth) String() string {
	switch h {
	case SyncHealthPending:
		return "Pending"
	case SyncHealthInSync:
		return "InSync"
	case SyncHealthDesyncDetected:
		return "DesyncDetected"
	default:
		return "Unknown"
	}
}

// Config collects the tunables from §4.H/§6 that govern one peer's
// protocol timing.
type Config struct {
	SyncRoundTripsRequired int           // default 5
	SendInterval           time.Duration // default ~17ms
	SilenceInterval        time.Duration // default 200ms: send KeepAlive if quieter than this
	DisconnectNotifyStart  time.Duration // default 750ms
	DisconnectTimeout      time.Duration // default 5s
	QualityReportInterval  time.Duration // default 1s
	DesyncInterval         int           // frames; 0 = Off
	FrameAdvantageWindow   int           // default 64
}

// DefaultConfig returns the conservative defaults named throughout §4.H.
func DefaultConfig() Config {
	return Config{
		SyncRoundTripsRequired: 5,
		SendInterval:           17 * time.Millisecond,
		SilenceInterval:        200 * time.Millisecond,
		DisconnectNotifyStart:  750 * time.Millisecond,
		DisconnectTimeout:      5 * time.Second,
		QualityReportInterval:  time.Second,
		DesyncInterval:         60,
		FrameAdvantageWindow:   64,
	}
}

// Peer drives the protocol conversation with one remote endpoint. S is
// the host's game-state type (needed only to read checksums out of the
// local SyncLayer's saved-state ring); I is the host's input type.
type Peer[S any, I comparable] struct {
	cfg   Config
	addr  string
	codec inputcodec.Codec[I]

	local  *synclayer.SyncLayer[S, I]
	handle frameinfo.PlayerHandle // which player handle this remote drives

	localQueue  *inputqueue.InputQueue[I]
	remoteQueue *inputqueue.InputQueue[I]

	state          State
	localMagic     uint16
	remoteMagic    uint16
	syncRoundTrips int

	lastAcked        frameinfo.Frame // left edge of the resend window
	lastCheckedFrame frameinfo.Frame // last frame a ChecksumReport was sent for

	lastSendTime     time.Time
	lastInputOrKATime time.Time
	lastQualityTime  time.Time
	lastRecvTime     time.Time
	notifiedInterrupted bool

	estimator *timesync.Estimator

	syncHealth SyncHealth
	events     *event.Queue
}

// New constructs a Peer for the remote at addr, representing player
// handle, exchanging input with local (our queue) and remote (theirs).
// now is used to seed the idle timers so a freshly created peer isn't
// immediately judged silent.
func New[S any, I comparable](
	cfg Config,
	addr string,
	handle frameinfo.PlayerHandle,
	local *synclayer.SyncLayer[S, I],
	localQueue, remoteQueue *inputqueue.InputQueue[I],
	codec inputcodec.Codec[I],
	now time.Time,
) *Peer[S, I] {
	return &Peer[S, I]{
		cfg:              cfg,
		addr:             addr,
		codec:            codec,
		local:            local,
		handle:           handle,
		localQueue:       localQueue,
		remoteQueue:      remoteQueue,
		state:            StateSyncing,
		localMagic:       uint16(rand.Intn(1 << 16)),
		lastAcked:        frameinfo.NullFrame,
		lastCheckedFrame: frameinfo.NullFrame,
		lastSendTime:     now,
		lastInputOrKATime: now,
		lastQualityTime:  now,
		lastRecvTime:     now,
		estimator:        timesync.New(cfg.FrameAdvantageWindow),
		syncHealth:       SyncHealthPending,
		events:           event.NewQueue(),
	}
}

// State returns the peer's current protocol state.
func (p *Peer[S, I]) State() State { return p.state }

// SyncHealth returns the peer's current desync-detection verdict.
func (p *Peer[S, I]) SyncHealth() SyncHealth { return p.syncHealth }

// FramesAhead reports how many frames the local side is estimated to be
// running ahead of this peer (§4.I); the session uses this to throttle.
func (p *Peer[S, I]) FramesAhead() int { return p.estimator.FramesAhead() }

// Events drains events queued for this peer since the last call.
func (p *Peer[S, I]) Events() []event.Event { return p.events.Drain() }

// Address returns the remote endpoint this peer talks to.
func (p *Peer[S, I]) Address() string { return p.addr }

func (p *Peer[S, I]) header() wire.Header {
	return wire.Header{Magic: p.localMagic}
}
