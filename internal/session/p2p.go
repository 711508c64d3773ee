package session

import (
	"time"

	"github.com/andersfylling/duelback/internal/event"
	"github.com/andersfylling/duelback/internal/frameinfo"
	"github.com/andersfylling/duelback/internal/inputcodec"
	"github.com/andersfylling/duelback/internal/inputqueue"
	"github.com/andersfylling/duelback/internal/network"
	"github.com/andersfylling/duelback/internal/peer"
	"github.com/andersfylling/duelback/internal/synclayer"
	"github.com/andersfylling/duelback/internal/wire"
)

// P2PSession is the full peer-to-peer rollback session: it owns one
// peer.Peer per remote player, a non-blocking socket, and the shared
// SyncLayer driving save/load/resimulate. Spectators are not supported.
type P2PSession[S any, I comparable] struct {
	cfg    Config
	sync   *synclayer.SyncLayer[S, I]
	socket *network.Socket
	codec  inputcodec.Codec[I]

	peers        map[frameinfo.PlayerHandle]*peer.Peer[S, I]
	addrToHandle map[string]frameinfo.PlayerHandle

	localHandle frameinfo.PlayerHandle
	hasLocal    bool

	events *event.Queue
}

// NewP2PSession builds a P2PSession. players is indexed by PlayerHandle;
// every PlayerRemote entry gets its own peer.Peer talking to
// players[handle].Address over socket, and a PlayerSpectator entry is
// rejected with an error. At most one PlayerLocal entry is expected.
func NewP2PSession[S any, I comparable](
	cfg Config,
	socket *network.Socket,
	predict inputqueue.Strategy[I],
	codec inputcodec.Codec[I],
	peerCfg peer.Config,
	players []frameinfo.PlayerType,
) (*P2PSession[S, I], error) {
	layer := synclayer.New[S, I](synclayer.Config{
		NumPlayers:     len(players),
		MaxPrediction:  cfg.MaxPredictionWindow,
		QueueLength:    cfg.QueueLength,
		SaveMode:       cfg.SaveMode,
		SparseInterval: cfg.SparseInterval,
	}, predict)

	sess := &P2PSession[S, I]{
		cfg:          cfg,
		sync:         layer,
		socket:       socket,
		codec:        codec,
		peers:        make(map[frameinfo.PlayerHandle]*peer.Peer[S, I]),
		addrToHandle: make(map[string]frameinfo.PlayerHandle),
		events:       event.NewQueue(),
	}

	now := time.Now()
	var localHandle frameinfo.PlayerHandle
	hasLocal := false
	for i, p := range players {
		handle := frameinfo.PlayerHandle(i)
		if p.Kind == frameinfo.PlayerLocal {
			localHandle = handle
			hasLocal = true
		}
	}
	if !hasLocal {
		return nil, frameinfo.Newf(frameinfo.CodeInvalidRequest, "session: P2PSession requires exactly one local player")
	}
	sess.localHandle = localHandle
	sess.hasLocal = true

	localQueue, err := layer.QueueFor(localHandle)
	if err != nil {
		return nil, err
	}
	if err := layer.SetInputDelay(localHandle, cfg.InputDelay); err != nil {
		return nil, err
	}

	remoteCount := 0
	for i, p := range players {
		handle := frameinfo.PlayerHandle(i)
		if p.Kind == frameinfo.PlayerLocal {
			continue
		}
		if p.Kind == frameinfo.PlayerSpectator {
			// A spectator has no input queue of its own; it follows the
			// confirmed combined stream through a SpectatorSession instead
			// of participating in this SyncLayer. A P2PSession that wants
			// to serve spectators forwards that stream out-of-band.
			return nil, frameinfo.Newf(frameinfo.CodeInvalidRequest, "session: P2PSession does not accept PlayerSpectator entries directly")
		}
		remoteQueue, err := layer.QueueFor(handle)
		if err != nil {
			return nil, err
		}
		pc := peerCfg
		if cfg.DesyncDetection {
			pc.DesyncInterval = cfg.DesyncInterval
		} else {
			pc.DesyncInterval = 0
		}
		pc.DisconnectTimeout = cfg.DisconnectTimeout
		pc.DisconnectNotifyStart = cfg.DisconnectNotifyStart

		pr := peer.New[S, I](pc, p.Address, handle, layer, localQueue, remoteQueue, codec, now)
		sess.peers[handle] = pr
		sess.addrToHandle[p.Address] = handle
		remoteCount++
	}
	if remoteCount == 0 {
		return nil, frameinfo.Newf(frameinfo.CodeInvalidRequest, "session: P2PSession requires at least one remote player")
	}

	return sess, nil
}

func (s *P2PSession[S, I]) LocalPlayerHandle() (frameinfo.PlayerHandle, bool) {
	return s.localHandle, s.hasLocal
}

func (s *P2PSession[S, I]) AddLocalInput(handle frameinfo.PlayerHandle, input I) error {
	if handle != s.localHandle {
		return frameinfo.New(frameinfo.CodeInvalidPlayerHandle).WithHandle(handle)
	}
	return s.sync.AddLocalInput(handle, s.sync.CurrentFrame(), input)
}

func (s *P2PSession[S, I]) Events() []event.Event { return s.events.Drain() }

// PeerHealth reports handle's desync-detection verdict, if handle names a
// peer this session owns.
func (s *P2PSession[S, I]) PeerHealth(handle frameinfo.PlayerHandle) (peer.SyncHealth, bool) {
	p, ok := s.peers[handle]
	if !ok {
		return peer.SyncHealthPending, false
	}
	return p.SyncHealth(), true
}

func (s *P2PSession[S, I]) CurrentState() State {
	maxAhead := 0
	for _, p := range s.peers {
		if ahead := p.FramesAhead(); ahead > maxAhead {
			maxAhead = ahead
		}
	}
	return State{CurrentFrame: s.sync.CurrentFrame(), FramesAhead: maxAhead}
}

// PollRemoteClients drains the socket, routes each datagram to its
// peer, and lets every peer emit whatever its timers demand.
func (s *P2PSession[S, I]) PollRemoteClients() {
	now := time.Now()

	for _, dg := range s.socket.ReceiveAll() {
		handle, ok := s.addrToHandle[dg.Addr]
		if !ok {
			continue
		}
		msg, err := wire.Decode(dg.Data)
		if err != nil {
			continue // malformed datagram: silently dropped per §7
		}
		if reply := s.peers[handle].HandleMessage(now, msg); reply != nil {
			_ = s.socket.SendTo(wire.Encode(reply), dg.Addr)
		}
	}

	for _, p := range s.peers {
		for _, msg := range p.Tick(now, s.sync.CurrentFrame()) {
			m := msg
			_ = s.socket.SendTo(wire.Encode(&m), p.Address())
		}
		s.events.PushAll(p.Events())
	}
}

// AdvanceFrame steps the simulation forward by one frame. It refuses to
// advance gameplay (CodeNotSynchronized) while any peer is still in its
// handshake.
func (s *P2PSession[S, I]) AdvanceFrame() ([]synclayer.Request[S, I], error) {
	for _, p := range s.peers {
		if p.State() != peer.StateRunning {
			return nil, frameinfo.New(frameinfo.CodeNotSynchronized)
		}
	}
	return s.sync.AdvanceFrame()
}
