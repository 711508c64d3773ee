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

// SpectatorSession is a passive follower: it never supplies local input,
// only receives the host's broadcast input stream for every real player
// and replays it. Each real player's stream arrives over its own logical
// connection (its own PlayerType.Address), the same as a P2PSession peer.
type SpectatorSession[S any, I comparable] struct {
	cfg    Config
	sync   *synclayer.SyncLayer[S, I]
	socket *network.Socket
	codec  inputcodec.Codec[I]

	peers        map[frameinfo.PlayerHandle]*peer.Peer[S, I]
	addrToHandle map[string]frameinfo.PlayerHandle
	queues       []*inputqueue.InputQueue[I]

	events *event.Queue
}

// NewSpectatorSession builds a SpectatorSession following players, none of
// which may be PlayerLocal.
func NewSpectatorSession[S any, I comparable](
	cfg Config,
	socket *network.Socket,
	predict inputqueue.Strategy[I],
	codec inputcodec.Codec[I],
	peerCfg peer.Config,
	players []frameinfo.PlayerType,
) (*SpectatorSession[S, I], error) {
	layer := synclayer.New[S, I](synclayer.Config{
		NumPlayers:     len(players),
		MaxPrediction:  cfg.MaxPredictionWindow,
		QueueLength:    cfg.QueueLength,
		SaveMode:       cfg.SaveMode,
		SparseInterval: cfg.SparseInterval,
	}, predict)

	sess := &SpectatorSession[S, I]{
		cfg:          cfg,
		sync:         layer,
		socket:       socket,
		codec:        codec,
		peers:        make(map[frameinfo.PlayerHandle]*peer.Peer[S, I]),
		addrToHandle: make(map[string]frameinfo.PlayerHandle),
		queues:       make([]*inputqueue.InputQueue[I], len(players)),
		events:       event.NewQueue(),
	}

	now := time.Now()
	for i, p := range players {
		if p.Kind == frameinfo.PlayerLocal {
			return nil, frameinfo.Newf(frameinfo.CodeInvalidRequest, "session: SpectatorSession cannot have a local player")
		}
		handle := frameinfo.PlayerHandle(i)
		q, err := layer.QueueFor(handle)
		if err != nil {
			return nil, err
		}
		sess.queues[i] = q

		pc := peerCfg
		pc.DisconnectTimeout = cfg.DisconnectTimeout
		pc.DisconnectNotifyStart = cfg.DisconnectNotifyStart
		pc.DesyncInterval = 0 // a spectator never owns authoritative state to checksum

		// A spectator has no input of its own; it passes the same queue as
		// both the local and the remote side so the protocol state machine
		// still has something to reference. Once input has arrived, the
		// peer's outgoing Input messages therefore carry that received
		// input back to the player.
		pr := peer.New[S, I](pc, p.Address, handle, layer, q, q, codec, now)
		sess.peers[handle] = pr
		sess.addrToHandle[p.Address] = handle
	}

	return sess, nil
}

func (s *SpectatorSession[S, I]) LocalPlayerHandle() (frameinfo.PlayerHandle, bool) { return 0, false }

// AddLocalInput always fails: a spectator never supplies input.
func (s *SpectatorSession[S, I]) AddLocalInput(frameinfo.PlayerHandle, I) error {
	return frameinfo.Newf(frameinfo.CodeInvalidRequest, "session: SpectatorSession cannot add local input")
}

func (s *SpectatorSession[S, I]) Events() []event.Event { return s.events.Drain() }

// PeerHealth reports handle's desync-detection verdict, if handle names a
// peer this session follows.
func (s *SpectatorSession[S, I]) PeerHealth(handle frameinfo.PlayerHandle) (peer.SyncHealth, bool) {
	p, ok := s.peers[handle]
	if !ok {
		return peer.SyncHealthPending, false
	}
	return p.SyncHealth(), true
}

func (s *SpectatorSession[S, I]) CurrentState() State {
	maxAhead := 0
	for _, p := range s.peers {
		if ahead := p.FramesAhead(); ahead > maxAhead {
			maxAhead = ahead
		}
	}
	return State{CurrentFrame: s.sync.CurrentFrame(), FramesAhead: maxAhead}
}

func (s *SpectatorSession[S, I]) PollRemoteClients() {
	now := time.Now()

	for _, dg := range s.socket.ReceiveAll() {
		handle, ok := s.addrToHandle[dg.Addr]
		if !ok {
			continue
		}
		msg, err := wire.Decode(dg.Data)
		if err != nil {
			continue
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

// hostProgress estimates how far the host has advanced, as the minimum
// last-added frame across every followed player's queue.
func (s *SpectatorSession[S, I]) hostProgress() (frameinfo.Frame, bool) {
	have := false
	var min frameinfo.Frame
	for _, q := range s.queues {
		last := q.LastAddedFrame()
		if last.IsNull() {
			return frameinfo.NullFrame, false
		}
		if !have || last < min {
			min = last
			have = true
		}
	}
	return min, have
}

// AdvanceFrame replays as many frames as the host's confirmed input allows,
// up to cfg.CatchupSpeed per call while catching up. It returns
// CodeSpectatorTooFarBehind if the gap exceeds cfg.MaxFramesBehind.
func (s *SpectatorSession[S, I]) AdvanceFrame() ([]synclayer.Request[S, I], error) {
	for _, p := range s.peers {
		if p.State() != peer.StateRunning {
			return nil, frameinfo.New(frameinfo.CodeNotSynchronized)
		}
	}

	progress, ok := s.hostProgress()
	if !ok {
		return nil, nil // no player has produced any input yet
	}

	behind := int(progress - s.sync.CurrentFrame())
	if behind > s.cfg.MaxFramesBehind {
		return nil, frameinfo.New(frameinfo.CodeSpectatorTooFarBehind)
	}
	if behind <= 0 {
		return nil, nil // caught up; nothing new to replay this tick
	}

	steps := 1
	if s.cfg.CatchupSpeed > 1 && behind > 1 {
		steps = s.cfg.CatchupSpeed
		if steps > behind {
			steps = behind
		}
	}

	var all []synclayer.Request[S, I]
	for i := 0; i < steps; i++ {
		reqs, err := s.sync.AdvanceFrame()
		if err != nil {
			return all, err
		}
		all = append(all, reqs...)
	}
	return all, nil
}
