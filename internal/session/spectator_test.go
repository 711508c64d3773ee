package session

import (
	"testing"
	"time"

	"github.com/andersfylling/duelback/internal/frameinfo"
	"github.com/andersfylling/duelback/internal/inputqueue"
	"github.com/andersfylling/duelback/internal/peer"
	"github.com/andersfylling/duelback/internal/synclayer"
)

// newHostPeer builds a bare peer.Peer standing in for the host side of a
// spectator connection: it owns the single player's real queue and keeps
// feeding confirmed input into it, exactly like P2PSession's own peers do.
func newHostPeer(t *testing.T, addr string) (*peer.Peer[struct{}, int], *inputqueue.InputQueue[int]) {
	t.Helper()
	layer := synclayer.New[struct{}, int](synclayer.Config{
		NumPlayers: 1, MaxPrediction: 8, QueueLength: 256, SaveMode: synclayer.SaveEveryFrame,
	}, inputqueue.RepeatLastConfirmed[int]())
	q, err := layer.QueueFor(0)
	if err != nil {
		t.Fatalf("QueueFor: %v", err)
	}
	now := time.Now()
	return peer.New[struct{}, int](fastPeerConfig(), addr, 0, layer, q, q, intCodec(), now), q
}

func TestSpectatorSessionReportsTooFarBehind(t *testing.T) {
	host, hostQueue := newHostPeer(t, "spectator")

	cfg := DefaultConfig(1)
	cfg.MaxFramesBehind = 5
	cfg.CatchupSpeed = 2
	builder := NewSessionBuilder[struct{}, int](cfg, intCodec(), inputqueue.RepeatLastConfirmed[int]())

	specSocket := newLoopbackSocket(t)
	builder = builder.WithPeerConfig(fastPeerConfig()).WithSocket(specSocket).AddSpectator(host.Address())
	spec, err := builder.BuildSpectator()
	if err != nil {
		t.Fatalf("BuildSpectator: %v", err)
	}

	// Manually drive the handshake between host and spec, since host is a
	// bare peer.Peer rather than a full session. Both sides are ticked on
	// one clock starting from the wall-clock time both peers were built
	// with, and each side's SyncRequests reach the other.
	now := time.Now()
	for i := 0; i < 20; i++ {
		now = now.Add(time.Millisecond)
		for _, m := range host.Tick(now, 0) {
			msg := m
			if reply := spec.peers[0].HandleMessage(now, &msg); reply != nil {
				host.HandleMessage(now, reply)
			}
		}
		for _, m := range spec.peers[0].Tick(now, 0) {
			msg := m
			if reply := host.HandleMessage(now, &msg); reply != nil {
				spec.peers[0].HandleMessage(now, reply)
			}
		}
		if host.State() == peer.StateRunning && spec.peers[0].State() == peer.StateRunning {
			break
		}
	}
	if spec.peers[0].State() != peer.StateRunning {
		t.Fatalf("spectator peer never reached Running")
	}

	// Host races ahead by adding and ticking several confirmed frames
	// before the spectator is allowed to advance at all.
	for f := frameinfo.Frame(0); f < 12; f++ {
		if _, err := hostQueue.AddInput(inputqueue.PlayerInput[int]{Frame: f, Input: int(f)}, true); err != nil {
			t.Fatalf("AddInput: %v", err)
		}
	}
	for _, m := range host.Tick(now, 12) {
		msg := m
		spec.peers[0].HandleMessage(now, &msg)
	}

	if _, err := spec.AdvanceFrame(); err == nil {
		t.Fatalf("expected SpectatorTooFarBehind once the host is more than MaxFramesBehind ahead")
	} else if ferr, ok := err.(*frameinfo.Error); !ok || ferr.Code != frameinfo.CodeSpectatorTooFarBehind {
		t.Fatalf("expected CodeSpectatorTooFarBehind, got %v", err)
	}
}
