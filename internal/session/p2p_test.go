package session

import (
	"testing"
	"time"

	"github.com/andersfylling/duelback/internal/event"
	"github.com/andersfylling/duelback/internal/frameinfo"
	"github.com/andersfylling/duelback/internal/inputqueue"
	"github.com/andersfylling/duelback/internal/network"
	"github.com/andersfylling/duelback/internal/peer"
	"github.com/andersfylling/duelback/internal/synclayer"
)

func fastPeerConfig() peer.Config {
	cfg := peer.DefaultConfig()
	cfg.SyncRoundTripsRequired = 2
	cfg.SendInterval = 0
	cfg.SilenceInterval = time.Hour
	cfg.QualityReportInterval = time.Hour
	cfg.DesyncInterval = 0
	return cfg
}

func newLoopbackSocket(t *testing.T) *network.Socket {
	t.Helper()
	s, err := network.NewSocket("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewSocket: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func pollUntilRunning(t *testing.T, sessions ...*P2PSession[struct{}, int]) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		ready := true
		for _, s := range sessions {
			s.PollRemoteClients()
			for _, p := range s.peers {
				if p.State() != peer.StateRunning {
					ready = false
				}
			}
		}
		if ready {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("peers never reached Running")
}

func TestP2PSessionHandshakeAndAdvance(t *testing.T) {
	sockA := newLoopbackSocket(t)
	sockB := newLoopbackSocket(t)

	builderA := NewSessionBuilder[struct{}, int](DefaultConfig(2), intCodec(), inputqueue.RepeatLastConfirmed[int]()).
		WithPeerConfig(fastPeerConfig()).
		WithSocket(sockA).
		AddLocalPlayer().
		AddRemotePlayer(sockB.LocalAddr())
	sessA, err := builderA.BuildP2P()
	if err != nil {
		t.Fatalf("BuildP2P(A): %v", err)
	}

	builderB := NewSessionBuilder[struct{}, int](DefaultConfig(2), intCodec(), inputqueue.RepeatLastConfirmed[int]()).
		WithPeerConfig(fastPeerConfig()).
		WithSocket(sockB).
		AddRemotePlayer(sockA.LocalAddr()).
		AddLocalPlayer()
	sessB, err := builderB.BuildP2P()
	if err != nil {
		t.Fatalf("BuildP2P(B): %v", err)
	}

	pollUntilRunning(t, sessA, sessB)

	localA, ok := sessA.LocalPlayerHandle()
	if !ok || localA != 0 {
		t.Fatalf("expected sessA local handle 0, got %d (%v)", localA, ok)
	}
	localB, ok := sessB.LocalPlayerHandle()
	if !ok || localB != 1 {
		t.Fatalf("expected sessB local handle 1, got %d (%v)", localB, ok)
	}

	for i := 0; i < 10; i++ {
		if err := sessA.AddLocalInput(0, i); err != nil {
			t.Fatalf("sessA AddLocalInput: %v", err)
		}
		if err := sessB.AddLocalInput(1, i*2); err != nil {
			t.Fatalf("sessB AddLocalInput: %v", err)
		}

		for retry := 0; retry < 200; retry++ {
			sessA.PollRemoteClients()
			sessB.PollRemoteClients()

			reqsA, errA := sessA.AdvanceFrame()
			if errA != nil && !isNotSynchronizedOrThreshold(errA) {
				t.Fatalf("sessA AdvanceFrame: %v", errA)
			}
			reqsB, errB := sessB.AdvanceFrame()
			if errB != nil && !isNotSynchronizedOrThreshold(errB) {
				t.Fatalf("sessB AdvanceFrame: %v", errB)
			}
			fulfillRequests(reqsA)
			fulfillRequests(reqsB)

			if errA == nil && errB == nil {
				break
			}
			time.Sleep(time.Millisecond)
		}
	}
}

func isNotSynchronizedOrThreshold(err error) bool {
	ferr, ok := err.(*frameinfo.Error)
	if !ok {
		return false
	}
	return ferr.Code == frameinfo.CodeNotSynchronized || ferr.Code == frameinfo.CodePredictionThreshold
}

func fulfillRequests(reqs []synclayer.Request[struct{}, int]) {
	for _, r := range reqs {
		if r.Kind == event.RequestSaveGameState {
			r.Cell.Save(r.Frame, struct{}{}, [16]byte{byte(r.Frame)})
		}
	}
}
