package session

import (
	"github.com/andersfylling/duelback/internal/event"
	"github.com/andersfylling/duelback/internal/frameinfo"
	"github.com/andersfylling/duelback/internal/inputcodec"
	"github.com/andersfylling/duelback/internal/inputqueue"
	"github.com/andersfylling/duelback/internal/synclayer"
)

// SyncTestSession runs single-process with zero peers: every frame it
// force-rolls-back CheckDistance frames and resimulates forward,
// comparing the checksum the host recomputes against the one recorded
// on the first pass. It exists to diagnose nondeterminism in host
// simulation code, not to play a real match.
type SyncTestSession[S any, I comparable] struct {
	cfg   Config
	sync  *synclayer.SyncLayer[S, I]
	codec inputcodec.Codec[I]

	pending *syncTestProbe
}

// syncTestProbe remembers a checksum captured before a forced rollback so
// it can be compared once the host has had a chance to resimulate and
// resave that frame, which only happens after this tick's requests are
// fulfilled.
type syncTestProbe struct {
	frame    frameinfo.Frame
	original [16]byte
}

// NewSyncTestSession constructs a SyncTestSession for cfg.NumPlayers
// locally-driven players (the host supplies every player's input itself).
func NewSyncTestSession[S any, I comparable](cfg Config, predict inputqueue.Strategy[I], codec inputcodec.Codec[I]) *SyncTestSession[S, I] {
	layer := synclayer.New[S, I](synclayer.Config{
		NumPlayers:     cfg.NumPlayers,
		MaxPrediction:  cfg.MaxPredictionWindow,
		QueueLength:    cfg.QueueLength,
		SaveMode:       cfg.SaveMode,
		SparseInterval: cfg.SparseInterval,
	}, predict)

	for h := 0; h < cfg.NumPlayers; h++ {
		_ = layer.SetInputDelay(frameinfo.PlayerHandle(h), cfg.InputDelay)
	}

	return &SyncTestSession[S, I]{cfg: cfg, sync: layer, codec: codec}
}

// LocalPlayerHandle always reports false: every player in a SyncTest
// session is host-driven, there's no single distinguished local handle.
func (s *SyncTestSession[S, I]) LocalPlayerHandle() (frameinfo.PlayerHandle, bool) {
	return 0, false
}

// AddLocalInput feeds handle's input for the session's current frame.
func (s *SyncTestSession[S, I]) AddLocalInput(handle frameinfo.PlayerHandle, input I) error {
	return s.sync.AddLocalInput(handle, s.sync.CurrentFrame(), input)
}

// Events is always empty: SyncTestSession has no peers to generate
// network events, and a checksum mismatch surfaces as an error from
// AdvanceFrame, not an event.
func (s *SyncTestSession[S, I]) Events() []event.Event { return nil }

// CurrentState reports the session's progress. FramesAhead is always 0:
// there is no remote peer to be ahead of.
func (s *SyncTestSession[S, I]) CurrentState() State {
	return State{CurrentFrame: s.sync.CurrentFrame(), FramesAhead: 0}
}

// PollRemoteClients is a no-op: SyncTestSession has no peers.
func (s *SyncTestSession[S, I]) PollRemoteClients() {}

// AdvanceFrame steps the simulation forward, then, once enough history
// exists, probes the newest frame the host has already saved (the one
// before the frame just advanced), forces a rollback to CheckDistance
// frames before it and resimulates. The resimulated checksum can only be
// compared on the NEXT call, once the host has fulfilled this tick's
// SaveGameState request for the probed frame; a mismatch surfaces then as
// CodeMismatchedChecksum. Rollback targets before InputDelay are skipped:
// those frames never receive confirmed input, so their predicted inputs
// are not reproduced on resimulation.
func (s *SyncTestSession[S, I]) AdvanceFrame() ([]synclayer.Request[S, I], error) {
	if s.pending != nil {
		probe := s.pending
		s.pending = nil
		if cell := s.sync.CellFor(probe.frame); cell != nil {
			if resimulated, ok := cell.Checksum(); ok && resimulated != probe.original {
				return nil, frameinfo.Mismatch(probe.frame, checksumPrefix(probe.original), checksumPrefix(resimulated))
			}
		}
	}

	reqs, err := s.sync.AdvanceFrame()
	if err != nil {
		return nil, err
	}
	if s.cfg.CheckDistance <= 0 {
		return reqs, nil
	}

	// The frame just advanced is only saved once these requests are
	// fulfilled, so probe the one before it.
	probeFrame := s.sync.CurrentFrame() - 2
	if int(probeFrame) < s.cfg.CheckDistance {
		return reqs, nil
	}

	cell := s.sync.CellFor(probeFrame)
	if cell == nil {
		return reqs, nil
	}
	original, ok := cell.Checksum()
	if !ok {
		return reqs, nil
	}

	target := probeFrame.Add(-s.cfg.CheckDistance)
	if target < 0 || int(target) < s.cfg.InputDelay {
		return reqs, nil
	}

	extra, err := s.sync.ForceRollback(target)
	if err != nil {
		return nil, err
	}
	reqs = append(reqs, extra...)
	s.pending = &syncTestProbe{frame: probeFrame, original: original}

	return reqs, nil
}

// checksumPrefix compresses an opaque 128-bit checksum down to a uint64
// for the error type's display fields; it is never used for comparison.
func checksumPrefix(c [16]byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(c[i]) << (8 * i)
	}
	return v
}
