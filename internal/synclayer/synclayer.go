// Package synclayer implements the rollback orchestrator described in
// §4.G: it owns one InputQueue per player and a SavedStates ring, and
// drives save/load/resimulate through a pseudo-contract AdvanceFrame that
// returns the requests a session must carry out.
package synclayer

import (
	"github.com/andersfylling/duelback/internal/event"
	"github.com/andersfylling/duelback/internal/frameinfo"
	"github.com/andersfylling/duelback/internal/inputqueue"
	"github.com/andersfylling/duelback/internal/savedstates"
)

// SaveMode selects whether every frame is saved, or only periodically.
type SaveMode uint8

const (
	SaveEveryFrame SaveMode = iota
	SaveSparse
)

// Config collects the subset of session configuration the sync layer
// needs (§6's configuration table).
type Config struct {
	NumPlayers        int
	MaxPrediction     int // 0 = lockstep
	QueueLength       int // default 128
	SaveMode          SaveMode
	SparseInterval    int // used when SaveMode == SaveSparse; approx average prediction depth
}

// SyncLayer orchestrates per-player input queues and a saved-state ring
// for one session. S is the host's opaque game-state type; I is the
// host's input type.
type SyncLayer[S any, I comparable] struct {
	cfg Config

	queues []*inputqueue.InputQueue[I]
	saved  *savedstates.SavedStates[S]

	currentFrame       frameinfo.Frame
	lastSavedFrame     frameinfo.Frame
	lastConfirmedFrame frameinfo.Frame

	requests *requestList[S, I]
}

// New constructs a SyncLayer for cfg.NumPlayers players, all sharing the
// given prediction strategy. Each player's queue may later be given a
// distinct input delay via SetInputDelay.
func New[S any, I comparable](cfg Config, predict inputqueue.Strategy[I]) *SyncLayer[S, I] {
	if cfg.QueueLength < 2 {
		cfg.QueueLength = inputqueue.DefaultCapacity
	}
	queues := make([]*inputqueue.InputQueue[I], cfg.NumPlayers)
	for i := range queues {
		queues[i] = inputqueue.New[I](cfg.QueueLength, i, predict)
	}

	capacity := cfg.MaxPrediction + 2
	return &SyncLayer[S, I]{
		cfg:                cfg,
		queues:              queues,
		saved:              savedstates.New[S](cfg.MaxPrediction),
		currentFrame:       0,
		lastSavedFrame:     frameinfo.NullFrame,
		lastConfirmedFrame: frameinfo.NullFrame,
		requests:           newRequestList[S, I](capacity),
	}
}

// CurrentFrame returns the frame the sync layer is about to (re)simulate.
func (s *SyncLayer[S, I]) CurrentFrame() frameinfo.Frame { return s.currentFrame }

// LastSavedFrame returns the most recent frame a SaveGameState request
// was emitted for.
func (s *SyncLayer[S, I]) LastSavedFrame() frameinfo.Frame { return s.lastSavedFrame }

// LastConfirmedFrame returns the most recent frame for which every
// player's input is known to be confirmed.
func (s *SyncLayer[S, I]) LastConfirmedFrame() frameinfo.Frame { return s.lastConfirmedFrame }

// QueueFor returns the underlying InputQueue for handle, for use by the
// peer protocol layer when pulling outgoing input or routing incoming
// input directly into a player's queue.
func (s *SyncLayer[S, I]) QueueFor(handle frameinfo.PlayerHandle) (*inputqueue.InputQueue[I], error) {
	if int(handle) < 0 || int(handle) >= len(s.queues) {
		return nil, frameinfo.New(frameinfo.CodeInvalidPlayerHandle)
	}
	return s.queues[handle], nil
}

// CellFor exposes the saved-state ring so the peer protocol can pull a
// checksum for a ChecksumReport or compare one received from a remote.
func (s *SyncLayer[S, I]) CellFor(frame frameinfo.Frame) *savedstates.GameStateCell[S] {
	return s.saved.Find(frame)
}

// SetInputDelay sets the input delay for one player's queue. Like
// InputQueue.SetFrameDelay, only legal before that queue has received
// any input.
func (s *SyncLayer[S, I]) SetInputDelay(handle frameinfo.PlayerHandle, delay int) error {
	if int(handle) < 0 || int(handle) >= len(s.queues) {
		return frameinfo.New(frameinfo.CodeInvalidPlayerHandle)
	}
	return s.queues[handle].SetFrameDelay(delay)
}

// AddLocalInput feeds a local player's input at frame into its queue.
// Returns PredictionThreshold if frame would run too far ahead of
// last_confirmed_frame for the configured max prediction window. In
// lockstep (MaxPrediction 0) this check is skipped: AdvanceFrame refuses
// to advance on any predicted input instead.
func (s *SyncLayer[S, I]) AddLocalInput(handle frameinfo.PlayerHandle, frame frameinfo.Frame, input I) error {
	if int(handle) < 0 || int(handle) >= len(s.queues) {
		return frameinfo.New(frameinfo.CodeInvalidPlayerHandle)
	}

	delta := int(frame) + 1
	if !s.lastConfirmedFrame.IsNull() {
		delta = int(frame) - int(s.lastConfirmedFrame)
	}
	if s.cfg.MaxPrediction > 0 && delta > s.cfg.MaxPrediction {
		return frameinfo.New(frameinfo.CodePredictionThreshold).WithFrame(frame).WithHandle(handle)
	}

	_, err := s.queues[handle].AddInput(inputqueue.PlayerInput[I]{Frame: frame, Input: input}, true)
	return err
}

// AddRemoteInput feeds a remote player's input into its queue. A
// non-sequential frame (a duplicate or already-applied datagram) is
// silently dropped rather than treated as an error — the peer protocol
// must survive arbitrary datagram loss/duplication.
func (s *SyncLayer[S, I]) AddRemoteInput(handle frameinfo.PlayerHandle, frame frameinfo.Frame, input I) error {
	if int(handle) < 0 || int(handle) >= len(s.queues) {
		return frameinfo.New(frameinfo.CodeInvalidPlayerHandle)
	}
	_, err := s.queues[handle].AddInput(inputqueue.PlayerInput[I]{Frame: frame, Input: input}, false)
	return err
}

// saveCurrentState returns the cell for frame, and records it as the most
// recently saved frame.
func (s *SyncLayer[S, I]) saveCurrentState(frame frameinfo.Frame) (*savedstates.GameStateCell[S], error) {
	cell, err := s.saved.GetCell(frame)
	if err != nil {
		return nil, err
	}
	s.lastSavedFrame = frame
	return cell, nil
}

// loadFrame validates that the saved-state ring actually holds frame,
// then repoints current_frame at it.
func (s *SyncLayer[S, I]) loadFrame(frame frameinfo.Frame) (*savedstates.GameStateCell[S], error) {
	cell := s.saved.Find(frame)
	if cell == nil {
		return nil, frameinfo.Newf(frameinfo.CodeInvalidFrame, "synclayer: no saved state for frame %s", frame)
	}
	s.currentFrame = frame
	return cell, nil
}

// nearestSavedFrameAtOrBefore walks backward from frame looking for a
// ring slot that actually holds a frame <= frame. Used by sparse-save
// rollback to find where to resume resimulation from.
func (s *SyncLayer[S, I]) nearestSavedFrameAtOrBefore(frame frameinfo.Frame) frameinfo.Frame {
	capacity := s.saved.Capacity()
	for i := 0; i <= capacity; i++ {
		candidate := frame.Add(-i)
		if candidate.IsNull() || candidate < 0 {
			break
		}
		if cell := s.saved.Find(candidate); cell != nil {
			return candidate
		}
	}
	return frameinfo.NullFrame
}

// inputsForFrame collects every player's input for frame, generating
// predictions for any player without a confirmed entry yet.
func (s *SyncLayer[S, I]) inputsForFrame(frame frameinfo.Frame) []event.PlayerInputRef[I] {
	refs := make([]event.PlayerInputRef[I], len(s.queues))
	for i, q := range s.queues {
		in, status := q.Input(frame)
		refs[i] = event.PlayerInputRef[I]{
			Handle: frameinfo.PlayerHandle(i),
			Input:  in.Input,
			Status: status,
		}
	}
	return refs
}

func (s *SyncLayer[S, I]) shouldSave(frameSinceLoad int) bool {
	if s.cfg.MaxPrediction == 0 {
		// Lockstep never predicts, so it never rolls back: a saved state
		// would never be loaded. §8 S6 requires AdvanceFrame alone.
		return false
	}
	if s.cfg.SaveMode == SaveEveryFrame {
		return true
	}
	interval := s.cfg.SparseInterval
	if interval < 1 {
		interval = 1
	}
	return frameSinceLoad%interval == 0
}

// minFirstIncorrectFrame returns the minimum first_incorrect_frame across
// every queue that has one set, or NullFrame if none do.
func (s *SyncLayer[S, I]) minFirstIncorrectFrame() frameinfo.Frame {
	min := frameinfo.NullFrame
	for _, q := range s.queues {
		f := q.FirstIncorrectFrame()
		if f.IsNull() {
			continue
		}
		if min.IsNull() || f < min {
			min = f
		}
	}
	return min
}

// AdvanceFrame is the driver pseudo-contract from §4.G: it collects
// inputs for current_frame, detects and runs a rollback if any queue's
// first_incorrect_frame demands one, then steps current_frame forward by
// one. It returns the requests the host must carry out, in strict
// (rollback load) -> (save, advance)* -> (save, advance) order.
func (s *SyncLayer[S, I]) AdvanceFrame() ([]Request[S, I], error) {
	s.requests.reset()

	targetFrame := s.currentFrame
	inputs := s.inputsForFrame(targetFrame)
	if s.cfg.MaxPrediction == 0 {
		for _, ref := range inputs {
			if ref.Status == frameinfo.InputPredicted {
				return nil, frameinfo.New(frameinfo.CodePredictionThreshold).WithFrame(targetFrame)
			}
		}
	} else {
		for _, ref := range inputs {
			if ref.Status != frameinfo.InputPredicted {
				continue
			}
			delta := int(targetFrame) + 1
			if !s.lastConfirmedFrame.IsNull() {
				delta = int(targetFrame) - int(s.lastConfirmedFrame)
			}
			if delta >= s.cfg.MaxPrediction {
				return nil, frameinfo.New(frameinfo.CodePredictionThreshold).WithFrame(targetFrame)
			}
		}
	}

	syncFrame := s.minFirstIncorrectFrame()
	if !syncFrame.IsNull() && syncFrame < targetFrame {
		if err := s.runRollback(syncFrame, targetFrame); err != nil {
			return nil, err
		}
	}

	// Forward step to targetFrame (== s.currentFrame at this point,
	// whether or not a rollback ran).
	s.stepForward(s.currentFrame, 0)
	s.currentFrame++

	if allConfirmed(inputs) && (s.lastConfirmedFrame.IsNull() || targetFrame > s.lastConfirmedFrame) {
		s.lastConfirmedFrame = targetFrame
	}

	return s.requests.slice(), nil
}

// ForceRollback reloads targetFrame and resimulates forward through the
// current frame, emitting the same requests as a rollback triggered by a
// misprediction. Unlike that rollback it leaves last_confirmed_frame
// unchanged, since no input was contradicted.
// Used by SyncTestSession to probe determinism: targetFrame must be a
// valid, already-saved frame strictly before the current frame.
func (s *SyncLayer[S, I]) ForceRollback(targetFrame frameinfo.Frame) ([]Request[S, I], error) {
	if targetFrame.IsNull() || targetFrame < 0 || !(targetFrame < s.currentFrame) {
		return nil, frameinfo.New(frameinfo.CodeInvalidFrame).WithFrame(targetFrame)
	}
	s.requests.reset()
	lastConfirmed := s.lastConfirmedFrame
	if err := s.runRollback(targetFrame, s.currentFrame); err != nil {
		return nil, err
	}
	s.lastConfirmedFrame = lastConfirmed
	return s.requests.slice(), nil
}

func allConfirmed[I any](refs []event.PlayerInputRef[I]) bool {
	for _, r := range refs {
		if r.Status != frameinfo.InputConfirmed {
			return false
		}
	}
	return true
}

// runRollback loads the appropriate saved state and resimulates forward
// from syncFrame through targetFrame-1, leaving current_frame ==
// targetFrame once complete (the caller's forward step then handles
// targetFrame itself).
func (s *SyncLayer[S, I]) runRollback(syncFrame, targetFrame frameinfo.Frame) error {
	loadFrame := syncFrame
	if s.cfg.SaveMode == SaveSparse {
		if nearest := s.nearestSavedFrameAtOrBefore(syncFrame); !nearest.IsNull() {
			loadFrame = nearest
		}
	}

	cell, err := s.loadFrame(loadFrame)
	if err != nil {
		return err
	}
	s.requests.append(Request[S, I]{Kind: event.RequestLoadGameState, Frame: loadFrame, Cell: cell})

	for s.currentFrame < targetFrame {
		s.stepForward(s.currentFrame, int(s.currentFrame-loadFrame))
		s.currentFrame++
	}

	for _, q := range s.queues {
		q.ResetPrediction()
	}
	if syncFrame > 0 {
		s.lastConfirmedFrame = syncFrame - 1
	} else {
		s.lastConfirmedFrame = frameinfo.NullFrame
	}

	return nil
}

// stepForward emits the (save, advance) request pair for frame.
// frameSinceLoad is 0 outside a rollback (always save); inside a
// rollback it's the offset from the reload point, used to decide
// whether a sparse save mode wants this frame saved.
func (s *SyncLayer[S, I]) stepForward(frame frameinfo.Frame, frameSinceLoad int) {
	if s.shouldSave(frameSinceLoad) {
		cell, err := s.saveCurrentState(frame)
		if err == nil {
			s.requests.append(Request[S, I]{Kind: event.RequestSaveGameState, Frame: frame, Cell: cell})
		}
	}

	s.requests.append(Request[S, I]{
		Kind:   event.RequestAdvanceFrame,
		Frame:  frame,
		Inputs: s.inputsForFrame(frame),
	})
}
