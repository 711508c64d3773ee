package savedstates

import "github.com/andersfylling/duelback/internal/frameinfo"

// SavedStates is a fixed-size ring of GameStateCell, one slot per frame
// modulo its capacity. Capacity is max_prediction_window+1: the deepest a
// rollback can reach, plus the frame currently being saved.
type SavedStates[S any] struct {
	cells []*GameStateCell[S]
}

// New returns a ring sized for a max prediction window of maxPrediction
// frames (capacity = maxPrediction+1).
func New[S any](maxPrediction int) *SavedStates[S] {
	capacity := maxPrediction + 1
	if capacity < 1 {
		capacity = 1
	}
	cells := make([]*GameStateCell[S], capacity)
	for i := range cells {
		cells[i] = NewGameStateCell[S]()
	}
	return &SavedStates[S]{cells: cells}
}

// Capacity returns the number of slots in the ring.
func (s *SavedStates[S]) Capacity() int { return len(s.cells) }

// GetCell returns the cell assigned to frame. It returns an error only
// for a negative/null frame; a cell whose stored Frame() doesn't match
// the requested frame simply means nothing has been saved there yet (or
// it has since been overwritten), which callers detect themselves.
func (s *SavedStates[S]) GetCell(frame frameinfo.Frame) (*GameStateCell[S], error) {
	if frame.IsNull() || frame < 0 {
		return nil, frameinfo.New(frameinfo.CodeInvalidFrame)
	}
	slot := int(uint32(frame)) % len(s.cells)
	return s.cells[slot], nil
}

// Find returns the cell currently holding frame's saved state, or nil if
// no slot in the ring currently holds that exact frame (it was never
// saved, or has been overwritten by a later save at the same slot).
func (s *SavedStates[S]) Find(frame frameinfo.Frame) *GameStateCell[S] {
	cell, err := s.GetCell(frame)
	if err != nil || cell.Frame() != frame {
		return nil
	}
	return cell
}
