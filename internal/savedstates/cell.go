// Package savedstates implements the ring of saved game states used for
// rollback and resimulation (§4.F). One GameStateCell per ring slot holds,
// at most, one frame's worth of host state plus its checksum; the ring
// itself is sized to the session's max prediction window.
package savedstates

import (
	"sync"

	"github.com/andersfylling/duelback/internal/frameinfo"
)

// GameStateCell holds one frame's saved state. It's safe for concurrent
// readers (a render/diagnostics thread polling Frame/Checksum) and a
// single writer (the host filling a SaveGameState request), guarded by
// one RWMutex per cell.
type GameStateCell[S any] struct {
	mu sync.RWMutex

	frame        frameinfo.Frame
	hasData      bool
	data         S
	hasChecksum  bool
	checksum     [16]byte
}

// NewGameStateCell returns an empty cell for frame NullFrame.
func NewGameStateCell[S any]() *GameStateCell[S] {
	return &GameStateCell[S]{frame: frameinfo.NullFrame}
}

// Save publishes state for frame along with its checksum, replacing
// whatever the cell previously held.
func (c *GameStateCell[S]) Save(frame frameinfo.Frame, state S, checksum [16]byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame = frame
	c.data = state
	c.hasData = true
	c.checksum = checksum
	c.hasChecksum = true
}

// Frame returns the frame this cell currently holds, or NullFrame if it
// has never been written.
func (c *GameStateCell[S]) Frame() frameinfo.Frame {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frame
}

// State returns the saved state and whether the cell actually holds one.
func (c *GameStateCell[S]) State() (S, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data, c.hasData
}

// Checksum returns the saved checksum and whether the cell holds one.
func (c *GameStateCell[S]) Checksum() ([16]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.checksum, c.hasChecksum
}

// Reset clears the cell back to its empty state.
func (c *GameStateCell[S]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero S
	c.frame = frameinfo.NullFrame
	c.data = zero
	c.hasData = false
	c.hasChecksum = false
}
