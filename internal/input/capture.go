// Package input handles keyboard capture and intent mapping.
package input

import (
	"github.com/andersfylling/duelback/internal/game"
)

// Handler captures terminal input and converts to intents
type Handler struct {
	mapping  map[rune]game.Intent
	state    game.Intent // Currently held intents
	holdTime map[game.Intent]int64
}

// NewHandler creates an input handler with default key bindings
func NewHandler() *Handler {
	h := &Handler{
		mapping:  make(map[rune]game.Intent),
		holdTime: make(map[game.Intent]int64),
	}
	h.SetDefaultBindings()
	return h
}

// SetDefaultBindings configures WASD + arrow keys
func (h *Handler) SetDefaultBindings() {
	// Arrow keys (these are multi-byte, simplified here)
	// In practice, use tcell/bubbletea key constants

	// WASD
	h.mapping['a'] = game.IntentLeft
	h.mapping['A'] = game.IntentLeft
	h.mapping['d'] = game.IntentRight
	h.mapping['D'] = game.IntentRight
	h.mapping['w'] = game.IntentJump
	h.mapping['W'] = game.IntentJump
	h.mapping[' '] = game.IntentJump // Space

	// Attack and use
	h.mapping['j'] = game.IntentAttack
	h.mapping['J'] = game.IntentAttack
	h.mapping['k'] = game.IntentUse
	h.mapping['K'] = game.IntentUse
}

// Bind sets a custom key binding
func (h *Handler) Bind(key rune, intent game.Intent) {
	h.mapping[key] = intent
}

// OnKeyPress handles a key press event
func (h *Handler) OnKeyPress(key rune) {
	if intent, ok := h.mapping[key]; ok {
		h.state |= intent
		// TODO: Record timestamp for hold detection
	}
}

// OnKeyRelease handles a key release (if terminal supports it)
func (h *Handler) OnKeyRelease(key rune) {
	if intent, ok := h.mapping[key]; ok {
		h.state &^= intent
	}
}

// State returns current intent state
func (h *Handler) State() game.Intent {
	return h.state
}

// Clear resets the intent state
func (h *Handler) Clear() {
	h.state = game.IntentNone
}
