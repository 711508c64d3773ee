// Package render provides game rendering functionality.
package render

import "github.com/andersfylling/duelback/internal/game"

// Camera represents the viewport into the game world
type Camera struct {
	X, Y          float64 // Center position in world coordinates
	Width, Height float64 // Viewport size in world units
}

// Color is an RGB color, independent of any particular backend's palette.
type Color struct {
	R, G, B uint8
}

var (
	ColorWhite  = Color{255, 255, 255}
	ColorBlack  = Color{0, 0, 0}
	ColorYellow = Color{255, 215, 0}
	ColorRed    = Color{220, 60, 60}
	ColorBlue   = Color{0, 174, 239}
)

// InputEventType classifies a translated terminal input event.
type InputEventType int

const (
	InputNone InputEventType = iota
	InputKey
	InputQuit
	InputResize
)

// InputEvent is a renderer-translated input, decoupled from the backend's
// native event type so callers never import a terminal library directly.
type InputEvent struct {
	Type   InputEventType
	Intent game.Intent
	Quit   bool
}

// GameRenderer is the backend-agnostic interface every renderer implements.
// TcellRenderer is the only implementation.
type GameRenderer interface {
	Init() error
	Close()
	BeginFrame()
	EndFrame()
	ViewportSize() (float64, float64)
	RenderWorld(world *game.World, camera Camera)
	RenderTileMap(tiles [][]rune, camera Camera)
	RenderText(x, y float64, text string, color Color)
	PollInput() (InputEvent, bool)
	DrawHUD(text string)
	DrawSyncStatus(frame int, healthT float64, framesAhead, maxFramesAhead int)
}
