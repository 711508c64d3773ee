package render

import "github.com/lucasb-eyer/go-colorful"

// HealthColor blends green (InSync, t=0) through yellow to red
// (DesyncDetected, t=1) in Lab space, so the sync-health HUD indicator
// reads as a smooth gradient instead of the three flat colors a direct
// RGB lerp would give.
func HealthColor(t float64) Color {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	good := colorful.Hsv(120, 0.75, 0.9)  // green
	bad := colorful.Hsv(0, 0.85, 0.9)     // red
	blended := good.BlendLab(bad, t).Clamped()
	r, g, b := blended.RGB255()
	return Color{R: r, G: g, B: b}
}

// FramesAheadColor heat-maps a peer's frames-ahead reading: 0 is neutral
// blue, at or beyond max it's fully red.
func FramesAheadColor(framesAhead, max int) Color {
	if max <= 0 {
		max = 1
	}
	t := float64(framesAhead) / float64(max)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	cold := colorful.Hsv(200, 0.7, 0.9) // blue
	hot := colorful.Hsv(0, 0.85, 0.9)   // red
	blended := cold.BlendLab(hot, t).Clamped()
	r, g, b := blended.RGB255()
	return Color{R: r, G: g, B: b}
}
