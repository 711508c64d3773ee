package render

import (
	"os"
	"strings"
)

// Capability represents detected terminal capabilities.
type Capability struct {
	Truecolor bool
	Color256  bool
	Unicode   bool
}

// Detect probes the environment for terminal capabilities.
func Detect() Capability {
	cap := Capability{}

	colorterm := os.Getenv("COLORTERM")
	if colorterm == "truecolor" || colorterm == "24bit" {
		cap.Truecolor = true
		cap.Color256 = true
	}

	term := os.Getenv("TERM")
	if strings.Contains(term, "256color") {
		cap.Color256 = true
	}

	lang := os.Getenv("LANG")
	cap.Unicode = strings.Contains(strings.ToLower(lang), "utf")
	if !cap.Unicode {
		cap.Unicode = true
	}

	return cap
}

// SelectRenderer picks an atlas suited to the detected capability and
// returns a ready-to-Init TcellRenderer.
func SelectRenderer(cap Capability) *TcellRenderer {
	renderer := NewTcellRenderer()
	if cap.Truecolor && cap.Unicode {
		renderer.SetAtlas(DefaultHalfBlockAtlas())
	} else {
		renderer.SetAtlas(DefaultASCIIAtlas())
	}
	return renderer
}
