package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// ColorStep maps a power threshold to a color: the first step (checked
// warmest first) whose threshold the value meets or exceeds wins.
type ColorStep struct {
	MinDBFS float64
	Color   tcell.Color
}

// Style is a named palette consumed read-only by the renderer.
type Style struct {
	Name   string
	Header tcell.Style
	Plot   tcell.Style
	Label  tcell.Style
	Steps  []ColorStep // ordered by descending threshold
	Glyph  rune        // waterfall cell glyph
}

// HeatColor maps a dBFS value onto the palette's gradient.
func (s Style) HeatColor(db float64) tcell.Color {
	for _, step := range s.Steps {
		if db >= step.MinDBFS {
			return step.Color
		}
	}
	return s.Steps[len(s.Steps)-1].Color
}

// Colors from https://marketplace.visualstudio.com/items?itemName=enkia.tokyo-night
var tokyonight = Style{
	Name: "tokyonight",
	Header: tcell.StyleDefault.
		Background(tcell.NewHexColor(0x1a1b26)).
		Foreground(tcell.NewHexColor(0xa9b1d6)),
	Plot: tcell.StyleDefault.
		Background(tcell.NewHexColor(0x24283b)).
		Foreground(tcell.NewHexColor(0x7aa2f7)),
	Label: tcell.StyleDefault.
		Background(tcell.NewHexColor(0x24283b)).
		Foreground(tcell.NewHexColor(0x565f89)),
	Steps: []ColorStep{
		{MinDBFS: 0, Color: tcell.NewHexColor(0xf7768e)},   // red
		{MinDBFS: -20, Color: tcell.NewHexColor(0xff9e64)}, // orange
		{MinDBFS: -40, Color: tcell.NewHexColor(0xe0af68)}, // yellow
		{MinDBFS: -60, Color: tcell.NewHexColor(0x7aa2f7)}, // blue
		{MinDBFS: -80, Color: tcell.NewHexColor(0x3d59a1)}, // deep blue
		{MinDBFS: -120, Color: tcell.NewHexColor(0x24283b)},
	},
	Glyph: '█',
}

var cyberpunk = Style{
	Name: "cyberpunk",
	Header: tcell.StyleDefault.
		Background(tcell.NewHexColor(0x000b1e)).
		Foreground(tcell.NewHexColor(0x00ff9f)),
	Plot: tcell.StyleDefault.
		Background(tcell.NewHexColor(0x0d0221)).
		Foreground(tcell.NewHexColor(0xff2a6d)),
	Label: tcell.StyleDefault.
		Background(tcell.NewHexColor(0x0d0221)).
		Foreground(tcell.NewHexColor(0x05d9e8)),
	Steps: []ColorStep{
		{MinDBFS: 0, Color: tcell.NewHexColor(0xff2a6d)},   // hot pink
		{MinDBFS: -20, Color: tcell.NewHexColor(0xf706cf)}, // magenta
		{MinDBFS: -40, Color: tcell.NewHexColor(0xd100d1)}, // purple
		{MinDBFS: -60, Color: tcell.NewHexColor(0x05d9e8)}, // cyan
		{MinDBFS: -80, Color: tcell.NewHexColor(0x005678)}, // deep teal
		{MinDBFS: -120, Color: tcell.NewHexColor(0x01012b)},
	},
	Glyph: '▓',
}

// ParseStyle resolves a style name; unknown names are a configuration
// error.
func ParseStyle(name string) (Style, error) {
	switch name {
	case "tokyonight":
		return tokyonight, nil
	case "cyberpunk":
		return cyberpunk, nil
	default:
		return Style{}, fmt.Errorf("%q is not a style, pick one of: tokyonight, cyberpunk", name)
	}
}
