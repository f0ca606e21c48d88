// Package tui composes spectral visualizers into a terminal cell grid.
// Panes map numeric data to colored glyphs independently; the layout
// splits the screen between the active visualizers each frame.
package tui

import (
	"github.com/gdamore/tcell/v2"
)

// Pane is a rectangular region of the screen in cell coordinates.
type Pane struct {
	X, Y, W, H int
}

// NewScreen initializes the terminal for fullscreen cell rendering.
// Callers must Fini() it on every exit path.
func NewScreen() (tcell.Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := s.Init(); err != nil {
		return nil, err
	}
	s.HideCursor()
	return s, nil
}

// Split divides a w x h screen among n stacked panes: one pane gets the
// full frame, two split 35/65, three split into thirds.
func Split(w, h, n int) []Pane {
	switch n {
	case 2:
		top := h * 35 / 100
		return []Pane{
			{0, 0, w, top},
			{0, top, w, h - top},
		}
	case 3:
		third := h / 3
		return []Pane{
			{0, 0, w, third},
			{0, third, w, third},
			{0, 2 * third, w, h - 2*third},
		}
	default:
		return []Pane{{0, 0, w, h}}
	}
}

// Fill paints a pane with the style's background.
func Fill(s tcell.Screen, p Pane, style tcell.Style) {
	for y := p.Y; y < p.Y+p.H; y++ {
		for x := p.X; x < p.X+p.W; x++ {
			s.SetContent(x, y, ' ', nil, style)
		}
	}
}

// DrawText writes a string starting at (x, y), clipped to the pane.
func DrawText(s tcell.Screen, p Pane, x, y int, style tcell.Style, text string) {
	col := x
	for _, r := range text {
		if col >= p.X+p.W {
			break
		}
		if col >= p.X && y >= p.Y && y < p.Y+p.H {
			s.SetContent(col, y, r, nil, style)
		}
		col++
	}
}
