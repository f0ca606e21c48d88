package tui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/hb9tf/sigview/dsp"
)

// Waterfall renders a scrolling heatmap: one row per capture cycle, the
// most recent at the top edge, each cell colored by the style's ordered
// threshold steps. The row history lives in a fixed-capacity ring.
type Waterfall struct {
	style Style
	ring  *Ring
}

func NewWaterfall(style Style, capacity int) *Waterfall {
	return &Waterfall{style: style, ring: NewRing(capacity)}
}

// Push adds one frame's power row to the history.
func (v *Waterfall) Push(frame dsp.Frame) {
	row := make([]float64, len(frame.Bins))
	for i, bin := range frame.Bins {
		row[i] = bin.DBFS
	}
	v.ring.Push(row)
}

// History exposes the row ring, newest first.
func (v *Waterfall) History() *Ring { return v.ring }

func (v *Waterfall) Draw(s tcell.Screen, p Pane) {
	Fill(s, p, v.style.Plot)
	_, bg, _ := v.style.Plot.Decompose()
	rows := v.ring.Len()
	if rows > p.H {
		rows = p.H
	}
	for y := 0; y < rows; y++ {
		row := v.ring.Row(y)
		if len(row) == 0 {
			continue
		}
		for x := 0; x < p.W; x++ {
			db := row[x*len(row)/p.W]
			style := tcell.StyleDefault.Background(bg).Foreground(v.style.HeatColor(db))
			s.SetContent(p.X+x, p.Y+y, v.style.Glyph, nil, style)
		}
	}
}
