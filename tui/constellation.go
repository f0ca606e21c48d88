package tui

import (
	"github.com/gdamore/tcell/v2"
)

// Constellation scatters raw IQ sample values into the pane: x is the
// in-phase part, y the quadrature part, both scaled from [-1, 1].
type Constellation struct {
	style  Style
	points []complex128
}

func NewConstellation(style Style) *Constellation {
	return &Constellation{style: style}
}

// Update replaces the point buffer with the latest raw IQ block. Unlike
// the spectral panes this consumes samples, not the PSD.
func (v *Constellation) Update(samples []complex128) {
	v.points = samples
}

func (v *Constellation) Draw(s tcell.Screen, p Pane) {
	Fill(s, p, v.style.Plot)
	if p.W < 2 || p.H < 2 {
		return
	}
	for _, pt := range v.points {
		re, im := real(pt), imag(pt)
		x := p.X + int((re+1)/2*float64(p.W-1))
		y := p.Y + int((1-(im+1)/2)*float64(p.H-1))
		if x < p.X || x >= p.X+p.W || y < p.Y || y >= p.Y+p.H {
			continue
		}
		s.SetContent(x, y, '•', nil, v.style.Plot)
	}
}
