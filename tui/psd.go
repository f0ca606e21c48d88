package tui

import (
	"math"
	"strconv"

	"github.com/gdamore/tcell/v2"

	"github.com/hb9tf/sigview/dsp"
)

// PSD renders the latest frame as a line plot: x is the frequency bin,
// y the power scaled between MinDB and MaxDB, clipped outside the band.
type PSD struct {
	MinDB, MaxDB float64

	style Style
	frame dsp.Frame
	has   bool
}

func NewPSD(style Style, minDB, maxDB float64) *PSD {
	return &PSD{MinDB: minDB, MaxDB: maxDB, style: style}
}

// Update stores the frame for the next Draw. The pane keeps only the
// most recent frame.
func (v *PSD) Update(frame dsp.Frame) {
	v.frame = frame
	v.has = true
}

func (v *PSD) Draw(s tcell.Screen, p Pane) {
	axisW := dbLabelWidth(v.MinDB, v.MaxDB)
	if p.W <= axisW+1 || p.H < 2 {
		return
	}
	yaxis := Pane{p.X, p.Y, axisW, p.H - 1}
	xaxis := Pane{p.X + axisW, p.Y + p.H - 1, p.W - axisW, 1}
	plot := Pane{p.X + axisW, p.Y, p.W - axisW, p.H - 1}

	Fill(s, yaxis, v.style.Label)
	Fill(s, xaxis, v.style.Label)
	Fill(s, plot, v.style.Plot)

	for i, row := range DBLabels(axisW, yaxis.H, v.MinDB, v.MaxDB) {
		DrawText(s, yaxis, yaxis.X, yaxis.Y+i, v.style.Label, row)
	}
	if !v.has {
		return
	}

	half := float64(v.frame.SampleRateHz) / 2
	center := float64(v.frame.CenterHz)
	DrawText(s, xaxis, xaxis.X, xaxis.Y, v.style.Label, FreqLabels(xaxis.W, center-half, center+half))

	bins := v.frame.Bins
	span := v.MaxDB - v.MinDB
	for x := 0; x < plot.W; x++ {
		db := bins[x*len(bins)/plot.W].DBFS
		if db < v.MinDB || math.IsInf(db, -1) || math.IsNaN(db) {
			db = v.MinDB
		}
		if db > v.MaxDB {
			db = v.MaxDB
		}
		y := plot.Y + plot.H - 1 - int((db-v.MinDB)/span*float64(plot.H-1))
		s.SetContent(plot.X+x, y, '•', nil, v.style.Plot)
	}
}

func dbLabelWidth(minDB, maxDB float64) int {
	w := len(strconv.Itoa(int(minDB)))
	if n := len(strconv.Itoa(int(maxDB))); n > w {
		w = n
	}
	return w
}
