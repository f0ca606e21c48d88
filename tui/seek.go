package tui

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/hb9tf/sigview/sweep"
)

// Seek renders a sweep pass as a scatter: every retained detection is a
// point at its frequency and power, with a header line tracking the
// frequency currently being captured and the loudest hit so far. The top
// of the dB scale grows to keep outliers on screen.
type Seek struct {
	MinHz, MaxHz int64
	MinDB, MaxDB float64

	style Style
}

func NewSeek(style Style, minHz, maxHz int64, minDB float64) *Seek {
	return &Seek{
		MinHz: minHz,
		MaxHz: maxHz,
		MinDB: minDB,
		MaxDB: 50,
		style: style,
	}
}

func (v *Seek) Draw(s tcell.Screen, currentHz int64, detections []sweep.Detection) {
	w, h := s.Size()
	if w < 2 || h < 3 {
		return
	}

	peak := "None"
	for _, d := range detections {
		if d.DBFS > v.MaxDB {
			v.MaxDB = math.Ceil(d.DBFS)
		}
	}
	if d, ok := sweep.Peak(detections); ok {
		peak = fmt.Sprintf("%s (%.1f dBFS)", FormatFreq(float64(d.FreqHz)), d.DBFS)
	}

	header := Pane{0, 0, w, 1}
	Fill(s, header, v.style.Header)
	DrawText(s, header, 0, 0, v.style.Header,
		fmt.Sprintf(" now:%s | peak:%s", FormatFreq(float64(currentHz)), peak))

	axisW := dbLabelWidth(v.MinDB, v.MaxDB)
	if w <= axisW+1 {
		return
	}
	yaxis := Pane{0, 1, axisW, h - 2}
	xaxis := Pane{axisW, h - 1, w - axisW, 1}
	plot := Pane{axisW, 1, w - axisW, h - 2}

	Fill(s, yaxis, v.style.Label)
	Fill(s, xaxis, v.style.Label)
	Fill(s, plot, v.style.Plot)

	for i, row := range DBLabels(axisW, yaxis.H, v.MinDB, v.MaxDB) {
		DrawText(s, yaxis, yaxis.X, yaxis.Y+i, v.style.Label, row)
	}
	DrawText(s, xaxis, xaxis.X, xaxis.Y, v.style.Label, FreqLabels(xaxis.W, float64(v.MinHz), float64(v.MaxHz)))

	span := v.MaxDB - v.MinDB
	width := float64(v.MaxHz - v.MinHz)
	for _, d := range detections {
		if d.FreqHz < v.MinHz || d.FreqHz > v.MaxHz {
			continue
		}
		db := d.DBFS
		if db < v.MinDB {
			db = v.MinDB
		}
		if db > v.MaxDB {
			db = v.MaxDB
		}
		x := plot.X + int(float64(d.FreqHz-v.MinHz)/width*float64(plot.W-1))
		y := plot.Y + plot.H - 1 - int((db-v.MinDB)/span*float64(plot.H-1))
		s.SetContent(x, y, '•', nil, v.style.Plot)
	}
}
