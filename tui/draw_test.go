package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/hb9tf/sigview/dsp"
	"github.com/hb9tf/sigview/sweep"
)

func newTestScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	s.SetSize(w, h)
	t.Cleanup(s.Fini)
	return s
}

func testFrame(binDB float64) dsp.Frame {
	bins := make([]dsp.Bin, 64)
	for i := range bins {
		bins[i] = dsp.Bin{OffsetHz: float64(i-32) * 1e6 / 64, DBFS: binDB}
	}
	return dsp.Frame{
		Time:         time.Now(),
		CenterHz:     100e6,
		SampleRateHz: 1e6,
		Bins:         bins,
	}
}

// cellAt decodes the rune at a screen position.
func cellAt(t *testing.T, s tcell.SimulationScreen, x, y int) rune {
	t.Helper()
	cells, w, _ := s.GetContents()
	return cells[y*w+x].Runes[0]
}

func TestPSDDrawPlotsEveryColumn(t *testing.T) {
	s := newTestScreen(t, 80, 24)
	style, _ := ParseStyle("tokyonight")
	v := NewPSD(style, -120, 40)
	v.Update(testFrame(-40))
	v.Draw(s, Pane{0, 0, 80, 24})
	s.Show()

	// A flat -40 dBFS frame lands on a single row half way up the plot.
	axisW := dbLabelWidth(-120.0, 40.0)
	wantY := 23 - 1 - int((-40.0+120)/160*22)
	for x := axisW; x < 80; x++ {
		if got := cellAt(t, s, x, wantY); got != '•' {
			t.Fatalf("column %d row %d = %q, want the plot marker", x, wantY, got)
		}
	}
}

func TestPSDDrawClipsOutOfBand(t *testing.T) {
	s := newTestScreen(t, 80, 24)
	style, _ := ParseStyle("tokyonight")
	v := NewPSD(style, -120, 40)
	v.Update(testFrame(500)) // way above MaxDB
	v.Draw(s, Pane{0, 0, 80, 24})
	s.Show()

	if got := cellAt(t, s, 10, 0); got != '•' {
		t.Errorf("clipped hot signal should pin to the top row, got %q", got)
	}
}

func TestWaterfallDrawNewestRowOnTop(t *testing.T) {
	s := newTestScreen(t, 40, 10)
	style, _ := ParseStyle("tokyonight")
	v := NewWaterfall(style, 10)
	v.Push(testFrame(-70)) // older, blue step
	v.Push(testFrame(-10)) // newest, orange step
	v.Draw(s, Pane{0, 0, 40, 10})
	s.Show()

	cells, w, _ := s.GetContents()
	top := cells[0*w+5]
	second := cells[1*w+5]
	if top.Runes[0] != style.Glyph || second.Runes[0] != style.Glyph {
		t.Fatalf("heatmap rows should use the style glyph %q", style.Glyph)
	}
	topFg, _, _ := top.Style.Decompose()
	secondFg, _, _ := second.Style.Decompose()
	if want := style.HeatColor(-10); topFg != want {
		t.Errorf("top row color = %v, want newest row's %v", topFg, want)
	}
	if want := style.HeatColor(-70); secondFg != want {
		t.Errorf("second row color = %v, want older row's %v", secondFg, want)
	}
}

func TestWaterfallHistoryBounded(t *testing.T) {
	style, _ := ParseStyle("cyberpunk")
	v := NewWaterfall(style, 4)
	for i := 0; i < 100; i++ {
		v.Push(testFrame(float64(-i)))
	}
	if got := v.History().Len(); got != 4 {
		t.Errorf("history length = %d, want 4", got)
	}
	if got := v.History().Row(0)[0]; got != -99 {
		t.Errorf("newest row = %v, want -99", got)
	}
}

func TestConstellationDrawStaysInPane(t *testing.T) {
	s := newTestScreen(t, 40, 20)
	style, _ := ParseStyle("tokyonight")
	v := NewConstellation(style)
	v.Update([]complex128{
		complex(0, 0),
		complex(-1, -1),
		complex(1, 1),
		complex(2, 2), // out of range, must be skipped
	})
	p := Pane{5, 5, 10, 10}
	v.Draw(s, p)
	s.Show()

	if got := cellAt(t, s, p.X+4, p.Y+4); got != '•' {
		t.Errorf("origin sample missing near pane center, got %q", got)
	}
	if got := cellAt(t, s, p.X, p.Y+p.H-1); got != '•' {
		t.Errorf("(-1,-1) sample missing in bottom-left corner, got %q", got)
	}
	if got := cellAt(t, s, p.X+p.W-1, p.Y); got != '•' {
		t.Errorf("(1,1) sample missing in top-right corner, got %q", got)
	}
	// Nothing may land outside the pane.
	if got := cellAt(t, s, p.X+p.W, p.Y); got == '•' {
		t.Error("sample drawn outside the pane")
	}
}

func TestSeekDrawHeaderAndGrowingScale(t *testing.T) {
	s := newTestScreen(t, 100, 30)
	style, _ := ParseStyle("tokyonight")
	v := NewSeek(style, 80e6, 105e6, -120)

	detections := []sweep.Detection{
		{FreqHz: 90e6, DBFS: -30, Time: time.Now()},
		{FreqHz: 95e6, DBFS: 62.5, Time: time.Now()},
	}
	v.Draw(s, 92e6, detections)
	s.Show()

	if got := v.MaxDB; got != 63 {
		t.Errorf("MaxDB = %v, want ceil of the loudest detection (63)", got)
	}

	cells, w, _ := s.GetContents()
	var header []rune
	for x := 0; x < w; x++ {
		header = append(header, cells[x].Runes[0])
	}
	got := string(header)
	for _, want := range []string{"now:92 MHz", "peak:95 MHz (62.5 dBFS)"} {
		if !strings.Contains(got, want) {
			t.Errorf("header %q missing %q", got, want)
		}
	}
}
