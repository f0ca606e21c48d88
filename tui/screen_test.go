package tui

import "testing"

func TestSplit(t *testing.T) {
	for _, tc := range []struct {
		n    int
		want []Pane
	}{
		{n: 1, want: []Pane{{0, 0, 100, 40}}},
		{n: 2, want: []Pane{{0, 0, 100, 14}, {0, 14, 100, 26}}},
		{n: 3, want: []Pane{{0, 0, 100, 13}, {0, 13, 100, 13}, {0, 26, 100, 14}}},
	} {
		got := Split(100, 40, tc.n)
		if len(got) != len(tc.want) {
			t.Fatalf("Split(100, 40, %d) returned %d panes, want %d", tc.n, len(got), len(tc.want))
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("Split(100, 40, %d)[%d] = %+v, want %+v", tc.n, i, got[i], tc.want[i])
			}
		}
	}
}

func TestSplitCoversScreenWithoutOverlap(t *testing.T) {
	for n := 1; n <= 3; n++ {
		panes := Split(80, 25, n)
		y := 0
		for i, p := range panes {
			if p.Y != y {
				t.Errorf("n=%d pane %d starts at y=%d, want %d", n, i, p.Y, y)
			}
			if p.W != 80 {
				t.Errorf("n=%d pane %d width = %d, want 80", n, i, p.W)
			}
			y += p.H
		}
		if y != 25 {
			t.Errorf("n=%d panes cover %d rows, want 25", n, y)
		}
	}
}
