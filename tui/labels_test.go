package tui

import (
	"strings"
	"testing"
)

func TestFormatFreq(t *testing.T) {
	for _, tc := range []struct {
		freq float64
		want string
	}{
		{freq: 950, want: "950 Hz"},
		{freq: 1000, want: "1 kHz"},
		{freq: 101.5e6, want: "101.5 MHz"},
		{freq: 100.123456e6, want: "100.1235 MHz"},
		{freq: 2.4e9, want: "2.4 GHz"},
	} {
		if got := FormatFreq(tc.freq); got != tc.want {
			t.Errorf("FormatFreq(%v) = %q, want %q", tc.freq, got, tc.want)
		}
	}
}

func TestFreqLabelsSpansWidth(t *testing.T) {
	const width = 120
	row := FreqLabels(width, 99e6, 101e6)
	if len([]rune(row)) != width {
		t.Fatalf("row length = %d, want %d", len([]rune(row)), width)
	}
	if !strings.HasPrefix(row, "|99 MHz") {
		t.Errorf("row does not start with the low edge label: %q", row)
	}
	if !strings.HasSuffix(row, "101 MHz|") {
		t.Errorf("row does not end with the high edge label: %q", row)
	}
	if !strings.Contains(row, "100 MHz") {
		t.Errorf("row is missing the midpoint label: %q", row)
	}
}

func TestFreqLabelsNarrowWidth(t *testing.T) {
	row := FreqLabels(10, 99e6, 101e6)
	if len([]rune(row)) != 10 {
		t.Fatalf("row length = %d, want 10", len([]rune(row)))
	}
}

func TestDBLabels(t *testing.T) {
	rows := DBLabels(4, 6, -120, 40)
	if len(rows) != 6 {
		t.Fatalf("got %d rows, want 6", len(rows))
	}
	if got := strings.TrimSpace(rows[0]); got != "40" {
		t.Errorf("top label = %q, want 40", got)
	}
	if got := strings.TrimSpace(rows[4]); got != "-120" {
		t.Errorf("bottom label = %q, want -120", got)
	}
	for i, row := range rows {
		if len(row) != 4 {
			t.Errorf("row %d width = %d, want 4", i, len(row))
		}
		if i%2 == 1 && strings.TrimSpace(row) != "" {
			t.Errorf("row %d should be blank, got %q", i, row)
		}
	}
}
