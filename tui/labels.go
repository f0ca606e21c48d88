package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var freqSuffixes = map[int]string{
	0: "Hz",
	1: "kHz",
	2: "MHz",
	3: "GHz",
	4: "THz",
}

// FormatFreq renders a frequency with a readable magnitude suffix.
func FormatFreq(freq float64) string {
	exp := 0
	f := math.Abs(freq)
	for f >= 1000 && exp < 4 {
		f /= 1000
		exp++
	}
	suffix := freqSuffixes[exp]
	v := freq / math.Pow(1000, float64(exp))
	s := strconv.FormatFloat(v, 'f', 4, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	return s + " " + suffix
}

// FreqLabels builds one row of `|`-anchored frequency tick labels across
// width columns. Labels left of the midpoint anchor their tick on the
// left, labels right of it flip so the tick stays inside the row.
func FreqLabels(width int, startHz, endHz float64) string {
	const maxLabel = 2 * len("|999.9999 MHz ")
	n := (width + maxLabel - 1) / maxLabel
	if n%2 == 0 {
		n--
	}
	if n < 1 {
		n = 1
	}

	row := []rune(strings.Repeat(" ", width))
	for i := 0; i < n; i++ {
		frac := 0.0
		if n > 1 {
			frac = float64(i) / float64(n-1)
		}
		hz := FormatFreq(startHz + frac*(endHz-startHz))
		var label string
		var x int
		if float64(i) < float64(n)/2 {
			label = "|" + hz
			x = int(frac * float64(width))
		} else {
			label = hz + "|"
			x = int(frac*float64(width)) - len(label)
		}
		for j, r := range label {
			if x+j >= 0 && x+j < width {
				row[x+j] = r
			}
		}
	}
	return string(row)
}

// DBLabels builds a right-aligned dB scale, one label every other row
// from maxDB at the top down to minDB.
func DBLabels(width, height int, minDB, maxDB float64) []string {
	rows := make([]string, height)
	for i := range rows {
		rows[i] = strings.Repeat(" ", width)
	}
	n := height / 2
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		frac := 0.0
		if n > 1 {
			frac = float64(i) / float64(n-1)
		}
		label := fmt.Sprintf("%*d", width, int(math.Round(maxDB+frac*(minDB-maxDB))))
		if len(label) > width {
			label = label[len(label)-width:]
		}
		if i*2 < height {
			rows[i*2] = label
		}
	}
	return rows
}
