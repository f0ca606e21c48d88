package dsp

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/window"
)

// Window selects the window function applied to a sample block before the
// FFT. Only parameterless windows are offered so a window is fully
// described by its name.
type Window int

const (
	WindowBoxcar Window = iota
	WindowHann
	WindowHamming
	WindowBlackman
	WindowBlackmanHarris
	WindowNuttall
	WindowFlatTop
)

func (w Window) String() string {
	switch w {
	case WindowBoxcar:
		return "boxcar"
	case WindowHann:
		return "hann"
	case WindowHamming:
		return "hamming"
	case WindowBlackman:
		return "blackman"
	case WindowBlackmanHarris:
		return "blackmanharris"
	case WindowNuttall:
		return "nuttall"
	case WindowFlatTop:
		return "flattop"
	default:
		return fmt.Sprintf("invalid window: %d", w)
	}
}

// ParseWindow resolves a window name from the CLI. Unknown names are a
// configuration error, never a silent fallback.
func ParseWindow(name string) (Window, error) {
	switch name {
	case "boxcar", "rectangular":
		return WindowBoxcar, nil
	case "hann":
		return WindowHann, nil
	case "hamming":
		return WindowHamming, nil
	case "blackman":
		return WindowBlackman, nil
	case "blackmanharris":
		return WindowBlackmanHarris, nil
	case "nuttall":
		return WindowNuttall, nil
	case "flattop":
		return WindowFlatTop, nil
	default:
		return WindowBoxcar, fmt.Errorf("%q is not a supported window, pick one of: boxcar, hann, hamming, blackman, blackmanharris, nuttall, flattop", name)
	}
}

// coefficients returns the window values for a block of n samples by
// applying the gonum window to an all-ones sequence.
func (w Window) coefficients(n int) []float64 {
	seq := make([]float64, n)
	for i := range seq {
		seq[i] = 1
	}
	switch w {
	case WindowHann:
		return window.Hann(seq)
	case WindowHamming:
		return window.Hamming(seq)
	case WindowBlackman:
		return window.Blackman(seq)
	case WindowBlackmanHarris:
		return window.BlackmanHarris(seq)
	case WindowNuttall:
		return window.Nuttall(seq)
	case WindowFlatTop:
		return window.FlatTop(seq)
	default:
		return window.Rectangular(seq)
	}
}
