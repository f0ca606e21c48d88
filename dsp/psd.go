// Package dsp estimates power spectral density from raw IQ blocks.
//
// Two estimators are available: a single windowed periodogram over the
// full block, and Welch's method averaging overlapping segments for lower
// variance at the cost of frequency resolution. Power values are reported
// in dB relative to full scale, bins centered on the tuned frequency.
package dsp

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/dsp/fourier"
)

// dbfsFullScale shifts the dB scale so that a full-scale tone sits at
// roughly 0 dBFS with the default density scaling.
const dbfsFullScale = 1.0

// Bin is one PSD value at a frequency offset from the tuned center.
type Bin struct {
	OffsetHz float64
	DBFS     float64
}

// Frame is the result of analyzing one IQ block. It is produced once per
// capture cycle and not retained by the analyzer.
type Frame struct {
	Time         time.Time
	CenterHz     int64
	SampleRateHz int64
	Bins         []Bin
}

// Analyzer converts IQ blocks into Frames. It precomputes FFT plans and
// window coefficients at construction and holds no per-call state, so the
// same (samples, rate) input always yields the same frame.
type Analyzer struct {
	fftSize int
	nperseg int
	window  Window

	fullCoef []float64
	segCoef  []float64
	fullFFT  *fourier.CmplxFFT
	segFFT   *fourier.CmplxFFT
}

// NewAnalyzer validates the FFT geometry and builds the plans. The block
// (and FFT) size must be a positive power of two and nperseg must not
// exceed it; nperseg == fftSize selects the periodogram path.
func NewAnalyzer(fftSize, nperseg int, win Window) (*Analyzer, error) {
	if fftSize <= 0 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("fft size must be a positive power of two, got %d", fftSize)
	}
	if nperseg <= 0 {
		return nil, fmt.Errorf("segment size must be positive, got %d", nperseg)
	}
	if nperseg > fftSize {
		return nil, fmt.Errorf("segment size %d exceeds fft size %d", nperseg, fftSize)
	}
	return &Analyzer{
		fftSize:  fftSize,
		nperseg:  nperseg,
		window:   win,
		fullCoef: win.coefficients(fftSize),
		segCoef:  win.coefficients(nperseg),
		fullFFT:  fourier.NewCmplxFFT(fftSize),
		segFFT:   fourier.NewCmplxFFT(nperseg),
	}, nil
}

// FFTSize returns the expected IQ block length.
func (a *Analyzer) FFTSize() int { return a.fftSize }

// BinCount returns the number of bins per frame. It depends only on the
// configured sizes, never on buffer content.
func (a *Analyzer) BinCount() int {
	if a.nperseg == a.fftSize {
		return a.fftSize
	}
	return a.nperseg
}

// Analyze produces the PSD frame for one IQ block.
func (a *Analyzer) Analyze(samples []complex128, centerHz, rateHz int64) (Frame, error) {
	if len(samples) != a.fftSize {
		return Frame{}, fmt.Errorf("expected %d samples, got %d", a.fftSize, len(samples))
	}
	var power []float64
	if a.nperseg == a.fftSize {
		power = a.periodogram(samples, a.fullCoef, a.fullFFT, rateHz)
	} else {
		power = a.welch(samples, rateHz)
	}
	fftshift(power)

	n := len(power)
	df := float64(rateHz) / float64(n)
	bins := make([]Bin, n)
	for i, p := range power {
		bins[i] = Bin{
			OffsetHz: (float64(i) - float64(n)/2) * df,
			DBFS:     10*math.Log10(p) - dbfsFullScale,
		}
	}
	return Frame{
		Time:         time.Now(),
		CenterHz:     centerHz,
		SampleRateHz: rateHz,
		Bins:         bins,
	}, nil
}

// periodogram computes |FFT(w*x)|^2 / (fs * sum(w^2)) for one segment.
func (a *Analyzer) periodogram(seg []complex128, coef []float64, fft *fourier.CmplxFFT, rateHz int64) []float64 {
	buf := make([]complex128, len(seg))
	var winPower float64
	for i, s := range seg {
		buf[i] = s * complex(coef[i], 0)
		winPower += coef[i] * coef[i]
	}
	out := fft.Coefficients(nil, buf)
	scale := float64(rateHz) * winPower
	power := make([]float64, len(out))
	for i, c := range out {
		power[i] = (real(c)*real(c) + imag(c)*imag(c)) / scale
	}
	return power
}

// welch averages periodograms of half-overlapping nperseg segments.
func (a *Analyzer) welch(samples []complex128, rateHz int64) []float64 {
	step := a.nperseg / 2
	if step == 0 {
		step = 1
	}
	sum := make([]float64, a.nperseg)
	segments := 0
	for start := 0; start+a.nperseg <= len(samples); start += step {
		p := a.periodogram(samples[start:start+a.nperseg], a.segCoef, a.segFFT, rateHz)
		for i, v := range p {
			sum[i] += v
		}
		segments++
	}
	for i := range sum {
		sum[i] /= float64(segments)
	}
	return sum
}

// fftshift rotates the spectrum so the zero-frequency bin sits at the
// center, matching the plotted frequency axis.
func fftshift(p []float64) {
	n := len(p)
	half := n / 2
	shifted := make([]float64, n)
	for i := range p {
		shifted[i] = p[(i+half)%n]
	}
	copy(p, shifted)
}
