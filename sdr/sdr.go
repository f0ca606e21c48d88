// Package sdr presents a uniform capability surface over heterogeneous
// radio backends: configure the tuner, read raw IQ blocks, query the
// supported frequency and rate ranges.
package sdr

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/hb9tf/sigview/dsp"
)

var (
	// ErrOutOfRange reports a frequency or rate request the backend
	// cannot satisfy. Configure never silently coerces; callers that
	// want clamping do it before calling.
	ErrOutOfRange = errors.New("requested value outside backend range")
	// ErrNoBackend reports that no radio could be initialized.
	ErrNoBackend = errors.New("no radio backend available")
	// ErrUnsupportedGain reports a gain mode the backend does not offer.
	ErrUnsupportedGain = errors.New("gain mode not supported by backend")
)

// GainMode selects between an explicit gain value and a named
// automatic-gain-control attack style.
type GainMode int

const (
	GainManual GainMode = iota
	GainFastAttack
	GainSlowAttack
)

func (m GainMode) String() string {
	switch m {
	case GainManual:
		return "manual"
	case GainFastAttack:
		return "fast"
	case GainSlowAttack:
		return "slow"
	default:
		return fmt.Sprintf("invalid gain mode: %d", int(m))
	}
}

// Gain is either a manual dB value or an AGC attack style.
type Gain struct {
	Mode GainMode
	DB   float64 // used when Mode == GainManual
}

func (g Gain) String() string {
	if g.Mode == GainManual {
		return fmt.Sprintf("%.1f dB", g.DB)
	}
	return g.Mode.String()
}

// ParseGain resolves the CLI gain string: "fast" and "slow" select AGC
// attack styles, anything numeric is a manual dB value.
func ParseGain(s string) (Gain, error) {
	switch s {
	case "fast":
		return Gain{Mode: GainFastAttack}, nil
	case "slow":
		return Gain{Mode: GainSlowAttack}, nil
	}
	db, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Gain{}, fmt.Errorf("gain must be a dB value or one of: fast, slow; got %q", s)
	}
	return Gain{Mode: GainManual, DB: db}, nil
}

// Config is the full tuning state of a radio session. Controllers own and
// mutate it; it is immutable during a single capture.
type Config struct {
	CenterHz     int64
	SampleRateHz int64
	Gain         Gain
	FFTSize      int // IQ block size per capture, also the FFT length
	Nperseg      int // Welch segment size; == FFTSize for the periodogram
	Window       dsp.Window
}

// Validate checks the hardware-independent invariants. Range checks
// against a specific backend happen in Configure.
func (c Config) Validate() error {
	if c.FFTSize <= 0 || c.FFTSize&(c.FFTSize-1) != 0 {
		return fmt.Errorf("fft size must be a positive power of two, got %d", c.FFTSize)
	}
	if c.Nperseg <= 0 || c.Nperseg > c.FFTSize {
		return fmt.Errorf("segment size must be in 1..%d, got %d", c.FFTSize, c.Nperseg)
	}
	if c.CenterHz <= 0 {
		return fmt.Errorf("center frequency must be positive, got %d", c.CenterHz)
	}
	if c.SampleRateHz <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRateHz)
	}
	return nil
}

// Radio is the capability surface implemented per backend.
type Radio interface {
	Name() string
	// Configure applies the tuning state. Out-of-range requests fail
	// with an error wrapping ErrOutOfRange and leave the previous
	// state in effect.
	Configure(Config) error
	// ReadIQ returns one block of n complex baseband samples
	// normalized to [-1, 1]. It blocks for the hardware transfer.
	ReadIQ(n int) ([]complex128, error)
	// FreqRange returns the supported tuning range in Hz.
	FreqRange() (int64, int64)
	// RateRange returns the supported sample rate range in Hz.
	RateRange() (int64, int64)
	// SettleReads reports how many blocks to discard after a retune
	// before captures are trustworthy. Zero means none needed.
	SettleReads() int
	Close() error
}

// CheckRange verifies a config against a backend's tuning limits.
// Backends call this at the top of Configure.
func CheckRange(r Radio, c Config) error {
	minF, maxF := r.FreqRange()
	if c.CenterHz < minF || c.CenterHz > maxF {
		return fmt.Errorf("frequency %d Hz outside %d..%d Hz: %w", c.CenterHz, minF, maxF, ErrOutOfRange)
	}
	minR, maxR := r.RateRange()
	if c.SampleRateHz < minR || c.SampleRateHz > maxR {
		return fmt.Errorf("rate %d Hz outside %d..%d Hz: %w", c.SampleRateHz, minR, maxR, ErrOutOfRange)
	}
	return nil
}

// Clamp bounds v into [lo, hi].
func Clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Constructor builds a backend, failing when its hardware is absent.
type Constructor func() (Radio, error)

// FirstAvailable probes constructors in priority order and binds to the
// first that initializes. Used by the "auto" backend selector.
func FirstAvailable(ctors ...Constructor) (Radio, error) {
	var errs []error
	for _, ctor := range ctors {
		r, err := ctor()
		if err == nil {
			return r, nil
		}
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("%w: %s", ErrNoBackend, errors.Join(errs...))
}
