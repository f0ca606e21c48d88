package sdr

import (
	"errors"
	"testing"
)

func TestParseGain(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    Gain
		wantErr bool
	}{
		{"fast", Gain{Mode: GainFastAttack}, false},
		{"slow", Gain{Mode: GainSlowAttack}, false},
		{"30", Gain{Mode: GainManual, DB: 30}, false},
		{"-12.5", Gain{Mode: GainManual, DB: -12.5}, false},
		{"medium", Gain{}, true},
		{"", Gain{}, true},
	} {
		got, err := ParseGain(tc.in)
		if gotErr := err != nil; gotErr != tc.wantErr {
			t.Errorf("ParseGain(%q) error = %v, want error: %t", tc.in, err, tc.wantErr)
			continue
		}
		if !tc.wantErr && got != tc.want {
			t.Errorf("ParseGain(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{CenterHz: 100000000, SampleRateHz: 1000000, FFTSize: 1024, Nperseg: 256}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid config rejected: %s", err)
	}

	for name, mutate := range map[string]func(*Config){
		"fft size not power of two": func(c *Config) { c.FFTSize = 1000 },
		"zero fft size":             func(c *Config) { c.FFTSize = 0 },
		"nperseg exceeds fft size":  func(c *Config) { c.Nperseg = 2048 },
		"zero nperseg":              func(c *Config) { c.Nperseg = 0 },
		"zero frequency":            func(c *Config) { c.CenterHz = 0 },
		"negative rate":             func(c *Config) { c.SampleRateHz = -1 },
	} {
		c := valid
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: Validate accepted %+v", name, c)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 10, 20); got != 10 {
		t.Errorf("Clamp(5, 10, 20) = %d, want 10", got)
	}
	if got := Clamp(25, 10, 20); got != 20 {
		t.Errorf("Clamp(25, 10, 20) = %d, want 20", got)
	}
	if got := Clamp(15, 10, 20); got != 15 {
		t.Errorf("Clamp(15, 10, 20) = %d, want 15", got)
	}
}

type probeRadio struct{ Radio }

func (probeRadio) Name() string { return "probe" }

func TestFirstAvailable(t *testing.T) {
	down := func() (Radio, error) { return nil, errors.New("hardware absent") }
	up := func() (Radio, error) { return probeRadio{}, nil }

	r, err := FirstAvailable(down, up)
	if err != nil {
		t.Fatalf("FirstAvailable with one working backend failed: %s", err)
	}
	if r.Name() != "probe" {
		t.Errorf("bound to %q, want probe", r.Name())
	}

	if _, err := FirstAvailable(down, down); !errors.Is(err, ErrNoBackend) {
		t.Errorf("FirstAvailable with no backends = %v, want ErrNoBackend", err)
	}
}

func TestCheckRange(t *testing.T) {
	r := rangeRadio{}
	ok := Config{CenterHz: 100000000, SampleRateHz: 1000000, FFTSize: 1024, Nperseg: 1024}
	if err := CheckRange(r, ok); err != nil {
		t.Errorf("in-range config rejected: %s", err)
	}
	low := ok
	low.CenterHz = 1000
	if err := CheckRange(r, low); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("below-range frequency = %v, want ErrOutOfRange", err)
	}
	fast := ok
	fast.SampleRateHz = 100000000
	if err := CheckRange(r, fast); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("above-range rate = %v, want ErrOutOfRange", err)
	}
}

type rangeRadio struct{ Radio }

func (rangeRadio) FreqRange() (int64, int64) { return 70000000, 6000000000 }
func (rangeRadio) RateRange() (int64, int64) { return 521000, 56000000 }
