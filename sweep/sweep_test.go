package sweep

import (
	"context"
	"errors"
	"math"
	"math/cmplx"
	"testing"
	"time"

	"github.com/hb9tf/sigview/dsp"
	"github.com/hb9tf/sigview/sdr"
)

const testFFTSize = 64

type fakeRadio struct {
	settle   int
	tunes    []int64
	reads    int
	readErrs []error // consumed one per ReadIQ call; nil means success
	block    []complex128
}

func (f *fakeRadio) Name() string                { return "fake" }
func (f *fakeRadio) FreqRange() (int64, int64)   { return 24000000, 6000000000 }
func (f *fakeRadio) RateRange() (int64, int64)   { return 226000, 56000000 }
func (f *fakeRadio) SettleReads() int            { return f.settle }
func (f *fakeRadio) Close() error                { return nil }

func (f *fakeRadio) Configure(cfg sdr.Config) error {
	f.tunes = append(f.tunes, cfg.CenterHz)
	return nil
}

func (f *fakeRadio) ReadIQ(n int) ([]complex128, error) {
	f.reads++
	if len(f.readErrs) > 0 {
		err := f.readErrs[0]
		f.readErrs = f.readErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if f.block != nil {
		return f.block, nil
	}
	return make([]complex128, n), nil
}

func toneBlock(bin int) []complex128 {
	s := make([]complex128, testFFTSize)
	for i := range s {
		phase := 2 * math.Pi * float64(bin) * float64(i) / testFFTSize
		s[i] = cmplx.Exp(complex(0, phase))
	}
	return s
}

func newController(t *testing.T, radio *fakeRadio, opts Options) *Controller {
	t.Helper()
	analyzer, err := dsp.NewAnalyzer(testFFTSize, testFFTSize, dsp.WindowBoxcar)
	if err != nil {
		t.Fatal(err)
	}
	cfg := sdr.Config{
		CenterHz:     opts.MinHz,
		SampleRateHz: opts.RateHz,
		FFTSize:      testFFTSize,
		Nperseg:      testFFTSize,
	}
	c, err := New(radio, analyzer, cfg, opts)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// One pass must visit each rate-wide slice exactly once, in increasing
// order, then wrap. 80..105 MHz at 1 MHz tiles into exactly 25 slices.
func TestPassVisitsEachStepOnce(t *testing.T) {
	radio := &fakeRadio{}
	c := newController(t, radio, Options{
		MinHz: 80000000, MaxHz: 105000000, RateHz: 1000000, Linger: 1, MinDBFS: 0,
	})

	const wantSteps = 25
	for i := 0; i < wantSteps; i++ {
		if err := c.Step(context.Background()); err != nil {
			t.Fatalf("step %d: %s", i, err)
		}
	}
	if len(radio.tunes) != wantSteps {
		t.Fatalf("tuned %d times, want %d", len(radio.tunes), wantSteps)
	}
	for i, f := range radio.tunes {
		want := int64(80000000 + i*1000000)
		if f != want {
			t.Errorf("tune %d went to %d Hz, want %d Hz", i, f, want)
		}
	}
	if got := c.Current(); got != 80000000 {
		t.Errorf("after a full pass Current() = %d, want wrap to 80000000", got)
	}

	// The next step starts the second pass at the bottom.
	if err := c.Step(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := radio.tunes[wantSteps]; got != 80000000 {
		t.Errorf("second pass started at %d Hz, want 80000000", got)
	}
}

// A range whose width is not a rate multiple gets a final overhanging
// slice instead of a skipped gap.
func TestPassRangeNotDivisibleByStep(t *testing.T) {
	radio := &fakeRadio{}
	c := newController(t, radio, Options{
		MinHz: 80000000, MaxHz: 105500000, RateHz: 1000000, Linger: 1, MinDBFS: 0,
	})
	const wantSteps = 26 // 80..105 MHz inclusive
	for i := 0; i < wantSteps; i++ {
		if err := c.Step(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if got := radio.tunes[wantSteps-1]; got != 105000000 {
		t.Errorf("last tune of pass = %d Hz, want 105000000", got)
	}
	if got := c.Current(); got != 80000000 {
		t.Errorf("Current() after pass = %d, want 80000000", got)
	}
}

// Recorded detections are never discarded; the set grows monotonically.
func TestDetectionsMonotonicAndRetained(t *testing.T) {
	const linger = 3
	radio := &fakeRadio{block: toneBlock(8)}
	c := newController(t, radio, Options{
		MinHz: 80000000, MaxHz: 90000000, RateHz: 1000000, Linger: linger, MinDBFS: -100,
	})

	prev := 0
	for i := 0; i < 12; i++ { // crosses the wrap at step 10
		if err := c.Step(context.Background()); err != nil {
			t.Fatal(err)
		}
		n := len(c.Detections())
		if n < prev {
			t.Fatalf("detection count shrank from %d to %d", prev, n)
		}
		// The boxcar tone occupies exactly one bin per capture.
		if n != prev+linger {
			t.Fatalf("step %d: detection count %d, want %d", i, n, prev+linger)
		}
		prev = n
	}

	// The tone sits 8 bins above center: 8 * 1 MHz / 64.
	d := c.Detections()[0]
	if want := int64(80000000 + 125000); d.FreqHz != want {
		t.Errorf("detection at %d Hz, want %d Hz", d.FreqHz, want)
	}
	if peak, ok := c.Peak(); !ok || peak.DBFS != d.DBFS {
		t.Errorf("Peak() = %+v, %t; want the tone detection", peak, ok)
	}
}

// A single failed capture is retried once; the sweep continues.
func TestCaptureRetryRecoversOnce(t *testing.T) {
	radio := &fakeRadio{readErrs: []error{errors.New("usb stall"), nil}}
	c := newController(t, radio, Options{
		MinHz: 80000000, MaxHz: 90000000, RateHz: 1000000, Linger: 2, MinDBFS: 0,
	})
	if err := c.Step(context.Background()); err != nil {
		t.Fatalf("step with one transient failure should recover, got: %s", err)
	}
	if radio.reads != 3 { // failed read + retry + second linger capture
		t.Errorf("reads = %d, want 3", radio.reads)
	}
}

// Two consecutive failures escalate to a fatal error.
func TestCaptureDoubleFailureIsFatal(t *testing.T) {
	cause := errors.New("usb stall")
	radio := &fakeRadio{readErrs: []error{cause, cause}}
	c := newController(t, radio, Options{
		MinHz: 80000000, MaxHz: 90000000, RateHz: 1000000, Linger: 1, MinDBFS: 0,
	})
	err := c.Step(context.Background())
	if err == nil {
		t.Fatal("step with two consecutive capture failures should be fatal")
	}
	if !errors.Is(err, cause) {
		t.Errorf("error %v should wrap the capture failure", err)
	}
}

// Settle blocks are read and discarded before the linger captures.
func TestSettleReadsDiscarded(t *testing.T) {
	radio := &fakeRadio{settle: 2}
	c := newController(t, radio, Options{
		MinHz: 80000000, MaxHz: 90000000, RateHz: 1000000, Linger: 3, MinDBFS: 0,
	})
	if err := c.Step(context.Background()); err != nil {
		t.Fatal(err)
	}
	if radio.reads != 5 {
		t.Errorf("reads = %d, want 2 settle + 3 linger = 5", radio.reads)
	}
}

func TestExportChannelReceivesDetections(t *testing.T) {
	radio := &fakeRadio{block: toneBlock(4)}
	c := newController(t, radio, Options{
		MinHz: 80000000, MaxHz: 90000000, RateHz: 1000000, Linger: 1, MinDBFS: -100,
	})
	out := make(chan Detection, 16)
	c.SetExport(out)
	if err := c.Step(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := len(out); got != 1 {
		t.Fatalf("exported %d detections, want 1", got)
	}
	d := <-out
	if d.FreqHz != 80000000+4*1000000/testFFTSize {
		t.Errorf("exported detection at %d Hz", d.FreqHz)
	}
}

// A stalled export receiver must not keep a step from observing
// cancellation.
func TestStepWithStalledExportUnblocksOnCancel(t *testing.T) {
	radio := &fakeRadio{block: toneBlock(8)}
	c := newController(t, radio, Options{
		MinHz: 80000000, MaxHz: 90000000, RateHz: 1000000, Linger: 1, MinDBFS: -100,
	})
	c.SetExport(make(chan Detection)) // unbuffered and never drained

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Step(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Step = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Step still blocked after cancellation with a stalled export receiver")
	}
}

// Tuned reports the slice just captured; Current reports the next tune
// target. After a step they differ by one slice.
func TestTunedTracksVisitedFrequency(t *testing.T) {
	radio := &fakeRadio{}
	c := newController(t, radio, Options{
		MinHz: 80000000, MaxHz: 90000000, RateHz: 1000000, Linger: 1, MinDBFS: 0,
	})
	if got := c.Tuned(); got != 80000000 {
		t.Errorf("Tuned() before first step = %d, want 80000000", got)
	}
	if err := c.Step(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := c.Tuned(); got != 80000000 {
		t.Errorf("Tuned() after first step = %d, want 80000000", got)
	}
	if got := c.Current(); got != 81000000 {
		t.Errorf("Current() after first step = %d, want 81000000", got)
	}
}

func TestStepHonorsCancel(t *testing.T) {
	radio := &fakeRadio{}
	c := newController(t, radio, Options{
		MinHz: 80000000, MaxHz: 90000000, RateHz: 1000000, Linger: 5, MinDBFS: 0,
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Step(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Step with canceled context = %v, want context.Canceled", err)
	}
}
