// Package sweep drives the seeker: hop across a frequency range one
// rate-wide slice at a time and record every PSD bin above the detection
// threshold. The per-frequency cycle is tune, settle, capture, analyze,
// record, advance; it repeats until the context is canceled.
package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/hb9tf/sigview/dsp"
	"github.com/hb9tf/sigview/sdr"
)

// Detection is one above-threshold bin. Detections at the same frequency
// are retained distinctly so the scatter accumulates density at real
// signals across passes.
type Detection struct {
	FreqHz int64
	DBFS   float64
	Time   time.Time
}

// Options bound one sweep run. The step size is the sample rate: one FFT
// covers one rate-wide slice.
type Options struct {
	MinHz   int64
	MaxHz   int64
	RateHz  int64
	Linger  int // consecutive captures per frequency
	MinDBFS float64
}

func (o Options) Validate() error {
	if o.MinHz <= 0 || o.MaxHz < o.MinHz {
		return fmt.Errorf("invalid frequency range %d..%d Hz", o.MinHz, o.MaxHz)
	}
	if o.RateHz <= 0 {
		return fmt.Errorf("rate must be positive, got %d", o.RateHz)
	}
	if o.Linger <= 0 {
		return fmt.Errorf("linger must be positive, got %d", o.Linger)
	}
	return nil
}

// Controller owns the sweep state for the process lifetime. It is not
// safe for concurrent use; the main loop is single threaded.
type Controller struct {
	radio    sdr.Radio
	analyzer *dsp.Analyzer
	cfg      sdr.Config
	opts     Options

	current    int64
	tuned      int64
	detections []Detection
	export     chan<- Detection
}

// New builds a controller starting at the bottom of the range. cfg
// carries the gain and FFT geometry; center and rate are overwritten per
// tuning step.
func New(radio sdr.Radio, analyzer *dsp.Analyzer, cfg sdr.Config, opts Options) (*Controller, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Controller{
		radio:    radio,
		analyzer: analyzer,
		cfg:      cfg,
		opts:     opts,
		current:  opts.MinHz,
		tuned:    opts.MinHz,
	}, nil
}

// SetExport forwards every recorded detection to ch. The receiver must
// keep draining for the sweep to make progress; cancellation unblocks a
// stalled send.
func (c *Controller) SetExport(ch chan<- Detection) { c.export = ch }

// Current returns the frequency the next step will tune to.
func (c *Controller) Current() int64 { return c.current }

// Tuned returns the frequency of the most recently completed tune, the
// slice whose captures the detection set last grew from. Before the
// first step it is the bottom of the range.
func (c *Controller) Tuned() int64 { return c.tuned }

// Detections returns the cumulative detection set. The slice is shared;
// renderers must treat it as read-only and not retain it across frames.
func (c *Controller) Detections() []Detection { return c.detections }

// Peak returns the strongest detection so far.
func (c *Controller) Peak() (Detection, bool) { return Peak(c.detections) }

// Peak returns the strongest detection in the set, false when empty.
func Peak(detections []Detection) (Detection, bool) {
	if len(detections) == 0 {
		return Detection{}, false
	}
	peak := detections[0]
	for _, d := range detections[1:] {
		if d.DBFS > peak.DBFS {
			peak = d
		}
	}
	return peak, true
}

// Step performs one full visit of the current frequency. Tuning and
// capture failures (after one retry) are fatal: the sweep cannot safely
// continue without a working capture path.
func (c *Controller) Step(ctx context.Context) error {
	// TUNE
	cfg := c.cfg
	cfg.CenterHz = c.current
	cfg.SampleRateHz = c.opts.RateHz
	if err := c.radio.Configure(cfg); err != nil {
		return fmt.Errorf("tuning to %d Hz: %w", c.current, err)
	}
	c.tuned = c.current

	// SETTLE: discard stale blocks after the retune.
	for i := 0; i < c.radio.SettleReads(); i++ {
		if _, err := c.readBlock(); err != nil {
			return err
		}
	}

	// CAPTURE/ANALYZE/RECORD for the linger window.
	for i := 0; i < c.opts.Linger; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		samples, err := c.readBlock()
		if err != nil {
			return err
		}
		frame, err := c.analyzer.Analyze(samples, c.current, c.opts.RateHz)
		if err != nil {
			return err
		}
		if err := c.record(ctx, frame); err != nil {
			return err
		}
	}

	// ADVANCE
	c.advance()
	return nil
}

// readBlock reads one IQ block, retrying a failed read once before
// escalating.
func (c *Controller) readBlock() ([]complex128, error) {
	samples, err := c.radio.ReadIQ(c.cfg.FFTSize)
	if err == nil {
		return samples, nil
	}
	glog.Warningf("capture at %d Hz failed, retrying once: %s\n", c.current, err)
	samples, err = c.radio.ReadIQ(c.cfg.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("capture at %d Hz failed after retry: %w", c.current, err)
	}
	return samples, nil
}

// record appends a detection for every bin at or above the threshold.
// The set only ever grows; repeated passes accumulate density. An export
// send never outlives the context: a stalled receiver aborts the step
// with ctx.Err().
func (c *Controller) record(ctx context.Context, frame dsp.Frame) error {
	for _, bin := range frame.Bins {
		if bin.DBFS < c.opts.MinDBFS {
			continue
		}
		d := Detection{
			FreqHz: frame.CenterHz + int64(bin.OffsetHz),
			DBFS:   bin.DBFS,
			Time:   frame.Time,
		}
		c.detections = append(c.detections, d)
		if c.export == nil {
			continue
		}
		select {
		case c.export <- d:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// advance moves one rate-wide slice up. A tune at f covers [f, f+rate),
// so the pass wraps to the bottom once the next center reaches the upper
// edge; a range whose width is not a rate multiple gets a final slice
// overhanging the edge rather than a gap.
func (c *Controller) advance() {
	next := c.current + c.opts.RateHz
	if next >= c.opts.MaxHz {
		next = c.opts.MinHz
	}
	c.current = next
}
