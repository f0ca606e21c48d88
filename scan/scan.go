// Package scan drives the interactive scanner: a fixed center frequency
// with live pan/zoom/visualizer commands applied between capture cycles.
// All mutation of the session state goes through the Controller; the
// main loop applies queued commands, captures, and renders, in that
// order, on a single thread.
package scan

import (
	"fmt"
	"strings"

	"github.com/golang/glog"

	"github.com/hb9tf/sigview/sdr"
)

// Visualizer identifies one of the three spectral views.
type Visualizer int

const (
	VizPSD Visualizer = iota
	VizWaterfall
	VizConstellation
)

func (v Visualizer) String() string {
	switch v {
	case VizPSD:
		return "psd"
	case VizWaterfall:
		return "waterfall"
	case VizConstellation:
		return "constellation"
	default:
		return fmt.Sprintf("invalid visualizer: %d", int(v))
	}
}

// ParseVisualizers resolves the CLI visualizer list, e.g. "psd,waterfall".
// Order is preserved; one to three entries are allowed.
func ParseVisualizers(s string) ([]Visualizer, error) {
	parts := strings.Split(s, ",")
	if len(parts) == 0 || len(parts) > 3 {
		return nil, fmt.Errorf("invalid layout %q: pick 1 to 3 of psd, waterfall, constellation", s)
	}
	var vs []Visualizer
	for _, p := range parts {
		switch strings.TrimSpace(p) {
		case "psd":
			vs = append(vs, VizPSD)
		case "waterfall":
			vs = append(vs, VizWaterfall)
		case "constellation":
			vs = append(vs, VizConstellation)
		default:
			return nil, fmt.Errorf("%q is not a visualizer, pick one of: psd, waterfall, constellation", strings.TrimSpace(p))
		}
	}
	return vs, nil
}

// Command is one discrete keyboard action. Commands are applied
// deterministically before the capture step, so tests can feed them
// synthetically.
type Command int

const (
	CmdPanFineDown Command = iota
	CmdPanFineUp
	CmdPanMediumDown
	CmdPanMediumUp
	CmdPanCoarseDown
	CmdPanCoarseUp
	CmdZoomMediumIn
	CmdZoomMediumOut
	CmdZoomCoarseIn
	CmdZoomCoarseOut
	CmdTogglePSD
	CmdToggleWaterfall
	CmdToggleConstellation
	CmdGainUp
	CmdGainDown
)

// Pan and zoom step sizes in Hz.
const (
	panFineHz   = 1000
	panMediumHz = 100000
	panCoarseHz = 10000000

	zoomMediumHz = 100000
	zoomCoarseHz = 10000000

	gainStepDB = 1.0
)

// Controller owns the scan session state. The renderer borrows read-only
// snapshots per frame and never mutates it.
type Controller struct {
	radio      sdr.Radio
	cfg        sdr.Config
	configured []Visualizer

	fullscreen    Visualizer
	hasFullscreen bool

	status string
}

// New assumes the radio is already configured with cfg.
func New(radio sdr.Radio, cfg sdr.Config, visualizers []Visualizer) *Controller {
	return &Controller{
		radio:      radio,
		cfg:        cfg,
		configured: visualizers,
	}
}

// Config returns the last valid tuning state.
func (c *Controller) Config() sdr.Config { return c.cfg }

// Active returns the visualizers to render this frame: the fullscreen
// one if toggled, otherwise the configured set.
func (c *Controller) Active() []Visualizer {
	if c.hasFullscreen {
		return []Visualizer{c.fullscreen}
	}
	return c.configured
}

// Status returns the transient status line, empty when all is well.
func (c *Controller) Status() string { return c.status }

// Apply executes one command against the session state.
func (c *Controller) Apply(cmd Command) {
	switch cmd {
	case CmdPanFineDown:
		c.pan(-panFineHz)
	case CmdPanFineUp:
		c.pan(panFineHz)
	case CmdPanMediumDown:
		c.pan(-panMediumHz)
	case CmdPanMediumUp:
		c.pan(panMediumHz)
	case CmdPanCoarseDown:
		c.pan(-panCoarseHz)
	case CmdPanCoarseUp:
		c.pan(panCoarseHz)
	case CmdZoomMediumIn:
		c.zoom(-zoomMediumHz)
	case CmdZoomMediumOut:
		c.zoom(zoomMediumHz)
	case CmdZoomCoarseIn:
		c.zoom(-zoomCoarseHz)
	case CmdZoomCoarseOut:
		c.zoom(zoomCoarseHz)
	case CmdTogglePSD:
		c.toggle(VizPSD)
	case CmdToggleWaterfall:
		c.toggle(VizWaterfall)
	case CmdToggleConstellation:
		c.toggle(VizConstellation)
	case CmdGainUp:
		c.nudgeGain(gainStepDB)
	case CmdGainDown:
		c.nudgeGain(-gainStepDB)
	}
}

// pan moves the center frequency, clamped into the backend's range.
func (c *Controller) pan(deltaHz int64) {
	lo, hi := c.radio.FreqRange()
	target := sdr.Clamp(c.cfg.CenterHz+deltaHz, lo, hi)
	c.retune(func(cfg *sdr.Config) { cfg.CenterHz = target })
}

// zoom changes the sample rate (IQ bandwidth), clamped into the
// backend's range.
func (c *Controller) zoom(deltaHz int64) {
	lo, hi := c.radio.RateRange()
	target := sdr.Clamp(c.cfg.SampleRateHz+deltaHz, lo, hi)
	c.retune(func(cfg *sdr.Config) { cfg.SampleRateHz = target })
}

func (c *Controller) nudgeGain(deltaDB float64) {
	if c.cfg.Gain.Mode != sdr.GainManual {
		c.status = fmt.Sprintf("gain is %s (auto), start with a dB value to nudge it", c.cfg.Gain.Mode)
		return
	}
	c.retune(func(cfg *sdr.Config) { cfg.Gain.DB += deltaDB })
}

// retune applies a mutation to a copy of the config and reconfigures the
// radio. A rejection keeps the last valid config and surfaces a status
// line; the session must survive a bad tuning request.
func (c *Controller) retune(mutate func(*sdr.Config)) {
	next := c.cfg
	mutate(&next)
	if next == c.cfg {
		return
	}
	if err := c.radio.Configure(next); err != nil {
		glog.Warningf("reconfigure rejected: %s\n", err)
		c.status = fmt.Sprintf("tune rejected: %s", err)
		return
	}
	c.cfg = next
	c.status = ""
}

// toggle switches a visualizer's fullscreen view on or off. While a
// fullscreen view is up, any toggle key restores the configured layout,
// which makes each key its own round trip.
func (c *Controller) toggle(v Visualizer) {
	if c.hasFullscreen {
		c.hasFullscreen = false
		return
	}
	c.fullscreen = v
	c.hasFullscreen = true
}
