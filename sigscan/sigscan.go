package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/golang/glog"

	"github.com/hb9tf/sigview/dsp"
	"github.com/hb9tf/sigview/scan"
	"github.com/hb9tf/sigview/sdr"
	"github.com/hb9tf/sigview/sdr/pluto"
	"github.com/hb9tf/sigview/sdr/rtlsdr"
	"github.com/hb9tf/sigview/tui"
)

// Flags
var (
	frequency      = flag.Int64("frequency", 100000000, "center frequency in Hz")
	rate           = flag.Int64("rate", 1000000, "sample rate in Hz")
	minDBFS        = flag.Float64("mindbfs", -50, "bottom of the power scale in dBFS")
	maxDBFS        = flag.Float64("maxdbfs", 40, "top of the power scale in dBFS")
	fftSize        = flag.Int("fftsize", 1024, "FFT length and IQ block size per capture, must be a power of two")
	nperseg        = flag.Int("nperseg", 0, "Welch segment size (0 uses fftsize/4, or fftsize on rtlsdr; equal to fftsize selects the plain periodogram)")
	windowName     = flag.String("window", "hann", "FFT window (one of: boxcar, hann, hamming, blackman, blackmanharris, nuttall, flattop)")
	sdrType        = flag.String("sdr", "auto", "SDR to use (one of: pluto, rtlsdr, auto)")
	plutoURI       = flag.String("plutoURI", pluto.DefaultURI, "IIO context URI of the PlutoSDR.")
	gainRaw        = flag.String("gain", "fast", "gain as a dB value or an AGC attack style (fast, slow)")
	styleName      = flag.String("style", "tokyonight", "color style (one of: tokyonight, cyberpunk)")
	visualizersRaw = flag.String("visualizers", "psd,waterfall", "comma separated visualizers to stack, top first (1 to 3 of: psd, waterfall, constellation)")
	fps            = flag.Float64("fps", 0, "frame rate cap (0 runs as fast as the captures come in)")
)

func newRadio() (sdr.Radio, error) {
	switch strings.ToLower(*sdrType) {
	case pluto.SourceName:
		return pluto.New(*plutoURI)
	case rtlsdr.SourceName:
		return rtlsdr.New()
	case "auto":
		return sdr.FirstAvailable(
			func() (sdr.Radio, error) { return pluto.New(*plutoURI) },
			func() (sdr.Radio, error) { return rtlsdr.New() },
		)
	default:
		return nil, errors.New("pick one of: pluto, rtlsdr, auto")
	}
}

// defaultNperseg picks the segment size when the flag is unset: the full
// FFT (plain periodogram) for the narrowband rtlsdr, a quarter of it
// otherwise.
func defaultNperseg(fftSize int, source string) int {
	if source == rtlsdr.SourceName {
		return fftSize
	}
	return fftSize / 4
}

func isQuitKey(ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
		return true
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == 'q'
}

// command maps a key event onto a session command. Unbound keys are
// ignored.
func command(ev *tcell.EventKey) (scan.Command, bool) {
	if ev.Key() != tcell.KeyRune {
		return 0, false
	}
	switch ev.Rune() {
	case '[':
		return scan.CmdPanFineDown, true
	case ']':
		return scan.CmdPanFineUp, true
	case 'a':
		return scan.CmdPanMediumDown, true
	case 'd':
		return scan.CmdPanMediumUp, true
	case 'A':
		return scan.CmdPanCoarseDown, true
	case 'D':
		return scan.CmdPanCoarseUp, true
	case 'w':
		return scan.CmdZoomMediumIn, true
	case 's':
		return scan.CmdZoomMediumOut, true
	case 'W':
		return scan.CmdZoomCoarseIn, true
	case 'S':
		return scan.CmdZoomCoarseOut, true
	case 'p':
		return scan.CmdTogglePSD, true
	case 'f':
		return scan.CmdToggleWaterfall, true
	case 'c':
		return scan.CmdToggleConstellation, true
	case '+':
		return scan.CmdGainUp, true
	case '-':
		return scan.CmdGainDown, true
	}
	return 0, false
}

type session struct {
	radio    sdr.Radio
	analyzer *dsp.Analyzer
	ctrl     *scan.Controller
	style    tui.Style

	psd           *tui.PSD
	waterfall     *tui.Waterfall
	constellation *tui.Constellation
}

func (ss *session) drawHeader(s tcell.Screen, w int) {
	cfg := ss.ctrl.Config()
	line := fmt.Sprintf(" %s | rate:%s | gain:%s",
		tui.FormatFreq(float64(cfg.CenterHz)),
		tui.FormatFreq(float64(cfg.SampleRateHz)),
		cfg.Gain)
	if status := ss.ctrl.Status(); status != "" {
		line += " | " + status
	}
	header := tui.Pane{X: 0, Y: 0, W: w, H: 1}
	tui.Fill(s, header, ss.style.Header)
	tui.DrawText(s, header, 0, 0, ss.style.Header, line)
}

func (ss *session) drawPane(s tcell.Screen, v scan.Visualizer, p tui.Pane) {
	switch v {
	case scan.VizPSD:
		ss.psd.Draw(s, p)
	case scan.VizWaterfall:
		ss.waterfall.Draw(s, p)
	case scan.VizConstellation:
		ss.constellation.Draw(s, p)
	}
}

func (ss *session) run(ctx context.Context, s tcell.Screen) error {
	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	go s.ChannelEvents(events, quit)
	defer close(quit)

	lastCfg := ss.ctrl.Config()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		frameStart := time.Now()

	drain:
		for {
			select {
			case ev := <-events:
				switch ev := ev.(type) {
				case *tcell.EventKey:
					if isQuitKey(ev) {
						return nil
					}
					if cmd, ok := command(ev); ok {
						ss.ctrl.Apply(cmd)
					}
				case *tcell.EventResize:
					_, h := s.Size()
					ss.waterfall.History().Resize(h)
					s.Sync()
				}
			default:
				break drain
			}
		}

		// A retune restarts the capture stream, so discard the blocks
		// that predate it.
		cfg := ss.ctrl.Config()
		if cfg != lastCfg {
			for i := 0; i < ss.radio.SettleReads(); i++ {
				if _, err := ss.radio.ReadIQ(cfg.FFTSize); err != nil {
					glog.Warningf("settle read failed: %s\n", err)
					break
				}
			}
			lastCfg = cfg
		}

		samples, err := ss.radio.ReadIQ(cfg.FFTSize)
		if err != nil {
			glog.Warningf("capture failed, skipping frame: %s\n", err)
			continue
		}
		frame, err := ss.analyzer.Analyze(samples, cfg.CenterHz, cfg.SampleRateHz)
		if err != nil {
			glog.Warningf("analysis failed, skipping frame: %s\n", err)
			continue
		}
		ss.psd.Update(frame)
		ss.waterfall.Push(frame)
		ss.constellation.Update(samples)

		w, h := s.Size()
		ss.drawHeader(s, w)
		active := ss.ctrl.Active()
		for i, p := range tui.Split(w, h-1, len(active)) {
			p.Y += 1
			ss.drawPane(s, active[i], p)
		}
		s.Show()

		if *fps > 0 {
			frameTime := time.Duration(float64(time.Second) / *fps)
			if remaining := frameTime - time.Since(frameStart); remaining > 0 {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(remaining):
				}
			}
		}
	}
}

func main() {
	// Set defaults for glog flags. Can be overridden via cmdline.
	flag.Set("logtostderr", "false")
	flag.Set("stderrthreshold", "WARNING")
	flag.Set("v", "1")
	// Parse flags globally.
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	win, err := dsp.ParseWindow(*windowName)
	if err != nil {
		glog.Exit(err)
	}
	gain, err := sdr.ParseGain(*gainRaw)
	if err != nil {
		glog.Exit(err)
	}
	style, err := tui.ParseStyle(*styleName)
	if err != nil {
		glog.Exit(err)
	}
	visualizers, err := scan.ParseVisualizers(*visualizersRaw)
	if err != nil {
		glog.Exit(err)
	}

	// SDR setup
	radio, err := newRadio()
	if err != nil {
		glog.Exitf("unable to set up SDR: %s", err)
	}

	// Every exit path past this point releases the radio.
	err = runScan(ctx, radio, win, gain, style, visualizers)
	radio.Close()
	if err != nil {
		glog.Exit(err)
	}
	glog.Flush()
}

// runScan wires the live session around an opened radio and runs it
// until the context is canceled or the operator quits. All failures
// return to main so the radio is released before the process exits.
func runScan(ctx context.Context, radio sdr.Radio, win dsp.Window, gain sdr.Gain, style tui.Style, visualizers []scan.Visualizer) error {
	if *nperseg == 0 {
		*nperseg = defaultNperseg(*fftSize, radio.Name())
	}
	analyzer, err := dsp.NewAnalyzer(*fftSize, *nperseg, win)
	if err != nil {
		return err
	}

	cfg := sdr.Config{
		CenterHz:     *frequency,
		SampleRateHz: *rate,
		Gain:         gain,
		FFTSize:      *fftSize,
		Nperseg:      *nperseg,
		Window:       win,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := radio.Configure(cfg); err != nil {
		return fmt.Errorf("unable to tune %s: %s", radio.Name(), err)
	}
	ctrl := scan.New(radio, cfg, visualizers)

	screen, err := tui.NewScreen()
	if err != nil {
		return fmt.Errorf("unable to initialize terminal: %s", err)
	}
	_, h := screen.Size()

	ss := &session{
		radio:         radio,
		analyzer:      analyzer,
		ctrl:          ctrl,
		style:         style,
		psd:           tui.NewPSD(style, *minDBFS, *maxDBFS),
		waterfall:     tui.NewWaterfall(style, h),
		constellation: tui.NewConstellation(style),
	}
	runErr := ss.run(ctx, screen)
	screen.Fini()
	return runErr
}
