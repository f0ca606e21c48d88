package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-sql-driver/mysql"
	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/hb9tf/sigview/dsp"
	"github.com/hb9tf/sigview/export"
	"github.com/hb9tf/sigview/sdr"
	"github.com/hb9tf/sigview/sdr/pluto"
	"github.com/hb9tf/sigview/sdr/rtlsdr"
	"github.com/hb9tf/sigview/sweep"
	"github.com/hb9tf/sigview/tui"

	// Blind import support for sqlite3 used by database/sql.
	_ "github.com/mattn/go-sqlite3"
)

// Flags
var (
	identifier = flag.String("id", "", "unique identifier of this run (defaults to a random UUID)")
	frange     = flag.String("frange", "", "frequency range to sweep as min:max in Hz (defaults to the full tuning range of the radio)")
	rate       = flag.Int64("rate", 1000000, "sample rate in Hz, also the width of one sweep slice")
	linger     = flag.Int("linger", 20, "consecutive captures per frequency before moving on")
	minDBFS    = flag.Float64("mindbfs", 0, "record bins at or above this power in dBFS")
	fftSize    = flag.Int("fftsize", 1024, "FFT length and IQ block size per capture, must be a power of two")
	nperseg    = flag.Int("nperseg", 0, "Welch segment size (0 uses fftsize/4, or fftsize on rtlsdr; equal to fftsize selects the plain periodogram)")
	windowName = flag.String("window", "hann", "FFT window (one of: boxcar, hann, hamming, blackman, blackmanharris, nuttall, flattop)")
	sdrType    = flag.String("sdr", "auto", "SDR to use (one of: pluto, rtlsdr, auto)")
	plutoURI   = flag.String("plutoURI", pluto.DefaultURI, "IIO context URI of the PlutoSDR.")
	gainRaw    = flag.String("gain", "fast", "gain as a dB value or an AGC attack style (fast, slow)")
	styleName  = flag.String("style", "tokyonight", "color style (one of: tokyonight, cyberpunk)")
	output     = flag.String("output", "", "Detection recording mechanism to use (one of: csv, sqlite, mysql; empty disables recording)")

	// SQLite
	sqliteFile = flag.String("sqliteFile", "/tmp/sigview", "File path of the sqlite DB file to use.")

	// MySQL
	mysqlServer       = flag.String("mysqlServer", "127.0.0.1:3306", "MySQL TCP server endpoint to connect to (IP/DNS and port).")
	mysqlUser         = flag.String("mysqlUser", "", "MySQL DB user.")
	mysqlPasswordFile = flag.String("mysqlPasswordFile", "", "Path to the file containing the password for the MySQL user.")
	mysqlDBName       = flag.String("mysqlDBName", "sigview", "Name of the DB to use.")
)

func parseRange(s string, radio sdr.Radio) (int64, int64, error) {
	if s == "" {
		lo, hi := radio.FreqRange()
		return lo, hi, nil
	}
	loRaw, hiRaw, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, errors.New("range must be min:max in Hz")
	}
	lo, err := strconv.ParseInt(loRaw, 10, 64)
	if err != nil {
		return 0, 0, err
	}
	hi, err := strconv.ParseInt(hiRaw, 10, 64)
	if err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

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

func run(ctx context.Context, s tcell.Screen, ctrl *sweep.Controller, view *tui.Seek) error {
	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	go s.ChannelEvents(events, quit)
	defer close(quit)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
	drain:
		for {
			select {
			case ev := <-events:
				switch ev := ev.(type) {
				case *tcell.EventKey:
					if isQuitKey(ev) {
						return nil
					}
				case *tcell.EventResize:
					s.Sync()
				}
			default:
				break drain
			}
		}

		if err := ctrl.Step(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		view.Draw(s, ctrl.Tuned(), ctrl.Detections())
		s.Show()
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

	if *identifier == "" {
		*identifier = uuid.NewString()
	}
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

	// SDR setup
	radio, err := newRadio()
	if err != nil {
		glog.Exitf("unable to set up SDR: %s", err)
	}

	// Every exit path past this point releases the radio.
	err = seek(ctx, radio, win, gain, style)
	radio.Close()
	if err != nil {
		glog.Exit(err)
	}
	glog.Flush()
}

// seek wires the sweep pipeline around an opened radio and runs it until
// the context is canceled or the operator quits. All failures return to
// main so the radio is released before the process exits.
func seek(ctx context.Context, radio sdr.Radio, win dsp.Window, gain sdr.Gain, style tui.Style) error {
	if *nperseg == 0 {
		*nperseg = defaultNperseg(*fftSize, radio.Name())
	}
	analyzer, err := dsp.NewAnalyzer(*fftSize, *nperseg, win)
	if err != nil {
		return err
	}
	minHz, maxHz, err := parseRange(*frange, radio)
	if err != nil {
		return fmt.Errorf("unable to parse -frange %q: %s", *frange, err)
	}

	cfg := sdr.Config{
		CenterHz:     minHz,
		SampleRateHz: *rate,
		Gain:         gain,
		FFTSize:      *fftSize,
		Nperseg:      *nperseg,
		Window:       win,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctrl, err := sweep.New(radio, analyzer, cfg, sweep.Options{
		MinHz:   minHz,
		MaxHz:   maxHz,
		RateHz:  *rate,
		Linger:  *linger,
		MinDBFS: *minDBFS,
	})
	if err != nil {
		return err
	}

	// Exporter setup
	var exporter export.Exporter
	switch strings.ToLower(*output) {
	case "":
		// Recording disabled.
	case "csv":
		exporter = &export.CSV{
			Identifier: *identifier,
			Source:     radio.Name(),
		}
	case "sqlite":
		db, err := sql.Open("sqlite3", *sqliteFile)
		if err != nil {
			return fmt.Errorf("unable to open sqlite DB %q: %s", *sqliteFile, err)
		}
		exporter = &export.SQL{
			Identifier: *identifier,
			Source:     radio.Name(),
			DB:         db,
		}
	case "mysql":
		pass, err := os.ReadFile(*mysqlPasswordFile)
		if err != nil {
			return fmt.Errorf("unable to read MySQL password file %q: %s", *mysqlPasswordFile, err)
		}
		mysqlCfg := mysql.Config{
			User:   *mysqlUser,
			Passwd: strings.TrimSpace(string(pass)),
			Net:    "tcp",
			Addr:   *mysqlServer,
			DBName: *mysqlDBName,
		}
		db, err := sql.Open("mysql", mysqlCfg.FormatDSN())
		if err != nil {
			return fmt.Errorf("unable to open MySQL DB %q: %s", *mysqlServer, err)
		}
		db.SetConnMaxLifetime(3 * time.Minute)
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		exporter = &export.SQL{
			Identifier: *identifier,
			Source:     radio.Name(),
			DB:         db,
		}
	default:
		return fmt.Errorf("%q is not a supported recording method, pick one of: csv, sqlite, mysql", *output)
	}

	var detections chan sweep.Detection
	exportDone := make(chan error, 1)
	if exporter != nil {
		detections = make(chan sweep.Detection, 1000)
		ctrl.SetExport(detections)
		go func() {
			exportDone <- exporter.Write(ctx, detections)
		}()
	}

	screen, err := tui.NewScreen()
	if err != nil {
		return fmt.Errorf("unable to initialize terminal: %s", err)
	}
	view := tui.NewSeek(style, minHz, maxHz, *minDBFS)
	runErr := run(ctx, screen, ctrl, view)
	screen.Fini()

	if exporter != nil {
		close(detections)
		if err := <-exportDone; err != nil {
			glog.Errorf("detection recording failed: %s\n", err)
		}
	}
	return runErr
}
