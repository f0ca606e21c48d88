// Package rtlsdr drives an RTL2832U dongle by streaming raw unsigned
// 8-bit IQ from rtl_sdr's stdout.
package rtlsdr

import (
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"github.com/golang/glog"

	"github.com/hb9tf/sigview/sdr"
)

const (
	SourceName = "rtlsdr"
	readAlias  = "rtl_sdr"
)

// Tuning limits of the R820T tuner and RTL2832U sampler.
const (
	minFreqHz = 24000000
	maxFreqHz = 1766000000
	minRateHz = 226000
	maxRateHz = 3200000
)

type Radio struct {
	cfg    sdr.Config
	cmd    *exec.Cmd
	stream io.ReadCloser
}

// New probes for the rtl_sdr binary and returns an unconfigured handle.
// There is no cheap way to query the dongle without claiming it, so
// device errors surface at the first Configure.
func New() (*Radio, error) {
	if _, err := exec.LookPath(readAlias); err != nil {
		return nil, fmt.Errorf("rtlsdr unavailable: %s", err)
	}
	return &Radio{}, nil
}

func (r *Radio) Name() string { return SourceName }

func (r *Radio) FreqRange() (int64, int64) { return minFreqHz, maxFreqHz }

func (r *Radio) RateRange() (int64, int64) { return minRateHz, maxRateHz }

// SettleReads is 1: a retune restarts rtl_sdr and the first buffered
// block predates the new tuning.
func (r *Radio) SettleReads() int { return 1 }

func (r *Radio) Configure(cfg sdr.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := sdr.CheckRange(r, cfg); err != nil {
		return err
	}

	args := []string{
		"-f", strconv.FormatInt(cfg.CenterHz, 10),
		"-s", strconv.FormatInt(cfg.SampleRateHz, 10),
	}
	switch cfg.Gain.Mode {
	case sdr.GainManual:
		args = append(args, "-g", strconv.FormatFloat(cfg.Gain.DB, 'f', 1, 64))
	case sdr.GainFastAttack:
		// rtl_sdr's tuner AGC is the default when no gain is given.
	case sdr.GainSlowAttack:
		return fmt.Errorf("rtlsdr has a single AGC style, use fast or a dB value: %w", sdr.ErrUnsupportedGain)
	default:
		return fmt.Errorf("%q: %w", cfg.Gain.Mode, sdr.ErrUnsupportedGain)
	}
	args = append(args, "-") // raw IQ to stdout

	r.stopStream()
	cmd := exec.Command(readAlias, args...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("unable to start %s: %s", readAlias, err)
	}
	r.cmd = cmd
	r.stream = out
	r.cfg = cfg
	return nil
}

func (r *Radio) stopStream() {
	if r.cmd == nil {
		return
	}
	if err := r.cmd.Process.Kill(); err != nil {
		glog.Warningf("unable to kill %s: %s\n", readAlias, err)
	}
	r.cmd.Wait()
	r.cmd = nil
	r.stream = nil
}

func (r *Radio) ReadIQ(n int) ([]complex128, error) {
	if r.stream == nil {
		return nil, fmt.Errorf("rtlsdr is not configured")
	}
	buf := make([]byte, n*2) // u8 I + u8 Q per sample
	if _, err := io.ReadFull(r.stream, buf); err != nil {
		return nil, fmt.Errorf("short read from %s: %s", readAlias, err)
	}
	samples := make([]complex128, n)
	for i := 0; i < n; i++ {
		re := (float64(buf[i*2]) - 127.5) / 127.5
		im := (float64(buf[i*2+1]) - 127.5) / 127.5
		samples[i] = complex(re, im)
	}
	return samples, nil
}

func (r *Radio) Close() error {
	r.stopStream()
	return nil
}
