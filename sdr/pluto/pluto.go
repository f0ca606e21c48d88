// Package pluto drives an ADALM-Pluto transceiver through the libiio
// command line tools: tuning attributes go through iio_attr, the IQ
// stream comes from iio_readdev on stdout.
package pluto

import (
	"encoding/binary"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/golang/glog"

	"github.com/hb9tf/sigview/sdr"
)

const (
	SourceName = "pluto"
	DefaultURI = "ip:192.168.2.1"

	attrAlias = "iio_attr"
	readAlias = "iio_readdev"

	phyDevice = "ad9361-phy"
	rxDevice  = "cf-ad9361-lpc"

	// 12-bit ADC, samples arrive as sign-extended int16.
	fullScale = 2048
)

// Tuning limits of the AD9361 in the Pluto firmware.
const (
	minFreqHz = 70000000
	maxFreqHz = 6000000000
	minRateHz = 521000
	maxRateHz = 56000000
)

type Radio struct {
	URI string

	cfg    sdr.Config
	cmd    *exec.Cmd
	stream io.ReadCloser
}

// New probes for a reachable Pluto and returns an unconfigured handle.
func New(uri string) (*Radio, error) {
	if uri == "" {
		uri = DefaultURI
	}
	out, err := exec.Command(attrAlias, "-u", uri, "-C", "fw_version").CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("pluto not reachable at %q: %s (%s)", uri, err, strings.TrimSpace(string(out)))
	}
	glog.Infof("pluto at %q: %s", uri, strings.TrimSpace(string(out)))
	return &Radio{URI: uri}, nil
}

func (r *Radio) Name() string { return SourceName }

func (r *Radio) FreqRange() (int64, int64) { return minFreqHz, maxFreqHz }

func (r *Radio) RateRange() (int64, int64) { return minRateHz, maxRateHz }

// SettleReads is 1: the first block after a stream restart was buffered
// under the previous tuning.
func (r *Radio) SettleReads() int { return 1 }

func (r *Radio) Configure(cfg sdr.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := sdr.CheckRange(r, cfg); err != nil {
		return err
	}

	attrs := [][]string{
		{"-c", phyDevice, "RX_LO", "frequency", strconv.FormatInt(cfg.CenterHz, 10)},
		{"-i", "-c", phyDevice, "voltage0", "sampling_frequency", strconv.FormatInt(cfg.SampleRateHz, 10)},
		// IQ sampling, bandwidth tracks the sample rate.
		{"-i", "-c", phyDevice, "voltage0", "rf_bandwidth", strconv.FormatInt(cfg.SampleRateHz, 10)},
	}
	switch cfg.Gain.Mode {
	case sdr.GainFastAttack:
		attrs = append(attrs, []string{"-i", "-c", phyDevice, "voltage0", "gain_control_mode", "fast_attack"})
	case sdr.GainSlowAttack:
		attrs = append(attrs, []string{"-i", "-c", phyDevice, "voltage0", "gain_control_mode", "slow_attack"})
	case sdr.GainManual:
		attrs = append(attrs,
			[]string{"-i", "-c", phyDevice, "voltage0", "gain_control_mode", "manual"},
			[]string{"-i", "-c", phyDevice, "voltage0", "hardwaregain", strconv.FormatFloat(cfg.Gain.DB, 'f', 1, 64)})
	default:
		return fmt.Errorf("%q: %w", cfg.Gain.Mode, sdr.ErrUnsupportedGain)
	}
	for _, attr := range attrs {
		if err := r.setAttr(attr); err != nil {
			return err
		}
	}

	if err := r.restartStream(cfg.FFTSize); err != nil {
		return err
	}
	r.cfg = cfg
	return nil
}

func (r *Radio) setAttr(attr []string) error {
	args := append([]string{"-u", r.URI}, attr...)
	out, err := exec.Command(attrAlias, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("iio_attr %s: %s (%s)", strings.Join(attr, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// restartStream replaces the running iio_readdev with one sized to the
// new capture block.
func (r *Radio) restartStream(blockSize int) error {
	r.stopStream()

	cmd := exec.Command(readAlias, "-u", r.URI, "-b", strconv.Itoa(blockSize), rxDevice)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("unable to start %s: %s", readAlias, err)
	}
	r.cmd = cmd
	r.stream = out
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
		return nil, fmt.Errorf("pluto is not configured")
	}
	buf := make([]byte, n*4) // int16 I + int16 Q per sample
	if _, err := io.ReadFull(r.stream, buf); err != nil {
		return nil, fmt.Errorf("short read from %s: %s", readAlias, err)
	}
	samples := make([]complex128, n)
	for i := 0; i < n; i++ {
		re := int16(binary.LittleEndian.Uint16(buf[i*4:]))
		im := int16(binary.LittleEndian.Uint16(buf[i*4+2:]))
		samples[i] = complex(float64(re)/fullScale, float64(im)/fullScale)
	}
	return samples, nil
}

func (r *Radio) Close() error {
	r.stopStream()
	return nil
}
