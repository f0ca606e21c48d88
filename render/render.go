package main

/*
This application renders spectrum plots for detections collected with
sigseek.

It currently only supports data collected into sqlite.
*/

import (
	"database/sql"
	"flag"
	"fmt"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"strings"
	"time"

	"github.com/golang/glog"

	// Blind import support for sqlite3 used by database/sql.
	_ "github.com/mattn/go-sqlite3"

	"github.com/hb9tf/sigview/extraction"
)

// Flags
var (
	sqliteFile   = flag.String("sqliteFile", "/tmp/sigview", "File path of the sqlite DB file to use.")
	source       = flag.String("source", "pluto", "Source type, e.g. pluto or rtlsdr.")
	identifier   = flag.String("identifier", "%", "Run identifier to select, supports SQL LIKE patterns.")
	startFreq    = flag.Int64("startFreq", 0, "Select detections starting with this frequency in Hz.")
	endFreq      = flag.Int64("endFreq", math.MaxInt64, "Select detections up to this frequency in Hz.")
	startTimeRaw = flag.String("startTime", "2000-01-02T15:04:05", "Select detections recorded after this time. Format: 2006-01-02T15:04:05")
	endTimeRaw   = flag.String("endTime", "2100-01-02T15:04:05", "Select detections recorded before this time. Format: 2006-01-02T15:04:05")
	imgPath      = flag.String("imgPath", "/tmp/out.png", "Path where the rendered image should be written to.")
	imgWidth     = flag.Int("imgWidth", 0, "Width of output image in pixels (0 uses one pixel per recorded frequency).")
	imgHeight    = flag.Int("imgHeight", 480, "Height of output image in pixels.")
	addGrid      = flag.Bool("grid", true, "Draw frequency and power axis labels around the plot.")
)

const timeFmt = "2006-01-02T15:04:05"

func main() {
	// Set defaults for glog flags. Can be overridden via cmdline.
	flag.Set("logtostderr", "false")
	flag.Set("stderrthreshold", "WARNING")
	flag.Set("v", "1")
	// Parse flags globally.
	flag.Parse()

	startTime, err := time.Parse(timeFmt, *startTimeRaw)
	if err != nil {
		glog.Exitf("unable to parse startTime (value: %q, format: %q): %s", *startTimeRaw, timeFmt, err)
	}
	endTime, err := time.Parse(timeFmt, *endTimeRaw)
	if err != nil {
		glog.Exitf("unable to parse endTime (value: %q, format: %q): %s", *endTimeRaw, timeFmt, err)
	}

	db, err := sql.Open("sqlite3", *sqliteFile)
	if err != nil {
		glog.Exitf("unable to open sqlite DB %q: %s", *sqliteFile, err)
	}
	defer db.Close()

	result, err := extraction.Render(db, &extraction.RenderRequest{
		Filter: &extraction.FilterOptions{
			Source:     *source,
			Identifier: *identifier,
			StartFreq:  *startFreq,
			EndFreq:    *endFreq,
			StartTime:  startTime,
			EndTime:    endTime,
		},
		Image: &extraction.ImageOptions{
			Height:  *imgHeight,
			Width:   *imgWidth,
			AddGrid: *addGrid,
		},
	})
	if err != nil {
		glog.Exitf("unable to render detections: %s", err)
	}

	fmt.Println("Selected source metadata:")
	fmt.Printf("  - Low frequency: %s\n", extraction.GetReadableFreq(result.SourceMeta.LowFreq))
	fmt.Printf("  - High frequency: %s\n", extraction.GetReadableFreq(result.SourceMeta.HighFreq))
	fmt.Printf("  - Power range: %.1f to %.1f dBFS\n", result.SourceMeta.MinDBFS, result.SourceMeta.MaxDBFS)
	fmt.Printf("Rendering image (%d x %d)\n", result.ImageMeta.ImageWidth, result.ImageMeta.ImageHeight)

	fmt.Printf("Writing image to %q\n", *imgPath)
	f, err := os.Create(*imgPath)
	if err != nil {
		glog.Exitf("unable to create %q: %s", *imgPath, err)
	}
	defer f.Close()
	switch {
	case strings.HasSuffix(*imgPath, ".png"):
		png.Encode(f, result.Image)
	case strings.HasSuffix(*imgPath, ".jpg"):
		jpeg.Encode(f, result.Image, &jpeg.Options{Quality: jpeg.DefaultQuality})
	default:
		glog.Exitf("unsupported image format for %q, use .png or .jpg", *imgPath)
	}
}
