package extraction

import (
	"database/sql"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"time"

	"github.com/golang/glog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	// Colors defining the gradient of the spectrum plot. The higher the index, the warmer.
	colors = map[int]color.RGBA{
		0: {0, 0, 0, 255},       // black
		1: {0, 0, 255, 255},     // blue
		2: {0, 255, 255, 255},   // cyan
		3: {0, 255, 0, 255},     // green
		4: {255, 255, 0, 255},   // yellow
		5: {255, 0, 0, 255},     // red
		6: {255, 255, 255, 255}, // white
	}

	gridColor           = color.RGBA{0, 0, 0, 255}
	gridBackgroundColor = color.RGBA{255, 255, 255, 255}
	plotBackgroundColor = color.RGBA{0, 0, 0, 255}

	expSuffixLookup = map[int]string{
		0: "Hz",  // 10^0
		1: "kHz", // 10^3
		2: "MHz", // 10^6
		3: "GHz", // 10^9
		4: "THz", // 10^12
	}
)

const (
	gridMarginTop  = 20  // pixels
	gridMarginLeft = 60  // pixels
	gridTickLen    = 10  // pixels
	gridMinStepX   = 100 // pixels
	gridMinStepY   = 20  // pixels

	// getFreqResolutionTmpl counts the distinct frequencies recorded for a
	// run. This caps the amount of pixels in the X axis worth rendering,
	// since the sweep revisits the same bin centers on every pass.
	getFreqResolutionTmpl = `SELECT
		COUNT(DISTINCT(FreqHz))
	FROM
		detections
	WHERE
		Source = ?
		AND Identifier LIKE ?
		AND FreqHz >= ?
		AND FreqHz <= ?
		AND UnixMilli >= ?
		AND UnixMilli <= ?;`
	// getColumnsTmpl buckets the selected detections into image columns by
	// frequency and keeps the strongest hit per column.
	getColumnsTmpl = `SELECT
			MIN(FreqHz),
			MAX(FreqHz),
			MAX(DBFS),
			FreqBucket
		FROM (
			SELECT
				FreqHz,
				DBFS,
				NTILE (?) OVER (ORDER BY FreqHz) FreqBucket
			FROM
				detections
			WHERE
				Source = ?
				AND Identifier LIKE ?
				AND FreqHz >= ?
				AND FreqHz <= ?
				AND UnixMilli >= ?
				AND UnixMilli <= ?
			ORDER BY
				FreqBucket ASC
		)
		GROUP BY FreqBucket;`
)

func GetMaxImageWidth(db *sql.DB, source, identifier string, startFreq, endFreq int64, startTime, endTime time.Time) (int, error) {
	statement, err := db.Prepare(getFreqResolutionTmpl)
	if err != nil {
		return 0, err
	}
	var count int
	return count, statement.QueryRow(source, identifier, startFreq, endFreq, startTime.UnixMilli(), endTime.UnixMilli()).Scan(&count)
}

// GetColor determines the color of a pixel based on a color gradient and a pixel "level".
// http://www.andrewnoske.com/wiki/Code_-_heatmaps_and_color_gradients
func GetColor(lvl uint16) color.RGBA {
	// Find the first color in the gradient where the "level" is higher than the level we're looking for.
	// Then determine how far along we are between the previous and next color in the gradient and use that
	// to calculate the color between the two.
	for i := 0; i < len(colors); i++ {
		currC := colors[i]
		currV := uint16(i * math.MaxUint16 / len(colors))
		if lvl < currV {
			prevC := colors[int(math.Max(0.0, float64(i-1)))]
			diff := uint16(math.Max(0.0, float64(i-1)))*math.MaxUint16/uint16(len(colors)) - currV
			fract := 0.0
			if diff != 0 {
				fract = float64(lvl) - float64(currV)/float64(diff)
			}
			return color.RGBA{
				uint8(float64(prevC.R-currC.R)*fract + float64(currC.R)),
				uint8(float64(prevC.G-currC.G)*fract + float64(currC.G)),
				uint8(float64(prevC.B-currC.B)*fract + float64(currC.B)),
				uint8(float64(prevC.A-currC.A)*fract + float64(currC.A)),
			}
		}
	}
	return colors[len(colors)-1]
}

func GetReadableFreq(freq int64) string {
	exp := 0
	for f := float64(freq); f > 1000; f = f / 1000.0 {
		exp += 1
	}
	suffix, ok := expSuffixLookup[exp]
	if !ok {
		return fmt.Sprintf("%d Hz", freq)
	}
	return fmt.Sprintf("%.2f %s", float64(freq)/math.Pow(1000, float64(exp)), suffix)
}

func drawTick(canvas *image.RGBA, start image.Point, length int, horizontal bool) {
	for i := 0; i <= length; i++ {
		if horizontal {
			canvas.SetRGBA(start.X+i, start.Y, gridColor)
		} else {
			canvas.SetRGBA(start.X, start.Y+i, gridColor)
		}
	}
}

func findGridStepSize(step int, horizontal bool) int {
	gridMinStep := gridMinStepY
	if horizontal {
		gridMinStep = gridMinStepX
	}
	for step > gridMinStep {
		n := step / 2
		if n < gridMinStep {
			return step
		}
		step = n
	}
	return step
}

// DrawGrid enlarges the plot with margins carrying frequency ticks along
// the top edge and a dBFS scale along the left edge.
func DrawGrid(source *image.RGBA, lowFreq, highFreq int64, minDB, maxDB float64) *image.RGBA {
	canvas := image.NewRGBA(image.Rectangle{
		Min: image.Point{source.Bounds().Min.X, source.Bounds().Min.Y},
		Max: image.Point{source.Bounds().Max.X - 1 + gridMarginLeft, source.Bounds().Max.Y - 1 + gridMarginTop},
	})
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{gridBackgroundColor}, canvas.Bounds().Min, draw.Src)
	r := canvas.Bounds()
	r.Min.X += gridMarginLeft
	r.Min.Y += gridMarginTop
	draw.Draw(canvas, r, source, source.Bounds().Min, draw.Src)

	// X ticks carry the frequency labels.
	xStep := findGridStepSize(source.Bounds().Max.X, true)
	for i := source.Bounds().Min.X; i < source.Bounds().Max.X; i += xStep {
		drawTick(canvas, image.Point{
			canvas.Bounds().Min.X + gridMarginLeft + i,
			canvas.Bounds().Min.Y + gridMarginTop - gridTickLen,
		}, gridTickLen, false)
		point := fixed.Point26_6{
			X: fixed.Int26_6((canvas.Bounds().Min.X + gridMarginLeft + i + 5) * 64),
			Y: fixed.Int26_6((canvas.Bounds().Min.Y + gridMarginTop - 2) * 64),
		}
		d := &font.Drawer{
			Dst:  canvas,
			Src:  image.NewUniform(gridColor),
			Face: basicfont.Face7x13,
			Dot:  point,
		}
		freq := lowFreq + ((int64(i) * (highFreq - lowFreq)) / int64(source.Bounds().Max.X))
		d.DrawString(GetReadableFreq(freq))
	}

	// Y ticks carry the dBFS labels, warmest at the top.
	yStep := findGridStepSize(source.Bounds().Max.Y, false)
	for i := source.Bounds().Min.Y; i < source.Bounds().Max.Y; i += yStep {
		drawTick(canvas, image.Point{
			canvas.Bounds().Min.X + gridMarginLeft - gridTickLen,
			canvas.Bounds().Min.Y + gridMarginTop + i,
		}, gridTickLen, true)
		point := fixed.Point26_6{
			X: fixed.Int26_6((canvas.Bounds().Min.X + 5) * 64),
			Y: fixed.Int26_6((canvas.Bounds().Min.Y + gridMarginTop + i + 5) * 64),
		}
		d := &font.Drawer{
			Dst:  canvas,
			Src:  image.NewUniform(gridColor),
			Face: basicfont.Face7x13,
			Dot:  point,
		}
		db := maxDB - (float64(i)*(maxDB-minDB))/float64(source.Bounds().Max.Y)
		d.DrawString(fmt.Sprintf("%.0f dBFS", db))
	}

	return canvas
}

type FilterOptions struct {
	Source     string
	Identifier string
	StartFreq  int64
	EndFreq    int64
	StartTime  time.Time
	EndTime    time.Time
}

type ImageOptions struct {
	Height int
	Width  int

	AddGrid bool
}

type RenderRequest struct {
	Filter *FilterOptions
	Image  *ImageOptions
}

type SourceMetadata struct {
	LowFreq  int64
	HighFreq int64
	MinDBFS  float64
	MaxDBFS  float64
}

type RenderMetadata struct {
	ImageHeight  int
	ImageWidth   int
	FreqPerPixel float64
	DBPerPixel   float64
}

type RenderResult struct {
	Image image.Image

	SourceMeta *SourceMetadata
	ImageMeta  *RenderMetadata
}

// Render turns the detections recorded by a sweep run into a spectrum
// plot: one column per frequency bucket, a bar reaching up to the
// strongest power seen there, colored warm to cold by level.
func Render(db *sql.DB, req *RenderRequest) (*RenderResult, error) {
	maxImgWidth, err := GetMaxImageWidth(db, req.Filter.Source, req.Filter.Identifier, req.Filter.StartFreq, req.Filter.EndFreq, req.Filter.StartTime, req.Filter.EndTime)
	if err != nil {
		return nil, fmt.Errorf("unable to query DB to determine image width: %s", err)
	}
	switch {
	case req.Image.Width == 0:
		req.Image.Width = maxImgWidth
	case req.Image.Width > 0 && req.Image.Width > maxImgWidth:
		glog.Warningf("-imgWidth is set to %d which is more than what the data in the DB can provide. Reducing image width to %d pixels\n", req.Image.Width, maxImgWidth)
		req.Image.Width = maxImgWidth
	}
	if req.Image.Width < 1 {
		return nil, fmt.Errorf("no detections match the filter")
	}
	if req.Image.Height < 1 {
		return nil, fmt.Errorf("image height must be positive, got %d", req.Image.Height)
	}

	statement, err := db.Prepare(getColumnsTmpl)
	if err != nil {
		return nil, err
	}
	columns, err := statement.Query(req.Image.Width, req.Filter.Source, req.Filter.Identifier, req.Filter.StartFreq, req.Filter.EndFreq, req.Filter.StartTime.UnixMilli(), req.Filter.EndTime.UnixMilli())
	if err != nil {
		return nil, err
	}

	lowFreq := int64(math.MaxInt64)
	highFreq := int64(0)
	globalMinDB := 1000.0  // assuming no dB value will be higher than this so it constantly gets corrected downwards
	globalMaxDB := -1000.0 // assuming no dB value will be lower than this so it constantly gets corrected upwards

	cols := map[int]float64{}
	for columns.Next() {
		var freqLow, freqHigh int64
		var db float64
		var colIdx int
		if err := columns.Scan(&freqLow, &freqHigh, &db, &colIdx); err != nil {
			glog.Warningf("unable to get detection column from DB: %s\n", err)
			continue
		}

		if db < globalMinDB {
			globalMinDB = db
		}
		if db > globalMaxDB {
			globalMaxDB = db
		}
		if freqLow < lowFreq {
			lowFreq = freqLow
		}
		if freqHigh > highFreq {
			highFreq = freqHigh
		}

		cols[colIdx-1] = db
	}
	columns.Close()

	canvas := image.NewRGBA(image.Rectangle{
		Min: image.Point{0, 0},
		Max: image.Point{req.Image.Width, req.Image.Height},
	})
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{plotBackgroundColor}, canvas.Bounds().Min, draw.Src)

	dbRange := globalMaxDB - globalMinDB
	if dbRange == 0 {
		dbRange = 1
	}
	for colIdx, db := range cols {
		lvl := uint16((db - globalMinDB) * math.MaxUint16 / dbRange)
		top := req.Image.Height - 1 - int((db-globalMinDB)/dbRange*float64(req.Image.Height-1))
		c := GetColor(lvl)
		for y := req.Image.Height - 1; y >= top; y-- {
			canvas.SetRGBA(colIdx, y, c)
		}
	}

	if req.Image.AddGrid {
		canvas = DrawGrid(canvas, lowFreq, highFreq, globalMinDB, globalMaxDB)
	}

	return &RenderResult{
		Image: canvas,
		SourceMeta: &SourceMetadata{
			LowFreq:  lowFreq,
			HighFreq: highFreq,
			MinDBFS:  globalMinDB,
			MaxDBFS:  globalMaxDB,
		},
		ImageMeta: &RenderMetadata{
			ImageHeight:  req.Image.Height,
			ImageWidth:   req.Image.Width,
			FreqPerPixel: float64(highFreq-lowFreq) / float64(req.Image.Width),
			DBPerPixel:   dbRange / float64(req.Image.Height),
		},
	}, nil
}
