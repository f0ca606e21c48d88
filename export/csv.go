package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"

	"github.com/hb9tf/sigview/sweep"
)

type CSV struct {
	Identifier string
	Source     string
	Out        io.Writer // defaults to os.Stdout
}

func (c *CSV) Write(ctx context.Context, detections <-chan sweep.Detection) error {
	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	w := csv.NewWriter(out)
	w.Write([]string{
		"Identifier",
		"Source",
		"FreqHz",
		"DBFS",
		"UnixMilli",
	})

	for d := range detections {
		if err := w.Write([]string{
			c.Identifier,
			c.Source,
			fmt.Sprintf("%d", d.FreqHz),
			fmt.Sprintf("%f", d.DBFS),
			fmt.Sprintf("%d", d.Time.UnixMilli()),
		}); err != nil {
			glog.Warningf("error while writing CSV line: %s\n", err)
		}

		w.Flush()
		if err := w.Error(); err != nil {
			glog.Warningf("error flushing CSV: %s\n", err)
		}
	}
	return nil
}
