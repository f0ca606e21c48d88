package export

import (
	"context"

	"github.com/hb9tf/sigview/sweep"
)

type Exporter interface {
	Write(context.Context, <-chan sweep.Detection) error
}
