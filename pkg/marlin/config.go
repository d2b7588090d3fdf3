package marlin

import (
	"time"

	"github.com/seastack/marlin/pkg/ais"
)

const defaultSweepInterval = 5 * time.Second

type Options struct {
	Outputs       []Output
	Decoder       ais.Config
	SweepInterval time.Duration
}
