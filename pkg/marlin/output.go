package marlin

import (
	"context"

	"github.com/seastack/marlin/pkg/ais"
)

// Output handles decoded records.
type Output interface {
	// Start receives a context and should run in a loop, terminating upon
	// ctx closing or on any errors.
	Start(ctx context.Context) error
	// Receive returns the channel records are fanned out on. Sends are
	// non-blocking; a full output misses records.
	Receive() chan<- ais.Record
}
