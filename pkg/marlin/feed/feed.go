package feed

import "context"

// Line is one line of text received from a feed, tagged with the feed it
// came from.
type Line struct {
	Feed string
	Text string
}

// Feed delivers raw NMEA lines from some transport.
type Feed interface {
	Name() string
	// Start reads lines until ctx closes or the feed ends. The tcp and ws
	// feeds reconnect internally and only return on cancellation; the
	// serial feed does not reconnect and returns when the port fails to
	// open or stops delivering lines; playback feeds return nil at end of
	// input.
	Start(ctx context.Context, lines chan<- Line) error
	Stop() error
}
