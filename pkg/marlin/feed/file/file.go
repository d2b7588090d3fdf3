// Package file implements playback of a captured NMEA log, paced so the
// rest of the pipeline sees something like a live feed.
package file

import (
	"bufio"
	"context"
	"os"
	"time"

	"github.com/seastack/marlin/pkg/marlin/feed"
)

type Feed struct {
	name        string
	readFile    *os.File
	timeBetween time.Duration
}

func New(name, path string, timeBetween time.Duration) (*Feed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Feed{
		name:        name,
		readFile:    f,
		timeBetween: timeBetween,
	}, nil
}

func (f *Feed) Name() string {
	return f.name
}

// Start replays the file one line per tick and returns nil at the end of
// the capture.
func (f *Feed) Start(ctx context.Context, lines chan<- feed.Line) error {
	var tick *time.Ticker
	if f.timeBetween > 0 {
		tick = time.NewTicker(f.timeBetween)
		defer tick.Stop()
	}

	scanner := bufio.NewScanner(f.readFile)
	for scanner.Scan() {
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick.C:
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case lines <- feed.Line{Feed: f.name, Text: scanner.Text()}:
		}
	}
	return scanner.Err()
}

func (f *Feed) Stop() error {
	return f.readFile.Close()
}
