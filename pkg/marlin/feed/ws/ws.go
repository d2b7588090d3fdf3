// Package ws implements a line feed over a websocket, for online AIS
// aggregators that stream raw AIVDM text frames.
package ws

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/seastack/marlin/pkg/marlin/feed"
)

const defaultRetryWait = 5 * time.Second

type Feed struct {
	name      string
	url       string
	retryWait time.Duration
	logger    zerolog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

func New(name, url string, retryWait time.Duration, logger zerolog.Logger) *Feed {
	if retryWait <= 0 {
		retryWait = defaultRetryWait
	}
	return &Feed{
		name:      name,
		url:       url,
		retryWait: retryWait,
		logger:    logger,
	}
}

func (f *Feed) Name() string {
	return f.name
}

func (f *Feed) Start(ctx context.Context, lines chan<- feed.Line) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.logger.Warn().Err(err).Str("feed", f.name).Str("url", f.url).Msg("websocket dial failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(f.retryWait):
			}
			continue
		}

		f.mu.Lock()
		f.conn = conn
		f.mu.Unlock()
		f.logger.Info().Str("feed", f.name).Str("url", f.url).Msg("websocket connected")

		if err := f.readFrames(ctx, conn, lines); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.logger.Warn().Err(err).Str("feed", f.name).Msg("websocket read ended")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.retryWait):
		}
	}
}

// readFrames splits each text frame into lines; aggregators batch
// several sentences per frame.
func (f *Feed) readFrames(ctx context.Context, conn *websocket.Conn, lines chan<- feed.Line) error {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-connCtx.Done()
		conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		for _, line := range strings.Split(strings.TrimRight(string(msg), "\r\n"), "\n") {
			line = strings.TrimRight(line, "\r")
			if line == "" {
				continue
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case lines <- feed.Line{Feed: f.name, Text: line}:
			}
		}
	}
}

func (f *Feed) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn != nil {
		return f.conn.Close()
	}
	return nil
}
