// Package tcp implements a line feed that dials an AIS receiver or relay
// over TCP and keeps the connection alive, reconnecting with a fixed
// backoff when the peer goes away.
package tcp

import (
	"bufio"
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"github.com/rs/zerolog"

	"github.com/seastack/marlin/pkg/marlin/feed"
)

const (
	stateIdle    = "idle"
	stateConnect = "connect"
	stateRun     = "run"
	stateBackoff = "backoff"
)

const (
	eventStart         = "start"
	eventConnected     = "connected"
	eventConnectFailed = "connect_failed"
	eventReadFailed    = "read_failed"
	eventRetry         = "retry"
)

const defaultRetryWait = 5 * time.Second

type Feed struct {
	name        string
	addr        string
	retryWait   time.Duration
	dialTimeout time.Duration
	fsm         *fsm.FSM
	logger      zerolog.Logger

	mu   sync.Mutex
	conn net.Conn
}

func New(name, addr string, retryWait time.Duration, logger zerolog.Logger) *Feed {
	if retryWait <= 0 {
		retryWait = defaultRetryWait
	}
	f := &Feed{
		name:        name,
		addr:        addr,
		retryWait:   retryWait,
		dialTimeout: 10 * time.Second,
		logger:      logger,
	}
	f.fsm = fsm.NewFSM(
		stateIdle,
		fsm.Events{
			{Name: eventStart, Src: []string{stateIdle}, Dst: stateConnect},
			{Name: eventConnected, Src: []string{stateConnect}, Dst: stateRun},
			{Name: eventConnectFailed, Src: []string{stateConnect}, Dst: stateBackoff},
			{Name: eventReadFailed, Src: []string{stateRun}, Dst: stateBackoff},
			{Name: eventRetry, Src: []string{stateBackoff}, Dst: stateConnect},
		},
		fsm.Callbacks{
			"enter_state": func(e *fsm.Event) {
				f.logger.Debug().Str("feed", f.name).Str("from", e.Src).Str("to", e.Dst).Msg("feed state change")
			},
		},
	)
	return f
}

func (f *Feed) Name() string {
	return f.name
}

func (f *Feed) Start(ctx context.Context, lines chan<- feed.Line) error {
	f.fsm.Event(eventStart)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		switch f.fsm.Current() {
		case stateConnect:
			d := net.Dialer{Timeout: f.dialTimeout}
			conn, err := d.DialContext(ctx, "tcp", f.addr)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				f.logger.Warn().Err(err).Str("feed", f.name).Str("addr", f.addr).Msg("connect failed")
				f.fsm.Event(eventConnectFailed)
				continue
			}
			f.setConn(conn)
			f.logger.Info().Str("feed", f.name).Str("addr", f.addr).Msg("connected")
			f.fsm.Event(eventConnected)

		case stateRun:
			err := f.readLines(ctx, lines)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.logger.Warn().Err(err).Str("feed", f.name).Msg("read loop ended")
			f.fsm.Event(eventReadFailed)

		case stateBackoff:
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(f.retryWait):
			}
			f.fsm.Event(eventRetry)
		}
	}
}

func (f *Feed) readLines(ctx context.Context, lines chan<- feed.Line) error {
	conn := f.currentConn()
	if conn == nil {
		return io.ErrClosedPipe
	}

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-connCtx.Done()
		conn.Close()
	}()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case lines <- feed.Line{Feed: f.name, Text: scanner.Text()}:
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return io.EOF
}

func (f *Feed) setConn(conn net.Conn) {
	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()
}

func (f *Feed) currentConn() net.Conn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conn
}

func (f *Feed) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn != nil {
		return f.conn.Close()
	}
	return nil
}
