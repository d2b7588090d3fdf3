// Package serial implements a line feed reading directly from an AIS
// receiver on a serial port.
package serial

import (
	"bufio"
	"context"
	"io"
	"sync"

	goserial "github.com/jacobsa/go-serial/serial"
	"github.com/rs/zerolog"

	"github.com/seastack/marlin/pkg/marlin/feed"
)

type Feed struct {
	name   string
	opts   goserial.OpenOptions
	logger zerolog.Logger

	mu   sync.Mutex
	port io.ReadWriteCloser
}

func New(name, device string, baud uint, logger zerolog.Logger) *Feed {
	return &Feed{
		name: name,
		opts: goserial.OpenOptions{
			PortName:        device,
			BaudRate:        baud,
			DataBits:        8,
			StopBits:        1,
			MinimumReadSize: 1,
			ParityMode:      goserial.PARITY_NONE,
		},
		logger: logger,
	}
}

func (f *Feed) Name() string {
	return f.name
}

func (f *Feed) Start(ctx context.Context, lines chan<- feed.Line) error {
	port, err := goserial.Open(f.opts)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.port = port
	f.mu.Unlock()
	f.logger.Info().Str("feed", f.name).Str("device", f.opts.PortName).Uint("baud", f.opts.BaudRate).Msg("serial port opened")

	portCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-portCtx.Done()
		port.Close()
	}()

	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case lines <- feed.Line{Feed: f.name, Text: scanner.Text()}:
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return scanner.Err()
}

func (f *Feed) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.port != nil {
		return f.port.Close()
	}
	return nil
}
