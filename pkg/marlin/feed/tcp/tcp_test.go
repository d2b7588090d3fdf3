package tcp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/seastack/marlin/pkg/marlin/feed"
)

func TestTCPFeedDeliversLinesAndReconnects(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	// Serve two connections; one line each, then hang up.
	go func() {
		for _, line := range []string{"first\r\n", "second\r\n"} {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Write([]byte(line))
			conn.Close()
		}
	}()

	f := New("receiver", ln.Addr().String(), 10*time.Millisecond, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	lines := make(chan feed.Line, 4)
	done := make(chan error, 1)
	go func() {
		done <- f.Start(ctx, lines)
	}()

	want := []string{"first", "second"}
	for _, text := range want {
		select {
		case line := <-lines:
			if line.Text != text || line.Feed != "receiver" {
				t.Fatalf("line = %+v, want %q", line, text)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %q", text)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled && err != context.DeadlineExceeded {
			t.Fatalf("err = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("feed did not stop on cancellation")
	}
}

func TestTCPFeedBacksOffWhileDown(t *testing.T) {
	// Grab an address nothing listens on.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	f := New("receiver", addr, 5*time.Millisecond, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	lines := make(chan feed.Line, 1)
	done := make(chan error, 1)
	go func() {
		done <- f.Start(ctx, lines)
	}()

	// Give it a few connect/backoff cycles, then cancel.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("feed did not stop on cancellation")
	}

	if got := f.fsm.Current(); got == stateRun {
		t.Fatalf("state = %s after failed connects", got)
	}
}
