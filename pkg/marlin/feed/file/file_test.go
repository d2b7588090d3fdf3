package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/seastack/marlin/pkg/marlin/feed"
)

func writeCapture(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.nmea")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileFeedReplaysLines(t *testing.T) {
	path := writeCapture(t,
		"!AIVDM,1,1,,A,13u?etPv2;0n:dDPwUM1U1Cb069D,0*24\n"+
			"!AIVDM,1,1,,B,177KQJ5000G?tO`K>RA1wUbN0TKH,0*5C\n")

	f, err := New("replay", path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Stop()

	lines := make(chan feed.Line, 4)
	done := make(chan error, 1)
	go func() {
		done <- f.Start(context.Background(), lines)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("replay did not finish")
	}

	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	first := <-lines
	if first.Feed != "replay" {
		t.Errorf("Feed = %q, want replay", first.Feed)
	}
	if first.Text != "!AIVDM,1,1,,A,13u?etPv2;0n:dDPwUM1U1Cb069D,0*24" {
		t.Errorf("Text = %q", first.Text)
	}
}

func TestFileFeedHonorsCancellation(t *testing.T) {
	path := writeCapture(t, "!AIVDM,1,1,,A,13u?etPv2;0n:dDPwUM1U1Cb069D,0*24\n")

	f, err := New("replay", path, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	lines := make(chan feed.Line, 1)
	done := make(chan error, 1)
	go func() {
		done <- f.Start(ctx, lines)
	}()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("feed did not stop on cancellation")
	}
}

func TestFileFeedMissingFile(t *testing.T) {
	if _, err := New("replay", filepath.Join(t.TempDir(), "missing"), 0); err == nil {
		t.Fatal("expected error for missing file")
	}
}
