package ais

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func validArmorByte(c int) bool {
	return (c >= 48 && c <= 87) || (c >= 96 && c <= 119)
}

// Every byte of the alphabet decodes into [0,63], injectively, and the 64
// values are covered; everything outside the alphabet is rejected.
func TestSextetAlphabet(t *testing.T) {
	seen := make(map[byte]byte)
	for c := 0; c < 256; c++ {
		v, ok := sextet(byte(c))
		if ok != validArmorByte(c) {
			t.Fatalf("sextet(%d) accepted=%v, want %v", c, ok, validArmorByte(c))
		}
		if !ok {
			continue
		}
		if v > 63 {
			t.Fatalf("sextet(%d) = %d, out of range", c, v)
		}
		if prev, dup := seen[v]; dup {
			t.Fatalf("value %d produced by both %d and %d", v, prev, c)
		}
		seen[v] = byte(c)
	}
	if len(seen) != 64 {
		t.Fatalf("alphabet covers %d values, want 64", len(seen))
	}
}

func TestEncodeDecodeArmorRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		nbits := rapid.IntRange(1, 600).Draw(t, "nbits")
		var buf Buffer
		for i := 0; i < nbits; i++ {
			if rapid.Bool().Draw(t, "bit") {
				buf.AppendBits(1, 1)
			} else {
				buf.AppendBits(0, 1)
			}
		}

		payload, fill := EncodeArmor(&buf)
		got, err := DecodeArmor(payload, fill, 0)
		if err != nil {
			t.Fatalf("DecodeArmor: %v", err)
		}
		if got.Len() != buf.Len() {
			t.Fatalf("length %d, want %d", got.Len(), buf.Len())
		}
		for start := 0; start < buf.Len(); start += 64 {
			width := buf.Len() - start
			if width > 64 {
				width = 64
			}
			want, _ := buf.Uint(start, width)
			have, _ := got.Uint(start, width)
			if have != want {
				t.Fatalf("bits [%d,%d) = %#x, want %#x", start, start+width, have, want)
			}
		}
	})
}

func TestDecodeArmorFillBits(t *testing.T) {
	// Two chars, 12 bits, 2 fill bits dropped.
	buf, err := DecodeArmor("w0", 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", buf.Len())
	}
}

func TestDecodeArmorBadChar(t *testing.T) {
	for _, payload := range []string{"1#", "1 3", "1x", "1\x80"} {
		if _, err := DecodeArmor(payload, 0, 0); KindOf(err) != KindBadArmorChar {
			t.Errorf("DecodeArmor(%q) err = %v, want bad_armor_char", payload, err)
		}
	}
}

func TestDecodeArmorPayloadTooLong(t *testing.T) {
	payload := strings.Repeat("1", 300)
	if _, err := DecodeArmor(payload, 0, 0); KindOf(err) != KindPayloadTooLong {
		t.Fatalf("err = %v, want payload_too_long", err)
	}
	// Explicit cap below the default.
	if _, err := DecodeArmor(strings.Repeat("1", 129), 0, 128); KindOf(err) != KindPayloadTooLong {
		t.Fatalf("err with cap 128 = %v, want payload_too_long", err)
	}
}
