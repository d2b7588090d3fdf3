package ais

import "strings"

// DefaultMaxPayloadChars bounds the armored payload length after
// reassembly. 256 characters is far beyond any legal AIS message.
const DefaultMaxPayloadChars = 256

// DecodeArmor converts an armored payload into a bit buffer: six bits per
// character, MSB first, with the trailing fillBits dropped from the end.
func DecodeArmor(payload string, fillBits int, maxChars int) (*Buffer, error) {
	if maxChars <= 0 {
		maxChars = DefaultMaxPayloadChars
	}
	if len(payload) > maxChars {
		return nil, newError(KindPayloadTooLong, "payload is %d chars, cap is %d", len(payload), maxChars)
	}

	buf := &Buffer{data: make([]byte, 0, (len(payload)*6+7)/8)}
	for i := 0; i < len(payload); i++ {
		v, ok := sextet(payload[i])
		if !ok {
			return nil, newError(KindBadArmorChar, "byte %q at index %d", payload[i], i)
		}
		buf.AppendBits(uint64(v), 6)
	}

	if fillBits > 0 && fillBits < 6 && buf.Len() >= fillBits {
		buf.Truncate(fillBits)
	}
	return buf, nil
}

// sextet maps one armored byte to its 6-bit value. '0'..'W' yield 0..39,
// '`'..'w' yield 40..63; everything else is outside the alphabet.
func sextet(c byte) (byte, bool) {
	if c < 48 || c > 119 || (c > 87 && c < 96) {
		return 0, false
	}
	v := c - 48
	if v > 40 {
		v -= 8
	}
	return v, true
}

// EncodeArmor packs a bit buffer back into armored characters, returning
// the payload and the number of fill bits padded into the last character.
func EncodeArmor(buf *Buffer) (string, int) {
	nchars := (buf.Len() + 5) / 6
	fill := nchars*6 - buf.Len()

	var sb strings.Builder
	sb.Grow(nchars)
	for i := 0; i < nchars; i++ {
		width := 6
		if (i+1)*6 > buf.Len() {
			width = buf.Len() - i*6
		}
		v, _ := buf.Uint(i*6, width)
		v <<= uint(6 - width)
		sb.WriteByte(armorChar(byte(v)))
	}
	return sb.String(), fill
}

func armorChar(v byte) byte {
	if v <= 39 {
		return '0' + v
	}
	return '`' + v - 40
}
