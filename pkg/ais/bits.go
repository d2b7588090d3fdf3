package ais

import "strings"

// Buffer is a packed bit vector. Bits are appended MSB first and
// addressed by absolute offset from the start of the buffer, which is
// how the ITU field layouts are specified.
type Buffer struct {
	data  []byte
	nbits int
}

var bitMask = [8]byte{0x80, 0x40, 0x20, 0x10, 0x08, 0x04, 0x02, 0x01}

func (b *Buffer) Len() int {
	return b.nbits
}

// AppendBits appends the low width bits of v, MSB first.
func (b *Buffer) AppendBits(v uint64, width int) {
	for i := width - 1; i >= 0; i-- {
		b.appendBit(v>>uint(i)&1 == 1)
	}
}

func (b *Buffer) appendBit(set bool) {
	if b.nbits&7 == 0 {
		b.data = append(b.data, 0)
	}
	if set {
		b.data[b.nbits>>3] |= bitMask[b.nbits&7]
	}
	b.nbits++
}

// Truncate drops the trailing n bits. Dropped bits are zeroed so a later
// append cannot resurrect them.
func (b *Buffer) Truncate(n int) {
	if n <= 0 {
		return
	}
	if n > b.nbits {
		n = b.nbits
	}
	for i := b.nbits - n; i < b.nbits; i++ {
		b.data[i>>3] &^= bitMask[i&7]
	}
	b.nbits -= n
}

// Uint reads width bits starting at start, MSB first.
func (b *Buffer) Uint(start, width int) (uint64, error) {
	if width < 0 || width > 64 {
		return 0, newError(KindOutOfRange, "width %d out of [0,64]", width)
	}
	if start < 0 || start+width > b.nbits {
		return 0, newError(KindOutOfRange, "bits [%d,%d) beyond buffer length %d", start, start+width, b.nbits)
	}
	var v uint64
	for i := start; i < start+width; i++ {
		v <<= 1
		if b.data[i>>3]&bitMask[i&7] != 0 {
			v |= 1
		}
	}
	return v, nil
}

// Int reads width bits as a two's-complement signed quantity and
// sign-extends it to 64 bits. A width of 0 yields 0.
func (b *Buffer) Int(start, width int) (int64, error) {
	u, err := b.Uint(start, width)
	if err != nil {
		return 0, err
	}
	if width == 0 {
		return 0, nil
	}
	if width == 64 {
		return int64(u), nil
	}
	if u&(1<<uint(width-1)) != 0 {
		return int64(u) - int64(1)<<uint(width), nil
	}
	return int64(u), nil
}

// Str6 reads nchars six-bit characters starting at start. Values below 32
// map to '@'..'_', the rest map to ' '..'?'. Trailing '@' padding is
// trimmed first, then trailing spaces; a string of only padding decodes
// to the empty string.
func (b *Buffer) Str6(start, nchars int) (string, error) {
	if start < 0 || start+nchars*6 > b.nbits {
		return "", newError(KindOutOfRange, "string [%d,%d) beyond buffer length %d", start, start+nchars*6, b.nbits)
	}
	var sb strings.Builder
	sb.Grow(nchars)
	for i := 0; i < nchars; i++ {
		v, err := b.Uint(start+i*6, 6)
		if err != nil {
			return "", err
		}
		if v < 32 {
			sb.WriteByte(byte(v) + 64)
		} else {
			sb.WriteByte(byte(v))
		}
	}
	s := strings.TrimRight(sb.String(), "@")
	s = strings.TrimRight(s, " ")
	return s, nil
}
