// Package bytereader implements a bounds-checked cursor over a byte slice.
//
// All multi-octet integers are read in network octet order (big-endian),
// which is what both TZif files and indexed tzdata blobs use.
package bytereader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTruncated is returned when fewer bytes remain than a read requires.
var ErrTruncated = errors.New("truncated data")

var order = binary.BigEndian

// Reader reads fixed-width values from a byte slice and advances a cursor.
// A failed read does not move the cursor.
type Reader struct {
	buf []byte
	off int
}

// New returns a Reader positioned at the start of b.
func New(b []byte) *Reader {
	return &Reader{buf: b}
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.buf) - r.off
}

// Offset returns the cursor position relative to the start of the buffer.
func (r *Reader) Offset() int {
	return r.off
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.Len() < n {
		return nil, fmt.Errorf("need %d bytes at offset %d, have %d: %w", n, r.off, r.Len(), ErrTruncated)
	}
	p := r.buf[r.off : r.off+n : r.off+n]
	r.off += n
	return p, nil
}

// Bytes returns the next n bytes. The returned slice aliases the buffer.
func (r *Reader) Bytes(n int) ([]byte, error) {
	return r.take(n)
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	_, err := r.take(n)
	return err
}

// Rest returns all unread bytes and moves the cursor to the end.
func (r *Reader) Rest() []byte {
	p := r.buf[r.off:]
	r.off = len(r.buf)
	return p
}

// U8 reads one byte.
func (r *Reader) U8() (uint8, error) {
	p, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

// U32BE reads a big-endian uint32.
func (r *Reader) U32BE() (uint32, error) {
	p, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return order.Uint32(p), nil
}

// I32BE reads a big-endian two's complement int32.
func (r *Reader) I32BE() (int32, error) {
	n, err := r.U32BE()
	return int32(n), err
}

// I64BE reads a big-endian two's complement int64.
func (r *Reader) I64BE() (int64, error) {
	p, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return int64(order.Uint64(p)), nil
}

// FixedString reads an n-byte field and returns it with any NUL padding
// removed from the first NUL onwards.
func (r *Reader) FixedString(n int) (string, error) {
	p, err := r.take(n)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(p, 0); i >= 0 {
		p = p[:i]
	}
	return string(p), nil
}

// NullTerminatedString reads up to and including the next NUL byte. The
// terminator must appear within maxLen bytes (terminator included).
func (r *Reader) NullTerminatedString(maxLen int) (string, error) {
	window := r.buf[r.off:]
	if len(window) > maxLen {
		window = window[:maxLen]
	}
	i := bytes.IndexByte(window, 0)
	if i < 0 {
		if len(window) < maxLen {
			return "", fmt.Errorf("unterminated string at offset %d: %w", r.off, ErrTruncated)
		}
		return "", fmt.Errorf("string at offset %d longer than %d bytes", r.off, maxLen)
	}
	s := string(window[:i])
	r.off += i + 1
	return s, nil
}
