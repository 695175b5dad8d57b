package protocol

import (
	stderrors "errors"
	"io"
)

// Allocation limits against hostile length prefixes.
const (
	// MaxAllocation is the largest string the decoder will allocate (4MB).
	MaxAllocation = 4 * 1024 * 1024

	// MaxCollectionCount is the largest element count of a collection.
	MaxCollectionCount = 100_000

	// MaxNodeDepth limits snapshot nesting.
	MaxNodeDepth = 256

	// MaxPathLen limits the number of indices in a path.
	MaxPathLen = MaxNodeDepth
)

// Low-level decoding errors.
var (
	ErrVarintOverflow     = stderrors.New("protocol: varint overflow")
	ErrAllocationTooLarge = stderrors.New("protocol: allocation size exceeds limit")
	ErrCollectionTooLarge = stderrors.New("protocol: collection count exceeds limit")
	ErrMaxDepthExceeded   = stderrors.New("protocol: maximum nesting depth exceeded")
)

// Decoder reads binary values from a byte buffer.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder creates a decoder over buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

// EOF returns true if all bytes have been read.
func (d *Decoder) EOF() bool {
	return d.pos >= len(d.buf)
}

// ReadByte reads a single byte.
func (d *Decoder) ReadByte() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

// ReadUvarint reads an unsigned varint.
func (d *Decoder) ReadUvarint() (uint64, error) {
	v, n := DecodeUvarint(d.buf[d.pos:])
	switch {
	case n == -1:
		return 0, io.ErrUnexpectedEOF
	case n < 0:
		return 0, ErrVarintOverflow
	}
	d.pos += n
	return v, nil
}

// ReadString reads a length-prefixed UTF-8 string.
func (d *Decoder) ReadString() (string, error) {
	length, err := d.ReadUvarint()
	if err != nil {
		return "", err
	}
	if length > uint64(d.Remaining()) {
		return "", io.ErrUnexpectedEOF
	}
	if length > MaxAllocation {
		return "", ErrAllocationTooLarge
	}
	n := int(length)
	s := string(d.buf[d.pos : d.pos+n])
	d.pos += n
	return s, nil
}

// ReadCollectionCount reads a varint count and validates it against limits.
// Every item takes at least one byte, so counts beyond the remaining
// buffer are rejected early.
func (d *Decoder) ReadCollectionCount() (int, error) {
	count, err := d.ReadUvarint()
	if err != nil {
		return 0, err
	}
	if count > MaxCollectionCount {
		return 0, ErrCollectionTooLarge
	}
	if count > uint64(d.Remaining()) {
		return 0, io.ErrUnexpectedEOF
	}
	return int(count), nil
}

// ReadPath reads a path written by Encoder.WritePath.
func (d *Decoder) ReadPath() ([]int, error) {
	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	if count > MaxPathLen {
		return nil, ErrMaxDepthExceeded
	}
	p := make([]int, count)
	for i := range p {
		v, err := d.ReadUvarint()
		if err != nil {
			return nil, err
		}
		if v > uint64(MaxCollectionCount) {
			return nil, ErrCollectionTooLarge
		}
		p[i] = int(v)
	}
	return p, nil
}
