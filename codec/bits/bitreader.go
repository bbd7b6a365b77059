/*
DESCRIPTION
  bitreader.go provides a bit reader implementation that reads MSB first from
  a byte slice with bounded reads.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package bits provides a bit reader implementation that reads from a byte
// slice, most-significant bit first.
package bits

import (
	"errors"
	"io"
)

// ErrTooManyBits is returned when a read of more than 64 bits is requested.
var ErrTooManyBits = errors.New("cannot read more than 64 bits at once")

// BitReader is a bit reader that provides methods for reading bits from a
// byte slice. The slice is never modified.
type BitReader struct {
	b   []byte
	pos int // Position in bits from the start of b.
}

// NewBitReader returns a new BitReader reading from b.
func NewBitReader(b []byte) *BitReader {
	return &BitReader{b: b}
}

// ReadBits reads n bits from the source and returns them the least-significant
// part of a uint64.
// For example, with a source as []byte{0x8f,0xe3} (1000 1111, 1110 0011), we
// would get the following results for consequtive reads with n values:
// n = 4, res = 0x8 (1000)
// n = 2, res = 0x3 (0011)
// n = 4, res = 0xf (1111)
// n = 6, res = 0x23 (0010 0011)
//
// If fewer than n bits remain, io.ErrUnexpectedEOF is returned and the
// reader does not advance.
func (br *BitReader) ReadBits(n int) (uint64, error) {
	v, err := br.PeekBits(n)
	if err != nil {
		return 0, err
	}
	br.pos += n
	return v, nil
}

// PeekBits provides the next n bits returning them in the least-significant
// part of a uint64, without advancing through the source.
func (br *BitReader) PeekBits(n int) (uint64, error) {
	switch {
	case n < 0:
		return 0, errors.New("negative bit count")
	case n > 64:
		return 0, ErrTooManyBits
	case n > br.Remaining():
		return 0, io.ErrUnexpectedEOF
	}

	var r uint64
	pos := br.pos
	for n > 0 {
		// Take as many bits as we can from the current byte.
		off := pos % 8
		avail := 8 - off
		take := avail
		if n < take {
			take = n
		}
		b := br.b[pos/8]
		// Shift the wanted bits of b into the least-significant places and mask.
		bits := uint64(b>>uint(avail-take)) & (1<<uint(take) - 1)
		r = r<<uint(take) | bits
		pos += take
		n -= take
	}
	return r, nil
}

// ReadBit reads a single bit and returns true if it is set.
func (br *BitReader) ReadBit() (bool, error) {
	v, err := br.ReadBits(1)
	return v == 1, err
}

// SkipBits advances the reader by n bits. If fewer than n bits remain,
// io.ErrUnexpectedEOF is returned and the reader does not advance.
func (br *BitReader) SkipBits(n int) error {
	if n < 0 {
		return errors.New("negative bit count")
	}
	if n > br.Remaining() {
		return io.ErrUnexpectedEOF
	}
	br.pos += n
	return nil
}

// ByteAligned returns true if the reader position is at the start of a byte,
// and false otherwise.
func (br *BitReader) ByteAligned() bool {
	return br.pos%8 == 0
}

// Off returns the current offset from the starting bit of the current byte.
func (br *BitReader) Off() int {
	return br.pos % 8
}

// Position returns the number of bits consumed so far.
func (br *BitReader) Position() int {
	return br.pos
}

// Remaining returns the number of bits left in the source.
func (br *BitReader) Remaining() int {
	return len(br.b)*8 - br.pos
}

// BytesRead returns the number of bytes that have been touched by the
// BitReader, including a partially read byte.
func (br *BitReader) BytesRead() int {
	return (br.pos + 7) / 8
}
