/*
NAME
  scanner.go

DESCRIPTION
  scanner.go provides a Scanner for walking the ANC packets of an ST 2038 PES
  payload.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package st2038

import (
	"io"

	"github.com/pkg/errors"
)

// stuffingByte may follow the last ANC packet of a PES payload.
const stuffingByte = 0xff

// ErrStuffing is returned when data other than stuffing bytes follows the
// first stuffing byte of a payload.
var ErrStuffing = errors.New("invalid stuffing")

// Scanner decodes consecutive ANC packets from a PES payload. Errors are
// terminal; once Next returns an error it will keep returning it.
type Scanner struct {
	b   []byte
	off int
	err error
}

// NewScanner returns a new Scanner reading from b.
func NewScanner(b []byte) *Scanner {
	return &Scanner{b: b}
}

// Next decodes the next ANC packet and returns its header and bytes. The
// returned bytes alias the Scanner's source. io.EOF is returned when the
// payload has been consumed, including any trailing stuffing bytes.
func (s *Scanner) Next() (AncDataHeader, []byte, error) {
	if s.err != nil {
		return AncDataHeader{}, nil, s.err
	}

	rest := s.b[s.off:]
	if len(rest) == 0 {
		s.err = io.EOF
		return AncDataHeader{}, nil, s.err
	}

	if rest[0] == stuffingByte {
		for i, b := range rest {
			if b != stuffingByte {
				s.err = errors.Wrapf(ErrStuffing, "byte %#02x at offset %d", b, s.off+i)
				return AncDataHeader{}, nil, s.err
			}
		}
		s.off = len(s.b)
		s.err = io.EOF
		return AncDataHeader{}, nil, s.err
	}

	h, err := DecodeHeader(rest)
	if err != nil {
		s.err = errors.Wrapf(err, "could not decode ANC packet at offset %d", s.off)
		return AncDataHeader{}, nil, s.err
	}
	pkt := rest[:h.Len]
	s.off += h.Len
	return h, pkt, nil
}

// Offset returns the offset in the source of the next packet.
func (s *Scanner) Offset() int {
	return s.off
}

// Decode returns the headers of all ANC packets in the payload b.
func Decode(b []byte) ([]AncDataHeader, error) {
	var hdrs []AncDataHeader
	s := NewScanner(b)
	for {
		h, _, err := s.Next()
		if err == io.EOF {
			return hdrs, nil
		}
		if err != nil {
			return hdrs, err
		}
		hdrs = append(hdrs, h)
	}
}
