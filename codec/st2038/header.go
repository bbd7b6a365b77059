/*
NAME
  header.go

DESCRIPTION
  header.go provides decoding of SMPTE ST 2038 ancillary data (ANC) packet
  headers.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package st2038 provides decoding of SMPTE ST 2038 ancillary data packets
// as carried in MPEG-TS PES.
package st2038

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/ausocean/anc/codec/bits"
)

// Field widths of an ANC packet in bits.
const (
	zeroBitsLen    = 6
	lineNumberLen  = 11
	hOffsetLen     = 12
	wordLen        = 10 // DID, SDID, data count, user data words and checksum.
	fixedHeaderLen = zeroBitsLen + 1 + lineNumberLen + hOffsetLen + 3*wordLen
)

// MinHeaderSize is the smallest possible size of an ANC packet in bytes, i.e.
// a packet with no user data words.
const MinHeaderSize = (fixedHeaderLen + wordLen + 7) / 8

// Errors returned for structurally invalid ANC packets.
var (
	ErrZeroBits      = errors.New("zero bits not zero")
	ErrAlignmentBits = errors.New("alignment bits are not ones")
)

// errMalformed is the context that structural errors are wrapped with.
const errMalformed = "malformed header"

/*
AncDataHeader holds the fields of an ST 2038 ANC packet header. Below is the
layout of the packet for reference; fields follow each other with no gaps and
bits are read most-significant first.

	==================================================
	| field                    | bits                |
	==================================================
	| zero bits                | 6                   |
	| c_not_y_channel_flag     | 1                   |
	| line_number              | 11                  |
	| horizontal_offset        | 12                  |
	| DID                      | 10 (2 parity + 8)   |
	| SDID                     | 10 (2 parity + 8)   |
	| data_count               | 10 (2 parity + 8)   |
	| user_data_words          | 10 * data_count     |
	| checksum_word            | 10                  |
	| word_align (all ones)    | 0 to 7              |
	==================================================
*/
type AncDataHeader struct {
	CNotYChannelFlag bool   // Set if the data is from the colour difference channel.
	DID              uint8  // Data identifier, parity bits removed.
	SDID             uint8  // Secondary data identifier, parity bits removed.
	LineNumber       uint16 // Line of the source SDI frame.
	HorizontalOffset uint16 // Horizontal sample offset in the line.
	DataCount        uint8  // Number of user data words, parity bits removed.
	Checksum         uint16 // Checksum word, not verified.
	Len              int    // Number of bytes consumed, including alignment bits.
}

// DecodeHeader decodes a single ANC packet from the start of b. The returned
// header's Len gives the number of bytes of b the packet occupies, so that a
// caller may advance to the next packet. The user data words are skipped;
// see DecodePacket for access to them.
//
// Errors caused by b being too short have cause io.ErrUnexpectedEOF, and
// errors caused by invalid zero or alignment bits have cause ErrZeroBits or
// ErrAlignmentBits respectively.
func DecodeHeader(b []byte) (AncDataHeader, error) {
	r := newFieldReader(bits.NewBitReader(b))

	if r.readBits(zeroBitsLen, "zero bits") != 0 {
		return AncDataHeader{}, errors.Wrap(ErrZeroBits, errMalformed)
	}

	var h AncDataHeader
	h.CNotYChannelFlag = r.readBits(1, "c_not_y_channel_flag") == 1
	h.LineNumber = uint16(r.readBits(lineNumberLen, "line number"))
	h.HorizontalOffset = uint16(r.readBits(hOffsetLen, "horizontal offset"))

	// Top two bits are parity bits and can be stripped off.
	h.DID = uint8(r.readBits(wordLen, "DID"))
	h.SDID = uint8(r.readBits(wordLen, "SDID"))
	h.DataCount = uint8(r.readBits(wordLen, "data count"))

	r.skipBits(int(h.DataCount)*wordLen, "data")
	h.Checksum = uint16(r.readBits(wordLen, "checksum"))
	if r.err() != nil {
		return AncDataHeader{}, r.err()
	}

	for !r.br.ByteAligned() {
		if r.readBits(1, "alignment") != 1 {
			if r.err() != nil {
				return AncDataHeader{}, r.err()
			}
			return AncDataHeader{}, errors.Wrap(ErrAlignmentBits, errMalformed)
		}
	}

	pos := r.br.Position()
	if pos%8 != 0 {
		panic(fmt.Sprintf("ANC packet not byte aligned after alignment bits, position: %d", pos))
	}
	h.Len = pos / 8
	return h, nil
}

// IsTruncated returns true if err was caused by running out of data while
// decoding an ANC packet.
func IsTruncated(err error) bool {
	return errors.Cause(err) == io.ErrUnexpectedEOF
}

// IsMalformed returns true if err was caused by invalid zero or alignment
// bits in an ANC packet.
func IsMalformed(err error) bool {
	switch errors.Cause(err) {
	case ErrZeroBits, ErrAlignmentBits:
		return true
	}
	return false
}

// String returns a single line representation of h for logging.
func (h AncDataHeader) String() string {
	return fmt.Sprintf(
		"DID: 0x%02x, SDID: 0x%02x (%s), line: %d, offset: %d, c: %v, count: %d, checksum: 0x%03x, len: %d",
		h.DID, h.SDID, h.Type(), h.LineNumber, h.HorizontalOffset, h.CNotYChannelFlag, h.DataCount, h.Checksum, h.Len,
	)
}

// fieldReader provides methods for reading fields from a bits.BitReader with
// a sticky error that may be checked after a series of parsing read calls.
// The first failing read records the field it was reading as context.
type fieldReader struct {
	e  error
	br *bits.BitReader
}

// newFieldReader returns a new fieldReader.
func newFieldReader(br *bits.BitReader) *fieldReader {
	return &fieldReader{br: br}
}

// readBits returns the value of the next n bits from br. If we have an error
// already, we do not continue with the read.
func (r *fieldReader) readBits(n int, field string) uint64 {
	if r.e != nil {
		return 0
	}
	v, err := r.br.ReadBits(n)
	if err != nil {
		r.e = errors.Wrap(err, field)
	}
	return v
}

// skipBits advances br by n bits, unless we have an error already.
func (r *fieldReader) skipBits(n int, field string) {
	if r.e != nil {
		return
	}
	err := r.br.SkipBits(n)
	if err != nil {
		r.e = errors.Wrap(err, field)
	}
}

// err returns the fieldReader's error e.
func (r *fieldReader) err() error {
	return r.e
}
