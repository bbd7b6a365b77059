/*
NAME
  packet.go

DESCRIPTION
  packet.go provides access to the raw 10-bit words of an ST 2038 ANC packet
  and verification of their parity and checksum as per SMPTE ST 291-1.

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
	mbits "math/bits"

	"github.com/pkg/errors"

	"github.com/ausocean/anc/codec/bits"
)

// Errors returned by packet verification.
var (
	ErrParity   = errors.New("parity bits invalid")
	ErrChecksum = errors.New("checksum mismatch")
)

// sumMask masks the bits of a word that contribute to the checksum.
const sumMask = 0x1ff

// Packet is a decoded ANC packet including its raw 10-bit words.
type Packet struct {
	Header AncDataHeader

	// Words holds the raw DID, SDID and data count words followed by the user
	// data words, i.e. every word covered by the checksum.
	Words []uint16
}

// DecodePacket decodes the ANC packet at the start of b like DecodeHeader and
// also reads its raw words. The parity and checksum are not verified; see
// VerifyParity and VerifyChecksum.
func DecodePacket(b []byte) (*Packet, error) {
	h, err := DecodeHeader(b)
	if err != nil {
		return nil, err
	}

	r := newFieldReader(bits.NewBitReader(b[:h.Len]))
	r.skipBits(zeroBitsLen+1+lineNumberLen+hOffsetLen, "position")
	words := make([]uint16, 3+int(h.DataCount))
	for i := range words {
		words[i] = uint16(r.readBits(wordLen, "word"))
	}
	if r.err() != nil {
		return nil, errors.Wrap(r.err(), "could not re-read packet words")
	}
	return &Packet{Header: h, Words: words}, nil
}

// UDW returns the raw 10-bit user data words of p.
func (p *Packet) UDW() []uint16 {
	return p.Words[3:]
}

// Payload returns the low 8 bits of each user data word of p. This is the
// payload for data types that carry 8-bit data with parity, e.g. CEA-708
// caption distribution packets.
func (p *Packet) Payload() []byte {
	udw := p.UDW()
	b := make([]byte, len(udw))
	for i, w := range udw {
		b[i] = byte(w)
	}
	return b
}

// VerifyParity checks the parity bits of the DID, SDID and data count words.
// User data words are not checked since they may carry 10-bit data.
func (p *Packet) VerifyParity() error {
	for i, name := range [...]string{"DID", "SDID", "data count"} {
		w := p.Words[i]
		if w != Parity(uint8(w)) {
			return errors.Wrapf(ErrParity, "%s word: %#03x", name, w)
		}
	}
	return nil
}

// VerifyChecksum checks the checksum word of p against the checksum computed
// over its DID, SDID, data count and user data words.
func (p *Packet) VerifyChecksum() error {
	want := Checksum(p.Words)
	if p.Header.Checksum != want {
		return errors.Wrapf(ErrChecksum, "got: %#03x, want: %#03x", p.Header.Checksum, want)
	}
	return nil
}

// Parity returns the 10-bit word for the 8-bit value v, where bit 8 is the
// even parity of bits 0 to 7 and bit 9 is the inverse of bit 8.
func Parity(v uint8) uint16 {
	b8 := uint16(mbits.OnesCount8(v) & 1)
	return uint16(v) | b8<<8 | (b8^1)<<9
}

// Checksum returns the checksum word for the given words, i.e. the sum of
// their 9 least significant bits modulo 512, with bit 9 set to the inverse
// of bit 8.
func Checksum(words []uint16) uint16 {
	var sum uint16
	for _, w := range words {
		sum = (sum + w&sumMask) & sumMask
	}
	return sum | (^sum>>8&1)<<9
}
