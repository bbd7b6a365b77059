/*
NAME
  pes.go - provides encoding of MPEG-TS packetised elementary stream (PES)
  packets.

AUTHOR
  Saxon A. Nelson-Milton <saxon.milton@gmail.com>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pes provides encoding of PES packets.
package pes

import (
	gots "github.com/Comcast/gots/v2"
)

// MaxPesSize is the largest PES packet we will encode.
const MaxPesSize = 64 * 1 << 10

// Lengths used to compute the PES packet length field.
const (
	headSize     = 6 // Start code prefix, stream ID and packet length.
	optHeadSize  = 3 // Flags and header length bytes.
	ptsSize      = 5
	maxPacketLen = 0xffff
)

// PTS DTS indicator values.
const (
	NoPTS  = 0x0
	HasPTS = 0x2
)

// Packet is a PES packet with an optional PTS. Optional header fields other
// than the PTS are not supported and their flags are written as zero.
type Packet struct {
	StreamID     byte   // Type of stream
	Length       uint16 // Pes packet length in bytes after this field
	SC           byte   // Scrambling control
	Priority     bool   // Priority Indicator
	DAI          bool   // Data alignment indicator
	Copyright    bool   // Copyright indicator
	Original     bool   // Original data indicator
	PDI          byte   // PTS DTS indicator
	HeaderLength byte   // Pes header length
	PTS          uint64 // Presentation time stamp
	Stuff        []byte // Stuffing bytes
	Data         []byte // Pes packet data
}

// Bytes returns the encoding of p, using buf if it has the capacity.
func (p *Packet) Bytes(buf []byte) []byte {
	if buf == nil || cap(buf) != MaxPesSize {
		buf = make([]byte, 0, MaxPesSize)
	}
	buf = buf[:0]
	buf = append(buf, []byte{
		0x00, 0x00, 0x01,
		p.StreamID,
		byte((p.Length & 0xFF00) >> 8),
		byte(p.Length & 0x00FF),
		(0x2<<6 | p.SC<<4 | boolByte(p.Priority)<<3 | boolByte(p.DAI)<<2 |
			boolByte(p.Copyright)<<1 | boolByte(p.Original)),
		p.PDI << 6,
		p.HeaderLength,
	}...)

	if p.PDI == HasPTS {
		ptsIdx := len(buf)
		buf = buf[:ptsIdx+ptsSize]
		gots.InsertPTS(buf[ptsIdx:], p.PTS)
	}
	buf = append(buf, p.Stuff...)
	buf = append(buf, p.Data...)
	return buf
}

// PacketLength returns the value of the PES packet length field for a packet
// with the given header length and amount of data, or 0 (unbounded) if it
// does not fit in the field.
func PacketLength(headerLen, dataLen int) uint16 {
	l := optHeadSize + headerLen + dataLen
	if l > maxPacketLen || headSize+l > MaxPesSize {
		return 0
	}
	return uint16(l)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
