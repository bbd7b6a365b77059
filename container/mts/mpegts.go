/*
NAME
  mpegts.go

DESCRIPTION
  mpegts.go provides a model of an MPEG-TS packet for encoding, and helpers
  for locating packets and program specific information in a clip.

AUTHORS
  Saxon A. Nelson-Milton <saxon.milton@gmail.com>
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package mts provides carriage of SMPTE ST 2038 ancillary data in MPEG-TS,
// i.e. muxing of ANC PES packets and their extraction from a clip.
package mts

import (
	gotspsi "github.com/Comcast/gots/v2/psi"
	"github.com/pkg/errors"
)

const PacketSize = 188

// Standard program IDs for program specific information MPEG-TS packets.
const (
	PatPid = 0
	PmtPid = 4096
)

// HeadSize is the size of an MPEG-TS packet header.
const HeadSize = 4

// Adaptation field control bits.
const (
	hasPayload         = 0x1
	hasAdaptationField = 0x2
)

// syncByte starts every MPEG-TS packet.
const syncByte = 0x47

// Packet encapsulates the fields of an MPEG-TS packet that we use when
// encoding. The optional adaptation fields beyond the PCR are unsupported.
//
//	octet 0   sync byte (0x47)
//	octet 1   TEI | PUSI | Prior | PID
//	octet 2   PID cont.
//	octet 3   TSC | AFC | CC
//	octet 4   AFL
//	octet 5   DI | RAI | ESPI | PCRF | OPCRF | SPF | TPDF | AFEF
//	optional  PCR (6 bytes)
//	optional  stuffing
//	          payload
type Packet struct {
	TEI      bool   // Transport Error Indicator
	PUSI     bool   // Payload Unit Start Indicator
	Priority bool   // Tranposrt priority indicator
	PID      uint16 // Packet identifier
	TSC      byte   // Transport Scrambling Control
	AFC      byte   // Adaption Field Control
	CC       byte   // Continuity Counter
	DI       bool   // Discontinouty indicator
	RAI      bool   // random access indicator
	ESPI     bool   // Elementary stream priority indicator
	PCRF     bool   // PCR flag
	PCR      uint64 // Program clock reference
	Payload  []byte // Mpeg ts Payload
}

// FillPayload fills the packet's Payload field with as much of data as will
// fit and returns the number of bytes used.
func (p *Packet) FillPayload(data []byte) int {
	currentPktLen := 6 + asInt(p.PCRF)*6
	if len(data) > PacketSize-currentPktLen {
		p.Payload = make([]byte, PacketSize-currentPktLen)
	} else {
		p.Payload = make([]byte, len(data))
	}
	return copy(p.Payload, data)
}

// Bytes interprets the fields of the ts packet instance and outputs a
// corresponding byte slice. Space left by a short payload is filled with
// adaptation field stuffing.
func (p *Packet) Bytes(buf []byte) []byte {
	if buf == nil || cap(buf) < PacketSize {
		buf = make([]byte, PacketSize)
	}

	buf = buf[:6]
	buf[0] = syncByte
	buf[1] = (asByte(p.TEI)<<7 | asByte(p.PUSI)<<6 | asByte(p.Priority)<<5 | byte((p.PID&0x1f00)>>8))
	buf[2] = byte(p.PID & 0x00ff)
	buf[3] = (p.TSC<<6 | p.AFC<<4 | p.CC)

	var maxPayloadSize int
	if p.AFC&hasAdaptationField != 0 {
		maxPayloadSize = PacketSize - 6 - asInt(p.PCRF)*6
	} else {
		maxPayloadSize = PacketSize - HeadSize
	}

	stuffingLen := maxPayloadSize - len(p.Payload)
	if p.AFC&hasAdaptationField != 0 {
		buf[4] = byte(1 + stuffingLen + asInt(p.PCRF)*6)
		buf[5] = (asByte(p.DI)<<7 | asByte(p.RAI)<<6 | asByte(p.ESPI)<<5 | asByte(p.PCRF)<<4)
	} else {
		buf = buf[:HeadSize]
	}

	for i := 40; p.PCRF && i >= 0; i -= 8 {
		buf = append(buf, byte((p.PCR<<15)>>uint(i)))
	}

	for i := 0; i < stuffingLen; i++ {
		buf = append(buf, 0xff)
	}
	curLen := len(buf)
	buf = buf[:PacketSize]
	copy(buf[curLen:], p.Payload)
	return buf
}

func asInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func asByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Errors used by FindPid.
var (
	ErrInvalidLen = errors.New("MPEG-TS data not of valid length")
	ErrNoPID      = errors.New("could not find packet with PID")
)

// FindPid will take a clip of MPEG-TS and try to find a packet with given PID - if one
// is found, then it is returned along with its index, otherwise nil, -1 and an error is returned.
func FindPid(d []byte, pid uint16) (pkt []byte, i int, err error) {
	if len(d) < PacketSize {
		return nil, -1, ErrInvalidLen
	}
	for i = 0; i+PacketSize <= len(d); i += PacketSize {
		p := (uint16(d[i+1]&0x1f) << 8) | uint16(d[i+2])
		if p == pid {
			pkt = d[i : i+PacketSize]
			return
		}
	}
	return nil, -1, errors.Wrapf(ErrNoPID, "PID %d", pid)
}

// PID returns the packet identifier for the given packet.
func PID(p []byte) (uint16, error) {
	if len(p) < PacketSize {
		return 0, errors.New("packet length less than 188")
	}
	return uint16(p[1]&0x1f)<<8 | uint16(p[2]), nil
}

// Programs returns a map of program numbers and corresponding PMT PIDs for a
// given MPEG-TS PAT packet.
func Programs(p []byte) (map[uint16]uint16, error) {
	payload, err := Payload(p)
	if err != nil {
		return nil, errors.Wrap(err, "cannot get packet payload")
	}
	pat, err := gotspsi.NewPAT(payload)
	if err != nil {
		return nil, err
	}
	// Convert to map[uint16]uint16.
	m := make(map[uint16]uint16)
	for k, v := range pat.ProgramMap() {
		m[uint16(k)] = uint16(v)
	}
	return m, nil
}

// Streams returns elementary streams defined in a given MPEG-TS PMT packet.
func Streams(p []byte) ([]gotspsi.PmtElementaryStream, error) {
	payload, err := Payload(p)
	if err != nil {
		return nil, errors.Wrap(err, "cannot get packet payload")
	}
	pmt, err := gotspsi.NewPMT(payload)
	if err != nil {
		return nil, err
	}
	return pmt.ElementaryStreams(), nil
}

// pmtPIDs returns PMT PIDS from a map containing program number as keys and
// corresponding PMT PIDs as values.
func pmtPIDs(m map[uint16]uint16) []uint16 {
	r := make([]uint16, 0, len(m))
	for _, v := range m {
		r = append(r, v)
	}
	return r
}

// Errors used by Payload.
var ErrNoPayload = errors.New("no payload")

// Payload returns the payload of an MPEG-TS packet p.
// NB: this is not a copy of the payload in the interests of performance.
func Payload(p []byte) ([]byte, error) {
	if len(p) < PacketSize {
		return nil, ErrInvalidLen
	}
	c := (p[3] & 0x30) >> 4
	if c&hasPayload == 0 {
		return nil, ErrNoPayload
	}

	// Check if there is an adaptation field.
	off := HeadSize
	if c&hasAdaptationField != 0 {
		off = 5 + int(p[4])
	}
	if off > PacketSize {
		return nil, errors.Wrap(ErrInvalidLen, "adaptation field overruns packet")
	}
	return p[off:PacketSize], nil
}
