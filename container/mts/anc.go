/*
NAME
  anc.go

DESCRIPTION
  anc.go provides location of SMPTE ST 2038 ancillary data streams in an
  MPEG-TS clip and extraction of their PES payloads.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mts

import (
	"encoding/binary"

	"github.com/Comcast/gots/v2/packet"
	"github.com/Comcast/gots/v2/pes"
	"github.com/pkg/errors"

	"github.com/ausocean/anc/container/mts/psi"
)

// Errors returned when locating an ANC stream.
var (
	ErrNoPrograms       = errors.New("no programs in PAT")
	ErrMultiplePrograms = errors.New("more than one program not supported")
	ErrNoANCStream      = errors.New("no ST 2038 ANC stream in PMT")
)

// pesLenIdx is the index of the PES packet length field.
const pesLenIdx = 4

// Frame holds the payload of one PES packet from an ANC stream, i.e. a
// sequence of ANC packets, and the timing and ID from its PES header.
type Frame struct {
	Media []byte // The PES payload.
	PTS   uint64 // PTS from the PES header.
	ID    uint8  // Stream ID from the PES header, normally pes.PrivateStream1SID.
}

// FindANCPID finds the first PAT in clip and its PMT, and returns the PID of
// the first elementary stream carrying private PES data with a registration
// descriptor of format identifier "VANC", which is how ST 2038 streams are
// signalled.
func FindANCPID(clip []byte) (uint16, error) {
	pat, i, err := FindPid(clip, PatPid)
	if err != nil {
		return 0, errors.Wrap(err, "error finding PAT")
	}

	progs, err := Programs(pat)
	if err != nil {
		return 0, errors.Wrap(err, "cannot get programs from PAT")
	}
	switch len(progs) {
	case 0:
		return 0, ErrNoPrograms
	case 1:
	default:
		return 0, ErrMultiplePrograms
	}

	pmt, _, err := FindPid(clip[i+PacketSize:], pmtPIDs(progs)[0])
	if err != nil {
		return 0, errors.Wrap(err, "error finding PMT")
	}

	streams, err := Streams(pmt)
	if err != nil {
		return 0, errors.Wrap(err, "could not get streams from PMT")
	}
	payload, err := Payload(pmt)
	if err != nil {
		return 0, errors.Wrap(err, "cannot get PMT payload")
	}
	formats := registrationFormats(payload)
	for _, s := range streams {
		if s.StreamType() != psi.StreamTypePrivatePES {
			continue
		}
		pid := uint16(s.ElementaryPid())
		for _, f := range formats[pid] {
			if f == psi.VANCFormat {
				return pid, nil
			}
		}
	}
	return 0, ErrNoANCStream
}

// Offsets into a PMT section, as per ITU-T Rec. H.222.0 table 2-33.
const (
	pmtHeadLen    = 12 // Up to and including program_info_length.
	pmtInfoLenIdx = 10
	esHeadLen     = 5 // Stream type, elementary PID and ES_info_length.
	crcLen        = 4
)

// registrationFormats returns the format identifiers of the registration
// descriptors in the PMT payload p, keyed by elementary PID. gots does not
// expose descriptor data, so the section is walked here. Malformed sections
// give whatever was found before the error.
func registrationFormats(p []byte) map[uint16][]string {
	m := make(map[uint16][]string)
	if len(p) == 0 || 1+int(p[0]) >= len(p) {
		return m
	}
	s := p[1+int(p[0]):]
	if len(s) < pmtHeadLen {
		return m
	}
	end := 3 + int(binary.BigEndian.Uint16(s[1:])&0x0fff) - crcLen
	if end > len(s) {
		end = len(s)
	}
	i := pmtHeadLen + int(binary.BigEndian.Uint16(s[pmtInfoLenIdx:])&0x0fff)
	for i+esHeadLen <= end {
		pid := binary.BigEndian.Uint16(s[i+1:]) & 0x1fff
		infoEnd := i + esHeadLen + int(binary.BigEndian.Uint16(s[i+3:])&0x0fff)
		if infoEnd > end {
			return m
		}
		for j := i + esHeadLen; j+2 <= infoEnd; {
			tag, l := s[j], int(s[j+1])
			if j+2+l > infoEnd {
				break
			}
			if tag == psi.RegistrationTag && l >= 4 {
				m[pid] = append(m[pid], string(s[j+2:j+6]))
			}
			j += 2 + l
		}
		i = infoEnd
	}
	return m
}

// ExtractANC reassembles the PES packets carried on pid in clip and returns
// their payloads as frames. Packets on other PIDs are ignored. The clip must
// contain only complete MPEG-TS packets, and data before the first payload
// unit start on pid is skipped. The returned media is a copy.
func ExtractANC(clip []byte, pid uint16) ([]Frame, error) {
	if len(clip)%PacketSize != 0 {
		return nil, errors.Wrap(ErrInvalidLen, "MTS clip is not of valid size")
	}

	var (
		frames []Frame
		buf    []byte // PES packet being assembled.
		inPES  bool   // Whether we have seen a payload unit start.
		pkt    packet.Packet
	)

	for i := 0; i < len(clip); i += PacketSize {
		// We will use comcast/gots Packet type, so copy in.
		copy(pkt[:], clip[i:i+PacketSize])
		if pkt.PID() != int(pid) {
			continue
		}

		payload, err := Payload(clip[i : i+PacketSize])
		if errors.Is(err, ErrNoPayload) {
			// Adaptation field only, e.g. carrying the PCR.
			continue
		}
		if err != nil {
			return frames, errors.Wrapf(err, "could not extract payload from packet %d", i/PacketSize)
		}

		if pkt.PayloadUnitStartIndicator() {
			if inPES {
				f, err := pesFrame(buf)
				if err != nil {
					return frames, errors.Wrapf(err, "could not parse PES ending before packet %d", i/PacketSize)
				}
				frames = append(frames, f)
			}
			buf = buf[:0]
			inPES = true
		}
		if inPES {
			buf = append(buf, payload...)
		}
	}

	if inPES {
		f, err := pesFrame(buf)
		if err != nil {
			return frames, errors.Wrap(err, "could not parse final PES")
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// pesFrame parses a complete PES packet into a Frame. When the PES packet
// length is set, bytes beyond it are discarded.
func pesFrame(b []byte) (Frame, error) {
	if len(b) >= pesLenIdx+2 {
		if l := int(binary.BigEndian.Uint16(b[pesLenIdx:])); l != 0 && pesLenIdx+2+l <= len(b) {
			b = b[:pesLenIdx+2+l]
		}
	}
	h, err := pes.NewPESHeader(b)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Media: append([]byte(nil), h.Data()...),
		PTS:   h.PTS(),
		ID:    h.StreamId(),
	}, nil
}
