/*
NAME
  encoder.go

DESCRIPTION
  encoder.go provides an Encoder that muxes SMPTE ST 2038 ANC PES payloads
  into MPEG-TS.

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

package mts

import (
	"fmt"
	"io"
	"time"

	"github.com/ausocean/anc/codec/st2038"
	"github.com/ausocean/anc/container/mts/pes"
	"github.com/ausocean/anc/container/mts/psi"
	"github.com/ausocean/utils/logging"
)

// These constants are used to select between the methods of when the PSI is
// sent.
const (
	psiMethodPacket = iota // PSI is inserted after a certain number of packets.
	psiMethodTime          // PSI is inserted after a certain amount of time.
)

// PIDANC is the default program ID of the ANC elementary stream.
const PIDANC = 258

// Time-related constants.
const (
	// ptsOffset is the offset added to the clock to determine
	// the current presentation timestamp.
	ptsOffset = 700 * time.Millisecond

	// PCRFrequency is the base Program Clock Reference frequency in Hz.
	PCRFrequency = 90000

	// PTSFrequency is the presentation timestamp frequency in Hz.
	PTSFrequency = 90000

	// MaxPTS is the largest PTS value (i.e., for a 33-bit unsigned integer).
	MaxPTS = (1 << 33) - 1
)

// pesHeaderLen is the length of the optional PES header fields we write,
// i.e. just the PTS.
const pesHeaderLen = 5

// Default encoder configuration parameters.
const (
	defaultRate         = 25 // Video frames per second.
	defaultPSIMethod    = psiMethodPacket
	defaultPSISendCount = 7
)

// Encoder encapsulates properties of an MPEG-TS generator for ANC data. Each
// call to Write carries the ANC packets of one video frame.
type Encoder struct {
	dst io.WriteCloser

	clock       time.Duration
	writePeriod time.Duration
	ptsOffset   time.Duration
	tsSpace     [PacketSize]byte
	pesSpace    [pes.MaxPesSize]byte

	continuity map[uint16]byte

	psiMethod    int
	pktCount     int
	psiSendCount int
	psiTime      time.Duration
	psiSetTime   time.Duration
	startTime    time.Time
	ancPID       uint16

	patBytes, pmtBytes []byte

	// log is a function that will be used through the encoder code for logging.
	log logging.Logger
}

// NewEncoder returns an Encoder writing to dst. By default PSI is written
// every 7 packets and the rate is 25 frames per second.
func NewEncoder(dst io.WriteCloser, log logging.Logger, options ...func(*Encoder) error) (*Encoder, error) {
	e := &Encoder{
		dst:          dst,
		writePeriod:  time.Duration(float64(time.Second) / defaultRate),
		ptsOffset:    ptsOffset,
		psiMethod:    defaultPSIMethod,
		psiSendCount: defaultPSISendCount,
		pktCount:     defaultPSISendCount,
		ancPID:       PIDANC,
		log:          log,
	}

	for _, option := range options {
		err := option(e)
		if err != nil {
			return nil, fmt.Errorf("option failed with error: %w", err)
		}
	}
	log.Debug("encoder options applied", "PID", e.ancPID, "writePeriod", e.writePeriod)

	e.continuity = map[uint16]byte{PatPid: 0, PmtPid: 0, e.ancPID: 0}
	e.patBytes = psi.NewPATPSI(PmtPid).Bytes()
	e.pmtBytes = psi.NewPMTPSI(e.ancPID, psi.StreamTypePrivatePES, psi.RegistrationDescriptor(psi.VANCFormat)).Bytes()

	return e, nil
}

// Write implements io.Writer. Write takes a PES payload of consecutive ANC
// packets, optionally followed by 0xFF stuffing, and writes it to the
// destination as one PES packet. The payload is checked by decoding every ANC
// packet header but is written unchanged.
func (e *Encoder) Write(data []byte) (int, error) {
	e.log.Debug("writing data", "len(data)", len(data))
	hdrs, err := st2038.Decode(data)
	if err != nil {
		return 0, fmt.Errorf("invalid ANC payload: %w", err)
	}
	if len(hdrs) == 0 {
		return 0, fmt.Errorf("invalid ANC payload: %w", ErrNoANCPackets)
	}
	l := pes.PacketLength(pesHeaderLen, len(data))
	if l == 0 {
		return 0, fmt.Errorf("ANC payload of %d bytes: %w", len(data), ErrPayloadTooLarge)
	}

	switch e.psiMethod {
	case psiMethodPacket:
		e.log.Debug("checking packet no. conditions for PSI write", "count", e.pktCount, "PSI count", e.psiSendCount)
		if e.pktCount >= e.psiSendCount {
			e.pktCount = 0
			err := e.writePSI()
			if err != nil {
				return 0, fmt.Errorf("could not write psi (psiMethodPacket): %w", err)
			}
		}
	case psiMethodTime:
		dur := time.Since(e.startTime)
		e.log.Debug("checking time conditions for PSI write")
		if dur >= e.psiTime {
			e.psiTime = e.psiSetTime
			e.startTime = time.Now()
			err := e.writePSI()
			if err != nil {
				return 0, fmt.Errorf("could not write psi (psiMethodTime): %w", err)
			}
		}
	default:
		panic("undefined PSI method")
	}

	// Prepare PES data.
	pts := e.pts()
	pesPkt := pes.Packet{
		StreamID:     pes.PrivateStream1SID,
		Length:       l,
		DAI:          true,
		PDI:          pes.HasPTS,
		PTS:          pts,
		Data:         data,
		HeaderLength: pesHeaderLen,
	}

	buf := pesPkt.Bytes(e.pesSpace[:pes.MaxPesSize])

	pusi := true
	for len(buf) != 0 {
		pkt := Packet{
			PUSI: pusi,
			PID:  e.ancPID,
			RAI:  pusi,
			CC:   e.ccFor(e.ancPID),
			AFC:  hasAdaptationField | hasPayload,
			PCRF: pusi,
		}
		n := pkt.FillPayload(buf)
		buf = buf[n:]

		if pusi {
			// If the packet has a Payload Unit Start Indicator
			// flag set then we need to write a PCR.
			pcr := e.pcr()
			e.log.Debug("new ANC frame", "PCR", pcr, "PTS", pts, "packets", len(hdrs))
			pkt.PCR = pcr
			pusi = false
		}

		b := pkt.Bytes(e.tsSpace[:PacketSize])
		_, err := e.dst.Write(b)
		if err != nil {
			return len(data), fmt.Errorf("could not write MTS packet to destination: %w", err)
		}
		e.pktCount++
	}

	e.tick()

	return len(data), nil
}

// writePSI writes MPEG-TS packets holding the PAT and PMT.
func (e *Encoder) writePSI() error {
	// Write PAT.
	patPkt := Packet{
		PUSI:    true,
		PID:     PatPid,
		CC:      e.ccFor(PatPid),
		AFC:     hasPayload,
		Payload: psi.AddPadding(e.patBytes),
	}
	_, err := e.dst.Write(patPkt.Bytes(e.tsSpace[:PacketSize]))
	if err != nil {
		return fmt.Errorf("could not write pat packet: %w", err)
	}
	e.pktCount++

	// Create mts packet from pmt table.
	pmtPkt := Packet{
		PUSI:    true,
		PID:     PmtPid,
		CC:      e.ccFor(PmtPid),
		AFC:     hasPayload,
		Payload: psi.AddPadding(e.pmtBytes),
	}
	_, err = e.dst.Write(pmtPkt.Bytes(e.tsSpace[:PacketSize]))
	if err != nil {
		return fmt.Errorf("could not write pmt packet: %w", err)
	}
	e.pktCount++

	e.log.Debug("PSI written", "PAT CC", patPkt.CC, "PMT CC", pmtPkt.CC)
	return nil
}

// tick advances the clock one frame interval.
func (e *Encoder) tick() {
	e.clock += e.writePeriod
}

// pts retuns the current presentation timestamp.
func (e *Encoder) pts() uint64 {
	return uint64((e.clock+e.ptsOffset).Seconds()*PTSFrequency) & MaxPTS
}

// pcr returns the current program clock reference.
func (e *Encoder) pcr() uint64 {
	return uint64(e.clock.Seconds() * PCRFrequency)
}

// ccFor returns the next continuity counter for pid.
func (e *Encoder) ccFor(pid uint16) byte {
	cc := e.continuity[pid]
	const continuityCounterMask = 0xf
	e.continuity[pid] = (cc + 1) & continuityCounterMask
	return cc
}

// Close closes the destination.
func (e *Encoder) Close() error {
	e.log.Debug("closing encoder")
	return e.dst.Close()
}
