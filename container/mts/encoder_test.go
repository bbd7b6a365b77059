/*
NAME
  encoder_test.go

DESCRIPTION
  encoder_test.go provides testing for the ANC MPEG-TS encoder.

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
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Comcast/gots/v2/packet"
	"github.com/Comcast/gots/v2/pes"

	"github.com/ausocean/anc/codec/st2038"
	"github.com/ausocean/anc/container/mts/psi"
	"github.com/ausocean/utils/logging"
)

// ANC packets with valid parity and checksum words.
var (
	// DID 0x61, SDID 0x01, line 9, UDW {0x96, 0x69}.
	ancCaption = []byte{0x00, 0x02, 0x40, 0x01, 0x61, 0x40, 0x50, 0x2a, 0x5a, 0x69, 0x98, 0xff}

	// DID 0x41, SDID 0x05, line 10, offset 4, c_not_y set, UDW {1, 2, 3, 4, 5}.
	ancAFD = []byte{0x02, 0x02, 0x80, 0x12, 0x41, 0x81, 0x60, 0x54, 0x05, 0x02, 0x80, 0xd0, 0x48, 0x15, 0x5a}

	// DID 0x60, SDID 0x60, line 11, no UDW.
	ancTimecode = []byte{0x00, 0x02, 0xc0, 0x02, 0x60, 0x98, 0x20, 0x0b, 0x03}
)

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

type destination struct {
	packets [][]byte
}

func (d *destination) Write(p []byte) (int, error) {
	tmp := make([]byte, PacketSize)
	copy(tmp, p)
	d.packets = append(d.packets, tmp)
	return len(p), nil
}

func (d *destination) bytes() []byte {
	var b []byte
	for _, p := range d.packets {
		b = append(b, p...)
	}
	return b
}

// pids returns the PIDs of the packets written to d.
func (d *destination) pids() []int {
	var pids []int
	for _, p := range d.packets {
		var _p packet.Packet
		copy(_p[:], p)
		pids = append(pids, _p.PID())
	}
	return pids
}

// TestEncodeANC checks that a payload of ANC packets is written as a single
// private stream PES packet with the expected MPEG-TS headers.
func TestEncodeANC(t *testing.T) {
	data := append(append([]byte{}, ancCaption...), ancAFD...)

	dst := &destination{}
	e, err := NewEncoder(nopCloser{dst}, (*logging.TestLogger)(t), Rate(25))
	if err != nil {
		t.Fatalf("could not create MTS encoder, failed with error: %v", err)
	}

	n, err := e.Write(data)
	if err != nil {
		t.Fatalf("could not write data to encoder, failed with error: %v", err)
	}
	if n != len(data) {
		t.Errorf("unexpected write length, got: %d, want: %d", n, len(data))
	}

	wantPIDs := []int{PatPid, PmtPid, PIDANC}
	gotPIDs := dst.pids()
	if len(gotPIDs) != len(wantPIDs) {
		t.Fatalf("unexpected packet PIDs, got: %v, want: %v", gotPIDs, wantPIDs)
	}
	for i := range wantPIDs {
		if gotPIDs[i] != wantPIDs[i] {
			t.Errorf("unexpected PID for packet %d, got: %d, want: %d", i, gotPIDs[i], wantPIDs[i])
		}
	}

	// NB: the PCR is neglected.
	const stuffingLen = PacketSize - 12 - (9 + pesHeaderLen) - 27
	wantHeader := []byte{
		0x47,                  // Sync byte.
		0x41,                  // TEI=0, PUSI=1, TP=0, PID=00001 (258).
		0x02,                  // PID(Cont)=00000010.
		0x30,                  // TSC=00, AFC=11(adaptation followed by payload), CC=0000(0).
		byte(7 + stuffingLen), // AFL.
		0x50,                  // DI=0,RAI=1,ESPI=0,PCRF=1,OPCRF=0,SPF=0,TPDF=0, AFEF=0.
	}
	ancPkt := dst.packets[2]
	if !bytes.Equal(ancPkt[:6], wantHeader) {
		t.Errorf("did not get expected header.\nGot: %#v\nWant: %#v", ancPkt[:6], wantHeader)
	}

	var _p packet.Packet
	copy(_p[:], ancPkt)
	payload, err := _p.Payload()
	if err != nil {
		t.Fatalf("could not get payload from mts packet, failed with err: %v", err)
	}
	_pes, err := pes.NewPESHeader(payload)
	if err != nil {
		t.Fatalf("could not parse PES, failed with err: %v", err)
	}
	if _pes.StreamId() != 0xbd {
		t.Errorf("unexpected stream ID, got: %#x, want: 0xbd", _pes.StreamId())
	}
	if !bytes.Equal(_pes.Data(), data) {
		t.Errorf("did not get expected PES data.\nGot: %#v\nWant: %#v", _pes.Data(), data)
	}

	wantLen := []byte{0x00, byte(3 + pesHeaderLen + len(data))}
	if !bytes.Equal(payload[4:6], wantLen) {
		t.Errorf("unexpected PES packet length, got: %#v, want: %#v", payload[4:6], wantLen)
	}
	if payload[6]&0x04 == 0 {
		t.Error("data alignment indicator not set")
	}
}

// TestEncodeMultiPacket checks that a PES packet spanning several MPEG-TS
// packets has continuity counters and PUSI set correctly.
func TestEncodeMultiPacket(t *testing.T) {
	var data []byte
	for len(data) < 400 {
		data = append(data, ancAFD...)
	}

	dst := &destination{}
	e, err := NewEncoder(nopCloser{dst}, (*logging.TestLogger)(t), StreamPID(0x200))
	if err != nil {
		t.Fatalf("could not create MTS encoder, failed with error: %v", err)
	}
	_, err = e.Write(data)
	if err != nil {
		t.Fatalf("could not write data to encoder, failed with error: %v", err)
	}

	var cc byte
	var got []byte
	for i, p := range dst.packets {
		var _p packet.Packet
		copy(_p[:], p)
		if _p.PID() != 0x200 {
			continue
		}
		if _p.PayloadUnitStartIndicator() != (cc == 0) {
			t.Errorf("unexpected PUSI for packet %d", i)
		}
		if gotCC := p[3] & 0x0f; gotCC != cc {
			t.Errorf("unexpected continuity counter for packet %d, got: %d, want: %d", i, gotCC, cc)
		}
		cc++
		payload, err := _p.Payload()
		if err != nil {
			t.Fatalf("could not get payload from packet %d: %v", i, err)
		}
		got = append(got, payload...)
	}
	if cc != 3 {
		t.Errorf("unexpected number of ANC packets, got: %d, want: 3", cc)
	}

	_pes, err := pes.NewPESHeader(got)
	if err != nil {
		t.Fatalf("could not parse PES, failed with err: %v", err)
	}
	if !bytes.Equal(_pes.Data(), data) {
		t.Error("did not get expected PES data")
	}
}

// TestEncodePSIPacketBased checks that PSI are written once the packet count
// is reached.
func TestEncodePSIPacketBased(t *testing.T) {
	dst := &destination{}
	e, err := NewEncoder(nopCloser{dst}, (*logging.TestLogger)(t), PacketBasedPSI(4))
	if err != nil {
		t.Fatalf("could not create MTS encoder, failed with error: %v", err)
	}
	for i := 0; i < 5; i++ {
		_, err = e.Write(ancTimecode)
		if err != nil {
			t.Fatalf("could not write data to encoder, failed with error: %v", err)
		}
	}

	want := []int{
		PatPid, PmtPid, PIDANC, PIDANC,
		PatPid, PmtPid, PIDANC, PIDANC,
		PatPid, PmtPid, PIDANC,
	}
	got := dst.pids()
	if len(got) != len(want) {
		t.Fatalf("unexpected packet PIDs, got: %v, want: %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("unexpected PID for packet %d, got: %d, want: %d", i, got[i], want[i])
		}
	}

	wantPMT := psi.AddPadding(psi.NewPMTPSI(PIDANC, psi.StreamTypePrivatePES, psi.RegistrationDescriptor(psi.VANCFormat)).Bytes())
	if !bytes.Equal(dst.packets[1][HeadSize:], wantPMT) {
		t.Errorf("unexpected PMT payload.\nGot: %#v\nWant: %#v", dst.packets[1][HeadSize:], wantPMT)
	}
	if cc := dst.packets[5][3] & 0x0f; cc != 1 {
		t.Errorf("unexpected PMT continuity counter, got: %d, want: 1", cc)
	}
}

// TestEncodePSITimeBased checks that PSI are written before the first frame
// and not again until the period has passed.
func TestEncodePSITimeBased(t *testing.T) {
	dst := &destination{}
	e, err := NewEncoder(nopCloser{dst}, (*logging.TestLogger)(t), TimeBasedPSI(time.Hour))
	if err != nil {
		t.Fatalf("could not create MTS encoder, failed with error: %v", err)
	}
	for i := 0; i < 20; i++ {
		_, err = e.Write(ancTimecode)
		if err != nil {
			t.Fatalf("could not write data to encoder, failed with error: %v", err)
		}
	}

	var nPAT int
	for _, pid := range dst.pids() {
		if pid == PatPid {
			nPAT++
		}
	}
	if nPAT != 1 {
		t.Errorf("unexpected number of PATs, got: %d, want: 1", nPAT)
	}
}

func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want error
	}{
		{name: "empty", in: nil, want: ErrNoANCPackets},
		{name: "zero bits", in: []byte{0x80, 0, 0, 0, 0, 0, 0, 0, 0}, want: st2038.ErrZeroBits},
		{name: "truncated", in: ancCaption[:5], want: io.ErrUnexpectedEOF},
		{name: "bad stuffing", in: append(append([]byte{}, ancTimecode...), 0xff, 0x00), want: st2038.ErrStuffing},
		{name: "too large", in: bytes.Repeat(ancTimecode, 0x10000/len(ancTimecode)), want: ErrPayloadTooLarge},
	}

	for _, test := range tests {
		dst := &destination{}
		e, err := NewEncoder(nopCloser{dst}, (*logging.TestLogger)(t))
		if err != nil {
			t.Fatalf("could not create MTS encoder, failed with error: %v", err)
		}
		_, err = e.Write(test.in)
		if !errors.Is(err, test.want) {
			t.Errorf("did not get expected error for test %s\nGot: %v\nWant: %v", test.name, err, test.want)
		}
		if len(dst.packets) != 0 {
			t.Errorf("packets written for invalid payload in test %s", test.name)
		}
	}
}

func TestOptions(t *testing.T) {
	tests := []struct {
		name   string
		option func(*Encoder) error
		want   error
	}{
		{name: "rate", option: Rate(29.97)},
		{name: "rate too low", option: Rate(0.5), want: ErrInvalidRate},
		{name: "rate too high", option: Rate(240), want: ErrInvalidRate},
		{name: "pid", option: StreamPID(0x1ffe)},
		{name: "reserved pid", option: StreamPID(0x0f), want: ErrInvalidPID},
		{name: "null pid", option: StreamPID(0x1fff), want: ErrInvalidPID},
		{name: "pmt pid", option: StreamPID(PmtPid), want: ErrInvalidPID},
		{name: "psi count", option: PacketBasedPSI(1)},
		{name: "zero psi count", option: PacketBasedPSI(0), want: ErrInvalidCount},
	}

	for _, test := range tests {
		_, err := NewEncoder(nopCloser{&destination{}}, (*logging.TestLogger)(t), test.option)
		if !errors.Is(err, test.want) {
			t.Errorf("did not get expected error for test %s\nGot: %v\nWant: %v", test.name, err, test.want)
		}
	}
}
