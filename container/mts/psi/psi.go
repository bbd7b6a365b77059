/*
NAME
  psi.go

DESCRIPTION
  psi.go provides encoding of the PAT and PMT tables needed to announce an
  SMPTE ST 2038 ANC stream.

AUTHOR
  Saxon Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package psi provides encoding of MPEG-TS program specific information.
package psi

// PacketSize of psi (without MPEG-TS header)
const PacketSize = 184

// Lengths of section definitions.
const (
	ESSDataLen = 5
	DescDefLen = 2
	PMTDefLen  = 4
	PATLen     = 4
	TSSDefLen  = 5
	PSIDefLen  = 3
)

// Table Type IDs.
const (
	patID = 0x00
	pmtID = 0x02
)

// CRC hassh Size
const crcSize = 4

// Descriptor tags and stream types as per ITU-T Rec. H.222.0, tables 2-45
// and 2-34.
const (
	RegistrationTag      = 0x05
	StreamTypePrivatePES = 0x06
)

// VANCFormat is the registration descriptor format identifier for SMPTE
// ST 2038 ANC data.
const VANCFormat = "VANC"

// defaultProgram is the number of the single program we describe.
const defaultProgram = 0x01

// NewPATPSI will provide a standard program specific information (PSI) table
// with a program association table (PAT) specific data field, pointing to a
// single program with PMT on pmtPID.
func NewPATPSI(pmtPID uint16) *PSI {
	p := &PSI{
		TableID:         patID,
		SyntaxIndicator: true,
		PrivateBit:      false,
		SyntaxSection: &SyntaxSection{
			TableIDExt:  defaultProgram,
			Version:     0,
			CurrentNext: true,
			Section:     0,
			LastSection: 0,
			SpecificData: &PAT{
				Program:       defaultProgram,
				ProgramMapPID: pmtPID,
			},
		},
	}
	p.setSectionLen()
	return p
}

// NewPMTPSI will provide a standard program specific information (PSI) table
// with a program mapping table specific data field, describing one
// elementary stream of the given type on pid with the given descriptors. The
// stream also carries the PCR.
func NewPMTPSI(pid uint16, streamType byte, descs ...Descriptor) *PSI {
	var infoLen uint16
	for _, d := range descs {
		infoLen += uint16(DescDefLen + len(d.Data))
	}
	p := &PSI{
		TableID:         pmtID,
		SyntaxIndicator: true,
		SyntaxSection: &SyntaxSection{
			TableIDExt:  defaultProgram,
			Version:     0,
			CurrentNext: true,
			Section:     0,
			LastSection: 0,
			SpecificData: &PMT{
				ProgramClockPID: pid,
				ProgramInfoLen:  0,
				StreamSpecificData: &StreamSpecificData{
					StreamType:    streamType,
					PID:           pid,
					StreamInfoLen: infoLen,
					Descriptors:   descs,
				},
			},
		},
	}
	p.setSectionLen()
	return p
}

// RegistrationDescriptor returns a registration descriptor carrying the
// given four character format identifier.
func RegistrationDescriptor(format string) Descriptor {
	return Descriptor{
		Tag:  RegistrationTag,
		Len:  byte(len(format)),
		Data: []byte(format),
	}
}

// Program specific information
type PSI struct {
	TableID         byte           // Table ID
	SyntaxIndicator bool           // Section syntax indicator (1 for PAT, PMT, CAT)
	PrivateBit      bool           // Private bit (0 for PAT, PMT, CAT)
	SectionLen      uint16         // Section length
	SyntaxSection   *SyntaxSection // Table syntax section (length defined by SectionLen) if length 0 then nil
	CRC             uint32         // crc32 of entire table excluding pointer field and the trailing CRC32
}

// Table syntax section
type SyntaxSection struct {
	TableIDExt   uint16       // Table ID extension
	Version      byte         // Version number
	CurrentNext  bool         // Current/next indicator
	Section      byte         // Section number
	LastSection  byte         // Last section number
	SpecificData SpecificData // Specific data PAT/PMT
}

// Specific Data, (could be PAT or PMT)
type SpecificData interface {
	Bytes() []byte
}

// Program association table, implements SpecificData
type PAT struct {
	Program       uint16 // Program Number
	ProgramMapPID uint16 // Program map PID
}

// Program mapping table, implements SpecificData
type PMT struct {
	ProgramClockPID    uint16              // Program clock reference PID.
	ProgramInfoLen     uint16              // Program info length.
	Descriptors        []Descriptor        // Number of Program descriptors.
	StreamSpecificData *StreamSpecificData // Elementary stream specific data.
}

// Elementary stream specific data
type StreamSpecificData struct {
	StreamType    byte         // Stream type.
	PID           uint16       // Elementary PID.
	StreamInfoLen uint16       // Elementary stream info length.
	Descriptors   []Descriptor // Elementary stream desriptors
}

// Descriptor
type Descriptor struct {
	Tag  byte   // Descriptor tag
	Len  byte   // Descriptor length
	Data []byte // Descriptor data
}

// setSectionLen sets the section length from the size of the syntax section.
func (p *PSI) setSectionLen() {
	p.SectionLen = uint16(len(p.SyntaxSection.Bytes()) + crcSize)
}

// Bytes outputs a byte slice representation of the PSI, preceded by a zero
// pointer field since the section always starts the packet payload.
func (p *PSI) Bytes() []byte {
	out := make([]byte, 4)
	out[1] = p.TableID
	out[2] = 0x80 | 0x30 | (0x03 & byte(p.SectionLen>>8))
	out[3] = byte(p.SectionLen)
	out = append(out, p.SyntaxSection.Bytes()...)
	out = AddCRC(out)
	return out
}

// Bytes outputs a byte slice representation of the SyntaxSection
func (t *SyntaxSection) Bytes() []byte {
	out := make([]byte, TSSDefLen)
	out[0] = byte(t.TableIDExt >> 8)
	out[1] = byte(t.TableIDExt)
	out[2] = 0xc0 | (0x3e & (t.Version << 1)) | (0x01 & asByte(t.CurrentNext))
	out[3] = t.Section
	out[4] = t.LastSection
	out = append(out, t.SpecificData.Bytes()...)
	return out
}

// Bytes outputs a byte slice representation of the PAT
func (p *PAT) Bytes() []byte {
	out := make([]byte, PATLen)
	out[0] = byte(p.Program >> 8)
	out[1] = byte(p.Program)
	out[2] = 0xe0 | (0x1f & byte(p.ProgramMapPID>>8))
	out[3] = byte(p.ProgramMapPID)
	return out
}

// Bytes outputs a byte slice representation of the PMT
func (p *PMT) Bytes() []byte {
	out := make([]byte, PMTDefLen)
	out[0] = 0xe0 | (0x1f & byte(p.ProgramClockPID>>8)) // byte 10
	out[1] = byte(p.ProgramClockPID)
	out[2] = 0xf0 | (0x03 & byte(p.ProgramInfoLen>>8))
	out[3] = byte(p.ProgramInfoLen)
	for _, d := range p.Descriptors {
		out = append(out, d.Bytes()...)
	}
	out = append(out, p.StreamSpecificData.Bytes()...)
	return out
}

// Bytes outputs a byte slice representation of the Desc
func (d *Descriptor) Bytes() []byte {
	out := make([]byte, DescDefLen)
	out[0] = d.Tag
	out[1] = d.Len
	out = append(out, d.Data...)
	return out
}

// Bytes outputs a byte slice representation of the StreamSpecificData
func (e *StreamSpecificData) Bytes() []byte {
	out := make([]byte, ESSDataLen)
	out[0] = e.StreamType
	out[1] = 0xe0 | (0x1f & byte(e.PID>>8))
	out[2] = byte(e.PID)
	out[3] = 0xf0 | (0x03 & byte(e.StreamInfoLen>>8))
	out[4] = byte(e.StreamInfoLen)
	for _, d := range e.Descriptors {
		out = append(out, d.Bytes()...)
	}
	return out
}

func asByte(b bool) byte {
	if b {
		return 0x01
	}
	return 0x00
}

// AddPadding adds an appropriate amount of padding to a pat or pmt table for
// addition to an MPEG-TS packet
func AddPadding(d []byte) []byte {
	t := make([]byte, PacketSize)
	copy(t, d)
	padding := t[len(d):]
	for i := range padding {
		padding[i] = 0xff
	}
	return t
}
