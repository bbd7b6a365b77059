/*
DESCRIPTION
  helpers_test.go provides helpers for building ANC packet test fixtures.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package st2038

import "errors"

// binToSlice is a helper function to convert a string of binary into a
// corresponding byte slice, e.g. "0100 0001 1000 1100" => {0x41,0x8c}.
// Spaces in the string are ignored. A trailing partial byte is padded with
// zeros.
func binToSlice(s string) ([]byte, error) {
	var (
		a     byte = 0x80
		cur   byte
		bytes []byte
		n     int
	)

	for _, c := range s {
		switch c {
		case ' ':
			continue
		case '1':
			cur |= a
		case '0':
		default:
			return nil, errors.New("invalid binary string")
		}
		n++

		a >>= 1
		if a == 0 {
			bytes = append(bytes, cur)
			cur = 0
			a = 0x80
		}
	}
	if n%8 != 0 {
		bytes = append(bytes, cur)
	}
	return bytes, nil
}

// bitWriter appends values MSB first to a byte slice.
type bitWriter struct {
	b []byte
	n int // Bits written.
}

// write writes the n least significant bits of v.
func (w *bitWriter) write(v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		if w.n%8 == 0 {
			w.b = append(w.b, 0)
		}
		if (v>>uint(i))&1 == 1 {
			w.b[len(w.b)-1] |= 0x80 >> uint(w.n%8)
		}
		w.n++
	}
}

// fixture describes the raw fields of an ANC packet for encoding with
// bytes. Word fields hold the full 10-bit value including parity bits.
type fixture struct {
	zero     uint64 // 6 bits.
	cNotY    bool
	line     uint16
	offset   uint16
	did      uint16
	sdid     uint16
	dc       uint16
	udw      []uint16 // Written as given; length need not match dc.
	checksum uint16
	pad      uint64 // Value of every alignment bit, normally 1.
}

// bytes returns the encoded packet and the number of bits before alignment.
func (f fixture) bytes() ([]byte, int) {
	var w bitWriter
	w.write(f.zero, zeroBitsLen)
	var c uint64
	if f.cNotY {
		c = 1
	}
	w.write(c, 1)
	w.write(uint64(f.line), lineNumberLen)
	w.write(uint64(f.offset), hOffsetLen)
	w.write(uint64(f.did), wordLen)
	w.write(uint64(f.sdid), wordLen)
	w.write(uint64(f.dc), wordLen)
	for _, u := range f.udw {
		w.write(uint64(u), wordLen)
	}
	w.write(uint64(f.checksum), wordLen)
	n := w.n
	for w.n%8 != 0 {
		w.write(f.pad, 1)
	}
	return w.b, n
}

// validFixture returns a fixture for a packet with n user data words and
// correct parity and checksum words.
func validFixture(did, sdid uint8, n int) fixture {
	f := fixture{
		line:   9,
		offset: 0,
		did:    Parity(did),
		sdid:   Parity(sdid),
		dc:     Parity(uint8(n)),
		pad:    1,
	}
	for i := 0; i < n; i++ {
		f.udw = append(f.udw, Parity(uint8(i*7+1)))
	}
	words := append([]uint16{f.did, f.sdid, f.dc}, f.udw...)
	f.checksum = Checksum(words)
	return f
}
