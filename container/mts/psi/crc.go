/*
NAME
  crc.go
DESCRIPTION
  crc.go provides the MPEG-2 CRC32 used to protect PSI tables.

AUTHOR
  Dan Kortschak <dan@ausocean.org>
  Saxon Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package psi

import (
	"encoding/binary"
	"hash/crc32"
	"math/bits"
)

// crcTable is the MSB first table for the MPEG-2 CRC32, which uses the IEEE
// polynomial without reflection.
var crcTable = makeTable(bits.Reverse32(crc32.IEEE))

// AddCRC returns a copy of a PSI table with space for its CRC appended and
// the CRC computed. The pointer field is not covered.
func AddCRC(out []byte) []byte {
	t := make([]byte, len(out)+crcSize)
	copy(t, out)
	UpdateCrc(t[1:])
	return t
}

// UpdateCrc computes the CRC of b, excluding its last four bytes, and writes
// it into those bytes.
func UpdateCrc(b []byte) {
	n := len(b) - crcSize
	binary.BigEndian.PutUint32(b[n:], update(0xffffffff, crcTable, b[:n]))
}

func makeTable(poly uint32) *crc32.Table {
	var t crc32.Table
	for i := range t {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return &t
}

func update(crc uint32, tab *crc32.Table, p []byte) uint32 {
	for _, v := range p {
		crc = tab[byte(crc>>24)^v] ^ (crc << 8)
	}
	return crc
}
