/*
DESCRIPTIONS
  helpers.go provides stream ID constants and related helpers.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pes

import "errors"

// Stream IDs as per ITU-T Rec. H.222.0 / ISO/IEC 13818-1 [1], table 2-22.
const (
	PrivateStream1SID = 0xbd // Used by SMPTE ST 2038 for ANC data.
	PrivateStream2SID = 0xbf
	PaddingSID        = 0xbe
)

// SIDToMIMEType will return the corresponding MIME type for passed stream ID.
func SIDToMIMEType(id int) (string, error) {
	switch id {
	case PrivateStream1SID:
		return "video/smpte291", nil
	default:
		return "", errors.New("unknown stream ID")
	}
}
