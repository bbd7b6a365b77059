/*
NAME
  did.go

DESCRIPTION
  did.go provides names for DID/SDID pairs registered with the SMPTE
  registration authority.

AUTHORS
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package st2038

// Well known DID/SDID pairs.
const (
	DIDSMPTE2016 = 0x41 // Also used for ST 352, SCTE 104 and VBI data.
	DIDTimecode  = 0x60
	DIDCaptions  = 0x61

	SDIDPayloadID = 0x01
	SDIDAFD       = 0x05
	SDIDPanScan   = 0x06
	SDIDSCTE104   = 0x07
	SDIDVBI       = 0x08
	SDIDTimecode  = 0x60
	SDIDCEA708    = 0x01
	SDIDCEA608    = 0x02
)

// Unknown is the type name of unregistered DID/SDID pairs.
const Unknown = "unknown DID/SDID"

type identifier struct {
	did, sdid uint8
}

// types maps DID/SDID pairs to the data they identify. See
// https://smpte-ra.org/smpte-ancillary-data-smpte-st-291.
var types = map[identifier]string{
	{DIDSMPTE2016, SDIDPayloadID}: "SMPTE ST 352 payload identification",
	{DIDSMPTE2016, SDIDAFD}:       "AFD and bar data",
	{DIDSMPTE2016, SDIDPanScan}:   "pan-scan data",
	{DIDSMPTE2016, SDIDSCTE104}:   "ANSI/SCTE 104 messages",
	{DIDSMPTE2016, SDIDVBI}:       "DVB/SCTE VBI data",
	{DIDTimecode, SDIDTimecode}:   "ancillary time code",
	{DIDCaptions, SDIDCEA708}:     "EIA 708B data mapping into VANC space",
	{DIDCaptions, SDIDCEA608}:     "EIA 608 data mapping into VANC space",
}

// Type returns the name of the data identified by did and sdid, or Unknown.
func Type(did, sdid uint8) string {
	t, ok := types[identifier{did, sdid}]
	if !ok {
		return Unknown
	}
	return t
}

// Type returns the name of the data carried by the packet with header h.
func (h AncDataHeader) Type() string {
	return Type(h.DID, h.SDID)
}
