/*
NAME
  options.go

DESCRIPTION
  options.go provides options for configuring an Encoder.

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
	"errors"
	"time"
)

var (
	ErrInvalidRate     = errors.New("invalid frame rate")
	ErrInvalidPID      = errors.New("invalid elementary stream PID")
	ErrInvalidCount    = errors.New("invalid PSI packet count")
	ErrNoANCPackets    = errors.New("no ANC packets")
	ErrPayloadTooLarge = errors.New("payload too large for one PES packet")
)

// Reserved PIDs as per ITU-T Rec. H.222.0 table 2-3.
const (
	minPID = 0x0010
	maxPID = 0x1ffe
)

// PacketBasedPSI is an option that can be passed to NewEncoder to select
// packet based PSI writing, i.e. PSI are written to the destination every
// sendCount packets.
func PacketBasedPSI(sendCount int) func(*Encoder) error {
	return func(e *Encoder) error {
		if sendCount < 1 {
			return ErrInvalidCount
		}
		e.psiMethod = psiMethodPacket
		e.psiSendCount = sendCount
		e.pktCount = e.psiSendCount
		e.log.Debug("configured for packet based PSI insertion", "count", sendCount)
		return nil
	}
}

// TimeBasedPSI is another option that can be passed to NewEncoder to select
// time based PSI writing, i.e. PSI are written to the destination every dur
// (duration).
func TimeBasedPSI(dur time.Duration) func(*Encoder) error {
	return func(e *Encoder) error {
		e.psiMethod = psiMethodTime
		e.psiTime = 0
		e.psiSetTime = dur
		e.startTime = time.Now()
		e.log.Debug("configured for time based PSI insertion", "period", dur)
		return nil
	}
}

// Rate is an option that can be passed to NewEncoder. It is used to specifiy
// the video frame rate, i.e. the rate at which Write is called. This will be
// used to create timestamps such as PTS and PCR.
func Rate(r float64) func(*Encoder) error {
	return func(e *Encoder) error {
		if r < 1 || r > 120 {
			return ErrInvalidRate
		}
		e.writePeriod = time.Duration(float64(time.Second) / r)
		return nil
	}
}

// StreamPID is an option that can be passed to NewEncoder to set the PID of the
// ANC elementary stream. It may not be a reserved PID or the PMT PID.
func StreamPID(pid uint16) func(*Encoder) error {
	return func(e *Encoder) error {
		if pid < minPID || pid > maxPID || pid == PmtPid {
			return ErrInvalidPID
		}
		e.ancPID = pid
		return nil
	}
}
