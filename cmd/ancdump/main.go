/*
DESCRIPTION
  ancdump prints the headers of the SMPTE ST 2038 ancillary data packets
  carried in an MPEG-TS file, or in a raw ANC payload file.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ancdump is a command line tool for inspecting ST 2038 ANC data.
// The input given by "in" is read as MPEG-TS, and the ANC stream is found
// from its PMT unless "pid" is given, or as a single raw ANC payload if
// "raw" is set. A line is printed per ANC packet giving its frame, PTS,
// offset and decoded header. With "verify" the parity and checksum
// words are also checked, and the exit status is 2 if any packet fails.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/anc/codec/st2038"
	"github.com/ausocean/anc/container/mts"
	"github.com/ausocean/anc/container/mts/pes"
	"github.com/ausocean/utils/logging"
)

const version = "v0.1.0"

// Logging configuration.
const (
	logMaxSize   = 50 // MB
	logMaxBackup = 3
	logMaxAge    = 28 // days
	logSuppress  = false
)

// Exit codes.
const (
	exitOK      = 0
	exitInvalid = 2 // Some ANC packets could not be decoded or verified.
)

// autoPID selects the ANC PID from the PMT.
const autoPID = -1

func main() {
	var (
		inPath    = flag.String("in", "anc.ts", "file path of input")
		raw       = flag.Bool("raw", false, "input is a raw ANC payload rather than MPEG-TS")
		pid       = flag.Int("pid", autoPID, "PID of the ANC stream; found from the PMT if not given")
		verify    = flag.Bool("verify", false, "verify parity and checksum words of each ANC packet")
		logPath   = flag.String("log", "ancdump.log", "file path of log")
		verbosity = flag.Int("verbosity", int(logging.Info), "log verbosity; -1 is debug, 0 info, 1 warning, 2 error")
		showVer   = flag.Bool("version", false, "show version")
	)
	flag.Parse()
	if *showVer {
		fmt.Println(version)
		os.Exit(exitOK)
	}

	// Create lumberjack logger to handle logging to file.
	fileLog := &lumberjack.Logger{
		Filename:   *logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(int8(*verbosity), io.MultiWriter(fileLog, os.Stderr), logSuppress)
	log.Debug("starting ancdump", "version", version, "in", *inPath)

	b, err := os.ReadFile(*inPath)
	if err != nil {
		log.Fatal("could not read input", "error", err.Error())
	}

	frames, err := load(b, *raw, *pid, log)
	if err != nil {
		log.Fatal("could not load ANC frames", "error", err.Error())
	}

	n, failed := dump(os.Stdout, frames, *verify, log)
	log.Info("finished", "frames", len(frames), "packets", n, "failed", failed)
	if failed != 0 {
		os.Exit(exitInvalid)
	}
}

// load returns the ANC frames in b. If raw is true b is taken to be a single
// PES payload, otherwise it is MPEG-TS and the stream on pid is extracted.
func load(b []byte, raw bool, pid int, log logging.Logger) ([]mts.Frame, error) {
	if raw {
		return []mts.Frame{{Media: b}}, nil
	}

	if pid == autoPID {
		p, err := mts.FindANCPID(b)
		if err != nil {
			return nil, fmt.Errorf("could not find ANC PID: %w", err)
		}
		pid = int(p)
		log.Info("found ANC stream", "PID", pid)
	}
	if pid < 0 || pid > 0x1fff {
		return nil, fmt.Errorf("invalid PID: %d", pid)
	}

	frames, err := mts.ExtractANC(b, uint16(pid))
	if err != nil {
		return frames, fmt.Errorf("could not extract ANC: %w", err)
	}
	if len(frames) != 0 {
		mt, err := pes.SIDToMIMEType(int(frames[0].ID))
		if err != nil {
			log.Warning("unexpected PES stream ID", "ID", frames[0].ID)
		}
		log.Debug("extracted ANC frames", "count", len(frames), "type", mt)
	}
	return frames, nil
}

// dump writes a line for every ANC packet in frames to w. It returns the
// number of packets decoded and the number of frames or packets that failed
// decoding or verification.
func dump(w io.Writer, frames []mts.Frame, verify bool, log logging.Logger) (n, failed int) {
	for i, f := range frames {
		s := st2038.NewScanner(f.Media)
		for {
			off := s.Offset()
			h, b, err := s.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				log.Error("could not decode ANC packet", "frame", i, "PTS", f.PTS, "error", err.Error())
				failed++
				break
			}
			n++

			status := ""
			if verify {
				status = " ok"
				if err := check(b); err != nil {
					log.Warning("ANC packet failed verification", "frame", i, "offset", off, "error", err.Error())
					status = " " + err.Error()
					failed++
				}
			}
			fmt.Fprintf(w, "frame: %d, PTS: %d, offset: %d, %s%s\n", i, f.PTS, off, h, status)
		}
	}
	return n, failed
}

// check verifies the parity and checksum words of the ANC packet b.
func check(b []byte) error {
	p, err := st2038.DecodePacket(b)
	if err != nil {
		return err
	}
	err = p.VerifyParity()
	if err != nil {
		return err
	}
	return p.VerifyChecksum()
}
