// File: wire/frame_codec.go
// Package wire implements RFC 6455 frame encoding/decoding over a blocking
// byte stream, with continuation reassembly and the 256 MiB (2^28-byte) length cap.
// Author: momentics <momentics@gmail.com>
//
// The 126/127 extended-length fields are always treated as big-endian,
// per RFC 6455.

package wire

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/momentics/synopse-ws/api"
)

const (
	finBit  = 0x80
	maskBit = 0x80
	opMask  = 0x0F
)

// ReadFrame blocks until a complete frame (or reassembled message) is
// available, the deadline elapses, or the stream fails. A timeout with
// fewer than 2 bytes read surfaces as api.ErrNoData.
//
// pool, when non-nil, sources the payload buffer for the common
// unfragmented case; the returned Frame's Release must be called once
// the caller is done with Payload. Fragmented messages always fall
// back to a plain allocation, since reassembly grows the slice anyway.
func ReadFrame(sock api.Socket, timeout time.Duration, pool api.BufferPool) (*api.Frame, error) {
	if err := sock.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}

	fin, opcode, payload, buf, n, err := readRawFrame(sock, pool)
	if err != nil {
		if n < 2 && isTimeout(err) {
			return nil, api.ErrNoData
		}
		return nil, err
	}

	firstOpcode := opcode
	total := int64(len(payload))

	for !fin {
		if err := sock.SetReadDeadline(time.Time{}); err != nil {
			return nil, err
		}
		f2, op2, p2, _, _, err := readRawFrame(sock, nil)
		if err != nil {
			return nil, err
		}
		if op2 != 0x0 {
			return nil, api.ErrOpcodeMismatch
		}
		total += int64(len(p2))
		if total > api.MaxFramePayload {
			return nil, api.ErrFrameTooLarge
		}
		if buf != nil {
			grown := append([]byte(nil), payload...)
			buf.Release()
			buf = nil
			payload = append(grown, p2...)
		} else {
			payload = append(payload, p2...)
		}
		fin = f2
	}

	var release func()
	if buf != nil {
		release = buf.Release
	}
	return &api.Frame{Opcode: firstOpcode, Payload: payload, Release: release}, nil
}

// readRawFrame reads exactly one wire-level frame header and payload,
// rejecting masked frames and over-length headers before any payload
// read. n is the number of header bytes actually read, used by the
// caller to distinguish "no data at all" timeouts from mid-header ones.
// When pool is non-nil the payload is drawn from it and returned
// alongside as buf, so the caller can Release it later.
func readRawFrame(sock api.Socket, pool api.BufferPool) (fin bool, opcode api.Opcode, payload []byte, buf api.Buffer, n int, err error) {
	var hdr [2]byte
	if n, err = io.ReadFull(sock, hdr[:]); err != nil {
		return false, 0, nil, nil, n, err
	}

	fin = hdr[0]&finBit != 0
	opcode = api.Opcode(hdr[0] & opMask)
	masked := hdr[1]&maskBit != 0
	length := int64(hdr[1] & 0x7F)

	if masked {
		return false, 0, nil, nil, n, api.ErrMaskedFrame
	}

	switch length {
	case 126:
		var ext [2]byte
		if _, err = io.ReadFull(sock, ext[:]); err != nil {
			return false, 0, nil, nil, n, err
		}
		length = int64(binary.BigEndian.Uint16(ext[:]))
	case 127:
		var ext [8]byte
		if _, err = io.ReadFull(sock, ext[:]); err != nil {
			return false, 0, nil, nil, n, err
		}
		length = int64(binary.BigEndian.Uint64(ext[:]))
		if length > api.MaxFramePayload {
			return false, 0, nil, nil, n, api.ErrFrameTooLarge
		}
	}

	if pool != nil {
		buf = pool.Get(int(length))
		payload = buf.Bytes()
	} else {
		payload = make([]byte, length)
	}
	if _, err = io.ReadFull(sock, payload); err != nil {
		if buf != nil {
			buf.Release()
		}
		return false, 0, nil, nil, n, err
	}
	return fin, opcode, payload, buf, n, nil
}

// WriteFrame serialises a single, unfragmented, unmasked frame. Short
// payloads go through the buffered send path and are explicitly
// flushed; payloads of 64 KiB or more bypass the internal buffer
// entirely and skip the flush.
func WriteFrame(sock api.Socket, opcode api.Opcode, payload []byte) error {
	var hdr []byte
	n := len(payload)
	switch {
	case n < 126:
		hdr = []byte{finBit | byte(opcode), byte(n)}
	case n < 65536:
		hdr = make([]byte, 4)
		hdr[0] = finBit | byte(opcode)
		hdr[1] = 126
		binary.BigEndian.PutUint16(hdr[2:], uint16(n))
	default:
		hdr = make([]byte, 10)
		hdr[0] = finBit | byte(opcode)
		hdr[1] = 127
		binary.BigEndian.PutUint64(hdr[2:], uint64(n))
	}

	if n < 65536 {
		if err := sock.SendBuffered(hdr); err != nil {
			return err
		}
		if len(payload) > 0 {
			if err := sock.SendBuffered(payload); err != nil {
				return err
			}
		}
		return sock.Flush()
	}

	if err := sock.SendUnbuffered(hdr); err != nil {
		return err
	}
	return sock.SendUnbuffered(payload)
}

func isTimeout(err error) bool {
	type timeout interface{ Timeout() bool }
	t, ok := err.(timeout)
	return ok && t.Timeout()
}
