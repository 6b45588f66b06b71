/*
NAME
  parse.go

DESCRIPTION
  parse.go provides functionality for parsing RTP packets.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package rtp

import (
	"encoding/binary"
	"errors"
)

// Parse errors.
var (
	ErrBadVersion = errors.New("incompatible RTP version")
	ErrShort      = errors.New("invalid RTP packet length")
)

// Marker returns the state of the RTP marker bit.
func Marker(d []byte) (bool, error) {
	err := checkPacket(d)
	if err != nil {
		return false, err
	}
	return d[1]&0x80 != 0, nil
}

// Payload returns the payload of the RTP packet d, skipping any CSRCs and
// extension header.
func Payload(d []byte) ([]byte, error) {
	err := checkPacket(d)
	if err != nil {
		return nil, err
	}
	idx := optionalFieldIdx + 4*csrcCount(d)
	if hasExt(d) {
		if len(d) < idx+4 {
			return nil, ErrShort
		}
		idx += 4 + 4*int(binary.BigEndian.Uint16(d[idx+2:]))
	}
	if len(d) < idx {
		return nil, ErrShort
	}
	return d[idx:], nil
}

// SSRC returns the source identifier of the RTP packet d.
func SSRC(d []byte) (uint32, error) {
	err := checkPacket(d)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(d[8:]), nil
}

// Sequence returns the sequence number of the RTP packet d.
func Sequence(d []byte) (uint16, error) {
	err := checkPacket(d)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(d[2:]), nil
}

// Timestamp returns the timestamp of the RTP packet d.
func Timestamp(d []byte) (uint32, error) {
	err := checkPacket(d)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(d[4:]), nil
}

func checkPacket(d []byte) error {
	if len(d) < defaultHeadSize {
		return ErrShort
	}
	if version(d) != rtpVer {
		return ErrBadVersion
	}
	return nil
}

func hasExt(d []byte) bool   { return d[0]&0x10 != 0 }
func csrcCount(d []byte) int { return int(d[0] & 0x0f) }
func version(d []byte) int   { return int(d[0] & 0xc0 >> 6) }
