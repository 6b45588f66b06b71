/*
NAME
  rtp.go

DESCRIPTION
  rtp.go provides the RTP packet and its serialization.

  See https://tools.ietf.org/html/rfc3550 for the RTP standard.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package rtp provides RTP packetization of coded VP9 pictures, parsing of
// RTP packets and a UDP client for receiving them.
package rtp

import (
	"encoding/binary"
)

const (
	rtpVer           = 2  // Version of RTP that this package is compatible with.
	defaultHeadSize  = 12 // Header size of an rtp packet.
	optionalFieldIdx = 12 // Index of the CSRC list and extension header.
)

// Packet represents an RTP packet without CSRCs, extension or padding.
type Packet struct {
	Marker      bool   // Last packet of a picture.
	PayloadType uint8  // Dynamic payload type of the stream.
	Sequence    uint16 // Sequence number.
	Timestamp   uint32 // Timestamp, 90kHz for video.
	SSRC        uint32 // Synchronisation source identifier.
	Payload     []byte // Payload data.
}

// Bytes serializes p into buf, growing it if needed, and returns the
// result.
func (p *Packet) Bytes(buf []byte) []byte {
	n := defaultHeadSize + len(p.Payload)
	if cap(buf) < n {
		buf = make([]byte, n)
	}
	buf = buf[:n]

	buf[0] = rtpVer << 6
	buf[1] = asByte(p.Marker)<<7 | p.PayloadType&0x7f
	binary.BigEndian.PutUint16(buf[2:4], p.Sequence)
	binary.BigEndian.PutUint32(buf[4:8], p.Timestamp)
	binary.BigEndian.PutUint32(buf[8:12], p.SSRC)
	copy(buf[defaultHeadSize:], p.Payload)
	return buf
}

func asByte(b bool) byte {
	if b {
		return 0x01
	}
	return 0x00
}
