/*
NAME
  rtcp.go

DESCRIPTION
  rtcp.go provides the RTCP sender report and source description packets
  sent alongside an RTP stream, and their serialization.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package rtcp provides RTCP sender reports and source descriptions for an
// RTP stream, and a Sender that emits them periodically.
// See https://tools.ietf.org/html/rfc3550.
package rtcp

import (
	"encoding/binary"
)

const rtcpVer = 2

// RTCP packet types.
const (
	typeSenderReport = 200
	typeDescription  = 202
)

// Source description item types.
const (
	typeCName = 1
)

const (
	headSize         = 4
	senderReportSize = 28
)

// Header describes a standard RTCP packet header.
type Header struct {
	Version     uint8 // RTCP version.
	Padding     bool  // Padding indicator.
	ReportCount uint8 // Number of reports or chunks contained.
	Type        uint8 // Type of RTCP packet.
}

// writeHeader writes h to buf with l, the packet length in 32 bit words
// minus one.
func (h Header) writeHeader(buf []byte, l int) {
	buf[0] = h.Version<<6 | asByte(h.Padding)<<5 | 0x1f&h.ReportCount
	buf[1] = h.Type
	binary.BigEndian.PutUint16(buf[2:], uint16(l))
}

// SenderReport describes an RTCP sender report without report blocks.
type SenderReport struct {
	Header
	SSRC         uint32    // SSRC of sender.
	NTP          Timestamp // Wallclock time of the report.
	RTPTimestamp uint32    // RTP timestamp corresponding to NTP.
	PacketCount  uint32    // Packets sent.
	OctetCount   uint32    // Payload octets sent.
}

// Bytes appends the serialized report to buf and returns the result.
func (r *SenderReport) Bytes(buf []byte) []byte {
	off := len(buf)
	buf = append(buf, make([]byte, senderReportSize)...)
	b := buf[off:]
	r.writeHeader(b, senderReportSize/4-1)
	for i, w := range []uint32{
		r.SSRC,
		r.NTP.Seconds,
		r.NTP.Fraction,
		r.RTPTimestamp,
		r.PacketCount,
		r.OctetCount,
	} {
		binary.BigEndian.PutUint32(b[headSize+4*i:], w)
	}
	return buf
}

// SDESItem describes a source description item.
type SDESItem struct {
	Type uint8  // Type of item.
	Text []byte // Item text.
}

// Chunk describes a source description chunk for a given SSRC.
type Chunk struct {
	SSRC  uint32     // SSRC of the source being described by the below items.
	Items []SDESItem // Items describing the source.
}

// len returns the length of c in bytes, including the null item ending
// its item list.
func (c *Chunk) len() int {
	tot := 4
	for _, i := range c.Items {
		tot += 2 + len(i.Text)
	}
	return tot + 1
}

// Description describes a source description RTCP packet.
type Description struct {
	Header
	Chunks []Chunk
}

// Bytes appends the serialized description to buf and returns the result.
// Each chunk is padded to a 32 bit boundary.
func (d *Description) Bytes(buf []byte) []byte {
	bodyLen := 0
	for i := range d.Chunks {
		bodyLen += pad4(d.Chunks[i].len())
	}
	off := len(buf)
	buf = append(buf, make([]byte, headSize+bodyLen)...)
	b := buf[off:]
	d.writeHeader(b, bodyLen/4)

	idx := headSize
	for _, c := range d.Chunks {
		start := idx
		binary.BigEndian.PutUint32(b[idx:], c.SSRC)
		idx += 4
		for _, i := range c.Items {
			b[idx] = i.Type
			b[idx+1] = byte(len(i.Text))
			idx += 2
			idx += copy(b[idx:], i.Text)
		}
		idx = start + pad4(c.len())
	}
	return buf
}

func pad4(n int) int { return (n + 3) &^ 3 }

func asByte(b bool) byte {
	if b {
		return 0x01
	}
	return 0x00
}
