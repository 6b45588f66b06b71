/*
NAME
  parse.go

DESCRIPTION
  parse.go provides parsing of RTCP sender reports and conversion between
  wallclock time and NTP timestamps.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package rtcp

import (
	"encoding/binary"
	"errors"
	"time"
)

// Seconds from the NTP epoch of 1900 to the Unix epoch.
const ntpOffset = 2208988800

// Parse errors.
var (
	ErrShort      = errors.New("bad RTCP packet, not of sufficient length")
	ErrBadVersion = errors.New("incompatible RTCP version")
	ErrNotSR      = errors.New("RTCP packet is not of sender report type")
)

// Timestamp describes an NTP timestamp, see https://tools.ietf.org/html/rfc1305
type Timestamp struct {
	Seconds  uint32
	Fraction uint32
}

// NTPTime returns the NTP timestamp of t.
func NTPTime(t time.Time) Timestamp {
	ns := t.UnixNano()
	return Timestamp{
		Seconds:  uint32(ns/1e9 + ntpOffset),
		Fraction: uint32((ns % 1e9) << 32 / 1e9),
	}
}

// Time returns the wallclock time of ts.
func (ts Timestamp) Time() time.Time {
	ns := int64(ts.Fraction) * 1e9 >> 32
	return time.Unix(int64(ts.Seconds)-ntpOffset, ns)
}

// ParseSenderReport parses the sender report at the start of buf, which
// may be the first packet of a compound packet.
func ParseSenderReport(buf []byte) (SenderReport, error) {
	var r SenderReport
	if len(buf) < senderReportSize {
		return r, ErrShort
	}
	if buf[0]>>6 != rtcpVer {
		return r, ErrBadVersion
	}
	if buf[1] != typeSenderReport {
		return r, ErrNotSR
	}
	r.Header = Header{
		Version:     buf[0] >> 6,
		Padding:     buf[0]&0x20 != 0,
		ReportCount: buf[0] & 0x1f,
		Type:        buf[1],
	}
	r.SSRC = binary.BigEndian.Uint32(buf[4:])
	r.NTP = Timestamp{
		Seconds:  binary.BigEndian.Uint32(buf[8:]),
		Fraction: binary.BigEndian.Uint32(buf[12:]),
	}
	r.RTPTimestamp = binary.BigEndian.Uint32(buf[16:])
	r.PacketCount = binary.BigEndian.Uint32(buf[20:])
	r.OctetCount = binary.BigEndian.Uint32(buf[24:])
	return r, nil
}
