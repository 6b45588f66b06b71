/*
NAME
  sender.go

DESCRIPTION
  sender.go provides a Sender which periodically writes compound sender
  report and source description packets describing an RTP source.

AUTHORS
  The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package rtcp

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ausocean/utils/logging"
)

const (
	DefaultInterval = 5 * time.Second
	defaultName     = "svtvp9"
	pkg             = "rtcp: "
)

// Source is an RTP sender described by reports.
type Source interface {
	SSRC() uint32
	Stats() (packets, octets, timestamp uint32)
}

// Sender writes RTCP reports for a Source.
type Sender struct {
	dst  io.Writer
	src  Source
	name string
	log  logging.Logger
	now  func() time.Time
	buf  []byte
}

// NewSender returns a Sender writing reports for src to dst. The source
// is described by name, or a default if name is empty.
func NewSender(dst io.Writer, src Source, name string, log logging.Logger) *Sender {
	if name == "" {
		name = defaultName
	}
	return &Sender{dst: dst, src: src, name: name, log: log, now: time.Now}
}

// Send writes one compound report.
func (s *Sender) Send() error {
	pkts, octets, ts := s.src.Stats()
	sr := SenderReport{
		Header:       Header{Version: rtcpVer, Type: typeSenderReport},
		SSRC:         s.src.SSRC(),
		NTP:          NTPTime(s.now()),
		RTPTimestamp: ts,
		PacketCount:  pkts,
		OctetCount:   octets,
	}
	d := Description{
		Header: Header{Version: rtcpVer, ReportCount: 1, Type: typeDescription},
		Chunks: []Chunk{{SSRC: sr.SSRC, Items: []SDESItem{{Type: typeCName, Text: []byte(s.name)}}}},
	}
	s.buf = d.Bytes(sr.Bytes(s.buf[:0]))
	_, err := s.dst.Write(s.buf)
	if err != nil {
		return fmt.Errorf("could not write sender report: %w", err)
	}
	s.log.Debug(pkg+"sender report sent", "ssrc", sr.SSRC, "packets", pkts, "octets", octets)
	return nil
}

// Run sends a report every interval until ctx is done. Write failures are
// logged and do not stop it.
func (s *Sender) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Debug(pkg + "sender stopped")
			return
		case <-t.C:
			err := s.Send()
			if err != nil {
				s.log.Warning(pkg+"could not send report", "error", err.Error())
			}
		}
	}
}
