/*
NAME
  encoder.go

DESCRIPTION
  encoder.go provides an RTP encoder that splits coded pictures into RTP
  packets, each payload starting with a VP9 payload descriptor.

  See https://datatracker.ietf.org/doc/html/rfc9628 for the VP9 payload
  format.

AUTHORS
  Saxon Nelson-Milton (saxon@ausocean.org)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package rtp

import (
	"errors"
	"io"
	"math/rand"
	"sync/atomic"
)

const (
	defaultPktType = 98    // Dynamic payload type used for VP9.
	timestampFreq  = 90000 // Hz

	// DefaultMTU is the default maximum size of a serialized packet.
	DefaultMTU = 1200
)

// Encoder writes coded pictures as RTP packets to dst, one Write per
// packet.
type Encoder struct {
	dst     io.Writer
	ssrc    uint32
	seqNo   uint16
	fps     int
	mtu     int
	payload []byte
	pktBuf  []byte

	// Sender statistics, read concurrently by RTCP reporting.
	packets atomic.Uint32
	octets  atomic.Uint32
	lastTS  atomic.Uint32
}

// NewEncoder returns an Encoder writing to dst for a stream of fps frames
// per second. Packets are at most mtu bytes.
func NewEncoder(dst io.Writer, fps, mtu int) (*Encoder, error) {
	if fps <= 0 {
		return nil, errors.New("frame rate must be positive")
	}
	if mtu <= defaultHeadSize+descriptorSize {
		return nil, errors.New("mtu too small for RTP and VP9 headers")
	}
	return &Encoder{
		dst:    dst,
		ssrc:   rand.Uint32(),
		fps:    fps,
		mtu:    mtu,
		pktBuf: make([]byte, 0, mtu),
	}, nil
}

// WriteFrame packetizes one coded picture. pts counts frames and sets the
// RTP timestamp. inter reports whether the picture depends on others.
func (e *Encoder) WriteFrame(data []byte, pts uint64, inter bool) error {
	ts := e.timestamp(pts)
	max := e.mtu - defaultHeadSize - descriptorSize
	first := true
	for {
		n := len(data)
		if n > max {
			n = max
		}
		last := n == len(data)
		d := Descriptor{Inter: inter, Start: first, End: last}
		e.payload = append(d.append(e.payload[:0]), data[:n]...)
		pkt := Packet{
			Marker:      last,
			PayloadType: defaultPktType,
			Sequence:    e.nxtSeqNo(),
			Timestamp:   ts,
			SSRC:        e.ssrc,
			Payload:     e.payload,
		}
		e.pktBuf = pkt.Bytes(e.pktBuf)
		_, err := e.dst.Write(e.pktBuf)
		if err != nil {
			return err
		}
		e.packets.Add(1)
		e.octets.Add(uint32(len(e.payload)))
		e.lastTS.Store(ts)
		if last {
			return nil
		}
		data, first = data[n:], false
	}
}

// SSRC returns the source identifier of the stream.
func (e *Encoder) SSRC() uint32 { return e.ssrc }

// Stats returns the packets and payload octets sent so far, and the RTP
// timestamp of the last packet.
func (e *Encoder) Stats() (packets, octets, timestamp uint32) {
	return e.packets.Load(), e.octets.Load(), e.lastTS.Load()
}

func (e *Encoder) timestamp(pts uint64) uint32 {
	return uint32(pts * timestampFreq / uint64(e.fps))
}

func (e *Encoder) nxtSeqNo() uint16 {
	e.seqNo++
	return e.seqNo - 1
}
