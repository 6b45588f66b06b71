/*
NAME
  vp9.go

DESCRIPTION
  vp9.go provides the VP9 payload descriptor and reassembly of pictures
  from RTP payloads.

AUTHORS
  The Australian Ocean Laboratory (AusOcean)

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
)

// Payload descriptor bits of the first byte; no optional fields are used.
const (
	descInter = 0x40 // P: inter-picture predicted.
	descStart = 0x08 // B: start of a frame.
	descEnd   = 0x04 // E: end of a frame.

	descriptorSize = 1
)

// ErrMissingStart is returned by the assembler for a fragment with no
// frame start before it.
var ErrMissingStart = errors.New("fragment without frame start")

// Descriptor is the VP9 payload descriptor.
type Descriptor struct {
	Inter bool
	Start bool
	End   bool
}

func (d Descriptor) append(b []byte) []byte {
	var v byte
	if d.Inter {
		v |= descInter
	}
	if d.Start {
		v |= descStart
	}
	if d.End {
		v |= descEnd
	}
	return append(b, v)
}

// ParseDescriptor parses the descriptor at the start of an RTP payload and
// returns it with the remaining data.
func ParseDescriptor(p []byte) (Descriptor, []byte, error) {
	if len(p) < descriptorSize {
		return Descriptor{}, nil, ErrShort
	}
	d := Descriptor{Inter: p[0]&descInter != 0, Start: p[0]&descStart != 0, End: p[0]&descEnd != 0}
	return d, p[descriptorSize:], nil
}

// Assembler rebuilds coded pictures from RTP packets given in order.
type Assembler struct {
	frame  []byte
	active bool
}

// Push adds RTP packet pkt. When pkt completes a picture the picture is
// returned; it is valid until the next call.
func (a *Assembler) Push(pkt []byte) ([]byte, bool, error) {
	p, err := Payload(pkt)
	if err != nil {
		return nil, false, err
	}
	d, data, err := ParseDescriptor(p)
	if err != nil {
		return nil, false, err
	}
	if d.Start {
		a.frame, a.active = a.frame[:0], true
	}
	if !a.active {
		return nil, false, ErrMissingStart
	}
	a.frame = append(a.frame, data...)
	if !d.End {
		return nil, false, nil
	}
	a.active = false
	return a.frame, true, nil
}
