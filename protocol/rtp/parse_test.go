/*
NAME
  parse_test.go

DESCRIPTION
  parse_test.go provides testing for RTP packet serialization and parsing.

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
	"bytes"
	"errors"
	"testing"
)

func TestPacketFields(t *testing.T) {
	p := Packet{Marker: true, PayloadType: 98, Sequence: 513, Timestamp: 90000, SSRC: 0xdeadbeef, Payload: []byte{1, 2, 3}}
	b := p.Bytes(nil)

	m, err := Marker(b)
	if err != nil || !m {
		t.Errorf("unexpected marker %t, error %v", m, err)
	}
	s, err := Sequence(b)
	if err != nil || s != 513 {
		t.Errorf("unexpected sequence %d, error %v", s, err)
	}
	ts, err := Timestamp(b)
	if err != nil || ts != 90000 {
		t.Errorf("unexpected timestamp %d, error %v", ts, err)
	}
	ssrc, err := SSRC(b)
	if err != nil || ssrc != 0xdeadbeef {
		t.Errorf("unexpected ssrc %x, error %v", ssrc, err)
	}
	pl, err := Payload(b)
	if err != nil || !bytes.Equal(pl, p.Payload) {
		t.Errorf("unexpected payload %v, error %v", pl, err)
	}
	if b[1]&0x7f != 98 {
		t.Errorf("unexpected payload type %d", b[1]&0x7f)
	}
}

// Packets from other senders may carry CSRCs and an extension header.
func TestPayloadOptionalFields(t *testing.T) {
	tests := []struct {
		name string
		pkt  []byte
		want []byte
	}{
		{
			name: "csrc",
			pkt: []byte{
				0x81, 0x60, 0x00, 0x01, 0, 0, 0, 0, 0, 0, 0, 1,
				0xaa, 0xbb, 0xcc, 0xdd,
				0x05, 0x06,
			},
			want: []byte{0x05, 0x06},
		},
		{
			name: "extension",
			pkt: []byte{
				0x90, 0x60, 0x00, 0x01, 0, 0, 0, 0, 0, 0, 0, 1,
				0x01, 0x02, 0x00, 0x01, 0x11, 0x22, 0x33, 0x44,
				0x07,
			},
			want: []byte{0x07},
		},
	}
	for _, test := range tests {
		got, err := Payload(test.pkt)
		if err != nil {
			t.Errorf("%s: did not expect error: %v", test.name, err)
			continue
		}
		if !bytes.Equal(got, test.want) {
			t.Errorf("%s: got %v, want %v", test.name, got, test.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Payload(make([]byte, 4)); !errors.Is(err, ErrShort) {
		t.Errorf("unexpected error for short packet: got %v, want %v", err, ErrShort)
	}
	bad := (&Packet{}).Bytes(nil)
	bad[0] = 1 << 6
	if _, err := Marker(bad); !errors.Is(err, ErrBadVersion) {
		t.Errorf("unexpected error for version 1: got %v, want %v", err, ErrBadVersion)
	}
	trunc := []byte{0x90, 0x60, 0x00, 0x01, 0, 0, 0, 0, 0, 0, 0, 1, 0x01, 0x02, 0x00, 0x04}
	if _, err := Payload(trunc); !errors.Is(err, ErrShort) {
		t.Errorf("unexpected error for truncated extension: got %v, want %v", err, ErrShort)
	}
}
