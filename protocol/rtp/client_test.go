/*
NAME
  client_test.go

DESCRIPTION
  client_test.go provides testing of RTP reception of pictures sent by the
  Encoder over UDP.

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
	"net"
	"testing"
)

func TestReceive(t *testing.T) {
	c, err := NewClient("127.0.0.1:0")
	if err != nil {
		t.Fatalf("could not create client: %v", err)
	}
	defer c.Close()

	conn, err := net.Dial("udp", c.Addr().String())
	if err != nil {
		t.Fatalf("could not dial client: %v", err)
	}
	defer conn.Close()

	e, err := NewEncoder(conn, 30, 200)
	if err != nil {
		t.Fatalf("did not expect error from NewEncoder: %v", err)
	}

	frames := [][]byte{
		bytes.Repeat([]byte{1}, 50),
		bytes.Repeat([]byte{2}, 1000),
		{3},
	}
	// Send one picture at a time so the socket buffer cannot overflow.
	for i, want := range frames {
		err = e.WriteFrame(want, uint64(i), i > 0)
		if err != nil {
			t.Fatalf("frame %d: did not expect error from WriteFrame: %v", i, err)
		}
		got, err := c.ReadFrame()
		if err != nil {
			t.Fatalf("frame %d: did not expect error from ReadFrame: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("frame %d: got %d bytes, want %d", i, len(got), len(want))
		}
	}

	if c.SSRC() != e.SSRC() {
		t.Errorf("unexpected SSRC: got %d, want %d", c.SSRC(), e.SSRC())
	}
	if c.Lost() != 0 {
		t.Errorf("unexpected lost packets: %d", c.Lost())
	}
}

func TestSequenceTracking(t *testing.T) {
	var c Client
	for _, s := range []uint16{65534, 65535, 0, 1, 4} {
		c.setSequence(s)
	}
	if c.Cycles() != 1 {
		t.Errorf("unexpected cycles: got %d, want 1", c.Cycles())
	}
	if c.Lost() != 2 {
		t.Errorf("unexpected lost count: got %d, want 2", c.Lost())
	}
	if c.Sequence() != 4 {
		t.Errorf("unexpected sequence: got %d, want 4", c.Sequence())
	}
}
