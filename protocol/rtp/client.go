/*
NAME
  client.go

DESCRIPTION
  client.go provides an RTP client receiving a VP9 stream over UDP.

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
	"fmt"
	"net"
	"sync"
	"time"
)

const (
	readTimeout = 5 * time.Second
	maxPktSize  = 1 << 16
)

// Client describes an RTP client that can receive an RTP stream and implements
// io.Reader.
type Client struct {
	conn     net.PacketConn
	ssrc     uint32
	mu       sync.Mutex
	started  bool
	sequence uint16
	cycles   uint16
	lost     int
	asm      Assembler
	buf      []byte
}

// NewClient returns a Client receiving at addr, of form <ip>:<port>. Port 0
// picks a free port; Addr reports it.
func NewClient(addr string) (*Client, error) {
	a, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", a)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, buf: make([]byte, maxPktSize)}, nil
}

// Addr returns the local address of the client.
func (c *Client) Addr() net.Addr { return c.conn.LocalAddr() }

// SSRC returns the identifier of the source from which the RTP packets
// being received are coming from.
func (c *Client) SSRC() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ssrc
}

// Read implements io.Reader, reading one RTP packet into p.
func (c *Client) Read(p []byte) (int, error) {
	err := c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	if err != nil {
		return 0, fmt.Errorf("could not set read deadline for PacketConn: %w", err)
	}
	n, _, err := c.conn.ReadFrom(p)
	if err != nil {
		return n, err
	}
	s, err := Sequence(p[:n])
	if err != nil {
		return n, err
	}
	c.mu.Lock()
	if c.ssrc == 0 {
		c.ssrc, _ = SSRC(p[:n])
	}
	c.setSequence(s)
	c.mu.Unlock()
	return n, nil
}

// ReadFrame reads packets until a coded picture is complete and returns it.
// The picture is valid until the next call.
func (c *Client) ReadFrame() ([]byte, error) {
	for {
		n, err := c.Read(c.buf)
		if err != nil {
			return nil, err
		}
		frame, ok, err := c.asm.Push(c.buf[:n])
		if err != nil {
			return nil, err
		}
		if ok {
			return frame, nil
		}
	}
}

// Close closes the RTP client.
func (c *Client) Close() error { return c.conn.Close() }

// setSequence tracks sequence number wrap and gaps. c.mu must be held.
func (c *Client) setSequence(s uint16) {
	if c.started {
		if gap := s - c.sequence - 1; gap != 0 && gap < 1<<15 {
			c.lost += int(gap)
		}
		if s < c.sequence {
			c.cycles++
		}
	}
	c.started = true
	c.sequence = s
}

// Sequence returns the most recent RTP packet sequence number received.
func (c *Client) Sequence() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sequence
}

// Cycles returns the number of RTP sequence number cycles that have been received.
func (c *Client) Cycles() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cycles
}

// Lost returns the number of packets missing from the sequence so far.
func (c *Client) Lost() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lost
}
