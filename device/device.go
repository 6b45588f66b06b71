/*
NAME
  device.go

DESCRIPTION
  device.go provides AVDevice, an interface describing a video source that
  can be started and stopped and from which raw frames may be read, and
  FrameReader, which splits the data of a source into I420 frames for the
  encoder.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package device provides an interface and implementations for input devices
// that can be started and stopped from which raw video can be obtained.
package device

import (
	"errors"
	"fmt"
	"io"

	"github.com/ausocean/svtvp9/encoder"
)

// AVDevice describes a video source from which raw frames can be obtained.
// AVDevice is an io.Reader.
type AVDevice interface {
	io.Reader

	// Name returns the name of the AVDevice.
	Name() string

	// Start starts the AVDevice, after which Read may be called.
	Start() error

	// Stop stops the AVDevice. Reads fail from this point.
	Stop() error

	// IsRunning is used to determine if the device is running.
	IsRunning() bool
}

// FrameSize returns the bytes of a w x h I420 frame.
func FrameSize(w, h int) int {
	cw, ch := (w+1)/2, (h+1)/2
	return w*h + 2*cw*ch
}

// FrameReader reads planar I420 frames from a source. Only the luma plane is
// handed to the encoder; chroma is read and discarded.
type FrameReader struct {
	src           io.Reader
	width, height int
	buf           []byte
	frames        int64
}

// NewFrameReader returns a FrameReader of w x h frames from src.
func NewFrameReader(src io.Reader, w, h int) (*FrameReader, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("bad frame dimensions %dx%d", w, h)
	}
	return &FrameReader{src: src, width: w, height: h, buf: make([]byte, FrameSize(w, h))}, nil
}

// Next reads the next frame. Its PTS is the frame's index. The frame's
// buffer is reused by the following call. Next returns io.EOF at a clean end
// of input and io.ErrUnexpectedEOF for a truncated last frame.
func (r *FrameReader) Next() (*encoder.Frame, error) {
	_, err := io.ReadFull(r.src, r.buf)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("frame %d truncated: %w", r.frames, err)
		}
		return nil, err
	}
	f := &encoder.Frame{
		Luma:   r.buf[:r.width*r.height],
		Stride: r.width,
		Width:  r.width,
		Height: r.height,
		PTS:    r.frames,
	}
	r.frames++
	return f, nil
}

// Frames returns the number of frames read.
func (r *FrameReader) Frames() int64 { return r.frames }
