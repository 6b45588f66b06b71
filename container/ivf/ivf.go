/*
NAME
  ivf.go

DESCRIPTION
  ivf.go provides writing and reading of IVF, the simple container used for
  raw VP8 and VP9 streams: a 32 byte file header followed by frames, each
  prefixed by its size and timestamp.

AUTHORS
  The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ivf provides an IVF container writer and reader.
package ivf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	signature       = "DKIF"
	version         = 0
	fileHeaderSize  = 32
	frameHeaderSize = 12

	// Offset of the frame count in the file header.
	frameCountOffset = 24
)

// FourCCVP9 identifies VP9 streams.
const FourCCVP9 = "VP90"

// Errors returned when reading.
var (
	ErrBadSignature = errors.New("not an IVF stream")
	ErrBadFourCC    = errors.New("fourcc must be four bytes")
)

// Header is the IVF file header. The time base of frame timestamps is
// Scale/Rate seconds.
type Header struct {
	FourCC string
	Width  uint16
	Height uint16
	Rate   uint32
	Scale  uint32
	Frames uint32
}

func (h *Header) marshal(b []byte) {
	copy(b[0:4], signature)
	binary.LittleEndian.PutUint16(b[4:], version)
	binary.LittleEndian.PutUint16(b[6:], fileHeaderSize)
	copy(b[8:12], h.FourCC)
	binary.LittleEndian.PutUint16(b[12:], h.Width)
	binary.LittleEndian.PutUint16(b[14:], h.Height)
	binary.LittleEndian.PutUint32(b[16:], h.Rate)
	binary.LittleEndian.PutUint32(b[20:], h.Scale)
	binary.LittleEndian.PutUint32(b[frameCountOffset:], h.Frames)
	binary.LittleEndian.PutUint32(b[28:], 0)
}

// Writer writes frames to an IVF stream.
type Writer struct {
	dst    io.Writer
	hdr    Header
	frames uint32
	buf    [fileHeaderSize]byte
}

// NewWriter writes the file header h to dst and returns a Writer for the
// frames that follow. The frame count of h is ignored; if dst is an
// io.WriteSeeker Close rewrites it with the number of frames written.
func NewWriter(dst io.Writer, h Header) (*Writer, error) {
	if len(h.FourCC) != 4 {
		return nil, ErrBadFourCC
	}
	w := &Writer{dst: dst, hdr: h}
	w.hdr.Frames = 0
	w.hdr.marshal(w.buf[:])
	_, err := dst.Write(w.buf[:])
	if err != nil {
		return nil, fmt.Errorf("could not write file header: %w", err)
	}
	return w, nil
}

// WriteFrame writes one frame with timestamp pts.
func (w *Writer) WriteFrame(data []byte, pts uint64) error {
	b := w.buf[:frameHeaderSize]
	binary.LittleEndian.PutUint32(b, uint32(len(data)))
	binary.LittleEndian.PutUint64(b[4:], pts)
	_, err := w.dst.Write(b)
	if err != nil {
		return fmt.Errorf("could not write frame header: %w", err)
	}
	_, err = w.dst.Write(data)
	if err != nil {
		return fmt.Errorf("could not write frame: %w", err)
	}
	w.frames++
	return nil
}

// Frames returns the number of frames written.
func (w *Writer) Frames() uint32 { return w.frames }

// Close completes the stream. The underlying writer is not closed.
func (w *Writer) Close() error {
	ws, ok := w.dst.(io.WriteSeeker)
	if !ok {
		return nil
	}
	end, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	_, err = ws.Seek(frameCountOffset, io.SeekStart)
	if err != nil {
		return err
	}
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], w.frames)
	_, err = ws.Write(n[:])
	if err != nil {
		return fmt.Errorf("could not update frame count: %w", err)
	}
	_, err = ws.Seek(end, io.SeekStart)
	return err
}

// Reader reads frames from an IVF stream.
type Reader struct {
	src    io.Reader
	Header Header
	buf    [fileHeaderSize]byte
}

// NewReader reads the file header from src.
func NewReader(src io.Reader) (*Reader, error) {
	r := &Reader{src: src}
	b := r.buf[:]
	_, err := io.ReadFull(src, b)
	if err != nil {
		return nil, fmt.Errorf("could not read file header: %w", err)
	}
	if string(b[0:4]) != signature {
		return nil, ErrBadSignature
	}
	n := binary.LittleEndian.Uint16(b[6:])
	if n < fileHeaderSize {
		return nil, fmt.Errorf("bad header size %d", n)
	}
	r.Header = Header{
		FourCC: string(b[8:12]),
		Width:  binary.LittleEndian.Uint16(b[12:]),
		Height: binary.LittleEndian.Uint16(b[14:]),
		Rate:   binary.LittleEndian.Uint32(b[16:]),
		Scale:  binary.LittleEndian.Uint32(b[20:]),
		Frames: binary.LittleEndian.Uint32(b[frameCountOffset:]),
	}
	_, err = io.CopyN(io.Discard, src, int64(n-fileHeaderSize))
	if err != nil {
		return nil, fmt.Errorf("could not skip header extension: %w", err)
	}
	return r, nil
}

// ReadFrame reads the next frame into dst, growing it as needed. It returns
// io.EOF when the stream ends cleanly between frames.
func (r *Reader) ReadFrame(dst []byte) ([]byte, uint64, error) {
	b := r.buf[:frameHeaderSize]
	_, err := io.ReadFull(r.src, b)
	if err != nil {
		return dst, 0, err
	}
	size := int(binary.LittleEndian.Uint32(b))
	pts := binary.LittleEndian.Uint64(b[4:])
	if cap(dst) < size {
		dst = make([]byte, size)
	}
	dst = dst[:size]
	_, err = io.ReadFull(r.src, dst)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return dst, pts, fmt.Errorf("could not read frame: %w", err)
	}
	return dst, pts, nil
}
