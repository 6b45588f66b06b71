/*
NAME
  picture.go

DESCRIPTION
  picture.go provides padded 8-bit luma picture buffers with edge extension
  and decimation.

AUTHORS
  The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package picture provides the padded picture buffers on which motion
// estimation operates.
package picture

import "fmt"

// Guard is the number of extra samples allocated around the logical pad so
// that interpolation taps at the edge of the search region stay in bounds.
const Guard = 8

// Buffer is a luma plane with Pad samples of edge extension on every side
// (plus Guard). Coordinates are relative to the top-left active sample and
// may be negative down to -(Pad+Guard).
type Buffer struct {
	Width  int
	Height int
	Pad    int
	Stride int
	Origin int
	Pix    []byte
}

// New returns a buffer for a w×h picture with the given pad.
func New(w, h, pad int) *Buffer {
	border := pad + Guard
	stride := w + 2*border
	return &Buffer{
		Width:  w,
		Height: h,
		Pad:    pad,
		Stride: stride,
		Origin: border*stride + border,
		Pix:    make([]byte, stride*(h+2*border)),
	}
}

// Offset returns the index in Pix of sample (x, y).
func (b *Buffer) Offset(x, y int) int { return b.Origin + y*b.Stride + x }

// At returns Pix starting at sample (x, y).
func (b *Buffer) At(x, y int) []byte { return b.Pix[b.Offset(x, y):] }

// Load copies a srcW×srcH plane into the active area. If the active area is
// larger than the source, the last column and row are replicated. Borders
// are extended afterwards.
func (b *Buffer) Load(src []byte, srcStride, srcW, srcH int) error {
	if srcW <= 0 || srcH <= 0 || srcW > b.Width || srcH > b.Height {
		return fmt.Errorf("source %dx%d larger than buffer %dx%d", srcW, srcH, b.Width, b.Height)
	}
	if len(src) < srcStride*(srcH-1)+srcW {
		return fmt.Errorf("source plane too short: %d bytes", len(src))
	}
	for y := 0; y < b.Height; y++ {
		sy := y
		if sy >= srcH {
			sy = srcH - 1
		}
		row := b.At(0, y)[:b.Width]
		n := copy(row, src[sy*srcStride:sy*srcStride+srcW])
		for x := n; x < b.Width; x++ {
			row[x] = row[n-1]
		}
	}
	b.ExtendBorders()
	return nil
}

// ExtendBorders replicates the edge samples of the active area into the
// whole border.
func (b *Buffer) ExtendBorders() {
	border := b.Pad + Guard
	for y := 0; y < b.Height; y++ {
		row := b.Pix[b.Offset(-border, y):b.Offset(b.Width+border, y)]
		left, right := row[border], row[border+b.Width-1]
		for x := 0; x < border; x++ {
			row[x] = left
			row[border+b.Width+x] = right
		}
	}
	top := b.Pix[b.Offset(-border, 0):b.Offset(b.Width+border, 0)]
	bottom := b.Pix[b.Offset(-border, b.Height-1):b.Offset(b.Width+border, b.Height-1)]
	for y := 1; y <= border; y++ {
		copy(b.Pix[b.Offset(-border, -y):], top)
		copy(b.Pix[b.Offset(-border, b.Height-1+y):], bottom)
	}
}

// Decimate fills dst with src downsampled by factor in each axis, each
// sample being the rounded mean of a factor×factor block. dst must be
// src.Width/factor by src.Height/factor.
func Decimate(dst, src *Buffer, factor int) {
	if dst.Width != src.Width/factor || dst.Height != src.Height/factor {
		panic(fmt.Sprintf("picture: bad decimation geometry %dx%d from %dx%d by %d", dst.Width, dst.Height, src.Width, src.Height, factor))
	}
	n := factor * factor
	for y := 0; y < dst.Height; y++ {
		d := dst.At(0, y)
		for x := 0; x < dst.Width; x++ {
			var sum int
			for j := 0; j < factor; j++ {
				s := src.At(x*factor, y*factor+j)
				for i := 0; i < factor; i++ {
					sum += int(s[i])
				}
			}
			d[x] = byte((sum + n/2) / n)
		}
	}
	dst.ExtendBorders()
}

// Fill sets every sample, border included, to v.
func (b *Buffer) Fill(v byte) {
	for i := range b.Pix {
		b.Pix[i] = v
	}
}
