/*
NAME
  unrolled.go

DESCRIPTION
  unrolled.go provides lane-batched kernel implementations. They process a
  fixed number of columns per step with branch-free arithmetic, mirroring the
  vector kernels they stand in for.

AUTHORS
  The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package dsp

// unrolled processes lanes columns per step; remaining columns fall back
// to a scalar loop.
type unrolled struct {
	lanes int
}

// absDiff returns |a-b| without branching.
func absDiff(a, b byte) uint32 {
	d := int32(a) - int32(b)
	m := d >> 31
	return uint32((d ^ m) - m)
}

func (k unrolled) SAD(src []byte, srcStride int, ref []byte, refStride int, w, h int) uint32 {
	var sum uint32
	batch := w - w%8
	for y := 0; y < h; y++ {
		s := src[y*srcStride : y*srcStride+w]
		r := ref[y*refStride : y*refStride+w]
		x := 0
		for ; x < batch; x += 8 {
			s8 := s[x : x+8 : x+8]
			r8 := r[x : x+8 : x+8]
			sum += absDiff(s8[0], r8[0]) + absDiff(s8[1], r8[1]) +
				absDiff(s8[2], r8[2]) + absDiff(s8[3], r8[3]) +
				absDiff(s8[4], r8[4]) + absDiff(s8[5], r8[5]) +
				absDiff(s8[6], r8[6]) + absDiff(s8[7], r8[7])
		}
		for ; x < w; x++ {
			sum += absDiff(s[x], r[x])
		}
	}
	return sum
}

func (k unrolled) SSD(src []byte, srcStride int, ref []byte, refStride int, w, h int) uint64 {
	var sum uint64
	batch := w - w%4
	for y := 0; y < h; y++ {
		s := src[y*srcStride : y*srcStride+w]
		r := ref[y*refStride : y*refStride+w]
		x := 0
		for ; x < batch; x += 4 {
			d0 := int32(s[x]) - int32(r[x])
			d1 := int32(s[x+1]) - int32(r[x+1])
			d2 := int32(s[x+2]) - int32(r[x+2])
			d3 := int32(s[x+3]) - int32(r[x+3])
			sum += uint64(d0*d0 + d1*d1 + d2*d2 + d3*d3)
		}
		for ; x < w; x++ {
			d := int32(s[x]) - int32(r[x])
			sum += uint64(d * d)
		}
	}
	return sum
}

// SAD8x8Grid walks the 64x64 area row by row, accumulating each row's
// contribution into the 8 blocks it crosses, lanes columns at a time.
func (k unrolled) SAD8x8Grid(src []byte, srcStride int, ref []byte, refStride int, subsample bool, sads *[64]uint32) {
	*sads = [64]uint32{}
	step := 1
	if subsample {
		step = 2
	}
	for y := 0; y < 64; y += step {
		s := src[y*srcStride : y*srcStride+64]
		r := ref[y*refStride : y*refStride+64]
		row := sads[(y>>3)*8 : (y>>3)*8+8]
		for x := 0; x < 64; x += k.lanes {
			for l := 0; l < k.lanes; l += 8 {
				s8 := s[x+l : x+l+8 : x+l+8]
				r8 := r[x+l : x+l+8 : x+l+8]
				row[(x+l)>>3] += absDiff(s8[0], r8[0]) + absDiff(s8[1], r8[1]) +
					absDiff(s8[2], r8[2]) + absDiff(s8[3], r8[3]) +
					absDiff(s8[4], r8[4]) + absDiff(s8[5], r8[5]) +
					absDiff(s8[6], r8[6]) + absDiff(s8[7], r8[7])
			}
		}
	}
	if subsample {
		for i := range sads {
			sads[i] <<= 1
		}
	}
}

// SAD8x8GridBatch loads each 8 sample source row segment once and scores it
// against every origin of the batch.
func (k unrolled) SAD8x8GridBatch(src []byte, srcStride int, ref []byte, refStride int, sads [][64]uint32) {
	n := len(sads)
	for i := range sads {
		sads[i] = [64]uint32{}
	}
	for y := 0; y < 64; y++ {
		s := src[y*srcStride : y*srcStride+64]
		r := ref[y*refStride : y*refStride+64+n-1]
		b := (y >> 3) * 8
		for bx := 0; bx < 8; bx++ {
			s8 := s[bx*8 : bx*8+8 : bx*8+8]
			for o := range sads {
				r8 := r[bx*8+o : bx*8+o+8 : bx*8+o+8]
				sads[o][b+bx] += absDiff(s8[0], r8[0]) + absDiff(s8[1], r8[1]) +
					absDiff(s8[2], r8[2]) + absDiff(s8[3], r8[3]) +
					absDiff(s8[4], r8[4]) + absDiff(s8[5], r8[5]) +
					absDiff(s8[6], r8[6]) + absDiff(s8[7], r8[7])
			}
		}
	}
}

func (k unrolled) Average(dst []byte, dstStride int, a []byte, aStride int, b []byte, bStride int, w, h int) {
	batch := w - w%4
	for y := 0; y < h; y++ {
		d := dst[y*dstStride : y*dstStride+w]
		p := a[y*aStride : y*aStride+w]
		q := b[y*bStride : y*bStride+w]
		x := 0
		for ; x < batch; x += 4 {
			d[x] = byte((uint16(p[x]) + uint16(q[x]) + 1) >> 1)
			d[x+1] = byte((uint16(p[x+1]) + uint16(q[x+1]) + 1) >> 1)
			d[x+2] = byte((uint16(p[x+2]) + uint16(q[x+2]) + 1) >> 1)
			d[x+3] = byte((uint16(p[x+3]) + uint16(q[x+3]) + 1) >> 1)
		}
		for ; x < w; x++ {
			d[x] = byte((uint16(p[x]) + uint16(q[x]) + 1) >> 1)
		}
	}
}

func (k unrolled) Copy(dst []byte, dstStride int, src []byte, srcStride int, w, h int) {
	portable{}.Copy(dst, dstStride, src, srcStride, w, h)
}

func (k unrolled) AddResidual(dst []byte, dstStride int, pred []byte, predStride int, res []int16, resStride int, w, h int) {
	for y := 0; y < h; y++ {
		d := dst[y*dstStride : y*dstStride+w]
		p := pred[y*predStride : y*predStride+w]
		r := res[y*resStride : y*resStride+w]
		for x := range d {
			v := int32(p[x]) + int32(r[x])
			// Clamp to [0,255] with masks.
			v &^= v >> 31
			v |= (255 - v) >> 31
			d[x] = byte(v)
		}
	}
}
