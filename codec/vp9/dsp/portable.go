/*
NAME
  portable.go

DESCRIPTION
  portable.go provides the reference kernel implementations.

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

// portable is the straightforward reference implementation.
type portable struct{}

func (portable) SAD(src []byte, srcStride int, ref []byte, refStride int, w, h int) uint32 {
	var sum uint32
	for y := 0; y < h; y++ {
		s := src[y*srcStride:]
		r := ref[y*refStride:]
		for x := 0; x < w; x++ {
			d := int32(s[x]) - int32(r[x])
			if d < 0 {
				d = -d
			}
			sum += uint32(d)
		}
	}
	return sum
}

func (portable) SSD(src []byte, srcStride int, ref []byte, refStride int, w, h int) uint64 {
	var sum uint64
	for y := 0; y < h; y++ {
		s := src[y*srcStride:]
		r := ref[y*refStride:]
		for x := 0; x < w; x++ {
			d := int64(s[x]) - int64(r[x])
			sum += uint64(d * d)
		}
	}
	return sum
}

func (k portable) SAD8x8GridBatch(src []byte, srcStride int, ref []byte, refStride int, sads [][64]uint32) {
	for i := range sads {
		k.SAD8x8Grid(src, srcStride, ref[i:], refStride, false, &sads[i])
	}
}

func (k portable) SAD8x8Grid(src []byte, srcStride int, ref []byte, refStride int, subsample bool, sads *[64]uint32) {
	for by := 0; by < 8; by++ {
		for bx := 0; bx < 8; bx++ {
			s := src[by*8*srcStride+bx*8:]
			r := ref[by*8*refStride+bx*8:]
			if subsample {
				sads[by*8+bx] = k.SAD(s, srcStride*2, r, refStride*2, 8, 4) << 1
				continue
			}
			sads[by*8+bx] = k.SAD(s, srcStride, r, refStride, 8, 8)
		}
	}
}

func (portable) Average(dst []byte, dstStride int, a []byte, aStride int, b []byte, bStride int, w, h int) {
	for y := 0; y < h; y++ {
		d := dst[y*dstStride:]
		p := a[y*aStride:]
		q := b[y*bStride:]
		for x := 0; x < w; x++ {
			d[x] = byte((uint16(p[x]) + uint16(q[x]) + 1) >> 1)
		}
	}
}

func (portable) Copy(dst []byte, dstStride int, src []byte, srcStride int, w, h int) {
	for y := 0; y < h; y++ {
		copy(dst[y*dstStride:y*dstStride+w], src[y*srcStride:y*srcStride+w])
	}
}

func (portable) AddResidual(dst []byte, dstStride int, pred []byte, predStride int, res []int16, resStride int, w, h int) {
	for y := 0; y < h; y++ {
		d := dst[y*dstStride:]
		p := pred[y*predStride:]
		r := res[y*resStride:]
		for x := 0; x < w; x++ {
			d[x] = clip8(int32(p[x]) + int32(r[x]))
		}
	}
}
