/*
NAME
  predict.go

DESCRIPTION
  predict.go provides the prediction and residual coding arithmetic of the
  EncDec stage: quarter-pel motion compensation, DC intra prediction and
  scalar quantization of the spatial residual.

AUTHORS
  The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package encoder

import (
	"github.com/ausocean/svtvp9/codec/vp9/dsp"
	"github.com/ausocean/svtvp9/codec/vp9/me"
	"github.com/ausocean/svtvp9/codec/vp9/picture"
)

// predictInter writes the size×size block at (x, y) of ref displaced by mv
// to dst, with stride sbSize. Fractional positions are bilinear.
func predictInter(k dsp.Kernels, ref *picture.Buffer, x, y int, mv me.MV, size int, dst []byte) {
	mx, my := mv.X(), mv.Y()
	ix, iy := x+mx>>2, y+my>>2
	fx, fy := mx&3, my&3
	if fx == 0 && fy == 0 {
		k.Copy(dst, sbSize, ref.At(ix, iy), ref.Stride, size, size)
		return
	}
	w00, w01 := (4-fx)*(4-fy), fx*(4-fy)
	w10, w11 := (4-fx)*fy, fx*fy
	for j := 0; j < size; j++ {
		r0 := ref.At(ix, iy+j)
		r1 := r0[ref.Stride:]
		d := dst[j*sbSize : j*sbSize+size]
		for i := range d {
			v := w00*int(r0[i]) + w01*int(r0[i+1]) + w10*int(r1[i]) + w11*int(r1[i+1])
			d[i] = byte((v + 8) >> 4)
		}
	}
}

// dcValue returns the mean of the size samples left of the block at (x, y)
// of pic, or mid grey at the left picture edge.
func dcValue(pic *picture.Buffer, x, y, size int) byte {
	if x == 0 {
		return 128
	}
	var sum int
	for j := 0; j < size; j++ {
		sum += int(pic.At(x-1, y+j)[0])
	}
	return byte((sum + size/2) / size)
}

// fill sets a size×size block of dst, with stride sbSize, to v.
func fill(dst []byte, v byte, size int) {
	for j := 0; j < size; j++ {
		d := dst[j*sbSize : j*sbSize+size]
		for i := range d {
			d[i] = v
		}
	}
}

// qStep returns the quantizer step size at qp.
func qStep(qp int) int { return 1 + qp/4 }

// quantize codes the residual of a size×size block of src against pred,
// with stride sbSize, using step q. The levels are appended to levels in
// raster order and the dequantized residual written to res with stride
// sbSize.
func quantize(src []byte, srcStride int, pred []byte, size, q int, levels, res []int16) []int16 {
	for j := 0; j < size; j++ {
		s := src[j*srcStride : j*srcStride+size]
		for i, v := range s {
			r := int(v) - int(pred[j*sbSize+i])
			l := (abs(r) + q/2) / q
			if r < 0 {
				l = -l
			}
			levels = append(levels, int16(l))
			res[j*sbSize+i] = int16(l * q)
		}
	}
	return levels
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
