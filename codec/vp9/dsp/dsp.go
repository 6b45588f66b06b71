/*
NAME
  dsp.go

DESCRIPTION
  dsp.go provides the pixel kernel interface used by motion estimation and
  encoding, and selection of a kernel implementation by asm type.

AUTHORS
  The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package dsp provides the leaf pixel kernels of the encoder: SAD, SSD,
// averaging, copying and residual addition over 8-bit luma blocks.
//
// Every implementation must produce bit-identical output for the same inputs.
// The portable implementation is the reference; others are selected once at
// encoder initialisation according to the asm type.
package dsp

import (
	"fmt"

	"golang.org/x/sys/cpu"
)

// AsmType selects a kernel implementation.
type AsmType int

// Asm types. AsmAuto is resolved by Detect.
const (
	AsmAuto AsmType = iota - 1
	AsmC
	AsmAVX2
	AsmAVX512
)

func (a AsmType) String() string {
	switch a {
	case AsmAuto:
		return "auto"
	case AsmC:
		return "c"
	case AsmAVX2:
		return "avx2"
	case AsmAVX512:
		return "avx512"
	default:
		return fmt.Sprintf("AsmType(%d)", int(a))
	}
}

// GridBatch is the largest number of origins scored by one
// SAD8x8GridBatch call.
const GridBatch = 8

// Kernels is the set of pixel kernels. Block arguments are slices starting at
// the block's top-left sample with the given stride.
type Kernels interface {
	// SAD returns the sum of absolute differences of two w×h blocks.
	SAD(src []byte, srcStride int, ref []byte, refStride int, w, h int) uint32

	// SSD returns the sum of squared differences of two w×h blocks.
	SSD(src []byte, srcStride int, ref []byte, refStride int, w, h int) uint64

	// SAD8x8Grid writes the 64 SADs of the 8x8 blocks of a 64x64 area, in
	// raster order. If subsample is true only even rows are summed and
	// the result doubled.
	SAD8x8Grid(src []byte, srcStride int, ref []byte, refStride int, subsample bool, sads *[64]uint32)

	// SAD8x8GridBatch writes the full sample SAD8x8Grid of len(sads)
	// horizontally consecutive reference origins, the first at ref. At
	// most GridBatch origins are scored per call.
	SAD8x8GridBatch(src []byte, srcStride int, ref []byte, refStride int, sads [][64]uint32)

	// Average writes (a+b+1)>>1 for each sample of two w×h blocks.
	Average(dst []byte, dstStride int, a []byte, aStride int, b []byte, bStride int, w, h int)

	// Copy copies a w×h block.
	Copy(dst []byte, dstStride int, src []byte, srcStride int, w, h int)

	// AddResidual writes clip(pred+res) for each sample of a w×h block.
	AddResidual(dst []byte, dstStride int, pred []byte, predStride int, res []int16, resStride int, w, h int)
}

// Detect returns the best asm type supported by the running CPU.
func Detect() AsmType {
	switch {
	case cpu.X86.HasAVX512F && cpu.X86.HasAVX512BW:
		return AsmAVX512
	case cpu.X86.HasAVX2:
		return AsmAVX2
	default:
		return AsmC
	}
}

// New returns the kernels for asm type a. AsmAuto is resolved with Detect,
// and a type the CPU cannot run falls back to the best one it can.
func New(a AsmType) Kernels {
	best := Detect()
	if a == AsmAuto || a > best {
		a = best
	}
	switch a {
	case AsmAVX512:
		return unrolled{lanes: 16}
	case AsmAVX2:
		return unrolled{lanes: 8}
	default:
		return portable{}
	}
}

// Variants returns every implementation keyed by asm type, for conformance
// testing.
func Variants() map[AsmType]Kernels {
	v := map[AsmType]Kernels{AsmC: portable{}}
	for _, a := range []AsmType{AsmAVX2, AsmAVX512} {
		v[a] = forced(a)
	}
	return v
}

// forced returns the implementation for a regardless of CPU support; the
// unrolled kernels are pure Go, so they run everywhere.
func forced(a AsmType) Kernels {
	switch a {
	case AsmAVX512:
		return unrolled{lanes: 16}
	case AsmAVX2:
		return unrolled{lanes: 8}
	default:
		return portable{}
	}
}

func clip8(v int32) byte {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return byte(v)
	}
}
