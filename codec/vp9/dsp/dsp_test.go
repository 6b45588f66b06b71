/*
NAME
  dsp_test.go

DESCRIPTION
  dsp_test.go checks that every kernel variant produces output identical to
  the portable reference.

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

import (
	"bytes"
	"math/rand"
	"testing"
)

const stride = 80

func randBuf(rng *rand.Rand, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(rng.Intn(256))
	}
	return b
}

var sizes = [][2]int{{8, 8}, {16, 16}, {32, 32}, {64, 64}, {8, 4}, {13, 7}, {3, 3}}

func TestSADConformance(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	ref := portable{}
	for iter := 0; iter < 50; iter++ {
		src := randBuf(rng, stride*64)
		pred := randBuf(rng, stride*64)
		for _, sz := range sizes {
			want := ref.SAD(src, stride, pred, stride, sz[0], sz[1])
			for a, k := range Variants() {
				if got := k.SAD(src, stride, pred, stride, sz[0], sz[1]); got != want {
					t.Fatalf("%v SAD %dx%d: got %d, want %d", a, sz[0], sz[1], got, want)
				}
			}
		}
	}
}

func TestSSDConformance(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	ref := portable{}
	for iter := 0; iter < 50; iter++ {
		src := randBuf(rng, stride*64)
		pred := randBuf(rng, stride*64)
		for _, sz := range sizes {
			want := ref.SSD(src, stride, pred, stride, sz[0], sz[1])
			for a, k := range Variants() {
				if got := k.SSD(src, stride, pred, stride, sz[0], sz[1]); got != want {
					t.Fatalf("%v SSD %dx%d: got %d, want %d", a, sz[0], sz[1], got, want)
				}
			}
		}
	}
}

func TestSAD8x8GridConformance(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	ref := portable{}
	for iter := 0; iter < 20; iter++ {
		src := randBuf(rng, stride*64)
		pred := randBuf(rng, stride*64)
		for _, sub := range []bool{false, true} {
			var want [64]uint32
			ref.SAD8x8Grid(src, stride, pred, stride, sub, &want)
			for a, k := range Variants() {
				var got [64]uint32
				k.SAD8x8Grid(src, stride, pred, stride, sub, &got)
				if got != want {
					t.Fatalf("%v SAD8x8Grid subsample=%v mismatch", a, sub)
				}
			}

			// Each grid entry must equal the block SAD computed directly.
			if !sub {
				for i, v := range want {
					bx, by := i%8, i/8
					off := by*8*stride + bx*8
					if s := ref.SAD(src[off:], stride, pred[off:], stride, 8, 8); s != v {
						t.Fatalf("grid entry %d: got %d, want %d", i, v, s)
					}
				}
			}
		}
	}
}

func TestSAD8x8GridBatchConformance(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	ref := portable{}
	for n := 1; n <= GridBatch; n++ {
		src := randBuf(rng, stride*64)
		pred := randBuf(rng, stride*64)
		want := make([][64]uint32, n)
		for o := range want {
			ref.SAD8x8Grid(src, stride, pred[o:], stride, false, &want[o])
		}
		for a, k := range Variants() {
			got := make([][64]uint32, n)
			k.SAD8x8GridBatch(src, stride, pred, stride, got)
			for o := range got {
				if got[o] != want[o] {
					t.Fatalf("%v SAD8x8GridBatch of %d: origin %d mismatch", a, n, o)
				}
			}
		}
	}
}

func TestAverageAllPairs(t *testing.T) {
	a := make([]byte, 256*256)
	b := make([]byte, 256*256)
	for i := 0; i < 256; i++ {
		for j := 0; j < 256; j++ {
			a[i*256+j] = byte(i)
			b[i*256+j] = byte(j)
		}
	}
	for v, k := range Variants() {
		dst := make([]byte, 256*256)
		k.Average(dst, 256, a, 256, b, 256, 256, 256)
		for i := 0; i < 256; i++ {
			for j := 0; j < 256; j++ {
				want := byte((i + j + 1) >> 1)
				if got := dst[i*256+j]; got != want {
					t.Fatalf("%v: avg(%d,%d) = %d, want %d", v, i, j, got, want)
				}
			}
		}
	}
}

func TestCopyAndAddResidualConformance(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	ref := portable{}
	pred := randBuf(rng, stride*16)
	res := make([]int16, 16*16)
	for i := range res {
		res[i] = int16(rng.Intn(1024) - 512)
	}

	want := make([]byte, 16*16)
	ref.AddResidual(want, 16, pred, stride, res, 16, 16, 16)
	wantCopy := make([]byte, 16*16)
	ref.Copy(wantCopy, 16, pred, stride, 16, 16)

	for a, k := range Variants() {
		got := make([]byte, 16*16)
		k.AddResidual(got, 16, pred, stride, res, 16, 16, 16)
		if !bytes.Equal(got, want) {
			t.Errorf("%v AddResidual mismatch", a)
		}
		k.Copy(got, 16, pred, stride, 16, 16)
		if !bytes.Equal(got, wantCopy) {
			t.Errorf("%v Copy mismatch", a)
		}
	}
}

func TestNew(t *testing.T) {
	if New(AsmC) != (portable{}) {
		t.Error("AsmC did not select portable kernels")
	}
	if New(AsmAuto) == nil {
		t.Error("AsmAuto returned nil kernels")
	}
}
