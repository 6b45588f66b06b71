/*
NAME
  hme.go

DESCRIPTION
  hme.go provides the hierarchical motion estimation cascade: a coarse search
  of the 1/16 picture split into regions, refined on the 1/4 picture and then
  at full resolution, followed by the zero motion check.

AUTHORS
  The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package me

import (
	"github.com/ausocean/svtvp9/codec/vp9/dsp"
	"github.com/ausocean/svtvp9/codec/vp9/picture"
)

// Decimation factor of each HME level in each axis.
var hmeFactor = [3]int{4, 2, 1}

// region is the running result of one level 0 search region. seed is in
// full resolution samples; sad is in the units of the last level run.
type region struct {
	seed Point
	sad  uint32
}

// HMESeed converts a best displacement d found at the given HME level, in
// that level's samples, to the full resolution seed of the next level.
func HMESeed(level int, d Point) Point { return d.Scale(hmeFactor[level]) }

// hmeSAD returns the row subsampled SAD of the bs×bs block at p displaced
// by d, doubled to approximate the full SAD.
func hmeSAD(k dsp.Kernels, src, ref *picture.Buffer, p, d Point, bs int) uint32 {
	s := src.At(p.X, p.Y)
	r := ref.At(p.X+d.X, p.Y+d.Y)
	return k.SAD(s, src.Stride*2, r, ref.Stride*2, bs, bs/2) << 1
}

// hmeScan searches every block origin of area a and returns the best
// displacement relative to p. The first minimum in raster order wins.
func hmeScan(k dsp.Kernels, src, ref *picture.Buffer, p Point, a Area, bs int) (Point, uint32) {
	var best Point
	bestSAD := ^uint32(0)
	for y := a.Y; y < a.Y+a.H; y++ {
		for x := a.X; x < a.X+a.W; x++ {
			d := Point{x - p.X, y - p.Y}
			sad := hmeSAD(k, src, ref, p, d, bs)
			if sad < bestSAD {
				best, bestSAD = d, sad
			}
		}
	}
	return best, bestSAD
}

// hmeLevel0 searches the 1/16 picture. The total search area is split into
// HMERegionsX×HMERegionsY regions, each producing its own seed.
func (c *Context) hmeLevel0(in *Input, ref *Picture) {
	const bs = SBSize / 4
	src, rp := in.Source.Sixteenth, ref.Sixteenth
	p := Point{in.Pos.X / 4, in.Pos.Y / 4}
	w, h := c.p.HMELevel0Width, c.p.HMELevel0Height
	nx, ny := c.p.HMERegionsX, c.p.HMERegionsY
	rw, rh := w/nx, h/ny

	c.regions = c.regions[:0]
	for j := 0; j < ny; j++ {
		eh := rh
		if j == ny-1 {
			eh = h - j*rh
		}
		for i := 0; i < nx; i++ {
			ew := rw
			if i == nx-1 {
				ew = w - i*rw
			}
			var a Area
			a.X, a.W = ClampSearchWindow(p.X-w/2+i*rw, ew, -rp.Pad, rp.Width+rp.Pad-bs)
			a.Y, a.H = ClampSearchWindow(p.Y-h/2+j*rh, eh, -rp.Pad, rp.Height+rp.Pad-bs)
			d, sad := hmeScan(c.k, src, rp, p, a, bs)
			c.regions = append(c.regions, region{seed: HMESeed(0, d), sad: sad})
			c.record(0, Point{}, HMESeed(0, d))
		}
	}
}

// hmeLevel1 refines every region seed on the 1/4 picture.
func (c *Context) hmeLevel1(in *Input, ref *Picture) {
	const bs = SBSize / 2
	src, rp := in.Source.Quarter, ref.Quarter
	p := Point{in.Pos.X / 2, in.Pos.Y / 2}
	for i := range c.regions {
		center := Point{c.regions[i].seed.X / 2, c.regions[i].seed.Y / 2}
		a := searchArea(p, center, c.p.HMELevel1Width, c.p.HMELevel1Height, bs, rp.Width, rp.Height, rp.Pad)
		d, sad := hmeScan(c.k, src, rp, p, a, bs)
		c.record(1, center.Scale(2), HMESeed(1, d))
		c.regions[i] = region{seed: HMESeed(1, d), sad: sad}
	}
}

// hmeLevel2 refines every region seed at full resolution.
func (c *Context) hmeLevel2(in *Input, ref *Picture) {
	src, rp := in.Source.Full, ref.Full
	for i := range c.regions {
		a := searchArea(in.Pos, c.regions[i].seed, c.p.HMELevel2Width, c.p.HMELevel2Height, SBSize, rp.Width, rp.Height, rp.Pad)
		d, sad := hmeScan(c.k, src, rp, in.Pos, a, SBSize)
		c.record(2, c.regions[i].seed, HMESeed(2, d))
		c.regions[i] = region{seed: HMESeed(2, d), sad: sad}
	}
}

// record notes the search centre and resulting seed of one region at an HME
// level, both in full resolution samples.
func (c *Context) record(level int, center, seed Point) {
	c.hmeCenters[level] = append(c.hmeCenters[level], center)
	c.hmeSeeds[level] = append(c.hmeSeeds[level], seed)
}

// bestRegion returns the seed of the cheapest region, the first on ties.
func (c *Context) bestRegion() Point {
	best := 0
	for i := 1; i < len(c.regions); i++ {
		if c.regions[i].sad < c.regions[best].sad {
			best = i
		}
	}
	return c.regions[best].seed
}

// CheckZeroZeroCenter compares the 64x64 SAD at zero displacement against
// the SAD at the HME center for the superblock at pos, and returns the
// cheaper centre with its SAD. Zero motion wins ties. The center is clamped
// to the valid region of ref first.
func CheckZeroZeroCenter(k dsp.Kernels, src, ref *picture.Buffer, pos, center Point) (Point, uint32) {
	s := src.At(pos.X, pos.Y)
	zero := k.SAD(s, src.Stride, ref.At(pos.X, pos.Y), ref.Stride, SBSize, SBSize)
	if center == (Point{}) {
		return center, zero
	}
	center = clampPoint(pos, center, SBSize, ref.Width, ref.Height, ref.Pad)
	r := ref.At(pos.X+center.X, pos.Y+center.Y)
	sad := k.SAD(s, src.Stride, r, ref.Stride, SBSize, SBSize)
	if zero <= sad {
		return Point{}, zero
	}
	return center, sad
}
