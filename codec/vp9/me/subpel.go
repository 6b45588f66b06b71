/*
NAME
  subpel.go

DESCRIPTION
  subpel.go provides half and quarter-pel refinement of the full-pel motion
  vectors, and fractional position prediction.

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

import "github.com/ausocean/svtvp9/codec/vp9/picture"

// dirNone marks a block whose integer position survived half-pel search.
const dirNone = len(halfDirs)

// Half-pel search directions, in units of one half sample.
var halfDirs = [8]Point{
	{-1, 0},  // L
	{1, 0},   // R
	{0, -1},  // T
	{0, 1},   // B
	{-1, -1}, // TL
	{1, -1},  // TR
	{1, 1},   // BR
	{-1, 1},  // BL
}

// quarterDirs lists the quarter-pel offsets checked around the half-pel
// winner, indexed by its direction. Only the positions between the winner
// and the integer position are reachable; with no half-pel winner all eight
// neighbours are checked.
var quarterDirs = [dirNone + 1][]Point{
	{{1, -1}, {1, 0}, {1, 1}},    // L
	{{-1, -1}, {-1, 0}, {-1, 1}}, // R
	{{-1, 1}, {0, 1}, {1, 1}},    // T
	{{-1, -1}, {0, -1}, {1, -1}}, // B
	{{1, 0}, {0, 1}, {1, 1}},     // TL
	{{-1, 0}, {0, 1}, {-1, 1}},   // TR
	{{-1, 0}, {0, -1}, {-1, -1}}, // BR
	{{1, 0}, {0, -1}, {1, -1}},   // BL
	{{-1, 0}, {1, 0}, {0, -1}, {0, 1}, {-1, -1}, {1, -1}, {1, 1}, {-1, 1}},
}

func (it *interp) offset(x, y int) int { return (y-it.y0)*it.stride + x - it.x0 }

// build interpolates the half-pel planes of ref over every position a
// block in search area a can refine to.
func (it *interp) build(ref *picture.Buffer, a Area) {
	it.x0, it.y0 = a.X-1, a.Y-1
	it.w, it.h = a.W+SBSize+1, a.H+SBSize+1
	for y := 0; y < it.h; y++ {
		s := ref.At(it.x0, it.y0+y)
		d := y * it.stride
		for x := 0; x < it.w; x++ {
			p, r, dn, dr := int(s[x]), int(s[x+1]), int(s[x+ref.Stride]), int(s[x+ref.Stride+1])
			it.b[d+x] = byte((p + r + 1) >> 1)
			it.hv[d+x] = byte((p + dn + 1) >> 1)
			it.j[d+x] = byte((p + r + dn + dr + 2) >> 2)
		}
	}
}

// halfGrid returns the prediction at absolute quarter-pel position (qx, qy),
// both components even, selecting the integer or b, h or j plane.
func halfGrid(ref *picture.Buffer, it *interp, qx, qy int) ([]byte, int) {
	ix, iy := qx>>2, qy>>2
	switch fx, fy := qx&3, qy&3; {
	case fx == 0 && fy == 0:
		return ref.At(ix, iy), ref.Stride
	case fy == 0:
		return it.b[it.offset(ix, iy):], it.stride
	case fx == 0:
		return it.hv[it.offset(ix, iy):], it.stride
	default:
		return it.j[it.offset(ix, iy):], it.stride
	}
}

// predict returns the bs×bs prediction at absolute quarter-pel position
// (qx, qy). Half-grid positions are read in place; quarter positions are the
// average of the nearest half-grid neighbours written to dst: the two along
// an odd axis, or the low and high diagonal pair when both are odd.
func (c *Context) predict(ref *picture.Buffer, it *interp, qx, qy, bs int, dst []byte) ([]byte, int) {
	if qx&1 == 0 && qy&1 == 0 {
		return halfGrid(ref, it, qx, qy)
	}
	lx, hx, ly, hy := qx, qx, qy, qy
	if qx&1 != 0 {
		lx, hx = qx-1, qx+1
	}
	if qy&1 != 0 {
		ly, hy = qy-1, qy+1
	}
	a, as := halfGrid(ref, it, lx, ly)
	b, bs2 := halfGrid(ref, it, hx, hy)
	c.k.Average(dst, bs, a, as, b, bs2, bs, bs)
	return dst, bs
}

func (c *Context) distortion(src []byte, ss int, pred []byte, ps, bs int) uint64 {
	if c.p.Metric == MetricSSD {
		return c.k.SSD(src, ss, pred, ps, bs, bs)
	}
	return uint64(c.k.SAD(src, ss, pred, ps, bs, bs))
}

// prepareSubpel builds the interpolated planes for one reference and, for
// the SSD metric, measures the integer position of every block.
func (c *Context) prepareSubpel(in *Input, l, r int) {
	ref := in.Refs[l][r].Full
	c.interp[l][r].build(ref, c.SearchArea[l][r])
	if c.p.Metric != MetricSSD {
		return
	}
	src := in.Source.Full
	for id, b := range Blocks {
		p := in.Pos.Add(Point{b.X, b.Y})
		mv := c.BestMV[l][r][id]
		rr := ref.At(p.X+mv.X()/4, p.Y+mv.Y()/4)
		c.BestSSD[l][r][id] = c.k.SSD(src.At(p.X, p.Y), src.Stride, rr, ref.Stride, b.Size, b.Size)
	}
}

// refine checks the quarter-pel offsets dirs, scaled by step, around each
// block's best vector and keeps any strictly cheaper one. It returns the
// index of the winning offset, or -1.
func (c *Context) refine(in *Input, l, r, id int, dirs []Point, step int) int {
	b := Blocks[id]
	ref, it := in.Refs[l][r].Full, &c.interp[l][r]
	p := in.Pos.Add(Point{b.X, b.Y})
	s, ss := in.Source.Full.At(p.X, p.Y), in.Source.Full.Stride

	base := c.BestMV[l][r][id]
	bestCost := uint64(c.BestSAD[l][r][id])
	if c.p.Metric == MetricSSD {
		bestCost = c.BestSSD[l][r][id]
	}
	win := -1
	for i, d := range dirs {
		mx, my := base.X()+d.X*step, base.Y()+d.Y*step
		pred, ps := c.predict(ref, it, 4*p.X+mx, 4*p.Y+my, b.Size, c.scratch[0])
		cost := c.distortion(s, ss, pred, ps, b.Size)
		if cost >= bestCost {
			continue
		}
		bestCost, win = cost, i
		c.BestMV[l][r][id] = NewMV(mx, my)
		if c.p.Metric == MetricSSD {
			c.BestSSD[l][r][id] = cost
			c.BestSAD[l][r][id] = c.k.SAD(s, ss, pred, ps, b.Size, b.Size)
		} else {
			c.BestSAD[l][r][id] = uint32(cost)
		}
	}
	return win
}

// halfPel refines every block to the best of its eight half-pel neighbours.
func (c *Context) halfPel(in *Input, l, r int) {
	for id := range Blocks {
		win := c.refine(in, l, r, id, halfDirs[:], 2)
		if win >= 0 {
			c.HalfDir[l][r][id] = win
		}
	}
}

// quarterPel refines every block among the quarter-pel positions reachable
// from its half-pel winner.
func (c *Context) quarterPel(in *Input, l, r int) {
	for id := range Blocks {
		c.refine(in, l, r, id, quarterDirs[c.HalfDir[l][r][id]], 1)
	}
}
