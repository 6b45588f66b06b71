/*
NAME
  fullpel.go

DESCRIPTION
  fullpel.go provides the exhaustive full-pel search over the superblock
  partition tree.

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

import "github.com/ausocean/svtvp9/codec/vp9/dsp"

// fullPel evaluates every origin of the clamped search window around the
// search center. At each origin the 64 8x8 SADs are computed once and
// reduced into all 85 partitions, so every block size is searched at the
// cost of one 64x64 SAD.
func (c *Context) fullPel(in *Input, l, r int) {
	src, ref := in.Source.Full, in.Refs[l][r].Full
	s := src.At(in.Pos.X, in.Pos.Y)
	c.ZeroSAD[l][r] = c.k.SAD(s, src.Stride, ref.At(in.Pos.X, in.Pos.Y), ref.Stride, SBSize, SBSize)

	a := searchArea(in.Pos, c.Center[l][r], c.p.SearchAreaWidth, c.p.SearchAreaHeight, SBSize, ref.Width, ref.Height, ref.Pad)
	c.SearchArea[l][r] = a

	best, mvs := &c.BestSAD[l][r], &c.BestMV[l][r]
	for y := a.Y; y < a.Y+a.H; y++ {
		for x0 := a.X; x0 < a.X+a.W; x0 += dsp.GridBatch {
			grids := c.grids[:min(dsp.GridBatch, a.X+a.W-x0)]
			c.k.SAD8x8GridBatch(s, src.Stride, ref.At(x0, y), ref.Stride, grids)
			for i := range grids {
				reduceGrid(&grids[i], &c.sads)
				mv := FullPelMV(Point{x0 + i - in.Pos.X, y - in.Pos.Y})
				for id, sad := range c.sads {
					if sad < best[id] {
						best[id] = sad
						mvs[id] = mv
					}
				}
			}
		}
	}
}
