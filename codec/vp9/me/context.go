/*
NAME
  context.go

DESCRIPTION
  context.go provides the motion estimation context: the per-worker scratch
  state of the search engine, and its parameters.

AUTHORS
  The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package me provides the motion estimation engine: hierarchical search over
// decimated pictures, full-pel search over the superblock partition tree,
// half and quarter-pel refinement, bi-prediction and candidate ranking.
//
// A Context is owned by exactly one worker and is reused for every
// superblock that worker searches; nothing in it is shared.
package me

import (
	"fmt"

	"github.com/ausocean/svtvp9/codec/vp9/dsp"
	"github.com/ausocean/svtvp9/codec/vp9/picture"
)

// MaxRefs is the maximum number of references per list.
const MaxRefs = 2

// MaxSearchArea caps the full-pel search window in each dimension.
const MaxSearchArea = 127

// Metric selects the fractional search distortion.
type Metric int

const (
	MetricSAD Metric = iota
	MetricSSD
)

// Params configures the search.
type Params struct {
	// Full-pel window, in samples.
	SearchAreaWidth  int
	SearchAreaHeight int

	// HME enables the hierarchical search; HMELevel enables each level.
	HME      bool
	HMELevel [3]bool

	// Total search areas of each HME level, in that level's samples.
	HMELevel0Width, HMELevel0Height int
	HMELevel1Width, HMELevel1Height int
	HMELevel2Width, HMELevel2Height int

	// Number of level 0 search regions in each dimension.
	HMERegionsX, HMERegionsY int

	HalfPel    bool
	QuarterPel bool
	Metric     Metric
	BiPred     bool
}

// DefaultParams returns the parameters used when none are configured.
func DefaultParams() Params {
	return Params{
		SearchAreaWidth:  64,
		SearchAreaHeight: 64,
		HME:              true,
		HMELevel:         [3]bool{true, true, true},
		HMELevel0Width:   48,
		HMELevel0Height:  32,
		HMELevel1Width:   16,
		HMELevel1Height:  16,
		HMELevel2Width:   16,
		HMELevel2Height:  16,
		HMERegionsX:      2,
		HMERegionsY:      2,
		HalfPel:          true,
		QuarterPel:       true,
		Metric:           MetricSAD,
		BiPred:           true,
	}
}

// Validate checks the parameters for values the engine cannot use.
func (p Params) Validate() error {
	switch {
	case p.SearchAreaWidth < 1 || p.SearchAreaHeight < 1:
		return fmt.Errorf("bad search area %dx%d", p.SearchAreaWidth, p.SearchAreaHeight)
	case p.HMERegionsX < 1 || p.HMERegionsY < 1:
		return fmt.Errorf("bad HME region count %dx%d", p.HMERegionsX, p.HMERegionsY)
	case p.HMELevel0Width < p.HMERegionsX || p.HMELevel0Height < p.HMERegionsY:
		return fmt.Errorf("HME level 0 area %dx%d smaller than region count", p.HMELevel0Width, p.HMELevel0Height)
	case p.Metric != MetricSAD && p.Metric != MetricSSD:
		return fmt.Errorf("bad fractional metric %d", p.Metric)
	}
	return nil
}

// Picture is a picture at the three resolutions searched by HME. Quarter
// and Sixteenth are decimated 2:1 and 4:1 in each axis.
type Picture struct {
	Full      *picture.Buffer
	Quarter   *picture.Buffer
	Sixteenth *picture.Buffer
}

// Input describes one superblock search.
type Input struct {
	Source Picture
	Refs   [2][]Picture
	Pos    Point // Superblock origin in the full resolution picture.
}

// interp holds half-pel interpolations of a reference over a search region:
// b is the horizontal half sample to the right of each integer sample, h the
// vertical one below it and j the diagonal one.
type interp struct {
	x0, y0 int // Absolute position of region sample (0,0).
	w, h   int
	stride int
	b      []byte
	hv     []byte
	j      []byte
}

// Context is the scratch state of one motion estimation worker.
type Context struct {
	k dsp.Kernels
	p Params

	// Per-list, per-reference results indexed by block id. BestMV is in
	// quarter-pel units relative to the block position; BestSAD is always
	// the SAD at BestMV; BestSSD is the SSD at BestMV when the fractional
	// metric is SSD.
	BestSAD [2][MaxRefs][NumBlocks]uint32
	BestSSD [2][MaxRefs][NumBlocks]uint64
	BestMV  [2][MaxRefs][NumBlocks]MV

	// HalfDir is the index into halfDirs of the winning half-pel direction,
	// or dirNone if the integer position stayed best.
	HalfDir [2][MaxRefs][NumBlocks]int

	// Search origin bookkeeping per list and reference.
	HMECenter  [2][MaxRefs]Point
	Center     [2][MaxRefs]Point
	ZeroSAD    [2][MaxRefs]uint32
	SearchArea [2][MaxRefs]Area

	// Bi-prediction results per block.
	BiSAD [NumBlocks]uint32
	BiRef [NumBlocks][2]int

	interp  [2][MaxRefs]interp
	regions []region

	// Search centres and seeds of each HME level and region for the last
	// reference searched, in full resolution samples.
	hmeCenters [3][]Point
	hmeSeeds   [3][]Point

	grids   [dsp.GridBatch][64]uint32
	sads    [NumBlocks]uint32
	scratch [3][]byte
	trace   []State
}

// NewContext returns a context using kernels k. It returns an error if p is
// not valid.
func NewContext(k dsp.Kernels, p Params) (*Context, error) {
	err := p.Validate()
	if err != nil {
		return nil, err
	}
	if p.SearchAreaWidth > MaxSearchArea {
		p.SearchAreaWidth = MaxSearchArea
	}
	if p.SearchAreaHeight > MaxSearchArea {
		p.SearchAreaHeight = MaxSearchArea
	}

	c := &Context{k: k, p: p, regions: make([]region, 0, p.HMERegionsX*p.HMERegionsY)}
	w, h := p.SearchAreaWidth+SBSize+2, p.SearchAreaHeight+SBSize+2
	for l := range c.interp {
		for r := range c.interp[l] {
			c.interp[l][r] = interp{
				stride: w,
				b:      make([]byte, w*h),
				hv:     make([]byte, w*h),
				j:      make([]byte, w*h),
			}
		}
	}
	for i := range c.scratch {
		c.scratch[i] = make([]byte, SBSize*SBSize)
	}
	return c, nil
}

// Params returns the parameters in use, after capping.
func (c *Context) Params() Params { return c.p }

func (c *Context) reset() {
	for l := range c.BestSAD {
		for r := range c.BestSAD[l] {
			for b := range c.BestSAD[l][r] {
				c.BestSAD[l][r][b] = ^uint32(0)
				c.BestSSD[l][r][b] = ^uint64(0)
				c.BestMV[l][r][b] = 0
				c.HalfDir[l][r][b] = dirNone
			}
			c.HMECenter[l][r] = Point{}
			c.Center[l][r] = Point{}
		}
	}
	for b := range c.BiSAD {
		c.BiSAD[b] = ^uint32(0)
	}
	c.trace = c.trace[:0]
}
