/*
NAME
  search.go

DESCRIPTION
  search.go provides the motion estimation state machine run for every
  superblock.

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

import "fmt"

// State is a step of the per reference search.
type State int

const (
	Idle State = iota
	HMELevel0
	HMELevel1
	HMELevel2
	FullPel
	HalfPel
	QuarterPel
	BiPred
	Done
)

var stateNames = [...]string{"Idle", "HMELevel0", "HMELevel1", "HMELevel2", "FullPel", "HalfPel", "QuarterPel", "BiPred", "Done"}

func (s State) String() string {
	if s < Idle || s > Done {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

func (c *Context) enabled(s State) bool {
	switch s {
	case HMELevel0, HMELevel1, HMELevel2:
		return c.p.HME && c.p.HMELevel[s-HMELevel0]
	case HalfPel:
		return c.p.HalfPel
	case QuarterPel:
		return c.p.QuarterPel
	case BiPred:
		return c.p.BiPred
	default:
		return true
	}
}

// next returns the first enabled state after s.
func (c *Context) next(s State) State {
	for s++; s < Done && !c.enabled(s); s++ {
	}
	return s
}

// Trace returns the states visited by the last Search, in order.
func (c *Context) Trace() []State { return c.trace }

// Search runs motion estimation for the superblock described by in, writing
// the ranked candidates of every block to out. Both pictures must have the
// same geometry and in.Pos must be superblock aligned inside the picture.
func (c *Context) Search(in *Input, out *Result) {
	c.reset()
	for l := range in.Refs {
		for r := 0; r < refCount(in, l); r++ {
			c.searchRef(in, l, r)
		}
	}
	bi := c.p.BiPred && refCount(in, 0) > 0 && refCount(in, 1) > 0
	if bi {
		c.trace = append(c.trace, BiPred)
		c.biPred(in)
	}
	c.rank(in, out, bi)
	c.trace = append(c.trace, Done)
}

// searchRef runs the uni-directional states for reference r of list l.
func (c *Context) searchRef(in *Input, l, r int) {
	ref := &in.Refs[l][r]
	c.regions = append(c.regions[:0], region{})
	for i := range c.hmeCenters {
		c.hmeCenters[i], c.hmeSeeds[i] = c.hmeCenters[i][:0], c.hmeSeeds[i][:0]
	}
	hme, subpel := false, false
	for s := c.next(Idle); s < BiPred; s = c.next(s) {
		c.trace = append(c.trace, s)
		switch s {
		case HMELevel0:
			c.hmeLevel0(in, ref)
			hme = true
		case HMELevel1:
			c.hmeLevel1(in, ref)
			hme = true
		case HMELevel2:
			c.hmeLevel2(in, ref)
			hme = true
		case FullPel:
			if hme {
				c.HMECenter[l][r] = c.bestRegion()
				c.Center[l][r], _ = CheckZeroZeroCenter(c.k, in.Source.Full, ref.Full, in.Pos, c.HMECenter[l][r])
			}
			c.fullPel(in, l, r)
		case HalfPel, QuarterPel:
			if !subpel {
				c.prepareSubpel(in, l, r)
				subpel = true
			}
			if s == HalfPel {
				c.halfPel(in, l, r)
			} else {
				c.quarterPel(in, l, r)
			}
		}
	}
}
