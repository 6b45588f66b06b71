/*
NAME
  gop.go

DESCRIPTION
  gop.go provides the prediction structure planner used by picture decision.
  It turns pictures in display order into coding plans in decode order:
  slice type, temporal layer, reference lists and the references that will
  no longer be used.

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

// gopPlan is the coding plan of one picture.
type gopPlan struct {
	num   uint64
	slice SliceType
	layer int
	isRef bool
	refs  [2][]uint64 // Nearest first.
	drops []refDrop   // References no longer used after this picture.
}

// gopPlanner assigns prediction structure. With random access, pictures are
// queued until a mini-GOP is complete; the last picture of the mini-GOP is
// coded first as the anchor and the others follow in dyadic order, each
// predicted from the nearest coded references on either side. Otherwise
// every picture is predicted from the previous ones.
type gopPlanner struct {
	randomAccess bool
	miniGOP      int
	levels       int
	refsPerList  int

	window     []uint64 // Long lived references, oldest first.
	queue      []uint64 // Pictures waiting for their mini-GOP.
	dependents map[uint64]int
}

func newGOPPlanner(randomAccess bool, levels, refsPerList int) *gopPlanner {
	g := &gopPlanner{
		randomAccess: randomAccess,
		miniGOP:      1,
		levels:       levels,
		refsPerList:  refsPerList,
		dependents:   make(map[uint64]int),
	}
	if randomAccess {
		g.miniGOP = 1 << levels
	}
	return g
}

// add plans picture num, given in display order. It returns the plans of
// every picture that can now be coded, in decode order.
func (g *gopPlanner) add(num uint64, intra bool) []gopPlan {
	if intra {
		plans := g.flushQueue()
		i := gopPlan{num: num, slice: SliceI, isRef: true}
		i.drops = g.dropAll()
		g.window = append(g.window, num)
		return append(plans, i)
	}
	if !g.randomAccess || len(g.window) == 0 {
		plans := g.flushQueue()
		return append(plans, g.lowDelay(num))
	}
	g.queue = append(g.queue, num)
	if len(g.queue) < g.miniGOP {
		return nil
	}
	return g.codeMiniGOP()
}

// flush plans every queued picture and drops every reference. The drops
// are returned separately, to be attached to the end of sequence.
func (g *gopPlanner) flush() ([]gopPlan, []refDrop) {
	plans := g.flushQueue()
	return plans, g.dropAll()
}

// flushQueue codes the pictures of an incomplete mini-GOP in display order
// with low delay prediction.
func (g *gopPlanner) flushQueue() []gopPlan {
	var plans []gopPlan
	for _, num := range g.queue {
		plans = append(plans, g.lowDelay(num))
	}
	g.queue = g.queue[:0]
	return plans
}

// lowDelay plans num as a P picture predicted from the most recent
// references.
func (g *gopPlanner) lowDelay(num uint64) gopPlan {
	pl := gopPlan{num: num, slice: SliceP, isRef: true}
	pl.refs[0] = g.recent(nil)
	g.use(&pl)
	g.window = append(g.window, num)
	pl.drops = g.prune(nil)
	return pl
}

// codeMiniGOP plans a complete mini-GOP: the anchor first, then the
// pictures between the previous anchor and it by recursive bisection.
func (g *gopPlanner) codeMiniGOP() []gopPlan {
	n := len(g.queue)
	plans := make([]gopPlan, 0, n)

	// Positions of the pictures available as references, relative to the
	// start of the mini-GOP. The window occupies -1, -2, ...
	type ref struct {
		pos int
		num uint64
	}
	var coded []ref
	for i := range g.window {
		coded = append(coded, ref{pos: -1 - i, num: g.window[len(g.window)-1-i]})
	}

	anchor := gopPlan{num: g.queue[n-1], slice: SliceP, isRef: true}
	anchor.refs[0] = g.recent(nil)
	g.use(&anchor)
	plans = append(plans, anchor)
	coded = append(coded, ref{pos: n - 1, num: anchor.num})

	var inner []uint64
	var split func(lo, hi, layer int)
	split = func(lo, hi, layer int) {
		if hi-lo < 2 {
			return
		}
		mid := lo + (hi-lo)/2
		pl := gopPlan{num: g.queue[mid], slice: SliceB, layer: layer, isRef: layer < g.levels}

		// Nearest past references, then nearest future ones.
		for d := 1; len(pl.refs[0]) < g.refsPerList && mid-d >= -len(g.window); d++ {
			for _, r := range coded {
				if r.pos == mid-d {
					pl.refs[0] = append(pl.refs[0], r.num)
				}
			}
		}
		for d := 1; len(pl.refs[1]) < g.refsPerList && mid+d < n; d++ {
			for _, r := range coded {
				if r.pos == mid+d {
					pl.refs[1] = append(pl.refs[1], r.num)
				}
			}
		}
		if len(pl.refs[0]) == 0 {
			pl.refs[0], pl.refs[1] = pl.refs[1], nil
			pl.slice = SliceP
		}
		g.use(&pl)
		plans = append(plans, pl)
		if pl.isRef {
			coded = append(coded, ref{pos: mid, num: pl.num})
			inner = append(inner, pl.num)
		}
		split(lo, mid, layer+1)
		split(mid, hi, layer+1)
	}
	split(-1, n-1, 1)

	// Inner references expire with the mini-GOP; the anchor joins the
	// window. Drops go with the last picture planned.
	last := &plans[len(plans)-1]
	for _, num := range inner {
		last.drops = append(last.drops, g.drop(num))
	}
	g.window = append(g.window, anchor.num)
	last.drops = g.prune(last.drops)
	g.queue = g.queue[:0]
	return plans
}

// recent returns up to refsPerList window references, most recent first,
// appended to dst.
func (g *gopPlanner) recent(dst []uint64) []uint64 {
	for i := len(g.window) - 1; i >= 0 && len(dst) < g.refsPerList; i-- {
		dst = append(dst, g.window[i])
	}
	return dst
}

// use counts pl as a dependent of each of its references.
func (g *gopPlanner) use(pl *gopPlan) {
	for _, l := range pl.refs {
		for _, num := range l {
			g.dependents[num]++
		}
	}
}

// prune drops the oldest window references beyond refsPerList.
func (g *gopPlanner) prune(drops []refDrop) []refDrop {
	for len(g.window) > g.refsPerList {
		drops = append(drops, g.drop(g.window[0]))
		g.window = g.window[1:]
	}
	return drops
}

func (g *gopPlanner) dropAll() []refDrop {
	var drops []refDrop
	for _, num := range g.window {
		drops = append(drops, g.drop(num))
	}
	g.window = g.window[:0]
	return drops
}

func (g *gopPlanner) drop(num uint64) refDrop {
	d := refDrop{pictureNumber: num, dependents: g.dependents[num]}
	delete(g.dependents, num)
	return d
}
