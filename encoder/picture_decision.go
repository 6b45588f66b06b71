/*
NAME
  picture_decision.go

DESCRIPTION
  picture_decision.go provides the picture decision stage. It restores
  display order, detects scene changes, decides intra pictures and the
  prediction structure, assigns decode order and splits each picture into
  motion estimation segments.

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
	"context"
	"fmt"

	"github.com/ausocean/svtvp9/encoder/config"
	"github.com/ausocean/svtvp9/sysres"
)

// sceneChangeThreshold is the histogram distance above which a picture
// starts a new scene.
const sceneChangeThreshold = 0.6

// decider is the state of picture decision.
type decider struct {
	scs     *SequenceControlSet
	planner *gopPlanner

	next    uint64 // Next picture number in display order.
	pending map[uint64]*sysres.Wrapper[*ParentPCS]
	waiting map[uint64]*sysres.Wrapper[*ParentPCS] // Queued by the planner.

	// Analysis references held while a picture may still be referenced.
	held map[uint64]*sysres.Wrapper[*paReference]

	decodeOrder uint64
	sinceIntra  uint
	first       bool
	prevHist    [histBins]float64
}

func newDecider(s *SequenceControlSet) *decider {
	c := &s.Config
	return &decider{
		scs:     s,
		planner: newGOPPlanner(c.PredStructure == config.PredRandomAccess, int(c.HierarchicalLevels), int(c.RefsPerList)),
		pending: make(map[uint64]*sysres.Wrapper[*ParentPCS]),
		waiting: make(map[uint64]*sysres.Wrapper[*ParentPCS]),
		held:    make(map[uint64]*sysres.Wrapper[*paReference]),
		first:   true,
	}
}

func (p *pipeline) pictureDecision(ctx context.Context, _ int) error {
	in := p.paResults.Consumer(0)
	out := p.meTasks.Producer(0)
	d := newDecider(p.scs)

	for {
		tw, err := in.Get(ctx)
		if err != nil {
			return err
		}
		pw := tw.Object.pcs
		tw.Release()
		d.pending[pw.Object.PictureNumber] = pw

		for {
			nw, ok := d.pending[d.next]
			if !ok {
				break
			}
			delete(d.pending, d.next)
			d.next++

			decided, err := d.decide(nw)
			if err != nil {
				return err
			}
			for _, w := range decided {
				pcs := w.Object
				p.log.Debug("picture decided", "picture", pcs.PictureNumber, "decode", pcs.DecodeOrder, "slice", pcs.SliceType.String(), "layer", pcs.Layer, "l0", pcs.RefList[0], "l1", pcs.RefList[1])
				err = postSegments(ctx, out, w)
				if err != nil {
					return err
				}
			}
		}
	}
}

// postSegments posts one motion estimation task per segment of pw. The
// picture belongs to the downstream stages from the first post on, so the
// segment count is read before it.
func postSegments(ctx context.Context, out *sysres.Producer[*pictureTask], pw *sysres.Wrapper[*ParentPCS]) error {
	n := pw.Object.meSegments
	for seg := 0; seg < n; seg++ {
		err := post(ctx, out, func(t *pictureTask) { t.pcs, t.segment = pw, seg })
		if err != nil {
			return err
		}
	}
	return nil
}

// decide takes the next picture in display order and returns the pictures
// that are now decided, in decode order.
func (d *decider) decide(pw *sysres.Wrapper[*ParentPCS]) ([]*sysres.Wrapper[*ParentPCS], error) {
	pcs := pw.Object
	var decided []*sysres.Wrapper[*ParentPCS]

	if pcs.EOS {
		plans, drops := d.planner.flush()
		for i := range plans {
			w, err := d.apply(&plans[i])
			if err != nil {
				return nil, err
			}
			decided = append(decided, w)
		}
		d.release(drops)
		pcs.drops = append(pcs.drops, drops...)
		pcs.DecodeOrder = d.decodeOrder
		d.decodeOrder++
		pcs.meSegments = 1
		return append(decided, pw), nil
	}

	c := &d.scs.Config
	if !d.first && !c.DisableSceneChange && histogramDistance(&d.prevHist, &pcs.Histogram) > sceneChangeThreshold {
		pcs.SceneChange = true
	}
	d.prevHist = pcs.Histogram
	intra := d.first || pcs.SceneChange || d.sinceIntra >= c.IntraPeriod
	d.first = false
	if intra {
		d.sinceIntra = 0
	}
	d.sinceIntra++

	d.waiting[pcs.PictureNumber] = pw
	plans := d.planner.add(pcs.PictureNumber, intra)
	for i := range plans {
		w, err := d.apply(&plans[i])
		if err != nil {
			return nil, err
		}
		decided = append(decided, w)
	}
	return decided, nil
}

// apply writes plan pl into its picture control set, retaining the
// analysis references it uses and releasing those it drops.
func (d *decider) apply(pl *gopPlan) (*sysres.Wrapper[*ParentPCS], error) {
	pw, ok := d.waiting[pl.num]
	if !ok {
		return nil, fmt.Errorf("planned picture %d is not waiting", pl.num)
	}
	delete(d.waiting, pl.num)

	pcs := pw.Object
	pcs.SliceType, pcs.Layer, pcs.IsRef = pl.slice, pl.layer, pl.isRef
	pcs.DecodeOrder = d.decodeOrder
	d.decodeOrder++
	pcs.meSegments = d.scs.MESegments
	for l := range pl.refs {
		for _, num := range pl.refs[l] {
			rw, ok := d.held[num]
			if !ok {
				return nil, fmt.Errorf("picture %d references %d which is not held", pl.num, num)
			}
			rw.Retain(1)
			pcs.RefList[l] = append(pcs.RefList[l], num)
			pcs.paRefs[l] = append(pcs.paRefs[l], rw)
		}
	}
	if pcs.IsRef {
		pcs.paRef.Retain(1)
		d.held[pcs.PictureNumber] = pcs.paRef
	}
	d.release(pl.drops)
	pcs.drops = append(pcs.drops, pl.drops...)
	return pw, nil
}

// release gives up the hold on dropped references.
func (d *decider) release(drops []refDrop) {
	for _, dr := range drops {
		if rw, ok := d.held[dr.pictureNumber]; ok {
			rw.Release()
			delete(d.held, dr.pictureNumber)
		}
	}
}
