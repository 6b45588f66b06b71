/*
NAME
  encdec.go

DESCRIPTION
  encdec.go provides the EncDec stage. For each superblock of a row it
  decides the partitioning and prediction of every block, codes the
  residual and reconstructs the result. The worker completing the last row
  of a reference picture extends its borders and reports it reconstructed
  to the picture manager.

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
	"math/bits"

	"github.com/ausocean/svtvp9/codec/vp9/dsp"
	"github.com/ausocean/svtvp9/codec/vp9/me"
	"github.com/ausocean/svtvp9/codec/vp9/picture"
)

const (
	// staticIndex is the non-moving index from which a superblock is coded
	// whole.
	staticIndex = 90

	intraModeBits = 1
	splitBits     = 1
	directionBits = 2
)

// encDecWorker is the scratch state of one EncDec instance.
type encDecWorker struct {
	k      dsp.Kernels
	pred   [3][]byte
	res    []int16
	leaves []codedBlock
}

func newEncDecWorker(k dsp.Kernels) *encDecWorker {
	w := &encDecWorker{k: k, res: make([]int16, sbSize*sbSize), leaves: make([]codedBlock, 0, me.NumBlocks)}
	for i := range w.pred {
		w.pred[i] = make([]byte, sbSize*sbSize)
	}
	return w
}

func (p *pipeline) encDec(ctx context.Context, id int) error {
	in := p.encDecTasks.Consumer(id)
	out := p.encDecResults.Producer(id)
	feedback := p.demux.Producer(p.demuxPorts.Index(portEncDec, id))
	w := p.encDecWorkers[id]
	s := p.scs

	for {
		tw, err := in.Get(ctx)
		if err != nil {
			return err
		}
		cw, row := tw.Object.child, tw.Object.row
		tw.Release()
		child := cw.Object

		if row >= 0 {
			for col := 0; col < s.SBCols; col++ {
				w.encodeSB(child, row*s.SBCols+col, col*sbSize, row*sbSize)
			}
			if int(child.encDone.Add(1)) == s.SBRows {
				pcs := child.parent.Object
				child.recon.Object.recon.ExtendBorders()
				if pcs.IsRef {
					err = post(ctx, feedback, func(t *demuxTask) {
						t.kind, t.pcs, t.pictureNumber = portEncDec, nil, pcs.PictureNumber
					})
					if err != nil {
						return err
					}
				}
			}
		}

		err = post(ctx, out, func(t *codingTask) { t.child, t.row = cw, row })
		if err != nil {
			return err
		}
	}
}

// encodeSB decides and codes superblock sb at (x0, y0).
func (w *encDecWorker) encodeSB(child *ChildPCS, sb, x0, y0 int) {
	pcs := child.parent.Object
	src := pcs.paRef.Object.pic.Full
	recon := child.recon.Object.recon
	dec := &child.sbs[sb]
	dec.blocks, dec.levels = dec.blocks[:0], dec.levels[:0]

	w.leaves = w.leaves[:0]
	w.decide(pcs, sb, src, x0, y0, me.Block64, child.Lambda)

	q := qStep(child.QP)
	for i := range w.leaves {
		blk := &w.leaves[i]
		b := me.Blocks[blk.id]
		x, y := x0+b.X, y0+b.Y
		pred := w.predict(child, recon, blk, x, y, b.Size)
		blk.offset = len(dec.levels)
		dec.levels = quantize(src.At(x, y), src.Stride, pred, b.Size, q, dec.levels, w.res)
		w.k.AddResidual(recon.At(x, y), recon.Stride, pred, sbSize, w.res, sbSize, b.Size, b.Size)
		dec.blocks = append(dec.blocks, *blk)
	}
}

// decide chooses between coding block id whole and splitting it, appending
// the chosen leaves to w.leaves in coding order. It returns the cost of the
// choice.
func (w *encDecWorker) decide(pcs *ParentPCS, sb int, src *picture.Buffer, x0, y0, id int, lambda float64) float64 {
	cost, leaf := w.leafCost(pcs, sb, src, x0, y0, id, lambda)
	kids, ok := me.Children(id)
	if !ok || (id == me.Block64 && pcs.NonMoving[sb] >= staticIndex) {
		w.leaves = append(w.leaves, leaf)
		return cost
	}

	n := len(w.leaves)
	split := lambda * splitBits
	for _, c := range kids {
		split += w.decide(pcs, sb, src, x0, y0, c, lambda)
	}
	if split < cost {
		return split
	}
	w.leaves = append(w.leaves[:n], leaf)
	return cost
}

// leafCost returns the cheapest way of coding block id whole. Intra cost
// is estimated from the source, inter cost from the best motion
// estimation candidate. Inter wins ties.
func (w *encDecWorker) leafCost(pcs *ParentPCS, sb int, src *picture.Buffer, x0, y0, id int, lambda float64) (float64, codedBlock) {
	b := me.Blocks[id]
	x, y := x0+b.X, y0+b.Y
	fill(w.pred[0], dcValue(src, x, y, b.Size), b.Size)
	cost := float64(w.k.SAD(src.At(x, y), src.Stride, w.pred[0], sbSize, b.Size, b.Size)) + lambda*intraModeBits
	leaf := codedBlock{id: id, mode: modeIntra}
	if pcs.SliceType == SliceI {
		return cost, leaf
	}

	res := &pcs.ME[sb].Blocks[id]
	if res.Count == 0 {
		return cost, leaf
	}
	c := res.Candidates[0]
	inter := float64(c.SAD) + lambda*float64(mvBits(&c))
	if inter <= cost {
		cost = inter
		leaf = codedBlock{id: id, mode: modeL0 + int(c.Dir), ref: c.Ref, mv: c.MV}
	}
	return cost, leaf
}

// predict builds the prediction of blk at (x, y) and returns it, with
// stride sbSize.
func (w *encDecWorker) predict(child *ChildPCS, recon *picture.Buffer, blk *codedBlock, x, y, size int) []byte {
	switch blk.mode {
	case modeL0, modeL1:
		l := blk.mode - modeL0
		predictInter(w.k, child.refs[l][blk.ref[l]].Object.recon, x, y, blk.mv[l], size, w.pred[0])
		return w.pred[0]
	case modeBi:
		predictInter(w.k, child.refs[0][blk.ref[0]].Object.recon, x, y, blk.mv[0], size, w.pred[0])
		predictInter(w.k, child.refs[1][blk.ref[1]].Object.recon, x, y, blk.mv[1], size, w.pred[1])
		w.k.Average(w.pred[2], sbSize, w.pred[0], sbSize, w.pred[1], sbSize, size, size)
		return w.pred[2]
	default:
		fill(w.pred[0], dcValue(recon, x, y, size), size)
		return w.pred[0]
	}
}

// mvBits returns the signalling cost of candidate c in bits.
func mvBits(c *me.Candidate) int {
	n := directionBits
	for l := 0; l < 2; l++ {
		if c.Dir == me.PredBi || int(c.Dir) == l {
			n += seBits(c.MV[l].X()) + seBits(c.MV[l].Y())
		}
	}
	return n
}

// seBits returns the length of the signed Exp-Golomb code of v.
func seBits(v int) int {
	k := uint64(2*v - 1)
	if v <= 0 {
		k = uint64(-2 * v)
	}
	return 2*(bits.Len64(k+1)-1) + 1
}
