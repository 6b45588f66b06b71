/*
NAME
  entropy.go

DESCRIPTION
  entropy.go provides the entropy coding stage. Each superblock row is
  serialized with Exp-Golomb codes: per superblock the number of coded
  blocks, then per block its id, mode, references and motion vectors, and
  its quantized levels as (run, level) pairs.

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

	"github.com/ausocean/svtvp9/codec/vp9/bits"
	"github.com/ausocean/svtvp9/codec/vp9/me"
)

func (p *pipeline) entropyCoding(ctx context.Context, id int) error {
	in := p.encDecResults.Consumer(id)
	out := p.ecResults.Producer(id)
	feedback := p.rcTasks.Producer(p.rcPorts.Index(portEntropyCoding, id))
	bw := bits.NewBitWriter(make([]byte, 0, p.scs.SBCols*sbSize*sbSize))
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
			bw.Reset()
			for sb := row * s.SBCols; sb < (row+1)*s.SBCols; sb++ {
				writeSB(bw, &child.sbs[sb])
			}
			child.rows[row].data = append(child.rows[row].data[:0], bw.Bytes()...)
			if int(child.codeDone.Add(1)) < s.SBRows {
				continue
			}

			child.bits = 0
			for i := range child.rows {
				child.bits += 8 * len(child.rows[i].data)
			}
			pcs := child.parent.Object
			err = post(ctx, feedback, func(t *rcTask) {
				*t = rcTask{kind: portEntropyCoding, pictureNumber: pcs.PictureNumber, sliceType: pcs.SliceType, layer: pcs.Layer, bits: child.bits}
			})
			if err != nil {
				return err
			}
		}

		err = post(ctx, out, func(t *codingTask) { t.child, t.row = cw, -1 })
		if err != nil {
			return err
		}
	}
}

// writeSB serializes the decisions of one superblock.
func writeSB(bw *bits.BitWriter, dec *sbDecision) {
	bw.WriteUe(uint64(len(dec.blocks)))
	for i := range dec.blocks {
		blk := &dec.blocks[i]
		size := me.Blocks[blk.id].Size
		bw.WriteUe(uint64(blk.id))
		bw.WriteUe(uint64(blk.mode))
		for l := 0; l < 2; l++ {
			if blk.mode == modeBi || blk.mode == modeL0+l {
				bw.WriteUe(uint64(blk.ref[l]))
				bw.WriteSe(int64(blk.mv[l].X()))
				bw.WriteSe(int64(blk.mv[l].Y()))
			}
		}
		writeLevels(bw, dec.levels[blk.offset:blk.offset+size*size])
	}
}

// writeLevels writes the number of non-zero levels followed by the zero run
// before, and the value of, each one.
func writeLevels(bw *bits.BitWriter, levels []int16) {
	var n int
	for _, l := range levels {
		if l != 0 {
			n++
		}
	}
	bw.WriteUe(uint64(n))
	run := 0
	for _, l := range levels {
		if l == 0 {
			run++
			continue
		}
		bw.WriteUe(uint64(run))
		bw.WriteSe(int64(l))
		run = 0
	}
}

// readLevels decodes levels written by writeLevels into dst, which must be
// zeroed.
func readLevels(br *bits.BitReader, dst []int16) error {
	n, err := br.ReadUe()
	if err != nil {
		return err
	}
	pos := 0
	for i := uint64(0); i < n; i++ {
		run, err := br.ReadUe()
		if err != nil {
			return err
		}
		l, err := br.ReadSe()
		if err != nil {
			return err
		}
		pos += int(run)
		if pos >= len(dst) {
			return errLevelOverrun
		}
		dst[pos] = int16(l)
		pos++
	}
	return nil
}
