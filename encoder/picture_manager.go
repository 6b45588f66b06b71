/*
NAME
  picture_manager.go

DESCRIPTION
  picture_manager.go provides the picture manager stage. It starts pictures
  in decode order once their references are reconstructed, giving each a
  child picture control set and a reconstruction buffer, and maintains the
  decoded picture buffer from EncDec feedback and picture decision drops.

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

	"github.com/ausocean/svtvp9/sysres"
)

func (p *pipeline) pictureManager(ctx context.Context, _ int) error {
	in := p.demux.Consumer(0)
	pending := make(map[uint64]*sysres.Wrapper[*ParentPCS])
	var next uint64

	for {
		tw, err := in.Get(ctx)
		if err != nil {
			return err
		}
		task := *tw.Object
		tw.Release()

		switch task.kind {
		case portSBO:
			pending[task.pcs.Object.DecodeOrder] = task.pcs
		case portEncDec:
			p.dpb.markReady(task.pictureNumber)
		default:
			return fmt.Errorf("unknown picture demux input %d", task.kind)
		}

		for {
			pw, ok := pending[next]
			if !ok || !p.dpb.ready(pw.Object.RefList) {
				break
			}
			delete(pending, next)
			next++
			err = p.startPicture(ctx, pw)
			if err != nil {
				return err
			}
		}
	}
}

// startPicture builds the child picture control set of pw and hands it to
// rate control.
func (p *pipeline) startPicture(ctx context.Context, pw *sysres.Wrapper[*ParentPCS]) error {
	pcs := pw.Object
	cw, err := p.children.Producer(0).GetEmpty(ctx)
	if err != nil {
		return err
	}
	child := cw.Object
	child.reset()
	child.parent = pw

	if !pcs.EOS {
		rw, err := p.recons.Producer(0).GetEmpty(ctx)
		if err != nil {
			return err
		}
		rw.Object.pictureNumber = pcs.PictureNumber
		child.recon = rw
		for l := range pcs.RefList {
			for _, num := range pcs.RefList[l] {
				ref, ok := p.dpb.use(num)
				if !ok {
					return fmt.Errorf("picture %d: reference %d not in decoded picture buffer", pcs.PictureNumber, num)
				}
				child.refs[l] = append(child.refs[l], ref)
			}
		}
		if pcs.IsRef {
			p.dpb.add(pcs.PictureNumber, rw)
		}
	}
	for _, d := range pcs.drops {
		p.dpb.drop(d)
	}

	p.log.Debug("picture started", "picture", pcs.PictureNumber, "decode", pcs.DecodeOrder, "dpb", p.dpb.Len())
	out := p.rcTasks.Producer(p.rcPorts.Index(portPictureManager, 0))
	return post(ctx, out, func(t *rcTask) {
		*t = rcTask{
			kind:          portPictureManager,
			child:         cw,
			pictureNumber: pcs.PictureNumber,
			sliceType:     pcs.SliceType,
			layer:         pcs.Layer,
		}
	})
}
