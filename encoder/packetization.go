/*
NAME
  packetization.go

DESCRIPTION
  packetization.go provides the last stage of the pipeline. It restores
  decode order, assembles each picture's header and row payloads into an
  output packet and releases everything the picture held.

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
	"github.com/ausocean/svtvp9/sysres"
)

func (p *pipeline) packetization(ctx context.Context, _ int) error {
	in := p.ecResults.Consumer(0)
	out := p.packets.Producer(0)
	feedback := p.rcTasks.Producer(p.rcPorts.Index(portPacketization, 0))
	pending := make(map[uint64]*sysres.Wrapper[*ChildPCS])
	bw := bits.NewBitWriter(make([]byte, 0, 64))
	var next uint64
	var h FrameHeader

	for {
		tw, err := in.Get(ctx)
		if err != nil {
			return err
		}
		ew := tw.Object.child
		tw.Release()
		pending[ew.Object.parent.Object.DecodeOrder] = ew

		for {
			cw, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++

			child := cw.Object
			pcs := child.parent.Object
			pw, err := out.GetEmpty(ctx)
			if err != nil {
				return err
			}
			pkt := pw.Object
			*pkt = Packet{
				Data:          pkt.Data[:0],
				PTS:           pcs.PTS,
				DecodeOrder:   pcs.DecodeOrder,
				PictureNumber: pcs.PictureNumber,
				SliceType:     pcs.SliceType,
				QP:            child.QP,
				Key:           !pcs.EOS && pcs.SliceType == SliceI,
				Shown:         !pcs.EOS,
				EOS:           pcs.EOS,
				w:             pw,
			}

			if !pcs.EOS {
				h = FrameHeader{
					Key:           pkt.Key,
					Shown:         pkt.Shown,
					PictureNumber: pcs.PictureNumber,
					DecodeOrder:   pcs.DecodeOrder,
					SliceType:     pcs.SliceType,
					QP:            child.QP,
					Layer:         pcs.Layer,
					Width:         p.scs.SourceWidth,
					Height:        p.scs.SourceHeight,
					RowSizes:      h.RowSizes[:0],
				}
				for i := range child.rows {
					h.RowSizes = append(h.RowSizes, len(child.rows[i].data))
				}
				bw.Reset()
				writeFrameHeader(bw, &h)
				pkt.Data = append(pkt.Data, bw.Bytes()...)
				for i := range child.rows {
					pkt.Data = append(pkt.Data, child.rows[i].data...)
				}
			}
			size := 8 * len(pkt.Data)
			p.log.Debug("packet ready", "picture", pkt.PictureNumber, "decode", pkt.DecodeOrder, "bytes", len(pkt.Data), "eos", pkt.EOS)
			out.Post(pw)

			if !pcs.EOS {
				num := pcs.PictureNumber
				err = post(ctx, feedback, func(t *rcTask) {
					*t = rcTask{kind: portPacketization, pictureNumber: num, bits: size}
				})
				if err != nil {
					return err
				}
			}
			releasePicture(cw)
		}
	}
}

// releasePicture releases the child picture control set cw with its parent
// and every object they hold.
func releasePicture(cw *sysres.Wrapper[*ChildPCS]) {
	child := cw.Object
	pw := child.parent
	pcs := pw.Object
	for l := range child.refs {
		for _, rw := range child.refs[l] {
			rw.Release()
		}
	}
	if child.recon != nil {
		child.recon.Release()
	}
	if pcs.paRef != nil {
		pcs.paRef.Release()
	}
	child.reset()
	cw.Release()
	pcs.reset()
	pw.Release()
}
