/*
NAME
  initial_rate_control.go

DESCRIPTION
  initial_rate_control.go provides the initial rate control stage, which
  collects the motion estimation segments of each picture, totals its
  distortion and releases the analysis references it searched.

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

import "context"

func (p *pipeline) initialRateControl(ctx context.Context, _ int) error {
	in := p.meResults.Consumer(0)
	out := p.ircResults.Producer(0)

	for {
		tw, err := in.Get(ctx)
		if err != nil {
			return err
		}
		pw := tw.Object.pcs
		tw.Release()
		pcs := pw.Object

		pcs.meDone++
		if pcs.meDone < pcs.meSegments {
			continue
		}

		if !pcs.EOS {
			pcs.Distortion = 0
			for i := range pcs.ME {
				pcs.Distortion += uint64(pcs.ME[i].Distortion())
			}
		}
		for l := range pcs.paRefs {
			for _, rw := range pcs.paRefs[l] {
				rw.Release()
			}
			pcs.paRefs[l] = pcs.paRefs[l][:0]
		}

		p.log.Debug("motion estimation complete", "picture", pcs.PictureNumber, "distortion", pcs.Distortion)
		err = post(ctx, out, func(t *pictureTask) { t.pcs, t.segment = pw, 0 })
		if err != nil {
			return err
		}
	}
}
