/*
NAME
  motion_estimation.go

DESCRIPTION
  motion_estimation.go provides the motion estimation stage. Each instance
  owns a search context and runs the superblock search over the rows of one
  picture segment at a time.

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

	"github.com/ausocean/svtvp9/codec/vp9/me"
)

func (p *pipeline) motionEstimation(ctx context.Context, id int) error {
	in := p.meTasks.Consumer(id)
	out := p.meResults.Producer(id)
	mc := p.meContexts[id]
	s := p.scs

	var input me.Input
	for {
		tw, err := in.Get(ctx)
		if err != nil {
			return err
		}
		pw, seg := tw.Object.pcs, tw.Object.segment
		tw.Release()
		pcs := pw.Object

		if !pcs.EOS {
			input.Source = pcs.paRef.Object.pic
			for l := range input.Refs {
				input.Refs[l] = input.Refs[l][:0]
				for _, rw := range pcs.paRefs[l] {
					input.Refs[l] = append(input.Refs[l], rw.Object.pic)
				}
			}
			first, end := s.segmentRows(seg)
			for sb := first * s.SBCols; sb < end*s.SBCols; sb++ {
				input.Pos = me.Point{X: (sb % s.SBCols) * sbSize, Y: (sb / s.SBCols) * sbSize}
				mc.Search(&input, &pcs.ME[sb])
			}
		}

		err = post(ctx, out, func(t *pictureTask) { t.pcs, t.segment = pw, seg })
		if err != nil {
			return err
		}
	}
}
