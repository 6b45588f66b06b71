/*
NAME
  resource_coordination.go

DESCRIPTION
  resource_coordination.go provides the first stage of the pipeline, which
  gives every input buffer a parent picture control set and a picture
  number.

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

// resourceCoordination numbers input pictures in arrival order, which is
// display order.
func (p *pipeline) resourceCoordination(ctx context.Context, _ int) error {
	in := p.input.Consumer(0)
	pool := p.parents.Producer(0)
	out := p.coordResults.Producer(0)

	var num uint64
	for {
		iw, err := in.Get(ctx)
		if err != nil {
			return err
		}
		pw, err := pool.GetEmpty(ctx)
		if err != nil {
			return err
		}
		pcs := pw.Object
		pcs.reset()
		pcs.PictureNumber = num
		pcs.PTS = iw.Object.pts
		pcs.EOS = iw.Object.eos
		pcs.input = iw
		num++

		p.log.Debug("picture received", "picture", pcs.PictureNumber, "eos", pcs.EOS)
		err = post(ctx, out, func(t *pictureTask) { t.pcs, t.segment = pw, 0 })
		if err != nil {
			return err
		}
	}
}
