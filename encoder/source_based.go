/*
NAME
  source_based.go

DESCRIPTION
  source_based.go provides the source based operations stage, which derives
  per superblock non-moving indices and complexity from the motion
  estimation results and picture analysis statistics.

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
	"math"
)

// Mean absolute difference per sample at zero motion at or above which a
// superblock is considered fully moving.
const movingMAD = 4

func (p *pipeline) sourceBasedOperations(ctx context.Context, id int) error {
	in := p.ircResults.Consumer(id)
	out := p.demux.Producer(p.demuxPorts.Index(portSBO, id))

	for {
		tw, err := in.Get(ctx)
		if err != nil {
			return err
		}
		pw := tw.Object.pcs
		tw.Release()
		pcs := pw.Object

		if !pcs.EOS {
			sourceStats(pcs)
		}

		err = post(ctx, out, func(t *demuxTask) {
			t.kind, t.pcs, t.pictureNumber = portSBO, pw, pcs.PictureNumber
		})
		if err != nil {
			return err
		}
	}
}

// sourceStats fills the non-moving index and complexity of every
// superblock. Intra pictures have no motion information and are treated as
// moving.
func sourceStats(pcs *ParentPCS) {
	for sb := range pcs.NonMoving {
		pcs.Complexity[sb] = math.Sqrt(pcs.Variance[sb])
		if pcs.SliceType == SliceI {
			pcs.NonMoving[sb] = 0
			continue
		}
		pcs.NonMoving[sb] = nonMovingIndex(pcs.ME[sb].ZeroSAD)
	}
}

// nonMovingIndex maps the zero motion SAD of a superblock to 0 (moving)
// through 100 (static).
func nonMovingIndex(zeroSAD uint32) int {
	mad := float64(zeroSAD) / (sbSize * sbSize)
	if mad >= movingMAD {
		return 0
	}
	return int(math.Round(100 * (1 - mad/movingMAD)))
}
