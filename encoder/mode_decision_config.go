/*
NAME
  mode_decision_config.go

DESCRIPTION
  mode_decision_config.go provides the mode decision configuration stage,
  which derives the picture lambda from its QP and splits the picture into
  one EncDec task per superblock row.

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

// sadLambda returns the Lagrangian multiplier weighting rate against SAD
// distortion at qp.
func sadLambda(qp int) float64 {
	return 0.92 * math.Pow(2, float64(qp-12)/6)
}

func (p *pipeline) modeDecisionConfiguration(ctx context.Context, _ int) error {
	in := p.rateResults.Consumer(0)
	out := p.encDecTasks.Producer(0)

	for {
		tw, err := in.Get(ctx)
		if err != nil {
			return err
		}
		cw := tw.Object.child
		tw.Release()
		child := cw.Object

		if child.parent.Object.EOS {
			err = post(ctx, out, func(t *codingTask) { t.child, t.row = cw, -1 })
			if err != nil {
				return err
			}
			continue
		}

		child.Lambda = sadLambda(child.QP)
		for row := 0; row < p.scs.SBRows; row++ {
			err = post(ctx, out, func(t *codingTask) { t.child, t.row = cw, row })
			if err != nil {
				return err
			}
		}
	}
}
