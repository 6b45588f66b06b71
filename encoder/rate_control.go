/*
NAME
  rate_control.go

DESCRIPTION
  rate_control.go provides the rate control stage, which assigns a QP to
  every started picture and keeps a simple bit budget model from entropy
  coding and packetization feedback.

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
	"math"

	"github.com/ausocean/svtvp9/encoder/config"
)

const (
	intraQPOffset = -2

	// maxQPAdjust bounds the VBR correction of the base QP.
	maxQPAdjust = 12
)

// rateModel tracks coded bits against the target of a VBR stream. It is
// owned by the rate control goroutine.
type rateModel struct {
	balance  float64 // Coded bits in excess of the target so far.
	pictures int
	bits     int
}

// qp returns the QP of a picture of the given slice type and temporal layer
// under parameters rc.
func (m *rateModel) qp(rc *rcParams, slice SliceType, layer int) int {
	qp := rc.qp + layer
	if slice == SliceI {
		qp = rc.qp + intraQPOffset
	}
	if rc.mode == config.RCModeVBR {
		qp += m.adjustment(rc)
	}
	return clampInt(qp, rc.minQP, rc.maxQP)
}

// adjustment returns the QP correction for the current balance: one step
// per two pictures worth of excess bits.
func (m *rateModel) adjustment(rc *rcParams) int {
	target := pictureTarget(rc)
	if target == 0 {
		return 0
	}
	adj := int(math.Round(m.balance / (2 * target)))
	return clampInt(adj, -maxQPAdjust, maxQPAdjust)
}

// update accounts for a coded picture of the given size.
func (m *rateModel) update(rc *rcParams, bits int) {
	m.pictures++
	m.bits += bits
	m.balance += float64(bits) - pictureTarget(rc)
}

// pictureTarget returns the target size of one picture in bits.
func pictureTarget(rc *rcParams) float64 {
	if rc.frameRate == 0 {
		return 0
	}
	return float64(rc.targetBitRate) / float64(rc.frameRate)
}

func (p *pipeline) rateControl(ctx context.Context, _ int) error {
	in := p.rcTasks.Consumer(0)
	out := p.rateResults.Producer(0)
	var m rateModel

	for {
		tw, err := in.Get(ctx)
		if err != nil {
			return err
		}
		task := *tw.Object
		tw.Release()

		rc := p.scs.rateControl()
		switch task.kind {
		case portPictureManager:
			child := task.child.Object
			if !child.parent.Object.EOS {
				child.QP = m.qp(rc, task.sliceType, task.layer)
			}
			err = post(ctx, out, func(t *codingTask) { t.child, t.row = task.child, 0 })
			if err != nil {
				return err
			}
		case portEntropyCoding:
			p.log.Debug("picture coded", "picture", task.pictureNumber, "bits", task.bits)
		case portPacketization:
			m.update(rc, task.bits)
			p.log.Debug("picture packetized", "picture", task.pictureNumber, "bits", task.bits, "balance", m.balance)
		default:
			return fmt.Errorf("unknown rate control input %d", task.kind)
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
