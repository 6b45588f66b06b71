/*
NAME
  rate_control_test.go

DESCRIPTION
  rate_control_test.go provides testing for QP assignment and the rate
  model.

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
	"math"
	"testing"

	"github.com/ausocean/svtvp9/encoder/config"
)

func TestConstantQP(t *testing.T) {
	tests := []struct {
		name  string
		rc    rcParams
		slice SliceType
		layer int
		want  int
	}{
		{name: "intra", rc: rcParams{mode: config.RCModeCQP, qp: 30, maxQP: 63}, slice: SliceI, want: 28},
		{name: "anchor", rc: rcParams{mode: config.RCModeCQP, qp: 30, maxQP: 63}, slice: SliceP, want: 30},
		{name: "layer 3", rc: rcParams{mode: config.RCModeCQP, qp: 30, maxQP: 63}, slice: SliceB, layer: 3, want: 33},
		{name: "clamped high", rc: rcParams{mode: config.RCModeCQP, qp: 30, maxQP: 31}, slice: SliceB, layer: 3, want: 31},
		{name: "clamped low", rc: rcParams{mode: config.RCModeCQP, qp: 1, minQP: 4, maxQP: 63}, slice: SliceI, want: 4},
	}

	for _, test := range tests {
		var m rateModel
		got := m.qp(&test.rc, test.slice, test.layer)
		if got != test.want {
			t.Errorf("%s: unexpected qp: got %d, want %d", test.name, got, test.want)
		}
	}
}

func TestVariableBitRate(t *testing.T) {
	rc := &rcParams{mode: config.RCModeVBR, targetBitRate: 30000, frameRate: 30, qp: 30, maxQP: 63}

	tests := []struct {
		name string
		bits []int
		want int
	}{
		{name: "on target", bits: []int{1000, 1000}, want: 30},
		{name: "overspend", bits: []int{5000}, want: 32},
		{name: "underspend", bits: []int{0, 0, 0, 0}, want: 28},
		{name: "large overspend", bits: []int{1 << 20}, want: 30 + maxQPAdjust},
	}

	for _, test := range tests {
		var m rateModel
		for _, b := range test.bits {
			m.update(rc, b)
		}
		got := m.qp(rc, SliceP, 0)
		if got != test.want {
			t.Errorf("%s: unexpected qp: got %d, want %d (balance %v)", test.name, got, test.want, m.balance)
		}
		if m.pictures != len(test.bits) {
			t.Errorf("%s: unexpected picture count: got %d, want %d", test.name, m.pictures, len(test.bits))
		}
	}
}

func TestReconfigureRateControl(t *testing.T) {
	c := config.Config{Logger: (*testLogger)(t), SourceWidth: 64, SourceHeight: 64, QP: 20}
	if err := c.Validate(); err != nil {
		t.Fatalf("did not expect error from Validate: %v", err)
	}
	s := newSequenceControlSet(c)
	old := s.rateControl()
	if old.qp != 20 {
		t.Fatalf("unexpected initial qp: got %d, want 20", old.qp)
	}

	c.QP = 40
	s.reconfigure(&c)
	if got := s.rateControl().qp; got != 40 {
		t.Errorf("unexpected qp after reconfigure: got %d, want 40", got)
	}
	if old.qp != 20 {
		t.Error("reconfigure modified a snapshot in use")
	}
}

func TestSADLambda(t *testing.T) {
	tests := []struct {
		qp   int
		want float64
	}{
		{qp: 12, want: 0.92},
		{qp: 18, want: 1.84},
		{qp: 6, want: 0.46},
	}
	for _, test := range tests {
		got := sadLambda(test.qp)
		if math.Abs(got-test.want) > 1e-9 {
			t.Errorf("qp %d: unexpected lambda: got %v, want %v", test.qp, got, test.want)
		}
	}
}
