/*
NAME
  sequence.go

DESCRIPTION
  sequence.go provides the sequence control set: the geometry, stage counts,
  pool sizes and search parameters derived once from the configuration, and
  the rate control parameters that may be changed while encoding.

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
	"sync"
	"sync/atomic"

	"github.com/ausocean/svtvp9/codec/vp9/dsp"
	"github.com/ausocean/svtvp9/codec/vp9/me"
	"github.com/ausocean/svtvp9/encoder/config"
)

const (
	sbSize = me.SBSize

	// Border of full resolution pictures. The 1/4 and 1/16 pictures use
	// half and a quarter of it.
	pad = 80

	histBins = 64

	// Reference slots of the decoded picture buffer.
	dpbSlots = 8
)

// rcParams are the rate control parameters. They are replaced as a whole on
// reconfiguration.
type rcParams struct {
	mode          uint8
	targetBitRate uint
	frameRate     uint
	qp            int
	minQP         int
	maxQP         int
}

func newRCParams(c *config.Config) *rcParams {
	return &rcParams{
		mode:          c.RateControlMode,
		targetBitRate: c.TargetBitRate,
		frameRate:     c.FrameRate,
		qp:            int(c.QP),
		minQP:         int(c.MinQP),
		maxQP:         int(c.MaxQP),
	}
}

// SequenceControlSet is the process wide configuration of an encoder
// instance. Everything but the rate control parameters is immutable once
// built.
type SequenceControlSet struct {
	Config config.Config

	SourceWidth, SourceHeight int
	Width, Height             int // Aligned to the superblock size.
	SBCols, SBRows            int
	MESegments                int
	MiniGOPSize               int

	Asm      dsp.AsmType
	Kernels  dsp.Kernels
	MEParams me.Params

	// Pool sizes.
	ParentCount int
	ChildCount  int
	PARefCount  int
	ReconCount  int

	mu sync.Mutex // Serializes reconfiguration.
	rc atomic.Pointer[rcParams]
}

var asmTypes = map[uint8]dsp.AsmType{
	config.AsmAuto:   dsp.AsmAuto,
	config.AsmC:      dsp.AsmC,
	config.AsmAVX2:   dsp.AsmAVX2,
	config.AsmAVX512: dsp.AsmAVX512,
}

// newSequenceControlSet derives the sequence control set from a validated
// configuration. Kernel selection happens here, once.
func newSequenceControlSet(c config.Config) *SequenceControlSet {
	s := &SequenceControlSet{
		Config:       c,
		SourceWidth:  int(c.SourceWidth),
		SourceHeight: int(c.SourceHeight),
		Width:        align(int(c.SourceWidth), sbSize),
		Height:       align(int(c.SourceHeight), sbSize),
		MiniGOPSize:  c.MiniGOPSize(),
	}
	s.SBCols, s.SBRows = s.Width/sbSize, s.Height/sbSize
	s.MESegments = s.SBRows
	if n := 2 * int(c.MotionEstimationProcesses); n < s.MESegments {
		s.MESegments = n
	}

	s.Kernels = dsp.New(asmTypes[c.AsmType])
	s.Asm = dsp.Detect()
	if a := asmTypes[c.AsmType]; a != dsp.AsmAuto && a < s.Asm {
		s.Asm = a
	}

	s.MEParams = me.Params{
		SearchAreaWidth:  int(c.SearchAreaWidth),
		SearchAreaHeight: int(c.SearchAreaHeight),
		HME:              !c.DisableHME,
		HMELevel:         [3]bool{!c.DisableHMELevel0, !c.DisableHMELevel1, !c.DisableHMELevel2},
		HMELevel0Width:   int(c.HMELevel0Width),
		HMELevel0Height:  int(c.HMELevel0Height),
		HMELevel1Width:   int(c.HMELevel1Width),
		HMELevel1Height:  int(c.HMELevel1Height),
		HMELevel2Width:   int(c.HMELevel2Width),
		HMELevel2Height:  int(c.HMELevel2Height),
		HMERegionsX:      int(c.HMERegionsX),
		HMERegionsY:      int(c.HMERegionsY),
		HalfPel:          !c.DisableHalfPel,
		QuarterPel:       !c.DisableQuarterPel,
		Metric:           me.Metric(c.FractionalSearchMetric),
		BiPred:           !c.DisableBiPred,
	}

	// A picture control set is needed for every buffered input, for a
	// mini-GOP held by picture decision and for a mini-GOP in flight.
	s.ParentCount = int(c.InputBuffers) + 2*s.MiniGOPSize + 2
	s.ChildCount = s.ParentCount
	s.PARefCount = s.ParentCount + dpbSlots
	s.ReconCount = s.ChildCount + dpbSlots + 1

	s.rc.Store(newRCParams(&c))
	return s
}

// SBCount returns the number of superblocks per picture.
func (s *SequenceControlSet) SBCount() int { return s.SBCols * s.SBRows }

// segmentRows returns the superblock rows [first, end) of ME segment seg.
func (s *SequenceControlSet) segmentRows(seg int) (int, int) {
	return seg * s.SBRows / s.MESegments, (seg + 1) * s.SBRows / s.MESegments
}

// rateControl returns the current rate control parameters.
func (s *SequenceControlSet) rateControl() *rcParams { return s.rc.Load() }

// reconfigure replaces the rate control parameters with those of c.
func (s *SequenceControlSet) reconfigure(c *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Config.RateControlMode = c.RateControlMode
	s.Config.TargetBitRate = c.TargetBitRate
	s.Config.QP, s.Config.MinQP, s.Config.MaxQP = c.QP, c.MinQP, c.MaxQP
	s.rc.Store(newRCParams(&s.Config))
}

func align(v, n int) int { return (v + n - 1) / n * n }
