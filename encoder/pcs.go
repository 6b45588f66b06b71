/*
NAME
  pcs.go

DESCRIPTION
  pcs.go provides the picture control sets and the other pooled objects that
  carry a picture through the pipeline: input buffers, picture analysis
  references, reconstructed references and output packets.

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
	"sync/atomic"

	"github.com/ausocean/svtvp9/codec/vp9/me"
	"github.com/ausocean/svtvp9/codec/vp9/picture"
	"github.com/ausocean/svtvp9/sysres"
)

// SliceType is the coding type of a picture.
type SliceType uint8

const (
	SliceI SliceType = iota
	SliceP
	SliceB
)

func (t SliceType) String() string {
	switch t {
	case SliceI:
		return "I"
	case SliceP:
		return "P"
	case SliceB:
		return "B"
	default:
		return "?"
	}
}

// Frame is one uncompressed source picture given to SendPicture. Only the
// luma plane is encoded.
type Frame struct {
	Luma          []byte
	Stride        int
	Width, Height int
	PTS           int64
}

// Packet is one unit of compressed output.
type Packet struct {
	Data          []byte
	PTS           int64
	DecodeOrder   uint64
	PictureNumber uint64
	SliceType     SliceType
	QP            int
	Key           bool // Intra picture; decodable on its own.
	Shown         bool
	EOS           bool // Last packet of the stream, carrying no data.

	w *sysres.Wrapper[*Packet]
}

// inputBuffer holds a copy of a frame until picture analysis has loaded it.
type inputBuffer struct {
	luma          []byte
	stride        int
	width, height int
	pts           int64
	eos           bool
}

func newInputBuffer(s *SequenceControlSet) (*inputBuffer, error) {
	return &inputBuffer{luma: make([]byte, s.SourceWidth*s.SourceHeight)}, nil
}

// paReference is the analysed source of a picture at the three resolutions
// searched by motion estimation.
type paReference struct {
	pic           me.Picture
	pictureNumber uint64
}

func newPAReference(s *SequenceControlSet) (*paReference, error) {
	return &paReference{
		pic: me.Picture{
			Full:      picture.New(s.Width, s.Height, pad),
			Quarter:   picture.New(s.Width/2, s.Height/2, pad/2),
			Sixteenth: picture.New(s.Width/4, s.Height/4, pad/4),
		},
	}, nil
}

// refObject is a reconstructed picture.
type refObject struct {
	recon         *picture.Buffer
	pictureNumber uint64
}

func newRefObject(s *SequenceControlSet) (*refObject, error) {
	return &refObject{recon: picture.New(s.Width, s.Height, pad)}, nil
}

// refDrop tells the picture manager that picture decision will no longer
// reference a picture, and how many pictures did.
type refDrop struct {
	pictureNumber uint64
	dependents    int
}

// ParentPCS is the picture control set of one input picture, from resource
// coordination to packetization.
type ParentPCS struct {
	PictureNumber uint64
	DecodeOrder   uint64
	PTS           int64
	EOS           bool

	SliceType   SliceType
	Layer       int
	IsRef       bool
	SceneChange bool

	// RefList holds the picture numbers of each reference list, nearest
	// first.
	RefList [2][]uint64

	// Picture analysis statistics, per superblock in raster order.
	Variance  []float64
	Mean      []float64
	Histogram [histBins]float64 // Normalized to sum to one.

	// Source based statistics, per superblock.
	NonMoving  []int // 0 (moving) to 100 (static).
	Complexity []float64

	ME         []me.Result
	Distortion uint64

	input  *sysres.Wrapper[*inputBuffer]
	paRef  *sysres.Wrapper[*paReference]
	paRefs [2][]*sysres.Wrapper[*paReference]
	drops  []refDrop

	meSegments int // Expected ME results.
	meDone     int // Received ME results; owned by initial rate control.
}

func newParentPCS(s *SequenceControlSet) (*ParentPCS, error) {
	n := s.SBCount()
	return &ParentPCS{
		Variance:   make([]float64, n),
		Mean:       make([]float64, n),
		NonMoving:  make([]int, n),
		Complexity: make([]float64, n),
		ME:         make([]me.Result, n),
	}, nil
}

// reset clears the per picture state before reuse.
func (p *ParentPCS) reset() {
	p.PictureNumber, p.DecodeOrder, p.PTS, p.EOS = 0, 0, 0, false
	p.SliceType, p.Layer, p.IsRef, p.SceneChange = SliceI, 0, false, false
	p.RefList[0], p.RefList[1] = p.RefList[0][:0], p.RefList[1][:0]
	p.paRefs[0], p.paRefs[1] = p.paRefs[0][:0], p.paRefs[1][:0]
	p.input, p.paRef = nil, nil
	p.drops = p.drops[:0]
	p.Distortion, p.meSegments, p.meDone = 0, 0, 0
}

// Prediction modes of a coded block.
const (
	modeIntra = iota
	modeL0
	modeL1
	modeBi
)

// codedBlock is one leaf of a superblock partition. Its quantized residual
// is levels[offset : offset+size*size] of the owning sbDecision.
type codedBlock struct {
	id     int
	mode   int
	ref    [2]int
	mv     [2]me.MV
	offset int
}

// sbDecision holds the coding decisions of one superblock.
type sbDecision struct {
	blocks []codedBlock
	levels []int16
}

// rowBuffer holds the entropy coded bytes of one superblock row.
type rowBuffer struct {
	data []byte
}

// ChildPCS is the picture control set of one encode pass, from the picture
// manager to packetization.
type ChildPCS struct {
	parent *sysres.Wrapper[*ParentPCS]
	recon  *sysres.Wrapper[*refObject]
	refs   [2][]*sysres.Wrapper[*refObject]

	QP     int
	Lambda float64 // In the SAD domain.

	sbs      []sbDecision
	rows     []rowBuffer
	encDone  atomic.Int32 // Rows through EncDec.
	codeDone atomic.Int32 // Rows through entropy coding.
	bits     int
}

func newChildPCS(s *SequenceControlSet) (*ChildPCS, error) {
	c := &ChildPCS{
		sbs:  make([]sbDecision, s.SBCount()),
		rows: make([]rowBuffer, s.SBRows),
	}
	for i := range c.sbs {
		c.sbs[i].levels = make([]int16, 0, sbSize*sbSize)
	}
	return c, nil
}

func (c *ChildPCS) reset() {
	c.parent, c.recon = nil, nil
	c.refs[0], c.refs[1] = c.refs[0][:0], c.refs[1][:0]
	c.QP, c.Lambda, c.bits = 0, 0, 0
	c.encDone.Store(0)
	c.codeDone.Store(0)
	for i := range c.sbs {
		c.sbs[i].blocks = c.sbs[i].blocks[:0]
		c.sbs[i].levels = c.sbs[i].levels[:0]
	}
	for i := range c.rows {
		c.rows[i].data = c.rows[i].data[:0]
	}
}

func newPacket(s *SequenceControlSet) (*Packet, error) {
	return &Packet{Data: make([]byte, 0, s.SourceWidth*s.SourceHeight/4)}, nil
}
