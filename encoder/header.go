/*
NAME
  header.go

DESCRIPTION
  header.go provides the frame header of output packets, and parsing of
  packets back into headers and per row coding statistics.

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
	"errors"
	"fmt"

	"github.com/ausocean/svtvp9/codec/vp9/bits"
	"github.com/ausocean/svtvp9/codec/vp9/me"
)

const frameMarker = 2

var (
	errBadMarker    = errors.New("bad frame marker")
	errLevelOverrun = errors.New("levels overrun block")
)

// FrameHeader describes one coded picture.
type FrameHeader struct {
	Key           bool
	Shown         bool
	PictureNumber uint64
	DecodeOrder   uint64
	SliceType     SliceType
	QP            int
	Layer         int
	Width         int
	Height        int
	RowSizes      []int // Bytes of each superblock row payload.
}

func writeFrameHeader(bw *bits.BitWriter, h *FrameHeader) {
	bw.WriteBits(frameMarker, 2)
	bw.WriteFlag(h.Key)
	bw.WriteFlag(h.Shown)
	bw.WriteUe(h.PictureNumber)
	bw.WriteUe(h.DecodeOrder)
	bw.WriteUe(uint64(h.SliceType))
	bw.WriteUe(uint64(h.QP))
	bw.WriteUe(uint64(h.Layer))
	bw.WriteUe(uint64(h.Width))
	bw.WriteUe(uint64(h.Height))
	bw.WriteUe(uint64(len(h.RowSizes)))
	for _, n := range h.RowSizes {
		bw.WriteUe(uint64(n))
	}
	bw.Align()
}

// ParseFrameHeader parses the header at the start of a packet's data. It
// returns the header and the offset of the first row payload.
func ParseFrameHeader(data []byte) (FrameHeader, int, error) {
	var h FrameHeader
	br := bits.NewBitReader(data)
	marker, err := br.ReadBits(2)
	if err != nil {
		return h, 0, err
	}
	if marker != frameMarker {
		return h, 0, errBadMarker
	}
	h.Key, _ = br.ReadFlag()
	h.Shown, err = br.ReadFlag()
	if err != nil {
		return h, 0, err
	}

	var v [8]uint64
	for i := range v {
		v[i], err = br.ReadUe()
		if err != nil {
			return h, 0, fmt.Errorf("could not read header field %d: %w", i, err)
		}
	}
	h.PictureNumber, h.DecodeOrder = v[0], v[1]
	h.SliceType, h.QP, h.Layer = SliceType(v[2]), int(v[3]), int(v[4])
	h.Width, h.Height = int(v[5]), int(v[6])
	if v[7] > uint64(len(data)) {
		return h, 0, fmt.Errorf("row count %d exceeds packet size", v[7])
	}
	h.RowSizes = make([]int, v[7])
	total := 0
	for i := range h.RowSizes {
		n, err := br.ReadUe()
		if err != nil {
			return h, 0, fmt.Errorf("could not read row size %d: %w", i, err)
		}
		h.RowSizes[i] = int(n)
		total += int(n)
	}
	br.Align()
	off := br.BytesRead()
	if off+total != len(data) {
		return h, 0, fmt.Errorf("row sizes total %d, have %d bytes", total, len(data)-off)
	}
	return h, off, nil
}

// ModeCounts holds the number of coded blocks per prediction mode: intra,
// list 0, list 1 and bi-prediction.
type ModeCounts [4]int

// RowModes decodes one superblock row payload of cols superblocks and
// returns its mode counts.
func RowModes(row []byte, cols int) (ModeCounts, error) {
	var mc ModeCounts
	br := bits.NewBitReader(row)
	levels := make([]int16, sbSize*sbSize)
	for sb := 0; sb < cols; sb++ {
		n, err := br.ReadUe()
		if err != nil {
			return mc, err
		}
		for i := uint64(0); i < n; i++ {
			id, err := br.ReadUe()
			if err != nil {
				return mc, err
			}
			mode, err := br.ReadUe()
			if err != nil {
				return mc, err
			}
			if id >= me.NumBlocks || mode > modeBi {
				return mc, fmt.Errorf("bad block %d with mode %d", id, mode)
			}
			mc[mode]++
			for l := 0; l < 2; l++ {
				if int(mode) == modeBi || int(mode) == modeL0+l {
					for j := 0; j < 3; j++ {
						if _, err := br.ReadUe(); err != nil {
							return mc, err
						}
					}
				}
			}
			size := me.Blocks[id].Size
			blk := levels[:size*size]
			for j := range blk {
				blk[j] = 0
			}
			err = readLevels(br, blk)
			if err != nil {
				return mc, err
			}
		}
	}
	return mc, nil
}
