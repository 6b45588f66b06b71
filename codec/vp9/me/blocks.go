/*
NAME
  blocks.go

DESCRIPTION
  blocks.go provides the fixed partition numbering of a superblock used to
  index every motion estimation result array.

AUTHORS
  The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package me

// SBSize is the superblock size in luma samples.
const SBSize = 64

// Block counts and first ids per size. Ids are raster order within a size:
// 0 is the 64x64, 1..4 the 32x32s, 5..20 the 16x16s and 21..84 the 8x8s.
const (
	NumBlocks = 85

	Block64 = 0
	Block32 = 1
	Block16 = 5
	Block8  = 21
)

// Block describes one partition of a superblock.
type Block struct {
	X, Y int // Offset within the superblock.
	Size int
}

// Blocks holds the geometry of every partition, indexed by block id.
var Blocks [NumBlocks]Block

func init() {
	Blocks[Block64] = Block{Size: 64}
	for i := 0; i < 4; i++ {
		Blocks[Block32+i] = Block{X: (i % 2) * 32, Y: (i / 2) * 32, Size: 32}
	}
	for i := 0; i < 16; i++ {
		Blocks[Block16+i] = Block{X: (i % 4) * 16, Y: (i / 4) * 16, Size: 16}
	}
	for i := 0; i < 64; i++ {
		Blocks[Block8+i] = Block{X: (i % 8) * 8, Y: (i / 8) * 8, Size: 8}
	}
}

// Children returns the ids of the four quadrants of block id, or ok false
// for an 8x8.
func Children(id int) (c [4]int, ok bool) {
	b := Blocks[id]
	if b.Size == 8 {
		return c, false
	}
	half := b.Size / 2
	first, perRow := Block8, 8
	switch half {
	case 32:
		first, perRow = Block32, 2
	case 16:
		first, perRow = Block16, 4
	}
	col, row := b.X/half, b.Y/half
	c = [4]int{
		first + row*perRow + col,
		first + row*perRow + col + 1,
		first + (row+1)*perRow + col,
		first + (row+1)*perRow + col + 1,
	}
	return c, true
}

// reduceGrid folds the 64 8x8 SADs of a superblock position into the SAD of
// every partition, children summing into parents.
func reduceGrid(grid *[64]uint32, sads *[NumBlocks]uint32) {
	copy(sads[Block8:], grid[:])
	for by := 0; by < 4; by++ {
		for bx := 0; bx < 4; bx++ {
			i := by*2*8 + bx*2
			sads[Block16+by*4+bx] = grid[i] + grid[i+1] + grid[i+8] + grid[i+9]
		}
	}
	for by := 0; by < 2; by++ {
		for bx := 0; bx < 2; bx++ {
			i := Block16 + by*2*4 + bx*2
			sads[Block32+by*2+bx] = sads[i] + sads[i+1] + sads[i+4] + sads[i+5]
		}
	}
	sads[Block64] = sads[Block32] + sads[Block32+1] + sads[Block32+2] + sads[Block32+3]
}
