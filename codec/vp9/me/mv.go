/*
NAME
  mv.go

DESCRIPTION
  mv.go provides the packed motion vector and point types.

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

import "fmt"

// MV is a motion vector in quarter-pel units packed as (y<<16)|x, each
// component a signed 16 bit value.
type MV uint32

// NewMV packs the quarter-pel components x and y.
func NewMV(x, y int) MV {
	return MV(uint32(uint16(int16(y)))<<16 | uint32(uint16(int16(x))))
}

// FullPelMV returns the MV for a whole-sample displacement.
func FullPelMV(p Point) MV { return NewMV(p.X*4, p.Y*4) }

// X returns the horizontal component in quarter-pel units.
func (m MV) X() int { return int(int16(uint16(m))) }

// Y returns the vertical component in quarter-pel units.
func (m MV) Y() int { return int(int16(uint16(m >> 16))) }

func (m MV) String() string { return fmt.Sprintf("(%d,%d)", m.X(), m.Y()) }

// Point is a whole-sample position or displacement.
type Point struct {
	X, Y int
}

// Scale returns p multiplied by f.
func (p Point) Scale(f int) Point { return Point{p.X * f, p.Y * f} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }
