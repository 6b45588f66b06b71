/*
NAME
  clamp.go

DESCRIPTION
  clamp.go provides search window clamping against the valid region of a
  padded reference picture.

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

// ClampSearchWindow clamps a one-dimensional window of extent positions
// starting at origin to the valid range [lo, hi]. Positions are block
// origins. The returned extent is at least 1.
func ClampSearchWindow(origin, extent, lo, hi int) (int, int) {
	if extent < 1 {
		extent = 1
	}
	if origin < lo {
		extent -= lo - origin
		origin = lo
	}
	if origin > hi {
		origin = hi
	}
	if origin+extent-1 > hi {
		extent = hi - origin + 1
	}
	if extent < 1 {
		extent = 1
	}
	return origin, extent
}

// Area is a rectangle of candidate block origins in absolute picture
// coordinates.
type Area struct {
	X, Y int
	W, H int
}

// searchArea returns the clamped area of w×h candidate origins centred on
// pos+center for a block of size bs in a picture of dimension dimW×dimH
// padded by pad.
func searchArea(pos, center Point, w, h, bs, dimW, dimH, pad int) Area {
	var a Area
	a.X, a.W = ClampSearchWindow(pos.X+center.X-w/2, w, -pad, dimW+pad-bs)
	a.Y, a.H = ClampSearchWindow(pos.Y+center.Y-h/2, h, -pad, dimH+pad-bs)
	return a
}

// clampPoint clamps the block origin pos+d into the valid range and returns
// the resulting displacement.
func clampPoint(pos, d Point, bs, dimW, dimH, pad int) Point {
	x, _ := ClampSearchWindow(pos.X+d.X, 1, -pad, dimW+pad-bs)
	y, _ := ClampSearchWindow(pos.Y+d.Y, 1, -pad, dimH+pad-bs)
	return Point{x - pos.X, y - pos.Y}
}
