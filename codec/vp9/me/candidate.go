/*
NAME
  candidate.go

DESCRIPTION
  candidate.go provides bi-prediction compensation and the ranking of the
  uni and bi-directional candidates of each block.

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

// Direction identifies the prediction lists used by a candidate.
type Direction int

const (
	PredL0 Direction = iota
	PredL1
	PredBi
)

func (d Direction) String() string {
	switch d {
	case PredL0:
		return "L0"
	case PredL1:
		return "L1"
	case PredBi:
		return "Bi"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Candidate is one inter prediction option for a block. Ref and MV are
// meaningful for the lists Dir uses.
type Candidate struct {
	Dir Direction
	Ref [2]int
	MV  [2]MV
	SAD uint32
}

// BlockResult holds the ranked candidates of one block, cheapest first.
type BlockResult struct {
	Candidates [3]Candidate
	Count      int
}

// Result is the outcome of one superblock search.
type Result struct {
	Blocks    [NumBlocks]BlockResult
	HMECenter Point  // HME centre for list 0, reference 0.
	ZeroSAD   uint32 // 64x64 SAD at zero motion for list 0, reference 0.
}

// Distortion returns the SAD of the best 64x64 candidate, or zero when
// there are none.
func (r *Result) Distortion() uint32 {
	if r.Blocks[Block64].Count == 0 {
		return 0
	}
	return r.Blocks[Block64].Candidates[0].SAD
}

// Sort3 returns the indices of a, b and c in ascending order. Equal values
// keep their argument order.
func Sort3(a, b, c uint32) [3]int {
	switch {
	case a <= b && b <= c:
		return [3]int{0, 1, 2}
	case a <= c && c < b:
		return [3]int{0, 2, 1}
	case b < a && a <= c:
		return [3]int{1, 0, 2}
	case b <= c && c < a:
		return [3]int{1, 2, 0}
	case c < a && a <= b:
		return [3]int{2, 0, 1}
	default:
		return [3]int{2, 1, 0}
	}
}

// biPred evaluates every list 0 × list 1 reference pair for each block,
// predicting with the average of both lists' best positions.
func (c *Context) biPred(in *Input) {
	n0, n1 := refCount(in, 0), refCount(in, 1)
	src := in.Source.Full
	for id, b := range Blocks {
		p := in.Pos.Add(Point{b.X, b.Y})
		s := src.At(p.X, p.Y)
		for r0 := 0; r0 < n0; r0++ {
			mv0 := c.BestMV[0][r0][id]
			p0, s0 := c.predict(in.Refs[0][r0].Full, &c.interp[0][r0], 4*p.X+mv0.X(), 4*p.Y+mv0.Y(), b.Size, c.scratch[0])
			for r1 := 0; r1 < n1; r1++ {
				mv1 := c.BestMV[1][r1][id]
				p1, s1 := c.predict(in.Refs[1][r1].Full, &c.interp[1][r1], 4*p.X+mv1.X(), 4*p.Y+mv1.Y(), b.Size, c.scratch[1])
				c.k.Average(c.scratch[2], b.Size, p0, s0, p1, s1, b.Size, b.Size)
				sad := c.k.SAD(s, src.Stride, c.scratch[2], b.Size, b.Size, b.Size)
				if sad < c.BiSAD[id] {
					c.BiSAD[id] = sad
					c.BiRef[id] = [2]int{r0, r1}
				}
			}
		}
	}
}

// bestRef returns the reference of list l with the lowest SAD for block id.
func (c *Context) bestRef(l, n, id int) int {
	best := 0
	for r := 1; r < n; r++ {
		if c.BestSAD[l][r][id] < c.BestSAD[l][best][id] {
			best = r
		}
	}
	return best
}

// rank builds and orders the candidates of every block.
func (c *Context) rank(in *Input, out *Result, bi bool) {
	n0, n1 := refCount(in, 0), refCount(in, 1)
	for id := range Blocks {
		var cand [3]Candidate
		n := 0
		if n0 > 0 {
			r := c.bestRef(0, n0, id)
			cand[n] = Candidate{Dir: PredL0, Ref: [2]int{r, 0}, MV: [2]MV{c.BestMV[0][r][id], 0}, SAD: c.BestSAD[0][r][id]}
			n++
		}
		if n1 > 0 {
			r := c.bestRef(1, n1, id)
			cand[n] = Candidate{Dir: PredL1, Ref: [2]int{0, r}, MV: [2]MV{0, c.BestMV[1][r][id]}, SAD: c.BestSAD[1][r][id]}
			n++
		}
		if bi {
			r := c.BiRef[id]
			cand[n] = Candidate{
				Dir: PredBi,
				Ref: r,
				MV:  [2]MV{c.BestMV[0][r[0]][id], c.BestMV[1][r[1]][id]},
				SAD: c.BiSAD[id],
			}
			n++
		}

		res := &out.Blocks[id]
		res.Count = n
		switch n {
		case 3:
			o := Sort3(cand[0].SAD, cand[1].SAD, cand[2].SAD)
			for i, j := range o {
				res.Candidates[i] = cand[j]
			}
		case 2:
			if cand[1].SAD < cand[0].SAD {
				cand[0], cand[1] = cand[1], cand[0]
			}
			fallthrough
		default:
			res.Candidates = cand
		}
	}
	out.HMECenter = c.HMECenter[0][0]
	out.ZeroSAD = c.ZeroSAD[0][0]
}

func refCount(in *Input, l int) int {
	if n := len(in.Refs[l]); n < MaxRefs {
		return n
	}
	return MaxRefs
}
