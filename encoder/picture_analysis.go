/*
NAME
  picture_analysis.go

DESCRIPTION
  picture_analysis.go provides the picture analysis stage, which loads the
  source into a padded analysis reference, builds its decimations and
  gathers per superblock statistics and the luma histogram.

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

	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/svtvp9/codec/vp9/picture"
)

func (p *pipeline) pictureAnalysis(ctx context.Context, id int) error {
	in := p.coordResults.Consumer(id)
	pool := p.paRefs.Producer(id)
	out := p.paResults.Producer(id)
	samples := make([]float64, sbSize*sbSize)

	for {
		tw, err := in.Get(ctx)
		if err != nil {
			return err
		}
		pw := tw.Object.pcs
		tw.Release()
		pcs := pw.Object

		if !pcs.EOS {
			rw, err := pool.GetEmpty(ctx)
			if err != nil {
				return err
			}
			ref, src := rw.Object, pcs.input.Object
			ref.pictureNumber = pcs.PictureNumber
			err = ref.pic.Full.Load(src.luma, src.stride, src.width, src.height)
			if err != nil {
				return fmt.Errorf("could not load picture %d: %w", pcs.PictureNumber, err)
			}
			picture.Decimate(ref.pic.Quarter, ref.pic.Full, 2)
			picture.Decimate(ref.pic.Sixteenth, ref.pic.Full, 4)
			pcs.paRef = rw
			analyse(p.scs, pcs, ref.pic.Full, samples)
		}
		pcs.input.Release()
		pcs.input = nil

		err = post(ctx, out, func(t *pictureTask) { t.pcs, t.segment = pw, 0 })
		if err != nil {
			return err
		}
	}
}

// analyse fills the superblock means and variances of pcs and the luma
// histogram of the source area of pic. samples must hold a superblock.
func analyse(s *SequenceControlSet, pcs *ParentPCS, pic *picture.Buffer, samples []float64) {
	for sb := 0; sb < s.SBCount(); sb++ {
		x0, y0 := (sb%s.SBCols)*sbSize, (sb/s.SBCols)*sbSize
		for y := 0; y < sbSize; y++ {
			row := pic.At(x0, y0+y)[:sbSize]
			for x, v := range row {
				samples[y*sbSize+x] = float64(v)
			}
		}
		pcs.Mean[sb], pcs.Variance[sb] = stat.PopMeanVariance(samples, nil)
	}

	var counts [histBins]int
	for y := 0; y < s.SourceHeight; y++ {
		for _, v := range pic.At(0, y)[:s.SourceWidth] {
			counts[int(v)*histBins/256]++
		}
	}
	n := float64(s.SourceWidth * s.SourceHeight)
	for i, c := range counts {
		pcs.Histogram[i] = float64(c) / n
	}
}

// histogramDistance returns the L1 distance of two normalized histograms,
// between 0 and 2.
func histogramDistance(a, b *[histBins]float64) float64 {
	var d float64
	for i := range a {
		if a[i] > b[i] {
			d += a[i] - b[i]
		} else {
			d += b[i] - a[i]
		}
	}
	return d
}
