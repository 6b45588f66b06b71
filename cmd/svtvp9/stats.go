/*
NAME
  stats.go

DESCRIPTION
  stats.go provides collection of per picture coding statistics from output
  packets, and plotting of them.

AUTHORS
  The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"fmt"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/ausocean/svtvp9/encoder"
	"github.com/ausocean/utils/logging"
)

// Plot dimensions.
const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 4 * vg.Inch
)

// picture is the statistics of one coded picture.
type picture struct {
	number uint64
	slice  encoder.SliceType
	qp     int
	bits   int
	modes  encoder.ModeCounts
}

type stats struct {
	cols     int
	pictures []picture
}

func newStats(width, height int) *stats {
	return &stats{cols: (width + 63) / 64}
}

// add records the statistics of pkt, decoding its rows.
func (s *stats) add(pkt *encoder.Packet) error {
	h, off, err := encoder.ParseFrameHeader(pkt.Data)
	if err != nil {
		return err
	}
	p := picture{number: h.PictureNumber, slice: h.SliceType, qp: h.QP, bits: 8 * len(pkt.Data)}
	for i, n := range h.RowSizes {
		mc, err := encoder.RowModes(pkt.Data[off:off+n], s.cols)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		for m := range mc {
			p.modes[m] += mc[m]
		}
		off += n
	}
	s.pictures = append(s.pictures, p)
	return nil
}

// log writes a summary of the sequence to l.
func (s *stats) log(l logging.Logger) {
	var total int
	var modes encoder.ModeCounts
	perSlice := make(map[string]int)
	for _, p := range s.pictures {
		total += p.bits
		perSlice[p.slice.String()]++
		for m := range modes {
			modes[m] += p.modes[m]
		}
	}
	avg := 0
	if len(s.pictures) > 0 {
		avg = total / len(s.pictures)
	}
	l.Info("sequence statistics", "pictures", len(s.pictures), "bits", total, "avgBits", avg,
		"I", perSlice["I"], "P", perSlice["P"], "B", perSlice["B"],
		"intra", modes[0], "l0", modes[1], "l1", modes[2], "bi", modes[3])
}

// plot writes a plot of coded bits per picture, in display order, with one
// series per slice type.
func (s *stats) plot(path string) error {
	pics := append([]picture(nil), s.pictures...)
	sort.Slice(pics, func(i, j int) bool { return pics[i].number < pics[j].number })

	p := plot.New()
	p.Title.Text = "Coded bits per picture"
	p.X.Label.Text = "picture"
	p.Y.Label.Text = "bits"

	all := make(plotter.XYs, len(pics))
	series := make(map[encoder.SliceType]plotter.XYs)
	for i, pic := range pics {
		pt := plotter.XY{X: float64(pic.number), Y: float64(pic.bits)}
		all[i] = pt
		series[pic.slice] = append(series[pic.slice], pt)
	}
	line, err := plotter.NewLine(all)
	if err != nil {
		return err
	}
	p.Add(line)

	for i, typ := range []encoder.SliceType{encoder.SliceI, encoder.SliceP, encoder.SliceB} {
		pts, ok := series[typ]
		if !ok {
			continue
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Color = plotutil.Color(i)
		p.Add(sc)
		p.Legend.Add(typ.String(), sc)
	}
	return p.Save(plotWidth, plotHeight, path)
}
