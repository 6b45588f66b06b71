/*
NAME
  encoder_test.go

DESCRIPTION
  encoder_test.go provides testing of the encoder API and of whole sequences
  through the pipeline.

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
	"errors"
	"testing"
	"time"

	"github.com/ausocean/svtvp9/encoder/config"
)

const (
	testWidth  = 128
	testHeight = 96
)

// testConfig returns a small configuration with narrow search areas so
// whole sequences encode quickly.
func testConfig(t *testing.T, pred uint8) config.Config {
	return config.Config{
		Logger:                    (*testLogger)(t),
		SourceWidth:               testWidth,
		SourceHeight:              testHeight,
		PredStructure:             pred,
		IntraPeriod:               1000,
		SearchAreaWidth:           16,
		SearchAreaHeight:          16,
		HMELevel0Width:            8,
		HMELevel0Height:           8,
		DisableSceneChange:        true,
		PictureAnalysisProcesses:  2,
		MotionEstimationProcesses: 2,
		SourceBasedProcesses:      2,
		EncDecProcesses:           2,
		EntropyCodingProcesses:    2,
		InputBuffers:              4,
		OutputBuffers:             4,
	}
}

func newTestEncoder(t *testing.T, c config.Config) *Encoder {
	t.Helper()
	e := New((*testLogger)(t))
	err := e.SetParameter(c)
	if err != nil {
		t.Fatalf("did not expect error from SetParameter: %v", err)
	}
	err = e.Init()
	if err != nil {
		t.Fatalf("did not expect error from Init: %v", err)
	}
	t.Cleanup(func() { e.Deinit() })
	return e
}

// encode sends n pictures and EOS from a separate goroutine and collects
// every packet, releasing each after recording it.
func encode(t *testing.T, e *Encoder, n int) []Packet {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	sendErr := make(chan error, 1)
	go func() {
		for i := 0; i < n; i++ {
			err := e.SendPicture(ctx, testFrame(testWidth, testHeight, i, i))
			if err != nil {
				sendErr <- err
				return
			}
		}
		sendErr <- e.SendEOS(ctx)
	}()

	var pkts []Packet
	for {
		pkt, err := e.GetPacket(ctx, true)
		if err != nil {
			t.Fatalf("did not expect error from GetPacket after %d packets: %v", len(pkts), err)
		}
		cp := *pkt
		cp.Data = append([]byte(nil), pkt.Data...)
		cp.w = nil
		e.ReleasePacket(pkt)
		pkts = append(pkts, cp)
		if cp.EOS {
			break
		}
	}
	if err := <-sendErr; err != nil {
		t.Fatalf("did not expect error sending pictures: %v", err)
	}
	return pkts
}

// checkSequence checks packets of an n picture sequence: decode order,
// every picture exactly once, a key first and EOS last, and parseable
// payloads.
func checkSequence(t *testing.T, pkts []Packet, n int, cols int) {
	t.Helper()
	if len(pkts) != n+1 {
		t.Fatalf("unexpected packet count: got %d, want %d", len(pkts), n+1)
	}
	if !pkts[0].Key || pkts[0].PictureNumber != 0 {
		t.Errorf("first packet is not the key picture 0: key %t, picture %d", pkts[0].Key, pkts[0].PictureNumber)
	}
	eos := pkts[n]
	if !eos.EOS || len(eos.Data) != 0 || eos.Key || eos.Shown {
		t.Errorf("unexpected EOS packet: %+v", eos)
	}

	seen := make(map[uint64]bool)
	for i, pkt := range pkts[:n] {
		if pkt.DecodeOrder != uint64(i) {
			t.Errorf("packet %d: unexpected decode order %d", i, pkt.DecodeOrder)
		}
		if pkt.EOS {
			t.Fatalf("packet %d: EOS before the last packet", i)
		}
		if seen[pkt.PictureNumber] {
			t.Errorf("packet %d: picture %d coded twice", i, pkt.PictureNumber)
		}
		seen[pkt.PictureNumber] = true
		if pkt.PTS != int64(pkt.PictureNumber) {
			t.Errorf("packet %d: pts %d does not follow picture %d", i, pkt.PTS, pkt.PictureNumber)
		}

		h, off, err := ParseFrameHeader(pkt.Data)
		if err != nil {
			t.Errorf("packet %d: could not parse header: %v", i, err)
			continue
		}
		if h.PictureNumber != pkt.PictureNumber || h.DecodeOrder != pkt.DecodeOrder || h.QP != pkt.QP || h.Key != pkt.Key {
			t.Errorf("packet %d: header %+v does not match packet", i, h)
		}
		if h.Width != testWidth || h.Height != testHeight {
			t.Errorf("packet %d: unexpected dimensions %dx%d", i, h.Width, h.Height)
		}
		var total int
		for r, size := range h.RowSizes {
			mc, err := RowModes(pkt.Data[off:off+size], cols)
			if err != nil {
				t.Errorf("packet %d row %d: could not decode: %v", i, r, err)
			}
			if pkt.SliceType == SliceI && mc[modeIntra] != mc[0]+mc[1]+mc[2]+mc[3] {
				t.Errorf("packet %d row %d: inter blocks in an intra picture: %v", i, r, mc)
			}
			for _, c := range mc {
				total += c
			}
			off += size
		}
		if total < cols*len(h.RowSizes) {
			t.Errorf("packet %d: %d blocks coded for %d superblocks", i, total, cols*len(h.RowSizes))
		}
	}
	for num := uint64(0); num < uint64(n); num++ {
		if !seen[num] {
			t.Errorf("picture %d never coded", num)
		}
	}
}

// waitIdle waits until every pool of the pipeline is free again.
func waitIdle(t *testing.T, e *Encoder) {
	t.Helper()
	p := e.pipe
	deadline := time.Now().Add(5 * time.Second)
	for {
		idle := p.parents.Free() == p.parents.Capacity() &&
			p.children.Free() == p.children.Capacity() &&
			p.paRefs.Free() == p.paRefs.Capacity() &&
			p.recons.Free() == p.recons.Capacity() &&
			p.input.Free() == p.input.Capacity() &&
			p.packets.Free() == p.packets.Capacity()
		if idle {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("pipeline not idle: parents %d/%d, children %d/%d, analysis refs %d/%d, recons %d/%d",
				p.parents.Free(), p.parents.Capacity(), p.children.Free(), p.children.Capacity(),
				p.paRefs.Free(), p.paRefs.Capacity(), p.recons.Free(), p.recons.Capacity())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestEncodeRandomAccess(t *testing.T) {
	const n = 20
	e := newTestEncoder(t, testConfig(t, config.PredRandomAccess))
	pkts := encode(t, e, n)
	checkSequence(t, pkts, n, 2)

	// The first mini-GOP anchors on picture 8, coded right after the key.
	if pkts[1].PictureNumber != 8 || pkts[1].SliceType != SliceP {
		t.Errorf("unexpected anchor: picture %d, slice %v", pkts[1].PictureNumber, pkts[1].SliceType)
	}
	var b int
	for _, pkt := range pkts[:n] {
		if pkt.SliceType == SliceB {
			b++
		}
	}
	if b != 14 {
		t.Errorf("unexpected B picture count: got %d, want 14", b)
	}
	waitIdle(t, e)
	if got := e.pipe.dpb.Len(); got != 0 {
		t.Errorf("decoded picture buffer not empty after EOS: %d entries", got)
	}

	// Every coded picture is reported to rate control once by packetization
	// and once by one of the entropy coders.
	p := e.pipe
	if got := p.rcTasks.Posted(p.rcPorts.Index(portPacketization, 0)); got != n {
		t.Errorf("unexpected packetization feedback: got %d, want %d", got, n)
	}
	var ec uint64
	for i := 0; i < int(p.scs.Config.EntropyCodingProcesses); i++ {
		ec += p.rcTasks.Posted(p.rcPorts.Index(portEntropyCoding, i))
	}
	if ec != n {
		t.Errorf("unexpected entropy coding feedback: got %d, want %d", ec, n)
	}
}

func TestEncodeLowDelay(t *testing.T) {
	const n = 10
	c := testConfig(t, config.PredLowDelayP)
	c.IntraPeriod = 4
	e := newTestEncoder(t, c)
	pkts := encode(t, e, n)
	checkSequence(t, pkts, n, 2)

	for i, pkt := range pkts[:n] {
		if pkt.PictureNumber != uint64(i) {
			t.Errorf("packet %d: low delay picture %d out of display order", i, pkt.PictureNumber)
		}
		if wantKey := i%4 == 0; pkt.Key != wantKey {
			t.Errorf("packet %d: key %t, want %t", i, pkt.Key, wantKey)
		}
	}
	waitIdle(t, e)
}

func TestEncodeStaticScene(t *testing.T) {
	const n = 6
	c := testConfig(t, config.PredLowDelayP)
	c.QP = 20
	e := newTestEncoder(t, c)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	f := testFrame(testWidth, testHeight, 0, 0)
	for i := 0; i < n; i++ {
		f.PTS = int64(i)
		if err := e.SendPicture(ctx, f); err != nil {
			t.Fatalf("did not expect error from SendPicture: %v", err)
		}
		pkt, err := e.GetPacket(ctx, true)
		if err != nil {
			t.Fatalf("did not expect error from GetPacket: %v", err)
		}
		if i > 0 {
			h, off, err := ParseFrameHeader(pkt.Data)
			if err != nil {
				t.Fatalf("could not parse header: %v", err)
			}
			// Unchanged content codes as one 64x64 inter block per
			// superblock.
			mc, err := RowModes(pkt.Data[off:off+h.RowSizes[0]], 2)
			if err != nil {
				t.Fatalf("could not decode row: %v", err)
			}
			if mc != (ModeCounts{modeL0: 2}) {
				t.Errorf("picture %d: unexpected modes for a static picture: %v", i, mc)
			}
		}
		e.ReleasePacket(pkt)
	}
}

func TestGetPacketEmpty(t *testing.T) {
	e := newTestEncoder(t, testConfig(t, config.PredLowDelayP))
	_, err := e.GetPacket(context.Background(), false)
	if !errors.Is(err, ErrNoErrorEmptyQueue) {
		t.Errorf("unexpected error: got %v, want %v", err, ErrNoErrorEmptyQueue)
	}
}

func TestAPIOrder(t *testing.T) {
	e := New((*testLogger)(t))
	if err := e.Init(); !errors.Is(err, ErrInvalidComponent) {
		t.Errorf("unexpected error from Init before SetParameter: got %v, want %v", err, ErrInvalidComponent)
	}
	if err := e.SendPicture(context.Background(), testFrame(testWidth, testHeight, 0, 0)); !errors.Is(err, ErrInvalidComponent) {
		t.Errorf("unexpected error from SendPicture before Init: got %v, want %v", err, ErrInvalidComponent)
	}

	c := testConfig(t, config.PredLowDelayP)
	c.SourceWidth = 33
	if err := e.SetParameter(c); !errors.Is(err, ErrBadParameter) {
		t.Errorf("unexpected error for odd width: got %v, want %v", err, ErrBadParameter)
	}
	c = testConfig(t, config.PredLowDelayP)
	c.MaxQP = 200
	if err := e.SetParameter(c); !errors.Is(err, ErrBadParameter) {
		t.Errorf("unexpected error for out of range max QP: got %v, want %v", err, ErrBadParameter)
	}

	if err := e.SetParameter(testConfig(t, config.PredLowDelayP)); err != nil {
		t.Fatalf("did not expect error from SetParameter: %v", err)
	}
	if err := e.Init(); err != nil {
		t.Fatalf("did not expect error from Init: %v", err)
	}
	defer e.Deinit()
	if err := e.SetParameter(testConfig(t, config.PredLowDelayP)); !errors.Is(err, ErrInvalidComponent) {
		t.Errorf("unexpected error from SetParameter while running: got %v, want %v", err, ErrInvalidComponent)
	}

	ctx := context.Background()
	if err := e.SendPicture(ctx, testFrame(64, 64, 0, 0)); !errors.Is(err, ErrBadParameter) {
		t.Errorf("unexpected error for mismatched frame: got %v, want %v", err, ErrBadParameter)
	}
	if err := e.SendEOS(ctx); err != nil {
		t.Fatalf("did not expect error from SendEOS: %v", err)
	}
	if err := e.SendEOS(ctx); err != nil {
		t.Errorf("did not expect error from repeated SendEOS: %v", err)
	}
	if err := e.SendPicture(ctx, testFrame(testWidth, testHeight, 0, 0)); !errors.Is(err, ErrInvalidComponent) {
		t.Errorf("unexpected error for picture after EOS: got %v, want %v", err, ErrInvalidComponent)
	}
}

func TestDeinit(t *testing.T) {
	e := newTestEncoder(t, testConfig(t, config.PredRandomAccess))
	ctx := context.Background()

	// Pictures short of a mini-GOP stay inside picture decision.
	for i := 0; i < 3; i++ {
		if err := e.SendPicture(ctx, testFrame(testWidth, testHeight, i, i)); err != nil {
			t.Fatalf("did not expect error from SendPicture: %v", err)
		}
	}

	done := make(chan error, 1)
	go func() {
		var err error
		for err == nil {
			var pkt *Packet
			pkt, err = e.GetPacket(ctx, true)
			e.ReleasePacket(pkt)
		}
		done <- err
	}()

	time.Sleep(100 * time.Millisecond)
	if err := e.Deinit(); err != nil {
		t.Fatalf("did not expect error from Deinit: %v", err)
	}
	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("unexpected error from blocked GetPacket: got %v, want %v", err, ErrClosed)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("blocked GetPacket did not return after Deinit")
	}

	if err := e.Deinit(); err != nil {
		t.Errorf("did not expect error from second Deinit: %v", err)
	}
	if err := e.SendPicture(ctx, testFrame(testWidth, testHeight, 0, 0)); !errors.Is(err, ErrClosed) {
		t.Errorf("unexpected error from SendPicture after Deinit: got %v, want %v", err, ErrClosed)
	}
}

func TestCallerCancel(t *testing.T) {
	e := newTestEncoder(t, testConfig(t, config.PredLowDelayP))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := e.GetPacket(ctx, true)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("unexpected error: got %v, want %v", err, context.DeadlineExceeded)
	}
}

func TestReconfigure(t *testing.T) {
	const qp = 30
	c := testConfig(t, config.PredLowDelayP)
	c.QP = qp
	e := newTestEncoder(t, c)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	first := func() int {
		if err := e.SendPicture(ctx, testFrame(testWidth, testHeight, 0, 0)); err != nil {
			t.Fatalf("did not expect error from SendPicture: %v", err)
		}
		pkt, err := e.GetPacket(ctx, true)
		if err != nil {
			t.Fatalf("did not expect error from GetPacket: %v", err)
		}
		defer e.ReleasePacket(pkt)
		return pkt.QP
	}
	if got := first(); got != qp+intraQPOffset {
		t.Errorf("unexpected key picture qp: got %d, want %d", got, qp+intraQPOffset)
	}

	err := e.Reconfigure(map[string]string{config.KeyQP: "40", config.KeySearchAreaWidth: "32"})
	if err != nil {
		t.Fatalf("did not expect error from Reconfigure: %v", err)
	}
	if got := first(); got != 40 {
		t.Errorf("unexpected qp after reconfigure: got %d, want 40", got)
	}
	c = e.Config()
	if c.QP != 40 || c.SearchAreaWidth != 16 {
		t.Errorf("unexpected config after reconfigure: qp %d, search width %d", c.QP, c.SearchAreaWidth)
	}

	err = e.Reconfigure(map[string]string{config.KeyMaxQP: "500"})
	if !errors.Is(err, ErrBadParameter) {
		t.Errorf("unexpected error for bad max QP: got %v, want %v", err, ErrBadParameter)
	}
}
