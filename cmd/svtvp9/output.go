/*
NAME
  output.go

DESCRIPTION
  output.go provides the output routine of svtvp9. Packets are written to a
  pool buffer by the encoding loop and drained into the IVF file, and an
  optional RTP stream, by a separate routine.

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
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ausocean/utils/logging"
	"github.com/ausocean/utils/pool"

	"github.com/ausocean/svtvp9/container/ivf"
	"github.com/ausocean/svtvp9/protocol/rtp"
)

// Pool buffer configuration.
const (
	poolElements     = 32
	poolWriteTimeout = 5 * time.Second
	poolReadTimeout  = 100 * time.Millisecond
	chunkHeadSize    = 9 // Timestamp and flags.
)

// Chunk flags.
const (
	flagKey  = 1 << iota
	flagMore // Further chunks of the same packet follow.
)

// frameWriter is a destination of the output routine.
type frameWriter interface {
	WriteFrame(data []byte, pts uint64, key bool) error
}

type ivfWriter struct{ w *ivf.Writer }

func (w ivfWriter) WriteFrame(data []byte, pts uint64, _ bool) error {
	return w.w.WriteFrame(data, pts)
}

type rtpWriter struct{ e *rtp.Encoder }

func (w rtpWriter) WriteFrame(data []byte, pts uint64, key bool) error {
	return w.e.WriteFrame(data, pts, !key)
}

// output moves packets from the encoding loop to each frameWriter. Each
// pool chunk holds the packet's timestamp, its flags and its data. Packets
// larger than a pool element are split over several chunks.
type output struct {
	dsts  []frameWriter
	buf   *pool.Buffer
	size  int
	next  []byte
	frame []byte
	log   logging.Logger
	done  chan struct{}
	wg    sync.WaitGroup
}

// newOutput starts an output routine for packets of up to frameSize bytes
// of raw input; coded pictures may exceed it, so elements are made larger.
func newOutput(log logging.Logger, frameSize int, dsts ...frameWriter) *output {
	size := 4*frameSize + 1024
	pool.MaxAlloc(size)
	o := &output{
		dsts: dsts,
		buf:  pool.NewBuffer(poolElements, size, poolWriteTimeout),
		size: size,
		log:  log,
		done: make(chan struct{}),
	}
	o.wg.Add(1)
	go o.run()
	return o
}

// write queues one packet. A dropped earlier packet is logged; any other
// pool error is returned.
func (o *output) write(data []byte, pts uint64, key bool) error {
	limit := o.size - chunkHeadSize
	for {
		n := len(data)
		var flags byte
		if key {
			flags |= flagKey
		}
		if n > limit {
			n = limit
			flags |= flagMore
		}
		o.next = binary.LittleEndian.AppendUint64(o.next[:0], pts)
		o.next = append(o.next, flags)
		o.next = append(o.next, data[:n]...)
		_, err := o.buf.Write(o.next)
		switch err {
		case nil:
		case pool.ErrDropped:
			o.log.Warning("dropped queued packet", "pts", pts)
		default:
			return fmt.Errorf("could not queue packet %d: %w", pts, err)
		}
		o.buf.Flush()
		data = data[n:]
		if flags&flagMore == 0 {
			return nil
		}
	}
}

// run writes packets to each destination until close is called and the
// buffer is empty.
func (o *output) run() {
	defer o.wg.Done()
	var (
		pending bool
		prev    uint64
	)
	for {
		chunk, err := o.buf.Next(poolReadTimeout)
		switch err {
		case nil:
		case io.EOF, pool.ErrTimeout:
			select {
			case <-o.done:
				o.log.Debug("output routine finished")
				return
			default:
				continue
			}
		default:
			o.log.Error("unexpected pool error", "error", err.Error())
			continue
		}

		b := chunk.Bytes()
		if len(b) < chunkHeadSize {
			o.log.Error("short output chunk", "size", len(b))
			chunk.Close()
			continue
		}
		pts, flags := binary.LittleEndian.Uint64(b), b[8]
		if pending && pts != prev {
			o.log.Warning("discarding incomplete packet", "pts", prev)
			o.frame = o.frame[:0]
		}
		o.frame = append(o.frame, b[chunkHeadSize:]...)
		chunk.Close()
		pending, prev = flags&flagMore != 0, pts
		if pending {
			continue
		}
		for i, dst := range o.dsts {
			err = dst.WriteFrame(o.frame, pts, flags&flagKey != 0)
			if err != nil {
				o.log.Error("could not write frame", "destination", i, "error", err.Error())
			}
		}
		o.frame = o.frame[:0]
	}
}

// close waits for every queued packet to be written.
func (o *output) close() {
	close(o.done)
	o.wg.Wait()
}
