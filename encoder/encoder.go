/*
NAME
  encoder.go

DESCRIPTION
  encoder.go provides the encoder handle: configuration, pipeline start up,
  frame input, packet output, live rate control changes and shutdown.

AUTHORS
  The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package encoder provides a pipelined VP9 style video encoder. Pictures
// pass through a graph of concurrent stages connected by bounded object
// fifos: resource coordination, picture analysis, picture decision, motion
// estimation, initial rate control, source based operations, the picture
// manager, rate control, mode decision configuration, EncDec, entropy
// coding and packetization.
package encoder

import (
	"context"
	"fmt"
	"sync"

	"github.com/ausocean/utils/logging"
	"github.com/google/uuid"

	"github.com/ausocean/svtvp9/encoder/config"
)

// Encoder states.
const (
	stateNew = iota
	stateConfigured
	stateRunning
	stateClosed
)

// Encoder is one encoder instance. SendPicture and GetPacket may be called
// from different goroutines.
type Encoder struct {
	id  uuid.UUID
	log logging.Logger

	mu      sync.Mutex
	state   int
	eosSent bool
	cfg     config.Config
	scs     *SequenceControlSet
	pipe    *pipeline

	ctx    context.Context
	cancel context.CancelFunc
}

// New returns an unconfigured encoder logging to log.
func New(log logging.Logger) *Encoder {
	e := &Encoder{id: uuid.New(), log: log}
	log.Debug("encoder created", "id", e.id.String())
	return e
}

// ID returns the identifier of the encoder instance used in its logs.
func (e *Encoder) ID() string { return e.id.String() }

// Config returns a copy of the current configuration.
func (e *Encoder) Config() config.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scs != nil {
		e.scs.mu.Lock()
		defer e.scs.mu.Unlock()
		return e.scs.Config
	}
	return e.cfg
}

// SetParameter validates c and makes it the configuration used by Init.
// Unset fields take defaults. An invalid configuration is rejected with
// ErrBadParameter and leaves the encoder unchanged.
func (e *Encoder) SetParameter(c config.Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state > stateConfigured {
		return fmt.Errorf("%w: encoder already initialised", ErrInvalidComponent)
	}
	if c.Logger == nil {
		c.Logger = e.log
	}
	err := c.Validate()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadParameter, err)
	}
	s := newSequenceControlSet(c)
	err = s.MEParams.Validate()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadParameter, err)
	}
	e.cfg, e.scs = c, s
	e.state = stateConfigured
	e.log.Info("parameters set", "id", e.id.String(), "width", c.SourceWidth, "height", c.SourceHeight, "miniGOP", s.MiniGOPSize, "asm", s.Asm.String())
	return nil
}

// Init builds every pipeline resource and starts the stages. If a resource
// cannot be built it returns an error wrapping ErrInsufficientResources and
// no stage is started.
func (e *Encoder) Init() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != stateConfigured {
		return fmt.Errorf("%w: Init before SetParameter", ErrInvalidComponent)
	}

	e.log.Debug("building pipeline", "id", e.id.String(), "parents", e.scs.ParentCount, "children", e.scs.ChildCount, "segments", e.scs.MESegments)
	pipe, err := newPipeline(e.scs, e.log)
	if err != nil {
		return err
	}
	e.pipe = pipe
	e.ctx, e.cancel = context.WithCancel(context.Background())
	pipe.start(e.ctx)
	e.state = stateRunning
	e.log.Info("encoder initialised", "id", e.id.String())
	return nil
}

// running checks that the encoder accepts calls.
func (e *Encoder) running() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case stateRunning:
		return nil
	case stateClosed:
		return ErrClosed
	default:
		return fmt.Errorf("%w: encoder not initialised", ErrInvalidComponent)
	}
}

// merge returns a context done when either ctx or the encoder is done.
func (e *Encoder) merge(ctx context.Context) (context.Context, context.CancelFunc) {
	mctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(e.ctx, cancel)
	return mctx, func() { stop(); cancel() }
}

// blockingErr maps the error of a blocking call made with the caller's ctx.
func (e *Encoder) blockingErr(ctx context.Context, err error) error {
	if ctx.Err() != nil && e.ctx.Err() == nil {
		return ctx.Err()
	}
	return err
}

// SendPicture copies f into an input buffer, waiting for one to be free.
// f must have the configured source dimensions.
func (e *Encoder) SendPicture(ctx context.Context, f *Frame) error {
	err := e.running()
	if err != nil {
		return err
	}
	e.mu.Lock()
	eos := e.eosSent
	e.mu.Unlock()
	if eos {
		return fmt.Errorf("%w: picture after end of sequence", ErrInvalidComponent)
	}
	s := e.scs
	if f == nil || f.Width != s.SourceWidth || f.Height != s.SourceHeight || f.Stride < f.Width || len(f.Luma) < f.Stride*(f.Height-1)+f.Width {
		return fmt.Errorf("%w: frame does not match %dx%d source", ErrBadParameter, s.SourceWidth, s.SourceHeight)
	}

	mctx, cancel := e.merge(ctx)
	defer cancel()
	w, err := e.pipe.input.Producer(0).GetEmpty(mctx)
	if err != nil {
		return e.blockingErr(ctx, err)
	}
	in := w.Object
	for y := 0; y < f.Height; y++ {
		copy(in.luma[y*f.Width:(y+1)*f.Width], f.Luma[y*f.Stride:])
	}
	in.stride, in.width, in.height = f.Width, f.Width, f.Height
	in.pts, in.eos = f.PTS, false
	e.pipe.input.Producer(0).Post(w)
	return nil
}

// SendEOS ends the sequence. Pictures still in the pipeline are coded and
// followed by a packet with EOS set.
func (e *Encoder) SendEOS(ctx context.Context) error {
	err := e.running()
	if err != nil {
		return err
	}
	e.mu.Lock()
	if e.eosSent {
		e.mu.Unlock()
		return nil
	}
	e.eosSent = true
	e.mu.Unlock()

	mctx, cancel := e.merge(ctx)
	defer cancel()
	w, err := e.pipe.input.Producer(0).GetEmpty(mctx)
	if err != nil {
		return e.blockingErr(ctx, err)
	}
	w.Object.eos = true
	w.Object.width, w.Object.height = 0, 0
	e.pipe.input.Producer(0).Post(w)
	e.log.Debug("end of sequence sent", "id", e.id.String())
	return nil
}

// GetPacket returns the next packet in decode order. If block is false and
// no packet is ready it returns ErrNoErrorEmptyQueue. The packet must be
// given back with ReleasePacket.
func (e *Encoder) GetPacket(ctx context.Context, block bool) (*Packet, error) {
	err := e.running()
	if err != nil {
		return nil, err
	}
	out := e.pipe.packets.Consumer(0)

	var pkt *Packet
	if block {
		mctx, cancel := e.merge(ctx)
		defer cancel()
		w, err := out.Get(mctx)
		if err != nil {
			return nil, e.blockingErr(ctx, err)
		}
		pkt = w.Object
	} else {
		w, ok := out.TryGet()
		if !ok {
			return nil, ErrNoErrorEmptyQueue
		}
		pkt = w.Object
	}

	if pkt.EOS == (len(pkt.Data) > 0) || (pkt.EOS && pkt.Key) {
		e.log.Error("malformed packet", "id", e.id.String(), "picture", pkt.PictureNumber, "eos", pkt.EOS, "bytes", len(pkt.Data))
		e.ReleasePacket(pkt)
		return nil, ErrMax
	}
	return pkt, nil
}

// ReleasePacket returns pkt to the encoder. pkt must not be used after.
func (e *Encoder) ReleasePacket(pkt *Packet) {
	if pkt == nil || pkt.w == nil {
		return
	}
	w := pkt.w
	pkt.w = nil
	w.Release()
}

// Reconfigure applies the rate control variables of vars to the running
// encoder: QP, MinQP, MaxQP, TargetBitRate and RateControlMode. Other
// variables are ignored.
func (e *Encoder) Reconfigure(vars map[string]string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scs == nil {
		return fmt.Errorf("%w: Reconfigure before SetParameter", ErrInvalidComponent)
	}

	rc := make(map[string]string)
	for k, v := range vars {
		switch k {
		case config.KeyQP, config.KeyMinQP, config.KeyMaxQP, config.KeyTargetBitRate, config.KeyRateControlMode:
			rc[k] = v
		default:
			e.log.Warning("variable cannot be changed while running", "id", e.id.String(), "variable", k)
		}
	}

	e.scs.mu.Lock()
	c := e.scs.Config
	e.scs.mu.Unlock()
	c.Update(rc)
	err := c.Validate()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadParameter, err)
	}
	e.scs.reconfigure(&c)
	e.log.Info("rate control reconfigured", "id", e.id.String(), "vars", rc)
	return nil
}

// Deinit stops every stage, waits for them to return and drops the
// pipeline. Blocked calls return ErrClosed. It is safe to call more than
// once.
func (e *Encoder) Deinit() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stateClosed {
		return nil
	}
	if e.pipe != nil {
		e.log.Debug("stopping pipeline", "id", e.id.String())
		e.cancel()
		e.pipe.stop()
	}
	e.state = stateClosed
	e.log.Info("encoder deinitialised", "id", e.id.String())
	return nil
}
