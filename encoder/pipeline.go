/*
NAME
  pipeline.go

DESCRIPTION
  pipeline.go builds the resources connecting the encoder stages and starts
  one goroutine per stage instance.

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
	"fmt"
	"sync"

	"github.com/ausocean/utils/logging"
	perrors "github.com/pkg/errors"

	"github.com/ausocean/svtvp9/codec/vp9/me"
	"github.com/ausocean/svtvp9/sysres"
)

// pipeline holds every resource of an encoder instance. Pools have no
// consumers; the other resources are fifos between stages.
type pipeline struct {
	scs *SequenceControlSet
	log logging.Logger

	// Pools.
	parents  *sysres.Resource[*ParentPCS]
	paRefs   *sysres.Resource[*paReference]
	children *sysres.Resource[*ChildPCS]
	recons   *sysres.Resource[*refObject]

	// Fifos, in pipeline order.
	input         *sysres.Resource[*inputBuffer]
	coordResults  *sysres.Resource[*pictureTask]
	paResults     *sysres.Resource[*pictureTask]
	meTasks       *sysres.Resource[*pictureTask]
	meResults     *sysres.Resource[*pictureTask]
	ircResults    *sysres.Resource[*pictureTask]
	demux         *sysres.Resource[*demuxTask]
	rcTasks       *sysres.Resource[*rcTask]
	rateResults   *sysres.Resource[*codingTask]
	encDecTasks   *sysres.Resource[*codingTask]
	encDecResults *sysres.Resource[*codingTask]
	ecResults     *sysres.Resource[*codingTask]
	packets       *sysres.Resource[*Packet]

	demuxPorts sysres.PortTable
	rcPorts    sysres.PortTable

	// Per instance state of the stages that keep it, and the decoded
	// picture buffer of the picture manager.
	meContexts    []*me.Context
	encDecWorkers []*encDecWorker
	dpb           *dpb

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// newPipeline builds every resource. Message fifos are sized so that a post
// never waits on the free list while the pictures it refers to are alive;
// only the output packets apply backpressure to the pipeline.
func newPipeline(s *SequenceControlSet, log logging.Logger) (*pipeline, error) {
	c := &s.Config
	p := &pipeline{scs: s, log: log, demuxPorts: demuxPorts(s), rcPorts: rcPorts(s)}

	pa, mes, sbo := int(c.PictureAnalysisProcesses), int(c.MotionEstimationProcesses), int(c.SourceBasedProcesses)
	ed, ec := int(c.EncDecProcesses), int(c.EntropyCodingProcesses)
	parents, children := s.ParentCount, s.ChildCount
	rows := children*s.SBRows + 1

	var err error
	build := func(what string, f func() error) {
		if err != nil {
			return
		}
		if e := f(); e != nil {
			err = perrors.Wrapf(e, "could not create %s", what)
		}
	}

	build("parent picture control sets", func() (e error) {
		p.parents, e = sysres.NewResource(parents, 1, 0, newParentPCS, s)
		return e
	})
	build("analysis references", func() (e error) {
		p.paRefs, e = sysres.NewResource(s.PARefCount, pa, 0, newPAReference, s)
		return e
	})
	build("child picture control sets", func() (e error) {
		p.children, e = sysres.NewResource(children, 1, 0, newChildPCS, s)
		return e
	})
	build("reconstructed references", func() (e error) {
		p.recons, e = sysres.NewResource(s.ReconCount, 1, 0, newRefObject, s)
		return e
	})
	build("input buffers", func() (e error) {
		p.input, e = sysres.NewResource(int(c.InputBuffers), 1, 1, newInputBuffer, s)
		return e
	})
	build("resource coordination results", func() (e error) {
		p.coordResults, e = sysres.NewResource(parents+1, 1, pa, newTask[pictureTask], s)
		return e
	})
	build("picture analysis results", func() (e error) {
		p.paResults, e = sysres.NewResource(parents+1, pa, 1, newTask[pictureTask], s)
		return e
	})
	build("motion estimation tasks", func() (e error) {
		p.meTasks, e = sysres.NewResource(parents*s.MESegments+1, 1, mes, newTask[pictureTask], s)
		return e
	})
	build("motion estimation results", func() (e error) {
		p.meResults, e = sysres.NewResource(parents*s.MESegments+1, mes, 1, newTask[pictureTask], s)
		return e
	})
	build("initial rate control results", func() (e error) {
		p.ircResults, e = sysres.NewResource(parents+1, 1, sbo, newTask[pictureTask], s)
		return e
	})
	build("picture demux", func() (e error) {
		p.demux, e = sysres.NewResource(parents+children+1, p.demuxPorts.Total(), 1, newTask[demuxTask], s)
		return e
	})
	build("rate control tasks", func() (e error) {
		p.rcTasks, e = sysres.NewResource(3*children+1, p.rcPorts.Total(), 1, newTask[rcTask], s)
		return e
	})
	build("rate control results", func() (e error) {
		p.rateResults, e = sysres.NewResource(children+1, 1, 1, newTask[codingTask], s)
		return e
	})
	build("EncDec tasks", func() (e error) {
		p.encDecTasks, e = sysres.NewResource(rows, 1, ed, newTask[codingTask], s)
		return e
	})
	build("EncDec results", func() (e error) {
		p.encDecResults, e = sysres.NewResource(rows, ed, ec, newTask[codingTask], s)
		return e
	})
	build("entropy coding results", func() (e error) {
		p.ecResults, e = sysres.NewResource(children+1, ec, 1, newTask[codingTask], s)
		return e
	})
	build("output packets", func() (e error) {
		p.packets, e = sysres.NewResource(int(c.OutputBuffers), 1, 1, newPacket, s)
		return e
	})
	build("motion estimation contexts", func() error {
		for i := 0; i < mes; i++ {
			mc, e := me.NewContext(s.Kernels, s.MEParams)
			if e != nil {
				return fmt.Errorf("%w: %v", sysres.ErrInsufficientResources, e)
			}
			p.meContexts = append(p.meContexts, mc)
		}
		return nil
	})
	build("decoded picture buffer", func() (e error) {
		p.dpb, e = newDPB(s.ReconCount)
		if e != nil {
			return fmt.Errorf("%w: %v", sysres.ErrInsufficientResources, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i := 0; i < ed; i++ {
		p.encDecWorkers = append(p.encDecWorkers, newEncDecWorker(s.Kernels))
	}
	return p, nil
}

// start launches every stage instance. The stages stop when ctx is
// cancelled; stop joins them.
func (p *pipeline) start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	c := &p.scs.Config

	p.goStage(ctx, "resource coordination", 0, p.resourceCoordination)
	for i := 0; i < int(c.PictureAnalysisProcesses); i++ {
		p.goStage(ctx, "picture analysis", i, p.pictureAnalysis)
	}
	p.goStage(ctx, "picture decision", 0, p.pictureDecision)
	for i := 0; i < int(c.MotionEstimationProcesses); i++ {
		p.goStage(ctx, "motion estimation", i, p.motionEstimation)
	}
	p.goStage(ctx, "initial rate control", 0, p.initialRateControl)
	for i := 0; i < int(c.SourceBasedProcesses); i++ {
		p.goStage(ctx, "source based operations", i, p.sourceBasedOperations)
	}
	p.goStage(ctx, "picture manager", 0, p.pictureManager)
	p.goStage(ctx, "rate control", 0, p.rateControl)
	p.goStage(ctx, "mode decision configuration", 0, p.modeDecisionConfiguration)
	for i := 0; i < int(c.EncDecProcesses); i++ {
		p.goStage(ctx, "EncDec", i, p.encDec)
	}
	for i := 0; i < int(c.EntropyCodingProcesses); i++ {
		p.goStage(ctx, "entropy coding", i, p.entropyCoding)
	}
	p.goStage(ctx, "packetization", 0, p.packetization)
}

// goStage runs instance id of stage f in a new goroutine. A stage failing
// with anything other than a closed resource stops the whole pipeline.
func (p *pipeline) goStage(ctx context.Context, name string, id int, f func(context.Context, int) error) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.log.Debug("stage started", "stage", name, "instance", id)
		err := f(ctx, id)
		if err != nil && !errors.Is(err, sysres.ErrClosed) {
			p.log.Error("stage failed", "stage", name, "instance", id, "error", err.Error())
			p.cancel()
			return
		}
		p.log.Debug("stage stopped", "stage", name, "instance", id)
	}()
}

// stop cancels every stage and waits for them to return.
func (p *pipeline) stop() {
	p.cancel()
	p.wg.Wait()
	for i := 0; i < p.rcPorts.Total(); i++ {
		p.log.Debug("rate control port traffic", "port", i, "tasks", p.rcTasks.Posted(i))
	}
}

// post sends a message to the fifo of producer out, waiting for a free
// wrapper if there is none.
func post[T any](ctx context.Context, out *sysres.Producer[T], set func(T)) error {
	w, err := out.GetEmpty(ctx)
	if err != nil {
		return err
	}
	set(w.Object)
	out.Post(w)
	return nil
}
