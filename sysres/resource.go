/*
NAME
  resource.go

DESCRIPTION
  resource.go provides the system resource: a fixed set of preallocated
  object wrappers together with the fifos that connect the stages producing
  into the resource with the stages consuming from it.

AUTHORS
  The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package sysres provides the bounded object pools and fifos used to connect
// the stages of the encoder pipeline.
//
// A Resource owns a constant number of wrappers. A producing stage acquires
// an empty wrapper, fills its payload and posts it; a consuming stage pops
// it, uses it and releases it, which returns it to the free list. Blocking
// on an exhausted free list is how backpressure travels upstream.
package sysres

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	perrors "github.com/pkg/errors"
)

var (
	// ErrClosed is returned by blocking operations once the pipeline context
	// has been cancelled.
	ErrClosed = errors.New("sysres: resource closed")

	// ErrInsufficientResources is returned when a resource could not be
	// constructed.
	ErrInsufficientResources = errors.New("sysres: insufficient resources")
)

// Resource is a fixed-size pool of wrappers with a free list and a queue of
// full wrappers. Any number of producers may post to the full queue, and
// any number of consumers may pop from it; whichever idle consumer wakes first
// claims the next wrapper.
//
// All producers share the one queue, so a PortTable does not route. Endpoint
// indices identify the posting or popping stage instance: they are checked
// against the declared counts and each endpoint's traffic is counted.
type Resource[T any] struct {
	wrappers  []*Wrapper[T]
	empty     chan *Wrapper[T]
	full      chan *Wrapper[T]
	producers int
	consumers int
	posted    []atomic.Uint64 // Per producer index.
	popped    []atomic.Uint64 // Per consumer index.
}

// NewResource returns a resource of capacity wrappers, each payload built by
// calling ctor with data. A consumers count of zero gives a pure object pool
// whose wrappers are only ever acquired and released.
func NewResource[T, D any](capacity, producers, consumers int, ctor func(D) (T, error), data D) (*Resource[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity %d", ErrInsufficientResources, capacity)
	}
	if producers <= 0 || consumers < 0 {
		return nil, fmt.Errorf("%w: %d producers, %d consumers", ErrInsufficientResources, producers, consumers)
	}

	r := &Resource[T]{
		wrappers:  make([]*Wrapper[T], capacity),
		empty:     make(chan *Wrapper[T], capacity),
		producers: producers,
		consumers: consumers,
		posted:    make([]atomic.Uint64, producers),
		popped:    make([]atomic.Uint64, consumers),
	}
	if consumers > 0 {
		r.full = make(chan *Wrapper[T], capacity)
	}
	for i := range r.wrappers {
		obj, err := ctor(data)
		if err != nil {
			return nil, perrors.Wrap(ErrInsufficientResources, fmt.Sprintf("could not construct object %d: %v", i, err))
		}
		w := &Wrapper[T]{Object: obj, res: r}
		r.wrappers[i] = w
		r.empty <- w
	}
	return r, nil
}

// Producer returns the producer endpoint with the given index. Indices are
// normally obtained from a PortTable.
func (r *Resource[T]) Producer(i int) *Producer[T] {
	if i < 0 || i >= r.producers {
		panic(fmt.Sprintf("sysres: producer index %d out of range [0,%d)", i, r.producers))
	}
	return &Producer[T]{res: r, index: i}
}

// Consumer returns the consumer endpoint with the given index.
func (r *Resource[T]) Consumer(i int) *Consumer[T] {
	if i < 0 || i >= r.consumers {
		panic(fmt.Sprintf("sysres: consumer index %d out of range [0,%d)", i, r.consumers))
	}
	return &Consumer[T]{res: r, index: i}
}

// Posted returns the number of wrappers posted through producer i.
func (r *Resource[T]) Posted(i int) uint64 { return r.posted[i].Load() }

// Popped returns the number of wrappers popped through consumer i.
func (r *Resource[T]) Popped(i int) uint64 { return r.popped[i].Load() }

// Capacity returns the number of wrappers owned by the resource.
func (r *Resource[T]) Capacity() int { return len(r.wrappers) }

// Free returns the number of wrappers on the free list.
func (r *Resource[T]) Free() int { return len(r.empty) }

// Queued returns the number of posted wrappers not yet popped.
func (r *Resource[T]) Queued() int {
	if r.full == nil {
		return 0
	}
	return len(r.full)
}

// Held returns the number of wrappers held by stages.
func (r *Resource[T]) Held() int {
	var n int
	for _, w := range r.wrappers {
		if w.Held() {
			n++
		}
	}
	return n
}

// Objects returns every payload owned by the resource. It is intended for
// teardown and inspection, not for use while the pipeline runs.
func (r *Resource[T]) Objects() []T {
	objs := make([]T, len(r.wrappers))
	for i, w := range r.wrappers {
		objs[i] = w.Object
	}
	return objs
}

// Producer is the endpoint through which a stage acquires empty wrappers and
// posts full ones.
type Producer[T any] struct {
	res   *Resource[T]
	index int
}

// Index returns the producer's fifo index within its resource.
func (p *Producer[T]) Index() int { return p.index }

// GetEmpty blocks until a free wrapper is available or ctx is done.
func (p *Producer[T]) GetEmpty(ctx context.Context) (*Wrapper[T], error) {
	select {
	case w := <-p.res.empty:
		w.acquire()
		return w, nil
	case <-ctx.Done():
		return nil, ErrClosed
	}
}

// Post hands w to the consumers of the resource. The caller must not touch
// w after Post returns.
func (p *Producer[T]) Post(w *Wrapper[T]) {
	if w.res != p.res {
		panic("sysres: wrapper posted to a resource that does not own it")
	}
	if p.res.full == nil {
		panic("sysres: post to a resource without consumers")
	}
	w.enqueue()
	p.res.posted[p.index].Add(1)
	p.res.full <- w
}

// Consumer is the endpoint through which a stage pops full wrappers.
type Consumer[T any] struct {
	res   *Resource[T]
	index int
}

// Index returns the consumer's fifo index within its resource.
func (c *Consumer[T]) Index() int { return c.index }

// Get blocks until a full wrapper is available or ctx is done.
func (c *Consumer[T]) Get(ctx context.Context) (*Wrapper[T], error) {
	select {
	case w := <-c.res.full:
		w.dequeue()
		c.res.popped[c.index].Add(1)
		return w, nil
	case <-ctx.Done():
		return nil, ErrClosed
	}
}

// TryGet pops a full wrapper if one is queued; ok is false otherwise.
func (c *Consumer[T]) TryGet() (w *Wrapper[T], ok bool) {
	select {
	case w = <-c.res.full:
		w.dequeue()
		c.res.popped[c.index].Add(1)
		return w, true
	default:
		return nil, false
	}
}
