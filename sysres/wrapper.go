/*
NAME
  wrapper.go

DESCRIPTION
  wrapper.go provides the object wrapper, the envelope in which every payload
  travels between pipeline stages.

AUTHORS
  The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package sysres

import (
	"fmt"
	"sync/atomic"
)

// Wrapper states. A wrapper is always in exactly one of these.
const (
	stateFree int32 = iota
	stateHeld
	stateQueued
)

// Wrapper is an envelope for a pipeline payload. Wrappers are owned by the
// Resource that created them and are never destroyed; releasing a wrapper
// returns it to its owner's free list.
type Wrapper[T any] struct {
	// Object is the payload. It is constructed once when the owning resource
	// is created and reused for the life of the resource.
	Object T

	res   *Resource[T]
	live  atomic.Int32
	state atomic.Int32
}

// Retain adds n readers to the wrapper. Each reader must call Release once.
func (w *Wrapper[T]) Retain(n int) {
	if w.state.Load() == stateFree {
		panic("sysres: retain of free wrapper")
	}
	w.live.Add(int32(n))
}

// Release drops one reader. When the last reader releases, the wrapper
// goes back to its resource's free list.
func (w *Wrapper[T]) Release() {
	n := w.live.Add(-1)
	switch {
	case n > 0:
		return
	case n < 0:
		panic(fmt.Sprintf("sysres: wrapper released too many times (live count %d)", n))
	}
	if !w.state.CompareAndSwap(stateHeld, stateFree) {
		panic("sysres: release of wrapper that is not held")
	}
	w.res.empty <- w
}

// LiveCount returns the number of readers holding the wrapper.
func (w *Wrapper[T]) LiveCount() int { return int(w.live.Load()) }

// Held reports whether the wrapper is currently held by a stage.
func (w *Wrapper[T]) Held() bool { return w.state.Load() == stateHeld }

func (w *Wrapper[T]) acquire() {
	if !w.state.CompareAndSwap(stateFree, stateHeld) {
		panic("sysres: acquired wrapper was not free")
	}
	w.live.Store(1)
}

func (w *Wrapper[T]) enqueue() {
	if !w.state.CompareAndSwap(stateHeld, stateQueued) {
		panic("sysres: posted wrapper is not held")
	}
}

func (w *Wrapper[T]) dequeue() {
	if !w.state.CompareAndSwap(stateQueued, stateHeld) {
		panic("sysres: popped wrapper was not queued")
	}
}
