/*
NAME
  dpb.go

DESCRIPTION
  dpb.go provides the decoded picture buffer of the picture manager: the
  reconstructed references still needed by pictures not yet started.

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
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ausocean/svtvp9/sysres"
)

// dpbEntry tracks one reference. It leaves the buffer once picture decision
// has dropped it, every dependent has started and its reconstruction is
// complete.
type dpbEntry struct {
	ref        *sysres.Wrapper[*refObject]
	ready      bool // Reconstruction complete.
	dropped    bool
	started    int // Dependents started.
	dependents int // Total dependents, known once dropped.
}

func (e *dpbEntry) expired() bool {
	return e.dropped && e.ready && e.started >= e.dependents
}

// dpb holds one wrapper reference per entry, released on removal.
type dpb struct {
	entries *lru.Cache[uint64, *dpbEntry]
}

// newDPB returns a buffer of at most size entries. size must cover every
// reconstruction that can be alive, so that the cache never evicts on its
// own.
func newDPB(size int) (*dpb, error) {
	c, err := lru.NewWithEvict[uint64, *dpbEntry](size, func(_ uint64, e *dpbEntry) { e.ref.Release() })
	if err != nil {
		return nil, err
	}
	return &dpb{entries: c}, nil
}

// add inserts reference num, retaining ref.
func (d *dpb) add(num uint64, ref *sysres.Wrapper[*refObject]) {
	ref.Retain(1)
	d.entries.Add(num, &dpbEntry{ref: ref})
}

// ready returns whether every reference in refs is reconstructed.
func (d *dpb) ready(refs [2][]uint64) bool {
	for _, l := range refs {
		for _, num := range l {
			e, ok := d.entries.Peek(num)
			if !ok || !e.ready {
				return false
			}
		}
	}
	return true
}

// use returns reference num retained for a starting dependent.
func (d *dpb) use(num uint64) (*sysres.Wrapper[*refObject], bool) {
	e, ok := d.entries.Get(num)
	if !ok {
		return nil, false
	}
	e.started++
	e.ref.Retain(1)
	d.expire(num, e)
	return e.ref, true
}

// markReady records that reference num is reconstructed.
func (d *dpb) markReady(num uint64) {
	if e, ok := d.entries.Peek(num); ok {
		e.ready = true
		d.expire(num, e)
	}
}

// drop records that reference num has the given number of dependents and
// will gain no more.
func (d *dpb) drop(r refDrop) {
	if e, ok := d.entries.Peek(r.pictureNumber); ok {
		e.dropped, e.dependents = true, r.dependents
		d.expire(r.pictureNumber, e)
	}
}

func (d *dpb) expire(num uint64, e *dpbEntry) {
	if e.expired() {
		d.entries.Remove(num)
	}
}

// Len returns the number of references held.
func (d *dpb) Len() int { return d.entries.Len() }
