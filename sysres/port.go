/*
NAME
  port.go

DESCRIPTION
  port.go provides port tables, which map a named input port and an instance
  number to a producer fifo index of a shared resource.

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

import "fmt"

// Port describes one group of producers feeding a resource. Count is the
// number of stage instances in the group.
type Port struct {
	Type  int
	Count int
}

// PortTable lists the port groups of a resource in fifo order.
type PortTable []Port

// Index returns the fifo index of instance n of the port of type typ. It
// panics if typ is not in the table or n is out of range, both of which are
// wiring errors.
func (t PortTable) Index(typ, n int) int {
	var offset int
	for _, p := range t {
		if p.Type == typ {
			if n < 0 || n >= p.Count {
				panic(fmt.Sprintf("sysres: instance %d out of range for port type %d", n, typ))
			}
			return offset + n
		}
		offset += p.Count
	}
	panic(fmt.Sprintf("sysres: unknown port type %d", typ))
}

// Total returns the number of fifos described by the table.
func (t PortTable) Total() int {
	var n int
	for _, p := range t {
		n += p.Count
	}
	return n
}
