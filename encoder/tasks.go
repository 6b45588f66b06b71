/*
NAME
  tasks.go

DESCRIPTION
  tasks.go provides the messages exchanged between pipeline stages and the
  port tables of the resources fed by more than one kind of producer.

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

import "github.com/ausocean/svtvp9/sysres"

// Picture demux input ports.
const (
	portSBO = iota
	portEncDec
)

// Rate control input ports.
const (
	portPictureManager = iota
	portPacketization
	portEntropyCoding
)

// pictureTask carries a parent picture control set between the stages up
// to source based operations. segment is the ME segment for ME tasks and
// results.
type pictureTask struct {
	pcs     *sysres.Wrapper[*ParentPCS]
	segment int
}

// demuxTask is an input of the picture manager: an analysed picture from
// source based operations, or reference feedback from EncDec.
type demuxTask struct {
	kind          int
	pcs           *sysres.Wrapper[*ParentPCS]
	pictureNumber uint64
}

// rcTask is an input of rate control: a picture to assign a QP to, or bit
// count feedback from entropy coding and packetization.
type rcTask struct {
	kind          int
	child         *sysres.Wrapper[*ChildPCS]
	pictureNumber uint64
	sliceType     SliceType
	layer         int
	bits          int
}

// codingTask carries a child picture control set, with the superblock row
// to work on from mode decision configuration onwards. Row -1 marks the end
// of sequence picture.
type codingTask struct {
	child *sysres.Wrapper[*ChildPCS]
	row   int
}

func newTask[T any](*SequenceControlSet) (*T, error) { return new(T), nil }

func demuxPorts(s *SequenceControlSet) sysres.PortTable {
	return sysres.PortTable{
		{Type: portSBO, Count: int(s.Config.SourceBasedProcesses)},
		{Type: portEncDec, Count: int(s.Config.EncDecProcesses)},
	}
}

func rcPorts(s *SequenceControlSet) sysres.PortTable {
	return sysres.PortTable{
		{Type: portPictureManager, Count: 1},
		{Type: portPacketization, Count: 1},
		{Type: portEntropyCoding, Count: int(s.Config.EntropyCodingProcesses)},
	}
}
