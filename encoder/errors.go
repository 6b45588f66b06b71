/*
NAME
  errors.go

DESCRIPTION
  errors.go provides the error taxonomy of the encoder API.

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
	"errors"

	"github.com/ausocean/svtvp9/sysres"
)

var (
	// ErrInsufficientResources is returned by Init when a pipeline resource
	// could not be built. No stage has been started when it is returned.
	ErrInsufficientResources = sysres.ErrInsufficientResources

	// ErrBadParameter is returned when a configuration or frame is rejected.
	ErrBadParameter = errors.New("bad parameter")

	// ErrInvalidComponent is returned when the API is used out of order.
	ErrInvalidComponent = errors.New("invalid component")

	// ErrNoErrorEmptyQueue is returned by a non-blocking GetPacket when no
	// packet is ready. It is a normal polling outcome.
	ErrNoErrorEmptyQueue = errors.New("no packet available")

	// ErrMax is returned when an internal invariant was violated, such as a
	// packet with a malformed flag combination.
	ErrMax = errors.New("internal error")

	// ErrClosed is returned by blocking calls once the encoder has been
	// deinitialized.
	ErrClosed = sysres.ErrClosed
)
