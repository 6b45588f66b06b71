/*
NAME
  utils_test.go

DESCRIPTION
  utils_test.go provides helpers shared by the encoder tests.

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
	"fmt"
	"testing"

	"github.com/ausocean/utils/logging"
)

// testLogger will allow logging to be done by the testing pkg.
type testLogger testing.T

func (tl *testLogger) Debug(msg string, args ...interface{})   { tl.Log(logging.Debug, msg, args...) }
func (tl *testLogger) Info(msg string, args ...interface{})    { tl.Log(logging.Info, msg, args...) }
func (tl *testLogger) Warning(msg string, args ...interface{}) { tl.Log(logging.Warning, msg, args...) }
func (tl *testLogger) Error(msg string, args ...interface{})   { tl.Log(logging.Error, msg, args...) }
func (tl *testLogger) Fatal(msg string, args ...interface{})   { tl.Log(logging.Fatal, msg, args...) }
func (tl *testLogger) SetLevel(lvl int8)                       {}
func (tl *testLogger) Log(lvl int8, msg string, args ...interface{}) {
	var l string
	switch lvl {
	case logging.Warning:
		l = "warning"
	case logging.Debug:
		// Stage debug output swamps test logs.
		return
	case logging.Info:
		l = "info"
	case logging.Error:
		l = "error"
	case logging.Fatal:
		l = "fatal"
	}
	msg = l + ": " + msg
	for i := 0; i+1 < len(args); i += 2 {
		msg += fmt.Sprintf(" %v:%q", args[i], fmt.Sprint(args[i+1]))
	}
	if lvl == logging.Fatal {
		((*testing.T)(tl)).Fatal(msg)
	}
	((*testing.T)(tl)).Log(msg)
}

// testFrame returns a w x h frame of a diagonal ramp shifted right by
// shift pixels, with a bright square that moves down with n.
func testFrame(w, h, n, shift int) *Frame {
	f := &Frame{Luma: make([]byte, w*h), Stride: w, Width: w, Height: h, PTS: int64(n)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.Luma[y*w+x] = byte((x + shift + 2*y) & 0xff)
		}
	}
	for y := 16 + 2*n; y < 32+2*n && y < h; y++ {
		for x := 24; x < 40 && x < w; x++ {
			f.Luma[y*w+x] = 235
		}
	}
	return f
}
