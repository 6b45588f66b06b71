/*
NAME
  ivf_test.go

DESCRIPTION
  ivf_test.go provides testing for the IVF writer and reader.

AUTHORS
  The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package ivf

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWriteRead(t *testing.T) {
	frames := []struct {
		data []byte
		pts  uint64
	}{
		{data: []byte{1, 2, 3}, pts: 0},
		{data: []byte{}, pts: 1},
		{data: bytes.Repeat([]byte{0xaa}, 1000), pts: 7},
	}
	hdr := Header{FourCC: FourCCVP9, Width: 352, Height: 288, Rate: 30, Scale: 1}

	path := filepath.Join(t.TempDir(), "out.ivf")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("could not create file: %v", err)
	}
	w, err := NewWriter(f, hdr)
	if err != nil {
		t.Fatalf("did not expect error from NewWriter: %v", err)
	}
	for _, fr := range frames {
		err = w.WriteFrame(fr.data, fr.pts)
		if err != nil {
			t.Fatalf("did not expect error from WriteFrame: %v", err)
		}
	}
	err = w.Close()
	if err != nil {
		t.Fatalf("did not expect error from Close: %v", err)
	}
	f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("could not read file: %v", err)
	}
	r, err := NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("did not expect error from NewReader: %v", err)
	}
	want := hdr
	want.Frames = uint32(len(frames))
	if !cmp.Equal(r.Header, want) {
		t.Errorf("unexpected header\n%s", cmp.Diff(want, r.Header))
	}

	var buf []byte
	for i, fr := range frames {
		var pts uint64
		buf, pts, err = r.ReadFrame(buf)
		if err != nil {
			t.Fatalf("frame %d: did not expect error from ReadFrame: %v", i, err)
		}
		if pts != fr.pts || !bytes.Equal(buf, fr.data) {
			t.Errorf("frame %d: got pts %d and %d bytes, want pts %d and %d bytes", i, pts, len(buf), fr.pts, len(fr.data))
		}
	}
	_, _, err = r.ReadFrame(buf)
	if err != io.EOF {
		t.Errorf("unexpected error at end of stream: got %v, want %v", err, io.EOF)
	}
}

func TestStreamWriter(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, Header{FourCC: FourCCVP9, Width: 64, Height: 64, Rate: 25, Scale: 1})
	if err != nil {
		t.Fatalf("did not expect error from NewWriter: %v", err)
	}
	if err = w.WriteFrame([]byte{9, 9}, 3); err != nil {
		t.Fatalf("did not expect error from WriteFrame: %v", err)
	}
	if err = w.Close(); err != nil {
		t.Fatalf("did not expect error from Close: %v", err)
	}
	if got, want := buf.Len(), fileHeaderSize+frameHeaderSize+2; got != want {
		t.Errorf("unexpected stream length: got %d, want %d", got, want)
	}

	// The frame count cannot be patched on a plain writer.
	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("did not expect error from NewReader: %v", err)
	}
	if r.Header.Frames != 0 {
		t.Errorf("unexpected frame count: %d", r.Header.Frames)
	}

	_, _, err = r.ReadFrame(nil)
	if err != nil {
		t.Fatalf("did not expect error from ReadFrame: %v", err)
	}
}

func TestBadInput(t *testing.T) {
	_, err := NewWriter(io.Discard, Header{FourCC: "VP9"})
	if !errors.Is(err, ErrBadFourCC) {
		t.Errorf("unexpected error for short fourcc: got %v, want %v", err, ErrBadFourCC)
	}

	_, err = NewReader(bytes.NewReader(make([]byte, fileHeaderSize)))
	if !errors.Is(err, ErrBadSignature) {
		t.Errorf("unexpected error for bad signature: got %v, want %v", err, ErrBadSignature)
	}

	var buf bytes.Buffer
	w, _ := NewWriter(&buf, Header{FourCC: FourCCVP9})
	w.WriteFrame([]byte{1, 2, 3, 4}, 0)
	r, err := NewReader(bytes.NewReader(buf.Bytes()[:buf.Len()-1]))
	if err != nil {
		t.Fatalf("did not expect error from NewReader: %v", err)
	}
	_, _, err = r.ReadFrame(nil)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("unexpected error for truncated frame: got %v, want %v", err, io.ErrUnexpectedEOF)
	}
}
