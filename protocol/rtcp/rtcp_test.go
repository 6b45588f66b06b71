/*
NAME
  rtcp_test.go

DESCRIPTION
  rtcp_test.go provides testing for serialization of RTCP packets.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package rtcp

import (
	"bytes"
	"testing"
)

func TestSenderReportBytes(t *testing.T) {
	expect := []byte{
		0x80, 0xc8, 0x00, 0x06,
		0xd6, 0xe0, 0x98, 0xda,
		0xe9, 0x3c, 0x1f, 0x00,
		0x80, 0x00, 0x00, 0x00,
		0x00, 0x01, 0x5f, 0x90,
		0x00, 0x00, 0x00, 0x0a,
		0x00, 0x00, 0x04, 0x00,
	}
	r := SenderReport{
		Header:       Header{Version: 2, Type: typeSenderReport},
		SSRC:         3605043418,
		NTP:          Timestamp{Seconds: 0xe93c1f00, Fraction: 0x80000000},
		RTPTimestamp: 90000,
		PacketCount:  10,
		OctetCount:   1024,
	}
	got := r.Bytes(nil)
	if !bytes.Equal(got, expect) {
		t.Errorf("did not get expected result.\nGot: %v\nWant: %v", got, expect)
	}
}

func TestSourceDescriptionBytes(t *testing.T) {
	expect := []byte{
		0x81, 0xca, 0x00, 0x04,
		0xd6, 0xe0, 0x98, 0xda,
		0x01, 0x08, 0x73, 0x61,
		0x78, 0x6f, 0x6e, 0x2d,
		0x70, 0x63, 0x00, 0x00,
	}
	description := Description{
		Header: Header{Version: 2, ReportCount: 1, Type: typeDescription},
		Chunks: []Chunk{{SSRC: 3605043418, Items: []SDESItem{{Type: typeCName, Text: []byte("saxon-pc")}}}},
	}
	got := description.Bytes(nil)
	if !bytes.Equal(got, expect) {
		t.Errorf("did not get expected result.\nGot: %v\nWant: %v", got, expect)
	}
}

// A name filling the chunk to a word boundary still needs a null item, so
// a whole word of padding is added.
func TestSourceDescriptionPadding(t *testing.T) {
	d := Description{
		Header: Header{Version: 2, ReportCount: 1, Type: typeDescription},
		Chunks: []Chunk{{SSRC: 1, Items: []SDESItem{{Type: typeCName, Text: []byte("svtvp9")}}}},
	}
	got := d.Bytes([]byte{0xff})
	if len(got) != 1+4+16 {
		t.Fatalf("unexpected length: got %d, want %d", len(got), 1+4+16)
	}
	if got[0] != 0xff || !bytes.Equal(got[5:9], []byte{0, 0, 0, 1}) {
		t.Errorf("unexpected prefix: %v", got[:9])
	}
	if !bytes.Equal(got[len(got)-4:], []byte{0, 0, 0, 0}) {
		t.Errorf("unexpected padding: %v", got[len(got)-4:])
	}
}
