/*
NAME
  bits_test.go

DESCRIPTION
  bits_test.go provides testing for the bit reader and writer.

AUTHORS
  The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package bits

import (
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadBits(t *testing.T) {
	br := NewBitReader([]byte{0x8f, 0xe3})
	tests := []struct {
		n    int
		want uint64
	}{
		{4, 0x8},
		{2, 0x3},
		{4, 0xf},
		{6, 0x23},
	}
	for i, test := range tests {
		got, err := br.ReadBits(test.n)
		if err != nil {
			t.Fatalf("did not expect error for test %d: %v", i, err)
		}
		if got != test.want {
			t.Errorf("did not get expected result for test %d\nGot: %#x\nWant: %#x", i, got, test.want)
		}
	}
	if _, err := br.ReadBits(1); err != io.ErrUnexpectedEOF {
		t.Errorf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestExpGolomb(t *testing.T) {
	// Codes from Table 9-2 of Rec. ITU-T H.264.
	tests := []struct {
		ue   uint64
		bits string
	}{
		{0, "1"},
		{1, "010"},
		{2, "011"},
		{3, "00100"},
		{6, "00111"},
		{7, "0001000"},
	}
	for _, test := range tests {
		bw := NewBitWriter(nil)
		bw.WriteUe(test.ue)
		if bw.Len() != len(test.bits) {
			t.Errorf("ue(%d): wrote %d bits, want %d", test.ue, bw.Len(), len(test.bits))
		}
		var want uint64
		for _, c := range test.bits {
			want = want<<1 | uint64(c-'0')
		}
		br := NewBitReader(bw.Bytes())
		got, err := br.ReadBits(len(test.bits))
		if err != nil || got != want {
			t.Errorf("ue(%d): got bits %b (err %v), want %s", test.ue, got, err, test.bits)
		}
	}
}

func TestSyntaxElements(t *testing.T) {
	bw := NewBitWriter(make([]byte, 0, 16))
	bw.WriteBits(2, 2)
	bw.WriteFlag(true)
	bw.WriteUe(300)
	bw.WriteSe(-17)
	bw.WriteSe(0)
	bw.WriteSe(5)
	bw.Align()
	bw.WriteUe(1 << 20)

	br := NewBitReader(bw.Bytes())
	var got []int64
	v, _ := br.ReadBits(2)
	got = append(got, int64(v))
	f, _ := br.ReadFlag()
	if f {
		got = append(got, 1)
	}
	u, _ := br.ReadUe()
	got = append(got, int64(u))
	for i := 0; i < 3; i++ {
		s, err := br.ReadSe()
		if err != nil {
			t.Fatalf("did not expect error: %v", err)
		}
		got = append(got, s)
	}
	br.Align()
	if !br.ByteAligned() {
		t.Error("reader not aligned")
	}
	u, err := br.ReadUe()
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	got = append(got, int64(u))

	want := []int64{2, 1, 300, -17, 0, 5, 1 << 20}
	if !cmp.Equal(got, want) {
		t.Errorf("unexpected values\n%s", cmp.Diff(want, got))
	}
}
