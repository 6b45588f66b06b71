/*
NAME
  bitreader.go

DESCRIPTION
  bitreader.go provides a bit reader over a byte slice, with Exp-Golomb
  decoding of the stand-in entropy coder's syntax elements.

AUTHORS
  The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package bits provides MSB-first bit readers and writers with Exp-Golomb
// coding, used for frame headers and the stand-in entropy coder.
package bits

import (
	"errors"
	"io"
)

// ErrCodeTooLong is returned when an Exp-Golomb prefix exceeds 32 zeros.
var ErrCodeTooLong = errors.New("exp-golomb code too long")

// BitReader reads bits from a byte slice, most significant bit first.
type BitReader struct {
	buf   []byte
	n     uint64
	bits  int
	nRead int
}

// NewBitReader returns a new BitReader over buf.
func NewBitReader(buf []byte) *BitReader {
	return &BitReader{buf: buf}
}

// ReadBits reads n bits, n <= 56, and returns them in the least-significant
// part of a uint64.
// For example, with a source as []byte{0x8f,0xe3} (1000 1111, 1110 0011), we
// would get the following results for consequtive reads with n values:
// n = 4, res = 0x8 (1000)
// n = 2, res = 0x3 (0011)
// n = 4, res = 0xf (1111)
// n = 6, res = 0x23 (0010 0011)
func (br *BitReader) ReadBits(n int) (uint64, error) {
	for n > br.bits {
		if br.nRead >= len(br.buf) {
			return 0, io.ErrUnexpectedEOF
		}
		br.n <<= 8
		br.n |= uint64(br.buf[br.nRead])
		br.nRead++
		br.bits += 8
	}
	r := (br.n >> uint(br.bits-n)) & ((1 << uint(n)) - 1)
	br.bits -= n
	return r, nil
}

// ReadFlag reads one bit as a bool.
func (br *BitReader) ReadFlag() (bool, error) {
	b, err := br.ReadBits(1)
	return b == 1, err
}

// ReadUe reads an unsigned Exp-Golomb-coded value.
func (br *BitReader) ReadUe() (uint64, error) {
	nZeros := 0
	for {
		b, err := br.ReadBits(1)
		if err != nil {
			return 0, err
		}
		if b == 1 {
			break
		}
		nZeros++
		if nZeros > 32 {
			return 0, ErrCodeTooLong
		}
	}
	rem, err := br.ReadBits(nZeros)
	if err != nil {
		return 0, err
	}
	return (1 << uint(nZeros)) - 1 + rem, nil
}

// ReadSe reads a signed Exp-Golomb-coded value, mapped as 0, 1, -1, 2, -2...
func (br *BitReader) ReadSe() (int64, error) {
	k, err := br.ReadUe()
	if err != nil {
		return 0, err
	}
	if k%2 == 1 {
		return int64(k+1) / 2, nil
	}
	return -int64(k / 2), nil
}

// ByteAligned returns true if the reader position is at the start of a byte,
// and false otherwise.
func (br *BitReader) ByteAligned() bool {
	return br.bits == 0
}

// Align discards bits up to the next byte boundary.
func (br *BitReader) Align() {
	br.bits -= br.bits % 8
}

// BytesRead returns the number of bytes that have been read by the BitReader.
func (br *BitReader) BytesRead() int {
	return br.nRead
}
