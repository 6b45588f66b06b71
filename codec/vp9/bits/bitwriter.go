/*
NAME
  bitwriter.go

DESCRIPTION
  bitwriter.go provides a bit writer appending to a byte slice, with
  Exp-Golomb coding.

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

// BitWriter appends bits to a byte slice, most significant bit first.
type BitWriter struct {
	buf  []byte
	n    uint64
	bits int
}

// NewBitWriter returns a BitWriter appending to buf[:0], reusing its storage.
func NewBitWriter(buf []byte) *BitWriter {
	return &BitWriter{buf: buf[:0]}
}

// Reset discards all written bits, keeping the storage.
func (bw *BitWriter) Reset() {
	bw.buf, bw.n, bw.bits = bw.buf[:0], 0, 0
}

// WriteBits writes the n least-significant bits of v, n <= 32.
func (bw *BitWriter) WriteBits(v uint64, n int) {
	bw.n = bw.n<<uint(n) | v&(1<<uint(n)-1)
	bw.bits += n
	for bw.bits >= 8 {
		bw.buf = append(bw.buf, byte(bw.n>>uint(bw.bits-8)))
		bw.bits -= 8
	}
}

// WriteFlag writes one bit.
func (bw *BitWriter) WriteFlag(b bool) {
	if b {
		bw.WriteBits(1, 1)
		return
	}
	bw.WriteBits(0, 1)
}

// WriteUe writes v as an unsigned Exp-Golomb code. v must be below 2^31.
func (bw *BitWriter) WriteUe(v uint64) {
	v++
	n := 0
	for t := v; t > 1; t >>= 1 {
		n++
	}
	bw.WriteBits(0, n)
	bw.WriteBits(v, n+1)
}

// WriteSe writes v as a signed Exp-Golomb code.
func (bw *BitWriter) WriteSe(v int64) {
	if v > 0 {
		bw.WriteUe(uint64(2*v - 1))
		return
	}
	bw.WriteUe(uint64(-2 * v))
}

// Align pads with zero bits to the next byte boundary.
func (bw *BitWriter) Align() {
	if r := bw.bits % 8; r != 0 {
		bw.WriteBits(0, 8-r)
	}
}

// Len returns the number of bits written.
func (bw *BitWriter) Len() int { return len(bw.buf)*8 + bw.bits }

// Bytes aligns the writer and returns the written bytes. The slice is only
// valid until the next write.
func (bw *BitWriter) Bytes() []byte {
	bw.Align()
	return bw.buf
}
