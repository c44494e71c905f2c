package bitio

import "encoding/binary"

// LosslessWriter is the encoding counterpart of LosslessReader, used by
// the decoder tests to synthesize LSB-first bitstreams. Bits collect in
// a 64-bit accumulator and leave four bytes at a time in little-endian
// order, the layout LosslessReader expects.
type LosslessWriter struct {
	bits uint64 // accumulator, low bits first
	used int    // valid bits in the accumulator
	buf  []byte
	cur  int // write position in buf
}

// NewLosslessWriter returns a writer pre-sized for expectedSize bytes,
// rounded up to a 1k boundary.
func NewLosslessWriter(expectedSize int) *LosslessWriter {
	if expectedSize < 1024 {
		expectedSize = 1024
	}
	expectedSize = ((expectedSize >> 10) + 1) << 10
	return &LosslessWriter{
		buf: make([]byte, expectedSize),
	}
}

// WriteBits appends the low nBits bits of v, least significant first.
func (bw *LosslessWriter) WriteBits(v uint32, nBits int) {
	if nBits == 0 {
		return
	}
	if bw.used >= 32 {
		bw.flushBits()
	}
	bw.bits |= uint64(v) << uint(bw.used)
	bw.used += nBits
}

// flushBits moves the low 32 accumulator bits into the buffer.
func (bw *LosslessWriter) flushBits() {
	bw.grow(4)
	binary.LittleEndian.PutUint32(bw.buf[bw.cur:], uint32(bw.bits))
	bw.cur += 4
	bw.bits >>= 32
	bw.used -= 32
}

// grow ensures n writable bytes remain at bw.cur.
func (bw *LosslessWriter) grow(n int) {
	if bw.cur+n <= len(bw.buf) {
		return
	}
	newSize := len(bw.buf) * 3 / 2
	if need := bw.cur + n; newSize < need {
		newSize = need
	}
	newSize = ((newSize >> 10) + 1) << 10
	tmp := make([]byte, newSize)
	copy(tmp, bw.buf[:bw.cur])
	bw.buf = tmp
}

// Finish drains the accumulator and returns the complete stream.
func (bw *LosslessWriter) Finish() []byte {
	for bw.used >= 32 {
		bw.flushBits()
	}
	bw.grow((bw.used + 7) >> 3)
	for bw.used > 0 {
		bw.buf[bw.cur] = byte(bw.bits)
		bw.cur++
		bw.bits >>= 8
		bw.used -= 8
	}
	bw.used = 0
	return bw.buf[:bw.cur]
}

// NumBytes returns the stream length so far, counting a partial byte
// still in the accumulator.
func (bw *LosslessWriter) NumBytes() int {
	return bw.cur + (bw.used+7)/8
}
