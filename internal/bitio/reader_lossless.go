package bitio

import "encoding/binary"

const (
	// vp8lMaxNumBitRead is the largest single ReadBits request.
	vp8lMaxNumBitRead = 24
	// vp8lLBits is the bit-size of the val register.
	vp8lLBits = 64
	// vp8lWBits is the minimum number of ready bits after FillBitWindow.
	vp8lWBits = 32
)

// LosslessReader is the VP8L bit reader.
//
// VP8L packs raw bit fields LSB-first in little-endian byte order, unlike
// the boolean decoder used by lossy VP8. The reader keeps a 64-bit sliding
// window (val) and advances through the source 4 bytes at a time.
type LosslessReader struct {
	val    uint64 // prefetched bits
	buf    []byte
	len_   int
	pos    int  // byte position in buf
	bitPos int  // bit-reading position within val
	eos    bool // set once a read ran past the end of the buffer
}

// NewLosslessReader creates a LosslessReader over data, preloading the
// first 8 (or fewer) bytes into the val register.
func NewLosslessReader(data []byte) *LosslessReader {
	br := &LosslessReader{
		buf:  data,
		len_: len(data),
	}
	n := len(data)
	if n > 8 {
		n = 8
	}
	var value uint64
	for i := 0; i < n; i++ {
		value |= uint64(data[i]) << uint(8*i)
	}
	br.val = value
	br.pos = n
	return br
}

// FillBitWindow guarantees at least vp8lWBits bits are ready in val.
func (br *LosslessReader) FillBitWindow() {
	if br.bitPos >= vp8lWBits {
		br.doFillBitWindow()
	}
}

func (br *LosslessReader) doFillBitWindow() {
	if br.pos+4 <= br.len_ {
		br.val >>= vp8lWBits
		br.bitPos -= vp8lWBits
		br.val |= uint64(binary.LittleEndian.Uint32(br.buf[br.pos:])) << (vp8lLBits - vp8lWBits)
		br.pos += 4
		return
	}
	br.shiftBytes()
}

// shiftBytes feeds individual bytes into val until bitPos < 8 or the
// buffer is exhausted.
func (br *LosslessReader) shiftBytes() {
	for br.bitPos >= 8 && br.pos < br.len_ {
		br.val >>= 8
		br.val |= uint64(br.buf[br.pos]) << (vp8lLBits - 8)
		br.pos++
		br.bitPos -= 8
	}
	if br.IsEndOfStream() {
		br.setEndOfStream()
	}
}

func (br *LosslessReader) setEndOfStream() {
	br.eos = true
	br.bitPos = 0 // keep shift amounts defined
}

// ReadBits reads nBits (0..24) and returns them as an unsigned value.
// Reading past the end of the stream returns zero and latches the EOS
// flag; callers check IsEndOfStream and fail the decode.
func (br *LosslessReader) ReadBits(nBits int) uint32 {
	if !br.eos && nBits >= 0 && nBits <= vp8lMaxNumBitRead {
		val := br.PrefetchBits() & kBitMask[nBits]
		br.bitPos += nBits
		br.shiftBytes()
		return val
	}
	br.setEndOfStream()
	return 0
}

// PrefetchBits returns upcoming bits from val without advancing. The
// caller must have called FillBitWindow first.
func (br *LosslessReader) PrefetchBits() uint32 {
	return uint32(br.val >> uint(br.bitPos&(vp8lLBits-1)))
}

// SetBitPos overwrites the bit position after the caller has inspected
// prefetched bits and consumed a known number of them.
func (br *LosslessReader) SetBitPos(val int) {
	br.bitPos = val
}

// BitPos returns the current bit position inside val.
func (br *LosslessReader) BitPos() int {
	return br.bitPos
}

// IsEndOfStream reports whether a read has gone past the end of the input.
func (br *LosslessReader) IsEndOfStream() bool {
	return br.eos || (br.pos == br.len_ && br.bitPos > vp8lLBits)
}

// kBitMask maps nBits (0..24) to 2^n - 1.
var kBitMask = [vp8lMaxNumBitRead + 1]uint32{
	0x000000, 0x000001, 0x000003, 0x000007,
	0x00000f, 0x00001f, 0x00003f, 0x00007f,
	0x0000ff, 0x0001ff, 0x0003ff, 0x0007ff,
	0x000fff, 0x001fff, 0x003fff, 0x007fff,
	0x00ffff, 0x01ffff, 0x03ffff, 0x07ffff,
	0x0fffff, 0x1fffff, 0x3fffff, 0x7fffff,
	0xffffff,
}
