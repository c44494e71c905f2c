// Package bitio provides bit-level readers for the WebP bitstreams.
//
// It implements the VP8 boolean (arithmetic) decoder used by lossy streams
// and the LSB-first bit reader used by VP8L lossless streams. Both follow
// the reference libwebp routines.
package bitio

import (
	"encoding/binary"
	"math/bits"
)

// boolBits is the number of cached look-ahead bits kept in the value
// register: 7 bytes at a time on 64-bit targets.
const boolBits = 56

// BoolReader is the VP8 boolean (arithmetic) decoder.
//
// It maintains a probability-weighted interval and narrows it on every
// decoded symbol. A 64-bit value register caches up to 56 look-ahead bits
// so bulk byte loads are amortised over many symbols.
//
// The reader never reads outside its buffer: once the input is exhausted it
// feeds zero bytes and latches the overrun flag. Callers must check
// Overrun after (or during) decoding and treat it as a hard bitstream
// error; the zero fill exists only so the hot loop stays branch-light.
type BoolReader struct {
	value   uint64 // value register, bits+8 significant bits
	range_  uint32 // current range minus 1, kept in [127, 254]
	bits    int    // valid bits remaining in value
	buf     []byte
	pos     int
	overrun bool // input exhausted; decoded bits are garbage from here on
}

// NewBoolReader creates a BoolReader over data and primes the value
// register.
func NewBoolReader(data []byte) *BoolReader {
	br := &BoolReader{
		range_: 255 - 1,
		bits:   -8, // forces an immediate load
		buf:    data,
	}
	br.load()
	return br
}

// load refills the value register with up to 7 bytes from the input.
func (br *BoolReader) load() {
	if br.pos+8 <= len(br.buf) {
		// Load 8 bytes, byte-swap to MSB-first order, keep the top 56 bits.
		in := bits.ReverseBytes64(binary.LittleEndian.Uint64(br.buf[br.pos:]))
		br.value = (in >> (64 - boolBits)) | (br.value << boolBits)
		br.pos += boolBits >> 3
		br.bits += boolBits
		return
	}
	br.loadFinalBytes()
}

// loadFinalBytes feeds one byte at a time near the end of the buffer, then
// zero bytes once the input runs out.
func (br *BoolReader) loadFinalBytes() {
	if br.pos < len(br.buf) {
		br.bits += 8
		br.value = uint64(br.buf[br.pos]) | (br.value << 8)
		br.pos++
	} else if !br.overrun {
		br.value <<= 8
		br.bits += 8
		br.overrun = true
	} else {
		br.bits = 0 // keep shift amounts defined
	}
}

// GetBit decodes one boolean symbol with the given probability (0..255).
// This is the speed-critical inner loop of the VP8 decoder.
func (br *BoolReader) GetBit(prob uint8) int {
	range_ := br.range_
	if br.bits < 0 {
		br.load()
	}

	pos := br.bits
	split := (range_ * uint32(prob)) >> 8
	value := uint32(br.value >> uint(pos))

	var bit int
	if value > split {
		bit = 1
		range_ -= split
		br.value -= uint64(split+1) << uint(pos)
	} else {
		range_ = split + 1
	}

	// Renormalise so the MSB of range lands in bit 7.
	shift := 7 ^ (bits.Len32(range_) - 1)
	range_ <<= uint(shift)
	br.bits -= shift

	br.range_ = range_ - 1
	return bit
}

// GetSigned is a specialised GetBit for prob = 0x80 that returns +v or -v
// depending on the decoded sign.
func (br *BoolReader) GetSigned(v int) int {
	if br.bits < 0 {
		br.load()
	}

	pos := br.bits
	split := br.range_ >> 1
	value := uint32(br.value >> uint(pos))

	// mask is -1 when value >= split+1, 0 otherwise.
	mask := int32(split-value) >> 31

	br.bits--
	br.range_ += uint32(mask)
	br.range_ |= 1
	br.value -= uint64((split+1)&uint32(mask)) << uint(pos)

	return (v ^ int(mask)) - int(mask)
}

// GetValue reads numBits bits MSB-first, each with uniform probability.
func (br *BoolReader) GetValue(numBits int) uint32 {
	var v uint32
	for i := numBits - 1; i >= 0; i-- {
		v |= uint32(br.GetBit(0x80)) << uint(i)
	}
	return v
}

// GetSignedValue reads a numBits magnitude followed by a sign bit.
func (br *BoolReader) GetSignedValue(numBits int) int32 {
	value := int32(br.GetValue(numBits))
	if br.GetBit(0x80) != 0 {
		return -value
	}
	return value
}

// Overrun reports whether the reader has consumed bits past the end of its
// partition. Any symbols decoded after this point are not backed by input
// and the whole decode must fail.
func (br *BoolReader) Overrun() bool {
	return br.overrun
}

// Pos returns the byte offset of the read cursor within the partition.
// Look-ahead bytes already pulled into the value register are counted, so
// the result is an upper bound suitable for diagnostics.
func (br *BoolReader) Pos() int {
	return br.pos
}
