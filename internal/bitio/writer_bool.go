package bitio

// BoolWriter is the encoding counterpart of BoolReader, used by the
// decoder tests to synthesize boolean-coded bitstreams. A symbol
// narrows a probability-weighted interval; whole bytes are emitted as
// the interval renormalizes. Anything written with PutBit(bit, p)
// reads back with GetBit(p), and Finish pads the tail so a reader
// consuming the exact symbol sequence never overruns.
type BoolWriter struct {
	rng   int32 // current interval width, renormalized into [127, 254]
	val   int32 // low end of the interval, pending emission
	run   int   // 0xff bytes withheld until a carry resolves
	nbits int   // bits accumulated in val beyond the emitted bytes
	buf   []byte
	pos   int
}

// NewBoolWriter returns a writer with room for expectedSize bytes.
// Pass 0 for a small default.
func NewBoolWriter(expectedSize int) *BoolWriter {
	if expectedSize < 1024 {
		expectedSize = 1024
	}
	return &BoolWriter{
		rng:   254,
		nbits: -8,
		buf:   make([]byte, 0, expectedSize),
	}
}

// PutBit encodes one boolean symbol with probability prob (0..255) of
// the symbol being 0. Returns bit unchanged.
func (bw *BoolWriter) PutBit(bit int, prob int) int {
	split := (bw.rng * int32(prob)) >> 8
	if bit != 0 {
		bw.val += split + 1
		bw.rng -= split + 1
	} else {
		bw.rng = split
	}
	if bw.rng < 127 {
		shift := kNorm[bw.rng]
		bw.rng = int32(kNewRange[bw.rng])
		bw.val <<= uint(shift)
		bw.nbits += int(shift)
		if bw.nbits > 0 {
			bw.flush()
		}
	}
	return bit
}

// PutBitUniform encodes one symbol at probability 128.
func (bw *BoolWriter) PutBitUniform(bit int) int {
	split := bw.rng >> 1
	if bit != 0 {
		bw.val += split + 1
		bw.rng -= split + 1
	} else {
		bw.rng = split
	}
	if bw.rng < 127 {
		bw.rng = int32(kNewRange[bw.rng])
		bw.val <<= 1
		bw.nbits++
		if bw.nbits > 0 {
			bw.flush()
		}
	}
	return bit
}

// PutBits encodes the low nbits bits of value, most significant first,
// each at uniform probability. Reads back with GetValue.
func (bw *BoolWriter) PutBits(value uint32, nbits int) {
	for mask := uint32(1) << uint(nbits-1); mask != 0; mask >>= 1 {
		bit := 0
		if value&mask != 0 {
			bit = 1
		}
		bw.PutBitUniform(bit)
	}
}

// PutSignedBits encodes a maybe-absent signed value: a presence flag,
// then for non-zero values the magnitude and a sign bit. Reads back
// with GetSignedValue.
func (bw *BoolWriter) PutSignedBits(value int, nbits int) {
	if bw.PutBitUniform(boolToInt(value != 0)) == 0 {
		return
	}
	if value < 0 {
		bw.PutBits(uint32(-value)<<1|1, nbits+1)
	} else {
		bw.PutBits(uint32(value)<<1, nbits+1)
	}
}

// flush moves one byte out of val, resolving any carry through the run
// of withheld 0xff bytes.
func (bw *BoolWriter) flush() {
	s := 8 + bw.nbits
	bits := bw.val >> uint(s)
	bw.val -= bits << uint(s)
	bw.nbits -= 8
	if bits&0xff != 0xff {
		if bits&0x100 != 0 {
			if bw.pos > 0 {
				bw.buf[bw.pos-1]++
			}
		}
		if bw.run > 0 {
			b := byte(0xff)
			if bits&0x100 != 0 {
				b = 0x00
			}
			for ; bw.run > 0; bw.run-- {
				bw.buf = append(bw.buf, b)
				bw.pos++
			}
		}
		bw.buf = append(bw.buf, byte(bits&0xff))
		bw.pos++
	} else {
		// A 0xff byte cannot be emitted yet: a later carry may still
		// turn it into 0x00.
		bw.run++
	}
}

// Finish drains the remaining bits, padding with at least nine zero
// bits so every real symbol is decodable, and returns the stream.
func (bw *BoolWriter) Finish() []byte {
	bw.PutBits(0, 9-bw.nbits)
	bw.nbits = 0
	bw.flush()
	return bw.buf[:bw.pos]
}

// Pos returns the write position in bits, counting withheld bytes.
func (bw *BoolWriter) Pos() uint64 {
	nb := uint64(8 + bw.nbits) // nbits is <= 0 between flushes
	return uint64(bw.pos+bw.run)*8 + nb
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// kNorm maps an interval width in [0, 127) to the renormalization
// shift 8 - floor(log2(width+1)).
var kNorm = [128]uint8{
	7, 6, 6, 5, 5, 5, 5, 4, 4, 4, 4, 4, 4, 4, 4, 3, 3, 3, 3, 3, 3, 3,
	3, 3, 3, 3, 3, 3, 3, 3, 3, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2,
	2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0,
}

// kNewRange maps the same widths to the renormalized interval
// ((width + 1) << kNorm[width]) - 1.
var kNewRange = [128]uint8{
	127, 127, 191, 127, 159, 191, 223, 127, 143, 159, 175, 191, 207, 223, 239,
	127, 135, 143, 151, 159, 167, 175, 183, 191, 199, 207, 215, 223, 231, 239,
	247, 127, 131, 135, 139, 143, 147, 151, 155, 159, 163, 167, 171, 175, 179,
	183, 187, 191, 195, 199, 203, 207, 211, 215, 219, 223, 227, 231, 235, 239,
	243, 247, 251, 127, 129, 131, 133, 135, 137, 139, 141, 143, 145, 147, 149,
	151, 153, 155, 157, 159, 161, 163, 165, 167, 169, 171, 173, 175, 177, 179,
	181, 183, 185, 187, 189, 191, 193, 195, 197, 199, 201, 203, 205, 207, 209,
	211, 213, 215, 217, 219, 221, 223, 225, 227, 229, 231, 233, 235, 237, 239,
	241, 243, 245, 247, 249, 251, 253, 127,
}
