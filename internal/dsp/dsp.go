// Package dsp holds the pixel-level kernels shared by the VP8 and VP8L
// decoders: inverse transforms, intra predictors, the loop filter, YUV
// conversion and chroma upsampling.
//
// Lookup tables emulate negative-index access through fixed offsets into
// oversized arrays, since Go slices cannot be indexed below zero.
package dsp

// BPS is the stride of the macroblock reconstruction buffer.
const BPS = 32

// Table sizes cover the full range of intermediate values produced by the
// loop-filter arithmetic.
var (
	sclip1 [893 + 892 + 1]int8  // clips [-893, 892] to [-128, 127]
	sclip2 [112 + 112 + 1]int8  // clips [-112, 112] to [-16, 15]
	clip1  [255 + 511 + 1]uint8 // clips [-255, 511] to [0, 255]
	abs0   [255 + 255 + 1]uint8 // abs(x) for x in [-255, 255]
)

const (
	sclip1Offset = 893
	sclip2Offset = 112
	clip1Offset  = 255
	abs0Offset   = 255
)

func ksclip1(v int) int8 { return sclip1[sclip1Offset+v] }
func ksclip2(v int) int8 { return sclip2[sclip2Offset+v] }
func kclip1(v int) uint8 { return clip1[clip1Offset+v] }
func kabs0(v int) uint8  { return abs0[abs0Offset+v] }

// Clip8b clips v to [0, 255].
func Clip8b(v int) uint8 {
	if uint(v) <= 255 {
		return uint8(v)
	}
	return uint8(^(v >> 63) & 255)
}

func init() {
	for i := -893; i <= 892; i++ {
		v := i
		if v < -128 {
			v = -128
		} else if v > 127 {
			v = 127
		}
		sclip1[sclip1Offset+i] = int8(v)
	}
	for i := -112; i <= 112; i++ {
		v := i
		if v < -16 {
			v = -16
		} else if v > 15 {
			v = 15
		}
		sclip2[sclip2Offset+i] = int8(v)
	}
	for i := -255; i <= 511; i++ {
		v := i
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		clip1[clip1Offset+i] = uint8(v)
	}
	for i := -255; i <= 255; i++ {
		v := i
		if v < 0 {
			v = -v
		}
		abs0[abs0Offset+i] = uint8(v)
	}
	initYUVTable()
}
