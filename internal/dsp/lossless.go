package dsp

// Inverse VP8L kernels: the spatial predictors, the two color transforms
// and the palette lookups. Pixels are ARGB packed into uint32, alpha in
// the top byte.

// Multipliers holds the color-space transform cross-channel factors.
type Multipliers struct {
	GreenToRed  uint8
	GreenToBlue uint8
	RedToBlue   uint8
}

// AddGreenToBlueAndRed undoes the subtract-green transform on a row.
func AddGreenToBlueAndRed(argb []uint32, numPixels int) {
	for i := 0; i < numPixels; i++ {
		p := argb[i]
		green := (p >> 8) & 0xff
		redBlue := (p & 0x00ff00ff) + (green * 0x00010001)
		redBlue &= 0x00ff00ff
		argb[i] = (p & 0xff00ff00) | redBlue
	}
}

// colorTransformDelta computes (multiplier * value) >> 5 with both operands
// sign-extended from 8 bits.
func colorTransformDelta(multiplier int8, value int32) int32 {
	return (int32(multiplier) * int32(int8(value))) >> 5
}

// TransformColorInverse undoes the color-space transform on a row.
func TransformColorInverse(m *Multipliers, src []uint32, numPixels int, dst []uint32) {
	for i := 0; i < numPixels; i++ {
		argb := src[i]
		green := int32((argb >> 8) & 0xff)
		red := int32((argb >> 16) & 0xff)
		blue := int32(argb & 0xff)

		red += colorTransformDelta(int8(m.GreenToRed), green)
		red &= 0xff
		blue += colorTransformDelta(int8(m.GreenToBlue), green)
		blue += colorTransformDelta(int8(m.RedToBlue), red)
		blue &= 0xff

		dst[i] = (argb & 0xff00ff00) | (uint32(red) << 16) | uint32(blue)
	}
}

// MapColor32b replaces each pixel by the palette entry indexed by its green
// channel.
func MapColor32b(src []uint32, colorMap []uint32, dst []uint32, yStart, yEnd, width int) {
	i := 0
	for y := yStart; y < yEnd; y++ {
		for x := 0; x < width; x++ {
			idx := (src[i] >> 8) & 0xff
			dst[i] = colorMap[idx]
			i++
		}
	}
}

// MapColor8b maps 8-bit samples through the green channel of the palette.
// Used on the alpha plane, where pixels never widen to ARGB.
func MapColor8b(src []uint8, colorMap []uint32, dst []uint8, yStart, yEnd, width int) {
	i := 0
	for y := yStart; y < yEnd; y++ {
		for x := 0; x < width; x++ {
			dst[i] = uint8(colorMap[src[i]] >> 8)
			i++
		}
	}
}

// ConvertARGBToRGBA unpacks ARGB pixels into interleaved straight-alpha
// RGBA bytes.
func ConvertARGBToRGBA(src []uint32, numPixels int, dst []byte) {
	for i := 0; i < numPixels; i++ {
		argb := src[i]
		off := i * 4
		dst[off+0] = uint8(argb >> 16)
		dst[off+1] = uint8(argb >> 8)
		dst[off+2] = uint8(argb)
		dst[off+3] = uint8(argb >> 24)
	}
}

// ---------- spatial predictors ----------

// LosslessPredFunc predicts one pixel from its left neighbor and the top
// row, where top[0] is the top-left pixel, top[1] the one directly above
// and top[2] the top-right.
type LosslessPredFunc func(left uint32, top []uint32) uint32

// LosslessPredictors is indexed by the prediction mode; entries 14 and 15
// repeat the black predictor as sentinels.
var LosslessPredictors = [16]LosslessPredFunc{
	lpred0, lpred1, lpred2, lpred3, lpred4, lpred5, lpred6, lpred7,
	lpred8, lpred9, lpred10, lpred11, lpred12, lpred13, lpred0, lpred0,
}

// lAverage2 averages two pixels per channel without cross-channel carry.
func lAverage2(a, b uint32) uint32 {
	return (((a ^ b) & 0xfefefefe) >> 1) + (a & b)
}

func lAverage3(a, b, c uint32) uint32 {
	return lAverage2(lAverage2(a, c), b)
}

func lAverage4(a, b, c, d uint32) uint32 {
	return lAverage2(lAverage2(a, b), lAverage2(c, d))
}

func lAbs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// lSelect picks the top or left pixel, whichever predicts better against
// the top-left.
func lSelect(top, left, topLeft uint32) uint32 {
	paMinusPb := int32(0)
	for shift := uint(0); shift < 32; shift += 8 {
		ac := int32((top>>shift)&0xff) - int32((topLeft>>shift)&0xff)
		bc := int32((left>>shift)&0xff) - int32((topLeft>>shift)&0xff)
		paMinusPb += lAbs(bc) - lAbs(ac)
	}
	if paMinusPb <= 0 {
		return top
	}
	return left
}

func lClamp(a int32) uint8 {
	if a < 0 {
		return 0
	}
	if a > 255 {
		return 255
	}
	return uint8(a)
}

func lClampedAddSubtractFull(a, b, c uint32) uint32 {
	var result uint32
	for shift := uint(0); shift < 32; shift += 8 {
		va := int32((a >> shift) & 0xff)
		vb := int32((b >> shift) & 0xff)
		vc := int32((c >> shift) & 0xff)
		result |= uint32(lClamp(va+vb-vc)) << shift
	}
	return result
}

func lClampedAddSubtractHalf(a, b, c uint32) uint32 {
	avg := lAverage2(a, b)
	var result uint32
	for shift := uint(0); shift < 32; shift += 8 {
		va := int32((avg >> shift) & 0xff)
		vc := int32((c >> shift) & 0xff)
		result |= uint32(lClamp(va+(va-vc)/2)) << shift
	}
	return result
}

func lpred0(_ uint32, _ []uint32) uint32    { return 0xff000000 }
func lpred1(left uint32, _ []uint32) uint32 { return left }
func lpred2(_ uint32, top []uint32) uint32  { return top[1] }
func lpred3(_ uint32, top []uint32) uint32  { return top[2] }
func lpred4(_ uint32, top []uint32) uint32  { return top[0] }

func lpred5(left uint32, top []uint32) uint32 {
	return lAverage3(left, top[1], top[2])
}

func lpred6(left uint32, top []uint32) uint32 {
	return lAverage2(left, top[0])
}

func lpred7(left uint32, top []uint32) uint32 {
	return lAverage2(left, top[1])
}

func lpred8(_ uint32, top []uint32) uint32 {
	return lAverage2(top[0], top[1])
}

func lpred9(_ uint32, top []uint32) uint32 {
	return lAverage2(top[1], top[2])
}

func lpred10(left uint32, top []uint32) uint32 {
	return lAverage4(left, top[0], top[1], top[2])
}

func lpred11(left uint32, top []uint32) uint32 {
	return lSelect(top[1], left, top[0])
}

func lpred12(left uint32, top []uint32) uint32 {
	return lClampedAddSubtractFull(left, top[1], top[0])
}

func lpred13(left uint32, top []uint32) uint32 {
	return lClampedAddSubtractHalf(left, top[1], top[0])
}
