package dsp

// Fancy 4:2:0 chroma upsampling.
//
// Chroma is interpolated back to the luma grid with a diamond-shaped 4-tap
// kernel. Given the 2x2 chroma block [tl t / l cur], the four interpolated
// sub-samples are:
//
//	top-left  = (9*tl + 3*t + 3*l +   cur + 8) / 16
//	top-right = (3*tl + 9*t +   l + 3*cur + 8) / 16
//	bot-left  = (3*tl +   t + 9*l + 3*cur + 8) / 16
//	bot-right = (  tl + 3*t + 3*l + 9*cur + 8) / 16
//
// U and V are processed in parallel: loadUV packs u into the low 16 bits
// and v into the high 16 bits so one addition covers both channels.

func loadUV(u, v byte) uint32 {
	return uint32(u) | (uint32(v) << 16)
}

// UpsampleLinePair converts two luma rows plus their bracketing chroma rows
// into packed RGB (3 bytes per pixel). botY may be nil for the last row of
// an odd-height image, in which case botDst is ignored.
func UpsampleLinePair(
	topY, botY []byte,
	topU, topV []byte,
	botU, botV []byte,
	topDst, botDst []byte,
	width int,
) {
	if width <= 0 {
		return
	}
	const xStep = 3

	lastPixelPair := (width - 1) >> 1

	tlUV := loadUV(topU[0], topV[0])
	lUV := loadUV(botU[0], botV[0])

	// Leftmost pixel: vertical interpolation only.
	{
		uv0 := (3*tlUV + lUV + 0x00020002) >> 2
		YUVToRGB(int(topY[0]), int(uv0&0xff), int((uv0>>16)&0xff), topDst[0:])
	}
	if botY != nil {
		uv0 := (3*lUV + tlUV + 0x00020002) >> 2
		YUVToRGB(int(botY[0]), int(uv0&0xff), int((uv0>>16)&0xff), botDst[0:])
	}

	for x := 1; x <= lastPixelPair; x++ {
		tUV := loadUV(topU[x], topV[x])
		uv := loadUV(botU[x], botV[x])

		// diag12 leans towards t and l, diag03 towards tl and cur.
		avg := tlUV + tUV + lUV + uv + 0x00080008
		diag12 := (avg + 2*(tUV+lUV)) >> 3
		diag03 := (avg + 2*(tlUV+uv)) >> 3

		{
			uv0 := (diag12 + tlUV) >> 1
			uv1 := (diag03 + tUV) >> 1
			YUVToRGB(int(topY[2*x-1]), int(uv0&0xff), int((uv0>>16)&0xff),
				topDst[(2*x-1)*xStep:])
			YUVToRGB(int(topY[2*x]), int(uv1&0xff), int((uv1>>16)&0xff),
				topDst[(2*x)*xStep:])
		}
		if botY != nil {
			uv0 := (diag03 + lUV) >> 1
			uv1 := (diag12 + uv) >> 1
			YUVToRGB(int(botY[2*x-1]), int(uv0&0xff), int((uv0>>16)&0xff),
				botDst[(2*x-1)*xStep:])
			YUVToRGB(int(botY[2*x]), int(uv1&0xff), int((uv1>>16)&0xff),
				botDst[(2*x)*xStep:])
		}

		tlUV = tUV
		lUV = uv
	}

	// Rightmost pixel for even widths.
	if width&1 == 0 {
		{
			uv0 := (3*tlUV + lUV + 0x00020002) >> 2
			YUVToRGB(int(topY[width-1]), int(uv0&0xff), int((uv0>>16)&0xff),
				topDst[(width-1)*xStep:])
		}
		if botY != nil {
			uv0 := (3*lUV + tlUV + 0x00020002) >> 2
			YUVToRGB(int(botY[width-1]), int(uv0&0xff), int((uv0>>16)&0xff),
				botDst[(width-1)*xStep:])
		}
	}
}

// UpsampleLinePairNRGBA is the same kernel writing RGBA output (4 bytes
// per pixel) with every alpha byte set to opaque; a decoded alpha plane
// is interleaved afterwards by DispatchAlpha.
func UpsampleLinePairNRGBA(
	topY, botY []byte,
	topU, topV []byte,
	botU, botV []byte,
	topDst, botDst []byte,
	width int,
) {
	if width <= 0 {
		return
	}
	const xStep = 4

	lastPixelPair := (width - 1) >> 1

	tlUV := loadUV(topU[0], topV[0])
	lUV := loadUV(botU[0], botV[0])

	{
		uv0 := (3*tlUV + lUV + 0x00020002) >> 2
		YUVToRGB(int(topY[0]), int(uv0&0xff), int((uv0>>16)&0xff), topDst[0:])
		topDst[3] = 255
	}
	if botY != nil {
		uv0 := (3*lUV + tlUV + 0x00020002) >> 2
		YUVToRGB(int(botY[0]), int(uv0&0xff), int((uv0>>16)&0xff), botDst[0:])
		botDst[3] = 255
	}

	for x := 1; x <= lastPixelPair; x++ {
		tUV := loadUV(topU[x], topV[x])
		uv := loadUV(botU[x], botV[x])

		avg := tlUV + tUV + lUV + uv + 0x00080008
		diag12 := (avg + 2*(tUV+lUV)) >> 3
		diag03 := (avg + 2*(tlUV+uv)) >> 3

		{
			uv0 := (diag12 + tlUV) >> 1
			uv1 := (diag03 + tUV) >> 1
			off0 := (2*x - 1) * xStep
			off1 := (2 * x) * xStep
			YUVToRGB(int(topY[2*x-1]), int(uv0&0xff), int((uv0>>16)&0xff), topDst[off0:])
			YUVToRGB(int(topY[2*x]), int(uv1&0xff), int((uv1>>16)&0xff), topDst[off1:])
			topDst[off0+3] = 255
			topDst[off1+3] = 255
		}
		if botY != nil {
			uv0 := (diag03 + lUV) >> 1
			uv1 := (diag12 + uv) >> 1
			off0 := (2*x - 1) * xStep
			off1 := (2 * x) * xStep
			YUVToRGB(int(botY[2*x-1]), int(uv0&0xff), int((uv0>>16)&0xff), botDst[off0:])
			YUVToRGB(int(botY[2*x]), int(uv1&0xff), int((uv1>>16)&0xff), botDst[off1:])
			botDst[off0+3] = 255
			botDst[off1+3] = 255
		}

		tlUV = tUV
		lUV = uv
	}

	if width&1 == 0 {
		off := (width - 1) * xStep
		{
			uv0 := (3*tlUV + lUV + 0x00020002) >> 2
			YUVToRGB(int(topY[width-1]), int(uv0&0xff), int((uv0>>16)&0xff), topDst[off:])
			topDst[off+3] = 255
		}
		if botY != nil {
			uv0 := (3*lUV + tlUV + 0x00020002) >> 2
			YUVToRGB(int(botY[width-1]), int(uv0&0xff), int((uv0>>16)&0xff), botDst[off:])
			botDst[off+3] = 255
		}
	}
}
