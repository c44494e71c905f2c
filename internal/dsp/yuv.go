package dsp

// BT.601 YUV to RGB conversion in fixed-point. The bias constants absorb
// the (Y-16) and (U/V-128) offsets:
//
//	R = MultHi(y, 19077) + MultHi(v, 26149) - 14234
//	G = MultHi(y, 19077) - MultHi(u, 6419) - MultHi(v, 13320) + 8708
//	B = MultHi(y, 19077) + MultHi(u, 33050) - 17685

const (
	yuvFix2 = 6
	yuvMask = (256 << yuvFix2) - 1

	kYScale = 19077 // 1.164 in 14-bit fixed point, scaled
	kRCr    = 26149 // 1.596
	kGCb    = 6419  // 0.391
	kGCr    = 13320 // 0.813
	kBCb    = 33050 // 2.018

	kRBias = 14234
	kGBias = 8708
	kBBias = 17685
)

func multHi(v, coeff int) int { return (v * coeff) >> 8 }

// yuvClip maps the [0, yuvMask] intermediate range to [0, 255].
var yuvClip [yuvMask + 1]uint8

func initYUVTable() {
	for i := 0; i <= yuvMask; i++ {
		v := i >> yuvFix2
		if v > 255 {
			v = 255
		}
		yuvClip[i] = uint8(v)
	}
}

func yuvClamp(val int) uint8 {
	if val < 0 {
		return 0
	}
	if val > yuvMask {
		return 255
	}
	return yuvClip[val]
}

// YUVToR converts (y, v) to the red component.
func YUVToR(y, v int) uint8 {
	return yuvClamp(multHi(y, kYScale) + multHi(v, kRCr) - kRBias)
}

// YUVToG converts (y, u, v) to the green component.
func YUVToG(y, u, v int) uint8 {
	return yuvClamp(multHi(y, kYScale) - multHi(u, kGCb) - multHi(v, kGCr) + kGBias)
}

// YUVToB converts (y, u) to the blue component.
func YUVToB(y, u int) uint8 {
	return yuvClamp(multHi(y, kYScale) + multHi(u, kBCb) - kBBias)
}

// YUVToRGB writes the RGB triple for one sample into rgb[0:3].
func YUVToRGB(y, u, v int, rgb []byte) {
	rgb[0] = YUVToR(y, v)
	rgb[1] = YUVToG(y, u, v)
	rgb[2] = YUVToB(y, u)
}
