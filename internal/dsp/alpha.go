package dsp

// Alpha plane helpers for composing a decoded alpha channel into RGBA
// output.

// DispatchAlpha copies the alpha plane into the fourth byte of each RGBA
// pixel. It reports whether any sample is not fully opaque.
func DispatchAlpha(alpha []byte, alphaStride, width, height int, dst []byte, dstStride int) bool {
	mask := uint32(0xff)
	for y := 0; y < height; y++ {
		aRow := alpha[y*alphaStride:]
		dRow := dst[y*dstStride:]
		for x := 0; x < width; x++ {
			a := uint32(aRow[x])
			dRow[x*4+3] = byte(a)
			mask &= a
		}
	}
	return mask != 0xff
}

// ExtractGreen pulls the green channel out of ARGB pixels. The VP8L-coded
// alpha plane stores its samples there.
func ExtractGreen(argb []uint32, alpha []byte, size int) {
	for i := 0; i < size; i++ {
		alpha[i] = uint8(argb[i] >> 8)
	}
}
