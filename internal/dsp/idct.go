package dsp

// Inverse transforms for the VP8 decoder. The 4x4 IDCT uses the fixed-point
// constants from RFC 6386 section 14.3; results are added to the prediction
// already present in dst.

const (
	c1 = 20091 // sqrt(2) * cos(pi/8) in 16-bit fixed point, minus one
	c2 = 35468 // sqrt(2) * sin(pi/8) in 16-bit fixed point
)

func mul1(a int) int { return ((a * c1) >> 16) + a }
func mul2(a int) int { return (a * c2) >> 16 }

func store(dst []byte, off, x int) {
	dst[off] = Clip8b(int(dst[off]) + (x >> 3))
}

// transformOne applies a single 4x4 inverse DCT at dst (stride BPS).
func transformOne(in []int16, dst []byte) {
	_ = in[15]
	_ = dst[3+3*BPS]

	var tmp [16]int

	// Vertical pass.
	for i := 0; i < 4; i++ {
		a := int(in[i]) + int(in[8+i])
		b := int(in[i]) - int(in[8+i])
		c := mul2(int(in[4+i])) - mul1(int(in[12+i]))
		d := mul1(int(in[4+i])) + mul2(int(in[12+i]))
		tmp[i] = a + d
		tmp[4+i] = b + c
		tmp[8+i] = b - c
		tmp[12+i] = a - d
	}

	// Horizontal pass.
	for i := 0; i < 4; i++ {
		dc := tmp[4*i] + 4
		a := dc + tmp[4*i+2]
		b := dc - tmp[4*i+2]
		c := mul2(tmp[4*i+1]) - mul1(tmp[4*i+3])
		d := mul1(tmp[4*i+1]) + mul2(tmp[4*i+3])
		store(dst, 0+i*BPS, a+d)
		store(dst, 1+i*BPS, b+c)
		store(dst, 2+i*BPS, b-c)
		store(dst, 3+i*BPS, a-d)
	}
}

// TransformTwo applies one or two 4x4 IDCTs side by side.
func TransformTwo(in []int16, dst []byte, doTwo bool) {
	transformOne(in, dst)
	if doTwo {
		transformOne(in[16:], dst[4:])
	}
}

// TransformDC applies the DC-only inverse transform.
func TransformDC(in []int16, dst []byte) {
	dc := int(in[0]) + 4
	for j := 0; j < 4; j++ {
		for i := 0; i < 4; i++ {
			store(dst, i+j*BPS, dc)
		}
	}
}

// TransformAC3 applies the inverse transform when only coefficients 0, 1
// and 4 are non-zero.
func TransformAC3(in []int16, dst []byte) {
	a := int(in[0]) + 4
	c4 := mul2(int(in[4]))
	d4 := mul1(int(in[4]))
	c1v := mul2(int(in[1]))
	d1v := mul1(int(in[1]))

	vert := [4]int{d4, c4, -c4, -d4}
	horiz := [4]int{d1v, c1v, -c1v, -d1v}
	for j := 0; j < 4; j++ {
		for i := 0; i < 4; i++ {
			store(dst, i+j*BPS, a+vert[j]+horiz[i])
		}
	}
}

// TransformUV applies the inverse transform to the four 4x4 chroma blocks.
func TransformUV(in []int16, dst []byte) {
	TransformTwo(in[0:], dst[0:], true)
	TransformTwo(in[32:], dst[4*BPS:], true)
}

// TransformDCUV applies the DC-only transform to whichever chroma blocks
// carry a DC coefficient.
func TransformDCUV(in []int16, dst []byte) {
	if in[0] != 0 {
		TransformDC(in[0:], dst[0:])
	}
	if in[16] != 0 {
		TransformDC(in[16:], dst[4:])
	}
	if in[32] != 0 {
		TransformDC(in[32:], dst[4*BPS:])
	}
	if in[48] != 0 {
		TransformDC(in[48:], dst[4*BPS+4:])
	}
}

// TransformWHT applies the inverse Walsh-Hadamard transform to the 16 DC
// coefficients of a macroblock. Each output DC lands at the head of its
// block's 16-coefficient slot, so consecutive outputs are 16 apart.
func TransformWHT(in []int16, out []int16) {
	var tmp [16]int

	for i := 0; i < 4; i++ {
		a0 := int(in[0+i]) + int(in[12+i])
		a1 := int(in[4+i]) + int(in[8+i])
		a2 := int(in[4+i]) - int(in[8+i])
		a3 := int(in[0+i]) - int(in[12+i])
		tmp[0+i] = a0 + a1
		tmp[8+i] = a0 - a1
		tmp[4+i] = a3 + a2
		tmp[12+i] = a3 - a2
	}

	for i := 0; i < 4; i++ {
		dc := tmp[i*4+0] + 3
		a0 := dc + tmp[i*4+3]
		a1 := tmp[i*4+1] + tmp[i*4+2]
		a2 := tmp[i*4+1] - tmp[i*4+2]
		a3 := dc - tmp[i*4+3]
		base := i * 4 * 16
		out[base+0*16] = int16((a0 + a1) >> 3)
		out[base+1*16] = int16((a3 + a2) >> 3)
		out[base+2*16] = int16((a0 - a1) >> 3)
		out[base+3*16] = int16((a3 - a2) >> 3)
	}
}
