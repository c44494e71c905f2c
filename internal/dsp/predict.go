package dsp

// VP8 intra predictors. Each predictor receives the reconstruction buffer
// and the offset of the block origin; reference samples sit before the
// origin (top row at off-BPS, left column at off-1, corner at off-BPS-1).
// Passing an explicit offset keeps every slice index non-negative.

// PredFunc predicts one block into buf at off.
type PredFunc func(buf []byte, off int)

var (
	// PredLuma16 and PredChroma8 are indexed by DC/TM/VE/HE plus the
	// three DC variants used on boundary macroblocks.
	PredLuma16  = [7]PredFunc{dc16, tm16, ve16, he16, dc16NoTop, dc16NoLeft, dc16NoTopLeft}
	PredChroma8 = [7]PredFunc{dc8uv, tm8uv, ve8uv, he8uv, dc8uvNoTop, dc8uvNoLeft, dc8uvNoTopLeft}
	// PredLuma4 is indexed by the ten 4x4 sub-block modes.
	PredLuma4 = [10]PredFunc{dc4, tm4, ve4, he4, rd4, vr4, ld4, vl4, hd4, hu4}
)

func avg3(a, b, c uint8) uint8 { return uint8((int(a) + 2*int(b) + int(c) + 2) >> 2) }
func avg2(a, b uint8) uint8    { return uint8((int(a) + int(b) + 1) >> 1) }

// fill paints a size x size block with a constant value.
func fill(dst []byte, off, size int, v uint8) {
	for j := 0; j < size; j++ {
		for i := 0; i < size; i++ {
			dst[off+i+j*BPS] = v
		}
	}
}

// trueMotion implements the TM predictor for an arbitrary block size.
func trueMotion(dst []byte, off, size int) {
	tl := int(dst[off-1-BPS])
	for j := 0; j < size; j++ {
		base := int(dst[off-1+j*BPS]) - tl
		rowOff := off + j*BPS
		for i := 0; i < size; i++ {
			dst[rowOff+i] = Clip8b(base + int(dst[off+i-BPS]))
		}
	}
}

// ---------- 16x16 luma ----------

func dc16(dst []byte, off int) {
	dc := 0
	for i := 0; i < 16; i++ {
		dc += int(dst[off+i-BPS]) + int(dst[off-1+i*BPS])
	}
	fill(dst, off, 16, uint8((dc+16)>>5))
}

func tm16(dst []byte, off int) { trueMotion(dst, off, 16) }

func ve16(dst []byte, off int) {
	for j := 0; j < 16; j++ {
		copy(dst[off+j*BPS:off+j*BPS+16], dst[off-BPS:off-BPS+16])
	}
}

func he16(dst []byte, off int) {
	for j := 0; j < 16; j++ {
		v := dst[off-1+j*BPS]
		for i := 0; i < 16; i++ {
			dst[off+i+j*BPS] = v
		}
	}
}

func dc16NoTop(dst []byte, off int) {
	dc := 0
	for i := 0; i < 16; i++ {
		dc += int(dst[off-1+i*BPS])
	}
	fill(dst, off, 16, uint8((dc+8)>>4))
}

func dc16NoLeft(dst []byte, off int) {
	dc := 0
	for i := 0; i < 16; i++ {
		dc += int(dst[off+i-BPS])
	}
	fill(dst, off, 16, uint8((dc+8)>>4))
}

func dc16NoTopLeft(dst []byte, off int) {
	fill(dst, off, 16, 128)
}

// ---------- 8x8 chroma ----------

func dc8uv(dst []byte, off int) {
	dc := 0
	for i := 0; i < 8; i++ {
		dc += int(dst[off+i-BPS]) + int(dst[off-1+i*BPS])
	}
	fill(dst, off, 8, uint8((dc+8)>>4))
}

func tm8uv(dst []byte, off int) { trueMotion(dst, off, 8) }

func ve8uv(dst []byte, off int) {
	for j := 0; j < 8; j++ {
		copy(dst[off+j*BPS:off+j*BPS+8], dst[off-BPS:off-BPS+8])
	}
}

func he8uv(dst []byte, off int) {
	for j := 0; j < 8; j++ {
		v := dst[off-1+j*BPS]
		for i := 0; i < 8; i++ {
			dst[off+i+j*BPS] = v
		}
	}
}

func dc8uvNoTop(dst []byte, off int) {
	dc := 0
	for i := 0; i < 8; i++ {
		dc += int(dst[off-1+i*BPS])
	}
	fill(dst, off, 8, uint8((dc+4)>>3))
}

func dc8uvNoLeft(dst []byte, off int) {
	dc := 0
	for i := 0; i < 8; i++ {
		dc += int(dst[off+i-BPS])
	}
	fill(dst, off, 8, uint8((dc+4)>>3))
}

func dc8uvNoTopLeft(dst []byte, off int) {
	fill(dst, off, 8, 128)
}

// ---------- 4x4 luma sub-blocks ----------

func dc4(dst []byte, off int) {
	dc := 0
	for i := 0; i < 4; i++ {
		dc += int(dst[off+i-BPS]) + int(dst[off-1+i*BPS])
	}
	fill(dst, off, 4, uint8((dc+4)>>3))
}

func tm4(dst []byte, off int) { trueMotion(dst, off, 4) }

func ve4(dst []byte, off int) {
	topM1 := dst[off-1-BPS]
	top0 := dst[off+0-BPS]
	top1 := dst[off+1-BPS]
	top2 := dst[off+2-BPS]
	top3 := dst[off+3-BPS]
	top4 := dst[off+4-BPS]
	vals := [4]uint8{
		avg3(topM1, top0, top1),
		avg3(top0, top1, top2),
		avg3(top1, top2, top3),
		avg3(top2, top3, top4),
	}
	for j := 0; j < 4; j++ {
		copy(dst[off+j*BPS:off+j*BPS+4], vals[:])
	}
}

func he4(dst []byte, off int) {
	tl := dst[off-1-BPS]
	l0 := dst[off-1+0*BPS]
	l1 := dst[off-1+1*BPS]
	l2 := dst[off-1+2*BPS]
	l3 := dst[off-1+3*BPS]
	vals := [4]uint8{
		avg3(tl, l0, l1),
		avg3(l0, l1, l2),
		avg3(l1, l2, l3),
		avg3(l2, l3, l3),
	}
	for j := 0; j < 4; j++ {
		v := vals[j]
		for i := 0; i < 4; i++ {
			dst[off+i+j*BPS] = v
		}
	}
}

func rd4(dst []byte, off int) {
	tl := dst[off-1-BPS]
	t0 := dst[off+0-BPS]
	t1 := dst[off+1-BPS]
	t2 := dst[off+2-BPS]
	t3 := dst[off+3-BPS]
	l0 := dst[off-1+0*BPS]
	l1 := dst[off-1+1*BPS]
	l2 := dst[off-1+2*BPS]
	l3 := dst[off-1+3*BPS]

	dst[off+0+3*BPS] = avg3(l3, l2, l1)
	dst[off+0+2*BPS] = avg3(l2, l1, l0)
	dst[off+1+3*BPS] = avg3(l2, l1, l0)
	dst[off+0+1*BPS] = avg3(l1, l0, tl)
	dst[off+1+2*BPS] = avg3(l1, l0, tl)
	dst[off+2+3*BPS] = avg3(l1, l0, tl)
	dst[off+0+0*BPS] = avg3(l0, tl, t0)
	dst[off+1+1*BPS] = avg3(l0, tl, t0)
	dst[off+2+2*BPS] = avg3(l0, tl, t0)
	dst[off+3+3*BPS] = avg3(l0, tl, t0)
	dst[off+1+0*BPS] = avg3(tl, t0, t1)
	dst[off+2+1*BPS] = avg3(tl, t0, t1)
	dst[off+3+2*BPS] = avg3(tl, t0, t1)
	dst[off+2+0*BPS] = avg3(t0, t1, t2)
	dst[off+3+1*BPS] = avg3(t0, t1, t2)
	dst[off+3+0*BPS] = avg3(t1, t2, t3)
}

func vr4(dst []byte, off int) {
	tl := dst[off-1-BPS]
	t0 := dst[off+0-BPS]
	t1 := dst[off+1-BPS]
	t2 := dst[off+2-BPS]
	t3 := dst[off+3-BPS]
	l0 := dst[off-1+0*BPS]
	l1 := dst[off-1+1*BPS]
	l2 := dst[off-1+2*BPS]

	dst[off+0+0*BPS] = avg2(tl, t0)
	dst[off+1+0*BPS] = avg2(t0, t1)
	dst[off+2+0*BPS] = avg2(t1, t2)
	dst[off+3+0*BPS] = avg2(t2, t3)

	dst[off+0+1*BPS] = avg3(l0, tl, t0)
	dst[off+1+1*BPS] = avg3(tl, t0, t1)
	dst[off+2+1*BPS] = avg3(t0, t1, t2)
	dst[off+3+1*BPS] = avg3(t1, t2, t3)

	dst[off+0+2*BPS] = avg3(l1, l0, tl)
	dst[off+1+2*BPS] = dst[off+0+0*BPS]
	dst[off+2+2*BPS] = dst[off+1+0*BPS]
	dst[off+3+2*BPS] = dst[off+2+0*BPS]

	dst[off+0+3*BPS] = avg3(l2, l1, l0)
	dst[off+1+3*BPS] = dst[off+0+1*BPS]
	dst[off+2+3*BPS] = dst[off+1+1*BPS]
	dst[off+3+3*BPS] = dst[off+2+1*BPS]
}

func ld4(dst []byte, off int) {
	a := dst[off+0-BPS]
	b := dst[off+1-BPS]
	c := dst[off+2-BPS]
	d := dst[off+3-BPS]
	e := dst[off+4-BPS]
	f := dst[off+5-BPS]
	g := dst[off+6-BPS]
	h := dst[off+7-BPS]

	dst[off+0+0*BPS] = avg3(a, b, c)
	dst[off+1+0*BPS] = avg3(b, c, d)
	dst[off+0+1*BPS] = avg3(b, c, d)
	dst[off+2+0*BPS] = avg3(c, d, e)
	dst[off+1+1*BPS] = avg3(c, d, e)
	dst[off+0+2*BPS] = avg3(c, d, e)
	dst[off+3+0*BPS] = avg3(d, e, f)
	dst[off+2+1*BPS] = avg3(d, e, f)
	dst[off+1+2*BPS] = avg3(d, e, f)
	dst[off+0+3*BPS] = avg3(d, e, f)
	dst[off+3+1*BPS] = avg3(e, f, g)
	dst[off+2+2*BPS] = avg3(e, f, g)
	dst[off+1+3*BPS] = avg3(e, f, g)
	dst[off+3+2*BPS] = avg3(f, g, h)
	dst[off+2+3*BPS] = avg3(f, g, h)
	dst[off+3+3*BPS] = avg3(g, h, h)
}

func vl4(dst []byte, off int) {
	a := dst[off+0-BPS]
	b := dst[off+1-BPS]
	c := dst[off+2-BPS]
	d := dst[off+3-BPS]
	e := dst[off+4-BPS]
	f := dst[off+5-BPS]
	g := dst[off+6-BPS]
	h := dst[off+7-BPS]

	dst[off+0+0*BPS] = avg2(a, b)
	dst[off+1+0*BPS] = avg2(b, c)
	dst[off+0+2*BPS] = avg2(b, c)
	dst[off+2+0*BPS] = avg2(c, d)
	dst[off+1+2*BPS] = avg2(c, d)
	dst[off+3+0*BPS] = avg2(d, e)
	dst[off+2+2*BPS] = avg2(d, e)

	dst[off+0+1*BPS] = avg3(a, b, c)
	dst[off+1+1*BPS] = avg3(b, c, d)
	dst[off+0+3*BPS] = avg3(b, c, d)
	dst[off+2+1*BPS] = avg3(c, d, e)
	dst[off+1+3*BPS] = avg3(c, d, e)
	dst[off+3+1*BPS] = avg3(d, e, f)
	dst[off+2+3*BPS] = avg3(d, e, f)
	dst[off+3+2*BPS] = avg3(e, f, g)
	dst[off+3+3*BPS] = avg3(f, g, h)
}

func hd4(dst []byte, off int) {
	tl := dst[off-1-BPS]
	t0 := dst[off+0-BPS]
	t1 := dst[off+1-BPS]
	t2 := dst[off+2-BPS]
	l0 := dst[off-1+0*BPS]
	l1 := dst[off-1+1*BPS]
	l2 := dst[off-1+2*BPS]
	l3 := dst[off-1+3*BPS]

	dst[off+0+0*BPS] = avg2(tl, l0)
	dst[off+1+0*BPS] = avg3(l0, tl, t0)
	dst[off+2+0*BPS] = avg3(tl, t0, t1)
	dst[off+3+0*BPS] = avg3(t0, t1, t2)

	dst[off+0+1*BPS] = avg2(l0, l1)
	dst[off+1+1*BPS] = avg3(tl, l0, l1)
	dst[off+2+1*BPS] = dst[off+0+0*BPS]
	dst[off+3+1*BPS] = dst[off+1+0*BPS]

	dst[off+0+2*BPS] = avg2(l1, l2)
	dst[off+1+2*BPS] = avg3(l0, l1, l2)
	dst[off+2+2*BPS] = dst[off+0+1*BPS]
	dst[off+3+2*BPS] = dst[off+1+1*BPS]

	dst[off+0+3*BPS] = avg2(l2, l3)
	dst[off+1+3*BPS] = avg3(l1, l2, l3)
	dst[off+2+3*BPS] = dst[off+0+2*BPS]
	dst[off+3+3*BPS] = dst[off+1+2*BPS]
}

func hu4(dst []byte, off int) {
	l0 := dst[off-1+0*BPS]
	l1 := dst[off-1+1*BPS]
	l2 := dst[off-1+2*BPS]
	l3 := dst[off-1+3*BPS]

	dst[off+0+0*BPS] = avg2(l0, l1)
	dst[off+1+0*BPS] = avg3(l0, l1, l2)
	dst[off+2+0*BPS] = avg2(l1, l2)
	dst[off+3+0*BPS] = avg3(l1, l2, l3)

	dst[off+0+1*BPS] = dst[off+2+0*BPS]
	dst[off+1+1*BPS] = dst[off+3+0*BPS]
	dst[off+2+1*BPS] = avg2(l2, l3)
	dst[off+3+1*BPS] = avg3(l2, l3, l3)

	dst[off+0+2*BPS] = dst[off+2+1*BPS]
	dst[off+1+2*BPS] = dst[off+3+1*BPS]
	dst[off+2+2*BPS] = l3
	dst[off+3+2*BPS] = l3

	dst[off+0+3*BPS] = l3
	dst[off+1+3*BPS] = l3
	dst[off+2+3*BPS] = l3
	dst[off+3+3*BPS] = l3
}
