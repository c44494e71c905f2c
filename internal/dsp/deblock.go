package dsp

// VP8 in-loop deblocking filter, simple and normal profiles. All entry
// points take the full plane buffer plus a base offset so that access to
// samples before the edge stays within non-negative slice indices.

func needsFilter(p1, p0, q0, q1 int, thresh int) bool {
	return 4*int(kabs0(p0-q0))+int(kabs0(p1-q1)) <= thresh
}

func needsFilter2(p3, p2, p1, p0, q0, q1, q2, q3 int, thresh, ithresh int) bool {
	if !needsFilter(p1, p0, q0, q1, thresh) {
		return false
	}
	return int(kabs0(p3-p2)) <= ithresh &&
		int(kabs0(p2-p1)) <= ithresh &&
		int(kabs0(p1-p0)) <= ithresh &&
		int(kabs0(q3-q2)) <= ithresh &&
		int(kabs0(q2-q1)) <= ithresh &&
		int(kabs0(q1-q0)) <= ithresh
}

// hev reports high edge variance around the boundary.
func hev(p1, p0, q0, q1 int, hevThresh int) bool {
	return int(kabs0(p1-p0)) > hevThresh || int(kabs0(q1-q0)) > hevThresh
}

// doFilter2 adjusts p0 and q0 only.
func doFilter2(p []byte, off, step int) {
	p1 := int(p[off-2*step])
	p0 := int(p[off-step])
	q0 := int(p[off])
	q1 := int(p[off+step])

	a := 3*(q0-p0) + int(ksclip1(p1-q1))
	a1 := int(ksclip2((a + 4) >> 3))
	a2 := int(ksclip2((a + 3) >> 3))
	p[off-step] = kclip1(p0 + a2)
	p[off] = kclip1(q0 - a1)
}

// doFilter4 adjusts p1..q1; the p1-q1 term is dropped from the base delta.
func doFilter4(p []byte, off, step int) {
	p1 := int(p[off-2*step])
	p0 := int(p[off-step])
	q0 := int(p[off])
	q1 := int(p[off+step])

	a := 3 * (q0 - p0)
	a1 := int(ksclip2((a + 4) >> 3))
	a2 := int(ksclip2((a + 3) >> 3))
	a3 := (a1 + 1) >> 1
	p[off-2*step] = kclip1(p1 + a3)
	p[off-step] = kclip1(p0 + a2)
	p[off] = kclip1(q0 - a1)
	p[off+step] = kclip1(q1 - a3)
}

// doFilter6 adjusts p2..q2 with tapering weights 27/18/9.
func doFilter6(p []byte, off, step int) {
	p2 := int(p[off-3*step])
	p1 := int(p[off-2*step])
	p0 := int(p[off-step])
	q0 := int(p[off])
	q1 := int(p[off+step])
	q2 := int(p[off+2*step])

	a := int(ksclip1(3*(q0-p0) + int(ksclip1(p1-q1))))
	a1 := (27*a + 63) >> 7
	a2 := (18*a + 63) >> 7
	a3 := (9*a + 63) >> 7
	p[off-3*step] = kclip1(p2 + a3)
	p[off-2*step] = kclip1(p1 + a2)
	p[off-step] = kclip1(p0 + a1)
	p[off] = kclip1(q0 - a1)
	p[off+step] = kclip1(q1 - a2)
	p[off+2*step] = kclip1(q2 - a3)
}

// ---------- simple filter ----------

// SimpleVFilter16 filters the horizontal edge at base across 16 columns.
func SimpleVFilter16(p []byte, base, stride, thresh int) {
	thresh2 := 2*thresh + 1
	for i := 0; i < 16; i++ {
		off := base + i
		p1 := int(p[off-2*stride])
		p0 := int(p[off-stride])
		q0 := int(p[off])
		q1 := int(p[off+stride])
		if needsFilter(p1, p0, q0, q1, thresh2) {
			doFilter2(p, off, stride)
		}
	}
}

// SimpleHFilter16 filters the vertical edge at base across 16 rows.
func SimpleHFilter16(p []byte, base, stride, thresh int) {
	thresh2 := 2*thresh + 1
	for i := 0; i < 16; i++ {
		off := base + i*stride
		p1 := int(p[off-2])
		p0 := int(p[off-1])
		q0 := int(p[off])
		q1 := int(p[off+1])
		if needsFilter(p1, p0, q0, q1, thresh2) {
			doFilter2(p, off, 1)
		}
	}
}

// SimpleVFilter16i filters the three internal horizontal edges of a
// macroblock.
func SimpleVFilter16i(p []byte, base, stride, thresh int) {
	for k := 1; k <= 3; k++ {
		SimpleVFilter16(p, base+k*4*stride, stride, thresh)
	}
}

// SimpleHFilter16i filters the three internal vertical edges of a
// macroblock.
func SimpleHFilter16i(p []byte, base, stride, thresh int) {
	for k := 1; k <= 3; k++ {
		SimpleHFilter16(p, base+k*4, stride, thresh)
	}
}

// ---------- normal filter ----------

// filterLoop26 handles macroblock edges: doFilter2 on high-variance
// samples, doFilter6 otherwise.
func filterLoop26(p []byte, base, hstride, vstride, size, thresh, ithresh, hevT int) {
	thresh2 := 2*thresh + 1
	off := base
	for i := 0; i < size; i++ {
		p3 := int(p[off-4*hstride])
		p2 := int(p[off-3*hstride])
		p1 := int(p[off-2*hstride])
		p0 := int(p[off-hstride])
		q0 := int(p[off])
		q1 := int(p[off+hstride])
		q2 := int(p[off+2*hstride])
		q3 := int(p[off+3*hstride])
		if needsFilter2(p3, p2, p1, p0, q0, q1, q2, q3, thresh2, ithresh) {
			if hev(p1, p0, q0, q1, hevT) {
				doFilter2(p, off, hstride)
			} else {
				doFilter6(p, off, hstride)
			}
		}
		off += vstride
	}
}

// filterLoop24 handles inner edges: doFilter2 on high-variance samples,
// doFilter4 otherwise.
func filterLoop24(p []byte, base, hstride, vstride, size, thresh, ithresh, hevT int) {
	thresh2 := 2*thresh + 1
	off := base
	for i := 0; i < size; i++ {
		p3 := int(p[off-4*hstride])
		p2 := int(p[off-3*hstride])
		p1 := int(p[off-2*hstride])
		p0 := int(p[off-hstride])
		q0 := int(p[off])
		q1 := int(p[off+hstride])
		q2 := int(p[off+2*hstride])
		q3 := int(p[off+3*hstride])
		if needsFilter2(p3, p2, p1, p0, q0, q1, q2, q3, thresh2, ithresh) {
			if hev(p1, p0, q0, q1, hevT) {
				doFilter2(p, off, hstride)
			} else {
				doFilter4(p, off, hstride)
			}
		}
		off += vstride
	}
}

// VFilter16 filters the top macroblock edge of a luma plane.
func VFilter16(p []byte, base, stride, thresh, ithresh, hevT int) {
	filterLoop26(p, base, stride, 1, 16, thresh, ithresh, hevT)
}

// HFilter16 filters the left macroblock edge of a luma plane.
func HFilter16(p []byte, base, stride, thresh, ithresh, hevT int) {
	filterLoop26(p, base, 1, stride, 16, thresh, ithresh, hevT)
}

// VFilter8 filters the top macroblock edge of both chroma planes.
func VFilter8(u, v []byte, uBase, vBase, stride, thresh, ithresh, hevT int) {
	filterLoop26(u, uBase, stride, 1, 8, thresh, ithresh, hevT)
	filterLoop26(v, vBase, stride, 1, 8, thresh, ithresh, hevT)
}

// HFilter8 filters the left macroblock edge of both chroma planes.
func HFilter8(u, v []byte, uBase, vBase, stride, thresh, ithresh, hevT int) {
	filterLoop26(u, uBase, 1, stride, 8, thresh, ithresh, hevT)
	filterLoop26(v, vBase, 1, stride, 8, thresh, ithresh, hevT)
}

// VFilter16i filters the three internal horizontal luma edges.
func VFilter16i(p []byte, base, stride, thresh, ithresh, hevT int) {
	for k := 1; k <= 3; k++ {
		filterLoop24(p, base+k*4*stride, stride, 1, 16, thresh, ithresh, hevT)
	}
}

// HFilter16i filters the three internal vertical luma edges.
func HFilter16i(p []byte, base, stride, thresh, ithresh, hevT int) {
	for k := 1; k <= 3; k++ {
		filterLoop24(p, base+k*4, 1, stride, 16, thresh, ithresh, hevT)
	}
}

// VFilter8i filters the internal horizontal chroma edges.
func VFilter8i(u, v []byte, uBase, vBase, stride, thresh, ithresh, hevT int) {
	filterLoop24(u, uBase+4*stride, stride, 1, 8, thresh, ithresh, hevT)
	filterLoop24(v, vBase+4*stride, stride, 1, 8, thresh, ithresh, hevT)
}

// HFilter8i filters the internal vertical chroma edges.
func HFilter8i(u, v []byte, uBase, vBase, stride, thresh, ithresh, hevT int) {
	filterLoop24(u, uBase+4, 1, stride, 8, thresh, ithresh, hevT)
	filterLoop24(v, vBase+4, 1, stride, 8, thresh, ithresh, hevT)
}
