package png

import "github.com/deepteams/raster/internal/pool"

// Adam7 pass schedule: starting offsets and steps for each of the 7
// passes, in pixels.
var adam7 = [7]struct {
	xOff, yOff, xStep, yStep int
}{
	{0, 0, 8, 8},
	{4, 0, 8, 8},
	{0, 4, 4, 8},
	{2, 0, 4, 4},
	{0, 2, 2, 4},
	{1, 0, 2, 2},
	{0, 1, 1, 2},
}

// PassSize returns the pixel dimensions of Adam7 pass (0-based) for a
// width x height image. Either dimension may be zero for small images.
func PassSize(pass, width, height int) (pw, ph int) {
	p := adam7[pass]
	pw = (width - p.xOff + p.xStep - 1) / p.xStep
	ph = (height - p.yOff + p.yStep - 1) / p.yStep
	if pw < 0 {
		pw = 0
	}
	if ph < 0 {
		ph = 0
	}
	return pw, ph
}

// Deinterlace consumes the inflated IDAT stream of an Adam7-interlaced
// image: it filter-reverses each of the 7 sub-images and scatters their
// pixels back into a single non-interlaced scanline buffer packed at the
// original bit depth. The input must be exactly the concatenation of the
// filtered sub-images, nothing more.
func Deinterlace(data []byte, hdr *Header) ([]byte, error) {
	rowBytes := hdr.RowBytes(hdr.Width)
	out := make([]byte, hdr.Height*rowBytes)
	fu := hdr.FilterUnit()

	pos := 0
	for pass := 0; pass < 7; pass++ {
		pw, ph := PassSize(pass, hdr.Width, hdr.Height)
		if pw == 0 || ph == 0 {
			continue
		}
		prb := hdr.RowBytes(pw)
		need := ph * (1 + prb)
		if pos+need > len(data) {
			return nil, errorf(ErrBadData, "interlaced stream truncated in pass %d: have %d bytes, need %d",
				pass+1, len(data)-pos, need)
		}
		sub, err := ReverseFilters(data[pos:pos+need], prb, ph, fu)
		if err != nil {
			return nil, err
		}
		pos += need
		scatterPass(sub, out, hdr, pass, pw, ph, prb, rowBytes)
		pool.Put(sub)
	}
	if pos != len(data) {
		return nil, errorf(ErrBadData, "interlaced stream has %d trailing bytes", len(data)-pos)
	}
	return out, nil
}

// scatterPass places the reconstructed pixels of one pass at their Adam7
// positions in the full-size packed scanline buffer.
func scatterPass(sub, out []byte, hdr *Header, pass, pw, ph, prb, rowBytes int) {
	p := adam7[pass]
	pixelBits := hdr.Channels() * int(hdr.BitDepth)

	if pixelBits%8 == 0 {
		pb := pixelBits / 8
		for y := 0; y < ph; y++ {
			srcRow := sub[y*prb:]
			dstRow := out[(p.yOff+y*p.yStep)*rowBytes:]
			for x := 0; x < pw; x++ {
				copy(dstRow[(p.xOff+x*p.xStep)*pb:(p.xOff+x*p.xStep)*pb+pb], srcRow[x*pb:])
			}
		}
		return
	}

	// Sub-byte depths always have a single channel; move pixels as
	// big-endian-packed bit fields.
	depth := int(hdr.BitDepth)
	mask := byte(1<<depth - 1)
	for y := 0; y < ph; y++ {
		srcRow := sub[y*prb:]
		dstRow := out[(p.yOff+y*p.yStep)*rowBytes:]
		for x := 0; x < pw; x++ {
			srcBit := x * depth
			v := (srcRow[srcBit>>3] >> uint(8-depth-(srcBit&7))) & mask

			dstBit := (p.xOff + x*p.xStep) * depth
			shift := uint(8 - depth - (dstBit & 7))
			dstRow[dstBit>>3] = dstRow[dstBit>>3]&^(mask<<shift) | v<<shift
		}
	}
}
