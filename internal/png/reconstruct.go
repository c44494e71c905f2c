package png

// sampleScale maps a bit depth to the multiplier that expands a maximal
// sample to 255: v * 255/(2^depth - 1).
var sampleScale = map[uint8]uint16{1: 255, 2: 85, 4: 17, 8: 1}

// rowSample reads the i-th sample of a packed big-endian scanline at the
// header's bit depth, without rescaling. 16-bit samples are returned in
// full precision.
func rowSample(row []byte, i int, depth uint8) uint16 {
	switch depth {
	case 8:
		return uint16(row[i])
	case 16:
		return uint16(row[2*i])<<8 | uint16(row[2*i+1])
	default:
		bit := i * int(depth)
		return uint16(row[bit>>3]>>uint(8-int(depth)-(bit&7))) & (1<<depth - 1)
	}
}

// to8 rescales a raw sample to 8 bits: sub-byte depths expand linearly,
// 16-bit samples keep the high byte.
func to8(v uint16, depth uint8) byte {
	if depth == 16 {
		return byte(v >> 8)
	}
	return byte(v * sampleScale[depth])
}

// ReconstructPixels converts unfiltered, non-interlaced scanline bytes
// into an RGBA8888 buffer of exactly width*height*4 bytes: bit-depth
// expansion, color-type conversion, palette application and tRNS
// transparency, in that order.
func ReconstructPixels(raw []byte, hdr *Header, palette, trans []byte) ([]byte, error) {
	rowBytes := hdr.RowBytes(hdr.Width)
	if len(raw) != hdr.Height*rowBytes {
		return nil, errorf(ErrBadData, "raw pixel data is %d bytes, want %d",
			len(raw), hdr.Height*rowBytes)
	}
	if hdr.ColorType == Paletted && len(palette) < 3 {
		return nil, errorf(ErrBadData, "paletted image without palette")
	}

	depth := hdr.BitDepth
	out := make([]byte, hdr.Width*hdr.Height*4)

	// Transparency keys for the non-alpha color types.
	var grayKey, rKey, gKey, bKey uint16
	haveKey := false
	switch hdr.ColorType {
	case Grayscale:
		if len(trans) == 2 {
			grayKey = uint16(trans[0])<<8 | uint16(trans[1])
			haveKey = true
		}
	case TrueColor:
		if len(trans) == 6 {
			rKey = uint16(trans[0])<<8 | uint16(trans[1])
			gKey = uint16(trans[2])<<8 | uint16(trans[3])
			bKey = uint16(trans[4])<<8 | uint16(trans[5])
			haveKey = true
		}
	}

	numColors := len(palette) / 3

	for y := 0; y < hdr.Height; y++ {
		row := raw[y*rowBytes : (y+1)*rowBytes]
		dst := out[y*hdr.Width*4:]

		switch hdr.ColorType {
		case Grayscale:
			for x := 0; x < hdr.Width; x++ {
				s := rowSample(row, x, depth)
				g := to8(s, depth)
				a := byte(255)
				if haveKey && s == grayKey {
					a = 0
				}
				dst[x*4+0], dst[x*4+1], dst[x*4+2], dst[x*4+3] = g, g, g, a
			}

		case TrueColor:
			for x := 0; x < hdr.Width; x++ {
				r := rowSample(row, 3*x+0, depth)
				g := rowSample(row, 3*x+1, depth)
				b := rowSample(row, 3*x+2, depth)
				a := byte(255)
				if haveKey && r == rKey && g == gKey && b == bKey {
					a = 0
				}
				dst[x*4+0], dst[x*4+1], dst[x*4+2], dst[x*4+3] = to8(r, depth), to8(g, depth), to8(b, depth), a
			}

		case Paletted:
			for x := 0; x < hdr.Width; x++ {
				idx := int(rowSample(row, x, depth))
				if idx >= numColors {
					return nil, errorf(ErrBadData, "palette index %d at (%d,%d) exceeds palette size %d",
						idx, x, y, numColors)
				}
				a := byte(255)
				if idx < len(trans) {
					a = trans[idx]
				}
				dst[x*4+0] = palette[3*idx+0]
				dst[x*4+1] = palette[3*idx+1]
				dst[x*4+2] = palette[3*idx+2]
				dst[x*4+3] = a
			}

		case GrayscaleAlpha:
			for x := 0; x < hdr.Width; x++ {
				g := to8(rowSample(row, 2*x+0, depth), depth)
				a := to8(rowSample(row, 2*x+1, depth), depth)
				dst[x*4+0], dst[x*4+1], dst[x*4+2], dst[x*4+3] = g, g, g, a
			}

		default: // TrueColorAlpha
			for x := 0; x < hdr.Width; x++ {
				dst[x*4+0] = to8(rowSample(row, 4*x+0, depth), depth)
				dst[x*4+1] = to8(rowSample(row, 4*x+1, depth), depth)
				dst[x*4+2] = to8(rowSample(row, 4*x+2, depth), depth)
				dst[x*4+3] = to8(rowSample(row, 4*x+3, depth), depth)
			}
		}
	}
	return out, nil
}
