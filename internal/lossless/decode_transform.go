package lossless

// Transform reading and the inverse transform pipeline. The per-pixel
// arithmetic lives in internal/dsp; this file walks tiles and rows.

import "github.com/deepteams/raster/internal/dsp"

// readTransform reads one transform header plus its data sub-image and
// returns the (possibly narrowed) coded width.
func (dec *decoder) readTransform(xsize, ysize int) (int, error) {
	ttype := transformType(dec.br.ReadBits(2))

	// Each transform type may appear at most once.
	if dec.transformsSeen&(1<<ttype) != 0 {
		return 0, ErrBitstream
	}
	dec.transformsSeen |= 1 << ttype
	if dec.nextTransform >= numTransforms {
		return 0, ErrBitstream
	}

	t := &dec.transforms[dec.nextTransform]
	t.Type = ttype
	t.XSize = xsize
	t.YSize = ysize
	t.Data = nil
	dec.nextTransform++

	switch ttype {
	case predictorTransform, crossColorTransform:
		t.Bits = minTransformBits + int(dec.br.ReadBits(numTransformBits))
		data, err := dec.decodeSubImage(subSampleSize(t.XSize, t.Bits), subSampleSize(t.YSize, t.Bits))
		if err != nil {
			return 0, err
		}
		t.Data = data

	case colorIndexingTransform:
		numColors := int(dec.br.ReadBits(8)) + 1
		var bits int
		switch {
		case numColors > 16:
			bits = 0
		case numColors > 4:
			bits = 1
		case numColors > 2:
			bits = 2
		default:
			bits = 3
		}
		t.Bits = bits

		palette, err := dec.decodeSubImage(numColors, 1)
		if err != nil {
			return 0, err
		}
		t.Data = expandColorMap(numColors, bits, palette)
		xsize = subSampleSize(t.XSize, bits)

	case subtractGreenTransform:
		// No data.
	}

	return xsize, nil
}

// expandColorMap delta-decodes the palette (each byte component adds the
// previous entry's byte) and widens it to the full index range.
func expandColorMap(numColors, bits int, palette []uint32) []uint32 {
	finalNumColors := 1 << (8 >> bits)
	colorMap := make([]uint32, finalNumColors)
	if len(palette) > 0 {
		colorMap[0] = palette[0]
	}
	for i := 1; i < numColors; i++ {
		colorMap[i] = addPixels(palette[i], colorMap[i-1])
	}
	return colorMap
}

// applyInverseTransforms runs the recorded transforms in reverse order and
// returns the final ARGB buffer.
func (dec *decoder) applyInverseTransforms(pixels []uint32) []uint32 {
	if dec.nextTransform == 0 {
		return pixels
	}
	numPix := len(pixels)
	rows := pixels
	out := dec.transformBuf
	if len(out) < numPix {
		out = make([]uint32, numPix)
	}

	for n := dec.nextTransform - 1; n >= 0; n-- {
		t := &dec.transforms[n]
		inverseTransform(t, rows, out)
		rows = out
	}
	return out[:numPix]
}

// inverseTransform dispatches one inverse transform over the whole image.
func inverseTransform(t *transform, in, out []uint32) {
	numPixels := t.XSize * t.YSize

	switch t.Type {
	case subtractGreenTransform:
		if &in[0] != &out[0] {
			copy(out[:numPixels], in[:numPixels])
		}
		dsp.AddGreenToBlueAndRed(out, numPixels)

	case predictorTransform:
		predictorInverseTransform(t, in, out)

	case crossColorTransform:
		colorSpaceInverseTransform(t, in, out)

	case colorIndexingTransform:
		colorIndexInverseTransform(t, in, out)
	}
}

// predictorInverseTransform undoes the spatial prediction. The first pixel
// uses the black predictor, the rest of row 0 the left predictor and the
// first column the top predictor; everything else follows the per-tile
// mode.
func predictorInverseTransform(t *transform, in, out []uint32) {
	width := t.XSize
	height := t.YSize
	if width == 0 || height == 0 {
		return
	}

	out[0] = addPixels(in[0], argbBlack)
	for x := 1; x < width; x++ {
		out[x] = addPixels(in[x], out[x-1])
	}

	tileMask := 1<<t.Bits - 1
	tilesPerRow := subSampleSize(width, t.Bits)

	for y := 1; y < height; y++ {
		rowOff := y * width
		modeRow := t.Data[(y>>t.Bits)*tilesPerRow:]

		out[rowOff] = addPixels(in[rowOff], out[rowOff-width])

		var pred dsp.LosslessPredFunc
		for x := 1; x < width; x++ {
			if x&tileMask == 0 || pred == nil {
				mode := (modeRow[x>>t.Bits] >> 8) & 0xf
				pred = dsp.LosslessPredictors[mode]
			}
			// top[0..2] are the top-left, top and top-right neighbors; for
			// the last column the top-right slot falls on out[rowOff], the
			// already decoded first pixel of this row.
			topIdx := rowOff - width + x
			p := pred(out[rowOff+x-1], out[topIdx-1:topIdx+2])
			out[rowOff+x] = addPixels(in[rowOff+x], p)
		}
	}
}

// addPixels adds two ARGB pixels per component mod 256.
func addPixels(a, b uint32) uint32 {
	alphaGreen := (a & 0xff00ff00) + (b & 0xff00ff00)
	redBlue := (a & 0x00ff00ff) + (b & 0x00ff00ff)
	return alphaGreen&0xff00ff00 | redBlue&0x00ff00ff
}

// colorSpaceInverseTransform undoes the cross-color transform, one tile
// span at a time.
func colorSpaceInverseTransform(t *transform, in, out []uint32) {
	width := t.XSize
	tileWidth := 1 << t.Bits
	tilesPerRow := subSampleSize(width, t.Bits)

	for y := 0; y < t.YSize; y++ {
		rowOff := y * width
		codeRow := t.Data[(y>>t.Bits)*tilesPerRow:]

		for x := 0; x < width; x += tileWidth {
			n := tileWidth
			if x+n > width {
				n = width - x
			}
			code := codeRow[x>>t.Bits]
			m := dsp.Multipliers{
				GreenToRed:  uint8(code),
				GreenToBlue: uint8(code >> 8),
				RedToBlue:   uint8(code >> 16),
			}
			dsp.TransformColorInverse(&m, in[rowOff+x:], n, out[rowOff+x:])
		}
	}
}

// colorIndexInverseTransform undoes the palette transform, unpacking
// sub-byte indices when the palette is small. Indices travel in the green
// channel.
func colorIndexInverseTransform(t *transform, in, out []uint32) {
	width := t.XSize
	height := t.YSize
	colorMap := t.Data

	if t.Bits == 0 {
		dsp.MapColor32b(in, colorMap, out, 0, height, width)
		return
	}

	bitsPerPixel := 8 >> t.Bits
	countMask := 1<<t.Bits - 1
	bitMask := uint32(1<<bitsPerPixel - 1)
	packedPerRow := subSampleSize(width, t.Bits)

	// Walk backward so the widening never clobbers packed input when in
	// and out share a buffer: a destination index is always at or beyond
	// its source index.
	for y := height - 1; y >= 0; y-- {
		srcRow := y * packedPerRow
		dstRow := y * width
		for x := width - 1; x >= 0; x-- {
			packed := (in[srcRow+(x>>t.Bits)] >> 8) & 0xff
			idx := (packed >> uint(bitsPerPixel*(x&countMask))) & bitMask
			out[dstRow+x] = colorMap[idx]
		}
	}
}
