package lossy

import "github.com/deepteams/raster/internal/dsp"

// checkMode redirects DC prediction to its border variants when the top
// and/or left neighbors are missing.
func checkMode(mbX, mbY, mode int) int {
	if mode == dcPred {
		if mbX == 0 {
			if mbY == 0 {
				return dcPredNoTopLeft
			}
			return dcPredNoLeft
		}
		if mbY == 0 {
			return dcPredNoTop
		}
	}
	return mode
}

// doTransform adds one 4x4 block's residual according to its 2-bit
// non-zero code (in the top bits).
func doTransform(bits uint32, src []int16, dst []byte) {
	switch bits >> 30 {
	case 3:
		dsp.TransformTwo(src, dst, false)
	case 2:
		dsp.TransformAC3(src, dst)
	case 1:
		addDCBlock(src, dst)
	default:
		// No coefficients.
	}
}

// doUVTransform handles the four chroma blocks of one plane. bits holds a
// 2-bit code per block; the 0xaa mask tells whether any block has AC
// coefficients at all.
func doUVTransform(bits uint32, src []int16, dst []byte) {
	if bits&0xff == 0 {
		return
	}
	if bits&0xaa != 0 {
		dsp.TransformUV(src, dst)
		return
	}
	if src[0] != 0 {
		addDCBlock(src, dst)
	}
	if src[16] != 0 {
		addDCBlock(src[16:], dst[4:])
	}
	if src[32] != 0 {
		addDCBlock(src[32:], dst[4*dsp.BPS:])
	}
	if src[48] != 0 {
		addDCBlock(src[48:], dst[4*dsp.BPS+4:])
	}
}

// addDCBlock is the DC-only inverse transform: every pixel of the 4x4
// block gets the same rounded DC value added.
func addDCBlock(src []int16, dst []byte) {
	add := (int(src[0]) + 4) >> 3
	_ = dst[3+3*dsp.BPS]
	for j := 0; j < 4; j++ {
		off := j * dsp.BPS
		dst[off+0] = dsp.Clip8b(int(dst[off+0]) + add)
		dst[off+1] = dsp.Clip8b(int(dst[off+1]) + add)
		dst[off+2] = dsp.Clip8b(int(dst[off+2]) + add)
		dst[off+3] = dsp.Clip8b(int(dst[off+3]) + add)
	}
}

// reconstructRow predicts and adds residuals for every macroblock of the
// current row inside the BPS-strided scratch area, then copies the result
// into the output planes. Missing-neighbor borders use the 129/127
// sentinel fills.
func (dec *decoder) reconstructRow() {
	mbY := dec.mbY
	bps := dsp.BPS
	buf := dec.yuvB

	// Left border column.
	for j := 0; j < 16; j++ {
		buf[yOff+j*bps-1] = 129
	}
	for j := 0; j < 8; j++ {
		buf[uOff+j*bps-1] = 129
		buf[vOff+j*bps-1] = 129
	}

	// Top-left corner: 129 mid-frame, 127 on the first row (together with
	// the whole top context row).
	if mbY > 0 {
		buf[yOff-1-bps] = 129
		buf[uOff-1-bps] = 129
		buf[vOff-1-bps] = 129
	} else {
		fillBytes(buf[yOff-bps-1:], 127, 16+4+1)
		fillBytes(buf[uOff-bps-1:], 127, 8+1)
		fillBytes(buf[vOff-bps-1:], 127, 8+1)
	}

	for mbX := 0; mbX < dec.mbW; mbX++ {
		block := &dec.blocks[mbX]

		yDst := buf[yOff:]
		uDst := buf[uOff:]
		vDst := buf[vOff:]

		// Rotate the right edge of the previous macroblock into the left
		// context columns.
		if mbX > 0 {
			for j := -1; j < 16; j++ {
				copy(buf[yOff+j*bps-4:yOff+j*bps], buf[yOff+j*bps+12:yOff+j*bps+16])
			}
			for j := -1; j < 8; j++ {
				copy(buf[uOff+j*bps-4:uOff+j*bps], buf[uOff+j*bps+4:uOff+j*bps+8])
				copy(buf[vOff+j*bps-4:vOff+j*bps], buf[vOff+j*bps+4:vOff+j*bps+8])
			}
		}

		topYUV := &dec.yuvT[mbX]
		coeffs := block.coeffs[:]
		bits := block.nonZeroY

		if mbY > 0 {
			copy(buf[yOff-bps:], topYUV.y[:])
			copy(buf[uOff-bps:], topYUV.u[:])
			copy(buf[vOff-bps:], topYUV.v[:])
		}

		if block.isI4x4 {
			topRight := buf[yOff-bps+16:]

			if mbY > 0 {
				if mbX >= dec.mbW-1 {
					// Right frame edge: replicate the last top pixel.
					fillBytes(topRight, topYUV.y[15], 4)
				} else {
					copy(topRight[:4], dec.yuvT[mbX+1].y[:4])
				}
			}
			// The sub-block predictors read top-right context one row above
			// each sub-block row; replicate it there.
			for r := 1; r <= 3; r++ {
				off := r * 4 * bps
				copy(topRight[off:off+4], topRight[:4])
			}

			for n := 0; n < 16; n++ {
				blockOff := yOff + kScan[n]
				dsp.PredLuma4[block.modes[n]](buf, blockOff)
				doTransform(bits, coeffs[n*16:], buf[blockOff:])
				bits <<= 2
			}
		} else {
			mode := checkMode(mbX, mbY, int(block.modes[0]))
			dsp.PredLuma16[mode](buf, yOff)
			if bits != 0 {
				for n := 0; n < 16; n++ {
					doTransform(bits, coeffs[n*16:], buf[yOff+kScan[n]:])
					bits <<= 2
				}
			}
		}

		bitsUV := block.nonZeroUV
		mode := checkMode(mbX, mbY, int(block.uvMode))
		dsp.PredChroma8[mode](buf, uOff)
		dsp.PredChroma8[mode](buf, vOff)
		doUVTransform(bitsUV, coeffs[16*16:], uDst)
		doUVTransform(bitsUV>>8, coeffs[20*16:], vDst)

		// Save the bottom row as top context for the row below.
		if mbY < dec.mbH-1 {
			copy(topYUV.y[:], yDst[15*bps:15*bps+16])
			copy(topYUV.u[:], uDst[7*bps:7*bps+8])
			copy(topYUV.v[:], vDst[7*bps:7*bps+8])
		}

		yOut := dec.cacheY[mbX*16+mbY*16*dec.cacheYStride:]
		uOut := dec.cacheU[mbX*8+mbY*8*dec.cacheUVStride:]
		vOut := dec.cacheV[mbX*8+mbY*8*dec.cacheUVStride:]
		for j := 0; j < 16; j++ {
			copy(yOut[j*dec.cacheYStride:j*dec.cacheYStride+16], yDst[j*bps:j*bps+16])
		}
		for j := 0; j < 8; j++ {
			copy(uOut[j*dec.cacheUVStride:j*dec.cacheUVStride+8], uDst[j*bps:j*bps+8])
			copy(vOut[j*dec.cacheUVStride:j*dec.cacheUVStride+8], vDst[j*bps:j*bps+8])
		}
	}
}

// precomputeFilterStrengths derives the deblocking limits for every
// segment and block-size combination from the filter header.
func (dec *decoder) precomputeFilterStrengths() {
	if dec.filterType <= 0 {
		return
	}
	hdr := &dec.filtHdr
	for s := 0; s < numMBSegments; s++ {
		var baseLevel int
		if dec.segHdr.useSegment {
			baseLevel = int(dec.segHdr.filterLevel[s])
			if !dec.segHdr.absoluteDelta {
				baseLevel += hdr.level
			}
		} else {
			baseLevel = hdr.level
		}

		for i4x4 := 0; i4x4 <= 1; i4x4++ {
			info := &dec.fstrengths[s][i4x4]
			level := baseLevel
			if hdr.useLFDelta {
				// Intra frames always reference frame 0.
				level += hdr.refLFDelta[0]
				if i4x4 != 0 {
					level += hdr.modeLFDelta[0]
				}
			}
			if level < 0 {
				level = 0
			} else if level > 63 {
				level = 63
			}
			if level > 0 {
				ilevel := level
				if hdr.sharpness > 0 {
					if hdr.sharpness > 4 {
						ilevel >>= 2
					} else {
						ilevel >>= 1
					}
					if ilevel > 9-hdr.sharpness {
						ilevel = 9 - hdr.sharpness
					}
				}
				if ilevel < 1 {
					ilevel = 1
				}
				info.innerLevel = uint8(ilevel)
				info.limit = uint8(2*level + ilevel)
				switch {
				case level >= 40:
					info.hevThresh = 2
				case level >= 15:
					info.hevThresh = 1
				default:
					info.hevThresh = 0
				}
			} else {
				info.limit = 0
			}
			info.inner = i4x4 != 0
		}
	}
}

// filterRow deblocks the just-reconstructed macroblock row in place.
func (dec *decoder) filterRow() {
	for mbX := 0; mbX < dec.mbW; mbX++ {
		dec.deblockMB(mbX, dec.mbY)
	}
}

// deblockMB applies the simple or normal loop filter to one macroblock's
// edges in the output planes.
func (dec *decoder) deblockMB(mbX, mbY int) {
	finfo := &dec.fInfo[mbX]
	limit := int(finfo.limit)
	if limit == 0 {
		return
	}
	ilevel := int(finfo.innerLevel)
	yStride := dec.cacheYStride
	yBase := mbY*16*yStride + mbX*16

	if dec.filterType == 1 {
		// Simple filter, luma only.
		if mbX > 0 {
			dsp.SimpleHFilter16(dec.cacheY, yBase, yStride, limit+4)
		}
		if finfo.inner {
			dsp.SimpleHFilter16i(dec.cacheY, yBase, yStride, limit)
		}
		if mbY > 0 {
			dsp.SimpleVFilter16(dec.cacheY, yBase, yStride, limit+4)
		}
		if finfo.inner {
			dsp.SimpleVFilter16i(dec.cacheY, yBase, yStride, limit)
		}
		return
	}

	// Normal filter, luma and chroma.
	uvStride := dec.cacheUVStride
	uvBase := mbY*8*uvStride + mbX*8
	hevT := int(finfo.hevThresh)

	if mbX > 0 {
		dsp.HFilter16(dec.cacheY, yBase, yStride, limit+4, ilevel, hevT)
		dsp.HFilter8(dec.cacheU, dec.cacheV, uvBase, uvBase, uvStride, limit+4, ilevel, hevT)
	}
	if finfo.inner {
		dsp.HFilter16i(dec.cacheY, yBase, yStride, limit, ilevel, hevT)
		dsp.HFilter8i(dec.cacheU, dec.cacheV, uvBase, uvBase, uvStride, limit, ilevel, hevT)
	}
	if mbY > 0 {
		dsp.VFilter16(dec.cacheY, yBase, yStride, limit+4, ilevel, hevT)
		dsp.VFilter8(dec.cacheU, dec.cacheV, uvBase, uvBase, uvStride, limit+4, ilevel, hevT)
	}
	if finfo.inner {
		dsp.VFilter16i(dec.cacheY, yBase, yStride, limit, ilevel, hevT)
		dsp.VFilter8i(dec.cacheU, dec.cacheV, uvBase, uvBase, uvStride, limit, ilevel, hevT)
	}
}

func fillBytes(dst []byte, v byte, n int) {
	for i := 0; i < n; i++ {
		dst[i] = v
	}
}
