package lossy

import (
	"github.com/deepteams/raster/internal/bitio"
	"github.com/deepteams/raster/internal/dsp"
)

// getLargeValue decodes a coefficient magnitude >= 2: small values come
// from dedicated probability nodes, larger ones from the category tables
// with their extra bits.
func getLargeValue(br *bitio.BoolReader, p []uint8) int {
	var v int
	if br.GetBit(p[3]) == 0 {
		if br.GetBit(p[4]) == 0 {
			v = 2
		} else {
			v = 3 + br.GetBit(p[5])
		}
	} else {
		if br.GetBit(p[6]) == 0 {
			if br.GetBit(p[7]) == 0 {
				v = 5 + br.GetBit(159)
			} else {
				v = 7 + 2*br.GetBit(165)
				v += br.GetBit(145)
			}
		} else {
			bit1 := br.GetBit(p[8])
			bit0 := br.GetBit(p[9+bit1])
			cat := 2*bit1 + bit0
			v = 0
			for _, tabProb := range kCat3456[cat] {
				if tabProb == 0 {
					break
				}
				v = v + v + br.GetBit(tabProb)
			}
			v += 3 + 8<<uint(cat)
		}
	}
	return v
}

// getCoeffs decodes one 4x4 block's coefficients starting at position n,
// dequantizing into natural order via the zigzag map. Returns one past
// the last non-zero position.
func getCoeffs(br *bitio.BoolReader, bands *[16 + 1]*bandProbas, ctx int, dq [2]int, n int, out []int16) int {
	p := bands[n].probas[ctx][:]
	for ; n < 16; n++ {
		if br.GetBit(p[0]) == 0 {
			return n
		}
		for br.GetBit(p[1]) == 0 { // run of zero coefficients
			n++
			p = bands[n].probas[0][:]
			if n == 16 {
				return 16
			}
		}
		pCtx := &bands[n+1].probas
		var v int
		if br.GetBit(p[2]) == 0 {
			v = 1
			p = pCtx[1][:]
		} else {
			v = getLargeValue(br, p)
			p = pCtx[2][:]
		}
		dqIdx := 0
		if n > 0 {
			dqIdx = 1
		}
		out[kZigzag[n]] = int16(br.GetSigned(v) * dq[dqIdx])
	}
	return 16
}

// nzCodeBits packs a 2-bit code per block describing how many coefficients
// are non-zero, consumed later by the transform dispatch.
func nzCodeBits(nzCoeffs uint32, nz, dcNz int) uint32 {
	nzCoeffs <<= 2
	switch {
	case nz > 3:
		nzCoeffs |= 3
	case nz > 1:
		nzCoeffs |= 2
	default:
		nzCoeffs |= uint32(dcNz)
	}
	return nzCoeffs
}

// decodeMacroblock parses the current macroblock's coefficients from the
// row's token partition and records its filter strength.
func (dec *decoder) decodeMacroblock(tokenBR *bitio.BoolReader) error {
	left := &dec.ctx[0]
	mb := &dec.ctx[dec.mbX+1]
	block := &dec.blocks[dec.mbX]

	skip := dec.useSkipProba && block.skip
	if !skip {
		dec.parseResiduals(mb, left, block, tokenBR)
	} else {
		left.nz = 0
		mb.nz = 0
		if !block.isI4x4 {
			left.nzDC = 0
			mb.nzDC = 0
		}
		block.nonZeroY = 0
		block.nonZeroUV = 0
	}

	if dec.filterType > 0 {
		finfo := &dec.fInfo[dec.mbX]
		*finfo = dec.fstrengths[block.segment][b2i(block.isI4x4)]
		finfo.inner = finfo.inner || !skip
	}

	if tokenBR.Overrun() {
		return ErrTruncated
	}
	return nil
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// parseResiduals decodes the luma DC (WHT), luma AC and chroma blocks for
// one macroblock, threading the non-zero context bits through the top and
// left neighbors.
func (dec *decoder) parseResiduals(mb, leftMB *mbContext, block *blockData, tokenBR *bitio.BoolReader) {
	q := &dec.dqm[block.segment]
	dst := block.coeffs[:]
	clear(dst)

	var nonZeroY, nonZeroUV uint32
	var first int
	var acProba *[16 + 1]*bandProbas

	if !block.isI4x4 {
		// Aggregated luma DC block, type 1.
		var dc [16]int16
		ctx := int(mb.nzDC) + int(leftMB.nzDC)
		nz := getCoeffs(tokenBR, &dec.proba.acProba[1], ctx, q.y2, 0, dc[:])
		mb.nzDC = b2u(nz > 0)
		leftMB.nzDC = mb.nzDC
		if nz > 1 {
			dsp.TransformWHT(dc[:], dst)
		} else {
			// Only the DC of the WHT is set: short-circuit the transform.
			dc0 := int16((int(dc[0]) + 3) >> 3)
			for i := 0; i < 16*16; i += 16 {
				dst[i] = dc0
			}
		}
		first = 1
		acProba = &dec.proba.acProba[0]
	} else {
		first = 0
		acProba = &dec.proba.acProba[3]
	}

	tnz := mb.nz & 0x0f
	lnz := leftMB.nz & 0x0f
	for y := 0; y < 4; y++ {
		l := lnz & 1
		var nzCoeffs uint32
		for x := 0; x < 4; x++ {
			ctx := int(l) + int(tnz&1)
			nz := getCoeffs(tokenBR, acProba, ctx, q.y1, first, dst)
			l = b2u(nz > first)
			tnz = tnz>>1 | l<<7
			nzCoeffs = nzCodeBits(nzCoeffs, nz, int(b2u(dst[0] != 0)))
			dst = dst[16:]
		}
		tnz >>= 4
		lnz = lnz>>1 | l<<7
		nonZeroY = nonZeroY<<8 | nzCoeffs
	}
	outTNz := tnz
	outLNz := lnz >> 4

	for ch := 0; ch < 4; ch += 2 {
		var nzCoeffs uint32
		tnz = mb.nz >> (4 + uint(ch))
		lnz = leftMB.nz >> (4 + uint(ch))
		for y := 0; y < 2; y++ {
			l := lnz & 1
			for x := 0; x < 2; x++ {
				ctx := int(l) + int(tnz&1)
				nz := getCoeffs(tokenBR, &dec.proba.acProba[2], ctx, q.uv, 0, dst)
				l = b2u(nz > 0)
				tnz = tnz>>1 | l<<3
				nzCoeffs = nzCodeBits(nzCoeffs, nz, int(b2u(dst[0] != 0)))
				dst = dst[16:]
			}
			tnz >>= 2
			lnz = lnz>>1 | l<<5
		}
		nonZeroUV |= nzCoeffs << uint(4*ch)
		outTNz |= tnz << 4 << uint(ch)
		outLNz |= (lnz & 0xf0) << uint(ch)
	}

	mb.nz = outTNz
	leftMB.nz = outLNz
	block.nonZeroY = nonZeroY
	block.nonZeroUV = nonZeroUV
}

func b2u(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
