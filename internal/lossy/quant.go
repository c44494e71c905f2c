package lossy

func clip(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// readOptionalSigned reads a flagged signed delta: a flag bit followed, if
// set, by numBits magnitude and a sign bit.
func (dec *decoder) readOptionalSigned(numBits int) int {
	if dec.br.GetBit(0x80) != 0 {
		return int(dec.br.GetSignedValue(numBits))
	}
	return 0
}

// parseQuant reads the quantizer indices and derives the per-segment
// dequantization matrices. The Y2 (WHT) pair uses the doubled DC and the
// 155/100-scaled AC factor with a floor of 8.
func (dec *decoder) parseQuant() {
	br := dec.br
	baseQ0 := int(br.GetValue(7))
	dqy1DC := dec.readOptionalSigned(4)
	dqy2DC := dec.readOptionalSigned(4)
	dqy2AC := dec.readOptionalSigned(4)
	dquvDC := dec.readOptionalSigned(4)
	dquvAC := dec.readOptionalSigned(4)

	for i := 0; i < numMBSegments; i++ {
		var q int
		if dec.segHdr.useSegment {
			q = int(dec.segHdr.quantizer[i])
			if !dec.segHdr.absoluteDelta {
				q += baseQ0
			}
		} else {
			if i > 0 {
				dec.dqm[i] = dec.dqm[0]
				continue
			}
			q = baseQ0
		}

		m := &dec.dqm[i]
		m.y1[0] = int(kDcTable[clip(q+dqy1DC, 127)])
		m.y1[1] = int(kAcTable[clip(q, 127)])

		m.y2[0] = int(kDcTable[clip(q+dqy2DC, 127)]) * 2
		m.y2[1] = int(kAcTable[clip(q+dqy2AC, 127)]) * 155 / 100
		if m.y2[1] < 8 {
			m.y2[1] = 8
		}

		m.uv[0] = int(kDcTable[clip(q+dquvDC, 117)])
		m.uv[1] = int(kAcTable[clip(q+dquvAC, 127)])
	}
}
