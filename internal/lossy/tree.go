package lossy

// parseProba reads the coefficient probability updates and the skip
// probability from partition 0, then builds the band pointer table.
func (dec *decoder) parseProba() {
	br := dec.br
	p := &dec.proba

	for t := 0; t < numTypes; t++ {
		for b := 0; b < numBands; b++ {
			for c := 0; c < numCtx; c++ {
				for n := 0; n < numProbas; n++ {
					if br.GetBit(kCoeffUpdateProba[t][b][c][n]) != 0 {
						p.bands[t][b].probas[c][n] = uint8(br.GetValue(8))
					} else {
						p.bands[t][b].probas[c][n] = kCoeffProbaDefault[t][b][c][n]
					}
				}
			}
		}
		for b := 0; b < 16+1; b++ {
			p.acProba[t][b] = &p.bands[t][kBands[b]]
		}
	}

	dec.useSkipProba = br.GetBit(0x80) != 0
	if dec.useSkipProba {
		dec.skipProba = uint8(br.GetValue(8))
	}
}

// parseIntraModeRow reads segment, skip and prediction modes for one
// macroblock row from partition 0.
func (dec *decoder) parseIntraModeRow() error {
	for mbX := 0; mbX < dec.mbW; mbX++ {
		dec.parseIntraMode(mbX)
	}
	if dec.br.Overrun() {
		return ErrTruncated
	}
	return nil
}

func (dec *decoder) parseIntraMode(mbX int) {
	br := dec.br
	top := dec.intraT[4*mbX : 4*mbX+4]
	left := dec.intraL[:]
	block := &dec.blocks[mbX]

	if dec.segHdr.updateMap {
		if br.GetBit(dec.proba.segments[0]) == 0 {
			block.segment = uint8(br.GetBit(dec.proba.segments[1]))
		} else {
			block.segment = uint8(br.GetBit(dec.proba.segments[2])) + 2
		}
	} else {
		block.segment = 0
	}

	if dec.useSkipProba {
		block.skip = br.GetBit(dec.skipProba) != 0
	}

	block.isI4x4 = br.GetBit(145) == 0
	if !block.isI4x4 {
		// One 16x16 mode for the whole macroblock.
		var ymode uint8
		if br.GetBit(156) != 0 {
			if br.GetBit(128) != 0 {
				ymode = tmPred
			} else {
				ymode = hePred
			}
		} else {
			if br.GetBit(163) != 0 {
				ymode = vePred
			} else {
				ymode = dcPred
			}
		}
		block.modes[0] = ymode
		for i := 0; i < 4; i++ {
			top[i] = ymode
			left[i] = ymode
		}
	} else {
		// Sixteen 4x4 modes, each conditioned on the modes above and to
		// the left, decoded by walking the mode tree.
		modes := block.modes[:]
		for y := 0; y < 4; y++ {
			ymode := left[y]
			for x := 0; x < 4; x++ {
				prob := &kBModesProba[top[x]][ymode]
				i := int(kYModesIntra4[br.GetBit(prob[0])])
				for i > 0 {
					i = int(kYModesIntra4[2*i+br.GetBit(prob[i])])
				}
				ymode = uint8(-i)
				top[x] = ymode
				modes[y*4+x] = ymode
			}
			left[y] = ymode
		}
	}

	if br.GetBit(142) == 0 {
		block.uvMode = dcPred
	} else if br.GetBit(114) == 0 {
		block.uvMode = vePred
	} else if br.GetBit(183) != 0 {
		block.uvMode = tmPred
	} else {
		block.uvMode = hePred
	}
}
