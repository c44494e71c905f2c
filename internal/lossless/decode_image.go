package lossless

// Huffman tree reading and the entropy-coded pixel loop.

import "github.com/deepteams/raster/internal/bitio"

// readHuffmanCodeLengths expands Huffman-coded code lengths using a
// previously built code-length table.
func (dec *decoder) readHuffmanCodeLengths(clTable []huffmanCode, numSymbols int) ([]int, error) {
	var codeLengths []int
	if cap(dec.codeLengthsBuf) >= numSymbols {
		codeLengths = dec.codeLengthsBuf[:numSymbols]
		for i := range codeLengths {
			codeLengths[i] = 0
		}
	} else {
		codeLengths = make([]int, numSymbols)
		dec.codeLengthsBuf = codeLengths
	}
	prevCodeLen := defaultCodeLength

	maxSymbol := numSymbols
	if dec.br.ReadBits(1) == 1 {
		lengthNBits := 2 + 2*int(dec.br.ReadBits(3))
		maxSymbol = 2 + int(dec.br.ReadBits(lengthNBits))
		if maxSymbol > numSymbols {
			return nil, ErrBitstream
		}
	}

	symbol := 0
	remaining := maxSymbol
	for symbol < numSymbols && remaining > 0 {
		remaining--
		dec.br.FillBitWindow()
		entry := clTable[dec.br.PrefetchBits()&lengthsTableMask]
		dec.br.SetBitPos(dec.br.BitPos() + int(entry.Bits))
		codeLen := int(entry.Value)

		if codeLen < codeLengthLiterals {
			codeLengths[symbol] = codeLen
			symbol++
			if codeLen != 0 {
				prevCodeLen = codeLen
			}
			continue
		}

		slot := codeLen - codeLengthLiterals
		repeat := int(dec.br.ReadBits(int(codeLengthExtraBits[slot]))) + int(codeLengthRepeatOffsets[slot])
		if symbol+repeat > numSymbols {
			return nil, ErrBitstream
		}
		length := 0
		if codeLen == codeLengthRepeatCode {
			length = prevCodeLen
		}
		for i := 0; i < repeat; i++ {
			codeLengths[symbol] = length
			symbol++
		}
	}

	if dec.br.IsEndOfStream() {
		return nil, ErrBitstream
	}
	return codeLengths, nil
}

// readHuffmanCode reads one tree and returns its lookup table together with
// the longest code length (used for packed-table eligibility).
func (dec *decoder) readHuffmanCode(alphabetSize int) ([]huffmanCode, int, error) {
	simpleCode := dec.br.ReadBits(1)

	var codeLengths []int
	if cap(dec.codeLengthsBuf) >= alphabetSize {
		codeLengths = dec.codeLengthsBuf[:alphabetSize]
		for i := range codeLengths {
			codeLengths[i] = 0
		}
	} else {
		codeLengths = make([]int, alphabetSize)
		dec.codeLengthsBuf = codeLengths
	}

	if simpleCode == 1 {
		// One or two symbols stored verbatim.
		numSymbols := int(dec.br.ReadBits(1)) + 1
		symbolBits := 1
		if dec.br.ReadBits(1) == 1 {
			symbolBits = 8
		}
		symbol := int(dec.br.ReadBits(symbolBits))
		if symbol >= alphabetSize {
			return nil, 0, ErrBitstream
		}
		codeLengths[symbol] = 1
		if numSymbols == 2 {
			symbol = int(dec.br.ReadBits(8))
			if symbol >= alphabetSize {
				return nil, 0, ErrBitstream
			}
			codeLengths[symbol] = 1
		}
	} else {
		var clCodeLengths [numCodeLengthCodes]int
		numCodes := int(dec.br.ReadBits(4)) + 4
		if numCodes > numCodeLengthCodes {
			numCodes = numCodeLengthCodes
		}
		for i := 0; i < numCodes; i++ {
			clCodeLengths[codeLengthCodeOrder[i]] = int(dec.br.ReadBits(3))
		}

		clTable, err := buildHuffmanTable(lengthsTableBits, clCodeLengths[:], &dec.scratch)
		if err != nil {
			return nil, 0, err
		}
		codeLengths, err = dec.readHuffmanCodeLengths(clTable, alphabetSize)
		if err != nil {
			return nil, 0, err
		}
	}

	if dec.br.IsEndOfStream() {
		return nil, 0, ErrBitstream
	}

	maxCodeLen := 0
	for _, cl := range codeLengths {
		if cl > maxCodeLen {
			maxCodeLen = cl
		}
	}

	table, err := buildHuffmanTable(huffmanTableBits, codeLengths, &dec.scratch)
	if err != nil {
		return nil, 0, err
	}
	return table, maxCodeLen, nil
}

// readHuffmanCodes reads the optional meta-Huffman image and every tree
// group it references.
func (dec *decoder) readHuffmanCodes(xsize, ysize, colorCacheBits int, allowRecursion bool) error {
	numGroups := 1
	numGroupsMax := 1
	var huffmanImage []uint32
	var mapping []int // remapped group indices; -1 marks an unused group

	if allowRecursion && dec.br.ReadBits(1) == 1 {
		huffmanPrecision := minHuffmanBits + int(dec.br.ReadBits(numHuffmanBits))
		huffmanXSize := subSampleSize(xsize, huffmanPrecision)
		huffmanYSize := subSampleSize(ysize, huffmanPrecision)
		huffmanPixs := huffmanXSize * huffmanYSize

		subImage, err := dec.decodeSubImage(huffmanXSize, huffmanYSize)
		if err != nil {
			return err
		}

		dec.hdr.huffmanSubsampleBits = huffmanPrecision
		for i := 0; i < huffmanPixs; i++ {
			group := int((subImage[i] >> 8) & 0xffff)
			subImage[i] = uint32(group)
			if group+1 > numGroupsMax {
				numGroupsMax = group + 1
			}
		}

		// Compact wildly sparse group numbering so storage stays bounded.
		// Groups the image never references are still read from the
		// bitstream (and discarded) to keep the reader in sync.
		if numGroupsMax > 1000 || numGroupsMax > xsize*ysize {
			mapping = make([]int, numGroupsMax)
			for i := range mapping {
				mapping[i] = -1
			}
			numGroups = 0
			for i := 0; i < huffmanPixs; i++ {
				g := int(subImage[i])
				if mapping[g] == -1 {
					mapping[g] = numGroups
					numGroups++
				}
				subImage[i] = uint32(mapping[g])
			}
		} else {
			numGroups = numGroupsMax
		}
		huffmanImage = subImage
	}

	if dec.br.IsEndOfStream() {
		return ErrBitstream
	}

	var groups []hTreeGroup
	if cap(dec.groupsBuf) >= numGroups {
		groups = dec.groupsBuf[:numGroups]
		for i := range groups {
			groups[i] = hTreeGroup{}
		}
	} else {
		groups = make([]hTreeGroup, numGroups)
		dec.groupsBuf = groups
	}

	for i := 0; i < numGroupsMax; i++ {
		mapped := i
		if mapping != nil {
			mapped = mapping[i]
		}

		if mapped == -1 {
			for j := 0; j < huffmanCodesPerMetaCode; j++ {
				if _, _, err := dec.readHuffmanCode(alphabetSize(j, colorCacheBits)); err != nil {
					return err
				}
			}
			continue
		}

		group := &groups[mapped]
		isTrivialLiteral := true
		totalBits := 0
		maxBits := 0

		for j := 0; j < huffmanCodesPerMetaCode; j++ {
			table, maxCodeLen, err := dec.readHuffmanCode(alphabetSize(j, colorCacheBits))
			if err != nil {
				return err
			}
			group.htrees[j] = table

			if isTrivialLiteral && kLiteralMap[j] == 1 {
				isTrivialLiteral = table[0].Bits == 0
			}
			totalBits += int(table[0].Bits)
			if j <= huffAlpha {
				maxBits += maxCodeLen
			}
		}

		group.isTrivialLiteral = isTrivialLiteral
		if isTrivialLiteral {
			red := uint32(group.htrees[huffRed][0].Value)
			blue := uint32(group.htrees[huffBlue][0].Value)
			alpha := uint32(group.htrees[huffAlpha][0].Value)
			group.literalARB = alpha<<24 | red<<16 | blue
			if totalBits == 0 && group.htrees[huffGreen][0].Value < numLiteralCodes {
				group.isTrivialCode = true
				group.literalARB |= uint32(group.htrees[huffGreen][0].Value) << 8
			}
		}
		group.usePackedTable = !group.isTrivialCode && maxBits < huffmanPackedBits
		if group.usePackedTable {
			buildPackedTable(group)
		}
	}

	dec.hdr.htreeGroups = groups
	dec.hdr.huffmanImage = huffmanImage
	return nil
}

// alphabetSize returns the symbol count of tree j; the green tree grows by
// the color cache size.
func alphabetSize(j, colorCacheBits int) int {
	size := kAlphabetSize[j]
	if j == huffGreen && colorCacheBits > 0 {
		size += 1 << colorCacheBits
	}
	return size
}

// getHTreeGroup returns the tree group covering pixel (x, y).
func (dec *decoder) getHTreeGroup(x, y int) *hTreeGroup {
	if dec.hdr.huffmanSubsampleBits == 0 {
		return &dec.hdr.htreeGroups[0]
	}
	bits := dec.hdr.huffmanSubsampleBits
	idx := dec.hdr.huffmanImage[dec.hdr.huffmanXSize*(y>>bits)+(x>>bits)]
	return &dec.hdr.htreeGroups[idx]
}

// readSymbolFromTree decodes one symbol, refilling the bit window first.
func readSymbolFromTree(table []huffmanCode, br *bitio.LosslessReader) int {
	br.FillBitWindow()
	val, bitsUsed := readSymbol(table, br.PrefetchBits())
	br.SetBitPos(br.BitPos() + bitsUsed)
	return int(val)
}

// getCopyDistance expands a length/distance prefix symbol: the first four
// symbols map directly, the rest carry extra bits.
func getCopyDistance(distanceSymbol int, br *bitio.LosslessReader) int {
	if distanceSymbol < 4 {
		return distanceSymbol + 1
	}
	extraBits := (distanceSymbol - 2) >> 1
	offset := (2 + (distanceSymbol & 1)) << extraBits
	return offset + int(br.ReadBits(extraBits)) + 1
}

// getCopyLength shares the distance encoding.
func getCopyLength(lengthSymbol int, br *bitio.LosslessReader) int {
	return getCopyDistance(lengthSymbol, br)
}

// readPackedSymbols probes the packed table. A literal returns the whole
// ARGB pixel; otherwise the pending green code is returned for the caller
// to handle.
func readPackedSymbols(group *hTreeGroup, br *bitio.LosslessReader) (argb uint32, greenCode int, isLiteral bool) {
	code := group.packedTable[br.PrefetchBits()&(huffmanPackedTableSize-1)]
	if code.Bits < packedNonLiteral {
		br.SetBitPos(br.BitPos() + code.Bits)
		return code.Value, 0, true
	}
	br.SetBitPos(br.BitPos() + code.Bits - packedNonLiteral)
	return 0, int(code.Value), false
}

// decodeImageData decodes width*height ARGB pixels into data.
//
// The color cache tracks lastCached, the position of the last pixel already
// inserted; pending pixels are flushed at end of row, before backward
// references and before cache lookups.
func (dec *decoder) decodeImageData(data []uint32, width, height, lastRow int) error {
	br := dec.br
	hdr := &dec.hdr

	lenCodeLimit := numLiteralCodes + numLengthCodes
	cacheLimit := lenCodeLimit + hdr.cacheSize
	cache := hdr.cache
	mask := hdr.huffmanMask

	pos := 0
	lastCached := 0
	row, col := 0, 0
	srcEnd := width * height
	srcLast := width * lastRow

	flushCache := func() {
		for lastCached < pos {
			cache.insert(data[lastCached])
			lastCached++
		}
	}
	advance := func() {
		pos++
		col++
		if col >= width {
			col = 0
			row++
			if cache != nil {
				flushCache()
			}
		}
	}

	var group *hTreeGroup
	if pos < srcLast {
		group = dec.getHTreeGroup(col, row)
	}

loop:
	for pos < srcLast {
		if col&mask == 0 {
			group = dec.getHTreeGroup(col, row)
		}

		if group.isTrivialCode {
			data[pos] = group.literalARB
			advance()
			continue
		}

		br.FillBitWindow()

		var code int
		if group.usePackedTable {
			argb, greenCode, isLiteral := readPackedSymbols(group, br)
			if br.IsEndOfStream() {
				break loop
			}
			if isLiteral {
				data[pos] = argb
				advance()
				continue
			}
			code = greenCode
		} else {
			val, bits := readSymbol(group.htrees[huffGreen], br.PrefetchBits())
			if bits < 0 {
				return ErrBitstream
			}
			br.SetBitPos(br.BitPos() + bits)
			code = int(val)
		}

		if br.IsEndOfStream() {
			break loop
		}

		switch {
		case code < numLiteralCodes:
			// Literal pixel: green already decoded, then red, blue, alpha.
			if group.isTrivialLiteral {
				data[pos] = group.literalARB | uint32(code)<<8
			} else {
				red := readSymbolFromTree(group.htrees[huffRed], br)
				blue := readSymbolFromTree(group.htrees[huffBlue], br)
				alpha := readSymbolFromTree(group.htrees[huffAlpha], br)
				if br.IsEndOfStream() {
					break loop
				}
				data[pos] = uint32(alpha)<<24 | uint32(red)<<16 | uint32(code)<<8 | uint32(blue)
			}
			advance()

		case code < lenCodeLimit:
			// Backward reference.
			length := getCopyLength(code-numLiteralCodes, br)
			distSymbol := readSymbolFromTree(group.htrees[huffDist], br)
			br.FillBitWindow()
			distCode := getCopyDistance(distSymbol, br)
			dist := planeCodeToDistance(width, distCode)

			if br.IsEndOfStream() {
				break loop
			}
			if pos < dist || srcEnd-pos < length {
				return ErrBitstream
			}

			copyBlock32(data, pos, dist, length)
			pos += length
			col += length
			for col >= width {
				col -= width
				row++
			}
			if col&mask != 0 {
				group = dec.getHTreeGroup(col, row)
			}
			if cache != nil {
				flushCache()
			}

		case code < cacheLimit:
			// Color cache reference; pending pixels enter the cache first.
			key := code - lenCodeLimit
			if cache != nil {
				flushCache()
				data[pos] = cache.lookup(key)
			}
			advance()

		default:
			return ErrBitstream
		}
	}

	if br.IsEndOfStream() && pos < srcEnd {
		return ErrBitstream
	}
	return nil
}

// copyBlock32 copies length pixels from dist back. Non-overlapping spans
// use copy; dist 1 is a fill; other overlaps double the copied region.
func copyBlock32(data []uint32, pos, dist, length int) {
	src := pos - dist
	switch {
	case dist >= length:
		copy(data[pos:pos+length], data[src:src+length])
	case dist == 1:
		val := data[src]
		dst := data[pos : pos+length]
		for i := range dst {
			dst[i] = val
		}
	default:
		copy(data[pos:pos+dist], data[src:src+dist])
		copied := dist
		for copied < length {
			n := copied
			if n > length-copied {
				n = length - copied
			}
			copy(data[pos+copied:pos+copied+n], data[pos:pos+n])
			copied += n
		}
	}
}
