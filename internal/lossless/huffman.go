package lossless

// Canonical Huffman table construction and symbol lookup. Tables are
// two-level: a root table indexed by huffmanTableBits bits, with overflow
// codes spilling into second-level sub-tables.

// huffmanCode is one lookup-table entry. Bits is the number of bits the
// entry consumes; Value is the decoded symbol, or the sub-table offset for
// codes longer than the root width.
type huffmanCode struct {
	Bits  uint8
	Value uint16
}

// huffmanCode32 is the packed-table entry type; Bits above
// packedNonLiteral marks a non-literal green code.
type huffmanCode32 struct {
	Bits  int
	Value uint32
}

// hTreeGroup bundles the five Huffman trees of one meta-code together with
// the fast-path flags derived from them.
type hTreeGroup struct {
	htrees [huffmanCodesPerMetaCode][]huffmanCode

	// isTrivialLiteral: red, blue and alpha each have a single code.
	isTrivialLiteral bool
	// literalARB packs those trivial alpha/red/blue values (green zero).
	literalARB uint32
	// isTrivialCode: additionally the green tree has a single literal code,
	// so every pixel of the tile is literalARB.
	isTrivialCode bool

	// usePackedTable: all four literal channels fit in huffmanPackedBits,
	// letting packedTable decode a whole pixel per probe.
	usePackedTable bool
	packedTable    [huffmanPackedTableSize]huffmanCode32
}

// huffmanScratch amortizes table allocation across the many trees of one
// image: tables are carved out of a shared slab when it has room.
type huffmanScratch struct {
	sorted  []uint16
	slab    []huffmanCode
	slabOff int
}

// buildHuffmanTable builds the lookup table for the canonical code defined
// by codeLengths (indexed by symbol). It rejects over- and under-subscribed
// codes: the Kraft sum must be exactly one unless only a single symbol is
// present.
func buildHuffmanTable(rootBits int, codeLengths []int, scratch *huffmanScratch) ([]huffmanCode, error) {
	codeLengthsSize := len(codeLengths)
	if codeLengthsSize == 0 {
		return nil, ErrHuffman
	}

	// First pass sizes the table without writing entries.
	totalSize := huffmanTableSize(rootBits, codeLengths)
	if totalSize == 0 {
		return nil, ErrHuffman
	}

	var table []huffmanCode
	if scratch != nil && scratch.slabOff+totalSize <= len(scratch.slab) {
		table = scratch.slab[scratch.slabOff : scratch.slabOff+totalSize : scratch.slabOff+totalSize]
		scratch.slabOff += totalSize
		for i := range table {
			table[i] = huffmanCode{}
		}
	} else {
		table = make([]huffmanCode, totalSize)
	}

	var sorted []uint16
	if scratch != nil && cap(scratch.sorted) >= codeLengthsSize {
		sorted = scratch.sorted[:codeLengthsSize]
	} else {
		sorted = make([]uint16, codeLengthsSize)
		if scratch != nil {
			scratch.sorted = sorted
		}
	}

	var count [maxAllowedCodeLength + 1]int
	for _, cl := range codeLengths {
		if cl > maxAllowedCodeLength {
			return nil, ErrHuffman
		}
		count[cl]++
	}
	if count[0] == codeLengthsSize {
		return nil, ErrHuffman
	}

	var offset [maxAllowedCodeLength + 1]int
	for l := 1; l < maxAllowedCodeLength; l++ {
		if count[l] > 1<<l {
			return nil, ErrHuffman
		}
		offset[l+1] = offset[l] + count[l]
	}
	for symbol, cl := range codeLengths {
		if cl > 0 {
			if offset[cl] >= codeLengthsSize {
				return nil, ErrHuffman
			}
			sorted[offset[cl]] = uint16(symbol)
			offset[cl]++
		}
	}

	// A single symbol decodes with zero bits consumed.
	if offset[maxAllowedCodeLength] == 1 {
		code := huffmanCode{Bits: 0, Value: sorted[0]}
		replicateValue(table, 1, totalSize, code)
		return table, nil
	}

	for i := range count {
		count[i] = 0
	}
	for _, cl := range codeLengths {
		count[cl]++
	}

	tableOff := 0
	tableSize := 1 << rootBits
	mask := uint32(tableSize - 1)
	low := uint32(0xffffffff)
	var key uint32
	numNodes := 1
	numOpen := 1
	symbol := 0

	// Root table: codes no longer than rootBits.
	for l, step := 1, 2; l <= rootBits; l, step = l+1, step<<1 {
		numOpen <<= 1
		numNodes += numOpen
		numOpen -= count[l]
		if numOpen < 0 {
			return nil, ErrHuffman
		}
		for ; count[l] > 0; count[l]-- {
			code := huffmanCode{Bits: uint8(l), Value: sorted[symbol]}
			symbol++
			replicateValue(table[key:], step, tableSize, code)
			key = getNextKey(key, l)
		}
	}

	// Second-level tables for longer codes.
	tableBits := rootBits
	for l, step := rootBits+1, 2; l <= maxAllowedCodeLength; l, step = l+1, step<<1 {
		numOpen <<= 1
		numNodes += numOpen
		numOpen -= count[l]
		if numOpen < 0 {
			return nil, ErrHuffman
		}
		for ; count[l] > 0; count[l]-- {
			if key&mask != low {
				tableOff += tableSize
				tableBits = nextTableBitSize(count[:], l, rootBits)
				tableSize = 1 << tableBits
				if tableOff+tableSize > totalSize {
					return nil, ErrHuffman
				}
				low = key & mask
				table[low] = huffmanCode{
					Bits:  uint8(tableBits + rootBits),
					Value: uint16(tableOff),
				}
			}
			code := huffmanCode{Bits: uint8(l - rootBits), Value: sorted[symbol]}
			symbol++
			off := tableOff + int(key>>uint(rootBits))
			if off >= totalSize {
				return nil, ErrHuffman
			}
			replicateValue(table[off:], step, tableSize, code)
			key = getNextKey(key, l)
		}
	}

	if numNodes != 2*offset[maxAllowedCodeLength]-1 {
		return nil, ErrHuffman
	}
	return table, nil
}

// huffmanTableSize runs the construction without writing and returns the
// total entry count, or 0 when the code lengths are invalid.
func huffmanTableSize(rootBits int, codeLengths []int) int {
	codeLengthsSize := len(codeLengths)
	totalSize := 1 << rootBits

	var count [maxAllowedCodeLength + 1]int
	for _, cl := range codeLengths {
		if cl > maxAllowedCodeLength {
			return 0
		}
		count[cl]++
	}
	if count[0] == codeLengthsSize {
		return 0
	}

	var offset [maxAllowedCodeLength + 1]int
	for l := 1; l < maxAllowedCodeLength; l++ {
		if count[l] > 1<<l {
			return 0
		}
		offset[l+1] = offset[l] + count[l]
	}
	for _, cl := range codeLengths {
		if cl > 0 {
			if offset[cl] >= codeLengthsSize {
				return 0
			}
			offset[cl]++
		}
	}

	if offset[maxAllowedCodeLength] == 1 {
		return totalSize
	}

	mask := uint32(totalSize - 1)
	var key uint32
	numNodes := 1
	numOpen := 1

	for l := 1; l <= rootBits; l++ {
		numOpen <<= 1
		numNodes += numOpen
		numOpen -= count[l]
		if numOpen < 0 {
			return 0
		}
		for ; count[l] > 0; count[l]-- {
			key = getNextKey(key, l)
		}
	}

	low := uint32(0xffffffff)
	for l := rootBits + 1; l <= maxAllowedCodeLength; l++ {
		numOpen <<= 1
		numNodes += numOpen
		numOpen -= count[l]
		if numOpen < 0 {
			return 0
		}
		for ; count[l] > 0; count[l]-- {
			if key&mask != low {
				totalSize += 1 << nextTableBitSize(count[:], l, rootBits)
				low = key & mask
			}
			key = getNextKey(key, l)
		}
	}

	if numNodes != 2*offset[maxAllowedCodeLength]-1 {
		return 0
	}
	return totalSize
}

// getNextKey advances a bit-reversed canonical code of the given length.
func getNextKey(key uint32, length int) uint32 {
	step := uint32(1) << (length - 1)
	for key&step != 0 {
		step >>= 1
	}
	if step != 0 {
		return (key & (step - 1)) + step
	}
	return key
}

// replicateValue fills table[0], table[step], ..., table[end-step].
func replicateValue(table []huffmanCode, step, end int, code huffmanCode) {
	for i := end - step; i >= 0; i -= step {
		table[i] = code
	}
}

// nextTableBitSize returns the width of the next second-level sub-table.
func nextTableBitSize(count []int, length, rootBits int) int {
	left := 1 << (length - rootBits)
	for length < maxAllowedCodeLength {
		left -= count[length]
		if left <= 0 {
			break
		}
		length++
		left <<= 1
	}
	return length - rootBits
}

// readSymbol decodes one symbol from prefetched bits. bitsUsed < 0 signals
// a corrupt sub-table reference.
func readSymbol(table []huffmanCode, prefetchBits uint32) (value uint16, bitsUsed int) {
	entry := table[prefetchBits&huffmanTableMask]
	nbits := int(entry.Bits) - huffmanTableBits
	if nbits > 0 {
		bitsUsed = huffmanTableBits
		prefetchBits >>= huffmanTableBits
		idx := int(entry.Value) + int(prefetchBits&((1<<nbits)-1))
		if idx >= len(table) {
			return 0, -1
		}
		entry = table[idx]
		return entry.Value, bitsUsed + int(entry.Bits)
	}
	return entry.Value, int(entry.Bits)
}

// packedNonLiteral flags a packed-table entry that holds a length, cache or
// invalid green code rather than a complete literal pixel.
const packedNonLiteral = 0x100

// buildPackedTable fills group.packedTable so that huffmanPackedBits of
// lookahead decode either a complete ARGB literal or the pending green code.
func buildPackedTable(group *hTreeGroup) {
	for code := uint32(0); code < huffmanPackedTableSize; code++ {
		bits := code
		huff := &group.packedTable[code]

		hcode := group.htrees[huffGreen][bits&huffmanTableMask]
		if int(hcode.Value) >= numLiteralCodes {
			huff.Bits = int(hcode.Bits) + packedNonLiteral
			huff.Value = uint32(hcode.Value)
			continue
		}
		huff.Bits = 0
		huff.Value = 0
		n := accumulateHCode(hcode, 8, huff)
		bits >>= n
		n = accumulateHCode(group.htrees[huffRed][bits&huffmanTableMask], 16, huff)
		bits >>= n
		n = accumulateHCode(group.htrees[huffBlue][bits&huffmanTableMask], 0, huff)
		bits >>= n
		accumulateHCode(group.htrees[huffAlpha][bits&huffmanTableMask], 24, huff)
	}
}

func accumulateHCode(hcode huffmanCode, shift int, huff *huffmanCode32) int {
	huff.Bits += int(hcode.Bits)
	huff.Value |= uint32(hcode.Value) << shift
	return int(hcode.Bits)
}
