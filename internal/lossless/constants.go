package lossless

// VP8L bitstream constants.

const (
	// magicByte opens every VP8L payload.
	magicByte = 0x2f

	// versionBits and version: a 3-bit field that must decode to zero.
	versionBits = 3

	// imageSizeBits is the width of the (dimension - 1) fields.
	imageSizeBits = 14

	// headerSize is the signature byte plus the packed size/alpha/version word.
	headerSize = 5

	numLiteralCodes    = 256
	numLengthCodes     = 24
	numDistanceCodes   = 40
	numCodeLengthCodes = 19

	// maxAllowedCodeLength bounds canonical Huffman code lengths.
	maxAllowedCodeLength = 15
	// defaultCodeLength seeds the previous-length state when expanding
	// repeat codes.
	defaultCodeLength = 8

	// huffmanTableBits sizes the first-level Huffman lookup table.
	huffmanTableBits = 8
	huffmanTableMask = (1 << huffmanTableBits) - 1

	// lengthsTableBits sizes the table used for the code-length code itself.
	lengthsTableBits = 7
	lengthsTableMask = (1 << lengthsTableBits) - 1

	// huffmanPackedBits sizes the packed table that decodes a whole ARGB
	// literal in one probe.
	huffmanPackedBits      = 6
	huffmanPackedTableSize = 1 << huffmanPackedBits

	// huffmanCodesPerMetaCode: green+length, red, blue, alpha, distance.
	huffmanCodesPerMetaCode = 5

	// maxCacheBits bounds the color cache size field.
	maxCacheBits = 11

	// numTransforms: each transform type may appear at most once.
	numTransforms = 4

	minHuffmanBits = 2
	numHuffmanBits = 3

	minTransformBits = 2
	numTransformBits = 3

	argbBlack = 0xff000000
)

// Huffman tree roles within a meta-code group.
const (
	huffGreen = iota
	huffRed
	huffBlue
	huffAlpha
	huffDist
)

// codeLengthCodeOrder is the transmission order of the code-length-code
// lengths.
var codeLengthCodeOrder = [numCodeLengthCodes]int{
	17, 18, 0, 1, 2, 3, 4, 5, 16, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// kLiteralMap marks which of the five trees use the fixed 256-entry
// alphabet (red, blue, alpha).
var kLiteralMap = [huffmanCodesPerMetaCode]uint8{0, 1, 1, 1, 0}

// kAlphabetSize holds the base alphabet size per tree; green additionally
// grows by the color cache size.
var kAlphabetSize = [huffmanCodesPerMetaCode]int{
	numLiteralCodes + numLengthCodes,
	numLiteralCodes,
	numLiteralCodes,
	numLiteralCodes,
	numDistanceCodes,
}

const (
	codeLengthLiterals   = 16
	codeLengthRepeatCode = 16
)

var codeLengthExtraBits = [3]uint8{2, 3, 7}
var codeLengthRepeatOffsets = [3]uint8{3, 3, 11}

// codeToPlaneCodes is the size of the 2D locality mapping for short
// backward-reference distances.
const codeToPlaneCodes = 120

// codeToPlane packs (yoffset << 4) | (8 - xoffset) per distance code.
var codeToPlane = [codeToPlaneCodes]uint8{
	0x18, 0x07, 0x17, 0x19, 0x28, 0x06, 0x27, 0x29, 0x16, 0x1a,
	0x26, 0x2a, 0x38, 0x05, 0x37, 0x39, 0x15, 0x1b, 0x36, 0x3a,
	0x25, 0x2b, 0x48, 0x04, 0x47, 0x49, 0x14, 0x1c, 0x35, 0x3b,
	0x46, 0x4a, 0x24, 0x2c, 0x58, 0x45, 0x4b, 0x34, 0x3c, 0x03,
	0x57, 0x59, 0x13, 0x1d, 0x56, 0x5a, 0x23, 0x2d, 0x44, 0x4c,
	0x55, 0x5b, 0x33, 0x3d, 0x68, 0x02, 0x67, 0x69, 0x12, 0x1e,
	0x66, 0x6a, 0x22, 0x2e, 0x54, 0x5c, 0x43, 0x4d, 0x65, 0x6b,
	0x32, 0x3e, 0x78, 0x01, 0x77, 0x79, 0x53, 0x5d, 0x11, 0x1f,
	0x64, 0x6c, 0x42, 0x4e, 0x76, 0x7a, 0x21, 0x2f, 0x75, 0x7b,
	0x31, 0x3f, 0x63, 0x6d, 0x52, 0x5e, 0x00, 0x74, 0x7c, 0x41,
	0x4f, 0x10, 0x20, 0x62, 0x6e, 0x30, 0x73, 0x7d, 0x51, 0x5f,
	0x40, 0x72, 0x7e, 0x61, 0x6f, 0x50, 0x71, 0x7f, 0x60, 0x70,
}

// planeCodeToDistance converts a distance plane code to a pixel distance
// for an image of the given width.
func planeCodeToDistance(xsize, planeCode int) int {
	if planeCode <= 0 {
		return 1
	}
	if planeCode > codeToPlaneCodes {
		return planeCode - codeToPlaneCodes
	}
	distCode := codeToPlane[planeCode-1]
	yoffset := int(distCode >> 4)
	xoffset := 8 - int(distCode&0xf)
	dist := yoffset*xsize + xoffset
	if dist < 1 {
		return 1
	}
	return dist
}

// subSampleSize returns ceil(size / 2^samplingBits).
func subSampleSize(size, samplingBits int) int {
	return (size + (1 << samplingBits) - 1) >> samplingBits
}
