package lossy

import "github.com/deepteams/raster/internal/dsp"

const (
	numMBSegments      = 4
	mbFeatureTreeProbs = 3

	numRefLFDeltas  = 4
	numModeLFDeltas = 4

	maxNumPartitions = 8

	// Coefficient probability dimensions: plane type, band, context and
	// per-node probability.
	numTypes  = 4
	numBands  = 8
	numCtx    = 3
	numProbas = 11
)

// 16x16 luma and 8x8 chroma prediction modes. The values beyond hePred are
// the DC variants used when the top and/or left neighbors are missing; all
// of them index dsp.PredLuma16 / dsp.PredChroma8 directly.
const (
	dcPred = iota
	tmPred
	vePred
	hePred
	dcPredNoTop
	dcPredNoLeft
	dcPredNoTopLeft
)

// 4x4 luma sub-block prediction modes, indexing dsp.PredLuma4.
const (
	bDCPred = iota
	bTMPred
	bVEPred
	bHEPred
	bRDPred
	bVRPred
	bLDPred
	bVLPred
	bHDPred
	bHUPred

	numBModes = bHUPred + 1
)

// Reconstruction buffer layout. One macroblock plus its top and left
// context lives in a BPS-strided scratch area: one luma context row, then
// 16 luma rows, then one chroma context row and 8 chroma rows with the U
// and V blocks side by side.
const (
	yuvSize = dsp.BPS*17 + dsp.BPS*9
	yOff    = dsp.BPS + 8
	uOff    = yOff + dsp.BPS*16 + dsp.BPS
	vOff    = uOff + 16
)

type frameHeader struct {
	keyFrame        bool
	profile         uint8
	show            bool
	partitionLength uint32
}

type pictureHeader struct {
	width, height  int
	xScale, yScale uint8
	colorspace     uint8
	clampType      uint8
}

type segmentHeader struct {
	useSegment    bool
	updateMap     bool
	absoluteDelta bool
	quantizer     [numMBSegments]int8
	filterLevel   [numMBSegments]int8
}

type filterHeader struct {
	simple      bool
	level       int
	sharpness   int
	useLFDelta  bool
	refLFDelta  [numRefLFDeltas]int
	modeLFDelta [numModeLFDeltas]int
}

// filterInfo holds the precomputed deblocking strength for one macroblock.
type filterInfo struct {
	limit      uint8 // edge filter limit (2*level + innerLevel)
	innerLevel uint8
	inner      bool // filter the inner 4x4 edges too
	hevThresh  uint8
}

// mbContext is the running top/left non-zero context for token parsing.
type mbContext struct {
	nz   uint8 // packed per-block non-zero flags (4 luma + 2x2 chroma bits)
	nzDC uint8
}

// blockData is everything parsed for one macroblock, consumed when the row
// is reconstructed.
type blockData struct {
	coeffs    [384]int16 // (16 luma + 4 U + 4 V) 4x4 blocks
	isI4x4    bool
	modes     [16]uint8 // one 16x16 mode or sixteen 4x4 modes
	uvMode    uint8
	nonZeroY  uint32
	nonZeroUV uint32
	skip      bool
	segment   uint8
}

// topSamples saves the bottom row of a reconstructed macroblock for use as
// the top context of the row below.
type topSamples struct {
	y [16]uint8
	u [8]uint8
	v [8]uint8
}

type bandProbas struct {
	probas [numCtx][numProbas]uint8
}

// frameProbas holds the per-frame probability state: the segment tree
// probabilities and the coefficient probabilities, plus the band pointer
// table acProba indexed by coefficient position.
type frameProbas struct {
	segments [mbFeatureTreeProbs]uint8
	bands    [numTypes][numBands]bandProbas
	acProba  [numTypes][16 + 1]*bandProbas
}

// quantMatrix holds the dequantization factor pairs [DC, AC] for one
// segment.
type quantMatrix struct {
	y1 [2]int
	y2 [2]int
	uv [2]int
}
