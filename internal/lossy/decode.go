// Package lossy decodes VP8 key-frame bitstreams and ALPH alpha planes.
package lossy

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/deepteams/raster/internal/bitio"
	"github.com/deepteams/raster/internal/dsp"
)

var (
	// ErrHeader reports a truncated or malformed frame header.
	ErrHeader = errors.New("VP8: malformed frame header")
	// ErrSignature reports a missing 0x9d 0x01 0x2a start code.
	ErrSignature = errors.New("VP8: bad start code")
	// ErrKeyFrame reports a frame that is not an intra key frame.
	ErrKeyFrame = errors.New("VP8: not a key frame")
	// ErrPartition reports token partition sizes exceeding the input.
	ErrPartition = errors.New("VP8: token partition out of bounds")
	// ErrTruncated reports a bool decoder reading past its partition end.
	ErrTruncated = errors.New("VP8: premature end of partition")
	// ErrTooLarge reports frame dimensions beyond the decoder's limits.
	ErrTooLarge = errors.New("VP8: picture too large")
)

// decoderPool caches decoder structs so the large backing slab (intra mode
// row + reconstruction scratch + full-frame YUV planes) is reused across
// calls.
var decoderPool sync.Pool

func acquireDecoder() *decoder {
	if v := decoderPool.Get(); v != nil {
		dec := v.(*decoder)
		dec.frmHdr = frameHeader{}
		dec.picHdr = pictureHeader{}
		dec.filtHdr = filterHeader{}
		dec.segHdr = segmentHeader{}
		dec.mbW, dec.mbH = 0, 0
		dec.mbX, dec.mbY = 0, 0
		dec.br = nil
		for i := range dec.parts {
			dec.parts[i] = nil
		}
		dec.numPartsMinusOne = 0
		dec.useSkipProba = false
		dec.skipProba = 0
		dec.filterType = 0
		return dec
	}
	return &decoder{}
}

func releaseDecoder(dec *decoder) {
	if dec == nil {
		return
	}
	dec.br = nil
	for i := range dec.parts {
		dec.parts[i] = nil
	}
	decoderPool.Put(dec)
}

// decoder is the VP8 key-frame decoder state.
type decoder struct {
	frmHdr  frameHeader
	picHdr  pictureHeader
	filtHdr filterHeader
	segHdr  segmentHeader

	// Dimensions in macroblock units, and the current position.
	mbW, mbH int
	mbX, mbY int

	// Partition 0 (headers and modes) plus the token partitions.
	br               *bitio.BoolReader
	parts            [maxNumPartitions]*bitio.BoolReader
	numPartsMinusOne uint32

	proba        frameProbas
	useSkipProba bool
	skipProba    uint8

	dqm [numMBSegments]quantMatrix

	filterType int // 0 = off, 1 = simple, 2 = normal
	fstrengths [numMBSegments][2]filterInfo

	// Per-row context, rebuilt for every frame.
	intraT []uint8      // top 4x4 modes, 4 per macroblock
	intraL [4]uint8     // left 4x4 modes
	yuvT   []topSamples // top samples, one per macroblock column
	ctx    []mbContext  // token contexts; index 0 is the left sentinel
	fInfo  []filterInfo
	yuvB   []byte // BPS-strided reconstruction scratch (yuvSize bytes)
	blocks []blockData

	// Full-frame output planes.
	cacheY, cacheU, cacheV []byte
	cacheYStride           int
	cacheUVStride          int

	// slab backs intraT, yuvB and the three planes so the whole working
	// set is one allocation, reused across pool round-trips.
	slab []byte
}

// Frame is a decoded VP8 key frame. The YUV planes stay valid until
// Release returns the backing buffers to the decoder pool.
type Frame struct {
	Width, Height int

	Y        []byte
	YStride  int
	U, V     []byte
	UVStride int

	dec *decoder
}

// Release recycles the frame's backing buffers. The planes must not be
// used afterwards.
func (f *Frame) Release() {
	if f == nil || f.dec == nil {
		return
	}
	releaseDecoder(f.dec)
	f.dec = nil
	f.Y, f.U, f.V = nil, nil, nil
}

// DecodeHeader parses just enough of a VP8 payload to report the frame
// dimensions.
func DecodeHeader(data []byte) (width, height int, err error) {
	var hdr frameHeader
	var pic pictureHeader
	if err := parseFrameTag(data, &hdr, &pic); err != nil {
		return 0, 0, err
	}
	return pic.width, pic.height, nil
}

// DecodeFrame decodes a complete VP8 key frame. The returned Frame holds
// pooled buffers; call Release when the planes have been consumed.
func DecodeFrame(data []byte) (*Frame, error) {
	dec := acquireDecoder()

	if err := dec.parseHeaders(data); err != nil {
		releaseDecoder(dec)
		return nil, err
	}
	if err := dec.initFrame(); err != nil {
		releaseDecoder(dec)
		return nil, err
	}
	dec.precomputeFilterStrengths()
	if err := dec.parseFrame(); err != nil {
		releaseDecoder(dec)
		return nil, err
	}

	height := dec.picHdr.height
	return &Frame{
		Width:    dec.picHdr.width,
		Height:   height,
		Y:        dec.cacheY[:height*dec.cacheYStride],
		YStride:  dec.cacheYStride,
		U:        dec.cacheU[:((height+1)/2)*dec.cacheUVStride],
		V:        dec.cacheV[:((height+1)/2)*dec.cacheUVStride],
		UVStride: dec.cacheUVStride,
		dec:      dec,
	}, nil
}

// parseFrameTag reads the 3-byte frame tag and the 7-byte key-frame
// picture header.
func parseFrameTag(data []byte, hdr *frameHeader, pic *pictureHeader) error {
	if len(data) < 10 {
		return fmt.Errorf("%w: %d bytes", ErrHeader, len(data))
	}

	bits := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16
	hdr.keyFrame = bits&1 == 0
	hdr.profile = uint8(bits >> 1 & 7)
	hdr.show = bits>>4&1 != 0
	hdr.partitionLength = bits >> 5

	if hdr.profile > 3 {
		return fmt.Errorf("%w: profile %d", ErrHeader, hdr.profile)
	}
	if !hdr.keyFrame {
		return ErrKeyFrame
	}
	if !hdr.show {
		return fmt.Errorf("%w: frame not displayable", ErrHeader)
	}

	buf := data[3:]
	if buf[0] != 0x9d || buf[1] != 0x01 || buf[2] != 0x2a {
		return ErrSignature
	}
	pic.width = int(binary.LittleEndian.Uint16(buf[3:5])) & 0x3fff
	pic.xScale = buf[4] >> 6
	pic.height = int(binary.LittleEndian.Uint16(buf[5:7])) & 0x3fff
	pic.yScale = buf[6] >> 6

	if pic.width == 0 || pic.height == 0 {
		return fmt.Errorf("%w: zero dimensions", ErrHeader)
	}
	return nil
}

// parseHeaders reads the frame tag, picture header, segment and filter
// parameters, token partitions, quantizers and probability updates.
func (dec *decoder) parseHeaders(data []byte) error {
	if err := parseFrameTag(data, &dec.frmHdr, &dec.picHdr); err != nil {
		return err
	}
	buf := data[10:]

	dec.mbW = (dec.picHdr.width + 15) >> 4
	dec.mbH = (dec.picHdr.height + 15) >> 4

	for i := range dec.proba.segments {
		dec.proba.segments[i] = 255
	}
	dec.segHdr.absoluteDelta = true

	partLen := int(dec.frmHdr.partitionLength)
	if partLen > len(buf) {
		return fmt.Errorf("%w: header partition %d bytes, %d available", ErrPartition, partLen, len(buf))
	}
	dec.br = bitio.NewBoolReader(buf[:partLen])
	tokenBuf := buf[partLen:]

	dec.picHdr.colorspace = uint8(dec.br.GetBit(0x80))
	dec.picHdr.clampType = uint8(dec.br.GetBit(0x80))

	if err := dec.parseSegmentHeader(); err != nil {
		return err
	}
	dec.parseFilterHeader()
	if err := dec.parsePartitions(tokenBuf); err != nil {
		return err
	}
	dec.parseQuant()

	// refresh_entropy_probs: always set on key frames, nothing to store.
	dec.br.GetBit(0x80)

	dec.parseProba()

	if dec.br.Overrun() {
		return fmt.Errorf("%w: headers", ErrTruncated)
	}
	return nil
}

func (dec *decoder) parseSegmentHeader() error {
	br := dec.br
	hdr := &dec.segHdr

	hdr.useSegment = br.GetBit(0x80) != 0
	if hdr.useSegment {
		hdr.updateMap = br.GetBit(0x80) != 0
		if br.GetBit(0x80) != 0 { // update segment feature data
			hdr.absoluteDelta = br.GetBit(0x80) != 0
			for s := 0; s < numMBSegments; s++ {
				hdr.quantizer[s] = 0
				if br.GetBit(0x80) != 0 {
					hdr.quantizer[s] = int8(br.GetSignedValue(7))
				}
			}
			for s := 0; s < numMBSegments; s++ {
				hdr.filterLevel[s] = 0
				if br.GetBit(0x80) != 0 {
					hdr.filterLevel[s] = int8(br.GetSignedValue(6))
				}
			}
		}
		if hdr.updateMap {
			for s := 0; s < mbFeatureTreeProbs; s++ {
				dec.proba.segments[s] = 255
				if br.GetBit(0x80) != 0 {
					dec.proba.segments[s] = uint8(br.GetValue(8))
				}
			}
		}
	} else {
		hdr.updateMap = false
	}

	if br.Overrun() {
		return fmt.Errorf("%w: segment header", ErrTruncated)
	}
	return nil
}

func (dec *decoder) parseFilterHeader() {
	br := dec.br
	hdr := &dec.filtHdr

	hdr.simple = br.GetBit(0x80) != 0
	hdr.level = int(br.GetValue(6))
	hdr.sharpness = int(br.GetValue(3))
	hdr.useLFDelta = br.GetBit(0x80) != 0
	if hdr.useLFDelta && br.GetBit(0x80) != 0 { // update lf deltas
		for i := 0; i < numRefLFDeltas; i++ {
			if br.GetBit(0x80) != 0 {
				hdr.refLFDelta[i] = int(br.GetSignedValue(6))
			}
		}
		for i := 0; i < numModeLFDeltas; i++ {
			if br.GetBit(0x80) != 0 {
				hdr.modeLFDelta[i] = int(br.GetSignedValue(6))
			}
		}
	}

	switch {
	case hdr.level == 0:
		dec.filterType = 0
	case hdr.simple:
		dec.filterType = 1
	default:
		dec.filterType = 2
	}
}

// parsePartitions slices the token data into up to eight bool readers.
// Partition sizes are 3-byte little-endian fields; the last partition
// takes whatever remains, and may legitimately be empty.
func (dec *decoder) parsePartitions(buf []byte) error {
	dec.numPartsMinusOne = 1<<dec.br.GetValue(2) - 1
	lastPart := int(dec.numPartsMinusOne)

	if len(buf) < 3*lastPart {
		return fmt.Errorf("%w: missing size fields", ErrPartition)
	}

	partStart := buf[lastPart*3:]
	sizeLeft := len(partStart)
	sz := buf

	for p := 0; p < lastPart; p++ {
		psize := int(sz[0]) | int(sz[1])<<8 | int(sz[2])<<16
		if psize > sizeLeft {
			return fmt.Errorf("%w: partition %d wants %d bytes, %d left", ErrPartition, p, psize, sizeLeft)
		}
		dec.parts[p] = bitio.NewBoolReader(partStart[:psize])
		partStart = partStart[psize:]
		sizeLeft -= psize
		sz = sz[3:]
	}
	dec.parts[lastPart] = bitio.NewBoolReader(partStart[:sizeLeft])
	return nil
}

// initFrame sizes the working memory for the parsed dimensions, reusing
// the previous slab when it is large enough.
func (dec *decoder) initFrame() error {
	mbW := dec.mbW

	if cap(dec.yuvT) >= mbW {
		dec.yuvT = dec.yuvT[:mbW]
		clear(dec.yuvT)
	} else {
		dec.yuvT = make([]topSamples, mbW)
	}
	if cap(dec.ctx) >= mbW+1 {
		dec.ctx = dec.ctx[:mbW+1]
		clear(dec.ctx)
	} else {
		dec.ctx = make([]mbContext, mbW+1)
	}
	if cap(dec.fInfo) >= mbW {
		dec.fInfo = dec.fInfo[:mbW]
		clear(dec.fInfo)
	} else {
		dec.fInfo = make([]filterInfo, mbW)
	}
	if cap(dec.blocks) >= mbW {
		dec.blocks = dec.blocks[:mbW]
		clear(dec.blocks)
	} else {
		dec.blocks = make([]blockData, mbW)
	}

	dec.cacheYStride = 16 * mbW
	dec.cacheUVStride = 8 * mbW

	if uint64(dec.mbH)*16*uint64(dec.cacheYStride) > 1<<28 {
		return ErrTooLarge
	}

	intraTSize := 4 * mbW
	cacheYSize := dec.mbH * 16 * dec.cacheYStride
	cacheUVSize := dec.mbH * 8 * dec.cacheUVStride
	slabSize := intraTSize + yuvSize + cacheYSize + 2*cacheUVSize

	if cap(dec.slab) >= slabSize {
		dec.slab = dec.slab[:slabSize]
		clear(dec.slab)
	} else {
		dec.slab = make([]byte, slabSize)
	}
	slab := dec.slab

	off := 0
	dec.intraT = slab[off : off+intraTSize]
	for i := range dec.intraT {
		dec.intraT[i] = bDCPred
	}
	off += intraTSize

	dec.yuvB = slab[off : off+yuvSize]
	off += yuvSize

	dec.cacheY = slab[off : off+cacheYSize]
	off += cacheYSize
	dec.cacheU = slab[off : off+cacheUVSize]
	off += cacheUVSize
	dec.cacheV = slab[off : off+cacheUVSize]

	return nil
}

// parseFrame runs the main loop: for every macroblock row, parse the intra
// modes from partition 0, the coefficients from the row's token partition,
// then reconstruct and deblock.
func (dec *decoder) parseFrame() error {
	for dec.mbY = 0; dec.mbY < dec.mbH; dec.mbY++ {
		tokenBR := dec.parts[dec.mbY&int(dec.numPartsMinusOne)]

		if err := dec.parseIntraModeRow(); err != nil {
			return err
		}
		for dec.mbX = 0; dec.mbX < dec.mbW; dec.mbX++ {
			if err := dec.decodeMacroblock(tokenBR); err != nil {
				return err
			}
		}

		dec.initScanline()
		dec.reconstructRow()
		if dec.filterType > 0 {
			dec.filterRow()
		}
	}
	return nil
}

// initScanline resets the left-edge context before reconstructing a row.
func (dec *decoder) initScanline() {
	left := &dec.ctx[0]
	left.nz = 0
	left.nzDC = 0
	for i := range dec.intraL {
		dec.intraL[i] = bDCPred
	}
	dec.mbX = 0
}

// kScan maps 4x4 sub-block indexes to byte offsets in the BPS-strided
// luma scratch area.
var kScan = [16]int{
	0 + 0*dsp.BPS, 4 + 0*dsp.BPS, 8 + 0*dsp.BPS, 12 + 0*dsp.BPS,
	0 + 4*dsp.BPS, 4 + 4*dsp.BPS, 8 + 4*dsp.BPS, 12 + 4*dsp.BPS,
	0 + 8*dsp.BPS, 4 + 8*dsp.BPS, 8 + 8*dsp.BPS, 12 + 8*dsp.BPS,
	0 + 12*dsp.BPS, 4 + 12*dsp.BPS, 8 + 12*dsp.BPS, 12 + 12*dsp.BPS,
}
