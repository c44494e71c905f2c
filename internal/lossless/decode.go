// Package lossless decodes the VP8L bitstream: canonical-Huffman entropy
// coding with LZ77 backward references and a color cache, followed by up to
// four inverse image transforms. Output pixels are straight-alpha RGBA.
package lossless

import (
	"errors"
	"sync"

	"github.com/deepteams/raster/internal/bitio"
	"github.com/deepteams/raster/internal/dsp"
)

var (
	// ErrSignature: the payload does not start with the 0x2f magic byte.
	ErrSignature = errors.New("VP8L: bad signature byte")
	// ErrVersion: the 3-bit version field is not zero.
	ErrVersion = errors.New("VP8L: unsupported bitstream version")
	// ErrBitstream covers truncation and structurally corrupt data.
	ErrBitstream = errors.New("VP8L: truncated or corrupt bitstream")
	// ErrHuffman: a code-length set is over- or under-subscribed.
	ErrHuffman = errors.New("VP8L: invalid Huffman code lengths")
)

// Image is a decoded VP8L frame. Pix holds width*height*4 straight-alpha
// RGBA bytes in row-major order.
type Image struct {
	Pix      []byte
	Width    int
	Height   int
	HasAlpha bool
}

// decoderPool recycles Decoder state so the pixel buffer and Huffman slab
// survive across calls.
var decoderPool sync.Pool

func acquireDecoder() *decoder {
	if v := decoderPool.Get(); v != nil {
		dec := v.(*decoder)
		dec.br = nil
		dec.width = 0
		dec.height = 0
		dec.hasAlpha = false
		dec.transformWidth = 0
		dec.nextTransform = 0
		dec.transformsSeen = 0
		dec.hdr = metadata{}
		return dec
	}
	return &decoder{}
}

func releaseDecoder(dec *decoder) {
	if dec == nil {
		return
	}
	dec.br = nil
	dec.hdr.htreeGroups = nil
	dec.hdr.huffmanImage = nil
	dec.hdr.cache = nil
	decoderPool.Put(dec)
}

type decoder struct {
	br *bitio.LosslessReader

	width    int
	height   int
	hasAlpha bool

	// transformWidth is the working width after pixel-packing transforms
	// have narrowed the coded image.
	transformWidth int

	pixels       []uint32
	transformBuf []uint32

	hdr metadata

	transforms     [numTransforms]transform
	nextTransform  int
	transformsSeen uint32

	codeLengthsBuf []int
	scratch        huffmanScratch
	cacheBuf       []uint32
	groupsBuf      []hTreeGroup
}

// metadata is the entropy-coding state of the current (sub-)image level.
type metadata struct {
	cacheSize            int
	cache                *colorCache
	huffmanImage         []uint32
	huffmanSubsampleBits int
	huffmanXSize         int
	huffmanMask          int
	htreeGroups          []hTreeGroup
}

// DecodeHeader parses only the 5-byte VP8L header and reports the frame
// dimensions and alpha hint.
func DecodeHeader(data []byte) (width, height int, hasAlpha bool, err error) {
	dec := &decoder{}
	if err := dec.decodeHeader(data); err != nil {
		return 0, 0, false, err
	}
	return dec.width, dec.height, dec.hasAlpha, nil
}

// Decode decodes a complete VP8L payload (the chunk body, signature byte
// included).
func Decode(data []byte) (*Image, error) {
	dec := acquireDecoder()
	defer releaseDecoder(dec)

	if err := dec.decodeHeader(data); err != nil {
		return nil, err
	}
	out, err := dec.decodeFrame()
	if err != nil {
		return nil, err
	}

	img := &Image{
		Pix:      make([]byte, dec.width*dec.height*4),
		Width:    dec.width,
		Height:   dec.height,
		HasAlpha: dec.hasAlpha,
	}
	dsp.ConvertARGBToRGBA(out, dec.width*dec.height, img.Pix)
	return img, nil
}

// DecodeAlpha decodes a headerless VP8L stream carrying an alpha plane of
// known dimensions. Samples travel in the green channel.
func DecodeAlpha(data []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrBitstream
	}
	dec := acquireDecoder()
	defer releaseDecoder(dec)

	dec.width = width
	dec.height = height
	dec.br = bitio.NewLosslessReader(data)
	dec.initScratch()

	alpha := make([]byte, width*height)

	if err := dec.decodeImageStream(width, height, true); err != nil {
		return nil, err
	}
	tw := dec.transformWidth
	if tw == 0 {
		tw = width
	}
	numPix := width * height
	numPixTrans := tw * height
	dec.reservePixels(numPix, numPixTrans)

	if err := dec.decodeImageData(dec.pixels[:numPixTrans], tw, height, height); err != nil {
		return nil, err
	}

	// A palette at 8 bits per pixel keeps the coded width intact, so the
	// samples can stay 8-bit through the lookup.
	if dec.nextTransform == 1 &&
		dec.transforms[0].Type == colorIndexingTransform &&
		dec.transforms[0].Bits == 0 {
		t := &dec.transforms[0]
		packed := make([]byte, numPixTrans)
		dsp.ExtractGreen(dec.pixels[:numPixTrans], packed, numPixTrans)
		dsp.MapColor8b(packed, t.Data, alpha, 0, height, width)
		return alpha, nil
	}

	out := dec.applyInverseTransforms(dec.pixels[:numPix])
	dsp.ExtractGreen(out, alpha, numPix)
	return alpha, nil
}

// initScratch prepares the shared Huffman table slab. One slab covers the
// tables of typical images; the builder falls back to direct allocation
// when it runs out.
func (dec *decoder) initScratch() {
	const slabSize = 1 << 16
	if cap(dec.scratch.slab) < slabSize {
		dec.scratch.slab = make([]huffmanCode, slabSize)
	}
	dec.scratch.slabOff = 0
}

// decodeFrame runs the post-header pipeline and returns ARGB pixels.
func (dec *decoder) decodeFrame() ([]uint32, error) {
	dec.initScratch()

	if err := dec.decodeImageStream(dec.width, dec.height, true); err != nil {
		return nil, err
	}

	tw := dec.transformWidth
	if tw == 0 {
		tw = dec.width
	}
	numPix := dec.width * dec.height
	numPixTrans := tw * dec.height
	dec.reservePixels(numPix, numPixTrans)

	if err := dec.decodeImageData(dec.pixels[:numPixTrans], tw, dec.height, dec.height); err != nil {
		return nil, err
	}
	return dec.applyInverseTransforms(dec.pixels[:numPix]), nil
}

// reservePixels sizes the pixel and transform buffers for the larger of
// the packed and unpacked pixel counts.
func (dec *decoder) reservePixels(numPix, numPixTrans int) {
	n := numPix
	if numPixTrans > n {
		n = numPixTrans
	}
	if cap(dec.pixels) >= n {
		dec.pixels = dec.pixels[:n]
	} else {
		dec.pixels = make([]uint32, n)
	}
	if cap(dec.transformBuf) >= n {
		dec.transformBuf = dec.transformBuf[:n]
	} else {
		dec.transformBuf = make([]uint32, n)
	}
}

// decodeHeader reads the signature byte and the packed size/alpha/version
// word.
func (dec *decoder) decodeHeader(data []byte) error {
	if len(data) < headerSize {
		return ErrSignature
	}
	if data[0] != magicByte {
		return ErrSignature
	}

	dec.br = bitio.NewLosslessReader(data[1:])
	dec.width = int(dec.br.ReadBits(imageSizeBits)) + 1
	dec.height = int(dec.br.ReadBits(imageSizeBits)) + 1
	dec.hasAlpha = dec.br.ReadBits(1) != 0
	if dec.br.ReadBits(versionBits) != 0 {
		return ErrVersion
	}
	if dec.br.IsEndOfStream() {
		return ErrBitstream
	}
	return nil
}

// decodeImageStream reads the per-level entropy header: transforms (top
// level only), the color cache size and the Huffman tree groups.
func (dec *decoder) decodeImageStream(xsize, ysize int, isLevel0 bool) error {
	transformXSize := xsize

	if isLevel0 {
		for dec.br.ReadBits(1) == 1 {
			var err error
			transformXSize, err = dec.readTransform(transformXSize, ysize)
			if err != nil {
				return err
			}
		}
	}

	colorCacheBits := 0
	if dec.br.ReadBits(1) == 1 {
		colorCacheBits = int(dec.br.ReadBits(4))
		if colorCacheBits < 1 || colorCacheBits > maxCacheBits {
			return ErrBitstream
		}
	}

	if err := dec.readHuffmanCodes(transformXSize, ysize, colorCacheBits, isLevel0); err != nil {
		return err
	}

	if colorCacheBits > 0 {
		size := 1 << colorCacheBits
		dec.hdr.cacheSize = size
		if cap(dec.cacheBuf) >= size {
			dec.cacheBuf = dec.cacheBuf[:size]
			for i := range dec.cacheBuf {
				dec.cacheBuf[i] = 0
			}
		} else {
			dec.cacheBuf = make([]uint32, size)
		}
		dec.hdr.cache = &colorCache{
			colors:    dec.cacheBuf,
			hashShift: uint(32 - colorCacheBits),
		}
	} else {
		dec.hdr.cacheSize = 0
		dec.hdr.cache = nil
	}

	dec.updateDecoder(transformXSize)
	return nil
}

// decodeSubImage decodes a nested image stream (transform data or the
// meta-Huffman image) and returns its pixels.
func (dec *decoder) decodeSubImage(xsize, ysize int) ([]uint32, error) {
	savedHdr := dec.hdr
	dec.hdr = metadata{}

	restore := func() { dec.hdr = savedHdr }

	if err := dec.decodeImageStream(xsize, ysize, false); err != nil {
		restore()
		return nil, err
	}

	data := make([]uint32, xsize*ysize)
	if err := dec.decodeImageData(data, xsize, ysize, ysize); err != nil {
		restore()
		return nil, err
	}

	restore()
	return data, nil
}

// updateDecoder records the working width and the Huffman tile geometry.
func (dec *decoder) updateDecoder(width int) {
	dec.transformWidth = width
	numBits := dec.hdr.huffmanSubsampleBits
	dec.hdr.huffmanXSize = subSampleSize(width, numBits)
	if numBits == 0 {
		dec.hdr.huffmanMask = ^0
	} else {
		dec.hdr.huffmanMask = (1 << numBits) - 1
	}
}
