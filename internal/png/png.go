// Package png decodes PNG images into RGBA8888 buffers.
//
// The package implements the container walk (CRC-validated chunk stream),
// scanline filter reversal, Adam7 de-interlacing and pixel reconstruction
// itself; DEFLATE decompression of the IDAT stream is delegated to the
// zlib collaborator (github.com/klauspost/compress/zlib).
package png

import (
	"errors"
	"fmt"
)

// errorf wraps a sentinel error class with formatted detail.
func errorf(class error, format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{class}, args...)...)
}

// Signature is the 8-byte PNG file signature.
var Signature = [8]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// Error classes. Messages carry the PNG: namespace prefix plus a byte
// offset or chunk name; the sentinels support errors.Is matching.
var (
	ErrBadSignature = errors.New("PNG: invalid signature")
	ErrTruncated    = errors.New("PNG: truncated data")
	ErrBadChunk     = errors.New("PNG: invalid chunk")
	ErrBadCRC       = errors.New("PNG: chunk CRC mismatch")
	ErrBadHeader    = errors.New("PNG: invalid IHDR")
	ErrBadFilter    = errors.New("PNG: invalid scanline filter")
	ErrBadData      = errors.New("PNG: invalid image data")
)

// ColorType enumerates the PNG color types.
type ColorType uint8

const (
	Grayscale      ColorType = 0
	TrueColor      ColorType = 2
	Paletted       ColorType = 3
	GrayscaleAlpha ColorType = 4
	TrueColorAlpha ColorType = 6
)

// String returns the color type's conventional name.
func (c ColorType) String() string {
	switch c {
	case Grayscale:
		return "grayscale"
	case TrueColor:
		return "truecolor"
	case Paletted:
		return "paletted"
	case GrayscaleAlpha:
		return "grayscale+alpha"
	case TrueColorAlpha:
		return "truecolor+alpha"
	default:
		return "invalid"
	}
}

// Header is a validated IHDR.
type Header struct {
	Width     int
	Height    int
	BitDepth  uint8
	ColorType ColorType
	Interlace uint8 // 0 = none, 1 = Adam7
}

// Channels returns the number of samples per pixel.
func (h *Header) Channels() int {
	switch h.ColorType {
	case Grayscale, Paletted:
		return 1
	case GrayscaleAlpha:
		return 2
	case TrueColor:
		return 3
	default: // TrueColorAlpha
		return 4
	}
}

// FilterUnit returns the byte distance between corresponding bytes of
// adjacent pixels, the "bpp" used by the scanline filters. Never less
// than one.
func (h *Header) FilterUnit() int {
	fu := h.Channels() * int(h.BitDepth) / 8
	if fu < 1 {
		fu = 1
	}
	return fu
}

// RowBytes returns the packed byte length of one scanline of the given
// pixel width (without the leading filter byte).
func (h *Header) RowBytes(width int) int {
	return (h.Channels()*int(h.BitDepth)*width + 7) / 8
}

// validDepths maps each color type to its allowed bit depths.
var validDepths = map[ColorType][]uint8{
	Grayscale:      {1, 2, 4, 8, 16},
	TrueColor:      {8, 16},
	Paletted:       {1, 2, 4, 8},
	GrayscaleAlpha: {8, 16},
	TrueColorAlpha: {8, 16},
}

// checkHeader validates dimensions and the bit-depth/color-type pairing.
func (h *Header) check() error {
	if h.Width < 1 || h.Height < 1 {
		return errorf(ErrBadHeader, "dimensions %dx%d out of range", h.Width, h.Height)
	}
	depths, ok := validDepths[h.ColorType]
	if !ok {
		return errorf(ErrBadHeader, "unknown color type %d", h.ColorType)
	}
	for _, d := range depths {
		if d == h.BitDepth {
			if h.Interlace > 1 {
				return errorf(ErrBadHeader, "unknown interlace method %d", h.Interlace)
			}
			return nil
		}
	}
	return errorf(ErrBadHeader, "bit depth %d invalid for color type %s",
		h.BitDepth, h.ColorType)
}
