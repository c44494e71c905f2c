package container

import (
	"encoding/binary"
	"errors"
)

// VP8X feature flags (first byte of the VP8X chunk payload).
const (
	AnimationFlag uint32 = 0x00000002
	XMPFlag       uint32 = 0x00000004
	EXIFFlag      uint32 = 0x00000008
	AlphaFlag     uint32 = 0x00000010
	ICCPFlag      uint32 = 0x00000020
	AllValidFlags uint32 = 0x0000003e
)

// Error classes. Messages carry the RIFF:/VP8X: namespace prefix plus a
// byte offset or chunk name; these sentinels let callers match the class
// with errors.Is.
var (
	ErrInvalidRIFF  = errors.New("RIFF: invalid RIFF header")
	ErrInvalidWebP  = errors.New("RIFF: invalid WEBP signature")
	ErrTruncated    = errors.New("RIFF: truncated data")
	ErrInvalidChunk = errors.New("RIFF: invalid chunk")
	ErrTooLarge     = errors.New("RIFF: file too large")
	ErrInvalidVP8X  = errors.New("VP8X: invalid VP8X chunk")
	ErrInvalidImage = errors.New("RIFF: invalid image dimensions")
	ErrUnsupported  = errors.New("RIFF: unsupported format")

	// ErrAnimation is returned when decoding an animated file. The
	// container layer parses ANIM/ANMF structurally, but frame playback
	// is not implemented.
	ErrAnimation = errors.New("VP8X: animated WebP is not supported")
)

// Features describes the high-level properties of a WebP file, extracted
// from its RIFF header and (optional) VP8X extended header.
type Features struct {
	Width        int
	Height       int
	HasAlpha     bool
	HasAnim      bool
	HasICCP      bool
	HasEXIF      bool
	HasXMP       bool
	Format       FormatType // VP8, VP8L, or VP8X (extended)
	LoopCount    int        // animation loop count (0 = infinite)
	BGColor      uint32     // animation background color (ARGB)
	CanvasWidth  int        // VP8X canvas width
	CanvasHeight int        // VP8X canvas height
}

// FormatType identifies the bitstream format of the primary image.
type FormatType int

const (
	FormatUndefined FormatType = iota
	FormatVP8                  // lossy
	FormatVP8L                 // lossless
	FormatVP8X                 // extended
)

// String returns a human-readable format name.
func (f FormatType) String() string {
	switch f {
	case FormatVP8:
		return "VP8"
	case FormatVP8L:
		return "VP8L"
	case FormatVP8X:
		return "VP8X"
	default:
		return "undefined"
	}
}

// Chunk is a single RIFF chunk: FourCC tag, payload (a view into the
// input buffer, not a copy) and the absolute byte offset of its header.
type Chunk struct {
	FourCC  uint32
	Payload []byte
	Offset  int
}

// RIFFHeader holds the parsed RIFF container header.
type RIFFHeader struct {
	FileSize uint32 // declared RIFF payload size (excludes the 8-byte header)
}

// ParseRIFFHeader validates and parses the 12-byte RIFF/WEBP header.
// Returns the header and the number of bytes consumed.
func ParseRIFFHeader(data []byte) (RIFFHeader, int, error) {
	if len(data) < RIFFHeaderSize {
		return RIFFHeader{}, 0, ErrTruncated
	}

	if binary.LittleEndian.Uint32(data[0:4]) != FourCCRIFF {
		return RIFFHeader{}, 0, ErrInvalidRIFF
	}

	fileSize := binary.LittleEndian.Uint32(data[4:8])
	if fileSize < ChunkHeaderSize {
		return RIFFHeader{}, 0, ErrInvalidRIFF
	}
	if fileSize > MaxChunkPayload {
		return RIFFHeader{}, 0, ErrTooLarge
	}

	if binary.LittleEndian.Uint32(data[8:12]) != FourCCWEBP {
		return RIFFHeader{}, 0, ErrInvalidWebP
	}

	return RIFFHeader{FileSize: fileSize}, RIFFHeaderSize, nil
}

// ReadChunkHeader reads a chunk's FourCC tag and payload size.
func ReadChunkHeader(data []byte) (fourcc uint32, payloadSize uint32, err error) {
	if len(data) < ChunkHeaderSize {
		return 0, 0, ErrTruncated
	}
	fourcc = binary.LittleEndian.Uint32(data[0:4])
	payloadSize = binary.LittleEndian.Uint32(data[4:8])
	if payloadSize > MaxChunkPayload {
		return 0, 0, ErrTooLarge
	}
	return fourcc, payloadSize, nil
}

// PaddedSize returns the payload size padded to an even number of bytes,
// as required by the RIFF format.
func PaddedSize(size uint32) uint32 {
	return size + (size & 1)
}

// FourCCString returns a human-readable string for a FourCC value.
func FourCCString(fourcc uint32) string {
	b := [4]byte{
		byte(fourcc),
		byte(fourcc >> 8),
		byte(fourcc >> 16),
		byte(fourcc >> 24),
	}
	return string(b[:])
}
