// Package container parses the WebP RIFF container: chunk walking, the
// VP8X extended-feature layer, metadata chunk collection, and the light
// header probes for the VP8/VP8L payloads.
package container

import "encoding/binary"

// FourCC creates a FourCC value from four bytes (little-endian).
func FourCC(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

// Container FourCC values.
var (
	FourCCRIFF = FourCC('R', 'I', 'F', 'F')
	FourCCWEBP = FourCC('W', 'E', 'B', 'P')
	FourCCVP8  = FourCC('V', 'P', '8', ' ')
	FourCCVP8L = FourCC('V', 'P', '8', 'L')
	FourCCVP8X = FourCC('V', 'P', '8', 'X')
	FourCCALPH = FourCC('A', 'L', 'P', 'H')
	FourCCANIM = FourCC('A', 'N', 'I', 'M')
	FourCCANMF = FourCC('A', 'N', 'M', 'F')
	FourCCICCP = FourCC('I', 'C', 'C', 'P')
	FourCCEXIF = FourCC('E', 'X', 'I', 'F')
	FourCCXMP  = FourCC('X', 'M', 'P', ' ')
)

// VP8 bitstream constants.
const (
	VP8Signature       = 0x9d012a // start code within VP8 data
	VP8MaxPartition0   = 1 << 19  // max size of the mode partition
	VP8FrameHeaderSize = 10       // bytes needed to probe a VP8 frame header
)

// VP8L bitstream constants.
const (
	VP8LMagicByte       = 0x2f // VP8L signature byte
	VP8LImageSizeBits   = 14   // bits used to store width and height
	VP8LVersion         = 0    // only supported version
	VP8LFrameHeaderSize = 5    // bytes needed to probe a VP8L header
)

// Container structure sizes.
const (
	TagSize         = 4  // chunk tag, e.g. "VP8L"
	ChunkHeaderSize = 8  // tag + 32-bit size
	RIFFHeaderSize  = 12 // "RIFFnnnnWEBP"
	ANMFChunkSize   = 16
	ANIMChunkSize   = 6
	VP8XChunkSize   = 10
)

// Limits.
const (
	MaxCanvasSize   = 1 << 24         // 24-bit max for VP8X width/height
	MaxImageArea    = uint64(1) << 32 // max width x height in pixels
	MaxChunkPayload = ^uint32(0) - ChunkHeaderSize - 1
)

// ReadLE16 reads a little-endian uint16 from data.
func ReadLE16(data []byte) uint16 {
	return binary.LittleEndian.Uint16(data)
}

// ReadLE32 reads a little-endian uint32 from data.
func ReadLE32(data []byte) uint32 {
	return binary.LittleEndian.Uint32(data)
}
