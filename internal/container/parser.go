package container

import (
	"encoding/binary"
	"fmt"
)

// AnimDispose specifies how a frame is disposed before the next one.
type AnimDispose int

const (
	DisposeNone       AnimDispose = 0
	DisposeBackground AnimDispose = 1
)

// AnimBlend specifies how a frame blends with the previous canvas.
type AnimBlend int

const (
	BlendAlpha AnimBlend = 0
	BlendNone  AnimBlend = 1
)

// FrameInfo holds one image payload: the single still frame, or one ANMF
// animation frame (parsed structurally only).
type FrameInfo struct {
	XOffset       int
	YOffset       int
	Width         int
	Height        int
	Duration      int // milliseconds
	DisposeMethod AnimDispose
	BlendMethod   AnimBlend
	HasAlpha      bool
	IsLossless    bool   // true if VP8L, false if VP8
	Payload       []byte // raw bitstream data (VP8/VP8L)
	AlphaData     []byte // raw ALPH chunk payload (nil if none)
	AlphaOffset   int    // absolute offset of the ALPH chunk header
}

// Parser holds the result of a single pass over a WebP RIFF container.
type Parser struct {
	features Features
	frame    *FrameInfo  // the still image, nil for animations
	frames   []FrameInfo // ANMF frames (structural parse only)

	icc     []byte
	exif    []byte
	xmp     []byte
	unknown []Chunk
}

// Parse walks the complete WebP byte buffer once and validates its chunk
// structure. Payload slices returned through the parser are views into
// data, not copies.
func Parse(data []byte) (*Parser, error) {
	p := &Parser{}
	if err := p.parse(data); err != nil {
		return nil, err
	}
	return p, nil
}

// Features returns the parsed file features.
func (p *Parser) Features() Features { return p.features }

// Frame returns the still image frame, or nil for an animation.
func (p *Parser) Frame() *FrameInfo { return p.frame }

// Frames returns the structurally parsed ANMF frames.
func (p *Parser) Frames() []FrameInfo { return p.frames }

// ICC, EXIF and XMP return the raw metadata payloads (nil when absent).
func (p *Parser) ICC() []byte  { return p.icc }
func (p *Parser) EXIF() []byte { return p.exif }
func (p *Parser) XMP() []byte  { return p.xmp }

// Unknown returns all chunks the parser did not recognise, in file order.
func (p *Parser) Unknown() []Chunk { return p.unknown }

func (p *Parser) parse(data []byte) error {
	hdr, consumed, err := ParseRIFFHeader(data)
	if err != nil {
		return err
	}

	// Clamp parsing to the declared RIFF size.
	riffEnd := int(hdr.FileSize) + ChunkHeaderSize
	if riffEnd > len(data) {
		riffEnd = len(data)
	}

	if riffEnd-consumed < ChunkHeaderSize {
		return fmt.Errorf("RIFF: no chunks after header (offset %d): %w", consumed, ErrTruncated)
	}

	switch binary.LittleEndian.Uint32(data[consumed : consumed+4]) {
	case FourCCVP8X:
		return p.parseExtended(data, consumed, riffEnd)
	case FourCCVP8, FourCCVP8L:
		return p.parseSimple(data, consumed, riffEnd)
	default:
		return fmt.Errorf("%w: unexpected first chunk %q at offset %d",
			ErrUnsupported, FourCCString(binary.LittleEndian.Uint32(data[consumed:consumed+4])), consumed)
	}
}

// parseSimple handles a non-extended file: a single VP8 or VP8L chunk.
func (p *Parser) parseSimple(data []byte, pos, end int) error {
	fourcc, payloadSize, err := ReadChunkHeader(data[pos:end])
	if err != nil {
		return err
	}
	payload, _, err := sliceChunk(data, pos, end, payloadSize)
	if err != nil {
		return fmt.Errorf("RIFF: truncated %q chunk at offset %d: %w",
			FourCCString(fourcc), pos, ErrTruncated)
	}

	frame := FrameInfo{
		Payload:    payload,
		IsLossless: fourcc == FourCCVP8L,
	}

	if fourcc == FourCCVP8L {
		w, h, alpha, err := parseVP8LHeader(payload)
		if err != nil {
			return err
		}
		frame.Width, frame.Height, frame.HasAlpha = w, h, alpha
		p.features.Format = FormatVP8L
		p.features.HasAlpha = alpha
	} else {
		w, h, err := parseVP8Header(payload)
		if err != nil {
			return err
		}
		frame.Width, frame.Height = w, h
		p.features.Format = FormatVP8
	}

	p.features.Width = frame.Width
	p.features.Height = frame.Height
	p.features.CanvasWidth = frame.Width
	p.features.CanvasHeight = frame.Height
	p.frame = &frame
	return nil
}

// parseExtended handles a VP8X file: feature flags, canvas size, metadata
// chunks, the optional ALPH + image pair, and (structurally) animations.
func (p *Parser) parseExtended(data []byte, pos, end int) error {
	p.features.Format = FormatVP8X

	_, payloadSize, err := ReadChunkHeader(data[pos:end])
	if err != nil {
		return err
	}
	if payloadSize != VP8XChunkSize {
		return fmt.Errorf("%w: payload size %d at offset %d, want %d",
			ErrInvalidVP8X, payloadSize, pos, VP8XChunkSize)
	}
	payload, next, err := sliceChunk(data, pos, end, payloadSize)
	if err != nil {
		return fmt.Errorf("VP8X: truncated chunk at offset %d: %w", pos, ErrTruncated)
	}

	flags := uint32(payload[0])
	if flags & ^AllValidFlags != 0 {
		return fmt.Errorf("%w: reserved feature flags 0x%02x set at offset %d",
			ErrInvalidVP8X, flags&^AllValidFlags, pos+ChunkHeaderSize)
	}
	p.features.HasAnim = flags&AnimationFlag != 0
	p.features.HasAlpha = flags&AlphaFlag != 0
	p.features.HasICCP = flags&ICCPFlag != 0
	p.features.HasEXIF = flags&EXIFFlag != 0
	p.features.HasXMP = flags&XMPFlag != 0

	// Canvas dimensions: 24-bit LE, stored minus one.
	p.features.CanvasWidth = 1 + readLE24(payload[4:7])
	p.features.CanvasHeight = 1 + readLE24(payload[7:10])
	p.features.Width = p.features.CanvasWidth
	p.features.Height = p.features.CanvasHeight
	if uint64(p.features.CanvasWidth)*uint64(p.features.CanvasHeight) >= MaxImageArea {
		return fmt.Errorf("%w: canvas %dx%d exceeds maximum area",
			ErrInvalidImage, p.features.CanvasWidth, p.features.CanvasHeight)
	}

	p.features.LoopCount = 1
	p.features.BGColor = 0xFFFFFFFF

	return p.walkChunks(data, next, end)
}

// walkChunks iterates over every chunk following VP8X, enforcing the
// single-occurrence and ordering rules.
func (p *Parser) walkChunks(data []byte, pos, end int) error {
	var (
		alphData  []byte
		alphOff   = -1
		seenICCP  bool
		seenEXIF  bool
		seenXMP   bool
		seenANIM  bool
		seenImage bool
	)

	for end-pos >= ChunkHeaderSize {
		fourcc, payloadSize, err := ReadChunkHeader(data[pos:end])
		if err != nil {
			return err
		}
		payload, next, err := sliceChunk(data, pos, end, payloadSize)
		if err != nil {
			return fmt.Errorf("RIFF: truncated %q chunk at offset %d: %w",
				FourCCString(fourcc), pos, ErrTruncated)
		}

		switch fourcc {
		case FourCCVP8X:
			return fmt.Errorf("%w: duplicate VP8X chunk at offset %d", ErrInvalidVP8X, pos)

		case FourCCANIM:
			if !p.features.HasAnim {
				return fmt.Errorf("%w: ANIM chunk at offset %d without animation flag",
					ErrInvalidVP8X, pos)
			}
			if seenANIM {
				return fmt.Errorf("%w: duplicate ANIM chunk at offset %d", ErrInvalidChunk, pos)
			}
			if payloadSize < ANIMChunkSize {
				return fmt.Errorf("%w: ANIM payload %d bytes at offset %d, want %d",
					ErrInvalidChunk, payloadSize, pos, ANIMChunkSize)
			}
			seenANIM = true
			p.features.BGColor = binary.LittleEndian.Uint32(payload[0:4])
			p.features.LoopCount = int(binary.LittleEndian.Uint16(payload[4:6]))

		case FourCCANMF:
			if !seenANIM {
				return fmt.Errorf("%w: ANMF at offset %d before ANIM", ErrInvalidChunk, pos)
			}
			frame, err := parseANMF(payload, pos)
			if err != nil {
				return err
			}
			p.frames = append(p.frames, frame)

		case FourCCALPH:
			if p.features.HasAnim || seenANIM {
				return fmt.Errorf("%w: ALPH chunk at offset %d in animated file", ErrInvalidChunk, pos)
			}
			if alphData != nil {
				return fmt.Errorf("RIFF: duplicate ALPH chunk at offset %d: %w", pos, ErrInvalidChunk)
			}
			if !p.features.HasAlpha {
				return fmt.Errorf("%w: ALPH chunk at offset %d but alpha flag not set",
					ErrInvalidVP8X, pos)
			}
			alphData = payload
			alphOff = pos

		case FourCCVP8, FourCCVP8L:
			if p.features.HasAnim || seenANIM {
				return fmt.Errorf("%w: image chunk at offset %d outside ANMF in animated file",
					ErrInvalidChunk, pos)
			}
			if seenImage {
				return fmt.Errorf("RIFF: more than one image stream (second at offset %d): %w",
					pos, ErrInvalidChunk)
			}
			seenImage = true
			if err := p.setStillImage(fourcc, payload, alphData, alphOff, pos); err != nil {
				return err
			}

		case FourCCICCP:
			if seenICCP {
				return fmt.Errorf("RIFF: duplicate ICCP chunk at offset %d: %w", pos, ErrInvalidChunk)
			}
			seenICCP = true
			if p.features.HasICCP {
				p.icc = payload
			}

		case FourCCEXIF:
			if seenEXIF {
				return fmt.Errorf("RIFF: duplicate EXIF chunk at offset %d: %w", pos, ErrInvalidChunk)
			}
			seenEXIF = true
			if p.features.HasEXIF {
				p.exif = payload
			}

		case FourCCXMP:
			if seenXMP {
				return fmt.Errorf("RIFF: duplicate XMP chunk at offset %d: %w", pos, ErrInvalidChunk)
			}
			seenXMP = true
			if p.features.HasXMP {
				p.xmp = payload
			}

		default:
			// Unknown chunks are preserved, never rejected.
			p.unknown = append(p.unknown, Chunk{FourCC: fourcc, Payload: payload, Offset: pos})
		}

		pos = next
	}

	if p.features.HasAnim {
		// Structural parse only; playback is rejected by the decoder.
		return nil
	}
	if p.frame == nil {
		return fmt.Errorf("%w: no image chunk in extended file", ErrInvalidChunk)
	}
	if alphData != nil && p.frame.AlphaData == nil && !p.frame.IsLossless {
		// ALPH after the image chunk; the image was already committed.
		return fmt.Errorf("%w: ALPH chunk after image data at offset %d", ErrInvalidChunk, alphOff)
	}
	if p.features.HasAlpha && !p.frame.HasAlpha {
		return fmt.Errorf("%w: alpha flag set but no alpha data present", ErrInvalidVP8X)
	}
	if p.frame.Width != p.features.CanvasWidth || p.frame.Height != p.features.CanvasHeight {
		return fmt.Errorf("%w: canvas %dx%d does not match image %dx%d",
			ErrInvalidVP8X, p.features.CanvasWidth, p.features.CanvasHeight,
			p.frame.Width, p.frame.Height)
	}
	return nil
}

// setStillImage commits the still frame of an extended file.
func (p *Parser) setStillImage(fourcc uint32, payload, alphData []byte, alphOff, pos int) error {
	frame := FrameInfo{Payload: payload}

	if fourcc == FourCCVP8L {
		if alphData != nil {
			return fmt.Errorf("%w: ALPH chunk with VP8L image at offset %d (VP8L carries its own alpha)",
				ErrInvalidChunk, pos)
		}
		w, h, alpha, err := parseVP8LHeader(payload)
		if err != nil {
			return err
		}
		frame.Width, frame.Height = w, h
		frame.IsLossless = true
		frame.HasAlpha = alpha
	} else {
		w, h, err := parseVP8Header(payload)
		if err != nil {
			return err
		}
		frame.Width, frame.Height = w, h
		frame.AlphaData = alphData
		frame.AlphaOffset = alphOff
		frame.HasAlpha = alphData != nil
	}

	p.features.Width = frame.Width
	p.features.Height = frame.Height
	p.frame = &frame
	return nil
}

// parseANMF parses an ANMF chunk structurally. off is the absolute offset
// of the chunk header, used for diagnostics.
func parseANMF(payload []byte, off int) (FrameInfo, error) {
	if len(payload) < ANMFChunkSize {
		return FrameInfo{}, fmt.Errorf("%w: ANMF payload %d bytes at offset %d, want >= %d",
			ErrInvalidChunk, len(payload), off, ANMFChunkSize)
	}

	frame := FrameInfo{
		XOffset:  2 * readLE24(payload[0:3]),
		YOffset:  2 * readLE24(payload[3:6]),
		Width:    1 + readLE24(payload[6:9]),
		Height:   1 + readLE24(payload[9:12]),
		Duration: readLE24(payload[12:15]),
	}
	bits := payload[15]
	if bits&1 != 0 {
		frame.DisposeMethod = DisposeBackground
	}
	if bits&2 != 0 {
		frame.BlendMethod = BlendNone
	}

	if uint64(frame.Width)*uint64(frame.Height) >= MaxImageArea {
		return FrameInfo{}, fmt.Errorf("%w: ANMF frame %dx%d at offset %d exceeds maximum area",
			ErrInvalidImage, frame.Width, frame.Height, off)
	}

	return parseFrameSubChunks(frame, payload[ANMFChunkSize:], off+ChunkHeaderSize+ANMFChunkSize)
}

// parseFrameSubChunks parses the ALPH/VP8/VP8L sub-chunks inside an ANMF
// payload.
func parseFrameSubChunks(frame FrameInfo, buf []byte, base int) (FrameInfo, error) {
	var alphData []byte

	for len(buf) >= ChunkHeaderSize {
		fourcc, payloadSize, err := ReadChunkHeader(buf)
		if err != nil {
			return FrameInfo{}, err
		}
		chunkTotal := ChunkHeaderSize + int(PaddedSize(payloadSize))
		if chunkTotal > len(buf) {
			return FrameInfo{}, fmt.Errorf("RIFF: truncated %q chunk at offset %d: %w",
				FourCCString(fourcc), base, ErrTruncated)
		}
		payload := buf[ChunkHeaderSize : ChunkHeaderSize+int(payloadSize)]

		switch fourcc {
		case FourCCALPH:
			alphData = payload
			frame.HasAlpha = true
			base += chunkTotal
			buf = buf[chunkTotal:]
			continue

		case FourCCVP8L:
			if alphData != nil {
				return FrameInfo{}, fmt.Errorf("%w: ALPH with VP8L frame at offset %d",
					ErrInvalidChunk, base)
			}
			_, _, alpha, err := parseVP8LHeader(payload)
			if err != nil {
				return FrameInfo{}, err
			}
			frame.IsLossless = true
			frame.HasAlpha = frame.HasAlpha || alpha
			frame.Payload = payload
			return frame, nil

		case FourCCVP8:
			frame.IsLossless = false
			frame.Payload = payload
			frame.AlphaData = alphData
			return frame, nil
		}
		break
	}

	if alphData != nil {
		return FrameInfo{}, fmt.Errorf("%w: ANMF frame with alpha but no image at offset %d",
			ErrInvalidChunk, base)
	}
	return frame, nil
}

// sliceChunk bounds-checks one chunk at pos and returns its payload view
// plus the offset of the next chunk header (past any pad byte).
func sliceChunk(data []byte, pos, end int, payloadSize uint32) (payload []byte, next int, err error) {
	padded := int(PaddedSize(payloadSize))
	if pos+ChunkHeaderSize+padded > end {
		// A final chunk may legitimately omit the pad byte at EOF.
		if pos+ChunkHeaderSize+int(payloadSize) > end {
			return nil, 0, ErrTruncated
		}
		padded = int(payloadSize)
	}
	start := pos + ChunkHeaderSize
	return data[start : start+int(payloadSize)], start + padded, nil
}

// parseVP8Header extracts width and height from a VP8 lossy bitstream
// header (minimal 10-byte probe).
func parseVP8Header(data []byte) (width, height int, err error) {
	if len(data) < VP8FrameHeaderSize {
		return 0, 0, fmt.Errorf("VP8: frame header needs %d bytes, have %d: %w",
			VP8FrameHeaderSize, len(data), ErrTruncated)
	}

	frameTag := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16
	if frameTag&1 != 0 {
		return 0, 0, fmt.Errorf("VP8: non-keyframe not supported: %w", ErrUnsupported)
	}

	sig := uint32(data[3])<<16 | uint32(data[4])<<8 | uint32(data[5])
	if sig != VP8Signature {
		return 0, 0, fmt.Errorf("VP8: invalid start code 0x%06x at offset 3: %w", sig, ErrInvalidChunk)
	}

	width = int(binary.LittleEndian.Uint16(data[6:8])) & 0x3FFF
	height = int(binary.LittleEndian.Uint16(data[8:10])) & 0x3FFF
	if width == 0 || height == 0 {
		return 0, 0, fmt.Errorf("VP8: invalid dimensions %dx%d: %w", width, height, ErrInvalidImage)
	}
	return width, height, nil
}

// parseVP8LHeader extracts width, height and alpha presence from a VP8L
// lossless bitstream header.
func parseVP8LHeader(data []byte) (width, height int, hasAlpha bool, err error) {
	if len(data) < VP8LFrameHeaderSize {
		return 0, 0, false, fmt.Errorf("VP8L: header needs %d bytes, have %d: %w",
			VP8LFrameHeaderSize, len(data), ErrTruncated)
	}

	if data[0] != VP8LMagicByte {
		return 0, 0, false, fmt.Errorf("VP8L: invalid signature byte 0x%02x: %w",
			data[0], ErrInvalidChunk)
	}

	bits := binary.LittleEndian.Uint32(data[1:5])
	width = int(bits&0x3FFF) + 1
	height = int((bits>>14)&0x3FFF) + 1
	hasAlpha = (bits>>28)&1 != 0
	if version := (bits >> 29) & 0x7; version != VP8LVersion {
		return 0, 0, false, fmt.Errorf("VP8L: unsupported version %d: %w", version, ErrUnsupported)
	}
	return width, height, hasAlpha, nil
}

// readLE24 reads a 24-bit little-endian integer from 3 bytes.
func readLE24(b []byte) int {
	return int(b[0]) | int(b[1])<<8 | int(b[2])<<16
}
