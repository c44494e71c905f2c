package container

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestParseRIFFHeader_Valid(t *testing.T) {
	data := make([]byte, 20)
	binary.LittleEndian.PutUint32(data[0:4], FourCCRIFF)
	binary.LittleEndian.PutUint32(data[4:8], 100)
	binary.LittleEndian.PutUint32(data[8:12], FourCCWEBP)

	hdr, n, err := ParseRIFFHeader(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != RIFFHeaderSize {
		t.Fatalf("consumed %d bytes, want %d", n, RIFFHeaderSize)
	}
	if hdr.FileSize != 100 {
		t.Fatalf("file size = %d, want 100", hdr.FileSize)
	}
}

func TestParseRIFFHeader_TooShort(t *testing.T) {
	_, _, err := ParseRIFFHeader([]byte{0, 1, 2})
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestParseRIFFHeader_BadRIFF(t *testing.T) {
	data := make([]byte, 12)
	copy(data[0:4], "JUNK")
	if _, _, err := ParseRIFFHeader(data); !errors.Is(err, ErrInvalidRIFF) {
		t.Fatalf("expected ErrInvalidRIFF, got %v", err)
	}
}

func TestParseRIFFHeader_BadWEBP(t *testing.T) {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], FourCCRIFF)
	binary.LittleEndian.PutUint32(data[4:8], 100)
	copy(data[8:12], "JUNK")
	if _, _, err := ParseRIFFHeader(data); !errors.Is(err, ErrInvalidWebP) {
		t.Fatalf("expected ErrInvalidWebP, got %v", err)
	}
}

func TestPaddedSize(t *testing.T) {
	tests := []struct{ in, want uint32 }{
		{0, 0}, {1, 2}, {2, 2}, {3, 4}, {100, 100}, {101, 102},
	}
	for _, tt := range tests {
		if got := PaddedSize(tt.in); got != tt.want {
			t.Errorf("PaddedSize(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFourCCString(t *testing.T) {
	if s := FourCCString(FourCCVP8); s != "VP8 " {
		t.Fatalf("FourCCString(VP8) = %q, want %q", s, "VP8 ")
	}
	if s := FourCCString(FourCCVP8L); s != "VP8L" {
		t.Fatalf("FourCCString(VP8L) = %q, want %q", s, "VP8L")
	}
}

// vp8Probe builds a minimal 10-byte VP8 keyframe header for w x h.
func vp8Probe(w, h int) []byte {
	data := make([]byte, 10)
	data[0] = 0x10 // keyframe, show_frame
	data[3], data[4], data[5] = 0x9d, 0x01, 0x2a
	binary.LittleEndian.PutUint16(data[6:8], uint16(w))
	binary.LittleEndian.PutUint16(data[8:10], uint16(h))
	return data
}

// vp8lProbe builds a minimal 5-byte VP8L header.
func vp8lProbe(w, h int, alpha bool) []byte {
	data := make([]byte, 5)
	data[0] = VP8LMagicByte
	bits := uint32(w-1) | uint32(h-1)<<14
	if alpha {
		bits |= 1 << 28
	}
	binary.LittleEndian.PutUint32(data[1:5], bits)
	return data
}

// chunk serialises a single RIFF chunk including padding.
func chunk(tag uint32, payload []byte) []byte {
	out := make([]byte, ChunkHeaderSize+len(payload))
	binary.LittleEndian.PutUint32(out[0:4], tag)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(payload)))
	copy(out[ChunkHeaderSize:], payload)
	if len(payload)&1 != 0 {
		out = append(out, 0)
	}
	return out
}

// riff wraps chunks in a RIFF/WEBP container.
func riff(chunks ...[]byte) []byte {
	var body []byte
	for _, c := range chunks {
		body = append(body, c...)
	}
	out := make([]byte, RIFFHeaderSize, RIFFHeaderSize+len(body))
	binary.LittleEndian.PutUint32(out[0:4], FourCCRIFF)
	binary.LittleEndian.PutUint32(out[4:8], uint32(4+len(body)))
	binary.LittleEndian.PutUint32(out[8:12], FourCCWEBP)
	return append(out, body...)
}

// vp8x builds a VP8X payload with the given flags and canvas size.
func vp8x(flags uint32, w, h int) []byte {
	p := make([]byte, VP8XChunkSize)
	p[0] = byte(flags)
	p[4] = byte(w - 1)
	p[5] = byte((w - 1) >> 8)
	p[6] = byte((w - 1) >> 16)
	p[7] = byte(h - 1)
	p[8] = byte((h - 1) >> 8)
	p[9] = byte((h - 1) >> 16)
	return p
}

func TestParse_SimpleVP8(t *testing.T) {
	p, err := Parse(riff(chunk(FourCCVP8, vp8Probe(320, 240))))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	f := p.Features()
	if f.Format != FormatVP8 || f.Width != 320 || f.Height != 240 {
		t.Fatalf("features = %+v", f)
	}
	if p.Frame() == nil || p.Frame().IsLossless {
		t.Fatal("expected a lossy still frame")
	}
}

func TestParse_SimpleVP8L(t *testing.T) {
	p, err := Parse(riff(chunk(FourCCVP8L, vp8lProbe(64, 48, true))))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	f := p.Features()
	if f.Format != FormatVP8L || f.Width != 64 || f.Height != 48 || !f.HasAlpha {
		t.Fatalf("features = %+v", f)
	}
}

func TestParse_VP8X_AlphaFlagWithoutALPH(t *testing.T) {
	data := riff(
		chunk(FourCCVP8X, vp8x(AlphaFlag, 320, 240)),
		chunk(FourCCVP8, vp8Probe(320, 240)),
	)
	if _, err := Parse(data); !errors.Is(err, ErrInvalidVP8X) {
		t.Fatalf("expected ErrInvalidVP8X, got %v", err)
	}
}

func TestParse_VP8X_ALPHWithoutAlphaFlag(t *testing.T) {
	data := riff(
		chunk(FourCCVP8X, vp8x(0, 320, 240)),
		chunk(FourCCALPH, []byte{0x00, 0x01, 0x02}),
		chunk(FourCCVP8, vp8Probe(320, 240)),
	)
	if _, err := Parse(data); !errors.Is(err, ErrInvalidVP8X) {
		t.Fatalf("expected ErrInvalidVP8X, got %v", err)
	}
}

func TestParse_VP8X_CanvasMismatch(t *testing.T) {
	data := riff(
		chunk(FourCCVP8X, vp8x(0, 100, 100)),
		chunk(FourCCVP8, vp8Probe(320, 240)),
	)
	if _, err := Parse(data); !errors.Is(err, ErrInvalidVP8X) {
		t.Fatalf("expected ErrInvalidVP8X, got %v", err)
	}
}

func TestParse_VP8X_DuplicateICCP(t *testing.T) {
	data := riff(
		chunk(FourCCVP8X, vp8x(ICCPFlag, 320, 240)),
		chunk(FourCCICCP, []byte{1, 2, 3, 4}),
		chunk(FourCCICCP, []byte{5, 6, 7, 8}),
		chunk(FourCCVP8, vp8Probe(320, 240)),
	)
	if _, err := Parse(data); !errors.Is(err, ErrInvalidChunk) {
		t.Fatalf("expected ErrInvalidChunk, got %v", err)
	}
}

func TestParse_VP8X_DuplicateImageStream(t *testing.T) {
	data := riff(
		chunk(FourCCVP8X, vp8x(0, 320, 240)),
		chunk(FourCCVP8, vp8Probe(320, 240)),
		chunk(FourCCVP8, vp8Probe(320, 240)),
	)
	if _, err := Parse(data); !errors.Is(err, ErrInvalidChunk) {
		t.Fatalf("expected ErrInvalidChunk, got %v", err)
	}
}

func TestParse_VP8X_MetadataAndUnknownChunks(t *testing.T) {
	icc := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	xmp := []byte("<x:xmpmeta/>")
	data := riff(
		chunk(FourCCVP8X, vp8x(ICCPFlag|XMPFlag, 320, 240)),
		chunk(FourCCICCP, icc),
		chunk(FourCCVP8, vp8Probe(320, 240)),
		chunk(FourCC('F', 'O', 'O', ' '), []byte{9, 9}),
		chunk(FourCCXMP, xmp),
	)
	p, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if string(p.ICC()) != string(icc) {
		t.Errorf("ICC = %v, want %v", p.ICC(), icc)
	}
	if string(p.XMP()) != string(xmp) {
		t.Errorf("XMP = %q, want %q", p.XMP(), xmp)
	}
	if len(p.Unknown()) != 1 || FourCCString(p.Unknown()[0].FourCC) != "FOO " {
		t.Errorf("Unknown = %+v, want one FOO chunk", p.Unknown())
	}
}

func TestParse_Animation_StructuralOnly(t *testing.T) {
	anim := make([]byte, ANIMChunkSize)
	binary.LittleEndian.PutUint32(anim[0:4], 0xFF000000)
	binary.LittleEndian.PutUint16(anim[4:6], 3)

	anmf := make([]byte, ANMFChunkSize)
	anmf[6] = byte((320 - 1) & 0xff)
	anmf[7] = byte((320 - 1) >> 8)
	anmf[9] = byte(240 - 1)
	anmf[12] = 100 // duration ms
	anmf = append(anmf, chunk(FourCCVP8, vp8Probe(320, 240))...)

	data := riff(
		chunk(FourCCVP8X, vp8x(AnimationFlag, 320, 240)),
		chunk(FourCCANIM, anim),
		chunk(FourCCANMF, anmf),
	)
	p, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	f := p.Features()
	if !f.HasAnim {
		t.Fatal("HasAnim = false, want true")
	}
	if f.LoopCount != 3 {
		t.Errorf("LoopCount = %d, want 3", f.LoopCount)
	}
	if len(p.Frames()) != 1 {
		t.Fatalf("got %d frames, want 1", len(p.Frames()))
	}
	fr := p.Frames()[0]
	if fr.Width != 320 || fr.Height != 240 || fr.Duration != 100 {
		t.Errorf("frame = %+v", fr)
	}
}

func TestParseVP8Header(t *testing.T) {
	w, h, err := parseVP8Header(vp8Probe(320, 240))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w != 320 || h != 240 {
		t.Fatalf("dimensions = %dx%d, want 320x240", w, h)
	}
}

func TestParseVP8Header_BadStartCode(t *testing.T) {
	data := vp8Probe(320, 240)
	data[3] = 0x00
	if _, _, err := parseVP8Header(data); err == nil {
		t.Fatal("expected error for bad start code")
	}
}

func TestParseVP8LHeader(t *testing.T) {
	w, h, alpha, err := parseVP8LHeader(vp8lProbe(100, 200, true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w != 100 || h != 200 || !alpha {
		t.Fatalf("got %dx%d alpha=%v, want 100x200 alpha=true", w, h, alpha)
	}
}

func TestParseVP8LHeader_BadSignature(t *testing.T) {
	data := vp8lProbe(16, 16, false)
	data[0] = 0x30
	if _, _, _, err := parseVP8LHeader(data); err == nil {
		t.Fatal("expected error for bad signature byte")
	}
}
