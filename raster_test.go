package raster

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"strings"
	"testing"

	"github.com/klauspost/compress/zlib"

	"github.com/deepteams/raster/internal/container"
)

// --- synthetic PNG files ---

func pngChunk(typ string, payload []byte) []byte {
	c := make([]byte, 0, 12+len(payload))
	c = binary.BigEndian.AppendUint32(c, uint32(len(payload)))
	c = append(c, typ...)
	c = append(c, payload...)
	return binary.BigEndian.AppendUint32(c, crc32.ChecksumIEEE(c[4:]))
}

func deflate(raw []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	zw.Write(raw)
	zw.Close()
	return buf.Bytes()
}

// buildPNG assembles a non-interlaced 8-bit RGBA PNG from unfiltered
// scanlines, plus any extra chunks placed before IDAT.
func buildPNG(width, height int, pixels []byte, extra ...[]byte) []byte {
	ihdr := make([]byte, 0, 13)
	ihdr = binary.BigEndian.AppendUint32(ihdr, uint32(width))
	ihdr = binary.BigEndian.AppendUint32(ihdr, uint32(height))
	ihdr = append(ihdr, 8, 6, 0, 0, 0) // depth 8, truecolor+alpha

	raw := make([]byte, 0, height*(1+width*4))
	for y := 0; y < height; y++ {
		raw = append(raw, 0) // filter None
		raw = append(raw, pixels[y*width*4:(y+1)*width*4]...)
	}

	data := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, pngChunk("IHDR", ihdr)...)
	for _, c := range extra {
		data = append(data, c...)
	}
	data = append(data, pngChunk("IDAT", deflate(raw))...)
	return append(data, pngChunk("IEND", nil)...)
}

// --- synthetic WebP files ---

func riffChunk(fourcc string, payload []byte) []byte {
	c := make([]byte, 0, 8+len(payload)+1)
	c = append(c, fourcc...)
	c = binary.LittleEndian.AppendUint32(c, uint32(len(payload)))
	c = append(c, payload...)
	if len(payload)&1 == 1 {
		c = append(c, 0)
	}
	return c
}

func webpFile(chunks ...[]byte) []byte {
	var body []byte
	for _, c := range chunks {
		body = append(body, c...)
	}
	f := []byte("RIFF")
	f = binary.LittleEndian.AppendUint32(f, uint32(4+len(body)))
	f = append(f, "WEBP"...)
	return append(f, body...)
}

// vp8xPayload builds the 10-byte VP8X payload: feature flags plus the
// minus-one canvas size.
func vp8xPayload(flags uint32, width, height int) []byte {
	p := make([]byte, 10)
	p[0] = byte(flags)
	p[4] = byte(width - 1)
	p[5] = byte((width - 1) >> 8)
	p[6] = byte((width - 1) >> 16)
	p[7] = byte(height - 1)
	p[8] = byte((height - 1) >> 8)
	p[9] = byte((height - 1) >> 16)
	return p
}

// lsbWriter assembles the LSB-first VP8L bitstream.
type lsbWriter struct {
	buf  []byte
	nbit uint
}

func (w *lsbWriter) write(v uint32, n int) {
	for i := 0; i < n; i++ {
		if w.nbit%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		if v&(1<<uint(i)) != 0 {
			w.buf[len(w.buf)-1] |= 1 << (w.nbit % 8)
		}
		w.nbit++
	}
}

func (w *lsbWriter) writeSimpleTree(symbol uint32) {
	w.write(1, 1) // simple code
	w.write(0, 1) // one symbol
	w.write(1, 1) // 8-bit symbol
	w.write(symbol, 8)
}

// solidVP8L builds a VP8L payload where every pixel is the same ARGB
// color, using trivial one-symbol trees.
func solidVP8L(width, height int, a, r, g, b uint32) []byte {
	w := &lsbWriter{}
	w.write(uint32(width-1), 14)
	w.write(uint32(height-1), 14)
	w.write(0, 1) // alpha hint
	w.write(0, 3) // version

	w.write(0, 1) // no transforms
	w.write(0, 1) // no color cache
	w.write(0, 1) // no meta-Huffman

	w.writeSimpleTree(g)
	w.writeSimpleTree(r)
	w.writeSimpleTree(b)
	w.writeSimpleTree(a)
	w.write(1, 1) // distance tree: simple code
	w.write(0, 1) // one symbol
	w.write(0, 1) // 1-bit symbol
	w.write(0, 1)

	return append([]byte{0x2f}, w.buf...)
}

// --- tests ---

func TestDecodePNG(t *testing.T) {
	data := buildPNG(1, 1, []byte{10, 20, 30, 40})
	img, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Width != 1 || img.Height != 1 {
		t.Fatalf("got %dx%d, want 1x1", img.Width, img.Height)
	}
	if want := []byte{10, 20, 30, 40}; !bytes.Equal(img.Pix, want) {
		t.Errorf("Pix = %v, want %v", img.Pix, want)
	}
}

func TestDecodePNGUnknownChunk(t *testing.T) {
	text := pngChunk("tEXt", []byte("Title\x00synthetic"))
	data := buildPNG(1, 1, []byte{0, 0, 0, 255}, text)
	img, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(img.Metadata.Unknown) != 1 {
		t.Fatalf("preserved %d chunks, want 1", len(img.Metadata.Unknown))
	}
	c := img.Metadata.Unknown[0]
	if c.Name != "tEXt" || !bytes.Equal(c.Payload, []byte("Title\x00synthetic")) {
		t.Errorf("chunk = %q %q", c.Name, c.Payload)
	}
}

func TestDecodeWebPLossless(t *testing.T) {
	data := webpFile(riffChunk("VP8L", solidVP8L(2, 2, 0xff, 1, 2, 3)))
	img, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Width != 2 || img.Height != 2 {
		t.Fatalf("got %dx%d, want 2x2", img.Width, img.Height)
	}
	for i := 0; i < 4; i++ {
		px := img.Pix[i*4 : i*4+4]
		if px[0] != 1 || px[1] != 2 || px[2] != 3 || px[3] != 0xff {
			t.Fatalf("pixel %d = %v, want [1 2 3 255]", i, px)
		}
	}
}

func TestDecodeWebPMetadata(t *testing.T) {
	const iccFlag = 0x20
	data := webpFile(
		riffChunk("VP8X", vp8xPayload(iccFlag, 2, 2)),
		riffChunk("ICCP", []byte("profile")),
		riffChunk("VP8L", solidVP8L(2, 2, 0xff, 9, 9, 9)),
	)
	img, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(img.Metadata.ICC, []byte("profile")) {
		t.Errorf("ICC = %q, want %q", img.Metadata.ICC, "profile")
	}
}

func TestDecodeAnimatedRejected(t *testing.T) {
	const animFlag = 0x02
	anim := make([]byte, 6) // background color + loop count
	data := webpFile(
		riffChunk("VP8X", vp8xPayload(animFlag, 2, 2)),
		riffChunk("ANIM", anim),
	)
	_, err := Decode(data)
	if !errors.Is(err, container.ErrAnimation) {
		t.Fatalf("error = %v, want %v", err, container.ErrAnimation)
	}
	if got := err.Error(); !strings.Contains(got, "animated WebP is not supported") {
		t.Errorf("error message = %q", got)
	}
}

func TestDecodeAlphaFlagMismatch(t *testing.T) {
	const alphaFlag = 0x10
	data := webpFile(
		riffChunk("VP8X", vp8xPayload(alphaFlag, 2, 2)),
		riffChunk("VP8L", solidVP8L(2, 2, 0xff, 1, 2, 3)),
	)
	if _, err := Decode(data); !errors.Is(err, container.ErrInvalidVP8X) {
		t.Fatalf("error = %v, want %v", err, container.ErrInvalidVP8X)
	}
}

func TestDecodeUnknownFormat(t *testing.T) {
	inputs := [][]byte{
		nil,
		[]byte("GIF89a"),
		[]byte("RIFF\x00\x00\x00\x00WAVE"),
		{0x89, 'P', 'N'},
	}
	for _, data := range inputs {
		if _, err := Decode(data); !errors.Is(err, ErrFormat) {
			t.Errorf("Decode(%q) error = %v, want %v", data, err, ErrFormat)
		}
		if _, err := DecodeConfig(data); !errors.Is(err, ErrFormat) {
			t.Errorf("DecodeConfig(%q) error = %v, want %v", data, err, ErrFormat)
		}
	}
}

func TestDecodeConfig(t *testing.T) {
	png := buildPNG(1, 1, []byte{0, 0, 0, 0})
	cfg, err := DecodeConfig(png)
	if err != nil {
		t.Fatalf("DecodeConfig(png): %v", err)
	}
	if cfg.Format != "png" || cfg.Width != 1 || cfg.Height != 1 || !cfg.HasAlpha {
		t.Errorf("png config = %+v", cfg)
	}

	webp := webpFile(riffChunk("VP8L", solidVP8L(2, 2, 0xff, 1, 2, 3)))
	cfg, err = DecodeConfig(webp)
	if err != nil {
		t.Fatalf("DecodeConfig(webp): %v", err)
	}
	if cfg.Format != "webp" || cfg.Width != 2 || cfg.Height != 2 {
		t.Errorf("webp config = %+v", cfg)
	}
}

func TestDecodeImageRegistration(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		format string
	}{
		{"png", buildPNG(1, 1, []byte{10, 20, 30, 40}), "png"},
		{"webp", webpFile(riffChunk("VP8L", solidVP8L(2, 2, 0xff, 10, 20, 30))), "webp"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img, format, err := image.Decode(bytes.NewReader(tc.data))
			if err != nil {
				t.Fatalf("image.Decode: %v", err)
			}
			if format != tc.format {
				t.Errorf("format = %q, want %q", format, tc.format)
			}
			nrgba, ok := img.(*image.NRGBA)
			if !ok {
				t.Fatalf("decoded type %T, want *image.NRGBA", img)
			}
			if got := nrgba.NRGBAAt(0, 0); got.R != 10 || got.G != 20 || got.B != 30 {
				t.Errorf("pixel (0,0) = %+v", got)
			}

			cfg, format, err := image.DecodeConfig(bytes.NewReader(tc.data))
			if err != nil {
				t.Fatalf("image.DecodeConfig: %v", err)
			}
			if format != tc.format || cfg.Width == 0 {
				t.Errorf("config = %+v format %q", cfg, format)
			}
		})
	}
}

func BenchmarkDecodeWebPLossless(b *testing.B) {
	data := webpFile(riffChunk("VP8L", solidVP8L(64, 64, 0xff, 1, 2, 3)))
	b.SetBytes(64 * 64 * 4)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecodePNG(b *testing.B) {
	pixels := make([]byte, 64*64*4)
	for i := range pixels {
		pixels[i] = byte(i)
	}
	data := buildPNG(64, 64, pixels)
	b.SetBytes(64 * 64 * 4)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(data); err != nil {
			b.Fatal(err)
		}
	}
}
