package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/deepteams/raster/internal/png"
)

func init() {
	image.RegisterFormat("png", "\x89PNG\r\n\x1a\n", decodeReader, decodeConfigReader)
	image.RegisterFormat("webp", "RIFF????WEBP", decodeReader, decodeConfigReader)
}

// ErrFormat is returned when the input starts with neither a PNG signature
// nor a RIFF/WEBP header.
var ErrFormat = errors.New("raster: unrecognized image format")

// Chunk is a container chunk the decoder did not interpret: a PNG chunk
// type or a RIFF FourCC, its payload (a view into the input buffer) and
// the absolute byte offset of the chunk header.
type Chunk struct {
	Name    string
	Payload []byte
	Offset  int
}

// Metadata collects the non-pixel payloads of a file. Absent entries are
// nil; Unknown preserves unrecognized chunks in file order.
type Metadata struct {
	ICC     []byte
	EXIF    []byte
	XMP     []byte
	Unknown []Chunk
}

// Image is a decoded picture. Pix holds Width*Height*4 bytes of row-major
// straight-alpha RGBA.
type Image struct {
	Pix      []byte
	Width    int
	Height   int
	Metadata Metadata
}

// NRGBA wraps the decoded buffer as a stdlib image without copying.
func (m *Image) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    m.Pix,
		Stride: m.Width * 4,
		Rect:   image.Rect(0, 0, m.Width, m.Height),
	}
}

// Config describes an image without decoding its pixels.
type Config struct {
	Width    int
	Height   int
	HasAlpha bool
	Format   string // "png" or "webp"
}

// Decode decodes a complete PNG or WebP file, dispatching on the magic
// bytes.
func Decode(data []byte) (*Image, error) {
	switch {
	case isPNG(data):
		return decodePNG(data)
	case isWebP(data):
		return decodeWebP(data)
	}
	return nil, ErrFormat
}

// DecodeConfig probes the dimensions and alpha presence from the headers
// only.
func DecodeConfig(data []byte) (Config, error) {
	switch {
	case isPNG(data):
		return decodePNGConfig(data)
	case isWebP(data):
		return decodeWebPConfig(data)
	}
	return Config{}, ErrFormat
}

// DecodeImage reads a PNG or WebP image from r and returns it as an
// *image.NRGBA.
func DecodeImage(r io.Reader) (image.Image, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("raster: reading data: %w", err)
	}
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return img.NRGBA(), nil
}

func decodeReader(r io.Reader) (image.Image, error) {
	return DecodeImage(r)
}

func decodeConfigReader(r io.Reader) (image.Config, error) {
	data, err := readAll(r)
	if err != nil {
		return image.Config{}, fmt.Errorf("raster: reading data: %w", err)
	}
	cfg, err := DecodeConfig(data)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      cfg.Width,
		Height:     cfg.Height,
	}, nil
}

func isPNG(data []byte) bool {
	return len(data) >= len(png.Signature) &&
		string(data[:len(png.Signature)]) == string(png.Signature[:])
}

func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP"
}

// readAll reads all data from r. If r implements Len() int (e.g.
// *bytes.Reader), a single exact-sized allocation is used instead of the
// repeated doublings that io.ReadAll performs.
func readAll(r io.Reader) ([]byte, error) {
	if lr, ok := r.(interface{ Len() int }); ok {
		n := lr.Len()
		if n > 0 {
			data := make([]byte, n)
			_, err := io.ReadFull(r, data)
			return data, err
		}
	}
	return io.ReadAll(r)
}
