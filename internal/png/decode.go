package png

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/deepteams/raster/internal/pool"
)

// Result is a fully decoded PNG.
type Result struct {
	Pix     []byte // RGBA8888, row-major, straight alpha
	Width   int
	Height  int
	ICC     []byte // decompressed ICC profile from iCCP, nil if absent
	EXIF    []byte // raw eXIf payload, nil if absent
	Unknown []Chunk
}

// Decode decodes a complete PNG file into an RGBA buffer.
func Decode(data []byte) (*Result, error) {
	f, err := ParseChunks(data)
	if err != nil {
		return nil, err
	}
	hdr := &f.Header

	inflated, err := inflate(f.IDAT)
	if err != nil {
		return nil, errorf(ErrBadData, "inflating IDAT: %v", err)
	}

	var raw []byte
	if hdr.Interlace == 1 {
		raw, err = Deinterlace(inflated, hdr)
	} else {
		rowBytes := hdr.RowBytes(hdr.Width)
		if want := hdr.Height * (1 + rowBytes); len(inflated) != want {
			return nil, errorf(ErrBadData, "inflated stream is %d bytes, want %d", len(inflated), want)
		}
		raw, err = ReverseFilters(inflated, rowBytes, hdr.Height, hdr.FilterUnit())
	}
	if err != nil {
		return nil, err
	}

	pix, err := ReconstructPixels(raw, hdr, f.Palette, f.Trans)
	pool.Put(raw)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Pix:     pix,
		Width:   hdr.Width,
		Height:  hdr.Height,
		EXIF:    f.EXIF,
		Unknown: f.Unknown,
	}
	if f.ICCP != nil {
		icc, err := decodeICCP(f.ICCP)
		if err != nil {
			return nil, err
		}
		res.ICC = icc
	}
	return res, nil
}

// DecodeConfig parses and validates the IHDR without decoding pixels.
func DecodeConfig(data []byte) (Header, error) {
	if len(data) < len(Signature) || !bytes.Equal(data[:len(Signature)], Signature[:]) {
		return Header{}, ErrBadSignature
	}
	pos := len(Signature)
	if len(data)-pos < 12+13 {
		return Header{}, errorf(ErrTruncated, "IHDR at offset %d", pos)
	}
	if binary.BigEndian.Uint32(data[pos:pos+4]) != 13 || string(data[pos+4:pos+8]) != "IHDR" {
		return Header{}, errorf(ErrBadChunk, "first chunk is not a 13-byte IHDR")
	}
	end := pos + 8 + 13
	want := binary.BigEndian.Uint32(data[end : end+4])
	if got := crc32.ChecksumIEEE(data[pos+4 : end]); got != want {
		return Header{}, errorf(ErrBadCRC, "IHDR: got %08x, want %08x", got, want)
	}
	return parseIHDR(data[pos+8:end], pos)
}

// decodeICCP extracts the profile from an iCCP payload: a profile name
// (1-79 bytes), a NUL separator, a compression method byte (0 = zlib)
// and the compressed profile.
func decodeICCP(payload []byte) ([]byte, error) {
	nul := bytes.IndexByte(payload, 0)
	if nul < 1 || nul > 79 || nul+2 > len(payload) {
		return nil, errorf(ErrBadChunk, "malformed iCCP payload")
	}
	if payload[nul+1] != 0 {
		return nil, errorf(ErrBadChunk, "iCCP compression method %d", payload[nul+1])
	}
	icc, err := inflate(payload[nul+2:])
	if err != nil {
		return nil, errorf(ErrBadChunk, "inflating iCCP profile: %v", err)
	}
	return icc, nil
}

func inflate(b []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
