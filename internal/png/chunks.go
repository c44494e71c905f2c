package png

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
)

// Chunk is one PNG chunk: its 4-byte type, a payload view into the input
// buffer and the absolute byte offset of its length field.
type Chunk struct {
	Type   string
	Data   []byte
	Offset int
}

// File is the chunk-level view of a PNG produced by ParseChunks.
type File struct {
	Header  Header
	Palette []byte // raw PLTE payload, 3 bytes per entry
	Trans   []byte // raw tRNS payload
	IDAT    []byte // concatenated IDAT payloads
	ICCP    []byte // raw iCCP payload (profile still compressed)
	EXIF    []byte // raw eXIf payload
	Unknown []Chunk
}

// ParseChunks validates the signature and walks every chunk, checking
// each CRC and the ordering rules (IHDR first, single PLTE before IDAT,
// contiguous IDAT, IEND last).
func ParseChunks(data []byte) (*File, error) {
	if len(data) < len(Signature) || !bytes.Equal(data[:len(Signature)], Signature[:]) {
		return nil, ErrBadSignature
	}

	f := &File{}
	var (
		pos       = len(Signature)
		seenIHDR  bool
		seenIEND  bool
		seenPLTE  bool
		idatDone  bool // a non-IDAT chunk appeared after the first IDAT
		idatParts [][]byte
	)

	for pos < len(data) {
		if seenIEND {
			return nil, errorf(ErrBadChunk, "data after IEND at offset %d", pos)
		}
		if len(data)-pos < 12 {
			return nil, errorf(ErrTruncated, "chunk header at offset %d", pos)
		}
		length := binary.BigEndian.Uint32(data[pos : pos+4])
		if length > 1<<31-1 {
			return nil, errorf(ErrBadChunk, "chunk length %d at offset %d", length, pos)
		}
		typ := string(data[pos+4 : pos+8])
		end := pos + 8 + int(length)
		if end+4 > len(data) {
			return nil, errorf(ErrTruncated, "%s chunk of %d bytes at offset %d overflows container",
				typ, length, pos)
		}
		payload := data[pos+8 : end]
		want := binary.BigEndian.Uint32(data[end : end+4])
		if got := crc32.ChecksumIEEE(data[pos+4 : end]); got != want {
			return nil, errorf(ErrBadCRC, "%s chunk at offset %d: got %08x, want %08x",
				typ, pos, got, want)
		}

		if !seenIHDR && typ != "IHDR" {
			return nil, errorf(ErrBadChunk, "first chunk is %s, want IHDR", typ)
		}
		if len(idatParts) > 0 && typ != "IDAT" {
			idatDone = true
		}

		switch typ {
		case "IHDR":
			if seenIHDR {
				return nil, errorf(ErrBadChunk, "duplicate IHDR at offset %d", pos)
			}
			seenIHDR = true
			hdr, err := parseIHDR(payload, pos)
			if err != nil {
				return nil, err
			}
			f.Header = hdr

		case "PLTE":
			if seenPLTE {
				return nil, errorf(ErrBadChunk, "duplicate PLTE at offset %d", pos)
			}
			if len(idatParts) > 0 {
				return nil, errorf(ErrBadChunk, "PLTE after IDAT at offset %d", pos)
			}
			if length == 0 || length%3 != 0 || length > 3*256 {
				return nil, errorf(ErrBadChunk, "PLTE length %d at offset %d", length, pos)
			}
			seenPLTE = true
			f.Palette = payload

		case "tRNS":
			if len(idatParts) > 0 {
				return nil, errorf(ErrBadChunk, "tRNS after IDAT at offset %d", pos)
			}
			if err := checkTrans(&f.Header, f.Palette, payload, pos); err != nil {
				return nil, err
			}
			f.Trans = payload

		case "IDAT":
			if idatDone {
				return nil, errorf(ErrBadChunk, "non-contiguous IDAT at offset %d", pos)
			}
			idatParts = append(idatParts, payload)

		case "IEND":
			if length != 0 {
				return nil, errorf(ErrBadChunk, "IEND with %d-byte payload at offset %d", length, pos)
			}
			seenIEND = true

		case "iCCP":
			f.ICCP = payload

		case "eXIf":
			f.EXIF = payload

		default:
			// Ancillary chunks (lowercase first letter) are preserved;
			// unknown critical chunks are a hard error.
			if typ[0]&0x20 == 0 {
				return nil, errorf(ErrBadChunk, "unknown critical chunk %s at offset %d", typ, pos)
			}
			f.Unknown = append(f.Unknown, Chunk{Type: typ, Data: payload, Offset: pos})
		}

		pos = end + 4
	}

	if !seenIEND {
		return nil, errorf(ErrTruncated, "missing IEND")
	}
	if len(idatParts) == 0 {
		return nil, errorf(ErrBadChunk, "missing IDAT")
	}
	if f.Header.ColorType == Paletted && f.Palette == nil {
		return nil, errorf(ErrBadChunk, "paletted image without PLTE")
	}

	if len(idatParts) == 1 {
		f.IDAT = idatParts[0]
	} else {
		var total int
		for _, p := range idatParts {
			total += len(p)
		}
		f.IDAT = make([]byte, 0, total)
		for _, p := range idatParts {
			f.IDAT = append(f.IDAT, p...)
		}
	}
	return f, nil
}

// parseIHDR decodes and validates the 13-byte IHDR payload.
func parseIHDR(payload []byte, off int) (Header, error) {
	if len(payload) != 13 {
		return Header{}, errorf(ErrBadHeader, "IHDR length %d at offset %d, want 13", len(payload), off)
	}
	w := binary.BigEndian.Uint32(payload[0:4])
	h := binary.BigEndian.Uint32(payload[4:8])
	if w == 0 || w > 1<<31-1 || h == 0 || h > 1<<31-1 {
		return Header{}, errorf(ErrBadHeader, "dimensions %dx%d out of range", w, h)
	}
	hdr := Header{
		Width:     int(w),
		Height:    int(h),
		BitDepth:  payload[8],
		ColorType: ColorType(payload[9]),
		Interlace: payload[12],
	}
	if payload[10] != 0 {
		return Header{}, errorf(ErrBadHeader, "unknown compression method %d", payload[10])
	}
	if payload[11] != 0 {
		return Header{}, errorf(ErrBadHeader, "unknown filter method %d", payload[11])
	}
	if err := hdr.check(); err != nil {
		return Header{}, err
	}
	return hdr, nil
}

// checkTrans validates the tRNS payload shape for the header's color type.
func checkTrans(hdr *Header, palette, payload []byte, off int) error {
	switch hdr.ColorType {
	case Paletted:
		if palette == nil {
			return errorf(ErrBadChunk, "tRNS before PLTE at offset %d", off)
		}
		if len(payload) > len(palette)/3 {
			return errorf(ErrBadChunk, "tRNS has %d entries for %d palette colors at offset %d",
				len(payload), len(palette)/3, off)
		}
	case Grayscale:
		if len(payload) != 2 {
			return errorf(ErrBadChunk, "tRNS length %d for grayscale at offset %d, want 2",
				len(payload), off)
		}
	case TrueColor:
		if len(payload) != 6 {
			return errorf(ErrBadChunk, "tRNS length %d for truecolor at offset %d, want 6",
				len(payload), off)
		}
	default:
		return errorf(ErrBadChunk, "tRNS not allowed for color type %s at offset %d",
			hdr.ColorType, off)
	}
	return nil
}
