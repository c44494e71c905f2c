package lossy

import (
	"fmt"

	"github.com/deepteams/raster/internal/lossless"
)

// Alpha compression methods.
const (
	alphaNoCompression       = 0
	alphaLosslessCompression = 1
)

// Alpha filtering methods.
const (
	alphaFilterNone       = 0
	alphaFilterHorizontal = 1
	alphaFilterVertical   = 2
	alphaFilterGradient   = 3
)

// DecodeAlpha decodes an ALPH chunk payload into a width*height alpha
// plane. The one-byte header carries the compression method (bits 0-1),
// preprocessing (bits 2-3), the filtering method (bits 4-5) and reserved
// bits (6-7) that must be zero.
func DecodeAlpha(data []byte, width, height int) ([]byte, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("ALPH: empty chunk")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("ALPH: invalid dimensions %dx%d", width, height)
	}
	area := uint64(width) * uint64(height)
	if area > 1<<30 {
		return nil, fmt.Errorf("ALPH: plane too large (%dx%d)", width, height)
	}

	header := data[0]
	method := int(header & 0x03)
	filtering := int(header >> 4 & 0x03)
	if header>>6 != 0 {
		return nil, fmt.Errorf("ALPH: reserved bits must be 0, got %d", header>>4)
	}

	payload := data[1:]
	planeSize := int(area)

	var plane []byte
	switch method {
	case alphaNoCompression:
		if len(payload) != planeSize {
			return nil, fmt.Errorf("ALPH: alpha plane is %d bytes, want %d", len(payload), planeSize)
		}
		plane = make([]byte, planeSize)
		copy(plane, payload)

	case alphaLosslessCompression:
		// A headerless VP8L stream with the samples in the green channel.
		var err error
		plane, err = lossless.DecodeAlpha(payload, width, height)
		if err != nil {
			return nil, fmt.Errorf("ALPH: %w", err)
		}

	default:
		return nil, fmt.Errorf("ALPH: compression method %d not yet implemented", method)
	}

	switch filtering {
	case alphaFilterNone:
	case alphaFilterHorizontal:
		unfilterHorizontal(plane, width, height)
	case alphaFilterVertical:
		unfilterVertical(plane, width, height)
	case alphaFilterGradient:
		unfilterGradient(plane, width, height)
	}

	return plane, nil
}

// unfilterHorizontal adds the left neighbor back to every sample. Rows
// after the first seed their first sample from the row above.
func unfilterHorizontal(data []byte, width, height int) {
	for y := 0; y < height; y++ {
		row := data[y*width : (y+1)*width]
		if y > 0 {
			row[0] += data[(y-1)*width]
		}
		for x := 1; x < width; x++ {
			row[x] += row[x-1]
		}
	}
}

// unfilterVertical adds the sample directly above. The first row, having
// no predecessor, unfilters horizontally.
func unfilterVertical(data []byte, width, height int) {
	unfilterRow(data[:width])
	for y := 1; y < height; y++ {
		curr := data[y*width : (y+1)*width]
		prev := data[(y-1)*width : y*width]
		for x := 0; x < width; x++ {
			curr[x] += prev[x]
		}
	}
}

func unfilterRow(row []byte) {
	for x := 1; x < len(row); x++ {
		row[x] += row[x-1]
	}
}

// unfilterGradient adds the clamped gradient predictor left+top-topLeft.
// The first row unfilters horizontally.
func unfilterGradient(data []byte, width, height int) {
	unfilterRow(data[:width])
	for y := 1; y < height; y++ {
		curr := data[y*width : (y+1)*width]
		prev := data[(y-1)*width : y*width]
		top := prev[0]
		topLeft := top
		left := top
		for x := 0; x < width; x++ {
			top = prev[x]
			pred := int(left) + int(top) - int(topLeft)
			if pred < 0 {
				pred = 0
			} else if pred > 255 {
				pred = 255
			}
			left = curr[x] + byte(pred)
			topLeft = top
			curr[x] = left
		}
	}
}
