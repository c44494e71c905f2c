package raster

import (
	"github.com/deepteams/raster/internal/container"
	"github.com/deepteams/raster/internal/dsp"
	"github.com/deepteams/raster/internal/lossless"
	"github.com/deepteams/raster/internal/lossy"
)

// decodeWebP decodes a complete WebP file into an Image with its metadata
// bag. Animated files are rejected after the structural container parse.
func decodeWebP(data []byte) (*Image, error) {
	p, err := container.Parse(data)
	if err != nil {
		return nil, err
	}
	if p.Features().HasAnim {
		return nil, container.ErrAnimation
	}

	frame := p.Frame()
	var img *Image
	if frame.IsLossless {
		img, err = decodeWebPLossless(frame.Payload)
	} else {
		img, err = decodeWebPLossy(frame)
	}
	if err != nil {
		return nil, err
	}

	img.Metadata = Metadata{
		ICC:  p.ICC(),
		EXIF: p.EXIF(),
		XMP:  p.XMP(),
	}
	for _, c := range p.Unknown() {
		img.Metadata.Unknown = append(img.Metadata.Unknown, Chunk{
			Name:    container.FourCCString(c.FourCC),
			Payload: c.Payload,
			Offset:  c.Offset,
		})
	}
	return img, nil
}

// decodeWebPConfig probes the container headers without decoding pixels.
func decodeWebPConfig(data []byte) (Config, error) {
	p, err := container.Parse(data)
	if err != nil {
		return Config{}, err
	}
	feat := p.Features()
	return Config{
		Width:    feat.Width,
		Height:   feat.Height,
		HasAlpha: feat.HasAlpha,
		Format:   "webp",
	}, nil
}

func decodeWebPLossless(payload []byte) (*Image, error) {
	li, err := lossless.Decode(payload)
	if err != nil {
		return nil, err
	}
	return &Image{Pix: li.Pix, Width: li.Width, Height: li.Height}, nil
}

// decodeWebPLossy decodes a VP8 bitstream plus its optional ALPH plane
// into straight-alpha RGBA.
//
// Chroma upsampling uses the diamond-shaped 4-tap kernel, processing luma
// rows in overlapping pairs so each output row interpolates between its
// two bracketing chroma rows.
func decodeWebPLossy(frame *container.FrameInfo) (*Image, error) {
	f, err := lossy.DecodeFrame(frame.Payload)
	if err != nil {
		return nil, err
	}
	defer f.Release()

	width, height := f.Width, f.Height

	var alphaPlane []byte
	if frame.AlphaData != nil {
		alphaPlane, err = lossy.DecodeAlpha(frame.AlphaData, width, height)
		if err != nil {
			return nil, err
		}
	}

	pix := make([]byte, width*height*4)

	yRow := func(row int) []byte {
		off := row * f.YStride
		return f.Y[off : off+width]
	}
	uRow := func(row int) []byte {
		off := row * f.UVStride
		return f.U[off : off+(width+1)/2]
	}
	vRow := func(row int) []byte {
		off := row * f.UVStride
		return f.V[off : off+(width+1)/2]
	}
	dstRow := func(row int) []byte {
		off := row * width * 4
		return pix[off : off+width*4]
	}

	// Row 0 alone, with the first chroma row mirrored above itself.
	dsp.UpsampleLinePairNRGBA(
		yRow(0), nil,
		uRow(0), vRow(0),
		uRow(0), vRow(0),
		dstRow(0), nil,
		width,
	)

	// Overlapping pairs (1,2), (3,4), ... between adjacent chroma rows.
	y := 0
	for y+2 < height {
		chromaTop := y / 2
		dsp.UpsampleLinePairNRGBA(
			yRow(y+1), yRow(y+2),
			uRow(chromaTop), vRow(chromaTop),
			uRow(chromaTop+1), vRow(chromaTop+1),
			dstRow(y+1), dstRow(y+2),
			width,
		)
		y += 2
	}

	// Even heights leave a final row, again with mirrored chroma.
	if height > 1 && height&1 == 0 {
		lastChroma := (height - 1) / 2
		dsp.UpsampleLinePairNRGBA(
			yRow(height-1), nil,
			uRow(lastChroma), vRow(lastChroma),
			uRow(lastChroma), vRow(lastChroma),
			dstRow(height-1), nil,
			width,
		)
	}

	if alphaPlane != nil {
		dsp.DispatchAlpha(alphaPlane, width, width, height, pix, width*4)
	}

	return &Image{Pix: pix, Width: width, Height: height}, nil
}
