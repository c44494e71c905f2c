package raster

import "github.com/deepteams/raster/internal/png"

// decodePNG decodes a complete PNG file into an Image with its metadata
// bag.
func decodePNG(data []byte) (*Image, error) {
	res, err := png.Decode(data)
	if err != nil {
		return nil, err
	}

	img := &Image{
		Pix:    res.Pix,
		Width:  res.Width,
		Height: res.Height,
		Metadata: Metadata{
			ICC:  res.ICC,
			EXIF: res.EXIF,
		},
	}
	for _, c := range res.Unknown {
		img.Metadata.Unknown = append(img.Metadata.Unknown, Chunk{
			Name:    c.Type,
			Payload: c.Data,
			Offset:  c.Offset,
		})
	}
	return img, nil
}

// decodePNGConfig probes the IHDR. Alpha presence reflects the color type
// only; a tRNS chunk further down the file is not consulted.
func decodePNGConfig(data []byte) (Config, error) {
	hdr, err := png.DecodeConfig(data)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Width:    hdr.Width,
		Height:   hdr.Height,
		HasAlpha: hdr.ColorType == png.GrayscaleAlpha || hdr.ColorType == png.TrueColorAlpha,
		Format:   "png",
	}, nil
}
