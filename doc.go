// Package raster provides pure Go decoders for PNG and WebP still images.
//
// Both formats decode to straight-alpha RGBA8888 buffers. The bitstream
// decoders (PNG filters, VP8, VP8L, alpha plane) are implemented in this
// module without cgo or an external codec; only DEFLATE decompression is
// delegated, to github.com/klauspost/compress/zlib.
//
// The package registers itself with the standard library's image package,
// so image.Decode can transparently read both formats:
//
//	img, _, err := image.Decode(reader)
//
// The native entry points operate on byte slices and expose container
// metadata (ICC, EXIF, XMP, unknown chunks) alongside the pixels:
//
//	img, err := raster.Decode(data)
//
// Animated WebP files are parsed structurally but not played back;
// decoding one fails with an unsupported-feature error.
package raster
