package png

import "github.com/deepteams/raster/internal/pool"

// Scanline filter types.
const (
	filterNone    = 0
	filterSub     = 1
	filterUp      = 2
	filterAverage = 3
	filterPaeth   = 4
)

// ReverseFilters reconstructs the raw scanlines of a (sub-)image from its
// filtered form. data must hold exactly height scanlines of 1+rowBytes
// bytes each: a leading filter-type byte followed by the filtered bytes.
// bpp is the filter unit, the byte distance between corresponding bytes
// of horizontally adjacent pixels.
//
// The returned buffer is the concatenation of all reconstructed scanlines
// with the filter bytes stripped; it is drawn from the shared byte pool
// and every byte is overwritten. All filter arithmetic is 8-bit modular.
func ReverseFilters(data []byte, rowBytes, height, bpp int) ([]byte, error) {
	if rowBytes < 1 || height < 1 || bpp < 1 {
		return nil, errorf(ErrBadData, "invalid filter geometry %dx%d bpp %d", rowBytes, height, bpp)
	}
	if len(data) != height*(1+rowBytes) {
		return nil, errorf(ErrBadData, "filtered data is %d bytes, want %d (%d rows of 1+%d)",
			len(data), height*(1+rowBytes), height, rowBytes)
	}

	out := pool.Get(height * rowBytes)
	var prev []byte

	for y := 0; y < height; y++ {
		in := data[y*(1+rowBytes):]
		ft := in[0]
		src := in[1 : 1+rowBytes]
		dst := out[y*rowBytes : (y+1)*rowBytes]

		switch ft {
		case filterNone:
			copy(dst, src)

		case filterSub:
			copy(dst[:bpp], src[:bpp])
			for i := bpp; i < rowBytes; i++ {
				dst[i] = src[i] + dst[i-bpp]
			}

		case filterUp:
			if prev == nil {
				copy(dst, src)
			} else {
				for i := 0; i < rowBytes; i++ {
					dst[i] = src[i] + prev[i]
				}
			}

		case filterAverage:
			if prev == nil {
				copy(dst[:bpp], src[:bpp])
				for i := bpp; i < rowBytes; i++ {
					dst[i] = src[i] + dst[i-bpp]/2
				}
			} else {
				for i := 0; i < bpp; i++ {
					dst[i] = src[i] + prev[i]/2
				}
				for i := bpp; i < rowBytes; i++ {
					dst[i] = src[i] + byte((int(dst[i-bpp])+int(prev[i]))/2)
				}
			}

		case filterPaeth:
			if prev == nil {
				// With no row above, Paeth degenerates to Sub.
				copy(dst[:bpp], src[:bpp])
				for i := bpp; i < rowBytes; i++ {
					dst[i] = src[i] + dst[i-bpp]
				}
			} else {
				for i := 0; i < bpp; i++ {
					dst[i] = src[i] + paeth(0, prev[i], 0)
				}
				for i := bpp; i < rowBytes; i++ {
					dst[i] = src[i] + paeth(dst[i-bpp], prev[i], prev[i-bpp])
				}
			}

		default:
			return nil, errorf(ErrBadFilter, "type %d on scanline %d", ft, y)
		}

		prev = dst
	}
	return out, nil
}

// paeth returns whichever of a (left), b (up), c (upper-left) is closest
// to the predictor a+b-c, breaking ties in left/up/upper-left order.
func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
