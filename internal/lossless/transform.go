package lossless

// transformType enumerates the four VP8L image transforms.
type transformType int

const (
	predictorTransform     transformType = 0
	crossColorTransform    transformType = 1
	subtractGreenTransform transformType = 2
	colorIndexingTransform transformType = 3
)

// transform carries the parameters of one transform as read from the
// bitstream. Data holds the per-tile modes, the color-transform codes or
// the expanded palette, depending on Type.
type transform struct {
	Type  transformType
	Bits  int
	XSize int
	YSize int
	Data  []uint32
}
