package dsp

import "testing"

func TestLoadUV(t *testing.T) {
	tests := []struct {
		u, v byte
		want uint32
	}{
		{0, 0, 0x00000000},
		{128, 128, 0x00800080},
		{255, 0, 0x000000ff},
		{0, 255, 0x00ff0000},
		{100, 200, 0x00c80064},
	}
	for _, tt := range tests {
		if got := loadUV(tt.u, tt.v); got != tt.want {
			t.Errorf("loadUV(%d, %d) = 0x%08x, want 0x%08x", tt.u, tt.v, got, tt.want)
		}
	}
}

func checkPixel(t *testing.T, label string, dst []byte, y, u, v int) {
	t.Helper()
	var want [3]byte
	YUVToRGB(y, u, v, want[:])
	if dst[0] != want[0] || dst[1] != want[1] || dst[2] != want[2] {
		t.Errorf("%s: got RGB(%d,%d,%d), want RGB(%d,%d,%d) for Y=%d U=%d V=%d",
			label, dst[0], dst[1], dst[2], want[0], want[1], want[2], y, u, v)
	}
}

// TestDiamondKernelValues checks the interior interpolation against
// hand-computed chroma values.
//
// For the interior pair at x=1 with U samples tl=80 t=160 l=120 cur=240:
//
//	avg    = 80+160+120+240+8 = 608
//	diag12 = (608 + 2*(160+120)) >> 3 = 146
//	diag03 = (608 + 2*(80+240)) >> 3  = 156
//	top[1] = (146+80)>>1 = 113    top[2] = (156+160)>>1 = 158
//	bot[1] = (156+120)>>1 = 138   bot[2] = (146+240)>>1 = 193
func TestDiamondKernelValues(t *testing.T) {
	width := 4
	topY := []byte{128, 128, 128, 128}
	botY := []byte{128, 128, 128, 128}
	topU := []byte{80, 160}
	topV := []byte{80, 160}
	botU := []byte{120, 240}
	botV := []byte{120, 240}

	topDst := make([]byte, width*3)
	botDst := make([]byte, width*3)
	UpsampleLinePair(topY, botY, topU, topV, botU, botV, topDst, botDst, width)

	checkPixel(t, "top[1]", topDst[3:6], 128, 113, 113)
	checkPixel(t, "top[2]", topDst[6:9], 128, 158, 158)
	checkPixel(t, "bot[1]", botDst[3:6], 128, 138, 138)
	checkPixel(t, "bot[2]", botDst[6:9], 128, 193, 193)
}

func TestUpsampleLinePair_SinglePixel(t *testing.T) {
	topY := []byte{128}
	chroma := []byte{128}
	topDst := make([]byte, 3)

	UpsampleLinePair(topY, nil, chroma, chroma, chroma, chroma, topDst, nil, 1)

	// Edge formula: (3*128 + 128 + 2) >> 2 = 128.
	checkPixel(t, "width=1", topDst, 128, 128, 128)
}

func TestUpsampleLinePair_EvenWidthTrailingPixel(t *testing.T) {
	width := 6
	y := make([]byte, width)
	for i := range y {
		y[i] = 128
	}
	u := []byte{100, 150, 200}
	v := []byte{100, 150, 200}

	topDst := make([]byte, width*3)
	botDst := make([]byte, width*3)
	UpsampleLinePair(y, y, u, v, u, v, topDst, botDst, width)

	// After the interior loop tlUV == lUV == 200; the trailing pixel uses
	// (3*200 + 200 + 2) >> 2 = 200.
	checkPixel(t, "last pixel", topDst[(width-1)*3:], 128, 200, 200)
}

func TestUpsampleLinePairNRGBA_MatchesRGBWithAlpha(t *testing.T) {
	width := 4
	topY := []byte{100, 120, 140, 160}
	botY := []byte{110, 130, 150, 170}
	topU := []byte{80, 160}
	topV := []byte{90, 170}
	botU := []byte{120, 200}
	botV := []byte{130, 210}

	topRGB := make([]byte, width*3)
	botRGB := make([]byte, width*3)
	UpsampleLinePair(topY, botY, topU, topV, botU, botV, topRGB, botRGB, width)

	topRGBA := make([]byte, width*4)
	botRGBA := make([]byte, width*4)
	UpsampleLinePairNRGBA(topY, botY, topU, topV, botU, botV, topRGBA, botRGBA, width)

	for x := 0; x < width; x++ {
		for c := 0; c < 3; c++ {
			if topRGBA[x*4+c] != topRGB[x*3+c] || botRGBA[x*4+c] != botRGB[x*3+c] {
				t.Fatalf("pixel %d channel %d differs between RGB and RGBA output", x, c)
			}
		}
		if topRGBA[x*4+3] != 255 || botRGBA[x*4+3] != 255 {
			t.Fatalf("pixel %d: alpha not 255", x)
		}
	}
}

func TestUpsampleLinePair_OddWidthLastRow(t *testing.T) {
	width := 5
	y := make([]byte, width)
	for i := range y {
		y[i] = 128
	}
	u := []byte{100, 150, 200}
	v := []byte{100, 150, 200}
	topDst := make([]byte, width*3)

	// Last row of an odd-height image: botY nil must not panic.
	UpsampleLinePair(y, nil, u, v, u, v, topDst, nil, width)
}
