package png

import "testing"

func TestPassSize_1x1(t *testing.T) {
	// A 1x1 image has pixels only in pass 1.
	wantW := [7]int{1, 0, 1, 0, 1, 0, 1}
	wantH := [7]int{1, 1, 0, 1, 0, 1, 0}
	for pass := 0; pass < 7; pass++ {
		pw, ph := PassSize(pass, 1, 1)
		if pw != wantW[pass] || ph != wantH[pass] {
			t.Errorf("pass %d: %dx%d, want %dx%d", pass+1, pw, ph, wantW[pass], wantH[pass])
		}
		if pass != 0 && pw*ph != 0 {
			t.Errorf("pass %d: expected empty pass for 1x1", pass+1)
		}
	}
}

func TestPassSize_8x8(t *testing.T) {
	want := [7][2]int{
		{1, 1}, {1, 1}, {2, 1}, {2, 2}, {4, 2}, {4, 4}, {8, 4},
	}
	for pass := 0; pass < 7; pass++ {
		pw, ph := PassSize(pass, 8, 8)
		if pw != want[pass][0] || ph != want[pass][1] {
			t.Errorf("pass %d: %dx%d, want %dx%d", pass+1, pw, ph, want[pass][0], want[pass][1])
		}
	}
}

func TestDeinterlace_1x1(t *testing.T) {
	hdr := &Header{Width: 1, Height: 1, BitDepth: 8, ColorType: Grayscale, Interlace: 1}
	// Only pass 1 contributes: one scanline of filter byte + one sample.
	data := []byte{filterNone, 0x42}
	out, err := Deinterlace(data, hdr)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0] != 0x42 {
		t.Fatalf("out = %v, want [0x42]", out)
	}
}

// adam7PassMatrix is the reference pass assignment (1-based) of each
// pixel in an 8x8 Adam7 image.
var adam7PassMatrix = [8][8]byte{
	{1, 6, 4, 6, 2, 6, 4, 6},
	{7, 7, 7, 7, 7, 7, 7, 7},
	{5, 6, 5, 6, 5, 6, 5, 6},
	{7, 7, 7, 7, 7, 7, 7, 7},
	{3, 6, 4, 6, 3, 6, 4, 6},
	{7, 7, 7, 7, 7, 7, 7, 7},
	{5, 6, 5, 6, 5, 6, 5, 6},
	{7, 7, 7, 7, 7, 7, 7, 7},
}

func TestDeinterlace_8x8ReferenceLayout(t *testing.T) {
	hdr := &Header{Width: 8, Height: 8, BitDepth: 8, ColorType: Grayscale, Interlace: 1}

	// Build the interlaced stream: every pixel of pass k carries the
	// sample value k (1-based), all rows filter None.
	var data []byte
	for pass := 0; pass < 7; pass++ {
		pw, ph := PassSize(pass, 8, 8)
		for y := 0; y < ph; y++ {
			data = append(data, filterNone)
			for x := 0; x < pw; x++ {
				data = append(data, byte(pass+1))
			}
		}
	}

	out, err := Deinterlace(data, hdr)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if out[y*8+x] != adam7PassMatrix[y][x] {
				t.Errorf("(%d,%d) = %d, want pass %d", x, y, out[y*8+x], adam7PassMatrix[y][x])
			}
		}
	}
}

func TestDeinterlace_SubByteDepth(t *testing.T) {
	// 8x8 1-bit image with every pass pixel set: all output rows 0xFF.
	hdr := &Header{Width: 8, Height: 8, BitDepth: 1, ColorType: Grayscale, Interlace: 1}

	var data []byte
	for pass := 0; pass < 7; pass++ {
		pw, ph := PassSize(pass, 8, 8)
		prb := hdr.RowBytes(pw)
		for y := 0; y < ph; y++ {
			data = append(data, filterNone)
			row := make([]byte, prb)
			for x := 0; x < pw; x++ {
				row[x>>3] |= 1 << uint(7-(x&7))
			}
			data = append(data, row...)
		}
	}

	out, err := Deinterlace(data, hdr)
	if err != nil {
		t.Fatal(err)
	}
	for i, b := range out {
		if b != 0xFF {
			t.Fatalf("row byte %d = %#02x, want 0xFF", i, b)
		}
	}
}

func TestDeinterlace_Truncated(t *testing.T) {
	hdr := &Header{Width: 8, Height: 8, BitDepth: 8, ColorType: Grayscale, Interlace: 1}
	if _, err := Deinterlace([]byte{filterNone, 1}, hdr); err == nil {
		t.Fatal("expected error for truncated interlaced stream")
	}
}
