package png

import (
	"bytes"
	"errors"
	"testing"
)

// applyFilter is the forward counterpart of ReverseFilters, used to build
// round-trip fixtures. Every scanline uses filter type ft.
func applyFilter(raw []byte, rowBytes, height, bpp int, ft byte) []byte {
	out := make([]byte, height*(1+rowBytes))
	var prev []byte
	for y := 0; y < height; y++ {
		src := raw[y*rowBytes : (y+1)*rowBytes]
		dst := out[y*(1+rowBytes):]
		dst[0] = ft
		dst = dst[1 : 1+rowBytes]
		for i := 0; i < rowBytes; i++ {
			var a, b, c byte
			if i >= bpp {
				a = src[i-bpp]
			}
			if prev != nil {
				b = prev[i]
				if i >= bpp {
					c = prev[i-bpp]
				}
			}
			switch ft {
			case filterNone:
				dst[i] = src[i]
			case filterSub:
				dst[i] = src[i] - a
			case filterUp:
				dst[i] = src[i] - b
			case filterAverage:
				dst[i] = src[i] - byte((int(a)+int(b))/2)
			case filterPaeth:
				dst[i] = src[i] - paeth(a, b, c)
			}
		}
		prev = src
	}
	return out
}

func TestReverseFilters_RoundTrip(t *testing.T) {
	const rowBytes, height, bpp = 12, 5, 3
	raw := make([]byte, rowBytes*height)
	for i := range raw {
		raw[i] = byte(i*7 + 13)
	}

	for ft := byte(0); ft <= 4; ft++ {
		filtered := applyFilter(raw, rowBytes, height, bpp, ft)
		got, err := ReverseFilters(filtered, rowBytes, height, bpp)
		if err != nil {
			t.Fatalf("filter %d: %v", ft, err)
		}
		if !bytes.Equal(got, raw) {
			t.Errorf("filter %d: round trip mismatch", ft)
		}
	}
}

func TestReverseFilters_RoundTrip_AllByteValues(t *testing.T) {
	// One 256-byte scanline covering every byte value, for each filter.
	raw := make([]byte, 256)
	for i := range raw {
		raw[i] = byte(i)
	}
	for ft := byte(0); ft <= 4; ft++ {
		filtered := applyFilter(raw, 256, 1, 4, ft)
		got, err := ReverseFilters(filtered, 256, 1, 4)
		if err != nil {
			t.Fatalf("filter %d: %v", ft, err)
		}
		if !bytes.Equal(got, raw) {
			t.Errorf("filter %d: round trip mismatch", ft)
		}
	}
}

func TestReverseFilters_Wraparound255(t *testing.T) {
	// Sub filter: 255 + 255 must wrap to 254, not clamp or widen.
	data := []byte{filterSub, 255, 255}
	got, err := ReverseFilters(data, 2, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 255 || got[1] != 254 {
		t.Fatalf("got [%d %d], want [255 254]", got[0], got[1])
	}
}

func TestReverseFilters_PaethTieOrder(t *testing.T) {
	// When |p-a| == |p-b| the left predictor must win, and up beats
	// upper-left on the second-level tie.
	if p := paeth(10, 10, 10); p != 10 {
		t.Errorf("paeth(10,10,10) = %d", p)
	}
	// p = 5+9-7 = 7: |7-5|=2, |7-9|=2, |7-7|=0 -> c wins.
	if p := paeth(5, 9, 7); p != 7 {
		t.Errorf("paeth(5,9,7) = %d, want 7", p)
	}
	// p = 4+8-6 = 6: pa=2, pb=2, pc=0 -> c; with c far, a ties b -> a.
	if p := paeth(4, 8, 200); p != 4 {
		t.Errorf("paeth(4,8,200) = %d, want 4 (left wins ties)", p)
	}
}

func TestReverseFilters_SizeMismatch(t *testing.T) {
	// Two rows of 1+4 bytes need exactly 10; one byte short or long must
	// be rejected.
	for _, n := range []int{9, 11} {
		if _, err := ReverseFilters(make([]byte, n), 4, 2, 1); !errors.Is(err, ErrBadData) {
			t.Fatalf("%d bytes: expected ErrBadData, got %v", n, err)
		}
	}
	if _, err := ReverseFilters(make([]byte, 10), 4, 2, 1); err != nil {
		t.Fatalf("10 bytes: %v", err)
	}
}

func TestReverseFilters_BadFilterType(t *testing.T) {
	data := []byte{5, 0, 0, 0, 0}
	if _, err := ReverseFilters(data, 4, 1, 1); !errors.Is(err, ErrBadFilter) {
		t.Fatalf("expected ErrBadFilter, got %v", err)
	}
}
