package lossy

import (
	"bytes"
	"strings"
	"testing"
)

func TestDecodeAlphaRaw(t *testing.T) {
	data := []byte{0x00, 0x80, 0x80, 0x80, 0x80}
	plane, err := DecodeAlpha(data, 2, 2)
	if err != nil {
		t.Fatalf("DecodeAlpha: %v", err)
	}
	if want := []byte{0x80, 0x80, 0x80, 0x80}; !bytes.Equal(plane, want) {
		t.Errorf("plane = %v, want %v", plane, want)
	}
}

func TestDecodeAlphaReservedBits(t *testing.T) {
	data := []byte{0xF0, 0x00, 0x00, 0x00, 0x00}
	_, err := DecodeAlpha(data, 2, 2)
	if err == nil {
		t.Fatal("expected error for non-zero reserved bits")
	}
	if got, want := err.Error(), "ALPH: reserved bits must be 0, got 15"; got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
}

func TestDecodeAlphaErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		w, h   int
		substr string
	}{
		{"empty chunk", nil, 2, 2, "empty chunk"},
		{"zero width", []byte{0x00}, 0, 2, "invalid dimensions"},
		{"negative height", []byte{0x00}, 2, -1, "invalid dimensions"},
		{"short raw plane", []byte{0x00, 0x80, 0x80}, 2, 2, "want 4"},
		{"long raw plane", []byte{0x00, 1, 2, 3, 4, 5}, 2, 2, "want 4"},
		{"reserved method 2", []byte{0x02, 0x00}, 2, 2, "method 2 not yet implemented"},
		{"reserved method 3", []byte{0x03, 0x00}, 2, 2, "method 3 not yet implemented"},
		{"truncated lossless payload", []byte{0x01}, 2, 2, "ALPH: VP8L:"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeAlpha(tc.data, tc.w, tc.h)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.HasPrefix(err.Error(), "ALPH:") {
				t.Errorf("error %q does not carry the ALPH: prefix", err)
			}
			if !strings.Contains(err.Error(), tc.substr) {
				t.Errorf("error = %q, want substring %q", err, tc.substr)
			}
		})
	}
}

// The filtered payloads below were derived by hand from the 3x2 plane
// {10,20,30, 40,50,60} by applying the corresponding forward filter.
func TestDecodeAlphaFiltering(t *testing.T) {
	want := []byte{10, 20, 30, 40, 50, 60}
	tests := []struct {
		name      string
		filtering byte
		payload   []byte
	}{
		{"horizontal", alphaFilterHorizontal, []byte{10, 10, 10, 30, 10, 10}},
		{"vertical", alphaFilterVertical, []byte{10, 10, 10, 30, 30, 30}},
		{"gradient", alphaFilterGradient, []byte{10, 10, 10, 30, 0, 0}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data := append([]byte{tc.filtering << 4}, tc.payload...)
			plane, err := DecodeAlpha(data, 3, 2)
			if err != nil {
				t.Fatalf("DecodeAlpha: %v", err)
			}
			if !bytes.Equal(plane, want) {
				t.Errorf("plane = %v, want %v", plane, want)
			}
		})
	}
}

func TestUnfilterGradientClamps(t *testing.T) {
	// left + top - topLeft overflows past 255 at (1,1): the predictor must
	// clamp before the residual is added.
	data := []byte{100, 150, 100, 0}
	unfilterGradient(data, 2, 2)
	// Row 0 unfilters to {100, 250}. Row 1: first sample 100+100=200, then
	// pred = clamp(200+250-100) = 255 and the residual is 0.
	if want := []byte{100, 250, 200, 255}; !bytes.Equal(data, want) {
		t.Errorf("plane = %v, want %v", data, want)
	}
}
