package dsp

import "testing"

func TestTransformDC(t *testing.T) {
	dst := make([]byte, 4*BPS)
	for i := range dst {
		dst[i] = 100
	}
	in := make([]int16, 16)
	in[0] = 80 // (80 + 4) >> 3 = 10 added to each sample

	TransformDC(in, dst)

	for j := 0; j < 4; j++ {
		for i := 0; i < 4; i++ {
			if got := dst[i+j*BPS]; got != 110 {
				t.Fatalf("(%d,%d) = %d, want 110", i, j, got)
			}
		}
	}
	// Samples outside the 4x4 block stay untouched.
	if dst[4] != 100 || dst[5+BPS] != 100 {
		t.Fatal("samples outside the block were modified")
	}
}

func TestTransformTwo_MatchesDCOnlyInput(t *testing.T) {
	// With only the DC coefficient set, the full IDCT must agree with the
	// DC shortcut.
	in := make([]int16, 16)
	in[0] = 123

	full := make([]byte, 4*BPS)
	short := make([]byte, 4*BPS)
	for i := range full {
		full[i] = 50
		short[i] = 50
	}

	TransformTwo(in, full, false)
	TransformDC(in, short)

	for j := 0; j < 4; j++ {
		for i := 0; i < 4; i++ {
			if full[i+j*BPS] != short[i+j*BPS] {
				t.Fatalf("(%d,%d): full=%d dc=%d", i, j, full[i+j*BPS], short[i+j*BPS])
			}
		}
	}
}

func TestTransformAC3_MatchesFullIDCT(t *testing.T) {
	// Coefficients 0, 1 and 4 set: the AC3 shortcut must match the full
	// transform.
	in := make([]int16, 16)
	in[0] = 40
	in[1] = -17
	in[4] = 25

	full := make([]byte, 4*BPS)
	short := make([]byte, 4*BPS)
	for i := range full {
		full[i] = 128
		short[i] = 128
	}

	TransformTwo(in, full, false)
	TransformAC3(in, short)

	for j := 0; j < 4; j++ {
		for i := 0; i < 4; i++ {
			if full[i+j*BPS] != short[i+j*BPS] {
				t.Fatalf("(%d,%d): full=%d ac3=%d", i, j, full[i+j*BPS], short[i+j*BPS])
			}
		}
	}
}

func TestTransformWHT_DCOnly(t *testing.T) {
	in := make([]int16, 16)
	in[0] = 64
	out := make([]int16, 16*16)

	TransformWHT(in, out)

	// A DC-only WHT spreads the value evenly: each block DC gets
	// ((64+3) ... ) — first row carries the rounding, so verify all 16
	// outputs agree within the known pattern instead: sum must equal the
	// transform of a constant input.
	var sum int
	for i := 0; i < 16; i++ {
		sum += int(out[i*16])
	}
	// Inverse WHT of a lone DC=64: each output is 64/4 = 16 before the
	// >>3, i.e. (64+3)>>3 = 8 for row 0 and 64>>3 = 8 elsewhere.
	for i := 0; i < 16; i++ {
		if out[i*16] != 8 {
			t.Fatalf("block %d DC = %d, want 8", i, out[i*16])
		}
	}
	if sum != 128 {
		t.Fatalf("sum = %d, want 128", sum)
	}
}

func TestClip8b(t *testing.T) {
	cases := []struct {
		in   int
		want uint8
	}{
		{-1000, 0}, {-1, 0}, {0, 0}, {128, 128}, {255, 255}, {256, 255}, {1000, 255},
	}
	for _, c := range cases {
		if got := Clip8b(c.in); got != c.want {
			t.Errorf("Clip8b(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}
