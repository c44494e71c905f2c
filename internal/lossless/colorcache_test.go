package lossless

import "testing"

func TestNewColorCache(t *testing.T) {
	for bits := 1; bits <= maxCacheBits; bits++ {
		cc := newColorCache(bits)
		if len(cc.colors) != 1<<bits {
			t.Errorf("bits %d: len = %d, want %d", bits, len(cc.colors), 1<<bits)
		}
		if cc.hashShift != uint(32-bits) {
			t.Errorf("bits %d: hashShift = %d, want %d", bits, cc.hashShift, 32-bits)
		}
	}
}

func TestColorCacheInsertLookup(t *testing.T) {
	cc := newColorCache(8)

	colors := []uint32{0xff000000, 0xff0000ff, 0xffff0000, 0xff00ff00, 0xffffffff}
	for _, c := range colors {
		cc.insert(c)
	}
	for _, c := range colors {
		if got := cc.lookup(cc.hash(c)); got != c {
			t.Errorf("lookup(hash(%08x)) = %08x", c, got)
		}
	}
}

func TestColorCacheHashDeterministic(t *testing.T) {
	cc := newColorCache(8)
	argb := uint32(0xffeeddcc)
	h := cc.hash(argb)
	if h != cc.hash(argb) {
		t.Fatal("hash not deterministic")
	}
	if h < 0 || h >= len(cc.colors) {
		t.Fatalf("hash out of range: %d", h)
	}
}

func TestReuseColorCache(t *testing.T) {
	cc := newColorCache(8)
	cc.insert(0x12345678)

	// Same size: backing array is reused and cleared.
	reused := reuseColorCache(cc, 8)
	if &reused.colors[0] != &cc.colors[0] {
		t.Error("expected backing array to be reused")
	}
	for i, c := range reused.colors {
		if c != 0 {
			t.Fatalf("colors[%d] = %08x after reset, want 0", i, c)
		}
	}

	// Larger size forces a fresh allocation.
	grown := reuseColorCache(cc, 10)
	if len(grown.colors) != 1<<10 {
		t.Errorf("len = %d, want %d", len(grown.colors), 1<<10)
	}

	if fresh := reuseColorCache(nil, 4); len(fresh.colors) != 16 {
		t.Errorf("nil reuse: len = %d, want 16", len(fresh.colors))
	}
}
