package lossless

// colorCache is the VP8L color cache: a hash-addressed table of recently
// emitted ARGB values that the bitstream can reference by slot index.
type colorCache struct {
	colors    []uint32
	hashShift uint
}

// kHashMul is the multiplicative hash constant shared with the encoder side
// of the format.
const kHashMul = 0x1e35a7bd

// newColorCache allocates a cache with 2^hashBits slots; hashBits must be
// in [1, maxCacheBits].
func newColorCache(hashBits int) *colorCache {
	return &colorCache{
		colors:    make([]uint32, 1<<hashBits),
		hashShift: uint(32 - hashBits),
	}
}

// reuseColorCache resets an existing cache to hashBits slots, allocating
// only when the backing array is too small.
func reuseColorCache(existing *colorCache, hashBits int) *colorCache {
	size := 1 << hashBits
	if existing == nil || cap(existing.colors) < size {
		return newColorCache(hashBits)
	}
	existing.colors = existing.colors[:size]
	existing.hashShift = uint(32 - hashBits)
	for i := range existing.colors {
		existing.colors[i] = 0
	}
	return existing
}

func (c *colorCache) hash(argb uint32) int {
	return int((argb * kHashMul) >> c.hashShift)
}

// insert stores argb at its hashed slot.
func (c *colorCache) insert(argb uint32) {
	c.colors[c.hash(argb)] = argb
}

// lookup returns the value stored at the given slot index.
func (c *colorCache) lookup(key int) uint32 {
	return c.colors[key]
}
