package geohash

// Masks for spreading 32 bits over the even positions of a 64-bit word.
// From: https://graphics.stanford.edu/~seander/bithacks.html#InterleaveBMN
const (
	mask1  = 0x5555555555555555
	mask2  = 0x3333333333333333
	mask4  = 0x0f0f0f0f0f0f0f0f
	mask8  = 0x00ff00ff00ff00ff
	mask16 = 0x0000ffff0000ffff
	mask32 = 0x00000000ffffffff
)

// spread deposits the bits of v into the even bit positions of the result.
func spread(v uint32) uint64 {
	x := uint64(v)
	x = (x | x<<16) & mask16
	x = (x | x<<8) & mask8
	x = (x | x<<4) & mask4
	x = (x | x<<2) & mask2
	x = (x | x<<1) & mask1
	return x
}

// squash gathers the even bit positions of v into a 32-bit value.
func squash(v uint64) uint32 {
	x := v & mask1
	x = (x | x>>1) & mask2
	x = (x | x>>2) & mask4
	x = (x | x>>4) & mask8
	x = (x | x>>8) & mask16
	x = (x | x>>16) & mask32
	return uint32(x)
}

// interleave builds a Morton code with latitude bits at even positions and
// longitude bits at odd positions, so the most significant bit is longitude.
func interleave(lat, lon uint32) uint64 {
	return spread(lat) | spread(lon)<<1
}

func deinterleave(v uint64) (lat, lon uint32) {
	return squash(v), squash(v >> 1)
}
