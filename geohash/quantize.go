package geohash

import "math"

const (
	latRange = 90.0
	lonRange = 180.0

	// exponent bits of a float64 in [1, 2)
	unitExponent = 1023 << 52
	// low mantissa bits dropped when keeping 32 bits of precision
	mantissaShift = 20
)

// quantize maps c in [-r, r] onto a 32-bit fixed-point value that grows with c.
//
// c/(2r)+1.5 lies in [1, 2), where every float64 shares the same exponent, so
// the top 32 mantissa bits are an order-preserving fixed-point fraction.
// c must already be range checked.
func quantize(c, r float64) uint32 {
	p := c/(2*r) + 1.5
	if p >= 2 {
		// c == r would carry into the exponent and wrap to zero.
		return math.MaxUint32
	}
	return uint32(math.Float64bits(p) >> mantissaShift)
}

// dequantize returns the lower edge of the cell q denotes on an axis of
// half-range r.
func dequantize(q uint32, r float64) float64 {
	p := math.Float64frombits(uint64(q)<<mantissaShift | unitExponent)
	return 2*r*(p-1) - r
}

// precisionError reports the cell height and width for a hash of the given
// number of bits. Longitude takes the extra bit when bits is odd.
func precisionError(bits int) (latErr, lonErr float64) {
	latBits := bits / 2
	lonBits := bits - latBits
	return math.Ldexp(2*latRange, -latBits), math.Ldexp(2*lonRange, -lonBits)
}
