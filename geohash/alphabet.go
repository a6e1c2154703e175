package geohash

const (
	// MaxLength is the longest geohash that fits into a 64-bit Morton code.
	MaxLength = 12

	bitsPerChar = 5
	invalid     = 0xff
)

// alphabet maps a 5-bit group to its geohash character.
const alphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

// decodeTable maps a byte back to its 5-bit group, or invalid.
var decodeTable = func() (t [256]byte) {
	for i := range t {
		t[i] = invalid
	}
	for i := 0; i < len(alphabet); i++ {
		t[alphabet[i]] = byte(i)
	}
	return t
}()
