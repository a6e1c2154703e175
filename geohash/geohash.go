// Package geohash converts coordinates to and from geohash strings.
//
// A geohash is a base32 string naming a rectangular cell. Each character adds
// five bits of precision, alternating between longitude and latitude and
// starting with longitude. Encoding quantizes both axes to 32 bits and
// interleaves them into a 64-bit Morton code, so hashes of up to MaxLength
// characters are supported.
//
// All functions are safe for concurrent use.
package geohash

import (
	"math"
	"strings"
)

// Coord is a longitude (X) and latitude (Y) pair in degrees.
type Coord struct {
	X float64 `json:"lon"`
	Y float64 `json:"lat"`
}

// Valid reports whether c is finite and inside [-180, 180] x [-90, 90].
// NaN fails every comparison, so it is rejected by the range checks.
func (c Coord) Valid() bool {
	return c.X >= -lonRange && c.X <= lonRange &&
		c.Y >= -latRange && c.Y <= latRange
}

// Rect is the cell spanned by a geohash.
type Rect struct {
	Min Coord `json:"min"`
	Max Coord `json:"max"`
}

// Center returns the midpoint of r.
func (r Rect) Center() Coord {
	return Coord{X: (r.Min.X + r.Max.X) / 2, Y: (r.Min.Y + r.Max.Y) / 2}
}

// Width is the longitude span of r.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height is the latitude span of r.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Contains reports whether c lies inside r, edges included.
func (r Rect) Contains(c Coord) bool {
	return c.X >= r.Min.X && c.X <= r.Max.X && c.Y >= r.Min.Y && c.Y <= r.Max.Y
}

// Union returns the smallest rectangle covering r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		Min: Coord{X: math.Min(r.Min.X, o.Min.X), Y: math.Min(r.Min.Y, o.Min.Y)},
		Max: Coord{X: math.Max(r.Max.X, o.Max.X), Y: math.Max(r.Max.Y, o.Max.Y)},
	}
}

// Encode returns the geohash of c with the given number of characters.
func Encode(c Coord, length int) (string, error) {
	if length < 1 || length > MaxLength {
		return "", &LengthError{Length: length}
	}
	if !c.Valid() {
		return "", &CoordinateRangeError{Coord: c}
	}

	code := interleave(quantize(c.Y, latRange), quantize(c.X, lonRange))

	var sb strings.Builder
	sb.Grow(length)
	for i := 0; i < length; i++ {
		sb.WriteByte(alphabet[code>>(64-bitsPerChar)])
		code <<= bitsPerChar
	}
	return sb.String(), nil
}

// DecodeBbox returns the cell denoted by hash.
func DecodeBbox(hash string) (Rect, error) {
	if len(hash) == 0 {
		return Rect{}, &HashError{Hash: hash, Reason: "empty hash string"}
	}
	if len(hash) > MaxLength {
		return Rect{}, &HashError{Hash: hash, Reason: "length of hash string greater than maximum allowed length"}
	}

	var code uint64
	for i := 0; i < len(hash); i++ {
		v := decodeTable[hash[i]]
		if v == invalid {
			return Rect{}, &HashCharacterError{Char: hash[i], Offset: i}
		}
		code = code<<bitsPerChar | uint64(v)
	}

	bits := len(hash) * bitsPerChar
	lat32, lon32 := deinterleave(code << (64 - bits))
	lat := dequantize(lat32, latRange)
	lon := dequantize(lon32, lonRange)
	latErr, lonErr := precisionError(bits)

	return Rect{
		Min: Coord{X: lon, Y: lat},
		Max: Coord{X: lon + lonErr, Y: lat + latErr},
	}, nil
}

// Decode returns the center of the cell denoted by hash together with the
// largest distance, per axis, between that center and any point in the cell.
func Decode(hash string) (c Coord, lonErr, latErr float64, err error) {
	r, err := DecodeBbox(hash)
	if err != nil {
		return Coord{}, 0, 0, err
	}
	return r.Center(), r.Width() / 2, r.Height() / 2, nil
}

// Validate reports whether hash can be decoded.
func Validate(hash string) error {
	_, err := DecodeBbox(hash)
	return err
}
