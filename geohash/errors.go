package geohash

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCoordinateRange is returned for coordinates outside
	// [-180, 180] x [-90, 90] or that are not finite.
	ErrInvalidCoordinateRange = errors.New("invalid coordinate range")
	// ErrInvalidLength is returned when an encode length is outside [1, MaxLength].
	ErrInvalidLength = errors.New("invalid length")
	// ErrInvalidHashCharacter is returned when a hash holds a byte outside the alphabet.
	ErrInvalidHashCharacter = errors.New("invalid hash character")
	// ErrInvalidHash is returned for structurally invalid hashes.
	ErrInvalidHash = errors.New("invalid hash")
)

// CoordinateRangeError carries the coordinate that failed validation.
type CoordinateRangeError struct {
	Coord Coord
}

func (e *CoordinateRangeError) Error() string {
	return fmt.Sprintf("%v: lon=%v lat=%v", ErrInvalidCoordinateRange, e.Coord.X, e.Coord.Y)
}

func (e *CoordinateRangeError) Is(target error) bool { return target == ErrInvalidCoordinateRange }

// LengthError carries the requested encode length.
type LengthError struct {
	Length int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("%v: %d not in [1, %d]", ErrInvalidLength, e.Length, MaxLength)
}

func (e *LengthError) Is(target error) bool { return target == ErrInvalidLength }

// HashCharacterError carries the offending byte and its offset in the hash.
type HashCharacterError struct {
	Char   byte
	Offset int
}

func (e *HashCharacterError) Error() string {
	return fmt.Sprintf("%v: %q at offset %d", ErrInvalidHashCharacter, e.Char, e.Offset)
}

func (e *HashCharacterError) Is(target error) bool { return target == ErrInvalidHashCharacter }

// HashError describes a structural problem with a hash string.
type HashError struct {
	Hash   string
	Reason string
}

func (e *HashError) Error() string {
	return fmt.Sprintf("%v %q: %s", ErrInvalidHash, e.Hash, e.Reason)
}

func (e *HashError) Is(target error) bool { return target == ErrInvalidHash }
