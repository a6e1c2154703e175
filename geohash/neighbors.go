package geohash

import (
	"fmt"
	"math"
	"strings"
)

// Direction is one of the eight compass directions.
type Direction int

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

// Directions lists every Direction, clockwise from North.
var Directions = [...]Direction{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

var directionNames = [...]string{"n", "ne", "e", "se", "s", "sw", "w", "nw"}

// offsets holds the (dlat, dlon) unit step for each Direction.
var offsets = [...][2]float64{
	North:     {1, 0},
	NorthEast: {1, 1},
	East:      {0, 1},
	SouthEast: {-1, 1},
	South:     {-1, 0},
	SouthWest: {-1, -1},
	West:      {0, -1},
	NorthWest: {1, -1},
}

// Offset returns the latitude and longitude step of d, each in {-1, 0, 1}.
func (d Direction) Offset() (dlat, dlon float64) {
	o := offsets[d]
	return o[0], o[1]
}

func (d Direction) String() string {
	if d < North || d > NorthWest {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// ParseDirection accepts the short names returned by String, in any case.
func ParseDirection(s string) (Direction, error) {
	s = strings.ToLower(s)
	for _, d := range Directions {
		if directionNames[d] == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// Neighbors holds the eight cells adjacent to a geohash.
type Neighbors struct {
	N  string `json:"n"`
	NE string `json:"ne"`
	E  string `json:"e"`
	SE string `json:"se"`
	S  string `json:"s"`
	SW string `json:"sw"`
	W  string `json:"w"`
	NW string `json:"nw"`
}

// Get returns the neighbor in direction d.
func (n Neighbors) Get(d Direction) string {
	switch d {
	case North:
		return n.N
	case NorthEast:
		return n.NE
	case East:
		return n.E
	case SouthEast:
		return n.SE
	case South:
		return n.S
	case SouthWest:
		return n.SW
	case West:
		return n.W
	case NorthWest:
		return n.NW
	}
	return ""
}

func (n *Neighbors) set(d Direction, hash string) {
	switch d {
	case North:
		n.N = hash
	case NorthEast:
		n.NE = hash
	case East:
		n.E = hash
	case SouthEast:
		n.SE = hash
	case South:
		n.S = hash
	case SouthWest:
		n.SW = hash
	case West:
		n.W = hash
	case NorthWest:
		n.NW = hash
	}
}

// Slice returns the neighbors clockwise from North.
func (n Neighbors) Slice() []string {
	out := make([]string, len(Directions))
	for i, d := range Directions {
		out[i] = n.Get(d)
	}
	return out
}

// Neighbor returns the geohash of the same length adjacent to hash in
// direction d.
//
// Cells are not wrapped across the antimeridian or the poles: stepping off the
// valid coordinate range returns ErrInvalidCoordinateRange.
func Neighbor(hash string, d Direction) (string, error) {
	c, lonErr, latErr, err := Decode(hash)
	if err != nil {
		return "", err
	}
	dlat, dlon := d.Offset()
	next := Coord{
		X: c.X + 2*math.Abs(lonErr)*dlon,
		Y: c.Y + 2*math.Abs(latErr)*dlat,
	}
	return Encode(next, len(hash))
}

// AllNeighbors returns the eight cells adjacent to hash. It stops at the
// first direction that fails.
func AllNeighbors(hash string) (Neighbors, error) {
	var n Neighbors
	for _, d := range Directions {
		h, err := Neighbor(hash, d)
		if err != nil {
			return Neighbors{}, fmt.Errorf("neighbor %s of %q: %w", d, hash, err)
		}
		n.set(d, h)
	}
	return n, nil
}
