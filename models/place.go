package models

import "geocell/geohash"

type Place struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Geohash   string  `json:"geohash"` // full precision, geohash.MaxLength characters
}

// Coord returns the place location as a codec coordinate.
func (p Place) Coord() geohash.Coord {
	return geohash.Coord{X: p.Longitude, Y: p.Latitude}
}

// Cell returns the geohash prefix of the cell at the given precision.
func (p Place) Cell(precision int) string {
	if precision >= len(p.Geohash) {
		return p.Geohash
	}
	return p.Geohash[:precision]
}
