// Package geoindex keeps places in memory and finds the ones near a point by
// searching a geohash cell and its eight neighbors.
package geoindex

import (
	"errors"
	"fmt"

	"geocell/geohash"
)

type Technique string

const (
	GeohashingTechnique Technique = "geohash"
	RTreeTechnique      Technique = "rtree"
	QuadtreeTechnique   Technique = "quadtree"
)

var (
	ErrUnsupportedTechnique = errors.New("unsupported geo-indexing technique")
	ErrNoResults            = errors.New("no nearby points found after maximum retries")
)

// Entry is an indexed point. Hash is its full-length geohash.
type Entry struct {
	ID    int64
	Coord geohash.Coord
	Hash  string
}

// Query describes a block of adjacent cells. Area is the rectangle covering
// every cell in Cells.
type Query struct {
	Cells []string
	Area  geohash.Rect
}

// Index is an in-memory point index. Implementations are safe for
// concurrent use.
type Index interface {
	Insert(e Entry) error
	Remove(id int64) bool
	Search(q Query) []Entry
	Len() int
}

// New returns an empty index of the given technique.
func New(technique Technique) (Index, error) {
	switch technique {
	case GeohashingTechnique:
		return NewCellIndex(), nil
	case RTreeTechnique:
		return NewRTree(), nil
	case QuadtreeTechnique:
		return NewQuadtree(World), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTechnique, technique)
	}
}

// NewQuery builds the query for the cell containing c at the given precision
// plus its neighbors. Neighbors that fall off the coordinate range near the
// poles or the antimeridian are left out.
func NewQuery(c geohash.Coord, precision int) (Query, error) {
	cell, err := geohash.Encode(c, precision)
	if err != nil {
		return Query{}, err
	}
	area, err := geohash.DecodeBbox(cell)
	if err != nil {
		return Query{}, err
	}

	q := Query{Cells: []string{cell}, Area: area}
	for _, d := range geohash.Directions {
		n, err := geohash.Neighbor(cell, d)
		if err != nil {
			continue
		}
		r, err := geohash.DecodeBbox(n)
		if err != nil {
			return Query{}, err
		}
		q.Cells = append(q.Cells, n)
		q.Area = q.Area.Union(r)
	}
	return q, nil
}

// SearchNearby searches the block of cells around c. When nothing is found it
// drops one character of precision, roughly quadrupling the searched area, and
// tries again, up to maxRetries attempts or precision 1.
func SearchNearby(idx Index, c geohash.Coord, precision, maxRetries int) ([]Entry, error) {
	for i := 0; i < maxRetries && precision >= 1; i++ {
		q, err := NewQuery(c, precision)
		if err != nil {
			return nil, err
		}
		if results := idx.Search(q); len(results) > 0 {
			return results, nil
		}
		precision--
	}
	return nil, ErrNoResults
}

// NewEntry validates c and computes its geohash.
func NewEntry(id int64, c geohash.Coord) (Entry, error) {
	hash, err := geohash.Encode(c, geohash.MaxLength)
	if err != nil {
		return Entry{}, err
	}
	return Entry{ID: id, Coord: c, Hash: hash}, nil
}
