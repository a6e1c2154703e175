package geoindex

import (
	"sync"

	"github.com/dhconnelly/rtreego"

	"geocell/geohash"
)

// cellEntry wraps an entry to satisfy rtreego.Spatial. Its bounds are the
// cell of the entry's full-length geohash.
type cellEntry struct {
	Entry
	bounds rtreego.Rect
}

func (c *cellEntry) Bounds() rtreego.Rect {
	return c.bounds
}

func toRect(r geohash.Rect) (rtreego.Rect, error) {
	return rtreego.NewRect(rtreego.Point{r.Min.X, r.Min.Y}, []float64{r.Width(), r.Height()})
}

// RTree indexes entries in an R-tree.
type RTree struct {
	mu   sync.RWMutex
	tree *rtreego.Rtree
	byID map[int64]*cellEntry
}

func NewRTree() *RTree {
	return &RTree{
		tree: rtreego.NewTree(2, 25, 50),
		byID: make(map[int64]*cellEntry),
	}
}

// Insert adds e, replacing any entry with the same ID.
func (rt *RTree) Insert(e Entry) error {
	cell, err := geohash.DecodeBbox(e.Hash)
	if err != nil {
		return err
	}
	bounds, err := toRect(cell)
	if err != nil {
		return err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.remove(e.ID)
	ce := &cellEntry{Entry: e, bounds: bounds}
	rt.tree.Insert(ce)
	rt.byID[e.ID] = ce
	return nil
}

func (rt *RTree) Remove(id int64) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.remove(id)
}

func (rt *RTree) remove(id int64) bool {
	ce, ok := rt.byID[id]
	if !ok {
		return false
	}
	delete(rt.byID, id)
	return rt.tree.Delete(ce)
}

// Search returns the entries whose point lies in the query area.
func (rt *RTree) Search(q Query) []Entry {
	bb, err := toRect(q.Area)
	if err != nil {
		return nil
	}

	rt.mu.RLock()
	defer rt.mu.RUnlock()

	var result []Entry
	for _, s := range rt.tree.SearchIntersect(bb) {
		ce := s.(*cellEntry)
		if q.Area.Contains(ce.Coord) {
			result = append(result, ce.Entry)
		}
	}
	return result
}

func (rt *RTree) Len() int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.tree.Size()
}
