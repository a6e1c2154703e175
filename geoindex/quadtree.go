package geoindex

import (
	"sync"

	"geocell/geohash"
)

const (
	nodeCapacity = 4
	// cells this deep are smaller than a 12 character geohash
	maxDepth = 32
)

// World covers every valid coordinate.
var World = geohash.Rect{
	Min: geohash.Coord{X: -180, Y: -90},
	Max: geohash.Coord{X: 180, Y: 90},
}

// quadtreeNode represents a node in the quadtree
type quadtreeNode struct {
	bounds   geohash.Rect
	entries  []Entry
	children [4]*quadtreeNode
	depth    int
}

// Quadtree is a point quadtree over a fixed area.
type Quadtree struct {
	mu   sync.RWMutex
	root *quadtreeNode
	ids  map[int64]geohash.Coord
}

func NewQuadtree(bounds geohash.Rect) *Quadtree {
	return &Quadtree{
		root: &quadtreeNode{bounds: bounds},
		ids:  make(map[int64]geohash.Coord),
	}
}

// Insert adds e, replacing any entry with the same ID. Entries outside the
// tree bounds are rejected.
func (qt *Quadtree) Insert(e Entry) error {
	if !qt.root.bounds.Contains(e.Coord) {
		return &geohash.CoordinateRangeError{Coord: e.Coord}
	}

	qt.mu.Lock()
	defer qt.mu.Unlock()
	qt.remove(e.ID)
	qt.root.insert(e)
	qt.ids[e.ID] = e.Coord
	return nil
}

func (qt *Quadtree) Remove(id int64) bool {
	qt.mu.Lock()
	defer qt.mu.Unlock()
	return qt.remove(id)
}

func (qt *Quadtree) remove(id int64) bool {
	c, ok := qt.ids[id]
	if !ok {
		return false
	}
	delete(qt.ids, id)
	return qt.root.remove(id, c)
}

// Search returns the entries whose point lies in the query area.
func (qt *Quadtree) Search(q Query) []Entry {
	qt.mu.RLock()
	defer qt.mu.RUnlock()
	return qt.root.search(q.Area, nil)
}

func (qt *Quadtree) Len() int {
	qt.mu.RLock()
	defer qt.mu.RUnlock()
	return len(qt.ids)
}

// insert adds an entry to the node, subdividing once the node is full
func (node *quadtreeNode) insert(e Entry) {
	if node.children[0] == nil {
		if len(node.entries) < nodeCapacity || node.depth >= maxDepth {
			node.entries = append(node.entries, e)
			return
		}
		node.subdivide()
	}
	node.child(e.Coord).insert(e)
}

// child picks the quadrant holding c. Points on a split line go to the
// upper/right quadrant.
func (node *quadtreeNode) child(c geohash.Coord) *quadtreeNode {
	mid := node.bounds.Center()
	i := 0
	if c.X >= mid.X {
		i |= 1
	}
	if c.Y >= mid.Y {
		i |= 2
	}
	return node.children[i]
}

// subdivide splits the node into four children and pushes its entries down
func (node *quadtreeNode) subdivide() {
	b := node.bounds
	mid := b.Center()
	quads := [4]geohash.Rect{
		{Min: b.Min, Max: mid},
		{Min: geohash.Coord{X: mid.X, Y: b.Min.Y}, Max: geohash.Coord{X: b.Max.X, Y: mid.Y}},
		{Min: geohash.Coord{X: b.Min.X, Y: mid.Y}, Max: geohash.Coord{X: mid.X, Y: b.Max.Y}},
		{Min: mid, Max: b.Max},
	}
	for i, q := range quads {
		node.children[i] = &quadtreeNode{bounds: q, depth: node.depth + 1}
	}

	entries := node.entries
	node.entries = nil
	for _, e := range entries {
		node.child(e.Coord).insert(e)
	}
}

func (node *quadtreeNode) remove(id int64, c geohash.Coord) bool {
	if node.children[0] != nil {
		return node.child(c).remove(id, c)
	}
	for i, e := range node.entries {
		if e.ID == id {
			node.entries = append(node.entries[:i], node.entries[i+1:]...)
			return true
		}
	}
	return false
}

func intersects(a, b geohash.Rect) bool {
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X &&
		a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y
}

// search appends the entries inside area to result
func (node *quadtreeNode) search(area geohash.Rect, result []Entry) []Entry {
	if !intersects(node.bounds, area) {
		return result
	}
	for _, e := range node.entries {
		if area.Contains(e.Coord) {
			result = append(result, e)
		}
	}
	if node.children[0] != nil {
		for _, child := range node.children {
			result = child.search(area, result)
		}
	}
	return result
}
