package geoindex

import (
	"sort"
	"strings"
	"sync"
)

// CellIndex keeps entries sorted by geohash, so every cell is a contiguous
// run of entries sharing the cell as a prefix.
type CellIndex struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewCellIndex() *CellIndex {
	return &CellIndex{}
}

// Insert adds e, replacing any entry with the same ID.
func (ci *CellIndex) Insert(e Entry) error {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	ci.remove(e.ID)
	i := sort.Search(len(ci.entries), func(i int) bool { return ci.entries[i].Hash >= e.Hash })
	ci.entries = append(ci.entries, Entry{})
	copy(ci.entries[i+1:], ci.entries[i:])
	ci.entries[i] = e
	return nil
}

func (ci *CellIndex) Remove(id int64) bool {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	return ci.remove(id)
}

func (ci *CellIndex) remove(id int64) bool {
	for i, e := range ci.entries {
		if e.ID == id {
			ci.entries = append(ci.entries[:i], ci.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Search returns the entries inside any of the query cells.
func (ci *CellIndex) Search(q Query) []Entry {
	ci.mu.RLock()
	defer ci.mu.RUnlock()

	var result []Entry
	for _, cell := range q.Cells {
		i := sort.Search(len(ci.entries), func(i int) bool { return ci.entries[i].Hash >= cell })
		for ; i < len(ci.entries) && strings.HasPrefix(ci.entries[i].Hash, cell); i++ {
			result = append(result, ci.entries[i])
		}
	}
	return result
}

func (ci *CellIndex) Len() int {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	return len(ci.entries)
}
