package proximity

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geocell/geohash"
	"geocell/geoindex"
	"geocell/models"
)

// --- in-memory PlaceStore ---

type memStore struct {
	mu       sync.Mutex
	nextID   int64
	places   map[int64]models.Place
	listHits int
}

func newMemStore() *memStore {
	return &memStore{places: make(map[int64]models.Place)}
}

func (m *memStore) Insert(_ context.Context, p *models.Place) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	m.places[p.ID] = *p
	return nil
}

func (m *memStore) Get(_ context.Context, id int64) (models.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.places[id]
	if !ok {
		return models.Place{}, sql.ErrNoRows
	}
	return p, nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.places[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.places, id)
	return nil
}

func (m *memStore) ListByCells(_ context.Context, cells []string) ([]models.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listHits++
	var out []models.Place
	for _, p := range m.places {
		for _, c := range cells {
			if strings.HasPrefix(p.Geohash, c) {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (m *memStore) All(_ context.Context) ([]models.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Place
	for _, p := range m.places {
		out = append(out, p)
	}
	return out, nil
}

// --- in-memory CellCache ---

type memCache struct {
	mu    sync.Mutex
	cells map[string]map[int64]models.Place
	fail  bool
}

func newMemCache() *memCache {
	return &memCache{cells: make(map[string]map[int64]models.Place)}
}

var errCacheDown = errors.New("cache down")

func (m *memCache) Add(_ context.Context, cell string, p models.Place) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errCacheDown
	}
	if m.cells[cell] == nil {
		m.cells[cell] = make(map[int64]models.Place)
	}
	m.cells[cell][p.ID] = p
	return nil
}

func (m *memCache) Remove(_ context.Context, cell string, p models.Place) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errCacheDown
	}
	delete(m.cells[cell], p.ID)
	return nil
}

func (m *memCache) Members(_ context.Context, cells ...string) ([]models.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return nil, errCacheDown
	}
	var out []models.Place
	for _, c := range cells {
		for _, p := range m.cells[c] {
			out = append(out, p)
		}
	}
	return out, nil
}

// --- tests ---

func newTestService(t *testing.T) (*Service, *memStore, *memCache) {
	t.Helper()
	store, cache := newMemStore(), newMemCache()
	svc, err := NewService(store, cache, geoindex.NewCellIndex(), Options{
		Precision:  6,
		MaxRetries: 3,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return svc, store, cache
}

func register(t *testing.T, svc *Service) (taiyuan, nearby, far models.Place) {
	t.Helper()
	ctx := context.Background()
	var err error
	taiyuan, err = svc.Register(ctx, "taiyuan", geohash.Coord{X: 112.5584, Y: 37.8324})
	require.NoError(t, err)
	nearby, err = svc.Register(ctx, "nearby", geohash.Coord{X: 112.5590, Y: 37.8330})
	require.NoError(t, err)
	far, err = svc.Register(ctx, "slo", geohash.Coord{X: -120.6623, Y: 35.3003})
	require.NoError(t, err)
	return taiyuan, nearby, far
}

func placeIDs(results []models.NearbyResult) []int64 {
	out := make([]int64, len(results))
	for i, r := range results {
		out[i] = r.Place.ID
	}
	return out
}

func TestRegister(t *testing.T) {
	svc, store, cache := newTestService(t)
	taiyuan, _, _ := register(t, svc)

	assert.Equal(t, "ww8p1r4t8", taiyuan.Geohash[:9])
	assert.Len(t, taiyuan.Geohash, geohash.MaxLength)
	assert.Len(t, store.places, 3)
	assert.Len(t, cache.cells["ww8p1r"], 2)
	assert.Len(t, cache.cells["9q60y6"], 1)
}

func TestRegisterRejectsInvalidCoordinate(t *testing.T) {
	svc, store, _ := newTestService(t)
	_, err := svc.Register(context.Background(), "nowhere", geohash.Coord{X: 190, Y: 0})
	assert.ErrorIs(t, err, geohash.ErrInvalidCoordinateRange)
	assert.Empty(t, store.places)
}

func TestRegisterSurvivesCacheFailure(t *testing.T) {
	svc, store, cache := newTestService(t)
	cache.fail = true

	_, err := svc.Register(context.Background(), "taiyuan", geohash.Coord{X: 112.5584, Y: 37.8324})
	require.NoError(t, err)
	assert.Len(t, store.places, 1)
}

var errIndexFull = errors.New("index full")

type failingIndex struct {
	geoindex.Index
}

func (failingIndex) Insert(geoindex.Entry) error { return errIndexFull }

func TestRegisterRollsBackOnIndexFailure(t *testing.T) {
	store, cache := newMemStore(), newMemCache()
	svc, err := NewService(store, cache, failingIndex{geoindex.NewCellIndex()}, Options{
		Precision:  6,
		MaxRetries: 3,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "taiyuan", geohash.Coord{X: 112.5584, Y: 37.8324})
	assert.ErrorIs(t, err, errIndexFull)
	assert.Empty(t, store.places)
	assert.Empty(t, cache.cells)

	_, err = svc.Get(context.Background(), 1)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestNearbyFromCache(t *testing.T) {
	svc, store, _ := newTestService(t)
	taiyuan, nearby, _ := register(t, svc)

	got, err := svc.Nearby(context.Background(), geohash.Coord{X: 112.5585, Y: 37.8325}, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{taiyuan.ID, nearby.ID}, placeIDs(got))
	assert.Less(t, got[0].DistanceMeters, got[1].DistanceMeters)
	assert.Less(t, got[1].DistanceMeters, 200.0)
	assert.Zero(t, store.listHits)

	got, err = svc.Nearby(context.Background(), geohash.Coord{X: 112.5585, Y: 37.8325}, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{taiyuan.ID}, placeIDs(got))
}

func TestNearbyFallsBackToStore(t *testing.T) {
	svc, store, cache := newTestService(t)
	taiyuan, nearby, _ := register(t, svc)
	cache.fail = true

	got, err := svc.Nearby(context.Background(), geohash.Coord{X: 112.5585, Y: 37.8325}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{taiyuan.ID, nearby.ID}, placeIDs(got))
	assert.Equal(t, 1, store.listHits)
}

func TestNearbyWidensEmptyNeighborhood(t *testing.T) {
	svc, _, _ := newTestService(t)
	taiyuan, nearby, _ := register(t, svc)

	got, err := svc.Nearby(context.Background(), geohash.Coord{X: 112.7, Y: 37.9}, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{taiyuan.ID, nearby.ID}, placeIDs(got))
	assert.Greater(t, got[0].DistanceMeters, 10000.0)
}

func TestNearbyNothingAround(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc)

	got, err := svc.Nearby(context.Background(), geohash.Coord{X: 0, Y: -60}, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNearbyInvalidCoordinate(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Nearby(context.Background(), geohash.Coord{Y: 91}, 10)
	assert.ErrorIs(t, err, geohash.ErrInvalidCoordinateRange)
}

func TestRemove(t *testing.T) {
	svc, store, cache := newTestService(t)
	taiyuan, nearby, _ := register(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.Remove(ctx, nearby.ID))
	assert.Len(t, store.places, 2)
	assert.Len(t, cache.cells["ww8p1r"], 1)

	got, err := svc.Nearby(ctx, geohash.Coord{X: 112.5585, Y: 37.8325}, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{taiyuan.ID}, placeIDs(got))

	assert.ErrorIs(t, svc.Remove(ctx, nearby.ID), sql.ErrNoRows)

	_, err = svc.Get(ctx, nearby.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestWarm(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	for _, p := range []models.Place{
		{Name: "taiyuan", Longitude: 112.5584, Latitude: 37.8324, Geohash: "ww8p1r4t8xyz"},
		{Name: "broken", Longitude: 0, Latitude: 0, Geohash: "bad!"},
	} {
		p := p
		require.NoError(t, store.Insert(ctx, &p))
	}

	cache := newMemCache()
	index := geoindex.NewRTree()
	svc, err := NewService(store, cache, index, Options{Precision: 5})
	require.NoError(t, err)
	require.NoError(t, svc.Warm(ctx))

	assert.Equal(t, 1, index.Len())
	assert.Len(t, cache.cells["ww8p1"], 1)
}

func TestNewServiceRejectsPrecision(t *testing.T) {
	_, err := NewService(newMemStore(), newMemCache(), geoindex.NewCellIndex(), Options{Precision: 13})
	assert.ErrorIs(t, err, geohash.ErrInvalidLength)
}

func TestHaversine(t *testing.T) {
	// Tian An Men Square to the Great Wall
	d := Haversine(geohash.Coord{X: 116.39763057232, Y: 39.905637761392}, geohash.Coord{X: 116.02002181113, Y: 40.359759768836})
	assert.InDelta(t, 59853, d, 150)
	assert.Zero(t, Haversine(geohash.Coord{X: 1, Y: 1}, geohash.Coord{X: 1, Y: 1}))
}
