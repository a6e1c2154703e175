// Package proximity registers places and finds the ones near a coordinate,
// bucketing them by geohash cell.
package proximity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"geocell/geohash"
	"geocell/geoindex"
	"geocell/models"
)

// PlaceStore is the durable record of places.
type PlaceStore interface {
	Insert(ctx context.Context, p *models.Place) error
	Get(ctx context.Context, id int64) (models.Place, error)
	Delete(ctx context.Context, id int64) error
	ListByCells(ctx context.Context, cells []string) ([]models.Place, error)
	All(ctx context.Context) ([]models.Place, error)
}

// CellCache holds the places of each cell at the service precision.
type CellCache interface {
	Add(ctx context.Context, cell string, p models.Place) error
	Remove(ctx context.Context, cell string, p models.Place) error
	Members(ctx context.Context, cells ...string) ([]models.Place, error)
}

type Options struct {
	// Precision is the geohash length of a cell bucket.
	Precision int
	// MaxRetries bounds how many times an empty neighborhood search is
	// widened by one character of precision.
	MaxRetries int
	Logger     *slog.Logger
}

type Service struct {
	store PlaceStore
	cache CellCache
	index geoindex.Index
	opts  Options
	log   *slog.Logger

	mu     sync.RWMutex
	places map[int64]models.Place
}

func NewService(store PlaceStore, cache CellCache, index geoindex.Index, opts Options) (*Service, error) {
	if opts.Precision < 1 || opts.Precision > geohash.MaxLength {
		return nil, &geohash.LengthError{Length: opts.Precision}
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:  store,
		cache:  cache,
		index:  index,
		opts:   opts,
		log:    log,
		places: make(map[int64]models.Place),
	}, nil
}

// Warm loads every stored place into the in-memory index and the cell cache.
func (s *Service) Warm(ctx context.Context) error {
	places, err := s.store.All(ctx)
	if err != nil {
		return fmt.Errorf("loading places: %w", err)
	}
	for _, p := range places {
		if err := s.track(p); err != nil {
			s.log.Warn("skipping place", "id", p.ID, "err", err)
			continue
		}
		if err := s.cache.Add(ctx, p.Cell(s.opts.Precision), p); err != nil {
			s.log.Warn("cell cache add failed", "id", p.ID, "err", err)
		}
	}
	s.log.Info("index warmed", "places", s.index.Len())
	return nil
}

func (s *Service) track(p models.Place) error {
	if err := geohash.Validate(p.Geohash); err != nil {
		return err
	}
	if err := s.index.Insert(geoindex.Entry{ID: p.ID, Coord: p.Coord(), Hash: p.Geohash}); err != nil {
		return err
	}
	s.mu.Lock()
	s.places[p.ID] = p
	s.mu.Unlock()
	return nil
}

// Register stores a new place at c.
func (s *Service) Register(ctx context.Context, name string, c geohash.Coord) (models.Place, error) {
	hash, err := geohash.Encode(c, geohash.MaxLength)
	if err != nil {
		return models.Place{}, err
	}

	p := models.Place{Name: name, Longitude: c.X, Latitude: c.Y, Geohash: hash}
	if err := s.store.Insert(ctx, &p); err != nil {
		return models.Place{}, err
	}
	if err := s.track(p); err != nil {
		if derr := s.store.Delete(ctx, p.ID); derr != nil {
			s.log.Error("rolling back place insert failed", "id", p.ID, "err", derr)
		}
		return models.Place{}, err
	}
	if err := s.cache.Add(ctx, p.Cell(s.opts.Precision), p); err != nil {
		s.log.Warn("cell cache add failed", "id", p.ID, "cell", p.Cell(s.opts.Precision), "err", err)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id int64) (models.Place, error) {
	return s.store.Get(ctx, id)
}

// Remove deletes the place with the given id everywhere it is kept.
func (s *Service) Remove(ctx context.Context, id int64) error {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.index.Remove(id)
	s.mu.Lock()
	delete(s.places, id)
	s.mu.Unlock()

	if err := s.cache.Remove(ctx, p.Cell(s.opts.Precision), p); err != nil {
		s.log.Warn("cell cache remove failed", "id", id, "err", err)
	}
	return nil
}

// Nearby returns up to limit places in the cell of c and its neighbors,
// closest first. Cells are read from the cache, then from the store if the
// cache fails. An empty neighborhood falls back to a widening search of the
// in-memory index.
func (s *Service) Nearby(ctx context.Context, c geohash.Coord, limit int) ([]models.NearbyResult, error) {
	q, err := geoindex.NewQuery(c, s.opts.Precision)
	if err != nil {
		return nil, err
	}

	places, err := s.cache.Members(ctx, q.Cells...)
	if err != nil {
		s.log.Warn("cell cache read failed, using store", "err", err)
		places, err = s.store.ListByCells(ctx, q.Cells)
		if err != nil {
			return nil, err
		}
	}

	if len(places) == 0 {
		places, err = s.widen(c)
		if err != nil {
			return nil, err
		}
	}

	return rank(c, places, limit), nil
}

func (s *Service) widen(c geohash.Coord) ([]models.Place, error) {
	entries, err := geoindex.SearchNearby(s.index, c, s.opts.Precision-1, s.opts.MaxRetries)
	if errors.Is(err, geoindex.ErrNoResults) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	places := make([]models.Place, 0, len(entries))
	for _, e := range entries {
		if p, ok := s.places[e.ID]; ok {
			places = append(places, p)
		}
	}
	return places, nil
}

func rank(c geohash.Coord, places []models.Place, limit int) []models.NearbyResult {
	results := make([]models.NearbyResult, 0, len(places))
	seen := make(map[int64]bool, len(places))
	for _, p := range places {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		results = append(results, models.NearbyResult{Place: p, DistanceMeters: Haversine(c, p.Coord())})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].DistanceMeters != results[j].DistanceMeters {
			return results[i].DistanceMeters < results[j].DistanceMeters
		}
		return results[i].Place.ID < results[j].Place.ID
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
