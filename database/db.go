package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"geocell/config"
	"geocell/models"
)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

const (
	insertPlaceQuery = `INSERT INTO places (name, latitude, longitude, geohash) VALUES ($1, $2, $3, $4) RETURNING id`
	selectPlaceQuery = `SELECT id, name, latitude, longitude, geohash FROM places WHERE id=$1`
	deletePlaceQuery = `DELETE FROM places WHERE id=$1`
	cellPlacesQuery  = `SELECT id, name, latitude, longitude, geohash FROM places WHERE geohash LIKE ANY($1)`
	allPlacesQuery   = `SELECT id, name, latitude, longitude, geohash FROM places ORDER BY id`
)

// PlaceStore persists places in the places table.
type PlaceStore struct {
	db *sql.DB
}

func NewPlaceStore(db *sql.DB) *PlaceStore {
	return &PlaceStore{db: db}
}

// Insert stores p and fills in its ID.
func (s *PlaceStore) Insert(ctx context.Context, p *models.Place) error {
	err := s.db.QueryRowContext(ctx,
		insertPlaceQuery,
		p.Name, p.Latitude, p.Longitude, p.Geohash,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("inserting place: %w", err)
	}
	return nil
}

// Get returns the place with the given id, or sql.ErrNoRows.
func (s *PlaceStore) Get(ctx context.Context, id int64) (models.Place, error) {
	var p models.Place
	err := s.db.QueryRowContext(ctx,
		selectPlaceQuery, id,
	).Scan(&p.ID, &p.Name, &p.Latitude, &p.Longitude, &p.Geohash)
	if err != nil {
		return models.Place{}, err
	}
	return p, nil
}

// Delete removes the place with the given id. It returns sql.ErrNoRows when
// nothing was deleted.
func (s *PlaceStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, deletePlaceQuery, id)
	if err != nil {
		return fmt.Errorf("deleting place: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByCells returns the places whose geohash starts with one of cells.
func (s *PlaceStore) ListByCells(ctx context.Context, cells []string) ([]models.Place, error) {
	patterns := make([]string, len(cells))
	for i, c := range cells {
		// geohash characters never include LIKE wildcards
		patterns[i] = c + "%"
	}
	rows, err := s.db.QueryContext(ctx, cellPlacesQuery, pq.Array(patterns))
	if err != nil {
		return nil, fmt.Errorf("listing places: %w", err)
	}
	defer rows.Close()
	return scanPlaces(rows)
}

// All returns every stored place.
func (s *PlaceStore) All(ctx context.Context) ([]models.Place, error) {
	rows, err := s.db.QueryContext(ctx, allPlacesQuery)
	if err != nil {
		return nil, fmt.Errorf("listing places: %w", err)
	}
	defer rows.Close()
	return scanPlaces(rows)
}

func scanPlaces(rows *sql.Rows) ([]models.Place, error) {
	var places []models.Place
	for rows.Next() {
		var p models.Place
		if err := rows.Scan(&p.ID, &p.Name, &p.Latitude, &p.Longitude, &p.Geohash); err != nil {
			return nil, fmt.Errorf("scanning place: %w", err)
		}
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return places, nil
}
