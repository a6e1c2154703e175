package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"geocell/config"
	"geocell/models"
)

const cellKeyPrefix = "cells:"

// CellCache keeps, per geohash cell, a Redis set of the places inside it.
type CellCache struct {
	rdb *redis.Client
}

// NewRedisClient connects to Redis and checks the connection.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

func NewCellCache(rdb *redis.Client) *CellCache {
	return &CellCache{rdb: rdb}
}

func cellKey(cell string) string {
	return cellKeyPrefix + cell
}

// Add stores place in the set for cell.
func (c *CellCache) Add(ctx context.Context, cell string, place models.Place) error {
	b, err := json.Marshal(place)
	if err != nil {
		return err
	}
	return c.rdb.SAdd(ctx, cellKey(cell), b).Err()
}

// Remove deletes place from the set for cell. The member must marshal to the
// same JSON it was added with.
func (c *CellCache) Remove(ctx context.Context, cell string, place models.Place) error {
	b, err := json.Marshal(place)
	if err != nil {
		return err
	}
	return c.rdb.SRem(ctx, cellKey(cell), b).Err()
}

// Members returns the places stored under all of the given cells, read in a
// single pipeline round trip.
func (c *CellCache) Members(ctx context.Context, cells ...string) ([]models.Place, error) {
	if len(cells) == 0 {
		return nil, nil
	}

	pipe := c.rdb.Pipeline()
	cmds := make([]*redis.StringSliceCmd, len(cells))
	for i, cell := range cells {
		cmds[i] = pipe.SMembers(ctx, cellKey(cell))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("reading cells: %w", err)
	}

	var places []models.Place
	for i, cmd := range cmds {
		members, err := cmd.Result()
		if err != nil {
			return nil, fmt.Errorf("reading cell %s: %w", cells[i], err)
		}
		for _, m := range members {
			var p models.Place
			if err := json.Unmarshal([]byte(m), &p); err != nil {
				return nil, fmt.Errorf("decoding member of cell %s: %w", cells[i], err)
			}
			places = append(places, p)
		}
	}
	return places, nil
}

func (c *CellCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *CellCache) Close() error {
	return c.rdb.Close()
}
