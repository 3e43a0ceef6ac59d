package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/contextisneeded/questiond/internal/questions"
)

const datasetCacheKey = "questions:dataset"

// Conn opens a Redis client and verifies the connection.
func Conn(ctx context.Context, addr, pass string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed (%s): %w", addr, err)
	}
	return client, nil
}

// DatasetCache keeps the parsed full dataset in Redis so repeated facade
// loads do not refetch the feed. Every cache failure falls through to the
// underlying loader; the cache is never load-bearing.
type DatasetCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	load   func(ctx context.Context) ([]questions.Question, error)
	logger *log.Logger
}

func NewDatasetCache(rdb *redis.Client, ttl time.Duration, load func(ctx context.Context) ([]questions.Question, error)) *DatasetCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &DatasetCache{
		rdb:    rdb,
		ttl:    ttl,
		load:   load,
		logger: log.New(log.Writer(), "[CACHE] ", log.LstdFlags),
	}
}

func (c *DatasetCache) Load(ctx context.Context) ([]questions.Question, error) {
	if c.rdb != nil {
		val, err := c.rdb.Get(ctx, datasetCacheKey).Result()
		switch {
		case err == nil:
			var qs []questions.Question
			if jsonErr := json.Unmarshal([]byte(val), &qs); jsonErr == nil && len(qs) > 0 {
				return qs, nil
			}
			c.logger.Printf("discarding unreadable cached dataset")
		case !errors.Is(err, redis.Nil):
			c.logger.Printf("dataset cache read failed: %v", err)
		}
	}

	qs, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	if c.rdb != nil && len(qs) > 0 {
		if data, jsonErr := json.Marshal(qs); jsonErr == nil {
			if err := c.rdb.Set(ctx, datasetCacheKey, data, c.ttl).Err(); err != nil {
				c.logger.Printf("dataset cache write failed: %v", err)
			}
		}
	}
	return qs, nil
}
