package recordcache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"HeatCycle/internal/domain/models"
	pkgcache "HeatCycle/pkg/cache"
)

var (
	keyLatestRecord   = pkgcache.GenerateKey("record", "latest")
	keyRecommendation = pkgcache.GenerateKey("record", "recommendation")
)

// Backend is the subset of pkg/cache.Service the record cache needs. Values
// are stored as JSON strings so every backend (memory, redis, layered)
// round-trips them identically.
type Backend interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
}

// RecordCache keeps the latest daily record and the current recommendation
// hot for the API layer.
type RecordCache struct {
	backend Backend
	ttl     time.Duration
}

func NewRecordCache(backend Backend, ttl time.Duration) *RecordCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RecordCache{backend: backend, ttl: ttl}
}

func (c *RecordCache) SetLatest(rec *models.DailyMetricsRecord) error {
	return c.set(keyLatestRecord, rec)
}

func (c *RecordCache) Latest() (*models.DailyMetricsRecord, bool, error) {
	var rec models.DailyMetricsRecord
	ok, err := c.get(keyLatestRecord, &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	return &rec, true, nil
}

func (c *RecordCache) SetRecommendation(r *models.Recommendation) error {
	return c.set(keyRecommendation, r)
}

func (c *RecordCache) Recommendation() (*models.Recommendation, bool, error) {
	var r models.Recommendation
	ok, err := c.get(keyRecommendation, &r)
	if err != nil || !ok {
		return nil, false, err
	}
	return &r, true, nil
}

func (c *RecordCache) set(key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.backend.Set(context.Background(), key, string(b), c.ttl)
}

func (c *RecordCache) get(key string, dest interface{}) (bool, error) {
	var raw string
	if err := c.backend.Get(context.Background(), key, &raw); err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, err
	}
	return true, nil
}
