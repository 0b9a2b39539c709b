package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// SampleSource is the read/write surface for location samples consumed by
// the location service and the permission oracle.
type SampleSource interface {
	RecordLocationSample(ctx context.Context, sample LocationSample) error
	GetLatestSample(ctx context.Context, userID string) (LocationSample, error)
}

// CachedSamples layers a Redis cache over a SampleSource.
//
// Writes go through to the backing store and then populate the cache
// (write-through, best-effort). Reads hit the cache first and fall back to
// the backing store, backfilling on a hit there.
//
// The cache TTL should equal the sample staleness timeout: an expired key
// means the sample could only answer not-permitted anyway.
type CachedSamples struct {
	backend SampleSource
	rdb     *redis.Client
	ttl     time.Duration
	log     *slog.Logger
}

func NewCachedSamples(backend SampleSource, rdb *redis.Client, ttl time.Duration, log *slog.Logger) *CachedSamples {
	if log == nil {
		log = slog.Default()
	}
	return &CachedSamples{backend: backend, rdb: rdb, ttl: ttl, log: log}
}

func sampleKey(userID string) string { return "callgate:sample:" + userID }

func (c *CachedSamples) RecordLocationSample(ctx context.Context, sample LocationSample) error {
	if err := c.backend.RecordLocationSample(ctx, sample); err != nil {
		return err
	}
	c.put(ctx, sample)
	return nil
}

func (c *CachedSamples) GetLatestSample(ctx context.Context, userID string) (LocationSample, error) {
	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, sampleKey(userID)).Bytes()
		if err == nil {
			var sample LocationSample
			if jsonErr := json.Unmarshal(raw, &sample); jsonErr == nil {
				return sample, nil
			}
			// Corrupt cache entry; fall through to the backing store.
			c.log.Warn("sample cache entry unreadable", "user_id", userID)
		} else if err != redis.Nil {
			c.log.Warn("sample cache read failed", "user_id", userID, "err", err)
		}
	}

	sample, err := c.backend.GetLatestSample(ctx, userID)
	if err != nil {
		return LocationSample{}, err
	}
	c.put(ctx, sample)
	return sample, nil
}

func (c *CachedSamples) put(ctx context.Context, sample LocationSample) {
	if c.rdb == nil || c.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(sample)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, sampleKey(sample.UserID), raw, c.ttl).Err(); err != nil {
		c.log.Warn("sample cache write failed", "user_id", sample.UserID, "err", fmt.Sprint(err))
	}
}
