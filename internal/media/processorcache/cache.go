// Package processorcache caches latest-processor lookups in Redis.
// Processor versions change rarely; without the cache every submission
// re-resolves up to ten processors against the service.
package processorcache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"amsgate/internal/media"
	"amsgate/internal/pkg/logger"
)

// DefaultTTL bounds how stale a cached processor version may be.
const DefaultTTL = 1 * time.Hour

const keyPrefix = "amsgate:processor:"

// Service decorates a media.Service with cached GetLatestProcessor.
// Cache failures degrade to pass-through lookups, never to errors.
type Service struct {
	media.Service

	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

// New wraps inner with a Redis-backed processor cache.
func New(inner media.Service, rdb *redis.Client, ttl time.Duration, log *logger.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Service{
		Service: inner,
		rdb:     rdb,
		ttl:     ttl,
		log:     log.WithComponent("processorcache"),
	}
}

func (s *Service) GetLatestProcessor(ctx context.Context, name string) (*media.Processor, error) {
	key := keyPrefix + name

	if raw, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var p media.Processor
		if err := json.Unmarshal(raw, &p); err == nil {
			return &p, nil
		}
		// Unreadable entry, drop it and fall through.
		_ = s.rdb.Del(ctx, key).Err()
	} else if err != redis.Nil {
		s.log.Warn("cache read failed, falling back to service",
			"processor", name,
			"error", err.Error(),
		)
	}

	p, err := s.Service.GetLatestProcessor(ctx, name)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(p); err == nil {
		if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
			s.log.Warn("cache write failed",
				"processor", name,
				"error", err.Error(),
			)
		}
	}

	return p, nil
}
