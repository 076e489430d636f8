package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/davomat-api/internal/dto"
	"github.com/noah-isme/davomat-api/internal/observability"
)

// ClassReportCache stores rendered class reports between roster changes.
type ClassReportCache interface {
	Get(ctx context.Context, classID uint) (dto.ClassReportResponse, bool)
	Set(ctx context.Context, classID uint, report dto.ClassReportResponse)
	Invalidate(ctx context.Context, classIDs ...uint)
}

// NopClassReportCache never caches.
type NopClassReportCache struct{}

// Get implements ClassReportCache.
func (NopClassReportCache) Get(context.Context, uint) (dto.ClassReportResponse, bool) {
	return dto.ClassReportResponse{}, false
}

// Set implements ClassReportCache.
func (NopClassReportCache) Set(context.Context, uint, dto.ClassReportResponse) {}

// Invalidate implements ClassReportCache.
func (NopClassReportCache) Invalidate(context.Context, ...uint) {}

type redisClassReportCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisClassReportCache builds a Redis backed cache. A nil client disables caching.
func NewRedisClassReportCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) ClassReportCache {
	if client == nil {
		return NopClassReportCache{}
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &redisClassReportCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "class_report_cache").Logger(),
	}
}

func classReportKey(classID uint) string {
	return fmt.Sprintf("reports:class:v1:%d", classID)
}

func (c *redisClassReportCache) Get(ctx context.Context, classID uint) (dto.ClassReportResponse, bool) {
	cached, err := c.client.Get(ctx, classReportKey(classID)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Uint("class_id", classID).Msg("failed to read class report cache")
		}
		observability.ReportCacheLookups().WithLabelValues("miss").Inc()
		return dto.ClassReportResponse{}, false
	}

	var report dto.ClassReportResponse
	if err := json.Unmarshal([]byte(cached), &report); err != nil {
		observability.ReportCacheLookups().WithLabelValues("miss").Inc()
		return dto.ClassReportResponse{}, false
	}

	observability.ReportCacheLookups().WithLabelValues("hit").Inc()
	return report, true
}

func (c *redisClassReportCache) Set(ctx context.Context, classID uint, report dto.ClassReportResponse) {
	payload, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, classReportKey(classID), payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Uint("class_id", classID).Msg("failed to store class report cache")
	}
}

func (c *redisClassReportCache) Invalidate(ctx context.Context, classIDs ...uint) {
	if len(classIDs) == 0 {
		return
	}

	keys := make([]string, 0, len(classIDs))
	for _, id := range classIDs {
		keys = append(keys, classReportKey(id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("failed to invalidate class report cache")
	}
}
