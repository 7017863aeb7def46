// Package cache keeps rendered class reports in Redis so repeated
// dashboard loads skip the full aggregation. The cache is optional;
// without a Redis address the report service recomputes every time.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/conceptlens/backend/internal/domain/analytics"
)

var ErrCacheMiss = errors.New("cache miss")

type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewReportCache(addr string, ttl time.Duration) (*ReportCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: connect %s: %w", addr, err)
	}

	return &ReportCache{client: client, ttl: ttl}, nil
}

func reportKey(classID string) string {
	return "report:class:" + classID
}

func (c *ReportCache) Get(ctx context.Context, classID string) (analytics.ClassReport, error) {
	raw, err := c.client.Get(ctx, reportKey(classID)).Bytes()
	if err == redis.Nil {
		return analytics.ClassReport{}, ErrCacheMiss
	}
	if err != nil {
		return analytics.ClassReport{}, err
	}

	var report analytics.ClassReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return analytics.ClassReport{}, err
	}
	return report, nil
}

func (c *ReportCache) Set(ctx context.Context, classID string, report analytics.ClassReport) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, reportKey(classID), raw, c.ttl).Err()
}

// Invalidate drops a class's cached report; called when new evidence
// lands for one of its students.
func (c *ReportCache) Invalidate(ctx context.Context, classID string) error {
	return c.client.Del(ctx, reportKey(classID)).Err()
}

func (c *ReportCache) Close() error {
	return c.client.Close()
}
