package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Satish-Das/food-donate-application/config"
	"github.com/Satish-Das/food-donate-application/types"
	"github.com/redis/go-redis/v9"
)

const (
	statisticsKey      = "food-donate:statistics"
	defaultPingTimeout = 5 * time.Second
)

// Open connects to Redis when an address is configured. It returns nil
// without error otherwise.
func Open(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// StatsCache keeps the dashboard statistics in Redis for a short TTL.
type StatsCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewStatsCache(client redis.Cmdable, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

// GetStatistics reports ok=false on a cache miss.
func (c *StatsCache) GetStatistics(ctx context.Context) (types.DonationStatistics, bool, error) {
	data, err := c.client.Get(ctx, statisticsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return types.DonationStatistics{}, false, nil
		}
		return types.DonationStatistics{}, false, err
	}

	var stats types.DonationStatistics
	if err := json.Unmarshal(data, &stats); err != nil {
		return types.DonationStatistics{}, false, fmt.Errorf("decode cached statistics: %w", err)
	}
	return stats, true, nil
}

func (c *StatsCache) SetStatistics(ctx context.Context, stats types.DonationStatistics) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode statistics: %w", err)
	}
	return c.client.Set(ctx, statisticsKey, string(data), c.ttl).Err()
}

func (c *StatsCache) InvalidateStatistics(ctx context.Context) error {
	return c.client.Del(ctx, statisticsKey).Err()
}
