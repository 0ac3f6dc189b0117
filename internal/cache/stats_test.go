package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Satish-Das/food-donate-application/config"
	"github.com/Satish-Das/food-donate-application/types"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStatistics() types.DonationStatistics {
	stats := types.EmptyStatistics()
	stats.TotalDonations = 4
	stats.ByStatus["pending"] = 3
	stats.ByStatus["completed"] = 1
	stats.ByFoodType["veg"] = 4
	stats.RecentDonations = []types.DailyCount{{Date: "2024-05-01", Count: 4}}
	return stats
}

func TestGetStatisticsMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewStatsCache(client, time.Minute)

	mock.ExpectGet(statisticsKey).RedisNil()

	_, ok, err := cache.GetStatistics(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStatisticsHit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewStatsCache(client, time.Minute)
	stats := sampleStatistics()
	data, err := json.Marshal(stats)
	require.NoError(t, err)

	mock.ExpectGet(statisticsKey).SetVal(string(data))

	got, ok, err := cache.GetStatistics(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, stats, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStatisticsError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewStatsCache(client, time.Minute)

	mock.ExpectGet(statisticsKey).SetErr(errors.New("connection reset"))

	_, ok, err := cache.GetStatistics(context.Background())
	assert.EqualError(t, err, "connection reset")
	assert.False(t, ok)
}

func TestSetAndInvalidateStatistics(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewStatsCache(client, 30*time.Second)
	stats := sampleStatistics()
	data, err := json.Marshal(stats)
	require.NoError(t, err)

	mock.ExpectSet(statisticsKey, string(data), 30*time.Second).SetVal("OK")
	mock.ExpectDel(statisticsKey).SetVal(1)

	require.NoError(t, cache.SetStatistics(context.Background(), stats))
	require.NoError(t, cache.InvalidateStatistics(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenWithoutAddress(t *testing.T) {
	client, err := Open(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)
}
