package redis_repo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestNextOrderSequence(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	repo := NewSequenceRepo(client)
	ctx := context.Background()
	day := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	seq, err := repo.NextOrderSequence(ctx, day)
	require.NoError(t, err)
	require.Equal(t, int64(1), seq)

	seq, err = repo.NextOrderSequence(ctx, day)
	require.NoError(t, err)
	require.Equal(t, int64(2), seq)

	// 不同日期各自從1起算
	nextDay := day.Add(24 * time.Hour)
	seq, err = repo.NextOrderSequence(ctx, nextDay)
	require.NoError(t, err)
	require.Equal(t, int64(1), seq)
}

func TestNextOrderSequence_SetsTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	repo := NewSequenceRepo(client)
	day := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	_, err := repo.NextOrderSequence(context.Background(), day)
	require.NoError(t, err)
	require.Equal(t, 48*time.Hour, mr.TTL(generateOrderSeqKey(day)))
}
