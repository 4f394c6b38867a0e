package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, "verify", limit, window), mr
}

func TestHit_AllowsUpToLimit(t *testing.T) {
	l, _ := newTestLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Hit(ctx, "alice@example.com"))
	}
	assert.ErrorIs(t, l.Hit(ctx, "alice@example.com"), ErrLimited)
}

func TestHit_KeysAreIndependentAndCaseInsensitive(t *testing.T) {
	l, _ := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	require.NoError(t, l.Hit(ctx, "alice@example.com"))
	assert.ErrorIs(t, l.Hit(ctx, "ALICE@example.com"), ErrLimited)
	assert.NoError(t, l.Hit(ctx, "bob@example.com"))
}

func TestHit_WindowExpires(t *testing.T) {
	l, mr := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	require.NoError(t, l.Hit(ctx, "k"))
	require.ErrorIs(t, l.Hit(ctx, "k"), ErrLimited)

	assert.Equal(t, time.Minute, mr.TTL("verify:k"))
	mr.FastForward(time.Minute + time.Second)

	assert.NoError(t, l.Hit(ctx, "k"))
}

func TestHit_DisabledWhenLimitIsZero(t *testing.T) {
	l, mr := newTestLimiter(t, 0, time.Minute)

	for i := 0; i < 10; i++ {
		require.NoError(t, l.Hit(context.Background(), "k"))
	}
	assert.False(t, mr.Exists("verify:k"))
}

func TestHit_NilLimiter(t *testing.T) {
	var l *Limiter
	assert.NoError(t, l.Hit(context.Background(), "k"))
}

func TestHit_RedisDown(t *testing.T) {
	l, mr := newTestLimiter(t, 1, time.Minute)
	mr.Close()

	err := l.Hit(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLimited)
}

func TestResetAndRemaining(t *testing.T) {
	l, _ := newTestLimiter(t, 3, time.Minute)
	ctx := context.Background()

	n, err := l.Remaining(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, l.Hit(ctx, "k"))
	n, err = l.Remaining(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, l.Reset(ctx, "k"))
	n, err = l.Remaining(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
