package blacklist

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skulipro/authcore/counter"
)

func setup(t *testing.T, now func() time.Time) (*Blacklist, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(counter.NewRedis(rdb), now), mr
}

func TestRevokeAndExpire(t *testing.T) {
	bl, mr := setup(t, nil)
	ctx := context.Background()

	require.NoError(t, bl.Revoke(ctx, "j1", 90*time.Second))
	revoked, err := bl.IsRevoked(ctx, "j1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, mr.Exists("blacklist:j1"))

	mr.FastForward(92 * time.Second)
	revoked, err = bl.IsRevoked(ctx, "j1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevokeSkipsExpiredTokens(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	bl, mr := setup(t, func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, bl.RevokeUntil(ctx, "old", now.Add(-time.Second)))
	require.NoError(t, bl.RevokeUntil(ctx, "edge", now))
	assert.False(t, mr.Exists("blacklist:old"))
	assert.False(t, mr.Exists("blacklist:edge"))

	require.NoError(t, bl.RevokeUntil(ctx, "live", now.Add(time.Hour)))
	ttl := mr.TTL("blacklist:live")
	assert.GreaterOrEqual(t, ttl, time.Hour)
	assert.LessOrEqual(t, ttl, time.Hour+time.Second)
}

func TestConsumeIsSingleUse(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	bl, mr := setup(t, func() time.Time { return now })
	ctx := context.Background()
	exp := now.Add(time.Hour)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := bl.Consume(ctx, "link", exp)
			if err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	revoked, err := bl.IsRevoked(ctx, "link")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.LessOrEqual(t, mr.TTL("blacklist:link"), time.Hour+time.Second)
}

func TestConsumeAfterRevoke(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	bl, _ := setup(t, func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, bl.RevokeUntil(ctx, "j2", now.Add(time.Minute)))
	ok, err := bl.Consume(ctx, "j2", now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = bl.Consume(ctx, "j3", now.Add(-time.Second))
	assert.ErrorIs(t, err, ErrExpired)
	assert.False(t, ok)

	revoked, err := bl.IsRevoked(ctx, "j3")
	require.NoError(t, err)
	assert.False(t, revoked, "an expired token is not recorded as revoked")
}

func TestEmptyJTI(t *testing.T) {
	bl, _ := setup(t, nil)
	assert.ErrorIs(t, bl.Revoke(context.Background(), " ", time.Minute), ErrEmptyJTI)
	_, err := bl.IsRevoked(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyJTI)
}

func TestStoreFailure(t *testing.T) {
	bl, mr := setup(t, nil)
	mr.Close()

	_, err := bl.IsRevoked(context.Background(), "j1")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, bl.Revoke(context.Background(), "j1", time.Minute), ErrUnavailable)
}
