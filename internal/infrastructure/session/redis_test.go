package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	domainRepo "github.com/sangkips/receipt-voucher-api/internal/domain/repository"
	"github.com/sangkips/receipt-voucher-api/internal/domain/voucher"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real server when REDIS_TEST_ADDR is set.
func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return NewRedisStore(client, voucher.DefaultOptions(), time.Minute, 2*time.Second)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()
	owner := uuid.New()

	id, err := store.Create(ctx, owner, newSession())
	require.NoError(t, err)

	require.NoError(t, store.Update(ctx, owner, id, func(s *voucher.Session) error {
		return s.SetAmount(decimal.NewFromInt(40))
	}))
	require.NoError(t, store.View(ctx, owner, id, func(s *voucher.Session) error {
		assert.True(t, decimal.NewFromInt(40).Equal(s.Header().Amount))
		return nil
	}))

	noop := func(*voucher.Session) error { return nil }
	assert.ErrorIs(t, store.View(ctx, uuid.New(), id, noop), domainRepo.ErrSessionNotFound)

	require.NoError(t, store.Delete(ctx, owner, id))
	assert.ErrorIs(t, store.View(ctx, owner, id, noop), domainRepo.ErrSessionNotFound)
}
