package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	domainRepo "github.com/sangkips/receipt-voucher-api/internal/domain/repository"
	"github.com/sangkips/receipt-voucher-api/internal/domain/voucher"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newSession() *voucher.Session {
	return voucher.NewSession(voucher.DefaultOptions(), "RV-000001", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestMemoryStore_UpdateKeepsChanges(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(voucher.DefaultOptions(), time.Hour, time.Now)
	owner := uuid.New()

	id, err := store.Create(ctx, owner, newSession())
	require.NoError(t, err)

	require.NoError(t, store.Update(ctx, owner, id, func(s *voucher.Session) error {
		return s.SetAmount(decimal.NewFromInt(75))
	}))

	require.NoError(t, store.View(ctx, owner, id, func(s *voucher.Session) error {
		assert.True(t, decimal.NewFromInt(75).Equal(s.Header().Amount))
		return nil
	}))
}

func TestMemoryStore_FailedUpdateRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(voucher.DefaultOptions(), time.Hour, time.Now)
	owner := uuid.New()
	id, err := store.Create(ctx, owner, newSession())
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.Update(ctx, owner, id, func(s *voucher.Session) error {
		if err := s.SetAmount(decimal.NewFromInt(10)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, store.View(ctx, owner, id, func(s *voucher.Session) error {
		assert.True(t, s.Header().Amount.IsZero())
		return nil
	}))
}

func TestMemoryStore_UnrecoverableUpdateDropsSession(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(voucher.DefaultOptions(), time.Hour, time.Now)
	corrupt := errors.New("unexpected end of JSON input")
	store.restore = func([]byte, voucher.Options) (*voucher.Session, error) { return nil, corrupt }
	owner := uuid.New()
	id, err := store.Create(ctx, owner, newSession())
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.Update(ctx, owner, id, func(s *voucher.Session) error {
		if err := s.SetAmount(decimal.NewFromInt(10)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, corrupt)

	err = store.View(ctx, owner, id, func(*voucher.Session) error { return nil })
	assert.ErrorIs(t, err, domainRepo.ErrSessionNotFound)
	assert.Zero(t, store.Len())
}

func TestMemoryStore_OwnerAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(voucher.DefaultOptions(), time.Hour, time.Now)
	owner := uuid.New()
	id, err := store.Create(ctx, owner, newSession())
	require.NoError(t, err)

	noop := func(*voucher.Session) error { return nil }
	assert.ErrorIs(t, store.View(ctx, uuid.New(), id, noop), domainRepo.ErrSessionNotFound)
	assert.ErrorIs(t, store.Delete(ctx, uuid.New(), id), domainRepo.ErrSessionNotFound)

	require.NoError(t, store.Delete(ctx, owner, id))
	assert.ErrorIs(t, store.View(ctx, owner, id, noop), domainRepo.ErrSessionNotFound)
	assert.Zero(t, store.Len())
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	store := newMemoryStore(voucher.DefaultOptions(), 10*time.Minute, c.Now)
	owner := uuid.New()
	noop := func(*voucher.Session) error { return nil }

	stale, err := store.Create(ctx, owner, newSession())
	require.NoError(t, err)
	c.Advance(6 * time.Minute)
	fresh, err := store.Create(ctx, owner, newSession())
	require.NoError(t, err)
	c.Advance(6 * time.Minute)

	assert.ErrorIs(t, store.View(ctx, owner, stale, noop), domainRepo.ErrSessionNotFound)
	assert.NoError(t, store.View(ctx, owner, fresh, noop))

	store.cleanup()
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_SerializesUpdates(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(voucher.DefaultOptions(), time.Hour, time.Now)
	owner := uuid.New()
	id, err := store.Create(ctx, owner, newSession())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Update(ctx, owner, id, func(s *voucher.Session) error {
				return s.SetAmount(s.Header().Amount.Add(decimal.NewFromInt(1)))
			})
		}()
	}
	wg.Wait()

	require.NoError(t, store.View(ctx, owner, id, func(s *voucher.Session) error {
		assert.True(t, decimal.NewFromInt(50).Equal(s.Header().Amount))
		return nil
	}))
}
