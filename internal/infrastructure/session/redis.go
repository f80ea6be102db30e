package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	domainRepo "github.com/sangkips/receipt-voucher-api/internal/domain/repository"
	"github.com/sangkips/receipt-voucher-api/internal/domain/voucher"
)

const keyPrefix = "receipt-session:"

type redisRecord struct {
	Owner   uuid.UUID       `json:"owner"`
	Session json.RawMessage `json:"session"`
}

// RedisStore keeps sessions as JSON snapshots with a sliding TTL. Updates
// are serialized across processes with a redislock per session.
type RedisStore struct {
	client      *redis.Client
	locker      *redislock.Client
	opts        voucher.Options
	ttl         time.Duration
	lockTimeout time.Duration
}

// NewRedisStore creates a store on an existing client.
func NewRedisStore(client *redis.Client, opts voucher.Options, ttl, lockTimeout time.Duration) *RedisStore {
	if lockTimeout <= 0 {
		lockTimeout = 10 * time.Second
	}
	return &RedisStore{
		client:      client,
		locker:      redislock.New(client),
		opts:        opts,
		ttl:         ttl,
		lockTimeout: lockTimeout,
	}
}

func sessionKey(id uuid.UUID) string {
	return keyPrefix + id.String()
}

func (r *RedisStore) Create(ctx context.Context, owner uuid.UUID, s *voucher.Session) (uuid.UUID, error) {
	id := uuid.New()
	if err := r.save(ctx, id, owner, s); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *RedisStore) save(ctx context.Context, id, owner uuid.UUID, s *voucher.Session) error {
	state, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	data, err := json.Marshal(redisRecord{Owner: owner, Session: state})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return r.client.Set(ctx, sessionKey(id), data, r.ttl).Err()
}

func (r *RedisStore) load(ctx context.Context, owner, id uuid.UUID) (*voucher.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domainRepo.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec redisRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if rec.Owner != owner {
		return nil, domainRepo.ErrSessionNotFound
	}
	return voucher.Restore(rec.Session, r.opts)
}

func (r *RedisStore) lock(ctx context.Context, id uuid.UUID) (*redislock.Lock, error) {
	lock, err := r.locker.Obtain(ctx, sessionKey(id)+":lock", r.lockTimeout, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), int(r.lockTimeout/(50*time.Millisecond))),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, domainRepo.ErrSessionBusy
	}
	return lock, err
}

func (r *RedisStore) View(ctx context.Context, owner, id uuid.UUID, fn func(*voucher.Session) error) error {
	s, err := r.load(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	return r.client.Expire(ctx, sessionKey(id), r.ttl).Err()
}

func (r *RedisStore) Update(ctx context.Context, owner, id uuid.UUID, fn func(*voucher.Session) error) error {
	lock, err := r.lock(ctx, id)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release(context.WithoutCancel(ctx)) }()

	s, err := r.load(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	return r.save(ctx, id, owner, s)
}

func (r *RedisStore) Delete(ctx context.Context, owner, id uuid.UUID) error {
	lock, err := r.lock(ctx, id)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release(context.WithoutCancel(ctx)) }()

	if _, err := r.load(ctx, owner, id); err != nil {
		return err
	}
	return r.client.Del(ctx, sessionKey(id)).Err()
}
