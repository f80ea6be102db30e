// Package session holds receipt editing sessions in process memory or in Redis.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	domainRepo "github.com/sangkips/receipt-voucher-api/internal/domain/repository"
	"github.com/sangkips/receipt-voucher-api/internal/domain/voucher"
)

type memoryEntry struct {
	mu       sync.Mutex
	owner    uuid.UUID
	session  *voucher.Session
	lastSeen time.Time
	removed  bool
}

// MemoryStore keeps sessions in a map with one mutex per session.
type MemoryStore struct {
	entries     map[uuid.UUID]*memoryEntry
	mu          sync.RWMutex
	opts        voucher.Options
	ttl         time.Duration
	cleanupTick time.Duration
	now         func() time.Time
	restore     func([]byte, voucher.Options) (*voucher.Session, error)
	stop        chan struct{}
	stopOnce    sync.Once
}

// NewMemoryStore creates the store and starts its expiry loop. Call Close to stop it.
func NewMemoryStore(opts voucher.Options, ttl time.Duration) *MemoryStore {
	s := newMemoryStore(opts, ttl, time.Now)
	go s.cleanupLoop()
	return s
}

func newMemoryStore(opts voucher.Options, ttl time.Duration, now func() time.Time) *MemoryStore {
	tick := ttl / 4
	if tick < time.Second {
		tick = time.Second
	}
	return &MemoryStore{
		entries:     make(map[uuid.UUID]*memoryEntry),
		opts:        opts,
		ttl:         ttl,
		cleanupTick: tick,
		now:         now,
		restore:     voucher.Restore,
		stop:        make(chan struct{}),
	}
}

func (m *MemoryStore) Create(ctx context.Context, owner uuid.UUID, s *voucher.Session) (uuid.UUID, error) {
	id := uuid.New()
	m.mu.Lock()
	m.entries[id] = &memoryEntry{owner: owner, session: s, lastSeen: m.now()}
	m.mu.Unlock()
	return id, nil
}

// acquire returns the locked entry. The caller must unlock it.
func (m *MemoryStore) acquire(owner, id uuid.UUID) (*memoryEntry, error) {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok {
		return nil, domainRepo.ErrSessionNotFound
	}

	e.mu.Lock()
	if e.removed || e.owner != owner || m.expired(e) {
		e.mu.Unlock()
		return nil, domainRepo.ErrSessionNotFound
	}
	e.lastSeen = m.now()
	return e, nil
}

func (m *MemoryStore) expired(e *memoryEntry) bool {
	return m.ttl > 0 && m.now().Sub(e.lastSeen) > m.ttl
}

func (m *MemoryStore) View(ctx context.Context, owner, id uuid.UUID, fn func(*voucher.Session) error) error {
	e, err := m.acquire(owner, id)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()
	return fn(e.session)
}

func (m *MemoryStore) Update(ctx context.Context, owner, id uuid.UUID, fn func(*voucher.Session) error) error {
	e, err := m.acquire(owner, id)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()

	snapshot, err := json.Marshal(e.session)
	if err != nil {
		return err
	}
	if err := fn(e.session); err != nil {
		restored, rerr := m.restore(snapshot, m.opts)
		if rerr != nil {
			// a session that cannot be rolled back is discarded
			e.removed = true
			m.mu.Lock()
			delete(m.entries, id)
			m.mu.Unlock()
			return errors.Join(err, fmt.Errorf("failed to roll back session %s: %w", id, rerr))
		}
		e.session = restored
		return err
	}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, owner, id uuid.UUID) error {
	e, err := m.acquire(owner, id)
	if err != nil {
		return err
	}
	e.removed = true
	e.mu.Unlock()

	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close stops the expiry loop.
func (m *MemoryStore) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	return nil
}

func (m *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(m.cleanupTick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup()
		case <-m.stop:
			return
		}
	}
}

// cleanup removes sessions that have not been touched within the TTL
func (m *MemoryStore) cleanup() {
	if m.ttl <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.ttl)
	for id, e := range m.entries {
		if !e.mu.TryLock() {
			// in use, so not stale
			continue
		}
		if e.lastSeen.Before(cutoff) {
			e.removed = true
			delete(m.entries, id)
		}
		e.mu.Unlock()
	}
}
