package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/receipt-voucher-api/internal/domain/voucher"
)

var (
	// ErrSessionNotFound is returned for unknown, expired or foreign sessions
	ErrSessionNotFound = errors.New("receipt session not found")
	// ErrSessionBusy is returned when the session lock could not be taken in time
	ErrSessionBusy = errors.New("receipt session is busy")
)

// SessionStore keeps receipt editing sessions between requests. Update runs
// fn with exclusive access to the session and keeps its changes only when
// fn returns nil.
type SessionStore interface {
	Create(ctx context.Context, owner uuid.UUID, s *voucher.Session) (uuid.UUID, error)
	View(ctx context.Context, owner, id uuid.UUID, fn func(*voucher.Session) error) error
	Update(ctx context.Context, owner, id uuid.UUID, fn func(*voucher.Session) error) error
	Delete(ctx context.Context, owner, id uuid.UUID) error
}
