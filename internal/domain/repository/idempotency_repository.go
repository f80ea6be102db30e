package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/receipt-voucher-api/internal/domain/entity"
)

// IdempotencyRepository stores replayable save responses
type IdempotencyRepository interface {
	// GetByKey returns nil when the user never used key
	GetByKey(ctx context.Context, key string, userID uuid.UUID) (*entity.IdempotencyKey, error)
	Create(ctx context.Context, ikey *entity.IdempotencyKey) error
	// DeleteExpired removes keys past their expiry and reports how many
	DeleteExpired(ctx context.Context) (int64, error)
}
