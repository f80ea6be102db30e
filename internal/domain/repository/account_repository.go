package repository

import (
	"context"

	"github.com/sangkips/receipt-voucher-api/internal/domain/entity"
)

// AccountRepository defines the ledger account lookups
type AccountRepository interface {
	// List returns accounts whose code or description contains search
	List(ctx context.Context, search string, limit int) ([]entity.Account, error)
	GetByCode(ctx context.Context, code string) (*entity.Account, error)
	// EnsureSystem creates the account when it does not exist yet
	EnsureSystem(ctx context.Context, code, description string) error
}
