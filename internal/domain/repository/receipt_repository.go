package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/receipt-voucher-api/internal/domain/entity"
	"github.com/sangkips/receipt-voucher-api/pkg/pagination"
)

// ReceiptRepository defines receipt persistence and numbering
type ReceiptRepository interface {
	// Upsert writes the header, details and journal in one transaction.
	// A receipt without an ID is inserted and numbered from the prefix
	// sequence; otherwise its details and journal are replaced.
	Upsert(ctx context.Context, receipt *entity.ReceiptVoucher, prefix string) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ReceiptVoucher, error)
	GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.ReceiptVoucher, error)
	List(ctx context.Context, params *ReceiptFilterParams) ([]entity.ReceiptVoucher, int64, error)
	// PeekSequence returns the number the next insert will receive
	PeekSequence(ctx context.Context, prefix string) (int64, error)
}

// ReceiptFilterParams contains filtering parameters for receipt queries
type ReceiptFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	Payer      string
	StartDate  *time.Time
	EndDate    *time.Time
	SortBy     string
	SortOrder  string
}
