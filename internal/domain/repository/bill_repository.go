package repository

import (
	"context"

	"github.com/sangkips/receipt-voucher-api/internal/domain/entity"
)

// BillRepository defines the outstanding bills lookup
type BillRepository interface {
	// ListOutstanding returns payer's bills with a positive open balance,
	// oldest first. Allocations made by excludeReceiptNo are not deducted so
	// a receipt being edited sees its own bills as still open.
	ListOutstanding(ctx context.Context, payer, excludeReceiptNo string) ([]entity.OutstandingBill, error)
}
