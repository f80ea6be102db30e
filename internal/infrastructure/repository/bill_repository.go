package repository

import (
	"context"

	"github.com/sangkips/receipt-voucher-api/internal/domain/entity"
	domainRepo "github.com/sangkips/receipt-voucher-api/internal/domain/repository"
	"gorm.io/gorm"
)

type billRepository struct {
	db *gorm.DB
}

// NewBillRepository creates a new bill repository
func NewBillRepository(db *gorm.DB) domainRepo.BillRepository {
	return &billRepository{db: db}
}

func (r *billRepository) ListOutstanding(ctx context.Context, payer, excludeReceiptNo string) ([]entity.OutstandingBill, error) {
	var results []entity.OutstandingBill

	err := r.db.WithContext(ctx).Raw(`
		SELECT
			b.doc_code,
			b.doc_date,
			b.doc_amount,
			b.doc_amount - COALESCE(SUM(rd.allocated_amount), 0) AS doc_bal_amount,
			b.amount_type
		FROM bills b
		LEFT JOIN receipt_details rd ON rd.doc_code = b.doc_code
			AND EXISTS (
				SELECT 1 FROM receipt_vouchers rv
				WHERE rv.id = rd.receipt_id
					AND rv.deleted_at IS NULL
					AND rv.receipt_no <> ?
			)
		WHERE b.ac_code = ? AND b.deleted_at IS NULL
		GROUP BY b.doc_code, b.doc_date, b.doc_amount, b.amount_type
		HAVING b.doc_amount - COALESCE(SUM(rd.allocated_amount), 0) > 0
		ORDER BY b.doc_date ASC, b.doc_code ASC
	`, excludeReceiptNo, payer).Scan(&results).Error

	if err != nil {
		return nil, err
	}

	return results, nil
}
