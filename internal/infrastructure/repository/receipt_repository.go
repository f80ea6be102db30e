package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/receipt-voucher-api/internal/domain/entity"
	domainRepo "github.com/sangkips/receipt-voucher-api/internal/domain/repository"
	"github.com/sangkips/receipt-voucher-api/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type receiptRepository struct {
	db *gorm.DB
}

// NewReceiptRepository creates a new receipt repository
func NewReceiptRepository(db *gorm.DB) domainRepo.ReceiptRepository {
	return &receiptRepository{db: db}
}

var receiptSortColumns = map[string]string{
	"receipt_no":   "receipt_no",
	"receipt_date": "receipt_date",
	"amount":       "amount",
	"created_at":   "created_at",
}

func (r *receiptRepository) Upsert(ctx context.Context, receipt *entity.ReceiptVoucher, prefix string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// a repeated insert from the same session updates its receipt
		if receipt.ID == uuid.Nil && receipt.SessionID != nil {
			var existing entity.ReceiptVoucher
			err := tx.Select("id").Where("session_id = ?", *receipt.SessionID).Take(&existing).Error
			switch {
			case err == nil:
				receipt.ID = existing.ID
				receipt.CreatedByID = nil
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}
		}

		if receipt.ID == uuid.Nil {
			seq, err := nextSequence(tx, prefix)
			if err != nil {
				return err
			}
			receipt.ReceiptNo = utils.FormatDocumentNo(prefix, seq)
			// details and journal are created with the header
			return tx.Create(receipt).Error
		}

		res := tx.Model(receipt).
			Select("receipt_date", "account1", "account2", "payment_mode", "amount",
				"net_allocated", "discount", "reference_no", "cheque_no", "narration", "updated_by", "updated_at").
			Omit(clause.Associations).
			Updates(receipt)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Where("receipt_id = ?", receipt.ID).Delete(&entity.ReceiptDetail{}).Error; err != nil {
			return err
		}
		if err := tx.Where("receipt_id = ?", receipt.ID).Delete(&entity.ReceiptJournal{}).Error; err != nil {
			return err
		}

		for i := range receipt.Details {
			receipt.Details[i].ReceiptID = receipt.ID
		}
		for i := range receipt.Journal {
			receipt.Journal[i].ReceiptID = receipt.ID
		}
		if len(receipt.Details) > 0 {
			if err := tx.Create(&receipt.Details).Error; err != nil {
				return err
			}
		}
		if len(receipt.Journal) > 0 {
			if err := tx.Create(&receipt.Journal).Error; err != nil {
				return err
			}
		}

		return tx.Select("receipt_no").First(receipt, "id = ?", receipt.ID).Error
	})
}

// nextSequence increments the prefix counter under a row lock.
func nextSequence(tx *gorm.DB, prefix string) (int64, error) {
	seq := entity.DocumentSequence{Prefix: prefix}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; err != nil {
		return 0, fmt.Errorf("failed to init sequence %s: %w", prefix, err)
	}
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&seq, "prefix = ?", prefix).Error; err != nil {
		return 0, fmt.Errorf("failed to lock sequence %s: %w", prefix, err)
	}

	seq.LastValue++
	if err := tx.Model(&seq).Update("last_value", seq.LastValue).Error; err != nil {
		return 0, fmt.Errorf("failed to advance sequence %s: %w", prefix, err)
	}
	return seq.LastValue, nil
}

func (r *receiptRepository) PeekSequence(ctx context.Context, prefix string) (int64, error) {
	var seq entity.DocumentSequence
	err := r.db.WithContext(ctx).First(&seq, "prefix = ?", prefix).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return seq.LastValue + 1, nil
}

func (r *receiptRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.ReceiptVoucher, error) {
	var receipt entity.ReceiptVoucher
	err := r.db.WithContext(ctx).First(&receipt, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &receipt, err
}

func (r *receiptRepository) GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.ReceiptVoucher, error) {
	var receipt entity.ReceiptVoucher
	err := r.db.WithContext(ctx).
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("srno ASC") }).
		Preload("Journal", func(db *gorm.DB) *gorm.DB { return db.Order("srno ASC") }).
		First(&receipt, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &receipt, err
}

func (r *receiptRepository) List(ctx context.Context, params *domainRepo.ReceiptFilterParams) ([]entity.ReceiptVoucher, int64, error) {
	var receipts []entity.ReceiptVoucher
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.ReceiptVoucher{})

	if params.Search != "" {
		like := "%" + params.Search + "%"
		query = query.Where("receipt_no ILIKE ? OR reference_no ILIKE ? OR narration ILIKE ?", like, like, like)
	}

	if params.Payer != "" {
		query = query.Where("account1 = ?", params.Payer)
	}

	if params.StartDate != nil {
		query = query.Where("receipt_date >= ?", *params.StartDate)
	}

	if params.EndDate != nil {
		query = query.Where("receipt_date <= ?", *params.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Sorting
	sortBy := "created_at"
	sortOrder := "DESC"
	if col, ok := receiptSortColumns[params.SortBy]; ok {
		sortBy = col
	}
	if params.SortOrder == "ASC" || params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Order(sortBy + " " + sortOrder).
		Find(&receipts).Error

	return receipts, total, err
}
