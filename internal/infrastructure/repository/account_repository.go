package repository

import (
	"context"
	"errors"

	"github.com/sangkips/receipt-voucher-api/internal/domain/entity"
	domainRepo "github.com/sangkips/receipt-voucher-api/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) domainRepo.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) List(ctx context.Context, search string, limit int) ([]entity.Account, error) {
	var accounts []entity.Account

	query := r.db.WithContext(ctx).Model(&entity.Account{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("ac_code ILIKE ? OR ac_desc ILIKE ?", like, like)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Order("ac_code ASC").Find(&accounts).Error
	return accounts, err
}

func (r *accountRepository) GetByCode(ctx context.Context, code string) (*entity.Account, error) {
	var account entity.Account
	err := r.db.WithContext(ctx).First(&account, "ac_code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &account, err
}

func (r *accountRepository) EnsureSystem(ctx context.Context, code, description string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.Account{Code: code, Description: description, IsSystem: true}).Error
}
