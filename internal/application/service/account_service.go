package service

import (
	"context"
	"strings"

	"github.com/sangkips/receipt-voucher-api/internal/domain/entity"
	"github.com/sangkips/receipt-voucher-api/internal/domain/repository"
	"github.com/sangkips/receipt-voucher-api/pkg/apperror"
)

const (
	defaultAccountLimit = 50
	maxAccountLimit     = 200
)

// AccountService handles ledger account lookups for the payer and deposit pickers
type AccountService struct {
	accountRepo repository.AccountRepository
}

// NewAccountService creates a new account service
func NewAccountService(accountRepo repository.AccountRepository) *AccountService {
	return &AccountService{accountRepo: accountRepo}
}

// ListAccounts returns accounts whose code or description contains search
func (s *AccountService) ListAccounts(ctx context.Context, search string, limit int) ([]entity.Account, error) {
	if limit <= 0 {
		limit = defaultAccountLimit
	}
	if limit > maxAccountLimit {
		limit = maxAccountLimit
	}

	accounts, err := s.accountRepo.List(ctx, strings.TrimSpace(search), limit)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []entity.Account{}
	}
	return accounts, nil
}

// GetAccount retrieves an account by code
func (s *AccountService) GetAccount(ctx context.Context, code string) (*entity.Account, error) {
	account, err := s.accountRepo.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperror.NewNotFoundError("Account")
	}
	return account, nil
}
