package request

import (
	"github.com/shopspring/decimal"
)

// UpdateHeaderRequest represents a partial header update. Omitted fields are left alone.
type UpdateHeaderRequest struct {
	Amount         *decimal.Decimal `json:"amount"`
	DepositAccount *string          `json:"deposit_account" binding:"omitempty,max=50"`
	ReceiptDate    *string          `json:"receipt_date" binding:"omitempty,datetime=2006-01-02"`
	PaymentMode    *string          `json:"payment_mode" binding:"omitempty,max=30"`
	ReferenceNo    *string          `json:"reference_no" binding:"omitempty,max=100"`
	ChequeNo       *string          `json:"cheque_no" binding:"omitempty,max=100"`
	Narration      *string          `json:"narration" binding:"omitempty,max=2000"`
}

// ChangePayerRequest represents a payer change
type ChangePayerRequest struct {
	Payer   string `json:"payer_account" binding:"max=50"`
	Confirm bool   `json:"confirm"`
}

// SelectAllRequest selects or deselects every bill matching Search
type SelectAllRequest struct {
	Search   string `json:"search"`
	Selected *bool  `json:"selected" binding:"required"`
}

// UpdateBillRequest represents an allocation or discount edit
type UpdateBillRequest struct {
	AllocatedAmount *decimal.Decimal `json:"allocated_amount"`
	Discount        *decimal.Decimal `json:"discount"`
}

// AddJournalEntryRequest represents a manual journal line
type AddJournalEntryRequest struct {
	Account string          `json:"account" binding:"required,max=50"`
	Type    string          `json:"type" binding:"required"`
	Amount  decimal.Decimal `json:"amount"`
}

// BillFilterRequest represents the candidate bill filter
type BillFilterRequest struct {
	Search string `form:"search"`
}

// ReceiptFilterRequest represents receipt list filter parameters
type ReceiptFilterRequest struct {
	Search    string `form:"search"`
	Payer     string `form:"payer_account"`
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
	Page      int    `form:"page"`
	PerPage   int    `form:"per_page"`
}

// AccountFilterRequest represents the account lookup parameters
type AccountFilterRequest struct {
	Search string `form:"search"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=200"`
}
