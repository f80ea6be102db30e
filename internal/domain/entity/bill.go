package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/receipt-voucher-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Bill is a document raised against an account that receipts settle.
type Bill struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	AccountCode string          `gorm:"column:ac_code;size:50;not null;index" json:"ac_code"`
	DocCode     string          `gorm:"size:100;uniqueIndex;not null" json:"doc_code"`
	DocDate     time.Time       `gorm:"type:date;not null;index" json:"doc_date"`
	DocAmount   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"doc_amount"`
	AmountType  enum.AmountType `gorm:"size:10;not null;default:'Debit'" json:"amount_type"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`

	Account Account `gorm:"foreignKey:AccountCode;references:Code" json:"-"`
}

// BeforeCreate generates a UUID before creating a new bill
func (b *Bill) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Bill model
func (Bill) TableName() string {
	return "bills"
}

// OutstandingBill is a bill with the balance still open after every other
// receipt's allocations.
type OutstandingBill struct {
	DocCode      string
	DocDate      time.Time
	DocAmount    decimal.Decimal
	DocBalAmount decimal.Decimal
	AmountType   enum.AmountType
}
