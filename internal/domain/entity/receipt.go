package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/receipt-voucher-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReceiptVoucher is a saved receipt. Account1 is the payer credited and
// Account2 the deposit account debited.
type ReceiptVoucher struct {
	ID           uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	ReceiptNo    string           `gorm:"size:50;uniqueIndex;not null" json:"receipt_no"`
	ReceiptDate  time.Time        `gorm:"type:date;not null;index" json:"receipt_date"`
	Account1     string           `gorm:"column:account1;size:50;not null;index" json:"account1"`
	Account2     string           `gorm:"column:account2;size:50;not null" json:"account2"`
	PaymentMode  enum.PaymentMode `gorm:"size:30;not null" json:"payment_mode"`
	Amount       decimal.Decimal  `gorm:"type:decimal(20,4);not null;default:0" json:"amount"`
	NetAllocated decimal.Decimal  `gorm:"type:decimal(20,4);not null;default:0" json:"net_allocated"`
	Discount     decimal.Decimal  `gorm:"type:decimal(20,4);not null;default:0" json:"discount"`
	ReferenceNo  string           `gorm:"size:100" json:"reference_no"`
	ChequeNo     string           `gorm:"size:100" json:"cheque_no"`
	Narration    string           `gorm:"type:text" json:"narration"`
	SessionID    *uuid.UUID       `gorm:"type:uuid;uniqueIndex" json:"session_id,omitempty"`
	CreatedByID  *uuid.UUID       `gorm:"type:uuid;column:created_by" json:"created_by,omitempty"`
	UpdatedByID  *uuid.UUID       `gorm:"type:uuid;column:updated_by" json:"updated_by,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	DeletedAt    gorm.DeletedAt   `gorm:"index" json:"-"`

	// Relationships
	Details []ReceiptDetail  `gorm:"foreignKey:ReceiptID" json:"details,omitempty"`
	Journal []ReceiptJournal `gorm:"foreignKey:ReceiptID" json:"journal,omitempty"`
}

// BeforeCreate generates a UUID before creating a new receipt
func (r *ReceiptVoucher) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the ReceiptVoucher model
func (ReceiptVoucher) TableName() string {
	return "receipt_vouchers"
}

// ReceiptDetail is one bill allocated by a receipt.
type ReceiptDetail struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ReceiptID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"receipt_id"`
	Srno            int             `gorm:"not null" json:"srno"`
	DocCode         string          `gorm:"size:100;not null;index" json:"doc_code"`
	DocDate         time.Time       `gorm:"type:date" json:"doc_date"`
	DocAmount       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"doc_amount"`
	DocBalAmount    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"doc_bal_amount"`
	AllocatedAmount decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"allocated_amount"`
	Discount        decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"discount"`
	NetAmount       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"net_amount"`
	AmountType      enum.AmountType `gorm:"size:10;not null" json:"amount_type"`
	CreatedAt       time.Time       `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new receipt detail
func (d *ReceiptDetail) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the ReceiptDetail model
func (ReceiptDetail) TableName() string {
	return "receipt_details"
}

// ReceiptJournal is one ledger line posted by a receipt.
type ReceiptJournal struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ReceiptID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"receipt_id"`
	Srno        int             `gorm:"not null" json:"srno"`
	AccountCode string          `gorm:"column:ac_code;size:50;not null" json:"account"`
	Type        enum.AmountType `gorm:"size:10;not null" json:"type"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	IsManual    bool            `gorm:"not null;default:false" json:"is_manual"`
	CreatedAt   time.Time       `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new journal line
func (j *ReceiptJournal) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the ReceiptJournal model
func (ReceiptJournal) TableName() string {
	return "receipt_journal"
}

// DocumentSequence is the last number issued for a document prefix.
type DocumentSequence struct {
	Prefix    string    `gorm:"size:20;primaryKey" json:"prefix"`
	LastValue int64     `gorm:"not null;default:0" json:"last_value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for the DocumentSequence model
func (DocumentSequence) TableName() string {
	return "document_sequences"
}
