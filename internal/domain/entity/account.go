package entity

import (
	"time"

	"gorm.io/gorm"
)

// Account is a ledger account. Payers, deposit accounts and the discount
// account are all accounts.
type Account struct {
	Code        string         `gorm:"column:ac_code;size:50;primaryKey" json:"AC_CODE"`
	Description string         `gorm:"column:ac_desc;size:255;not null" json:"AC_DESC"`
	IsSystem    bool           `gorm:"default:false" json:"is_system"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName returns the table name for the Account model
func (Account) TableName() string {
	return "accounts"
}
