package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// AmountType is the ledger side of a bill or journal line
type AmountType string

const (
	AmountTypeDebit  AmountType = "Debit"
	AmountTypeCredit AmountType = "Credit"
)

func (t AmountType) String() string {
	return string(t)
}

// IsValid reports whether t is one of the two ledger sides
func (t AmountType) IsValid() bool {
	return t == AmountTypeDebit || t == AmountTypeCredit
}

// ParseAmountType accepts "Debit"/"Credit" in any case, and the short forms "Dr"/"Cr"
func ParseAmountType(s string) (AmountType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debit", "dr", "d":
		return AmountTypeDebit, nil
	case "credit", "cr", "c":
		return AmountTypeCredit, nil
	}
	return "", fmt.Errorf("invalid amount type %q", s)
}

func (t AmountType) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(t))
}

func (t *AmountType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseAmountType(str)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t AmountType) Value() (driver.Value, error) {
	return string(t), nil
}

func (t *AmountType) Scan(value interface{}) error {
	if value == nil {
		*t = AmountTypeDebit
		return nil
	}
	switch v := value.(type) {
	case string:
		*t = AmountType(v)
	case []byte:
		*t = AmountType(string(v))
	}
	return nil
}
