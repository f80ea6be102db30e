package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// PaymentMode represents how a receipt was paid in
type PaymentMode string

const (
	PaymentModeCash     PaymentMode = "cash"
	PaymentModeCheque   PaymentMode = "cheque"
	PaymentModeTransfer PaymentMode = "bank_transfer"
	PaymentModeCard     PaymentMode = "card"
	PaymentModeMobile   PaymentMode = "mobile_money"
)

func (m PaymentMode) String() string {
	return string(m)
}

// IsValid reports whether m is a known payment mode
func (m PaymentMode) IsValid() bool {
	switch m {
	case PaymentModeCash, PaymentModeCheque, PaymentModeTransfer, PaymentModeCard, PaymentModeMobile:
		return true
	}
	return false
}

func (m PaymentMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(m))
}

func (m *PaymentMode) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*m = PaymentMode(str)
	return nil
}

func (m PaymentMode) Value() (driver.Value, error) {
	return string(m), nil
}

func (m *PaymentMode) Scan(value interface{}) error {
	if value == nil {
		*m = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*m = PaymentMode(v)
	case []byte:
		*m = PaymentMode(string(v))
	}
	return nil
}
