package voucher

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sangkips/receipt-voucher-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotEditable is returned by every mutation once the receipt has been saved.
	ErrNotEditable = errors.New("receipt is not editable")

	// ErrConfirmationRequired is returned when a payer change would discard allocations or journal lines.
	ErrConfirmationRequired = errors.New("changing payer removes allocations and journal")

	// ErrBillNotFound means the srno is not part of the candidate set.
	ErrBillNotFound = errors.New("bill not found in outstanding bills")

	// ErrBillNotSelected means the srno is a candidate but not part of the selection.
	ErrBillNotSelected = errors.New("bill is not selected")

	// ErrPayerNotResolvable is wrapped by FetchError when the payer has no ledger account.
	ErrPayerNotResolvable = errors.New("payer has no resolvable account")
)

// Field keys used in ValidationErrors.
const (
	FieldPayer       = "payer_account"
	FieldDeposit     = "deposit_account"
	FieldReceiptDate = "receipt_date"
	FieldPaymentMode = "payment_mode"
	FieldAmount      = "amount"
	FieldBills       = "bills"
	FieldJournal     = "journal"
	FieldAccount     = "account"
	FieldType        = "type"
)

// FetchError reports a failed outstanding-bills load for a payer.
type FetchError struct {
	Payer string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("cannot load outstanding bills for %q: %v", e.Payer, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// JournalImbalance is raised when debits and credits differ by more than the tolerance.
// Difference is always positive; Side names the side in excess.
type JournalImbalance struct {
	Difference decimal.Decimal
	Side       enum.AmountType
}

func (e *JournalImbalance) Error() string {
	return fmt.Sprintf("journal is not balanced: %s exceeds by %s", e.Side, e.Difference.StringFixed(2))
}

// ValidationErrors collects every pre-save failure keyed by field.
type ValidationErrors struct {
	Fields    map[string]string
	Imbalance *JournalImbalance
}

func (v *ValidationErrors) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the journal imbalance, if any, to errors.As.
func (v *ValidationErrors) Unwrap() error {
	if v.Imbalance == nil {
		return nil
	}
	return v.Imbalance
}

func (v *ValidationErrors) add(field, message string) {
	if v.Fields == nil {
		v.Fields = make(map[string]string)
	}
	if _, exists := v.Fields[field]; !exists {
		v.Fields[field] = message
	}
}

func (v *ValidationErrors) orNil() error {
	if len(v.Fields) == 0 {
		return nil
	}
	return v
}
