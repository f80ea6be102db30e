// Package voucher implements the receipt voucher engine: selecting a payer's
// outstanding bills, allocating the received amount across them and deriving
// a balanced journal that stays consistent with every edit.
//
// A Session is not safe for concurrent use. Callers serialize access to it.
package voucher

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/receipt-voucher-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// DefaultDiscountAccount is the ledger account debited with bill discounts.
const DefaultDiscountAccount = "DISCOUNT"

// Bill is an outstanding document of the payer.
type Bill struct {
	Srno             int             `json:"srno"`
	DocCode          string          `json:"doc_code"`
	DocDate          time.Time       `json:"doc_date"`
	DocAmount        decimal.Decimal `json:"doc_amount"`
	DocBalanceAmount decimal.Decimal `json:"doc_bal_amount"`
	AmountType       enum.AmountType `json:"amount_type"`
}

// SelectedBill is a candidate bill with its allocation.
type SelectedBill struct {
	Bill
	AllocatedAmount decimal.Decimal `json:"allocated_amount"`
	Discount        decimal.Decimal `json:"discount"`
}

// NetAmount is the allocation minus the discount.
func (b SelectedBill) NetAmount() decimal.Decimal {
	return b.AllocatedAmount.Sub(b.Discount)
}

// JournalEntry is one ledger line of the voucher.
type JournalEntry struct {
	Srno     int             `json:"srno"`
	Account  string          `json:"account"`
	Type     enum.AmountType `json:"type"`
	Amount   decimal.Decimal `json:"amount"`
	IsManual bool            `json:"is_manual"`
}

// Header holds the receipt fields edited directly by the user.
type Header struct {
	DocumentID  uuid.UUID        `json:"document_id"`
	ReceiptNo   string           `json:"receipt_no"`
	ReceiptDate time.Time        `json:"receipt_date"`
	Account1    string           `json:"payer_account"`
	Account2    string           `json:"deposit_account"`
	PaymentMode enum.PaymentMode `json:"payment_mode"`
	Amount      decimal.Decimal  `json:"amount"`
	ReferenceNo string           `json:"reference_no"`
	ChequeNo    string           `json:"cheque_no"`
	Narration   string           `json:"narration"`
}

// IsNew reports whether the receipt has never been persisted.
func (h Header) IsNew() bool {
	return h.DocumentID == uuid.Nil
}

// Options carries the ledger settings the engine needs.
type Options struct {
	DiscountAccount string
	Tolerance       decimal.Decimal
}

// DefaultOptions returns the discount account "DISCOUNT" and a 0.01 tolerance.
func DefaultOptions() Options {
	return Options{
		DiscountAccount: DefaultDiscountAccount,
		Tolerance:       decimal.New(1, -2),
	}
}

func (o Options) normalized() Options {
	if o.DiscountAccount == "" {
		o.DiscountAccount = DefaultDiscountAccount
	}
	if !o.Tolerance.IsPositive() {
		o.Tolerance = decimal.New(1, -2)
	}
	return o
}

// state is everything a Session persists between requests.
type state struct {
	Header     Header         `json:"header"`
	Candidates []Bill         `json:"candidates"`
	Selected   []SelectedBill `json:"selected"`
	Derived    []JournalEntry `json:"derived"`
	Manual     []JournalEntry `json:"manual"`
	Editable   bool           `json:"editable"`
	LoadToken  uint64         `json:"load_token"`
}

// Session is the receipt aggregate for one editing session. It owns the
// selection and the journal; both are only meaningful for the current payer.
type Session struct {
	st   state
	opts Options
}

// NewSession starts an empty, editable receipt.
func NewSession(opts Options, receiptNo string, receiptDate time.Time) *Session {
	return &Session{
		opts: opts.normalized(),
		st: state{
			Header: Header{
				ReceiptNo:   receiptNo,
				ReceiptDate: receiptDate,
				Amount:      decimal.Zero,
			},
			Editable: true,
		},
	}
}

// Restore rebuilds a session from its JSON snapshot.
func Restore(data []byte, opts Options) (*Session, error) {
	s := &Session{opts: opts.normalized()}
	if err := json.Unmarshal(data, &s.st); err != nil {
		return nil, err
	}
	return s, nil
}

// MarshalJSON snapshots the session state.
func (s *Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.st)
}

// Options returns the ledger settings the session was built with.
func (s *Session) Options() Options {
	return s.opts
}

// Header returns a copy of the receipt header.
func (s *Session) Header() Header {
	return s.st.Header
}

// Editable reports whether mutations are allowed.
func (s *Session) Editable() bool {
	return s.st.Editable
}

func (s *Session) ensureEditable() error {
	if !s.st.Editable {
		return ErrNotEditable
	}
	return nil
}

// SetAmount changes the receipt amount and re-derives the journal.
func (s *Session) SetAmount(amount decimal.Decimal) error {
	if err := s.ensureEditable(); err != nil {
		return err
	}
	s.st.Header.Amount = amount
	s.regenerate()
	return nil
}

// SetDepositAccount changes the account debited with the cash received.
func (s *Session) SetDepositAccount(account string) error {
	if err := s.ensureEditable(); err != nil {
		return err
	}
	s.st.Header.Account2 = strings.TrimSpace(account)
	s.regenerate()
	return nil
}

// SetReceiptDate changes the receipt date.
func (s *Session) SetReceiptDate(date time.Time) error {
	if err := s.ensureEditable(); err != nil {
		return err
	}
	s.st.Header.ReceiptDate = date
	return nil
}

// SetPaymentMode changes the payment mode.
func (s *Session) SetPaymentMode(mode enum.PaymentMode) error {
	if err := s.ensureEditable(); err != nil {
		return err
	}
	s.st.Header.PaymentMode = mode
	return nil
}

// SetReferences changes the free-text reference fields.
func (s *Session) SetReferences(referenceNo, chequeNo, narration string) error {
	if err := s.ensureEditable(); err != nil {
		return err
	}
	s.st.Header.ReferenceNo = referenceNo
	s.st.Header.ChequeNo = chequeNo
	s.st.Header.Narration = narration
	return nil
}

// HasAllocations reports whether a payer change would discard user work.
func (s *Session) HasAllocations() bool {
	return len(s.st.Selected) > 0 || len(s.st.Derived) > 0 || len(s.st.Manual) > 0
}

// ChangePayer switches the payer. When allocations or journal lines exist
// and confirm is false, ErrConfirmationRequired is returned and nothing
// changes. On success the selection, journal and amount are cleared and the
// caller must reload outstanding bills when reload is true.
func (s *Session) ChangePayer(payer string, confirm bool) (reload bool, err error) {
	if err := s.ensureEditable(); err != nil {
		return false, err
	}
	payer = strings.TrimSpace(payer)
	if payer == s.st.Header.Account1 {
		return false, nil
	}
	if s.HasAllocations() && !confirm {
		return false, ErrConfirmationRequired
	}

	s.st.Header.Account1 = payer
	s.st.Header.Amount = decimal.Zero
	s.st.Candidates = nil
	s.st.Selected = nil
	s.st.Derived = nil
	s.st.Manual = nil
	// invalidate any fetch issued for the previous payer
	s.st.LoadToken++

	return payer != "", nil
}

// Reset discards all edits and keeps only the receipt number and date.
func (s *Session) Reset() {
	s.st = state{
		Header: Header{
			ReceiptNo:   s.st.Header.ReceiptNo,
			ReceiptDate: s.st.Header.ReceiptDate,
			Amount:      decimal.Zero,
		},
		Editable:  true,
		LoadToken: s.st.LoadToken + 1,
	}
}

// MarkSaved records the persisted id and number and locks the session.
// An empty receiptNo keeps the current number.
func (s *Session) MarkSaved(id uuid.UUID, receiptNo string) {
	s.st.Header.DocumentID = id
	if receiptNo != "" {
		s.st.Header.ReceiptNo = receiptNo
	}
	s.st.Editable = false
}

// EnableEdit unlocks a saved session.
func (s *Session) EnableEdit() {
	s.st.Editable = true
}

// Totals recomputes the allocation totals of the current selection.
func (s *Session) Totals() Totals {
	return Aggregate(s.st.Selected)
}

// ConfirmBillSelection re-derives the journal from the selection and sizes
// the receipt amount to the net allocation.
func (s *Session) ConfirmBillSelection() (Totals, error) {
	if err := s.ensureEditable(); err != nil {
		return Totals{}, err
	}
	totals := s.Totals()
	s.st.Header.Amount = totals.NetAllocated
	s.regenerate()
	return totals, nil
}

// Validate runs every pre-save check and returns *ValidationErrors when any fails.
func (s *Session) Validate() error {
	verr := &ValidationErrors{}
	h := s.st.Header

	if h.Account1 == "" {
		verr.add(FieldPayer, "Payer account is required")
	}
	if h.Account2 == "" {
		verr.add(FieldDeposit, "Deposit account is required")
	}
	if h.ReceiptDate.IsZero() {
		verr.add(FieldReceiptDate, "Receipt date is required")
	}
	if h.PaymentMode == "" {
		verr.add(FieldPaymentMode, "Payment mode is required")
	} else if !h.PaymentMode.IsValid() {
		verr.add(FieldPaymentMode, "Payment mode is invalid")
	}
	if !h.Amount.IsPositive() {
		verr.add(FieldAmount, "Amount must be greater than zero")
	} else if h.Amount.LessThan(s.Totals().NetAllocated) {
		verr.add(FieldAmount, "Allocated amount cannot be greater than the total amount")
	}

	for _, b := range s.st.Selected {
		if b.Discount.GreaterThan(b.AllocatedAmount) {
			verr.add(FieldBills, "Discount cannot exceed the allocated amount on "+b.DocCode)
			break
		}
	}

	if imbalance := FindImbalance(s.Journal(), s.opts.Tolerance); imbalance != nil {
		verr.Imbalance = imbalance
		verr.add(FieldJournal, imbalance.Error())
	}

	return verr.orNil()
}
