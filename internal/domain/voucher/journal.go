package voucher

import (
	"slices"
	"strings"

	"github.com/sangkips/receipt-voucher-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// DeriveSystemLines builds the system part of the journal from the totals:
// the payer is credited with the gross amount cleared, the deposit account
// is debited with the cash received and the discount account with the
// discount. Lines that would carry a zero amount are omitted.
func DeriveSystemLines(totals Totals, payer, deposit, discountAccount string) []JournalEntry {
	gross := totals.NetAllocated.Add(totals.Discount)
	lines := make([]JournalEntry, 0, 3)

	if gross.IsPositive() {
		lines = append(lines, JournalEntry{Account: payer, Type: enum.AmountTypeCredit, Amount: gross})
	}
	if totals.NetAllocated.IsPositive() {
		lines = append(lines, JournalEntry{Account: deposit, Type: enum.AmountTypeDebit, Amount: totals.NetAllocated})
	}
	if totals.Discount.IsPositive() {
		lines = append(lines, JournalEntry{Account: discountAccount, Type: enum.AmountTypeDebit, Amount: totals.Discount})
	}
	return lines
}

// MergeJournal appends manual lines after the system lines and numbers the
// result 1..N.
func MergeJournal(system, manual []JournalEntry) []JournalEntry {
	merged := make([]JournalEntry, 0, len(system)+len(manual))
	for _, e := range system {
		e.IsManual = false
		merged = append(merged, e)
	}
	for _, e := range manual {
		e.IsManual = true
		merged = append(merged, e)
	}
	for i := range merged {
		merged[i].Srno = i + 1
	}
	return merged
}

// SumJournal returns the debit and credit totals.
func SumJournal(entries []JournalEntry) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, e := range entries {
		switch e.Type {
		case enum.AmountTypeDebit:
			debit = debit.Add(e.Amount)
		case enum.AmountTypeCredit:
			credit = credit.Add(e.Amount)
		}
	}
	return debit, credit
}

// Balance returns Σdebit − Σcredit.
func Balance(entries []JournalEntry) decimal.Decimal {
	debit, credit := SumJournal(entries)
	return debit.Sub(credit)
}

// FindImbalance returns nil when |Σdebit − Σcredit| is within tolerance.
func FindImbalance(entries []JournalEntry, tolerance decimal.Decimal) *JournalImbalance {
	balance := Balance(entries)
	if balance.Abs().LessThanOrEqual(tolerance) {
		return nil
	}
	side := enum.AmountTypeDebit
	if balance.IsNegative() {
		side = enum.AmountTypeCredit
	}
	return &JournalImbalance{Difference: balance.Abs(), Side: side}
}

// CheckBalance is FindImbalance as an error.
func CheckBalance(entries []JournalEntry, tolerance decimal.Decimal) error {
	if imbalance := FindImbalance(entries, tolerance); imbalance != nil {
		return imbalance
	}
	return nil
}

func (s *Session) regenerate() {
	s.st.Derived = DeriveSystemLines(s.Totals(), s.st.Header.Account1, s.st.Header.Account2, s.opts.DiscountAccount)
}

// Journal returns the merged journal with contiguous srno.
func (s *Session) Journal() []JournalEntry {
	return MergeJournal(s.st.Derived, s.st.Manual)
}

// AddManualEntry appends a user line. An empty account, an invalid type or
// a non-positive amount is rejected with *ValidationErrors and no change.
func (s *Session) AddManualEntry(account string, typ enum.AmountType, amount decimal.Decimal) (JournalEntry, error) {
	if err := s.ensureEditable(); err != nil {
		return JournalEntry{}, err
	}

	verr := &ValidationErrors{}
	account = strings.TrimSpace(account)
	if account == "" {
		verr.add(FieldAccount, "Account is required")
	}
	if !typ.IsValid() {
		verr.add(FieldType, "Type must be Debit or Credit")
	}
	if !amount.IsPositive() {
		verr.add(FieldAmount, "Amount must be a positive number")
	}
	if err := verr.orNil(); err != nil {
		return JournalEntry{}, err
	}

	s.st.Manual = append(s.st.Manual, JournalEntry{Account: account, Type: typ, Amount: amount, IsManual: true})
	s.regenerate()

	journal := s.Journal()
	return journal[len(journal)-1], nil
}

// DeleteManualEntry removes the manual line at srno. System lines and
// unknown srno are left alone and deleted is false.
func (s *Session) DeleteManualEntry(srno int) (deleted bool, err error) {
	if err := s.ensureEditable(); err != nil {
		return false, err
	}
	// manual lines follow the system lines in the merged numbering
	i := srno - len(s.st.Derived) - 1
	if i < 0 || i >= len(s.st.Manual) {
		return false, nil
	}
	s.st.Manual = slices.Delete(s.st.Manual, i, i+1)
	s.regenerate()
	return true, nil
}

// ManualEntries returns a copy of the user lines.
func (s *Session) ManualEntries() []JournalEntry {
	return slices.Clone(s.st.Manual)
}
