package voucher

import (
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// BeginOutstandingLoad issues a new load token for the current payer. Only
// the response carrying the latest token is applied by ApplyOutstanding.
func (s *Session) BeginOutstandingLoad() (token uint64, payer string) {
	s.st.LoadToken++
	return s.st.LoadToken, s.st.Header.Account1
}

// ApplyOutstanding replaces the candidate set with bills fetched for payer
// and clears the selection. Responses for a superseded token or a payer that
// is no longer current are discarded and applied is false.
func (s *Session) ApplyOutstanding(token uint64, payer string, bills []Bill) (applied bool) {
	if token != s.st.LoadToken || payer != s.st.Header.Account1 {
		return false
	}

	candidates := make([]Bill, len(bills))
	copy(candidates, bills)
	if !uniqueSrnos(candidates) {
		for i := range candidates {
			candidates[i].Srno = i + 1
		}
	}
	for i := range candidates {
		if candidates[i].DocBalanceAmount.IsNegative() {
			candidates[i].DocBalanceAmount = decimal.Zero
		}
	}

	s.st.Candidates = candidates
	s.st.Selected = nil
	s.regenerate()
	return true
}

func uniqueSrnos(bills []Bill) bool {
	seen := make(map[int]struct{}, len(bills))
	for _, b := range bills {
		if b.Srno <= 0 {
			return false
		}
		if _, dup := seen[b.Srno]; dup {
			return false
		}
		seen[b.Srno] = struct{}{}
	}
	return true
}

// Candidates returns a copy of the outstanding bills.
func (s *Session) Candidates() []Bill {
	return slices.Clone(s.st.Candidates)
}

// Selected returns a copy of the selection.
func (s *Session) Selected() []SelectedBill {
	return slices.Clone(s.st.Selected)
}

// IsSelected reports whether srno is in the selection.
func (s *Session) IsSelected(srno int) bool {
	return s.selectedIndex(srno) >= 0
}

func (s *Session) candidateIndex(srno int) int {
	return slices.IndexFunc(s.st.Candidates, func(b Bill) bool { return b.Srno == srno })
}

func (s *Session) selectedIndex(srno int) int {
	return slices.IndexFunc(s.st.Selected, func(b SelectedBill) bool { return b.Srno == srno })
}

// Search returns a restartable view of the candidates whose doc code or
// srno contains term, ignoring case. An empty term matches everything.
func (s *Session) Search(term string) iter.Seq[Bill] {
	needle := strings.ToLower(strings.TrimSpace(term))
	candidates := s.st.Candidates
	return func(yield func(Bill) bool) {
		for _, b := range candidates {
			if !matches(b, needle) {
				continue
			}
			if !yield(b) {
				return
			}
		}
	}
}

func matches(b Bill, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(b.DocCode), needle) ||
		strings.Contains(strconv.Itoa(b.Srno), needle)
}

// ToggleSelect adds the candidate to the selection, seeded with its full
// balance and no discount, or removes it when already selected. Every
// allocation change re-derives the system journal lines.
func (s *Session) ToggleSelect(srno int) (selected bool, err error) {
	if err := s.ensureEditable(); err != nil {
		return false, err
	}
	if i := s.selectedIndex(srno); i >= 0 {
		s.st.Selected = slices.Delete(s.st.Selected, i, i+1)
		s.regenerate()
		return false, nil
	}
	i := s.candidateIndex(srno)
	if i < 0 {
		return false, ErrBillNotFound
	}
	s.st.Selected = append(s.st.Selected, seed(s.st.Candidates[i]))
	s.regenerate()
	return true, nil
}

// SelectAll selects, or deselects, every bill in the filtered view and
// returns how many bills changed state.
func (s *Session) SelectAll(term string, selected bool) (changed int, err error) {
	if err := s.ensureEditable(); err != nil {
		return 0, err
	}
	for b := range s.Search(term) {
		i := s.selectedIndex(b.Srno)
		switch {
		case selected && i < 0:
			s.st.Selected = append(s.st.Selected, seed(b))
			changed++
		case !selected && i >= 0:
			s.st.Selected = slices.Delete(s.st.Selected, i, i+1)
			changed++
		}
	}
	if changed > 0 {
		s.regenerate()
	}
	return changed, nil
}

func seed(b Bill) SelectedBill {
	return SelectedBill{
		Bill:            b,
		AllocatedAmount: b.DocBalanceAmount,
		Discount:        decimal.Zero,
	}
}

// SetAllocatedAmount stores amount clamped to [0, DocBalanceAmount] and
// reports the stored value and whether clamping happened.
func (s *Session) SetAllocatedAmount(srno int, amount decimal.Decimal) (stored decimal.Decimal, clamped bool, err error) {
	if err := s.ensureEditable(); err != nil {
		return decimal.Zero, false, err
	}
	i := s.selectedIndex(srno)
	if i < 0 {
		return decimal.Zero, false, s.missing(srno)
	}
	stored, clamped = Clamp(amount, s.st.Selected[i].DocBalanceAmount)
	s.st.Selected[i].AllocatedAmount = stored
	s.regenerate()
	return stored, clamped, nil
}

// SetDiscount stores discount clamped to [0, DocBalanceAmount].
func (s *Session) SetDiscount(srno int, discount decimal.Decimal) (stored decimal.Decimal, clamped bool, err error) {
	if err := s.ensureEditable(); err != nil {
		return decimal.Zero, false, err
	}
	i := s.selectedIndex(srno)
	if i < 0 {
		return decimal.Zero, false, s.missing(srno)
	}
	stored, clamped = Clamp(discount, s.st.Selected[i].DocBalanceAmount)
	s.st.Selected[i].Discount = stored
	s.regenerate()
	return stored, clamped, nil
}

func (s *Session) missing(srno int) error {
	if s.candidateIndex(srno) < 0 {
		return ErrBillNotFound
	}
	return ErrBillNotSelected
}

// Clamp bounds v to [0, upper].
func Clamp(v, upper decimal.Decimal) (decimal.Decimal, bool) {
	if upper.IsNegative() {
		upper = decimal.Zero
	}
	if v.IsNegative() {
		return decimal.Zero, true
	}
	if v.GreaterThan(upper) {
		return upper, true
	}
	return v, false
}
