package voucher

import (
	"slices"
	"testing"
	"time"

	"github.com/sangkips/receipt-voucher-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func bill(srno int, code, balance string) Bill {
	return Bill{
		Srno:             srno,
		DocCode:          code,
		DocDate:          time.Date(2026, 1, srno, 0, 0, 0, 0, time.UTC),
		DocAmount:        d(balance),
		DocBalanceAmount: d(balance),
		AmountType:       enum.AmountTypeDebit,
	}
}

// newLoadedSession returns a session for payer P with the given candidates.
func newLoadedSession(t *testing.T, bills ...Bill) *Session {
	t.Helper()
	s := NewSession(DefaultOptions(), "RV-000001", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.SetDepositAccount("BANK"))
	require.NoError(t, s.SetPaymentMode(enum.PaymentModeCash))
	reload, err := s.ChangePayer("P", false)
	require.NoError(t, err)
	require.True(t, reload)

	token, payer := s.BeginOutstandingLoad()
	require.True(t, s.ApplyOutstanding(token, payer, bills))
	return s
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name        string
		value       string
		upper       string
		want        string
		wantClamped bool
	}{
		{"within range", "40", "100", "40", false},
		{"at upper bound", "100", "100", "100", false},
		{"above upper bound", "150", "100", "100", true},
		{"negative", "-5", "100", "0", true},
		{"zero", "0", "100", "0", false},
		{"negative upper treated as zero", "5", "-1", "0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, clamped := Clamp(d(tt.value), d(tt.upper))
			assert.True(t, d(tt.want).Equal(got), "got %s", got)
			assert.Equal(t, tt.wantClamped, clamped)
		})
	}
}

func TestToggleSelect_SeedsFullBalance(t *testing.T) {
	s := newLoadedSession(t, bill(1, "INV-001", "100.00"))

	selected, err := s.ToggleSelect(1)
	require.NoError(t, err)
	assert.True(t, selected)

	sel := s.Selected()
	require.Len(t, sel, 1)
	assert.True(t, d("100").Equal(sel[0].AllocatedAmount))
	assert.True(t, sel[0].Discount.IsZero())

	selected, err = s.ToggleSelect(1)
	require.NoError(t, err)
	assert.False(t, selected)
	assert.Empty(t, s.Selected())
}

func TestToggleSelect_UnknownBill(t *testing.T) {
	s := newLoadedSession(t, bill(1, "INV-001", "100.00"))

	_, err := s.ToggleSelect(9)
	assert.ErrorIs(t, err, ErrBillNotFound)
	assert.Empty(t, s.Selected())
}

func TestSetAllocatedAmountAndDiscount_Clamp(t *testing.T) {
	s := newLoadedSession(t, bill(1, "INV-001", "100.00"))
	_, err := s.ToggleSelect(1)
	require.NoError(t, err)

	stored, clamped, err := s.SetAllocatedAmount(1, d("250"))
	require.NoError(t, err)
	assert.True(t, clamped)
	assert.True(t, d("100").Equal(stored))

	stored, clamped, err = s.SetDiscount(1, d("-3"))
	require.NoError(t, err)
	assert.True(t, clamped)
	assert.True(t, stored.IsZero())

	stored, clamped, err = s.SetDiscount(1, d("12.50"))
	require.NoError(t, err)
	assert.False(t, clamped)
	assert.True(t, d("12.50").Equal(stored))

	for _, b := range s.Selected() {
		assert.False(t, b.AllocatedAmount.IsNegative())
		assert.True(t, b.AllocatedAmount.LessThanOrEqual(b.DocBalanceAmount))
		assert.False(t, b.Discount.IsNegative())
		assert.True(t, b.Discount.LessThanOrEqual(b.DocBalanceAmount))
	}
}

func TestSetAllocatedAmount_MissingBillLeavesStateAlone(t *testing.T) {
	s := newLoadedSession(t, bill(1, "INV-001", "100.00"), bill(2, "INV-002", "50.00"))
	_, err := s.ToggleSelect(1)
	require.NoError(t, err)
	before := s.Selected()

	_, _, err = s.SetAllocatedAmount(2, d("10"))
	assert.ErrorIs(t, err, ErrBillNotSelected)

	_, _, err = s.SetDiscount(42, d("10"))
	assert.ErrorIs(t, err, ErrBillNotFound)

	assert.Equal(t, before, s.Selected())
}

func TestSearch(t *testing.T) {
	s := newLoadedSession(t,
		bill(1, "INV-001", "10"),
		bill(2, "inv-002", "20"),
		bill(3, "CRN-100", "30"),
	)

	codes := func(term string) []string {
		var out []string
		for b := range s.Search(term) {
			out = append(out, b.DocCode)
		}
		return out
	}

	assert.Equal(t, []string{"INV-001", "inv-002", "CRN-100"}, codes(""))
	assert.Equal(t, []string{"INV-001", "inv-002"}, codes("Inv"))
	assert.Equal(t, []string{"CRN-100"}, codes("3"))
	assert.Empty(t, codes("nothing"))

	// restartable and non-mutating
	seq := s.Search("inv")
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)
	assert.Len(t, s.Candidates(), 3)
}

func TestSelectAll_FilteredView(t *testing.T) {
	s := newLoadedSession(t,
		bill(1, "INV-001", "10"),
		bill(2, "INV-002", "20"),
		bill(3, "CRN-100", "30"),
	)

	changed, err := s.SelectAll("inv", true)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)
	assert.True(t, s.IsSelected(1))
	assert.True(t, s.IsSelected(2))
	assert.False(t, s.IsSelected(3))

	changed, err = s.SelectAll("inv", true)
	require.NoError(t, err)
	assert.Zero(t, changed)

	changed, err = s.SelectAll("", false)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)
	assert.Empty(t, s.Selected())
}

func TestApplyOutstanding_DiscardsStaleResponses(t *testing.T) {
	s := newLoadedSession(t)

	staleToken, payer := s.BeginOutstandingLoad()
	freshToken, _ := s.BeginOutstandingLoad()

	assert.False(t, s.ApplyOutstanding(staleToken, payer, []Bill{bill(1, "OLD", "1")}))
	assert.Empty(t, s.Candidates())

	assert.True(t, s.ApplyOutstanding(freshToken, payer, []Bill{bill(1, "NEW", "1")}))
	require.Len(t, s.Candidates(), 1)
	assert.Equal(t, "NEW", s.Candidates()[0].DocCode)
}

func TestApplyOutstanding_DiscardsResponseForPreviousPayer(t *testing.T) {
	s := newLoadedSession(t)

	token, payer := s.BeginOutstandingLoad()
	_, err := s.ChangePayer("Q", false)
	require.NoError(t, err)

	assert.False(t, s.ApplyOutstanding(token, payer, []Bill{bill(1, "P-BILL", "1")}))
	assert.Empty(t, s.Candidates())
}

func TestApplyOutstanding_RenumbersAndClearsSelection(t *testing.T) {
	s := newLoadedSession(t, bill(1, "INV-001", "10"))
	_, err := s.ToggleSelect(1)
	require.NoError(t, err)

	dup := []Bill{bill(7, "A", "5"), bill(7, "B", "-2")}
	token, payer := s.BeginOutstandingLoad()
	require.True(t, s.ApplyOutstanding(token, payer, dup))

	got := s.Candidates()
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Srno)
	assert.Equal(t, 2, got[1].Srno)
	assert.True(t, got[1].DocBalanceAmount.IsZero())
	assert.Empty(t, s.Selected())
	assert.Empty(t, s.Journal())
}
