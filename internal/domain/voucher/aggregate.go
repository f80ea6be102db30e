package voucher

import "github.com/shopspring/decimal"

// Totals is the reduction of a selection used to size the receipt and seed the journal.
type Totals struct {
	NetAllocated decimal.Decimal `json:"net_allocated"`
	Discount     decimal.Decimal `json:"discount"`
	Gross        decimal.Decimal `json:"gross"`
}

// TotalAllocated returns Σ(allocated − discount), the cash actually received.
func TotalAllocated(bills []SelectedBill) decimal.Decimal {
	total := decimal.Zero
	for _, b := range bills {
		total = total.Add(b.NetAmount())
	}
	return total
}

// TotalDiscount returns Σ discount.
func TotalDiscount(bills []SelectedBill) decimal.Decimal {
	total := decimal.Zero
	for _, b := range bills {
		total = total.Add(b.Discount)
	}
	return total
}

// Aggregate computes both totals and the gross amount cleared from the payer.
func Aggregate(bills []SelectedBill) Totals {
	net := TotalAllocated(bills)
	discount := TotalDiscount(bills)
	return Totals{
		NetAllocated: net,
		Discount:     discount,
		Gross:        net.Add(discount),
	}
}
