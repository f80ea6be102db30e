package voucher

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/receipt-voucher-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// Payload is the single structure handed to receipt persistence. Arrays are
// flattened with 1-based srno; an empty ID means insert.
type Payload struct {
	HeaderData HeaderData    `json:"headerData"`
	DetailData []DetailData  `json:"detailData"`
	Journal    []JournalData `json:"journal"`
}

// HeaderData is the persisted receipt header.
type HeaderData struct {
	ID           *uuid.UUID       `json:"id,omitempty"`
	ReceiptNo    string           `json:"receiptNo"`
	ReceiptDate  time.Time        `json:"receiptDate"`
	Account1     string           `json:"account1"`
	Account2     string           `json:"account2"`
	PaymentMode  enum.PaymentMode `json:"paymentMode"`
	Amount       decimal.Decimal  `json:"amount"`
	NetAllocated decimal.Decimal  `json:"netAllocated"`
	Discount     decimal.Decimal  `json:"discount"`
	ReferenceNo  string           `json:"referenceNo"`
	ChequeNo     string           `json:"chequeNo"`
	Narration    string           `json:"narration"`
}

// DetailData is one allocated bill.
type DetailData struct {
	Srno            int             `json:"srno"`
	DocCode         string          `json:"doc_code"`
	DocDate         time.Time       `json:"doc_date"`
	DocAmount       decimal.Decimal `json:"doc_amount"`
	DocBalAmount    decimal.Decimal `json:"doc_bal_amount"`
	AllocatedAmount decimal.Decimal `json:"allocated_amount"`
	Discount        decimal.Decimal `json:"discount"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	AmountType      enum.AmountType `json:"amount_type"`
}

// JournalData is one persisted ledger line; IsManual is 0 or 1.
type JournalData struct {
	Srno     int             `json:"srno"`
	Account  string          `json:"account"`
	Type     enum.AmountType `json:"type"`
	Amount   decimal.Decimal `json:"amount"`
	IsManual int             `json:"isManual"`
}

// Payload encodes the session for persistence.
func (s *Session) Payload() Payload {
	h := s.st.Header
	totals := s.Totals()

	header := HeaderData{
		ReceiptNo:    h.ReceiptNo,
		ReceiptDate:  h.ReceiptDate,
		Account1:     h.Account1,
		Account2:     h.Account2,
		PaymentMode:  h.PaymentMode,
		Amount:       h.Amount,
		NetAllocated: totals.NetAllocated,
		Discount:     totals.Discount,
		ReferenceNo:  h.ReferenceNo,
		ChequeNo:     h.ChequeNo,
		Narration:    h.Narration,
	}
	if !h.IsNew() {
		id := h.DocumentID
		header.ID = &id
	}

	details := make([]DetailData, 0, len(s.st.Selected))
	for i, b := range s.st.Selected {
		details = append(details, DetailData{
			Srno:            i + 1,
			DocCode:         b.DocCode,
			DocDate:         b.DocDate,
			DocAmount:       b.DocAmount,
			DocBalAmount:    b.DocBalanceAmount,
			AllocatedAmount: b.AllocatedAmount,
			Discount:        b.Discount,
			NetAmount:       b.NetAmount(),
			AmountType:      b.AmountType,
		})
	}

	journal := s.Journal()
	lines := make([]JournalData, 0, len(journal))
	for _, e := range journal {
		manual := 0
		if e.IsManual {
			manual = 1
		}
		lines = append(lines, JournalData{
			Srno:     e.Srno,
			Account:  e.Account,
			Type:     e.Type,
			Amount:   e.Amount,
			IsManual: manual,
		})
	}

	return Payload{HeaderData: header, DetailData: details, Journal: lines}
}

// LoadSession opens a persisted receipt for editing. candidates are the
// payer's outstanding bills computed without this receipt's own
// allocations; stored details are matched to them by doc code. A stored
// bill that is no longer outstanding is kept as a candidate with its stored
// balance and the next free srno. Repeated doc codes keep the first detail. System lines are re-derived, manual lines are kept.
func LoadSession(opts Options, p Payload, candidates []Bill) *Session {
	s := &Session{opts: opts.normalized()}

	h := p.HeaderData
	s.st.Header = Header{
		ReceiptNo:   h.ReceiptNo,
		ReceiptDate: h.ReceiptDate,
		Account1:    h.Account1,
		Account2:    h.Account2,
		PaymentMode: h.PaymentMode,
		Amount:      h.Amount,
		ReferenceNo: h.ReferenceNo,
		ChequeNo:    h.ChequeNo,
		Narration:   h.Narration,
	}
	if h.ID != nil {
		s.st.Header.DocumentID = *h.ID
	}

	s.st.Candidates = make([]Bill, len(candidates))
	copy(s.st.Candidates, candidates)
	if !uniqueSrnos(s.st.Candidates) {
		for i := range s.st.Candidates {
			s.st.Candidates[i].Srno = i + 1
		}
	}

	byCode := make(map[string]int, len(s.st.Candidates))
	nextSrno := 1
	for i, b := range s.st.Candidates {
		byCode[b.DocCode] = i
		nextSrno = max(nextSrno, b.Srno+1)
	}

	seen := make(map[string]bool, len(p.DetailData))
	for _, d := range p.DetailData {
		// a doc code is allocated once per receipt
		if seen[d.DocCode] {
			continue
		}
		seen[d.DocCode] = true

		i, ok := byCode[d.DocCode]
		if !ok {
			s.st.Candidates = append(s.st.Candidates, Bill{
				Srno:             nextSrno,
				DocCode:          d.DocCode,
				DocDate:          d.DocDate,
				DocAmount:        d.DocAmount,
				DocBalanceAmount: d.DocBalAmount,
				AmountType:       d.AmountType,
			})
			i = len(s.st.Candidates) - 1
			byCode[d.DocCode] = i
			nextSrno++
		}
		bill := s.st.Candidates[i]
		allocated, _ := Clamp(d.AllocatedAmount, bill.DocBalanceAmount)
		discount, _ := Clamp(d.Discount, bill.DocBalanceAmount)
		s.st.Selected = append(s.st.Selected, SelectedBill{Bill: bill, AllocatedAmount: allocated, Discount: discount})
	}

	for _, j := range p.Journal {
		if j.IsManual == 1 {
			s.st.Manual = append(s.st.Manual, JournalEntry{Account: j.Account, Type: j.Type, Amount: j.Amount, IsManual: true})
		}
	}

	s.st.Editable = true
	s.regenerate()
	return s
}
