package service

import (
	"github.com/google/uuid"
	"github.com/sangkips/receipt-voucher-api/internal/domain/entity"
	"github.com/sangkips/receipt-voucher-api/internal/domain/voucher"
)

// toBills numbers outstanding rows 1..N in the order the repository returned them.
func toBills(rows []entity.OutstandingBill) []voucher.Bill {
	bills := make([]voucher.Bill, 0, len(rows))
	for i, r := range rows {
		bills = append(bills, voucher.Bill{
			Srno:             i + 1,
			DocCode:          r.DocCode,
			DocDate:          r.DocDate,
			DocAmount:        r.DocAmount,
			DocBalanceAmount: r.DocBalAmount,
			AmountType:       r.AmountType,
		})
	}
	return bills
}

func payloadToEntity(p voucher.Payload, userID, sid uuid.UUID) *entity.ReceiptVoucher {
	h := p.HeaderData
	receipt := &entity.ReceiptVoucher{
		ReceiptNo:    h.ReceiptNo,
		ReceiptDate:  h.ReceiptDate,
		Account1:     h.Account1,
		Account2:     h.Account2,
		PaymentMode:  h.PaymentMode,
		Amount:       h.Amount,
		NetAllocated: h.NetAllocated,
		Discount:     h.Discount,
		ReferenceNo:  h.ReferenceNo,
		ChequeNo:     h.ChequeNo,
		Narration:    h.Narration,
		UpdatedByID:  &userID,
	}
	if h.ID != nil {
		receipt.ID = *h.ID
	} else {
		receipt.CreatedByID = &userID
		receipt.SessionID = &sid
	}

	receipt.Details = make([]entity.ReceiptDetail, 0, len(p.DetailData))
	for _, d := range p.DetailData {
		receipt.Details = append(receipt.Details, entity.ReceiptDetail{
			Srno:            d.Srno,
			DocCode:         d.DocCode,
			DocDate:         d.DocDate,
			DocAmount:       d.DocAmount,
			DocBalAmount:    d.DocBalAmount,
			AllocatedAmount: d.AllocatedAmount,
			Discount:        d.Discount,
			NetAmount:       d.NetAmount,
			AmountType:      d.AmountType,
		})
	}

	receipt.Journal = make([]entity.ReceiptJournal, 0, len(p.Journal))
	for _, j := range p.Journal {
		receipt.Journal = append(receipt.Journal, entity.ReceiptJournal{
			Srno:        j.Srno,
			AccountCode: j.Account,
			Type:        j.Type,
			Amount:      j.Amount,
			IsManual:    j.IsManual == 1,
		})
	}
	return receipt
}

func entityToPayload(r *entity.ReceiptVoucher) voucher.Payload {
	id := r.ID
	p := voucher.Payload{
		HeaderData: voucher.HeaderData{
			ID:           &id,
			ReceiptNo:    r.ReceiptNo,
			ReceiptDate:  r.ReceiptDate,
			Account1:     r.Account1,
			Account2:     r.Account2,
			PaymentMode:  r.PaymentMode,
			Amount:       r.Amount,
			NetAllocated: r.NetAllocated,
			Discount:     r.Discount,
			ReferenceNo:  r.ReferenceNo,
			ChequeNo:     r.ChequeNo,
			Narration:    r.Narration,
		},
	}

	for _, d := range r.Details {
		p.DetailData = append(p.DetailData, voucher.DetailData{
			Srno:            d.Srno,
			DocCode:         d.DocCode,
			DocDate:         d.DocDate,
			DocAmount:       d.DocAmount,
			DocBalAmount:    d.DocBalAmount,
			AllocatedAmount: d.AllocatedAmount,
			Discount:        d.Discount,
			NetAmount:       d.NetAmount,
			AmountType:      d.AmountType,
		})
	}

	for _, j := range r.Journal {
		manual := 0
		if j.IsManual {
			manual = 1
		}
		p.Journal = append(p.Journal, voucher.JournalData{
			Srno:     j.Srno,
			Account:  j.AccountCode,
			Type:     j.Type,
			Amount:   j.Amount,
			IsManual: manual,
		})
	}
	return p
}
