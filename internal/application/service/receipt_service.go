package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/receipt-voucher-api/internal/domain/entity"
	"github.com/sangkips/receipt-voucher-api/internal/domain/enum"
	"github.com/sangkips/receipt-voucher-api/internal/domain/repository"
	"github.com/sangkips/receipt-voucher-api/internal/domain/voucher"
	"github.com/sangkips/receipt-voucher-api/pkg/apperror"
	"github.com/sangkips/receipt-voucher-api/pkg/logger"
	"github.com/sangkips/receipt-voucher-api/pkg/pagination"
	"github.com/sangkips/receipt-voucher-api/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const moduleName = "receipt_service"

// ReceiptService drives receipt editing sessions and receipt persistence
type ReceiptService struct {
	store       repository.SessionStore
	receiptRepo repository.ReceiptRepository
	billRepo    repository.BillRepository
	accountRepo repository.AccountRepository
	opts        voucher.Options
	prefix      string
	log         *logrus.Logger
	now         func() time.Time
}

// ReceiptServiceConfig holds the ledger settings of the service
type ReceiptServiceConfig struct {
	Options       voucher.Options
	ReceiptPrefix string
}

// NewReceiptService creates a new receipt service
func NewReceiptService(
	store repository.SessionStore,
	receiptRepo repository.ReceiptRepository,
	billRepo repository.BillRepository,
	accountRepo repository.AccountRepository,
	cfg ReceiptServiceConfig,
	log *logrus.Logger,
) *ReceiptService {
	if cfg.ReceiptPrefix == "" {
		cfg.ReceiptPrefix = "RV"
	}
	return &ReceiptService{
		store:       store,
		receiptRepo: receiptRepo,
		billRepo:    billRepo,
		accountRepo: accountRepo,
		opts:        cfg.Options,
		prefix:      cfg.ReceiptPrefix,
		log:         log,
		now:         time.Now,
	}
}

// SessionView is the state of a session as shown to the client
type SessionView struct {
	ID          uuid.UUID              `json:"id"`
	Header      voucher.Header         `json:"header"`
	Editable    bool                   `json:"editable"`
	Totals      voucher.Totals         `json:"totals"`
	Selected    []voucher.SelectedBill `json:"selected"`
	Journal     []voucher.JournalEntry `json:"journal"`
	DebitTotal  decimal.Decimal        `json:"debit_total"`
	CreditTotal decimal.Decimal        `json:"credit_total"`
	Difference  decimal.Decimal        `json:"difference"`
	Balanced    bool                   `json:"balanced"`
	BillCount   int                    `json:"bill_count"`
}

func newSessionView(id uuid.UUID, s *voucher.Session) *SessionView {
	journal := s.Journal()
	debit, credit := voucher.SumJournal(journal)
	return &SessionView{
		ID:          id,
		Header:      s.Header(),
		Editable:    s.Editable(),
		Totals:      s.Totals(),
		Selected:    s.Selected(),
		Journal:     journal,
		DebitTotal:  debit,
		CreditTotal: credit,
		Difference:  debit.Sub(credit),
		Balanced:    voucher.FindImbalance(journal, s.Options().Tolerance) == nil,
		BillCount:   len(s.Candidates()),
	}
}

// BillView is a candidate bill with its selection state
type BillView struct {
	voucher.Bill
	Selected        bool            `json:"selected"`
	AllocatedAmount decimal.Decimal `json:"allocated_amount"`
	Discount        decimal.Decimal `json:"discount"`
	NetAmount       decimal.Decimal `json:"net_amount"`
}

// BillListResult is the filtered candidate view with live totals
type BillListResult struct {
	Bills  []BillView     `json:"bills"`
	Totals voucher.Totals `json:"totals"`
}

// BillToggleResult reports the new state of a toggled bill
type BillToggleResult struct {
	Srno     int            `json:"srno"`
	Selected bool           `json:"selected"`
	Totals   voucher.Totals `json:"totals"`
}

// SelectAllResult reports how many bills changed state
type SelectAllResult struct {
	Changed int            `json:"changed"`
	Totals  voucher.Totals `json:"totals"`
}

// BillUpdateResult reports the stored allocation and whether it was clamped
type BillUpdateResult struct {
	Bill    voucher.SelectedBill `json:"bill"`
	Clamped bool                 `json:"clamped"`
	Totals  voucher.Totals       `json:"totals"`
}

// JournalDeleteResult reports whether a manual line was removed
type JournalDeleteResult struct {
	Deleted bool         `json:"deleted"`
	Session *SessionView `json:"session"`
}

// SaveResult is returned after a successful save
type SaveResult struct {
	ReceiptID uuid.UUID    `json:"receipt_id"`
	ReceiptNo string       `json:"receipt_no"`
	Session   *SessionView `json:"session"`
}

// UpdateHeaderInput carries optional header edits; nil fields are left alone
type UpdateHeaderInput struct {
	Amount         *decimal.Decimal
	DepositAccount *string
	ReceiptDate    *time.Time
	PaymentMode    *enum.PaymentMode
	ReferenceNo    *string
	ChequeNo       *string
	Narration      *string
}

// ChangePayerInput represents a payer change request
type ChangePayerInput struct {
	Payer   string
	Confirm bool
}

// UpdateBillInput carries optional allocation edits
type UpdateBillInput struct {
	AllocatedAmount *decimal.Decimal
	Discount        *decimal.Decimal
}

// AddJournalEntryInput represents a manual journal line
type AddJournalEntryInput struct {
	Account string
	Type    enum.AmountType
	Amount  decimal.Decimal
}

// ListReceiptsInput represents the receipt list filters
type ListReceiptsInput struct {
	Pagination *pagination.PaginationParams
	Search     string
	Payer      string
	StartDate  *time.Time
	EndDate    *time.Time
	SortBy     string
	SortOrder  string
}

func (s *ReceiptService) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// view reads the session and builds its view
func (s *ReceiptService) view(ctx context.Context, owner, sid uuid.UUID) (*SessionView, error) {
	var v *SessionView
	err := s.store.View(ctx, owner, sid, func(sess *voucher.Session) error {
		v = newSessionView(sid, sess)
		return nil
	})
	return v, toAppError(err)
}

// update runs fn under the session lock and returns the resulting view
func (s *ReceiptService) update(ctx context.Context, owner, sid uuid.UUID, fn func(*voucher.Session) error) (*SessionView, error) {
	var v *SessionView
	err := s.store.Update(ctx, owner, sid, func(sess *voucher.Session) error {
		if err := fn(sess); err != nil {
			return err
		}
		v = newSessionView(sid, sess)
		return nil
	})
	return v, toAppError(err)
}

// CreateSession starts a new receipt showing the next receipt number
func (s *ReceiptService) CreateSession(ctx context.Context, owner uuid.UUID) (*SessionView, error) {
	seq, err := s.receiptRepo.PeekSequence(ctx, s.prefix)
	if err != nil {
		logger.LogError(s.log, moduleName, "CreateSession", "peek receipt sequence", s.prefix, err)
		return nil, err
	}

	sess := voucher.NewSession(s.opts, utils.FormatDocumentNo(s.prefix, seq), s.today())
	sid, err := s.store.Create(ctx, owner, sess)
	if err != nil {
		logger.LogError(s.log, moduleName, "CreateSession", "store session", nil, err)
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"session_id": sid, "receipt_no": sess.Header().ReceiptNo}).Debug("receipt session created")
	return newSessionView(sid, sess), nil
}

// GetSession returns the session snapshot
func (s *ReceiptService) GetSession(ctx context.Context, owner, sid uuid.UUID) (*SessionView, error) {
	return s.view(ctx, owner, sid)
}

// DeleteSession discards the session
func (s *ReceiptService) DeleteSession(ctx context.Context, owner, sid uuid.UUID) error {
	return toAppError(s.store.Delete(ctx, owner, sid))
}

// ResetSession clears every edit and keeps the receipt number and date
func (s *ReceiptService) ResetSession(ctx context.Context, owner, sid uuid.UUID) (*SessionView, error) {
	return s.update(ctx, owner, sid, func(sess *voucher.Session) error {
		if err := sessEditable(sess); err != nil {
			return err
		}
		sess.Reset()
		return nil
	})
}

func sessEditable(sess *voucher.Session) error {
	if !sess.Editable() {
		return voucher.ErrNotEditable
	}
	return nil
}

// requireAccount returns a validation error keyed by field when code is unknown
func (s *ReceiptService) requireAccount(ctx context.Context, field, code string) error {
	account, err := s.accountRepo.GetByCode(ctx, code)
	if err != nil {
		logger.LogError(s.log, moduleName, "requireAccount", "lookup account", code, err)
		return err
	}
	if account == nil {
		return apperror.NewValidationError([]apperror.FieldError{
			{Field: field, Message: "Account " + code + " not found"},
		})
	}
	return nil
}

// UpdateHeader applies header edits. Amount and deposit account changes
// re-derive the journal.
func (s *ReceiptService) UpdateHeader(ctx context.Context, owner, sid uuid.UUID, input *UpdateHeaderInput) (*SessionView, error) {
	if input.DepositAccount != nil {
		code := strings.TrimSpace(*input.DepositAccount)
		input.DepositAccount = &code
		if code != "" {
			if err := s.requireAccount(ctx, voucher.FieldDeposit, code); err != nil {
				return nil, err
			}
		}
	}
	if input.PaymentMode != nil && *input.PaymentMode != "" && !input.PaymentMode.IsValid() {
		return nil, apperror.NewValidationError([]apperror.FieldError{
			{Field: voucher.FieldPaymentMode, Message: "Payment mode is invalid"},
		})
	}

	return s.update(ctx, owner, sid, func(sess *voucher.Session) error {
		if input.ReceiptDate != nil {
			if err := sess.SetReceiptDate(*input.ReceiptDate); err != nil {
				return err
			}
		}
		if input.PaymentMode != nil {
			if err := sess.SetPaymentMode(*input.PaymentMode); err != nil {
				return err
			}
		}
		if input.ReferenceNo != nil || input.ChequeNo != nil || input.Narration != nil {
			h := sess.Header()
			if err := sess.SetReferences(
				valueOr(input.ReferenceNo, h.ReferenceNo),
				valueOr(input.ChequeNo, h.ChequeNo),
				valueOr(input.Narration, h.Narration),
			); err != nil {
				return err
			}
		}
		if input.DepositAccount != nil {
			if err := sess.SetDepositAccount(*input.DepositAccount); err != nil {
				return err
			}
		}
		if input.Amount != nil {
			if err := sess.SetAmount(*input.Amount); err != nil {
				return err
			}
		}
		return nil
	})
}

func valueOr(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}

// ChangePayer switches the payer and loads the new payer's outstanding
// bills. A payer change that would discard work needs Confirm.
func (s *ReceiptService) ChangePayer(ctx context.Context, owner, sid uuid.UUID, input *ChangePayerInput) (*SessionView, error) {
	payer := strings.TrimSpace(input.Payer)
	if payer != "" {
		account, err := s.accountRepo.GetByCode(ctx, payer)
		if err != nil {
			logger.LogError(s.log, moduleName, "ChangePayer", "lookup payer", payer, err)
			return nil, toAppError(&voucher.FetchError{Payer: payer, Err: err})
		}
		if account == nil {
			return nil, toAppError(&voucher.FetchError{Payer: payer, Err: voucher.ErrPayerNotResolvable})
		}
	}

	var (
		reload  bool
		token   uint64
		exclude string
	)
	v, err := s.update(ctx, owner, sid, func(sess *voucher.Session) error {
		var err error
		reload, err = sess.ChangePayer(payer, input.Confirm)
		if err != nil {
			return err
		}
		if reload {
			token, _ = sess.BeginOutstandingLoad()
			exclude = excludedReceiptNo(sess)
		}
		return nil
	})
	if err != nil || !reload {
		return v, err
	}

	return s.loadOutstanding(ctx, owner, sid, token, payer, exclude)
}

// ReloadBills refetches the payer's outstanding bills. The selection is cleared.
func (s *ReceiptService) ReloadBills(ctx context.Context, owner, sid uuid.UUID) (*SessionView, error) {
	var (
		token   uint64
		payer   string
		exclude string
	)
	_, err := s.update(ctx, owner, sid, func(sess *voucher.Session) error {
		if err := sessEditable(sess); err != nil {
			return err
		}
		token, payer = sess.BeginOutstandingLoad()
		exclude = excludedReceiptNo(sess)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if payer == "" {
		return nil, apperror.NewValidationError([]apperror.FieldError{
			{Field: voucher.FieldPayer, Message: "Payer account is required"},
		})
	}
	return s.loadOutstanding(ctx, owner, sid, token, payer, exclude)
}

func excludedReceiptNo(sess *voucher.Session) string {
	if sess.Header().IsNew() {
		return ""
	}
	return sess.Header().ReceiptNo
}

// loadOutstanding fetches outside the session lock and applies the result
// only if no newer load or payer change happened meanwhile.
func (s *ReceiptService) loadOutstanding(ctx context.Context, owner, sid uuid.UUID, token uint64, payer, exclude string) (*SessionView, error) {
	rows, err := s.billRepo.ListOutstanding(ctx, payer, exclude)
	if err != nil {
		logger.LogError(s.log, moduleName, "loadOutstanding", "list outstanding bills", payer, err)
		return nil, toAppError(&voucher.FetchError{Payer: payer, Err: err})
	}
	bills := toBills(rows)

	return s.update(ctx, owner, sid, func(sess *voucher.Session) error {
		if !sess.ApplyOutstanding(token, payer, bills) {
			s.log.WithFields(logrus.Fields{"session_id": sid, "payer": payer, "token": token}).
				Debug("discarding stale outstanding bills")
		}
		return nil
	})
}

// ListBills returns the candidates matching search with their selection state
func (s *ReceiptService) ListBills(ctx context.Context, owner, sid uuid.UUID, search string) (*BillListResult, error) {
	result := &BillListResult{Bills: []BillView{}}
	err := s.store.View(ctx, owner, sid, func(sess *voucher.Session) error {
		selected := make(map[int]voucher.SelectedBill)
		for _, b := range sess.Selected() {
			selected[b.Srno] = b
		}
		for b := range sess.Search(search) {
			bv := BillView{Bill: b, AllocatedAmount: decimal.Zero, Discount: decimal.Zero, NetAmount: decimal.Zero}
			if sb, ok := selected[b.Srno]; ok {
				bv.Selected = true
				bv.AllocatedAmount = sb.AllocatedAmount
				bv.Discount = sb.Discount
				bv.NetAmount = sb.NetAmount()
			}
			result.Bills = append(result.Bills, bv)
		}
		result.Totals = sess.Totals()
		return nil
	})
	if err != nil {
		return nil, toAppError(err)
	}
	return result, nil
}

// ToggleBill selects or deselects one bill
func (s *ReceiptService) ToggleBill(ctx context.Context, owner, sid uuid.UUID, srno int) (*BillToggleResult, error) {
	result := &BillToggleResult{Srno: srno}
	err := s.store.Update(ctx, owner, sid, func(sess *voucher.Session) error {
		selected, err := sess.ToggleSelect(srno)
		if err != nil {
			return err
		}
		result.Selected = selected
		result.Totals = sess.Totals()
		return nil
	})
	if err != nil {
		return nil, toAppError(err)
	}
	return result, nil
}

// SelectAll selects or deselects every bill matching search
func (s *ReceiptService) SelectAll(ctx context.Context, owner, sid uuid.UUID, search string, selected bool) (*SelectAllResult, error) {
	result := &SelectAllResult{}
	err := s.store.Update(ctx, owner, sid, func(sess *voucher.Session) error {
		changed, err := sess.SelectAll(search, selected)
		if err != nil {
			return err
		}
		result.Changed = changed
		result.Totals = sess.Totals()
		return nil
	})
	if err != nil {
		return nil, toAppError(err)
	}
	return result, nil
}

// UpdateBill changes the allocation or discount of a selected bill. Values
// outside [0, balance] are clamped and reported.
func (s *ReceiptService) UpdateBill(ctx context.Context, owner, sid uuid.UUID, srno int, input *UpdateBillInput) (*BillUpdateResult, error) {
	result := &BillUpdateResult{}
	err := s.store.Update(ctx, owner, sid, func(sess *voucher.Session) error {
		if input.AllocatedAmount != nil {
			_, clamped, err := sess.SetAllocatedAmount(srno, *input.AllocatedAmount)
			if err != nil {
				return err
			}
			result.Clamped = result.Clamped || clamped
		}
		if input.Discount != nil {
			_, clamped, err := sess.SetDiscount(srno, *input.Discount)
			if err != nil {
				return err
			}
			result.Clamped = result.Clamped || clamped
		}
		for _, b := range sess.Selected() {
			if b.Srno == srno {
				result.Bill = b
				break
			}
		}
		result.Totals = sess.Totals()
		return nil
	})
	if err != nil {
		return nil, toAppError(err)
	}
	return result, nil
}

// ConfirmBills sizes the receipt to the selection and re-derives the journal
func (s *ReceiptService) ConfirmBills(ctx context.Context, owner, sid uuid.UUID) (*SessionView, error) {
	return s.update(ctx, owner, sid, func(sess *voucher.Session) error {
		_, err := sess.ConfirmBillSelection()
		return err
	})
}

// AddJournalEntry appends a manual journal line
func (s *ReceiptService) AddJournalEntry(ctx context.Context, owner, sid uuid.UUID, input *AddJournalEntryInput) (*SessionView, error) {
	account := strings.TrimSpace(input.Account)
	if account != "" {
		if err := s.requireAccount(ctx, voucher.FieldAccount, account); err != nil {
			return nil, err
		}
	}
	return s.update(ctx, owner, sid, func(sess *voucher.Session) error {
		_, err := sess.AddManualEntry(account, input.Type, input.Amount)
		return err
	})
}

// DeleteJournalEntry removes a manual line. System lines and unknown srno
// are left alone.
func (s *ReceiptService) DeleteJournalEntry(ctx context.Context, owner, sid uuid.UUID, srno int) (*JournalDeleteResult, error) {
	result := &JournalDeleteResult{}
	v, err := s.update(ctx, owner, sid, func(sess *voucher.Session) error {
		deleted, err := sess.DeleteManualEntry(srno)
		result.Deleted = deleted
		return err
	})
	if err != nil {
		return nil, err
	}
	result.Session = v
	return result, nil
}

// ValidateSession runs the pre-save checks without saving
func (s *ReceiptService) ValidateSession(ctx context.Context, owner, sid uuid.UUID) (*SessionView, error) {
	var v *SessionView
	err := s.store.View(ctx, owner, sid, func(sess *voucher.Session) error {
		v = newSessionView(sid, sess)
		return sess.Validate()
	})
	if err != nil {
		return nil, toAppError(err)
	}
	return v, nil
}

// Save validates the session and writes the receipt in one transaction.
// The session is locked for editing afterwards.
func (s *ReceiptService) Save(ctx context.Context, owner, sid uuid.UUID) (*SaveResult, error) {
	result := &SaveResult{}
	committed := false
	v, err := s.update(ctx, owner, sid, func(sess *voucher.Session) error {
		if err := sessEditable(sess); err != nil {
			return err
		}
		if err := sess.Validate(); err != nil {
			return err
		}

		receipt := payloadToEntity(sess.Payload(), owner, sid)
		if err := s.receiptRepo.Upsert(ctx, receipt, s.prefix); err != nil {
			logger.LogError(s.log, moduleName, "Save", "upsert receipt", receipt.ReceiptNo, err)
			return err
		}

		committed = true
		sess.MarkSaved(receipt.ID, receipt.ReceiptNo)
		result.ReceiptID = receipt.ID
		result.ReceiptNo = receipt.ReceiptNo
		return nil
	})
	switch {
	case err != nil && !committed:
		return nil, err
	case err != nil:
		// The receipt is stored but the session kept its unsaved state. A
		// later save from this session updates the same receipt.
		logger.LogError(s.log, moduleName, "Save", "store saved session", result.ReceiptNo, err)
	}

	s.log.WithFields(logrus.Fields{
		"session_id": sid,
		"receipt_id": result.ReceiptID,
		"receipt_no": result.ReceiptNo,
	}).Info("receipt saved")
	result.Session = v
	return result, nil
}

// EnableEdit unlocks a saved session
func (s *ReceiptService) EnableEdit(ctx context.Context, owner, sid uuid.UUID) (*SessionView, error) {
	return s.update(ctx, owner, sid, func(sess *voucher.Session) error {
		sess.EnableEdit()
		return nil
	})
}

// OpenReceipt starts an editing session on a saved receipt. Its own
// allocations are not deducted from the outstanding balances.
func (s *ReceiptService) OpenReceipt(ctx context.Context, owner, receiptID uuid.UUID) (*SessionView, error) {
	receipt, err := s.receiptRepo.GetWithDetails(ctx, receiptID)
	if err != nil {
		logger.LogError(s.log, moduleName, "OpenReceipt", "load receipt", receiptID, err)
		return nil, err
	}
	if receipt == nil {
		return nil, apperror.NewNotFoundError("Receipt")
	}

	rows, err := s.billRepo.ListOutstanding(ctx, receipt.Account1, receipt.ReceiptNo)
	if err != nil {
		logger.LogError(s.log, moduleName, "OpenReceipt", "list outstanding bills", receipt.Account1, err)
		return nil, toAppError(&voucher.FetchError{Payer: receipt.Account1, Err: err})
	}

	sess := voucher.LoadSession(s.opts, entityToPayload(receipt), toBills(rows))
	sid, err := s.store.Create(ctx, owner, sess)
	if err != nil {
		logger.LogError(s.log, moduleName, "OpenReceipt", "store session", receiptID, err)
		return nil, err
	}
	return newSessionView(sid, sess), nil
}

// GetReceipt returns a saved receipt with its details and journal
func (s *ReceiptService) GetReceipt(ctx context.Context, id uuid.UUID) (*entity.ReceiptVoucher, error) {
	receipt, err := s.receiptRepo.GetWithDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, apperror.NewNotFoundError("Receipt")
	}
	return receipt, nil
}

// ListReceipts lists saved receipts
func (s *ReceiptService) ListReceipts(ctx context.Context, input *ListReceiptsInput) (*pagination.PaginatedResult[entity.ReceiptVoucher], error) {
	if input.Pagination == nil {
		input.Pagination = pagination.DefaultPagination()
	}
	input.Pagination.Validate()

	receipts, total, err := s.receiptRepo.List(ctx, &repository.ReceiptFilterParams{
		Pagination: input.Pagination,
		Search:     input.Search,
		Payer:      input.Payer,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
		SortBy:     input.SortBy,
		SortOrder:  input.SortOrder,
	})
	if err != nil {
		logger.LogError(s.log, moduleName, "ListReceipts", "list receipts", nil, err)
		return nil, err
	}

	return pagination.NewPaginatedResult(receipts, pagination.NewPagination(input.Pagination.Page, input.Pagination.PerPage, total)), nil
}
