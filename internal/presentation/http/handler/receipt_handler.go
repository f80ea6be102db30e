package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/receipt-voucher-api/internal/application/service"
	"github.com/sangkips/receipt-voucher-api/internal/domain/enum"
	"github.com/sangkips/receipt-voucher-api/internal/presentation/http/dto/request"
	"github.com/sangkips/receipt-voucher-api/internal/presentation/http/dto/response"
	"github.com/sangkips/receipt-voucher-api/pkg/apperror"
	"github.com/sangkips/receipt-voucher-api/pkg/pagination"
)

const dateLayout = "2006-01-02"

// ReceiptHandler handles receipt sessions and saved receipts
type ReceiptHandler struct {
	receiptService *service.ReceiptService
}

// NewReceiptHandler creates a new receipt handler
func NewReceiptHandler(receiptService *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// sessionParams resolves the caller and the :sid path parameter
func sessionParams(c *gin.Context) (owner, sid uuid.UUID, ok bool) {
	owner, ok = requireUser(c)
	if !ok {
		return
	}
	sid, ok = uuidParam(c, "sid")
	return
}

// List handles listing saved receipts
func (h *ReceiptHandler) List(c *gin.Context) {
	var filter request.ReceiptFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	input := &service.ListReceiptsInput{
		Pagination: &pagination.PaginationParams{Page: filter.Page, PerPage: filter.PerPage},
		Search:     filter.Search,
		Payer:      filter.Payer,
		SortBy:     filter.SortBy,
		SortOrder:  filter.SortOrder,
	}
	if filter.StartDate != "" {
		if t, err := time.Parse(dateLayout, filter.StartDate); err == nil {
			input.StartDate = &t
		}
	}
	if filter.EndDate != "" {
		if t, err := time.Parse(dateLayout, filter.EndDate); err == nil {
			input.EndDate = &t
		}
	}

	result, err := h.receiptService.ListReceipts(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Receipts retrieved successfully", result)
}

// Get handles fetching a saved receipt
func (h *ReceiptHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	receipt, err := h.receiptService.GetReceipt(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt retrieved successfully", receipt)
}

// OpenForEdit starts an editing session on a saved receipt
func (h *ReceiptHandler) OpenForEdit(c *gin.Context) {
	owner, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	view, err := h.receiptService.OpenReceipt(c.Request.Context(), owner, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Receipt opened for editing", view)
}

// CreateSession starts a new receipt
func (h *ReceiptHandler) CreateSession(c *gin.Context) {
	owner, ok := requireUser(c)
	if !ok {
		return
	}

	view, err := h.receiptService.CreateSession(c.Request.Context(), owner)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Receipt session created", view)
}

// GetSession returns the session snapshot
func (h *ReceiptHandler) GetSession(c *gin.Context) {
	owner, sid, ok := sessionParams(c)
	if !ok {
		return
	}

	view, err := h.receiptService.GetSession(c.Request.Context(), owner, sid)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt session retrieved successfully", view)
}

// DeleteSession discards the session
func (h *ReceiptHandler) DeleteSession(c *gin.Context) {
	owner, sid, ok := sessionParams(c)
	if !ok {
		return
	}

	if err := h.receiptService.DeleteSession(c.Request.Context(), owner, sid); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ResetSession clears every edit of the session
func (h *ReceiptHandler) ResetSession(c *gin.Context) {
	owner, sid, ok := sessionParams(c)
	if !ok {
		return
	}

	view, err := h.receiptService.ResetSession(c.Request.Context(), owner, sid)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt session reset", view)
}

// UpdateHeader applies header edits
func (h *ReceiptHandler) UpdateHeader(c *gin.Context) {
	owner, sid, ok := sessionParams(c)
	if !ok {
		return
	}

	var req request.UpdateHeaderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	input := &service.UpdateHeaderInput{
		Amount:         req.Amount,
		DepositAccount: req.DepositAccount,
		ReferenceNo:    req.ReferenceNo,
		ChequeNo:       req.ChequeNo,
		Narration:      req.Narration,
	}
	if req.ReceiptDate != nil {
		date, err := time.Parse(dateLayout, *req.ReceiptDate)
		if err != nil {
			response.ValidationError(c, []apperror.FieldError{{Field: "receipt_date", Message: "Receipt date must be YYYY-MM-DD"}})
			return
		}
		input.ReceiptDate = &date
	}
	if req.PaymentMode != nil {
		mode := enum.PaymentMode(strings.ToLower(strings.TrimSpace(*req.PaymentMode)))
		input.PaymentMode = &mode
	}

	view, err := h.receiptService.UpdateHeader(c.Request.Context(), owner, sid, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt header updated", view)
}

// ChangePayer switches the payer and loads their outstanding bills
func (h *ReceiptHandler) ChangePayer(c *gin.Context) {
	owner, sid, ok := sessionParams(c)
	if !ok {
		return
	}

	var req request.ChangePayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	view, err := h.receiptService.ChangePayer(c.Request.Context(), owner, sid, &service.ChangePayerInput{
		Payer:   req.Payer,
		Confirm: req.Confirm,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payer updated", view)
}

// ListBills returns the candidate bills matching ?search=
func (h *ReceiptHandler) ListBills(c *gin.Context) {
	owner, sid, ok := sessionParams(c)
	if !ok {
		return
	}

	var filter request.BillFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.receiptService.ListBills(c.Request.Context(), owner, sid, filter.Search)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Outstanding bills retrieved successfully", result)
}

// ReloadBills refetches the payer's outstanding bills
func (h *ReceiptHandler) ReloadBills(c *gin.Context) {
	owner, sid, ok := sessionParams(c)
	if !ok {
		return
	}

	view, err := h.receiptService.ReloadBills(c.Request.Context(), owner, sid)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Outstanding bills reloaded", view)
}

// ToggleBill selects or deselects one bill
func (h *ReceiptHandler) ToggleBill(c *gin.Context) {
	owner, sid, ok := sessionParams(c)
	if !ok {
		return
	}
	srno, ok := srnoParam(c)
	if !ok {
		return
	}

	result, err := h.receiptService.ToggleBill(c.Request.Context(), owner, sid, srno)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bill selection updated", result)
}

// SelectAll selects or deselects the filtered bills
func (h *ReceiptHandler) SelectAll(c *gin.Context) {
	owner, sid, ok := sessionParams(c)
	if !ok {
		return
	}

	var req request.SelectAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.receiptService.SelectAll(c.Request.Context(), owner, sid, req.Search, *req.Selected)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bill selection updated", result)
}

// UpdateBill changes the allocation or discount of a selected bill
func (h *ReceiptHandler) UpdateBill(c *gin.Context) {
	owner, sid, ok := sessionParams(c)
	if !ok {
		return
	}
	srno, ok := srnoParam(c)
	if !ok {
		return
	}

	var req request.UpdateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if req.AllocatedAmount == nil && req.Discount == nil {
		response.BadRequest(c, "allocated_amount or discount is required")
		return
	}

	result, err := h.receiptService.UpdateBill(c.Request.Context(), owner, sid, srno, &service.UpdateBillInput{
		AllocatedAmount: req.AllocatedAmount,
		Discount:        req.Discount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bill allocation updated", result)
}

// ConfirmBills sizes the receipt to the selection and rebuilds the journal
func (h *ReceiptHandler) ConfirmBills(c *gin.Context) {
	owner, sid, ok := sessionParams(c)
	if !ok {
		return
	}

	view, err := h.receiptService.ConfirmBills(c.Request.Context(), owner, sid)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bill selection confirmed", view)
}

// AddJournalEntry appends a manual journal line
func (h *ReceiptHandler) AddJournalEntry(c *gin.Context) {
	owner, sid, ok := sessionParams(c)
	if !ok {
		return
	}

	var req request.AddJournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	typ, err := enum.ParseAmountType(req.Type)
	if err != nil {
		response.ValidationError(c, []apperror.FieldError{{Field: "type", Message: "Type must be Debit or Credit"}})
		return
	}

	view, err := h.receiptService.AddJournalEntry(c.Request.Context(), owner, sid, &service.AddJournalEntryInput{
		Account: req.Account,
		Type:    typ,
		Amount:  req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Journal entry added", view)
}

// DeleteJournalEntry removes a manual journal line
func (h *ReceiptHandler) DeleteJournalEntry(c *gin.Context) {
	owner, sid, ok := sessionParams(c)
	if !ok {
		return
	}
	srno, ok := srnoParam(c)
	if !ok {
		return
	}

	result, err := h.receiptService.DeleteJournalEntry(c.Request.Context(), owner, sid, srno)
	if err != nil {
		response.Error(c, err)
		return
	}

	message := "Journal entry deleted"
	if !result.Deleted {
		message = "Only manual journal entries can be deleted"
	}
	response.OK(c, message, result)
}

// Validate runs the pre-save checks
func (h *ReceiptHandler) Validate(c *gin.Context) {
	owner, sid, ok := sessionParams(c)
	if !ok {
		return
	}

	view, err := h.receiptService.ValidateSession(c.Request.Context(), owner, sid)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt is valid", view)
}

// Save validates and persists the receipt
func (h *ReceiptHandler) Save(c *gin.Context) {
	owner, sid, ok := sessionParams(c)
	if !ok {
		return
	}

	result, err := h.receiptService.Save(c.Request.Context(), owner, sid)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt saved successfully", result)
}

// EnableEdit unlocks a saved session
func (h *ReceiptHandler) EnableEdit(c *gin.Context) {
	owner, sid, ok := sessionParams(c)
	if !ok {
		return
	}

	view, err := h.receiptService.EnableEdit(c.Request.Context(), owner, sid)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt editing enabled", view)
}
