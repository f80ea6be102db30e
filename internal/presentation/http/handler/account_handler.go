package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/receipt-voucher-api/internal/application/service"
	"github.com/sangkips/receipt-voucher-api/internal/presentation/http/dto/request"
	"github.com/sangkips/receipt-voucher-api/internal/presentation/http/dto/response"
)

// AccountHandler handles ledger account lookups
type AccountHandler struct {
	accountService *service.AccountService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// List handles the account lookup used by the payer and deposit pickers
func (h *AccountHandler) List(c *gin.Context) {
	var filter request.AccountFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	accounts, err := h.accountService.ListAccounts(c.Request.Context(), filter.Search, filter.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Accounts retrieved successfully", accounts)
}

// Get handles fetching one account by code
func (h *AccountHandler) Get(c *gin.Context) {
	account, err := h.accountService.GetAccount(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Account retrieved successfully", account)
}
