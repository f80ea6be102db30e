package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/receipt-voucher-api/internal/application/service"
	"github.com/sangkips/receipt-voucher-api/internal/domain/entity"
	"github.com/sangkips/receipt-voucher-api/internal/domain/enum"
	"github.com/sangkips/receipt-voucher-api/internal/domain/repository"
	"github.com/sangkips/receipt-voucher-api/internal/domain/voucher"
	"github.com/sangkips/receipt-voucher-api/internal/infrastructure/session"
	"github.com/sangkips/receipt-voucher-api/pkg/logger"
	"github.com/sangkips/receipt-voucher-api/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAccounts map[string]entity.Account

func (s stubAccounts) List(ctx context.Context, search string, limit int) ([]entity.Account, error) {
	var out []entity.Account
	for _, a := range s {
		if strings.Contains(strings.ToLower(a.Code), strings.ToLower(search)) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s stubAccounts) GetByCode(ctx context.Context, code string) (*entity.Account, error) {
	if a, ok := s[code]; ok {
		return &a, nil
	}
	return nil, nil
}

func (s stubAccounts) EnsureSystem(ctx context.Context, code, description string) error {
	return nil
}

type stubBills map[string][]entity.OutstandingBill

func (s stubBills) ListOutstanding(ctx context.Context, payer, excludeReceiptNo string) ([]entity.OutstandingBill, error) {
	return s[payer], nil
}

type stubReceipts struct {
	saved map[uuid.UUID]*entity.ReceiptVoucher
	seq   int64
}

func (s *stubReceipts) Upsert(ctx context.Context, r *entity.ReceiptVoucher, prefix string) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
		r.ReceiptNo = utils.FormatDocumentNo(prefix, s.seq)
		s.seq++
	}
	copied := *r
	s.saved[r.ID] = &copied
	return nil
}

func (s *stubReceipts) GetByID(ctx context.Context, id uuid.UUID) (*entity.ReceiptVoucher, error) {
	return s.saved[id], nil
}

func (s *stubReceipts) GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.ReceiptVoucher, error) {
	return s.saved[id], nil
}

func (s *stubReceipts) List(ctx context.Context, params *repository.ReceiptFilterParams) ([]entity.ReceiptVoucher, int64, error) {
	out := make([]entity.ReceiptVoucher, 0, len(s.saved))
	for _, r := range s.saved {
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

func (s *stubReceipts) PeekSequence(ctx context.Context, prefix string) (int64, error) {
	return s.seq, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
	Details json.RawMessage `json:"details"`
}

type testServer struct {
	router   *gin.Engine
	user     uuid.UUID
	receipts *stubReceipts
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	opts := voucher.DefaultOptions()
	store := session.NewMemoryStore(opts, time.Hour)
	t.Cleanup(func() { _ = store.Close() })

	accounts := stubAccounts{
		"P":    {Code: "P", Description: "Payer"},
		"BANK": {Code: "BANK", Description: "Bank"},
		"X":    {Code: "X", Description: "Adjustments"},
	}
	bills := stubBills{"P": {{
		DocCode:      "INV-001",
		DocDate:      time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		DocAmount:    decimal.RequireFromString("100"),
		DocBalAmount: decimal.RequireFromString("100"),
		AmountType:   enum.AmountTypeDebit,
	}}}
	receipts := &stubReceipts{saved: make(map[uuid.UUID]*entity.ReceiptVoucher), seq: 1}

	svc := service.NewReceiptService(store, receipts, bills, accounts,
		service.ReceiptServiceConfig{Options: opts, ReceiptPrefix: "RV"},
		logger.New("error", "json", io.Discard))
	h := NewReceiptHandler(svc)
	ah := NewAccountHandler(service.NewAccountService(accounts))

	ts := &testServer{router: gin.New(), user: uuid.New(), receipts: receipts}
	api := ts.router.Group("/", func(c *gin.Context) {
		if c.GetHeader("X-Anonymous") == "" {
			c.Set("user_id", ts.user)
		}
	})
	api.GET("/accounts", ah.List)
	api.GET("/receipts/:id", h.Get)
	api.POST("/receipt-sessions", h.CreateSession)
	api.GET("/receipt-sessions/:sid", h.GetSession)
	api.PUT("/receipt-sessions/:sid/header", h.UpdateHeader)
	api.PUT("/receipt-sessions/:sid/payer", h.ChangePayer)
	api.GET("/receipt-sessions/:sid/bills", h.ListBills)
	api.POST("/receipt-sessions/:sid/bills/confirm", h.ConfirmBills)
	api.POST("/receipt-sessions/:sid/bills/:srno/toggle", h.ToggleBill)
	api.PUT("/receipt-sessions/:sid/bills/:srno", h.UpdateBill)
	api.POST("/receipt-sessions/:sid/journal", h.AddJournalEntry)
	api.DELETE("/receipt-sessions/:sid/journal/:srno", h.DeleteJournalEntry)
	api.POST("/receipt-sessions/:sid/save", h.Save)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (ts *testServer) newSession(t *testing.T) string {
	t.Helper()
	rec, env := ts.do(t, http.MethodPost, "/receipt-sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var view service.SessionView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	return view.ID.String()
}

func TestReceiptHandler_FullFlow(t *testing.T) {
	ts := newTestServer(t)
	base := "/receipt-sessions/" + ts.newSession(t)

	rec, _ := ts.do(t, http.MethodPut, base+"/header", `{"deposit_account":"BANK","payment_mode":"Cash","receipt_date":"2026-03-01"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := ts.do(t, http.MethodPut, base+"/payer", `{"payer_account":"P"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var view service.SessionView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, 1, view.BillCount)

	rec, _ = ts.do(t, http.MethodPost, base+"/bills/1/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = ts.do(t, http.MethodPut, base+"/bills/1", `{"discount":"150"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated service.BillUpdateResult
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.True(t, updated.Clamped)
	assert.True(t, decimal.RequireFromString("100").Equal(updated.Bill.Discount))

	rec, _ = ts.do(t, http.MethodPut, base+"/bills/1", `{"discount":"10"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = ts.do(t, http.MethodPost, base+"/bills/confirm", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Len(t, view.Journal, 3)
	assert.True(t, view.Balanced)

	rec, env = ts.do(t, http.MethodPost, base+"/save", "")
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	var saved service.SaveResult
	require.NoError(t, json.Unmarshal(env.Data, &saved))
	assert.Equal(t, "RV-000001", saved.ReceiptNo)

	rec, _ = ts.do(t, http.MethodGet, "/receipts/"+saved.ReceiptID.String(), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = ts.do(t, http.MethodPost, base+"/bills/1/toggle", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Receipt is not editable", env.Message)
}

func TestReceiptHandler_ImbalanceReturnsDetails(t *testing.T) {
	ts := newTestServer(t)
	base := "/receipt-sessions/" + ts.newSession(t)

	ts.do(t, http.MethodPut, base+"/header", `{"deposit_account":"BANK","payment_mode":"cash"}`)
	ts.do(t, http.MethodPut, base+"/payer", `{"payer_account":"P"}`)
	ts.do(t, http.MethodPost, base+"/bills/1/toggle", "")
	ts.do(t, http.MethodPost, base+"/bills/confirm", "")

	rec, _ := ts.do(t, http.MethodPost, base+"/journal", `{"account":"X","type":"Dr","amount":"5"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := ts.do(t, http.MethodPost, base+"/save", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotEmpty(t, env.Errors)
	assert.Equal(t, "journal", env.Errors[0].Field)
	var details service.ImbalanceDetails
	require.NoError(t, json.Unmarshal(env.Details, &details))
	assert.True(t, decimal.RequireFromString("5").Equal(details.Difference))
	assert.Equal(t, "Debit", details.Side)
	assert.Empty(t, ts.receipts.saved)

	// system lines cannot be deleted
	rec, env = ts.do(t, http.MethodDelete, base+"/journal/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var del service.JournalDeleteResult
	require.NoError(t, json.Unmarshal(env.Data, &del))
	assert.False(t, del.Deleted)

	rec, env = ts.do(t, http.MethodDelete, base+"/journal/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &del))
	assert.True(t, del.Deleted)
	assert.True(t, del.Session.Balanced)
}

func TestReceiptHandler_BadInput(t *testing.T) {
	ts := newTestServer(t)
	sid := ts.newSession(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"malformed session id", http.MethodGet, "/receipt-sessions/not-a-uuid", "", http.StatusBadRequest},
		{"unknown session", http.MethodGet, "/receipt-sessions/" + uuid.NewString(), "", http.StatusNotFound},
		{"bad srno", http.MethodPost, "/receipt-sessions/" + sid + "/bills/zero/toggle", "", http.StatusBadRequest},
		{"unknown bill", http.MethodPost, "/receipt-sessions/" + sid + "/bills/7/toggle", "", http.StatusNotFound},
		{"bad date", http.MethodPut, "/receipt-sessions/" + sid + "/header", `{"receipt_date":"01/03/2026"}`, http.StatusBadRequest},
		{"unknown payer", http.MethodPut, "/receipt-sessions/" + sid + "/payer", `{"payer_account":"GHOST"}`, http.StatusUnprocessableEntity},
		{"bad journal type", http.MethodPost, "/receipt-sessions/" + sid + "/journal", `{"account":"X","type":"Sideways","amount":"1"}`, http.StatusUnprocessableEntity},
		{"empty bill update", http.MethodPut, "/receipt-sessions/" + sid + "/bills/1", `{}`, http.StatusBadRequest},
		{"unknown receipt", http.MethodGet, "/receipts/" + uuid.NewString(), "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := ts.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, env.Message)
			assert.False(t, env.Success)
		})
	}
}

func TestReceiptHandler_RequiresUser(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/receipt-sessions", nil)
	req.Header.Set("X-Anonymous", "1")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAccountHandler_List(t *testing.T) {
	ts := newTestServer(t)
	rec, env := ts.do(t, http.MethodGet, "/accounts?search=ban", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var accounts []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &accounts))
	require.Len(t, accounts, 1)
	assert.Equal(t, "BANK", accounts[0]["AC_CODE"])
}
