package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/receipt-voucher-api/internal/config"
	domainRepo "github.com/sangkips/receipt-voucher-api/internal/domain/repository"
	"github.com/sangkips/receipt-voucher-api/internal/presentation/http/handler"
	"github.com/sangkips/receipt-voucher-api/internal/presentation/http/middleware"
	"github.com/sangkips/receipt-voucher-api/pkg/utils"
	"github.com/sirupsen/logrus"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Account *handler.AccountHandler
	Receipt *handler.ReceiptHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTValidator    *utils.JWTValidator
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	RateLimiter     *middleware.UserRateLimiter
	Log             *logrus.Logger
}

// NewRateLimiter builds the per-user limiter from the rate limit settings.
func NewRateLimiter(cfg *config.RateLimitConfig) *middleware.UserRateLimiter {
	perSecond := 0.0
	if cfg.Duration > 0 {
		perSecond = float64(cfg.Requests) / float64(cfg.Duration)
	}
	return middleware.NewUserRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: perSecond,
		BurstSize:         cfg.Requests,
		CleanupInterval:   5 * time.Minute,
		EntryTTL:          10 * time.Minute,
	})
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Log))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTValidator))

		rateLimiter := deps.RateLimiter
		if rateLimiter == nil {
			rateLimiter = NewRateLimiter(&deps.Cfg.RateLimit)
		}
		protected.Use(rateLimiter.Middleware())

		registerProtectedRoutes(protected, h, deps)
	}

	return router
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	// Accounts
	registerAccountRoutes(protected, h)

	// Saved receipts
	registerReceiptRoutes(protected, h)

	// Editing sessions
	registerSessionRoutes(protected, h, deps)
}

func registerAccountRoutes(protected *gin.RouterGroup, h *Handlers) {
	accounts := protected.Group("/accounts")
	{
		accounts.GET("", h.Account.List)
		accounts.GET("/:code", h.Account.Get)
	}
}

func registerReceiptRoutes(protected *gin.RouterGroup, h *Handlers) {
	receipts := protected.Group("/receipts")
	{
		receipts.GET("", h.Receipt.List)
		receipts.GET("/:id", h.Receipt.Get)
		receipts.POST("/:id/edit", h.Receipt.OpenForEdit)
	}
}

func registerSessionRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	sessions := protected.Group("/receipt-sessions")
	{
		sessions.POST("", h.Receipt.CreateSession)
		sessions.GET("/:sid", h.Receipt.GetSession)
		sessions.DELETE("/:sid", h.Receipt.DeleteSession)
		sessions.POST("/:sid/reset", h.Receipt.ResetSession)
		sessions.PUT("/:sid/header", h.Receipt.UpdateHeader)
		sessions.PUT("/:sid/payer", h.Receipt.ChangePayer)

		sessions.GET("/:sid/bills", h.Receipt.ListBills)
		sessions.POST("/:sid/bills/reload", h.Receipt.ReloadBills)
		sessions.POST("/:sid/bills/select-all", h.Receipt.SelectAll)
		sessions.POST("/:sid/bills/confirm", h.Receipt.ConfirmBills)
		sessions.POST("/:sid/bills/:srno/toggle", h.Receipt.ToggleBill)
		sessions.PUT("/:sid/bills/:srno", h.Receipt.UpdateBill)

		sessions.POST("/:sid/journal", h.Receipt.AddJournalEntry)
		sessions.DELETE("/:sid/journal/:srno", h.Receipt.DeleteJournalEntry)

		sessions.POST("/:sid/validate", h.Receipt.Validate)
		// Saving uses idempotency middleware to prevent duplicate receipts
		sessions.POST("/:sid/save", middleware.IdempotencyRequired(middleware.IdempotencyConfig{
			Repo: deps.IdempotencyRepo,
			TTL:  deps.Cfg.Ledger.IdempotencyTTL,
			Log:  deps.Log,
		}), h.Receipt.Save)
		sessions.POST("/:sid/enable-edit", h.Receipt.EnableEdit)
	}
}
