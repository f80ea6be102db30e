package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sangkips/receipt-voucher-api/internal/application/service"
	"github.com/sangkips/receipt-voucher-api/internal/config"
	domainRepo "github.com/sangkips/receipt-voucher-api/internal/domain/repository"
	"github.com/sangkips/receipt-voucher-api/internal/domain/voucher"
	"github.com/sangkips/receipt-voucher-api/internal/infrastructure/database"
	"github.com/sangkips/receipt-voucher-api/internal/infrastructure/repository"
	"github.com/sangkips/receipt-voucher-api/internal/infrastructure/session"
	"github.com/sangkips/receipt-voucher-api/internal/presentation/http/handler"
	"github.com/sangkips/receipt-voucher-api/internal/presentation/http/routes"
	"github.com/sangkips/receipt-voucher-api/pkg/logger"
	"github.com/sangkips/receipt-voucher-api/pkg/utils"
	"github.com/sirupsen/logrus"
)

const idempotencyCleanupInterval = time.Hour

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.Init(cfg.Log.Level, cfg.Log.Format)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db, log); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	// Seed default data
	if err := database.SeedDefaultData(db, &cfg.Ledger, log); err != nil {
		log.WithError(err).Warn("failed to seed default data")
	}

	opts := voucher.Options{
		DiscountAccount: cfg.Ledger.DiscountAccount,
		Tolerance:       cfg.Ledger.BalanceTolerance,
	}

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db)
	billRepo := repository.NewBillRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	store, closeStore := newSessionStore(cfg, opts, log)
	defer closeStore()

	// Initialize services
	receiptService := service.NewReceiptService(store, receiptRepo, billRepo, accountRepo,
		service.ReceiptServiceConfig{Options: opts, ReceiptPrefix: cfg.Ledger.ReceiptPrefix}, log)
	accountService := service.NewAccountService(accountRepo)

	// Initialize handlers
	handlers := &routes.Handlers{
		Account: handler.NewAccountHandler(accountService),
		Receipt: handler.NewReceiptHandler(receiptService),
	}

	rateLimiter := routes.NewRateLimiter(&cfg.RateLimit)
	defer rateLimiter.Stop()

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTValidator:    utils.NewJWTValidator(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Leeway),
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		RateLimiter:     rateLimiter,
		Log:             log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go cleanupIdempotencyKeys(ctx, idempotencyRepo, log)

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"service":       cfg.App.Name,
			"port":          port,
			"env":           cfg.App.Env,
			"session_store": cfg.Session.Store,
		}).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// newSessionStore picks the session backend. Redis is required when more
// than one instance serves the same users.
func newSessionStore(cfg *config.Config, opts voucher.Options, log *logrus.Logger) (domainRepo.SessionStore, func()) {
	switch cfg.Session.Store {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			log.WithError(err).WithField("addr", cfg.Redis.Addr).Fatal("failed to connect to redis")
		}
		store := session.NewRedisStore(client, opts, cfg.Session.TTL, cfg.Session.LockTimeout)
		return store, func() { _ = client.Close() }
	default:
		if cfg.Session.Store != "memory" {
			log.WithField("session_store", cfg.Session.Store).Warn("unknown session store, using memory")
		}
		store := session.NewMemoryStore(opts, cfg.Session.TTL)
		return store, func() { _ = store.Close() }
	}
}

// cleanupIdempotencyKeys removes expired idempotency keys until ctx is done
func cleanupIdempotencyKeys(ctx context.Context, repo domainRepo.IdempotencyRepository, log *logrus.Logger) {
	ticker := time.NewTicker(idempotencyCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.DeleteExpired(ctx)
			if err != nil {
				logger.LogError(log, "main", "cleanupIdempotencyKeys", "delete expired keys", nil, err)
				continue
			}
			if n > 0 {
				log.WithField("deleted", n).Debug("expired idempotency keys removed")
			}
		}
	}
}
