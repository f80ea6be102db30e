package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/sangkips/receipt-voucher-api/internal/config"
	"github.com/sangkips/receipt-voucher-api/internal/domain/entity"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig, log *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), &gorm.Config{
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.WithField("host", cfg.Host).Info("Successfully connected to PostgreSQL database")
	return db, nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info", "debug":
		return logger.Info
	default:
		return logger.Warn
	}
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	err := db.AutoMigrate(
		// Ledger master data
		&entity.Account{},
		&entity.Bill{},

		// Receipt entities
		&entity.ReceiptVoucher{},
		&entity.ReceiptDetail{},
		&entity.ReceiptJournal{},
		&entity.DocumentSequence{},

		// System entities
		&entity.IdempotencyKey{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations completed successfully")
	return nil
}

// SeedDefaultData creates the system discount account and the receipt
// number sequence when they do not exist.
func SeedDefaultData(db *gorm.DB, ledger *config.LedgerConfig, log *logrus.Logger) error {
	log.Info("Seeding default data...")

	discount := entity.Account{
		Code:        ledger.DiscountAccount,
		Description: ledger.DiscountAccountName,
		IsSystem:    true,
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&discount).Error; err != nil {
		return fmt.Errorf("failed to seed discount account %s: %w", ledger.DiscountAccount, err)
	}

	seq := entity.DocumentSequence{Prefix: ledger.ReceiptPrefix}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; err != nil {
		return fmt.Errorf("failed to seed sequence %s: %w", ledger.ReceiptPrefix, err)
	}

	log.Info("Default data seeding completed")
	return nil
}
