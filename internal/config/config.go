package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Ledger    LedgerConfig
	Session   SessionConfig
	Redis     RedisConfig
	Log       LogConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
	LogLevel string
}

// JWTConfig validates tokens issued by the identity provider
type JWTConfig struct {
	Secret string
	Issuer string
	Leeway time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

// LedgerConfig holds the accounting settings of receipts
type LedgerConfig struct {
	DiscountAccount     string
	DiscountAccountName string
	BalanceTolerance    decimal.Decimal
	ReceiptPrefix       string
	IdempotencyTTL      time.Duration
}

// SessionConfig selects where editing sessions live
type SessionConfig struct {
	Store       string // memory or redis
	TTL         time.Duration
	LockTimeout time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("APP_NAME", "receipt-voucher-api")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "receipts")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "Africa/Nairobi")
	viper.SetDefault("DB_LOG_LEVEL", "warn")
	viper.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	viper.SetDefault("JWT_ISSUER", "")
	viper.SetDefault("JWT_LEEWAY_SECONDS", 30)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
	viper.SetDefault("LEDGER_DISCOUNT_ACCOUNT", "DISCOUNT")
	viper.SetDefault("LEDGER_DISCOUNT_ACCOUNT_NAME", "Discount Allowed")
	viper.SetDefault("LEDGER_BALANCE_TOLERANCE", "0.01")
	viper.SetDefault("LEDGER_RECEIPT_PREFIX", "RV")
	viper.SetDefault("IDEMPOTENCY_TTL_HOURS", 24)
	viper.SetDefault("SESSION_STORE", "memory")
	viper.SetDefault("SESSION_TTL_MINUTES", 120)
	viper.SetDefault("SESSION_LOCK_TIMEOUT_SECONDS", 10)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")

	tolerance, err := decimal.NewFromString(viper.GetString("LEDGER_BALANCE_TOLERANCE"))
	if err != nil {
		log.Printf("Warning: invalid LEDGER_BALANCE_TOLERANCE, using 0.01: %v", err)
		tolerance = decimal.New(1, -2)
	}

	return &Config{
		App: AppConfig{
			Name:  viper.GetString("APP_NAME"),
			Env:   viper.GetString("APP_ENV"),
			Port:  viper.GetString("APP_PORT"),
			Debug: viper.GetBool("APP_DEBUG"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			Timezone: viper.GetString("DB_TIMEZONE"),
			LogLevel: viper.GetString("DB_LOG_LEVEL"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
			Issuer: viper.GetString("JWT_ISSUER"),
			Leeway: time.Duration(viper.GetInt("JWT_LEEWAY_SECONDS")) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
		Ledger: LedgerConfig{
			DiscountAccount:     viper.GetString("LEDGER_DISCOUNT_ACCOUNT"),
			DiscountAccountName: viper.GetString("LEDGER_DISCOUNT_ACCOUNT_NAME"),
			BalanceTolerance:    tolerance,
			ReceiptPrefix:       viper.GetString("LEDGER_RECEIPT_PREFIX"),
			IdempotencyTTL:      time.Duration(viper.GetInt("IDEMPOTENCY_TTL_HOURS")) * time.Hour,
		},
		Session: SessionConfig{
			Store:       viper.GetString("SESSION_STORE"),
			TTL:         time.Duration(viper.GetInt("SESSION_TTL_MINUTES")) * time.Minute,
			LockTimeout: time.Duration(viper.GetInt("SESSION_LOCK_TIMEOUT_SECONDS")) * time.Second,
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Log: LogConfig{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
		},
	}
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}
