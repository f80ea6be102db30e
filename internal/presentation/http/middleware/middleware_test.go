package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sangkips/receipt-voucher-api/internal/domain/entity"
	"github.com/sangkips/receipt-voucher-api/pkg/logger"
	"github.com/sangkips/receipt-voucher-api/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "test-secret"

func signToken(t *testing.T, claims utils.JWTClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	validator := utils.NewJWTValidator(testSecret, "", 0)

	router := gin.New()
	router.GET("/me", AuthMiddleware(validator), func(c *gin.Context) {
		c.String(http.StatusOK, c.MustGet("user_id").(uuid.UUID).String())
	})

	valid := signToken(t, utils.JWTClaims{
		UserID:           userID,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	expired := signToken(t, utils.JWTClaims{
		UserID:           userID,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))},
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized},
		{"valid token", "Bearer " + valid, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, userID.String(), rec.Body.String())
			}
		})
	}
}

func TestUserRateLimiter(t *testing.T) {
	rl := NewUserRateLimiter(RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 2})
	t.Cleanup(rl.Stop)

	alice, bob := uuid.New(), uuid.New()
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-User"); id != "" {
			c.Set("user_id", uuid.MustParse(id))
		}
	})
	router.Use(rl.Middleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	call := func(user uuid.UUID) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User", user.String())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, call(alice).Code)
	assert.Equal(t, http.StatusOK, call(alice).Code)
	limited := call(alice)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "0", limited.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "2", limited.Header().Get("X-RateLimit-Limit"))

	assert.Equal(t, http.StatusOK, call(bob).Code)
	assert.Equal(t, 2, rl.Len())
}

type memoryIdempotencyRepo struct {
	mu   sync.Mutex
	keys map[string]*entity.IdempotencyKey
}

func (m *memoryIdempotencyRepo) GetByKey(ctx context.Context, key string, userID uuid.UUID) (*entity.IdempotencyKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys[userID.String()+key], nil
}

func (m *memoryIdempotencyRepo) Create(ctx context.Context, ikey *entity.IdempotencyKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[ikey.UserID.String()+ikey.Key] = ikey
	return nil
}

func (m *memoryIdempotencyRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

func TestIdempotencyRequired(t *testing.T) {
	repo := &memoryIdempotencyRepo{keys: make(map[string]*entity.IdempotencyKey)}
	userID := uuid.New()
	calls := 0
	status := http.StatusOK

	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set("user_id", userID) })
	router.POST("/sessions/:sid/save",
		IdempotencyRequired(IdempotencyConfig{Repo: repo, TTL: time.Hour, Log: logger.New("error", "json", io.Discard)}),
		func(c *gin.Context) {
			calls++
			c.JSON(status, gin.H{"call": calls})
		})

	send := func(key, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/sessions/abc/save", strings.NewReader(body))
		if key != "" {
			req.Header.Set(IdempotencyKeyHeader, key)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("key required", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, send("", "{}").Code)
		assert.Zero(t, calls)
	})

	t.Run("replays successful response", func(t *testing.T) {
		first := send("k1", "{}")
		require.Equal(t, http.StatusOK, first.Code)
		second := send("k1", "{}")
		assert.Equal(t, http.StatusOK, second.Code)
		assert.Equal(t, "true", second.Header().Get("X-Idempotency-Replayed"))
		assert.JSONEq(t, first.Body.String(), second.Body.String())
		assert.Equal(t, 1, calls)
	})

	t.Run("rejects key reuse with a different body", func(t *testing.T) {
		assert.Equal(t, http.StatusUnprocessableEntity, send("k1", `{"other":true}`).Code)
		assert.Equal(t, 1, calls)
	})

	t.Run("failed responses are not stored", func(t *testing.T) {
		status = http.StatusUnprocessableEntity
		assert.Equal(t, http.StatusUnprocessableEntity, send("k2", "{}").Code)
		status = http.StatusOK
		assert.Equal(t, http.StatusOK, send("k2", "{}").Code)
		assert.Equal(t, 3, calls)
	})
}

func TestLoggerMiddleware_SetsRequestID(t *testing.T) {
	router := gin.New()
	router.Use(LoggerMiddleware(logger.New("error", "json", io.Discard)))
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Body.String())
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
	assert.NoError(t, err)
}
