package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDocumentNo(t *testing.T) {
	tests := []struct {
		prefix string
		seq    int64
		want   string
	}{
		{"RV", 1, "RV-000001"},
		{"rv-", 42, "RV-000042"},
		{"", 7, "000007"},
		{"RV", 1234567, "RV-1234567"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDocumentNo(tt.prefix, tt.seq))
	}
}

func sign(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestJWTValidator(t *testing.T) {
	v := NewJWTValidator("secret", "identity", time.Second)
	userID := uuid.New()

	valid := sign(t, "secret", &JWTClaims{
		UserID: userID,
		Email:  "cashier@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "identity",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	claims, err := v.ValidateAccessToken(valid)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)

	subjectOnly := sign(t, "secret", &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "identity",
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	claims, err = v.ValidateAccessToken(subjectOnly)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)

	expired := sign(t, "secret", &JWTClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "identity",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	_, err = v.ValidateAccessToken(expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	wrongKey := sign(t, "other", &JWTClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "identity",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	_, err = v.ValidateAccessToken(wrongKey)
	assert.Error(t, err)

	wrongIssuer := sign(t, "secret", &JWTClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "elsewhere",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	_, err = v.ValidateAccessToken(wrongIssuer)
	assert.Error(t, err)
}
