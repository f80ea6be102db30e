package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetAppError(t *testing.T) {
	wrapped := fmt.Errorf("service: %w", NewNotFoundError("Receipt"))
	got := GetAppError(wrapped)
	assert.Equal(t, http.StatusNotFound, got.Code)
	assert.Equal(t, "Receipt not found", got.Message)

	plain := GetAppError(errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, plain.Code)
	assert.Equal(t, "Internal server error", plain.Message)
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("payer has no account")
	err := Wrap(http.StatusBadGateway, "cannot load bills", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsAppError(err))
	assert.Equal(t, "cannot load bills", err.Error())
}
