package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", NotFoundError("user not found"), http.StatusNotFound, CodeNotFound},
		{"validation", ValidationFailed("bad upload", nil), http.StatusBadRequest, CodeValidation},
		{"validation with cause", ValidationFailed("bad amount", errors.New("parse")), http.StatusBadRequest, CodeValidation},
		{"storage", StorageFailure("insert expense", errors.New("conn refused")), http.StatusServiceUnavailable, CodeStorage},
		{"wrapped storage", fmt.Errorf("commit: %w", StorageFailure("x", nil)), http.StatusServiceUnavailable, CodeStorage},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := HTTPStatus(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "user not found", PublicMessage(NotFoundError("user not found")))
	assert.Equal(t, "storage unavailable", PublicMessage(StorageFailure("insert payment: pq details", errors.New("x"))))
	assert.Equal(t, "internal error", PublicMessage(errors.New("boom")))
}

func TestStorageFailureKeepsCause(t *testing.T) {
	cause := errors.New("conn refused")
	err := StorageFailure("insert expense", cause)
	assert.True(t, errors.Is(err, ErrStorage))
	assert.True(t, errors.Is(err, cause))
}
