package middleware

import (
	"Marketplace/internal/apperr"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	cases := map[apperr.Kind]int{
		apperr.KindUnauthenticated: http.StatusUnauthorized,
		apperr.KindForbidden:       http.StatusForbidden,
		apperr.KindValidation:      http.StatusBadRequest,
		apperr.KindInvalidImage:    http.StatusUnprocessableEntity,
		apperr.KindStorage:         http.StatusBadGateway,
		apperr.KindUnavailable:     http.StatusServiceUnavailable,
		apperr.KindNotFound:        http.StatusNotFound,
		apperr.KindRateLimited:     http.StatusTooManyRequests,
		apperr.KindInternal:        http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, StatusOf(kind), string(kind))
	}
}

func TestWriteError_Body(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/items", nil)

	rr := httptest.NewRecorder()
	WriteError(rr, req, apperr.Validation("title", "title is required"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	b := decodeError(t, rr)
	assert.Equal(t, ErrorBody{Kind: apperr.KindValidation, Message: "title is required", Field: "title"}, b)

	// неизвестная ошибка не раскрывает детали
	rr = httptest.NewRecorder()
	WriteError(rr, req, errors.New("pq: password authentication failed for user admin"))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "password")
	assert.Equal(t, apperr.KindInternal, decodeError(t, rr).Kind)

	// голый таймаут: 503, повторяемый
	rr = httptest.NewRecorder()
	WriteError(rr, req, fmt.Errorf("put: %w", context.DeadlineExceeded))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.True(t, decodeError(t, rr).Retryable)
}
