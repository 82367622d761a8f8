package middleware

import (
	"Marketplace/internal/apperr"
	"encoding/json"
	"errors"
	"net/http"
)

// ErrorBody — тело любого ответа с ошибкой.
type ErrorBody struct {
	Kind      apperr.Kind `json:"kind"`
	Message   string      `json:"message"`
	Field     string      `json:"field,omitempty"`
	Retryable bool        `json:"retryable"`
}

// StatusOf переводит класс ошибки в HTTP-статус.
func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindInvalidImage:
		return http.StatusUnprocessableEntity
	case apperr.KindStorage:
		return http.StatusBadGateway
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON пишет v как JSON с указанным статусом.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorw("failed to encode response", "error", err)
	}
}

// WriteError пишет ошибку в едином формате. Внутренние детали наружу не уходят.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	writeErrorStatus(w, r, err, 0)
}

// writeErrorStatus — WriteError с явным статусом (0 означает статус по классу ошибки).
func writeErrorStatus(w http.ResponseWriter, r *http.Request, err error, status int) {
	kind := apperr.KindOf(err)
	body := ErrorBody{Kind: kind, Retryable: apperr.Retryable(kind)}

	var ae *apperr.Error
	switch {
	case errors.As(err, &ae) && kind != apperr.KindInternal:
		body.Message = ae.Message
		body.Field = ae.Field
	case kind == apperr.KindUnavailable:
		body.Message = "upstream timeout"
	default:
		body.Kind = apperr.KindInternal
		body.Message = "internal error"
		body.Retryable = true
	}
	if status == 0 {
		status = StatusOf(body.Kind)
	}

	if status >= http.StatusInternalServerError {
		log.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	} else {
		log.Infow("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "kind", body.Kind, "error", err)
	}
	WriteJSON(w, status, body)
}
