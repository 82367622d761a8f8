package auth

import (
	"context"
	"errors"
	"time"

	"Marketplace/internal/apperr"
)

// TimeoutVerifier ограничивает время проверки токена.
// Превышение даёт apperr.KindUnavailable, клиент может повторить запрос.
type TimeoutVerifier struct {
	next    Verifier
	timeout time.Duration
}

func NewTimeoutVerifier(next Verifier, timeout time.Duration) *TimeoutVerifier {
	return &TimeoutVerifier{next: next, timeout: timeout}
}

func (v *TimeoutVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	id, err := v.next.Verify(ctx, token)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, apperr.Wrap(apperr.KindUnavailable, "identity provider timeout", ctx.Err())
	}
	return id, err
}
