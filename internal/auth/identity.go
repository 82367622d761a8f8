package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"Marketplace/internal/apperr"
)

// Identity — нормализованная внешняя идентичность, полученная из токена.
// Только факты, без решений о профиле и ролях.
type Identity struct {
	Subject   string
	Email     string
	Name      string
	ExpiresAt time.Time
	Claims    map[string]any
}

// Verifier разрешает bearer-токен в Identity.
// Любой невалидный, просроченный или битый токен даёт apperr.KindUnauthenticated.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

var (
	ErrMissingToken   = errors.New("missing bearer token")
	ErrMalformedToken = errors.New("malformed authorization header")
)

// ExtractBearer достаёт токен из заголовка "Authorization: Bearer <token>".
func ExtractBearer(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", apperr.Unauthenticated("missing bearer token", ErrMissingToken)
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", apperr.Unauthenticated("malformed authorization header", ErrMalformedToken)
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", apperr.Unauthenticated("malformed authorization header", ErrMalformedToken)
	}
	return token, nil
}

// displayName достаёт имя из стандартного claim "name" или из user_metadata.full_name.
func displayName(claims map[string]any) string {
	if n, ok := claims["name"].(string); ok && n != "" {
		return n
	}
	if md, ok := claims["user_metadata"].(map[string]any); ok {
		if n, ok := md["full_name"].(string); ok {
			return n
		}
		if n, ok := md["name"].(string); ok {
			return n
		}
	}
	return ""
}
