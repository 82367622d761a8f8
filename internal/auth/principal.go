package auth

import (
	"context"

	"Marketplace/internal/apperr"
)

// Principal — аутентифицированный вызывающий в рамках одного запроса.
// Не сохраняется, живёт только в контексте запроса.
type Principal struct {
	SubjectID string
	Role      string
}

type principalKeyType struct{}

var principalKey = principalKeyType{}

// WithPrincipal кладёт Principal в контекст.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext достаёт Principal из контекста.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// Authorize — чистая проверка роли без ввода-вывода.
// Пустой список ролей означает "любой аутентифицированный".
func Authorize(p Principal, roles ...string) error {
	if p.SubjectID == "" {
		return apperr.Unauthenticated("authentication required", nil)
	}
	if len(roles) == 0 {
		return nil
	}
	for _, r := range roles {
		if p.Role == r {
			return nil
		}
	}
	return apperr.New(apperr.KindForbidden, "insufficient role")
}
