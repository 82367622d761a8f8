package middleware

import (
	"context"
	"net/http"
	"time"
)

// WithDeadline ограничивает время обработки запроса через контекст.
// Ответ сам не пишет: сервисы переводят истёкший дедлайн в 503 unavailable,
// и на один запрос уходит ровно один статус.
func WithDeadline(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if d <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
