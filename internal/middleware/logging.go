package middleware

import (
	"Marketplace/internal/metrics"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

var log = zap.NewNop().Sugar()

// SetLogger задаёт логгер для всех middleware пакета.
func SetLogger(l *zap.SugaredLogger) {
	if l != nil {
		log = l
	}
}

// WithLogging логирует каждый запрос: метод, путь, статус, размер и длительность.
func WithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		log.Infow("request",
			"method", r.Method,
			"uri", r.RequestURI,
			"status", status(ww),
			"size", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

// WithMetrics считает ответы по HTTP-статусам.
func WithMetrics(rec metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			rec.RecordHTTPStatus(status(ww))
		})
	}
}

// status возвращает код ответа; хендлер, не вызвавший WriteHeader, отдал 200.
func status(ww chimw.WrapResponseWriter) int {
	if s := ww.Status(); s != 0 {
		return s
	}
	return http.StatusOK
}
