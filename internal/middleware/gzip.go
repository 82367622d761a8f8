package middleware

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// gzipTypes: сжимаем только JSON и текст; изображения уже сжаты.
var gzipTypes = []string{"application/json", "text/plain"}

var gzipHandler = chimw.Compress(5, gzipTypes...)

// WithGzip сжимает ответ, если клиент прислал Accept-Encoding: gzip.
func WithGzip(next http.Handler) http.Handler {
	return gzipHandler(next)
}
