package middleware

import (
	"Marketplace/internal/apperr"
	"Marketplace/internal/auth"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// subjectLimiter — лимитер одного вызывающего и время последнего обращения.
type subjectLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter ограничивает частоту запросов на subject id.
type RateLimiter struct {
	perMinute       int
	limit           rate.Limit
	burst           int
	cleanupInterval time.Duration

	mu       sync.Mutex
	limiters map[string]*subjectLimiter
	now      func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter — perMinute запросов в минуту на вызывающего, с такой же пачкой.
// Фоновая очистка неактивных записей останавливается через Stop.
func NewRateLimiter(perMinute int, cleanupInterval time.Duration) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}
	rl := &RateLimiter{
		perMinute:       perMinute,
		limit:           rate.Limit(float64(perMinute) / 60.0),
		burst:           perMinute,
		cleanupInterval: cleanupInterval,
		limiters:        make(map[string]*subjectLimiter),
		now:             time.Now,
		stopCh:          make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Middleware ставится после WithAuth и RequireAuth.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := auth.PrincipalFromContext(r.Context())
		if !ok || p.SubjectID == "" {
			WriteError(w, r, apperr.Unauthenticated("authentication required", nil))
			return
		}
		if !rl.get(p.SubjectID).Allow() {
			// время до пополнения одного токена, с округлением вверх
			retryAfter := (60 + rl.perMinute - 1) / rl.perMinute
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			log.Warnw("rate limit exceeded", "subject_id", p.SubjectID)
			WriteError(w, r, apperr.New(apperr.KindRateLimited, "too many requests"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Len возвращает число отслеживаемых вызывающих.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *RateLimiter) get(subject string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	sl, ok := rl.limiters[subject]
	if !ok {
		sl = &subjectLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[subject] = sl
	}
	sl.lastAccess = rl.now()
	return sl.limiter
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup удаляет записи, к которым не обращались дольше двух интервалов.
func (rl *RateLimiter) cleanup() {
	ttl := rl.cleanupInterval * 2
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for subject, sl := range rl.limiters {
		if now.Sub(sl.lastAccess) > ttl {
			delete(rl.limiters, subject)
		}
	}
}
