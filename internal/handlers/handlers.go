package handlers

import (
	"Marketplace/internal/auth"
	"Marketplace/internal/config"
	"Marketplace/internal/metrics"
	"Marketplace/internal/middleware"
	"Marketplace/internal/model"
	"Marketplace/internal/service"
	"Marketplace/internal/storage"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// Deps — всё, что нужно роутеру. Собирается в cmd/server.
type Deps struct {
	Profiles *service.ProfileService
	Items    *service.ItemService
	Images   storage.Storage
	Verifier auth.Verifier
	Metrics  metrics.Recorder
	Gatherer prometheus.Gatherer
	Limiter  *middleware.RateLimiter
}

// NewHandler разводящий для хендлеров
func NewHandler(d Deps, logger *zap.SugaredLogger, cfg *config.Config) *Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithMetrics(d.Metrics))
	r.Use(chimw.Recoverer)
	r.Use(middleware.WithGzip)
	r.Use(middleware.WithDeadline(cfg.RequestTimeoutDuration()))

	// Handlers
	authHandler := NewAuthHandler(d.Profiles, logger)
	itemHandler := NewItemHandler(d.Items, logger, cfg)
	imageHandler := NewImageHandler(d.Images, logger)

	// Служебные маршруты
	r.Get("/health", Health)
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(d.Gatherer))
	}
	r.Get("/images/{key}", imageHandler.Get)

	// Явное создание профиля: только проверка токена, первая вставка делается
	// хендлером с переданным full_name.
	r.With(middleware.WithIdentity(d.Verifier, d.Metrics), middleware.RequireAuth).
		Post("/auth/profile", authHandler.EnsureProfile)

	r.Group(func(r chi.Router) {
		r.Use(middleware.WithAuth(d.Verifier, d.Profiles, d.Metrics))

		// Auth routes
		r.With(middleware.RequireAuth).Get("/auth/me", authHandler.Me)

		// Item routes
		create := r.With(middleware.RequireAuth)
		if d.Limiter != nil {
			create = create.With(d.Limiter.Middleware)
		}
		create.Post("/items", itemHandler.Create)
		r.Get("/items", itemHandler.List)
		r.Get("/items/{id}", itemHandler.Get)
		r.With(middleware.RequireRole(model.RoleAdmin)).Patch("/items/{id}/status", itemHandler.UpdateStatus)
	})

	return &Handler{Router: r}
}

// Health: проверка живости процесса.
func Health(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
