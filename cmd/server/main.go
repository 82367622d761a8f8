package main

import (
	"Marketplace/internal/auth"
	"Marketplace/internal/config"
	"Marketplace/internal/handlers"
	"Marketplace/internal/logger"
	"Marketplace/internal/metrics"
	"Marketplace/internal/middleware"
	"Marketplace/internal/repo"
	"Marketplace/internal/service"
	"Marketplace/internal/storage"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	cfg := config.NewConfig()

	zl, closeLog, err := logger.New(logger.Options{Level: cfg.LogLevel, Dev: cfg.LogDev, File: cfg.LogFile})
	if err != nil {
		panic(err)
	}
	defer func() { _ = closeLog() }()

	// делаем регистратор SugaredLogger
	sugar := zl.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		if err := zl.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	store, err := buildStorage(cfg, gormDB)
	if err != nil {
		sugar.Fatalw("failed to initialize image storage", "backend", cfg.StorageBackend, "error", err)
	}

	verifier, closeVerifier, err := buildVerifier(ctx, cfg, sugar)
	if err != nil {
		sugar.Fatalw("failed to initialize token verifier", "error", err)
	}
	defer closeVerifier()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewCollector(reg)

	profileService := service.NewProfileService(repo.NewProfileRepository(gormDB), rec, sugar)
	imageService := service.NewImageService(store, cfg.ImageMaxBytes(), cfg.ImageTypes(), cfg.StorageTimeoutDuration(), sugar)
	itemService := service.NewItemService(repo.NewItemRepository(gormDB), imageService, cfg.ImageMaxCount, cfg.StorageTimeoutDuration(), rec, sugar)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMin, 5*time.Minute)
	defer limiter.Stop()

	h := handlers.NewHandler(handlers.Deps{
		Profiles: profileService,
		Items:    itemService,
		Images:   store,
		Verifier: verifier,
		Metrics:  rec,
		Gatherer: reg,
		Limiter:  limiter,
	}, sugar, cfg)

	srv := &http.Server{
		Addr:              cfg.BaseURL,
		Handler:           h.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sugar.Infow(
		"Starting server",
		"addr", cfg.BaseURL,
	)

	sugar.Infow("Config",
		"BaseURL", cfg.BaseURL,
		"PublicURL", cfg.PublicURL,
		"StorageBackend", cfg.StorageBackend,
		"ImageMaxSizeMB", cfg.ImageMaxSizeMB,
		"OIDC", cfg.OIDCIssuer != "",
		"TokenCache", cfg.RedisAddr != "",
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("Server failed", "error", err)
		}
	case <-ctx.Done():
		sugar.Infow("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeoutDuration())
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sugar.Errorw("Graceful shutdown failed", "error", err)
		}
	}
}

func buildStorage(cfg *config.Config, db *gorm.DB) (storage.Storage, error) {
	if cfg.StorageBackend == "db" {
		return storage.NewDBStorage(repo.NewBlobRepository(db), cfg.PublicURL), nil
	}
	return storage.NewFSStorage(cfg.ImageDir, cfg.PublicURL)
}

// buildVerifier: OIDC при заданном OIDC_ISSUER, иначе HS256 с общим секретом.
// Поверх него кеш в Redis (если задан REDIS_ADDR) и таймаут на обращение к провайдеру.
func buildVerifier(ctx context.Context, cfg *config.Config, sugar *zap.SugaredLogger) (auth.Verifier, func(), error) {
	noop := func() {}
	if err := cfg.ValidateAuth(); err != nil {
		return nil, noop, err
	}

	var v auth.Verifier
	if cfg.OIDCIssuer != "" {
		dctx, cancel := context.WithTimeout(ctx, cfg.ProviderTimeoutDuration())
		defer cancel()
		ov, err := auth.NewOIDCVerifier(dctx, cfg.OIDCIssuer, cfg.OIDCClientID)
		if err != nil {
			return nil, noop, err
		}
		v = ov
	} else {
		v = auth.NewJWTVerifier(cfg.AuthSecret, cfg.AuthIssuer, cfg.AuthAudience)
	}
	v = auth.NewTimeoutVerifier(v, cfg.ProviderTimeoutDuration())

	if cfg.RedisAddr == "" || cfg.TokenCacheTTLDuration() == 0 {
		return v, noop, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	pctx, cancel := context.WithTimeout(ctx, cfg.ProviderTimeoutDuration())
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		// без кеша сервис работает, только медленнее
		sugar.Warnw("token cache unavailable, continuing without it", "addr", cfg.RedisAddr, "error", err)
		_ = rdb.Close()
		return v, noop, nil
	}
	closeFn := func() {
		if err := rdb.Close(); err != nil {
			sugar.Warnw("failed to close redis client", "error", err)
		}
	}
	return auth.NewCachingVerifier(v, auth.NewRedisTokenCache(rdb), cfg.TokenCacheTTLDuration(), sugar), closeFn, nil
}
