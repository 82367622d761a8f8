package handlers_test

import (
	"Marketplace/internal/auth"
	"Marketplace/internal/config"
	"Marketplace/internal/handlers"
	"Marketplace/internal/metrics"
	"Marketplace/internal/middleware"
	"Marketplace/internal/model"
	"Marketplace/internal/repo"
	"Marketplace/internal/service"
	"Marketplace/internal/storage"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testSecret = "handlers-secret"

var (
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n"), []byte("0000IHDRfakepixels")...)
	jpegBytes = append([]byte{0xff, 0xd8, 0xff, 0xe0}, []byte("JFIFfakepixels")...)
)

type testEnv struct {
	router  http.Handler
	db      *gorm.DB
	cfg     *config.Config
	store   storage.Storage
	reg     *prometheus.Registry
	limiter *middleware.RateLimiter
}

// newTestEnv собирает роутер на реальной in-memory SQLite и файловом хранилище.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repo.InitDB("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := &config.Config{
		AuthSecret:      testSecret,
		ImageMaxSizeMB:  1,
		ImageMaxCount:   4,
		RateLimitPerMin: 100,
		PublicURL:       "http://test.local",
	}

	st, err := storage.NewFSStorage(t.TempDir(), cfg.PublicURL)
	if err != nil {
		t.Fatalf("fs storage: %v", err)
	}

	log := zap.NewNop().Sugar()
	reg := prometheus.NewRegistry()
	rec := metrics.NewCollector(reg)
	images := service.NewImageService(st, cfg.ImageMaxBytes(), cfg.ImageTypes(), cfg.StorageTimeoutDuration(), log)
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMin, time.Hour)
	t.Cleanup(limiter.Stop)

	h := handlers.NewHandler(handlers.Deps{
		Profiles: service.NewProfileService(repo.NewProfileRepository(db), rec, log),
		Items:    service.NewItemService(repo.NewItemRepository(db), images, cfg.ImageMaxCount, cfg.StorageTimeoutDuration(), rec, log),
		Images:   st,
		Verifier: auth.NewJWTVerifier(cfg.AuthSecret, "", ""),
		Metrics:  rec,
		Gatherer: reg,
		Limiter:  limiter,
	}, log, cfg)

	return &testEnv{router: h.Router, db: db, cfg: cfg, store: st, reg: reg, limiter: limiter}
}

func token(t *testing.T, sub string, ttl time.Duration) string {
	t.Helper()
	return signClaims(t, jwt.MapClaims{
		"sub":   sub,
		"email": sub + "@example.com",
		"name":  "User " + sub,
		"exp":   time.Now().Add(ttl).Unix(),
	})
}

func signClaims(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

// seedProfile создаёт профиль с ролью заранее, как это сделал бы администратор.
func (e *testEnv) seedProfile(t *testing.T, id, role string) {
	t.Helper()
	if _, err := repo.NewProfileRepository(e.db).InsertIfAbsent(context.Background(), &model.Profile{ID: id, Role: role}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
}

func (e *testEnv) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) countItems(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(&model.Item{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func dataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}
