package handlers

import (
	"Marketplace/internal/apperr"
	"Marketplace/internal/middleware"
	"Marketplace/internal/storage"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// ImageHandler отдаёт сохранённые изображения по ключу.
type ImageHandler struct {
	Storage storage.Storage
	Logger  *zap.SugaredLogger
}

func NewImageHandler(st storage.Storage, logger *zap.SugaredLogger) *ImageHandler {
	return &ImageHandler{Storage: st, Logger: logger}
}

// Get GET /images/{key}. Ключи неизменяемы, поэтому ответ кешируется надолго.
func (h *ImageHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !storage.ValidKey(key) {
		middleware.WriteError(w, r, apperr.New(apperr.KindNotFound, "image not found"))
		return
	}

	obj, err := h.Storage.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			middleware.WriteError(w, r, apperr.New(apperr.KindNotFound, "image not found"))
			return
		}
		middleware.WriteError(w, r, apperr.Storage("failed to read image", err))
		return
	}

	sum := blake2b.Sum256(obj.Data)
	etag := `"` + hex.EncodeToString(sum[:16]) + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	ct := obj.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(obj.Data); err != nil {
		h.Logger.Warnw("Get image: write failed", "key", key, "error", err)
	}
}
