package service

import (
	"Marketplace/internal/apperr"
	"Marketplace/internal/model"
	"Marketplace/internal/storage"
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// ImagePayload — одно изображение из запроса на создание объявления.
// Data: data URL ("data:<mime>;base64,<payload>") или голый base64.
type ImagePayload struct {
	Data             string
	OriginalFilename string
	MimeType         string
}

// ImageIngester — сохранение и удаление изображений; ItemService зависит только от него.
type ImageIngester interface {
	Ingest(ctx context.Context, p ImagePayload) (*model.Image, error)
	Remove(ctx context.Context, key string) error
}

// ImageService декодирует, проверяет и сохраняет изображения.
type ImageService struct {
	storage  storage.Storage
	maxBytes int64
	allowed  map[string]bool
	timeout  time.Duration
	logger   *zap.SugaredLogger
}

func NewImageService(st storage.Storage, maxBytes int64, allowedTypes []string, timeout time.Duration, logger *zap.SugaredLogger) *ImageService {
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[strings.ToLower(t)] = true
	}
	return &ImageService{storage: st, maxBytes: maxBytes, allowed: allowed, timeout: timeout, logger: logger}
}

var extByMime = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// Ingest проверяет изображение и сохраняет его под новым уникальным ключом.
func (s *ImageService) Ingest(ctx context.Context, p ImagePayload) (*model.Image, error) {
	declared, payload, err := splitDataURL(p.Data)
	if err != nil {
		return nil, err
	}
	if declared == "" {
		declared = normalizeMime(p.MimeType)
	}

	// переносы строк (MIME-стиль) не считаются в размере
	payload = stripSpace(payload)
	// отсекаем заведомо большие payload до декодирования
	if int64(base64.StdEncoding.DecodedLen(len(payload))) > s.maxBytes+2 {
		return nil, apperr.New(apperr.KindInvalidImage, fmt.Sprintf("image exceeds %d bytes", s.maxBytes))
	}
	data, err := decodeBase64(payload)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidImage, "image is not valid base64", err)
	}
	if len(data) == 0 {
		return nil, apperr.New(apperr.KindInvalidImage, "image is empty")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, apperr.New(apperr.KindInvalidImage, fmt.Sprintf("image exceeds %d bytes", s.maxBytes))
	}

	detected := normalizeMime(http.DetectContentType(data))
	if !s.allowed[detected] {
		return nil, apperr.New(apperr.KindInvalidImage, fmt.Sprintf("image type %q is not allowed", detected))
	}
	if declared != "" && declared != detected {
		return nil, apperr.New(apperr.KindInvalidImage, fmt.Sprintf("declared type %q does not match content %q", declared, detected))
	}

	ext := extByMime[detected]
	sum := blake2b.Sum256(data)

	putCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var key, url string
	for attempt := 0; attempt < 2; attempt++ {
		key = uuid.NewString() + ext
		url, err = s.storage.Put(putCtx, key, data, detected)
		if !errors.Is(err, storage.ErrKeyExists) {
			break
		}
	}
	if err != nil {
		if !errors.Is(err, storage.ErrKeyExists) {
			// объект мог успеть записаться до истечения дедлайна
			s.bestEffortDelete(ctx, key)
		}
		return nil, apperr.Storage("failed to store image", err)
	}

	return &model.Image{
		ID:               uuid.NewString(),
		Key:              key,
		URL:              url,
		OriginalFilename: sanitizeFilename(p.OriginalFilename, ext),
		MimeType:         detected,
		SizeBytes:        int64(len(data)),
		Checksum:         hex.EncodeToString(sum[:]),
	}, nil
}

// Remove удаляет объект изображения из хранилища.
func (s *ImageService) Remove(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.storage.Delete(ctx, key); err != nil {
		return apperr.Storage("failed to delete image", err)
	}
	return nil
}

func (s *ImageService) bestEffortDelete(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Warnw("failed to delete partially stored image", "key", key, "error", err)
	}
}

// splitDataURL разбирает "data:<mime>;base64,<payload>". Если это не data URL, весь ввод считается base64.
func splitDataURL(s string) (mimeType, payload string, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", "", apperr.New(apperr.KindInvalidImage, "image data is empty")
	}
	if !strings.HasPrefix(s, "data:") {
		return "", s, nil
	}
	header, payload, ok := strings.Cut(s[len("data:"):], ",")
	if !ok {
		return "", "", apperr.New(apperr.KindInvalidImage, "malformed data URL")
	}
	parts := strings.Split(header, ";")
	base64Flag := false
	for _, p := range parts[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			base64Flag = true
		}
	}
	if !base64Flag {
		return "", "", apperr.New(apperr.KindInvalidImage, "data URL must be base64 encoded")
	}
	return normalizeMime(parts[0]), payload, nil
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, s)
}

func decodeBase64(s string) ([]byte, error) {
	s = stripSpace(s)
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

func normalizeMime(m string) string {
	m = strings.ToLower(strings.TrimSpace(m))
	if i := strings.Index(m, ";"); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	if m == "image/jpg" || m == "image/pjpeg" {
		return "image/jpeg"
	}
	return m
}

var safeNameRe = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} ._()+-]*$`)

// sanitizeFilename оставляет только безопасное базовое имя.
// Небезопасное имя не ошибка: подставляется сгенерированное.
func sanitizeFilename(name, ext string) string {
	name = strings.TrimSpace(name)
	if name != "" && utf8.ValidString(name) && !strings.ContainsAny(name, "/\\\x00") &&
		!strings.Contains(name, "..") && len(name) <= 255 && safeNameRe.MatchString(name) {
		return name
	}
	// путь с каталогами: берём только последнюю часть, если она безопасна
	if base := path.Base(strings.ReplaceAll(name, "\\", "/")); base != name && base != "." && base != "/" &&
		!strings.Contains(base, "..") && len(base) <= 255 && safeNameRe.MatchString(base) {
		return base
	}
	return "image-" + uuid.NewString()[:8] + ext
}
