package service

import (
	"Marketplace/internal/apperr"
	"Marketplace/internal/auth"
	"Marketplace/internal/metrics"
	"Marketplace/internal/model"
	"Marketplace/internal/repo"
	"context"
	"errors"
	"fmt"
	"html"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrImageFailure — хотя бы одно изображение не удалось сохранить; объявление не создано.
var ErrImageFailure = errors.New("image ingestion failed")

const (
	maxTitleLen       = 200
	maxCategoryLen    = 100
	maxDescriptionLen = 5000

	defaultListLimit = 20
	maxListLimit     = 100
)

// CreateItemInput — вход создания объявления.
type CreateItemInput struct {
	Title       string
	Description string
	Price       *float64
	Category    string
	Images      []ImagePayload
}

// ListQuery — фильтры и пагинация списка объявлений.
type ListQuery struct {
	OwnerID  string
	Category string
	Status   string
	Limit    int
	Offset   int
}

// ItemService инкапсулирует бизнес-логику работы с Item.
type ItemService struct {
	repo           repo.ItemRepository
	images         ImageIngester
	policy         *bluemonday.Policy
	maxImages      int
	storageTimeout time.Duration
	metrics        metrics.Recorder
	logger         *zap.SugaredLogger
}

func NewItemService(r repo.ItemRepository, images ImageIngester, maxImages int, storageTimeout time.Duration, m metrics.Recorder, logger *zap.SugaredLogger) *ItemService {
	return &ItemService{
		repo:           r,
		images:         images,
		policy:         bluemonday.StrictPolicy(),
		maxImages:      maxImages,
		storageTimeout: storageTimeout,
		metrics:        m,
		logger:         logger,
	}
}

// CreateItem создаёт объявление по принципу "всё или ничего": если хоть одно
// изображение не сохранилось или не записалась строка объявления, уже
// сохранённые изображения удаляются и объявление не появляется.
func (s *ItemService) CreateItem(ctx context.Context, p auth.Principal, in CreateItemInput) (*model.Item, error) {
	if err := auth.Authorize(p); err != nil {
		return nil, err
	}

	title := s.cleanText(in.Title)
	description := s.cleanText(in.Description)
	category := s.cleanText(in.Category)
	if err := s.validate(title, description, category, in); err != nil {
		s.metrics.RecordItemCreateFailure(string(apperr.KindValidation))
		return nil, err
	}

	itemID := uuid.NewString()
	ingested := make([]model.Image, 0, len(in.Images))

	for i, payload := range in.Images {
		if err := ctx.Err(); err != nil {
			s.compensate(ctx, itemID, ingested)
			return nil, s.fail(apperr.Storage("request cancelled during image ingestion", err))
		}
		img, err := s.images.Ingest(ctx, payload)
		if err != nil {
			s.compensate(ctx, itemID, ingested)
			return nil, s.fail(imageFailure(i, err))
		}
		img.ItemID = itemID
		img.Ordinal = i
		ingested = append(ingested, *img)
	}

	item := &model.Item{
		ID:          itemID,
		OwnerID:     p.SubjectID,
		Images:      ingested,
		Title:       title,
		Description: description,
		Price:       *in.Price,
		Category:    category,
		Status:      model.StatusActive,
	}

	wctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	if err := s.repo.Create(wctx, item); err != nil {
		s.compensate(ctx, itemID, ingested)
		return nil, s.fail(apperr.Storage("failed to save item", err))
	}

	s.metrics.RecordImagesIngested(len(ingested))
	s.logger.Infow("item created", "item_id", itemID, "owner_id", p.SubjectID, "images", len(ingested))
	return item, nil
}

// GetItem возвращает объявление по id.
func (s *ItemService) GetItem(ctx context.Context, id string) (*model.Item, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.New(apperr.KindNotFound, "item not found")
	}
	it, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "item not found")
		}
		return nil, apperr.Storage("failed to load item", err)
	}
	return it, nil
}

// ListItems проекция по фильтрам с пагинацией.
func (s *ItemService) ListItems(ctx context.Context, q ListQuery) ([]model.Item, error) {
	if q.Limit < 0 {
		return nil, apperr.Validation("limit", "limit must be non-negative")
	}
	if q.Offset < 0 {
		return nil, apperr.Validation("offset", "offset must be non-negative")
	}
	if q.Status != "" && !model.ValidStatus(q.Status) {
		return nil, apperr.Validation("status", "unknown status")
	}
	if q.Limit == 0 {
		q.Limit = defaultListLimit
	}
	if q.Limit > maxListLimit {
		q.Limit = maxListLimit
	}

	items, err := s.repo.List(ctx, repo.ItemFilter{
		OwnerID:  q.OwnerID,
		Category: q.Category,
		Status:   q.Status,
		Limit:    q.Limit,
		Offset:   q.Offset,
	})
	if err != nil {
		return nil, apperr.Storage("failed to list items", err)
	}
	return items, nil
}

// UpdateStatus меняет статус объявления. Роль проверяется на уровне маршрута.
func (s *ItemService) UpdateStatus(ctx context.Context, id, status string) (*model.Item, error) {
	if !model.ValidStatus(status) {
		return nil, apperr.Validation("status", "unknown status")
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.New(apperr.KindNotFound, "item not found")
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "item not found")
		}
		return nil, apperr.Storage("failed to update item", err)
	}
	s.logger.Infow("item status changed", "item_id", id, "status", status)
	return s.GetItem(ctx, id)
}

func (s *ItemService) validate(title, description, category string, in CreateItemInput) error {
	switch {
	case title == "":
		return apperr.Validation("title", "title is required")
	case utf8.RuneCountInString(title) > maxTitleLen:
		return apperr.Validation("title", fmt.Sprintf("title must be at most %d characters", maxTitleLen))
	case in.Price == nil:
		return apperr.Validation("price", "price is required")
	case math.IsNaN(*in.Price) || math.IsInf(*in.Price, 0) || *in.Price < 0:
		return apperr.Validation("price", "price must be a non-negative number")
	case category == "":
		return apperr.Validation("category", "category is required")
	case utf8.RuneCountInString(category) > maxCategoryLen:
		return apperr.Validation("category", fmt.Sprintf("category must be at most %d characters", maxCategoryLen))
	case utf8.RuneCountInString(description) > maxDescriptionLen:
		return apperr.Validation("description", fmt.Sprintf("description must be at most %d characters", maxDescriptionLen))
	case s.maxImages > 0 && len(in.Images) > s.maxImages:
		return apperr.Validation("images", fmt.Sprintf("at most %d images are allowed", s.maxImages))
	}
	return nil
}

// cleanText убирает разметку; результат хранится как простой текст.
func (s *ItemService) cleanText(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
}

// compensate откатывает уже сохранённых изображений. Работает и для
// отменённого запроса: контекст отвязан от отмены родителя.
func (s *ItemService) compensate(ctx context.Context, itemID string, imgs []model.Image) {
	if len(imgs) == 0 {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storageTimeout)
	defer cancel()

	removed := 0
	for _, img := range imgs {
		if err := s.images.Remove(cctx, img.Key); err != nil {
			s.logger.Errorw("failed to remove image during rollback", "item_id", itemID, "key", img.Key, "error", err)
			continue
		}
		removed++
	}
	s.metrics.RecordImagesCompensated(removed)
	s.logger.Warnw("item creation rolled back", "item_id", itemID, "images_removed", removed, "images_total", len(imgs))
}

func (s *ItemService) fail(err error) error {
	s.metrics.RecordItemCreateFailure(string(apperr.KindOf(err)))
	return err
}

// imageFailure сохраняет класс исходной ошибки и добавляет номер изображения.
func imageFailure(i int, err error) error {
	kind := apperr.KindOf(err)
	msg := err.Error()
	var ae *apperr.Error
	if errors.As(err, &ae) {
		msg = ae.Message
	}
	if kind != apperr.KindInvalidImage && kind != apperr.KindUnavailable {
		kind = apperr.KindStorage
	}
	return &apperr.Error{
		Kind:    kind,
		Field:   fmt.Sprintf("images[%d]", i),
		Message: fmt.Sprintf("image %d: %s", i+1, msg),
		Err:     fmt.Errorf("%w: %w", ErrImageFailure, err),
	}
}
