package repo

import (
	"Marketplace/internal/model"
	"context"

	"gorm.io/gorm"
)

// ItemFilter параметры выборки объявлений.
type ItemFilter struct {
	OwnerID  string
	Category string
	Status   string
	Limit    int
	Offset   int
}

// ItemRepository определяет контракт доступа к Item для слоя сервиса.
type ItemRepository interface {
	// Create сохраняет объявление вместе с изображениями в одной транзакции.
	Create(ctx context.Context, it *model.Item) error

	// GetByID возвращает объявление с изображениями по порядку или gorm.ErrRecordNotFound.
	GetByID(ctx context.Context, id string) (*model.Item, error)

	// List возвращает объявления по фильтру, новые первыми.
	List(ctx context.Context, f ItemFilter) ([]model.Item, error)

	// UpdateStatus меняет статус; gorm.ErrRecordNotFound если объявления нет.
	UpdateStatus(ctx context.Context, id, status string) error
}

type itemRepo struct {
	db *gorm.DB
}

// NewItemRepository создаёт реализацию репозитория для Item.
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepo{db: db}
}

func (r *itemRepo) Create(ctx context.Context, it *model.Item) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Owner").Create(it).Error
	})
}

func (r *itemRepo) GetByID(ctx context.Context, id string) (*model.Item, error) {
	var it model.Item
	err := r.db.WithContext(ctx).
		Preload("Images", orderedImages).
		Where("id = ?", id).
		First(&it).Error
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *itemRepo) List(ctx context.Context, f ItemFilter) ([]model.Item, error) {
	q := r.db.WithContext(ctx).Model(&model.Item{}).Preload("Images", orderedImages)
	if f.OwnerID != "" {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var items []model.Item
	if err := q.Order("created_at DESC").Order("id").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepo) UpdateStatus(ctx context.Context, id, status string) error {
	tx := r.db.WithContext(ctx).Model(&model.Item{}).Where("id = ?", id).Update("status", status)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("ordinal ASC")
}
