package repo

import (
	"Marketplace/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlobRepository минимальный контракт доступа к Blob.
type BlobRepository interface {
	// CreateIfAbsent пытается создать запись. Если запись уже есть, ничего не делает.
	// Возвращает created=true если запись была создана в этой операции.
	CreateIfAbsent(ctx context.Context, id string, data []byte, contentType string) (created bool, err error)

	// Get возвращает blob или gorm.ErrRecordNotFound.
	Get(ctx context.Context, id string) (*model.Blob, error)

	// Delete удаляет blob; отсутствие записи ошибкой не считается.
	Delete(ctx context.Context, id string) error
}

type blobRepo struct {
	db *gorm.DB
}

// NewBlobRepository создаёт реализацию репозитория для Blob.
func NewBlobRepository(db *gorm.DB) BlobRepository {
	return &blobRepo{db: db}
}

// CreateIfAbsent создает Blob в БД, если его ещё нет.
func (r *blobRepo) CreateIfAbsent(ctx context.Context, id string, data []byte, contentType string) (bool, error) {
	b := &model.Blob{ID: id, Data: data, ContentType: contentType, Size: int64(len(data))}
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(b)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *blobRepo) Get(ctx context.Context, id string) (*model.Blob, error) {
	var b model.Blob
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *blobRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Blob{}).Error
}
