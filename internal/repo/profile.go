package repo

import (
	"Marketplace/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository — доступ к таблице profiles.
type ProfileRepository interface {
	// GetByID возвращает профиль или gorm.ErrRecordNotFound.
	GetByID(ctx context.Context, id string) (*model.Profile, error)

	// InsertIfAbsent пытается вставить профиль. Если строка с таким id уже есть —
	// ничего не делает и возвращает created=false без ошибки.
	InsertIfAbsent(ctx context.Context, p *model.Profile) (created bool, err error)
}

type profileRepo struct {
	db *gorm.DB
}

// NewProfileRepository создаёт реализацию репозитория профилей.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepo) InsertIfAbsent(ctx context.Context, p *model.Profile) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(p)
	if tx.Error != nil {
		// драйвер без ON CONFLICT: уникальный ключ всё равно сигналит о гонке
		if errors.Is(tx.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
