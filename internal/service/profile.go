package service

import (
	"Marketplace/internal/apperr"
	"Marketplace/internal/metrics"
	"Marketplace/internal/model"
	"Marketplace/internal/repo"
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProfileDefaults — значения для нового профиля; при существующем игнорируются.
type ProfileDefaults struct {
	FullName string
	Role     string
}

// ProfileService гарантирует ровно один профиль на subject id.
// Выполняется сервером с привилегиями, в обход пользовательских политик доступа.
type ProfileService struct {
	repo    repo.ProfileRepository
	metrics metrics.Recorder
	logger  *zap.SugaredLogger
}

func NewProfileService(r repo.ProfileRepository, m metrics.Recorder, logger *zap.SugaredLogger) *ProfileService {
	return &ProfileService{repo: r, metrics: m, logger: logger}
}

// EnsureProfile реализует get-or-create. Профиль мог быть создан параллельно внешним
// триггером или другим запросом: конфликт вставки не ошибка, строка перечитывается.
func (s *ProfileService) EnsureProfile(ctx context.Context, subjectID string, d ProfileDefaults) (*model.Profile, error) {
	if subjectID == "" {
		return nil, apperr.Validation("subject_id", "subject id is empty")
	}

	p, err := s.repo.GetByID(ctx, subjectID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Storage("failed to read profile", err)
	}

	role := d.Role
	if !model.ValidRole(role) {
		role = model.RoleUser
	}
	candidate := &model.Profile{ID: subjectID, FullName: d.FullName, Role: role}

	created, err := s.repo.InsertIfAbsent(ctx, candidate)
	if err != nil {
		return nil, apperr.Storage("failed to create profile", err)
	}
	if created {
		s.metrics.RecordProfileCreated()
		s.logger.Infow("profile created", "subject_id", subjectID, "role", role)
		return candidate, nil
	}

	// строку успели вставить между чтением и вставкой
	s.metrics.RecordProfileConflictAbsorbed()
	p, err = s.repo.GetByID(ctx, subjectID)
	if err != nil {
		return nil, apperr.Storage("failed to re-read profile after conflict", err)
	}
	s.logger.Debugw("profile insert conflict absorbed", "subject_id", subjectID)
	return p, nil
}
