package storage

import (
	"Marketplace/internal/repo"
	"context"
	"errors"

	"gorm.io/gorm"
)

// DBStorage хранит объекты в таблице blobs. Вставка одной строкой атомарна.
type DBStorage struct {
	blobs   repo.BlobRepository
	baseURL string
}

func NewDBStorage(blobs repo.BlobRepository, baseURL string) *DBStorage {
	return &DBStorage{blobs: blobs, baseURL: baseURL}
}

func (s *DBStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if !ValidKey(key) {
		return "", ErrInvalidKey
	}
	created, err := s.blobs.CreateIfAbsent(ctx, key, data, contentType)
	if err != nil {
		return "", err
	}
	if !created {
		return "", ErrKeyExists
	}
	return PublicURL(s.baseURL, key), nil
}

func (s *DBStorage) Get(ctx context.Context, key string) (*Object, error) {
	b, err := s.blobs.Get(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &Object{Data: b.Data, ContentType: b.ContentType}, nil
}

func (s *DBStorage) Delete(ctx context.Context, key string) error {
	return s.blobs.Delete(ctx, key)
}
