package storage

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
)

// FSStorage хранит объекты файлами в каталоге.
// Запись идёт во временный файл рядом с целевым и завершается os.Link,
// поэтому существующий ключ не перезаписывается.
type FSStorage struct {
	dir     string
	baseURL string
}

// NewFSStorage создаёт каталог при необходимости.
func NewFSStorage(dir, baseURL string) (*FSStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &FSStorage{dir: dir, baseURL: baseURL}, nil
}

func (s *FSStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if !ValidKey(key) {
		return "", ErrInvalidKey
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target := filepath.Join(s.dir, key)
	if _, err := os.Stat(target); err == nil {
		return "", ErrKeyExists
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	// частично записанный файл не должен остаться
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", err
	}
	if err := ctx.Err(); err != nil {
		cleanup()
		return "", err
	}
	// link не перезаписывает существующий файл, в отличие от rename
	if err := os.Link(tmpName, target); err != nil {
		cleanup()
		if errors.Is(err, os.ErrExist) {
			return "", ErrKeyExists
		}
		return "", err
	}
	cleanup()
	return PublicURL(s.baseURL, key), nil
}

func (s *FSStorage) Get(ctx context.Context, key string) (*Object, error) {
	if !ValidKey(key) {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.dir, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	ct := mime.TypeByExtension(filepath.Ext(key))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &Object{Data: data, ContentType: ct}, nil
}

func (s *FSStorage) Delete(ctx context.Context, key string) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}
	err := os.Remove(filepath.Join(s.dir, key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
