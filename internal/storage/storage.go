// Package storage — хранилище байтов изображений.
//
// Put атомарен: читатель либо видит объект целиком, либо не видит вовсе.
package storage

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrNotFound: объекта с таким ключом нет.
	ErrNotFound = errors.New("object not found")
	// ErrKeyExists: ключ уже занят; ключи не перезаписываются.
	ErrKeyExists = errors.New("object key already exists")
	// ErrInvalidKey: ключ не прошёл проверку формата.
	ErrInvalidKey = errors.New("invalid object key")
)

// Object — содержимое объекта для отдачи клиенту.
type Object struct {
	Data        []byte
	ContentType string
}

// Storage — возможность хранения объектов.
type Storage interface {
	// Put сохраняет объект и возвращает публичный URL.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Get возвращает объект или ErrNotFound.
	Get(ctx context.Context, key string) (*Object, error)
	// Delete удаляет объект; отсутствие объекта ошибкой не считается.
	Delete(ctx context.Context, key string) error
}

var keyRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidKey проверяет, что ключ плоский, без разделителей пути и "..".
func ValidKey(key string) bool {
	return keyRe.MatchString(key) && !strings.Contains(key, "..")
}

// PublicURL строит URL, по которому объект отдаётся через GET /images/{key}.
func PublicURL(baseURL, key string) string {
	return baseURL + "/images/" + key
}
