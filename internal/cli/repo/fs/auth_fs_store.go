package fs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoToken возвращается, когда токен ещё не сохранён.
var ErrNoToken = errors.New("no stored token, run `mkcli token <jwt>` first")

// TokenFileStore — файловое хранилище bearer-токена для CLI.
type TokenFileStore struct {
	Path string
}

func NewTokenFileStore(path string) TokenFileStore {
	return TokenFileStore{Path: path}
}

// Save сохраняет токен в файл с правами 0600.
func (s TokenFileStore) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("empty token")
	}
	if s.Path == "" {
		return errors.New("token file path is not set")
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.Path, []byte(token), 0o600)
}

// Load читает токен из файла.
func (s TokenFileStore) Load() (string, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoToken
		}
		return "", err
	}
	// обрезаем завершающие переводы строки/пробелы
	tok := strings.TrimRight(string(b), " \t\r\n")
	if tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}
