package commands

import (
	"Marketplace/internal/cli/api"
	"Marketplace/internal/cli/repo"
	fsrepo "Marketplace/internal/cli/repo/fs"
	"Marketplace/internal/config"
)

// NewTokenStore подменяется в тестах.
var NewTokenStore = func(cfg *config.Config) repo.TokenStore {
	return fsrepo.NewTokenFileStore(cfg.TokenFile)
}

// authedClient создаёт клиент с сохранённым токеном; без токена команда не выполняется.
func authedClient(cfg *config.Config) (*api.Client, error) {
	tok, err := NewTokenStore(cfg).Load()
	if err != nil {
		return nil, err
	}
	return api.NewClient(cfg.ServerURL, tok), nil
}

// publicClient передаёт токен, если он есть, но работает и без него.
func publicClient(cfg *config.Config) *api.Client {
	tok, _ := NewTokenStore(cfg).Load()
	return api.NewClient(cfg.ServerURL, tok)
}
