package repo

// TokenStore описывает абстракцию хранилища bearer-токена на клиенте.
// Токен выдаёт внешний провайдер; клиент его только хранит и передаёт.
type TokenStore interface {
	Save(token string) error
	Load() (string, error)
}
