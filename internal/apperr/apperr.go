// Package apperr — единая таксономия ошибок сервиса.
//
// Сервисы возвращают *Error с Kind, HTTP-слой переводит Kind в статус.
// Kind == KindConflict используется только внутри хранилища профилей
// и наружу не выходит.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindValidation      Kind = "validation_error"
	KindInvalidImage    Kind = "invalid_image"
	KindStorage         Kind = "storage_failure"
	KindUnavailable     Kind = "unavailable"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindRateLimited     Kind = "rate_limited"
	KindInternal        Kind = "internal"
)

// Error — ошибка с классом, пользовательским сообщением и исходной причиной.
type Error struct {
	Kind    Kind
	Message string
	// Field имя поля запроса для ошибок валидации.
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validation(field, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: msg}
}

func Unauthenticated(msg string, err error) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg, Err: err}
}

// Storage классифицирует ошибку внешнего хранилища: истёкший дедлайн
// или отмена превращаются в KindUnavailable.
func Storage(msg string, err error) *Error {
	if IsTimeout(err) {
		return &Error{Kind: KindUnavailable, Message: msg, Err: err}
	}
	return &Error{Kind: KindStorage, Message: msg, Err: err}
}

// KindOf возвращает класс ошибки. Неизвестные ошибки считаются KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if IsTimeout(err) {
		return KindUnavailable
	}
	return KindInternal
}

func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// Retryable сообщает, можно ли клиенту повторить запрос без изменений.
func Retryable(kind Kind) bool {
	switch kind {
	case KindUnavailable, KindStorage, KindRateLimited, KindInternal:
		return true
	}
	return false
}
