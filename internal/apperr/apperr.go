// Package apperr — общая таксономия ошибок сервисного слоя.
// Хендлеры переводят эти ошибки в HTTP-статусы в одном месте.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound — ресурса нет либо он скрыт областью владения.
	ErrNotFound = errors.New("not found")
	// ErrForbidden — аутентифицирован, но не владелец и не админ.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated — токен отсутствует, невалиден, истёк или отозван.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrConflict — дубликат уникального поля (username, email).
	ErrConflict = errors.New("conflict")
)

// ValidationError — ошибка валидации, сгруппированная по полям:
// имя поля -> список сообщений.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msgs := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(msgs, "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// NewValidation создаёт пустой накопитель ошибок валидации.
func NewValidation() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

// Add добавляет сообщение к полю.
func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

// Empty сообщает, что ошибок не накоплено.
func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

// OrNil возвращает nil, если ошибок нет, иначе сам накопитель.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

// AsValidation извлекает *ValidationError из цепочки ошибок.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Validation — короткий конструктор для ошибки одного поля.
func Validation(field, msg string) *ValidationError {
	ve := NewValidation()
	ve.Add(field, msg)
	return ve
}
