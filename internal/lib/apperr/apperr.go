// Package apperr описывает типизированные ошибки бизнес-уровня.
// HTTP-слой преобразует Kind в код ответа, сообщение отдаётся клиенту как есть.
package apperr

import (
	"errors"
	"fmt"
)

// Kind категория ошибки.
type Kind string

const (
	Conflict     Kind = "CONFLICT"
	Unauthorized Kind = "UNAUTHORIZED"
	Forbidden    Kind = "FORBIDDEN"
	NotFound     Kind = "NOT_FOUND"
	BadRequest   Kind = "BAD_REQUEST"
	Internal     Kind = "INTERNAL_SERVER_ERROR"
)

// Error ошибка с категорией и человекочитаемым сообщением.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New создаёт ошибку без причины.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap создаёт ошибку, сохраняя причину для errors.Is/As.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf возвращает категорию ошибки. Нетипизированные ошибки считаются Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// MessageOf возвращает сообщение для клиента. Для нетипизированных ошибок
// текст причины не раскрывается.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// Is сообщает, относится ли err к категории kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
