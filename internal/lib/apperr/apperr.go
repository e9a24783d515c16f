// Package apperr описывает ошибки бизнес-логики, которые HTTP слой
// превращает в статус ответа и сообщение для клиента.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind категория ошибки.
type Kind int

const (
	// KindInternal непредвиденная ошибка, клиент видит общее сообщение.
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindUpstream
	KindPaymentVerification
)

// Status возвращает HTTP статус для категории.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindPaymentVerification:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error ошибка с категорией и сообщением, безопасным для показа клиенту.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New создает ошибку заданной категории.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap создает ошибку заданной категории поверх причины err.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error      { return New(KindValidation, message) }
func Unauthenticated(message string) *Error { return New(KindUnauthenticated, message) }
func Forbidden(message string) *Error       { return New(KindForbidden, message) }
func NotFound(message string) *Error        { return New(KindNotFound, message) }
func Conflict(message string) *Error        { return New(KindConflict, message) }

// Upstream ошибка внешнего сервиса (платежный шлюз, хранилище медиа).
func Upstream(message string, err error) *Error {
	return Wrap(KindUpstream, message, err)
}

// Internal ошибка, детали которой не показываются клиенту.
func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// PaymentVerification неверная подпись платежа.
func PaymentVerification(message string) *Error {
	return New(KindPaymentVerification, message)
}

// As извлекает *Error из цепочки ошибок.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf возвращает категорию ошибки, KindInternal для неизвестных ошибок.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}
