package mq

import "errors"

// Ошибки пакета mq.
var (
	// ErrNoChannel — канал AMQP не открыт (идёт переподключение).
	ErrNoChannel = errors.New("no channel available")

	// ErrClosed — соединение закрыто через Close.
	ErrClosed = errors.New("connection closed")

	// ErrPermanent — ошибка, повтор которой бессмыслен; сообщение уходит в DLQ.
	ErrPermanent = errors.New("permanent failure")
)

// permanentError помечает ошибку как постоянную.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() []error { return []error{ErrPermanent, e.err} }

// Permanent помечает ошибку обработчика как постоянную:
// consumer отправит сообщение в DLQ вместо повторной доставки.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}
