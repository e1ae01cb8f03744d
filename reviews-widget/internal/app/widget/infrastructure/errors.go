package infrastructure

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedStatus - сервис отзывов ответил не 2xx на чтение списка
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrMalformedResponse - тело ответа не является JSON массивом отзывов
	ErrMalformedResponse = errors.New("malformed reviews response")
)

// RejectedError - сервис отзывов отклонил отзыв (ответ не 2xx)
// Body содержит текст ответа без изменений для показа пользователю.
// Тело длиннее 1 MiB обрезается, тогда Truncated = true
type RejectedError struct {
	StatusCode int
	Body       string
	Truncated  bool
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("review rejected with status %d: %s", e.StatusCode, e.Body)
}
