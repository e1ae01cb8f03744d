package service

import (
	"errors"
	"fmt"
)

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrSubmissionInProgress = errors.New("submission already in progress")
	ErrInvalidTransition    = errors.New("invalid submission transition")
	ErrInvalidReviewID      = errors.New("invalid review id")

	errSubmissionSuperseded = errors.New("submission lock taken over by another request")
)

// ValidationError - незаполненное или неверное поле формы
// Заменяет встроенную проверку required в браузере
type ValidationError struct {
	Field string
	Tag   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is %s", e.Field, e.Tag)
}

// Message - текст для пользователя
func (e *ValidationError) Message() string {
	switch e.Field {
	case "name":
		return "Please enter your name."
	case "rating":
		return "Please select a rating from 1 to 5."
	case "message":
		return "Please tell us about your experience."
	default:
		return "Please fill in all required fields."
	}
}
