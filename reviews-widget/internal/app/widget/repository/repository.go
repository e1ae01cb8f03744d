package repository

import (
	"context"
	"errors"

	"gymsite/reviews-widget/internal/app/widget/entity"
)

var (
	// Стандартные ошибки репозитория для обработки в service layer
	ErrSessionNotFound  = errors.New("session not found")
	ErrConcurrentUpdate = errors.New("session was modified concurrently")
)

// UpdateFunc изменяет сессию внутри атомарного обновления
// Ошибка из функции отменяет обновление
type UpdateFunc func(session *entity.Session) error

// SessionRepository определяет методы для работы с сессиями виджета
type SessionRepository interface {
	Get(ctx context.Context, id string) (*entity.Session, error)
	// Update атомарно применяет fn к сессии; отсутствующая сессия создается пустой
	Update(ctx context.Context, id string, fn UpdateFunc) (*entity.Session, error)
	// AcquireSubmission захватывает блокировку отправки от имени token; false - уже захвачена
	AcquireSubmission(ctx context.Context, id, token string) (bool, error)
	// ReleaseSubmission снимает блокировку, только если ей владеет token
	ReleaseSubmission(ctx context.Context, id, token string) error
}
