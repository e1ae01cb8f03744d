package entity

import (
	"time"
)

// Review - отзыв в формате удаленного сервиса отзывов
type Review struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Rating   int    `json:"rating"`             // Оценка от 1 до 5
	Message  string `json:"message"`
	ImageURL string `json:"imageUrl,omitempty"` // Необязательное фото автора
}

// Draft - незавершенный ввод формы отзыва
// Rating хранится строкой ("1".."5" или "") до разбора при отправке
type Draft struct {
	Name    string `json:"name" form:"name" validate:"required"`
	Rating  string `json:"rating" form:"rating" validate:"required,oneof=1 2 3 4 5"`
	Message string `json:"message" form:"message" validate:"required"`
}

// IsEmpty сообщает, что все поля формы пусты
func (d Draft) IsEmpty() bool {
	return d.Name == "" && d.Rating == "" && d.Message == ""
}

// SubmissionPhase - состояние отправки формы
type SubmissionPhase string

const (
	PhaseIdle      SubmissionPhase = "idle"
	PhasePending   SubmissionPhase = "pending"
	PhaseSucceeded SubmissionPhase = "succeeded"
	PhaseFailed    SubmissionPhase = "failed"
)

// SubmissionState - текущая фаза отправки и время входа в нее
// Token - владелец блокировки отправки, заполнен только в фазе pending
type SubmissionState struct {
	Phase     SubmissionPhase `json:"phase"`
	ChangedAt time.Time       `json:"changed_at"`
	Token     string          `json:"token,omitempty"`
}

// NotificationKind - тип уведомления пользователя
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notification - сообщение, которое показывается пользователю после отправки
type Notification struct {
	Kind NotificationKind `json:"kind"`
	Text string           `json:"text"`
}

// Session - состояние одного экземпляра виджета
// Живет в хранилище сессий до истечения TTL, отзывы в нем не сохраняются
type Session struct {
	ID             string          `json:"id"`
	Draft          Draft           `json:"draft"`
	BackendReviews []Review        `json:"backend_reviews"` // Источник для среднего рейтинга и количества
	ImageErrors    map[int]bool    `json:"image_errors"`    // ID отзывов, у которых не загрузилось изображение
	Submission     SubmissionState `json:"submission"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewSession создает пустую сессию в фазе idle
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:          id,
		ImageErrors: make(map[int]bool),
		Submission:  SubmissionState{Phase: PhaseIdle, ChangedAt: now},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// HasImageError сообщает, что изображение отзыва уже не загрузилось в этой сессии
func (s *Session) HasImageError(reviewID int) bool {
	return s.ImageErrors[reviewID]
}

// AddImageError добавляет ID в множество ошибок; множество только растет
func (s *Session) AddImageError(reviewID int) bool {
	if s.ImageErrors == nil {
		s.ImageErrors = make(map[int]bool)
	}
	if s.ImageErrors[reviewID] {
		return false
	}
	s.ImageErrors[reviewID] = true
	return true
}

// Clone возвращает глубокую копию сессии
func (s *Session) Clone() *Session {
	c := *s
	if s.BackendReviews != nil {
		c.BackendReviews = make([]Review, len(s.BackendReviews))
		copy(c.BackendReviews, s.BackendReviews)
	}
	c.ImageErrors = make(map[int]bool, len(s.ImageErrors))
	for id, failed := range s.ImageErrors {
		c.ImageErrors[id] = failed
	}
	return &c
}
