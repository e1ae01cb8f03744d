package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"gymsite/pkg/logger"
	"gymsite/pkg/metrics"
	"gymsite/reviews-widget/internal/app/widget/entity"
	"gymsite/reviews-widget/internal/app/widget/infrastructure"
	"gymsite/reviews-widget/internal/app/widget/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// WidgetService обрабатывает бизнес-логику виджета отзывов
// Координирует работу хранилища сессий и удаленного сервиса отзывов
type WidgetService struct {
	sessions  repository.SessionRepository
	reviews   infrastructure.ReviewsServiceClient
	images    *ImageResolver
	validator *validator.Validate
}

// NewWidgetService создает новый сервис виджета с внедрением зависимостей
func NewWidgetService(
	sessions repository.SessionRepository,
	reviews infrastructure.ReviewsServiceClient,
	images *ImageResolver,
) *WidgetService {
	v := validator.New()
	// В ошибках валидации используем имена полей формы (name, rating, message)
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	return &WidgetService{
		sessions:  sessions,
		reviews:   reviews,
		images:    images,
		validator: v,
	}
}

// Mount вызывается при открытии виджета
// Загружает отзывы для среднего рейтинга; ошибка загрузки только логируется
func (s *WidgetService) Mount(ctx context.Context, sessionID string) (*entity.Session, error) {
	return s.refreshAggregates(ctx, sessionID)
}

// refreshAggregates заменяет список отзывов сессии только при успешном ответе,
// иначе оставляет предыдущий список. Побеждает последний примененный ответ
func (s *WidgetService) refreshAggregates(ctx context.Context, sessionID string) (*entity.Session, error) {
	reviews, fetchErr := s.reviews.ListReviews(ctx)
	if fetchErr != nil {
		metrics.RecordReviewFetch(false)
		logger.Ctx(ctx).Error().
			Err(fetchErr).
			Str("session_id", sessionID).
			Msg("Error fetching backend reviews")
	} else {
		metrics.RecordReviewFetch(true)
	}

	session, err := s.sessions.Update(ctx, sessionID, func(session *entity.Session) error {
		if fetchErr == nil {
			session.BackendReviews = reviews
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	return session, nil
}

// Submit отправляет отзыв из формы
// 1. Сохраняет черновик и проверяет обязательные поля
// 2. Захватывает блокировку отправки сессии (idle -> pending)
// 3. Отправляет отзыв в удаленный сервис
// 4. Успех: очищает черновик и обновляет средний рейтинг; ошибка: черновик остается
//
// Ошибка возвращается только при сбое хранилища сессий,
// исход отправки описывается SubmissionResult
func (s *WidgetService) Submit(ctx context.Context, sessionID string, draft entity.Draft) (*SubmissionResult, error) {
	session, err := s.sessions.Update(ctx, sessionID, func(session *entity.Session) error {
		session.Draft = draft
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	if verr := s.validateDraft(draft); verr != nil {
		metrics.RecordSubmission(string(OutcomeInvalid))
		return &SubmissionResult{
			Session:      session,
			Outcome:      OutcomeInvalid,
			Notification: errorNotice(verr.Message()),
			Cause:        verr,
		}, nil
	}

	token := uuid.NewString()
	acquired, err := s.sessions.AcquireSubmission(ctx, sessionID, token)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire submission lock: %w", err)
	}
	if !acquired {
		metrics.RecordSubmission(string(OutcomeInProgress))
		return &SubmissionResult{
			Session:      session,
			Outcome:      OutcomeInProgress,
			Notification: errorNotice(inProgressNoticeText),
			Cause:        ErrSubmissionInProgress,
		}, nil
	}
	defer func() {
		// Блокировку снимаем даже если запрос клиента уже отменен
		if err := s.sessions.ReleaseSubmission(context.WithoutCancel(ctx), sessionID, token); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("session_id", sessionID).Msg("Failed to release submission lock")
		}
	}()

	if _, err := s.sessions.Update(ctx, sessionID, s.enterPending(ctx, token)); err != nil {
		return nil, fmt.Errorf("failed to start submission: %w", err)
	}

	// Рейтинг уже проверен валидатором (1..5)
	rating, _ := strconv.Atoi(draft.Rating)
	submitErr := s.reviews.CreateReview(ctx, &entity.CreateReviewRequest{
		Name:    draft.Name,
		Rating:  rating,
		Message: draft.Message,
	})

	result := classifySubmission(submitErr)
	finalPhase := entity.PhaseFailed
	if result.Outcome == OutcomeSucceeded {
		finalPhase = entity.PhaseSucceeded
	}

	session, err = s.sessions.Update(context.WithoutCancel(ctx), sessionID, func(session *entity.Session) error {
		if session.Submission.Token != token {
			return errSubmissionSuperseded
		}
		state, err := Transition(session.Submission, finalPhase)
		if err != nil {
			return err
		}
		if finalPhase == entity.PhaseSucceeded {
			session.Draft = entity.Draft{}
		}
		// succeeded/failed - промежуточные фазы, виджет сразу возвращается в idle
		session.Submission, err = Transition(state, entity.PhaseIdle)
		return err
	})
	if errors.Is(err, errSubmissionSuperseded) {
		// Блокировка истекла и ее захватила другая отправка: сессия теперь принадлежит ей,
		// исход этой отправки все равно сообщаем пользователю
		logger.Ctx(ctx).Warn().
			Str("session_id", sessionID).
			Str("outcome", string(result.Outcome)).
			Msg("Submission lock expired before completion")
		session, err = s.sessions.Get(context.WithoutCancel(ctx), sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to finish submission: %w", err)
	}

	metrics.RecordSubmission(string(result.Outcome))
	log := logger.Ctx(ctx)
	switch result.Outcome {
	case OutcomeSucceeded:
		metrics.WidgetSubmittedRating.Observe(float64(rating))
		log.Info().Str("session_id", sessionID).Int("rating", rating).Msg("Review submitted")

		// Обновляем средний рейтинг и количество отзывов
		session, err = s.refreshAggregates(ctx, sessionID)
		if err != nil {
			return nil, err
		}
	default:
		event := log.Error().Err(submitErr).Str("session_id", sessionID)
		var rejected *infrastructure.RejectedError
		if errors.As(submitErr, &rejected) && rejected.Truncated {
			event = event.Bool("body_truncated", true)
		}
		event.Msg("Error submitting review")
	}

	result.Session = session
	return result, nil
}

// enterPending переводит сессию в pending от имени владельца блокировки token
// Если фаза осталась pending после сбоя, а блокировка уже истекла, фаза сбрасывается
func (s *WidgetService) enterPending(ctx context.Context, token string) repository.UpdateFunc {
	return func(session *entity.Session) error {
		if session.Submission.Phase == entity.PhasePending {
			logger.Ctx(ctx).Warn().
				Str("session_id", session.ID).
				Time("pending_since", session.Submission.ChangedAt).
				Msg("Recovering stale pending submission")
			session.Submission = entity.SubmissionState{Phase: entity.PhaseIdle, ChangedAt: session.Submission.ChangedAt}
		}

		state, err := Transition(session.Submission, entity.PhasePending)
		if err != nil {
			return err
		}
		state.Token = token
		session.Submission = state
		return nil
	}
}

// RecordImageError запоминает, что изображение отзыва не загрузилось
func (s *WidgetService) RecordImageError(ctx context.Context, sessionID string, reviewID int) error {
	if reviewID <= 0 {
		return ErrInvalidReviewID
	}

	added := false
	_, err := s.sessions.Update(ctx, sessionID, func(session *entity.Session) error {
		added = session.AddImageError(reviewID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record image error: %w", err)
	}

	if added {
		metrics.WidgetImageFallbacks.Inc()
		logger.Ctx(ctx).Debug().Int("review_id", reviewID).Msg("Image load failed, using default image")
	}

	return nil
}

// View строит модель отрисовки виджета из состояния сессии
func (s *WidgetService) View(session *entity.Session, notification *entity.Notification) entity.WidgetView {
	if session == nil {
		session = entity.NewSession("")
	}

	fixed := FixedReviews()
	testimonials := make([]entity.TestimonialView, 0, len(fixed))
	for _, review := range fixed {
		testimonials = append(testimonials, entity.TestimonialView{
			ID:       review.ID,
			Name:     review.Name,
			Rating:   review.Rating,
			Message:  review.Message,
			ImageURL: s.images.For(review, session),
			Stars:    make([]int, review.Rating),
		})
	}

	filled := FilledStars(AverageRating(session.BackendReviews))
	stars := make([]bool, maxStars)
	for i := range stars {
		stars[i] = i < filled
	}

	options := make([]entity.RatingOption, 0, maxStars)
	for i := 1; i <= maxStars; i++ {
		value := strconv.Itoa(i)
		label := strings.Repeat("⭐", i) + " " + value + " Star"
		if i > 1 {
			label += "s"
		}
		options = append(options, entity.RatingOption{
			Value:    value,
			Label:    label,
			Selected: session.Draft.Rating == value,
		})
	}

	phase := session.Submission.Phase
	if phase == "" {
		phase = entity.PhaseIdle
	}

	return entity.WidgetView{
		Testimonials:    testimonials,
		DefaultImageURL: s.images.DefaultURL(),
		AverageRating:   FormatAverage(session.BackendReviews),
		AverageStars:    stars,
		TotalReviews:    TotalReviews(session.BackendReviews),
		Draft:           session.Draft,
		RatingOptions:   options,
		Submission:      phase,
		Notification:    notification,
	}
}

func (s *WidgetService) validateDraft(draft entity.Draft) *ValidationError {
	err := s.validator.Struct(draft)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		return &ValidationError{Field: validationErrors[0].Field(), Tag: validationErrors[0].Tag()}
	}
	return &ValidationError{Tag: "invalid"}
}

// classifySubmission превращает ответ сервиса отзывов в исход отправки:
// отказ сервиса показывает текст ответа, остальные ошибки - сообщение о сети
func classifySubmission(err error) *SubmissionResult {
	if err == nil {
		return &SubmissionResult{Outcome: OutcomeSucceeded, Notification: successNotice()}
	}

	var rejected *infrastructure.RejectedError
	if errors.As(err, &rejected) {
		return &SubmissionResult{
			Outcome:      OutcomeRejected,
			Notification: errorNotice(rejectedNoticePrefix + rejected.Body),
			Cause:        err,
		}
	}

	return &SubmissionResult{
		Outcome:      OutcomeNetworkError,
		Notification: errorNotice(networkErrorNoticeText),
		Cause:        err,
	}
}
