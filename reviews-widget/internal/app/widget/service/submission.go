package service

import (
	"fmt"
	"time"

	"gymsite/reviews-widget/internal/app/widget/entity"
)

// Допустимые переходы отправки формы:
// idle -> pending -> succeeded|failed -> idle
var submissionTransitions = map[entity.SubmissionPhase][]entity.SubmissionPhase{
	entity.PhaseIdle:      {entity.PhasePending},
	entity.PhasePending:   {entity.PhaseSucceeded, entity.PhaseFailed},
	entity.PhaseSucceeded: {entity.PhaseIdle},
	entity.PhaseFailed:    {entity.PhaseIdle},
}

// Transition переводит отправку в новую фазу или возвращает ErrInvalidTransition
func Transition(state entity.SubmissionState, to entity.SubmissionPhase) (entity.SubmissionState, error) {
	from := state.Phase
	if from == "" {
		from = entity.PhaseIdle
	}

	for _, allowed := range submissionTransitions[from] {
		if allowed == to {
			return entity.SubmissionState{Phase: to, ChangedAt: time.Now()}, nil
		}
	}

	return state, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// SubmissionOutcome - итог одной попытки отправки формы
type SubmissionOutcome string

const (
	OutcomeSucceeded    SubmissionOutcome = "succeeded"
	OutcomeRejected     SubmissionOutcome = "rejected"
	OutcomeNetworkError SubmissionOutcome = "network_error"
	OutcomeInvalid      SubmissionOutcome = "invalid"
	OutcomeInProgress   SubmissionOutcome = "in_progress"
)

// SubmissionResult возвращается из Submit для отрисовки результата
// Cause содержит причину неуспешного исхода
type SubmissionResult struct {
	Session      *entity.Session
	Outcome      SubmissionOutcome
	Notification *entity.Notification
	Cause        error
}

const (
	successNoticeText      = "Review submitted successfully! Thank you for your feedback."
	rejectedNoticePrefix   = "Failed to submit review: "
	networkErrorNoticeText = "Network error. Please check your connection and try again."
	inProgressNoticeText   = "Your review is already being submitted. Please wait."
)

func successNotice() *entity.Notification {
	return &entity.Notification{Kind: entity.NotificationSuccess, Text: successNoticeText}
}

func errorNotice(text string) *entity.Notification {
	return &entity.Notification{Kind: entity.NotificationError, Text: text}
}
