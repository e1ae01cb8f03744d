package service

import (
	"context"

	"gymsite/reviews-widget/internal/app/widget/entity"
)

type WidgetServiceInterface interface {
	Mount(ctx context.Context, sessionID string) (*entity.Session, error)
	Submit(ctx context.Context, sessionID string, draft entity.Draft) (*SubmissionResult, error)
	RecordImageError(ctx context.Context, sessionID string, reviewID int) error
	View(session *entity.Session, notification *entity.Notification) entity.WidgetView
}
