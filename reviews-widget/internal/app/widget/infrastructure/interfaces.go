package infrastructure

import (
	"context"

	"gymsite/reviews-widget/internal/app/widget/entity"
)

// ReviewsServiceClient интерфейс клиента удаленного сервиса отзывов
// Используется для dependency injection и упрощения тестирования
type ReviewsServiceClient interface {
	ListReviews(ctx context.Context) ([]entity.Review, error)
	CreateReview(ctx context.Context, req *entity.CreateReviewRequest) error
}
