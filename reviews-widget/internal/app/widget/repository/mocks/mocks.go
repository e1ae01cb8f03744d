package mocks

import (
	"context"
	"sync"

	"gymsite/reviews-widget/internal/app/widget/entity"
	"gymsite/reviews-widget/internal/app/widget/repository"

	"github.com/stretchr/testify/mock"
)

// MockSessionRepository мок для SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Get(ctx context.Context, id string) (*entity.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Session), args.Error(1)
}

func (m *MockSessionRepository) Update(ctx context.Context, id string, fn repository.UpdateFunc) (*entity.Session, error) {
	args := m.Called(ctx, id, fn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Session), args.Error(1)
}

func (m *MockSessionRepository) AcquireSubmission(ctx context.Context, id, token string) (bool, error) {
	args := m.Called(ctx, id, token)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionRepository) ReleaseSubmission(ctx context.Context, id, token string) error {
	args := m.Called(ctx, id, token)
	return args.Error(0)
}

// MockReviewsServiceClient мок для клиента удаленного сервиса отзывов
// Created хранит все отправленные отзывы в порядке вызова
type MockReviewsServiceClient struct {
	mock.Mock
	mu      sync.Mutex
	Created []entity.CreateReviewRequest
}

func (m *MockReviewsServiceClient) ListReviews(ctx context.Context) ([]entity.Review, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Review), args.Error(1)
}

func (m *MockReviewsServiceClient) CreateReview(ctx context.Context, req *entity.CreateReviewRequest) error {
	m.mu.Lock()
	m.Created = append(m.Created, *req)
	m.mu.Unlock()
	args := m.Called(ctx, req)
	return args.Error(0)
}
