package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"gymsite/pkg/metrics"
	"gymsite/reviews-widget/internal/app/widget/entity"
	"gymsite/reviews-widget/internal/app/widget/infrastructure"
)

const (
	serviceName = "reviews-widget"
	reviewsPath = "/api/reviews"

	// Ограничение на размер ответа, чтобы не читать в память произвольные тела
	maxBodySize = 1 << 20
)

// ReviewsClient клиент для взаимодействия с удаленным сервисом отзывов
type ReviewsClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewReviewsClient создает новый клиент для сервиса отзывов
func NewReviewsClient(baseURL string, timeout time.Duration) *ReviewsClient {
	return &ReviewsClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ListReviews получает все отзывы для расчета среднего рейтинга
// Любой ответ, кроме 2xx с JSON массивом, считается отсутствием данных
func (c *ReviewsClient) ListReviews(ctx context.Context) ([]entity.Review, error) {
	timer := metrics.NewUpstreamTimer(serviceName, "list_reviews")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+reviewsPath, nil)
	if err != nil {
		timer.Finish(metrics.UpstreamError)
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		timer.Finish(metrics.UpstreamError)
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		timer.Finish(metrics.UpstreamRejected)
		return nil, fmt.Errorf("%w: %d", infrastructure.ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		timer.Finish(metrics.UpstreamError)
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	reviews, err := decodeReviewList(body)
	if err != nil {
		timer.Finish(metrics.UpstreamError)
		return nil, err
	}

	timer.Finish(metrics.UpstreamOK)
	return reviews, nil
}

// CreateReview отправляет новый отзыв
// Отказ сервиса возвращается как *infrastructure.RejectedError, сетевые ошибки - как обычная ошибка
func (c *ReviewsClient) CreateReview(ctx context.Context, review *entity.CreateReviewRequest) error {
	timer := metrics.NewUpstreamTimer(serviceName, "create_review")

	payload, err := json.Marshal(review)
	if err != nil {
		timer.Finish(metrics.UpstreamError)
		return fmt.Errorf("failed to marshal review: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+reviewsPath, bytes.NewReader(payload))
	if err != nil {
		timer.Finish(metrics.UpstreamError)
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		timer.Finish(metrics.UpstreamError)
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Читаем на байт больше лимита, чтобы отличить обрезанное тело от тела ровно maxBodySize
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
		if err != nil {
			timer.Finish(metrics.UpstreamError)
			return fmt.Errorf("failed to read error body: %w", err)
		}
		truncated := len(body) > maxBodySize
		if truncated {
			body = body[:maxBodySize]
		}
		timer.Finish(metrics.UpstreamRejected)
		return &infrastructure.RejectedError{StatusCode: resp.StatusCode, Body: string(body), Truncated: truncated}
	}

	// Тело успешного ответа виджету не нужно
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))

	timer.Finish(metrics.UpstreamOK)
	return nil
}

// decodeReviewList принимает только JSON массив; null, объект или строка - ErrMalformedResponse
func decodeReviewList(body []byte) ([]entity.Review, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, infrastructure.ErrMalformedResponse
	}

	reviews := make([]entity.Review, 0)
	if err := json.Unmarshal(trimmed, &reviews); err != nil {
		return nil, fmt.Errorf("%w: %v", infrastructure.ErrMalformedResponse, err)
	}

	return reviews, nil
}
