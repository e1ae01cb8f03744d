package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// HTTP Метрики
// =============================================================================

// HttpRequestsTotal - счётчик всех входящих HTTP запросов
// Labels: service, method, path, status
// Пример запроса PromQL: rate(http_requests_total{service="reviews-widget"}[5m])
var HttpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"service", "method", "path", "status"},
)

// HttpRequestDuration - гистограмма времени ответа
var HttpRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"service", "method", "path"},
)

// HttpRequestsInFlight - текущее количество обрабатываемых запросов
var HttpRequestsInFlight = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	},
	[]string{"service"},
)

// =============================================================================
// Upstream Метрики (вызовы удалённого сервиса отзывов)
// =============================================================================

// UpstreamRequestsTotal - исходящие запросы
// Labels: service, operation (list_reviews, create_review), outcome (ok, rejected, error)
var UpstreamRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "upstream_requests_total",
		Help: "Total number of outgoing requests to the review service",
	},
	[]string{"service", "operation", "outcome"},
)

// UpstreamRequestDuration - время исходящих запросов
var UpstreamRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of outgoing requests to the review service",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Redis Метрики (хранилище сессий виджета)
// =============================================================================

var RedisOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "redis_operation_duration_seconds",
		Help:    "Duration of Redis operations in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	},
	[]string{"service", "operation"},
)

var RedisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_errors_total",
		Help: "Total number of Redis errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Business Метрики виджета отзывов
// =============================================================================

// WidgetReviewFetches - чтения списка отзывов для агрегатов
var WidgetReviewFetches = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "widget_review_fetches_total",
		Help: "Total number of review list fetches",
	},
	[]string{"status"}, // success, failed
)

// WidgetSubmissions - отправки формы по результату
var WidgetSubmissions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "widget_submissions_total",
		Help: "Total number of review submissions by outcome",
	},
	[]string{"outcome"}, // succeeded, rejected, network_error, invalid, in_progress
)

// WidgetSubmittedRating - распределение отправленных оценок
var WidgetSubmittedRating = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "widget_submitted_rating",
		Help:    "Distribution of successfully submitted ratings",
		Buckets: []float64{1, 2, 3, 4, 5},
	},
)

// WidgetImageFallbacks - изображения, замененные на стандартное после ошибки загрузки
var WidgetImageFallbacks = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "widget_image_fallbacks_total",
		Help: "Total number of recorded image load failures",
	},
)
