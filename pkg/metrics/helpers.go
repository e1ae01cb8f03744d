package metrics

import (
	"time"
)

type RedisOperation string

const (
	RedisOpGet   RedisOperation = "get"
	RedisOpDel   RedisOperation = "del"
	RedisOpWatch RedisOperation = "watch"
	RedisOpSetNX RedisOperation = "setnx"
)

type RedisTimer struct {
	service   string
	operation RedisOperation
	start     time.Time
}

func NewRedisTimer(service string, op RedisOperation) *RedisTimer {
	return &RedisTimer{
		service:   service,
		operation: op,
		start:     time.Now(),
	}
}

func (rt *RedisTimer) ObserveDuration() {
	duration := time.Since(rt.start).Seconds()
	RedisOperationDuration.WithLabelValues(rt.service, string(rt.operation)).Observe(duration)
}

func RecordRedisError(service string, op RedisOperation) {
	RedisErrors.WithLabelValues(service, string(op)).Inc()
}

// Исходы исходящих запросов
const (
	UpstreamOK       = "ok"
	UpstreamRejected = "rejected"
	UpstreamError    = "error"
)

// UpstreamTimer замеряет один исходящий запрос к сервису отзывов
type UpstreamTimer struct {
	service   string
	operation string
	start     time.Time
}

func NewUpstreamTimer(service, operation string) *UpstreamTimer {
	return &UpstreamTimer{
		service:   service,
		operation: operation,
		start:     time.Now(),
	}
}

func (ut *UpstreamTimer) Finish(outcome string) {
	UpstreamRequestDuration.WithLabelValues(ut.service, ut.operation).Observe(time.Since(ut.start).Seconds())
	UpstreamRequestsTotal.WithLabelValues(ut.service, ut.operation, outcome).Inc()
}

func RecordReviewFetch(success bool) {
	status := "success"
	if !success {
		status = "failed"
	}
	WidgetReviewFetches.WithLabelValues(status).Inc()
}

func RecordSubmission(outcome string) {
	WidgetSubmissions.WithLabelValues(outcome).Inc()
}
