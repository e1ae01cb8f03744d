package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gymsite/pkg/metrics"
	"gymsite/reviews-widget/internal/app/widget/entity"

	"github.com/redis/go-redis/v9"
)

const (
	serviceName = "reviews-widget"

	// Число попыток оптимистичной транзакции при конкурентной записи
	maxUpdateAttempts = 5
)

// releaseLockScript удаляет блокировку только если значение совпадает с токеном владельца
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisSessionRepository struct {
	client  *redis.Client
	ttl     time.Duration // TTL сессии, продлевается при каждой записи
	lockTTL time.Duration // TTL блокировки отправки
}

// NewRedisSessionRepository создает Redis репозиторий сессий виджета
// Позволяет запускать несколько экземпляров сервиса за балансировщиком
func NewRedisSessionRepository(client *redis.Client, ttl, lockTTL time.Duration) SessionRepository {
	return &redisSessionRepository{
		client:  client,
		ttl:     ttl,
		lockTTL: lockTTL,
	}
}

// Ключ формата: widget_session:<id>
func sessionKey(id string) string {
	return fmt.Sprintf("widget_session:%s", id)
}

// Ключ формата: widget_submit_lock:<id>
func submitLockKey(id string) string {
	return fmt.Sprintf("widget_submit_lock:%s", id)
}

// Get получает сессию из Redis
func (r *redisSessionRepository) Get(ctx context.Context, id string) (*entity.Session, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	timer.ObserveDuration()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}

	return decodeSession(data)
}

// Update выполняет read-modify-write в WATCH/MULTI транзакции
// При конкурентном изменении ключа транзакция повторяется
func (r *redisSessionRepository) Update(ctx context.Context, id string, fn UpdateFunc) (*entity.Session, error) {
	key := sessionKey(id)
	var result *entity.Session
	var fnErr error

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		var session *entity.Session
		switch {
		case errors.Is(err, redis.Nil):
			session = entity.NewSession(id)
		case err != nil:
			return fmt.Errorf("failed to get session from redis: %w", err)
		default:
			session, err = decodeSession(data)
			if err != nil {
				return err
			}
		}

		if fnErr = fn(session); fnErr != nil {
			return fnErr
		}
		session.UpdatedAt = time.Now()

		encoded, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}

		result = session
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpWatch)
		err := r.client.Watch(ctx, txf, key)
		timer.ObserveDuration()

		if err == nil {
			return result, nil
		}
		if fnErr != nil {
			return nil, fnErr
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpWatch)
		return nil, err
	}

	return nil, ErrConcurrentUpdate
}

// AcquireSubmission ставит блокировку через SET NX с TTL, значение - токен владельца
func (r *redisSessionRepository) AcquireSubmission(ctx context.Context, id, token string) (bool, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSetNX)
	acquired, err := r.client.SetNX(ctx, submitLockKey(id), token, r.lockTTL).Result()
	timer.ObserveDuration()

	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSetNX)
		return false, fmt.Errorf("failed to acquire submission lock: %w", err)
	}
	return acquired, nil
}

// ReleaseSubmission снимает блокировку через compare-and-delete
func (r *redisSessionRepository) ReleaseSubmission(ctx context.Context, id, token string) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)
	err := releaseLockScript.Run(ctx, r.client, []string{submitLockKey(id)}, token).Err()
	timer.ObserveDuration()

	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to release submission lock: %w", err)
	}
	return nil
}

func decodeSession(data []byte) (*entity.Session, error) {
	var session entity.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if session.ImageErrors == nil {
		session.ImageErrors = make(map[int]bool)
	}
	return &session, nil
}
