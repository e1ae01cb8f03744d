package repository

import (
	"context"
	"sync"
	"time"

	"gymsite/reviews-widget/internal/app/widget/entity"
)

type memoryEntry struct {
	session   *entity.Session
	expiresAt time.Time
}

type memoryLock struct {
	token     string
	expiresAt time.Time
}

// memorySessionRepository хранит сессии в памяти процесса
// Подходит для одного экземпляра сервиса
type memorySessionRepository struct {
	mu        sync.Mutex
	sessions  map[string]memoryEntry
	locks     map[string]memoryLock
	ttl       time.Duration
	lockTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

const sweepInterval = time.Minute

// NewMemorySessionRepository создает репозиторий сессий в памяти
func NewMemorySessionRepository(ttl, lockTTL time.Duration) SessionRepository {
	return &memorySessionRepository{
		sessions: make(map[string]memoryEntry),
		locks:    make(map[string]memoryLock),
		ttl:      ttl,
		lockTTL:  lockTTL,
		now:      time.Now,
	}
}

// Get возвращает копию сессии, чтобы вызывающий код не менял ее в обход Update
func (r *memorySessionRepository) Get(ctx context.Context, id string) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.lookup(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return entry.session.Clone(), nil
}

func (r *memorySessionRepository) Update(ctx context.Context, id string, fn UpdateFunc) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var session *entity.Session
	if entry, ok := r.lookup(id); ok {
		session = entry.session.Clone()
	} else {
		session = entity.NewSession(id)
	}

	if err := fn(session); err != nil {
		return nil, err
	}

	now := r.now()
	session.UpdatedAt = now
	r.sessions[id] = memoryEntry{session: session, expiresAt: now.Add(r.ttl)}
	r.sweep(now)

	return session.Clone(), nil
}

func (r *memorySessionRepository) AcquireSubmission(ctx context.Context, id, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if lock, held := r.locks[id]; held && now.Before(lock.expiresAt) {
		return false, nil
	}
	r.locks[id] = memoryLock{token: token, expiresAt: now.Add(r.lockTTL)}
	return true, nil
}

func (r *memorySessionRepository) ReleaseSubmission(ctx context.Context, id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Блокировку, перехваченную после истечения TTL, не трогаем
	if lock, held := r.locks[id]; held && lock.token == token {
		delete(r.locks, id)
	}
	return nil
}

// lookup возвращает живую запись, удаляя просроченную. Вызывается под mu
func (r *memorySessionRepository) lookup(id string) (memoryEntry, bool) {
	entry, ok := r.sessions[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !r.now().Before(entry.expiresAt) {
		delete(r.sessions, id)
		return memoryEntry{}, false
	}
	return entry, true
}

// sweep удаляет брошенные сессии не чаще раза в sweepInterval. Вызывается под mu
func (r *memorySessionRepository) sweep(now time.Time) {
	if now.Sub(r.lastSweep) < sweepInterval {
		return
	}
	r.lastSweep = now

	for id, entry := range r.sessions {
		if !now.Before(entry.expiresAt) {
			delete(r.sessions, id)
		}
	}
	for id, lock := range r.locks {
		if !now.Before(lock.expiresAt) {
			delete(r.locks, id)
		}
	}
}
