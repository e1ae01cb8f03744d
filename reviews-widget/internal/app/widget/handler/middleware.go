package handler

import (
	"net/http"
	"time"

	"gymsite/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// sessionIDKey - ключ ID сессии виджета в контексте Gin
const sessionIDKey = "session_id"

// SessionMiddleware привязывает каждый экземпляр виджета к сессии через cookie
type SessionMiddleware struct {
	cookieName string
	ttl        time.Duration
	secure     bool
}

// NewSessionMiddleware создает middleware сессий виджета
func NewSessionMiddleware(cookieName string, ttl time.Duration, secure bool) *SessionMiddleware {
	return &SessionMiddleware{
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
	}
}

// Attach читает ID сессии из cookie или выдает новый и добавляет его в контекст Gin
func (m *SessionMiddleware) Attach() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(m.cookieName)
		if err != nil || !isValidSessionID(sessionID) {
			sessionID = uuid.NewString()
			logger.Ctx(c.Request.Context()).Debug().Str("session_id", sessionID).Msg("New widget session")
		}

		// Продлеваем cookie при каждом обращении, как и TTL сессии в хранилище
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(m.cookieName, sessionID, int(m.ttl.Seconds()), "/", "", m.secure, true)

		c.Set(sessionIDKey, sessionID)
		c.Next()
	}
}

func isValidSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// sessionIDFrom возвращает ID сессии, установленный SessionMiddleware
func sessionIDFrom(c *gin.Context) (string, bool) {
	value, exists := c.Get(sessionIDKey)
	if !exists {
		return "", false
	}
	sessionID, ok := value.(string)
	return sessionID, ok && sessionID != ""
}
