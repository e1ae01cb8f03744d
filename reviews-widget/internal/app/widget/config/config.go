package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// submitLockMargin - запас блокировки сверх POST и повторного GET к сервису отзывов
const submitLockMargin = 5 * time.Second

// Хранилища сессий виджета
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Config содержит все настройки Reviews Widget
// Включает конфигурацию HTTP сервера, удаленного сервиса отзывов, сессий и Redis
type Config struct {
	Server     ServerConfig
	ReviewsAPI ReviewsAPIConfig
	Session    SessionConfig
	Redis      RedisConfig
	Assets     AssetsConfig
	CORS       CORSConfig
	Log        LogConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Host string // Адрес хоста (по умолчанию 0.0.0.0)
	Port string // Порт сервера (по умолчанию 3000)
}

// ReviewsAPIConfig - адрес удаленного сервиса отзывов (GET/POST /api/reviews)
type ReviewsAPIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig - состояние виджета живет в сессии, привязанной к cookie
type SessionConfig struct {
	Store        string        // memory или redis
	TTL          time.Duration // Время жизни сессии
	CookieName   string
	CookieSecure bool
	// SubmitLockTTL ограничивает время жизни блокировки отправки,
	// если процесс упал, не освободив ее
	SubmitLockTTL time.Duration
}

// RedisConfig - настройки подключения к Redis (используется при SESSION_STORE=redis)
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// AssetsConfig - изображения отзывов
type AssetsConfig struct {
	DefaultImageURL string // Подставляется для пустых, невалидных и не загрузившихся изображений
	Dir             string // Если задан, раздается по /static
}

type CORSConfig struct {
	AllowOrigins []string
}

type LogConfig struct {
	Level        string
	LogstashAddr string
}

// Load загружает конфигурацию из переменных окружения
// Возвращает ошибку, если не удалось распарсить значения
func Load() (*Config, error) {
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB value: %w", err)
	}

	apiTimeout, err := time.ParseDuration(getEnv("REVIEWS_API_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REVIEWS_API_TIMEOUT value: %w", err)
	}

	sessionTTL, err := time.ParseDuration(getEnv("SESSION_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL value: %w", err)
	}

	lockTTL, err := time.ParseDuration(getEnv("SESSION_SUBMIT_LOCK_TTL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_SUBMIT_LOCK_TTL value: %w", err)
	}

	// Одна отправка держит блокировку на время POST и последующего GET
	if minLockTTL := 2*apiTimeout + submitLockMargin; lockTTL < minLockTTL {
		return nil, fmt.Errorf("invalid SESSION_SUBMIT_LOCK_TTL value %s: must be at least %s (2*REVIEWS_API_TIMEOUT + %s)",
			lockTTL, minLockTTL, submitLockMargin)
	}

	cookieSecure, err := strconv.ParseBool(getEnv("SESSION_COOKIE_SECURE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_COOKIE_SECURE value: %w", err)
	}

	store := strings.ToLower(getEnv("SESSION_STORE", SessionStoreMemory))
	if store != SessionStoreMemory && store != SessionStoreRedis {
		return nil, fmt.Errorf("invalid SESSION_STORE value %q: expected memory or redis", store)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "3000"),
		},
		ReviewsAPI: ReviewsAPIConfig{
			BaseURL: strings.TrimRight(getEnv("REVIEWS_API_URL", "http://localhost:8080"), "/"),
			Timeout: apiTimeout,
		},
		Session: SessionConfig{
			Store:         store,
			TTL:           sessionTTL,
			CookieName:    getEnv("SESSION_COOKIE_NAME", "review_widget_session"),
			CookieSecure:  cookieSecure,
			SubmitLockTTL: lockTTL,
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Assets: AssetsConfig{
			DefaultImageURL: getEnv("DEFAULT_IMAGE_URL", "/1.jpg"),
			Dir:             getEnv("ASSETS_DIR", ""),
		},
		CORS: CORSConfig{
			AllowOrigins: splitList(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		},
		Log: LogConfig{
			Level:        getEnv("LOG_LEVEL", "info"),
			LogstashAddr: getEnv("LOGSTASH_ADDR", ""),
		},
	}

	return cfg, nil
}

// Address возвращает адрес сервера в формате host:port для HTTP сервера
func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

// Address возвращает адрес Redis в формате host:port для подключения
func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
