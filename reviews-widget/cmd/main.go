package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"gymsite/pkg/logger"
	"gymsite/reviews-widget/internal/app/widget/config"
	"gymsite/reviews-widget/internal/app/widget/handler"
	httpclient "gymsite/reviews-widget/internal/app/widget/infrastructure/http"
	"gymsite/reviews-widget/internal/app/widget/repository"
	"gymsite/reviews-widget/internal/app/widget/service"
)

const serviceName = "reviews-widget"

func main() {
	// .env не обязателен, переменные окружения имеют приоритет
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Failed to load .env file: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(serviceName, cfg.Log.Level)

	if cfg.Log.LogstashAddr != "" {
		if err := logger.InitLogstash(cfg.Log.LogstashAddr, serviceName, cfg.Log.Level); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", cfg.Log.LogstashAddr).Msg("Connected to Logstash")
		}
	}

	var sessionRepo repository.SessionRepository
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		redisClient, err := connectRedis(cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
		logger.Info().
			Str("address", cfg.Redis.Address()).
			Msg("Connected to Redis")

		sessionRepo = repository.NewRedisSessionRepository(redisClient, cfg.Session.TTL, cfg.Session.SubmitLockTTL)
	default:
		sessionRepo = repository.NewMemorySessionRepository(cfg.Session.TTL, cfg.Session.SubmitLockTTL)
		logger.Info().Msg("Using in-memory session store")
	}

	reviewsClient := httpclient.NewReviewsClient(cfg.ReviewsAPI.BaseURL, cfg.ReviewsAPI.Timeout)
	logger.Info().
		Str("base_url", cfg.ReviewsAPI.BaseURL).
		Dur("timeout", cfg.ReviewsAPI.Timeout).
		Msg("Initialized reviews API client")

	imageResolver := service.NewImageResolver(cfg.Assets.DefaultImageURL)
	widgetService := service.NewWidgetService(sessionRepo, reviewsClient, imageResolver)

	sessionMiddleware := handler.NewSessionMiddleware(cfg.Session.CookieName, cfg.Session.TTL, cfg.Session.CookieSecure)
	widgetHandler := handler.NewWidgetHandler(widgetService)
	router := handler.SetupRoutes(widgetHandler, sessionMiddleware, handler.RouterOptions{
		AllowOrigins: cfg.CORS.AllowOrigins,
		AssetsDir:    cfg.Assets.Dir,
	})

	server := &http.Server{
		Addr:    cfg.Server.Address(),
		Handler: router,
		// Отправка отзыва ждет ответа удаленного сервиса и повторного чтения списка
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*cfg.ReviewsAPI.Timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Str("session_store", cfg.Session.Store).
			Msg("Starting Reviews Widget")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Reviews Widget...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Reviews Widget stopped gracefully")
}

func connectRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	var err error
	for i := 0; i < 10; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = client.Ping(ctx).Err()
		cancel()
		if err == nil {
			return client, nil
		}

		logger.Warn().
			Int("attempt", i+1).
			Err(err).
			Msg("Failed to connect to Redis, retrying...")
		time.Sleep(3 * time.Second)
	}

	client.Close()
	return nil, err
}
