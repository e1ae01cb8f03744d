package handler

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gymsite/pkg/logger"
	"gymsite/pkg/metrics"
)

const serviceName = "reviews-widget"

//go:embed templates/*.html
var templatesFS embed.FS

// RouterOptions - необязательные настройки маршрутов
type RouterOptions struct {
	AllowOrigins []string // Пустой список отключает CORS
	AssetsDir    string   // Если задан, раздается по /static
}

// SetupRoutes настраивает все маршруты виджета с использованием Gin
func SetupRoutes(widgetHandler *WidgetHandler, sessionMiddleware *SessionMiddleware, opts RouterOptions) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())

	// JSON logging middleware для HTTP-запросов (ELK Stack)
	router.Use(logger.GinLoggerMiddleware())

	router.Use(metrics.GinPrometheusMiddleware(serviceName))

	// CORS для встраивания JSON API виджета на другие страницы сайта
	if len(opts.AllowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Accept", "Content-Type", logger.RequestIDHeader},
			ExposeHeaders:    []string{logger.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if opts.AssetsDir != "" {
		router.Static("/static", opts.AssetsDir)
	}

	// Страница виджета
	reviews := router.Group("/reviews")
	reviews.Use(sessionMiddleware.Attach())
	{
		reviews.GET("", widgetHandler.ShowWidget)
		reviews.POST("", widgetHandler.SubmitForm)
		reviews.POST("/images/:review_id/error", widgetHandler.RecordImageError)
	}

	// JSON API виджета
	api := router.Group("/api/widget")
	api.Use(sessionMiddleware.Attach())
	{
		api.GET("/state", widgetHandler.GetState)
		api.POST("/reviews", widgetHandler.SubmitReview)
		api.POST("/images/:review_id/error", widgetHandler.RecordImageError)
	}

	return router
}
