package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mamadbah2/wagateway/internal/config"
	"github.com/mamadbah2/wagateway/internal/security"
	"github.com/mamadbah2/wagateway/internal/server/handlers"
)

// Dependencies groups what the router needs to serve every route.
type Dependencies struct {
	Webhook   *handlers.WebhookHandler
	Messages  *handlers.MessagesHandler
	Health    *handlers.HealthHandler
	APIKeys   *security.APIKeyValidator
	RateLimit config.RateLimitConfig
	Logger    *zap.Logger
}

// New wires the Gin engine with required routes and middlewares.
func New(deps Dependencies) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/webhook", deps.Webhook.Verify)
	r.POST("/webhook", deps.Webhook.Receive)

	messages := r.Group("/messages")
	messages.Use(newRateLimiter(deps.RateLimit).middleware())
	messages.Use(apiKeyMiddleware(deps.APIKeys, logger))
	{
		messages.POST("/text", deps.Messages.SendText)
		messages.POST("/template", deps.Messages.SendTemplate)
		messages.POST("/media", deps.Messages.SendMedia)
		messages.POST("/interactive", deps.Messages.SendInteractive)
		messages.POST("/custom", deps.Messages.SendCustom)
		messages.POST("/mark-read", deps.Messages.MarkRead)
		messages.GET("/profile", deps.Messages.Profile)
		messages.GET("/templates", deps.Messages.Templates)
	}

	health := deps.Health
	if health == nil {
		health = handlers.NewHealthHandler(time.Now())
	}
	r.GET("/health", health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	logger.Info("router initialized")

	return r
}
