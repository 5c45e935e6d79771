package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/callpulse-hq/callpulse/internal/infrastructure/http/middleware"
	"github.com/callpulse-hq/callpulse/pkg/config"
	"github.com/callpulse-hq/callpulse/pkg/jwt"
)

// Router holds all handlers
type Router struct {
	cfg            *config.Config
	jwtManager     *jwt.Manager
	callHandler    *Call
	webhookHandler *Webhook
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, jwtManager *jwt.Manager, callHandler *Call, webhookHandler *Webhook) *Router {
	return &Router{
		cfg:            cfg,
		jwtManager:     jwtManager,
		callHandler:    callHandler,
		webhookHandler: webhookHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.GET("/health", rt.healthCheck)

	v1 := e.Group("/v1")

	// provider callbacks authenticate by signature, not bearer token
	v1.POST("/webhooks/assemblyai", rt.webhookHandler.Transcription)

	calls := v1.Group("/calls", middleware.EchoAuth(rt.jwtManager))
	calls.POST("", rt.callHandler.Upload)
	calls.GET("", rt.callHandler.List)
	calls.GET("/:id", rt.callHandler.Get)
	calls.PATCH("/:id", rt.callHandler.Update)
	calls.DELETE("/:id", rt.callHandler.Delete)
	calls.POST("/:id/recompute", rt.callHandler.Recompute)
	calls.POST("/:id/speakers", rt.callHandler.CorrectSpeakers)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": rt.cfg.Server.Environment,
	})
}
