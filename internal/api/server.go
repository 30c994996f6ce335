// Package api exposes the notification service over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"franchise-notifications/internal/common/auth"
	"franchise-notifications/internal/common/logger"
	"franchise-notifications/internal/models"
	"franchise-notifications/internal/notification/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NotificationService is the part of service.Service the handlers call.
type NotificationService interface {
	Create(ctx context.Context, req *models.NotificationCreateRequest, actor *models.UserEmailInfo, override *models.EmailChannelConfig) (*service.CreateResult, error)
	List(ctx context.Context, role models.Role, filter models.NotificationFilter) ([]models.Notification, error)
	MarkRead(ctx context.Context, ids []string, role models.Role) (*models.BatchUpdateResult, error)
	MarkAllRead(ctx context.Context, role models.Role) (*models.BatchUpdateResult, error)
	UnreadCount(ctx context.Context, role models.Role) (int, error)
}

// ReadinessCheck reports whether one dependency is reachable.
type ReadinessCheck func(ctx context.Context) error

type Server struct {
	router   *gin.Engine
	service  NotificationService
	verifier *auth.TokenVerifier
	checks   map[string]ReadinessCheck
	logger   logger.Logger
}

// NewServer builds the router. A nil verifier makes the role come from the
// X-User-Role header, which is meant for deployments behind a gateway that
// already authenticated the caller.
func NewServer(svc NotificationService, verifier *auth.TokenVerifier, checks map[string]ReadinessCheck, log logger.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		router:   router,
		service:  svc,
		verifier: verifier,
		checks:   checks,
		logger:   log.WithFields(map[string]interface{}{"component": "http"}),
	}
	router.Use(s.requestLogger())
	s.setupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/ready", s.handleReady)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api/v1")
	api.Use(s.authenticate())
	{
		notifications := api.Group("/notifications")
		notifications.POST("", s.handleCreate)
		notifications.GET("", s.handleList)
		notifications.GET("/unread-count", s.handleUnreadCount)
		notifications.PUT("/read", s.handleMarkRead)
		notifications.PUT("/read-all", s.handleMarkAllRead)
	}
}

func (s *Server) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	report := gin.H{}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			report[name] = err.Error()
			continue
		}
		report[name] = "ok"
	}
	c.JSON(status, gin.H{"ready": status == http.StatusOK, "checks": report})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request handled", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}
