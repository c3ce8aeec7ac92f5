package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/focuswin/core/docs"
	httpHandlers "github.com/focuswin/core/internal/adapters/http"
	"github.com/focuswin/core/internal/application/services"
	"github.com/focuswin/core/internal/domain/entities"
	"github.com/focuswin/core/internal/infrastructure/config"
	"github.com/focuswin/core/internal/infrastructure/logger"
	"github.com/focuswin/core/internal/infrastructure/metrics"
	"github.com/focuswin/core/internal/ports"
)

// Server represents the HTTP server
type Server struct {
	echo          *echo.Echo
	config        *config.Config
	logger        *logger.Logger
	store         ports.Store
	cache         ports.CacheRepository
	metrics       *metrics.Metrics
	notifications *services.NotificationService
}

// Dependencies are the adapters the server is built on. Cache may be nil.
type Dependencies struct {
	Store      ports.Store
	Cache      ports.CacheRepository
	Dispatcher ports.Dispatcher
}

// CustomValidator validates request bodies with the entity validator
type CustomValidator struct{}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return entities.Validate(i)
}

// New creates a new server instance
func New(cfg *config.Config, deps Dependencies, appLogger *logger.Logger) (*Server, error) {
	if deps.Store == nil || deps.Dispatcher == nil {
		return nil, errors.New("server needs a store and a dispatcher")
	}

	e := echo.New()
	e.Validator = &CustomValidator{}
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	m := metrics.New()

	authService := services.NewAuthService(deps.Store.Users(), deps.Cache, cfg.JWT, cfg.Redis.UserTTL, m, appLogger.WithComponent("auth"))
	taskService := services.NewTaskService(deps.Store.Tasks(), m, appLogger.WithComponent("tasks"))
	groupService := services.NewGroupService(deps.Store.Groups(), deps.Store.Tasks(), deps.Store.Transactor(), m, appLogger.WithComponent("groups"))
	notificationService := services.NewNotificationService(deps.Dispatcher, m, appLogger.WithComponent("notifications"))

	sessions := httpHandlers.NewSessionManager(cfg.Session)

	authHandler := httpHandlers.NewAuthHandler(authService, sessions, appLogger)
	taskHandler := httpHandlers.NewTaskHandler(taskService, appLogger)
	groupHandler := httpHandlers.NewGroupHandler(groupService, appLogger)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService, appLogger)

	server := &Server{
		echo:          e,
		config:        cfg,
		logger:        appLogger,
		store:         deps.Store,
		cache:         deps.Cache,
		metrics:       m,
		notifications: notificationService,
	}

	server.setupMiddleware()

	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	server.setupRoutes(authHandler, taskHandler, groupHandler, notificationHandler, server.authMiddleware(authService, sessions))

	return server, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			s.logger.LogRequest(logger.RequestLine{
				RequestID: values.RequestID,
				Method:    values.Method,
				Path:      values.URI,
				IP:        values.RemoteIP,
				Status:    values.Status,
				Latency:   values.Latency,
			})
			return nil
		},
	}))

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods:     []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	if s.config.Security.RateLimitRequests > 0 {
		window := s.config.Security.RateLimitWindow
		if window <= 0 {
			window = time.Minute
		}
		s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{
					Rate:      rate.Limit(float64(s.config.Security.RateLimitRequests) / window.Seconds()),
					Burst:     s.config.Security.RateLimitRequests,
					ExpiresIn: window,
				},
			),
			IdentifierExtractor: func(c echo.Context) (string, error) {
				return c.RealIP(), nil
			},
			ErrorHandler: func(c echo.Context, err error) error {
				return echo.NewHTTPError(http.StatusForbidden, "client address unavailable")
			},
			DenyHandler: func(c echo.Context, identifier string, err error) error {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			},
		}))
	}

	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
	}))

	s.echo.Use(middleware.BodyLimit("1M"))

	if s.config.Server.RequestTimeout > 0 {
		s.echo.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
			Timeout: s.config.Server.RequestTimeout,
		}))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(
	authHandler *httpHandlers.AuthHandler,
	taskHandler *httpHandlers.TaskHandler,
	groupHandler *httpHandlers.GroupHandler,
	notificationHandler *httpHandlers.NotificationHandler,
	requireAuth echo.MiddlewareFunc,
) {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	api := s.echo.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/signup", authHandler.Signup)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.GET("/me", authHandler.Me, requireAuth)

	taskGroup := api.Group("/tasks", requireAuth)
	taskGroup.GET("", taskHandler.ListTasks)
	taskGroup.POST("", taskHandler.CreateTask)
	taskGroup.GET("/:id", taskHandler.GetTask)
	taskGroup.PUT("/:id", taskHandler.UpdateTask)
	taskGroup.PATCH("/:id", taskHandler.UpdateTask)
	taskGroup.DELETE("/:id", taskHandler.DeleteTask)

	groupGroup := api.Group("/groups", requireAuth)
	groupGroup.GET("", groupHandler.ListGroups)
	groupGroup.POST("", groupHandler.CreateGroup)
	groupGroup.DELETE("/:id", groupHandler.DeleteGroup)
	groupGroup.POST("/:id/unassign", groupHandler.UnassignGroupTasks)

	notificationGroup := api.Group("/notifications", requireAuth)
	notificationGroup.POST("/email", notificationHandler.SendEmail)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	s.echo.Use(s.metrics.Middleware())
	s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

type pinger interface {
	Ping(ctx context.Context) error
}

type poolReporter interface {
	PoolStats() map[string]interface{}
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	ctx := c.Request().Context()
	status := "ok"
	checks := make(map[string]interface{})

	if err := s.store.HealthCheck(ctx); err != nil {
		status = "error"
		checks["database"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		database := map[string]interface{}{"status": "ok", "driver": s.config.Database.Driver}
		if r, ok := s.store.(poolReporter); ok {
			database["pool"] = r.PoolStats()
		}
		checks["database"] = database
	}

	if p, ok := s.cache.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			// The cache is optional; a dead cache degrades but does not fail the service.
			checks["cache"] = map[string]interface{}{"status": "degraded", "error": err.Error()}
		} else {
			checks["cache"] = map[string]interface{}{"status": "ok"}
		}
	}

	response := map[string]interface{}{
		"status":  status,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"checks":  checks,
		"version": s.config.App.Version,
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if err := s.store.HealthCheck(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "database_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.echo.Server.ReadTimeout = s.config.Server.ReadTimeout
	s.echo.Server.WriteTimeout = s.config.Server.WriteTimeout
	s.echo.Server.IdleTimeout = s.config.Server.IdleTimeout

	s.logger.Infow("starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown stops accepting requests and waits for queued notifications
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("shutting down server")
	if err := s.echo.Shutdown(ctx); err != nil {
		return err
	}
	if err := s.notifications.Wait(ctx); err != nil {
		s.logger.Warnw("pending notifications dropped", "error", err)
	}
	return nil
}
