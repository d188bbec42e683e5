package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	httpHandlers "github.com/flatcms/core/internal/adapters/http"
	"github.com/flatcms/core/internal/adapters/session"
	"github.com/flatcms/core/internal/application/services"
	"github.com/flatcms/core/internal/domain/entities"
	"github.com/flatcms/core/internal/infrastructure/config"
	"github.com/flatcms/core/internal/infrastructure/logger"
	"github.com/flatcms/core/internal/ports"
)

// Server represents the HTTP server
type Server struct {
	echo     *echo.Echo
	config   *config.Config
	logger   *logger.Logger
	docs     ports.DocumentRepository
	sessions ports.SessionStore
	cookies  *session.CookieCodec
	registry *prometheus.Registry
	docOps   *prometheus.CounterVec
}

// Dependencies are the stores the server is built on
type Dependencies struct {
	Documents   ports.DocumentRepository
	Credentials ports.CredentialRepository
	Sessions    ports.SessionStore
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance
func New(cfg *config.Config, deps Dependencies, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	v := validator.New()
	if err := services.RegisterValidations(v); err != nil {
		return nil, fmt.Errorf("failed to register validations: %w", err)
	}
	e.Validator = &CustomValidator{validator: v}

	views, err := httpHandlers.NewTemplateRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	e.Renderer = views

	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.App.Debug
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	e.HTTPErrorHandler = customErrorHandler(appLogger)

	cookies, err := session.NewCookieCodec(cfg.Session.Secret)
	if err != nil {
		return nil, err
	}

	server := &Server{
		echo:     e,
		config:   cfg,
		logger:   appLogger,
		docs:     deps.Documents,
		sessions: deps.Sessions,
		cookies:  cookies,
		registry: prometheus.NewRegistry(),
	}

	server.docOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cms_document_operations_total",
			Help: "Document store operations by result",
		},
		[]string{"operation", "result"},
	)
	server.registry.MustRegister(server.docOps)

	// Initialize services
	documentService := services.NewDocumentService(deps.Documents, appLogger).WithObserver(server.observeDocumentOperation)
	authService := services.NewAuthService(deps.Credentials, appLogger)
	renderService := services.NewRenderService(appLogger)

	// Initialize handlers
	documentHandler := httpHandlers.NewDocumentHandler(documentService, renderService, appLogger)
	authHandler := httpHandlers.NewAuthHandler(authService, appLogger)

	server.setupMiddleware()

	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	server.setupRoutes(documentHandler, authHandler)

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
		LogUserAgent: true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			reqLogger := s.logger.WithRequestID(values.RequestID)
			if values.Error != nil {
				reqLogger = reqLogger.WithError(values.Error)
			}

			reqLogger.LogHTTPRequest(
				values.Method,
				values.URI,
				values.UserAgent,
				values.RemoteIP,
				values.Status,
				float64(values.Latency.Nanoseconds())/1000000,
			)
			return nil
		},
	}))

	// Rate limiting applies to POST requests only.
	if s.config.Security.RateLimitRequests > 0 {
		window := s.config.Security.RateLimitWindow
		if window <= 0 {
			window = time.Minute
		}
		limit := rate.Limit(float64(s.config.Security.RateLimitRequests) / window.Seconds())

		s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Skipper: func(c echo.Context) bool {
				return c.Request().Method != http.MethodPost
			},
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{Rate: limit, Burst: s.config.Security.RateLimitRequests, ExpiresIn: window},
			),
			IdentifierExtractor: func(ctx echo.Context) (string, error) {
				return ctx.RealIP(), nil
			},
			ErrorHandler: func(context echo.Context, err error) error {
				return echo.NewHTTPError(http.StatusForbidden, "rate limit exceeded")
			},
			DenyHandler: func(context echo.Context, identifier string, err error) error {
				s.logger.LogSecurityEvent("rate_limited", "", identifier, map[string]interface{}{
					"path": context.Request().URL.Path,
				})
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

	s.echo.Use(s.sessionMiddleware())
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(documentHandler *httpHandlers.DocumentHandler, authHandler *httpHandlers.AuthHandler) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// Auth routes (public)
	s.echo.GET("/users/signin", authHandler.SigninForm)
	s.echo.POST("/users/signin", authHandler.Signin)
	s.echo.POST("/users/signout", authHandler.Signout)

	// Document routes
	signedIn := s.requireSignin()

	s.echo.GET("/", documentHandler.Index)
	s.echo.GET("/new", documentHandler.New, signedIn)
	s.echo.POST("/create", documentHandler.Create, signedIn)
	s.echo.Match([]string{http.MethodGet, http.MethodHead}, "/:name", documentHandler.Show)
	s.echo.GET("/:name/edit", documentHandler.Edit, signedIn)
	s.echo.POST("/:name/edit", documentHandler.Update, signedIn)
	s.echo.POST("/:name/delete", documentHandler.Delete, signedIn)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	s.registry.MustRegister(requestsTotal, requestDuration)

	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}

			requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	})

	metricsHandler := promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
}

func (s *Server) observeDocumentOperation(op string, err error) {
	result := "ok"
	switch {
	case errors.Is(err, entities.ErrDocumentNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	s.docOps.WithLabelValues(op, result).Inc()
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) readinessCheck(c echo.Context) error {
	ctx := c.Request().Context()

	if err := s.docs.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "data_directory_unavailable",
		})
	}

	if err := s.sessions.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "session_store_unavailable",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ServeHTTP lets the server be driven directly by net/http and httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// customErrorHandler renders HTTP errors as HTML pages. The session flash is
// left untouched.
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := http.StatusText(code)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(code)
			}
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		}

		if code == http.StatusInternalServerError {
			logger.Errorw("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		if c.Response().Committed {
			return
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.Render(code, httpHandlers.PageError, httpHandlers.ViewData{
				Title:   http.StatusText(code),
				Content: msg,
			})
		}
		if err != nil {
			logger.Errorw("Error sending response", "error", err)
		}
	}
}
