// Package httpserver exposes the stores' discovery operations over a small
// read-only HTTP API.
package httpserver

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/vtttools/mediastore/internal/assetstore"
	"github.com/vtttools/mediastore/internal/conf"
	"github.com/vtttools/mediastore/internal/entitystore"
	"github.com/vtttools/mediastore/internal/errors"
	"github.com/vtttools/mediastore/internal/logger"
	"github.com/vtttools/mediastore/internal/observability"
)

const defaultShutdownTimeout = 5 * time.Second

// Server is the read API over an asset store and an entity store.
type Server struct {
	echo     *echo.Echo
	config   conf.ServerSettings
	assets   *assetstore.Store
	entities *entitystore.Store
	metrics  *observability.Metrics
	log      logger.Logger

	addr atomic.Pointer[net.Addr]
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics exposes /metrics and records request metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger overrides the module logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// New builds the server and registers its routes. It does not listen.
func New(config conf.ServerSettings, assets *assetstore.Store, entities *entitystore.Store, opts ...Option) (*Server, error) {
	if assets == nil || entities == nil {
		return nil, errors.Newf("httpserver requires both stores").
			Component("httpserver").
			Category(errors.CategoryConfiguration).
			Build()
	}

	s := &Server{
		config:   config,
		assets:   assets,
		entities: entities,
		log:      GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Logger = newEchoLogger(s.log.Module("echo"))
	s.echo.HTTPErrorHandler = s.handleError
	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	s.echo.Use(echomw.Recover())
	s.echo.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithTraceID(req.Context(), id)))
		},
	}))
	s.echo.Use(s.requestLogger())
	if s.metrics != nil {
		s.echo.Use(s.recordMetrics)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	v1 := s.echo.Group("/api/v1")
	v1.GET("/assets", s.listAssets)
	v1.GET("/assets/:name", s.findAsset)
	v1.GET("/entities", s.listEntities)
	v1.GET("/entities/:genre/:category/:type/:subtype/:name", s.entityInfo)

	if s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}
}

// Handler returns the router for use with httptest or another server.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Addr returns the bound address once Run is listening, or nil.
func (s *Server) Addr() net.Addr {
	if p := s.addr.Load(); p != nil {
		return *p
	}
	return nil
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return errors.New(err).
			Component("httpserver").
			Category(errors.CategoryHTTP).
			Context("operation", "listen").
			Build()
	}
	s.echo.Listener = ln
	addr := ln.Addr()
	s.addr.Store(&addr)

	s.log.Info("HTTP server listening", logger.String("address", addr.String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start("")
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.New(err).
			Component("httpserver").
			Category(errors.CategoryHTTP).
			Context("operation", "serve").
			Build()
	case <-ctx.Done():
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	s.log.Info("shutting down HTTP server")
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return errors.New(err).
			Component("httpserver").
			Category(errors.CategoryHTTP).
			Context("operation", "shutdown").
			Build()
	}
	<-errCh
	return nil
}

// requestLogger logs one line per request through the central logger.
func (s *Server) requestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(_ echo.Context, v echomw.RequestLoggerValues) error {
			fields := []logger.Field{
				logger.String("method", v.Method),
				logger.String("uri", v.URI),
				logger.Int("status", v.Status),
				logger.String("ip", v.RemoteIP),
				logger.Duration("latency", v.Latency),
				logger.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				fields = append(fields, logger.Error(v.Error))
			}
			s.log.Info("request", fields...)
			return nil
		},
	})
}

// recordMetrics records request count, latency and error class per route.
func (s *Server) recordMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		if err != nil {
			status = statusOf(err)
		}
		method, path := c.Request().Method, c.Path()
		s.metrics.HTTP.RecordHTTPRequest(method, path, status, time.Since(start).Seconds())
		if class := errorClass(status); class != "" {
			s.metrics.HTTP.RecordHTTPRequestError(method, path, class)
		}
		return err
	}
}
