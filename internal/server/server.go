// Package server exposes registered hooks over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"spreadsheet-hooks/internal/common/logger"
	"spreadsheet-hooks/internal/common/metrics"
	"spreadsheet-hooks/internal/hooks"
)

// ReadinessCheck reports whether a dependency is ready to serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Options struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	Registry        *hooks.Registry
	Logger          logger.Logger
	ReadinessChecks map[string]ReadinessCheck
}

type Server struct {
	registry *hooks.Registry
	logger   logger.Logger
	checks   map[string]ReadinessCheck
	router   *gin.Engine
	http     *http.Server
}

func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	s := &Server{
		registry: opts.Registry,
		logger:   log,
		checks:   opts.ReadinessChecks,
	}
	s.router = s.routes()
	s.http = &http.Server{
		Addr:         opts.Address,
		Handler:      s.router,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		s.logger.Error("Recovered from panic", map[string]interface{}{
			"path":  c.Request.URL.Path,
			"panic": recovered,
		})
		c.AbortWithStatus(http.StatusInternalServerError)
	}))
	r.Use(tracingMiddleware())
	r.Use(metrics.Middleware)
	r.Use(s.requestLogger())

	r.GET("/health", s.health)
	r.GET("/ready", s.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := r.Group("/hooks")
	h.GET("", s.listHooks)
	h.POST("/:name/after-calculation", s.afterCalculation)

	return r
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", map[string]interface{}{"address": s.http.Addr})
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
