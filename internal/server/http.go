package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sadskatr/patent-database/internal/conf"
	"github.com/sadskatr/patent-database/internal/patent/service"
	"github.com/sadskatr/patent-database/internal/pkg/logger"
	"github.com/sadskatr/patent-database/internal/server/middleware"
)

type HTTPServer struct {
	server *http.Server
	router *gin.Engine
	logger *logger.Logger
}

// Option customizes the HTTP server
type Option func(*httpOptions)

type httpOptions struct {
	limiter  *middleware.RateLimiter
	gatherer prometheus.Gatherer
}

// WithRateLimiter guards the patent routes with limiter
func WithRateLimiter(limiter *middleware.RateLimiter) Option {
	return func(o *httpOptions) { o.limiter = limiter }
}

// WithGatherer sets what the metrics endpoint exposes
func WithGatherer(g prometheus.Gatherer) Option {
	return func(o *httpOptions) { o.gatherer = g }
}

func NewHTTPServer(
	config *conf.Config,
	log *logger.Logger,
	patentService *service.PatentService,
	opts ...Option,
) *HTTPServer {
	o := &httpOptions{gatherer: prometheus.DefaultGatherer}
	for _, opt := range opts {
		opt(o)
	}

	gin.SetMode(config.Server.Mode)

	router := gin.New()
	router.Use(logger.GinLogger(log, logger.MiddlewareOptions{
		SkipPaths: []string{"/health", config.Metrics.Path},
	}))
	router.Use(logger.GinRecovery(log))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	if config.Metrics.Enabled {
		router.GET(config.Metrics.Path, gin.WrapH(promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{})))
	}

	patent := router.Group(config.Server.BasePath)
	if o.limiter != nil {
		patent.Use(o.limiter.Handler())
	}
	patentService.RegisterRoutes(patent)

	return &HTTPServer{
		server: &http.Server{
			Addr:         config.Server.Addr(),
			Handler:      router,
			ReadTimeout:  config.Server.ReadTimeout,
			WriteTimeout: config.Server.WriteTimeout,
		},
		router: router,
		logger: log,
	}
}

// Handler exposes the router, mainly for tests
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}
