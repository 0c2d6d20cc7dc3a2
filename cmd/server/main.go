package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/sadskatr/patent-database/internal/conf"
	"github.com/sadskatr/patent-database/internal/patent/biz"
	"github.com/sadskatr/patent-database/internal/patent/odp"
	"github.com/sadskatr/patent-database/internal/patent/service"
	"github.com/sadskatr/patent-database/internal/pkg/logger"
	"github.com/sadskatr/patent-database/internal/pkg/metrics"
	"github.com/sadskatr/patent-database/internal/pkg/redis"
	"github.com/sadskatr/patent-database/internal/server"
	"github.com/sadskatr/patent-database/internal/server/middleware"
)

var (
	configFile = flag.String("config", "config.yaml", "config file path")
	envFile    = flag.String("env", conf.DefaultEnvFile, "dotenv file loaded before the config")
)

func main() {
	flag.Parse()

	// Load configuration
	config, err := conf.LoadConfig(*configFile, *envFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(&config.Log)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()
	logger.ReplaceGlobal(log)

	log.Info("config loaded successfully",
		zap.String("config", *configFile),
		zap.String("odp_base_url", config.ODP.BaseURL),
		zap.Bool("odp_api_key_set", config.ODP.APIKey != ""),
		zap.Bool("rate_limit", config.RateLimit.Enabled),
	)
	if config.ODP.APIKey == "" {
		log.Warn("ODP API key is not set, searches will fail until ODP_API_KEY is configured")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// Upstream client and use case
	odpClient, err := odp.New(&config.ODP, log, odp.WithMetrics(m))
	if err != nil {
		log.Fatal("failed to create ODP client", zap.Error(err))
	}
	patentUseCase := biz.NewPatentUseCase(odpClient, log,
		biz.WithMetrics(m),
		biz.WithSearchTimeout(config.Server.SearchTimeout),
	)
	patentService := service.NewPatentService(patentUseCase, log, service.WithToolName(config.Server.ToolName))

	opts := []server.Option{server.WithGatherer(registry)}

	// Rate limiting fails open: without Redis the service still runs
	if config.Redis.Enabled {
		rdb, err := redis.New(&config.Redis, log)
		if err != nil {
			log.Error("failed to connect to redis, rate limiting disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			if config.RateLimit.Enabled {
				opts = append(opts, server.WithRateLimiter(middleware.NewRateLimiter(rdb, config.RateLimit, log)))
				log.Info("rate limiting enabled",
					zap.Int("max_requests", config.RateLimit.MaxRequests),
					zap.Int("window_seconds", config.RateLimit.WindowSeconds),
					zap.String("strategy", config.RateLimit.Strategy),
				)
			}
		}
	}

	httpServer := server.NewHTTPServer(config, log, patentService, opts...)

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	log.Info("server started successfully", zap.String("base_path", config.Server.BasePath))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
