package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/i474232898/air-quality-aggregation/internal/airquality"
	"github.com/i474232898/air-quality-aggregation/internal/airquality/providers"
	httpapi "github.com/i474232898/air-quality-aggregation/internal/api/http"
	"github.com/i474232898/air-quality-aggregation/internal/config"
	"github.com/i474232898/air-quality-aggregation/internal/logging"
	"github.com/i474232898/air-quality-aggregation/internal/scheduler"
	"github.com/i474232898/air-quality-aggregation/internal/store"
	"github.com/i474232898/air-quality-aggregation/internal/verification"
)

const appName = "air-quality-aggregation"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(cfg, version, appName)
	slog.SetDefault(logger)

	// Optional coordinate backfill for cities without lat/lng.
	if cfg.GeocoderAPIKey != "" {
		n := config.BackfillCoordinates(cfg.Scopes, config.GoogleGeocoder(cfg.GeocoderAPIKey), logger)
		logger.Info("geocoder: coordinates backfilled", "cities", n)
	}

	catalog, err := airquality.NewCatalog(cfg.Scopes, cfg.DefaultScope)
	if err != nil {
		logger.Error("failed to build scope catalog", "error", err)
		os.Exit(1)
	}

	// Provider with resilience (backoff + circuit breaker).
	provider, err := providers.New(providers.Settings{
		Kind: cfg.Provider,
		HTTP: providers.HTTPClientConfig{
			Client: providers.DefaultHTTPClient(),
			Backoff: providers.BackoffConfig{
				MaxRetries:      cfg.ProviderMaxRetries,
				InitialInterval: 200 * time.Millisecond,
				MaxInterval:     2 * time.Second,
			},
			BreakerMaxFailures: uint32(cfg.BreakerMaxFailures),
		},
		WAQIBaseURL:      cfg.WAQIBaseURL,
		WAQIToken:        cfg.AQICNToken,
		OpenMeteoBaseURL: cfg.OpenMeteoBaseURL,
	})
	if err != nil {
		logger.Error("failed to build provider", "error", err)
		os.Exit(1)
	}

	agg := airquality.NewAggregator(provider, catalog,
		airquality.WithCityTimeout(cfg.CityTimeout),
		airquality.WithFanoutLimit(cfg.FanoutLimit),
		airquality.WithLogger(logger),
	)

	// In-memory history with configured retention.
	history := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)
	service := airquality.NewService(agg, history, logger)

	codes := store.NewCodeStore()
	verifier := verification.NewService(codes, cfg.VerifyCodeTTL)

	// Background jobs: history recorder and expired-code purge.
	sched := scheduler.New(logger)
	sched.Add(scheduler.HistoryJob(service, cfg.HistoryScope, cfg.HistoryInterval, cfg.RequestTimeout, logger))
	sched.Add(scheduler.PurgeCodesJob(codes, time.Minute, logger))
	if err := sched.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	app := httpapi.NewApp(httpapi.AppConfig{
		Name:             appName,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		WriteTimeout:     cfg.RequestTimeout + 5*time.Second,
		AccessLog:        true,
	})
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Service:        service,
		Verifier:       verifier,
		RequestTimeout: cfg.RequestTimeout,
		ExposeCodes:    cfg.AppEnv == config.EnvDev,
		Logger:         logger,
	})

	go func() {
		logger.Info("http: listening", "port", cfg.Port, "provider", provider.Name(), "default_scope", catalog.Default())
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}
}
