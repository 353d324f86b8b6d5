package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/fenceops-backend/api/controllers"
	"github.com/angelmondragon/fenceops-backend/api/routes"
	"github.com/angelmondragon/fenceops-backend/internal/jobs"
	"github.com/angelmondragon/fenceops-backend/internal/pricing"
	"github.com/angelmondragon/fenceops-backend/internal/quotes"
	"github.com/angelmondragon/fenceops-backend/internal/ratesheets"
	"github.com/angelmondragon/fenceops-backend/pkg/config"
	"github.com/angelmondragon/fenceops-backend/pkg/db"
	"github.com/angelmondragon/fenceops-backend/pkg/logger"
	"github.com/angelmondragon/fenceops-backend/pkg/metrics"
	"github.com/angelmondragon/fenceops-backend/pkg/migrate"
	"github.com/angelmondragon/fenceops-backend/pkg/outbox"
	"github.com/angelmondragon/fenceops-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Environment: cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		return err
	}

	health := map[string]controllers.Pinger{"db": dbClient, "redis": nil}
	var idempotencyStore redis.IdempotencyStore
	var resolutionCache redis.ResolutionStore
	if cfg.Redis.Enabled() {
		redisClient, redisErr := redis.New(context.Background(), cfg.Redis, logg)
		if redisErr != nil {
			return redisErr
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
		health["redis"] = redisClient
		idempotencyStore = redisClient
		resolutionCache = redisClient
	} else {
		logg.Warn(context.Background(), "redis disabled: idempotency keys ignored and rate sheet resolution uncached")
	}

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return err
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(sqlDB, "fenceops"),
	)
	pricingMetrics := metrics.NewPricingMetrics(reg)
	quoteMetrics := metrics.NewQuoteMetrics(reg)

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	rateSheetService, err := ratesheets.NewService(ratesheets.ServiceParams{
		Repository: ratesheets.NewRepository(dbClient.DB()),
		Tx:         dbClient,
		Outbox:     outboxService,
		Cache:      resolutionCache,
		CacheTTL:   cfg.Pricing.ResolutionCacheTTL,
		Logger:     logg,
		Metrics:    pricingMetrics,
	})
	if err != nil {
		return err
	}

	pricingService, err := pricing.NewService(pricing.ServiceParams{
		Repository: pricing.NewRepository(dbClient.DB()),
		RateSheets: rateSheetService,
		RPC:        dbClient,
		UseRPC:     cfg.Pricing.UseRPC,
		Logger:     logg,
		Metrics:    pricingMetrics,
	})
	if err != nil {
		return err
	}

	jobService, err := jobs.NewService(jobs.NewRepository(dbClient.DB()), logg)
	if err != nil {
		return err
	}

	quoteService, err := quotes.NewService(quotes.ServiceParams{
		Repository: quotes.NewRepository(dbClient.DB()),
		Tx:         dbClient,
		Outbox:     outboxService,
		Jobs:       jobService,
		Policy:     quotes.PolicyFromConfig(cfg.Approval),
		Logger:     logg,
		Metrics:    quoteMetrics,
	})
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			health,
			reg,
			idempotencyStore,
			pricingService,
			rateSheetService,
			quoteService,
			jobService,
		),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithField(ctx, "addr", addr)
	logg.Info(ctx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "api server shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
