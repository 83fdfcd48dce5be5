package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/analytics"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/api"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/config"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/db"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/geoip"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/logic"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/logic/ratelimit"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/middleware"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/notifications"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/observability"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := observability.InitLoggerWithService(cfg.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to sync logger: %v\n", err)
		}
	}()

	if err := run(logger, cfg); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger, cfg config.Config) error {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracing(ctx, logger, observability.TracingOptions{
			ServiceName: cfg.ServiceName,
			Environment: cfg.Environment,
			Endpoint:    cfg.TempoEndpoint,
			SampleRate:  cfg.TracingSampleRate,
		})
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer shutdown()
	}

	pg, err := db.InitPostgres(cfg.PostgresDSN, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime, cfg.DBConnMaxIdleTime)
	if err != nil {
		return fmt.Errorf("failed to connect postgres: %w", err)
	}
	defer pg.Close()

	redisStore, err := db.InitRedis(cfg.RedisAddr)
	if err != nil {
		return fmt.Errorf("failed to connect redis: %w", err)
	}
	defer redisStore.Close()

	metricsRegistry := observability.NewPrometheusRegistry()

	analyticsSvc, err := analytics.InitClickHouse(cfg.ClickHouseDSN)
	if err != nil {
		return fmt.Errorf("failed to connect clickhouse: %w", err)
	}
	defer analyticsSvc.Close()

	geoSvc, err := geoip.Init(cfg.GeoIPDB)
	if err != nil {
		return fmt.Errorf("failed to load geoip db: %w", err)
	}
	defer func() { _ = geoSvc.Close() }()

	rateLimiter := ratelimit.NewEndpointLimiter(ratelimit.Config{
		Capacity:   cfg.RateLimitCapacity,
		RefillRate: cfg.RateLimitRefillRate,
		Enabled:    cfg.RateLimitEnabled,
	}, metricsRegistry)

	filler := logic.NewFiller(pg)
	recorder := logic.NewRecorder(pg, redisStore, logger)
	sweeper := logic.NewSweeper(pg, redisStore, logger, metricsRegistry)
	sweeper.LockTTL = cfg.SweepLockTTL
	notifier := notifications.NewLogNotifier(pg, logger)
	lifecycle := logic.NewLifecycle(pg, notifier, logger)

	srvDeps := api.NewServer(logger, pg, redisStore, analyticsSvc, geoSvc, filler, recorder, sweeper, lifecycle, metricsRegistry, cfg)

	r := mux.NewRouter()
	r.Use(middleware.WithTraceLogger(logger))

	limit := func(endpoint string, h http.HandlerFunc) http.Handler {
		return middleware.WithRateLimit(rateLimiter, endpoint, logger)(h)
	}

	r.Handle("/slots", limit("slots", srvDeps.SlotsHandler)).Methods("GET")
	r.Handle("/impression", limit("impression", srvDeps.ImpressionHandler)).Methods("POST")
	r.Handle("/interaction", limit("interaction", srvDeps.InteractionHandler)).Methods("POST")
	r.HandleFunc("/health", srvDeps.HealthHandler).Methods("GET")
	r.HandleFunc("/sweep", srvDeps.SweepHandler).Methods("POST")

	crud := r.PathPrefix("/api").Subrouter()
	crud.HandleFunc("/campaigns", srvDeps.CreateCampaignHandler).Methods("POST")
	crud.HandleFunc("/campaigns/quote", srvDeps.QuoteHandler).Methods("GET")
	crud.HandleFunc("/campaigns/{id}", srvDeps.UpdateCampaignHandler).Methods("PUT")
	crud.HandleFunc("/campaigns/{id}/payment", srvDeps.PaymentHandler).Methods("POST")
	crud.HandleFunc("/campaigns/{id}/status", srvDeps.CampaignStatusHandler).Methods("PUT")
	crud.HandleFunc("/campaigns/{id}/report", srvDeps.CampaignReportHandler).Methods("GET")

	// metrics endpoint (includes rate limiting metrics)
	r.Handle("/metrics", promhttp.Handler())

	addr := ":" + cfg.Port

	var handler http.Handler = r
	if cfg.TracingEnabled {
		handler = otelhttp.NewHandler(r, "http.server")
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("Banner server running", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	// Scheduled expiry sweep. The Redis lock inside RunDaily keeps
	// concurrent instances from sweeping twice.
	ticker := time.NewTicker(cfg.SweepInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := sweeper.RunDaily(ctx, time.Now()); err != nil && err != logic.ErrSweepInProgress {
					logger.Error("scheduled expiry sweep", zap.Error(err))
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
