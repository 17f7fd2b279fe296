package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	jwttoken "sentry/internal/jwt_token"
	"sentry/internal/platform/config"
	"sentry/internal/platform/httpserver"
	"sentry/internal/platform/logger"
	platformmetrics "sentry/internal/platform/metrics"
	"sentry/internal/platform/redis"
	"sentry/internal/registry/store"
	"sentry/internal/scan/events"
	"sentry/internal/scan/handler"
	scanmetrics "sentry/internal/scan/metrics"
	"sentry/internal/scan/setup"
	"sentry/pkg/platform/httputil"
	authmw "sentry/pkg/platform/middleware/auth"
	"sentry/pkg/platform/middleware/metadata"
	"sentry/pkg/platform/middleware/ratelimit"
	"sentry/pkg/platform/middleware/request"
	"sentry/pkg/platform/middleware/requesttime"
)

// main wires dependencies, exposes the HTTP router and owns the server
// lifecycle. Scan logic lives in internal/scan.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scanMetrics := scanmetrics.New(nil)
	httpMetrics := platformmetrics.New(nil)

	scanner, err := setup.Engine(cfg.Probes, log, scanMetrics)
	if err != nil {
		return err
	}

	deps, err := openRegistry(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.close()

	publisher, closePublisher, err := openPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	var validator authmw.JWTValidator
	if cfg.JWTSigningKey != "" {
		validator = jwttoken.NewJWTServiceAdapter(jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer))
	} else {
		log.Warn("SENTRY_JWT_SIGNING_KEY not set; registry and bulk-scan endpoints are unauthenticated")
	}
	limiter := ratelimit.New(cfg.Limits.ScanRate, cfg.Limits.ScanBurst, log, ratelimit.WithDisabled(cfg.Limits.Disabled))

	scanHandler := handler.New(scanner, log,
		handler.WithRegistry(deps.registry),
		handler.WithPublisher(publisher),
		handler.WithBulkDelay(cfg.Limits.BulkScanDelay),
	)

	r := chi.NewRouter()
	r.Use(request.RequestID, metadata.ClientMetadata, requesttime.Middleware, httpMetrics.Instrument)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", deps.readiness)
	r.Handle("/metrics", promhttp.Handler())
	scanHandler.Register(r, handler.Middleware{
		ScanLimit:    limiter.Limit,
		RegistryRead: authmw.RequireScope(validator, jwttoken.ScopeRegistryRead, log),
		BulkScan:     authmw.RequireScope(validator, jwttoken.ScopeBulkScan, log),
	})

	srv := httpserver.New(cfg.Addr, r)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting sentry", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

type registryDeps struct {
	registry handler.Registry
	db       *sql.DB
	redis    *redis.Client
}

// openRegistry picks Postgres, then Redis, then memory.
func openRegistry(ctx context.Context, cfg config.Server, log *slog.Logger) (*registryDeps, error) {
	if cfg.Registry.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.Registry.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		pg := store.NewPostgresStore(db)
		if err := pg.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("registry backend", "backend", "postgres")
		return &registryDeps{registry: pg, db: db}, nil
	}

	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if client != nil {
		log.Info("registry backend", "backend", "redis")
		return &registryDeps{
			registry: store.NewRedisStore(client.Client, store.WithTTL(cfg.Registry.RedisTTL)),
			redis:    client,
		}, nil
	}

	log.Warn("registry backend is in-memory; records are lost on restart")
	return &registryDeps{registry: store.NewInMemoryStore()}, nil
}

func (d *registryDeps) readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	var err error
	switch {
	case d.db != nil:
		err = d.db.PingContext(ctx)
	case d.redis != nil:
		err = d.redis.Health(ctx)
	}
	if err != nil {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (d *registryDeps) close() {
	if d.db != nil {
		_ = d.db.Close()
	}
	if d.redis != nil {
		_ = d.redis.Close()
	}
}

func openPublisher(cfg config.Server, log *slog.Logger) (events.Publisher, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return events.NewLogPublisher(log), func() {}, nil
	}
	kp, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic,
		events.WithLogger(log),
		events.WithFallback(events.NewLogPublisher(log)),
	)
	if err != nil {
		return nil, nil, err
	}
	log.Info("publishing scan events", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	return kp, kp.Close, nil
}
