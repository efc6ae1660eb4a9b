package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"staywatch/internal/audit"
	"staywatch/internal/compliance/cache"
	"staywatch/internal/compliance/handler"
	"staywatch/internal/compliance/metrics"
	"staywatch/internal/compliance/ports"
	"staywatch/internal/compliance/service"
	intervalstore "staywatch/internal/compliance/store/interval"
	zonestore "staywatch/internal/compliance/store/zone"
	"staywatch/internal/platform/config"
	"staywatch/internal/platform/httpserver"
	"staywatch/internal/platform/logger"
	"staywatch/internal/platform/postgres"
	platformredis "staywatch/internal/platform/redis"
	"staywatch/pkg/platform/middleware/auth"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in internal/compliance; everything here is assembly.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx := context.Background()

	// Stores: postgres when a DSN is configured, in-memory otherwise.
	var (
		intervals ports.IntervalStore
		zones     ports.ZoneRuleStore
	)
	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		pgIntervals := intervalstore.NewPostgresStore(db)
		pgZones := zonestore.NewPostgresStore(db)
		if err := pgIntervals.EnsureSchema(ctx); err != nil {
			log.Error("interval schema migration failed", "error", err)
			os.Exit(1)
		}
		if err := pgZones.EnsureSchema(ctx); err != nil {
			log.Error("zone rule schema migration failed", "error", err)
			os.Exit(1)
		}
		intervals, zones = pgIntervals, pgZones
		log.Info("using postgres stores")
	} else {
		intervals = intervalstore.NewInMemoryStore()
		zones = zonestore.NewInMemoryStore()
		log.Warn("no POSTGRES_DSN configured, using in-memory stores")
	}

	opts := []service.Option{
		service.WithLogger(log.With("component", "compliance")),
		service.WithMetrics(metrics.New()),
		service.WithForecastHorizon(cfg.ForecastHorizonDays),
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		opts = append(opts, service.WithDaySetCache(cache.NewRedisCache(redisClient), cfg.DaySetCacheTTL))
		log.Info("day set cache enabled")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := audit.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic,
			audit.WithKafkaLogger(log.With("component", "audit")))
		if err != nil {
			log.Error("kafka publisher setup failed", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		opts = append(opts, service.WithAuditPublisher(publisher))
		log.Info("kafka audit publishing enabled", "topic", cfg.Kafka.Topic)
	}

	svc, err := service.New(intervals, zones, cfg.Policy, opts...)
	if err != nil {
		log.Error("service setup failed", "error", err)
		os.Exit(1)
	}

	verifier, err := auth.NewVerifier(cfg.JWTSigningKey)
	if err != nil {
		log.Error("auth setup failed", "error", err)
		os.Exit(1)
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, "redis unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "postgres unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(verifier, log))
		handler.New(svc, log.With("component", "http")).Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting staywatch", "addr", cfg.Addr,
			"limit_days", cfg.Policy.LimitDays, "window_days", cfg.Policy.WindowDays)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
