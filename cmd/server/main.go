package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"bloodlink/internal/event"
	eventcache "bloodlink/internal/event/cache"
	"bloodlink/internal/hospital"
	hosphandler "bloodlink/internal/hospital/handler"
	hospservice "bloodlink/internal/hospital/service"
	"bloodlink/internal/identity"
	jwttoken "bloodlink/internal/jwt_token"
	"bloodlink/internal/platform/config"
	"bloodlink/internal/platform/httpserver"
	"bloodlink/internal/platform/logger"
	"bloodlink/internal/platform/metrics"
	"bloodlink/internal/platform/postgres"
	"bloodlink/internal/platform/redis"
	"bloodlink/internal/registration"
	reghandler "bloodlink/internal/registration/handler"
	regservice "bloodlink/internal/registration/service"
	httptransport "bloodlink/internal/transport/http"
	"bloodlink/pkg/platform/tx"
)

const eventCacheTTL = 5 * time.Minute

// main wires dependencies and owns the server lifecycle. An empty Postgres DSN
// runs everything on the in-memory stores, which is how local development and
// the handler tests work.
func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()

	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var (
		regStore    registration.Store
		resultStore hospital.ResultStore
		bloodStore  hospital.BloodTypeStore
		events      event.Directory
		donors      identity.DonorDirectory
		txRunner    tx.Runner
	)
	if db != nil {
		regStore = registration.NewPostgresStore(db)
		resultStore = hospital.NewPostgresResultStore(db)
		bloodStore = hospital.NewPostgresBloodTypeStore(db)
		events = event.NewPostgresDirectory(db)
		donors = identity.NewPostgresDirectory(db)
		txRunner = tx.NewSQLRunner(db)
		log.Info("using postgres stores")
	} else {
		regStore = registration.NewInMemoryStore()
		resultStore = hospital.NewInMemoryResultStore()
		bloodStore = hospital.NewInMemoryBloodTypeStore()
		events = event.NewInMemoryDirectory()
		donors = identity.NewInMemoryDirectory()
		txRunner = tx.Passthrough{}
		log.Warn("no postgres DSN configured, using in-memory stores")
	}
	if redisClient != nil {
		events = eventcache.New(events, redisClient.Client, eventCacheTTL)
		log.Info("event lookup cache enabled")
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "bloodlink")

	regSvc := regservice.NewService(regStore, events, log, m)
	hospSvc := hospservice.NewService(resultStore, bloodStore, regStore, events, donors, txRunner, log, m)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:        log,
		Registrations: reghandler.New(regSvc, log),
		Hospitals:     hosphandler.New(hospSvc, log),
		JWT:           jwtService,
		Metrics:       m,
		Health:        healthCheck(db, redisClient),
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func healthCheck(db *sql.DB, redisClient *redis.Client) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				return err
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}
