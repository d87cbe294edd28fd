package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/ecopickup/recycling-tracker/internal/api"
	"github.com/ecopickup/recycling-tracker/internal/api/handler"
	"github.com/ecopickup/recycling-tracker/internal/core/ports"
	"github.com/ecopickup/recycling-tracker/internal/core/service"
	"github.com/ecopickup/recycling-tracker/internal/infrastructure/config"
	mongodb "github.com/ecopickup/recycling-tracker/internal/infrastructure/db/mongo"
	redisdb "github.com/ecopickup/recycling-tracker/internal/infrastructure/db/redis"
	"github.com/ecopickup/recycling-tracker/pkg/logger"
)

const shutdownGrace = 10 * time.Second

// @title Recycling Pickup Tracker API
// @version 1.0
// @description Pickup request submission and review with role-based access.
// @host localhost:5000
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the token.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// logger is not configured yet
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "recycling-tracker",
	})

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	// --- MongoDB ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect failed")
		}
	}()
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	userRepo := mongodb.NewUserRepository(db)
	requestRepo := mongodb.NewRequestRepository(db)
	if err := mongodb.EnsureIndexes(ctx, userRepo, requestRepo); err != nil {
		return err
	}

	checks := map[string]handler.DependencyCheck{
		"mongodb": func(ctx context.Context) error { return client.Ping(ctx, nil) },
	}

	// --- Redis (optional) ---
	var idem ports.IdempotencyStore
	if cfg.Redis.Addr != "" {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Error().Err(err).Msg("redis close failed")
			}
		}()
		idem = redisdb.NewIdempotencyStore(rdb)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis, idempotent submissions enabled")
	}

	// --- Services ---
	authService := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, service.AuthOptions{
		TokenTTL:         cfg.Auth.TokenTTL,
		AllowAdminSignup: cfg.Auth.AllowAdminSignup,
	}, log)
	requestService := service.NewRequestService(requestRepo, idem, service.RequestPolicy{
		RequireAuth: cfg.Auth.Required,
		Transitions: cfg.Auth.Transitions,
		Deletion:    cfg.Auth.Deletion,
	}, log)
	userService := service.NewUserService(userRepo, log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	e := api.NewRouter(api.Deps{
		Auth:             authService,
		Requests:         requestService,
		Users:            userService,
		RequireAuth:      cfg.Auth.Required,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		Checks:           checks,
		Registry:         registry,
		Logger:           log,
	})
	e.Server.ReadHeaderTimeout = 10 * time.Second

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Bool("auth_required", cfg.Auth.Required).
			Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("http server stopped")
	return nil
}
