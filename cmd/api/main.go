package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/splax/shelf/internal/app/migrate"
	httpx "github.com/splax/shelf/internal/http"
	"github.com/splax/shelf/internal/repository/postgres"
	"github.com/splax/shelf/internal/service/auth"
	"github.com/splax/shelf/internal/service/catalog"
	"github.com/splax/shelf/pkg/config"
	jwtpkg "github.com/splax/shelf/pkg/jwt"
	"github.com/splax/shelf/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("api", slog.LevelInfo).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New("api", logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	tokenOpts := jwtpkg.Options{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		TTL:      cfg.JWT.AccessTTL,
	}
	authSvc := auth.New(postgres.New(pool), log, tokenOpts)
	catalogSvc := catalog.New(postgres.NewProducts(pool), log)

	if cfg.SeedDemoData {
		if err := catalogSvc.SeedDemo(ctx); err != nil {
			log.Error("demo seeding failed", "error", err)
			os.Exit(1)
		}
	}

	router := httpx.NewRouter(log, authSvc, catalogSvc, pool.Ping)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
