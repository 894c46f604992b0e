// Command server runs the vibes advice API.
//
// Startup order: env → config → logging → tracing → store → seed → task
// queue → router → http.Server. Shutdown drains in-flight requests, the
// async history queue, and the trace exporter, in that order.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-vibes-backend/internal/config"
	httpapi "github.com/tbourn/go-vibes-backend/internal/http"
	"github.com/tbourn/go-vibes-backend/internal/observability"
	"github.com/tbourn/go-vibes-backend/internal/seed"
	"github.com/tbourn/go-vibes-backend/internal/store"
	"github.com/tbourn/go-vibes-backend/internal/sysutil"
	"github.com/tbourn/go-vibes-backend/internal/taskq"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	// .env is a local-dev convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Info().Str("version", version).Str("port", cfg.Port).Msg("starting vibes backend")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing (no-op unless enabled).
	shutdownOTel := func(context.Context) error { return nil }
	if cfg.OTEL.Enabled {
		sd, err := observability.SetupOTel(ctx, cfg.OTEL, version)
		if err != nil {
			log.Fatal().Err(err).Msg("otel setup failed")
		}
		shutdownOTel = sd
	}

	st, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("db_path", cfg.DBPath).Msg("store setup failed")
	}

	// A fresh instance answers requests immediately.
	if n, err := seed.EnsureVibes(ctx, st, time.Now().UTC()); err != nil {
		log.Fatal().Err(err).Msg("vibe seeding failed")
	} else if n > 0 {
		log.Info().Int("count", n).Msg("seeded builtin vibes")
	}

	tasks := taskq.New(cfg.TaskWorkers, cfg.TaskBuffer, 10*time.Second, log.Logger)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, st, tasks, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := tasks.Drain(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("task queue drain failed")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown failed")
	}
	log.Info().Msg("bye")
}

// openStore selects the persistence backend: an empty or ":memory:" DB_PATH
// runs fully in memory; anything else is a SQLite file with migrations.
func openStore(cfg config.Config) (store.Store, error) {
	path := strings.TrimSpace(cfg.DBPath)
	if path == "" || path == ":memory:" {
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return store.NewMemoryStore(), nil
	}
	db, err := store.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	if err := store.AutoMigrate(db); err != nil {
		return nil, err
	}
	return store.NewGormStore(db), nil
}
