package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deppfellow/cohorts-heatmap/internal/config"
	"github.com/deppfellow/cohorts-heatmap/internal/database"
	"github.com/deppfellow/cohorts-heatmap/internal/handler"
	"github.com/deppfellow/cohorts-heatmap/internal/logger"
	"github.com/deppfellow/cohorts-heatmap/internal/repository"
	"github.com/deppfellow/cohorts-heatmap/internal/router"
	"github.com/deppfellow/cohorts-heatmap/internal/server"
	"github.com/deppfellow/cohorts-heatmap/internal/service"
	"github.com/rs/zerolog/log"
)

// DefaultContextTimeout bounds migrations at boot and graceful shutdown.
const DefaultContextTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	defer loggerService.Shutdown()

	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	flushSentry, err := logger.InitSentry(cfg.Observability.SentryDSN, cfg.Observability.Environment, cfg.Observability.Release)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize sentry, continuing without it")
	}
	defer flushSentry()

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultContextTimeout)
		err := database.Migrate(ctx, &log, cfg)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	srv, err := server.New(cfg, &log, loggerService)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize server")
	}

	repos := repository.NewRepositories(srv)

	services, err := service.NewServices(srv, repos)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create services")
	}

	handlers := handler.NewHandlers(srv, services)

	r := router.NewRouter(srv, handlers)
	srv.SetupHTTPServer(r)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil {
			log.Error().Err(err).Msg("server stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultContextTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
