package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcdev12/scoreboard/go/internal/config"
	"github.com/mcdev12/scoreboard/go/internal/models"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	config.SetupLogging(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services, err := setupServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up services")
	}
	defer services.Close()

	// The logger outlives ctx so it can flush after the loop stops.
	if err := services.Logger.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to start event logger")
	}
	services.Logger.Log(models.LogKindSystem, "scoreboard_started", map[string]any{
		"width":    cfg.Display.Width(),
		"height":   cfg.Display.Height(),
		"interval": cfg.FrameInterval.String(),
	}, "")

	go services.Gateway.Start(ctx)
	if err := services.Loop.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start render loop")
	}

	server := setupServer(cfg, services)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed")
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	// The loop clears the panel and logs the shutdown before the logger
	// flushes.
	services.Loop.Stop()
	cancel()

	if err := services.Logger.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("event log did not flush before shutdown")
	}
	log.Info().Msg("scoreboard shutdown complete")
}
