package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"tryon/internal/gemini"
	"tryon/internal/http/handlers"
	httpapi "tryon/internal/http/httpapi"
	"tryon/internal/infra"
	"tryon/internal/infra/geoip"
	"tryon/internal/middleware"
	"tryon/internal/storage"
	"tryon/internal/store"
	"tryon/internal/tryon"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	// DB pool is optional; without it history and gallery stay disabled.
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	var history *store.History
	if dbpool != nil {
		defer dbpool.Close()
		history, err = store.NewHistory(infra.NewSQLRunner(dbpool, logger))
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init history store")
		}
		if err := history.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to ensure schema")
		}
	} else {
		logger.Info().Msg("no DATABASE_URL, history disabled")
	}

	files, err := storage.NewFileStore(cfg.StorageDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init file store")
	}

	geminiClient, err := gemini.NewClient(ctx, gemini.Options{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiModel,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init gemini client")
	}
	generator, err := tryon.NewClient(geminiClient, tryon.Config{
		MaxAttempts:             cfg.MaxAttempts,
		RetryBaseDelay:          cfg.RetryBaseDelay,
		AttemptTimeout:          cfg.AttemptTimeout,
		MaxInputDimension:       cfg.MaxInputDimension,
		MaxInputDimensionGuided: cfg.MaxInputDimensionGuided,
		OutputFormat:            cfg.OutputFormat,
		OutputQuality:           cfg.OutputQuality,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init generator")
	}

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		lookup = resolver.CountryCode
	}

	app := handlers.NewApp(cfg, logger, generator, files, history)
	router := httpapi.NewRouter(app, lookup)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
