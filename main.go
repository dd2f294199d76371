package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"point-service/internal/config"
	"point-service/internal/db"
	"point-service/internal/logger"
	"point-service/internal/router"
	"point-service/internal/services"
	"point-service/internal/store"

	"github.com/rs/zerolog"
)

func main() {
	cfg := config.LoadConfig()

	log := logger.InitLogger(cfg.LogLevel)
	log.Info().Str("store", cfg.StoreDriver).Msg("Starting point service")

	points, err := openStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer points.Close()

	pointService := services.NewPointService(points, log)
	queryService := services.NewPointQueryService(points.Balances(), points.Ledger(), log)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router.SetupRouter(cfg, pointService, queryService, log),
	}

	go func() {
		log.Info().Msgf("Server listening on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Server stopped")
}

func openStore(cfg config.Config, log zerolog.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case "memory":
		return store.NewMemory(), nil
	case "bolt":
		path := cfg.DBUrl
		if path == "" {
			path = "points.db"
		}
		return store.OpenBolt(path)
	case "mysql", "sqlite":
		dialect := store.DialectMySQL
		if cfg.StoreDriver == "sqlite" {
			dialect = store.DialectSQLite
		}

		database, err := db.InitDB(dialect, cfg.DBUrl)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(database, dialect); err != nil {
			database.Close()
			return nil, err
		}
		log.Info().Msg("Migrations completed")

		s, err := store.NewSQL(database, dialect)
		if err != nil {
			database.Close()
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
