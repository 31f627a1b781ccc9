package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/medwatch/telegram-warehouse/internal/api"
	"github.com/medwatch/telegram-warehouse/internal/config"
	"github.com/medwatch/telegram-warehouse/internal/database"
	"github.com/medwatch/telegram-warehouse/internal/logger"
	"github.com/medwatch/telegram-warehouse/internal/migrator"
	"github.com/medwatch/telegram-warehouse/internal/repository"
	"github.com/medwatch/telegram-warehouse/migrations"
)

func main() {
	_ = godotenv.Load()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// 2. Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	log := logger.Get()
	log.Info().Msg("starting reporting api")

	// 3. Setup context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("received shutdown signal")
		cancel()
	}()

	// 4. Connect to database
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// 5. Run migrations
	m, err := migrator.NewWithFS(migrations.FS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create migrator")
	}
	if err := m.Up(ctx, cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// 6. Initialize repositories and server
	reportsRepo := repository.NewReportsRepository(db.Pool)

	apiCfg := &api.Config{
		Port:        cfg.HTTPPort,
		Title:       "Medical Telegram Warehouse API",
		Description: "API to access analytical insights from medical telegram data.",
		Version:     "1.0.0",
	}
	server := api.NewServer(apiCfg, &api.Dependencies{ReportsRepo: reportsRepo})

	// 7. Start server
	log.Info().Int("port", cfg.HTTPPort).Msg("starting api server")
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// 8. Wait for shutdown
	<-ctx.Done()
	log.Info().Msg("shutdown complete")
}
