package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/medwatch/telegram-warehouse/internal/collector"
	"github.com/medwatch/telegram-warehouse/internal/config"
	"github.com/medwatch/telegram-warehouse/internal/database"
	"github.com/medwatch/telegram-warehouse/internal/lake"
	"github.com/medwatch/telegram-warehouse/internal/loader"
	"github.com/medwatch/telegram-warehouse/internal/logger"
	"github.com/medwatch/telegram-warehouse/internal/migrator"
	"github.com/medwatch/telegram-warehouse/internal/nats"
	"github.com/medwatch/telegram-warehouse/internal/pipeline"
	"github.com/medwatch/telegram-warehouse/internal/publisher"
	"github.com/medwatch/telegram-warehouse/internal/telegram"
	"github.com/medwatch/telegram-warehouse/internal/vision"
	"github.com/medwatch/telegram-warehouse/migrations"
)

func main() {
	_ = godotenv.Load()

	var (
		dateFlag  = flag.String("date", time.Now().UTC().Format("2006-01-02"), "partition date (YYYY-MM-DD)")
		stageFlag = flag.String("stage", "all", "stage to run: all, ingest, load, classify, load_detections")
	)
	flag.Parse()

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
	log.Info().Str("date", *dateFlag).Str("stage", *stageFlag).Msg("starting pipeline")

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

	// 6. Connect to NATS
	nc, err := nats.New(ctx, cfg.NatsURL)
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to nats, publishing disabled")
	} else {
		defer nc.Close()
	}

	var pub pipeline.EventPublisher
	if nc != nil {
		if err := nc.EnsureStream(ctx, "PIPELINE", []string{"pipeline.>"}); err != nil {
			log.Warn().Err(err).Msg("failed to ensure nats stream")
		}
		pub = publisher.NewNATSPublisher(nc)
	}

	// 7. Build stage functions
	ld := loader.New(db.Pool, log)

	stages := pipeline.Stages{
		Load: func(ctx context.Context, date string) (int, error) {
			result, err := ld.LoadDate(ctx, cfg.LakeBasePath, date)
			if err != nil {
				return 0, err
			}
			return result.Inserted, nil
		},
		Classify: func(ctx context.Context, _ string) (int, error) {
			detector := vision.NewOpenAIDetector(vision.OpenAIConfig{
				BaseURL: cfg.DetectorBaseURL,
				Model:   cfg.DetectorModel,
				APIKey:  cfg.DetectorAPIKey,
				Timeout: time.Duration(cfg.DetectorTimeout) * time.Second,
			})
			svc := vision.NewService(detector, log)
			result, err := svc.Run(ctx, lake.ImagesDir(cfg.LakeBasePath), lake.DetectionsFile(cfg.LakeBasePath))
			if err != nil {
				return 0, err
			}
			return result.Images, nil
		},
		LoadDetections: func(ctx context.Context, _ string) (int, error) {
			return ld.LoadDetections(ctx, lake.DetectionsFile(cfg.LakeBasePath))
		},
	}

	// The ingest stage needs a live telegram session; only wire it when it
	// can actually run so load/classify work without TG credentials.
	needsIngest := *stageFlag == "all" || *stageFlag == string(pipeline.StageIngest)
	if needsIngest {
		if cfg.TGApiID == 0 || cfg.TGApiHash == "" {
			log.Fatal().Msg("TG_API_ID and TG_API_HASH are required for the ingest stage")
		}

		tgManager := telegram.NewManager(cfg, db.GORM)
		if err := tgManager.Init(ctx); err != nil {
			log.Fatal().Err(err).Msg("telegram manager init failed")
		}
		// refuse to run a vacuous ingest against a dead client
		if status := tgManager.GetStatus(); status != telegram.StatusReady {
			log.Fatal().Str("status", string(status)).Msg("telegram session unavailable, run tg-auth and set TG_SESSION_STRING")
		}
		tgClient := telegram.NewClient(tgManager)
		defer tgClient.Close()

		channels, err := config.LoadChannels(cfg.ChannelsFile)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load channels config")
		}

		svc := collector.NewService(tgClient, cfg.LakeBasePath, log)
		stages.Ingest = func(ctx context.Context, date string) (int, error) {
			result, err := svc.Ingest(ctx, collector.IngestOptions{
				Date:           date,
				Channels:       channels,
				Limit:          cfg.ScrapeLimit,
				DownloadImages: cfg.DownloadImages,
			})
			if err != nil {
				return 0, err
			}
			total := 0
			for _, n := range result.ChannelCounts {
				total += n
			}
			return total, nil
		}
	}

	// 8. Run
	runner := pipeline.NewRunner(stages, pub, log)

	switch *stageFlag {
	case "all":
		err = runner.RunAll(ctx, *dateFlag)
	case string(pipeline.StageIngest), string(pipeline.StageLoad),
		string(pipeline.StageClassify), string(pipeline.StageLoadDetections):
		err = runner.RunStage(ctx, pipeline.Stage(*stageFlag), *dateFlag)
	default:
		fmt.Fprintf(os.Stderr, "unknown stage: %s\n", *stageFlag)
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal().Err(err).Msg("pipeline run failed")
	}

	log.Info().Msg("pipeline run complete")
}
