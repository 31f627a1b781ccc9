package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/medwatch/telegram-warehouse/internal/collector"
	"github.com/medwatch/telegram-warehouse/internal/config"
	"github.com/medwatch/telegram-warehouse/internal/database"
	"github.com/medwatch/telegram-warehouse/internal/lake"
	"github.com/medwatch/telegram-warehouse/internal/loader"
	"github.com/medwatch/telegram-warehouse/internal/logger"
	"github.com/medwatch/telegram-warehouse/internal/repository"
	"github.com/medwatch/telegram-warehouse/internal/telegram"
	"github.com/medwatch/telegram-warehouse/internal/vision"
)

// MockTGClient mocks telegram client
type MockTGClient struct {
	Channel  *telegram.Channel
	Messages []telegram.Message
}

func (m *MockTGClient) ResolveChannel(ctx context.Context, username string) (*telegram.Channel, error) {
	if m.Channel == nil {
		return nil, fmt.Errorf("channel not found")
	}
	return m.Channel, nil
}

func (m *MockTGClient) GetMessages(ctx context.Context, channel *telegram.Channel, offsetID int, limit int) ([]telegram.Message, error) {
	if offsetID > 0 {
		// simulate end of history for test simplicity
		return []telegram.Message{}, nil
	}
	return m.Messages, nil
}

func (m *MockTGClient) DownloadPhoto(ctx context.Context, photo *telegram.Photo, destPath string) error {
	return os.WriteFile(destPath, []byte("jpeg"), 0o644)
}

func TestEndToEnd_Pipeline(t *testing.T) {
	// this test requires database
	if os.Getenv("INTEGRATION_TEST") == "" {
		t.Skip("Skipping integration test; set INTEGRATION_TEST=1 to run (WARNING: wipes raw schema)")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	// setup logger
	logger.Init("debug", "")
	log := logger.Get()

	// connect to db
	db, err := database.New(context.Background(), dbURL)
	if err != nil {
		t.Fatalf("failed to connect to db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := db.Pool.Exec(ctx, `DROP SCHEMA IF EXISTS raw CASCADE`); err != nil {
		t.Fatalf("failed to drop raw schema: %v", err)
	}

	basePath := t.TempDir()
	date := "2026-01-18"

	// stage 1: ingest from a mocked telegram into the lake
	channelID := int64(123456)
	channel := &telegram.Channel{
		ID:         channelID,
		AccessHash: 789012,
		Username:   "cheMed123",
		Title:      "Chemed Pharmacy",
	}

	msgs := []telegram.Message{
		{
			ID:        100,
			ChannelID: channelID,
			Text:      "new stock of paracetamol 500mg",
			Date:      time.Date(2026, 1, 18, 9, 0, 0, 0, time.UTC),
			Views:     120,
		},
		{
			ID:        101,
			ChannelID: channelID,
			Text:      "vitamin c promo",
			Date:      time.Date(2026, 1, 18, 10, 0, 0, 0, time.UTC),
			Photo:     &telegram.Photo{ID: 555, AccessHash: 777, ThumbSize: "y"},
		},
	}

	tgClient := &MockTGClient{Channel: channel, Messages: msgs}
	svc := collector.NewService(tgClient, basePath, log)

	ingestResult, err := svc.Ingest(ctx, collector.IngestOptions{
		Date:           date,
		Channels:       []config.Channel{{Name: "cheMed123", Title: "Chemed Pharmacy"}},
		Limit:          50,
		DownloadImages: true,
	})
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}
	if ingestResult.ChannelCounts["cheMed123"] != 2 {
		t.Errorf("ingested %d messages, want 2", ingestResult.ChannelCounts["cheMed123"])
	}

	// stage 2: load the partition into postgres
	ld := loader.New(db.Pool, log)
	if err := ld.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() error: %v", err)
	}

	loadResult, err := ld.LoadDate(ctx, basePath, date)
	if err != nil {
		t.Fatalf("LoadDate() error: %v", err)
	}
	if loadResult.Inserted != 2 {
		t.Errorf("Inserted = %d, want 2", loadResult.Inserted)
	}

	// second load is a no-op thanks to insert-or-ignore
	loadResult2, err := ld.LoadDate(ctx, basePath, date)
	if err != nil {
		t.Fatalf("LoadDate() 2nd run error: %v", err)
	}
	if loadResult2.Inserted != 0 {
		t.Errorf("2nd run Inserted = %d, want 0", loadResult2.Inserted)
	}

	// stage 3: classify the downloaded image with a stub detector
	detector := vision.DetectorFunc(func(ctx context.Context, imagePath string) ([]vision.Detection, error) {
		return []vision.Detection{
			{Label: "person", Confidence: 0.9},
			{Label: "bottle", Confidence: 0.8},
		}, nil
	})
	visionSvc := vision.NewService(detector, log)

	csvPath := lake.DetectionsFile(basePath)
	runResult, err := visionSvc.Run(ctx, lake.ImagesDir(basePath), csvPath)
	if err != nil {
		t.Fatalf("vision Run() error: %v", err)
	}
	if runResult.Images != 1 {
		t.Errorf("classified %d images, want 1", runResult.Images)
	}
	if runResult.Categories["promotional"] != 1 {
		t.Errorf("Categories = %v, want 1 promotional", runResult.Categories)
	}

	// stage 4: load detections
	detCount, err := ld.LoadDetections(ctx, csvPath)
	if err != nil {
		t.Fatalf("LoadDetections() error: %v", err)
	}
	if detCount != 1 {
		t.Errorf("loaded %d detections, want 1", detCount)
	}

	// reports see the loaded data
	reports := repository.NewReportsRepository(db.Pool)

	activity, err := reports.GetChannelActivity(ctx, "cheMed123")
	if err != nil {
		t.Fatalf("GetChannelActivity() error: %v", err)
	}
	if len(activity) != 1 || activity[0].MessageCount != 2 {
		t.Errorf("activity = %+v, want one day with 2 messages", activity)
	}

	results, err := reports.SearchMessages(ctx, "PARACETAMOL", 10)
	if err != nil {
		t.Fatalf("SearchMessages() error: %v", err)
	}
	if len(results) != 1 || results[0].MessageID != 100 {
		t.Errorf("search results = %+v, want message 100", results)
	}

	stats, err := reports.GetVisualStats(ctx)
	if err != nil {
		t.Fatalf("GetVisualStats() error: %v", err)
	}
	if len(stats) != 1 || stats[0].ImageCategory != "promotional" {
		t.Errorf("visual stats = %+v, want one promotional row", stats)
	}

	// the downloaded photo landed under the image store
	imgPath := filepath.Join(lake.ChannelImagesDir(basePath, "cheMed123"), "101_555.jpg")
	if _, err := os.Stat(imgPath); err != nil {
		t.Errorf("expected downloaded image at %s: %v", imgPath, err)
	}
}
