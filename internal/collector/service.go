// Package collector runs the ingestion stage: it pulls channel histories
// from Telegram and lands them in the raw data lake.
package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/medwatch/telegram-warehouse/internal/config"
	"github.com/medwatch/telegram-warehouse/internal/lake"
	"github.com/medwatch/telegram-warehouse/internal/logger"
	"github.com/medwatch/telegram-warehouse/internal/models"
	"github.com/medwatch/telegram-warehouse/internal/telegram"
)

// TelegramClient defines the telegram operations the collector uses.
type TelegramClient interface {
	ResolveChannel(ctx context.Context, username string) (*telegram.Channel, error)
	GetMessages(ctx context.Context, channel *telegram.Channel, offsetID int, limit int) ([]telegram.Message, error)
	DownloadPhoto(ctx context.Context, photo *telegram.Photo, destPath string) error
}

// Service orchestrates the ingestion of configured channels.
type Service struct {
	tg       TelegramClient
	basePath string
	log      *logger.Logger
}

// NewService creates a collector service writing into the lake at basePath.
func NewService(tg TelegramClient, basePath string, log *logger.Logger) *Service {
	return &Service{
		tg:       tg,
		basePath: basePath,
		log:      log,
	}
}

// IngestOptions holds options for one ingestion run.
type IngestOptions struct {
	Date           string // partition date, YYYY-MM-DD
	Channels       []config.Channel
	Limit          int  // max messages per channel
	DownloadImages bool // fetch photo media into the image store
}

// IngestResult contains ingestion statistics.
type IngestResult struct {
	ChannelCounts  map[string]int // channel -> messages written
	FailedChannels []string
	Images         int // photos downloaded
	ManifestPath   string
}

// Ingest fetches every configured channel and writes one partition file per
// channel plus the date manifest. A failing channel is logged and skipped;
// the remaining channels are still ingested. The manifest write is fatal.
func (s *Service) Ingest(ctx context.Context, opts IngestOptions) (*IngestResult, error) {
	if opts.Date == "" {
		opts.Date = time.Now().UTC().Format("2006-01-02")
	}
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	result := &IngestResult{ChannelCounts: make(map[string]int)}

	for _, ch := range opts.Channels {
		count, images, err := s.ingestChannel(ctx, ch, opts)
		if err != nil {
			s.log.Error().Err(err).Str("channel", ch.Name).Msg("collector: channel ingestion failed, continuing")
			result.FailedChannels = append(result.FailedChannels, ch.Name)
			continue
		}
		result.ChannelCounts[ch.Name] = count
		result.Images += images
	}

	extra := map[string]any{}
	if len(result.FailedChannels) > 0 {
		extra["failed_channels"] = result.FailedChannels
	}

	manifestPath, err := lake.WriteManifest(s.basePath, opts.Date, result.ChannelCounts, extra)
	if err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	s.log.Info().
		Int("channels", len(result.ChannelCounts)).
		Int("failed", len(result.FailedChannels)).
		Int("images", result.Images).
		Str("date", opts.Date).
		Msg("collector: ingestion finished")

	return result, nil
}

// ingestChannel fetches one channel's history and writes its partition file.
func (s *Service) ingestChannel(ctx context.Context, ch config.Channel, opts IngestOptions) (int, int, error) {
	channel, err := s.tg.ResolveChannel(ctx, ch.Name)
	if err != nil {
		return 0, 0, fmt.Errorf("resolve channel: %w", err)
	}

	title := channel.Title
	if ch.Title != "" {
		title = ch.Title
	}

	fetched, err := s.fetchHistory(ctx, channel, opts.Limit)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch history: %w", err)
	}

	images := 0
	messages := make([]models.Message, 0, len(fetched))
	for _, tm := range fetched {
		msg := s.convert(tm, channel.Username, title)

		if opts.DownloadImages && tm.HasPhoto() {
			if rel, err := s.downloadImage(ctx, channel.Username, tm); err != nil {
				s.log.Warn().Err(err).Int("message_id", tm.ID).Msg("collector: photo download failed")
			} else {
				msg.ImagePath = &rel
				images++
			}
		}

		messages = append(messages, msg)
	}

	path, err := lake.WriteChannelMessages(s.basePath, opts.Date, channel.Username, messages)
	if err != nil {
		return 0, 0, fmt.Errorf("write partition: %w", err)
	}

	s.log.Info().Str("channel", channel.Username).Int("messages", len(messages)).Str("file", path).Msg("collector: channel ingested")
	return len(messages), images, nil
}

// fetchHistory pages backwards through a channel's history up to limit.
func (s *Service) fetchHistory(ctx context.Context, channel *telegram.Channel, limit int) ([]telegram.Message, error) {
	var all []telegram.Message
	offsetID := 0

	for len(all) < limit {
		batch := limit - len(all)
		msgs, err := s.tg.GetMessages(ctx, channel, offsetID, batch)
		if err != nil {
			return nil, err
		}
		if len(msgs) == 0 {
			break
		}

		all = append(all, msgs...)
		offsetID = msgs[len(msgs)-1].ID
	}

	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// convert maps a telegram message onto the lake record shape.
func (s *Service) convert(tm telegram.Message, channelName, channelTitle string) models.Message {
	msg := models.Message{
		MessageID:    int64(tm.ID),
		ChannelName:  channelName,
		ChannelTitle: channelTitle,
		HasMedia:     tm.HasPhoto(),
		Views:        tm.Views,
		Forwards:     tm.Forwards,
	}

	if !tm.Date.IsZero() {
		date := tm.Date.UTC()
		msg.MessageDate = &date
	}
	if tm.Text != "" {
		text := tm.Text
		msg.MessageText = &text
	}

	return msg
}

// downloadImage stores a message photo under the image store and returns
// its path relative to the lake base.
func (s *Service) downloadImage(ctx context.Context, channelName string, tm telegram.Message) (string, error) {
	dir := lake.ChannelImagesDir(s.basePath, channelName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}

	name := fmt.Sprintf("%d_%d.jpg", tm.ID, tm.Photo.ID)
	dest := filepath.Join(dir, name)

	if err := s.tg.DownloadPhoto(ctx, tm.Photo, dest); err != nil {
		return "", err
	}

	return filepath.ToSlash(filepath.Join("raw", "images", channelName, name)), nil
}
