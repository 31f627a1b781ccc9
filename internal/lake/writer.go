package lake

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/medwatch/telegram-warehouse/internal/models"
)

// WriteChannelMessages writes the full message list for a (date, channel)
// partition, creating directories as needed and overwriting any previous
// file. Returns the written path.
func WriteChannelMessages(basePath, dateStr, channelName string, messages []models.Message) (string, error) {
	dir := PartitionDir(basePath, dateStr)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create partition dir: %w", err)
	}

	// messages must round-trip: an empty slice still serializes as []
	if messages == nil {
		messages = []models.Message{}
	}

	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal messages: %w", err)
	}

	path := ChannelFile(basePath, dateStr, channelName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write partition file: %w", err)
	}

	return path, nil
}

// Manifest is the per-date audit record summarizing what a run wrote.
type Manifest struct {
	Date          string         `json:"date"`
	RunUTC        string         `json:"run_utc"`
	RunID         string         `json:"run_id"`
	Channels      map[string]int `json:"channels"`
	TotalMessages int            `json:"total_messages"`
}

// WriteManifest writes the manifest for a date. TotalMessages is always
// derived as the sum of channelCounts; extra entries are merged into the top
// level of the payload and may shadow the default keys.
func WriteManifest(basePath, dateStr string, channelCounts map[string]int, extra map[string]any) (string, error) {
	dir := PartitionDir(basePath, dateStr)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create partition dir: %w", err)
	}

	total := 0
	for _, n := range channelCounts {
		total += n
	}
	if channelCounts == nil {
		channelCounts = map[string]int{}
	}

	payload := map[string]any{
		"date":           dateStr,
		"run_utc":        time.Now().UTC().Format(time.RFC3339),
		"run_id":         uuid.NewString(),
		"channels":       channelCounts,
		"total_messages": total,
	}
	for k, v := range extra {
		payload[k] = v
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}

	path := ManifestFile(basePath, dateStr)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}

	return path, nil
}
