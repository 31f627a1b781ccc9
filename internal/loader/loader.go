// Package loader moves raw data from the lake into the PostgreSQL warehouse.
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medwatch/telegram-warehouse/internal/lake"
	"github.com/medwatch/telegram-warehouse/internal/logger"
)

// Loader performs idempotent bulk loads of partition files into
// raw.telegram_messages. Inserts are keyed by message_id with
// ON CONFLICT DO NOTHING, so re-loading a date never updates or
// duplicates existing rows.
type Loader struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// New creates a Loader.
func New(pool *pgxpool.Pool, log *logger.Logger) *Loader {
	return &Loader{pool: pool, log: log}
}

// LoadResult contains statistics for one date load.
type LoadResult struct {
	Files          int            // partition files processed
	SkippedFiles   int            // files skipped due to parse failures
	Records        int            // well-formed records seen
	Inserted       int            // rows actually inserted (conflicts excluded)
	SkippedRecords int            // malformed records skipped
	PerFile        map[string]int // file name -> inserted rows
}

// EnsureSchema creates the raw schema and messages table if absent.
// It never drops or alters existing structures.
func (l *Loader) EnsureSchema(ctx context.Context) error {
	_, err := l.pool.Exec(ctx, `
		CREATE SCHEMA IF NOT EXISTS raw;

		CREATE TABLE IF NOT EXISTS raw.telegram_messages (
			message_id    BIGINT PRIMARY KEY,
			channel_name  TEXT,
			channel_title TEXT,
			message_date  TIMESTAMPTZ,
			message_text  TEXT,
			has_media     BOOLEAN NOT NULL DEFAULT FALSE,
			image_path    TEXT,
			views         INTEGER NOT NULL DEFAULT 0,
			forwards      INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure raw schema: %w", err)
	}
	return nil
}

// LoadDate loads every partition file for a date into the warehouse.
// File-level and record-level failures are logged and skipped; the whole
// date commits in a single transaction once all files are processed.
func (l *Loader) LoadDate(ctx context.Context, basePath, dateStr string) (*LoadResult, error) {
	dir := lake.PartitionDir(basePath, dateStr)

	entries, err := os.ReadDir(dir)
	if err != nil {
		// a date that was never ingested has no partition directory;
		// that is an empty load, not a failure
		if errors.Is(err, fs.ErrNotExist) {
			l.log.Warn().Str("dir", dir).Msg("loader: partition directory missing, nothing to load")
			return &LoadResult{PerFile: make(map[string]int)}, nil
		}
		return nil, fmt.Errorf("read partition dir %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		// the manifest describes the partition, it is not message data
		if name == "_manifest.json" {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)

	if len(files) == 0 {
		l.log.Warn().Str("dir", dir).Msg("loader: no partition files found")
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result := &LoadResult{PerFile: make(map[string]int)}

	for _, name := range files {
		path := filepath.Join(dir, name)

		records, skipped, err := readPartitionFile(path)
		if err != nil {
			l.log.Warn().Err(err).Str("file", name).Msg("loader: skipping unreadable partition file")
			result.SkippedFiles++
			continue
		}
		result.Files++
		result.Records += len(records)
		result.SkippedRecords += skipped
		if skipped > 0 {
			l.log.Warn().Int("skipped", skipped).Str("file", name).Msg("loader: skipped malformed records")
		}

		inserted, err := insertBatch(ctx, tx, records)
		if err != nil {
			return nil, fmt.Errorf("insert batch from %s: %w", name, err)
		}

		result.Inserted += inserted
		result.PerFile[name] = inserted
		l.log.Info().Str("file", name).Int("records", len(records)).Int("inserted", inserted).Msg("loader: file loaded")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit load: %w", err)
	}

	return result, nil
}

// messageRow is one coerced record ready for insertion.
type messageRow struct {
	MessageID    int64
	ChannelName  *string
	ChannelTitle *string
	MessageDate  *time.Time
	MessageText  *string
	HasMedia     bool
	ImagePath    *string
	Views        int
	Forwards     int
}

// readPartitionFile parses one partition file into coerced rows.
// A file that is not a JSON array of objects fails as a whole; individual
// malformed records are counted and skipped.
func readPartitionFile(path string) ([]messageRow, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read file: %w", err)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, 0, fmt.Errorf("not a JSON array: %w", err)
	}

	var rows []messageRow
	skipped := 0
	for _, item := range items {
		var m map[string]any
		if err := json.Unmarshal(item, &m); err != nil {
			skipped++
			continue
		}
		row, ok := coerceRecord(m)
		if !ok {
			skipped++
			continue
		}
		rows = append(rows, row)
	}

	return rows, skipped, nil
}

// coerceRecord applies the loading defaults to one raw record.
// A record without a usable integer message_id is rejected; an absent or
// unparsable message_date becomes null; missing has_media defaults to false
// and missing or null views/forwards default to 0.
func coerceRecord(m map[string]any) (messageRow, bool) {
	id, ok := intField(m, "message_id")
	if !ok {
		return messageRow{}, false
	}

	row := messageRow{
		MessageID:    id,
		ChannelName:  strField(m, "channel_name"),
		ChannelTitle: strField(m, "channel_title"),
		MessageText:  strField(m, "message_text"),
		ImagePath:    strField(m, "image_path"),
	}

	if b, ok := m["has_media"].(bool); ok {
		row.HasMedia = b
	}
	if v, ok := intField(m, "views"); ok && v >= 0 {
		row.Views = int(v)
	}
	if v, ok := intField(m, "forwards"); ok && v >= 0 {
		row.Forwards = int(v)
	}
	if s := strField(m, "message_date"); s != nil {
		if ts, err := parseMessageDate(*s); err == nil {
			row.MessageDate = &ts
		}
	}

	return row, true
}

// parseMessageDate parses an ISO-8601 timestamp.
// A trailing "Z" is equivalent to "+00:00"; a timestamp without an offset is
// taken as UTC.
func parseMessageDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}

func strField(m map[string]any, key string) *string {
	if s, ok := m[key].(string); ok {
		return &s
	}
	return nil
}

func intField(m map[string]any, key string) (int64, bool) {
	switch v := m[key].(type) {
	case float64:
		return int64(v), true
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}
	}
	return 0, false
}

// insertBatch inserts all rows of one file in a single pgx batch and
// returns the number of rows actually inserted. Conflicting message_ids
// are left untouched.
func insertBatch(ctx context.Context, tx pgx.Tx, rows []messageRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO raw.telegram_messages
				(message_id, channel_name, channel_title, message_date, message_text,
				 has_media, image_path, views, forwards)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (message_id) DO NOTHING
		`, r.MessageID, r.ChannelName, r.ChannelTitle, r.MessageDate, r.MessageText,
			r.HasMedia, r.ImagePath, r.Views, r.Forwards)
	}

	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	inserted := 0
	for range rows {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("batch exec: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}

	return inserted, nil
}
