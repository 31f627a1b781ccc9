package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/jackc/pgx/v5"
)

var detectionColumns = []string{
	"message_id", "channel", "image_name",
	"detected_objects", "confidence_score", "image_category",
}

// LoadDetections replaces the contents of raw.image_detections with the
// rows of the classifier's CSV output. The detections table is regenerated
// on every classifier run, so the load truncates before inserting.
func (l *Loader) LoadDetections(ctx context.Context, csvPath string) (int, error) {
	rows, err := readDetectionsCSV(csvPath)
	if err != nil {
		return 0, err
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS raw.image_detections (
			message_id       TEXT,
			channel          TEXT,
			image_name       TEXT,
			detected_objects TEXT,
			confidence_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			image_category   TEXT
		)
	`)
	if err != nil {
		return 0, fmt.Errorf("ensure detections table: %w", err)
	}

	if _, err := tx.Exec(ctx, `TRUNCATE raw.image_detections`); err != nil {
		return 0, fmt.Errorf("truncate detections: %w", err)
	}

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"raw", "image_detections"},
		detectionColumns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("copy detections: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit detections load: %w", err)
	}

	l.log.Info().Int64("rows", copied).Str("file", csvPath).Msg("loader: detections loaded")
	return int(copied), nil
}

// readDetectionsCSV reads the classifier output and validates its header.
func readDetectionsCSV(path string) ([][]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open detections csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse detections csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("detections csv %s has no header", path)
	}

	header := records[0]
	if len(header) != len(detectionColumns) {
		return nil, fmt.Errorf("detections csv has %d columns, want %d", len(header), len(detectionColumns))
	}
	for i, col := range detectionColumns {
		if header[i] != col {
			return nil, fmt.Errorf("detections csv column %d is %q, want %q", i, header[i], col)
		}
	}

	var rows [][]any
	for _, rec := range records[1:] {
		conf, err := strconv.ParseFloat(rec[4], 64)
		if err != nil {
			conf = 0
		}
		rows = append(rows, []any{rec[0], rec[1], rec[2], rec[3], conf, rec[5]})
	}

	return rows, nil
}
