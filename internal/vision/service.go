package vision

import (
	"context"
	"encoding/csv"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/medwatch/telegram-warehouse/internal/logger"
	"github.com/medwatch/telegram-warehouse/internal/models"
)

// imageExtensions are the file extensions picked up by the scan,
// matched case-insensitively.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Service scans an image tree, runs detection on every image and writes
// one CSV row per image. Each run starts fresh and fully rewrites the
// output file.
type Service struct {
	detector Detector
	log      *logger.Logger
}

// NewService creates a classification service.
func NewService(detector Detector, log *logger.Logger) *Service {
	return &Service{detector: detector, log: log}
}

// RunResult contains statistics for one classification run.
type RunResult struct {
	Images     int            // images processed, error rows included
	Errors     int            // images whose detection call failed
	Categories map[string]int // category -> image count
	OutputPath string
}

// Run scans rootDir recursively and writes the detection CSV to outPath,
// replacing any previous output. A missing root is fatal; a failing image
// is recorded with the detection_error category and the run continues.
// A run over zero images still writes the header.
func (s *Service) Run(ctx context.Context, rootDir, outPath string) (*RunResult, error) {
	if _, err := os.Stat(rootDir); err != nil {
		return nil, fmt.Errorf("image root %s: %w", rootDir, err)
	}

	images, err := discoverImages(rootDir)
	if err != nil {
		return nil, fmt.Errorf("scan image root: %w", err)
	}

	s.log.Info().Int("images", len(images)).Str("root", rootDir).Msg("vision: starting classification run")

	result := &RunResult{Categories: make(map[string]int), OutputPath: outPath}
	rows := make([]models.ImageDetection, 0, len(images))

	for _, path := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row := s.processImage(ctx, path)
		rows = append(rows, row)
		result.Images++
		result.Categories[row.ImageCategory]++
		if row.ImageCategory == string(CategoryDetectionError) {
			result.Errors++
		}
	}

	if err := writeCSV(outPath, rows); err != nil {
		return nil, err
	}

	s.log.Info().Int("images", result.Images).Int("errors", result.Errors).Str("output", outPath).Msg("vision: run finished")
	return result, nil
}

// processImage runs detection and classification for a single image.
// Detection failures are isolated to the image: they produce an error row
// instead of aborting the run.
func (s *Service) processImage(ctx context.Context, path string) models.ImageDetection {
	name := filepath.Base(path)
	row := models.ImageDetection{
		MessageID: messageIDFromName(name),
		Channel:   filepath.Base(filepath.Dir(path)),
		ImageName: name,
	}

	detections, err := s.detector.Detect(ctx, path)
	if err != nil {
		s.log.Warn().Err(err).Str("image", path).Msg("vision: detection failed, recording error row")
		row.ImageCategory = string(CategoryDetectionError)
		return row
	}

	labels := make([]string, 0, len(detections))
	maxConf := 0.0
	for _, det := range detections {
		labels = append(labels, det.Label)
		if det.Confidence > maxConf {
			maxConf = det.Confidence
		}
	}

	row.DetectedObjects = strings.Join(labels, ", ")
	row.ConfidenceScore = maxConf
	row.ImageCategory = string(Classify(labels))
	return row
}

// discoverImages walks root and returns every image file, sorted by path so
// output order does not depend on filesystem traversal order.
func discoverImages(root string) ([]string, error) {
	var images []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if imageExtensions[strings.ToLower(filepath.Ext(path))] {
			images = append(images, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(images)
	return images, nil
}

// messageIDFromName takes the filename substring before the first
// underscore. No validation: the value is best-effort, stored as text.
func messageIDFromName(name string) string {
	if i := strings.Index(name, "_"); i >= 0 {
		return name[:i]
	}
	return name
}

// writeCSV writes the output table, header first, fully replacing outPath.
func writeCSV(outPath string, rows []models.ImageDetection) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"message_id", "channel", "image_name", "detected_objects", "confidence_score", "image_category"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range rows {
		record := []string{
			r.MessageID,
			r.Channel,
			r.ImageName,
			r.DetectedObjects,
			strconv.FormatFloat(round4(r.ConfidenceScore), 'f', -1, 64),
			r.ImageCategory,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	return nil
}

func round4(f float64) float64 {
	return float64(int64(f*10000+0.5)) / 10000
}
