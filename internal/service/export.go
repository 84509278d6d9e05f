package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/calorbunga/backend/config"
	"github.com/calorbunga/backend/internal/models"
	"github.com/calorbunga/backend/pkg/logger"
)

const csvHeader = "Name,Time,Date,Calories,Protein,Carbs,Fat,Water"

const presignExpiry = 15 * time.Minute

// ExportService renders a day's entries as CSV or clipboard text and can
// upload the CSV to object storage for link sharing
type ExportService struct {
	s3  *config.S3Config
	log *logger.Logger
}

// NewExportService creates a new ExportService instance. s3 may be nil; the
// upload surface is then disabled.
func NewExportService(s3 *config.S3Config, log *logger.Logger) *ExportService {
	return &ExportService{s3: s3, log: log}
}

// BuildCSV renders the entries as CSV: fixed header, one quoted row per
// entry, integer numeric fields
func BuildCSV(entries []*models.FoodLogEntry) string {
	var b strings.Builder
	b.WriteString(csvHeader)
	b.WriteString("\n")
	rows := make([]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, fmt.Sprintf("%q,%q,%q,%d,%d,%d,%d,%d",
			entry.Name, entry.Time, entry.Date,
			entry.Stats.Calories, entry.Stats.Protein, entry.Stats.Carbs,
			entry.Stats.Fat, entry.Stats.Water))
	}
	b.WriteString(strings.Join(rows, "\n"))
	return b.String()
}

// CSVFilename returns the download filename for a day's export
func CSVFilename(day string) string {
	return fmt.Sprintf("calorbunga_log_%s.csv", day)
}

// ClipboardText returns the comma-joined entry names as plain text
func ClipboardText(entries []*models.FoodLogEntry) string {
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name)
	}
	return strings.Join(names, ", ")
}

// UploadCSV uploads the day's CSV to the export bucket and returns a
// presigned download URL
func (s *ExportService) UploadCSV(ctx context.Context, userID, day string, entries []*models.FoodLogEntry) (string, error) {
	if s.s3 == nil {
		return "", fmt.Errorf("export uploads are not configured")
	}

	key := fmt.Sprintf("exports/%s/%s", userID, CSVFilename(day))
	if err := s.s3.PutObject(ctx, key, "text/csv", []byte(BuildCSV(entries))); err != nil {
		return "", fmt.Errorf("failed to upload export: %w", err)
	}

	url, err := s.s3.GeneratePresignedURL(ctx, key, presignExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign export: %w", err)
	}
	s.log.Infow("export uploaded", "user_id", userID, "day", day, "key", key)
	return url, nil
}
