package sink

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/edugrade/codegrader/internal/grading"
	"github.com/edugrade/codegrader/internal/models"
)

// StoreSink persists grading reports as GradeRecord rows.
type StoreSink struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewStoreSink builds a database-backed sink and migrates its schema.
func NewStoreSink(db *gorm.DB, logger zerolog.Logger) (*StoreSink, error) {
	if err := db.AutoMigrate(&models.GradeRecord{}); err != nil {
		return nil, fmt.Errorf("migrate grade records: %w", err)
	}

	return &StoreSink{
		db:     db,
		logger: logger.With().Str("component", "store_sink").Logger(),
	}, nil
}

// Publish inserts the report as a new grade record.
func (s *StoreSink) Publish(ctx context.Context, report *grading.GradingReport, studentEmail string) error {
	breakdown := datatypes.JSONMap{}
	for _, category := range report.Categories {
		breakdown[category.Name] = fmt.Sprintf("%.1f/%d", category.PointsEarned, category.PointsPossible)
	}

	record := models.GradeRecord{
		RunID:          report.RunID,
		AssignmentName: report.AssignmentName,
		StudentEmail:   studentEmail,
		PointsEarned:   report.PointsEarned,
		PointsPossible: report.PointsPossible,
		Feedback:       report.FeedbackText,
		Breakdown:      breakdown,
		Partial:        report.Partial,
		SubmittedAt:    report.GeneratedAt,
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("store grade record: %w", err)
	}

	s.logger.Info().Str("run_id", report.RunID).Uint("record_id", record.ID).Msg("grade record stored")
	return nil
}
