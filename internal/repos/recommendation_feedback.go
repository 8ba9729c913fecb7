package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/novelshelf/novelshelf-backend/internal/logger"
	"github.com/novelshelf/novelshelf-backend/internal/types"
)

// FeedbackEvent is one recommendation interaction to record.
type FeedbackEvent struct {
	UserID    uuid.UUID
	BookID    uuid.UUID
	Algorithm string
	Action    string
	Position  int
	Score     float64
	Breakdown datatypes.JSON
	At        time.Time
}

// FunnelCounts is the raw per-algorithm event tally for a window.
type FunnelCounts struct {
	Algorithm string
	Shown     int
	Clicked   int
	Converted int
	Dismissed int
}

// RecommendationFeedbackRepo owns the funnel rows. One row per
// (user, book, algorithm); recording the same action twice keeps the first
// timestamp.
type RecommendationFeedbackRepo interface {
	Record(ctx context.Context, tx *gorm.DB, event FeedbackEvent) error
	RecordShownBatch(ctx context.Context, events []FeedbackEvent) error
	CountsSince(ctx context.Context, since time.Time) ([]FunnelCounts, error)
}

type recommendationFeedbackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecommendationFeedbackRepo(db *gorm.DB, baseLog *logger.Logger) RecommendationFeedbackRepo {
	repoLog := baseLog.With("repo", "RecommendationFeedbackRepo")
	return &recommendationFeedbackRepo{db: db, log: repoLog}
}

func (rr *recommendationFeedbackRepo) Record(ctx context.Context, tx *gorm.DB, event FeedbackEvent) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	at := event.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	var row types.RecommendationFeedback
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND book_id = ? AND algorithm = ?", event.UserID, event.BookID, event.Algorithm).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = types.RecommendationFeedback{
			UserID:    event.UserID,
			BookID:    event.BookID,
			Algorithm: event.Algorithm,
			Position:  event.Position,
			Score:     event.Score,
			Breakdown: event.Breakdown,
		}
		rr.applyAction(&row, event.Action, at)
		return transaction.WithContext(ctx).Create(&row).Error
	}
	if err != nil {
		return err
	}

	rr.applyAction(&row, event.Action, at)
	if event.Position > 0 {
		row.Position = event.Position
	}
	if event.Score > 0 {
		row.Score = event.Score
	}
	if len(event.Breakdown) > 0 {
		row.Breakdown = event.Breakdown
	}
	return transaction.WithContext(ctx).Save(&row).Error
}

// applyAction sets the action's timestamp if unset and advances last_action.
// A converted event without a prior click is recorded as-is and logged; the
// client may have lost the click.
func (rr *recommendationFeedbackRepo) applyAction(row *types.RecommendationFeedback, action string, at time.Time) {
	row.LastAction = action
	switch action {
	case types.FeedbackShown:
		if row.ShownAt == nil {
			row.ShownAt = &at
		}
	case types.FeedbackClicked:
		if row.ClickedAt == nil {
			row.ClickedAt = &at
		}
	case types.FeedbackConverted:
		if row.ClickedAt == nil {
			rr.log.Debug("conversion recorded without prior click",
				"book_id", row.BookID, "algorithm", row.Algorithm)
		}
		if row.ConvertedAt == nil {
			row.ConvertedAt = &at
		}
	case types.FeedbackDismissed:
		if row.DismissedAt == nil {
			row.DismissedAt = &at
		}
	}
}

// RecordShownBatch records impressions for a freshly served list. Best
// effort: a failed row is logged and skipped so serving is never blocked.
func (rr *recommendationFeedbackRepo) RecordShownBatch(ctx context.Context, events []FeedbackEvent) error {
	for _, event := range events {
		event.Action = types.FeedbackShown
		if err := rr.Record(ctx, nil, event); err != nil {
			rr.log.Warn("failed to record impression", "error", err)
		}
	}
	return nil
}

func (rr *recommendationFeedbackRepo) CountsSince(ctx context.Context, since time.Time) ([]FunnelCounts, error) {
	var counts []FunnelCounts
	err := rr.db.WithContext(ctx).
		Model(&types.RecommendationFeedback{}).
		Select(`algorithm,
			COUNT(*) FILTER (WHERE shown_at >= ?) AS shown,
			COUNT(*) FILTER (WHERE clicked_at >= ?) AS clicked,
			COUNT(*) FILTER (WHERE converted_at >= ?) AS converted,
			COUNT(*) FILTER (WHERE dismissed_at >= ?) AS dismissed`,
			since, since, since, since).
		Group("algorithm").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}
