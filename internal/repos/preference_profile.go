package repos

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/novelshelf/novelshelf-backend/internal/logger"
	"github.com/novelshelf/novelshelf-backend/internal/recommendation"
	"github.com/novelshelf/novelshelf-backend/internal/types"
)

// PreferenceProfileRepo reads and writes taste profiles. The recommendation
// pipeline only reads; writes come from onboarding and the signal-ingestion
// path.
type PreferenceProfileRepo interface {
	recommendation.PreferenceStore

	Upsert(ctx context.Context, tx *gorm.DB, profile *types.PreferenceProfile) error
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.PreferenceProfile, error)
}

type preferenceProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPreferenceProfileRepo(db *gorm.DB, baseLog *logger.Logger) PreferenceProfileRepo {
	repoLog := baseLog.With("repo", "PreferenceProfileRepo")
	return &preferenceProfileRepo{db: db, log: repoLog}
}

func (pr *preferenceProfileRepo) Upsert(ctx context.Context, tx *gorm.DB, profile *types.PreferenceProfile) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(profile).Error
}

func (pr *preferenceProfileRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.PreferenceProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.PreferenceProfile
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// Profile returns the scoring-side view. A user without a stored profile gets
// an empty profile, never an error: the pipeline degrades to trending.
func (pr *preferenceProfileRepo) Profile(ctx context.Context, userID uuid.UUID) (recommendation.Profile, error) {
	row, err := pr.GetByUserID(ctx, nil, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return recommendation.Profile{UserID: userID}, nil
	}
	if err != nil {
		return recommendation.Profile{}, err
	}

	profile := recommendation.Profile{
		UserID:      row.UserID,
		ReadingPace: row.ReadingPace,
	}
	if len(row.TopGenres) > 0 {
		if err := json.Unmarshal(row.TopGenres, &profile.TopGenres); err != nil {
			pr.log.Warn("unreadable top_genres, treating as empty", "error", err)
		}
	}
	if len(row.FavoriteAuthors) > 0 {
		if err := json.Unmarshal(row.FavoriteAuthors, &profile.FavoriteAuthors); err != nil {
			pr.log.Warn("unreadable favorite_authors, treating as empty", "error", err)
		}
	}
	if len(row.ImplicitGenreWeights) > 0 {
		if err := json.Unmarshal(row.ImplicitGenreWeights, &profile.ImplicitGenreWeights); err != nil {
			pr.log.Warn("unreadable implicit_genre_weights, treating as empty", "error", err)
		}
	}
	return profile, nil
}
