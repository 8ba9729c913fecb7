package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/novelshelf/novelshelf-backend/internal/logger"
	"github.com/novelshelf/novelshelf-backend/internal/types"
)

// BookActivityRepo covers likes and ratings, the raw engagement rows behind
// the social signals.
type BookActivityRepo interface {
	UpsertLike(ctx context.Context, tx *gorm.DB, userID, bookID uuid.UUID) error
	RemoveLike(ctx context.Context, tx *gorm.DB, userID, bookID uuid.UUID) error
	LikedBookIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error)
	UpsertRating(ctx context.Context, tx *gorm.DB, rating *types.BookRating) error
	RatingsByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.BookRating, error)
	// ActivityBookIDs is the relational view of a user's social activity,
	// used when the graph database is unavailable.
	ActivityBookIDs(ctx context.Context, userID uuid.UUID) (liked, shelved []uuid.UUID, err error)
}

type bookActivityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBookActivityRepo(db *gorm.DB, baseLog *logger.Logger) BookActivityRepo {
	repoLog := baseLog.With("repo", "BookActivityRepo")
	return &bookActivityRepo{db: db, log: repoLog}
}

func (ar *bookActivityRepo) UpsertLike(ctx context.Context, tx *gorm.DB, userID, bookID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	like := &types.BookLike{UserID: userID, BookID: bookID}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
			DoNothing: true,
		}).
		Create(like).Error
}

func (ar *bookActivityRepo) RemoveLike(ctx context.Context, tx *gorm.DB, userID, bookID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	return transaction.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&types.BookLike{}).Error
}

func (ar *bookActivityRepo) LikedBookIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.BookLike{}).
		Where("user_id = ?", userID).
		Pluck("book_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (ar *bookActivityRepo) UpsertRating(ctx context.Context, tx *gorm.DB, rating *types.BookRating) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "updated_at"}),
		}).
		Create(rating).Error
}

func (ar *bookActivityRepo) RatingsByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.BookRating, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*types.BookRating
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *bookActivityRepo) ActivityBookIDs(ctx context.Context, userID uuid.UUID) (liked, shelved []uuid.UUID, err error) {
	liked, err = ar.LikedBookIDs(ctx, nil, userID)
	if err != nil {
		return nil, nil, err
	}
	if err := ar.db.WithContext(ctx).
		Model(&types.ShelfItem{}).
		Where("user_id = ?", userID).
		Pluck("book_id", &shelved).Error; err != nil {
		return nil, nil, err
	}
	return liked, shelved, nil
}
