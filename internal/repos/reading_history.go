package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/novelshelf/novelshelf-backend/internal/logger"
	"github.com/novelshelf/novelshelf-backend/internal/recommendation"
	"github.com/novelshelf/novelshelf-backend/internal/types"
)

// ReadingHistoryRepo is the read-side view of a user's own reading record,
// assembled from ratings and shelves.
type ReadingHistoryRepo interface {
	recommendation.ReadingHistoryStore
}

type readingHistoryRepo struct {
	db      *gorm.DB
	shelves ShelfRepo
	log     *logger.Logger
}

func NewReadingHistoryRepo(db *gorm.DB, shelves ShelfRepo, baseLog *logger.Logger) ReadingHistoryRepo {
	repoLog := baseLog.With("repo", "ReadingHistoryRepo")
	return &readingHistoryRepo{db: db, shelves: shelves, log: repoLog}
}

// HighRatedRecent returns the user's most recently rated books at or above
// minRating, newest first. Seeds the similar-books strategy.
func (hr *readingHistoryRepo) HighRatedRecent(ctx context.Context, userID uuid.UUID, minRating float64, limit int) ([]recommendation.Book, error) {
	var rows []*types.Book
	if err := hr.db.WithContext(ctx).
		Model(&types.Book{}).
		Joins("JOIN book_rating ON book_rating.book_id = book.id").
		Where("book_rating.user_id = ? AND book_rating.rating >= ?", userID, minRating).
		Order("book_rating.updated_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toRecBooks(rows), nil
}

func (hr *readingHistoryRepo) ShelvedGenres(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return hr.shelves.ShelvedGenres(ctx, userID)
}
