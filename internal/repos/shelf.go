package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/novelshelf/novelshelf-backend/internal/logger"
	"github.com/novelshelf/novelshelf-backend/internal/types"
)

type ShelfRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, item *types.ShelfItem) (*types.ShelfItem, error)
	Remove(ctx context.Context, tx *gorm.DB, userID, bookID uuid.UUID) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, shelf string) ([]*types.ShelfItem, error)
	BookIDsByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error)
	// ShelvedGenres returns the raw genre strings across every shelved book,
	// with repetition. Feeds the reading-breadth entropy measure.
	ShelvedGenres(ctx context.Context, userID uuid.UUID) ([]string, error)
}

type shelfRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewShelfRepo(db *gorm.DB, baseLog *logger.Logger) ShelfRepo {
	repoLog := baseLog.With("repo", "ShelfRepo")
	return &shelfRepo{db: db, log: repoLog}
}

func (sr *shelfRepo) Upsert(ctx context.Context, tx *gorm.DB, item *types.ShelfItem) (*types.ShelfItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"shelf", "updated_at"}),
		}).
		Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (sr *shelfRepo) Remove(ctx context.Context, tx *gorm.DB, userID, bookID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	return transaction.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&types.ShelfItem{}).Error
}

func (sr *shelfRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, shelf string) ([]*types.ShelfItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	q := transaction.WithContext(ctx).Where("user_id = ?", userID)
	if shelf != "" {
		q = q.Where("shelf = ?", shelf)
	}

	var results []*types.ShelfItem
	if err := q.Order("updated_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *shelfRepo) BookIDsByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.ShelfItem{}).
		Where("user_id = ?", userID).
		Pluck("book_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (sr *shelfRepo) ShelvedGenres(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var raws [][]byte
	if err := sr.db.WithContext(ctx).
		Model(&types.ShelfItem{}).
		Joins("JOIN book ON book.id = shelf_item.book_id").
		Where("shelf_item.user_id = ?", userID).
		Pluck("book.genres", &raws).Error; err != nil {
		return nil, err
	}
	var genres []string
	for _, raw := range raws {
		genres = append(genres, decodeStrings(raw)...)
	}
	return genres, nil
}
