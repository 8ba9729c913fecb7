package repos

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/novelshelf/novelshelf-backend/internal/logger"
	apperrors "github.com/novelshelf/novelshelf-backend/internal/pkg/errors"
	"github.com/novelshelf/novelshelf-backend/internal/recommendation"
	"github.com/novelshelf/novelshelf-backend/internal/types"
)

// BookRepo is the catalog. The read-side query methods double as the
// recommendation pipeline's candidate source.
type BookRepo interface {
	recommendation.CatalogStore

	Create(ctx context.Context, tx *gorm.DB, book *types.Book) (*types.Book, error)
	GetByID(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) (*types.Book, error)
	Search(ctx context.Context, tx *gorm.DB, query string, limit, offset int) ([]*types.Book, error)
}

type bookRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBookRepo(db *gorm.DB, baseLog *logger.Logger) BookRepo {
	repoLog := baseLog.With("repo", "BookRepo")
	return &bookRepo{db: db, log: repoLog}
}

func (br *bookRepo) Create(ctx context.Context, tx *gorm.DB, book *types.Book) (*types.Book, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	if err := transaction.WithContext(ctx).Create(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

func (br *bookRepo) GetByID(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) (*types.Book, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	var result types.Book
	if err := transaction.WithContext(ctx).
		Where("id = ?", bookID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (br *bookRepo) Search(ctx context.Context, tx *gorm.DB, query string, limit, offset int) ([]*types.Book, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	var results []*types.Book
	pattern := "%" + query + "%"
	if err := transaction.WithContext(ctx).
		Where("title ILIKE ? OR authors::text ILIKE ?", pattern, pattern).
		Order("ratings_count DESC").
		Limit(limit).
		Offset(offset).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (br *bookRepo) BooksByGenres(ctx context.Context, genres []string, limit int) ([]recommendation.Book, error) {
	if len(genres) == 0 {
		return nil, nil
	}
	q := br.db.WithContext(ctx).
		Model(&types.Book{}).
		Where("cover_url <> ''")

	cond := br.db.Where("genres::text ILIKE ?", "%"+genres[0]+"%")
	for _, g := range genres[1:] {
		cond = cond.Or("genres::text ILIKE ?", "%"+g+"%")
	}
	q = q.Where(cond)

	var rows []*types.Book
	if err := q.Order("average_rating DESC, published_date DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toRecBooks(rows), nil
}

func (br *bookRepo) BooksByAuthors(ctx context.Context, authors []string, limit int) ([]recommendation.Book, error) {
	if len(authors) == 0 {
		return nil, nil
	}
	cond := br.db.Where("authors::text ILIKE ?", "%"+authors[0]+"%")
	for _, a := range authors[1:] {
		cond = cond.Or("authors::text ILIKE ?", "%"+a+"%")
	}

	var rows []*types.Book
	if err := br.db.WithContext(ctx).
		Model(&types.Book{}).
		Where(cond).
		Order("average_rating DESC, published_date DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toRecBooks(rows), nil
}

func (br *bookRepo) TrendingBooks(ctx context.Context, genres []string, minRating float64, limit int) ([]recommendation.Book, error) {
	q := br.db.WithContext(ctx).
		Model(&types.Book{}).
		Where("average_rating >= ?", minRating)

	if len(genres) > 0 {
		cond := br.db.Where("genres::text ILIKE ?", "%"+genres[0]+"%")
		for _, g := range genres[1:] {
			cond = cond.Or("genres::text ILIKE ?", "%"+g+"%")
		}
		q = q.Where(cond)
	}

	var rows []*types.Book
	if err := q.Order("ratings_count DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toRecBooks(rows), nil
}

func (br *bookRepo) PopularBooks(ctx context.Context, minRating float64, minRatingsCount, limit int) ([]recommendation.Book, error) {
	var rows []*types.Book
	if err := br.db.WithContext(ctx).
		Model(&types.Book{}).
		Where("average_rating >= ? AND ratings_count >= ?", minRating, minRatingsCount).
		Order("ratings_count DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toRecBooks(rows), nil
}

func (br *bookRepo) BooksByIDs(ctx context.Context, ids []uuid.UUID) ([]recommendation.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []*types.Book
	if err := br.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toRecBooks(rows), nil
}

// ToRecBook converts a catalog row into the scoring-side view, decoding the
// jsonb author and genre arrays.
func ToRecBook(b *types.Book) recommendation.Book {
	return recommendation.Book{
		ID:            b.ID,
		Title:         b.Title,
		Authors:       decodeStrings(b.Authors),
		Genres:        decodeStrings(b.Genres),
		CoverURL:      b.CoverURL,
		PageCount:     b.PageCount,
		PublishedDate: b.PublishedDate,
		AverageRating: b.AverageRating,
		RatingsCount:  b.RatingsCount,
	}
}

func toRecBooks(rows []*types.Book) []recommendation.Book {
	out := make([]recommendation.Book, 0, len(rows))
	for _, b := range rows {
		out = append(out, ToRecBook(b))
	}
	return out
}

func decodeStrings(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
