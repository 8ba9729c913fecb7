package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/novelshelf/novelshelf-backend/internal/graph"
	"github.com/novelshelf/novelshelf-backend/internal/logger"
	apperrors "github.com/novelshelf/novelshelf-backend/internal/pkg/errors"
	"github.com/novelshelf/novelshelf-backend/internal/repos"
	"github.com/novelshelf/novelshelf-backend/internal/types"
)

type CreateBookInput struct {
	Title         string    `json:"title"`
	Authors       []string  `json:"authors"`
	Genres        []string  `json:"genres"`
	Description   string    `json:"description"`
	CoverURL      string    `json:"cover_url"`
	PageCount     int       `json:"page_count"`
	PublishedDate time.Time `json:"published_date"`
}

type BookService interface {
	Create(ctx context.Context, input CreateBookInput) (*types.Book, error)
	GetByID(ctx context.Context, bookID uuid.UUID) (*types.Book, error)
	Search(ctx context.Context, query string, limit, offset int) ([]*types.Book, error)
	Like(ctx context.Context, bookID uuid.UUID) error
	Unlike(ctx context.Context, bookID uuid.UUID) error
	Rate(ctx context.Context, bookID uuid.UUID, rating float64) error
}

type bookService struct {
	db           *gorm.DB
	log          *logger.Logger
	bookRepo     repos.BookRepo
	activityRepo repos.BookActivityRepo
	socialGraph  *graph.SocialGraph
	staleMarker  CacheStaleMarker
}

// CacheStaleMarker flags a user's cached recommendations for regeneration
// after a taste-changing action.
type CacheStaleMarker interface {
	MarkStale(ctx context.Context, userID uuid.UUID) error
}

func NewBookService(db *gorm.DB, log *logger.Logger, bookRepo repos.BookRepo, activityRepo repos.BookActivityRepo, socialGraph *graph.SocialGraph, staleMarker CacheStaleMarker) BookService {
	serviceLog := log.With("service", "BookService")
	return &bookService{
		db:           db,
		log:          serviceLog,
		bookRepo:     bookRepo,
		activityRepo: activityRepo,
		socialGraph:  socialGraph,
		staleMarker:  staleMarker,
	}
}

func (bs *bookService) Create(ctx context.Context, input CreateBookInput) (*types.Book, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title required", apperrors.ErrInvalidArgument)
	}
	authorsJSON, _ := json.Marshal(input.Authors)
	genresJSON, _ := json.Marshal(input.Genres)

	book := &types.Book{
		Title:         title,
		Authors:       datatypes.JSON(authorsJSON),
		Genres:        datatypes.JSON(genresJSON),
		Description:   input.Description,
		CoverURL:      input.CoverURL,
		PageCount:     input.PageCount,
		PublishedDate: input.PublishedDate,
	}
	return bs.bookRepo.Create(ctx, nil, book)
}

func (bs *bookService) GetByID(ctx context.Context, bookID uuid.UUID) (*types.Book, error) {
	return bs.bookRepo.GetByID(ctx, nil, bookID)
}

func (bs *bookService) Search(ctx context.Context, query string, limit, offset int) ([]*types.Book, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query required", apperrors.ErrInvalidArgument)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return bs.bookRepo.Search(ctx, nil, query, limit, offset)
}

func (bs *bookService) Like(ctx context.Context, bookID uuid.UUID) error {
	userID, err := currentUserID(ctx)
	if err != nil {
		return err
	}
	if _, err := bs.bookRepo.GetByID(ctx, nil, bookID); err != nil {
		return err
	}
	if err := bs.activityRepo.UpsertLike(ctx, nil, userID, bookID); err != nil {
		return fmt.Errorf("record like: %w", err)
	}
	bs.socialGraph.RecordLike(ctx, userID, bookID)
	bs.markStale(ctx, userID)
	return nil
}

func (bs *bookService) Unlike(ctx context.Context, bookID uuid.UUID) error {
	userID, err := currentUserID(ctx)
	if err != nil {
		return err
	}
	if err := bs.activityRepo.RemoveLike(ctx, nil, userID, bookID); err != nil {
		return fmt.Errorf("remove like: %w", err)
	}
	bs.socialGraph.RemoveLike(ctx, userID, bookID)
	return nil
}

// Rate upserts the user's rating and refreshes the book's aggregate stats in
// the same transaction.
func (bs *bookService) Rate(ctx context.Context, bookID uuid.UUID, rating float64) error {
	userID, err := currentUserID(ctx)
	if err != nil {
		return err
	}
	if rating < 0.5 || rating > 5 {
		return fmt.Errorf("%w: rating must be between 0.5 and 5", apperrors.ErrInvalidArgument)
	}
	if _, err := bs.bookRepo.GetByID(ctx, nil, bookID); err != nil {
		return err
	}

	err = bs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bs.activityRepo.UpsertRating(ctx, tx, &types.BookRating{
			UserID: userID,
			BookID: bookID,
			Rating: rating,
		}); err != nil {
			return fmt.Errorf("record rating: %w", err)
		}
		return tx.Exec(`
			UPDATE book SET
				average_rating = sub.avg_rating,
				ratings_count = sub.n,
				updated_at = now()
			FROM (
				SELECT AVG(rating) AS avg_rating, COUNT(*) AS n
				FROM book_rating WHERE book_id = ?
			) sub
			WHERE book.id = ?`, bookID, bookID).Error
	})
	if err != nil {
		return err
	}
	bs.markStale(ctx, userID)
	return nil
}

func (bs *bookService) markStale(ctx context.Context, userID uuid.UUID) {
	if bs.staleMarker == nil {
		return
	}
	if err := bs.staleMarker.MarkStale(ctx, userID); err != nil {
		bs.log.Debug("failed to mark recommendation cache stale", "error", err)
	}
}
