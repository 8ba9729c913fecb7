package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/novelshelf/novelshelf-backend/internal/graph"
	"github.com/novelshelf/novelshelf-backend/internal/logger"
	apperrors "github.com/novelshelf/novelshelf-backend/internal/pkg/errors"
	"github.com/novelshelf/novelshelf-backend/internal/repos"
	"github.com/novelshelf/novelshelf-backend/internal/types"
)

var validShelves = map[string]struct{}{
	types.ShelfWantToRead: {},
	types.ShelfReading:    {},
	types.ShelfRead:       {},
}

// ShelfEntry is a shelf item joined with its catalog entry for listing.
type ShelfEntry struct {
	Item *types.ShelfItem `json:"item"`
	Book *types.Book      `json:"book"`
}

type ShelfService interface {
	Shelve(ctx context.Context, bookID uuid.UUID, shelf string) (*types.ShelfItem, error)
	Unshelve(ctx context.Context, bookID uuid.UUID) error
	List(ctx context.Context, shelf string) ([]ShelfEntry, error)
}

type shelfService struct {
	db          *gorm.DB
	log         *logger.Logger
	shelfRepo   repos.ShelfRepo
	bookRepo    repos.BookRepo
	socialGraph *graph.SocialGraph
	staleMarker CacheStaleMarker
}

func NewShelfService(db *gorm.DB, log *logger.Logger, shelfRepo repos.ShelfRepo, bookRepo repos.BookRepo, socialGraph *graph.SocialGraph, staleMarker CacheStaleMarker) ShelfService {
	serviceLog := log.With("service", "ShelfService")
	return &shelfService{
		db:          db,
		log:         serviceLog,
		shelfRepo:   shelfRepo,
		bookRepo:    bookRepo,
		socialGraph: socialGraph,
		staleMarker: staleMarker,
	}
}

func (ss *shelfService) Shelve(ctx context.Context, bookID uuid.UUID, shelf string) (*types.ShelfItem, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := validShelves[shelf]; !ok {
		return nil, fmt.Errorf("%w: unknown shelf %q", apperrors.ErrInvalidArgument, shelf)
	}
	if _, err := ss.bookRepo.GetByID(ctx, nil, bookID); err != nil {
		return nil, err
	}

	item, err := ss.shelfRepo.Upsert(ctx, nil, &types.ShelfItem{
		UserID: userID,
		BookID: bookID,
		Shelf:  shelf,
	})
	if err != nil {
		return nil, fmt.Errorf("shelve book: %w", err)
	}

	ss.socialGraph.RecordShelved(ctx, userID, bookID, shelf)
	if err := ss.markStale(ctx, userID); err != nil {
		ss.log.Debug("failed to mark recommendation cache stale", "error", err)
	}
	return item, nil
}

func (ss *shelfService) Unshelve(ctx context.Context, bookID uuid.UUID) error {
	userID, err := currentUserID(ctx)
	if err != nil {
		return err
	}
	if err := ss.shelfRepo.Remove(ctx, nil, userID, bookID); err != nil {
		return fmt.Errorf("unshelve book: %w", err)
	}
	ss.socialGraph.RemoveShelved(ctx, userID, bookID)
	return nil
}

func (ss *shelfService) List(ctx context.Context, shelf string) ([]ShelfEntry, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if shelf != "" {
		if _, ok := validShelves[shelf]; !ok {
			return nil, fmt.Errorf("%w: unknown shelf %q", apperrors.ErrInvalidArgument, shelf)
		}
	}

	items, err := ss.shelfRepo.ListByUser(ctx, nil, userID, shelf)
	if err != nil {
		return nil, fmt.Errorf("list shelf: %w", err)
	}
	if len(items) == 0 {
		return []ShelfEntry{}, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.BookID)
	}
	var rows []*types.Book
	if err := ss.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load shelf books: %w", err)
	}
	byID := make(map[uuid.UUID]*types.Book, len(rows))
	for _, b := range rows {
		byID[b.ID] = b
	}

	entries := make([]ShelfEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, ShelfEntry{Item: item, Book: byID[item.BookID]})
	}
	return entries, nil
}

func (ss *shelfService) markStale(ctx context.Context, userID uuid.UUID) error {
	if ss.staleMarker == nil {
		return nil
	}
	return ss.staleMarker.MarkStale(ctx, userID)
}
