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

type SocialService interface {
	Follow(ctx context.Context, followeeID uuid.UUID) error
	Unfollow(ctx context.Context, followeeID uuid.UUID) error
	Following(ctx context.Context) ([]*types.User, error)
	Followers(ctx context.Context) ([]*types.User, error)
}

type socialService struct {
	db          *gorm.DB
	log         *logger.Logger
	followRepo  repos.FollowRepo
	userRepo    repos.UserRepo
	socialGraph *graph.SocialGraph
	staleMarker CacheStaleMarker
}

func NewSocialService(db *gorm.DB, log *logger.Logger, followRepo repos.FollowRepo, userRepo repos.UserRepo, socialGraph *graph.SocialGraph, staleMarker CacheStaleMarker) SocialService {
	serviceLog := log.With("service", "SocialService")
	return &socialService{
		db:          db,
		log:         serviceLog,
		followRepo:  followRepo,
		userRepo:    userRepo,
		socialGraph: socialGraph,
		staleMarker: staleMarker,
	}
}

// Follow writes the relational row of record, mirrors the edge into the
// graph, and flags the follower's cached recommendations for regeneration
// since the friends surface just changed.
func (ss *socialService) Follow(ctx context.Context, followeeID uuid.UUID) error {
	userID, err := currentUserID(ctx)
	if err != nil {
		return err
	}
	if followeeID == userID {
		return fmt.Errorf("%w: cannot follow yourself", apperrors.ErrInvalidArgument)
	}
	if _, err := ss.userRepo.GetByID(ctx, nil, followeeID); err != nil {
		return err
	}

	if err := ss.followRepo.Create(ctx, nil, userID, followeeID); err != nil {
		return fmt.Errorf("create follow: %w", err)
	}
	ss.socialGraph.UpsertFollow(ctx, userID, followeeID)

	if ss.staleMarker != nil {
		if err := ss.staleMarker.MarkStale(ctx, userID); err != nil {
			ss.log.Debug("failed to mark recommendation cache stale", "error", err)
		}
	}
	return nil
}

func (ss *socialService) Unfollow(ctx context.Context, followeeID uuid.UUID) error {
	userID, err := currentUserID(ctx)
	if err != nil {
		return err
	}
	if err := ss.followRepo.Delete(ctx, nil, userID, followeeID); err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}
	ss.socialGraph.RemoveFollow(ctx, userID, followeeID)

	if ss.staleMarker != nil {
		if err := ss.staleMarker.MarkStale(ctx, userID); err != nil {
			ss.log.Debug("failed to mark recommendation cache stale", "error", err)
		}
	}
	return nil
}

func (ss *socialService) Following(ctx context.Context) ([]*types.User, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := ss.followRepo.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list following: %w", err)
	}
	return ss.userRepo.GetByIDs(ctx, nil, ids)
}

func (ss *socialService) Followers(ctx context.Context) ([]*types.User, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := ss.followRepo.FollowerIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list followers: %w", err)
	}
	return ss.userRepo.GetByIDs(ctx, nil, ids)
}
