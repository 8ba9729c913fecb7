package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/novelshelf/novelshelf-backend/internal/logger"
	"github.com/novelshelf/novelshelf-backend/internal/types"
)

// FollowRepo is the relational row of record for follow edges. The graph
// store mirrors these rows for traversal queries.
type FollowRepo interface {
	Create(ctx context.Context, tx *gorm.DB, followerID, followeeID uuid.UUID) error
	Delete(ctx context.Context, tx *gorm.DB, followerID, followeeID uuid.UUID) error
	Exists(ctx context.Context, tx *gorm.DB, followerID, followeeID uuid.UUID) (bool, error)
	FollowingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	FollowerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type followRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFollowRepo(db *gorm.DB, baseLog *logger.Logger) FollowRepo {
	repoLog := baseLog.With("repo", "FollowRepo")
	return &followRepo{db: db, log: repoLog}
}

func (fr *followRepo) Create(ctx context.Context, tx *gorm.DB, followerID, followeeID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	row := &types.Follow{FollowerID: followerID, FolloweeID: followeeID}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "follower_id"}, {Name: "followee_id"}},
			DoNothing: true,
		}).
		Create(row).Error
}

func (fr *followRepo) Delete(ctx context.Context, tx *gorm.DB, followerID, followeeID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	return transaction.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&types.Follow{}).Error
}

func (fr *followRepo) Exists(ctx context.Context, tx *gorm.DB, followerID, followeeID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (fr *followRepo) FollowingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := fr.db.WithContext(ctx).
		Model(&types.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("followee_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (fr *followRepo) FollowerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := fr.db.WithContext(ctx).
		Model(&types.Follow{}).
		Where("followee_id = ?", userID).
		Pluck("follower_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
