package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/novelshelf/novelshelf-backend/internal/logger"
	apperrors "github.com/novelshelf/novelshelf-backend/internal/pkg/errors"
	"github.com/novelshelf/novelshelf-backend/internal/recommendation"
	"github.com/novelshelf/novelshelf-backend/internal/repos"
	"github.com/novelshelf/novelshelf-backend/internal/requestdata"
	"github.com/novelshelf/novelshelf-backend/internal/types"
)

type UpdateProfileInput struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatar_url"`
}

type UpdatePreferencesInput struct {
	FavoriteGenres  []string `json:"favorite_genres"`
	FavoriteAuthors []string `json:"favorite_authors"`
}

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*types.User, error)
	UpdateProfile(ctx context.Context, input UpdateProfileInput) (*types.User, error)
	GetPreferences(ctx context.Context) (recommendation.Profile, error)
	UpdatePreferences(ctx context.Context, input UpdatePreferencesInput) error
}

type userService struct {
	db        *gorm.DB
	log       *logger.Logger
	userRepo  repos.UserRepo
	prefsRepo repos.PreferenceProfileRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, prefsRepo repos.PreferenceProfileRepo) UserService {
	serviceLog := log.With("service", "UserService")
	return &userService{
		db:        db,
		log:       serviceLog,
		userRepo:  userRepo,
		prefsRepo: prefsRepo,
	}
}

func currentUserID(ctx context.Context) (uuid.UUID, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, apperrors.ErrUnauthorized
	}
	return rd.UserID, nil
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	return us.userRepo.GetByID(ctx, nil, userID)
}

func (us *userService) GetByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	return us.userRepo.GetByID(ctx, nil, userID)
}

func (us *userService) UpdateProfile(ctx context.Context, input UpdateProfileInput) (*types.User, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	user, err := us.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}

	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if name == "" {
			return nil, fmt.Errorf("%w: display name cannot be empty", apperrors.ErrInvalidArgument)
		}
		user.DisplayName = name
	}
	if input.Bio != nil {
		user.Bio = strings.TrimSpace(*input.Bio)
	}
	if input.AvatarURL != nil {
		user.AvatarURL = strings.TrimSpace(*input.AvatarURL)
	}

	if err := us.userRepo.Update(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (us *userService) GetPreferences(ctx context.Context) (recommendation.Profile, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return recommendation.Profile{}, err
	}
	return us.prefsRepo.Profile(ctx, userID)
}

// UpdatePreferences replaces the explicit picks in the taste profile.
// Implicit genre weights and reading pace are left to the ingestion path.
func (us *userService) UpdatePreferences(ctx context.Context, input UpdatePreferencesInput) error {
	userID, err := currentUserID(ctx)
	if err != nil {
		return err
	}

	topGenres := make([]recommendation.ProfileGenre, 0, len(input.FavoriteGenres))
	for _, g := range input.FavoriteGenres {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		topGenres = append(topGenres, recommendation.ProfileGenre{Genre: g, Weight: 1})
	}
	genresJSON, _ := json.Marshal(topGenres)
	authorsJSON, _ := json.Marshal(input.FavoriteAuthors)

	return us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := us.prefsRepo.GetByUserID(ctx, tx, userID)
		profile := &types.PreferenceProfile{UserID: userID}
		if err == nil {
			profile = existing
		}
		profile.TopGenres = datatypes.JSON(genresJSON)
		profile.FavoriteAuthors = datatypes.JSON(authorsJSON)
		return us.prefsRepo.Upsert(ctx, tx, profile)
	})
}
