package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/novelshelf/novelshelf-backend/internal/logger"
	apperrors "github.com/novelshelf/novelshelf-backend/internal/pkg/errors"
	"github.com/novelshelf/novelshelf-backend/internal/recommendation"
	"github.com/novelshelf/novelshelf-backend/internal/repos"
	"github.com/novelshelf/novelshelf-backend/internal/requestdata"
	"github.com/novelshelf/novelshelf-backend/internal/types"
	"github.com/novelshelf/novelshelf-backend/internal/utils"
)

type RegisterInput struct {
	Email           string   `json:"email"`
	Password        string   `json:"password"`
	DisplayName     string   `json:"display_name"`
	FavoriteGenres  []string `json:"favorite_genres"`
	FavoriteAuthors []string `json:"favorite_authors"`
}

type AuthTokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type AuthResult struct {
	User   *types.User `json:"user"`
	Tokens AuthTokens  `json:"tokens"`
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error)
	Logout(ctx context.Context) error
	ParseAccessToken(tokenString string) (uuid.UUID, error)
}

type authService struct {
	db         *gorm.DB
	log        *logger.Logger
	userRepo   repos.UserRepo
	tokenRepo  repos.UserTokenRepo
	prefsRepo  repos.PreferenceProfileRepo
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, tokenRepo repos.UserTokenRepo, prefsRepo repos.PreferenceProfileRepo) AuthService {
	serviceLog := log.With("service", "AuthService")
	secret := utils.GetEnv("JWT_SECRET", "", log)
	if secret == "" {
		serviceLog.Warn("JWT_SECRET not set, using insecure development default")
		secret = "dev-only-secret"
	}
	accessMinutes := utils.GetEnvAsInt("JWT_ACCESS_TTL_MINUTES", 15, log)
	refreshHours := utils.GetEnvAsInt("JWT_REFRESH_TTL_HOURS", 24*14, log)
	return &authService{
		db:         db,
		log:        serviceLog,
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		prefsRepo:  prefsRepo,
		jwtSecret:  []byte(secret),
		accessTTL:  time.Duration(accessMinutes) * time.Minute,
		refreshTTL: time.Duration(refreshHours) * time.Hour,
	}
}

func (as *authService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email", apperrors.ErrInvalidArgument)
	}
	if len(input.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", apperrors.ErrInvalidArgument)
	}
	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		return nil, fmt.Errorf("%w: display name required", apperrors.ErrInvalidArgument)
	}

	exists, err := as.userRepo.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: email already registered", apperrors.ErrInvalidArgument)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var user *types.User
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err = as.userRepo.Create(ctx, tx, &types.User{
			Email:       email,
			Password:    string(hashed),
			DisplayName: displayName,
		})
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		profile := onboardingProfile(user.ID, input.FavoriteGenres, input.FavoriteAuthors)
		if err := as.prefsRepo.Upsert(ctx, tx, profile); err != nil {
			return fmt.Errorf("create preference profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tokens, err := as.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	as.log.Info("User registered", "user_id", user.ID)
	return &AuthResult{User: user, Tokens: *tokens}, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := as.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperrors.ErrUnauthorized
	}

	tokens, err := as.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: *tokens}, nil
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	stored, err := as.tokenRepo.GetByRefreshToken(ctx, nil, refreshToken)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	if time.Now().After(stored.ExpiresAt) {
		_ = as.tokenRepo.DeleteByRefreshToken(ctx, nil, refreshToken)
		return nil, apperrors.ErrUnauthorized
	}
	if err := as.tokenRepo.DeleteByRefreshToken(ctx, nil, refreshToken); err != nil {
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	return as.issueTokens(ctx, stored.UserID)
}

func (as *authService) Logout(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return apperrors.ErrUnauthorized
	}
	return as.tokenRepo.DeleteByUserID(ctx, nil, rd.UserID)
}

// ParseAccessToken validates the signature and expiry and returns the
// subject user id.
func (as *authService) ParseAccessToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return as.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, apperrors.ErrUnauthorized
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, apperrors.ErrUnauthorized
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return uuid.Nil, apperrors.ErrUnauthorized
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, apperrors.ErrUnauthorized
	}
	return userID, nil
}

func (as *authService) issueTokens(ctx context.Context, userID uuid.UUID) (*AuthTokens, error) {
	now := time.Now()
	expiresAt := now.Add(as.accessTTL)
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh := uuid.NewString() + uuid.NewString()
	_, err = as.tokenRepo.Create(ctx, nil, &types.UserToken{
		UserID:       userID,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(as.refreshTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}, nil
}

// onboardingProfile seeds a taste profile from the genres and authors picked
// during signup. Picks are weighted equally; implicit weights arrive later
// from the signal-ingestion path.
func onboardingProfile(userID uuid.UUID, genres, authors []string) *types.PreferenceProfile {
	topGenres := make([]recommendation.ProfileGenre, 0, len(genres))
	for _, g := range genres {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		topGenres = append(topGenres, recommendation.ProfileGenre{Genre: g, Weight: 1})
	}
	genresJSON, _ := json.Marshal(topGenres)
	authorsJSON, _ := json.Marshal(authors)
	return &types.PreferenceProfile{
		UserID:          userID,
		TopGenres:       datatypes.JSON(genresJSON),
		FavoriteAuthors: datatypes.JSON(authorsJSON),
	}
}
