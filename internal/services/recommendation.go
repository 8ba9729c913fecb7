package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/novelshelf/novelshelf-backend/internal/logger"
	apperrors "github.com/novelshelf/novelshelf-backend/internal/pkg/errors"
	"github.com/novelshelf/novelshelf-backend/internal/recommendation"
	"github.com/novelshelf/novelshelf-backend/internal/repos"
	"github.com/novelshelf/novelshelf-backend/internal/types"
)

// Result sources reported alongside a served list.
const (
	SourceCache = "cache"
	SourceFresh = "fresh"
)

// RecommendationCacheStore is the per-user cache of generated surfaces.
type RecommendationCacheStore interface {
	Get(ctx context.Context, userID uuid.UUID) (recommendation.CacheEntry, error)
	Put(ctx context.Context, entry recommendation.CacheEntry) error
	MarkStale(ctx context.Context, userID uuid.UUID) error
	TTL() time.Duration
}

type FeedbackInput struct {
	BookID    uuid.UUID          `json:"book_id"`
	Algorithm string             `json:"algorithm"`
	Action    string             `json:"action"`
	Position  int                `json:"position"`
	Score     float64            `json:"score"`
	Breakdown map[string]float64 `json:"breakdown"`
}

// RecommendationResult is a served surface plus where it came from.
type RecommendationResult struct {
	Surface     string                 `json:"surface"`
	Items       []recommendation.Scored `json:"items"`
	Algorithm   string                 `json:"algorithm"`
	Source      string                 `json:"source"`
	GeneratedAt time.Time              `json:"generated_at"`
}

type RecommendationService interface {
	Surface(ctx context.Context, surface string, limit int, forceRefresh bool) (*RecommendationResult, error)
	RecordFeedback(ctx context.Context, input FeedbackInput) error
	Metrics(ctx context.Context, algorithm string, windowDays int) ([]recommendation.AlgorithmMetrics, error)
}

type recommendationService struct {
	db           *gorm.DB
	log          *logger.Logger
	registry     *recommendation.Registry
	generator    *recommendation.Generator
	friends      *recommendation.FriendAggregator
	prefsRepo    repos.PreferenceProfileRepo
	historyRepo  repos.ReadingHistoryRepo
	shelfRepo    repos.ShelfRepo
	feedbackRepo repos.RecommendationFeedbackRepo
	cache        RecommendationCacheStore
}

func NewRecommendationService(
	db *gorm.DB,
	log *logger.Logger,
	registry *recommendation.Registry,
	generator *recommendation.Generator,
	friends *recommendation.FriendAggregator,
	prefsRepo repos.PreferenceProfileRepo,
	historyRepo repos.ReadingHistoryRepo,
	shelfRepo repos.ShelfRepo,
	feedbackRepo repos.RecommendationFeedbackRepo,
	cache RecommendationCacheStore,
) RecommendationService {
	serviceLog := log.With("service", "RecommendationService")
	return &recommendationService{
		db:           db,
		log:          serviceLog,
		registry:     registry,
		generator:    generator,
		friends:      friends,
		prefsRepo:    prefsRepo,
		historyRepo:  historyRepo,
		shelfRepo:    shelfRepo,
		feedbackRepo: feedbackRepo,
		cache:        cache,
	}
}

// Surface serves one recommendation surface, cache first. A fresh cached
// slot short-circuits unless the caller forces a refresh; otherwise both
// surfaces are regenerated, the requested one is served immediately, and the
// cache write plus impression logging happen off the request path. A degraded
// list always beats no list.
func (rs *recommendationService) Surface(ctx context.Context, surface string, limit int, forceRefresh bool) (*RecommendationResult, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if surface != recommendation.SurfaceHome && surface != recommendation.SurfaceFriends {
		return nil, fmt.Errorf("%w: unknown surface %q", apperrors.ErrInvalidArgument, surface)
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	now := time.Now()
	var cached recommendation.CacheEntry
	haveCached := false
	if rs.cache != nil {
		cached, err = rs.cache.Get(ctx, userID)
		if err == nil {
			haveCached = true
			if slot := cached.Surface(surface); !forceRefresh && slot.Fresh(now) {
				return &RecommendationResult{
					Surface:     surface,
					Items:       truncate(slot.Items, limit),
					Algorithm:   slot.Algorithm,
					Source:      SourceCache,
					GeneratedAt: slot.GeneratedAt,
				}, nil
			}
		} else if !errors.Is(err, apperrors.ErrCacheMiss) {
			rs.log.Warn("recommendation cache unavailable, regenerating", "error", err)
		}
	}

	cfg := rs.registry.Resolve(userID)
	profile, profileErr := rs.prefsRepo.Profile(ctx, userID)
	if profileErr != nil {
		rs.log.Warn("preference profile unavailable, using empty profile", "error", profileErr)
		profile = recommendation.Profile{UserID: userID}
	}

	home := rs.generateHome(ctx, userID, profile, cfg, limit)
	friendsList, err := rs.friends.Recommend(ctx, userID, profile, cfg, limit)
	if err != nil {
		rs.log.Warn("friends surface generation failed", "error", err)
		friendsList = []recommendation.Scored{}
	}
	friendsList = rs.dropShelved(ctx, userID, friendsList)

	// A degraded list beats no list, but a dead profile store plus an empty
	// pipeline means the backing stores are unreachable, not that the user
	// has nothing to see. That is the one retryable failure callers get.
	if profileErr != nil && len(home) == 0 && len(friendsList) == 0 {
		return nil, fmt.Errorf("%w: recommendation stores unreachable", apperrors.ErrStoreUnavailable)
	}

	entry := recommendation.CacheEntry{UserID: userID.String()}
	if haveCached {
		entry = cached
	}
	ttl := time.Duration(cfg.CacheTTLHours) * time.Hour
	if rs.cache != nil && rs.cache.TTL() > 0 {
		ttl = rs.cache.TTL()
	}
	entry.WriteSurfaces(home, friendsList, cfg.Algorithm, ttl, now)

	if rs.cache != nil {
		go rs.persistEntry(entry)
	}

	var served *recommendation.CacheSurface
	if surface == recommendation.SurfaceHome {
		served = entry.Home
	} else {
		served = entry.Friends
	}
	if served == nil {
		served = &recommendation.CacheSurface{Algorithm: cfg.Algorithm, GeneratedAt: now}
	}

	go rs.recordImpressions(userID, truncate(served.Items, limit))

	return &RecommendationResult{
		Surface:     surface,
		Items:       truncate(served.Items, limit),
		Algorithm:   served.Algorithm,
		Source:      SourceFresh,
		GeneratedAt: served.GeneratedAt,
	}, nil
}

// generateHome runs the full hybrid pipeline: candidates, scoring, shelved
// filtering, diversity injection.
func (rs *recommendationService) generateHome(ctx context.Context, userID uuid.UUID, profile recommendation.Profile, cfg recommendation.Config, limit int) []recommendation.Scored {
	now := time.Now()
	candidates := rs.generator.Generate(ctx, userID, profile, cfg)
	scored := recommendation.ScoreCandidates(candidates, profile, cfg, now)
	scored = rs.dropShelved(ctx, userID, scored)

	shelvedGenres, err := rs.historyRepo.ShelvedGenres(ctx, userID)
	if err != nil {
		rs.log.Debug("shelved genres unavailable, entropy defaults low", "error", err)
		shelvedGenres = nil
	}
	final := recommendation.InjectDiversity(scored, profile, shelvedGenres, cfg, limit)
	if final == nil {
		final = []recommendation.Scored{}
	}
	return final
}

// dropShelved removes books the user already has on a shelf. Failure to load
// the shelf leaves the list as-is.
func (rs *recommendationService) dropShelved(ctx context.Context, userID uuid.UUID, items []recommendation.Scored) []recommendation.Scored {
	if len(items) == 0 {
		return items
	}
	ids, err := rs.shelfRepo.BookIDsByUser(ctx, nil, userID)
	if err != nil {
		rs.log.Debug("shelf lookup failed, serving unfiltered list", "error", err)
		return items
	}
	if len(ids) == 0 {
		return items
	}
	owned := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		owned[id] = true
	}
	out := items[:0]
	for _, item := range items {
		if owned[item.BookID] {
			continue
		}
		out = append(out, item)
	}
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}

func (rs *recommendationService) persistEntry(entry recommendation.CacheEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rs.cache.Put(ctx, entry); err != nil {
		rs.log.Warn("failed to persist recommendation cache entry", "error", err)
	}
}

// recordImpressions logs shown events for a freshly served list. Fire and
// forget; serving never waits on feedback rows.
func (rs *recommendationService) recordImpressions(userID uuid.UUID, items []recommendation.Scored) {
	if len(items) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	events := make([]repos.FeedbackEvent, 0, len(items))
	now := time.Now().UTC()
	for _, item := range items {
		breakdown, _ := json.Marshal(item.Breakdown)
		events = append(events, repos.FeedbackEvent{
			UserID:    userID,
			BookID:    item.BookID,
			Algorithm: item.Algorithm,
			Position:  item.Position,
			Score:     item.Score,
			Breakdown: datatypes.JSON(breakdown),
			At:        now,
		})
	}
	if err := rs.feedbackRepo.RecordShownBatch(ctx, events); err != nil {
		rs.log.Warn("failed to record impressions", "error", err)
	}
}

func (rs *recommendationService) RecordFeedback(ctx context.Context, input FeedbackInput) error {
	userID, err := currentUserID(ctx)
	if err != nil {
		return err
	}
	switch input.Action {
	case types.FeedbackShown, types.FeedbackClicked, types.FeedbackConverted, types.FeedbackDismissed:
	default:
		return fmt.Errorf("%w: unknown action %q", apperrors.ErrInvalidArgument, input.Action)
	}
	if input.BookID == uuid.Nil {
		return fmt.Errorf("%w: book id required", apperrors.ErrInvalidArgument)
	}
	if input.Algorithm == "" {
		return fmt.Errorf("%w: algorithm required", apperrors.ErrInvalidArgument)
	}

	breakdown, _ := json.Marshal(input.Breakdown)
	return rs.feedbackRepo.Record(ctx, nil, repos.FeedbackEvent{
		UserID:    userID,
		BookID:    input.BookID,
		Algorithm: input.Algorithm,
		Action:    input.Action,
		Position:  input.Position,
		Score:     input.Score,
		Breakdown: datatypes.JSON(breakdown),
		At:        time.Now().UTC(),
	})
}

// Metrics summarizes the feedback funnel per algorithm over a rolling window.
// Naming an algorithm narrows the result to it; an algorithm with no events
// in the window reports all-zero metrics rather than being absent.
func (rs *recommendationService) Metrics(ctx context.Context, algorithm string, windowDays int) ([]recommendation.AlgorithmMetrics, error) {
	if windowDays <= 0 || windowDays > 90 {
		windowDays = 7
	}
	since := time.Now().AddDate(0, 0, -windowDays)
	counts, err := rs.feedbackRepo.CountsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load funnel counts: %w", err)
	}
	if algorithm != "" {
		for _, c := range counts {
			if c.Algorithm == algorithm {
				return []recommendation.AlgorithmMetrics{
					recommendation.ComputeMetrics(c.Algorithm, windowDays, c.Shown, c.Clicked, c.Converted, c.Dismissed),
				}, nil
			}
		}
		return []recommendation.AlgorithmMetrics{
			recommendation.ComputeMetrics(algorithm, windowDays, 0, 0, 0, 0),
		}, nil
	}
	out := make([]recommendation.AlgorithmMetrics, 0, len(counts))
	for _, c := range counts {
		out = append(out, recommendation.ComputeMetrics(c.Algorithm, windowDays, c.Shown, c.Clicked, c.Converted, c.Dismissed))
	}
	return out, nil
}

func truncate(items []recommendation.Scored, limit int) []recommendation.Scored {
	if items == nil {
		return []recommendation.Scored{}
	}
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
