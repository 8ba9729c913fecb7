package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/novelshelf/novelshelf-backend/internal/logger"
	apperrors "github.com/novelshelf/novelshelf-backend/internal/pkg/errors"
	"github.com/novelshelf/novelshelf-backend/internal/recommendation"
	"github.com/novelshelf/novelshelf-backend/internal/repos"
	"github.com/novelshelf/novelshelf-backend/internal/requestdata"
	"github.com/novelshelf/novelshelf-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func authedContext(userID uuid.UUID) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: userID})
}

// stubCatalog errors on every call when fail is set; otherwise it serves the
// configured trending list and nothing else.
type stubCatalog struct {
	fail     bool
	trending []recommendation.Book
}

func (s *stubCatalog) BooksByGenres(ctx context.Context, genres []string, limit int) ([]recommendation.Book, error) {
	if s.fail {
		return nil, errors.New("catalog down")
	}
	return nil, nil
}

func (s *stubCatalog) BooksByAuthors(ctx context.Context, authors []string, limit int) ([]recommendation.Book, error) {
	if s.fail {
		return nil, errors.New("catalog down")
	}
	return nil, nil
}

func (s *stubCatalog) TrendingBooks(ctx context.Context, genres []string, minRating float64, limit int) ([]recommendation.Book, error) {
	if s.fail {
		return nil, errors.New("catalog down")
	}
	return s.trending, nil
}

func (s *stubCatalog) PopularBooks(ctx context.Context, minRating float64, minRatingsCount, limit int) ([]recommendation.Book, error) {
	if s.fail {
		return nil, errors.New("catalog down")
	}
	return nil, nil
}

func (s *stubCatalog) BooksByIDs(ctx context.Context, ids []uuid.UUID) ([]recommendation.Book, error) {
	if s.fail {
		return nil, errors.New("catalog down")
	}
	return nil, nil
}

type downSocial struct{}

func (downSocial) Following(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return nil, errors.New("graph down")
}

func (downSocial) Activity(ctx context.Context, userID uuid.UUID) (recommendation.ActivitySet, error) {
	return recommendation.ActivitySet{}, errors.New("graph down")
}

func (downSocial) MutualFriendCount(ctx context.Context, userID, otherID uuid.UUID) (int, error) {
	return 0, errors.New("graph down")
}

func (downSocial) InteractionCount(ctx context.Context, userID, otherID uuid.UUID) (int, error) {
	return 0, errors.New("graph down")
}

type downHistory struct{}

func (downHistory) HighRatedRecent(ctx context.Context, userID uuid.UUID, minRating float64, limit int) ([]recommendation.Book, error) {
	return nil, errors.New("history down")
}

func (downHistory) ShelvedGenres(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return nil, errors.New("history down")
}

type emptyDirectory struct{}

func (emptyDirectory) DisplayNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	return map[uuid.UUID]string{}, nil
}

// downPrefs satisfies repos.PreferenceProfileRepo with a dead profile store.
type downPrefs struct{}

func (downPrefs) Profile(ctx context.Context, userID uuid.UUID) (recommendation.Profile, error) {
	return recommendation.Profile{}, errors.New("profile store down")
}

func (downPrefs) Upsert(ctx context.Context, tx *gorm.DB, profile *types.PreferenceProfile) error {
	return errors.New("profile store down")
}

func (downPrefs) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.PreferenceProfile, error) {
	return nil, errors.New("profile store down")
}

type stubShelf struct{}

func (stubShelf) Upsert(ctx context.Context, tx *gorm.DB, item *types.ShelfItem) (*types.ShelfItem, error) {
	return item, nil
}

func (stubShelf) Remove(ctx context.Context, tx *gorm.DB, userID, bookID uuid.UUID) error {
	return nil
}

func (stubShelf) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, shelf string) ([]*types.ShelfItem, error) {
	return nil, nil
}

func (stubShelf) BookIDsByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (stubShelf) ShelvedGenres(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return nil, nil
}

type stubFeedback struct {
	counts []repos.FunnelCounts
}

func (s *stubFeedback) Record(ctx context.Context, tx *gorm.DB, event repos.FeedbackEvent) error {
	return nil
}

func (s *stubFeedback) RecordShownBatch(ctx context.Context, events []repos.FeedbackEvent) error {
	return nil
}

func (s *stubFeedback) CountsSince(ctx context.Context, since time.Time) ([]repos.FunnelCounts, error) {
	return s.counts, nil
}

func recServiceWith(t *testing.T, catalog *stubCatalog, feedback *stubFeedback) RecommendationService {
	t.Helper()
	log := testLogger(t)
	registry := recommendation.NewRegistry(log, recommendation.DefaultConfig(), nil)
	prefs := downPrefs{}
	history := downHistory{}
	gen := recommendation.NewGenerator(log, catalog, downSocial{}, history, emptyDirectory{}, time.Second)
	agg := recommendation.NewFriendAggregator(log, downSocial{}, catalog, prefs, emptyDirectory{}, time.Second)
	return NewRecommendationService(nil, log, registry, gen, agg, prefs, history, stubShelf{}, feedback, nil)
}

func TestSurfaceStoreOutage(t *testing.T) {
	ctx := authedContext(uuid.New())

	t.Run("profile and catalog both down", func(t *testing.T) {
		svc := recServiceWith(t, &stubCatalog{fail: true}, &stubFeedback{})
		_, err := svc.Surface(ctx, recommendation.SurfaceHome, 20, false)
		if !errors.Is(err, apperrors.ErrStoreUnavailable) {
			t.Fatalf("err = %v, want ErrStoreUnavailable", err)
		}
	})

	t.Run("profile down but catalog serving degrades, not fails", func(t *testing.T) {
		trending := recommendation.Book{
			ID:            uuid.New(),
			Title:         "Hot Right Now",
			Genres:        []string{"thriller"},
			AverageRating: 4.5,
			RatingsCount:  900,
		}
		svc := recServiceWith(t, &stubCatalog{trending: []recommendation.Book{trending}}, &stubFeedback{})
		result, err := svc.Surface(ctx, recommendation.SurfaceHome, 20, false)
		if err != nil {
			t.Fatalf("Surface: %v", err)
		}
		if result.Source != SourceFresh {
			t.Errorf("source = %q, want fresh", result.Source)
		}
		if len(result.Items) == 0 {
			t.Error("expected the trending fallback to serve items")
		}
	})
}

func TestMetricsByAlgorithm(t *testing.T) {
	feedback := &stubFeedback{counts: []repos.FunnelCounts{
		{Algorithm: "hybrid-v1", Shown: 100, Clicked: 25, Converted: 5},
	}}
	svc := recServiceWith(t, &stubCatalog{}, feedback)
	ctx := context.Background()

	t.Run("named algorithm with events", func(t *testing.T) {
		out, err := svc.Metrics(ctx, "hybrid-v1", 7)
		if err != nil {
			t.Fatalf("Metrics: %v", err)
		}
		if len(out) != 1 || out[0].Algorithm != "hybrid-v1" {
			t.Fatalf("unexpected metrics: %+v", out)
		}
		if out[0].CTR != 0.25 || out[0].ConversionRate != 0.2 {
			t.Errorf("rates = %v/%v, want 0.25/0.2", out[0].CTR, out[0].ConversionRate)
		}
	})

	t.Run("named algorithm without events reports zeroes", func(t *testing.T) {
		out, err := svc.Metrics(ctx, "hybrid-v1:unlaunched", 7)
		if err != nil {
			t.Fatalf("Metrics: %v", err)
		}
		if len(out) != 1 {
			t.Fatalf("got %d entries, want 1", len(out))
		}
		m := out[0]
		if m.Algorithm != "hybrid-v1:unlaunched" || m.WindowDays != 7 {
			t.Errorf("labels lost: %+v", m)
		}
		if m.Shown != 0 || m.Clicked != 0 || m.Converted != 0 || m.CTR != 0 || m.ConversionRate != 0 {
			t.Errorf("expected all-zero metrics, got %+v", m)
		}
	})

	t.Run("no filter lists every algorithm", func(t *testing.T) {
		out, err := svc.Metrics(ctx, "", 7)
		if err != nil {
			t.Fatalf("Metrics: %v", err)
		}
		if len(out) != 1 || out[0].Algorithm != "hybrid-v1" {
			t.Fatalf("unexpected metrics: %+v", out)
		}
	})
}
