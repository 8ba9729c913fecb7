package recommendation

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/novelshelf/novelshelf-backend/internal/logger"
)

// CatalogStore is the read-side catalog the generator pulls candidates from.
type CatalogStore interface {
	// BooksByGenres returns cover-bearing entries matching any genre,
	// sorted by rating desc then publication date desc.
	BooksByGenres(ctx context.Context, genres []string, limit int) ([]Book, error)
	BooksByAuthors(ctx context.Context, authors []string, limit int) ([]Book, error)
	// TrendingBooks ranks by ratings-count desc among entries at or above
	// minRating, optionally restricted to the given genres.
	TrendingBooks(ctx context.Context, genres []string, minRating float64, limit int) ([]Book, error)
	// PopularBooks is the quality-gated global backfill pool.
	PopularBooks(ctx context.Context, minRating float64, minRatingsCount, limit int) ([]Book, error)
	BooksByIDs(ctx context.Context, ids []uuid.UUID) ([]Book, error)
}

// ActivitySet is a user's social activity: books they liked or shelved.
type ActivitySet struct {
	Liked   []uuid.UUID
	Shelved []uuid.UUID
}

// SocialGraphStore exposes the follow graph.
type SocialGraphStore interface {
	Following(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	Activity(ctx context.Context, userID uuid.UUID) (ActivitySet, error)
	MutualFriendCount(ctx context.Context, userID, otherID uuid.UUID) (int, error)
	InteractionCount(ctx context.Context, userID, otherID uuid.UUID) (int, error)
}

// PreferenceStore reads taste profiles. The write path is owned by the
// external signal-ingestion pipeline.
type PreferenceStore interface {
	Profile(ctx context.Context, userID uuid.UUID) (Profile, error)
}

// ReadingHistoryStore reads a user's own reading record.
type ReadingHistoryStore interface {
	// HighRatedRecent returns the user's most recent reads rated at or
	// above minRating, newest first.
	HighRatedRecent(ctx context.Context, userID uuid.UUID, minRating float64, limit int) ([]Book, error)
	// ShelvedGenres returns the raw genre strings across every book the
	// user has shelved, with repetition (the entropy input).
	ShelvedGenres(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// UserDirectory resolves display names for explanation strings.
type UserDirectory interface {
	DisplayNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

const maxFriendsScanned = 25

// Generator fans out to the five candidate strategies. Strategies run
// concurrently against disjoint stores; each carries its own timeout, and a
// failed or timed-out strategy contributes zero candidates instead of
// aborting the request.
type Generator struct {
	log     *logger.Logger
	catalog CatalogStore
	social  SocialGraphStore
	history ReadingHistoryStore
	users   UserDirectory
	timeout time.Duration
}

func NewGenerator(log *logger.Logger, catalog CatalogStore, social SocialGraphStore, history ReadingHistoryStore, users UserDirectory, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Generator{
		log:     log.With("component", "CandidateGenerator"),
		catalog: catalog,
		social:  social,
		history: history,
		users:   users,
		timeout: timeout,
	}
}

// Generate builds the deduplicated, strategy-tagged candidate pool for one
// request. An empty profile degrades the genre/author/similar strategies to
// empty; the pool is then trending (and friend) only, possibly empty.
func (g *Generator) Generate(ctx context.Context, userID uuid.UUID, profile Profile, cfg Config) []Candidate {
	var (
		genreCands    []Candidate
		authorCands   []Candidate
		friendCands   []Candidate
		similarCands  []Candidate
		trendingCands []Candidate
	)

	grp, grpCtx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		genreCands = g.genreStrategy(grpCtx, profile, cfg)
		return nil
	})
	grp.Go(func() error {
		authorCands = g.authorStrategy(grpCtx, profile, cfg)
		return nil
	})
	grp.Go(func() error {
		friendCands = g.friendStrategy(grpCtx, userID, cfg)
		return nil
	})
	grp.Go(func() error {
		similarCands = g.similarStrategy(grpCtx, userID, profile, cfg)
		return nil
	})
	grp.Go(func() error {
		trendingCands = g.trendingStrategy(grpCtx, profile, cfg)
		return nil
	})
	_ = grp.Wait()

	pool := make([]Candidate, 0, cfg.Quotas.Total())
	seen := make(map[uuid.UUID]bool, cfg.Quotas.Total())
	appendBounded := func(cands []Candidate, quota int) {
		taken := 0
		for _, c := range cands {
			if taken >= quota {
				break
			}
			if c.Book.ID == uuid.Nil || seen[c.Book.ID] {
				continue
			}
			seen[c.Book.ID] = true
			pool = append(pool, c)
			taken++
		}
	}
	appendBounded(genreCands, cfg.Quotas.Genre)
	appendBounded(authorCands, cfg.Quotas.Author)
	appendBounded(friendCands, cfg.Quotas.Friend)
	appendBounded(similarCands, cfg.Quotas.Similar)
	appendBounded(trendingCands, cfg.Quotas.Trending)

	if shortfall := cfg.Quotas.Total() - len(pool); shortfall > 0 {
		pool = g.backfillPopular(ctx, pool, seen, shortfall, cfg)
	}
	return pool
}

func (g *Generator) genreStrategy(ctx context.Context, profile Profile, cfg Config) []Candidate {
	if len(profile.TopGenres) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	genres := make([]string, 0, len(profile.TopGenres))
	for _, tg := range profile.TopGenres {
		genres = append(genres, expandGenre(tg.Genre, cfg.GenreSynonyms)...)
	}
	books, err := g.catalog.BooksByGenres(ctx, genres, cfg.Quotas.Genre)
	if err != nil {
		g.log.Warn("genre strategy degraded to empty", "error", err)
		return nil
	}
	return tag(books, StrategyGenre)
}

func (g *Generator) authorStrategy(ctx context.Context, profile Profile, cfg Config) []Candidate {
	if len(profile.FavoriteAuthors) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	authors := profile.FavoriteAuthors
	if len(authors) > 5 {
		authors = authors[:5]
	}
	books, err := g.catalog.BooksByAuthors(ctx, authors, cfg.Quotas.Author)
	if err != nil {
		g.log.Warn("author strategy degraded to empty", "error", err)
		return nil
	}
	return tag(books, StrategyAuthor)
}

func (g *Generator) friendStrategy(ctx context.Context, userID uuid.UUID, cfg Config) []Candidate {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	following, err := g.social.Following(ctx, userID)
	if err != nil {
		g.log.Warn("friend strategy degraded to empty", "error", err)
		return nil
	}
	if len(following) == 0 {
		return nil
	}
	if len(following) > maxFriendsScanned {
		following = following[:maxFriendsScanned]
	}

	contributors := make(map[uuid.UUID][]uuid.UUID)
	for _, friendID := range following {
		activity, err := g.social.Activity(ctx, friendID)
		if err != nil {
			g.log.Debug("friend activity unavailable, skipping", "error", err)
			continue
		}
		for _, bookID := range append(activity.Liked, activity.Shelved...) {
			already := false
			for _, f := range contributors[bookID] {
				if f == friendID {
					already = true
					break
				}
			}
			if !already {
				contributors[bookID] = append(contributors[bookID], friendID)
			}
		}
	}
	if len(contributors) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(contributors))
	for id := range contributors {
		ids = append(ids, id)
	}
	books, err := g.catalog.BooksByIDs(ctx, ids)
	if err != nil {
		g.log.Warn("friend strategy degraded to empty", "error", err)
		return nil
	}

	names := map[uuid.UUID]string{}
	if g.users != nil {
		if resolved, err := g.users.DisplayNames(ctx, following); err == nil {
			names = resolved
		}
	}

	cands := make([]Candidate, 0, len(books))
	for _, b := range books {
		friendIDs := contributors[b.ID]
		friendNames := make([]string, 0, len(friendIDs))
		for _, fid := range friendIDs {
			if name := names[fid]; name != "" {
				friendNames = append(friendNames, name)
			}
		}
		cands = append(cands, Candidate{
			Book:        b,
			Strategy:    StrategyFriend,
			FriendCount: len(friendIDs),
			FriendNames: friendNames,
		})
	}
	// Most socially active books first.
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].FriendCount != cands[j].FriendCount {
			return cands[i].FriendCount > cands[j].FriendCount
		}
		return cands[i].Book.ID.String() < cands[j].Book.ID.String()
	})
	return cands
}

func (g *Generator) similarStrategy(ctx context.Context, userID uuid.UUID, profile Profile, cfg Config) []Candidate {
	if profile.Empty() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	seeds, err := g.history.HighRatedRecent(ctx, userID, cfg.Quality.MinSimilarRating, 3)
	if err != nil {
		g.log.Warn("similar strategy degraded to empty", "error", err)
		return nil
	}
	if len(seeds) == 0 {
		return nil
	}

	perSeed := cfg.Quotas.Similar/len(seeds) + 1
	var cands []Candidate
	seen := map[uuid.UUID]bool{}
	for _, seed := range seeds {
		seen[seed.ID] = true
	}
	for _, seed := range seeds {
		books, err := g.catalog.BooksByGenres(ctx, seed.Genres, perSeed)
		if err != nil {
			g.log.Debug("similar lookup failed for seed, skipping", "error", err)
			continue
		}
		if len(seed.Authors) > 0 {
			byAuthor, err := g.catalog.BooksByAuthors(ctx, seed.Authors, 2)
			if err == nil {
				books = append(books, byAuthor...)
			}
		}
		for _, b := range books {
			if seen[b.ID] {
				continue
			}
			seen[b.ID] = true
			cands = append(cands, Candidate{Book: b, Strategy: StrategySimilar, SimilarTo: seed.Title})
		}
	}
	return cands
}

func (g *Generator) trendingStrategy(ctx context.Context, profile Profile, cfg Config) []Candidate {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	var genres []string
	for _, tg := range profile.TopGenres {
		genres = append(genres, expandGenre(tg.Genre, cfg.GenreSynonyms)...)
	}
	books, err := g.catalog.TrendingBooks(ctx, genres, cfg.Quality.MinTrendingRating, cfg.Quotas.Trending)
	if err != nil {
		g.log.Warn("trending strategy degraded to empty", "error", err)
		return nil
	}
	return tag(books, StrategyTrending)
}

// backfillPopular tops up a short pool from globally popular quality-eligible
// entries, skipping already-collected ids.
func (g *Generator) backfillPopular(ctx context.Context, pool []Candidate, seen map[uuid.UUID]bool, shortfall int, cfg Config) []Candidate {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	books, err := g.catalog.PopularBooks(ctx, cfg.Quality.MinTrendingRating, cfg.Quality.MinRatingsCount, shortfall+len(seen))
	if err != nil {
		g.log.Warn("popular backfill unavailable", "error", err)
		return pool
	}
	added := 0
	for _, b := range books {
		if added >= shortfall {
			break
		}
		if seen[b.ID] {
			continue
		}
		seen[b.ID] = true
		pool = append(pool, Candidate{Book: b, Strategy: StrategyPopular})
		added++
	}
	return pool
}

func tag(books []Book, strategy Strategy) []Candidate {
	cands := make([]Candidate, 0, len(books))
	for _, b := range books {
		cands = append(cands, Candidate{Book: b, Strategy: strategy})
	}
	return cands
}

// expandGenre returns the synonym list for a canonical genre so substring
// filters in the catalog store catch every spelling.
func expandGenre(genre string, synonyms map[string][]string) []string {
	canonical := NormalizeGenre(genre, synonyms)
	if syns, ok := synonyms[canonical]; ok {
		return syns
	}
	if canonical == "" {
		return nil
	}
	return []string{canonical}
}
