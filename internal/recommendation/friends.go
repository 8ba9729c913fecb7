package recommendation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/novelshelf/novelshelf-backend/internal/logger"
)

// FriendAggregator is the independent ranking pass behind the "friends"
// surface. It weighs each followed user's liked/shelved books by that
// friend's derived friendship strength and ranks the per-book sums.
type FriendAggregator struct {
	log     *logger.Logger
	social  SocialGraphStore
	catalog CatalogStore
	prefs   PreferenceStore
	users   UserDirectory
	timeout time.Duration
}

func NewFriendAggregator(log *logger.Logger, social SocialGraphStore, catalog CatalogStore, prefs PreferenceStore, users UserDirectory, timeout time.Duration) *FriendAggregator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FriendAggregator{
		log:     log.With("component", "FriendSignalAggregator"),
		social:  social,
		catalog: catalog,
		prefs:   prefs,
		users:   users,
		timeout: timeout,
	}
}

type friendContribution struct {
	friendID uuid.UUID
	strength float64
}

// Recommend ranks books from the user's social circle. Zero followed users
// yields an empty result, not an error.
func (a *FriendAggregator) Recommend(ctx context.Context, userID uuid.UUID, profile Profile, cfg Config, limit int) ([]Scored, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	following, err := a.social.Following(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load following: %w", err)
	}
	if len(following) == 0 {
		return []Scored{}, nil
	}
	if len(following) > maxFriendsScanned {
		following = following[:maxFriendsScanned]
	}

	bookWeights := make(map[uuid.UUID]float64)
	bookContribs := make(map[uuid.UUID][]friendContribution)
	for _, friendID := range following {
		strength := a.strengthFor(ctx, userID, friendID, profile, cfg)
		activity, err := a.social.Activity(ctx, friendID)
		if err != nil {
			a.log.Debug("friend activity unavailable, skipping", "error", err)
			continue
		}
		seen := map[uuid.UUID]bool{}
		for _, bookID := range append(activity.Liked, activity.Shelved...) {
			if seen[bookID] {
				continue
			}
			seen[bookID] = true
			bookWeights[bookID] += strength
			bookContribs[bookID] = append(bookContribs[bookID], friendContribution{friendID: friendID, strength: strength})
		}
	}
	if len(bookWeights) == 0 {
		return []Scored{}, nil
	}

	ids := make([]uuid.UUID, 0, len(bookWeights))
	for id := range bookWeights {
		ids = append(ids, id)
	}
	books, err := a.catalog.BooksByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load friend books: %w", err)
	}

	names := map[uuid.UUID]string{}
	if a.users != nil {
		if resolved, err := a.users.DisplayNames(ctx, following); err == nil {
			names = resolved
		}
	}

	out := make([]Scored, 0, len(books))
	for _, b := range books {
		contribs := bookContribs[b.ID]
		sort.SliceStable(contribs, func(i, j int) bool {
			if contribs[i].strength != contribs[j].strength {
				return contribs[i].strength > contribs[j].strength
			}
			return contribs[i].friendID.String() < contribs[j].friendID.String()
		})
		out = append(out, Scored{
			BookID: b.ID,
			Book:   b,
			Score:  bookWeights[b.ID],
			Breakdown: map[string]float64{
				"friend_signal": bookWeights[b.ID],
			},
			Reason:    friendReason(contribs, names),
			Algorithm: "friend-activity",
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].BookID.String() < out[j].BookID.String()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Position = i + 1
	}
	return out, nil
}

// strengthFor derives the pairwise friendship strength; every input that
// cannot be loaded degrades to zero rather than failing the pass.
func (a *FriendAggregator) strengthFor(ctx context.Context, userID, friendID uuid.UUID, profile Profile, cfg Config) float64 {
	interactions, err := a.social.InteractionCount(ctx, userID, friendID)
	if err != nil {
		interactions = 0
	}
	mutuals, err := a.social.MutualFriendCount(ctx, userID, friendID)
	if err != nil {
		mutuals = 0
	}
	overlap := 0.0
	if a.prefs != nil {
		if friendProfile, err := a.prefs.Profile(ctx, friendID); err == nil {
			overlap = GenreOverlap(genreNames(profile.TopGenres), genreNames(friendProfile.TopGenres), cfg.GenreSynonyms)
		}
	}
	return FriendshipStrength(interactions, mutuals, overlap, cfg.Friendship)
}

func friendReason(contribs []friendContribution, names map[uuid.UUID]string) string {
	lead := "Someone you follow"
	if len(contribs) > 0 {
		if name := names[contribs[0].friendID]; name != "" {
			lead = name
		}
	}
	if len(contribs) > 1 {
		return fmt.Sprintf("%s and %d others you follow loved this", lead, len(contribs)-1)
	}
	return fmt.Sprintf("%s loved this", lead)
}

func genreNames(genres []ProfileGenre) []string {
	out := make([]string, 0, len(genres))
	for _, g := range genres {
		out = append(out, g.Genre)
	}
	return out
}
