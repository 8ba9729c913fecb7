package recommendation

import (
	"time"

	"github.com/google/uuid"
)

// Surface is the caller-facing list a recommendation set is built for.
const (
	SurfaceHome    = "home"
	SurfaceFriends = "friends"
)

// Strategy tags where a candidate came from.
type Strategy string

const (
	StrategyGenre    Strategy = "genre"
	StrategyAuthor   Strategy = "author"
	StrategyFriend   Strategy = "friend"
	StrategySimilar  Strategy = "similar"
	StrategyTrending Strategy = "trending"
	StrategyPopular  Strategy = "popular"
)

// ProfileGenre is one ranked genre in a user's taste profile.
type ProfileGenre struct {
	Genre  string  `json:"genre"`
	Weight float64 `json:"weight"`
}

// Profile is the read-side view of a user's preference profile.
type Profile struct {
	UserID               uuid.UUID          `json:"user_id"`
	TopGenres            []ProfileGenre     `json:"top_genres"`
	FavoriteAuthors      []string           `json:"favorite_authors"`
	ImplicitGenreWeights map[string]float64 `json:"implicit_genre_weights"`
	ReadingPace          float64            `json:"reading_pace"`
}

// Empty reports whether the profile carries no explicit taste signal.
// An empty profile degrades the genre/author/similar strategies to zero
// candidates; it never causes an error.
func (p Profile) Empty() bool {
	return len(p.TopGenres) == 0 && len(p.FavoriteAuthors) == 0
}

// Book is the scoring-side view of a catalog entry.
type Book struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Authors       []string  `json:"authors"`
	Genres        []string  `json:"genres"`
	CoverURL      string    `json:"cover_url"`
	PageCount     int       `json:"page_count"`
	PublishedDate time.Time `json:"published_date"`
	AverageRating float64   `json:"average_rating"`
	RatingsCount  int       `json:"ratings_count"`
}

// Candidate is a strategy-tagged book under consideration. Ephemeral,
// per-request only.
type Candidate struct {
	Book     Book
	Strategy Strategy
	// FriendCount is the number of distinct followed users whose activity
	// contributed this book (friend strategy only).
	FriendCount int
	// FriendNames holds contributing friends' display names, strongest first.
	FriendNames []string
	// SimilarTo is the title of the highly rated read this candidate
	// resembles (similar strategy only).
	SimilarTo string
}

// Scored is a ranked recommendation with its explanation.
type Scored struct {
	BookID    uuid.UUID          `json:"book_id"`
	Book      Book               `json:"book"`
	Score     float64            `json:"score"`
	Breakdown map[string]float64 `json:"breakdown"`
	Reason    string             `json:"reason"`
	Algorithm string             `json:"algorithm"`
	Position  int                `json:"position"`
}

// AlgorithmMetrics is the rolling-window funnel summary for one algorithm tag.
type AlgorithmMetrics struct {
	Algorithm      string  `json:"algorithm"`
	WindowDays     int     `json:"window_days"`
	Shown          int     `json:"shown"`
	Clicked        int     `json:"clicked"`
	Converted      int     `json:"converted"`
	Dismissed      int     `json:"dismissed"`
	CTR            float64 `json:"ctr"`
	ConversionRate float64 `json:"conversion_rate"`
}

// ComputeMetrics derives funnel rates from raw counts. Zero activity yields
// all-zero metrics rather than NaN.
func ComputeMetrics(algorithm string, windowDays, shown, clicked, converted, dismissed int) AlgorithmMetrics {
	m := AlgorithmMetrics{
		Algorithm:  algorithm,
		WindowDays: windowDays,
		Shown:      shown,
		Clicked:    clicked,
		Converted:  converted,
		Dismissed:  dismissed,
	}
	if shown > 0 {
		m.CTR = float64(clicked) / float64(shown)
	}
	if clicked > 0 {
		m.ConversionRate = float64(converted) / float64(clicked)
	}
	return m
}
