package recommendation

import (
	"fmt"
	"math"
)

// ScoringWeights are the per-factor multipliers of the hybrid score.
// They should sum to roughly 1.0; Validate warns, it does not reject.
type ScoringWeights struct {
	GenreMatch     float64 `yaml:"genre_match" json:"genre_match"`
	AuthorMatch    float64 `yaml:"author_match" json:"author_match"`
	QualityScore   float64 `yaml:"quality_score" json:"quality_score"`
	FriendActivity float64 `yaml:"friend_activity" json:"friend_activity"`
	TrendingBonus  float64 `yaml:"trending_bonus" json:"trending_bonus"`
	RecencyBonus   float64 `yaml:"recency_bonus" json:"recency_bonus"`
	DiversityBonus float64 `yaml:"diversity_bonus" json:"diversity_bonus"`
}

func (w ScoringWeights) Sum() float64 {
	return w.GenreMatch + w.AuthorMatch + w.QualityScore + w.FriendActivity +
		w.TrendingBonus + w.RecencyBonus + w.DiversityBonus
}

// SignalWeights weight raw preference signals during profile ingestion.
// The ingestion path lives outside this service; the values ride along in
// the config so experiment variants can tune them in one place.
type SignalWeights struct {
	RatingFiveStar  float64 `yaml:"rating_five_star" json:"rating_five_star"`
	RatingFourStar  float64 `yaml:"rating_four_star" json:"rating_four_star"`
	RatingThreeStar float64 `yaml:"rating_three_star" json:"rating_three_star"`
	RatingLow       float64 `yaml:"rating_low" json:"rating_low"`
	Like            float64 `yaml:"like" json:"like"`
	Shelve          float64 `yaml:"shelve" json:"shelve"`
	Dismiss         float64 `yaml:"dismiss" json:"dismiss"`
}

// FriendshipParams shape the derived friendship-strength scalar.
type FriendshipParams struct {
	Base                  float64 `yaml:"base" json:"base"`
	InteractionWeight     float64 `yaml:"interaction_weight" json:"interaction_weight"`
	InteractionCap        float64 `yaml:"interaction_cap" json:"interaction_cap"`
	MutualFriendWeight    float64 `yaml:"mutual_friend_weight" json:"mutual_friend_weight"`
	MutualFriendCap       float64 `yaml:"mutual_friend_cap" json:"mutual_friend_cap"`
	TasteSimilarityWeight float64 `yaml:"taste_similarity_weight" json:"taste_similarity_weight"`
}

// DiversityParams control the exploitation/exploration split of the final list.
type DiversityParams struct {
	QualityRatio         float64 `yaml:"quality_ratio" json:"quality_ratio"`
	PerGenreCap          int     `yaml:"per_genre_cap" json:"per_genre_cap"`
	HighEntropyThreshold float64 `yaml:"high_entropy_threshold" json:"high_entropy_threshold"`
	// OverlapPenalty is subtracted per already-selected item sharing a genre
	// or author with the pick under consideration.
	OverlapPenalty float64 `yaml:"overlap_penalty" json:"overlap_penalty"`
}

// StrategyQuotas bound each candidate source.
type StrategyQuotas struct {
	Genre    int `yaml:"genre" json:"genre"`
	Author   int `yaml:"author" json:"author"`
	Friend   int `yaml:"friend" json:"friend"`
	Similar  int `yaml:"similar" json:"similar"`
	Trending int `yaml:"trending" json:"trending"`
}

func (q StrategyQuotas) Total() int {
	return q.Genre + q.Author + q.Friend + q.Similar + q.Trending
}

// QualityThresholds gate low-confidence catalog entries.
type QualityThresholds struct {
	MinTrendingRating float64 `yaml:"min_trending_rating" json:"min_trending_rating"`
	MinSimilarRating  float64 `yaml:"min_similar_rating" json:"min_similar_rating"`
	// MinRatingsCount is the smallest rating sample the quality factor
	// trusts; below it the factor contributes zero.
	MinRatingsCount int `yaml:"min_ratings_count" json:"min_ratings_count"`
	MinPageCount    int `yaml:"min_page_count" json:"min_page_count"`
	MaxPageCount    int `yaml:"max_page_count" json:"max_page_count"`
}

// ContextParams are the post-sum situational adjustments.
type ContextParams struct {
	MorningStartHour      int     `yaml:"morning_start_hour" json:"morning_start_hour"`
	MorningEndHour        int     `yaml:"morning_end_hour" json:"morning_end_hour"`
	MorningShortBookPages int     `yaml:"morning_short_book_pages" json:"morning_short_book_pages"`
	MorningShortBookBoost float64 `yaml:"morning_short_book_boost" json:"morning_short_book_boost"`
	SlowReaderPace        float64 `yaml:"slow_reader_pace" json:"slow_reader_pace"`
	SlowReaderPageCeiling int     `yaml:"slow_reader_page_ceiling" json:"slow_reader_page_ceiling"`
}

// Config is the full set of recommendation tunables. It is constructed once,
// never mutated, and threaded explicitly through every call.
type Config struct {
	Algorithm      string              `yaml:"algorithm" json:"algorithm"`
	Weights        ScoringWeights      `yaml:"weights" json:"weights"`
	Signals        SignalWeights       `yaml:"signals" json:"signals"`
	Friendship     FriendshipParams    `yaml:"friendship" json:"friendship"`
	Diversity      DiversityParams     `yaml:"diversity" json:"diversity"`
	Quotas         StrategyQuotas      `yaml:"quotas" json:"quotas"`
	Quality        QualityThresholds   `yaml:"quality" json:"quality"`
	Context        ContextParams       `yaml:"context" json:"context"`
	RecencyEnabled bool                `yaml:"recency_enabled" json:"recency_enabled"`
	CacheTTLHours  int                 `yaml:"cache_ttl_hours" json:"cache_ttl_hours"`
	GenreSynonyms  map[string][]string `yaml:"genre_synonyms" json:"genre_synonyms"`
	AdjacentGenres map[string][]string `yaml:"adjacent_genres" json:"adjacent_genres"`
}

// DefaultConfig returns the embedded control configuration. Every resolution
// path falls back to it, so it must always be valid on its own.
func DefaultConfig() Config {
	return Config{
		Algorithm: "hybrid-v1",
		Weights: ScoringWeights{
			GenreMatch:     0.40,
			AuthorMatch:    0.20,
			QualityScore:   0.15,
			FriendActivity: 0.10,
			TrendingBonus:  0.08,
			RecencyBonus:   0.05,
			DiversityBonus: 0.02,
		},
		Signals: SignalWeights{
			RatingFiveStar:  1.0,
			RatingFourStar:  0.7,
			RatingThreeStar: 0.2,
			RatingLow:       -0.5,
			Like:            0.6,
			Shelve:          0.4,
			Dismiss:         -0.8,
		},
		Friendship: FriendshipParams{
			Base:                  0.1,
			InteractionWeight:     0.05,
			InteractionCap:        0.3,
			MutualFriendWeight:    0.04,
			MutualFriendCap:       0.2,
			TasteSimilarityWeight: 0.4,
		},
		Diversity: DiversityParams{
			QualityRatio:         0.7,
			PerGenreCap:          2,
			HighEntropyThreshold: 1.5,
			OverlapPenalty:       0.08,
		},
		Quotas: StrategyQuotas{
			Genre:    20,
			Author:   10,
			Friend:   15,
			Similar:  10,
			Trending: 10,
		},
		Quality: QualityThresholds{
			MinTrendingRating: 4.0,
			MinSimilarRating:  3.5,
			MinRatingsCount:   10,
			MinPageCount:      50,
			MaxPageCount:      2000,
		},
		Context: ContextParams{
			MorningStartHour:      5,
			MorningEndHour:        9,
			MorningShortBookPages: 300,
			MorningShortBookBoost: 1.15,
			SlowReaderPace:        1.0,
			SlowReaderPageCeiling: 600,
		},
		RecencyEnabled: true,
		CacheTTLHours:  24,
		GenreSynonyms: map[string][]string{
			"fantasy":         {"fantasy", "epic fantasy", "high fantasy", "sword and sorcery"},
			"science fiction": {"science fiction", "sci-fi", "scifi", "space opera"},
			"mystery":         {"mystery", "detective", "whodunit", "crime"},
			"thriller":        {"thriller", "suspense"},
			"romance":         {"romance", "romantic"},
			"horror":          {"horror", "gothic"},
			"historical":      {"historical", "historical fiction"},
			"literary":        {"literary", "literary fiction", "classics"},
			"nonfiction":      {"nonfiction", "non-fiction", "biography", "memoir", "history"},
			"young adult":     {"young adult", "ya", "teen"},
		},
		AdjacentGenres: map[string][]string{
			"fantasy":         {"science fiction", "horror", "young adult"},
			"science fiction": {"fantasy", "thriller"},
			"mystery":         {"thriller", "horror"},
			"thriller":        {"mystery", "science fiction"},
			"romance":         {"historical", "young adult"},
			"horror":          {"thriller", "fantasy"},
			"historical":      {"literary", "romance", "nonfiction"},
			"literary":        {"historical", "nonfiction"},
			"nonfiction":      {"historical", "literary"},
			"young adult":     {"fantasy", "romance"},
		},
	}
}

// Validate performs the soft weight-sum check. The caller logs the returned
// error and keeps going; a drifting sum skews ranking but never breaks it.
func (c Config) Validate() error {
	sum := c.Weights.Sum()
	if math.Abs(sum-1.0) > 0.05 {
		return fmt.Errorf("scoring weights sum to %.3f, expected ~1.0", sum)
	}
	if c.Diversity.QualityRatio < 0 || c.Diversity.QualityRatio > 1 {
		return fmt.Errorf("diversity quality ratio %.2f outside [0,1]", c.Diversity.QualityRatio)
	}
	return nil
}
