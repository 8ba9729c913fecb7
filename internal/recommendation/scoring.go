package recommendation

import (
	"sort"
	"strings"
	"time"
)

// ScoreCandidates scores and ranks a candidate pool. Pure and deterministic:
// identical inputs always produce identical ordering. Candidates zeroed out
// by the slow-reader page ceiling are dropped entirely.
func ScoreCandidates(candidates []Candidate, profile Profile, cfg Config, now time.Time) []Scored {
	out := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		s := ScoreCandidate(c, profile, cfg, now)
		if s.Score <= 0 {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].BookID.String() < out[j].BookID.String()
	})
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}

// ScoreCandidate computes the weighted hybrid score for one candidate.
// Candidates missing genre or author metadata score only on the quality,
// trending, and recency factors; they never error.
func ScoreCandidate(c Candidate, profile Profile, cfg Config, now time.Time) Scored {
	w := cfg.Weights
	breakdown := make(map[string]float64, 8)

	genre := genreMatchFactor(c.Book, profile, cfg)
	author := authorMatchFactor(c.Book, profile)
	quality := qualityFactor(c.Book, cfg)
	friend := friendActivityFactor(c)
	trending := trendingFactor(c, cfg)
	recency := 0.0
	if cfg.RecencyEnabled {
		recency = recencyFactor(c.Book, now)
	}
	// Placeholder constant; real diversity is handled by the injector.
	diversity := 0.5

	breakdown["genre_match"] = genre * w.GenreMatch
	breakdown["author_match"] = author * w.AuthorMatch
	breakdown["quality_score"] = quality * w.QualityScore
	breakdown["friend_activity"] = friend * w.FriendActivity
	breakdown["trending_bonus"] = trending * w.TrendingBonus
	breakdown["recency_bonus"] = recency * w.RecencyBonus
	breakdown["diversity_bonus"] = diversity * w.DiversityBonus

	score := 0.0
	for _, v := range breakdown {
		score += v
	}

	// Context adjustments multiply the weighted sum; they are not factors.
	if morningWindow(now, cfg.Context) && c.Book.PageCount > 0 && c.Book.PageCount <= cfg.Context.MorningShortBookPages {
		score *= cfg.Context.MorningShortBookBoost
		breakdown["context_morning_boost"] = cfg.Context.MorningShortBookBoost
	}
	if slowReaderIneligible(c.Book, profile, cfg.Context) {
		score = 0
		breakdown["context_slow_reader_cap"] = 0
	}

	return Scored{
		BookID:    c.Book.ID,
		Book:      c.Book,
		Score:     score,
		Breakdown: breakdown,
		Reason:    explain(c, profile, cfg, genre, friend, trending, recency),
		Algorithm: cfg.Algorithm,
	}
}

func genreMatchFactor(b Book, profile Profile, cfg Config) float64 {
	if len(b.Genres) == 0 {
		return 0
	}
	if len(profile.TopGenres) > 0 {
		total := 0.0
		matched := 0.0
		for _, tg := range profile.TopGenres {
			total += tg.Weight
			if GenresMatch(b.Genres, tg.Genre, cfg.GenreSynonyms) {
				matched += tg.Weight
			}
		}
		if total <= 0 {
			return 0
		}
		return clamp01(matched / total)
	}
	// No explicit genres yet; fall back to the decaying implicit weights.
	best := 0.0
	for genre, weight := range profile.ImplicitGenreWeights {
		if weight > best && GenresMatch(b.Genres, genre, cfg.GenreSynonyms) {
			best = weight
		}
	}
	return clamp01(best)
}

func authorMatchFactor(b Book, profile Profile) float64 {
	if len(b.Authors) == 0 || len(profile.FavoriteAuthors) == 0 {
		return 0
	}
	partial := false
	for _, fav := range profile.FavoriteAuthors {
		favNorm := strings.ToLower(strings.TrimSpace(fav))
		if favNorm == "" {
			continue
		}
		for _, author := range b.Authors {
			a := strings.ToLower(strings.TrimSpace(author))
			if a == favNorm {
				return 1.0
			}
			if sharesNameToken(a, favNorm) {
				partial = true
			}
		}
	}
	if partial {
		return 0.3
	}
	return 0
}

// sharesNameToken reports whether two author names share a token longer than
// two characters, e.g. a shared surname.
func sharesNameToken(a, b string) bool {
	for _, ta := range strings.Fields(a) {
		if len(ta) <= 2 {
			continue
		}
		for _, tb := range strings.Fields(b) {
			if ta == tb {
				return true
			}
		}
	}
	return false
}

func qualityFactor(b Book, cfg Config) float64 {
	// Quality gating: too few ratings means the average is noise.
	if b.RatingsCount < cfg.Quality.MinRatingsCount {
		return 0
	}
	return clamp01(b.AverageRating / 5.0)
}

func friendActivityFactor(c Candidate) float64 {
	if c.Strategy != StrategyFriend || c.FriendCount <= 0 {
		return 0
	}
	// Saturates at three contributing friends.
	return clamp01(float64(c.FriendCount) / 3.0)
}

func trendingFactor(c Candidate, cfg Config) float64 {
	if c.Strategy == StrategyTrending && c.Book.AverageRating >= cfg.Quality.MinTrendingRating {
		return 1.0
	}
	return 0
}

func recencyFactor(b Book, now time.Time) float64 {
	if b.PublishedDate.IsZero() {
		return 0
	}
	years := float64(now.Year() - b.PublishedDate.Year())
	if years < 0 {
		years = 0
	}
	if years >= 10 {
		return 0
	}
	return 1.0 - years/10.0
}

func morningWindow(now time.Time, c ContextParams) bool {
	if c.MorningEndHour <= c.MorningStartHour {
		return false
	}
	h := now.Hour()
	return h >= c.MorningStartHour && h < c.MorningEndHour
}

// slowReaderIneligible zeroes eligibility, not just the weight: a reader well
// below the pace threshold never sees doorstoppers above the page ceiling.
func slowReaderIneligible(b Book, profile Profile, c ContextParams) bool {
	if profile.ReadingPace <= 0 || c.SlowReaderPace <= 0 || c.SlowReaderPageCeiling <= 0 {
		return false
	}
	return profile.ReadingPace < c.SlowReaderPace && b.PageCount > c.SlowReaderPageCeiling
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
