package recommendation

import (
	"fmt"
	"strings"
)

// explanationRule pairs a predicate with a reason template. Rules are
// evaluated in fixed order and the first match wins, which makes the
// tie-break between competing explanations explicit and testable.
type explanationRule struct {
	applies func(explainInput) bool
	render  func(explainInput) string
}

type explainInput struct {
	candidate Candidate
	profile   Profile
	cfg       Config
	genre     float64
	friend    float64
	trending  float64
	recency   float64
}

var explanationChain = []explanationRule{
	{
		applies: func(in explainInput) bool {
			return favoriteAuthorOf(in.candidate.Book, in.profile) != ""
		},
		render: func(in explainInput) string {
			return fmt.Sprintf("By %s, one of your favorite authors", favoriteAuthorOf(in.candidate.Book, in.profile))
		},
	},
	{
		applies: func(in explainInput) bool {
			return in.candidate.Strategy == StrategySimilar && in.candidate.SimilarTo != ""
		},
		render: func(in explainInput) string {
			return fmt.Sprintf("Because you rated %s highly", in.candidate.SimilarTo)
		},
	},
	{
		applies: func(in explainInput) bool {
			return in.candidate.Strategy == StrategyFriend && in.candidate.FriendCount > 0
		},
		render: func(in explainInput) string {
			name := "Someone you follow"
			if len(in.candidate.FriendNames) > 0 {
				name = in.candidate.FriendNames[0]
			}
			if in.candidate.FriendCount > 1 {
				return fmt.Sprintf("%s and %d others you follow liked this", name, in.candidate.FriendCount-1)
			}
			return fmt.Sprintf("%s liked this", name)
		},
	},
	{
		applies: func(in explainInput) bool { return in.genre > 0 },
		render: func(in explainInput) string {
			genre := topMatchingGenre(in.candidate.Book, in.profile, in.cfg)
			if genre == "" {
				return "Matches your favorite genres"
			}
			return fmt.Sprintf("Because you read a lot of %s", genre)
		},
	},
	{
		applies: func(in explainInput) bool { return in.trending > 0 },
		render:  func(in explainInput) string { return "Trending with readers right now" },
	},
	{
		applies: func(in explainInput) bool { return in.recency > 0.8 },
		render:  func(in explainInput) string { return "A recent release" },
	},
}

const fallbackReason = "Recommended for you"

func explain(c Candidate, profile Profile, cfg Config, genre, friend, trending, recency float64) string {
	in := explainInput{
		candidate: c,
		profile:   profile,
		cfg:       cfg,
		genre:     genre,
		friend:    friend,
		trending:  trending,
		recency:   recency,
	}
	for _, rule := range explanationChain {
		if rule.applies(in) {
			return rule.render(in)
		}
	}
	return fallbackReason
}

func favoriteAuthorOf(b Book, profile Profile) string {
	for _, fav := range profile.FavoriteAuthors {
		favNorm := strings.ToLower(strings.TrimSpace(fav))
		if favNorm == "" {
			continue
		}
		for _, author := range b.Authors {
			if strings.ToLower(strings.TrimSpace(author)) == favNorm {
				return author
			}
		}
	}
	return ""
}

func topMatchingGenre(b Book, profile Profile, cfg Config) string {
	best := ""
	bestWeight := 0.0
	for _, tg := range profile.TopGenres {
		if tg.Weight > bestWeight && GenresMatch(b.Genres, tg.Genre, cfg.GenreSynonyms) {
			best = tg.Genre
			bestWeight = tg.Weight
		}
	}
	return best
}
