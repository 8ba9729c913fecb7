package recommendation

import (
	"testing"

	"github.com/google/uuid"
)

func TestExplainPriorityOrder(t *testing.T) {
	cfg := DefaultConfig()
	profile := fantasyProfile()

	cases := []struct {
		name      string
		candidate Candidate
		genre     float64
		trending  float64
		recency   float64
		want      string
	}{
		{
			name: "favorite author wins over everything",
			candidate: Candidate{
				Book: Book{
					Authors: []string{"Brandon Sanderson"},
					Genres:  []string{"fantasy"},
				},
				Strategy:    StrategyFriend,
				FriendCount: 3,
				FriendNames: []string{"Alice"},
			},
			genre:    1,
			trending: 1,
			want:     "By Brandon Sanderson, one of your favorite authors",
		},
		{
			name: "similar beats friend",
			candidate: Candidate{
				Book:        Book{Authors: []string{"Robin Hobb"}},
				Strategy:    StrategySimilar,
				SimilarTo:   "The Name of the Wind",
				FriendCount: 2,
			},
			want: "Because you rated The Name of the Wind highly",
		},
		{
			name: "friend beats genre",
			candidate: Candidate{
				Book:        Book{Authors: []string{"Robin Hobb"}, Genres: []string{"fantasy"}},
				Strategy:    StrategyFriend,
				FriendCount: 3,
				FriendNames: []string{"Alice", "Bob"},
			},
			genre: 1,
			want:  "Alice and 2 others you follow liked this",
		},
		{
			name: "single friend not pluralized",
			candidate: Candidate{
				Book:        Book{},
				Strategy:    StrategyFriend,
				FriendCount: 1,
				FriendNames: []string{"Alice"},
			},
			want: "Alice liked this",
		},
		{
			name: "genre beats trending",
			candidate: Candidate{
				Book:     Book{Genres: []string{"Epic Fantasy"}},
				Strategy: StrategyTrending,
			},
			genre:    0.8,
			trending: 1,
			want:     "Because you read a lot of fantasy",
		},
		{
			name: "trending beats recency",
			candidate: Candidate{
				Book:     Book{Genres: []string{"Self Help"}},
				Strategy: StrategyTrending,
			},
			trending: 1,
			recency:  0.9,
			want:     "Trending with readers right now",
		},
		{
			name: "recent release",
			candidate: Candidate{
				Book:     Book{Genres: []string{"Self Help"}},
				Strategy: StrategyPopular,
			},
			recency: 0.9,
			want:    "A recent release",
		},
		{
			name: "fallback",
			candidate: Candidate{
				Book:     Book{ID: uuid.MustParse("99999999-9999-9999-9999-999999999999")},
				Strategy: StrategyPopular,
			},
			want: "Recommended for you",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := explain(tc.candidate, profile, cfg, tc.genre, 0, tc.trending, tc.recency)
			if got != tc.want {
				t.Errorf("explain = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExplainAnonymousFriend(t *testing.T) {
	cfg := DefaultConfig()
	c := Candidate{
		Book:        Book{},
		Strategy:    StrategyFriend,
		FriendCount: 2,
	}
	got := explain(c, Profile{}, cfg, 0, 0.5, 0, 0)
	want := "Someone you follow and 1 others you follow liked this"
	if got != want {
		t.Errorf("explain = %q, want %q", got, want)
	}
}
