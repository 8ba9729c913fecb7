package recommendation

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakePrefs struct {
	profiles map[uuid.UUID]Profile
}

func (f *fakePrefs) Profile(ctx context.Context, userID uuid.UUID) (Profile, error) {
	return f.profiles[userID], nil
}

func TestFriendRecommendNoFollowing(t *testing.T) {
	agg := NewFriendAggregator(testLogger(t), &fakeSocial{}, &fakeCatalog{}, &fakePrefs{}, &fakeUsers{}, time.Second)

	out, err := agg.Recommend(context.Background(), uuid.New(), Profile{}, DefaultConfig(), 20)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Errorf("want empty non-nil slice, got %v", out)
	}
}

func TestFriendRecommendRanksByStrengthSum(t *testing.T) {
	friendA := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	friendB := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000002")
	twoFans := bookWith(60, "Two Fans", []string{"fantasy"}, nil)
	oneFan := bookWith(61, "One Fan", []string{"fantasy"}, nil)

	social := &fakeSocial{
		following: []uuid.UUID{friendA, friendB},
		activity: map[uuid.UUID]ActivitySet{
			friendA: {Liked: []uuid.UUID{twoFans.ID, oneFan.ID}},
			friendB: {Shelved: []uuid.UUID{twoFans.ID}},
		},
	}
	catalog := &fakeCatalog{byID: map[uuid.UUID]Book{twoFans.ID: twoFans, oneFan.ID: oneFan}}
	agg := NewFriendAggregator(testLogger(t), social, catalog, &fakePrefs{}, &fakeUsers{}, time.Second)

	out, err := agg.Recommend(context.Background(), uuid.New(), Profile{}, DefaultConfig(), 20)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d results, want 2", len(out))
	}
	if out[0].BookID != twoFans.ID {
		t.Errorf("top result = %s, want the book two friends engaged with", out[0].Book.Title)
	}
	// Both friends contribute base strength, so the sum doubles.
	if math.Abs(out[0].Score-2*out[1].Score) > 1e-9 {
		t.Errorf("scores %v and %v, want the top to be exactly double", out[0].Score, out[1].Score)
	}
	if math.Abs(out[0].Breakdown["friend_signal"]-out[0].Score) > 1e-9 {
		t.Error("breakdown friend_signal should equal the score")
	}
	for i, s := range out {
		if s.Position != i+1 {
			t.Errorf("position[%d] = %d, want %d", i, s.Position, i+1)
		}
	}
}

func TestFriendRecommendCloserFriendOutweighsCount(t *testing.T) {
	cfg := DefaultConfig()
	closeFriend := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000001")
	acquaintance := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000002")
	closePick := bookWith(70, "Close Pick", []string{"fantasy"}, nil)
	weakPick := bookWith(71, "Weak Pick", []string{"fantasy"}, nil)

	social := &fakeSocial{
		following: []uuid.UUID{closeFriend, acquaintance},
		activity: map[uuid.UUID]ActivitySet{
			closeFriend:  {Liked: []uuid.UUID{closePick.ID}},
			acquaintance: {Liked: []uuid.UUID{weakPick.ID}},
		},
		interactions: map[uuid.UUID]int{closeFriend: 10},
		mutuals:      map[uuid.UUID]int{closeFriend: 10},
	}
	catalog := &fakeCatalog{byID: map[uuid.UUID]Book{closePick.ID: closePick, weakPick.ID: weakPick}}
	prefs := &fakePrefs{profiles: map[uuid.UUID]Profile{
		closeFriend: {TopGenres: []ProfileGenre{{Genre: "fantasy", Weight: 1}}},
	}}
	me := Profile{TopGenres: []ProfileGenre{{Genre: "fantasy", Weight: 1}}}
	agg := NewFriendAggregator(testLogger(t), social, catalog, prefs, &fakeUsers{}, time.Second)

	out, err := agg.Recommend(context.Background(), uuid.New(), me, cfg, 20)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d results, want 2", len(out))
	}
	if out[0].BookID != closePick.ID {
		t.Errorf("top result = %s, want the close friend's pick", out[0].Book.Title)
	}
	// Interactions and mutuals both capped, plus full taste overlap and base.
	want := cfg.Friendship.Base + cfg.Friendship.InteractionCap + cfg.Friendship.MutualFriendCap + cfg.Friendship.TasteSimilarityWeight
	if math.Abs(out[0].Score-want) > 1e-9 {
		t.Errorf("close friend strength = %v, want %v", out[0].Score, want)
	}
}

func TestFriendRecommendReasons(t *testing.T) {
	friendA := uuid.MustParse("cccccccc-0000-0000-0000-000000000001")
	friendB := uuid.MustParse("cccccccc-0000-0000-0000-000000000002")
	anon := uuid.MustParse("cccccccc-0000-0000-0000-000000000003")
	shared := bookWith(80, "Shared", []string{"fantasy"}, nil)
	solo := bookWith(81, "Solo", []string{"fantasy"}, nil)
	unnamed := bookWith(82, "Unnamed", []string{"fantasy"}, nil)

	social := &fakeSocial{
		following: []uuid.UUID{friendA, friendB, anon},
		activity: map[uuid.UUID]ActivitySet{
			friendA: {Liked: []uuid.UUID{shared.ID, solo.ID}},
			friendB: {Liked: []uuid.UUID{shared.ID}},
			anon:    {Liked: []uuid.UUID{unnamed.ID}},
		},
	}
	catalog := &fakeCatalog{byID: map[uuid.UUID]Book{shared.ID: shared, solo.ID: solo, unnamed.ID: unnamed}}
	users := &fakeUsers{names: map[uuid.UUID]string{friendA: "Alice", friendB: "Bob"}}
	agg := NewFriendAggregator(testLogger(t), social, catalog, &fakePrefs{}, users, time.Second)

	out, err := agg.Recommend(context.Background(), uuid.New(), Profile{}, DefaultConfig(), 20)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	reasons := map[uuid.UUID]string{}
	for _, s := range out {
		reasons[s.BookID] = s.Reason
	}
	if got := reasons[shared.ID]; got != "Alice and 1 others you follow loved this" {
		t.Errorf("shared reason = %q", got)
	}
	if got := reasons[solo.ID]; got != "Alice loved this" {
		t.Errorf("solo reason = %q", got)
	}
	if got := reasons[unnamed.ID]; got != "Someone you follow loved this" {
		t.Errorf("unnamed reason = %q", got)
	}
}

func TestFriendRecommendHonorsLimit(t *testing.T) {
	friend := uuid.MustParse("dddddddd-0000-0000-0000-000000000001")
	books := []Book{
		bookWith(90, "First", []string{"fantasy"}, nil),
		bookWith(91, "Second", []string{"fantasy"}, nil),
		bookWith(92, "Third", []string{"fantasy"}, nil),
	}
	byID := map[uuid.UUID]Book{}
	liked := []uuid.UUID{}
	for _, b := range books {
		byID[b.ID] = b
		liked = append(liked, b.ID)
	}
	social := &fakeSocial{
		following: []uuid.UUID{friend},
		activity:  map[uuid.UUID]ActivitySet{friend: {Liked: liked}},
	}
	agg := NewFriendAggregator(testLogger(t), social, &fakeCatalog{byID: byID}, &fakePrefs{}, &fakeUsers{}, time.Second)

	out, err := agg.Recommend(context.Background(), uuid.New(), Profile{}, DefaultConfig(), 2)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("limit ignored, got %d results", len(out))
	}
	if out[0].Position != 1 || out[1].Position != 2 {
		t.Errorf("positions %d,%d want 1,2", out[0].Position, out[1].Position)
	}
}
