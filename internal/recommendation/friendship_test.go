package recommendation

import (
	"math"
	"testing"
)

func TestFriendshipStrength(t *testing.T) {
	p := DefaultConfig().Friendship

	cases := []struct {
		name         string
		interactions int
		mutuals      int
		overlap      float64
		want         float64
	}{
		{"stranger-ish follow", 0, 0, 0, 0.1},
		{"a few interactions", 2, 0, 0, 0.1 + 0.10},
		{"interactions capped", 100, 0, 0, 0.1 + 0.3},
		{"mutuals capped", 0, 50, 0, 0.1 + 0.2},
		{"full taste overlap", 0, 0, 1.0, 0.1 + 0.4},
		{"everything maxed", 100, 50, 1.0, 0.1 + 0.3 + 0.2 + 0.4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FriendshipStrength(tc.interactions, tc.mutuals, tc.overlap, p)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("FriendshipStrength = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFriendshipStrengthMonotonic(t *testing.T) {
	p := DefaultConfig().Friendship
	prev := FriendshipStrength(0, 0, 0, p)
	for i := 1; i <= 10; i++ {
		cur := FriendshipStrength(i, 0, 0, p)
		if cur < prev {
			t.Fatalf("strength decreased from %v to %v at %d interactions", prev, cur, i)
		}
		prev = cur
	}
}
