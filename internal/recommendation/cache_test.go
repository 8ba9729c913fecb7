package recommendation

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func sampleScored(idx int) Scored {
	id := uuid.MustParse("00000000-0000-0000-0001-000000000000")
	id[15] = byte(idx)
	return Scored{BookID: id, Score: 1.0, Position: idx}
}

func TestCacheSurfaceFreshness(t *testing.T) {
	generated := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	surface := &CacheSurface{
		Items:       []Scored{sampleScored(1)},
		GeneratedAt: generated,
		ExpiresAt:   generated.Add(time.Hour),
	}

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"just generated", generated.Add(time.Minute), true},
		{"one minute before expiry", generated.Add(59 * time.Minute), true},
		{"one minute past expiry", generated.Add(61 * time.Minute), false},
		{"exactly at expiry", generated.Add(time.Hour), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := surface.Fresh(tc.at); got != tc.want {
				t.Errorf("Fresh(%s) = %v, want %v", tc.at, got, tc.want)
			}
		})
	}
}

func TestCacheSurfaceStaleAndEmptyNeverFresh(t *testing.T) {
	now := time.Now()
	stale := &CacheSurface{
		Items:     []Scored{sampleScored(1)},
		ExpiresAt: now.Add(time.Hour),
		IsStale:   true,
	}
	if stale.Fresh(now) {
		t.Error("stale surface reported fresh")
	}
	empty := &CacheSurface{ExpiresAt: now.Add(time.Hour)}
	if empty.Fresh(now) {
		t.Error("empty surface reported fresh")
	}
	var nilSurface *CacheSurface
	if nilSurface.Fresh(now) {
		t.Error("nil surface reported fresh")
	}
}

func TestWriteSurfacesPreservesOther(t *testing.T) {
	now := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	entry := CacheEntry{UserID: "user-1"}
	entry.WriteSurfaces([]Scored{sampleScored(1)}, []Scored{sampleScored(2)}, "hybrid-v1", time.Hour, now)

	if entry.Home == nil || entry.Friends == nil {
		t.Fatal("both surfaces should be written")
	}

	later := now.Add(30 * time.Minute)
	entry.WriteSurfaces([]Scored{sampleScored(3)}, nil, "hybrid-v1", time.Hour, later)

	if entry.Home.GeneratedAt != later {
		t.Error("home surface not rewritten")
	}
	if entry.Friends.GeneratedAt != now {
		t.Error("friends surface clobbered by home-only write")
	}
	if entry.Friends.Items[0].BookID != sampleScored(2).BookID {
		t.Error("friends items changed by home-only write")
	}
}

func TestMarkStaleFlagsBothSurfaces(t *testing.T) {
	now := time.Now()
	entry := CacheEntry{UserID: "user-1"}
	entry.WriteSurfaces([]Scored{sampleScored(1)}, []Scored{sampleScored(2)}, "hybrid-v1", time.Hour, now)

	entry.MarkStale()
	if !entry.Home.IsStale || !entry.Friends.IsStale {
		t.Error("MarkStale left a surface fresh")
	}
	if entry.Home.Fresh(now) {
		t.Error("stale home surface still serves")
	}
}

func TestEntrySurfaceLookup(t *testing.T) {
	entry := CacheEntry{
		Home:    &CacheSurface{Algorithm: "a"},
		Friends: &CacheSurface{Algorithm: "b"},
	}
	if entry.Surface(SurfaceHome).Algorithm != "a" {
		t.Error("home lookup wrong")
	}
	if entry.Surface(SurfaceFriends).Algorithm != "b" {
		t.Error("friends lookup wrong")
	}
	if entry.Surface("unknown") != nil {
		t.Error("unknown surface should be nil")
	}
}
