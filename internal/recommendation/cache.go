package recommendation

import "time"

// CacheSurface is one surface's slot inside a user's cache entry.
type CacheSurface struct {
	Items       []Scored  `json:"items"`
	Algorithm   string    `json:"algorithm"`
	GeneratedAt time.Time `json:"generated_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	IsStale     bool      `json:"is_stale"`
}

// Fresh reports whether the surface can be served without regeneration.
// An entry is never served past ExpiresAt unless the caller explicitly
// accepts staleness.
func (s *CacheSurface) Fresh(now time.Time) bool {
	if s == nil || len(s.Items) == 0 {
		return false
	}
	if s.IsStale {
		return false
	}
	return now.Before(s.ExpiresAt)
}

// CacheEntry is one user's cached recommendation set, one slot per surface.
// Regeneration overwrites the written surface and preserves the other.
type CacheEntry struct {
	UserID  string        `json:"user_id"`
	Home    *CacheSurface `json:"home,omitempty"`
	Friends *CacheSurface `json:"friends,omitempty"`
}

func (e *CacheEntry) Surface(surface string) *CacheSurface {
	if e == nil {
		return nil
	}
	switch surface {
	case SurfaceHome:
		return e.Home
	case SurfaceFriends:
		return e.Friends
	default:
		return nil
	}
}

// WriteSurfaces replaces the given surfaces with fresh slots stamped at now.
// A nil item slice leaves that surface untouched, so writing one surface
// never clobbers the other.
func (e *CacheEntry) WriteSurfaces(home, friends []Scored, algorithm string, ttl time.Duration, now time.Time) {
	if home != nil {
		e.Home = &CacheSurface{
			Items:       home,
			Algorithm:   algorithm,
			GeneratedAt: now,
			ExpiresAt:   now.Add(ttl),
			IsStale:     false,
		}
	}
	if friends != nil {
		e.Friends = &CacheSurface{
			Items:       friends,
			Algorithm:   algorithm,
			GeneratedAt: now,
			ExpiresAt:   now.Add(ttl),
			IsStale:     false,
		}
	}
}

// MarkStale flags both surfaces for forced regeneration on next read.
func (e *CacheEntry) MarkStale() {
	if e.Home != nil {
		e.Home.IsStale = true
	}
	if e.Friends != nil {
		e.Friends.IsStale = true
	}
}
