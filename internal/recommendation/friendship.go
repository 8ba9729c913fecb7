package recommendation

// FriendshipStrength derives the scalar weighting how much a followed user's
// taste counts. Capped linear combination over explicit numeric inputs:
//
//	base + min(iw*interactions, icap) + min(mw*mutuals, mcap) + tw*genreOverlap
//
// Recomputed per request, never persisted.
func FriendshipStrength(interactions, mutualFriends int, genreOverlap float64, p FriendshipParams) float64 {
	strength := p.Base
	strength += capped(p.InteractionWeight*float64(interactions), p.InteractionCap)
	strength += capped(p.MutualFriendWeight*float64(mutualFriends), p.MutualFriendCap)
	strength += p.TasteSimilarityWeight * clamp01(genreOverlap)
	return strength
}

func capped(v, limit float64) float64 {
	if limit > 0 && v > limit {
		return limit
	}
	if v < 0 {
		return 0
	}
	return v
}
