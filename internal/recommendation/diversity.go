package recommendation

import (
	"math"
	"sort"
)

// InjectDiversity rebalances a ranked list into a quality slice (strict score
// order) and a diversity slice chosen greedily for novelty. Quality-slice
// items always precede diversity-slice items; within each slice ties break on
// original score, then book ID. Pure and deterministic.
func InjectDiversity(scored []Scored, profile Profile, shelvedGenres []string, cfg Config, n int) []Scored {
	if n <= 0 || len(scored) == 0 {
		return nil
	}
	if n > len(scored) {
		n = len(scored)
	}

	qualityN := int(math.Round(float64(n) * cfg.Diversity.QualityRatio))
	if qualityN > n {
		qualityN = n
	}
	selected := make([]Scored, 0, n)
	selected = append(selected, scored[:qualityN]...)
	pool := scored[qualityN:]

	entropy := GenreEntropy(shelvedGenres, cfg.GenreSynonyms)
	highEntropy := entropy > cfg.Diversity.HighEntropyThreshold

	selected = append(selected, pickDiverse(pool, selected, profile, cfg, n-qualityN, highEntropy)...)

	for i := range selected {
		selected[i].Position = i + 1
	}
	return selected
}

// pickDiverse greedily fills the diversity slice. Each pick is scored as the
// original score minus an overlap penalty per already-selected item sharing a
// genre or author, plus a novelty bonus for eclectic readers picking outside
// their top genres. A per-genre cap keeps one genre from dominating the slice.
func pickDiverse(pool, alreadySelected []Scored, profile Profile, cfg Config, want int, highEntropy bool) []Scored {
	if want <= 0 || len(pool) == 0 {
		return nil
	}

	genreCount := make(map[string]int)
	authorCount := make(map[string]int)
	for _, s := range alreadySelected {
		for _, g := range s.Book.Genres {
			genreCount[NormalizeGenre(g, cfg.GenreSynonyms)]++
		}
		for _, a := range s.Book.Authors {
			authorCount[a]++
		}
	}

	// Low-entropy readers only get injections adjacent to their top genres;
	// eclectic readers can be pushed anywhere.
	eligible := make([]Scored, 0, len(pool))
	var rest []Scored
	for _, s := range pool {
		if highEntropy || len(profile.TopGenres) == 0 || anyAdjacent(s.Book.Genres, profile.TopGenres, cfg) {
			eligible = append(eligible, s)
		} else {
			rest = append(rest, s)
		}
	}

	sliceGenreCount := make(map[string]int)
	picked := make([]Scored, 0, want)
	used := make(map[string]bool, want)

	for len(picked) < want {
		best := -1
		bestAdj := math.Inf(-1)
		for i, s := range eligible {
			if used[s.BookID.String()] {
				continue
			}
			primary := primaryGenre(s.Book, cfg)
			if primary != "" && sliceGenreCount[primary] >= cfg.Diversity.PerGenreCap {
				continue
			}
			adj := s.Score
			for _, g := range s.Book.Genres {
				adj -= cfg.Diversity.OverlapPenalty * float64(genreCount[NormalizeGenre(g, cfg.GenreSynonyms)])
			}
			for _, a := range s.Book.Authors {
				adj -= cfg.Diversity.OverlapPenalty * float64(authorCount[a])
			}
			if highEntropy && !matchesAnyTopGenre(s.Book, profile, cfg) {
				adj += cfg.Diversity.OverlapPenalty
			}
			if adj > bestAdj || (adj == bestAdj && best >= 0 && tieBefore(s, eligible[best])) {
				bestAdj = adj
				best = i
			}
		}
		if best < 0 {
			break
		}
		pick := eligible[best]
		picked = append(picked, pick)
		used[pick.BookID.String()] = true
		if pg := primaryGenre(pick.Book, cfg); pg != "" {
			sliceGenreCount[pg]++
		}
		for _, g := range pick.Book.Genres {
			genreCount[NormalizeGenre(g, cfg.GenreSynonyms)]++
		}
		for _, a := range pick.Book.Authors {
			authorCount[a]++
		}
	}

	// Shortfall backfills from the restricted remainder by plain score order,
	// still honoring the per-genre cap.
	if len(picked) < want {
		sort.SliceStable(rest, func(i, j int) bool { return tieBefore(rest[i], rest[j]) })
		for _, s := range rest {
			if len(picked) >= want {
				break
			}
			if used[s.BookID.String()] {
				continue
			}
			primary := primaryGenre(s.Book, cfg)
			if primary != "" && sliceGenreCount[primary] >= cfg.Diversity.PerGenreCap {
				continue
			}
			picked = append(picked, s)
			used[s.BookID.String()] = true
			if primary != "" {
				sliceGenreCount[primary]++
			}
		}
	}

	// The target size wins over the cap: slots still open after the capped
	// passes fill from the whole leftover pool in plain score order.
	if len(picked) < want {
		leftover := make([]Scored, 0, len(pool))
		for _, s := range pool {
			if !used[s.BookID.String()] {
				leftover = append(leftover, s)
			}
		}
		sort.SliceStable(leftover, func(i, j int) bool { return tieBefore(leftover[i], leftover[j]) })
		for _, s := range leftover {
			if len(picked) >= want {
				break
			}
			picked = append(picked, s)
			used[s.BookID.String()] = true
		}
	}
	return picked
}

func tieBefore(a, b Scored) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.BookID.String() < b.BookID.String()
}

func primaryGenre(b Book, cfg Config) string {
	for _, g := range b.Genres {
		if n := NormalizeGenre(g, cfg.GenreSynonyms); n != "" {
			return n
		}
	}
	return ""
}

func anyAdjacent(genres []string, topGenres []ProfileGenre, cfg Config) bool {
	for _, g := range genres {
		if AdjacentTo(g, topGenres, cfg.AdjacentGenres, cfg.GenreSynonyms) {
			return true
		}
	}
	return false
}

func matchesAnyTopGenre(b Book, profile Profile, cfg Config) bool {
	for _, tg := range profile.TopGenres {
		if GenresMatch(b.Genres, tg.Genre, cfg.GenreSynonyms) {
			return true
		}
	}
	return false
}
