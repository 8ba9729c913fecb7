package recommendation

import (
	"math"
	"sort"
	"strings"
)

// NormalizeGenre maps a raw catalog genre string onto a canonical genre via
// case-insensitive substring match against the synonym table. Exact synonym
// hits win over substring containment, and canonicals are tried in sorted
// order, so an ambiguous raw resolves to the same canonical on every call.
// Unknown genres come back lowercased and trimmed so they still group with
// themselves.
func NormalizeGenre(raw string, synonyms map[string][]string) string {
	g := strings.ToLower(strings.TrimSpace(raw))
	if g == "" {
		return ""
	}
	canonicals := make([]string, 0, len(synonyms))
	for canonical := range synonyms {
		canonicals = append(canonicals, canonical)
	}
	sort.Strings(canonicals)
	for _, canonical := range canonicals {
		for _, syn := range synonyms[canonical] {
			if g == syn {
				return canonical
			}
		}
	}
	for _, canonical := range canonicals {
		for _, syn := range synonyms[canonical] {
			if strings.Contains(g, syn) || strings.Contains(syn, g) {
				return canonical
			}
		}
	}
	return g
}

// GenresMatch reports whether any of a book's genres normalizes onto the
// given user genre.
func GenresMatch(bookGenres []string, userGenre string, synonyms map[string][]string) bool {
	target := NormalizeGenre(userGenre, synonyms)
	if target == "" {
		return false
	}
	for _, bg := range bookGenres {
		if NormalizeGenre(bg, synonyms) == target {
			return true
		}
	}
	return false
}

// GenreOverlap is the fraction of genres in a that also appear in b, after
// normalization. Returns 0 when a is empty.
func GenreOverlap(a, b []string, synonyms map[string][]string) float64 {
	if len(a) == 0 {
		return 0
	}
	set := make(map[string]bool, len(b))
	for _, g := range b {
		set[NormalizeGenre(g, synonyms)] = true
	}
	matched := 0
	seen := make(map[string]bool, len(a))
	total := 0
	for _, g := range a {
		n := NormalizeGenre(g, synonyms)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		total++
		if set[n] {
			matched++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}

// GenreEntropy is the Shannon entropy (base e) of the normalized genre
// distribution across a user's shelved books. High entropy means an
// eclectic reader; the diversity injector widens exploration for them.
func GenreEntropy(genres []string, synonyms map[string][]string) float64 {
	counts := make(map[string]int)
	total := 0
	for _, g := range genres {
		n := NormalizeGenre(g, synonyms)
		if n == "" {
			continue
		}
		counts[n]++
		total++
	}
	if total == 0 {
		return 0
	}
	entropy := 0.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		entropy -= p * math.Log(p)
	}
	return entropy
}

// AdjacentTo reports whether genre is one of the configured neighbors of any
// of the user's top genres, or a top genre itself.
func AdjacentTo(genre string, topGenres []ProfileGenre, adjacency map[string][]string, synonyms map[string][]string) bool {
	n := NormalizeGenre(genre, synonyms)
	if n == "" {
		return false
	}
	for _, tg := range topGenres {
		top := NormalizeGenre(tg.Genre, synonyms)
		if n == top {
			return true
		}
		for _, adj := range adjacency[top] {
			if n == NormalizeGenre(adj, synonyms) {
				return true
			}
		}
	}
	return false
}
