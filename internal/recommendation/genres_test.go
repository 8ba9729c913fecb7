package recommendation

import (
	"math"
	"testing"
)

func TestNormalizeGenre(t *testing.T) {
	synonyms := DefaultConfig().GenreSynonyms

	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"exact canonical", "fantasy", "fantasy"},
		{"synonym", "sci-fi", "science fiction"},
		{"case and spacing", "  Epic Fantasy ", "fantasy"},
		{"substring of synonym", "space opera", "science fiction"},
		{"unknown passes through lowercased", "Cookbooks", "cookbooks"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeGenre(tc.raw, synonyms); got != tc.want {
				t.Errorf("NormalizeGenre(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestNormalizeGenreStable(t *testing.T) {
	// "fiction" substring-matches synonyms under several canonicals; the
	// resolution must not drift between calls.
	first := NormalizeGenre("Fiction", DefaultConfig().GenreSynonyms)
	for i := 0; i < 200; i++ {
		if got := NormalizeGenre("Fiction", DefaultConfig().GenreSynonyms); got != first {
			t.Fatalf("ambiguous genre resolved to %q then %q", first, got)
		}
	}
	if first != "historical" {
		t.Errorf("NormalizeGenre(%q) = %q, want first matching canonical in sorted order", "Fiction", first)
	}
	// An exact synonym beats substring containment under another canonical.
	if got := NormalizeGenre("history", DefaultConfig().GenreSynonyms); got != "nonfiction" {
		t.Errorf("NormalizeGenre(%q) = %q, want nonfiction", "history", got)
	}
}

func TestGenresMatch(t *testing.T) {
	synonyms := DefaultConfig().GenreSynonyms

	if !GenresMatch([]string{"Epic Fantasy", "Adventure"}, "fantasy", synonyms) {
		t.Error("expected epic fantasy to match fantasy")
	}
	if GenresMatch([]string{"Romance"}, "horror", synonyms) {
		t.Error("expected romance not to match horror")
	}
	if GenresMatch(nil, "fantasy", synonyms) {
		t.Error("expected empty book genres not to match")
	}
}

func TestGenreOverlap(t *testing.T) {
	synonyms := DefaultConfig().GenreSynonyms

	cases := []struct {
		name string
		a, b []string
		want float64
	}{
		{"full overlap via synonyms", []string{"sci-fi"}, []string{"Science Fiction"}, 1.0},
		{"half overlap", []string{"fantasy", "romance"}, []string{"epic fantasy"}, 0.5},
		{"no overlap", []string{"horror"}, []string{"romance"}, 0},
		{"empty a", nil, []string{"fantasy"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := GenreOverlap(tc.a, tc.b, synonyms)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("GenreOverlap = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGenreEntropy(t *testing.T) {
	synonyms := DefaultConfig().GenreSynonyms

	if got := GenreEntropy(nil, synonyms); got != 0 {
		t.Errorf("entropy of empty history = %v, want 0", got)
	}
	single := GenreEntropy([]string{"fantasy", "fantasy", "epic fantasy"}, synonyms)
	if single != 0 {
		t.Errorf("entropy of single-genre history = %v, want 0", single)
	}
	mixed := GenreEntropy([]string{"fantasy", "romance", "horror", "mystery"}, synonyms)
	if mixed <= single {
		t.Errorf("expected mixed history entropy %v to exceed %v", mixed, single)
	}
	// Four equally likely genres: ln(4).
	if math.Abs(mixed-math.Log(4)) > 1e-9 {
		t.Errorf("entropy of uniform 4-genre history = %v, want %v", mixed, math.Log(4))
	}
}

func TestAdjacentTo(t *testing.T) {
	cfg := DefaultConfig()
	top := []ProfileGenre{{Genre: "fantasy", Weight: 1}}

	if !AdjacentTo("science fiction", top, cfg.AdjacentGenres, cfg.GenreSynonyms) {
		t.Error("science fiction should be adjacent to fantasy")
	}
	if !AdjacentTo("epic fantasy", top, cfg.AdjacentGenres, cfg.GenreSynonyms) {
		t.Error("a top genre counts as adjacent to itself")
	}
	if AdjacentTo("romance", top, cfg.AdjacentGenres, cfg.GenreSynonyms) {
		t.Error("romance should not be adjacent to fantasy")
	}
}
