package recommendation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/novelshelf/novelshelf-backend/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func TestBucketDeterministic(t *testing.T) {
	id := uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")
	first := Bucket(id)
	for i := 0; i < 100; i++ {
		if got := Bucket(id); got != first {
			t.Fatalf("bucket changed between calls: %d vs %d", got, first)
		}
	}
	if first < 0 || first >= 100 {
		t.Errorf("bucket %d outside [0,100)", first)
	}
}

func TestResolveWithoutExperimentReturnsDefaults(t *testing.T) {
	reg := NewRegistry(testLogger(t), DefaultConfig(), nil)
	cfg := reg.Resolve(uuid.MustParse("11111111-1111-1111-1111-111111111111"))
	if cfg.Algorithm != "hybrid-v1" {
		t.Errorf("algorithm = %q, want hybrid-v1", cfg.Algorithm)
	}
	if cfg.Weights != DefaultConfig().Weights {
		t.Error("weights differ from defaults")
	}
}

func TestResolveAssignsVariantsByCumulativeRange(t *testing.T) {
	genreBoost := 0.55
	exp := &Experiment{
		Enabled: true,
		Name:    "heavier-genre",
		Variants: []Variant{
			{
				Name:    "genre-55",
				Percent: 100,
				Overrides: Overrides{
					Weights: &ScoringWeightsOverride{GenreMatch: &genreBoost},
				},
			},
		},
	}
	reg := NewRegistry(testLogger(t), DefaultConfig(), exp)

	userID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	cfg := reg.Resolve(userID)
	if cfg.Weights.GenreMatch != genreBoost {
		t.Errorf("genre weight = %v, want %v", cfg.Weights.GenreMatch, genreBoost)
	}
	// Only the overridden field moves; everything else is inherited.
	if cfg.Weights.AuthorMatch != DefaultConfig().Weights.AuthorMatch {
		t.Error("author weight changed by unrelated override")
	}
	if cfg.Quotas != DefaultConfig().Quotas {
		t.Error("quotas changed by weight-only override")
	}
	if cfg.Algorithm != "hybrid-v1:genre-55" {
		t.Errorf("algorithm tag = %q, want variant suffix", cfg.Algorithm)
	}

	// Same user, same resolution, every time.
	for i := 0; i < 10; i++ {
		again := reg.Resolve(userID)
		if again.Algorithm != cfg.Algorithm {
			t.Fatal("resolution not deterministic")
		}
	}
}

func TestResolveControlRemainder(t *testing.T) {
	off := 0.0
	exp := &Experiment{
		Enabled: true,
		Variants: []Variant{
			{
				Name:      "zero-slice",
				Percent:   0,
				Overrides: Overrides{Weights: &ScoringWeightsOverride{GenreMatch: &off}},
			},
		},
	}
	reg := NewRegistry(testLogger(t), DefaultConfig(), exp)
	cfg := reg.Resolve(uuid.MustParse("22222222-2222-2222-2222-222222222222"))
	if cfg.Algorithm != "hybrid-v1" {
		t.Errorf("user in control remainder got %q", cfg.Algorithm)
	}
}

func TestResolveDisabledExperiment(t *testing.T) {
	boost := 0.9
	exp := &Experiment{
		Enabled: false,
		Variants: []Variant{
			{Name: "v", Percent: 100, Overrides: Overrides{Weights: &ScoringWeightsOverride{GenreMatch: &boost}}},
		},
	}
	reg := NewRegistry(testLogger(t), DefaultConfig(), exp)
	cfg := reg.Resolve(uuid.MustParse("33333333-3333-3333-3333-333333333333"))
	if cfg.Weights.GenreMatch != DefaultConfig().Weights.GenreMatch {
		t.Error("disabled experiment still applied overrides")
	}
}

func TestLoadExperimentFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := filepath.Join(dir, "exp.yaml")
		body := `
enabled: true
name: heavier-genre
variants:
  - name: genre-55
    percent: 20
    overrides:
      weights:
        genre_match: 0.55
      cache_ttl_hours: 12
`
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
		exp, err := LoadExperimentFile(path)
		if err != nil {
			t.Fatalf("LoadExperimentFile: %v", err)
		}
		if !exp.Enabled || len(exp.Variants) != 1 {
			t.Fatalf("unexpected experiment: %+v", exp)
		}
		v := exp.Variants[0]
		if v.Percent != 20 || v.Overrides.Weights == nil || *v.Overrides.Weights.GenreMatch != 0.55 {
			t.Errorf("variant not parsed: %+v", v)
		}
		if v.Overrides.CacheTTLHours == nil || *v.Overrides.CacheTTLHours != 12 {
			t.Error("cache ttl override not parsed")
		}
	})

	t.Run("percents over 100 rejected", func(t *testing.T) {
		path := filepath.Join(dir, "over.yaml")
		body := `
enabled: true
variants:
  - name: a
    percent: 60
  - name: b
    percent: 60
`
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadExperimentFile(path); err == nil {
			t.Error("expected error for percents summing over 100")
		}
	})

	t.Run("empty path is off", func(t *testing.T) {
		exp, err := LoadExperimentFile("")
		if err != nil || exp != nil {
			t.Errorf("empty path should be (nil, nil), got (%v, %v)", exp, err)
		}
	})
}
