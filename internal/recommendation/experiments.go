package recommendation

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/novelshelf/novelshelf-backend/internal/logger"
)

// Overrides is a partial config. Only non-nil fields replace the default;
// everything else is inherited, so a variant can move a single weight
// without restating the whole table.
type Overrides struct {
	Weights   *ScoringWeightsOverride   `yaml:"weights"`
	Diversity *DiversityOverride        `yaml:"diversity"`
	Quotas    *StrategyQuotasOverride   `yaml:"quotas"`
	Quality   *QualityThresholdOverride `yaml:"quality"`
	Context   *ContextOverride          `yaml:"context"`

	RecencyEnabled *bool `yaml:"recency_enabled"`
	CacheTTLHours  *int  `yaml:"cache_ttl_hours"`
}

type ScoringWeightsOverride struct {
	GenreMatch     *float64 `yaml:"genre_match"`
	AuthorMatch    *float64 `yaml:"author_match"`
	QualityScore   *float64 `yaml:"quality_score"`
	FriendActivity *float64 `yaml:"friend_activity"`
	TrendingBonus  *float64 `yaml:"trending_bonus"`
	RecencyBonus   *float64 `yaml:"recency_bonus"`
	DiversityBonus *float64 `yaml:"diversity_bonus"`
}

type DiversityOverride struct {
	QualityRatio         *float64 `yaml:"quality_ratio"`
	PerGenreCap          *int     `yaml:"per_genre_cap"`
	HighEntropyThreshold *float64 `yaml:"high_entropy_threshold"`
	OverlapPenalty       *float64 `yaml:"overlap_penalty"`
}

type StrategyQuotasOverride struct {
	Genre    *int `yaml:"genre"`
	Author   *int `yaml:"author"`
	Friend   *int `yaml:"friend"`
	Similar  *int `yaml:"similar"`
	Trending *int `yaml:"trending"`
}

type QualityThresholdOverride struct {
	MinTrendingRating *float64 `yaml:"min_trending_rating"`
	MinSimilarRating  *float64 `yaml:"min_similar_rating"`
	MinRatingsCount   *int     `yaml:"min_ratings_count"`
	MinPageCount      *int     `yaml:"min_page_count"`
	MaxPageCount      *int     `yaml:"max_page_count"`
}

type ContextOverride struct {
	MorningStartHour      *int     `yaml:"morning_start_hour"`
	MorningEndHour        *int     `yaml:"morning_end_hour"`
	MorningShortBookPages *int     `yaml:"morning_short_book_pages"`
	MorningShortBookBoost *float64 `yaml:"morning_short_book_boost"`
	SlowReaderPace        *float64 `yaml:"slow_reader_pace"`
	SlowReaderPageCeiling *int     `yaml:"slow_reader_page_ceiling"`
}

// Variant is one experiment arm. Percent is its share of the 0-99 bucket
// space; variants are laid out in declaration order and the remainder is
// control (plain defaults).
type Variant struct {
	Name      string    `yaml:"name"`
	Percent   int       `yaml:"percent"`
	Overrides Overrides `yaml:"overrides"`
}

// Experiment is a named allocation of users to config variants.
type Experiment struct {
	Enabled  bool      `yaml:"enabled"`
	Name     string    `yaml:"name"`
	Variants []Variant `yaml:"variants"`
}

// LoadExperimentFile reads an experiment definition from YAML. A missing
// path returns (nil, nil): experimentation simply stays off.
func LoadExperimentFile(path string) (*Experiment, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read experiment file: %w", err)
	}
	var exp Experiment
	if err := yaml.Unmarshal(raw, &exp); err != nil {
		return nil, fmt.Errorf("parse experiment file: %w", err)
	}
	total := 0
	for _, v := range exp.Variants {
		if v.Percent < 0 || v.Percent > 100 {
			return nil, fmt.Errorf("variant %q percent %d outside [0,100]", v.Name, v.Percent)
		}
		total += v.Percent
	}
	if total > 100 {
		return nil, fmt.Errorf("variant percents sum to %d, exceeding 100", total)
	}
	return &exp, nil
}

// Registry resolves the effective config for a user. Resolution is pure and
// deterministic: the same user ID and experiment definition always yield the
// same config.
type Registry struct {
	log        *logger.Logger
	defaults   Config
	experiment *Experiment
}

func NewRegistry(log *logger.Logger, defaults Config, experiment *Experiment) *Registry {
	regLog := log.With("component", "ConfigRegistry")
	if err := defaults.Validate(); err != nil {
		regLog.Warn("default config failed validation", "error", err)
	}
	if experiment != nil {
		for _, v := range experiment.Variants {
			candidate := applyOverrides(defaults, v.Overrides, v.Name)
			if err := candidate.Validate(); err != nil {
				regLog.Warn("experiment variant failed validation", "variant", v.Name, "error", err)
			}
		}
	}
	return &Registry{log: regLog, defaults: defaults, experiment: experiment}
}

// Resolve picks the config for a user. Users hash to a stable bucket in
// [0,100); cumulative variant percentages claim bucket ranges from zero up,
// and unclaimed buckets get the control config.
func (r *Registry) Resolve(userID uuid.UUID) Config {
	if r == nil {
		return DefaultConfig()
	}
	if r.experiment == nil || !r.experiment.Enabled || len(r.experiment.Variants) == 0 {
		return r.defaults
	}
	bucket := Bucket(userID)
	lower := 0
	for _, v := range r.experiment.Variants {
		upper := lower + v.Percent
		if bucket >= lower && bucket < upper {
			return applyOverrides(r.defaults, v.Overrides, v.Name)
		}
		lower = upper
	}
	return r.defaults
}

// Bucket maps a user ID to a stable experiment bucket: the sum of the
// character codes of its string form, mod 100.
func Bucket(userID uuid.UUID) int {
	s := userID.String()
	sum := 0
	for _, c := range s {
		sum += int(c)
	}
	return sum % 100
}

// applyOverrides merges a variant's partial overrides onto the defaults,
// field by field. It never replaces a whole section wholesale.
func applyOverrides(base Config, o Overrides, variantName string) Config {
	out := base
	if variantName != "" {
		out.Algorithm = base.Algorithm + ":" + variantName
	}
	if o.Weights != nil {
		w := &out.Weights
		setF(&w.GenreMatch, o.Weights.GenreMatch)
		setF(&w.AuthorMatch, o.Weights.AuthorMatch)
		setF(&w.QualityScore, o.Weights.QualityScore)
		setF(&w.FriendActivity, o.Weights.FriendActivity)
		setF(&w.TrendingBonus, o.Weights.TrendingBonus)
		setF(&w.RecencyBonus, o.Weights.RecencyBonus)
		setF(&w.DiversityBonus, o.Weights.DiversityBonus)
	}
	if o.Diversity != nil {
		d := &out.Diversity
		setF(&d.QualityRatio, o.Diversity.QualityRatio)
		setI(&d.PerGenreCap, o.Diversity.PerGenreCap)
		setF(&d.HighEntropyThreshold, o.Diversity.HighEntropyThreshold)
		setF(&d.OverlapPenalty, o.Diversity.OverlapPenalty)
	}
	if o.Quotas != nil {
		q := &out.Quotas
		setI(&q.Genre, o.Quotas.Genre)
		setI(&q.Author, o.Quotas.Author)
		setI(&q.Friend, o.Quotas.Friend)
		setI(&q.Similar, o.Quotas.Similar)
		setI(&q.Trending, o.Quotas.Trending)
	}
	if o.Quality != nil {
		t := &out.Quality
		setF(&t.MinTrendingRating, o.Quality.MinTrendingRating)
		setF(&t.MinSimilarRating, o.Quality.MinSimilarRating)
		setI(&t.MinRatingsCount, o.Quality.MinRatingsCount)
		setI(&t.MinPageCount, o.Quality.MinPageCount)
		setI(&t.MaxPageCount, o.Quality.MaxPageCount)
	}
	if o.Context != nil {
		c := &out.Context
		setI(&c.MorningStartHour, o.Context.MorningStartHour)
		setI(&c.MorningEndHour, o.Context.MorningEndHour)
		setI(&c.MorningShortBookPages, o.Context.MorningShortBookPages)
		setF(&c.MorningShortBookBoost, o.Context.MorningShortBookBoost)
		setF(&c.SlowReaderPace, o.Context.SlowReaderPace)
		setI(&c.SlowReaderPageCeiling, o.Context.SlowReaderPageCeiling)
	}
	if o.RecencyEnabled != nil {
		out.RecencyEnabled = *o.RecencyEnabled
	}
	if o.CacheTTLHours != nil {
		out.CacheTTLHours = *o.CacheTTLHours
	}
	return out
}

func setF(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setI(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}
