package recommendation

import (
	"math"
	"testing"
)

func TestComputeMetrics(t *testing.T) {
	cases := []struct {
		name                              string
		shown, clicked, converted         int
		wantCTR, wantConversion           float64
	}{
		{"no activity", 0, 0, 0, 0, 0},
		{"shown only", 40, 0, 0, 0, 0},
		{"typical funnel", 100, 25, 5, 0.25, 0.2},
		{"conversions without clicks", 10, 0, 3, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := ComputeMetrics("hybrid-v1", 7, tc.shown, tc.clicked, tc.converted, 0)
			if math.Abs(m.CTR-tc.wantCTR) > 1e-9 {
				t.Errorf("CTR = %v, want %v", m.CTR, tc.wantCTR)
			}
			if math.Abs(m.ConversionRate-tc.wantConversion) > 1e-9 {
				t.Errorf("ConversionRate = %v, want %v", m.ConversionRate, tc.wantConversion)
			}
			if m.Algorithm != "hybrid-v1" || m.WindowDays != 7 {
				t.Errorf("labels lost: %+v", m)
			}
		})
	}
}

func TestProfileEmpty(t *testing.T) {
	if !(Profile{}).Empty() {
		t.Error("zero profile should be empty")
	}
	withGenres := Profile{TopGenres: []ProfileGenre{{Genre: "fantasy", Weight: 1}}}
	if withGenres.Empty() {
		t.Error("profile with genres should not be empty")
	}
	withAuthors := Profile{FavoriteAuthors: []string{"Robin Hobb"}}
	if withAuthors.Empty() {
		t.Error("profile with authors should not be empty")
	}
	implicitOnly := Profile{ImplicitGenreWeights: map[string]float64{"fantasy": 0.4}}
	if !implicitOnly.Empty() {
		t.Error("implicit-only profile counts as empty for strategy gating")
	}
}
