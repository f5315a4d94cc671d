package scoring_test

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/nyashahama/hazard-risk-engine/internal/scoring"
)

func f64(v float64) *float64 { return &v }
func intp(v int) *int         { return &v }
func strp(v string) *string   { return &v }

// ─── PriorityFor ──────────────────────────────────────────────────────────────

func TestPriorityFor_Boundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  scoring.Priority
	}{
		{30, scoring.PriorityHigh},
		{20, scoring.PriorityHigh},
		{19.99, scoring.PriorityMedium},
		{19.9, scoring.PriorityMedium},
		{10, scoring.PriorityMedium},
		{9.99, scoring.PriorityLow},
		{9.5, scoring.PriorityLow},
		{0.1, scoring.PriorityLow},
		{0, scoring.PriorityInfo},
		{-3, scoring.PriorityInfo},
	}
	for _, tt := range tests {
		if got := scoring.PriorityFor(tt.score); got != tt.want {
			t.Errorf("PriorityFor(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

// ─── ScoreRating ──────────────────────────────────────────────────────────────

func TestScoreRating(t *testing.T) {
	if got := scoring.ScoreRating(f64(3), intp(4)); got == nil || *got != 12 {
		t.Errorf("3×4: got %v, want 12", got)
	}
	if got := scoring.ScoreRating(f64(2.5), intp(2)); got == nil || *got != 5 {
		t.Errorf("2.5×2: got %v, want 5", got)
	}
	if got := scoring.ScoreRating(nil, intp(4)); got != nil {
		t.Errorf("missing severity: got %v, want nil", *got)
	}
	if got := scoring.ScoreRating(f64(3), nil); got != nil {
		t.Errorf("missing likelihood: got %v, want nil", *got)
	}
}

// ─── ApplyRatingUpdate ────────────────────────────────────────────────────────

func TestApplyRatingUpdate(t *testing.T) {
	rated := scoring.Rating{Severity: f64(3), Likelihood: intp(4), RiskScore: f64(12), Notes: strp("old")}

	t.Run("both factors set", func(t *testing.T) {
		got := scoring.ApplyRatingUpdate(scoring.Rating{}, scoring.RatingUpdate{
			SeveritySet: true, Severity: f64(5),
			LikelihoodSet: true, Likelihood: intp(6),
		})
		if got.RiskScore == nil || *got.RiskScore != 30 {
			t.Fatalf("RiskScore = %v, want 30", got.RiskScore)
		}
	})

	t.Run("one factor merges with stored one", func(t *testing.T) {
		got := scoring.ApplyRatingUpdate(rated, scoring.RatingUpdate{LikelihoodSet: true, Likelihood: intp(2)})
		if got.RiskScore == nil || *got.RiskScore != 6 {
			t.Fatalf("RiskScore = %v, want 6", got.RiskScore)
		}
		if *got.Severity != 3 {
			t.Errorf("Severity changed to %v", *got.Severity)
		}
	})

	t.Run("clearing a factor nulls the score", func(t *testing.T) {
		got := scoring.ApplyRatingUpdate(rated, scoring.RatingUpdate{SeveritySet: true})
		if got.Severity != nil || got.RiskScore != nil {
			t.Fatalf("got severity=%v score=%v, want both nil", got.Severity, got.RiskScore)
		}
	})

	t.Run("notes only keeps score", func(t *testing.T) {
		got := scoring.ApplyRatingUpdate(rated, scoring.RatingUpdate{NotesSet: true, Notes: strp("new")})
		if got.RiskScore == nil || *got.RiskScore != 12 {
			t.Fatalf("RiskScore = %v, want 12", got.RiskScore)
		}
		if *got.Notes != "new" {
			t.Errorf("Notes = %q", *got.Notes)
		}
	})

	t.Run("empty update is identity", func(t *testing.T) {
		got := scoring.ApplyRatingUpdate(rated, scoring.RatingUpdate{})
		if *got.RiskScore != 12 || *got.Notes != "old" {
			t.Fatalf("got %+v", got)
		}
	})
}

// ─── RatingUpdate JSON ────────────────────────────────────────────────────────

func TestRatingUpdate_UnmarshalJSON(t *testing.T) {
	t.Run("absent vs null", func(t *testing.T) {
		var u scoring.RatingUpdate
		if err := json.Unmarshal([]byte(`{"severity": null, "likelihood": 4}`), &u); err != nil {
			t.Fatal(err)
		}
		if !u.SeveritySet || u.Severity != nil {
			t.Errorf("severity: set=%v val=%v, want set and nil", u.SeveritySet, u.Severity)
		}
		if !u.LikelihoodSet || u.Likelihood == nil || *u.Likelihood != 4 {
			t.Errorf("likelihood: got %+v", u)
		}
		if u.NotesSet {
			t.Error("notes should be absent")
		}
	})

	t.Run("empty object", func(t *testing.T) {
		var u scoring.RatingUpdate
		if err := json.Unmarshal([]byte(`{}`), &u); err != nil {
			t.Fatal(err)
		}
		if !u.Empty() {
			t.Errorf("Empty() = false for %+v", u)
		}
	})

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"client score rejected", `{"risk_score": 99}`, `"risk_score"`},
		{"unknown field", `{"sevrity": 3}`, "unknown field"},
		{"bad severity", `{"severity": "high"}`, "severity"},
		{"fractional likelihood", `{"likelihood": 2.5}`, "likelihood"},
		{"likelihood beyond int4", `{"severity": 3, "likelihood": 4294967297}`, "likelihood: out of range"},
		{"not an object", `[1,2]`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u scoring.RatingUpdate
			err := json.Unmarshal([]byte(tt.body), &u)
			if err == nil {
				t.Fatal("want error, got nil")
			}
			if tt.wantErr != "" && !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestRatingUpdate_Validate(t *testing.T) {
	if err := (scoring.RatingUpdate{LikelihoodSet: true, Likelihood: intp(6)}).Validate(); err != nil {
		t.Errorf("likelihood 6: %v", err)
	}
	if err := (scoring.RatingUpdate{}).Validate(); err != nil {
		t.Errorf("empty update: %v", err)
	}
	big := int(math.MaxInt32) + 1
	err := (scoring.RatingUpdate{LikelihoodSet: true, Likelihood: &big}).Validate()
	if !errors.Is(err, scoring.ErrLikelihoodRange) {
		t.Errorf("likelihood %d: got %v, want ErrLikelihoodRange", big, err)
	}
}
