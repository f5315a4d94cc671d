package scoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
)

// ─── CONSTANTS ────────────────────────────────────────────────────────────────

// Priority thresholds on a service's max risk score.
const (
	highPriorityThreshold   = 20.0 // score >= 20 → High
	mediumPriorityThreshold = 10.0 // score >= 10 → Medium
)

// ─── PRIORITY ─────────────────────────────────────────────────────────────────

// Priority is the four-bucket urgency of a recommended service.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
	PriorityInfo   Priority = "Info" // mapped hazard, nothing rated yet
)

// PriorityFor buckets a risk score.
func PriorityFor(score float64) Priority {
	switch {
	case score >= highPriorityThreshold:
		return PriorityHigh
	case score >= mediumPriorityThreshold:
		return PriorityMedium
	case score > 0:
		return PriorityLow
	default:
		return PriorityInfo
	}
}

// ─── RATINGS ──────────────────────────────────────────────────────────────────

// ScoreRating returns severity × likelihood, or nil when either factor is
// missing. Severity is conventionally 0–5 and likelihood 0–6; neither range is
// enforced here.
func ScoreRating(severity *float64, likelihood *int) *float64 {
	if severity == nil || likelihood == nil {
		return nil
	}
	score := *severity * float64(*likelihood)
	return &score
}

// Rating is the mutable part of a Risk or SocialRisk row.
type Rating struct {
	Severity   *float64 `json:"severity"`
	Likelihood *int     `json:"likelihood"`
	RiskScore  *float64 `json:"risk_score"`
	Notes      *string  `json:"notes"`
}

// RatingUpdate is a partial update. For each field the *Set flag records
// whether the client sent it at all; a set field with a nil value clears it.
type RatingUpdate struct {
	SeveritySet   bool
	Severity      *float64
	LikelihoodSet bool
	Likelihood    *int
	NotesSet      bool
	Notes         *string
}

// ErrLikelihoodRange is returned for a likelihood that does not fit the
// stored int4 column.
var ErrLikelihoodRange = errors.New("likelihood: out of range")

// Validate rejects factors the database cannot hold exactly.
func (u RatingUpdate) Validate() error {
	if u.Likelihood != nil && (*u.Likelihood < math.MinInt32 || *u.Likelihood > math.MaxInt32) {
		return ErrLikelihoodRange
	}
	return nil
}

// Empty reports whether the update carries no fields.
func (u RatingUpdate) Empty() bool {
	return !u.SeveritySet && !u.LikelihoodSet && !u.NotesSet
}

// ApplyRatingUpdate merges u into cur and recomputes the score.
//
// The score is never taken from the client. When severity or likelihood was
// supplied, it is recomputed from the merged factors, so it becomes nil if one
// of them is now missing. A notes-only update leaves the score as it was.
func ApplyRatingUpdate(cur Rating, u RatingUpdate) Rating {
	next := cur
	if u.SeveritySet {
		next.Severity = u.Severity
	}
	if u.LikelihoodSet {
		next.Likelihood = u.Likelihood
	}
	if u.NotesSet {
		next.Notes = u.Notes
	}
	if u.SeveritySet || u.LikelihoodSet {
		next.RiskScore = ScoreRating(next.Severity, next.Likelihood)
	}
	return next
}

// UnmarshalJSON distinguishes an absent field (leave unchanged) from an
// explicit null (clear). Unknown fields and risk_score are rejected.
func (u *RatingUpdate) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out RatingUpdate
	for _, k := range keys {
		raw := fields[k]
		null := bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
		switch k {
		case "severity":
			out.SeveritySet = true
			if !null {
				var v float64
				if err := json.Unmarshal(raw, &v); err != nil {
					return fmt.Errorf("severity: must be a number")
				}
				out.Severity = &v
			}
		case "likelihood":
			out.LikelihoodSet = true
			if !null {
				var v int64
				if err := json.Unmarshal(raw, &v); err != nil {
					return fmt.Errorf("likelihood: must be an integer")
				}
				if v < math.MinInt32 || v > math.MaxInt32 {
					return ErrLikelihoodRange
				}
				n := int(v)
				out.Likelihood = &n
			}
		case "notes":
			out.NotesSet = true
			if !null {
				var v string
				if err := json.Unmarshal(raw, &v); err != nil {
					return fmt.Errorf("notes: must be a string")
				}
				out.Notes = &v
			}
		default:
			return fmt.Errorf("unknown field %q", k)
		}
	}
	*u = out
	return nil
}
