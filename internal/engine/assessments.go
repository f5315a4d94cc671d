package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nyashahama/hazard-risk-engine/internal/db"
	"github.com/nyashahama/hazard-risk-engine/internal/scoring"
)

// LoadAssessments reads the latest record of every assessment type for the
// patient. The four reads are independent and run concurrently. A missing
// record leaves the corresponding field nil.
func (e *Engine) LoadAssessments(ctx context.Context, patientID uuid.UUID) (scoring.Assessments, error) {
	var a scoring.Assessments
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		row, err := e.q.GetLatestAdlAnswer(gctx, patientID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load adl: %w", err)
		}
		a.ADL = ADLScores(row)
		return nil
	})
	g.Go(func() error {
		row, err := e.q.GetLatestIadlAnswer(gctx, patientID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load iadl: %w", err)
		}
		a.IADL = IADLScores(row)
		return nil
	})
	g.Go(func() error {
		row, err := e.q.GetLatestPatientHistory(gctx, patientID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		a.History = &scoring.CodeHistory{Sx: row.SxCodes, Dx: row.DxCodes, Rx: row.RxCodes}
		return nil
	})
	g.Go(func() error {
		row, err := e.q.GetLatestPrapareAnswer(gctx, patientID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load prapare: %w", err)
		}
		scores, err := PRAPAREScores(row)
		if err != nil {
			return err
		}
		a.PRAPARE = scores
		return nil
	})

	if err := g.Wait(); err != nil {
		return scoring.Assessments{}, err
	}
	return a, nil
}

// ADLScores converts an ADL row to item scores, omitting unanswered items.
func ADLScores(r db.AdlAnswer) scoring.ItemScores {
	return collect(map[string]sql.NullInt32{
		"feeding":    r.Feeding,
		"bathing":    r.Bathing,
		"grooming":   r.Grooming,
		"dressing":   r.Dressing,
		"bowels":     r.Bowels,
		"bladder":    r.Bladder,
		"toilet_use": r.ToiletUse,
		"transfers":  r.Transfers,
		"mobility":   r.Mobility,
		"stairs":     r.Stairs,
	})
}

// IADLScores converts an IADL row to item scores, omitting unanswered items.
func IADLScores(r db.IadlAnswer) scoring.ItemScores {
	return collect(map[string]sql.NullInt32{
		"telephone":        r.Telephone,
		"shopping":         r.Shopping,
		"food_preparation": r.FoodPreparation,
		"housekeeping":     r.Housekeeping,
		"laundry":          r.Laundry,
		"transportation":   r.Transportation,
		"medication":       r.Medication,
		"finances":         r.Finances,
	})
}

// PRAPAREScores decodes the JSONB item map. Null values and keys that are not
// scorable PRAPARE items are dropped.
func PRAPAREScores(r db.PrapareAnswer) (scoring.ItemScores, error) {
	if !r.Items.Valid || len(r.Items.RawMessage) == 0 {
		return nil, nil
	}
	var raw map[string]*int
	if err := json.Unmarshal(r.Items.RawMessage, &raw); err != nil {
		return nil, fmt.Errorf("decode prapare items: %w", err)
	}
	out := make(scoring.ItemScores, len(raw))
	for item, v := range raw {
		if v == nil || !scoring.IsPRAPAREItem(item) {
			continue
		}
		out[item] = *v
	}
	return out, nil
}

func collect(items map[string]sql.NullInt32) scoring.ItemScores {
	out := make(scoring.ItemScores, len(items))
	for k, v := range items {
		if v.Valid {
			out[k] = int(v.Int32)
		}
	}
	return out
}
