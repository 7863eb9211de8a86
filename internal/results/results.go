// Package results turns evaluations into persisted rows and replaces an
// analysis's stored results atomically.
//
// A rerun never merges with earlier rows: the previous results of the
// analysis are deleted and the new set inserted inside one transaction, so a
// failure at any step leaves the prior results untouched.
package results

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ppehal/orchideo-sub001/internal/models"
)

// Writer is the storage side of a single transaction.
type Writer interface {
	DeleteAllResults(ctx context.Context, analysisID string) error
	InsertResults(ctx context.Context, analysisID string, records []models.ResultRecord) error
	UpsertAnalysis(ctx context.Context, summary *models.AnalysisSummary) error
}

// Transactor runs fn inside one transaction, committing when fn returns nil
// and rolling back otherwise.
type Transactor interface {
	Transact(ctx context.Context, fn func(Writer) error) error
}

// ToRecords converts evaluations into result rows for analysisID, keeping
// evaluation order in Position.
func ToRecords(analysisID string, evals []models.TriggerEvaluation, createdAt time.Time) []models.ResultRecord {
	records := make([]models.ResultRecord, 0, len(evals))
	for i, ev := range evals {
		r := models.ResultRecord{
			ID:             uuid.New().String(),
			AnalysisID:     analysisID,
			Position:       i,
			TriggerID:      ev.ID,
			Category:       ev.Category,
			Score:          ev.Score,
			Status:         ev.Status,
			Recommendation: ev.Recommendation,
			Details:        ev.Details,
			CreatedAt:      createdAt,
		}
		if ev.Details != nil {
			r.Value = ExtractNumeric(ev.Details.CurrentValue)
			r.Threshold = ExtractNumeric(ev.Details.TargetValue)
		}
		records = append(records, r)
	}
	return records
}

// Replace stores evals as the complete result set of summary.ID: it deletes
// the analysis's previous rows, inserts the new ones and upserts the summary
// in one transaction. It returns the stored records.
func Replace(ctx context.Context, t Transactor, summary *models.AnalysisSummary, evals []models.TriggerEvaluation) ([]models.ResultRecord, error) {
	if summary == nil {
		return nil, errors.New("summary must not be nil")
	}
	if summary.UpdatedAt.IsZero() {
		summary.UpdatedAt = time.Now().UTC()
	}
	if err := summary.Validate(); err != nil {
		return nil, fmt.Errorf("invalid summary: %w", err)
	}

	records := ToRecords(summary.ID, evals, summary.UpdatedAt)
	for i := range records {
		if err := records[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid result for %s: %w", records[i].TriggerID, err)
		}
	}

	err := t.Transact(ctx, func(w Writer) error {
		if err := w.DeleteAllResults(ctx, summary.ID); err != nil {
			return fmt.Errorf("failed to delete previous results: %w", err)
		}
		if err := w.InsertResults(ctx, summary.ID, records); err != nil {
			return fmt.Errorf("failed to insert results: %w", err)
		}
		if err := w.UpsertAnalysis(ctx, summary); err != nil {
			return fmt.Errorf("failed to store analysis summary: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
