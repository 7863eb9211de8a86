// Package storage persists analysis summaries and per-trigger results in SQLite.
//
// Results of one analysis are only ever replaced as a whole: callers open a
// transaction with WithTx (or Transact), delete the previous rows and insert
// the new set. Readers never observe a mix of two runs.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/ppehal/orchideo-sub001/internal/models"
	"github.com/ppehal/orchideo-sub001/internal/results"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// ErrAnalysisNotFound is returned when no summary exists for an analysis id.
var ErrAnalysisNotFound = errors.New("analysis not found")

func init() {
	sqlx.BindDriver(DriverName, sqlx.QUESTION)
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS analyses (
		id             TEXT PRIMARY KEY,
		page_id        TEXT NOT NULL DEFAULT '',
		industry       TEXT NOT NULL DEFAULT '',
		overall_score  REAL NOT NULL,
		categories     TEXT NOT NULL DEFAULT '[]',
		trigger_count  INTEGER NOT NULL DEFAULT 0,
		updated_at     INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS trigger_results (
		id              TEXT PRIMARY KEY,
		analysis_id     TEXT NOT NULL,
		position        INTEGER NOT NULL,
		trigger_id      TEXT NOT NULL,
		category        TEXT NOT NULL,
		score           INTEGER NOT NULL,
		status          TEXT NOT NULL,
		value           REAL,
		threshold       REAL,
		recommendation  TEXT NOT NULL DEFAULT '',
		details         TEXT,
		created_at      INTEGER NOT NULL,
		UNIQUE (analysis_id, trigger_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trigger_results_analysis ON trigger_results (analysis_id, position)`,
}

// Storage is the SQLite-backed result store.
type Storage struct {
	db *sqlx.DB
}

// New opens (creating if needed) the database at dbPath and applies the
// schema. ":memory:" opens a private in-memory database.
func New(dbPath string) (*Storage, error) {
	if dbPath == "" {
		return nil, errors.New("database path must not be empty")
	}
	inMemory := dbPath == ":memory:"
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Open(DriverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// every connection to :memory: is a separate database
	if inMemory {
		db.SetMaxOpenConns(1)
	}

	s := &Storage{db: db}
	if err := s.init(context.Background(), !inMemory); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing connection without touching the schema.
func NewWithDB(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) init(ctx context.Context, applyPragmas bool) error {
	if applyPragmas {
		for _, p := range pragmas {
			if _, err := s.db.ExecContext(ctx, p); err != nil {
				return fmt.Errorf("sqlite pragma %q: %w", p, err)
			}
		}
	}
	return s.Migrate(ctx)
}

// Migrate creates missing tables and indexes.
func (s *Storage) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Storage) Close() error {
	return s.db.Close()
}

// WithTx runs fn in a transaction, committing if fn returns nil.
func (s *Storage) WithTx(ctx context.Context, fn func(*Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := fn(&Tx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Transact adapts WithTx to results.Transactor.
func (s *Storage) Transact(ctx context.Context, fn func(results.Writer) error) error {
	return s.WithTx(ctx, func(tx *Tx) error { return fn(tx) })
}

// Tx is an open transaction.
type Tx struct {
	tx *sqlx.Tx
}

// DeleteAllResults removes every result row of the analysis.
func (t *Tx) DeleteAllResults(ctx context.Context, analysisID string) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM trigger_results WHERE analysis_id = ?`, analysisID); err != nil {
		return fmt.Errorf("delete results of %s: %w", analysisID, err)
	}
	return nil
}

const insertResultSQL = `INSERT INTO trigger_results
	(id, analysis_id, position, trigger_id, category, score, status, value, threshold, recommendation, details, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// InsertResults inserts records, which must all belong to analysisID.
func (t *Tx) InsertResults(ctx context.Context, analysisID string, records []models.ResultRecord) error {
	for i := range records {
		r := &records[i]
		if r.AnalysisID != analysisID {
			return fmt.Errorf("result %s belongs to analysis %s, not %s", r.ID, r.AnalysisID, analysisID)
		}
		if err := r.Validate(); err != nil {
			return fmt.Errorf("invalid result: %w", err)
		}
		details, err := encodeDetails(r.Details)
		if err != nil {
			return fmt.Errorf("encode details of %s: %w", r.TriggerID, err)
		}
		_, err = t.tx.ExecContext(ctx, insertResultSQL,
			r.ID, r.AnalysisID, r.Position, r.TriggerID, string(r.Category), r.Score, string(r.Status),
			r.Value, r.Threshold, r.Recommendation, details, r.CreatedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("insert result %s: %w", r.TriggerID, err)
		}
	}
	return nil
}

const upsertAnalysisSQL = `INSERT INTO analyses
	(id, page_id, industry, overall_score, categories, trigger_count, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		page_id = excluded.page_id,
		industry = excluded.industry,
		overall_score = excluded.overall_score,
		categories = excluded.categories,
		trigger_count = excluded.trigger_count,
		updated_at = excluded.updated_at`

// UpsertAnalysis inserts or replaces the analysis summary.
func (t *Tx) UpsertAnalysis(ctx context.Context, s *models.AnalysisSummary) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid analysis: %w", err)
	}
	categories, err := json.Marshal(s.Categories)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	_, err = t.tx.ExecContext(ctx, upsertAnalysisSQL,
		s.ID, s.PageID, s.Industry, s.OverallScore, string(categories), s.TriggerCount, s.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert analysis %s: %w", s.ID, err)
	}
	return nil
}

type resultRow struct {
	ID             string          `db:"id"`
	AnalysisID     string          `db:"analysis_id"`
	Position       int             `db:"position"`
	TriggerID      string          `db:"trigger_id"`
	Category       string          `db:"category"`
	Score          int             `db:"score"`
	Status         string          `db:"status"`
	Value          sql.NullFloat64 `db:"value"`
	Threshold      sql.NullFloat64 `db:"threshold"`
	Recommendation string          `db:"recommendation"`
	Details        sql.NullString  `db:"details"`
	CreatedAt      int64           `db:"created_at"`
}

func (r resultRow) record() (models.ResultRecord, error) {
	rec := models.ResultRecord{
		ID:             r.ID,
		AnalysisID:     r.AnalysisID,
		Position:       r.Position,
		TriggerID:      r.TriggerID,
		Category:       models.Category(r.Category),
		Score:          r.Score,
		Status:         models.Status(r.Status),
		Value:          nullFloat(r.Value),
		Threshold:      nullFloat(r.Threshold),
		Recommendation: r.Recommendation,
		CreatedAt:      time.UnixMilli(r.CreatedAt).UTC(),
	}
	if r.Details.Valid && r.Details.String != "" {
		var d models.EvaluationDetails
		if err := json.Unmarshal([]byte(r.Details.String), &d); err != nil {
			return rec, fmt.Errorf("decode details of %s: %w", r.TriggerID, err)
		}
		rec.Details = &d
	}
	return rec, nil
}

// ListResults returns the stored results of an analysis in evaluation order.
func (s *Storage) ListResults(ctx context.Context, analysisID string) ([]models.ResultRecord, error) {
	var rows []resultRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, analysis_id, position, trigger_id, category, score, status, value, threshold,
		        recommendation, details, created_at
		   FROM trigger_results WHERE analysis_id = ? ORDER BY position`, analysisID)
	if err != nil {
		return nil, fmt.Errorf("list results of %s: %w", analysisID, err)
	}
	out := make([]models.ResultRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

type analysisRow struct {
	ID           string  `db:"id"`
	PageID       string  `db:"page_id"`
	Industry     string  `db:"industry"`
	OverallScore float64 `db:"overall_score"`
	Categories   string  `db:"categories"`
	TriggerCount int     `db:"trigger_count"`
	UpdatedAt    int64   `db:"updated_at"`
}

// GetAnalysis returns the stored summary, or ErrAnalysisNotFound.
func (s *Storage) GetAnalysis(ctx context.Context, id string) (*models.AnalysisSummary, error) {
	var row analysisRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, page_id, industry, overall_score, categories, trigger_count, updated_at
		   FROM analyses WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrAnalysisNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis %s: %w", id, err)
	}

	summary := &models.AnalysisSummary{
		ID:           row.ID,
		PageID:       row.PageID,
		Industry:     row.Industry,
		OverallScore: row.OverallScore,
		TriggerCount: row.TriggerCount,
		UpdatedAt:    time.UnixMilli(row.UpdatedAt).UTC(),
	}
	if err := json.Unmarshal([]byte(row.Categories), &summary.Categories); err != nil {
		return nil, fmt.Errorf("decode categories of %s: %w", id, err)
	}
	return summary, nil
}

func encodeDetails(d *models.EvaluationDetails) (any, error) {
	if d == nil {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func nullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	f := n.Float64
	return &f
}
