// Package engine runs every registered trigger against a page dataset and
// rolls the results up into category and overall scores.
//
// Each category score is the unweighted mean of its trigger scores (0 when the
// category has no triggers). The overall score is the weighted sum of category
// scores:
//
//	overall = Σ weight(c) × mean(scores in c)
//
// Weights must sum to 1.0, so the overall score stays within [0, 100].
// Scores are kept as floats until a caller rounds them for display.
package engine

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ppehal/orchideo-sub001/internal/classifier"
	"github.com/ppehal/orchideo-sub001/internal/logger"
	"github.com/ppehal/orchideo-sub001/internal/models"
	"github.com/ppehal/orchideo-sub001/internal/trigger"
)

// ErrInvalidWeights is returned for weight tables that reference unknown
// categories, hold negative weights or do not sum to 1.0.
var ErrInvalidWeights = errors.New("invalid category weights")

// weightTolerance is the allowed deviation of the weight sum from 1.0.
const weightTolerance = 1e-6

// Weights maps each category to its share of the overall score.
type Weights map[models.Category]float64

// DefaultWeights returns the built-in weight table.
func DefaultWeights() Weights {
	return Weights{
		models.CategoryBasic:        0.25,
		models.CategoryContent:      0.25,
		models.CategoryTechnical:    0.15,
		models.CategoryTiming:       0.15,
		models.CategorySharing:      0.10,
		models.CategoryPageSettings: 0.10,
	}
}

// Validate checks the weight table.
func (w Weights) Validate() error {
	if len(w) == 0 {
		return fmt.Errorf("%w: table is empty", ErrInvalidWeights)
	}
	var sum float64
	for c, v := range w {
		if !c.Valid() {
			return fmt.Errorf("%w: unknown category %q", ErrInvalidWeights, c)
		}
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: %s weight %v is negative", ErrInvalidWeights, c, v)
		}
		sum += v
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %.6f, want 1.0", ErrInvalidWeights, sum)
	}
	return nil
}

// Tiers are the lower score bounds of the status tiers. Scores below
// NeedsImprovement are CRITICAL.
type Tiers struct {
	Excellent        float64 `mapstructure:"excellent"`
	Good             float64 `mapstructure:"good"`
	NeedsImprovement float64 `mapstructure:"needs_improvement"`
}

// DefaultTiers returns the 85/65/40 breakpoints.
func DefaultTiers() Tiers {
	return Tiers{Excellent: 85, Good: 65, NeedsImprovement: 40}
}

// Validate checks that the breakpoints descend strictly within (0, 100].
func (t Tiers) Validate() error {
	if t.Excellent > 100 || t.NeedsImprovement <= 0 {
		return errors.New("tiers must lie within (0, 100]")
	}
	if !(t.Excellent > t.Good && t.Good > t.NeedsImprovement) {
		return fmt.Errorf("tiers must descend: excellent %v > good %v > needs_improvement %v",
			t.Excellent, t.Good, t.NeedsImprovement)
	}
	return nil
}

// Status maps a score to its tier.
func (t Tiers) Status(score float64) models.Status {
	switch {
	case score >= t.Excellent:
		return models.StatusExcellent
	case score >= t.Good:
		return models.StatusGood
	case score >= t.NeedsImprovement:
		return models.StatusNeedsImprovement
	default:
		return models.StatusCritical
	}
}

// Engine evaluates the rules of a registry. It holds no per-run state and may
// serve concurrent runs for different analyses.
type Engine struct {
	registry   *trigger.Registry
	weights    Weights
	tiers      Tiers
	classifier *classifier.Classifier
	settings   trigger.Settings
}

// Option configures an Engine.
type Option func(*Engine)

// WithTiers overrides the status breakpoints.
func WithTiers(t Tiers) Option {
	return func(e *Engine) { e.tiers = t }
}

// WithClassifier sets the content classifier handed to rules.
func WithClassifier(c *classifier.Classifier) Option {
	return func(e *Engine) { e.classifier = c }
}

// WithSettings sets the rule sample settings.
func WithSettings(s trigger.Settings) Option {
	return func(e *Engine) { e.settings = s }
}

// New validates the configuration and returns an Engine.
func New(reg *trigger.Registry, weights Weights, opts ...Option) (*Engine, error) {
	if reg == nil {
		return nil, errors.New("registry must not be nil")
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		registry:   reg,
		weights:    weights,
		tiers:      DefaultTiers(),
		classifier: classifier.Default(),
		settings:   trigger.DefaultSettings(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.tiers.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Report is the outcome of one analysis run.
type Report struct {
	Evaluations []models.TriggerEvaluation
	Score       models.AggregateScore
	// Status is the tier of the overall score.
	Status      models.Status
	EvaluatedAt time.Time
}

// Lowest returns up to n evaluations with the lowest scores, ties in
// registration order.
func (r *Report) Lowest(n int) []models.TriggerEvaluation {
	sorted := make([]models.TriggerEvaluation, len(r.Evaluations))
	copy(sorted, r.Evaluations)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].Score < sorted[b].Score })
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// Evaluate runs every registered rule in registration order and aggregates
// the scores. Rules are expected not to panic; a panic is a programming error
// and propagates.
func (e *Engine) Evaluate(ds *models.PageDataset, bench models.Benchmark) *Report {
	in := trigger.NewInput(ds, bench, e.classifier, e.settings)
	rules := e.registry.All()

	evals := make([]models.TriggerEvaluation, 0, len(rules))
	fallbacks := 0
	for _, r := range rules {
		ev := r.Evaluator.Evaluate(in)
		if ev.ID != "" && ev.ID != r.ID {
			logger.Warn("Rule %s returned evaluation for %s; using rule id", r.ID, ev.ID)
		}
		ev.ID = r.ID
		ev.Name = r.Name
		ev.Category = r.Category
		ev.Score = clampScore(ev.Score)
		ev.Status = e.tiers.Status(float64(ev.Score))
		if ev.Reason() != models.ReasonNone {
			fallbacks++
		}
		evals = append(evals, ev)
	}

	score := Aggregate(evals, e.weights)
	logger.Debug("Evaluated %d rules for page %s: overall=%.2f fallbacks=%d categories=[%s]",
		len(evals), in.Page().ID, score.Overall, fallbacks, formatCategories(score))

	return &Report{
		Evaluations: evals,
		Score:       score,
		Status:      e.tiers.Status(score.Overall),
		EvaluatedAt: in.Now,
	}
}

// Aggregate computes the category means and the weighted overall score.
// Every category with a weight or an evaluation appears in the result, in
// the fixed category order.
func Aggregate(evals []models.TriggerEvaluation, weights Weights) models.AggregateScore {
	sums := make(map[models.Category]float64)
	counts := make(map[models.Category]int)
	for _, ev := range evals {
		sums[ev.Category] += float64(ev.Score)
		counts[ev.Category]++
	}

	var agg models.AggregateScore
	for _, c := range models.Categories {
		w, weighted := weights[c]
		if !weighted && counts[c] == 0 {
			continue
		}
		cs := models.CategoryScore{Category: c, Weight: w, TriggerCount: counts[c]}
		if counts[c] > 0 {
			cs.Score = sums[c] / float64(counts[c])
		}
		agg.Categories = append(agg.Categories, cs)
		agg.Overall += w * cs.Score
	}
	agg.Overall = math.Max(0, math.Min(100, agg.Overall))
	return agg
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

func formatCategories(a models.AggregateScore) string {
	parts := make([]string, 0, len(a.Categories))
	for _, c := range a.Categories {
		parts = append(parts, fmt.Sprintf("%s=%.1f", c.Category, c.Score))
	}
	return strings.Join(parts, " ")
}
