package trigger

import (
	"strings"

	"github.com/ppehal/orchideo-sub001/internal/benchmark"
	"github.com/ppehal/orchideo-sub001/internal/models"
)

// Fallback scores. Missing data lands in NEEDS_IMPROVEMENT so it is never
// mistaken for a healthy result; a rule that does not apply scores as GOOD.
const (
	InsufficientScore  = 50
	UnavailableScore   = 50
	NotApplicableScore = 70
)

// FallbackScore returns the score used for evaluations with reason r.
func FallbackScore(r models.Reason) int {
	switch r {
	case models.ReasonInsufficientData:
		return InsufficientScore
	case models.ReasonMetricUnavailable:
		return UnavailableScore
	case models.ReasonNotApplicable:
		return NotApplicableScore
	default:
		return 0
	}
}

// Scored returns an evaluation with score and empty details.
func Scored(score int) models.TriggerEvaluation {
	return models.TriggerEvaluation{
		Score:   score,
		Details: &models.EvaluationDetails{Metrics: map[string]any{}},
	}
}

// Fallback returns the neutral evaluation for reason r.
func Fallback(r models.Reason, context string) models.TriggerEvaluation {
	ev := Scored(FallbackScore(r))
	ev.Details.Reason = r
	ev.Details.Context = context
	return ev
}

// Categorized turns a definition's key into an evaluation: score and
// recommendation come from the definition, the key is stored under the
// _categoryKey metric, and fallback keys carry their reason code.
func Categorized(def benchmark.Definition, key benchmark.Key) models.TriggerEvaluation {
	var ev models.TriggerEvaluation
	switch key.Kind() {
	case benchmark.KindInsufficient:
		ev = Fallback(models.ReasonInsufficientData, "not enough data to compare with the benchmark")
	case benchmark.KindUnavailable:
		ev = Fallback(models.ReasonMetricUnavailable, "metric not available for this page")
	case benchmark.KindNotApplicable:
		ev = Fallback(models.ReasonNotApplicable, "not applicable to this page")
	default:
		score, ok := def.Score(key)
		if !ok {
			ev = Fallback(models.ReasonMetricUnavailable, "unknown category "+key.String())
			break
		}
		ev = Scored(score)
		ev.Details.Context = strings.Join(def.Labels(key), ", ")
	}
	ev.Recommendation = def.Recommendation(key)
	ev.Details.Metrics[models.MetricCategoryKey] = key.String()
	return ev
}

// WithValues sets the current and target values on ev.
func WithValues(ev models.TriggerEvaluation, current, target models.Value) models.TriggerEvaluation {
	if ev.Details == nil {
		ev.Details = &models.EvaluationDetails{Metrics: map[string]any{}}
	}
	ev.Details.CurrentValue = current
	ev.Details.TargetValue = target
	return ev
}

// WithMetric sets one metric on ev.
func WithMetric(ev models.TriggerEvaluation, key string, value any) models.TriggerEvaluation {
	if ev.Details == nil {
		ev.Details = &models.EvaluationDetails{}
	}
	if ev.Details.Metrics == nil {
		ev.Details.Metrics = map[string]any{}
	}
	ev.Details.Metrics[key] = value
	return ev
}
