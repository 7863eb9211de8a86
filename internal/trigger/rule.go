// Package trigger defines diagnostic rules and the registry the engine evaluates.
//
// A Rule pairs stable metadata (id, name, category) with an Evaluator. Evaluators
// are pure functions of an Input and never fail: when a page lacks the data a
// rule needs, the evaluator returns a fallback evaluation carrying a Reason
// code instead of an error.
package trigger

import (
	"errors"
	"fmt"

	"github.com/ppehal/orchideo-sub001/internal/models"
)

// ErrInvalidRule is returned by Register for rules missing required fields.
var ErrInvalidRule = errors.New("invalid trigger rule")

// Evaluator scores one page against one rule.
type Evaluator interface {
	Evaluate(in *Input) models.TriggerEvaluation
}

// EvaluatorFunc adapts a plain function to Evaluator.
type EvaluatorFunc func(in *Input) models.TriggerEvaluation

// Evaluate calls f(in).
func (f EvaluatorFunc) Evaluate(in *Input) models.TriggerEvaluation {
	return f(in)
}

// Rule is an immutable trigger definition.
type Rule struct {
	ID          string
	Name        string
	Description string
	Category    models.Category
	Evaluator   Evaluator
}

// Validate checks that the rule can be registered.
func (r Rule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: id must not be empty", ErrInvalidRule)
	}
	if r.Name == "" {
		return fmt.Errorf("%w %s: name must not be empty", ErrInvalidRule, r.ID)
	}
	if !r.Category.Valid() {
		return fmt.Errorf("%w %s: unknown category %q", ErrInvalidRule, r.ID, r.Category)
	}
	if r.Evaluator == nil {
		return fmt.Errorf("%w %s: evaluator must not be nil", ErrInvalidRule, r.ID)
	}
	if f, ok := r.Evaluator.(EvaluatorFunc); ok && f == nil {
		return fmt.Errorf("%w %s: evaluator func must not be nil", ErrInvalidRule, r.ID)
	}
	return nil
}
