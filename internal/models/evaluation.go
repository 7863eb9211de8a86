package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Category groups triggers; each category has a weight in the overall score.
type Category string

const (
	CategoryBasic        Category = "BASIC"
	CategoryContent      Category = "CONTENT"
	CategoryTechnical    Category = "TECHNICAL"
	CategoryTiming       Category = "TIMING"
	CategorySharing      Category = "SHARING"
	CategoryPageSettings Category = "PAGE_SETTINGS"
)

// Categories lists every category in report order.
var Categories = []Category{
	CategoryBasic,
	CategoryContent,
	CategoryTechnical,
	CategoryTiming,
	CategorySharing,
	CategoryPageSettings,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory converts a case-insensitive name into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Status is the tier a score falls into.
type Status string

const (
	StatusExcellent        Status = "EXCELLENT"
	StatusGood             Status = "GOOD"
	StatusNeedsImprovement Status = "NEEDS_IMPROVEMENT"
	StatusCritical         Status = "CRITICAL"
)

// Reason explains why a trigger fell back to a neutral score instead of a measurement.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonInsufficientData  Reason = "INSUFFICIENT_DATA"
	ReasonMetricUnavailable Reason = "METRIC_UNAVAILABLE"
	ReasonNotApplicable     Reason = "NOT_APPLICABLE"
)

// Internal metric keys. A leading underscore marks a metric as non-display.
const (
	InternalMetricPrefix = "_"
	MetricCategoryKey    = "_categoryKey"
	MetricFormula        = "_formula"
	MetricDebug          = "_debug"
)

// IsInternalMetric reports whether a metrics key is for internal use only.
func IsInternalMetric(key string) bool {
	return strings.HasPrefix(key, InternalMetricPrefix)
}

// DisplayMetrics returns a copy of metrics without internal keys.
func DisplayMetrics(metrics map[string]any) map[string]any {
	out := make(map[string]any, len(metrics))
	for k, v := range metrics {
		if !IsInternalMetric(k) {
			out[k] = v
		}
	}
	return out
}

// Value is a trigger's current or target value: either a number or a display string.
type Value struct {
	num   float64
	text  string
	isNum bool
	set   bool
}

// Number returns a numeric Value.
func Number(f float64) Value {
	return Value{num: f, isNum: true, set: true}
}

// Text returns a display-string Value.
func Text(s string) Value {
	return Value{text: s, set: true}
}

// IsSet reports whether the value was provided.
func (v Value) IsSet() bool { return v.set }

// IsNumber reports whether the value is numeric.
func (v Value) IsNumber() bool { return v.isNum }

// Float returns the numeric value and whether it is numeric.
func (v Value) Float() (float64, bool) { return v.num, v.isNum }

// String renders the value for display.
func (v Value) String() string {
	if !v.set {
		return ""
	}
	if v.isNum {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.text
}

// MarshalJSON encodes numbers as JSON numbers, text as strings and unset as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch {
	case !v.set:
		return []byte("null"), nil
	case v.isNum:
		return json.Marshal(v.num)
	default:
		return json.Marshal(v.text)
	}
}

// UnmarshalJSON accepts null, a number or a string.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = Value{}
	case float64:
		*v = Number(t)
	case string:
		*v = Text(t)
	default:
		return fmt.Errorf("value must be a number or string, got %T", raw)
	}
	return nil
}

// EvaluationDetails carries the optional measurement context of an evaluation.
type EvaluationDetails struct {
	CurrentValue Value          `json:"currentValue"`
	TargetValue  Value          `json:"targetValue"`
	Context      string         `json:"context,omitempty"`
	Reason       Reason         `json:"reason,omitempty"`
	Metrics      map[string]any `json:"metrics,omitempty"`
}

// TriggerEvaluation is one trigger's result for one analysis run.
type TriggerEvaluation struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Category       Category           `json:"category"`
	Score          int                `json:"score"`
	Status         Status             `json:"status"`
	Recommendation string             `json:"recommendation,omitempty"`
	Details        *EvaluationDetails `json:"details,omitempty"`
}

// Reason returns the fallback reason, or ReasonNone.
func (e *TriggerEvaluation) Reason() Reason {
	if e.Details == nil {
		return ReasonNone
	}
	return e.Details.Reason
}

// CategoryKey returns the embedded composite category key, if any.
func (e *TriggerEvaluation) CategoryKey() string {
	if e.Details == nil || e.Details.Metrics == nil {
		return ""
	}
	key, _ := e.Details.Metrics[MetricCategoryKey].(string)
	return key
}
