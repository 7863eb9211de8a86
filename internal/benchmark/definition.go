// Package benchmark maps continuous page metrics onto discrete benchmark
// buckets and composes the composite category key identifying a page's
// position in a 1, 2 or 3 dimensional category space.
//
// The string form of a key is a wire contract shared with report consumers:
// bucket ids joined by "_" in the definition's fixed dimension order, or one
// of the reserved whole-key tokens INSUFFICIENT, UNAVAILABLE, NOT_APPLICABLE.
// Bucket ids may themselves contain underscores; Parse recovers the
// dimensions by greedy longest-prefix matching against the known ids.
package benchmark

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// DefaultRecommendationKey is the recommendations entry used when nothing more specific matches.
const DefaultRecommendationKey = "DEFAULT"

var (
	// ErrAmbiguousBuckets is returned when a definition's bucket ids could split two ways.
	ErrAmbiguousBuckets = errors.New("ambiguous bucket ids")
	// ErrUnknownToken is returned by Parse when a key token is not a bucket id of its dimension.
	ErrUnknownToken = errors.New("unknown bucket token")
	// ErrInvalidDefinition is returned by Validate for malformed definitions.
	ErrInvalidDefinition = errors.New("invalid category definition")
)

// Bucket is one ordinal range of a dimension. Min is inclusive, Max exclusive;
// a nil bound is open.
type Bucket struct {
	ID    string
	Label string
	Min   *float64
	Max   *float64
	Score int
}

// Contains reports whether v falls inside the bucket's range.
func (b Bucket) Contains(v float64) bool {
	if b.Min != nil && v < *b.Min {
		return false
	}
	if b.Max != nil && v >= *b.Max {
		return false
	}
	return true
}

// Below is a bucket for values under max.
func Below(id, label string, max float64, score int) Bucket {
	return Bucket{ID: id, Label: label, Max: &max, Score: score}
}

// Between is a bucket for values in [min, max).
func Between(id, label string, min, max float64, score int) Bucket {
	return Bucket{ID: id, Label: label, Min: &min, Max: &max, Score: score}
}

// AtLeast is a bucket for values of min or more.
func AtLeast(id, label string, min float64, score int) Bucket {
	return Bucket{ID: id, Label: label, Min: &min, Score: score}
}

// Dimension is a named, ordered list of buckets. When Relative is set, bucket
// bounds are ratios of the measurement's benchmark value.
type Dimension struct {
	Name     string
	Relative bool
	Buckets  []Bucket
}

// Bucketize returns the first bucket containing the measurement.
func (d Dimension) Bucketize(m Measurement) (Bucket, bool) {
	if !m.Available || math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
		return Bucket{}, false
	}
	v := m.Value
	if d.Relative {
		if m.Benchmark <= 0 || math.IsNaN(m.Benchmark) {
			return Bucket{}, false
		}
		v = m.Value / m.Benchmark
	}
	for _, b := range d.Buckets {
		if b.Contains(v) {
			return b, true
		}
	}
	return Bucket{}, false
}

func (d Dimension) bucket(id string) (Bucket, bool) {
	for _, b := range d.Buckets {
		if b.ID == id {
			return b, true
		}
	}
	return Bucket{}, false
}

// longestPrefix returns the longest bucket id p such that s starts with p+"_".
func (d Dimension) longestPrefix(s string) (string, bool) {
	best := ""
	for _, b := range d.Buckets {
		if len(b.ID) > len(best) && strings.HasPrefix(s, b.ID+"_") {
			best = b.ID
		}
	}
	return best, best != ""
}

// Measurement is one metric value with the benchmark it is compared against.
type Measurement struct {
	Value     float64
	Benchmark float64
	Available bool
}

// Measure is an available absolute measurement.
func Measure(v float64) Measurement {
	return Measurement{Value: v, Available: true}
}

// MeasureAgainst is an available measurement compared to a benchmark value.
func MeasureAgainst(v, benchmark float64) Measurement {
	return Measurement{Value: v, Benchmark: benchmark, Available: true}
}

// Missing is a measurement that could not be taken.
func Missing() Measurement {
	return Measurement{}
}

// Definition is a trigger's category table: 1-3 dimensions in fixed key
// order, the minimum sample size, which dimension drives the score, and
// recommendations keyed by composite key.
type Definition struct {
	TriggerID       string
	Dimensions      []Dimension
	MinSample       int
	ScoreDimension  int
	Recommendations map[string]string
}

// Validate checks the definition's shape. Definitions are static data, so a
// failure here is a programming error to fix before release.
func (d Definition) Validate() error {
	if n := len(d.Dimensions); n < 1 || n > 3 {
		return fmt.Errorf("%w %s: %d dimensions, want 1-3", ErrInvalidDefinition, d.TriggerID, n)
	}
	if d.ScoreDimension < 0 || d.ScoreDimension >= len(d.Dimensions) {
		return fmt.Errorf("%w %s: score dimension %d out of range", ErrInvalidDefinition, d.TriggerID, d.ScoreDimension)
	}
	for _, dim := range d.Dimensions {
		if len(dim.Buckets) == 0 {
			return fmt.Errorf("%w %s: dimension %q has no buckets", ErrInvalidDefinition, d.TriggerID, dim.Name)
		}
		seen := make(map[string]bool, len(dim.Buckets))
		for _, b := range dim.Buckets {
			switch {
			case b.ID == "":
				return fmt.Errorf("%w %s: empty bucket id in %q", ErrInvalidDefinition, d.TriggerID, dim.Name)
			case isReservedToken(b.ID):
				return fmt.Errorf("%w %s: bucket id %q collides with a reserved token", ErrInvalidDefinition, d.TriggerID, b.ID)
			case seen[b.ID]:
				return fmt.Errorf("%w %s: duplicate bucket id %q", ErrInvalidDefinition, d.TriggerID, b.ID)
			case b.Score < 0 || b.Score > 100:
				return fmt.Errorf("%w %s: bucket %q score %d outside 0-100", ErrInvalidDefinition, d.TriggerID, b.ID, b.Score)
			case b.Min != nil && b.Max != nil && *b.Min >= *b.Max:
				return fmt.Errorf("%w %s: bucket %q has empty range", ErrInvalidDefinition, d.TriggerID, b.ID)
			}
			seen[b.ID] = true
		}
	}
	return d.checkAmbiguity()
}

// checkAmbiguity rejects tables where a bucket id is another id of the same
// dimension plus "_" plus something the next dimension could start with,
// since the key string would then split two ways.
func (d Definition) checkAmbiguity() error {
	for i := 0; i < len(d.Dimensions)-1; i++ {
		dim, next := d.Dimensions[i], d.Dimensions[i+1]
		for _, a := range dim.Buckets {
			for _, b := range dim.Buckets {
				if !strings.HasPrefix(b.ID, a.ID+"_") {
					continue
				}
				suffix := b.ID[len(a.ID)+1:]
				for _, t := range next.Buckets {
					if t.ID == suffix || strings.HasPrefix(t.ID, suffix+"_") || strings.HasPrefix(suffix, t.ID+"_") {
						return fmt.Errorf("%w %s: %q vs %q followed by %q", ErrAmbiguousBuckets, d.TriggerID, b.ID, a.ID, t.ID)
					}
				}
			}
		}
	}
	return nil
}

// Categorize reduces the measurements (one per dimension, in order) to a key.
// A sample below MinSample short-circuits to INSUFFICIENT; any measurement
// that cannot be bucketed yields UNAVAILABLE. Passing the wrong number of
// measurements is a programming error and panics.
func (d Definition) Categorize(sample int, measurements ...Measurement) Key {
	if len(measurements) != len(d.Dimensions) {
		panic(fmt.Sprintf("benchmark: %s categorized with %d measurements, want %d",
			d.TriggerID, len(measurements), len(d.Dimensions)))
	}
	if d.MinSample > 0 && sample < d.MinSample {
		return Insufficient()
	}
	ids := make([]string, len(d.Dimensions))
	for i, dim := range d.Dimensions {
		b, ok := dim.Bucketize(measurements[i])
		if !ok {
			return Unavailable()
		}
		ids[i] = b.ID
	}
	return Bucketed(ids...)
}

// Score returns the score of the key's bucket in the score dimension.
// Fallback keys have no score.
func (d Definition) Score(k Key) (int, bool) {
	if k.IsFallback() {
		return 0, false
	}
	b, ok := d.Dimensions[d.ScoreDimension].bucket(k.Bucket(d.ScoreDimension))
	if !ok {
		return 0, false
	}
	return b.Score, true
}

// Recommendation looks up the text for k: exact composite key first, then
// the score dimension's bucket id, then DEFAULT.
func (d Definition) Recommendation(k Key) string {
	if r, ok := d.Recommendations[k.String()]; ok {
		return r
	}
	if !k.IsFallback() {
		if r, ok := d.Recommendations[k.Bucket(d.ScoreDimension)]; ok {
			return r
		}
	}
	return d.Recommendations[DefaultRecommendationKey]
}

// Labels returns the display label of each bucket in k, in dimension order.
func (d Definition) Labels(k Key) []string {
	if k.IsFallback() {
		return []string{k.String()}
	}
	labels := make([]string, 0, len(d.Dimensions))
	for i, dim := range d.Dimensions {
		id := k.Bucket(i)
		if b, ok := dim.bucket(id); ok && b.Label != "" {
			labels = append(labels, b.Label)
		} else {
			labels = append(labels, id)
		}
	}
	return labels
}

// Parse recovers a key from its string form. Each dimension but the last
// takes the longest known bucket id followed by "_"; when none matches and
// exactly two dimensions remain, the last underscore splits them. The
// best-effort key is returned together with ErrUnknownToken when a token is
// not a bucket id of its dimension.
func (d Definition) Parse(s string) (Key, error) {
	if k, ok := fallbackFromToken(s); ok {
		return k, nil
	}
	ids := make([]string, 0, len(d.Dimensions))
	rest := s
	for i := 0; i < len(d.Dimensions); i++ {
		remaining := len(d.Dimensions) - i
		if remaining == 1 {
			ids = append(ids, rest)
			break
		}
		id, ok := d.Dimensions[i].longestPrefix(rest)
		if !ok {
			j := strings.LastIndex(rest, "_")
			if remaining != 2 || j < 0 {
				return Key{}, fmt.Errorf("%w: cannot split %q for %s", ErrUnknownToken, s, d.TriggerID)
			}
			ids = append(ids, rest[:j], rest[j+1:])
			break
		}
		ids = append(ids, id)
		rest = rest[len(id)+1:]
	}

	key := Bucketed(ids...)
	for i, id := range ids {
		if _, ok := d.Dimensions[i].bucket(id); !ok {
			return key, fmt.Errorf("%w: %q in dimension %q of %s", ErrUnknownToken, id, d.Dimensions[i].Name, d.TriggerID)
		}
	}
	return key, nil
}
