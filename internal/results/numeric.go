package results

import (
	"math"
	"strconv"
	"strings"

	"github.com/ppehal/orchideo-sub001/internal/models"
)

// ExtractNumeric derives the stored numeric column from an evaluation value.
//
// Numbers pass through. Display strings are reduced to their digits, '.' and
// '-' and parsed as a float; anything that does not parse yields nil. This is
// a lossy heuristic for display strings such as "42.5%" (42.5) or "$1,234.56"
// (1234.56). Scale suffixes are dropped, not applied: "1.5K" yields 1.5, not
// 1500. Stored rows depend on that behaviour, so do not change it here.
func ExtractNumeric(v models.Value) *float64 {
	if !v.IsSet() {
		return nil
	}
	if f, ok := v.Float(); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return &f
	}
	return extractFromText(v.String())
}

func extractFromText(s string) *float64 {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
