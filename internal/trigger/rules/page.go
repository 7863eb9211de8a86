package rules

import (
	"fmt"
	"strings"

	"github.com/ppehal/orchideo-sub001/internal/benchmark"
	"github.com/ppehal/orchideo-sub001/internal/models"
	"github.com/ppehal/orchideo-sub001/internal/trigger"
)

var completenessDef = benchmark.Definition{
	TriggerID: "PAGE_SETTINGS_001",
	Dimensions: []benchmark.Dimension{{
		Name: "filled_share",
		Buckets: []benchmark.Bucket{
			benchmark.Below("INCOMPLETE", "Under half filled", 0.5, 30),
			benchmark.Between("PARTIAL", "Partly filled", 0.5, 0.85, 65),
			benchmark.AtLeast("COMPLETE", "Fully filled", 0.85, 100),
		},
	}},
	Recommendations: map[string]string{
		"INCOMPLETE":                       "Most profile fields are empty. Fill in the description, contacts and images.",
		"PARTIAL":                          "Complete the missing profile fields so visitors can reach you.",
		benchmark.DefaultRecommendationKey: "The page profile is complete.",
	},
}

type profileField struct {
	name   string
	filled func(models.PageInfo) bool
}

var profileFields = []profileField{
	{"about", func(p models.PageInfo) bool { return strings.TrimSpace(p.About) != "" }},
	{"category", func(p models.PageInfo) bool { return p.Category != "" }},
	{"website", func(p models.PageInfo) bool { return p.Website != "" }},
	{"phone", func(p models.PageInfo) bool { return p.Phone != "" }},
	{"email", func(p models.PageInfo) bool { return len(p.Emails) > 0 }},
	{"username", func(p models.PageInfo) bool { return p.Username != "" }},
	{"profile picture", func(p models.PageInfo) bool { return p.PictureURL != "" }},
	{"cover photo", func(p models.PageInfo) bool { return p.CoverURL != "" }},
}

func evaluateCompleteness(in *trigger.Input) models.TriggerEvaluation {
	page := in.Page()
	var missing []string
	for _, f := range profileFields {
		if !f.filled(page) {
			missing = append(missing, f.name)
		}
	}
	filled := len(profileFields) - len(missing)
	share := ratio(filled, len(profileFields))

	ev := trigger.Categorized(completenessDef, completenessDef.Categorize(len(profileFields), benchmark.Measure(share)))
	if len(missing) > 0 {
		ev.Recommendation = fmt.Sprintf("%s Missing: %s.", ev.Recommendation, strings.Join(missing, ", "))
	}
	ev = trigger.WithValues(ev, models.Text(percent(share)), models.Text("100%"))
	ev = trigger.WithMetric(ev, "filled_fields", filled)
	return trigger.WithMetric(ev, "missing_fields", missing)
}
