package rules

import (
	"math"
	"sort"
	"time"

	"github.com/ppehal/orchideo-sub001/internal/benchmark"
	"github.com/ppehal/orchideo-sub001/internal/models"
	"github.com/ppehal/orchideo-sub001/internal/trigger"
)

// frequencyDef keys: fan_count _ frequency, e.g. MEDIUM_OPTIMAL.
var frequencyDef = benchmark.Definition{
	TriggerID: "TIMING_001",
	Dimensions: []benchmark.Dimension{
		fanDimension,
		{
			Name:     "posts_per_month",
			Relative: true,
			Buckets: []benchmark.Bucket{
				benchmark.Below("VERY_LOW", "Under half the benchmark", 0.5, 30),
				benchmark.Between("LOW", "Below benchmark", 0.5, 0.9, 60),
				benchmark.Between("OPTIMAL", "Around benchmark", 0.9, 1.6, 100),
				benchmark.AtLeast("TOO_HIGH", "Far above benchmark", 1.6, 75),
			},
		},
	},
	MinSample:      1,
	ScoreDimension: 1,
	Recommendations: map[string]string{
		"MICRO_TOO_HIGH":                   "A small audience tires of many posts a day. Post less and better.",
		"LARGE_VERY_LOW":                   "A large page this quiet loses reach. Plan a weekly content calendar.",
		"VERY_LOW":                         "You post far less than the industry. Aim for at least two or three posts a week.",
		"LOW":                              "Add a post or two a week to reach the industry rhythm.",
		"TOO_HIGH":                         "You post much more than the industry. Check whether reach per post is dropping.",
		benchmark.TokenInsufficient:        "No posts found in the analyzed period.",
		benchmark.DefaultRecommendationKey: "Posting frequency matches the industry.",
	},
}

func evaluateFrequency(in *trigger.Input) models.TriggerEvaluation {
	recent := in.RecentPosts()
	months := in.Settings.InteractionWindow.Hours() / 24 / 30
	perMonth := 0.0
	if months > 0 {
		perMonth = float64(len(recent)) / months
	}

	key := frequencyDef.Categorize(len(in.Posts()),
		fanMeasurement(in.Page().Audience()),
		benchmark.MeasureAgainst(perMonth, in.Benchmark.PostsPerMonth))
	ev := trigger.Categorized(frequencyDef, key)
	ev = trigger.WithValues(ev, models.Number(round2(perMonth)), models.Number(in.Benchmark.PostsPerMonth))
	ev = trigger.WithMetric(ev, "posts_in_window", len(recent))
	return trigger.WithMetric(ev, models.MetricFormula, "posts in window / (window days / 30)")
}

var regularityDef = benchmark.Definition{
	TriggerID: "TIMING_002",
	Dimensions: []benchmark.Dimension{{
		Name: "gap_variation",
		Buckets: []benchmark.Bucket{
			benchmark.Below("REGULAR", "Steady rhythm", 0.5, 100),
			benchmark.Between("UNEVEN", "Uneven rhythm", 0.5, 1.0, 70),
			benchmark.AtLeast("IRREGULAR", "Bursts and long pauses", 1.0, 40),
		},
	}},
	MinSample: minPostSample,
	Recommendations: map[string]string{
		"IRREGULAR":                        "Posts come in bursts followed by silence. Schedule them evenly.",
		"UNEVEN":                           "The posting rhythm varies. A content calendar keeps it steady.",
		benchmark.TokenInsufficient:        "At least three dated posts are needed to judge regularity.",
		benchmark.DefaultRecommendationKey: "Posts go out at a steady rhythm.",
	},
}

// gapVariation returns the coefficient of variation of the gaps between
// consecutive post times, which must be sorted newest first.
func gapVariation(times []time.Time) float64 {
	if len(times) < 3 {
		return 0
	}
	gaps := make([]float64, 0, len(times)-1)
	var sum float64
	for i := 1; i < len(times); i++ {
		g := times[i-1].Sub(times[i]).Hours()
		gaps = append(gaps, g)
		sum += g
	}
	mean := sum / float64(len(gaps))
	if mean == 0 {
		return 0
	}
	var sq float64
	for _, g := range gaps {
		sq += (g - mean) * (g - mean)
	}
	return math.Sqrt(sq/float64(len(gaps))) / mean
}

func evaluateRegularity(in *trigger.Input) models.TriggerEvaluation {
	var times []time.Time
	for _, p := range in.RecentPosts() {
		times = append(times, p.CreatedAt.Time)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].After(times[j]) })
	cv := gapVariation(times)

	ev := trigger.Categorized(regularityDef, regularityDef.Categorize(len(times), benchmark.Measure(cv)))
	ev = trigger.WithValues(ev, models.Number(round2(cv)), models.Number(0.5))
	ev = trigger.WithMetric(ev, "dated_posts", len(times))
	return trigger.WithMetric(ev, models.MetricFormula, "stddev(gap hours) / mean(gap hours)")
}

var recencyDef = benchmark.Definition{
	TriggerID: "TIMING_003",
	Dimensions: []benchmark.Dimension{{
		Name: "days_since_last_post",
		Buckets: []benchmark.Bucket{
			benchmark.Below("FRESH", "Within 3 days", 3, 100),
			benchmark.Between("RECENT", "3-7 days ago", 3, 7, 80),
			benchmark.Between("STALE", "1-4 weeks ago", 7, 30, 45),
			benchmark.AtLeast("DORMANT", "Over 30 days ago", 30, 10),
		},
	}},
	MinSample: 1,
	Recommendations: map[string]string{
		"STALE":                            "The page has been quiet for over a week. Publish something soon.",
		"DORMANT":                          "The page looks abandoned. Restart with a regular schedule.",
		benchmark.TokenInsufficient:        "No dated posts were found.",
		benchmark.DefaultRecommendationKey: "The page is active.",
	},
}

func evaluateRecency(in *trigger.Input) models.TriggerEvaluation {
	var newest time.Time
	dated := 0
	for _, p := range in.Posts() {
		if !p.CreatedAt.Valid {
			continue
		}
		dated++
		if p.CreatedAt.Time.After(newest) {
			newest = p.CreatedAt.Time
		}
	}

	m := benchmark.Missing()
	var days float64
	if dated > 0 {
		days = math.Max(0, in.Now.Sub(newest).Hours()/24)
		m = benchmark.Measure(days)
	}
	ev := trigger.Categorized(recencyDef, recencyDef.Categorize(dated, m))
	ev = trigger.WithValues(ev, models.Number(math.Floor(days)), models.Number(3))
	return trigger.WithMetric(ev, "dated_posts", dated)
}
