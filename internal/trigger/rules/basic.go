package rules

import (
	"fmt"

	"github.com/ppehal/orchideo-sub001/internal/benchmark"
	"github.com/ppehal/orchideo-sub001/internal/models"
	"github.com/ppehal/orchideo-sub001/internal/trigger"
)

// engagementDef keys: fan_count _ engagement, e.g. SMALL_BELOW_AVERAGE.
// MinSample is replaced by the configured interaction minimum at evaluation.
var engagementDef = benchmark.Definition{
	TriggerID: "BASIC_001",
	Dimensions: []benchmark.Dimension{
		fanDimension,
		{
			Name:     "engagement_rate",
			Relative: true,
			Buckets: []benchmark.Bucket{
				benchmark.Below("VERY_LOW", "Far below benchmark", 0.5, 25),
				benchmark.Between("BELOW_AVERAGE", "Below benchmark", 0.5, 1.0, 55),
				benchmark.Between("ABOVE_AVERAGE", "Above benchmark", 1.0, 1.5, 85),
				benchmark.AtLeast("HIGH", "Well above benchmark", 1.5, 100),
			},
		},
	},
	MinSample:      trigger.DefaultMinInteractions,
	ScoreDimension: 1,
	Recommendations: map[string]string{
		"LARGE_VERY_LOW":                   "Large audiences dilute engagement. Ask direct questions and reply to comments to reactivate fans.",
		"MICRO_HIGH":                       "Your small community is very active. Invest in reach to grow it.",
		"VERY_LOW":                         "Engagement is far below the industry. Post content that invites reactions: questions, polls, behind the scenes.",
		"BELOW_AVERAGE":                    "Engagement is slightly below the industry. Test formats and keep the ones that get comments.",
		"HIGH":                             "Engagement is well above the industry. Keep the current content strategy.",
		benchmark.TokenInsufficient:        "Too few interactions in the last 30 days to compare with the industry. Post more regularly.",
		benchmark.DefaultRecommendationKey: "Engagement matches the industry benchmark.",
	},
}

func evaluateEngagement(in *trigger.Input) models.TriggerEvaluation {
	posts := in.RecentPosts()
	total := interactions(posts)
	fans := in.Page().Audience()

	def := engagementDef
	def.MinSample = in.Settings.MinInteractions

	rate := benchmark.Missing()
	var ratePct float64
	if fans > 0 && len(posts) > 0 {
		ratePct = float64(total) / float64(len(posts)) / float64(fans) * 100
		rate = benchmark.MeasureAgainst(ratePct, in.Benchmark.EngagementRate)
	}

	ev := trigger.Categorized(def, def.Categorize(total, fanMeasurement(fans), rate))
	ev = trigger.WithValues(ev,
		models.Text(fmt.Sprintf("%.2f%%", ratePct)),
		models.Text(fmt.Sprintf("%.2f%%", in.Benchmark.EngagementRate)))
	ev = trigger.WithMetric(ev, "interactions", total)
	ev = trigger.WithMetric(ev, "posts", len(posts))
	ev = trigger.WithMetric(ev, "fans", fans)
	return trigger.WithMetric(ev, models.MetricFormula, "interactions / posts / fans * 100")
}

var interactionsDef = benchmark.Definition{
	TriggerID: "BASIC_002",
	Dimensions: []benchmark.Dimension{{
		Name:     "interactions_per_post",
		Relative: true,
		Buckets: []benchmark.Bucket{
			benchmark.Below("LOW", "Below half the benchmark", 0.5, 30),
			benchmark.Between("BELOW_AVERAGE", "Below benchmark", 0.5, 1.0, 60),
			benchmark.Between("AVERAGE", "At benchmark", 1.0, 2.0, 85),
			benchmark.AtLeast("HIGH", "Twice the benchmark", 2.0, 100),
		},
	}},
	MinSample: minPostSample,
	Recommendations: map[string]string{
		"LOW":                              "Posts get few interactions. End posts with a question or a clear call to action.",
		"BELOW_AVERAGE":                    "Interactions are a bit below the industry. Reuse the formats of your best posts.",
		benchmark.TokenInsufficient:        "Publish at least three posts a month to measure interactions.",
		benchmark.DefaultRecommendationKey: "Posts collect interactions in line with the industry.",
	},
}

func evaluateInteractions(in *trigger.Input) models.TriggerEvaluation {
	posts := in.RecentPosts()
	perPost := 0.0
	if len(posts) > 0 {
		perPost = float64(interactions(posts)) / float64(len(posts))
	}
	key := interactionsDef.Categorize(len(posts), benchmark.MeasureAgainst(perPost, in.Benchmark.InteractionsPerPost))
	ev := trigger.Categorized(interactionsDef, key)
	ev = trigger.WithValues(ev, models.Number(round2(perPost)), models.Number(in.Benchmark.InteractionsPerPost))
	ev = trigger.WithMetric(ev, "posts", len(posts))
	return trigger.WithMetric(ev, models.MetricFormula, "(reactions + comments + shares) / posts")
}

var reachDef = benchmark.Definition{
	TriggerID: "BASIC_003",
	Dimensions: []benchmark.Dimension{{
		Name:     "organic_reach_rate",
		Relative: true,
		Buckets: []benchmark.Bucket{
			benchmark.Below("LOW", "Below half the benchmark", 0.5, 30),
			benchmark.Between("BELOW_AVERAGE", "Below benchmark", 0.5, 1.0, 60),
			benchmark.AtLeast("GOOD", "At or above benchmark", 1.0, 95),
		},
	}},
	MinSample: 1,
	Recommendations: map[string]string{
		"LOW":                              "Few fans see your posts. Post when your audience is online and avoid pure link posts.",
		benchmark.TokenUnavailable:         "Post insights are not available. Grant the insights permission to measure reach.",
		benchmark.TokenInsufficient:        "None of the recent posts reports reach yet. Check again after publishing.",
		benchmark.DefaultRecommendationKey: "Organic reach is in line with the industry.",
	},
}

func evaluateReach(in *trigger.Input) models.TriggerEvaluation {
	fans := in.Page().Audience()
	var reachSum, withReach int
	for _, p := range in.RecentPosts() {
		if p.Reach != nil {
			reachSum += *p.Reach
			withReach++
		}
	}

	m := benchmark.Missing()
	var rate float64
	if withReach > 0 && fans > 0 {
		rate = float64(reachSum) / float64(withReach) / float64(fans) * 100
		m = benchmark.MeasureAgainst(rate, in.Benchmark.OrganicReachRate)
	}

	insights := in.Dataset.Collection.InsightsAvailable
	sample := withReach
	if withReach == 0 && !insights {
		// without the insights permission the metric is unavailable, not sparse
		sample = reachDef.MinSample
	}
	ev := trigger.Categorized(reachDef, reachDef.Categorize(sample, m))
	ev = trigger.WithValues(ev,
		models.Text(fmt.Sprintf("%.1f%%", rate)),
		models.Text(fmt.Sprintf("%.1f%%", in.Benchmark.OrganicReachRate)))
	ev = trigger.WithMetric(ev, "posts_with_insights", withReach)
	ev = trigger.WithMetric(ev, "insights_available", insights)
	return trigger.WithMetric(ev, models.MetricFormula, "sum(post_impressions_unique) / posts / fans * 100")
}
