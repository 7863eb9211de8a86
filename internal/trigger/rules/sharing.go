package rules

import (
	"github.com/ppehal/orchideo-sub001/internal/benchmark"
	"github.com/ppehal/orchideo-sub001/internal/models"
	"github.com/ppehal/orchideo-sub001/internal/trigger"
)

var sharesDef = benchmark.Definition{
	TriggerID: "SHARING_001",
	Dimensions: []benchmark.Dimension{{
		Name:     "shares_per_post",
		Relative: true,
		Buckets: []benchmark.Bucket{
			benchmark.Below("LOW", "Under half the benchmark", 0.5, 30),
			benchmark.Between("BELOW_AVERAGE", "Below benchmark", 0.5, 1.0, 60),
			benchmark.Between("ABOVE_AVERAGE", "Above benchmark", 1.0, 2.0, 85),
			benchmark.AtLeast("VIRAL", "Twice the benchmark", 2.0, 100),
		},
	}},
	MinSample: minPostSample,
	Recommendations: map[string]string{
		"LOW":                              "Posts are rarely shared. Publish useful tips, infographics or offers worth passing on.",
		"BELOW_AVERAGE":                    "Ask fans to share posts that help others.",
		benchmark.TokenInsufficient:        "Publish at least three posts to evaluate sharing.",
		benchmark.DefaultRecommendationKey: "Fans share your content willingly.",
	},
}

func evaluateShares(in *trigger.Input) models.TriggerEvaluation {
	posts := in.RecentPosts()
	shares := 0
	for i := range posts {
		shares += posts[i].SharesCount
	}
	perPost := 0.0
	if len(posts) > 0 {
		perPost = float64(shares) / float64(len(posts))
	}

	key := sharesDef.Categorize(len(posts), benchmark.MeasureAgainst(perPost, in.Benchmark.SharesPerPost))
	ev := trigger.Categorized(sharesDef, key)
	ev = trigger.WithValues(ev, models.Number(round2(perPost)), models.Number(in.Benchmark.SharesPerPost))
	ev = trigger.WithMetric(ev, "shares", shares)
	return trigger.WithMetric(ev, models.MetricFormula, "shares / posts")
}

var originalDef = benchmark.Definition{
	TriggerID: "SHARING_002",
	Dimensions: []benchmark.Dimension{{
		Name: "reshared_share",
		Buckets: []benchmark.Bucket{
			benchmark.Below("ORIGINAL", "Under 20% reshared", 0.2, 100),
			benchmark.Between("MIXED", "20-50% reshared", 0.2, 0.5, 60),
			benchmark.AtLeast("MOSTLY_RESHARED", "Over 50% reshared", 0.5, 25),
		},
	}},
	MinSample: minPostSample,
	Recommendations: map[string]string{
		"MOSTLY_RESHARED":                  "Most posts reshare other pages. Create your own content; reshares reach few fans.",
		"MIXED":                            "Reshares make up a large part of the feed. Add more original posts.",
		benchmark.TokenInsufficient:        "Publish at least three posts to evaluate originality.",
		benchmark.DefaultRecommendationKey: "The feed is mostly original content.",
	},
}

func evaluateOriginal(in *trigger.Input) models.TriggerEvaluation {
	posts := in.RecentPosts()
	reshared := countWhere(posts, func(p *models.NormalizedPost) bool { return p.IsShared })
	share := ratio(reshared, len(posts))

	ev := trigger.Categorized(originalDef, originalDef.Categorize(len(posts), benchmark.Measure(share)))
	ev = trigger.WithValues(ev, models.Text(percent(share)), models.Text("20%"))
	return trigger.WithMetric(ev, "reshared_posts", reshared)
}
