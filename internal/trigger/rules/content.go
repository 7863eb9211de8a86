package rules

import (
	"github.com/ppehal/orchideo-sub001/internal/benchmark"
	"github.com/ppehal/orchideo-sub001/internal/classifier"
	"github.com/ppehal/orchideo-sub001/internal/models"
	"github.com/ppehal/orchideo-sub001/internal/trigger"
)

// longPostLength is the message length from which formatting matters.
const longPostLength = 200

// contentMixDef keys: sales_share _ engagement_share, e.g. HIGH_SALES_FEW_QUESTIONS.
var contentMixDef = benchmark.Definition{
	TriggerID: "CONTENT_001",
	Dimensions: []benchmark.Dimension{
		{
			Name: "sales_share",
			Buckets: []benchmark.Bucket{
				benchmark.Below("LOW_SALES", "Under 20% sales posts", 0.2, 100),
				benchmark.Between("MODERATE_SALES", "20-40% sales posts", 0.2, 0.4, 70),
				benchmark.AtLeast("HIGH_SALES", "Over 40% sales posts", 0.4, 30),
			},
		},
		{
			Name: "engagement_share",
			Buckets: []benchmark.Bucket{
				benchmark.Below("FEW_QUESTIONS", "Little conversational content", 0.3, 0),
				benchmark.AtLeast("MANY_QUESTIONS", "Plenty of conversational content", 0.3, 0),
			},
		},
	},
	MinSample: 5,
	Recommendations: map[string]string{
		"HIGH_SALES_FEW_QUESTIONS":         "The page reads like a catalogue. Replace some offers with questions and stories.",
		"HIGH_SALES":                       "Too many posts sell. Keep sales content under a fifth of the feed.",
		"MODERATE_SALES":                   "Sales content is creeping up. Balance it with brand and community posts.",
		benchmark.TokenInsufficient:        "Publish at least five posts to evaluate the content mix.",
		benchmark.DefaultRecommendationKey: "The content mix is well balanced.",
	},
}

func evaluateContentMix(in *trigger.Input) models.TriggerEvaluation {
	labels := in.Classifications()
	mix := classifier.MixOf(labels)
	salesShare := mix.Share(models.LabelSales)
	engagementShare := mix.Share(models.LabelEngagement)

	key := contentMixDef.Categorize(mix.Total(),
		benchmark.Measure(salesShare),
		benchmark.Measure(engagementShare))
	ev := trigger.Categorized(contentMixDef, key)
	ev = trigger.WithValues(ev, models.Text(percent(salesShare)), models.Text("20%"))
	ev = trigger.WithMetric(ev, "sales", mix.Sales)
	ev = trigger.WithMetric(ev, "brand", mix.Brand)
	ev = trigger.WithMetric(ev, "engagement", mix.Engagement)
	ev = trigger.WithMetric(ev, models.MetricFormula, "sales posts / classified posts")

	var sample []models.ContentClassification
	for _, c := range labels {
		if c.Reasoning != "" {
			sample = append(sample, c)
		}
	}
	if len(sample) > 0 {
		ev = trigger.WithMetric(ev, models.MetricDebug, sample)
	}
	return ev
}

var postLengthDef = benchmark.Definition{
	TriggerID: "CONTENT_002",
	Dimensions: []benchmark.Dimension{{
		Name: "median_length",
		Buckets: []benchmark.Bucket{
			benchmark.Below("TOO_SHORT", "Under 50 characters", 50, 60),
			benchmark.Between("OPTIMAL", "50-300 characters", 50, 300, 100),
			benchmark.Between("LONG", "300-1000 characters", 300, 1000, 70),
			benchmark.AtLeast("TOO_LONG", "Over 1000 characters", 1000, 40),
		},
	}},
	MinSample: minPostSample,
	Recommendations: map[string]string{
		"TOO_SHORT":                        "Posts are very short. Add context so fans know why to react.",
		"LONG":                             "Posts run long. Put the key message in the first two lines.",
		"TOO_LONG":                         "Posts are too long for the feed. Split them or move detail to a link.",
		benchmark.TokenNotApplicable:       "Recent posts carry no text.",
		benchmark.DefaultRecommendationKey: "Post length suits the feed.",
	},
}

func evaluatePostLength(in *trigger.Input) models.TriggerEvaluation {
	posts := in.RecentPosts()
	var lengths []int
	for i := range posts {
		if posts[i].Message != nil {
			lengths = append(lengths, posts[i].MessageLength)
		}
	}

	key := benchmark.NotApplicable()
	if len(posts) < postLengthDef.MinSample || len(lengths) > 0 {
		key = postLengthDef.Categorize(len(posts), benchmark.Measure(median(lengths)))
	}
	ev := trigger.Categorized(postLengthDef, key)
	ev = trigger.WithValues(ev, models.Number(median(lengths)), models.Text("50-300 characters"))
	ev = trigger.WithMetric(ev, "posts_with_text", len(lengths))
	return trigger.WithMetric(ev, models.MetricFormula, "median(message_length)")
}

var mediaUsageDef = benchmark.Definition{
	TriggerID: "CONTENT_003",
	Dimensions: []benchmark.Dimension{{
		Name: "media_share",
		Buckets: []benchmark.Bucket{
			benchmark.Below("RARE", "Under 30% visual posts", 0.3, 30),
			benchmark.Between("SOME", "30-70% visual posts", 0.3, 0.7, 70),
			benchmark.AtLeast("MOSTLY", "Over 70% visual posts", 0.7, 100),
		},
	}},
	MinSample: minPostSample,
	Recommendations: map[string]string{
		"RARE":                             "Most posts are text only. Add a photo or video to every post.",
		"SOME":                             "Add visuals to more posts; they are shown to more fans.",
		benchmark.TokenInsufficient:        "Publish at least three posts to evaluate visual content.",
		benchmark.DefaultRecommendationKey: "Almost every post carries a visual.",
	},
}

func evaluateMediaUsage(in *trigger.Input) models.TriggerEvaluation {
	posts := in.RecentPosts()
	withMedia := countWhere(posts, func(p *models.NormalizedPost) bool { return p.HasMedia })
	share := ratio(withMedia, len(posts))

	ev := trigger.Categorized(mediaUsageDef, mediaUsageDef.Categorize(len(posts), benchmark.Measure(share)))
	ev = trigger.WithValues(ev, models.Text(percent(share)), models.Text("70%"))
	ev = trigger.WithMetric(ev, "posts_with_media", withMedia)
	return trigger.WithMetric(ev, models.MetricFormula, "posts with media / posts")
}

// videoDef keys: fan_size _ video_share _ reels, e.g. LARGE_BELOW_BENCHMARK_NO_REELS.
var videoDef = benchmark.Definition{
	TriggerID: "CONTENT_004",
	Dimensions: []benchmark.Dimension{
		{
			Name: "fan_size",
			Buckets: []benchmark.Bucket{
				benchmark.Below("SMALL", "Under 10,000 fans", 10_000, 0),
				benchmark.AtLeast("LARGE", "10,000+ fans", 10_000, 0),
			},
		},
		{
			Name:     "video_share",
			Relative: true,
			Buckets: []benchmark.Bucket{
				benchmark.Below("NO_VIDEO", "Almost no video", 0.1, 20),
				benchmark.Between("BELOW_BENCHMARK", "Below benchmark", 0.1, 1.0, 60),
				benchmark.AtLeast("AT_BENCHMARK", "At or above benchmark", 1.0, 100),
			},
		},
		{
			Name: "reels",
			Buckets: []benchmark.Bucket{
				benchmark.Below("NO_REELS", "No reels", 0.01, 0),
				benchmark.AtLeast("WITH_REELS", "Uses reels", 0.01, 0),
			},
		},
	},
	MinSample:      5,
	ScoreDimension: 1,
	Recommendations: map[string]string{
		"LARGE_NO_VIDEO_NO_REELS":          "A page of this size needs video. Start with short reels, they reach non-fans.",
		"SMALL_NO_VIDEO_NO_REELS":          "Try short vertical reels; they are the cheapest way to reach new people.",
		"NO_VIDEO":                         "Video is almost missing. Plan at least one video a week.",
		"BELOW_BENCHMARK":                  "Video share is below the industry. Turn some photo posts into short clips.",
		benchmark.TokenInsufficient:        "Publish at least five posts to evaluate video content.",
		benchmark.DefaultRecommendationKey: "Video share meets the industry benchmark.",
	},
}

func evaluateVideo(in *trigger.Input) models.TriggerEvaluation {
	posts := in.RecentPosts()
	videos := countWhere(posts, func(p *models.NormalizedPost) bool {
		return p.Type == models.PostTypeVideo || p.Type == models.PostTypeReel
	})
	reels := countWhere(posts, func(p *models.NormalizedPost) bool { return p.Type == models.PostTypeReel })
	videoShare := ratio(videos, len(posts))

	key := videoDef.Categorize(len(posts),
		fanMeasurement(in.Page().Audience()),
		benchmark.MeasureAgainst(videoShare, in.Benchmark.VideoShare),
		benchmark.Measure(ratio(reels, len(posts))))
	ev := trigger.Categorized(videoDef, key)
	ev = trigger.WithValues(ev, models.Text(percent(videoShare)), models.Text(percent(in.Benchmark.VideoShare)))
	ev = trigger.WithMetric(ev, "videos", videos)
	ev = trigger.WithMetric(ev, "reels", reels)
	return trigger.WithMetric(ev, models.MetricFormula, "(video + reel posts) / posts")
}

var formattingDef = benchmark.Definition{
	TriggerID: "CONTENT_005",
	Dimensions: []benchmark.Dimension{{
		Name: "formatted_share",
		Buckets: []benchmark.Bucket{
			benchmark.Below("POOR", "Under 30% formatted", 0.3, 40),
			benchmark.Between("FAIR", "30-70% formatted", 0.3, 0.7, 70),
			benchmark.AtLeast("WELL_FORMATTED", "Over 70% formatted", 0.7, 100),
		},
	}},
	Recommendations: map[string]string{
		"POOR":                             "Long posts are walls of text. Break them into paragraphs or emoji bullet lists.",
		"FAIR":                             "Format every long post with paragraphs or bullets.",
		benchmark.TokenNotApplicable:       "There are no long posts to format.",
		benchmark.DefaultRecommendationKey: "Long posts are easy to scan.",
	},
}

func evaluateFormatting(in *trigger.Input) models.TriggerEvaluation {
	var long, formatted int
	for _, p := range in.RecentPosts() {
		if p.MessageLength < longPostLength {
			continue
		}
		long++
		if p.HasDoubleLineBreak || p.HasEmojiBullets {
			formatted++
		}
	}

	key := benchmark.NotApplicable()
	if long > 0 {
		key = formattingDef.Categorize(long, benchmark.Measure(ratio(formatted, long)))
	}
	ev := trigger.Categorized(formattingDef, key)
	ev = trigger.WithValues(ev, models.Text(percent(ratio(formatted, long))), models.Text("70%"))
	ev = trigger.WithMetric(ev, "long_posts", long)
	return trigger.WithMetric(ev, "formatted_posts", formatted)
}
