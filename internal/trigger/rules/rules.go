// Package rules holds the built-in trigger set. Each rule reduces page data to
// measurements, buckets them with its category definition and returns the
// definition's score and recommendation for the resulting key.
package rules

import (
	"fmt"
	"math"
	"sort"

	"github.com/ppehal/orchideo-sub001/internal/benchmark"
	"github.com/ppehal/orchideo-sub001/internal/models"
	"github.com/ppehal/orchideo-sub001/internal/trigger"
)

// minPostSample is the post count below which per-post ratios are not bucketed.
const minPostSample = 3

type builtin struct {
	def  benchmark.Definition
	rule trigger.Rule
}

func builtins() []builtin {
	return []builtin{
		{engagementDef, trigger.Rule{
			ID: "BASIC_001", Name: "Engagement rate", Category: models.CategoryBasic,
			Description: "Average interactions per post relative to fan count, bucketed by page size.",
			Evaluator:   trigger.EvaluatorFunc(evaluateEngagement),
		}},
		{interactionsDef, trigger.Rule{
			ID: "BASIC_002", Name: "Interactions per post", Category: models.CategoryBasic,
			Description: "Average reactions, comments and shares per recent post.",
			Evaluator:   trigger.EvaluatorFunc(evaluateInteractions),
		}},
		{reachDef, trigger.Rule{
			ID: "BASIC_003", Name: "Organic reach", Category: models.CategoryBasic,
			Description: "Average unique reach per post as a share of fans, from post insights.",
			Evaluator:   trigger.EvaluatorFunc(evaluateReach),
		}},
		{contentMixDef, trigger.Rule{
			ID: "CONTENT_001", Name: "Content mix", Category: models.CategoryContent,
			Description: "Share of sales posts and of engagement posts among recent content.",
			Evaluator:   trigger.EvaluatorFunc(evaluateContentMix),
		}},
		{postLengthDef, trigger.Rule{
			ID: "CONTENT_002", Name: "Post length", Category: models.CategoryContent,
			Description: "Median message length of recent posts.",
			Evaluator:   trigger.EvaluatorFunc(evaluatePostLength),
		}},
		{mediaUsageDef, trigger.Rule{
			ID: "CONTENT_003", Name: "Visual content", Category: models.CategoryContent,
			Description: "Share of recent posts carrying an image or video.",
			Evaluator:   trigger.EvaluatorFunc(evaluateMediaUsage),
		}},
		{videoDef, trigger.Rule{
			ID: "CONTENT_004", Name: "Video content", Category: models.CategoryContent,
			Description: "Video share against the industry benchmark, by page size and reel usage.",
			Evaluator:   trigger.EvaluatorFunc(evaluateVideo),
		}},
		{formattingDef, trigger.Rule{
			ID: "CONTENT_005", Name: "Text formatting", Category: models.CategoryContent,
			Description: "Share of long posts broken up with paragraphs or emoji bullets.",
			Evaluator:   trigger.EvaluatorFunc(evaluateFormatting),
		}},
		{imageFormatDef, trigger.Rule{
			ID: "TECHNICAL_001", Name: "Image formats", Category: models.CategoryTechnical,
			Description: "Share of images in a web-friendly format (JPEG, PNG, WebP).",
			Evaluator:   trigger.EvaluatorFunc(evaluateImageFormat),
		}},
		{imageSizeDef, trigger.Rule{
			ID: "TECHNICAL_002", Name: "Image resolution", Category: models.CategoryTechnical,
			Description: "Share of images at least 1080 px wide.",
			Evaluator:   trigger.EvaluatorFunc(evaluateImageSize),
		}},
		{utmDef, trigger.Rule{
			ID: "TECHNICAL_003", Name: "Link tracking", Category: models.CategoryTechnical,
			Description: "Share of outbound links tagged with UTM parameters.",
			Evaluator:   trigger.EvaluatorFunc(evaluateUTM),
		}},
		{youtubeDef, trigger.Rule{
			ID: "TECHNICAL_004", Name: "YouTube links", Category: models.CategoryTechnical,
			Description: "Share of posts linking to YouTube instead of uploading video natively.",
			Evaluator:   trigger.EvaluatorFunc(evaluateYouTube),
		}},
		{frequencyDef, trigger.Rule{
			ID: "TIMING_001", Name: "Posting frequency", Category: models.CategoryTiming,
			Description: "Posts per month against the industry benchmark, by page size.",
			Evaluator:   trigger.EvaluatorFunc(evaluateFrequency),
		}},
		{regularityDef, trigger.Rule{
			ID: "TIMING_002", Name: "Posting regularity", Category: models.CategoryTiming,
			Description: "Variation of the gaps between consecutive posts.",
			Evaluator:   trigger.EvaluatorFunc(evaluateRegularity),
		}},
		{recencyDef, trigger.Rule{
			ID: "TIMING_003", Name: "Last post", Category: models.CategoryTiming,
			Description: "Days since the newest post.",
			Evaluator:   trigger.EvaluatorFunc(evaluateRecency),
		}},
		{sharesDef, trigger.Rule{
			ID: "SHARING_001", Name: "Shares per post", Category: models.CategorySharing,
			Description: "Average shares per recent post against the industry benchmark.",
			Evaluator:   trigger.EvaluatorFunc(evaluateShares),
		}},
		{originalDef, trigger.Rule{
			ID: "SHARING_002", Name: "Original content", Category: models.CategorySharing,
			Description: "Share of recent posts that reshare someone else's content.",
			Evaluator:   trigger.EvaluatorFunc(evaluateOriginal),
		}},
		{completenessDef, trigger.Rule{
			ID: "PAGE_SETTINGS_001", Name: "Page completeness", Category: models.CategoryPageSettings,
			Description: "Share of filled profile fields (about, contacts, images, username).",
			Evaluator:   trigger.EvaluatorFunc(evaluateCompleteness),
		}},
	}
}

// Definitions returns the category definition of every built-in rule.
func Definitions() []benchmark.Definition {
	all := builtins()
	out := make([]benchmark.Definition, len(all))
	for i, b := range all {
		out[i] = b.def
	}
	return out
}

// Definition returns the category definition of the built-in rule id.
func Definition(id string) (benchmark.Definition, bool) {
	for _, b := range builtins() {
		if b.def.TriggerID == id {
			return b.def, true
		}
	}
	return benchmark.Definition{}, false
}

// RegisterDefaults validates every built-in definition and registers its rule.
func RegisterDefaults(reg *trigger.Registry) error {
	for _, b := range builtins() {
		if b.def.TriggerID != b.rule.ID {
			return fmt.Errorf("definition %s attached to rule %s", b.def.TriggerID, b.rule.ID)
		}
		if err := b.def.Validate(); err != nil {
			return err
		}
		if err := reg.Register(b.rule); err != nil {
			return err
		}
	}
	return nil
}

// fanDimension buckets pages by audience size.
var fanDimension = benchmark.Dimension{
	Name: "fan_count",
	Buckets: []benchmark.Bucket{
		benchmark.Below("MICRO", "Under 1,000 fans", 1_000, 0),
		benchmark.Between("SMALL", "1,000-10,000 fans", 1_000, 10_000, 0),
		benchmark.Between("MEDIUM", "10,000-100,000 fans", 10_000, 100_000, 0),
		benchmark.AtLeast("LARGE", "100,000+ fans", 100_000, 0),
	},
}

func fanMeasurement(fans int) benchmark.Measurement {
	if fans <= 0 {
		return benchmark.Missing()
	}
	return benchmark.Measure(float64(fans))
}

func interactions(posts []models.NormalizedPost) int {
	total := 0
	for i := range posts {
		total += posts[i].TotalEngagement
	}
	return total
}

func countWhere(posts []models.NormalizedPost, pred func(*models.NormalizedPost) bool) int {
	n := 0
	for i := range posts {
		if pred(&posts[i]) {
			n++
		}
	}
	return n
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

func median(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return float64(sorted[mid-1]+sorted[mid]) / 2
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func percent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}
