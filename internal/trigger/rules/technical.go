package rules

import (
	"github.com/ppehal/orchideo-sub001/internal/benchmark"
	"github.com/ppehal/orchideo-sub001/internal/models"
	"github.com/ppehal/orchideo-sub001/internal/trigger"
)

// minImageWidth is the narrowest image that still renders sharply in the feed.
const minImageWidth = 1080

var imageFormatDef = benchmark.Definition{
	TriggerID: "TECHNICAL_001",
	Dimensions: []benchmark.Dimension{{
		Name: "web_format_share",
		Buckets: []benchmark.Bucket{
			benchmark.Below("MOSTLY_LEGACY", "Under 50% web formats", 0.5, 30),
			benchmark.Between("MIXED", "50-90% web formats", 0.5, 0.9, 70),
			benchmark.AtLeast("WEB_READY", "Over 90% web formats", 0.9, 100),
		},
	}},
	Recommendations: map[string]string{
		"MOSTLY_LEGACY":                    "Many images use GIF, HEIC or unknown formats. Export JPEG, PNG or WebP.",
		"MIXED":                            "Some images are in formats that compress badly. Stick to JPEG, PNG or WebP.",
		benchmark.TokenNotApplicable:       "Recent posts carry no images.",
		benchmark.DefaultRecommendationKey: "Images use web-friendly formats.",
	},
}

func isWebFormat(f models.ImageFormat) bool {
	switch f {
	case models.ImageFormatJPEG, models.ImageFormatPNG, models.ImageFormatWebP:
		return true
	}
	return false
}

func evaluateImageFormat(in *trigger.Input) models.TriggerEvaluation {
	var images, web int
	formats := map[string]int{}
	for _, p := range in.RecentPosts() {
		if p.ImageURL == "" {
			continue
		}
		images++
		formats[string(p.ImageFormat)]++
		if isWebFormat(p.ImageFormat) {
			web++
		}
	}

	key := benchmark.NotApplicable()
	if images > 0 {
		key = imageFormatDef.Categorize(images, benchmark.Measure(ratio(web, images)))
	}
	ev := trigger.Categorized(imageFormatDef, key)
	ev = trigger.WithValues(ev, models.Text(percent(ratio(web, images))), models.Text("90%"))
	ev = trigger.WithMetric(ev, "images", images)
	return trigger.WithMetric(ev, "formats", formats)
}

var imageSizeDef = benchmark.Definition{
	TriggerID: "TECHNICAL_002",
	Dimensions: []benchmark.Dimension{{
		Name: "sharp_share",
		Buckets: []benchmark.Bucket{
			benchmark.Below("LOW_RES", "Under 50% sharp images", 0.5, 35),
			benchmark.Between("PARTLY_SHARP", "50-90% sharp images", 0.5, 0.9, 70),
			benchmark.AtLeast("SHARP", "Over 90% sharp images", 0.9, 100),
		},
	}},
	Recommendations: map[string]string{
		"LOW_RES":                          "Images are too small and look blurry. Upload at least 1080 px wide.",
		"PARTLY_SHARP":                     "Some images are under 1080 px wide. Check export settings.",
		benchmark.TokenUnavailable:         "Image dimensions are not known for recent posts.",
		benchmark.TokenNotApplicable:       "Recent posts carry no images.",
		benchmark.DefaultRecommendationKey: "Images are sharp enough for the feed.",
	},
}

func evaluateImageSize(in *trigger.Input) models.TriggerEvaluation {
	var images, measured, sharp int
	for _, p := range in.RecentPosts() {
		if p.ImageURL == "" {
			continue
		}
		images++
		if !p.HasImageDimensions() {
			continue
		}
		measured++
		if *p.ImageWidth >= minImageWidth {
			sharp++
		}
	}

	var key benchmark.Key
	switch {
	case images == 0:
		key = benchmark.NotApplicable()
	case measured == 0:
		key = imageSizeDef.Categorize(images, benchmark.Missing())
	default:
		key = imageSizeDef.Categorize(measured, benchmark.Measure(ratio(sharp, measured)))
	}
	ev := trigger.Categorized(imageSizeDef, key)
	ev = trigger.WithValues(ev, models.Text(percent(ratio(sharp, measured))), models.Number(minImageWidth))
	ev = trigger.WithMetric(ev, "images", images)
	return trigger.WithMetric(ev, "images_with_dimensions", measured)
}

var utmDef = benchmark.Definition{
	TriggerID: "TECHNICAL_003",
	Dimensions: []benchmark.Dimension{{
		Name: "tagged_share",
		Buckets: []benchmark.Bucket{
			benchmark.Below("UNTRACKED", "Under 50% tagged links", 0.5, 40),
			benchmark.Between("PARTLY_TRACKED", "50-90% tagged links", 0.5, 0.9, 75),
			benchmark.AtLeast("TRACKED", "Over 90% tagged links", 0.9, 100),
		},
	}},
	Recommendations: map[string]string{
		"UNTRACKED":                        "Links carry no UTM parameters, so web analytics cannot attribute the traffic. Tag every link.",
		"PARTLY_TRACKED":                   "Tag the remaining links with utm_source and utm_campaign.",
		benchmark.TokenNotApplicable:       "Recent posts contain no outbound links.",
		benchmark.DefaultRecommendationKey: "Outbound links are tracked.",
	},
}

func hasOutboundLink(p *models.NormalizedPost) bool {
	return !p.IsYouTubeLink && (p.HasInlineLink || p.Type == models.PostTypeLink)
}

func evaluateUTM(in *trigger.Input) models.TriggerEvaluation {
	posts := in.RecentPosts()
	links := countWhere(posts, hasOutboundLink)
	tagged := countWhere(posts, func(p *models.NormalizedPost) bool { return hasOutboundLink(p) && p.HasUTMParams })

	key := benchmark.NotApplicable()
	if links > 0 {
		key = utmDef.Categorize(links, benchmark.Measure(ratio(tagged, links)))
	}
	ev := trigger.Categorized(utmDef, key)
	ev = trigger.WithValues(ev, models.Text(percent(ratio(tagged, links))), models.Text("100%"))
	ev = trigger.WithMetric(ev, "link_posts", links)
	return trigger.WithMetric(ev, "tagged_posts", tagged)
}

var youtubeDef = benchmark.Definition{
	TriggerID: "TECHNICAL_004",
	Dimensions: []benchmark.Dimension{{
		Name: "youtube_share",
		Buckets: []benchmark.Bucket{
			benchmark.Below("RARE", "Under 10% YouTube links", 0.1, 100),
			benchmark.Between("OCCASIONAL", "10-30% YouTube links", 0.1, 0.3, 70),
			benchmark.AtLeast("FREQUENT", "Over 30% YouTube links", 0.3, 30),
		},
	}},
	MinSample: minPostSample,
	Recommendations: map[string]string{
		"FREQUENT":                         "YouTube links get little reach. Upload videos natively instead.",
		"OCCASIONAL":                       "Prefer native uploads over YouTube links.",
		benchmark.TokenInsufficient:        "Publish at least three posts to evaluate video links.",
		benchmark.DefaultRecommendationKey: "Videos are uploaded natively.",
	},
}

func evaluateYouTube(in *trigger.Input) models.TriggerEvaluation {
	posts := in.RecentPosts()
	yt := countWhere(posts, func(p *models.NormalizedPost) bool { return p.IsYouTubeLink })
	share := ratio(yt, len(posts))

	ev := trigger.Categorized(youtubeDef, youtubeDef.Categorize(len(posts), benchmark.Measure(share)))
	ev = trigger.WithValues(ev, models.Text(percent(share)), models.Text("0%"))
	return trigger.WithMetric(ev, "youtube_posts", yt)
}
