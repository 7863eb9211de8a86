package models

import (
	"errors"
	"math"
	"time"
)

// CategoryScore is one category's unweighted mean of its trigger scores.
type CategoryScore struct {
	Category     Category `json:"category"`
	Score        float64  `json:"score"`
	Weight       float64  `json:"weight"`
	TriggerCount int      `json:"trigger_count"`
}

// Rounded returns the score rounded to the nearest integer.
func (c CategoryScore) Rounded() int {
	return int(math.Round(c.Score))
}

// AggregateScore rolls trigger scores up into category and overall scores.
// Scores stay floats until Rounded is called for display.
type AggregateScore struct {
	Categories []CategoryScore `json:"categories"`
	Overall    float64         `json:"overall"`
}

// Rounded returns the overall score rounded to the nearest integer.
func (a AggregateScore) Rounded() int {
	return int(math.Round(a.Overall))
}

// Category returns the score for c.
func (a AggregateScore) Category(c Category) (CategoryScore, bool) {
	for _, cs := range a.Categories {
		if cs.Category == c {
			return cs, true
		}
	}
	return CategoryScore{}, false
}

// ResultRecord is one persisted per-trigger result row.
// Value and Threshold are extracted numerically from the evaluation's
// current and target values and may be nil.
type ResultRecord struct {
	ID             string
	AnalysisID     string
	Position       int
	TriggerID      string
	Category       Category
	Score          int
	Status         Status
	Value          *float64
	Threshold      *float64
	Recommendation string
	Details        *EvaluationDetails
	CreatedAt      time.Time
}

// Validate checks that the record can be stored.
func (r *ResultRecord) Validate() error {
	if r.ID == "" {
		return errors.New("result ID must not be empty")
	}
	if r.AnalysisID == "" {
		return errors.New("analysis ID must not be empty")
	}
	if r.TriggerID == "" {
		return errors.New("trigger ID must not be empty")
	}
	if !r.Category.Valid() {
		return errors.New("result category must be a known category")
	}
	if r.Score < 0 || r.Score > 100 {
		return errors.New("score must be between 0 and 100")
	}
	return nil
}

// AnalysisSummary is the per-analysis aggregate stored next to the result rows.
type AnalysisSummary struct {
	ID           string
	PageID       string
	Industry     string
	OverallScore float64
	Categories   []CategoryScore
	TriggerCount int
	UpdatedAt    time.Time
}

// Validate checks that the summary can be stored.
func (s *AnalysisSummary) Validate() error {
	if s.ID == "" {
		return errors.New("analysis ID must not be empty")
	}
	if s.OverallScore < 0 || s.OverallScore > 100 {
		return errors.New("overall score must be between 0 and 100")
	}
	return nil
}

// Benchmark is the industry reference set triggers compare a page against.
type Benchmark struct {
	Industry            string  `json:"industry" mapstructure:"-"`
	EngagementRate      float64 `json:"engagement_rate" mapstructure:"engagement_rate"`
	PostsPerMonth       float64 `json:"posts_per_month" mapstructure:"posts_per_month"`
	InteractionsPerPost float64 `json:"interactions_per_post" mapstructure:"interactions_per_post"`
	SharesPerPost       float64 `json:"shares_per_post" mapstructure:"shares_per_post"`
	VideoShare          float64 `json:"video_share" mapstructure:"video_share"`
	OrganicReachRate    float64 `json:"organic_reach_rate" mapstructure:"organic_reach_rate"`
}

// Validate checks that no benchmark value is negative.
func (b *Benchmark) Validate() error {
	for _, v := range []float64{b.EngagementRate, b.PostsPerMonth, b.InteractionsPerPost, b.SharesPerPost, b.VideoShare, b.OrganicReachRate} {
		if v < 0 || math.IsNaN(v) {
			return errors.New("benchmark values must not be negative")
		}
	}
	return nil
}
