package trigger

import (
	"sync"
	"time"

	"github.com/ppehal/orchideo-sub001/internal/classifier"
	"github.com/ppehal/orchideo-sub001/internal/models"
)

// Default evaluation settings.
const (
	DefaultInteractionWindow = 30 * 24 * time.Hour
	DefaultMinInteractions   = 40
)

// Settings tunes the sample windows shared by the built-in rules.
type Settings struct {
	// InteractionWindow is the look-back window for recent activity.
	InteractionWindow time.Duration
	// MinInteractions is the smallest interaction sample that gets bucketed.
	MinInteractions int
}

// DefaultSettings returns the 30 day / 40 interaction defaults.
func DefaultSettings() Settings {
	return Settings{
		InteractionWindow: DefaultInteractionWindow,
		MinInteractions:   DefaultMinInteractions,
	}
}

// Input is everything an evaluator may read for one analysis run. The
// dataset and benchmark must not be modified while rules run.
type Input struct {
	Dataset   *models.PageDataset
	Benchmark models.Benchmark
	Now       time.Time
	Settings  Settings

	classifier *classifier.Classifier

	classifyOnce    sync.Once
	classifications []models.ContentClassification

	recentOnce sync.Once
	recent     []models.NormalizedPost
}

// NewInput builds an Input measured from the dataset's reference time.
// A nil classifier falls back to the built-in keyword lists.
func NewInput(ds *models.PageDataset, bench models.Benchmark, c *classifier.Classifier, s Settings) *Input {
	if ds == nil {
		ds = &models.PageDataset{}
	}
	if c == nil {
		c = classifier.Default()
	}
	if s.InteractionWindow <= 0 {
		s.InteractionWindow = DefaultInteractionWindow
	}
	if s.MinInteractions < 0 {
		s.MinInteractions = DefaultMinInteractions
	}
	return &Input{
		Dataset:    ds,
		Benchmark:  bench,
		Now:        ds.ReferenceTime(),
		Settings:   s,
		classifier: c,
	}
}

// Posts returns every post of the dataset, newest first.
func (in *Input) Posts() []models.NormalizedPost {
	return in.Dataset.Posts
}

// RecentPosts returns the posts inside the interaction window.
func (in *Input) RecentPosts() []models.NormalizedPost {
	in.recentOnce.Do(func() {
		in.recent = in.Dataset.PostsWithin(in.Now, in.Settings.InteractionWindow)
	})
	return in.recent
}

// Classifications labels the recent posts once and caches the result for all
// rules. Posts outside the interaction window are not classified.
func (in *Input) Classifications() []models.ContentClassification {
	in.classifyOnce.Do(func() {
		in.classifications = in.classifier.ClassifyPosts(in.RecentPosts())
	})
	return in.classifications
}

// Page returns the page metadata.
func (in *Input) Page() models.PageInfo {
	return in.Dataset.Page
}
