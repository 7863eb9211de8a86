package trigger

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppehal/orchideo-sub001/internal/benchmark"
	"github.com/ppehal/orchideo-sub001/internal/models"
)

func constRule(id string, c models.Category, score int) Rule {
	return Rule{
		ID:       id,
		Name:     "Rule " + id,
		Category: c,
		Evaluator: EvaluatorFunc(func(*Input) models.TriggerEvaluation {
			return Scored(score)
		}),
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(constRule("BASIC_001", models.CategoryBasic, 80)))
	require.NoError(t, reg.Register(constRule("CONTENT_001", models.CategoryContent, 60)))

	r, ok := reg.Get("CONTENT_001")
	require.True(t, ok)
	assert.Equal(t, models.CategoryContent, r.Category)

	_, ok = reg.Get("MISSING")
	assert.False(t, ok)
	assert.Equal(t, 2, reg.Len())
}

func TestRegistry_OverwriteKeepsOneEntry(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(constRule("A", models.CategoryBasic, 10)))
	require.NoError(t, reg.Register(constRule("B", models.CategoryBasic, 20)))

	second := constRule("A", models.CategoryTiming, 99)
	second.Name = "second"
	require.NoError(t, reg.Register(second))

	assert.Equal(t, 2, reg.Len())
	got, ok := reg.Get("A")
	require.True(t, ok)
	assert.Equal(t, "second", got.Name)

	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "A", all[0].ID, "overwrite keeps the original position")
	assert.Equal(t, "B", all[1].ID)
}

func TestRegistry_AllIsACopy(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(constRule("A", models.CategoryBasic, 10)))

	all := reg.All()
	all[0].Name = "mutated"
	all = append(all, constRule("B", models.CategoryBasic, 1))
	_ = all

	r, _ := reg.Get("A")
	assert.Equal(t, "Rule A", r.Name)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_ByCategory(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(
		constRule("B1", models.CategoryBasic, 1),
		constRule("T1", models.CategoryTiming, 1),
		constRule("B2", models.CategoryBasic, 1),
	)

	basic := reg.ByCategory(models.CategoryBasic)
	require.Len(t, basic, 2)
	assert.Equal(t, "B1", basic[0].ID)
	assert.Equal(t, "B2", basic[1].ID)
	assert.Empty(t, reg.ByCategory(models.CategorySharing))
}

func TestRegistry_Reset(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(constRule("A", models.CategoryBasic, 1))
	reg.Reset()
	assert.Equal(t, 0, reg.Len())
	assert.Empty(t, reg.All())

	require.NoError(t, reg.Register(constRule("A", models.CategoryBasic, 1)))
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_RejectsInvalidRules(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
	}{
		{"empty id", Rule{Name: "x", Category: models.CategoryBasic, Evaluator: EvaluatorFunc(nil)}},
		{"empty name", Rule{ID: "X", Category: models.CategoryBasic, Evaluator: constRule("X", models.CategoryBasic, 1).Evaluator}},
		{"unknown category", Rule{ID: "X", Name: "x", Category: "MARKETING", Evaluator: constRule("X", models.CategoryBasic, 1).Evaluator}},
		{"nil evaluator", Rule{ID: "X", Name: "x", Category: models.CategoryBasic}},
		{"nil evaluator func", Rule{ID: "X", Name: "x", Category: models.CategoryBasic, Evaluator: EvaluatorFunc(nil)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			err := reg.Register(tt.rule)
			assert.True(t, errors.Is(err, ErrInvalidRule), "got %v", err)
			assert.Equal(t, 0, reg.Len())
		})
	}

	assert.Panics(t, func() { NewRegistry().MustRegister(Rule{}) })
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(constRule("A", models.CategoryBasic, 1), constRule("B", models.CategoryContent, 1))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if len(reg.All()) != 2 {
					t.Error("unexpected rule count")
					return
				}
				reg.Get("A")
			}
		}()
	}
	wg.Wait()
}

func TestCategorized(t *testing.T) {
	def := benchmark.Definition{
		TriggerID: "X",
		Dimensions: []benchmark.Dimension{{
			Name: "rate",
			Buckets: []benchmark.Bucket{
				benchmark.Below("LOW", "Low", 1, 30),
				benchmark.AtLeast("HIGH", "High", 1, 90),
			},
		}},
		MinSample: 10,
		Recommendations: map[string]string{
			"LOW":                              "raise it",
			benchmark.DefaultRecommendationKey: "keep going",
		},
	}
	require.NoError(t, def.Validate())

	ev := Categorized(def, def.Categorize(20, benchmark.Measure(0.5)))
	assert.Equal(t, 30, ev.Score)
	assert.Equal(t, "raise it", ev.Recommendation)
	assert.Equal(t, "LOW", ev.CategoryKey())
	assert.Equal(t, "Low", ev.Details.Context)
	assert.Equal(t, models.ReasonNone, ev.Reason())

	ev = Categorized(def, def.Categorize(5, benchmark.Measure(3)))
	assert.Equal(t, models.ReasonInsufficientData, ev.Reason())
	assert.Equal(t, benchmark.TokenInsufficient, ev.CategoryKey())
	assert.Equal(t, InsufficientScore, ev.Score)
	assert.Equal(t, "keep going", ev.Recommendation)

	ev = Categorized(def, benchmark.NotApplicable())
	assert.Equal(t, models.ReasonNotApplicable, ev.Reason())
	assert.Equal(t, NotApplicableScore, ev.Score)

	ev = Categorized(def, def.Categorize(20, benchmark.Missing()))
	assert.Equal(t, models.ReasonMetricUnavailable, ev.Reason())
}

func TestWithValuesAndMetric(t *testing.T) {
	ev := WithValues(models.TriggerEvaluation{}, models.Number(3), models.Text("12 posts"))
	ev = WithMetric(ev, models.MetricFormula, "posts / months")
	assert.Equal(t, "3", ev.Details.CurrentValue.String())
	assert.Equal(t, "12 posts", ev.Details.TargetValue.String())
	assert.Equal(t, "posts / months", ev.Details.Metrics[models.MetricFormula])
}

func TestInput_CachesDerivedData(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := "Sleva 20% na vše"
	ds := &models.PageDataset{
		Posts: []models.NormalizedPost{
			{ID: "new", CreatedAt: models.ValidTime(now.Add(-24 * time.Hour)), Message: &msg},
			{ID: "old", CreatedAt: models.ValidTime(now.Add(-60 * 24 * time.Hour))},
			{ID: "bad"},
		},
		Collection: models.CollectionInfo{CollectedAt: now},
	}

	in := NewInput(ds, models.Benchmark{}, nil, Settings{})
	assert.Equal(t, now, in.Now)
	assert.Equal(t, DefaultInteractionWindow, in.Settings.InteractionWindow)

	recent := in.RecentPosts()
	require.Len(t, recent, 1)
	assert.Equal(t, "new", recent[0].ID)

	labels := in.Classifications()
	require.Len(t, labels, 1, "only posts inside the window are classified")
	assert.Equal(t, "new", labels[0].PostID)
	assert.Equal(t, models.LabelSales, labels[0].Label)
	assert.Same(t, &labels[0], &in.Classifications()[0])
}
