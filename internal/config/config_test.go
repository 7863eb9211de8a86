package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppehal/orchideo-sub001/internal/engine"
	"github.com/ppehal/orchideo-sub001/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndValidate(t *testing.T) {
	path := writeConfig(t, `
analysis:
  industry: Gastro
  interaction_window: 336h
  min_interactions: 25

scoring:
  weights:
    basic: 0.4
    content: 0.3
    technical: 0.1
    timing: 0.1
    sharing: 0.05
    page_settings: 0.05
  tiers:
    excellent: 90
    good: 70
    needs_improvement: 45

benchmarks:
  gastro:
    engagement_rate: 2.5
    posts_per_month: 20
    interactions_per_post: 35
    shares_per_post: 2
    video_share: 0.3
    organic_reach_rate: 10

telegram:
  bot_token: "test_token"
  chat_id: "12345"
  enabled: true

storage:
  db_path: "./data/test.db"

logging:
  level: "debug"
  format: "text"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.Analysis.InteractionWindow != 14*24*time.Hour {
		t.Errorf("Unexpected interaction window: %v", cfg.Analysis.InteractionWindow)
	}
	if s := cfg.TriggerSettings(); s.MinInteractions != 25 {
		t.Errorf("Unexpected min interactions: %d", s.MinInteractions)
	}

	w, err := cfg.Weights()
	if err != nil {
		t.Fatalf("Weights failed: %v", err)
	}
	if w[models.CategoryPageSettings] != 0.05 || w[models.CategoryBasic] != 0.4 {
		t.Errorf("Unexpected weights: %v", w)
	}

	b, err := cfg.Benchmark("")
	if err != nil {
		t.Fatalf("Benchmark failed: %v", err)
	}
	if b.Industry != "gastro" || b.EngagementRate != 2.5 {
		t.Errorf("Unexpected benchmark: %+v", b)
	}

	// the built-in default set stays available next to configured industries
	if _, err := cfg.Benchmark(DefaultIndustry); err != nil {
		t.Errorf("default benchmark missing: %v", err)
	}
	if got := cfg.Scoring.Tiers; got != (engine.Tiers{Excellent: 90, Good: 70, NeedsImprovement: 45}) {
		t.Errorf("Unexpected tiers: %+v", got)
	}
	if cfg.Telegram.MaxRetries != 3 || cfg.Telegram.RetryDelayBase != time.Second {
		t.Errorf("Unexpected telegram retry defaults: %+v", cfg.Telegram)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}

	w, err := cfg.Weights()
	if err != nil {
		t.Fatal(err)
	}
	for c, v := range engine.DefaultWeights() {
		if w[c] != v {
			t.Errorf("weight %s = %v, want %v", c, w[c], v)
		}
	}
	if cfg.Scoring.Tiers != engine.DefaultTiers() {
		t.Errorf("Unexpected tiers: %+v", cfg.Scoring.Tiers)
	}
	if cfg.Storage.DBPath != "./data/orchideo.db" {
		t.Errorf("Unexpected db path: %s", cfg.Storage.DBPath)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ORCHIDEO_STORAGE_DB_PATH", "/tmp/override.db")
	t.Setenv("ORCHIDEO_ANALYSIS_MIN_INTERACTIONS", "10")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.DBPath != "/tmp/override.db" {
		t.Errorf("Unexpected db path: %s", cfg.Storage.DBPath)
	}
	if cfg.Analysis.MinInteractions != 10 {
		t.Errorf("Unexpected min interactions: %d", cfg.Analysis.MinInteractions)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func validConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Industry:          DefaultIndustry,
			InteractionWindow: 30 * 24 * time.Hour,
			MinInteractions:   40,
		},
		Scoring: ScoringConfig{Tiers: engine.DefaultTiers()},
		Benchmarks: map[string]models.Benchmark{
			DefaultIndustry: {EngagementRate: 1, PostsPerMonth: 12},
		},
		Storage: StorageConfig{DBPath: "./data/test.db"},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing telegram token when enabled", func(c *Config) {
			c.Telegram = TelegramConfig{Enabled: true, ChatID: "1"}
		}},
		{"missing telegram chat id when enabled", func(c *Config) {
			c.Telegram = TelegramConfig{Enabled: true, BotToken: "t"}
		}},
		{"weights do not sum to one", func(c *Config) {
			c.Scoring.Weights = map[string]float64{"basic": 0.5, "content": 0.4}
		}},
		{"unknown weight category", func(c *Config) {
			c.Scoring.Weights = map[string]float64{"basic": 0.5, "reels": 0.5}
		}},
		{"tiers not descending", func(c *Config) {
			c.Scoring.Tiers = engine.Tiers{Excellent: 60, Good: 65, NeedsImprovement: 40}
		}},
		{"unknown industry", func(c *Config) { c.Analysis.Industry = "automotive" }},
		{"negative benchmark", func(c *Config) {
			c.Benchmarks[DefaultIndustry] = models.Benchmark{EngagementRate: -1}
		}},
		{"short interaction window", func(c *Config) { c.Analysis.InteractionWindow = time.Hour }},
		{"zero min interactions", func(c *Config) { c.Analysis.MinInteractions = 0 }},
		{"negative debug sample", func(c *Config) { c.Classifier.DebugSampleSize = -1 }},
		{"empty db path", func(c *Config) { c.Storage.DBPath = "" }},
		{"invalid log level", func(c *Config) { c.Logging.Level = "trace" }},
		{"invalid log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("base config must validate: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() expected an error")
			}
		})
	}
}

func TestWeightsErrorIsSentinel(t *testing.T) {
	cfg := validConfig()
	cfg.Scoring.Weights = map[string]float64{"basic": 2}
	_, err := cfg.Weights()
	if !errors.Is(err, engine.ErrInvalidWeights) {
		t.Errorf("expected ErrInvalidWeights, got %v", err)
	}
}

func TestNewClassifierKeywordOverride(t *testing.T) {
	cfg := validConfig()
	cfg.Classifier.SalesKeywords = []string{"výprodej"}

	c := cfg.NewClassifier()
	if got := c.Classify("Velký výprodej zimních bund"); got != models.LabelSales {
		t.Errorf("override keyword not used, got %s", got)
	}
	if got := c.Classify("Nakupte teď se slevou"); got == models.LabelSales {
		t.Errorf("built-in sales keywords should be replaced, got %s", got)
	}
}
