package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ppehal/orchideo-sub001/internal/classifier"
	"github.com/ppehal/orchideo-sub001/internal/engine"
	"github.com/ppehal/orchideo-sub001/internal/models"
	"github.com/ppehal/orchideo-sub001/internal/trigger"
)

// DefaultIndustry is the benchmark set used when no industry is selected.
const DefaultIndustry = "default"

// Config represents the complete application configuration
type Config struct {
	Analysis   AnalysisConfig              `mapstructure:"analysis"`
	Scoring    ScoringConfig               `mapstructure:"scoring"`
	Benchmarks map[string]models.Benchmark `mapstructure:"benchmarks"`
	Classifier ClassifierConfig            `mapstructure:"classifier"`
	Storage    StorageConfig               `mapstructure:"storage"`
	Telegram   TelegramConfig              `mapstructure:"telegram"`
	Logging    LoggingConfig               `mapstructure:"logging"`
}

// AnalysisConfig holds the sample windows used by the trigger rules
type AnalysisConfig struct {
	Industry          string        `mapstructure:"industry"`
	InteractionWindow time.Duration `mapstructure:"interaction_window"`
	MinInteractions   int           `mapstructure:"min_interactions"`
}

// ScoringConfig holds category weights and status tiers.
// An empty weight table falls back to engine.DefaultWeights.
type ScoringConfig struct {
	Weights map[string]float64 `mapstructure:"weights"`
	Tiers   engine.Tiers       `mapstructure:"tiers"`
}

// ClassifierConfig holds content classifier configuration
type ClassifierConfig struct {
	DebugSampleSize int      `mapstructure:"debug_sample_size"`
	SalesKeywords   []string `mapstructure:"sales_keywords"`
	BrandKeywords   []string `mapstructure:"brand_keywords"`
}

// StorageConfig holds the result database location
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	TopTriggers    int           `mapstructure:"top_triggers"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables. An empty
// path loads defaults and environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// ORCHIDEO_STORAGE_DB_PATH overrides storage.db_path
	v.SetEnvPrefix("ORCHIDEO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Analysis defaults
	v.SetDefault("analysis.industry", DefaultIndustry)
	v.SetDefault("analysis.interaction_window", trigger.DefaultInteractionWindow)
	v.SetDefault("analysis.min_interactions", trigger.DefaultMinInteractions)

	// Scoring defaults; weights default in Weights(), not per key
	tiers := engine.DefaultTiers()
	v.SetDefault("scoring.tiers.excellent", tiers.Excellent)
	v.SetDefault("scoring.tiers.good", tiers.Good)
	v.SetDefault("scoring.tiers.needs_improvement", tiers.NeedsImprovement)

	// Benchmark defaults
	v.SetDefault("benchmarks.default.engagement_rate", 1.0)
	v.SetDefault("benchmarks.default.posts_per_month", 12)
	v.SetDefault("benchmarks.default.interactions_per_post", 20)
	v.SetDefault("benchmarks.default.shares_per_post", 1.5)
	v.SetDefault("benchmarks.default.video_share", 0.2)
	v.SetDefault("benchmarks.default.organic_reach_rate", 8)

	// Classifier defaults
	v.SetDefault("classifier.debug_sample_size", classifier.DefaultDebugSampleSize)

	// Storage defaults
	v.SetDefault("storage.db_path", "./data/orchideo.db")

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")
	v.SetDefault("telegram.top_triggers", 5)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Analysis config
	if c.Analysis.InteractionWindow < 24*time.Hour {
		return errors.New("analysis.interaction_window must be at least 24h")
	}
	if c.Analysis.MinInteractions < 1 {
		return errors.New("analysis.min_interactions must be at least 1")
	}
	if _, err := c.Benchmark(c.Analysis.Industry); err != nil {
		return err
	}

	// Validate Scoring config
	if _, err := c.Weights(); err != nil {
		return fmt.Errorf("scoring.weights: %w", err)
	}
	if err := c.Scoring.Tiers.Validate(); err != nil {
		return fmt.Errorf("scoring.tiers: %w", err)
	}

	// Validate Classifier config
	if c.Classifier.DebugSampleSize < 0 {
		return errors.New("classifier.debug_sample_size must not be negative")
	}

	// Validate Storage config
	if c.Storage.DBPath == "" {
		return errors.New("storage.db_path is required")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return errors.New("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return errors.New("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return errors.New("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return errors.New("logging.format must be one of: json, text")
	}

	return nil
}

// Weights converts the configured weight table into engine weights. Keys are
// matched case-insensitively since viper lower-cases them.
func (c *Config) Weights() (engine.Weights, error) {
	if len(c.Scoring.Weights) == 0 {
		return engine.DefaultWeights(), nil
	}
	w := make(engine.Weights, len(c.Scoring.Weights))
	for name, v := range c.Scoring.Weights {
		cat, err := models.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", engine.ErrInvalidWeights, err)
		}
		w[cat] = v
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

// Benchmark returns the benchmark set of industry, or of the configured
// industry when industry is empty.
func (c *Config) Benchmark(industry string) (models.Benchmark, error) {
	if industry == "" {
		industry = c.Analysis.Industry
	}
	if industry == "" {
		industry = DefaultIndustry
	}
	key := strings.ToLower(industry)
	b, ok := c.Benchmarks[key]
	if !ok {
		return models.Benchmark{}, fmt.Errorf("no benchmarks configured for industry %q (have: %s)",
			industry, strings.Join(c.Industries(), ", "))
	}
	if err := b.Validate(); err != nil {
		return models.Benchmark{}, fmt.Errorf("benchmarks.%s: %w", key, err)
	}
	b.Industry = key
	return b, nil
}

// Industries lists the configured benchmark sets in name order.
func (c *Config) Industries() []string {
	names := make([]string, 0, len(c.Benchmarks))
	for name := range c.Benchmarks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TriggerSettings returns the sample settings shared by the rules.
func (c *Config) TriggerSettings() trigger.Settings {
	return trigger.Settings{
		InteractionWindow: c.Analysis.InteractionWindow,
		MinInteractions:   c.Analysis.MinInteractions,
	}
}

// NewClassifier builds the content classifier. Empty keyword lists keep the
// built-in ones.
func (c *Config) NewClassifier() *classifier.Classifier {
	sales, brand := c.Classifier.SalesKeywords, c.Classifier.BrandKeywords
	if len(sales) == 0 {
		sales = classifier.DefaultSalesKeywords
	}
	if len(brand) == 0 {
		brand = classifier.DefaultBrandKeywords
	}
	return classifier.New(sales, brand, classifier.WithDebugSampleSize(c.Classifier.DebugSampleSize))
}

// EngineOptions returns the engine options derived from the configuration.
func (c *Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithTiers(c.Scoring.Tiers),
		engine.WithClassifier(c.NewClassifier()),
		engine.WithSettings(c.TriggerSettings()),
	}
}
