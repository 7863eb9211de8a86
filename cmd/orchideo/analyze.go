package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppehal/orchideo-sub001/internal/config"
	"github.com/ppehal/orchideo-sub001/internal/dataset"
	"github.com/ppehal/orchideo-sub001/internal/engine"
	"github.com/ppehal/orchideo-sub001/internal/logger"
	"github.com/ppehal/orchideo-sub001/internal/models"
	"github.com/ppehal/orchideo-sub001/internal/results"
	"github.com/ppehal/orchideo-sub001/internal/storage"
	"github.com/ppehal/orchideo-sub001/internal/telegram"
	"github.com/ppehal/orchideo-sub001/internal/trigger"
	"github.com/ppehal/orchideo-sub001/internal/trigger/rules"
)

type analyzeOptions struct {
	InputPath  string
	AnalysisID string
	Industry   string
	Notify     bool
}

// reportSender delivers report summaries; *telegram.Client implements it.
type reportSender interface {
	SendReport(ctx context.Context, r telegram.Report) error
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

func newRegistry() (*trigger.Registry, error) {
	reg := trigger.NewRegistry()
	if err := rules.RegisterDefaults(reg); err != nil {
		return nil, fmt.Errorf("register triggers: %w", err)
	}
	return reg, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // stderr sync fails on some terminals

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.New(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	var notifier reportSender
	if analyzeFlags.Notify {
		if !cfg.Telegram.Enabled {
			return errors.New("--notify requires telegram.enabled")
		}
		client, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			return fmt.Errorf("failed to initialize Telegram client: %w", err)
		}
		notifier = client
	}

	report, err := analyze(ctx, cfg, store, notifier, analyzeFlags)
	if err != nil {
		return err
	}
	printReport(cmd.OutOrStdout(), analyzeFlags.AnalysisID, report)
	return nil
}

// analyze loads and scores the dataset, replaces the stored results of the
// analysis and optionally sends the summary. A failed notification is logged
// and does not fail the run since the results are already stored.
func analyze(ctx context.Context, cfg *config.Config, store results.Transactor, notifier reportSender, opts analyzeOptions) (*engine.Report, error) {
	bench, err := cfg.Benchmark(opts.Industry)
	if err != nil {
		return nil, err
	}
	weights, err := cfg.Weights()
	if err != nil {
		return nil, err
	}
	reg, err := newRegistry()
	if err != nil {
		return nil, err
	}
	eng, err := engine.New(reg, weights, cfg.EngineOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	ds, err := dataset.LoadNormalized(opts.InputPath)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded %d posts for page %s (%s)", len(ds.Posts), ds.Page.ID, ds.Page.Name)

	start := time.Now()
	report := eng.Evaluate(ds, bench)
	logger.Info("Evaluated %d triggers in %v: overall %.1f (%s)",
		len(report.Evaluations), time.Since(start), report.Score.Overall, report.Status)

	summary := &models.AnalysisSummary{
		ID:           opts.AnalysisID,
		PageID:       ds.Page.ID,
		Industry:     bench.Industry,
		OverallScore: report.Score.Overall,
		Categories:   report.Score.Categories,
		TriggerCount: len(report.Evaluations),
		UpdatedAt:    time.Now().UTC(),
	}
	if _, err := results.Replace(ctx, store, summary, report.Evaluations); err != nil {
		return nil, fmt.Errorf("failed to store results: %w", err)
	}
	logger.Info("Stored %d results for analysis %s", len(report.Evaluations), opts.AnalysisID)

	if notifier != nil {
		err := notifier.SendReport(ctx, telegram.Report{
			AnalysisID:  opts.AnalysisID,
			PageName:    ds.Page.Name,
			Industry:    bench.Industry,
			Score:       report.Score,
			Status:      report.Status,
			Lowest:      report.Lowest(cfg.Telegram.TopTriggers),
			EvaluatedAt: report.EvaluatedAt,
		})
		if err != nil {
			logger.Warn("Failed to send report to Telegram: %v", err)
		}
	}

	return report, nil
}

func printReport(w io.Writer, analysisID string, r *engine.Report) {
	fmt.Fprintf(w, "Analysis %s: overall %d (%s)\n\n", analysisID, r.Score.Rounded(), r.Status)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tSCORE\tWEIGHT\tTRIGGERS")
	for _, cs := range r.Score.Categories {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%d\n", cs.Category, cs.Rounded(), cs.Weight, cs.TriggerCount)
	}
	_ = tw.Flush()

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TRIGGER\tSCORE\tSTATUS\tKEY\tRECOMMENDATION")
	for _, ev := range r.Evaluations {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", ev.ID, ev.Score, ev.Status, ev.CategoryKey(), ev.Recommendation)
	}
	_ = tw.Flush()
}

func runResults(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // stderr sync fails on some terminals

	store, err := storage.New(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	return printStoredResults(cmd.Context(), cmd.OutOrStdout(), store, resultsAnalysisID)
}

func printStoredResults(ctx context.Context, w io.Writer, store *storage.Storage, analysisID string) error {
	summary, err := store.GetAnalysis(ctx, analysisID)
	if err != nil {
		return err
	}
	records, err := store.ListResults(ctx, analysisID)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Analysis %s (page %s, %s): overall %.1f, updated %s\n\n",
		summary.ID, summary.PageID, summary.Industry, summary.OverallScore,
		summary.UpdatedAt.Format(time.RFC3339))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTRIGGER\tCATEGORY\tSCORE\tSTATUS\tVALUE\tTHRESHOLD")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\t%s\n",
			r.Position, r.TriggerID, r.Category, r.Score, r.Status, optFloat(r.Value), optFloat(r.Threshold))
	}
	return tw.Flush()
}

func optFloat(f *float64) string {
	if f == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *f)
}

func runTriggers(cmd *cobra.Command, args []string) error {
	reg, err := newRegistry()
	if err != nil {
		return err
	}
	return printTriggers(cmd.OutOrStdout(), reg)
}

func printTriggers(w io.Writer, reg *trigger.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tNAME")
	for _, r := range reg.All() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, r.Category, r.Name)
	}
	return tw.Flush()
}
