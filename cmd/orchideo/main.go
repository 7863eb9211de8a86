package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "orchideo",
	Short:        "orchideo - social page health scoring",
	SilenceUsage: true,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score a collected page dataset and store the results",
	RunE:  runAnalyze,
}

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show the stored results of an analysis",
	RunE:  runResults,
}

var triggersCmd = &cobra.Command{
	Use:   "triggers",
	Short: "List the registered triggers",
	RunE:  runTriggers,
}

var analyzeFlags analyzeOptions
var resultsAnalysisID string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (defaults and ORCHIDEO_* env when empty)")

	analyzeCmd.Flags().StringVarP(&analyzeFlags.InputPath, "input", "i", "", "Page dataset JSON file")
	analyzeCmd.Flags().StringVar(&analyzeFlags.AnalysisID, "analysis-id", "", "Analysis id the results are stored under")
	analyzeCmd.Flags().StringVar(&analyzeFlags.Industry, "industry", "", "Benchmark industry (overrides analysis.industry)")
	analyzeCmd.Flags().BoolVar(&analyzeFlags.Notify, "notify", false, "Send the report summary to Telegram")
	_ = analyzeCmd.MarkFlagRequired("input")
	_ = analyzeCmd.MarkFlagRequired("analysis-id")

	resultsCmd.Flags().StringVar(&resultsAnalysisID, "analysis-id", "", "Analysis id")
	_ = resultsCmd.MarkFlagRequired("analysis-id")

	rootCmd.AddCommand(analyzeCmd, resultsCmd, triggersCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
