// cmd/astchunk/stats.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/astchunk/internal/metrics"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize chunking metrics",
	Long:  `Summarize chunk runs, cache hits and failures from the metrics log.`,
	RunE:  runStats,
}

var (
	statsSince  string
	statsFailed bool
	statsJSON   bool
)

func init() {
	statsCmd.Flags().StringVar(&statsSince, "last", "7d", "Time period (e.g., 1h, 24h, 7d, 30d)")
	statsCmd.Flags().BoolVar(&statsFailed, "failed", false, "Show only files that failed to chunk")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	duration, err := parseDuration(statsSince)
	if err != nil {
		return fmt.Errorf("invalid time period: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if _, err := os.Stat(cfg.Logging.MetricsPath); os.IsNotExist(err) {
		fmt.Fprintln(out, "No metrics data found. Run 'astchunk index <repo>' to generate metrics.")
		return nil
	}

	analyzer := metrics.NewAnalyzer(cfg.Logging.MetricsPath)

	if statsFailed {
		files, err := analyzer.FailedFiles(duration)
		if err != nil {
			return err
		}
		if statsJSON {
			return printJSON(out, files)
		}
		fmt.Fprintf(out, "Failed files (last %s):\n\n", statsSince)
		if len(files) == 0 {
			fmt.Fprintln(out, "  No failures found.")
		}
		for _, f := range files {
			fmt.Fprintf(out, "  - %s (%d times)\n", f.File, f.Count)
		}
		return nil
	}

	summary, err := analyzer.Analyze(duration)
	if err != nil {
		return err
	}
	if statsJSON {
		return printJSON(out, summary)
	}

	fmt.Fprintf(out, "Chunking Summary (last %s):\n\n", statsSince)
	fmt.Fprintf(out, "  Files chunked:   %d\n", summary.FilesChunked)
	fmt.Fprintf(out, "  Chunks produced: %d\n", summary.ChunksProduced)
	fmt.Fprintf(out, "  Avg chunk size:  %d\n", summary.AvgChunkSize)
	fmt.Fprintf(out, "  Avg latency:     %dms\n", summary.AvgLatencyMs)
	fmt.Fprintf(out, "  Cache hit rate:  %.1f%%\n", summary.CacheHitRate()*100)
	fmt.Fprintf(out, "  Index runs:      %d\n", summary.IndexRuns)
	fmt.Fprintf(out, "  Errors:          %d\n", summary.Errors)
	fmt.Fprintln(out)

	printCounts(out, "By language", summary.ByLanguage)
	printCounts(out, "Errors by code", summary.ErrorsByCode)

	if len(summary.TopFailures) > 0 {
		fmt.Fprintln(out, "  Top failures:")
		for _, f := range summary.TopFailures {
			fmt.Fprintf(out, "    - %s (%d times)\n", f.File, f.Count)
		}
	}
	return nil
}

func printCounts(out io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(out, "  %s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(out, "    - %s: %d\n", k, counts[k])
	}
	fmt.Fprintln(out)
}

func printJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	return nil
}

// parseDuration extends time.ParseDuration with a day suffix.
func parseDuration(s string) (time.Duration, error) {
	if len(s) > 0 && s[len(s)-1] == 'd' {
		var d int
		if _, err := fmt.Sscanf(s[:len(s)-1], "%d", &d); err == nil {
			return time.Duration(d) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}
