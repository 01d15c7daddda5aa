// cmd/astchunk/status.go
package main

import (
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/astchunk/internal/config"
	"github.com/randalmurphal/astchunk/internal/embedding"
	"github.com/randalmurphal/astchunk/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status [repo]",
	Short: "Show what is stored in the SQLite and Qdrant sinks",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repo := ""
	if len(args) == 1 {
		repo = args[0]
	}

	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	fmt.Fprintf(out, "Sinks: %v\n", cfg.Storage.Sinks)

	if _, err := os.Stat(cfg.Storage.SQLitePath); err == nil {
		db, err := store.OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return fmt.Errorf("open %s: %w", cfg.Storage.SQLitePath, err)
		}
		defer db.Close()

		st, err := db.Stats(ctx, repo)
		if err != nil {
			return fmt.Errorf("read sqlite stats: %w", err)
		}
		fmt.Fprintln(out, "\nSQLite:")
		fmt.Fprintf(out, "  Path:   %s\n", cfg.Storage.SQLitePath)
		fmt.Fprintf(out, "  Files:  %d\n", st.Files)
		fmt.Fprintf(out, "  Chunks: %d\n", st.Chunks)
		languages := make([]string, 0, len(st.ByLanguage))
		for l := range st.ByLanguage {
			languages = append(languages, l)
		}
		sort.Strings(languages)
		for _, l := range languages {
			fmt.Fprintf(out, "    - %s: %d\n", l, st.ByLanguage[l])
		}
	} else if slices.Contains(cfg.Storage.Sinks, config.SinkSQLite) {
		fmt.Fprintln(out, "\nSQLite: no database yet. Run 'astchunk index <repo>' to create one.")
	}

	if slices.Contains(cfg.Storage.Sinks, config.SinkQdrant) {
		// The dimension only matters when creating the collection.
		dim := embedding.NewVoyageClient("", cfg.Embedding.Model).Dimension()
		qs, err := store.NewQdrantSink(cfg.Storage.QdrantHost, cfg.Storage.QdrantPort, cfg.Storage.Collection, dim)
		if err != nil {
			return fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", cfg.Storage.QdrantHost, cfg.Storage.QdrantPort, err)
		}
		defer qs.Close()

		info, err := qs.CollectionInfo(ctx)
		if err != nil {
			fmt.Fprintln(out, "\nQdrant: no collection found.")
			return nil
		}
		fmt.Fprintln(out, "\nQdrant:")
		fmt.Fprintf(out, "  Collection: %s\n", cfg.Storage.Collection)
		fmt.Fprintf(out, "  Points:     %d\n", info.PointsCount)
		fmt.Fprintf(out, "  Vectors:    %d dimensions\n", info.VectorSize)
		fmt.Fprintf(out, "  Status:     %s\n", info.Status)
	}

	return nil
}
