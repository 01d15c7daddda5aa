// cmd/astchunk/main.go
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/astchunk/internal/config"
	"github.com/randalmurphal/astchunk/internal/logging"
)

const version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:           "astchunk",
	Short:         "Syntax-aware code chunking",
	Long:          `Split source files into chunks aligned with their syntax tree, for retrieval and embedding pipelines.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger = logging.Setup(level, cfg.Logging.Format)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "astchunk v%s\n", version)
	},
}

var (
	configPath string
	verbose    bool

	globalCfg *config.Config
	logger    = slog.Default()
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (defaults to ~/.config/astchunk/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the global config once per process.
func loadConfig() (*config.Config, error) {
	if globalCfg != nil {
		return globalCfg, nil
	}
	path := configPath
	if path == "" {
		path = config.GlobalConfigPath()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	globalCfg = cfg
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
