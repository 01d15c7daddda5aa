// cmd/astchunk-mcp/main.go
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/astchunk/internal/chunk"
	"github.com/randalmurphal/astchunk/internal/config"
	"github.com/randalmurphal/astchunk/internal/logging"
	"github.com/randalmurphal/astchunk/internal/mcp"
)

var rootCmd = &cobra.Command{
	Use:   "astchunk-mcp",
	Short: "MCP server for syntax-aware code chunking",
	Long:  `An MCP (Model Context Protocol) server exposing the chunker as tools over stdio.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long:  `Start the MCP server listening on stdin/stdout for JSON-RPC messages.`,
	RunE:  runServe,
}

var (
	logFile    string
	configPath string
)

func init() {
	serveCmd.Flags().StringVar(&logFile, "log-file", "", "Log file path (defaults to ~/.cache/astchunk-mcp/server.log)")
	serveCmd.Flags().StringVar(&configPath, "config", "", "Config file (defaults to ~/.config/astchunk/config.yaml)")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.GlobalConfigPath()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// stdout carries the protocol, so logs go to a file.
	logger, cleanup, err := setupLogging(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer cleanup()

	logger.Info("starting MCP server", "name", mcp.ServerName, "version", mcp.ServerVersion)

	server := mcp.NewServer(chunk.NewBuilder(nil, logger), cfg.Chunking, logger)
	if err := server.Serve(cmd.Context()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func setupLogging(lc config.LoggingConfig) (*slog.Logger, func(), error) {
	path := logFile
	if path == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			cacheDir = os.TempDir()
		}
		logDir := filepath.Join(cacheDir, "astchunk-mcp")
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		path = filepath.Join(logDir, "server.log")
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return logging.New(lc.Level, "json", file), func() { file.Close() }, nil
}
