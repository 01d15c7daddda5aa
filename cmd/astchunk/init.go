// cmd/astchunk/init.go
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/astchunk/internal/config"
	"github.com/randalmurphal/astchunk/internal/indexer"
)

var initCmd = &cobra.Command{
	Use:   "init [repo-path]",
	Short: "Write a .astchunk.yaml for a repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	absPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return fmt.Errorf("path does not exist: %s", absPath)
	}

	out := cmd.OutOrStdout()
	configPath := filepath.Join(absPath, config.RepoConfigFile)
	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(out, "Config already exists at %s\n", configPath)
		return nil
	}

	repoName := filepath.Base(absPath)
	doc := map[string]any{
		"astchunk": config.RepoConfig{
			Name:          repoName,
			DefaultBranch: detectDefaultBranch(absPath),
			Include:       detectIncludes(absPath),
			Exclude:       []string{},
		},
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(out, "Created %s\n", configPath)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintf(out, "  1. Review and customize the config file\n")
	fmt.Fprintf(out, "  2. Run: astchunk index %s\n", absPath)
	return nil
}

func detectDefaultBranch(repoPath string) string {
	data, err := os.ReadFile(filepath.Join(repoPath, ".git", "HEAD"))
	if err == nil {
		content := string(data)
		if strings.HasPrefix(content, "ref: refs/heads/") {
			return strings.TrimSpace(strings.TrimPrefix(content, "ref: refs/heads/"))
		}
	}
	return "main"
}

// languageGlobs groups the default include patterns by the extension probed
// for at the top two levels of the repository.
var languageGlobs = []struct {
	probe []string
	globs []string
}{
	{[]string{"*.py"}, []string{"**/*.py", "**/*.pyi"}},
	{[]string{"*.java"}, []string{"**/*.java"}},
	{[]string{"*.cs"}, []string{"**/*.cs"}},
	{[]string{"*.ts", "*.tsx", "*.js"}, []string{"**/*.ts", "**/*.tsx", "**/*.js", "**/*.jsx", "**/*.mjs"}},
	{[]string{"*.cpp", "*.cc", "*.hpp"}, []string{"**/*.cpp", "**/*.cc", "**/*.cxx", "**/*.hpp", "**/*.hh"}},
}

func detectIncludes(repoPath string) []string {
	includes := []string{}
	for _, lg := range languageGlobs {
		for _, pattern := range lg.probe {
			if hasFiles(repoPath, pattern) {
				includes = append(includes, lg.globs...)
				break
			}
		}
	}
	if len(includes) == 0 {
		return slices.Clone(indexer.DefaultIncludes)
	}
	return includes
}

func hasFiles(dir, pattern string) bool {
	matches, _ := filepath.Glob(filepath.Join(dir, pattern))
	if len(matches) > 0 {
		return true
	}
	matches, _ = filepath.Glob(filepath.Join(dir, "*", pattern))
	return len(matches) > 0
}
