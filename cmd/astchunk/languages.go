// cmd/astchunk/languages.go
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/astchunk/internal/chunk"
	"github.com/randalmurphal/astchunk/internal/lang"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported languages and metadata templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Languages:")
		for _, id := range lang.Supported() {
			entry, err := lang.Lookup(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "  %s\n", entry.Describe())
			for _, c := range entry.Unsupported {
				fmt.Fprintf(out, "    rejects %s (markers: %s; line keywords: %s)\n",
					c.Feature, strings.Join(c.Markers, ", "), strings.Join(c.Keywords, ", "))
			}
		}
		fmt.Fprintf(out, "\nMetadata templates: %s\n", strings.Join(chunk.Templates(), ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}
