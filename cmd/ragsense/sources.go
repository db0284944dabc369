package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the configured source collections",
	Args:  cobra.NoArgs,
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, _ []string) error {
	sources, mapping, err := cfg.LoadCatalog()
	if err != nil {
		return fmt.Errorf("failed to load source catalog: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, sources)
	}

	cmd.Printf("Mapping: jira=%s wiki=%s files=%s\n", mapping.Jira, mapping.Wiki, mapping.Files)
	cmd.Println()
	for _, src := range sources {
		cmd.Printf("  %-24s %-14s available=%t embeddings=%t\n", src.Name, src.Type, src.Available, src.Embeddings)
	}
	return nil
}
