package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samsaffron/genweb/internal/presets"
	"github.com/samsaffron/genweb/internal/ui"
)

var presetsCmd = &cobra.Command{
	Use:   "presets [query]",
	Short: "List the built-in prompt presets",
	Long: `List the built-in prompt presets, optionally fuzzy-filtered by name.
Use one with: genweb generate --preset <name>

Examples:
  genweb presets
  genweb presets login`,
	RunE: runPresets,
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}

func runPresets(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	found := presets.Find(query)
	out := cmd.OutOrStdout()
	if len(found) == 0 {
		fmt.Fprintf(out, "No presets match %q.\n", query)
		return nil
	}
	styles := ui.NewStyles(out, nil)
	for _, p := range found {
		fmt.Fprintf(out, "%-14s %s\n", styles.Bold.Render(p.Name), styles.Muted.Render(p.Prompt))
	}
	return nil
}

func presetCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var names []string
	for _, p := range presets.Find(toComplete) {
		names = append(names, p.Name)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
