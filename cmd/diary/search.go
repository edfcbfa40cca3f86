// ABOUTME: Search command for finding entries by title or content.
// ABOUTME: Matching ignores case and markup in entry content.

package main

import (
	"fmt"
	"strings"

	"github.com/harper/diary/internal/ui"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search entries",
	Long:  `Find entries whose title or text contains the query, ignoring case.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		limitFlag, _ := cmd.Flags().GetInt("limit")

		entries, err := app.Entries.Search(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println(ui.Warning(fmt.Sprintf("No entries match %q.", query)))
			return nil
		}
		printEntries(entries, limitFlag)
		return nil
	},
}

func init() {
	searchCmd.Flags().IntP("limit", "n", defaultListLimit, "number of results to show first")
	rootCmd.AddCommand(searchCmd)
}
