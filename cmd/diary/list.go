// ABOUTME: List command for displaying entries newest first.
// ABOUTME: Supports theme filtering and an interactive show-more prompt.

package main

import (
	"fmt"

	"github.com/harper/diary/internal/models"
	"github.com/harper/diary/internal/ui"
	"github.com/spf13/cobra"
)

const defaultListLimit = 10

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List entries",
	Long:    `List entries newest first, optionally filtered by theme. A limit of 0 shows everything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		themeFlag, _ := cmd.Flags().GetString("theme")
		limitFlag, _ := cmd.Flags().GetInt("limit")

		var (
			entries []*models.Entry
			err     error
		)
		if themeFlag != "" {
			theme, perr := parseThemeFlag(themeFlag)
			if perr != nil {
				return perr
			}
			entries, err = app.Entries.ListByTheme(cmd.Context(), theme)
		} else {
			entries, err = app.Entries.List(cmd.Context())
		}
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		printEntries(entries, limitFlag)
		return nil
	},
}

// printEntries prints up to limit entries and offers the rest on a
// terminal.
func printEntries(entries []*models.Entry, limit int) {
	if len(entries) == 0 {
		fmt.Println("No entries found.")
		return
	}

	shown := entries
	if limit > 0 && len(entries) > limit {
		shown = entries[:limit]
	}
	for _, e := range shown {
		fmt.Print(ui.FormatEntryListItem(e))
	}

	remaining := len(entries) - len(shown)
	if remaining == 0 {
		return
	}
	if !interactive() {
		fmt.Printf("\n%d more entries, use --limit 0 to show all.\n", remaining)
		return
	}

	fmt.Print(ui.FormatShowMorePrompt(remaining))
	if readYes() {
		fmt.Println()
		for _, e := range entries[len(shown):] {
			fmt.Print(ui.FormatEntryListItem(e))
		}
	}
}

func init() {
	listCmd.Flags().StringP("theme", "t", "", "filter by theme")
	listCmd.Flags().IntP("limit", "n", defaultListLimit, "number of entries to show first")
	rootCmd.AddCommand(listCmd)
}
