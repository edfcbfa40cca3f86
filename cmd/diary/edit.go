// ABOUTME: Edit command for modifying existing entries.
// ABOUTME: Updates fields from flags or opens the content in $EDITOR.

package main

import (
	"fmt"

	"github.com/harper/diary/internal/ui"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit <id-prefix>",
	Short: "Edit an entry",
	Long: `Change an entry's title, content or theme. Without --title or --content
the content opens in $EDITOR. The entry keeps its original date.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, err := app.Entries.Find(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get entry: %w", err)
		}

		changed := false
		if cmd.Flags().Changed("title") {
			entry.Title, _ = cmd.Flags().GetString("title")
			changed = true
		}
		if cmd.Flags().Changed("theme") {
			name, _ := cmd.Flags().GetString("theme")
			theme, err := parseThemeFlag(name)
			if err != nil {
				return err
			}
			entry.Theme = theme
			changed = true
		}

		switch {
		case cmd.Flags().Changed("content"):
			entry.Content, _ = cmd.Flags().GetString("content")
			changed = true
		case !cmd.Flags().Changed("title") && !cmd.Flags().Changed("theme"):
			newContent, err := openEditor(entry.Content)
			if err != nil {
				return fmt.Errorf("failed to open editor: %w", err)
			}
			if newContent != entry.Content {
				entry.Content = newContent
				changed = true
			}
		}

		if !changed {
			fmt.Println("No changes made.")
			return nil
		}

		if _, err := app.Entries.Update(cmd.Context(), entry); err != nil {
			return fmt.Errorf("failed to update entry: %w", err)
		}

		fmt.Println(ui.Success(fmt.Sprintf("Updated entry %s", ui.ShortID(entry.ID))))
		return nil
	},
}

func init() {
	editCmd.Flags().String("title", "", "new title")
	editCmd.Flags().String("content", "", "new content (inline)")
	editCmd.Flags().StringP("theme", "t", "", "new theme")
	rootCmd.AddCommand(editCmd)
}
