// ABOUTME: Show command for displaying a single entry.
// ABOUTME: Renders markdown content with glamour.

package main

import (
	"fmt"

	"github.com/harper/diary/internal/ui"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id-prefix>",
	Short: "Show an entry",
	Long:  `Display an entry's full content with rendered markdown.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, err := app.Entries.Find(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get entry: %w", err)
		}

		fmt.Print(ui.FormatEntryHeader(entry))

		content, _ := ui.FormatEntryContent(entry.Content)
		fmt.Print(content)

		if len(entry.Attachments) > 0 {
			fmt.Print(ui.FormatAttachmentList(entry.Attachments))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
