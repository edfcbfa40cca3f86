// ABOUTME: Remove command for deleting entries.
// ABOUTME: Includes confirmation prompt before deletion.

package main

import (
	"fmt"

	"github.com/harper/diary/internal/ui"
	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <id-prefix>",
	Short: "Remove an entry",
	Long:  `Delete an entry. Its files stay in the shared file store.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		entry, err := app.Entries.Find(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get entry: %w", err)
		}

		if !force {
			ok, err := confirm(fmt.Sprintf("Delete entry %q (%s)?", entry.Title, ui.ShortID(entry.ID)), "--force")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		if err := app.Entries.Delete(cmd.Context(), entry.ID); err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}

		fmt.Println(ui.Success(fmt.Sprintf("Deleted entry %s", ui.ShortID(entry.ID))))
		return nil
	},
}

func init() {
	rmCmd.Flags().BoolP("force", "f", false, "skip confirmation")
	rootCmd.AddCommand(rmCmd)
}
