// ABOUTME: Store command for inspecting and wiping the storage engine.
// ABOUTME: Reports the active engine, its status and per-collection counts.

package main

import (
	"fmt"

	"github.com/harper/diary/internal/store"
	"github.com/harper/diary/internal/ui"
	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect the storage engine",
}

var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show engine, location and record counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := app.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to read store: %w", err)
		}

		fmt.Printf("Engine:   %s (%s)\n", st.Engine, st.Status)
		fmt.Printf("Location: %s\n", st.Location)
		for _, c := range store.Collections() {
			fmt.Printf("%-9s %d\n", string(c)+":", st.Counts[c])
		}
		if st.Quota > 0 {
			fmt.Printf("Usage:    %s of %s\n", ui.FormatSize(st.Used), ui.FormatSize(st.Quota))
		}
		if st.Status == store.Degraded {
			fmt.Println(ui.Warning("running on the fallback engine"))
		}
		return nil
	},
}

var storeWipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete every entry, setting and file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if !force {
			ok, err := confirm("Delete the whole diary? This cannot be undone.", "--force")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		if err := app.Transfer.Clear(cmd.Context()); err != nil {
			return fmt.Errorf("failed to wipe store: %w", err)
		}
		fmt.Println(ui.Success("Diary wiped"))
		return nil
	},
}

func init() {
	storeWipeCmd.Flags().BoolP("force", "f", false, "skip confirmation")
	storeCmd.AddCommand(storeStatusCmd, storeWipeCmd)
	rootCmd.AddCommand(storeCmd)
}
