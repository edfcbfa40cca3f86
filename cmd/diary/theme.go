// ABOUTME: Theme command for viewing and changing the diary theme.
// ABOUTME: The current theme is stored as a setting and applied to new entries.

package main

import (
	"fmt"

	"github.com/harper/diary/internal/ui"
	"github.com/spf13/cobra"
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Show the available themes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		current, err := app.Settings.Theme(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to read theme: %w", err)
		}
		fmt.Print(ui.FormatThemeList(current))
		return nil
	},
}

var themeSetCmd = &cobra.Command{
	Use:   "set <theme>",
	Short: "Change the current theme",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		theme, err := app.Settings.SetTheme(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to set theme: %w", err)
		}
		fmt.Println(ui.Success(fmt.Sprintf("Theme set to %s %s", ui.ThemeIcon(theme), theme)))
		return nil
	},
}

func init() {
	themeCmd.AddCommand(themeSetCmd)
	rootCmd.AddCommand(themeCmd)
}
