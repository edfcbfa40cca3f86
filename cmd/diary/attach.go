// ABOUTME: Attach command for managing entry attachments.
// ABOUTME: Provides add and get subcommands for binary files.

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/harper/diary/internal/models"
	"github.com/harper/diary/internal/ui"
	"github.com/spf13/cobra"
)

var attachCmd = &cobra.Command{
	Use:   "attach <id-prefix> <file>...",
	Short: "Attach files to an entry",
	Long:  `Append files to an entry in the order given. Identical files are stored once.`,
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, err := app.Entries.Find(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get entry: %w", err)
		}

		attachments := make([]models.Attachment, 0, len(args)-1)
		for _, path := range args[1:] {
			a, err := readAttachment(path)
			if err != nil {
				return err
			}
			attachments = append(attachments, *a)
		}

		updated, err := app.Entries.AddAttachments(cmd.Context(), entry.ID, attachments)
		if err != nil {
			return fmt.Errorf("failed to add attachments: %w", err)
		}

		for _, a := range updated.Attachments[len(updated.Attachments)-len(attachments):] {
			fmt.Println(ui.Success(fmt.Sprintf("Added %s (%s) to entry %s", a.Name, ui.ShortID(a.ID), ui.ShortID(entry.ID))))
		}
		return nil
	},
}

var attachGetCmd = &cobra.Command{
	Use:   "get <attachment-id>",
	Short: "Extract an attachment to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outputPath, _ := cmd.Flags().GetString("output")

		att, err := app.Files.Get(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get attachment: %w", err)
		}

		_, data, err := models.DecodeDataURL(att.URL)
		if err != nil {
			return fmt.Errorf("failed to decode attachment: %w", err)
		}

		if outputPath == "" {
			outputPath = att.Name
		}

		if outputPath == "-" {
			_, err = io.Copy(os.Stdout, bytes.NewReader(data))
			return err
		}

		if err := os.WriteFile(outputPath, data, 0600); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}

		fmt.Println(ui.Success(fmt.Sprintf("Extracted %s to %s", att.Name, outputPath)))
		return nil
	},
}

func init() {
	attachGetCmd.Flags().StringP("output", "o", "", "output path (default: original filename, - for stdout)")
	attachCmd.AddCommand(attachGetCmd)
	rootCmd.AddCommand(attachCmd)
}
