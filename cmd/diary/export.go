// ABOUTME: Export command for backing up the whole diary.
// ABOUTME: Writes the JSON interchange document or a markdown directory.

package main

import (
	"fmt"
	"os"

	"github.com/harper/diary/internal/transfer"
	"github.com/harper/diary/internal/ui"
	"github.com/spf13/cobra"
)

const defaultMarkdownDir = "diary-export"

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the diary",
	Long: `Export every entry, setting and file. The json format can be imported
again; md writes one markdown file per entry plus an attachments folder.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		outputPath, _ := cmd.Flags().GetString("output")

		switch format {
		case "json":
			return exportJSON(cmd, outputPath)
		case "md":
			if outputPath == "" {
				outputPath = defaultMarkdownDir
			}
			n, err := app.Transfer.ExportMarkdown(cmd.Context(), outputPath)
			if err != nil {
				return fmt.Errorf("failed to export markdown: %w", err)
			}
			fmt.Println(ui.Success(fmt.Sprintf("Exported %d entries to %s", n, outputPath)))
			return nil
		default:
			return fmt.Errorf("unknown format: %s", format)
		}
	},
}

func exportJSON(cmd *cobra.Command, outputPath string) error {
	doc, err := app.Transfer.Export(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}

	if outputPath == "" || outputPath == "-" {
		return transfer.Encode(os.Stdout, doc)
	}

	f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-specified output path
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := transfer.Encode(f, doc); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write export: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Println(ui.Success(fmt.Sprintf("Exported %d entries to %s", len(doc.Entries), outputPath)))
	return nil
}

func init() {
	exportCmd.Flags().StringP("format", "f", "json", "export format: json or md")
	exportCmd.Flags().StringP("output", "o", "", "output file or directory (json defaults to stdout)")
	rootCmd.AddCommand(exportCmd)
}
