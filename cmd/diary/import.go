// ABOUTME: Import command for restoring the diary from an export.
// ABOUTME: Replaces entries and settings in one step after confirmation.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/harper/diary/internal/transfer"
	"github.com/harper/diary/internal/ui"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a diary export",
	Long: `Import a JSON export, replacing every entry and setting. Files are
merged with the ones already stored. Older exports that hold a bare array
of entries are accepted. Nothing changes unless every entry is valid.
Use - to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		doc, err := readDocument(args[0])
		if err != nil {
			return err
		}

		existing, err := app.Entries.Count(cmd.Context())
		if err != nil {
			return err
		}
		if existing > 0 && !yes {
			ok, err := confirm(fmt.Sprintf("Replace %d existing entries with %d from %s?", existing, len(doc.Entries), args[0]), "--yes")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		report, err := app.Transfer.Import(cmd.Context(), doc)
		if err != nil {
			var importErr *transfer.ImportError
			if errors.As(err, &importErr) {
				for _, f := range importErr.Failures {
					fmt.Fprintln(os.Stderr, ui.Error(f.Error()))
				}
				return fmt.Errorf("import rejected: %d invalid entries, nothing was changed", len(importErr.Failures))
			}
			return fmt.Errorf("import failed: %w", err)
		}

		fmt.Println(ui.Success(fmt.Sprintf("Imported %d entries and %d settings (%d files added, %d reused)",
			report.Entries, report.Settings, report.FilesAdded, report.FilesReused)))
		return nil
	},
}

func readDocument(path string) (*transfer.Document, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path) //nolint:gosec // User-specified file path is expected CLI behavior
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	doc, err := transfer.ParseReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return doc, nil
}

func init() {
	importCmd.Flags().BoolP("yes", "y", false, "replace existing entries without asking")
	rootCmd.AddCommand(importCmd)
}
