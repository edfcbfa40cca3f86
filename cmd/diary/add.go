// ABOUTME: Add command for writing new diary entries.
// ABOUTME: Supports inline content, file input, $EDITOR and attached files.

package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/harper/diary/internal/models"
	"github.com/harper/diary/internal/ui"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a new entry",
	Long: `Create a new entry with the given title. Content can be provided via
--content, --file, or $EDITOR. The entry takes the current theme unless
--theme is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := args[0]

		contentFlag, _ := cmd.Flags().GetString("content")
		fileFlag, _ := cmd.Flags().GetString("file")
		themeFlag, _ := cmd.Flags().GetString("theme")
		attachFlag, _ := cmd.Flags().GetStringSlice("attach")

		var content string
		var err error

		switch {
		case contentFlag != "":
			content = contentFlag
		case fileFlag != "":
			data, err := os.ReadFile(fileFlag) //nolint:gosec // User-specified file path is expected CLI behavior
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			content = string(data)
		default:
			content, err = openEditor("")
			if err != nil {
				return fmt.Errorf("failed to open editor: %w", err)
			}
		}

		if strings.TrimSpace(content) == "" {
			return fmt.Errorf("entry content cannot be empty")
		}

		theme, err := parseThemeFlag(themeFlag)
		if err != nil {
			return err
		}

		entry := models.NewEntry(title, content, theme)
		for _, path := range attachFlag {
			a, err := readAttachment(path)
			if err != nil {
				return err
			}
			entry.Attachments = append(entry.Attachments, *a)
		}

		created, err := app.Entries.Create(cmd.Context(), entry)
		if err != nil {
			return fmt.Errorf("failed to create entry: %w", err)
		}

		fmt.Println(ui.Success(fmt.Sprintf("Created entry %s", ui.ShortID(created.ID))))
		return nil
	},
}

// parseThemeFlag returns "" for an empty flag so the current theme applies.
func parseThemeFlag(name string) (models.Theme, error) {
	if name == "" {
		return "", nil
	}
	theme, ok := models.ParseTheme(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", models.ErrUnknownTheme, name)
	}
	return theme, nil
}

// readAttachment loads a file as an inline attachment. The MIME type comes
// from the extension, falling back to content sniffing.
func readAttachment(path string) (*models.Attachment, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-specified file path is expected CLI behavior
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	return models.NewAttachment(filepath.Base(path), mimeType, data), nil
}

func init() {
	addCmd.Flags().String("content", "", "entry content (inline)")
	addCmd.Flags().String("file", "", "read content from file")
	addCmd.Flags().StringP("theme", "t", "", "entry theme (default: current theme)")
	addCmd.Flags().StringSliceP("attach", "a", nil, "attach files (repeatable)")
	rootCmd.AddCommand(addCmd)
}
