// ABOUTME: Terminal UI formatting for diary output.
// ABOUTME: Uses glamour for markdown and fatih/color for styling.

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/harper/diary/internal/models"
)

var (
	faint  = color.New(color.Faint).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

const dateLayout = "2006-01-02 15:04"

var themeIcons = map[models.Theme]string{
	models.ThemeMatrix: "💻",
	models.ThemeRain:   "🌧",
	models.ThemeSnow:   "❄",
	models.ThemeSunny:  "☀",
	models.ThemeCloudy: "☁",
	models.ThemeRainy:  "☔",
	models.ThemeSnowy:  "🌨",
}

var kindIcons = map[models.Kind]string{
	models.KindImage: "🖼",
	models.KindVideo: "🎬",
	models.KindFile:  "📄",
}

func ThemeIcon(t models.Theme) string {
	if icon, ok := themeIcons[t]; ok {
		return icon
	}
	return "•"
}

func KindIcon(k models.Kind) string {
	if icon, ok := kindIcons[k]; ok {
		return icon
	}
	return kindIcons[models.KindFile]
}

// ShortID trims ids for display. Legacy numeric ids are short already.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func FormatEntryListItem(e *models.Entry) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("  %s  %s %s\n", faint(ShortID(e.ID)), ThemeIcon(e.Theme), bold(e.Title)))

	meta := fmt.Sprintf("%s %s", faint("Date:"), faint(e.Date.Local().Format(dateLayout)))
	if n := len(e.Attachments); n > 0 {
		meta += fmt.Sprintf("  %s", cyan(fmt.Sprintf("📎 %d", n)))
	}
	sb.WriteString(fmt.Sprintf("           %s\n", meta))

	return sb.String()
}

func FormatEntryContent(content string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		// Fallback to raw content if renderer fails
		return content, nil //nolint:nilerr // Intentional fallback
	}

	out, err := renderer.Render(content)
	if err != nil {
		return content, nil //nolint:nilerr // Intentional fallback
	}
	return out, nil
}

func FormatEntryHeader(e *models.Entry) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s %s\n", ThemeIcon(e.Theme), bold(e.Title)))
	sb.WriteString(fmt.Sprintf("%s %s\n", faint("ID:"), faint(e.ID)))
	sb.WriteString(fmt.Sprintf("%s %s\n", faint("Date:"), faint(e.Date.Local().Format(dateLayout))))
	sb.WriteString(fmt.Sprintf("%s %s\n", faint("Theme:"), cyan(e.Theme.String())))

	sb.WriteString(Separator())
	return sb.String()
}

func FormatAttachmentList(attachments []models.Attachment) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("\n%s\n", bold("Attachments:")))
	for _, a := range attachments {
		sb.WriteString(fmt.Sprintf("  %s  %s %s %s\n",
			faint(ShortID(a.ID)),
			KindIcon(a.Type),
			a.Name,
			faint(fmt.Sprintf("[%s, %s]", a.MimeType, FormatSize(a.Size)))))
	}

	return sb.String()
}

// FormatThemeList marks the current theme.
func FormatThemeList(current models.Theme) string {
	var sb strings.Builder
	for _, t := range models.Themes() {
		marker := " "
		name := t.String()
		if t == current {
			marker = "*"
			name = bold(name)
		}
		sb.WriteString(fmt.Sprintf(" %s %s %s\n", marker, ThemeIcon(t), name))
	}
	return sb.String()
}

func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func Separator() string {
	return faint(strings.Repeat("─", 50)) + "\n"
}

func Success(msg string) string {
	return color.New(color.FgGreen).Sprint("✓ ") + msg
}

func Error(msg string) string {
	return color.New(color.FgRed).Sprint("✗ ") + msg
}

func Warning(msg string) string {
	return yellow("! ") + msg
}

func FormatShowMorePrompt(count int) string {
	return faint(fmt.Sprintf("\nShow %d more entries? (y/n) ", count))
}
