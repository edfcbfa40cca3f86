// ABOUTME: Markdown export writing one file per entry with YAML frontmatter.
// ABOUTME: Attachment payloads are decoded into per-entry directories.

package transfer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harper/diary/internal/models"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type frontmatter struct {
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title"`
	Theme       string    `yaml:"theme"`
	Date        time.Time `yaml:"date"`
	Attachments []string  `yaml:"attachments,omitempty"`
}

// ExportMarkdown writes every entry under dir and returns how many files
// were written. Attachments that can't be resolved are skipped.
func (g *Gateway) ExportMarkdown(ctx context.Context, dir string) (int, error) {
	entries, err := g.entries.List(ctx)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("create export directory: %w", err)
	}

	used := make(map[string]int)
	for _, e := range entries {
		fm := frontmatter{
			ID:    e.ID,
			Title: e.Title,
			Theme: e.Theme.String(),
			Date:  e.Date,
		}
		for _, a := range e.Attachments {
			fm.Attachments = append(fm.Attachments, a.Name)
		}

		header, err := yaml.Marshal(fm)
		if err != nil {
			return 0, fmt.Errorf("encode frontmatter for %s: %w", e.ID, err)
		}

		var sb strings.Builder
		sb.WriteString("---\n")
		sb.Write(header)
		sb.WriteString("---\n\n")
		sb.WriteString(e.Content)
		sb.WriteString("\n")

		name := markdownName(e, used)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(sb.String()), 0644); err != nil {
			return 0, err
		}

		if err := g.writeAttachments(ctx, dir, e); err != nil {
			return 0, err
		}
	}
	return len(entries), nil
}

func (g *Gateway) writeAttachments(ctx context.Context, dir string, e *models.Entry) error {
	if len(e.Attachments) == 0 {
		return nil
	}

	attDir := filepath.Join(dir, "attachments", shortID(e.ID))
	if err := os.MkdirAll(attDir, 0755); err != nil {
		return err
	}

	for _, ref := range e.Attachments {
		a, err := g.files.Resolve(ctx, ref)
		if err != nil {
			g.logger.Warn("skipping unresolved attachment",
				zap.String("entry", e.ID), zap.String("name", ref.Name), zap.Error(err))
			continue
		}
		data, err := a.Data()
		if err != nil {
			g.logger.Warn("skipping undecodable attachment",
				zap.String("entry", e.ID), zap.String("name", ref.Name), zap.Error(err))
			continue
		}
		if err := os.WriteFile(filepath.Join(attDir, SanitizeFilename(a.Name)), data, 0644); err != nil {
			return err
		}
	}
	return nil
}

func markdownName(e *models.Entry, used map[string]int) string {
	base := e.Date.Format("2006-01-02") + "-" + SanitizeFilename(e.Title)
	used[base]++
	if used[base] > 1 {
		base += "-" + shortID(e.ID)
	}
	return base + ".md"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// SanitizeFilename replaces path and shell-unsafe characters.
func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-",
		"?", "-", "\"", "-", "<", "-", ">", "-", "|", "-",
	)
	name = strings.TrimSpace(replacer.Replace(name))
	if name == "" || name == "." || name == ".." {
		name = "untitled"
	}
	if len(name) > 100 {
		name = name[:100]
	}
	return name
}
