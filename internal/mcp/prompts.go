// ABOUTME: MCP prompts for common journaling workflows.
// ABOUTME: Provides pre-configured prompts for AI agent interactions.

package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/harper/diary/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerPrompts() {
	s.server.AddPrompt(&mcp.Prompt{
		Name:        "daily-reflection",
		Description: "Write a themed diary entry reflecting on the day",
		Arguments: []*mcp.PromptArgument{
			{
				Name:        "date",
				Description: "Day to reflect on (YYYY-MM-DD)",
				Required:    false,
			},
			{
				Name:        "theme",
				Description: "Theme for the entry",
				Required:    false,
			},
		},
	}, s.getDailyReflectionPrompt)

	s.server.AddPrompt(&mcp.Prompt{
		Name:        "summarize-entry",
		Description: "Generate a summary of an existing entry",
		Arguments: []*mcp.PromptArgument{
			{
				Name:        "entry_id",
				Description: "ID of the entry to summarize",
				Required:    true,
			},
		},
	}, s.getSummarizeEntryPrompt)

	s.server.AddPrompt(&mcp.Prompt{
		Name:        "review-period",
		Description: "Look back over recent entries and find recurring moods",
	}, s.getReviewPeriodPrompt)
}

func userPrompt(text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}

func (s *Server) getDailyReflectionPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	date, ok := req.Params.Arguments["date"]
	if !ok || date == "" {
		date = "today"
	}

	theme, valid := models.ParseTheme(req.Params.Arguments["theme"])
	if !valid {
		current, err := s.app.Settings.Theme(ctx)
		if err != nil {
			return nil, err
		}
		theme = current
	}

	names := make([]string, 0, len(models.Themes()))
	for _, t := range models.Themes() {
		names = append(names, t.String())
	}

	template := fmt.Sprintf(`Write a diary entry for %s.

Reflect on:

## What happened
- The moments worth remembering
- Who was there

## How it felt
- The mood of the day in a sentence or two
- Whether the "%s" theme still fits, or one of: %s

## Looking ahead
- One thing to carry into tomorrow

Use the add_entry tool with a short title, the markdown content and the chosen theme.`, date, theme, strings.Join(names, ", "))

	return userPrompt(template), nil
}

func (s *Server) getSummarizeEntryPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	entryID, ok := req.Params.Arguments["entry_id"]
	if !ok || entryID == "" {
		return nil, fmt.Errorf("entry_id argument is required")
	}

	template := fmt.Sprintf(`Please summarize the diary entry with ID: %s

1. Use the get_entry tool to retrieve the entry
2. Read it along with any attachment names
3. Write a two or three sentence summary of the events and the mood
4. Suggest a theme if the stored one no longer fits`, entryID)

	return userPrompt(template), nil
}

func (s *Server) getReviewPeriodPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	count, err := s.app.Entries.Count(ctx)
	if err != nil {
		return nil, err
	}

	template := fmt.Sprintf(`The diary holds %d entries. Help me look back over them:

1. Use the list_entries tool to read the most recent entries
2. Group them by theme and note how the mix changed over time
3. Point out recurring people, places or worries
4. Suggest one or two questions worth writing about next`, count)

	return userPrompt(template), nil
}
