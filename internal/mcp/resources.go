// ABOUTME: MCP resources exposing diary entries as markdown documents.
// ABOUTME: Entries are addressed as diary://entry/{id}.

package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/harper/diary/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const entryURIPrefix = "diary://entry/"

func (s *Server) registerResources() {
	s.server.AddResourceTemplate(
		&mcp.ResourceTemplate{
			URITemplate: entryURIPrefix + "{id}",
			Name:        "Entry",
			Description: "Access individual diary entries by ID or ID prefix",
			MIMEType:    "text/markdown",
		},
		s.handleReadResource,
	)
}

func (s *Server) handleReadResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	id, ok := strings.CutPrefix(req.Params.URI, entryURIPrefix)
	if !ok || id == "" {
		return nil, fmt.Errorf("invalid resource URI: %s", req.Params.URI)
	}

	entry, err := s.app.Entries.Find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      req.Params.URI,
				MIMEType: "text/markdown",
				Text:     entryMarkdown(entry),
			},
		},
	}, nil
}

func entryMarkdown(e *models.Entry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", e.Title)
	fmt.Fprintf(&sb, "**Date:** %s  \n**Theme:** %s\n\n", e.Date.Format("2006-01-02 15:04"), e.Theme)
	sb.WriteString(e.Content)
	sb.WriteString("\n")
	if len(e.Attachments) > 0 {
		sb.WriteString("\n## Attachments\n")
		for _, a := range e.Attachments {
			fmt.Fprintf(&sb, "- %s (%s, %s)\n", a.Name, a.Type, a.MimeType)
		}
	}
	return sb.String()
}
