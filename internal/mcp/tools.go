// ABOUTME: MCP tools for diary entry CRUD, attachments and export.
// ABOUTME: Maps CLI functionality to MCP tool interface.

package mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/harper/diary/internal/models"
	"github.com/harper/diary/internal/transfer"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

func (s *Server) registerTools() {
	// add_entry
	s.server.AddTool(&mcp.Tool{
		Name:        "add_entry",
		Description: "Create a new diary entry with title and content",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"title": {"type": "string", "description": "Entry title"},
				"content": {"type": "string", "description": "Entry content (markdown)"},
				"theme": {"type": "string", "description": "Theme: matrix, rain, snow, sunny, cloudy, rainy or snowy. Defaults to the current theme"}
			},
			"required": ["title", "content"]
		}`),
	}, s.handleAddEntry)

	// list_entries
	s.server.AddTool(&mcp.Tool{
		Name:        "list_entries",
		Description: "List entries newest first, optionally filtered by theme",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"theme": {"type": "string", "description": "Filter by theme"},
				"limit": {"type": "integer", "description": "Max results", "default": 20}
			}
		}`),
	}, s.handleListEntries)

	// get_entry
	s.server.AddTool(&mcp.Tool{
		Name:        "get_entry",
		Description: "Get an entry by ID or ID prefix",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Entry ID or prefix (6+ chars)"}
			},
			"required": ["id"]
		}`),
	}, s.handleGetEntry)

	// update_entry
	s.server.AddTool(&mcp.Tool{
		Name:        "update_entry",
		Description: "Update an entry's title, content or theme. The date is kept",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Entry ID or prefix"},
				"title": {"type": "string", "description": "New title"},
				"content": {"type": "string", "description": "New content"},
				"theme": {"type": "string", "description": "New theme"}
			},
			"required": ["id"]
		}`),
	}, s.handleUpdateEntry)

	// delete_entry
	s.server.AddTool(&mcp.Tool{
		Name:        "delete_entry",
		Description: "Delete an entry",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Entry ID or prefix"}
			},
			"required": ["id"]
		}`),
	}, s.handleDeleteEntry)

	// search_entries
	s.server.AddTool(&mcp.Tool{
		Name:        "search_entries",
		Description: "Case-insensitive search over entry titles and content",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "Search query"},
				"limit": {"type": "integer", "description": "Max results", "default": 10}
			},
			"required": ["query"]
		}`),
	}, s.handleSearchEntries)

	// set_theme
	s.server.AddTool(&mcp.Tool{
		Name:        "set_theme",
		Description: "Change the current diary theme used for new entries",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"theme": {"type": "string", "description": "Theme name"}
			},
			"required": ["theme"]
		}`),
	}, s.handleSetTheme)

	// add_attachment
	s.server.AddTool(&mcp.Tool{
		Name:        "add_attachment",
		Description: "Attach a file to an entry",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Entry ID or prefix"},
				"filename": {"type": "string", "description": "Filename"},
				"mime_type": {"type": "string", "description": "MIME type, detected from the data when empty"},
				"data": {"type": "string", "description": "Base64 encoded data"}
			},
			"required": ["id", "filename", "data"]
		}`),
	}, s.handleAddAttachment)

	// list_attachments
	s.server.AddTool(&mcp.Tool{
		Name:        "list_attachments",
		Description: "List attachments for an entry",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Entry ID or prefix"}
			},
			"required": ["id"]
		}`),
	}, s.handleListAttachments)

	// get_attachment
	s.server.AddTool(&mcp.Tool{
		Name:        "get_attachment",
		Description: "Get an attachment's content",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Attachment ID"}
			},
			"required": ["id"]
		}`),
	}, s.handleGetAttachment)

	// export_diary
	s.server.AddTool(&mcp.Tool{
		Name:        "export_diary",
		Description: "Export every entry, setting and file as one JSON document",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {}
		}`),
	}, s.handleExportDiary)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
		IsError: true,
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	data, _ := json.MarshalIndent(v, "", "  ")
	return textResult(string(data))
}

func parseArgs(req *mcp.CallToolRequest, params any) error {
	if len(req.Params.Arguments) == 0 {
		return nil
	}
	return json.Unmarshal(req.Params.Arguments, params)
}

func limitEntries(entries []*models.Entry, limit int) []*models.Entry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	if entries == nil {
		return []*models.Entry{}
	}
	return entries
}

// Tool handlers.
func (s *Server) handleAddEntry(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		Theme   string `json:"theme"`
	}
	if err := parseArgs(req, &params); err != nil {
		return nil, err
	}

	var theme models.Theme
	if params.Theme != "" {
		t, ok := models.ParseTheme(params.Theme)
		if !ok {
			return errorResult("unknown theme %q", params.Theme), nil
		}
		theme = t
	}

	entry, err := s.app.Entries.Create(ctx, models.NewEntry(params.Title, params.Content, theme))
	if err != nil {
		return errorResult("failed to create entry: %v", err), nil
	}

	s.logger.Debug("entry added", zap.String("id", entry.ID))
	return textResult(fmt.Sprintf("Created entry %s", entry.ID)), nil
}

func (s *Server) handleListEntries(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Theme string `json:"theme"`
		Limit int    `json:"limit"`
	}
	params.Limit = 20 // default
	if err := parseArgs(req, &params); err != nil {
		return nil, err
	}

	var (
		entries []*models.Entry
		err     error
	)
	if params.Theme != "" {
		theme, ok := models.ParseTheme(params.Theme)
		if !ok {
			return errorResult("unknown theme %q", params.Theme), nil
		}
		entries, err = s.app.Entries.ListByTheme(ctx, theme)
	} else {
		entries, err = s.app.Entries.List(ctx)
	}
	if err != nil {
		return errorResult("failed to list entries: %v", err), nil
	}

	return jsonResult(limitEntries(entries, params.Limit)), nil
}

func (s *Server) handleGetEntry(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		ID string `json:"id"`
	}
	if err := parseArgs(req, &params); err != nil {
		return nil, err
	}

	entry, err := s.app.Entries.Find(ctx, params.ID)
	if err != nil {
		return errorResult("failed to get entry: %v", err), nil
	}
	return jsonResult(entry), nil
}

func (s *Server) handleUpdateEntry(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		ID      string  `json:"id"`
		Title   *string `json:"title"`
		Content *string `json:"content"`
		Theme   *string `json:"theme"`
	}
	if err := parseArgs(req, &params); err != nil {
		return nil, err
	}

	entry, err := s.app.Entries.Find(ctx, params.ID)
	if err != nil {
		return errorResult("failed to find entry: %v", err), nil
	}

	if params.Title != nil {
		entry.Title = *params.Title
	}
	if params.Content != nil {
		entry.Content = *params.Content
	}
	if params.Theme != nil {
		theme, ok := models.ParseTheme(*params.Theme)
		if !ok {
			return errorResult("unknown theme %q", *params.Theme), nil
		}
		entry.Theme = theme
	}

	if _, err := s.app.Entries.Update(ctx, entry); err != nil {
		return errorResult("failed to update entry: %v", err), nil
	}
	return textResult(fmt.Sprintf("Updated entry %s", entry.ID)), nil
}

func (s *Server) handleDeleteEntry(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		ID string `json:"id"`
	}
	if err := parseArgs(req, &params); err != nil {
		return nil, err
	}

	entry, err := s.app.Entries.Find(ctx, params.ID)
	if err != nil {
		return errorResult("failed to find entry: %v", err), nil
	}

	if err := s.app.Entries.Delete(ctx, entry.ID); err != nil {
		return errorResult("failed to delete entry: %v", err), nil
	}
	return textResult(fmt.Sprintf("Deleted entry %s", entry.ID)), nil
}

func (s *Server) handleSearchEntries(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	params.Limit = 10 // default
	if err := parseArgs(req, &params); err != nil {
		return nil, err
	}

	entries, err := s.app.Entries.Search(ctx, params.Query)
	if err != nil {
		return errorResult("failed to search entries: %v", err), nil
	}
	return jsonResult(limitEntries(entries, params.Limit)), nil
}

func (s *Server) handleSetTheme(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Theme string `json:"theme"`
	}
	if err := parseArgs(req, &params); err != nil {
		return nil, err
	}

	theme, err := s.app.Settings.SetTheme(ctx, params.Theme)
	if err != nil {
		return errorResult("failed to set theme: %v", err), nil
	}
	return textResult(fmt.Sprintf("Theme set to %s", theme)), nil
}

func (s *Server) handleAddAttachment(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		ID       string `json:"id"`
		Filename string `json:"filename"`
		MimeType string `json:"mime_type"`
		Data     string `json:"data"`
	}
	if err := parseArgs(req, &params); err != nil {
		return nil, err
	}

	entry, err := s.app.Entries.Find(ctx, params.ID)
	if err != nil {
		return errorResult("failed to find entry: %v", err), nil
	}

	data, err := base64.StdEncoding.DecodeString(params.Data)
	if err != nil {
		return errorResult("invalid base64 data: %v", err), nil
	}

	attachment := models.NewAttachment(params.Filename, params.MimeType, data)
	updated, err := s.app.Entries.AddAttachments(ctx, entry.ID, []models.Attachment{*attachment})
	if err != nil {
		return errorResult("failed to add attachment: %v", err), nil
	}

	stored := updated.Attachments[len(updated.Attachments)-1]
	return textResult(fmt.Sprintf("Added attachment %s to entry %s", stored.ID, entry.ID)), nil
}

func (s *Server) handleListAttachments(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		ID string `json:"id"`
	}
	if err := parseArgs(req, &params); err != nil {
		return nil, err
	}

	entry, err := s.app.Entries.Find(ctx, params.ID)
	if err != nil {
		return errorResult("failed to find entry: %v", err), nil
	}
	return jsonResult(entry.Attachments), nil
}

func (s *Server) handleGetAttachment(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		ID string `json:"id"`
	}
	if err := parseArgs(req, &params); err != nil {
		return nil, err
	}

	attachment, err := s.app.Files.Get(ctx, params.ID)
	if err != nil {
		return errorResult("failed to get attachment: %v", err), nil
	}

	mimeType, data, err := models.DecodeDataURL(attachment.URL)
	if err != nil {
		return errorResult("failed to decode attachment: %v", err), nil
	}

	result := map[string]any{
		"id":       attachment.ID,
		"filename": attachment.Name,
		"type":     attachment.Type,
		"mimetype": mimeType,
		"size":     len(data),
		"data":     base64.StdEncoding.EncodeToString(data),
	}
	return jsonResult(result), nil
}

func (s *Server) handleExportDiary(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := s.app.Transfer.Export(ctx)
	if err != nil {
		return errorResult("failed to export diary: %v", err), nil
	}

	var buf bytes.Buffer
	if err := transfer.Encode(&buf, doc); err != nil {
		return errorResult("failed to encode export: %v", err), nil
	}
	return textResult(buf.String()), nil
}
