// ABOUTME: Tests for MCP tool, resource and prompt handlers.
// ABOUTME: Calls handlers directly against an in-memory SQLite diary.

package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/harper/diary/internal/db"
	"github.com/harper/diary/internal/diary"
	"github.com/harper/diary/internal/models"
	"github.com/harper/diary/internal/store"
	"github.com/harper/diary/internal/store/storetest"
	"github.com/harper/diary/internal/transfer"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T) *Server {
	backend, err := db.Open(":memory:")
	require.NoError(t, err)
	app := diary.New(backend, store.Ready, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = app.Close() })
	return NewServer(app, "test")
}

func call(t *testing.T, handler mcp.ToolHandler, args string) *mcp.CallToolResult {
	t.Helper()
	res, err := handler(context.Background(), &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Arguments: json.RawMessage(args)},
	})
	require.NoError(t, err)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content")
	return tc.Text
}

func createdID(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.False(t, res.IsError, text(t, res))
	id, ok := strings.CutPrefix(text(t, res), "Created entry ")
	require.True(t, ok)
	return id
}

func TestAddAndGetEntry(t *testing.T) {
	s := newTestServer(t)

	id := createdID(t, call(t, s.handleAddEntry, `{"title":"Walk","content":"Hello park","theme":"sunny"}`))

	res := call(t, s.handleGetEntry, `{"id":"`+id[:8]+`"}`)
	require.False(t, res.IsError, text(t, res))

	var got models.Entry
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Walk", got.Title)
	assert.Equal(t, models.ThemeSunny, got.Theme)
}

func TestAddEntryUsesCurrentTheme(t *testing.T) {
	s := newTestServer(t)
	require.False(t, call(t, s.handleSetTheme, `{"theme":"Snow"}`).IsError)

	id := createdID(t, call(t, s.handleAddEntry, `{"title":"Cold","content":"brr"}`))

	entry, err := s.app.Entries.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.ThemeSnow, entry.Theme)
}

func TestAddEntryRejectsInvalid(t *testing.T) {
	s := newTestServer(t)

	assert.True(t, call(t, s.handleAddEntry, `{"title":"Empty","content":"   "}`).IsError)
	assert.True(t, call(t, s.handleAddEntry, `{"title":"Odd","content":"x","theme":"hail"}`).IsError)

	n, err := s.app.Entries.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestListEntriesFilterAndLimit(t *testing.T) {
	s := newTestServer(t)
	for _, args := range []string{
		`{"title":"One","content":"a","theme":"rain"}`,
		`{"title":"Two","content":"b","theme":"rain"}`,
		`{"title":"Three","content":"c","theme":"snow"}`,
	} {
		createdID(t, call(t, s.handleAddEntry, args))
	}

	var rain []models.Entry
	require.NoError(t, json.Unmarshal([]byte(text(t, call(t, s.handleListEntries, `{"theme":"rain"}`))), &rain))
	assert.Len(t, rain, 2)

	var limited []models.Entry
	require.NoError(t, json.Unmarshal([]byte(text(t, call(t, s.handleListEntries, `{"limit":1}`))), &limited))
	assert.Len(t, limited, 1)

	var all []models.Entry
	require.NoError(t, json.Unmarshal([]byte(text(t, call(t, s.handleListEntries, ``))), &all))
	assert.Len(t, all, 3)
}

func TestUpdateEntryKeepsDate(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	id := createdID(t, call(t, s.handleAddEntry, `{"title":"Draft","content":"first"}`))
	before, err := s.app.Entries.GetByID(ctx, id)
	require.NoError(t, err)

	res := call(t, s.handleUpdateEntry, `{"id":"`+id+`","content":"second","theme":"cloudy"}`)
	require.False(t, res.IsError, text(t, res))

	after, err := s.app.Entries.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Draft", after.Title)
	assert.Equal(t, "second", after.Content)
	assert.Equal(t, models.ThemeCloudy, after.Theme)
	assert.True(t, before.Date.Equal(after.Date))
}

func TestDeleteEntry(t *testing.T) {
	s := newTestServer(t)
	id := createdID(t, call(t, s.handleAddEntry, `{"title":"Gone","content":"soon"}`))

	require.False(t, call(t, s.handleDeleteEntry, `{"id":"`+id+`"}`).IsError)
	assert.True(t, call(t, s.handleGetEntry, `{"id":"`+id+`"}`).IsError)
}

func TestSearchEntries(t *testing.T) {
	s := newTestServer(t)
	createdID(t, call(t, s.handleAddEntry, `{"title":"Greeting","content":"<p>HELLO there</p>"}`))
	createdID(t, call(t, s.handleAddEntry, `{"title":"Other","content":"nothing"}`))

	var found []models.Entry
	require.NoError(t, json.Unmarshal([]byte(text(t, call(t, s.handleSearchEntries, `{"query":"hello"}`))), &found))
	require.Len(t, found, 1)
	assert.Equal(t, "Greeting", found[0].Title)
}

func TestAttachmentRoundTrip(t *testing.T) {
	s := newTestServer(t)
	id := createdID(t, call(t, s.handleAddEntry, `{"title":"Pics","content":"see file"}`))
	payload := base64.StdEncoding.EncodeToString([]byte("hello attachment"))

	res := call(t, s.handleAddAttachment, `{"id":"`+id+`","filename":"note.txt","mime_type":"text/plain","data":"`+payload+`"}`)
	require.False(t, res.IsError, text(t, res))

	var refs []models.Attachment
	require.NoError(t, json.Unmarshal([]byte(text(t, call(t, s.handleListAttachments, `{"id":"`+id+`"}`))), &refs))
	require.Len(t, refs, 1)
	assert.Empty(t, refs[0].URL)

	res = call(t, s.handleGetAttachment, `{"id":"`+refs[0].ID+`"}`)
	require.False(t, res.IsError, text(t, res))
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
	assert.Equal(t, "note.txt", got["filename"])
	assert.Equal(t, payload, got["data"])
}

func TestAddAttachmentRejectsBadData(t *testing.T) {
	s := newTestServer(t)
	id := createdID(t, call(t, s.handleAddEntry, `{"title":"Pics","content":"x"}`))

	assert.True(t, call(t, s.handleAddAttachment, `{"id":"`+id+`","filename":"a","data":"!!"}`).IsError)
}

func TestExportDiary(t *testing.T) {
	s := newTestServer(t)
	createdID(t, call(t, s.handleAddEntry, `{"title":"Kept","content":"in export"}`))

	res := call(t, s.handleExportDiary, `{}`)
	require.False(t, res.IsError, text(t, res))

	doc, err := transfer.Parse([]byte(text(t, res)))
	require.NoError(t, err)
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, "Kept", doc.Entries[0].Title)
}

func TestBackendFailureIsToolError(t *testing.T) {
	backend := new(storetest.MockBackend)
	backend.On("GetAll", mock.Anything, store.Entries).Return(nil, store.ErrBackendUnavailable)
	s := NewServer(diary.New(backend, store.Ready, zaptest.NewLogger(t)), "test")

	res := call(t, s.handleListEntries, `{}`)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "storage backend unavailable")
	backend.AssertExpectations(t)
}

func TestReadResource(t *testing.T) {
	s := newTestServer(t)
	id := createdID(t, call(t, s.handleAddEntry, `{"title":"Readable","content":"Body text","theme":"rainy"}`))

	res, err := s.handleReadResource(context.Background(), &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: entryURIPrefix + id},
	})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Contains(t, res.Contents[0].Text, "# Readable")
	assert.Contains(t, res.Contents[0].Text, "**Theme:** rainy")

	_, err = s.handleReadResource(context.Background(), &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: "diary://page/1"},
	})
	assert.Error(t, err)
}

func TestPrompts(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.getDailyReflectionPrompt(ctx, &mcp.GetPromptRequest{
		Params: &mcp.GetPromptParams{Arguments: map[string]string{"date": "2024-06-20", "theme": "sunny"}},
	})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	body := res.Messages[0].Content.(*mcp.TextContent).Text
	assert.Contains(t, body, "2024-06-20")
	assert.Contains(t, body, `"sunny"`)

	_, err = s.getSummarizeEntryPrompt(ctx, &mcp.GetPromptRequest{
		Params: &mcp.GetPromptParams{Arguments: map[string]string{}},
	})
	assert.Error(t, err)

	res, err = s.getReviewPeriodPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{}})
	require.NoError(t, err)
	assert.Contains(t, res.Messages[0].Content.(*mcp.TextContent).Text, "holds 0 entries")
}
