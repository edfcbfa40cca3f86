// ABOUTME: Integration tests for the diary CLI commands.
// ABOUTME: Builds the binary once and drives full workflows against temp data dirs.

package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harper/diary/internal/transfer"
)

var diaryBin string

func TestMain(m *testing.M) {
	binDir, err := os.MkdirTemp("", "diary-bin-*")
	if err != nil {
		panic(err)
	}
	diaryBin = filepath.Join(binDir, "diary")

	cmd := exec.Command("go", "build", "-o", diaryBin, ".")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic(err)
	}

	code := m.Run()
	_ = os.RemoveAll(binDir)
	os.Exit(code)
}

type env struct {
	home    string
	dataDir string
}

func newEnv(t *testing.T) *env {
	home := t.TempDir()
	return &env{home: home, dataDir: filepath.Join(home, "data")}
}

func (e *env) run(args ...string) (string, error) {
	allArgs := append([]string{"--data-dir", e.dataDir}, args...)
	cmd := exec.Command(diaryBin, allArgs...) //nolint:gosec // Running our own test binary is expected in integration tests
	cmd.Dir = e.home
	cmd.Env = append(os.Environ(),
		"XDG_CONFIG_HOME="+filepath.Join(e.home, "config"),
		"DIARY_LOG_LEVEL=error",
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func (e *env) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(args...)
	if err != nil {
		t.Fatalf("%s failed: %v\n%s", args[0], err, out)
	}
	return out
}

// idFor returns the short id printed on the list line holding title.
func idFor(t *testing.T, listOutput, title string) string {
	t.Helper()
	for _, line := range strings.Split(listOutput, "\n") {
		if strings.Contains(line, title) {
			fields := strings.Fields(line)
			if len(fields) > 0 {
				return fields[0]
			}
		}
	}
	t.Fatalf("could not find %q in list output:\n%s", title, listOutput)
	return ""
}

func TestAddListShowDelete(t *testing.T) {
	e := newEnv(t)

	out := e.mustRun(t, "add", "Test Entry", "--content", "Test content here")
	if !strings.Contains(out, "Created entry") {
		t.Errorf("expected 'Created entry' in output: %s", out)
	}

	out = e.mustRun(t, "list")
	if !strings.Contains(out, "Test Entry") {
		t.Errorf("expected 'Test Entry' in list: %s", out)
	}
	idPrefix := idFor(t, out, "Test Entry")

	out = e.mustRun(t, "show", idPrefix)
	if !strings.Contains(out, "Test content") {
		t.Errorf("expected 'Test content' in show: %s", out)
	}
	if !strings.Contains(out, "matrix") {
		t.Errorf("expected default theme in show: %s", out)
	}

	out = e.mustRun(t, "rm", idPrefix, "--force")
	if !strings.Contains(out, "Deleted") {
		t.Errorf("expected 'Deleted' in output: %s", out)
	}

	out = e.mustRun(t, "list")
	if !strings.Contains(out, "No entries found.") {
		t.Errorf("expected empty list after rm: %s", out)
	}
}

func TestRemoveRefusesWithoutTerminal(t *testing.T) {
	e := newEnv(t)
	e.mustRun(t, "add", "Keep Me", "--content", "still here")
	id := idFor(t, e.mustRun(t, "list"), "Keep Me")

	out, err := e.run("rm", id)
	if err == nil {
		t.Fatalf("expected rm without --force to fail: %s", out)
	}
	if !strings.Contains(out, "--force") {
		t.Errorf("expected hint about --force: %s", out)
	}
}

func TestThemes(t *testing.T) {
	e := newEnv(t)

	out := e.mustRun(t, "theme", "set", "Snow")
	if !strings.Contains(out, "snow") {
		t.Errorf("expected theme confirmation: %s", out)
	}

	e.mustRun(t, "add", "Winter", "--content", "cold")
	e.mustRun(t, "add", "Summer", "--content", "warm", "--theme", "sunny")

	out = e.mustRun(t, "list", "--theme", "snow")
	if !strings.Contains(out, "Winter") || strings.Contains(out, "Summer") {
		t.Errorf("unexpected theme filter output: %s", out)
	}

	if out, err := e.run("theme", "set", "hail"); err == nil {
		t.Errorf("expected unknown theme to fail: %s", out)
	}
}

func TestEditKeepsEntry(t *testing.T) {
	e := newEnv(t)
	e.mustRun(t, "add", "Draft", "--content", "first")
	id := idFor(t, e.mustRun(t, "list"), "Draft")

	e.mustRun(t, "edit", id, "--title", "Final", "--content", "second")

	out := e.mustRun(t, "show", id)
	if !strings.Contains(out, "Final") || !strings.Contains(out, "second") {
		t.Errorf("expected edited entry: %s", out)
	}
}

func TestSearch(t *testing.T) {
	e := newEnv(t)

	e.mustRun(t, "add", "Go Programming", "--content", "Learn about goroutines")
	e.mustRun(t, "add", "Cooking", "--content", "How to make pasta")

	out := e.mustRun(t, "search", "GOROUTINES")
	if !strings.Contains(out, "Go Programming") {
		t.Errorf("expected 'Go Programming' in search: %s", out)
	}
	if strings.Contains(out, "Cooking") {
		t.Errorf("did not expect 'Cooking' in search: %s", out)
	}
}

func TestListLimitWithoutTerminal(t *testing.T) {
	e := newEnv(t)
	for _, title := range []string{"One", "Two", "Three"} {
		e.mustRun(t, "add", title, "--content", "x")
	}

	out := e.mustRun(t, "list", "--limit", "2")
	if !strings.Contains(out, "1 more entries") {
		t.Errorf("expected remaining hint: %s", out)
	}
}

func TestExportImportAttachments(t *testing.T) {
	src := newEnv(t)
	payload := []byte("attachment bytes")
	attachPath := filepath.Join(src.home, "note.txt")
	if err := os.WriteFile(attachPath, payload, 0600); err != nil {
		t.Fatal(err)
	}

	src.mustRun(t, "add", "With File", "--content", "see attached", "--attach", attachPath)
	exportPath := filepath.Join(src.home, "export.json")
	src.mustRun(t, "export", "--output", exportPath)

	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := transfer.Parse(data)
	if err != nil {
		t.Fatalf("export is not importable: %v", err)
	}
	if len(doc.Entries) != 1 || len(doc.Files) != 1 {
		t.Fatalf("expected 1 entry and 1 file, got %d and %d", len(doc.Entries), len(doc.Files))
	}

	dst := newEnv(t)
	out := dst.mustRun(t, "import", exportPath)
	if !strings.Contains(out, "Imported 1 entries") {
		t.Errorf("expected import summary: %s", out)
	}

	outFile := filepath.Join(dst.home, "restored.txt")
	dst.mustRun(t, "attach", "get", doc.Files[0].ID, "--output", outFile)
	restored, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(restored, payload) {
		t.Errorf("restored attachment differs: %q", restored)
	}
}

func TestImportNeedsConfirmation(t *testing.T) {
	e := newEnv(t)
	e.mustRun(t, "add", "Existing", "--content", "x")
	exportPath := filepath.Join(e.home, "export.json")
	e.mustRun(t, "export", "--output", exportPath)

	out, err := e.run("import", exportPath)
	if err == nil {
		t.Fatalf("expected import over existing entries to need --yes: %s", out)
	}

	e.mustRun(t, "import", exportPath, "--yes")
}

func TestImportRejectsInvalidEntries(t *testing.T) {
	e := newEnv(t)
	e.mustRun(t, "add", "Survivor", "--content", "untouched")

	bad := filepath.Join(e.home, "bad.json")
	doc := `{"entries":[{"id":"1","title":"","content":"x","theme":"rain","date":"2024-01-01T00:00:00.000Z","attachments":[]}],"settings":{},"files":[]}`
	if err := os.WriteFile(bad, []byte(doc), 0600); err != nil {
		t.Fatal(err)
	}

	out, err := e.run("import", bad, "--yes")
	if err == nil {
		t.Fatalf("expected invalid import to fail: %s", out)
	}
	if !strings.Contains(out, "nothing was changed") {
		t.Errorf("expected rejection message: %s", out)
	}

	out = e.mustRun(t, "list")
	if !strings.Contains(out, "Survivor") {
		t.Errorf("expected prior entry to survive: %s", out)
	}
}

func TestMarkdownExport(t *testing.T) {
	e := newEnv(t)
	e.mustRun(t, "add", "Markdown Day", "--content", "# Heading")

	dir := filepath.Join(e.home, "md")
	e.mustRun(t, "export", "--format", "md", "--output", dir)

	matches, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Errorf("expected one markdown file, got %v", matches)
	}
}

func TestFallbackToBlobStore(t *testing.T) {
	e := newEnv(t)
	// A directory where the database file should be makes SQLite unusable.
	if err := os.MkdirAll(filepath.Join(e.dataDir, "diary.db"), 0755); err != nil {
		t.Fatal(err)
	}

	out := e.mustRun(t, "add", "Fallback", "--content", "kept in blob storage")
	if !strings.Contains(out, "fallback") {
		t.Errorf("expected degraded warning: %s", out)
	}

	out = e.mustRun(t, "store", "status")
	if !strings.Contains(out, "blob") || !strings.Contains(out, "degraded") {
		t.Errorf("expected blob engine status: %s", out)
	}

	out = e.mustRun(t, "list")
	if !strings.Contains(out, "Fallback") {
		t.Errorf("expected entry in fallback store: %s", out)
	}
}

func TestStoreWipe(t *testing.T) {
	e := newEnv(t)
	e.mustRun(t, "add", "Doomed", "--content", "x")

	e.mustRun(t, "store", "wipe", "--force")

	out := e.mustRun(t, "store", "status")
	if !strings.Contains(out, "entries:  0") {
		t.Errorf("expected no entries after wipe: %s", out)
	}
}

func TestQRLink(t *testing.T) {
	e := newEnv(t)
	e.mustRun(t, "add", "Counted", "--content", "x")

	out := e.mustRun(t, "qr")
	if !strings.Contains(out, "api.qrserver.com") || !strings.Contains(out, "size=200x200") {
		t.Errorf("unexpected qr output: %s", out)
	}
	if !strings.Contains(out, "%22entries%22%3A1") {
		t.Errorf("expected entry count in payload: %s", out)
	}
}
