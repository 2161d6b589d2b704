package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hazadus/go-jukebox/internal/ingest"
)

type fakeImporter struct {
	paths   []string
	summary ingest.Summary
	err     error
}

func (f *fakeImporter) Import(_ context.Context, paths []string) (ingest.Summary, error) {
	f.paths = paths
	return f.summary, f.err
}

func TestImportSummary(t *testing.T) {
	imp := &fakeImporter{summary: ingest.Summary{Total: 3, Added: 2, Skipped: 1}}
	model := NewModel(context.Background(), imp, "/music/a.mp3 /music/b")

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("Expected import command")
	}
	if !model.Running() {
		t.Error("Expected running state")
	}

	model.Update(cmd())

	if model.Running() {
		t.Error("Expected import to finish")
	}
	if len(imp.paths) != 2 || imp.paths[1] != "/music/b" {
		t.Errorf("Unexpected paths %v", imp.paths)
	}
	if !strings.Contains(model.View(), "Добавлено: 2, пропущено: 1, ошибок: 0") {
		t.Errorf("Expected summary in view, got %q", model.View())
	}
}

func TestImportError(t *testing.T) {
	imp := &fakeImporter{err: errors.New("нет доступа")}
	model := NewModel(context.Background(), imp, "/music")

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	model.Update(cmd())

	if !strings.Contains(model.View(), "нет доступа") {
		t.Error("Expected error in view")
	}
}

func TestEmptyPath(t *testing.T) {
	imp := &fakeImporter{}
	model := NewModel(context.Background(), imp, "")

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("Expected no command for empty path")
	}
	if imp.paths != nil {
		t.Error("Importer must not be called")
	}
}

func TestEscGoesBack(t *testing.T) {
	model := NewModel(context.Background(), &fakeImporter{}, "")

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("Expected command for esc")
	}
	if _, ok := cmd().(GoBackMsg); !ok {
		t.Error("Expected GoBackMsg")
	}
}
