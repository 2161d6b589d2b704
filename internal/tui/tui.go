// Package tui содержит компоненты для текстового пользовательского интерфейса
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hazadus/go-jukebox/internal/tui/app"
	"github.com/hazadus/go-jukebox/internal/tui/importer"
)

// App представляет основное TUI приложение
type App struct {
	jukebox   app.Jukebox
	importer  importer.Importer
	importDir string
}

// NewApp создает новый экземпляр TUI приложения
func NewApp(jukebox app.Jukebox, imp importer.Importer, importDir string) *App {
	return &App{
		jukebox:   jukebox,
		importer:  imp,
		importDir: importDir,
	}
}

// Model возвращает главную модель Bubble Tea
func (tuiApp *App) Model(ctx context.Context) *app.MainModel {
	return app.NewMainModel(ctx, tuiApp.jukebox, tuiApp.importer, tuiApp.importDir)
}

// Run запускает TUI приложение и блокируется до выхода
func (tuiApp *App) Run(ctx context.Context) error {
	p := tea.NewProgram(tuiApp.Model(ctx), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
