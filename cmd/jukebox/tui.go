package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-jukebox/internal/tui"
)

// createTUICommand создает команду tui с привязкой к экземпляру приложения
func (app *Application) createTUICommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch TUI (Terminal User Interface)",
		Long:  `Launch interactive terminal user interface for browsing, importing and playing tracks.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.launchTUI(ctx)
		},
	}
}

func (app *Application) launchTUI(ctx context.Context) error {
	app.Jukebox.Refresh(ctx)

	tuiApp := tui.NewApp(app.Jukebox, app, app.Config.MusicDir)
	if err := tuiApp.Run(ctx); err != nil {
		return fmt.Errorf("ошибка работы TUI: %w", err)
	}
	return nil
}
