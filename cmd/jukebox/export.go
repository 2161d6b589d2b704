package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-jukebox/internal/data"
)

// createExportCommand создает команду export
func (app *Application) createExportCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Export the library index to a YAML file",
		Long:  `Write the list of tracks (without audio data) to a YAML snapshot file.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return app.exportLibrary(ctx, args[0])
		},
	}
}

func (app *Application) exportLibrary(ctx context.Context, filePath string) error {
	snapshot := data.NewSnapshot(app.Store.AllTracks(ctx))
	if err := snapshot.Save(filePath); err != nil {
		return fmt.Errorf("ошибка экспорта библиотеки: %w", err)
	}
	fmt.Printf("📦 Экспортировано треков: %d в %s\n", len(snapshot.Tracks), filePath)
	return nil
}
