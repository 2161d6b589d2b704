package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-jukebox/internal/data"
)

// createDeleteCommand создает команду delete с привязкой к экземпляру приложения
func (app *Application) createDeleteCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a track by ID",
		Long:  `Delete a track and its audio data from the library by its ID or ID prefix.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return app.deleteTrack(ctx, args[0])
		},
	}
}

func (app *Application) deleteTrack(ctx context.Context, idOrPrefix string) error {
	track, err := data.FindTrack(app.Store.AllTracks(ctx), idOrPrefix)
	if err != nil {
		return fmt.Errorf("ошибка поиска трека: %w", err)
	}

	fmt.Printf("🗑️  Удаляем трек: %s - %s\n", track.Artist, track.Title)

	if err := app.Store.RemoveTrack(ctx, track.ID); err != nil {
		return fmt.Errorf("ошибка удаления трека: %w", err)
	}

	fmt.Println("✅ Трек успешно удален из библиотеки")
	return nil
}
