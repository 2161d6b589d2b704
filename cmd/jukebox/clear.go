package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// createClearCommand создает команду clear
func (app *Application) createClearCommand(ctx context.Context) *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all tracks from the library",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if !confirmed {
				return fmt.Errorf("очистка библиотеки требует флага --yes")
			}
			return app.clearLibrary(ctx)
		},
	}
	cmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "confirm removal of all tracks")
	return cmd
}

func (app *Application) clearLibrary(ctx context.Context) error {
	count := len(app.Store.AllTracks(ctx))
	if err := app.Store.ClearLibrary(ctx); err != nil {
		return fmt.Errorf("ошибка очистки библиотеки: %w", err)
	}
	fmt.Printf("🧹 Удалено треков: %d\n", count)
	return nil
}
