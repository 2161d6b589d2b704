package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hazadus/go-jukebox/internal/ingest"
)

// createWatchCommand создает команду watch
func (app *Application) createWatchCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Watch a directory and add new mp3 files",
		Long:  `Watch a directory (music_dir from the config by default) and import new audio files as they appear.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			dir := app.Config.MusicDir
			if len(args) > 0 {
				dir = args[0]
			}
			return app.watchDir(ctx, dir)
		},
	}
}

func (app *Application) watchDir(ctx context.Context, dir string) error {
	watcher := ingest.NewWatcher(app.Pipeline, dir, app.Log.Named("watcher"))
	watcher.OnIngest = func(summary ingest.Summary, err error) {
		if err != nil {
			app.Log.Error("ошибка добавления файлов", zap.Error(err))
			fmt.Printf("❌ Ошибка добавления: %v\n", err)
			return
		}
		fmt.Printf("📥 Добавлено: %d, пропущено: %d, ошибок: %d\n",
			summary.Added, summary.Skipped, summary.Failed)
	}

	fmt.Printf("👀 Наблюдаем за каталогом %s (Ctrl+C для выхода)\n", dir)
	if err := watcher.Run(ctx); err != nil {
		return fmt.Errorf("ошибка наблюдения: %w", err)
	}
	return nil
}
