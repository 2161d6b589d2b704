package main

import (
	"context"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/hazadus/go-jukebox/internal/ingest"
)

// createAddCommand создает команду add с привязкой к экземпляру приложения
func (app *Application) createAddCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "add [file or directory paths...]",
		Short: "Add mp3 files to the library",
		Long:  `Import audio files into the local library. Directories are scanned recursively, tracks with an existing title are skipped.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return app.addFiles(ctx, args)
		},
	}
}

// addFiles добавляет файлы с отображением прогресса
func (app *Application) addFiles(ctx context.Context, paths []string) error {
	files, err := ingest.OpenFiles(paths)
	if err != nil {
		return fmt.Errorf("ошибка открытия файлов: %w", err)
	}

	fmt.Printf("📥 Найдено файлов: %d\n", len(files))

	var bar *progressbar.ProgressBar
	summary, err := app.Pipeline.Ingest(ctx, files, func(p ingest.Progress) {
		if bar == nil {
			bar = progressbar.NewOptions(p.Total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("Добавление"),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionEnableColorCodes(true))
		}
		_ = bar.Set(p.Processed)
	})
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return fmt.Errorf("ошибка добавления файлов: %w", err)
	}

	fmt.Printf("✅ Добавлено: %d, пропущено (повторы): %d, ошибок: %d\n",
		summary.Added, summary.Skipped, summary.Failed)
	if skipped := len(files) - summary.Total; skipped > 0 {
		fmt.Printf("   Не аудиофайлов: %d\n", skipped)
	}
	return nil
}
