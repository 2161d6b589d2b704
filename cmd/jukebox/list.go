package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-jukebox/internal/data"
	"github.com/hazadus/go-jukebox/internal/utils"
)

const defaultSampleSize = 5

// createListCommand создает команду list с привязкой к экземпляру приложения
func (app *Application) createListCommand(ctx context.Context) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all tracks from the library",
		Long:  `Display all tracks stored in the library, optionally filtered by a search query.`,
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			if query != "" {
				printTracks(app.Store.Search(ctx, query))
				return
			}
			printTracks(app.Store.AllTracks(ctx))
		},
	}
	cmd.Flags().StringVarP(&query, "search", "s", "", "filter tracks by title or artist")
	return cmd
}

// createRecentCommand создает команду recent
func (app *Application) createRecentCommand(ctx context.Context) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recently played tracks",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			printTracks(app.Store.RecentTracks(ctx, count))
		},
	}
	cmd.Flags().IntVarP(&count, "number", "n", defaultSampleSize, "number of tracks")
	return cmd
}

// createRandomCommand создает команду random
func (app *Application) createRandomCommand(ctx context.Context) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "random",
		Short: "List random tracks from the library",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			printTracks(app.Store.RandomTracks(ctx, count))
		},
	}
	cmd.Flags().IntVarP(&count, "number", "n", defaultSampleSize, "number of tracks")
	return cmd
}

func printTracks(tracks []data.Track) {
	if len(tracks) == 0 {
		fmt.Println("📚 Треки не найдены. Добавьте треки с помощью команды 'add'.")
		return
	}

	fmt.Printf("📚 Найдено треков: %d\n\n", len(tracks))

	fmt.Printf("%-10s %-30s %-30s %-8s %-16s\n",
		"ID", "Исполнитель", "Название", "Длит.", "Воспроизведен")
	fmt.Println(strings.Repeat("-", 100))

	for _, track := range tracks {
		fmt.Printf("%-10s %-30s %-30s %-8s %-16s\n",
			shortID(track.ID),
			utils.TruncateString(track.Artist, 28),
			utils.TruncateString(track.Title, 28),
			track.Duration,
			utils.FormatLastPlayed(track.LastPlayed))
	}

	fmt.Println()
	fmt.Println("💡 Используйте 'jukebox play [ID]' для воспроизведения трека")
}

// shortID возвращает префикс ID, которого достаточно для команд play и delete
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
