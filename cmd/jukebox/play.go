package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/spf13/cobra"

	"github.com/hazadus/go-jukebox/internal/data"
	"github.com/hazadus/go-jukebox/internal/jukebox"
	"github.com/hazadus/go-jukebox/internal/utils"
)

const (
	volumeStep      = 0.1
	seekStep        = 5 * time.Second
	refreshInterval = time.Second
)

// createPlayCommand создает команду play с привязкой к экземпляру приложения
func (app *Application) createPlayCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "play [trackid]",
		Short: "Play the library starting from a track",
		Long:  `Play tracks from the library starting with the given ID (or ID prefix), or from the first track.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			idOrPrefix := ""
			if len(args) > 0 {
				idOrPrefix = args[0]
			}
			return app.play(ctx, idOrPrefix)
		},
	}
}

// startTrack выбирает трек для воспроизведения по ID или первый в библиотеке
func (app *Application) startTrack(ctx context.Context, idOrPrefix string) (data.Track, error) {
	app.Jukebox.Refresh(ctx)
	tracks := app.Jukebox.Tracks()
	if len(tracks) == 0 {
		return data.Track{}, errors.New("библиотека пуста")
	}
	if idOrPrefix == "" {
		return tracks[0], nil
	}

	track, err := data.FindTrack(tracks, idOrPrefix)
	if err != nil {
		return data.Track{}, fmt.Errorf("ошибка поиска трека: %w", err)
	}
	return *track, nil
}

func (app *Application) play(ctx context.Context, idOrPrefix string) error {
	track, err := app.startTrack(ctx, idOrPrefix)
	if err != nil {
		return err
	}

	if err := app.Jukebox.Select(ctx, track); err != nil {
		return fmt.Errorf("ошибка запуска воспроизведения: %w", err)
	}

	if err := keyboard.Open(); err != nil {
		return fmt.Errorf("ошибка перехвата клавиатуры: %w", err)
	}
	defer func() { _ = keyboard.Close() }()

	keys, err := keyboard.GetKeys(10)
	if err != nil {
		return fmt.Errorf("ошибка чтения клавиатуры: %w", err)
	}

	fmt.Printf("🎮 Управление:\n")
	fmt.Printf("   [Пробел] пауза • [n/p] следующий/предыдущий • [s] перемешать • [r] повтор\n")
	fmt.Printf("   [+/-] громкость • [←/→] перемотка • [q] выход\n")
	fmt.Println()

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	var shownID string
	for {
		snap := app.Jukebox.Snapshot()
		if snap.Track != nil && snap.Track.ID != shownID {
			shownID = snap.Track.ID
			fmt.Printf("\r\033[K🎵 %s - %s\n", snap.Track.Artist, snap.Track.Title)
		}
		displayStatus(snap)

		select {
		case <-ctx.Done():
			fmt.Println("\n🚫 Воспроизведение прервано")
			return nil

		case <-ticker.C:

		case ev, ok := <-keys:
			if !ok {
				return nil
			}
			if ev.Err != nil {
				return fmt.Errorf("ошибка чтения клавиатуры: %w", ev.Err)
			}
			if quit := app.handleKey(ctx, ev, snap); quit {
				fmt.Println("\n⏹️  Воспроизведение остановлено пользователем")
				return nil
			}
		}
	}
}

// handleKey выполняет команду по нажатой клавише; true означает выход
func (app *Application) handleKey(ctx context.Context, ev keyboard.KeyEvent, snap jukebox.Snapshot) bool {
	var err error

	if ev.Key != 0 {
		switch ev.Key {
		case keyboard.KeyEsc, keyboard.KeyCtrlC:
			return true
		case keyboard.KeySpace:
			err = app.Jukebox.TogglePlay(ctx)
		case keyboard.KeyArrowRight:
			app.Jukebox.Seek((snap.Current + seekStep).Seconds())
		case keyboard.KeyArrowLeft:
			app.Jukebox.Seek((snap.Current - seekStep).Seconds())
		}
	} else {
		switch ev.Rune {
		case 'q':
			return true
		case ' ':
			err = app.Jukebox.TogglePlay(ctx)
		case 'n':
			err = app.Jukebox.Next(ctx)
		case 'p':
			err = app.Jukebox.Previous(ctx)
		case 's':
			app.Jukebox.ToggleShuffle()
		case 'r':
			app.Jukebox.ToggleRepeat()
		case '+', '=':
			app.Jukebox.SetVolume(snap.Volume + volumeStep)
		case '-':
			app.Jukebox.SetVolume(snap.Volume - volumeStep)
		}
	}

	if err != nil {
		fmt.Printf("\n❌ %v\n", err)
	}
	return false
}

// displayStatus выводит строку состояния воспроизведения
func displayStatus(snap jukebox.Snapshot) {
	statusIcon := "⏸️"
	if snap.IsPlaying {
		statusIcon = "▶️"
	}

	modes := ""
	if snap.Shuffle {
		modes += " 🔀"
	}
	if snap.Repeat {
		modes += " 🔁"
	}

	fmt.Printf("\r\033[K%s  %s / %s | 🔊 %s%s",
		statusIcon,
		utils.FormatDuration(snap.Current),
		utils.FormatDuration(snap.Total),
		utils.FormatVolume(snap.Volume),
		modes)
}
